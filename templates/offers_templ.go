// Rendered form of offers.templ; `templ generate` rewrites this file.

package templates

import "github.com/a-h/templ"

// OfferListContent renders the offer list.
func OfferListContent(data OfferListData) templ.Component {
	return component(func(h *html) {
		h.raw(`<div class="flex items-center justify-between mb-4"><h1 class="text-2xl font-bold">Offers</h1>`)
		h.raw(`<a class="btn btn-sm btn-primary" href="/offers/create">New offer</a></div>`)

		h.raw(`<form method="get" action="/offers" class="flex gap-2 mb-4">`)
		h.raw(`<input type="search" name="search" placeholder="Search" class="input input-bordered input-sm w-72"`)
		h.attr("value", data.Search)
		h.raw(`>`)
		h.render(selectInput("status", data.Statuses, data.Status, "All statuses", templ.Attributes{"onchange": "this.form.submit()"}))
		h.raw(`</form>`)

		if len(data.Items) == 0 {
			h.raw(`<p class="opacity-60">No offers found.</p>`)
			return
		}
		h.raw(`<table class="table table-sm"><thead><tr><th>Number</th><th>Title</th><th>Customer</th><th>Status</th>`)
		h.raw(`<th class="text-right">MRR</th><th class="text-right">TCV</th><th>Created</th></tr></thead><tbody>`)
		for _, o := range data.Items {
			h.rawf(`<tr id="offer-%s"><td><a class="link" href="/offers/%s">%s</a></td>`, o.ID, o.ID, o.OfferNumber)
			h.rawf(`<td>%s</td><td>%s</td>`, o.Title, o.Customer)
			h.rawf(`<td><span class="badge %s">%s</span></td>`, statusBadge(o.Status), humanize(o.Status))
			h.rawf(`<td class="text-right">%s</td><td class="text-right">%s</td><td>%s</td></tr>`, o.MRR, o.TCV, o.Created)
		}
		h.raw(`</tbody></table>`)
		h.render(pager(data.Pagination))
	})
}

// OfferListPage renders the offer list inside the shell.
func OfferListPage(data OfferListData, header HeaderData, sidebar SidebarData) templ.Component {
	return Page("Offers", header, sidebar, OfferListContent(data))
}

// OfferFormContent renders the offer form followed by its editors.
func OfferFormContent(data OfferFormData) templ.Component {
	return component(func(h *html) {
		h.rawf(`<h1 class="text-2xl font-bold mb-4">%s</h1>`, data.heading())
		h.raw(`<form id="offer-form" method="post" enctype="multipart/form-data" class="grid grid-cols-2 gap-3 max-w-4xl mb-6"`)
		h.attr("action", data.action())
		h.raw(`>`)
		if data.DraftToken != "" {
			h.raw(`<input type="hidden" name="draft"`)
			h.attr("value", data.DraftToken)
			h.raw(`>`)
		}
		h.raw(`<label class="form-control col-span-2"><span class="label-text">Title *</span>`)
		h.raw(`<input name="title" class="input input-bordered input-sm"`)
		h.attr("value", data.Title)
		h.raw(`>`)
		h.render(fieldError(data.Errors, "title"))
		h.raw(`</label>`)

		for _, s := range data.selects() {
			h.raw(`<label class="form-control"><span class="label-text">`)
			h.text(s.Label)
			h.raw(`</span>`)
			h.render(selectInput(s.Name, s.Options, s.Value, "—", nil))
			h.render(fieldError(data.Errors, s.Name))
			h.raw(`</label>`)
		}
		h.raw(`<label class="form-control"><span class="label-text">Valid until</span>`)
		h.raw(`<input type="date" name="valid_until" class="input input-bordered input-sm"`)
		h.attr("value", data.ValidUntil)
		h.raw(`>`)
		h.render(fieldError(data.Errors, "valid_until"))
		h.raw(`</label>`)
		h.rawf(`<label class="form-control col-span-2"><span class="label-text">Notes</span><textarea name="notes" class="textarea textarea-bordered">%s</textarea></label>`, data.Notes)
		h.raw(`<label class="form-control col-span-2"><span class="label-text">Documents</span>`)
		h.raw(`<input type="file" name="documents" multiple class="file-input file-input-bordered file-input-sm">`)
		for _, d := range data.Documents {
			h.rawf(`<span class="text-xs" data-document>%s</span>`, d)
		}
		h.render(fieldError(data.Errors, "documents"))
		h.raw(`</label></form>`)

		for _, ed := range data.Editors {
			h.render(Editor(ed))
		}

		h.raw(`<div class="flex gap-2"><button type="submit" form="offer-form" class="btn btn-primary">Save offer</button>`)
		h.rawf(`<a class="btn" href="%s">Cancel</a></div>`, data.cancelURL())
	})
}

// OfferFormPage renders the offer form inside the shell.
func OfferFormPage(data OfferFormData, header HeaderData, sidebar SidebarData) templ.Component {
	title := "New offer"
	if data.OfferNumber != "" {
		title = data.OfferNumber
	}
	return Page(title, header, sidebar, OfferFormContent(data))
}

// OfferViewContent renders an offer with its lines and revenue.
func OfferViewContent(data OfferViewData) templ.Component {
	return component(func(h *html) {
		h.raw(`<div class="flex items-start justify-between mb-4"><div>`)
		h.rawf(`<h1 class="text-2xl font-bold">%s <span class="badge %s">%s</span></h1>`, data.OfferNumber, statusBadge(data.Status), humanize(data.Status))
		h.rawf(`<p class="text-lg">%s</p><p class="opacity-70">%s`, data.Title, data.Customer)
		if data.Partner != "" {
			h.rawf(` · via %s`, data.Partner)
		}
		if data.Opportunity != "" {
			h.rawf(` · %s`, data.Opportunity)
		}
		h.raw(`</p>`)
		if data.ValidUntil != "" {
			h.rawf(`<p class="text-sm">Valid until %s</p>`, data.ValidUntil)
		}
		h.raw(`</div><div class="flex flex-wrap gap-2">`)
		if data.CanEdit {
			h.rawf(`<a class="btn btn-sm" href="/offers/%s/edit">Edit</a>`, data.ID)
		}
		h.rawf(`<a class="btn btn-sm" href="/offers/%s/export/pdf">PDF</a>`, data.ID)
		h.rawf(`<a class="btn btn-sm" href="/offers/%s/export/excel">Excel</a>`, data.ID)
		for _, s := range data.NextStatuses {
			h.rawf(`<button class="btn btn-sm" hx-post="/offers/%s/status" hx-vals="%s">Mark %s</button>`, data.ID, statusVals(s.Value), s.Label)
		}
		if data.CanConvert {
			h.rawf(`<button class="btn btn-sm btn-success" hx-post="/offers/%s/contract">Create contract</button>`, data.ID)
		}
		if data.ContractID != "" {
			h.rawf(`<a class="btn btn-sm btn-ghost" href="/contracts/%s/edit">View contract</a>`, data.ContractID)
		}
		h.rawf(`<button class="btn btn-sm btn-error" hx-delete="/offers/%s" hx-confirm="Delete this offer?">Delete</button>`, data.ID)
		h.raw(`</div></div>`)

		h.render(revenue(data.Revenue))

		for _, ed := range data.Editors {
			h.render(Editor(ed))
		}

		if data.Notes != "" {
			h.rawf(`<div class="mb-4"><h3 class="font-semibold">Notes</h3><p class="whitespace-pre-line">%s</p></div>`, data.Notes)
		}
		if len(data.Documents) > 0 {
			h.raw(`<div><h3 class="font-semibold">Documents</h3><ul>`)
			for _, d := range data.Documents {
				h.rawf(`<li><a class="link" href="%s">%s</a></li>`, d.URL, d.Name)
			}
			h.raw(`</ul></div>`)
		}
	})
}

func revenue(r RevenueData) templ.Component {
	return component(func(h *html) {
		h.raw(`<div class="stats shadow mb-6" data-revenue>`)
		for _, s := range r.items() {
			h.render(stat(s.Label, s.Value))
		}
		h.raw(`</div>`)
	})
}

// OfferViewPage renders the offer page inside the shell.
func OfferViewPage(data OfferViewData, header HeaderData, sidebar SidebarData) templ.Component {
	return Page(data.OfferNumber, header, sidebar, OfferViewContent(data))
}
