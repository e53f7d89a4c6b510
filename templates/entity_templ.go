// Rendered form of entity.templ; `templ generate` rewrites this file.

package templates

import "github.com/a-h/templ"

// EntityListContent renders the list without the shell.
func EntityListContent(data EntityListData) templ.Component {
	return component(func(h *html) {
		h.raw(`<div class="flex items-center justify-between mb-4">`)
		h.rawf(`<h1 class="text-2xl font-bold">%s</h1><div class="flex gap-2">`, data.Title)
		if data.ImportURL != "" {
			h.rawf(`<a class="btn btn-sm" href="%s">Import</a>`, data.ImportURL)
		}
		h.rawf(`<a class="btn btn-sm" href="%s">Export</a>`, data.ExportURL)
		h.rawf(`<a class="btn btn-sm btn-primary" href="/%s/create">New %s</a>`, data.Slug, data.Singular)
		h.raw(`</div></div>`)

		h.rawf(`<form method="get" action="/%s" class="mb-4">`, data.Slug)
		h.raw(`<input type="search" name="search" placeholder="Search" class="input input-bordered input-sm w-72"`)
		h.attr("value", data.Search)
		h.raw(`></form>`)

		if len(data.Rows) == 0 {
			h.rawf(`<p class="opacity-60">No %s found.</p>`, data.Title)
			return
		}
		h.raw(`<table class="table table-sm"><thead><tr>`)
		for _, c := range data.Columns {
			h.raw(`<th><a`)
			h.attr("href", c.SortURL)
			h.raw(">")
			h.text(c.Label)
			switch c.SortedBy {
			case "asc":
				h.raw(" ▲")
			case "desc":
				h.raw(" ▼")
			}
			h.raw(`</a></th>`)
		}
		h.raw(`<th></th></tr></thead><tbody>`)
		for _, r := range data.Rows {
			h.rawf(`<tr id="row-%s">`, r.ID)
			for _, cell := range r.Cells {
				h.raw("<td>")
				h.text(cell)
				h.raw("</td>")
			}
			h.raw(`<td class="text-right">`)
			h.rawf(`<a class="btn btn-xs" href="/%s/%s/edit">Edit</a> `, data.Slug, r.ID)
			h.rawf(`<button class="btn btn-xs btn-error" hx-delete="/%s/%s" hx-confirm="Delete this %s?" hx-target="#row-%s" hx-swap="outerHTML">Delete</button>`,
				data.Slug, r.ID, data.Singular, r.ID)
			h.raw(`</td></tr>`)
		}
		h.raw(`</tbody></table>`)
		h.render(pager(data.Pagination))
	})
}

// EntityListPage renders the list inside the shell.
func EntityListPage(data EntityListData, header HeaderData, sidebar SidebarData) templ.Component {
	return Page(data.Title, header, sidebar, EntityListContent(data))
}

// EntityFormContent renders the form without the shell.
func EntityFormContent(data EntityFormData) templ.Component {
	return component(func(h *html) {
		h.rawf(`<h1 class="text-2xl font-bold mb-4">%s</h1>`, data.heading())
		h.raw(`<form method="post" class="max-w-xl space-y-3"`)
		h.attr("action", data.action())
		h.attr("hx-post", data.action())
		h.raw(` hx-target="#main-content">`)
		for _, f := range data.Fields {
			h.raw(`<label class="form-control w-full"><span class="label-text">`)
			h.text(f.Label)
			if f.Required {
				h.raw(` *`)
			}
			h.raw(`</span>`)
			value := data.Values[f.Name]
			switch f.Type {
			case "textarea":
				h.rawf(`<textarea name="%s" class="textarea textarea-bordered">%s</textarea>`, f.Name, value)
			case "select":
				h.render(selectInput(f.Name, f.Options, value, "—", nil))
			default:
				h.rawf(`<input type="%s" name="%s" class="input input-bordered input-sm"`, f.Type, f.Name)
				if f.Type == "number" {
					h.raw(` step="any"`)
				}
				h.attr("value", value)
				h.raw(`>`)
			}
			h.render(fieldError(data.Errors, f.Name))
			h.raw(`</label>`)
		}
		h.raw(`<div class="flex gap-2 pt-2"><button type="submit" class="btn btn-primary btn-sm">Save</button>`)
		h.rawf(`<a class="btn btn-sm" href="/%s">Cancel</a></div></form>`, data.Slug)
	})
}

// EntityFormPage renders the form inside the shell.
func EntityFormPage(data EntityFormData, header HeaderData, sidebar SidebarData) templ.Component {
	return Page(data.Singular, header, sidebar, EntityFormContent(data))
}
