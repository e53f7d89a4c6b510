// Rendered form of editor.templ; `templ generate` rewrites this file.

package templates

import (
	"strconv"

	"github.com/a-h/templ"
)

// Editor renders a line item editor. Every mutation swaps the whole partial.
func Editor(data EditorData) templ.Component {
	return component(func(h *html) {
		h.raw(`<section class="card border mb-6"`)
		h.attr("id", EditorID(data.KindSlug))
		h.attr("hx-target", "#"+EditorID(data.KindSlug))
		h.raw(` hx-swap="outerHTML"><div class="card-body">`)

		h.raw(`<div class="flex items-center justify-between">`)
		h.rawf(`<h2 class="card-title">%s</h2>`, data.Title)
		if !data.ReadOnly {
			h.raw(`<button class="btn btn-sm btn-primary"`)
			h.attr("hx-post", data.BaseURL+"/groups")
			h.rawf(`>Add %s</button>`, data.GroupNoun)
		}
		h.raw(`</div>`)

		if len(data.Groups) == 0 {
			h.rawf(`<p class="opacity-60">No %s yet.</p>`, data.GroupNoun+"s")
		}
		for _, g := range data.Groups {
			h.render(editorGroup(data, g))
		}

		h.raw(`<div class="flex justify-end gap-6 font-semibold pt-2 border-t" data-totals>`)
		if data.ShowMonthly {
			h.rawf(`<span>Monthly: <span data-monthly-total>%s</span></span>`, data.MonthlyTotal)
		}
		h.rawf(`<span>Total: <span data-grand-total>%s</span></span>`, data.GrandTotal)
		h.raw(`</div></div></section>`)
	})
}

func editorGroup(data EditorData, g EditorGroup) templ.Component {
	return component(func(h *html) {
		groupURL := data.groupURL(g.ID)
		h.raw(`<div class="border rounded p-3 mb-3"`)
		h.attr("data-group", g.ID)
		h.raw(`>`)

		h.raw(`<form class="flex flex-wrap items-end gap-2"`)
		if !data.ReadOnly {
			h.attr("hx-patch", groupURL)
			h.raw(` hx-trigger="change"`)
		}
		h.raw(`>`)
		h.rawf(`<span class="badge badge-outline">%s</span>`, g.Code)
		h.raw(`<input name="name" class="input input-bordered input-sm"`)
		h.attr("value", g.Name)
		h.attrs(data.disabled())
		h.raw(`>`)
		h.raw(`<label class="text-xs">`)
		h.text(data.CategoryLabel)
		h.render(selectInput("category", data.CategoryOptions, g.Category, "", data.disabled()))
		h.raw(`</label>`)
		if data.ReferenceLabel != "" {
			h.raw(`<label class="text-xs">`)
			h.text(data.ReferenceLabel)
			h.render(selectInput("reference", data.ReferenceOptions, g.Reference, "—", data.disabled()))
			h.raw(`</label>`)
		}
		h.raw(`<label class="text-xs">`)
		h.text(data.DurationLabel)
		h.raw(`<input type="number" min="1" name="duration_months" class="input input-bordered input-sm w-20"`)
		h.attr("value", strconv.Itoa(g.Duration))
		h.attrs(data.disabled())
		h.raw(`></label>`)
		if !data.ReadOnly {
			h.raw(`<button type="button" class="btn btn-xs btn-error ml-auto"`)
			h.attr("hx-delete", groupURL)
			h.rawf(` hx-confirm="Delete %s and all its items?">Delete</button>`, g.Code)
		}
		h.raw(`</form>`)

		h.raw(`<table class="table table-xs mt-2"><thead><tr>`)
		h.rawf(`<th>%s</th><th>%s</th>`, humanize(data.ItemNoun), data.QuantityLabel)
		if data.MarkupField != "" {
			h.raw(`<th>Markup %</th>`)
		}
		h.rawf(`<th>%s</th><th class="text-right">Total</th><th></th></tr></thead><tbody>`, data.RateLabel)
		for _, it := range g.Items {
			itemURL := groupURL + "/items/" + it.ID
			h.raw(`<tr`)
			h.attr("data-item", it.ID)
			h.raw(`><td>`)
			h.text(it.Label)
			h.raw(`</td><td>`)
			h.render(patchInput(data.QuantityField, it.Quantity, itemURL, data.ReadOnly))
			h.raw(`</td>`)
			if data.MarkupField != "" {
				h.raw(`<td>`)
				h.render(patchInput(data.MarkupField, it.Markup, itemURL, data.ReadOnly))
				h.raw(`</td>`)
			}
			h.raw(`<td>`)
			if data.RateField != "" {
				h.render(patchInput(data.RateField, it.Rate, itemURL, data.ReadOnly))
			} else {
				h.text(it.UnitRate)
			}
			h.raw(`</td><td class="text-right">`)
			h.text(it.Total)
			h.raw(`</td><td>`)
			if !data.ReadOnly {
				h.raw(`<button class="btn btn-xs btn-ghost"`)
				h.attr("hx-delete", itemURL)
				h.raw(`>✕</button>`)
			}
			h.raw(`</td></tr>`)
		}
		h.raw(`</tbody></table>`)

		if !data.ReadOnly {
			h.render(addItemForm(data, g.ID))
		}

		h.raw(`<div class="flex justify-end gap-4 text-sm">`)
		if data.ShowMonthly {
			h.rawf(`<span>Monthly: %s</span>`, g.MonthlyTotal)
		}
		h.rawf(`<span data-group-total>Total: %s</span></div></div>`, g.GrandTotal)
	})
}

func addItemForm(data EditorData, groupID string) templ.Component {
	return component(func(h *html) {
		h.raw(`<form class="flex flex-wrap items-end gap-2 mt-2"`)
		h.attr("hx-post", data.groupURL(groupID)+"/items")
		h.raw(`>`)
		for i, f := range data.Facets {
			h.raw(`<label class="text-xs">`)
			h.text(f.Label)
			h.raw(`<span`)
			h.attr("id", FacetSlotID(data.KindSlug, groupID, i))
			h.raw(`>`)
			h.render(selectInput(f.Name, f.Options, "", "Select…", data.facetAttrs(groupID, i)))
			h.raw(`</span></label>`)
		}
		h.raw(`<label class="text-xs">`)
		h.text(data.QuantityLabel)
		h.rawf(`<input type="number" min="1" step="1" name="%s" value="1" class="input input-bordered input-sm w-20"></label>`, data.QuantityField)
		if data.MarkupField != "" {
			h.rawf(`<label class="text-xs">Markup %%<input type="number" min="0" step="any" name="%s" value="0" class="input input-bordered input-sm w-20"></label>`, data.MarkupField)
		}
		if data.RateField != "" {
			h.raw(`<label class="text-xs">`)
			h.text(data.RateLabel)
			h.rawf(`<input type="number" min="0" step="any" name="%s" placeholder="catalog" class="input input-bordered input-sm w-24"></label>`, data.RateField)
		}
		h.rawf(`<button type="submit" class="btn btn-sm">Add %s</button></form>`, data.ItemNoun)
	})
}

// FacetOptions renders the dropdown for one facet, used when an earlier
// facet changes. attrs chain the change to the next facet.
func FacetOptions(name string, opts []Option, attrs templ.Attributes) templ.Component {
	return component(func(h *html) {
		h.render(selectInput(name, opts, "", "Select…", attrs))
	})
}

func patchInput(name, value, url string, readOnly bool) templ.Component {
	return component(func(h *html) {
		h.rawf(`<input type="number" step="any" name="%s" class="input input-bordered input-xs w-20"`, name)
		h.attr("value", value)
		if readOnly {
			h.raw(" disabled")
		} else {
			h.attr("hx-patch", url)
			h.raw(` hx-trigger="change"`)
		}
		h.raw(`>`)
	})
}
