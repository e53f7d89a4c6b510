// Rendered form of forms.templ; `templ generate` rewrites this file.

package templates

import "github.com/a-h/templ"

func selectInput(name string, opts []Option, selected, blank string, extra templ.Attributes) templ.Component {
	return component(func(h *html) {
		h.rawf(`<select name="%s" class="select select-bordered select-sm w-full"`, name)
		h.attrs(extra)
		h.raw(">")
		if blank != "" {
			h.rawf(`<option value="">%s</option>`, blank)
		}
		for _, o := range opts {
			h.raw(`<option`)
			h.attr("value", o.Value)
			if o.Value == selected {
				h.raw(" selected")
			}
			h.raw(">")
			h.text(o.Label)
			h.raw("</option>")
		}
		h.raw("</select>")
	})
}

func fieldError(errs map[string]string, name string) templ.Component {
	return component(func(h *html) {
		if msg := errs[name]; msg != "" {
			h.rawf(`<p class="text-error text-xs mt-1" data-error-for="%s">%s</p>`, name, msg)
		}
	})
}
