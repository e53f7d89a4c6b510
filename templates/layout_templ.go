// Rendered form of layout.templ; `templ generate` rewrites this file.

package templates

import "github.com/a-h/templ"

// Page wraps content in the full application shell.
func Page(title string, header HeaderData, sidebar SidebarData, content templ.Component) templ.Component {
	return component(func(h *html) {
		h.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		h.rawf(`<title>%s · Offer Desk</title>`, title)
		h.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		h.raw(`<link rel="stylesheet" href="/static/css/app.css">`)
		h.raw(`<script src="/static/js/htmx.min.js" defer></script>`)
		h.raw(`<script src="/static/js/app.js" defer></script>`)
		h.raw(`</head><body hx-boost="true"><div class="flex min-h-screen">`)
		h.render(Sidebar(sidebar))
		h.raw(`<div class="flex-1">`)
		h.render(Header(header))
		h.raw(`<main id="main-content" class="p-6">`)
		h.render(content)
		h.raw(`</main></div></div><div id="toast-container"></div></body></html>`)
	})
}

// Header renders the top bar with the customer switcher.
func Header(data HeaderData) templ.Component {
	return component(func(h *html) {
		h.raw(`<header class="navbar border-b px-6"><div class="flex-1 font-semibold">Offer Desk</div>`)
		h.raw(`<div class="dropdown dropdown-end"><label tabindex="0" class="btn btn-sm btn-ghost">`)
		if data.ActiveCustomer != nil {
			h.text(data.ActiveCustomer.Name)
		} else {
			h.raw("All customers")
		}
		h.raw(`</label><ul tabindex="0" class="dropdown-content menu bg-base-100 shadow w-64">`)
		for _, c := range data.Customers {
			h.raw(`<li><a`)
			h.attr("hx-post", "/customers/"+c.ID+"/activate")
			if c.IsActive {
				h.raw(` class="active"`)
			}
			h.raw(">")
			h.text(c.Name)
			if c.Country != "" {
				h.rawf(` <span class="text-xs opacity-60">%s</span>`, c.Country)
			}
			h.raw(`</a></li>`)
		}
		if data.ActiveCustomer != nil {
			h.raw(`<li><a hx-post="/customers/deactivate">Show all customers</a></li>`)
		}
		h.raw(`</ul></div></header>`)
	})
}

// Sidebar renders the navigation.
func Sidebar(data SidebarData) templ.Component {
	return component(func(h *html) {
		h.raw(`<aside class="w-60 border-r p-4"><nav class="menu">`)
		if data.ActiveCustomer != nil {
			h.rawf(`<div class="text-xs uppercase opacity-60 mb-2" data-active-customer="%s">%s</div>`, data.ActiveCustomer.ID, data.ActiveCustomer.Name)
		}
		h.render(navSection("", data.Main, data.ActivePath))
		h.render(navSection("Catalog", data.Catalog, data.ActivePath))
		h.raw(`</nav></aside>`)
	})
}

func navSection(title string, items []NavItem, activePath string) templ.Component {
	return component(func(h *html) {
		if title != "" {
			h.rawf(`<li class="menu-title">%s</li>`, title)
		}
		h.raw(`<ul>`)
		for _, it := range items {
			h.raw(`<li><a`)
			h.attr("href", it.Href)
			if navActive(activePath, it.Href) {
				h.raw(` class="active"`)
			}
			h.raw(">")
			h.text(it.Label)
			if it.Count > 0 {
				h.rawf(` <span class="badge badge-sm">%s</span>`, it.Count)
			}
			h.raw(`</a></li>`)
		}
		h.raw(`</ul>`)
	})
}

func pager(p Pagination) templ.Component {
	return component(func(h *html) {
		if p.TotalPages <= 1 {
			return
		}
		h.raw(`<div class="join mt-4">`)
		for i := 1; i <= p.TotalPages; i++ {
			cls := "join-item btn btn-sm"
			if i == p.Page {
				cls += " btn-active"
			}
			h.rawf(`<a class="%s" href="%s">%s</a>`, cls, p.pageURL(i), i)
		}
		h.raw(`</div>`)
	})
}
