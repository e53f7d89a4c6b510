// Rendered form of dashboard.templ; `templ generate` rewrites this file.

package templates

import "github.com/a-h/templ"

// DashboardContent renders the home page.
func DashboardContent(data DashboardData) templ.Component {
	return component(func(h *html) {
		heading := "Dashboard"
		if data.Customer != nil {
			heading = data.Customer.Name
		}
		h.rawf(`<h1 class="text-2xl font-bold mb-4">%s</h1><div class="stats shadow mb-6">`, heading)
		if data.Customer != nil {
			h.render(stat("Contracted MRR", data.CustomerMRR))
		} else {
			h.render(stat("Customers", itoa(data.Customers)))
			h.render(stat("Active MRR", data.ActiveMRR))
		}
		h.render(stat("Open offers", itoa(data.OpenOffers)))
		h.render(stat("Pipeline TCV", data.PipelineTCV))
		if data.DraftsInFlight > 0 {
			h.render(stat("Unsaved drafts", itoa(data.DraftsInFlight)))
		}
		h.raw(`</div>`)

		if len(data.RecentOffers) > 0 {
			h.raw(`<h2 class="text-lg font-semibold mb-2">Recent offers</h2><ul>`)
			for _, o := range data.RecentOffers {
				h.rawf(`<li><a class="link" href="/offers/%s">%s</a> %s <span class="badge %s">%s</span> %s</li>`,
					o.ID, o.OfferNumber, o.Title, statusBadge(o.Status), humanize(o.Status), o.TCV)
			}
			h.raw(`</ul>`)
		}
	})
}

func stat(label, value string) templ.Component {
	return component(func(h *html) {
		h.rawf(`<div class="stat"><div class="stat-title">%s</div><div class="stat-value text-lg">%s</div></div>`, label, value)
	})
}

// DashboardPage renders the home page inside the shell.
func DashboardPage(data DashboardData, header HeaderData, sidebar SidebarData) templ.Component {
	return Page("Dashboard", header, sidebar, DashboardContent(data))
}
