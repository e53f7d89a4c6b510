package handlers

import (
	"net/http"

	"github.com/a-h/templ"
	"github.com/pocketbase/pocketbase/core"
	"go.uber.org/zap"

	"offerdesk/services"
	"offerdesk/templates"
)

const recentOffers = 5

// HandleDashboard renders pipeline and revenue figures, for the active
// customer when one is set.
func HandleDashboard(d *Deps) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		active := GetActiveCustomer(e.Request)
		scope, params := "", map[string]any{}
		if active != nil {
			scope = "customer = {:customer}"
			params["customer"] = active.ID
		}

		open, err := d.App.FindRecordsByFilter("offers", andFilter(scope, "(status = 'draft' || status = 'sent')"), "", 0, 0, params)
		if err != nil {
			zap.S().Errorf("dashboard: could not load open offers: %v", err)
			return e.String(http.StatusInternalServerError, "Failed to load dashboard")
		}
		var pipeline float64
		for _, rec := range open {
			pipeline += rec.GetFloat("tcv")
		}

		recent, err := d.App.FindRecordsByFilter("offers", andFilter(scope), "-created", recentOffers, 0, params)
		if err != nil {
			zap.S().Warnf("dashboard: could not load recent offers: %v", err)
		}

		data := templates.DashboardData{
			Customer:     active,
			OpenOffers:   len(open),
			PipelineTCV:  d.money(pipeline),
			RecentOffers: offerListItems(d, recent),
		}
		if d.Drafts != nil {
			data.DraftsInFlight = d.Drafts.Len()
		}

		if active != nil {
			mrr, err := services.CustomerMRR(d.App, active.ID)
			if err != nil {
				zap.S().Warnf("dashboard: %v", err)
			}
			data.CustomerMRR = d.money(mrr)
		} else {
			if n, err := d.App.CountRecords("customers"); err == nil {
				data.Customers = int(n)
			}
			contracts, err := d.App.FindRecordsByFilter("contracts", "status = 'active'", "", 0, 0)
			if err != nil {
				zap.S().Warnf("dashboard: could not load contracts: %v", err)
			}
			var mrr float64
			for _, rec := range contracts {
				mrr += rec.GetFloat("mrr")
			}
			data.ActiveMRR = d.money(mrr)
		}

		return render(e, templates.DashboardContent(data), func(h templates.HeaderData, s templates.SidebarData) templ.Component {
			return templates.DashboardPage(data, h, s)
		})
	}
}
