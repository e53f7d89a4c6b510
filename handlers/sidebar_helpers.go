package handlers

import (
	"net/http"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"

	"offerdesk/templates"
)

// BuildSidebarData constructs the SidebarData from the current request
// context. Offer counts are scoped to the active customer when one is set.
func BuildSidebarData(r *http.Request, app core.App) templates.SidebarData {
	active := GetActiveCustomer(r)
	data := templates.SidebarData{
		ActiveCustomer: active,
		ActivePath:     r.URL.Path,
		Main: []templates.NavItem{
			{Label: "Dashboard", Href: "/"},
			{Label: "Offers", Href: "/offers"},
			{Label: "Customers", Href: "/customers"},
			{Label: "Partners", Href: "/partners"},
			{Label: "Opportunities", Href: "/opportunities"},
			{Label: "Contracts", Href: "/contracts"},
			{Label: "Projects", Href: "/projects"},
		},
		Catalog: []templates.NavItem{
			{Label: "Licenses", Href: "/licenses"},
			{Label: "Services", Href: "/services"},
		},
	}

	var scope []dbx.Expression
	if active != nil {
		scope = append(scope, dbx.HashExp{"customer": active.ID})
	}
	if n, err := app.CountRecords("offers", scope...); err == nil {
		data.Main[1].Count = int(n)
	}
	if n, err := app.CountRecords("contracts", scope...); err == nil {
		data.Main[5].Count = int(n)
	}
	if n, err := app.CountRecords("license_pricing"); err == nil {
		data.Catalog[0].Count = int(n)
	}
	if n, err := app.CountRecords("service_catalog"); err == nil {
		data.Catalog[1].Count = int(n)
	}
	return data
}
