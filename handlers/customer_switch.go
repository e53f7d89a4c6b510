package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase/core"
)

// HandleCustomerActivate scopes the desk to one customer and asks HTMX for a
// full page redirect so header and sidebar re-render.
func HandleCustomerActivate(d *Deps) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		customerID := e.Request.PathValue("id")
		rec, err := d.App.FindRecordById("customers", customerID)
		if err != nil {
			return ErrorToast(e, http.StatusNotFound, "Customer not found")
		}

		setActiveCustomer(e, customerID)
		SetToast(e, "success", "Showing "+rec.GetString("name"))
		e.Response.Header().Set("HX-Redirect", "/offers")
		return e.String(http.StatusOK, "OK")
	}
}

// HandleCustomerDeactivate clears the customer scope.
func HandleCustomerDeactivate(d *Deps) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		clearActiveCustomer(e)
		SetToast(e, "success", "Showing all customers")
		e.Response.Header().Set("HX-Redirect", "/")
		return e.String(http.StatusOK, "OK")
	}
}
