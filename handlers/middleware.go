package handlers

import (
	"context"
	"net/http"

	"github.com/pocketbase/pocketbase/core"
	"go.uber.org/zap"

	"offerdesk/templates"
)

type contextKey string

const ActiveCustomerKey contextKey = "activeCustomer"
const HeaderDataKey contextKey = "headerData"
const SidebarDataKey contextKey = "sidebarData"

const activeCustomerCookie = "active_customer"

// GetActiveCustomer extracts the active customer from the request context.
func GetActiveCustomer(r *http.Request) *templates.ActiveCustomer {
	if val, ok := r.Context().Value(ActiveCustomerKey).(*templates.ActiveCustomer); ok {
		return val
	}
	return nil
}

// GetHeaderData extracts the pre-built HeaderData from the request context.
func GetHeaderData(r *http.Request) templates.HeaderData {
	if val, ok := r.Context().Value(HeaderDataKey).(templates.HeaderData); ok {
		return val
	}
	return templates.HeaderData{}
}

// GetSidebarData extracts the pre-built SidebarData from the request context.
func GetSidebarData(r *http.Request) templates.SidebarData {
	if val, ok := r.Context().Value(SidebarDataKey).(templates.SidebarData); ok {
		return val
	}
	return templates.SidebarData{}
}

// ActiveCustomerMiddleware reads the "active_customer" cookie, loads the
// customer, builds HeaderData with the customer list and SidebarData, and
// stores them in the request context for handlers and templates.
func ActiveCustomerMiddleware(d *Deps) func(e *core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var active *templates.ActiveCustomer

		if cookie, err := e.Request.Cookie(activeCustomerCookie); err == nil && cookie.Value != "" {
			rec, err := d.App.FindRecordById("customers", cookie.Value)
			if err == nil {
				active = &templates.ActiveCustomer{ID: rec.Id, Name: rec.GetString("name")}
			} else {
				zap.S().Infof("middleware: active customer %s not found, clearing cookie", cookie.Value)
				clearActiveCustomer(e)
			}
		}

		var items []templates.CustomerSelectorItem
		if records, err := d.App.FindRecordsByFilter("customers", matchAll, "name", 0, 0); err == nil {
			for _, rec := range records {
				items = append(items, templates.CustomerSelectorItem{
					ID:       rec.Id,
					Name:     rec.GetString("name"),
					Country:  rec.GetString("country"),
					IsActive: active != nil && rec.Id == active.ID,
				})
			}
		}

		ctx := context.WithValue(e.Request.Context(), ActiveCustomerKey, active)
		ctx = context.WithValue(ctx, HeaderDataKey, templates.HeaderData{
			ActiveCustomer: active,
			Customers:      items,
		})
		e.Request = e.Request.WithContext(ctx)

		// the sidebar needs the active customer in context first
		ctx = context.WithValue(e.Request.Context(), SidebarDataKey, BuildSidebarData(e.Request, d.App))
		e.Request = e.Request.WithContext(ctx)

		return e.Next()
	}
}

func setActiveCustomer(e *core.RequestEvent, id string) {
	http.SetCookie(e.Response, &http.Cookie{
		Name:     activeCustomerCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   60 * 60 * 24 * 30,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearActiveCustomer(e *core.RequestEvent) {
	http.SetCookie(e.Response, &http.Cookie{
		Name:   activeCustomerCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
}
