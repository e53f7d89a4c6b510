package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"offerdesk/templates"
	"offerdesk/testhelpers"
)

func newRequestWithCustomer(path string, cust *templates.ActiveCustomer) *http.Request {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	return req.WithContext(context.WithValue(req.Context(), ActiveCustomerKey, cust))
}

func navCount(items []templates.NavItem, label string) int {
	for _, it := range items {
		if it.Label == label {
			return it.Count
		}
	}
	return -1
}

func TestBuildSidebarData_CountsAllOffersWithoutCustomer(t *testing.T) {
	d := newTestDeps(t)
	a := testhelpers.CreateTestCustomer(t, d.App, "Northwind")
	b := testhelpers.CreateTestCustomer(t, d.App, "Contoso")
	testhelpers.CreateTestOffer(t, d.App, a.Id, "OFF-26-001", "draft")
	testhelpers.CreateTestOffer(t, d.App, b.Id, "OFF-26-002", "sent")

	data := BuildSidebarData(httptest.NewRequest(http.MethodGet, "/offers", nil), d.App)

	assert.Equal(t, 2, navCount(data.Main, "Offers"))
	assert.Equal(t, "/offers", data.ActivePath)
	assert.Nil(t, data.ActiveCustomer)
}

func TestBuildSidebarData_ScopesToActiveCustomer(t *testing.T) {
	d := newTestDeps(t)
	a := testhelpers.CreateTestCustomer(t, d.App, "Northwind")
	b := testhelpers.CreateTestCustomer(t, d.App, "Contoso")
	testhelpers.CreateTestOffer(t, d.App, a.Id, "OFF-26-001", "draft")
	testhelpers.CreateTestOffer(t, d.App, a.Id, "OFF-26-002", "draft")
	testhelpers.CreateTestOffer(t, d.App, b.Id, "OFF-26-003", "sent")

	req := newRequestWithCustomer("/offers", &templates.ActiveCustomer{ID: a.Id, Name: "Northwind"})
	data := BuildSidebarData(req, d.App)

	assert.Equal(t, 2, navCount(data.Main, "Offers"))
	assert.Equal(t, 0, navCount(data.Main, "Contracts"))
}

func TestBuildSidebarData_CatalogCounts(t *testing.T) {
	d := newTestDeps(t)
	testhelpers.SeedTestCatalog(t, d.App)

	data := BuildSidebarData(httptest.NewRequest(http.MethodGet, "/", nil), d.App)

	assert.Equal(t, 2, navCount(data.Catalog, "Licenses"))
	assert.Equal(t, 2, navCount(data.Catalog, "Services"))
}
