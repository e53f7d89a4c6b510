package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"offerdesk/templates"
	"offerdesk/testhelpers"
)

func TestGetActiveCustomer_FromContext(t *testing.T) {
	expected := &templates.ActiveCustomer{ID: "c1", Name: "Northwind"}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(context.WithValue(req.Context(), ActiveCustomerKey, expected))

	got := GetActiveCustomer(req)
	require.NotNil(t, got)
	assert.Equal(t, "c1", got.ID)
}

func TestGetActiveCustomer_NotInContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Nil(t, GetActiveCustomer(req))
}

func TestGetHeaderData_NotInContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	got := GetHeaderData(req)
	assert.Nil(t, got.ActiveCustomer)
	assert.Empty(t, got.Customers)
}

func TestGetSidebarData_FromContext(t *testing.T) {
	expected := templates.SidebarData{ActivePath: "/offers"}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(context.WithValue(req.Context(), SidebarDataKey, expected))

	assert.Equal(t, "/offers", GetSidebarData(req).ActivePath)
}

// runMiddleware executes the middleware and returns the request with the
// context it stored for the next handler.
func runMiddleware(t *testing.T, d *Deps, req *http.Request) (*http.Request, *httptest.ResponseRecorder) {
	t.Helper()
	rec := httptest.NewRecorder()
	e := newTestRequestEvent(d.App, req, rec)
	require.NoError(t, ActiveCustomerMiddleware(d)(e))
	return e.Request, rec
}

func TestActiveCustomerMiddleware_LoadsCookieCustomer(t *testing.T) {
	d := newTestDeps(t)
	cust := testhelpers.CreateTestCustomer(t, d.App, "Northwind")
	testhelpers.CreateTestCustomer(t, d.App, "Contoso")

	req := httptest.NewRequest(http.MethodGet, "/offers", nil)
	req.AddCookie(&http.Cookie{Name: activeCustomerCookie, Value: cust.Id})
	seen, _ := runMiddleware(t, d, req)

	active := GetActiveCustomer(seen)
	require.NotNil(t, active)
	assert.Equal(t, "Northwind", active.Name)

	header := GetHeaderData(seen)
	require.Len(t, header.Customers, 2)
	assert.Equal(t, "Contoso", header.Customers[0].Name)
	assert.False(t, header.Customers[0].IsActive)
	assert.True(t, header.Customers[1].IsActive)

	assert.Equal(t, "/offers", GetSidebarData(seen).ActivePath)
}

func TestActiveCustomerMiddleware_ClearsUnknownCookie(t *testing.T) {
	d := newTestDeps(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: activeCustomerCookie, Value: "missing"})

	seen, rec := runMiddleware(t, d, req)

	assert.Nil(t, GetActiveCustomer(seen))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, activeCustomerCookie, cookies[0].Name)
	assert.Equal(t, -1, cookies[0].MaxAge)
}

func TestHandleCustomerActivate(t *testing.T) {
	d := newTestDeps(t)
	cust := testhelpers.CreateTestCustomer(t, d.App, "Northwind")

	req := httptest.NewRequest(http.MethodPost, "/customers/"+cust.Id+"/activate", nil)
	req.Header.Set("HX-Request", "true")
	req.SetPathValue("id", cust.Id)
	rec := serve(t, d, HandleCustomerActivate(d), req)

	testhelpers.AssertHXRedirect(t, rec.Header().Get("HX-Redirect"), "/offers")
	var found bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == activeCustomerCookie {
			found = true
			assert.Equal(t, cust.Id, c.Value)
		}
	}
	assert.True(t, found, "expected active customer cookie")
}

func TestHandleCustomerActivate_NotFound(t *testing.T) {
	d := newTestDeps(t)
	req := httptest.NewRequest(http.MethodPost, "/customers/nope/activate", nil)
	req.SetPathValue("id", "nope")
	rec := serve(t, d, HandleCustomerActivate(d), req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "none", rec.Header().Get("HX-Reswap"))
}
