package handlers

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"offerdesk/config"
	"offerdesk/drafts"
	"offerdesk/lineitems"
	"offerdesk/metrics"
	"offerdesk/services"
	"offerdesk/testhelpers"
)

// newTestRequestEvent creates a RequestEvent suitable for handler tests.
func newTestRequestEvent(app *pocketbase.PocketBase, req *http.Request, rec *httptest.ResponseRecorder) *core.RequestEvent {
	e := &core.RequestEvent{}
	e.App = app
	e.Request = req
	e.Response = rec
	return e
}

// newTestDeps wires handler dependencies around a fresh test app.
func newTestDeps(t *testing.T) *Deps {
	t.Helper()
	app := testhelpers.NewTestApp(t)
	cfg := &config.Config{
		Currency:          "€",
		PageSize:          25,
		DraftTTL:          time.Hour,
		EnvironmentMonths: 12,
		ServiceMonths:     1,
	}
	recorder := metrics.New()
	rows := services.NewRowCache(time.Minute)
	rows.Bind(app)
	return &Deps{
		App:    app,
		Config: cfg,
		Drafts: drafts.NewRegistry(lineitems.NewPocketBaseStore(app), drafts.Options{
			TTL: cfg.DraftTTL,
			Durations: map[*lineitems.Kind]int{
				lineitems.Environments: cfg.EnvironmentMonths,
				lineitems.ServiceSets:  cfg.ServiceMonths,
			},
			Observer: recorder,
		}),
		Metrics: recorder,
		Rows:    rows,
	}
}

// serve runs a handler against a request and returns the recorder.
func serve(t *testing.T, d *Deps, h func(*core.RequestEvent) error, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	e := newTestRequestEvent(d.App, req, rec)
	if err := h(e); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return rec
}

// formRequest builds a urlencoded request, optionally marked as HTMX.
func formRequest(method, target string, body io.Reader, htmx bool) *http.Request {
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	return req
}
