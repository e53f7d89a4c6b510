// Package testhelpers provides utilities for testing PocketBase-based applications.
package testhelpers

import (
	"strings"
	"testing"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"offerdesk/collections"
)

// NewTestApp creates a PocketBase instance backed by a temporary directory.
// It bootstraps the app and runs collections.Setup to create all tables.
// The temporary directory is cleaned up automatically when the test finishes.
func NewTestApp(t *testing.T) *pocketbase.PocketBase {
	t.Helper()

	tmpDir := t.TempDir()
	app := pocketbase.NewWithConfig(pocketbase.Config{
		DefaultDataDir: tmpDir,
	})

	if err := app.Bootstrap(); err != nil {
		t.Fatalf("failed to bootstrap test app: %v", err)
	}
	t.Cleanup(func() { _ = app.ResetBootstrapState() })

	collections.Setup(app)

	return app
}

func create(t *testing.T, app *pocketbase.PocketBase, collection string, fields map[string]any) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId(collection)
	if err != nil {
		t.Fatalf("failed to find %s collection: %v", collection, err)
	}

	record := core.NewRecord(col)
	for k, v := range fields {
		record.Set(k, v)
	}
	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test %s record: %v", collection, err)
	}
	return record
}

// CreateTestCustomer creates a customer record with the given name and returns it.
func CreateTestCustomer(t *testing.T, app *pocketbase.PocketBase, name string) *core.Record {
	t.Helper()
	return create(t, app, "customers", map[string]any{
		"name":    name,
		"email":   "contact@example.com",
		"country": "Germany",
	})
}

// CreateTestPartner creates a partner of the given type.
func CreateTestPartner(t *testing.T, app *pocketbase.PocketBase, name, partnerType string) *core.Record {
	t.Helper()
	return create(t, app, "partners", map[string]any{
		"name":         name,
		"partner_type": partnerType,
	})
}

// CreateTestOffer creates an offer for a customer with the given number and status.
func CreateTestOffer(t *testing.T, app *pocketbase.PocketBase, customerID, number, status string) *core.Record {
	t.Helper()
	return create(t, app, "offers", map[string]any{
		"offer_number": number,
		"title":        "Offer " + number,
		"customer":     customerID,
		"status":       status,
	})
}

// SeedTestCatalog creates a minimal license and service catalog:
// App Server/Shared/Small at 100, App Server/Dedicated/Large at 450,
// Integration at 500 (cost 360) and Training at 350 (cost 220).
func SeedTestCatalog(t *testing.T, app *pocketbase.PocketBase) {
	t.Helper()
	for _, l := range []map[string]any{
		{"name": "App Server", "type": "Shared", "size": "Small", "monthly_price": 100},
		{"name": "App Server", "type": "Dedicated", "size": "Large", "monthly_price": 450},
	} {
		create(t, app, "license_pricing", l)
	}
	for _, s := range []map[string]any{
		{"service_name": "Integration", "category": "integration", "manday_rate": 500, "cost_rate": 360},
		{"service_name": "Training", "category": "training", "manday_rate": 350, "cost_rate": 220},
	} {
		create(t, app, "service_catalog", s)
	}
}

// CreateTestEnvironment creates an environment under an offer.
func CreateTestEnvironment(t *testing.T, app *pocketbase.PocketBase, offerID, name string, months int) *core.Record {
	t.Helper()
	return create(t, app, "environments", map[string]any{
		"offer":                   offerID,
		"code":                    "ENV-01",
		"name":                    name,
		"environment_type":        "production",
		"deployment":              "saas",
		"license_duration_months": months,
		"sort_order":              1,
	})
}

// CreateTestComponent creates an App Server/Shared/Small component.
func CreateTestComponent(t *testing.T, app *pocketbase.PocketBase, environmentID string, quantity float64) *core.Record {
	t.Helper()
	return create(t, app, "environment_components", map[string]any{
		"environment":   environmentID,
		"name":          "App Server",
		"type":          "Shared",
		"size":          "Small",
		"quantity":      quantity,
		"monthly_price": 100,
		"total_price":   100 * quantity,
		"sort_order":    1,
	})
}

// CreateTestServiceSet creates a service set under an offer.
func CreateTestServiceSet(t *testing.T, app *pocketbase.PocketBase, offerID, name string) *core.Record {
	t.Helper()
	return create(t, app, "service_sets", map[string]any{
		"offer":           offerID,
		"code":            "SRV-01",
		"name":            name,
		"category":        "implementation",
		"duration_months": 1,
		"sort_order":      1,
	})
}

// CreateTestService creates an Integration service at the catalog rate of 500.
func CreateTestService(t *testing.T, app *pocketbase.PocketBase, serviceSetID string, mandays, profit float64) *core.Record {
	t.Helper()
	return create(t, app, "service_set_services", map[string]any{
		"service_set":       serviceSetID,
		"service_name":      "Integration",
		"number_of_mandays": mandays,
		"manday_rate":       500,
		"profit_percentage": profit,
		"total_price":       500 * mandays * (1 + profit/100),
		"sort_order":        1,
	})
}

// AssertHTMLContains checks that body contains all specified fragments.
func AssertHTMLContains(t *testing.T, body string, fragments ...string) {
	t.Helper()

	for _, frag := range fragments {
		if !strings.Contains(body, frag) {
			t.Errorf("expected HTML to contain %q, but it was not found\nbody (first 500 chars): %s",
				frag, truncate(body, 500))
		}
	}
}

// AssertHTMLNotContains checks that body contains none of the fragments.
func AssertHTMLNotContains(t *testing.T, body string, fragments ...string) {
	t.Helper()

	for _, frag := range fragments {
		if strings.Contains(body, frag) {
			t.Errorf("expected HTML not to contain %q\nbody (first 500 chars): %s", frag, truncate(body, 500))
		}
	}
}

// AssertHXRedirect checks that the response has an HX-Redirect header with the expected URL.
func AssertHXRedirect(t *testing.T, headerVal, expectedURL string) {
	t.Helper()

	if headerVal != expectedURL {
		t.Errorf("expected HX-Redirect %q, got %q", expectedURL, headerVal)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
