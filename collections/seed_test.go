package collections_test

import (
	"testing"

	"offerdesk/collections"
	"offerdesk/testhelpers"
)

func TestSeed_CreatesCatalogs(t *testing.T) {
	app := testhelpers.NewTestApp(t)

	if err := collections.Seed(app); err != nil {
		t.Fatalf("Seed() error: %v", err)
	}

	for _, name := range []string{"license_pricing", "service_catalog", "customers", "partners"} {
		n, err := app.CountRecords(name)
		if err != nil {
			t.Fatalf("count %s: %v", name, err)
		}
		if n == 0 {
			t.Errorf("expected %s to be seeded", name)
		}
	}

	rec, err := app.FindFirstRecordByFilter(
		"license_pricing",
		"name = {:name} && type = {:type} && size = {:size}",
		map[string]any{"name": "App Server", "type": "Shared", "size": "Small"},
	)
	if err != nil {
		t.Fatalf("App Server/Shared/Small not seeded: %v", err)
	}
	if got := rec.GetFloat("monthly_price"); got != 100 {
		t.Errorf("monthly_price = %v, want 100", got)
	}

	svc, err := app.FindFirstRecordByData("service_catalog", "service_name", "Integration")
	if err != nil {
		t.Fatalf("Integration not seeded: %v", err)
	}
	if got := svc.GetFloat("manday_rate"); got != 500 {
		t.Errorf("manday_rate = %v, want 500", got)
	}
}

func TestSeed_Idempotent(t *testing.T) {
	app := testhelpers.NewTestApp(t)

	if err := collections.Seed(app); err != nil {
		t.Fatalf("first Seed() error: %v", err)
	}
	first, _ := app.CountRecords("license_pricing")

	if err := collections.Seed(app); err != nil {
		t.Fatalf("second Seed() error: %v", err)
	}
	second, _ := app.CountRecords("license_pricing")

	if first != second {
		t.Errorf("license_pricing count changed from %d to %d on second seed", first, second)
	}
}

func TestSeed_SkipsNonEmptyCollections(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	testhelpers.SeedTestCatalog(t, app)

	if err := collections.Seed(app); err != nil {
		t.Fatalf("Seed() error: %v", err)
	}

	n, _ := app.CountRecords("license_pricing")
	if n != 2 {
		t.Errorf("expected existing 2 license rows to be kept untouched, got %d", n)
	}
	customers, _ := app.CountRecords("customers")
	if customers == 0 {
		t.Error("expected empty customers collection to still be seeded")
	}
}
