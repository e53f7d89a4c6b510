package collections_test

import (
	"testing"

	"offerdesk/collections"
	"offerdesk/testhelpers"
)

func TestMigrateGroupCodes_NumbersMissingCodes(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	cust := testhelpers.CreateTestCustomer(t, app, "Legacy Co")
	offer := testhelpers.CreateTestOffer(t, app, cust.Id, "OFF-26-0003", "draft")

	first := testhelpers.CreateTestEnvironment(t, app, offer.Id, "Prod", 12)
	second := testhelpers.CreateTestEnvironment(t, app, offer.Id, "Test", 12)
	for i, rec := range []string{first.Id, second.Id} {
		r, _ := app.FindRecordById("environments", rec)
		r.Set("code", "")
		r.Set("sort_order", i+1)
		if err := app.Save(r); err != nil {
			t.Fatalf("failed to clear code: %v", err)
		}
	}

	if err := collections.MigrateGroupCodes(app); err != nil {
		t.Fatalf("MigrateGroupCodes() error: %v", err)
	}

	got1, _ := app.FindRecordById("environments", first.Id)
	got2, _ := app.FindRecordById("environments", second.Id)
	if got1.GetString("code") != "ENV-01" {
		t.Errorf("first code = %q, want ENV-01", got1.GetString("code"))
	}
	if got2.GetString("code") != "ENV-02" {
		t.Errorf("second code = %q, want ENV-02", got2.GetString("code"))
	}
}

func TestMigrateGroupCodes_SkipsUsedCodes(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	cust := testhelpers.CreateTestCustomer(t, app, "Mixed Co")
	offer := testhelpers.CreateTestOffer(t, app, cust.Id, "OFF-26-0004", "draft")

	testhelpers.CreateTestServiceSet(t, app, offer.Id, "Has code") // SRV-01
	legacy := testhelpers.CreateTestServiceSet(t, app, offer.Id, "No code")
	legacy.Set("code", "")
	if err := app.Save(legacy); err != nil {
		t.Fatalf("failed to clear code: %v", err)
	}

	if err := collections.MigrateGroupCodes(app); err != nil {
		t.Fatalf("MigrateGroupCodes() error: %v", err)
	}
	if err := collections.MigrateGroupCodes(app); err != nil {
		t.Fatalf("second run error: %v", err)
	}

	got, _ := app.FindRecordById("service_sets", legacy.Id)
	if got.GetString("code") != "SRV-02" {
		t.Errorf("code = %q, want SRV-02", got.GetString("code"))
	}
}

func TestMigrateItemTotals(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	cust := testhelpers.CreateTestCustomer(t, app, "Totals Co")
	offer := testhelpers.CreateTestOffer(t, app, cust.Id, "OFF-26-0005", "draft")
	set := testhelpers.CreateTestServiceSet(t, app, offer.Id, "Rollout")
	svc := testhelpers.CreateTestService(t, app, set.Id, 10, 20)

	svc.Set("total_price", 1)
	if err := app.Save(svc); err != nil {
		t.Fatalf("failed to corrupt total: %v", err)
	}

	if err := collections.MigrateItemTotals(app); err != nil {
		t.Fatalf("MigrateItemTotals() error: %v", err)
	}

	got, _ := app.FindRecordById("service_set_services", svc.Id)
	if total := got.GetFloat("total_price"); total < 5999.99 || total > 6000.01 {
		t.Errorf("total_price = %v, want 6000", total)
	}
}
