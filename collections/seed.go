package collections

import (
	"fmt"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"go.uber.org/zap"
)

// ── Definition structs ───────────────────────────────────────────────────

type licenseDef struct {
	name         string
	licenseType  string
	size         string
	monthlyPrice float64
}

type serviceDef struct {
	name       string
	category   string
	mandayRate float64
	costRate   float64
}

type partyDef struct {
	name    string
	kind    string // partner_type for partners
	email   string
	country string
}

// ── Seed data ────────────────────────────────────────────────────────────

var seedLicenses = []licenseDef{
	{"App Server", "Shared", "Small", 100},
	{"App Server", "Shared", "Medium", 180},
	{"App Server", "Dedicated", "Medium", 320},
	{"App Server", "Dedicated", "Large", 450},
	{"Database", "Shared", "Small", 80},
	{"Database", "Dedicated", "Medium", 260},
	{"Database", "Dedicated", "Large", 390},
	{"Storage", "Standard", "100GB", 25},
	{"Storage", "Standard", "1TB", 140},
	{"Load Balancer", "Managed", "Standard", 60},
	{"Backup", "Managed", "Daily", 45},
	{"Monitoring", "Managed", "Standard", 35},
}

var seedServices = []serviceDef{
	{"Integration", "integration", 500, 360},
	{"Installation", "implementation", 450, 320},
	{"Data Migration", "implementation", 520, 380},
	{"Training", "training", 350, 220},
	{"Solution Architecture", "consulting", 650, 470},
	{"Premium Support", "support", 300, 180},
}

var seedCustomers = []partyDef{
	{"Northwind Logistics", "", "it@northwind.example", "Germany"},
	{"Contoso Retail", "", "procurement@contoso.example", "Austria"},
}

var seedPartners = []partyDef{
	{"Fabrikam Integrations", "subcontractor", "ops@fabrikam.example", "Poland"},
	{"Adatum Resellers", "reseller", "sales@adatum.example", "Germany"},
}

// Seed populates the pricing catalogs and a few sample parties. Each
// collection is only seeded while it is empty.
func Seed(app *pocketbase.PocketBase) error {
	if err := seedIfEmpty(app, "license_pricing", len(seedLicenses), func(col *core.Collection, i int) *core.Record {
		d := seedLicenses[i]
		rec := core.NewRecord(col)
		rec.Set("name", d.name)
		rec.Set("type", d.licenseType)
		rec.Set("size", d.size)
		rec.Set("monthly_price", d.monthlyPrice)
		return rec
	}); err != nil {
		return err
	}

	if err := seedIfEmpty(app, "service_catalog", len(seedServices), func(col *core.Collection, i int) *core.Record {
		d := seedServices[i]
		rec := core.NewRecord(col)
		rec.Set("service_name", d.name)
		rec.Set("category", d.category)
		rec.Set("manday_rate", d.mandayRate)
		rec.Set("cost_rate", d.costRate)
		return rec
	}); err != nil {
		return err
	}

	if err := seedIfEmpty(app, "customers", len(seedCustomers), func(col *core.Collection, i int) *core.Record {
		d := seedCustomers[i]
		rec := core.NewRecord(col)
		rec.Set("name", d.name)
		rec.Set("email", d.email)
		rec.Set("country", d.country)
		return rec
	}); err != nil {
		return err
	}

	return seedIfEmpty(app, "partners", len(seedPartners), func(col *core.Collection, i int) *core.Record {
		d := seedPartners[i]
		rec := core.NewRecord(col)
		rec.Set("name", d.name)
		rec.Set("partner_type", d.kind)
		rec.Set("email", d.email)
		rec.Set("country", d.country)
		return rec
	})
}

func seedIfEmpty(app *pocketbase.PocketBase, name string, n int, build func(*core.Collection, int) *core.Record) error {
	col, err := app.FindCollectionByNameOrId(name)
	if err != nil {
		return fmt.Errorf("seed: could not find %s collection: %w", name, err)
	}
	total, err := app.CountRecords(col)
	if err != nil {
		return fmt.Errorf("seed: could not count %s: %w", name, err)
	}
	if total > 0 {
		zap.S().Debugf("seed: %s already has %d record(s), skipping", name, total)
		return nil
	}

	return app.RunInTransaction(func(txApp core.App) error {
		for i := 0; i < n; i++ {
			rec := build(col, i)
			if err := txApp.Save(rec); err != nil {
				return fmt.Errorf("seed: could not save %s #%d: %w", name, i+1, err)
			}
		}
		zap.S().Infof("seed: created %d %s record(s)", n, name)
		return nil
	})
}
