package collections

import (
	"go.uber.org/zap"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
)

var (
	OfferStatuses       = []string{"draft", "sent", "accepted", "rejected"}
	EnvironmentTypes    = []string{"production", "staging", "test", "development"}
	DeploymentOptions   = []string{"saas", "on_premise", "hybrid"}
	ServiceCategories   = []string{"implementation", "integration", "training", "consulting", "support"}
	PartnerTypes        = []string{"reseller", "subcontractor", "technology"}
	OpportunityStages   = []string{"lead", "qualified", "proposal", "won", "lost"}
	ContractStatuses    = []string{"active", "expired", "terminated"}
	ProjectStatuses     = []string{"planned", "active", "on_hold", "completed"}
	offerDocumentsLimit = 10
)

// Setup programmatically creates/ensures every collection used by the
// offer desk exists. Parents are created before the collections that
// reference them.
func Setup(app *pocketbase.PocketBase) {
	customers := ensureCollection(app, "customers", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "name", Required: true})
		c.Fields.Add(&core.TextField{Name: "company_id"})
		c.Fields.Add(&core.EmailField{Name: "email"})
		c.Fields.Add(&core.TextField{Name: "phone"})
		c.Fields.Add(&core.TextField{Name: "city"})
		c.Fields.Add(&core.TextField{Name: "country"})
		c.Fields.Add(&core.TextField{Name: "notes"})
		addTimestamps(c)
	})

	partners := ensureCollection(app, "partners", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "name", Required: true})
		c.Fields.Add(&core.SelectField{Name: "partner_type", Values: PartnerTypes, MaxSelect: 1})
		c.Fields.Add(&core.EmailField{Name: "email"})
		c.Fields.Add(&core.TextField{Name: "phone"})
		c.Fields.Add(&core.TextField{Name: "country"})
		addTimestamps(c)
	})

	opportunities := ensureCollection(app, "opportunities", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "title", Required: true})
		c.Fields.Add(relation("customer", customers, true, true))
		c.Fields.Add(relation("partner", partners, false, false))
		c.Fields.Add(&core.SelectField{Name: "stage", Values: OpportunityStages, MaxSelect: 1})
		c.Fields.Add(&core.DateField{Name: "expected_close"})
		c.Fields.Add(&core.NumberField{Name: "estimated_value"})
		addTimestamps(c)
	})

	offers := ensureCollection(app, "offers", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "offer_number", Required: true})
		c.Fields.Add(&core.TextField{Name: "title", Required: true})
		c.Fields.Add(relation("customer", customers, true, true))
		c.Fields.Add(relation("opportunity", opportunities, false, false))
		c.Fields.Add(relation("partner", partners, false, false))
		c.Fields.Add(&core.SelectField{Name: "status", Required: true, Values: OfferStatuses, MaxSelect: 1})
		c.Fields.Add(&core.DateField{Name: "valid_until"})
		c.Fields.Add(&core.TextField{Name: "notes"})
		c.Fields.Add(&core.FileField{
			Name:      "documents",
			MaxSelect: offerDocumentsLimit,
			MaxSize:   10 << 20,
		})
		c.Fields.Add(&core.NumberField{Name: "mrr"})
		c.Fields.Add(&core.NumberField{Name: "tcv"})
		addTimestamps(c)
		c.AddIndex("idx_offers_offer_number", true, "offer_number", "")
	})

	environments := ensureCollection(app, "environments", func(c *core.Collection) {
		c.Fields.Add(relation("offer", offers, true, true))
		c.Fields.Add(&core.TextField{Name: "code"})
		c.Fields.Add(&core.TextField{Name: "name", Required: true})
		c.Fields.Add(&core.SelectField{Name: "environment_type", Values: EnvironmentTypes, MaxSelect: 1})
		c.Fields.Add(&core.SelectField{Name: "deployment", Values: DeploymentOptions, MaxSelect: 1})
		c.Fields.Add(&core.NumberField{Name: "license_duration_months", OnlyInt: true})
		c.Fields.Add(&core.NumberField{Name: "sort_order"})
		addTimestamps(c)
	})

	ensureCollection(app, "environment_components", func(c *core.Collection) {
		c.Fields.Add(relation("environment", environments, true, true))
		c.Fields.Add(&core.TextField{Name: "name", Required: true})
		c.Fields.Add(&core.TextField{Name: "type"})
		c.Fields.Add(&core.TextField{Name: "size"})
		c.Fields.Add(&core.NumberField{Name: "quantity", Required: true})
		c.Fields.Add(&core.NumberField{Name: "monthly_price"})
		c.Fields.Add(&core.NumberField{Name: "total_price"})
		c.Fields.Add(&core.NumberField{Name: "sort_order"})
		addTimestamps(c)
	})

	serviceSets := ensureCollection(app, "service_sets", func(c *core.Collection) {
		c.Fields.Add(relation("offer", offers, true, true))
		c.Fields.Add(&core.TextField{Name: "code"})
		c.Fields.Add(&core.TextField{Name: "name", Required: true})
		c.Fields.Add(&core.SelectField{Name: "category", Values: ServiceCategories, MaxSelect: 1})
		c.Fields.Add(relation("subcontractor", partners, false, false))
		c.Fields.Add(&core.NumberField{Name: "duration_months", OnlyInt: true})
		c.Fields.Add(&core.NumberField{Name: "sort_order"})
		addTimestamps(c)
	})

	ensureCollection(app, "service_set_services", func(c *core.Collection) {
		c.Fields.Add(relation("service_set", serviceSets, true, true))
		c.Fields.Add(&core.TextField{Name: "service_name", Required: true})
		c.Fields.Add(&core.TextField{Name: "category"})
		c.Fields.Add(&core.NumberField{Name: "number_of_mandays", Required: true})
		c.Fields.Add(&core.NumberField{Name: "manday_rate"})
		c.Fields.Add(&core.NumberField{Name: "profit_percentage"})
		c.Fields.Add(&core.NumberField{Name: "total_price"})
		c.Fields.Add(&core.NumberField{Name: "sort_order"})
		addTimestamps(c)
	})

	ensureCollection(app, "license_pricing", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "name", Required: true})
		c.Fields.Add(&core.TextField{Name: "type", Required: true})
		c.Fields.Add(&core.TextField{Name: "size", Required: true})
		c.Fields.Add(&core.NumberField{Name: "monthly_price", Required: true})
		addTimestamps(c)
		c.AddIndex("idx_license_pricing_tuple", true, "name, type, size", "")
	})

	ensureCollection(app, "service_catalog", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "service_name", Required: true})
		c.Fields.Add(&core.SelectField{Name: "category", Values: ServiceCategories, MaxSelect: 1})
		c.Fields.Add(&core.NumberField{Name: "manday_rate", Required: true})
		c.Fields.Add(&core.NumberField{Name: "cost_rate"})
		addTimestamps(c)
		c.AddIndex("idx_service_catalog_name", true, "service_name", "")
	})

	contracts := ensureCollection(app, "contracts", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "contract_number", Required: true})
		c.Fields.Add(relation("customer", customers, true, true))
		c.Fields.Add(relation("offer", offers, false, false))
		c.Fields.Add(&core.DateField{Name: "start_date"})
		c.Fields.Add(&core.DateField{Name: "end_date"})
		c.Fields.Add(&core.SelectField{Name: "status", Values: ContractStatuses, MaxSelect: 1})
		c.Fields.Add(&core.NumberField{Name: "mrr"})
		c.Fields.Add(&core.NumberField{Name: "tcv"})
		addTimestamps(c)
	})

	ensureCollection(app, "projects", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "name", Required: true})
		c.Fields.Add(relation("customer", customers, true, true))
		c.Fields.Add(relation("contract", contracts, false, false))
		c.Fields.Add(&core.SelectField{Name: "status", Values: ProjectStatuses, MaxSelect: 1})
		c.Fields.Add(&core.NumberField{Name: "budget_mandays"})
		addTimestamps(c)
	})
}

func relation(name string, target *core.Collection, required, cascade bool) *core.RelationField {
	return &core.RelationField{
		Name:          name,
		Required:      required,
		CollectionId:  target.Id,
		CascadeDelete: cascade,
		MaxSelect:     1,
	}
}

func addTimestamps(c *core.Collection) {
	c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
	c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
}

// ensureCollection checks if a collection already exists by name. If it does,
// the existing collection is returned. Otherwise a new base collection is
// created, the addFields callback is invoked to populate its fields, and the
// collection is saved.
func ensureCollection(app *pocketbase.PocketBase, name string, addFields func(*core.Collection)) *core.Collection {
	existing, err := app.FindCollectionByNameOrId(name)
	if err == nil && existing != nil {
		zap.S().Debugf("setup: collection %q already exists, skipping creation", name)
		return existing
	}

	collection := core.NewBaseCollection(name)
	addFields(collection)

	if err := app.Save(collection); err != nil {
		zap.S().Fatalf("setup: failed to create collection %q: %v", name, err)
	}

	zap.S().Infof("setup: created collection %q (id=%s)", name, collection.Id)
	return collection
}
