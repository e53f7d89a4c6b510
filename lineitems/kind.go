// Package lineitems implements the group/item editor used by offers:
// environments with licensed components, and service sets with priced
// services. Both are driven by one engine parameterized by a Kind.
package lineitems

import "fmt"

// GroupFields maps the generic group attributes onto collection fields.
type GroupFields struct {
	Name      string
	Category  string
	Duration  string
	Reference string
}

// Kind describes one instantiation of the editor: which tables hold the
// groups and items, how catalog rows are matched, and how totals are derived.
type Kind struct {
	Name     string // "environment", "service set"
	ItemNoun string // "component", "service"

	GroupTable      string
	ItemTable       string
	ParentField     string // group -> offer relation
	ItemParentField string // item -> group relation

	CatalogTable  string
	Facets        []string // selection fields, shared by catalog rows and items
	RateField     string   // rate column on the catalog table
	ItemRateField string   // rate column on the item table
	QuantityField string
	MarkupField   string // empty when the kind carries no markup

	// RateOverridable lets the operator replace the catalog rate on an item.
	RateOverridable bool
	// DurationMultiplier multiplies the monthly total by the group duration
	// to get the grand total.
	DurationMultiplier bool

	CodePrefix string
	Group      GroupFields
	Defaults   GroupAttrs
}

// Environments groups licensed components priced per month.
var Environments = &Kind{
	Name:     "environment",
	ItemNoun: "component",

	GroupTable:      "environments",
	ItemTable:       "environment_components",
	ParentField:     "offer",
	ItemParentField: "environment",

	CatalogTable:  "license_pricing",
	Facets:        []string{"name", "type", "size"},
	RateField:     "monthly_price",
	ItemRateField: "monthly_price",
	QuantityField: "quantity",

	DurationMultiplier: true,

	CodePrefix: "ENV",
	Group: GroupFields{
		Name:      "name",
		Category:  "environment_type",
		Duration:  "license_duration_months",
		Reference: "deployment",
	},
	Defaults: GroupAttrs{
		Name:           "Environment",
		Category:       "production",
		DurationMonths: 12,
		Reference:      "saas",
	},
}

// ServiceSets groups professional services priced per manday with a profit
// markup. Their cost is a one-off project cost, so no duration multiplier.
var ServiceSets = &Kind{
	Name:     "service set",
	ItemNoun: "service",

	GroupTable:      "service_sets",
	ItemTable:       "service_set_services",
	ParentField:     "offer",
	ItemParentField: "service_set",

	CatalogTable:  "service_catalog",
	Facets:        []string{"service_name"},
	RateField:     "manday_rate",
	ItemRateField: "manday_rate",
	QuantityField: "number_of_mandays",
	MarkupField:   "profit_percentage",

	RateOverridable: true,

	CodePrefix: "SRV",
	Group: GroupFields{
		Name:      "name",
		Category:  "category",
		Duration:  "duration_months",
		Reference: "subcontractor",
	},
	Defaults: GroupAttrs{
		Name:           "Service set",
		Category:       "implementation",
		DurationMonths: 1,
	},
}

// HasMarkup reports whether items of this kind carry a markup percentage.
func (k *Kind) HasMarkup() bool {
	return k.MarkupField != ""
}

func (k *Kind) code(seq int) string {
	return fmt.Sprintf("%s-%02d", k.CodePrefix, seq)
}
