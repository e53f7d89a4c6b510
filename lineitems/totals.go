package lineitems

import "math"

// ComponentTotal is unit rate times quantity.
func ComponentTotal(unitRate, quantity float64) float64 {
	return unitRate * quantity
}

// ServiceTotal is manday rate times mandays, marked up by profitPercent.
func ServiceTotal(mandayRate, mandays, profitPercent float64) float64 {
	return mandayRate * mandays * (1 + profitPercent/100)
}

// ItemTotal applies the formula for the kind.
func (k *Kind) ItemTotal(unitRate, quantity, markup float64) float64 {
	if k.HasMarkup() {
		return ServiceTotal(unitRate, quantity, markup)
	}
	return ComponentTotal(unitRate, quantity)
}

// MonthlyTotal sums the item totals of a group.
func MonthlyTotal(items []Item) float64 {
	var sum float64
	for _, it := range items {
		sum += it.TotalPrice
	}
	return sum
}

// GrandTotal is the monthly total times the duration for kinds with a
// duration multiplier, and the monthly total otherwise.
func (k *Kind) GrandTotal(g Group) float64 {
	monthly := MonthlyTotal(g.Items)
	if k.DurationMultiplier {
		return monthly * float64(g.Attrs.DurationMonths)
	}
	return monthly
}

// Totals aggregates all groups of an editor. It is a view-time value.
type Totals struct {
	Monthly float64
	Grand   float64
	Items   int
}

// Totals sums monthly and grand totals across groups.
func (k *Kind) Totals(groups []Group) Totals {
	var t Totals
	for _, g := range groups {
		t.Monthly += MonthlyTotal(g.Items)
		t.Grand += k.GrandTotal(g)
		t.Items += len(g.Items)
	}
	return t
}

// Ceil rounds an amount up to the whole currency unit for display.
// Sub-cent residue from float arithmetic is dropped first so 6000.0000001
// renders as 6000, not 6001.
func Ceil(amount float64) float64 {
	return math.Ceil(math.Round(amount*100) / 100)
}
