// Package services holds the offer desk's business rules that sit above the
// line item editor: revenue roll-ups, numbering, status rules, catalog import
// and document export.
package services

import (
	"context"
	"fmt"

	"github.com/pocketbase/pocketbase/core"

	"offerdesk/lineitems"
)

// OfferRevenue is the commercial summary of one offer.
type OfferRevenue struct {
	MRR            float64 // Σ environment monthly totals
	LicenseTCV     float64 // Σ environment grand totals
	ServiceRevenue float64 // Σ service set totals
	TCV            float64
	ServiceCost    float64 // Σ mandays × cost rate
	Margin         float64
	MarginPercent  float64
}

// CalcOfferRevenue rolls up environment and service set summaries.
// costRates maps service names to their cost per manday; a missing cost
// rate falls back to the sold rate, which yields zero margin for that line.
func CalcOfferRevenue(envs, svcs []lineitems.GroupSummary, costRates map[string]float64) OfferRevenue {
	var r OfferRevenue
	for _, e := range envs {
		r.MRR += e.MonthlyTotal
		r.LicenseTCV += e.GrandTotal
	}
	for _, s := range svcs {
		r.ServiceRevenue += s.GrandTotal
		for _, it := range s.Items {
			rate, ok := costRates[it.Selection.Key()]
			if !ok {
				rate = it.UnitRate
			}
			r.ServiceCost += rate * it.Quantity
		}
	}
	r.TCV = r.LicenseTCV + r.ServiceRevenue
	r.Margin = r.ServiceRevenue - r.ServiceCost
	if r.ServiceRevenue != 0 {
		r.MarginPercent = r.Margin / r.ServiceRevenue * 100
	}
	return r
}

// ServiceCostRates reads the cost rate per service name from the catalog.
func ServiceCostRates(app core.App) (map[string]float64, error) {
	recs, err := app.FindAllRecords("service_catalog")
	if err != nil {
		return nil, fmt.Errorf("load service cost rates: %w", err)
	}
	rates := make(map[string]float64, len(recs))
	for _, rec := range recs {
		if cost := rec.GetFloat("cost_rate"); cost > 0 {
			rates[lineitems.Selection{rec.GetString("service_name")}.Key()] = cost
		}
	}
	return rates, nil
}

// OfferLines holds the saved line items of an offer.
type OfferLines struct {
	Environments []lineitems.GroupSummary
	ServiceSets  []lineitems.GroupSummary
}

// LoadOfferLines reads both kinds of groups for a saved offer.
func LoadOfferLines(ctx context.Context, app core.App, offerID string) (OfferLines, error) {
	store := lineitems.NewPocketBaseStore(app)
	envs, err := lineitems.Environments.LoadSummaries(ctx, store, offerID)
	if err != nil {
		return OfferLines{}, err
	}
	svcs, err := lineitems.ServiceSets.LoadSummaries(ctx, store, offerID)
	if err != nil {
		return OfferLines{}, err
	}
	return OfferLines{Environments: envs, ServiceSets: svcs}, nil
}

// LoadOfferRevenue computes the revenue of a saved offer from its lines.
func LoadOfferRevenue(ctx context.Context, app core.App, offerID string) (OfferLines, OfferRevenue, error) {
	lines, err := LoadOfferLines(ctx, app, offerID)
	if err != nil {
		return OfferLines{}, OfferRevenue{}, err
	}
	rates, err := ServiceCostRates(app)
	if err != nil {
		return OfferLines{}, OfferRevenue{}, err
	}
	return lines, CalcOfferRevenue(lines.Environments, lines.ServiceSets, rates), nil
}

// RefreshOfferTotals recomputes and stores the mrr/tcv snapshot on the offer.
func RefreshOfferTotals(ctx context.Context, app core.App, offerID string) (OfferRevenue, error) {
	_, rev, err := LoadOfferRevenue(ctx, app, offerID)
	if err != nil {
		return OfferRevenue{}, err
	}
	offer, err := app.FindRecordById("offers", offerID)
	if err != nil {
		return OfferRevenue{}, fmt.Errorf("find offer %s: %w", offerID, err)
	}
	offer.Set("mrr", rev.MRR)
	offer.Set("tcv", rev.TCV)
	if err := app.Save(offer); err != nil {
		return OfferRevenue{}, fmt.Errorf("save offer totals: %w", err)
	}
	return rev, nil
}

// CustomerMRR sums the MRR of a customer's active contracts.
func CustomerMRR(app core.App, customerID string) (float64, error) {
	recs, err := app.FindRecordsByFilter(
		"contracts",
		"customer = {:customer} && status = 'active'",
		"",
		0,
		0,
		map[string]any{"customer": customerID},
	)
	if err != nil {
		return 0, fmt.Errorf("load contracts for %s: %w", customerID, err)
	}
	var total float64
	for _, rec := range recs {
		total += rec.GetFloat("mrr")
	}
	return total, nil
}
