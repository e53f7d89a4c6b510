package lineitems

import (
	"context"
	"fmt"
)

// GroupSummary is the id-free projection of a group handed to the parent
// offer form.
type GroupSummary struct {
	Code         string        `json:"code"`
	Attrs        GroupAttrs    `json:"attrs"`
	Items        []ItemSummary `json:"items"`
	MonthlyTotal float64       `json:"monthly_total"`
	GrandTotal   float64       `json:"grand_total"`
}

// ItemSummary is the id-free projection of an item.
type ItemSummary struct {
	Selection  Selection `json:"selection"`
	Quantity   float64   `json:"quantity"`
	UnitRate   float64   `json:"unit_rate"`
	Markup     float64   `json:"markup"`
	TotalPrice float64   `json:"total_price"`
}

// Project maps groups to summaries, preserving order.
func (k *Kind) Project(groups []Group) []GroupSummary {
	out := make([]GroupSummary, 0, len(groups))
	for _, g := range groups {
		s := GroupSummary{
			Code:         g.Code,
			Attrs:        g.Attrs,
			Items:        make([]ItemSummary, 0, len(g.Items)),
			MonthlyTotal: MonthlyTotal(g.Items),
			GrandTotal:   k.GrandTotal(g),
		}
		for _, it := range g.Items {
			s.Items = append(s.Items, ItemSummary{
				Selection:  append(Selection(nil), it.Selection...),
				Quantity:   it.Quantity,
				UnitRate:   it.UnitRate,
				Markup:     it.Markup,
				TotalPrice: it.TotalPrice,
			})
		}
		out = append(out, s)
	}
	return out
}

// SummaryTotals sums monthly and grand totals over summaries.
func SummaryTotals(sums []GroupSummary) Totals {
	var t Totals
	for _, s := range sums {
		t.Monthly += s.MonthlyTotal
		t.Grand += s.GrandTotal
		t.Items += len(s.Items)
	}
	return t
}

// InsertSummaries persists summaries collected for an unsaved offer under
// parentID, groups first, then their items. Run it with a transactional
// store so a failure leaves nothing behind.
func (k *Kind) InsertSummaries(ctx context.Context, store Store, parentID string, sums []GroupSummary) error {
	for gi, s := range sums {
		fields := k.groupFields(s.Attrs)
		fields[k.ParentField] = parentID
		fields["code"] = s.Code
		fields["sort_order"] = gi + 1
		row, err := store.Insert(ctx, k.GroupTable, fields)
		if err != nil {
			return fmt.Errorf("insert %s %q: %w", k.Name, s.Attrs.Name, err)
		}
		for ii, is := range s.Items {
			it := Item{
				Selection:  is.Selection,
				Quantity:   is.Quantity,
				UnitRate:   is.UnitRate,
				Markup:     is.Markup,
				TotalPrice: k.ItemTotal(is.UnitRate, is.Quantity, is.Markup),
			}
			if _, err := store.Insert(ctx, k.ItemTable, k.itemFields(row.ID, it, ii+1)); err != nil {
				return fmt.Errorf("insert %s %s: %w", k.ItemNoun, is.Selection, err)
			}
		}
	}
	return nil
}

// LoadSummaries reads the saved groups of parentID and projects them,
// without loading the catalog.
func (k *Kind) LoadSummaries(ctx context.Context, store Store, parentID string) ([]GroupSummary, error) {
	e := NewEditor(k, store, Options{ParentID: parentID, ReadOnly: true})
	rows, err := e.fetchGroups(ctx)
	if err != nil {
		return nil, &FetchError{Kind: k.Name, Table: k.GroupTable, Err: err}
	}
	e.setGroups(rows)
	return k.Project(e.groups), nil
}
