package collections

import (
	"fmt"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"go.uber.org/zap"

	"offerdesk/lineitems"
)

// MigrateGroupCodes assigns ENV-NN / SRV-NN codes to environments and
// service sets stored before codes existed, numbering each offer's groups
// by sort_order. Safe to call on every startup -- returns early if nothing
// to migrate.
func MigrateGroupCodes(app *pocketbase.PocketBase) error {
	for _, kind := range []*lineitems.Kind{lineitems.Environments, lineitems.ServiceSets} {
		missing, err := app.FindRecordsByFilter(kind.GroupTable, "code = ''", "", 0, 0, nil)
		if err != nil {
			return fmt.Errorf("migrate: could not query %s: %w", kind.GroupTable, err)
		}
		if len(missing) == 0 {
			continue
		}
		zap.S().Infof("migrate: %d %s record(s) without a code", len(missing), kind.GroupTable)

		done := map[string]bool{}
		for _, rec := range missing {
			offerID := rec.GetString(kind.ParentField)
			if done[offerID] {
				continue
			}
			done[offerID] = true
			if err := renumberGroups(app, kind, offerID); err != nil {
				zap.S().Warnf("migrate: could not number %s of offer %s: %v", kind.GroupTable, offerID, err)
			}
		}
	}
	return nil
}

func renumberGroups(app *pocketbase.PocketBase, kind *lineitems.Kind, offerID string) error {
	groups, err := app.FindRecordsByFilter(
		kind.GroupTable,
		kind.ParentField+" = {:offer}",
		"sort_order,created",
		0, 0,
		map[string]any{"offer": offerID},
	)
	if err != nil {
		return err
	}
	used := map[string]bool{}
	for _, g := range groups {
		used[g.GetString("code")] = true
	}
	seq := 0
	return app.RunInTransaction(func(txApp core.App) error {
		for _, g := range groups {
			if g.GetString("code") != "" {
				continue
			}
			var code string
			for {
				seq++
				code = fmt.Sprintf("%s-%02d", kind.CodePrefix, seq)
				if !used[code] {
					break
				}
			}
			used[code] = true
			g.Set("code", code)
			if err := txApp.Save(g); err != nil {
				return err
			}
		}
		return nil
	})
}

// MigrateItemTotals recomputes total_price for items whose stored total
// disagrees with their rate, quantity and markup.
func MigrateItemTotals(app *pocketbase.PocketBase) error {
	fixed := 0
	for _, kind := range []*lineitems.Kind{lineitems.Environments, lineitems.ServiceSets} {
		items, err := app.FindAllRecords(kind.ItemTable)
		if err != nil {
			return fmt.Errorf("migrate: could not query %s: %w", kind.ItemTable, err)
		}
		for _, it := range items {
			var markup float64
			if kind.HasMarkup() {
				markup = it.GetFloat(kind.MarkupField)
			}
			want := kind.ItemTotal(it.GetFloat(kind.ItemRateField), it.GetFloat(kind.QuantityField), markup)
			if it.GetFloat("total_price") == want {
				continue
			}
			it.Set("total_price", want)
			if err := app.Save(it); err != nil {
				zap.S().Warnf("migrate: could not fix total of %s/%s: %v", kind.ItemTable, it.Id, err)
				continue
			}
			fixed++
		}
	}
	if fixed > 0 {
		zap.S().Infof("migrate: recomputed %d item total(s)", fixed)
	}
	return nil
}
