package lineitems_test

import (
	"context"
	"testing"

	"github.com/pocketbase/pocketbase/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"offerdesk/lineitems"
	"offerdesk/testhelpers"
)

func TestPocketBaseStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	app := testhelpers.NewTestApp(t)
	testhelpers.SeedTestCatalog(t, app)
	cust := testhelpers.CreateTestCustomer(t, app, "Store Test")
	offer := testhelpers.CreateTestOffer(t, app, cust.Id, "OFF-26-0001", "draft")

	store := lineitems.NewPocketBaseStore(app)
	ed := lineitems.NewEditor(lineitems.Environments, store, lineitems.Options{ParentID: offer.Id})
	require.NoError(t, ed.Load(ctx))
	assert.True(t, ed.Remote())
	assert.Equal(t, 2, ed.Catalog().Len())

	g, err := ed.AddGroup(ctx)
	require.NoError(t, err)
	assert.False(t, lineitems.IsPlaceholder(g.ID))

	it, err := ed.AddItem(ctx, g.ID, lineitems.ItemInput{
		Selection: lineitems.Selection{"App Server", "Dedicated", "Large"},
		Quantity:  2,
	})
	require.NoError(t, err)
	assert.Equal(t, 900.0, it.TotalPrice)

	months := 24
	require.NoError(t, ed.UpdateGroup(ctx, g.ID, lineitems.GroupPatch{DurationMonths: &months}))

	// A fresh editor sees exactly what was written.
	fresh := lineitems.NewEditor(lineitems.Environments, store, lineitems.Options{ParentID: offer.Id})
	require.NoError(t, fresh.Load(ctx))
	groups := fresh.Groups()
	require.Len(t, groups, 1)
	assert.Equal(t, "ENV-01", groups[0].Code)
	assert.Equal(t, 24, groups[0].Attrs.DurationMonths)
	require.Len(t, groups[0].Items, 1)
	assert.Equal(t, lineitems.Selection{"App Server", "Dedicated", "Large"}, groups[0].Items[0].Selection)
	assert.Equal(t, 900.0*24, fresh.Totals().Grand)

	require.NoError(t, ed.DeleteGroup(ctx, g.ID))
	n, err := app.CountRecords("environment_components")
	require.NoError(t, err)
	assert.Zero(t, n)
	n, err = app.CountRecords("environments")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPocketBaseStoreInsertSummariesInTransaction(t *testing.T) {
	ctx := context.Background()
	app := testhelpers.NewTestApp(t)
	cust := testhelpers.CreateTestCustomer(t, app, "Tx Test")
	offer := testhelpers.CreateTestOffer(t, app, cust.Id, "OFF-26-0002", "draft")

	sums := []lineitems.GroupSummary{{
		Code:  "SRV-01",
		Attrs: lineitems.GroupAttrs{Name: "Rollout", Category: "implementation", DurationMonths: 1},
		Items: []lineitems.ItemSummary{
			{Selection: lineitems.Selection{"Integration"}, Quantity: 10, UnitRate: 500, Markup: 20},
		},
	}, {
		Code:  "SRV-02",
		Attrs: lineitems.GroupAttrs{Name: "Broken", Category: "not-a-category", DurationMonths: 1},
	}}

	err := app.RunInTransaction(func(txApp core.App) error {
		return lineitems.ServiceSets.InsertSummaries(ctx, lineitems.NewPocketBaseStore(txApp), offer.Id, sums)
	})
	require.Error(t, err)

	n, err := app.CountRecords("service_sets")
	require.NoError(t, err)
	assert.Zero(t, n, "failed save must leave nothing behind")

	require.NoError(t, app.RunInTransaction(func(txApp core.App) error {
		return lineitems.ServiceSets.InsertSummaries(ctx, lineitems.NewPocketBaseStore(txApp), offer.Id, sums[:1])
	}))
	loaded, err := lineitems.ServiceSets.LoadSummaries(ctx, lineitems.NewPocketBaseStore(app), offer.Id)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, 6000.0, loaded[0].GrandTotal)
}
