package lineitems

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectStripsIDs(t *testing.T) {
	groups := []Group{{
		ID:    "tmp_abc",
		Code:  "ENV-01",
		Attrs: GroupAttrs{Name: "Prod", Category: "production", DurationMonths: 12, Reference: "saas"},
		Items: []Item{{ID: "tmp_def", GroupID: "tmp_abc", Selection: Selection{"App Server", "Shared", "Small"}, Quantity: 3, UnitRate: 100, TotalPrice: 300}},
	}}

	sums := Environments.Project(groups)
	require.Len(t, sums, 1)
	assert.Equal(t, "ENV-01", sums[0].Code)
	assert.Equal(t, 300.0, sums[0].MonthlyTotal)
	assert.Equal(t, 3600.0, sums[0].GrandTotal)
	assert.Equal(t, ItemSummary{
		Selection:  Selection{"App Server", "Shared", "Small"},
		Quantity:   3,
		UnitRate:   100,
		TotalPrice: 300,
	}, sums[0].Items[0])

	groups[0].Items[0].Selection[0] = "changed"
	assert.Equal(t, "App Server", sums[0].Items[0].Selection[0])

	assert.Equal(t, Totals{Monthly: 300, Grand: 3600, Items: 1}, SummaryTotals(sums))
}

func TestInsertSummaries(t *testing.T) {
	ctx := context.Background()
	store := newStore()
	draft := loadedEditor(t, ServiceSets, store, Options{})
	g, err := draft.AddGroup(ctx)
	require.NoError(t, err)
	_, err = draft.AddItem(ctx, g.ID, ItemInput{Selection: Selection{"Integration"}, Quantity: 10, Markup: 20})
	require.NoError(t, err)
	_, err = draft.AddItem(ctx, g.ID, ItemInput{Selection: Selection{"Training"}, Quantity: 2})
	require.NoError(t, err)
	require.Empty(t, store.Calls())

	require.NoError(t, ServiceSets.InsertSummaries(ctx, store, "offer9", draft.Summaries()))

	saved := loadedEditor(t, ServiceSets, store, Options{ParentID: "offer9"})
	groups := saved.Groups()
	require.Len(t, groups, 1)
	assert.Equal(t, "SRV-01", groups[0].Code)
	assert.Equal(t, g.Attrs, groups[0].Attrs)
	require.Len(t, groups[0].Items, 2)
	assert.Equal(t, Selection{"Integration"}, groups[0].Items[0].Selection)
	assert.Equal(t, Selection{"Training"}, groups[0].Items[1].Selection)
	assert.InDelta(t, 6700.0, saved.Totals().Grand, 1e-6)
}

func TestInsertSummaries_StopsOnError(t *testing.T) {
	store := newStore()
	store.FailOn("insert", "environment_components", errors.New("constraint"))
	sums := []GroupSummary{{
		Code:  "ENV-01",
		Attrs: Environments.Defaults,
		Items: []ItemSummary{{Selection: Selection{"App Server", "Shared", "Small"}, Quantity: 1, UnitRate: 100}},
	}}
	err := Environments.InsertSummaries(context.Background(), store, "offer1", sums)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "constraint")
}

func TestLoadSummaries(t *testing.T) {
	ctx := context.Background()
	store := newStore()
	e := loadedEditor(t, Environments, store, Options{ParentID: "offer2"})
	g, err := e.AddGroup(ctx)
	require.NoError(t, err)
	_, err = e.AddItem(ctx, g.ID, appServer(2))
	require.NoError(t, err)

	sums, err := Environments.LoadSummaries(ctx, store, "offer2")
	require.NoError(t, err)
	assert.Equal(t, e.Summaries(), sums)

	none, err := Environments.LoadSummaries(ctx, store, "other")
	require.NoError(t, err)
	assert.Empty(t, none)
}
