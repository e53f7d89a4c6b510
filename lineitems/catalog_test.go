package lineitems

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog() *Catalog {
	return NewCatalog(Environments, []CatalogRow{
		{ID: "a", Facets: Selection{"App Server", "Shared", "Small"}, Rate: 100},
		{ID: "b", Facets: Selection{"App Server", "Shared", "Medium"}, Rate: 180},
		{ID: "c", Facets: Selection{"App Server", "Dedicated", "Large"}, Rate: 450},
		{ID: "d", Facets: Selection{"Database", "Shared", "Small"}, Rate: 80},
		{ID: "dup", Facets: Selection{"App Server", "Shared", "Small"}, Rate: 999},
	})
}

func TestCatalog_ResolveExact(t *testing.T) {
	c := testCatalog()

	row, ok := c.Resolve(Selection{"App Server", "Shared", "Small"})
	require.True(t, ok)
	assert.Equal(t, "a", row.ID, "first duplicate wins")
	assert.Equal(t, 100.0, row.Rate)

	for _, sel := range []Selection{
		{"App Server", "Shared"},
		{"App Server", "Shared", "small"},
		{"App Server", "Dedicated", "Small"},
		{"", "", ""},
		nil,
	} {
		_, ok := c.Resolve(sel)
		assert.False(t, ok, "selection %v", sel)
	}
}

func TestCatalog_Options(t *testing.T) {
	c := testCatalog()

	assert.Equal(t, []string{"App Server", "Database"}, c.Options(0))
	assert.Equal(t, []string{"Shared", "Dedicated"}, c.OptionsFor(1, Selection{"App Server"}))
	assert.Equal(t, []string{"Small", "Medium"}, c.OptionsFor(2, Selection{"App Server", "Shared"}))
	assert.Equal(t, []string{"Small"}, c.OptionsFor(2, Selection{"Database", ""}))
	assert.Nil(t, c.OptionsFor(3, nil))
	assert.Equal(t, 5, c.Len())
}

func TestCatalogFromRows(t *testing.T) {
	c := catalogFromRows(ServiceSets, []Row{
		{ID: "s1", Fields: map[string]any{"service_name": "Integration", "manday_rate": "500"}},
		{ID: "s2", Fields: map[string]any{"service_name": "Training", "manday_rate": 350.5}},
	})
	row, ok := c.Resolve(Selection{"Training"})
	require.True(t, ok)
	assert.Equal(t, 350.5, row.Rate)
	row, ok = c.Resolve(Selection{"Integration"})
	require.True(t, ok)
	assert.Equal(t, 500.0, row.Rate)
}
