package lineitems

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestItemTotals(t *testing.T) {
	assert.Equal(t, 300.0, ComponentTotal(100, 3))
	assert.InDelta(t, 6000.0, ServiceTotal(500, 10, 20), 1e-9)
	assert.Equal(t, 5000.0, ServiceTotal(500, 10, 0))

	assert.Equal(t, 300.0, Environments.ItemTotal(100, 3, 50), "components ignore markup")
	assert.InDelta(t, 6000.0, ServiceSets.ItemTotal(500, 10, 20), 1e-9)
}

func TestGrandTotal(t *testing.T) {
	g := Group{
		Attrs: GroupAttrs{DurationMonths: 12},
		Items: []Item{{TotalPrice: 300}, {TotalPrice: 200}},
	}
	assert.Equal(t, 500.0, MonthlyTotal(g.Items))
	assert.Equal(t, 6000.0, Environments.GrandTotal(g))
	assert.Equal(t, 500.0, ServiceSets.GrandTotal(g))

	empty := Group{Attrs: GroupAttrs{DurationMonths: 12}}
	assert.Zero(t, Environments.GrandTotal(empty))

	totals := Environments.Totals([]Group{g, empty})
	assert.Equal(t, Totals{Monthly: 500, Grand: 6000, Items: 2}, totals)
}

func TestCeil(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0, 0},
		{300, 300},
		{100.2, 101},
		{6000.0000001, 6000},
		{500 * 10 * 1.2, 6000},
		{99.999, 100},
		{0.01, 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Ceil(tt.in), "Ceil(%v)", tt.in)
	}
}
