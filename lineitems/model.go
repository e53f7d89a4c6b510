package lineitems

import (
	"strings"
	"time"
)

// GroupAttrs are the scalar attributes of a group.
type GroupAttrs struct {
	Name           string
	Category       string
	DurationMonths int
	Reference      string // deployment for environments, subcontractor for service sets
}

// GroupPatch is a partial update; nil fields are left untouched.
type GroupPatch struct {
	Name           *string `json:"name"`
	Category       *string `json:"category"`
	DurationMonths *int    `json:"duration_months"`
	Reference      *string `json:"reference"`
}

func (p GroupPatch) apply(a GroupAttrs) GroupAttrs {
	if p.Name != nil {
		a.Name = *p.Name
	}
	if p.Category != nil {
		a.Category = *p.Category
	}
	if p.DurationMonths != nil {
		a.DurationMonths = *p.DurationMonths
	}
	if p.Reference != nil {
		a.Reference = *p.Reference
	}
	return a
}

// Group is an environment or a service set with its ordered items.
type Group struct {
	ID      string
	Code    string
	Attrs   GroupAttrs
	Items   []Item
	Created time.Time
	Updated time.Time
}

func (g Group) clone() Group {
	g.Items = append([]Item(nil), g.Items...)
	for i := range g.Items {
		g.Items[i].Selection = append(Selection(nil), g.Items[i].Selection...)
	}
	return g
}

func (g Group) itemIndex(itemID string) int {
	for i, it := range g.Items {
		if it.ID == itemID {
			return i
		}
	}
	return -1
}

// Selection is a facet tuple, aligned with Kind.Facets.
type Selection []string

// Key returns the exact-match lookup key for the tuple.
func (s Selection) Key() string {
	return strings.Join(s, "\x1f")
}

func (s Selection) String() string {
	return strings.Join(s, " / ")
}

// Item is a single priced line: a component or a service.
type Item struct {
	ID         string
	GroupID    string
	Selection  Selection
	Quantity   float64 // quantity or number of mandays
	UnitRate   float64 // monthly price or manday rate
	Markup     float64 // profit percentage, zero for components
	TotalPrice float64
}

// ItemPatch is a partial item update; nil fields are left untouched.
type ItemPatch struct {
	Quantity *float64
	Markup   *float64
	Rate     *float64
}
