package lineitems

// CatalogRow is one read-only pricing entry.
type CatalogRow struct {
	ID     string
	Facets Selection
	Rate   float64
}

// Catalog resolves facet tuples to catalog rows. It is built once per editor
// session and never mutated.
type Catalog struct {
	kind  *Kind
	rows  []CatalogRow
	index map[string]int
}

// NewCatalog indexes rows by their full facet tuple. On duplicate tuples the
// first row wins.
func NewCatalog(kind *Kind, rows []CatalogRow) *Catalog {
	c := &Catalog{
		kind:  kind,
		rows:  rows,
		index: make(map[string]int, len(rows)),
	}
	for i, r := range rows {
		key := r.Facets.Key()
		if _, ok := c.index[key]; !ok {
			c.index[key] = i
		}
	}
	return c
}

func catalogFromRows(kind *Kind, rows []Row) *Catalog {
	out := make([]CatalogRow, 0, len(rows))
	for _, r := range rows {
		sel := make(Selection, len(kind.Facets))
		for i, f := range kind.Facets {
			sel[i] = r.String(f)
		}
		out = append(out, CatalogRow{ID: r.ID, Facets: sel, Rate: r.Float(kind.RateField)})
	}
	return NewCatalog(kind, out)
}

// Rows returns the catalog rows in load order.
func (c *Catalog) Rows() []CatalogRow {
	return append([]CatalogRow(nil), c.rows...)
}

// Len returns the number of catalog rows.
func (c *Catalog) Len() int {
	return len(c.rows)
}

// Resolve returns the row matching every facet of sel exactly.
func (c *Catalog) Resolve(sel Selection) (CatalogRow, bool) {
	if len(sel) != len(c.kind.Facets) {
		return CatalogRow{}, false
	}
	i, ok := c.index[sel.Key()]
	if !ok {
		return CatalogRow{}, false
	}
	return c.rows[i], true
}

// Options returns the distinct values of the facet at position facet, in
// first-seen order.
func (c *Catalog) Options(facet int) []string {
	return c.OptionsFor(facet, nil)
}

// OptionsFor is Options restricted to rows whose leading facets equal the
// non-empty values in fixed. It drives dependent selects (type after name,
// size after type).
func (c *Catalog) OptionsFor(facet int, fixed Selection) []string {
	if facet < 0 || facet >= len(c.kind.Facets) {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for _, r := range c.rows {
		if !matchesPrefix(r.Facets, fixed, facet) {
			continue
		}
		v := r.Facets[facet]
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

func matchesPrefix(facets, fixed Selection, upto int) bool {
	for i := 0; i < upto && i < len(fixed); i++ {
		if fixed[i] != "" && facets[i] != fixed[i] {
			return false
		}
	}
	return true
}
