package lineitems

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// Row is a store record: server id, field values and, for relational
// selects, the embedded child rows.
type Row struct {
	ID       string
	Fields   map[string]any
	Children []Row
	Created  time.Time
	Updated  time.Time
}

// String returns a field as a string.
func (r Row) String(field string) string {
	return cast.ToString(r.Fields[field])
}

// Float returns a field as a float64, zero when absent or not numeric.
func (r Row) Float(field string) float64 {
	return cast.ToFloat64(r.Fields[field])
}

// Int returns a field as an int, zero when absent or not numeric.
func (r Row) Int(field string) int {
	return cast.ToInt(r.Fields[field])
}

// ChildQuery embeds the rows of Table whose ParentField points at each
// selected row.
type ChildQuery struct {
	Table       string
	ParentField string
	Sort        string
}

// Query selects rows of Table matching every Where pair, ordered by Sort
// ("field" ascending, "-field" descending).
type Query struct {
	Table    string
	Where    map[string]any
	Sort     string
	Children *ChildQuery
}

// Store is the remote row store the editor writes through.
type Store interface {
	Query(ctx context.Context, q Query) ([]Row, error)
	Insert(ctx context.Context, table string, fields map[string]any) (Row, error)
	Update(ctx context.Context, table, id string, fields map[string]any) error
	// Delete removes a row. Deleting a group also removes its items in the
	// same write.
	Delete(ctx context.Context, table, id string) error
}

// sortRows orders rows in place by a "field" or "-field" order, numerically
// when both values are numeric. Ties keep their original order.
func sortRows(rows []Row, order string) {
	if order == "" {
		return
	}
	desc := strings.HasPrefix(order, "-")
	field := strings.TrimPrefix(order, "-")
	sort.SliceStable(rows, func(i, j int) bool {
		if desc {
			return lessValue(rows[j].Fields[field], rows[i].Fields[field])
		}
		return lessValue(rows[i].Fields[field], rows[j].Fields[field])
	})
}

func lessValue(a, b any) bool {
	fa, errA := cast.ToFloat64E(a)
	fb, errB := cast.ToFloat64E(b)
	if errA == nil && errB == nil {
		return fa < fb
	}
	return cast.ToString(a) < cast.ToString(b)
}
