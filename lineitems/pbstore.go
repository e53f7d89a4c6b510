package lineitems

import (
	"context"
	"fmt"
	"strings"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
)

// PocketBaseStore is the Store backed by PocketBase collections. Pass the
// transactional app from RunInTransaction to make a batch of writes atomic.
type PocketBaseStore struct {
	app core.App
}

// NewPocketBaseStore wraps app.
func NewPocketBaseStore(app core.App) *PocketBaseStore {
	return &PocketBaseStore{app: app}
}

func (s *PocketBaseStore) Query(ctx context.Context, q Query) ([]Row, error) {
	col, err := s.app.FindCollectionByNameOrId(q.Table)
	if err != nil {
		return nil, fmt.Errorf("collection %s: %w", q.Table, err)
	}

	query := s.app.RecordQuery(col).WithContext(ctx)
	if len(q.Where) > 0 {
		query = query.AndWhere(dbx.HashExp(q.Where))
	}
	if q.Sort != "" {
		query = query.OrderBy(orderBy(q.Sort))
	}

	var records []*core.Record
	if err := query.All(&records); err != nil {
		return nil, fmt.Errorf("query %s: %w", q.Table, err)
	}

	rows := make([]Row, 0, len(records))
	if q.Children == nil || len(records) == 0 {
		for _, rec := range records {
			rows = append(rows, rowFromRecord(rec))
		}
		return rows, nil
	}

	// Back-relation expand embeds the child rows in one call.
	expand := q.Children.Table + "_via_" + q.Children.ParentField
	if errs := s.app.ExpandRecords(records, []string{expand}, nil); len(errs) > 0 {
		for _, err := range errs {
			return nil, fmt.Errorf("expand %s: %w", expand, err)
		}
	}
	for _, rec := range records {
		row := rowFromRecord(rec)
		for _, child := range rec.ExpandedAll(expand) {
			row.Children = append(row.Children, rowFromRecord(child))
		}
		sortRows(row.Children, q.Children.Sort)
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *PocketBaseStore) Insert(ctx context.Context, table string, fields map[string]any) (Row, error) {
	col, err := s.app.FindCollectionByNameOrId(table)
	if err != nil {
		return Row{}, fmt.Errorf("collection %s: %w", table, err)
	}
	rec := core.NewRecord(col)
	for k, v := range fields {
		rec.Set(k, v)
	}
	if err := s.app.SaveWithContext(ctx, rec); err != nil {
		return Row{}, fmt.Errorf("insert %s: %w", table, err)
	}
	return rowFromRecord(rec), nil
}

func (s *PocketBaseStore) Update(ctx context.Context, table, id string, fields map[string]any) error {
	rec, err := s.app.FindRecordById(table, id)
	if err != nil {
		return fmt.Errorf("find %s/%s: %w", table, id, err)
	}
	for k, v := range fields {
		rec.Set(k, v)
	}
	if err := s.app.SaveWithContext(ctx, rec); err != nil {
		return fmt.Errorf("update %s/%s: %w", table, id, err)
	}
	return nil
}

func (s *PocketBaseStore) Delete(ctx context.Context, table, id string) error {
	rec, err := s.app.FindRecordById(table, id)
	if err != nil {
		return fmt.Errorf("find %s/%s: %w", table, id, err)
	}
	if err := s.app.DeleteWithContext(ctx, rec); err != nil {
		return fmt.Errorf("delete %s/%s: %w", table, id, err)
	}
	return nil
}

func rowFromRecord(rec *core.Record) Row {
	fields := rec.FieldsData()
	delete(fields, "id")
	return Row{
		ID:      rec.Id,
		Fields:  fields,
		Created: rec.GetDateTime("created").Time(),
		Updated: rec.GetDateTime("updated").Time(),
	}
}

func orderBy(order string) string {
	if strings.HasPrefix(order, "-") {
		return strings.TrimPrefix(order, "-") + " DESC"
	}
	return order + " ASC"
}
