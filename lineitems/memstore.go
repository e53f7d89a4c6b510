package lineitems

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/spf13/cast"
)

// Call records one mutating call made against a MemoryStore.
type Call struct {
	Op    string // insert, update, delete
	Table string
	ID    string
}

// MemoryStore is an in-process Store. It records every mutating call and
// can be told to fail specific operations, which makes it the store of
// choice for exercising the editor without a database. Deleting a group row
// removes its items, like the cascading relations in collections.Setup.
type MemoryStore struct {
	mu      sync.Mutex
	tables  map[string][]Row
	seq     int
	calls   []Call
	fail    map[string]error
	now     func() time.Time
	cascade map[string]ChildQuery
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		tables:  make(map[string][]Row),
		fail:    make(map[string]error),
		now:     time.Now,
		cascade: make(map[string]ChildQuery),
	}
	for _, k := range []*Kind{Environments, ServiceSets} {
		s.cascade[k.GroupTable] = ChildQuery{Table: k.ItemTable, ParentField: k.ItemParentField}
	}
	return s
}

// Seed appends rows to a table without recording calls. Rows without an id
// get a generated one.
func (s *MemoryStore) Seed(table string, fields ...map[string]any) []Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Row
	for _, f := range fields {
		r := s.newRow(f)
		s.tables[table] = append(s.tables[table], r)
		out = append(out, r)
	}
	return out
}

// FailOn makes every subsequent op ("query", "insert", "update", "delete")
// on table return err. A nil err clears the failure.
func (s *MemoryStore) FailOn(op, table string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := op + ":" + table
	if err == nil {
		delete(s.fail, key)
		return
	}
	s.fail[key] = err
}

// Calls returns the mutating calls made so far.
func (s *MemoryStore) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// Rows returns a snapshot of a table.
func (s *MemoryStore) Rows(table string) []Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Row, len(s.tables[table]))
	for i, r := range s.tables[table] {
		out[i] = copyRow(r)
	}
	return out
}

func (s *MemoryStore) Query(ctx context.Context, q Query) ([]Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail["query:"+q.Table]; err != nil {
		return nil, err
	}
	rows := s.filter(q.Table, q.Where)
	sortRows(rows, q.Sort)
	if q.Children != nil {
		for i := range rows {
			children := s.filter(q.Children.Table, map[string]any{q.Children.ParentField: rows[i].ID})
			sortRows(children, q.Children.Sort)
			rows[i].Children = children
		}
	}
	return rows, nil
}

func (s *MemoryStore) Insert(ctx context.Context, table string, fields map[string]any) (Row, error) {
	if err := ctx.Err(); err != nil {
		return Row{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail["insert:"+table]; err != nil {
		return Row{}, err
	}
	r := s.newRow(fields)
	s.tables[table] = append(s.tables[table], r)
	s.calls = append(s.calls, Call{Op: "insert", Table: table, ID: r.ID})
	return copyRow(r), nil
}

func (s *MemoryStore) Update(ctx context.Context, table, id string, fields map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail["update:"+table]; err != nil {
		return err
	}
	for i, r := range s.tables[table] {
		if r.ID == id {
			maps.Copy(s.tables[table][i].Fields, fields)
			s.tables[table][i].Updated = s.now()
			s.calls = append(s.calls, Call{Op: "update", Table: table, ID: id})
			return nil
		}
	}
	return fmt.Errorf("%s/%s: no such row", table, id)
}

func (s *MemoryStore) Delete(ctx context.Context, table, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail["delete:"+table]; err != nil {
		return err
	}
	rows := s.tables[table]
	for i, r := range rows {
		if r.ID == id {
			s.tables[table] = append(rows[:i:i], rows[i+1:]...)
			if child, ok := s.cascade[table]; ok {
				s.tables[child.Table] = s.reject(child.Table, map[string]any{child.ParentField: id})
			}
			s.calls = append(s.calls, Call{Op: "delete", Table: table, ID: id})
			return nil
		}
	}
	return fmt.Errorf("%s/%s: no such row", table, id)
}

func (s *MemoryStore) reject(table string, where map[string]any) []Row {
	kept := s.tables[table][:0:0]
	for _, r := range s.tables[table] {
		if !matches(r, where) {
			kept = append(kept, r)
		}
	}
	return kept
}

func (s *MemoryStore) newRow(fields map[string]any) Row {
	s.seq++
	now := s.now()
	r := Row{
		ID:      fmt.Sprintf("mem%012d", s.seq),
		Fields:  maps.Clone(fields),
		Created: now,
		Updated: now,
	}
	if r.Fields == nil {
		r.Fields = map[string]any{}
	}
	if id := cast.ToString(r.Fields["id"]); id != "" {
		r.ID = id
		delete(r.Fields, "id")
	}
	return r
}

func (s *MemoryStore) filter(table string, where map[string]any) []Row {
	var out []Row
	for _, r := range s.tables[table] {
		if matches(r, where) {
			out = append(out, copyRow(r))
		}
	}
	return out
}

func matches(r Row, where map[string]any) bool {
	for k, v := range where {
		got := r.Fields[k]
		if k == "id" {
			got = r.ID
		}
		if cast.ToString(got) != cast.ToString(v) {
			return false
		}
	}
	return true
}

func copyRow(r Row) Row {
	r.Fields = maps.Clone(r.Fields)
	if r.Children != nil {
		children := make([]Row, len(r.Children))
		for i, c := range r.Children {
			children[i] = copyRow(c)
		}
		r.Children = children
	}
	return r
}
