package lineitems

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// State is the lifecycle state of an Editor.
type State int

const (
	Uninitialized State = iota
	Loading
	Ready
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	default:
		return "uninitialized"
	}
}

// Options configures an Editor.
type Options struct {
	// ParentID is the owning offer. Empty or a placeholder id means the
	// offer is not saved yet and every mutation stays local.
	ParentID string
	// ReadOnly rejects every mutation with ErrReadOnly.
	ReadOnly bool
	// OnChange receives the full projected group list after each successful
	// mutation. It runs with the editor locked and must not call back into it.
	OnChange func([]GroupSummary)
	// DefaultDuration overrides the kind's default group duration when > 0.
	DefaultDuration int

	Logger   *zap.Logger
	Observer Observer
	Now      func() time.Time
}

// Editor holds the groups and items of one offer for one Kind and keeps them
// consistent with the store. Mutations are serialized.
type Editor struct {
	mu      sync.Mutex
	kind    *Kind
	store   Store
	opts    Options
	log     *zap.Logger
	state   State
	groups  []Group
	orders  map[string]int // sort_order per group/item id
	catalog *Catalog
}

// NewEditor returns an editor in the Uninitialized state.
func NewEditor(kind *Kind, store Store, opts Options) *Editor {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Editor{
		kind:    kind,
		store:   store,
		opts:    opts,
		log:     opts.Logger.With(zap.String("kind", kind.Name), zap.String("parent", opts.ParentID)),
		orders:  make(map[string]int),
		catalog: NewCatalog(kind, nil),
	}
}

func (e *Editor) Kind() *Kind      { return e.kind }
func (e *Editor) ParentID() string { return e.opts.ParentID }
func (e *Editor) ReadOnly() bool   { return e.opts.ReadOnly }

// Remote reports whether mutations of saved groups reach the store.
func (e *Editor) Remote() bool { return persisted(e.opts.ParentID) }

func (e *Editor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Load fetches the catalog and, for a saved parent, the existing groups with
// their items. On failure the previous state is kept and a *FetchError is
// returned.
func (e *Editor) Load(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	prev := e.state
	e.state = Loading

	var catalogRows, groupRows []Row
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := e.store.Query(gctx, Query{Table: e.kind.CatalogTable, Sort: e.kind.Facets[0]})
		if err != nil {
			return &FetchError{Kind: e.kind.Name, Table: e.kind.CatalogTable, Err: err}
		}
		catalogRows = rows
		return nil
	})
	if e.Remote() {
		g.Go(func() error {
			rows, err := e.fetchGroups(gctx)
			if err != nil {
				return &FetchError{Kind: e.kind.Name, Table: e.kind.GroupTable, Err: err}
			}
			groupRows = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		e.state = prev
		e.log.Warn("load failed", zap.Error(err))
		return err
	}

	e.catalog = catalogFromRows(e.kind, catalogRows)
	if e.Remote() {
		e.setGroups(groupRows)
	}
	e.state = Ready
	return nil
}

// Groups returns a copy of the current groups in creation order.
func (e *Editor) Groups() []Group {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Group, len(e.groups))
	for i, g := range e.groups {
		out[i] = g.clone()
	}
	return out
}

// Group returns a copy of one group.
func (e *Editor) Group(groupID string) (Group, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	i := e.groupIndex(groupID)
	if i < 0 {
		return Group{}, false
	}
	return e.groups[i].clone(), true
}

// Catalog returns the catalog loaded by Load.
func (e *Editor) Catalog() *Catalog {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.catalog
}

// Totals returns the overall totals across groups.
func (e *Editor) Totals() Totals {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.kind.Totals(e.groups)
}

// Summaries returns the projection handed to OnChange.
func (e *Editor) Summaries() []GroupSummary {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.kind.Project(e.groups)
}

// AddGroup appends a group with default attributes and no items. For a
// saved parent the group is inserted first and the stored record appended;
// otherwise it gets a placeholder id.
func (e *Editor) AddGroup(ctx context.Context) (g Group, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.begin(); err != nil {
		return Group{}, err
	}
	remote := e.Remote()
	defer e.observe("add_group", remote, time.Now(), &err)

	seq := e.nextSeq()
	attrs := e.kind.Defaults
	attrs.Name = fmt.Sprintf("%s %d", e.kind.Defaults.Name, seq)
	if e.opts.DefaultDuration > 0 {
		attrs.DurationMonths = e.opts.DefaultDuration
	}

	if remote {
		fields := e.groupFields(attrs)
		fields[e.kind.ParentField] = e.opts.ParentID
		fields["code"] = e.kind.code(seq)
		fields["sort_order"] = seq
		row, ierr := e.store.Insert(ctx, e.kind.GroupTable, fields)
		if ierr != nil {
			return Group{}, &RemoteMutationError{Op: "insert", Table: e.kind.GroupTable, Err: ierr}
		}
		g = e.groupFromRow(row)
	} else {
		now := e.opts.Now()
		g = Group{
			ID:      NewPlaceholderID(now),
			Code:    e.kind.code(seq),
			Attrs:   attrs,
			Created: now,
			Updated: now,
		}
	}
	e.orders[g.ID] = seq
	e.groups = append(e.groups, g)
	e.notify()
	return g.clone(), nil
}

// UpdateGroup applies patch locally, then writes it through for saved
// groups. A failed write reloads every group from the store.
func (e *Editor) UpdateGroup(ctx context.Context, groupID string, patch GroupPatch) (err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.begin(); err != nil {
		return err
	}
	i := e.groupIndex(groupID)
	if i < 0 {
		return ErrGroupNotFound
	}
	if err := validateGroupPatch(&patch); err != nil {
		return err
	}
	remote := e.Remote() && !IsPlaceholder(groupID)
	defer e.observe("update_group", remote, time.Now(), &err)

	e.groups[i].Attrs = patch.apply(e.groups[i].Attrs)
	e.groups[i].Updated = e.opts.Now()

	if remote {
		if uerr := e.store.Update(ctx, e.kind.GroupTable, groupID, e.patchFields(patch)); uerr != nil {
			return e.resync(ctx, "update", e.kind.GroupTable, groupID, uerr)
		}
	}
	e.notify()
	return nil
}

// DeleteGroup removes a group and its items. Unknown ids are a no-op.
func (e *Editor) DeleteGroup(ctx context.Context, groupID string) (err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.begin(); err != nil {
		return err
	}
	i := e.groupIndex(groupID)
	if i < 0 {
		return nil
	}
	remote := e.Remote() && !IsPlaceholder(groupID)
	defer e.observe("delete_group", remote, time.Now(), &err)

	if remote {
		if derr := e.store.Delete(ctx, e.kind.GroupTable, groupID); derr != nil {
			return e.resync(ctx, "delete", e.kind.GroupTable, groupID, derr)
		}
	}
	for _, it := range e.groups[i].Items {
		delete(e.orders, it.ID)
	}
	delete(e.orders, groupID)
	e.groups = slices.Delete(e.groups, i, i+1)
	e.notify()
	return nil
}

// AddItem resolves in.Selection against the catalog, validates the
// quantities and appends the priced item to the group. Nothing changes when
// the selection is unknown (*ConfigurationError) or the input is invalid
// (*ValidationError).
func (e *Editor) AddItem(ctx context.Context, groupID string, in ItemInput) (it Item, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.begin(); err != nil {
		return Item{}, err
	}
	gi := e.groupIndex(groupID)
	if gi < 0 {
		return Item{}, ErrGroupNotFound
	}
	row, ok := e.catalog.Resolve(in.Selection)
	if !ok {
		return Item{}, &ConfigurationError{ItemNoun: e.kind.ItemNoun, Selection: in.Selection}
	}
	if err := e.kind.validate(&in); err != nil {
		return Item{}, err
	}
	remote := e.Remote() && !IsPlaceholder(groupID)
	defer e.observe("add_item", remote, time.Now(), &err)

	rate := row.Rate
	if in.Rate != nil && e.kind.RateOverridable {
		rate = *in.Rate
	}
	var markup float64
	if e.kind.HasMarkup() {
		markup = in.Markup
	}
	it = Item{
		GroupID:    groupID,
		Selection:  append(Selection(nil), row.Facets...),
		Quantity:   in.Quantity,
		UnitRate:   rate,
		Markup:     markup,
		TotalPrice: e.kind.ItemTotal(rate, in.Quantity, markup),
	}
	order := e.nextItemOrder(e.groups[gi])

	if remote {
		saved, ierr := e.store.Insert(ctx, e.kind.ItemTable, e.itemFields(it, order))
		if ierr != nil {
			return Item{}, &RemoteMutationError{Op: "insert", Table: e.kind.ItemTable, Err: ierr}
		}
		it.ID = saved.ID
	} else {
		it.ID = NewPlaceholderID(e.opts.Now())
	}
	e.orders[it.ID] = order
	e.groups[gi].Items = append(e.groups[gi].Items, it)
	e.notify()
	it.Selection = append(Selection(nil), it.Selection...)
	return it, nil
}

// UpdateItem changes quantity, markup or rate of an item and recomputes its
// total. Saved items are written through; a failed write reloads.
func (e *Editor) UpdateItem(ctx context.Context, groupID, itemID string, patch ItemPatch) (err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.begin(); err != nil {
		return err
	}
	gi := e.groupIndex(groupID)
	if gi < 0 {
		return ErrGroupNotFound
	}
	ii := e.groups[gi].itemIndex(itemID)
	if ii < 0 {
		return ErrItemNotFound
	}
	if err := e.kind.validatePatch(&patch); err != nil {
		return err
	}
	remote := e.Remote() && !IsPlaceholder(groupID) && !IsPlaceholder(itemID)
	defer e.observe("update_item", remote, time.Now(), &err)

	it := &e.groups[gi].Items[ii]
	if patch.Quantity != nil {
		it.Quantity = *patch.Quantity
	}
	if patch.Markup != nil && e.kind.HasMarkup() {
		it.Markup = *patch.Markup
	}
	if patch.Rate != nil && e.kind.RateOverridable {
		it.UnitRate = *patch.Rate
	}
	it.TotalPrice = e.kind.ItemTotal(it.UnitRate, it.Quantity, it.Markup)

	if remote {
		fields := map[string]any{
			e.kind.QuantityField: it.Quantity,
			e.kind.ItemRateField: it.UnitRate,
			"total_price":        it.TotalPrice,
		}
		if e.kind.HasMarkup() {
			fields[e.kind.MarkupField] = it.Markup
		}
		if uerr := e.store.Update(ctx, e.kind.ItemTable, itemID, fields); uerr != nil {
			return e.resync(ctx, "update", e.kind.ItemTable, itemID, uerr)
		}
	}
	e.notify()
	return nil
}

// DeleteItem removes an item from its group. Deleting an absent item is a
// no-op and not an error.
func (e *Editor) DeleteItem(ctx context.Context, groupID, itemID string) (err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.begin(); err != nil {
		return err
	}
	gi := e.groupIndex(groupID)
	if gi < 0 {
		return nil
	}
	ii := e.groups[gi].itemIndex(itemID)
	if ii < 0 {
		return nil
	}
	remote := e.Remote() && !IsPlaceholder(groupID) && !IsPlaceholder(itemID)
	defer e.observe("delete_item", remote, time.Now(), &err)

	e.groups[gi].Items = slices.Delete(e.groups[gi].Items, ii, ii+1)
	delete(e.orders, itemID)

	if remote {
		if derr := e.store.Delete(ctx, e.kind.ItemTable, itemID); derr != nil {
			return e.resync(ctx, "delete", e.kind.ItemTable, itemID, derr)
		}
	}
	e.notify()
	return nil
}

func (e *Editor) begin() error {
	if e.opts.ReadOnly {
		return ErrReadOnly
	}
	if e.state != Ready {
		return ErrNotReady
	}
	return nil
}

func (e *Editor) observe(op string, remote bool, start time.Time, errp *error) {
	err := *errp
	e.opts.Observer.ObserveMutation(e.kind.Name, op, remote, err, time.Since(start))
	if err != nil {
		e.log.Warn("mutation failed", zap.String("op", op), zap.Bool("remote", remote), zap.Error(err))
	}
}

func (e *Editor) notify() {
	if e.opts.OnChange != nil {
		e.opts.OnChange(e.kind.Project(e.groups))
	}
}

// resync discards optimistic local state after a failed write by reloading
// every group from the store.
func (e *Editor) resync(ctx context.Context, op, table, id string, cause error) error {
	rerr := &RemoteMutationError{Op: op, Table: table, ID: id, Err: cause}
	rows, err := e.fetchGroups(ctx)
	if err != nil {
		e.log.Error("reload after failed write", zap.Error(err))
		return rerr
	}
	e.setGroups(rows)
	rerr.Reloaded = true
	e.notify()
	return rerr
}

func (e *Editor) fetchGroups(ctx context.Context) ([]Row, error) {
	return e.store.Query(ctx, Query{
		Table: e.kind.GroupTable,
		Where: map[string]any{e.kind.ParentField: e.opts.ParentID},
		Sort:  "sort_order",
		Children: &ChildQuery{
			Table:       e.kind.ItemTable,
			ParentField: e.kind.ItemParentField,
			Sort:        "sort_order",
		},
	})
}

func (e *Editor) setGroups(rows []Row) {
	clear(e.orders)
	e.groups = make([]Group, 0, len(rows))
	for _, r := range rows {
		e.groups = append(e.groups, e.groupFromRow(r))
	}
}

func (e *Editor) groupFromRow(r Row) Group {
	k := e.kind
	g := Group{
		ID:   r.ID,
		Code: r.String("code"),
		Attrs: GroupAttrs{
			Name:           r.String(k.Group.Name),
			Category:       r.String(k.Group.Category),
			DurationMonths: r.Int(k.Group.Duration),
			Reference:      r.String(k.Group.Reference),
		},
		Created: r.Created,
		Updated: r.Updated,
	}
	e.orders[r.ID] = r.Int("sort_order")
	for _, c := range r.Children {
		g.Items = append(g.Items, e.itemFromRow(r.ID, c))
	}
	return g
}

func (e *Editor) itemFromRow(groupID string, r Row) Item {
	k := e.kind
	it := Item{
		ID:        r.ID,
		GroupID:   groupID,
		Selection: make(Selection, len(k.Facets)),
		Quantity:  r.Float(k.QuantityField),
		UnitRate:  r.Float(k.ItemRateField),
	}
	for i, f := range k.Facets {
		it.Selection[i] = r.String(f)
	}
	if k.HasMarkup() {
		it.Markup = r.Float(k.MarkupField)
	}
	it.TotalPrice = k.ItemTotal(it.UnitRate, it.Quantity, it.Markup)
	e.orders[r.ID] = r.Int("sort_order")
	return it
}

func (e *Editor) groupFields(a GroupAttrs) map[string]any {
	return e.kind.groupFields(a)
}

func (k *Kind) groupFields(a GroupAttrs) map[string]any {
	return map[string]any{
		k.Group.Name:      a.Name,
		k.Group.Category:  a.Category,
		k.Group.Duration:  a.DurationMonths,
		k.Group.Reference: a.Reference,
	}
}

func (e *Editor) patchFields(p GroupPatch) map[string]any {
	k := e.kind
	fields := map[string]any{}
	if p.Name != nil {
		fields[k.Group.Name] = *p.Name
	}
	if p.Category != nil {
		fields[k.Group.Category] = *p.Category
	}
	if p.DurationMonths != nil {
		fields[k.Group.Duration] = *p.DurationMonths
	}
	if p.Reference != nil {
		fields[k.Group.Reference] = *p.Reference
	}
	return fields
}

func (e *Editor) itemFields(it Item, order int) map[string]any {
	return e.kind.itemFields(it.GroupID, it, order)
}

func (k *Kind) itemFields(groupID string, it Item, order int) map[string]any {
	fields := map[string]any{
		k.ItemParentField: groupID,
		k.QuantityField:   it.Quantity,
		k.ItemRateField:   it.UnitRate,
		"total_price":     it.TotalPrice,
		"sort_order":      order,
	}
	for i, f := range k.Facets {
		if i < len(it.Selection) {
			fields[f] = it.Selection[i]
		}
	}
	if k.HasMarkup() {
		fields[k.MarkupField] = it.Markup
	}
	return fields
}

func (e *Editor) groupIndex(groupID string) int {
	for i, g := range e.groups {
		if g.ID == groupID {
			return i
		}
	}
	return -1
}

// nextSeq returns one past the highest code number in use, so codes stay
// unique after deletions.
func (e *Editor) nextSeq() int {
	highest := 0
	for _, g := range e.groups {
		rest, ok := strings.CutPrefix(g.Code, e.kind.CodePrefix+"-")
		if !ok {
			continue
		}
		if n, err := strconv.Atoi(rest); err == nil && n > highest {
			highest = n
		}
	}
	return highest + 1
}

func (e *Editor) nextItemOrder(g Group) int {
	highest := 0
	for _, it := range g.Items {
		if o := e.orders[it.ID]; o > highest {
			highest = o
		}
	}
	return highest + 1
}
