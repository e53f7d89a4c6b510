package services

import (
	"cmp"
	"errors"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/pocketbase/pocketbase/core"
	"github.com/spf13/cast"

	"offerdesk/collections"
)

// FieldKind controls how an entity field is parsed and rendered.
type FieldKind int

const (
	FieldText FieldKind = iota
	FieldTextArea
	FieldEmail
	FieldNumber
	FieldInt
	FieldDate
	FieldSelect
	FieldRelation
)

// EntityField describes one editable column of an entity.
type EntityField struct {
	Name     string
	Label    string
	Kind     FieldKind
	Required bool
	Options  []string // FieldSelect values
	Relation string   // FieldRelation target collection
	List     bool     // shown as a list column
	Search   bool     // matched by the list search box
}

// Entity is a collection managed through the generic list/form screens.
type Entity struct {
	Slug       string
	Collection string
	Title      string
	Singular   string
	Fields     []EntityField
	Sort       string
}

// RelationLabelField is the field shown for records of a relation target.
var RelationLabelField = map[string]string{
	"customers":     "name",
	"partners":      "name",
	"opportunities": "title",
	"offers":        "offer_number",
	"contracts":     "contract_number",
}

// Entities lists the collections with generic CRUD screens, in nav order.
var Entities = []*Entity{
	{
		Slug: "customers", Collection: "customers", Title: "Customers", Singular: "Customer", Sort: "name",
		Fields: []EntityField{
			{Name: "name", Label: "Name", Required: true, List: true, Search: true},
			{Name: "company_id", Label: "Company ID", List: true, Search: true},
			{Name: "email", Label: "Email", Kind: FieldEmail, List: true, Search: true},
			{Name: "phone", Label: "Phone"},
			{Name: "city", Label: "City", List: true, Search: true},
			{Name: "country", Label: "Country", List: true},
			{Name: "notes", Label: "Notes", Kind: FieldTextArea},
		},
	},
	{
		Slug: "partners", Collection: "partners", Title: "Partners", Singular: "Partner", Sort: "name",
		Fields: []EntityField{
			{Name: "name", Label: "Name", Required: true, List: true, Search: true},
			{Name: "partner_type", Label: "Type", Kind: FieldSelect, Options: collections.PartnerTypes, List: true},
			{Name: "email", Label: "Email", Kind: FieldEmail, List: true, Search: true},
			{Name: "phone", Label: "Phone"},
			{Name: "country", Label: "Country", List: true},
		},
	},
	{
		Slug: "opportunities", Collection: "opportunities", Title: "Opportunities", Singular: "Opportunity", Sort: "-created",
		Fields: []EntityField{
			{Name: "title", Label: "Title", Required: true, List: true, Search: true},
			{Name: "customer", Label: "Customer", Kind: FieldRelation, Relation: "customers", Required: true, List: true},
			{Name: "partner", Label: "Partner", Kind: FieldRelation, Relation: "partners"},
			{Name: "stage", Label: "Stage", Kind: FieldSelect, Options: collections.OpportunityStages, List: true},
			{Name: "expected_close", Label: "Expected close", Kind: FieldDate, List: true},
			{Name: "estimated_value", Label: "Estimated value", Kind: FieldNumber, List: true},
		},
	},
	{
		Slug: "contracts", Collection: "contracts", Title: "Contracts", Singular: "Contract", Sort: "-created",
		Fields: []EntityField{
			{Name: "contract_number", Label: "Number", Required: true, List: true, Search: true},
			{Name: "customer", Label: "Customer", Kind: FieldRelation, Relation: "customers", Required: true, List: true},
			{Name: "offer", Label: "Offer", Kind: FieldRelation, Relation: "offers"},
			{Name: "start_date", Label: "Start", Kind: FieldDate, List: true},
			{Name: "end_date", Label: "End", Kind: FieldDate, List: true},
			{Name: "status", Label: "Status", Kind: FieldSelect, Options: collections.ContractStatuses, List: true},
			{Name: "mrr", Label: "MRR", Kind: FieldNumber, List: true},
			{Name: "tcv", Label: "TCV", Kind: FieldNumber, List: true},
		},
	},
	{
		Slug: "projects", Collection: "projects", Title: "Projects", Singular: "Project", Sort: "name",
		Fields: []EntityField{
			{Name: "name", Label: "Name", Required: true, List: true, Search: true},
			{Name: "customer", Label: "Customer", Kind: FieldRelation, Relation: "customers", Required: true, List: true},
			{Name: "contract", Label: "Contract", Kind: FieldRelation, Relation: "contracts", List: true},
			{Name: "status", Label: "Status", Kind: FieldSelect, Options: collections.ProjectStatuses, List: true},
			{Name: "budget_mandays", Label: "Budget (mandays)", Kind: FieldNumber, List: true},
		},
	},
	{
		Slug: "licenses", Collection: "license_pricing", Title: "License pricing", Singular: "License", Sort: "name",
		Fields: []EntityField{
			{Name: "name", Label: "Name", Required: true, List: true, Search: true},
			{Name: "type", Label: "Type", Required: true, List: true, Search: true},
			{Name: "size", Label: "Size", Required: true, List: true, Search: true},
			{Name: "monthly_price", Label: "Monthly price", Kind: FieldNumber, Required: true, List: true},
		},
	},
	{
		Slug: "services", Collection: "service_catalog", Title: "Service catalog", Singular: "Service", Sort: "service_name",
		Fields: []EntityField{
			{Name: "service_name", Label: "Service", Required: true, List: true, Search: true},
			{Name: "category", Label: "Category", Kind: FieldSelect, Options: collections.ServiceCategories, List: true},
			{Name: "manday_rate", Label: "Manday rate", Kind: FieldNumber, Required: true, List: true},
			{Name: "cost_rate", Label: "Cost rate", Kind: FieldNumber, List: true},
		},
	},
}

// EntityBySlug finds an entity by its URL slug.
func EntityBySlug(slug string) (*Entity, bool) {
	for _, e := range Entities {
		if e.Slug == slug {
			return e, true
		}
	}
	return nil, false
}

// Field returns the named field.
func (e *Entity) Field(name string) (EntityField, bool) {
	for _, f := range e.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return EntityField{}, false
}

// ListFields returns the fields shown as list columns.
func (e *Entity) ListFields() []EntityField {
	var out []EntityField
	for _, f := range e.Fields {
		if f.List {
			out = append(out, f)
		}
	}
	return out
}

// SearchFilter builds a PocketBase filter matching search against the
// searchable fields. An empty search yields an empty filter.
func (e *Entity) SearchFilter(search string) (string, map[string]any) {
	search = strings.TrimSpace(search)
	if search == "" {
		return "", nil
	}
	var parts []string
	for _, f := range e.Fields {
		if f.Search {
			parts = append(parts, f.Name+" ~ {:search}")
		}
	}
	if len(parts) == 0 {
		return "", nil
	}
	return "(" + strings.Join(parts, " || ") + ")", map[string]any{"search": search}
}

// SortSpec resolves the requested sort column and direction, falling back
// to the entity's default for unknown fields.
func (e *Entity) SortSpec(sortBy, order string) (string, bool) {
	if _, ok := e.Field(sortBy); ok || sortBy == "created" || sortBy == "updated" {
		return sortBy, order == "desc"
	}
	field, desc := strings.CutPrefix(e.Sort, "-")
	return field, desc
}

// Compare orders records by field. Relations compare by their display label
// and text case-insensitively; ties keep a stable order by id.
func (e *Entity) Compare(field string, desc bool, labels map[string]string) func(a, b *core.Record) int {
	f, _ := e.Field(field)
	var primary func(a, b *core.Record) int
	switch {
	case field == "created" || field == "updated" || f.Kind == FieldDate:
		primary = func(a, b *core.Record) int {
			return a.GetDateTime(field).Time().Compare(b.GetDateTime(field).Time())
		}
	case f.Kind == FieldNumber || f.Kind == FieldInt:
		primary = func(a, b *core.Record) int {
			return cmp.Compare(a.GetFloat(field), b.GetFloat(field))
		}
	case f.Kind == FieldRelation:
		primary = func(a, b *core.Record) int {
			return strings.Compare(strings.ToLower(labels[a.GetString(field)]), strings.ToLower(labels[b.GetString(field)]))
		}
	default:
		primary = func(a, b *core.Record) int {
			return strings.Compare(strings.ToLower(a.GetString(field)), strings.ToLower(b.GetString(field)))
		}
	}
	return func(a, b *core.Record) int {
		c := primary(a, b)
		if desc {
			c = -c
		}
		if c != 0 {
			return c
		}
		return strings.Compare(a.Id, b.Id)
	}
}

// SortKey names an ordering for memoization.
func SortKey(field string, desc bool) string {
	if desc {
		return "-" + field
	}
	return field
}

// ParseForm reads and validates submitted values. It returns the typed
// values keyed by field name and per-field error messages.
func (e *Entity) ParseForm(get func(string) string) (map[string]any, map[string]string) {
	values := make(map[string]any, len(e.Fields))
	errs := map[string]string{}

	for _, f := range e.Fields {
		raw := strings.TrimSpace(get(f.Name))
		v, err := f.parse(raw)
		if err == nil {
			err = f.validate(raw, v)
		}
		if err != nil {
			errs[f.Name] = err.Error()
			continue
		}
		values[f.Name] = v
	}
	return values, errs
}

var errInvalidDate = errors.New("must be a date (YYYY-MM-DD)")

func (f EntityField) parse(raw string) (any, error) {
	if raw == "" {
		switch f.Kind {
		case FieldNumber, FieldInt:
			return 0.0, nil
		}
		return "", nil
	}
	switch f.Kind {
	case FieldNumber, FieldInt:
		n, err := cast.ToFloat64E(raw)
		if err != nil {
			return nil, errors.New("must be a number")
		}
		return n, nil
	case FieldDate:
		d, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			return nil, errInvalidDate
		}
		return d.Format(time.DateOnly) + " 00:00:00.000Z", nil
	}
	return raw, nil
}

func (f EntityField) validate(raw string, v any) error {
	var rules []validation.Rule
	switch f.Kind {
	case FieldNumber, FieldInt:
		// Zero is a valid amount, so required means "not blank".
		if f.Required && raw == "" {
			return errors.New("is required")
		}
		rules = append(rules, validation.Min(0.0).Error("must be zero or greater"))
		if f.Kind == FieldInt {
			rules = append(rules, validation.By(func(any) error {
				if n := cast.ToFloat64(v); n != float64(int64(n)) {
					return errors.New("must be a whole number")
				}
				return nil
			}))
		}
		return validation.Validate(v, rules...)
	}

	if f.Required {
		rules = append(rules, validation.Required.Error("is required"))
	}
	switch f.Kind {
	case FieldEmail:
		rules = append(rules, is.EmailFormat.Error("must be a valid email address"))
	case FieldSelect:
		opts := make([]any, len(f.Options))
		for i, o := range f.Options {
			opts[i] = o
		}
		rules = append(rules, validation.In(opts...).Error("is not a valid option"))
	}
	return validation.Validate(v, rules...)
}

// Apply copies parsed values onto a record.
func (e *Entity) Apply(rec *core.Record, values map[string]any) {
	for _, f := range e.Fields {
		if v, ok := values[f.Name]; ok {
			rec.Set(f.Name, v)
		}
	}
}

// FormValues returns a record's fields as form strings.
func (e *Entity) FormValues(rec *core.Record) map[string]string {
	out := make(map[string]string, len(e.Fields))
	for _, f := range e.Fields {
		if f.Kind == FieldDate {
			if dt := rec.GetDateTime(f.Name); !dt.IsZero() {
				out[f.Name] = dt.Time().Format(time.DateOnly)
			}
			continue
		}
		out[f.Name] = cast.ToString(rec.Get(f.Name))
	}
	return out
}

// DisplayValue formats a record field for a list cell. labels maps relation
// ids to display labels.
func (e *Entity) DisplayValue(rec *core.Record, f EntityField, labels map[string]string, currency string) string {
	switch f.Kind {
	case FieldRelation:
		id := rec.GetString(f.Name)
		if l, ok := labels[id]; ok {
			return l
		}
		return id
	case FieldNumber:
		if f.Name == "mrr" || f.Name == "tcv" || strings.HasSuffix(f.Name, "_price") ||
			strings.HasSuffix(f.Name, "_rate") || strings.HasSuffix(f.Name, "_value") {
			return FormatMoney(rec.GetFloat(f.Name), currency)
		}
		return FormatQty(rec.GetFloat(f.Name))
	case FieldInt:
		return fmt.Sprintf("%d", rec.GetInt(f.Name))
	case FieldDate:
		if dt := rec.GetDateTime(f.Name); !dt.IsZero() {
			return dt.Time().Format("02 Jan 2006")
		}
		return ""
	case FieldSelect:
		return Humanize(rec.GetString(f.Name))
	}
	return rec.GetString(f.Name)
}

// RelationFields returns the relation fields of the entity.
func (e *Entity) RelationFields() []EntityField {
	var out []EntityField
	for _, f := range e.Fields {
		if f.Kind == FieldRelation {
			out = append(out, f)
		}
	}
	return out
}
