// Package templates renders the offer desk's pages and HTMX partials. The
// markup lives in the .templ sources; this file holds the view models they
// render.
package templates

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/a-h/templ"
)

// Option is a select option.
type Option struct {
	Value string
	Label string
}

// OptionsFrom turns plain values into options with humanized labels.
func OptionsFrom(values []string) []Option {
	out := make([]Option, len(values))
	for i, v := range values {
		out[i] = Option{Value: v, Label: humanize(v)}
	}
	return out
}

// ── Shell ────────────────────────────────────────────────────────────────

// ActiveCustomer is the customer the desk is currently scoped to.
type ActiveCustomer struct {
	ID   string
	Name string
}

// CustomerSelectorItem is one entry of the header customer switcher.
type CustomerSelectorItem struct {
	ID       string
	Name     string
	Country  string
	IsActive bool
}

// HeaderData feeds the page header.
type HeaderData struct {
	ActiveCustomer *ActiveCustomer
	Customers      []CustomerSelectorItem
}

// NavItem is a sidebar link.
type NavItem struct {
	Label string
	Href  string
	Count int
}

// SidebarData feeds the sidebar.
type SidebarData struct {
	ActiveCustomer *ActiveCustomer
	ActivePath     string
	Main           []NavItem
	Catalog        []NavItem
}

// Pagination is the state of a paged list.
type Pagination struct {
	Page       int
	PageSize   int
	TotalItems int
	TotalPages int
	BaseURL    string // list URL including search/sort params, without page
}

func (p Pagination) pageURL(page int) string {
	sep := "?"
	if strings.Contains(p.BaseURL, "?") {
		sep = "&"
	}
	return p.BaseURL + sep + "page=" + strconv.Itoa(page)
}

func navActive(activePath, href string) bool {
	return activePath == href || (href != "/" && strings.HasPrefix(activePath, href+"/"))
}

// ── Dashboard ────────────────────────────────────────────────────────────

// DashboardData feeds the home page.
type DashboardData struct {
	Customer       *ActiveCustomer
	Customers      int
	OpenOffers     int
	PipelineTCV    string
	ActiveMRR      string
	CustomerMRR    string
	RecentOffers   []OfferListItem
	DraftsInFlight int
}

// ── Line item editor ─────────────────────────────────────────────────────

// FacetInput is one selection dropdown of the add-item form. Options of
// later facets are loaded once the earlier ones are chosen.
type FacetInput struct {
	Name    string
	Label   string
	Options []Option
}

// EditorItem is a rendered item row.
type EditorItem struct {
	ID       string
	Label    string
	Quantity string
	Markup   string
	Rate     string
	UnitRate string // formatted
	Total    string // formatted
}

// EditorGroup is a rendered group with its items.
type EditorGroup struct {
	ID           string
	Code         string
	Name         string
	Category     string
	Reference    string
	Duration     int
	Items        []EditorItem
	MonthlyTotal string
	GrandTotal   string
}

// EditorData feeds the line item editor partial.
type EditorData struct {
	KindSlug  string
	Title     string
	GroupNoun string
	ItemNoun  string
	BaseURL   string
	ReadOnly  bool

	CategoryLabel    string
	CategoryOptions  []Option
	ReferenceLabel   string
	ReferenceOptions []Option
	DurationLabel    string

	Facets        []FacetInput
	QuantityField string
	QuantityLabel string
	MarkupField   string
	RateField     string
	RateLabel     string

	Groups       []EditorGroup
	ShowMonthly  bool
	MonthlyTotal string
	GrandTotal   string
}

func (d EditorData) groupURL(groupID string) string {
	return d.BaseURL + "/groups/" + groupID
}

func (d EditorData) disabled() templ.Attributes {
	if d.ReadOnly {
		return templ.Attributes{"disabled": true}
	}
	return nil
}

// EditorID is the DOM id of an editor partial.
func EditorID(kindSlug string) string {
	return "editor-" + kindSlug
}

// FacetSlotID is the DOM id wrapping one facet dropdown of a group's form.
func FacetSlotID(kindSlug, groupID string, facet int) string {
	return "facet-" + kindSlug + "-" + groupID + "-" + strconv.Itoa(facet)
}

// FacetChainAttrs returns the hx attributes that reload facet next of a
// group's add-item form when the current dropdown changes.
func FacetChainAttrs(baseURL, kindSlug, groupID string, next int) templ.Attributes {
	return templ.Attributes{
		"hx-get":     baseURL + "/options?group=" + groupID + "&facet=" + strconv.Itoa(next),
		"hx-include": "closest form",
		"hx-trigger": "change",
		"hx-target":  "#" + FacetSlotID(kindSlug, groupID, next),
		"hx-swap":    "innerHTML",
	}
}

func (d EditorData) facetAttrs(groupID string, i int) templ.Attributes {
	if i+1 >= len(d.Facets) {
		return nil
	}
	return FacetChainAttrs(d.BaseURL, d.KindSlug, groupID, i+1)
}

// ── Entities ─────────────────────────────────────────────────────────────

// EntityColumn is a list column header.
type EntityColumn struct {
	Name     string
	Label    string
	SortURL  string
	SortedBy string // "asc", "desc" or ""
}

// EntityRow is one list row with preformatted cells.
type EntityRow struct {
	ID    string
	Cells []string
}

// EntityListData feeds the generic list screen.
type EntityListData struct {
	Slug       string
	Title      string
	Singular   string
	Search     string
	Columns    []EntityColumn
	Rows       []EntityRow
	Pagination Pagination
	ExportURL  string
	ImportURL  string // set for catalogs
}

// FormField is one input of a generic form.
type FormField struct {
	Name     string
	Label    string
	Type     string // text, email, number, date, textarea, select
	Required bool
	Options  []Option
}

// EntityFormData feeds the generic create/edit form.
type EntityFormData struct {
	Slug     string
	Singular string
	ID       string // empty when creating
	Fields   []FormField
	Values   map[string]string
	Errors   map[string]string
}

func (d EntityFormData) action() string {
	if d.ID != "" {
		return "/" + d.Slug + "/" + d.ID + "/save"
	}
	return "/" + d.Slug
}

func (d EntityFormData) heading() string {
	if d.ID != "" {
		return "Edit " + d.Singular
	}
	return "New " + d.Singular
}

// ── Offers ───────────────────────────────────────────────────────────────

// OfferListItem is one row of the offer list.
type OfferListItem struct {
	ID          string
	OfferNumber string
	Title       string
	Customer    string
	Status      string
	MRR         string
	TCV         string
	Created     string
}

// OfferListData feeds the offer list.
type OfferListData struct {
	Items      []OfferListItem
	Status     string
	Search     string
	Statuses   []Option
	Pagination Pagination
}

// OfferFormData feeds the offer header form and, when creating, carries the
// draft token the editors are bound to.
type OfferFormData struct {
	ID          string // empty when creating
	DraftToken  string
	OfferNumber string
	Title       string
	Customer    string
	Opportunity string
	Partner     string
	ValidUntil  string
	Notes       string
	Documents   []string

	Customers     []Option
	Opportunities []Option
	Partners      []Option
	Errors        map[string]string

	Editors []EditorData
}

func (d OfferFormData) action() string {
	if d.ID != "" {
		return "/offers/" + d.ID + "/save"
	}
	return "/offers"
}

func (d OfferFormData) heading() string {
	if d.ID != "" {
		return "Edit " + d.OfferNumber
	}
	return "New offer"
}

func (d OfferFormData) cancelURL() string {
	if d.ID != "" {
		return "/offers/" + d.ID
	}
	return "/offers"
}

type selectField struct {
	Name, Label string
	Options     []Option
	Value       string
}

func (d OfferFormData) selects() []selectField {
	return []selectField{
		{"customer", "Customer *", d.Customers, d.Customer},
		{"opportunity", "Opportunity", d.Opportunities, d.Opportunity},
		{"partner", "Partner", d.Partners, d.Partner},
	}
}

// RevenueData is the formatted revenue summary of an offer.
type RevenueData struct {
	MRR            string
	LicenseTCV     string
	ServiceRevenue string
	TCV            string
	ServiceCost    string
	Margin         string
	MarginPercent  string
}

type statItem struct{ Label, Value string }

func (r RevenueData) items() []statItem {
	return []statItem{
		{"MRR", r.MRR},
		{"License TCV", r.LicenseTCV},
		{"Services", r.ServiceRevenue},
		{"TCV", r.TCV},
		{"Service margin", r.Margin + " (" + r.MarginPercent + ")"},
	}
}

// DocumentLink is a downloadable offer attachment.
type DocumentLink struct {
	Name string
	URL  string
}

// OfferViewData feeds the read-only offer page.
type OfferViewData struct {
	ID           string
	OfferNumber  string
	Title        string
	Customer     string
	Opportunity  string
	Partner      string
	Status       string
	ValidUntil   string
	Notes        string
	Created      string
	Documents    []DocumentLink
	NextStatuses []Option
	CanEdit      bool
	CanConvert   bool
	ContractID   string
	Revenue      RevenueData
	Editors      []EditorData
}

func statusVals(status string) string {
	vals, _ := json.Marshal(map[string]string{"status": status})
	return string(vals)
}

// ── Catalog import ───────────────────────────────────────────────────────

// ImportErrorRow is one row-level import problem.
type ImportErrorRow struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// CatalogImportData feeds the catalog upload screen.
type CatalogImportData struct {
	Catalog   string // "licenses" or "services"
	Title     string
	Columns   []string
	FileName  string
	TotalRows int
	ErrorRows int
	Errors    []ImportErrorRow
	Imported  bool
	Created   int
	Updated   int
}

func (d CatalogImportData) baseURL() string {
	return "/catalog/" + d.Catalog + "/import"
}

// errorsJSON is posted back to download the error report.
func (d CatalogImportData) errorsJSON() string {
	payload, _ := json.Marshal(d.Errors)
	return string(payload)
}

// ── Helpers ──────────────────────────────────────────────────────────────

func humanize(v string) string {
	if v == "" {
		return ""
	}
	v = strings.ReplaceAll(v, "_", " ")
	return strings.ToUpper(v[:1]) + v[1:]
}

func statusBadge(status string) string {
	switch status {
	case "sent":
		return "badge-info"
	case "accepted", "active", "won", "completed":
		return "badge-success"
	case "rejected", "lost", "terminated":
		return "badge-error"
	default:
		return "badge-ghost"
	}
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
