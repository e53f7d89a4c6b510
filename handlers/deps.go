package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/a-h/templ"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"offerdesk/config"
	"offerdesk/drafts"
	"offerdesk/metrics"
	"offerdesk/services"
	"offerdesk/templates"
)

// Deps bundles what request handlers need.
type Deps struct {
	App     *pocketbase.PocketBase
	Config  *config.Config
	Drafts  *drafts.Registry
	Metrics *metrics.Recorder
	// Rows caches list queries; nil disables caching.
	Rows *services.RowCache
}

func isHTMX(e *core.RequestEvent) bool {
	return e.Request.Header.Get("HX-Request") == "true"
}

// render writes the partial for HTMX requests and the full page otherwise.
func render(e *core.RequestEvent, partial templ.Component, page func(templates.HeaderData, templates.SidebarData) templ.Component) error {
	component := partial
	if !isHTMX(e) {
		component = page(GetHeaderData(e.Request), GetSidebarData(e.Request))
	}
	return component.Render(e.Request.Context(), e.Response)
}

// redirect sends HX-Redirect for HTMX requests and a 302 otherwise.
func redirect(e *core.RequestEvent, url string) error {
	if isHTMX(e) {
		e.Response.Header().Set("HX-Redirect", url)
		return e.String(http.StatusOK, "")
	}
	return e.Redirect(http.StatusFound, url)
}

const maxPageSize = 100

// listParams holds the paging, search and sort query parameters of a list.
type listParams struct {
	Page      int
	PageSize  int
	Search    string
	SortBy    string
	SortOrder string
}

func parseListParams(e *core.RequestEvent, defaultPageSize int) listParams {
	q := e.Request.URL.Query()
	p := listParams{Page: 1, PageSize: defaultPageSize}
	if v, err := strconv.Atoi(q.Get("page")); err == nil && v > 0 {
		p.Page = v
	}
	if v, err := strconv.Atoi(q.Get("page_size")); err == nil && v > 0 && v <= maxPageSize {
		p.PageSize = v
	}
	p.Search = strings.TrimSpace(q.Get("search"))
	p.SortBy = q.Get("sort_by")
	if q.Get("sort_order") == "desc" {
		p.SortOrder = "desc"
	}
	return p
}

// pagination clamps the page to the available range and returns the offset.
func (p *listParams) pagination(total int, baseURL string) (templates.Pagination, int) {
	pages := (total + p.PageSize - 1) / p.PageSize
	if pages < 1 {
		pages = 1
	}
	if p.Page > pages {
		p.Page = pages
	}
	return templates.Pagination{
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalItems: total,
		TotalPages: pages,
		BaseURL:    baseURL,
	}, (p.Page - 1) * p.PageSize
}

// matchAll is the filter used when a list has no other condition.
const matchAll = "id != ''"

// andFilter joins non-empty filter expressions with &&.
func andFilter(parts ...string) string {
	var out []string
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return matchAll
	}
	return strings.Join(out, " && ")
}

func mergeParams(dst map[string]any, src map[string]any) map[string]any {
	if dst == nil {
		dst = map[string]any{}
	}
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
