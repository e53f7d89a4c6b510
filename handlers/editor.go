package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/a-h/templ"
	"github.com/pocketbase/pocketbase/core"
	"github.com/spf13/cast"
	"go.uber.org/zap"

	"offerdesk/collections"
	"offerdesk/drafts"
	"offerdesk/lineitems"
	"offerdesk/services"
	"offerdesk/templates"
)

// Editor kinds are addressed by these URL slugs.
var editorKinds = map[string]*lineitems.Kind{
	"environments": lineitems.Environments,
	"service-sets": lineitems.ServiceSets,
}

func kindSlug(kind *lineitems.Kind) string {
	if kind == lineitems.ServiceSets {
		return "service-sets"
	}
	return "environments"
}

// editorTarget is an editor resolved from a request, with the URL prefix
// of its endpoints and the saved offer it belongs to (empty for drafts).
type editorTarget struct {
	editor  *lineitems.Editor
	baseURL string
	offerID string
}

// EditorResolver finds the editor a request addresses. It writes the error
// response itself and returns ok=false when none can be used.
type EditorResolver func(e *core.RequestEvent) (editorTarget, bool, error)

// DraftEditors addresses the editors of an unsaved offer:
// /drafts/{token}/{kind}/...
func DraftEditors(d *Deps) EditorResolver {
	return func(e *core.RequestEvent) (editorTarget, bool, error) {
		kind, ok := editorKinds[e.Request.PathValue("kind")]
		if !ok {
			return editorTarget{}, false, e.String(http.StatusNotFound, "Unknown editor")
		}
		token := e.Request.PathValue("token")
		draft, err := d.Drafts.Get(token)
		if errors.Is(err, drafts.ErrNotFound) {
			return editorTarget{}, false, ErrorToast(e, http.StatusGone, "This draft has expired. Please start a new offer.")
		}
		if err != nil {
			return editorTarget{}, false, err
		}
		return editorTarget{
			editor:  draft.Editor(kind),
			baseURL: "/drafts/" + token + "/" + kindSlug(kind),
		}, true, nil
	}
}

// OfferEditors addresses the editors of a saved offer:
// /offers/{id}/lines/{kind}/... The editor is loaded per request and writes
// through to the database.
func OfferEditors(d *Deps) EditorResolver {
	return func(e *core.RequestEvent) (editorTarget, bool, error) {
		kind, ok := editorKinds[e.Request.PathValue("kind")]
		if !ok {
			return editorTarget{}, false, e.String(http.StatusNotFound, "Unknown editor")
		}
		offerID := e.Request.PathValue("id")
		offer, err := d.App.FindRecordById("offers", offerID)
		if err != nil {
			return editorTarget{}, false, ErrorToast(e, http.StatusNotFound, "Offer not found")
		}
		ed, err := loadOfferEditor(e.Request.Context(), d, kind, offer)
		if err != nil {
			zap.S().Errorf("editor: could not load %s for offer %s: %v", kind.Name, offerID, err)
			return editorTarget{}, false, ErrorToast(e, http.StatusServiceUnavailable, lineitems.UserMessage(err))
		}
		return editorTarget{
			editor:  ed,
			baseURL: "/offers/" + offerID + "/lines/" + kindSlug(kind),
			offerID: offerID,
		}, true, nil
	}
}

func loadOfferEditor(ctx context.Context, d *Deps, kind *lineitems.Kind, offer *core.Record) (*lineitems.Editor, error) {
	ed := lineitems.NewEditor(kind, lineitems.NewPocketBaseStore(d.App), lineitems.Options{
		ParentID:        offer.Id,
		ReadOnly:        services.OfferReadOnly(offer.GetString("status")),
		DefaultDuration: d.defaultDuration(kind),
		Logger:          zap.L(),
		Observer:        d.observer(),
	})
	if err := ed.Load(ctx); err != nil {
		return nil, err
	}
	return ed, nil
}

func (d *Deps) observer() lineitems.Observer {
	if d.Metrics == nil {
		return nil
	}
	return d.Metrics
}

func (d *Deps) defaultDuration(kind *lineitems.Kind) int {
	if kind == lineitems.ServiceSets {
		return d.Config.ServiceMonths
	}
	return d.Config.EnvironmentMonths
}

// editorData maps an editor onto the partial's view model.
func editorData(d *Deps, ed *lineitems.Editor, baseURL string, readOnly bool) templates.EditorData {
	kind := ed.Kind()
	money := func(v float64) string { return services.FormatMoney(v, d.Config.Currency) }

	data := templates.EditorData{
		KindSlug:      kindSlug(kind),
		GroupNoun:     kind.Name,
		ItemNoun:      kind.ItemNoun,
		BaseURL:       baseURL,
		ReadOnly:      readOnly || ed.ReadOnly(),
		QuantityField: kind.QuantityField,
		MarkupField:   kind.MarkupField,
	}
	switch kind {
	case lineitems.ServiceSets:
		data.Title = "Services"
		data.CategoryLabel = "Category"
		data.CategoryOptions = templates.OptionsFrom(collections.ServiceCategories)
		data.ReferenceLabel = "Subcontractor"
		data.ReferenceOptions = subcontractorOptions(d.App)
		data.DurationLabel = "Months"
		data.QuantityLabel = "Mandays"
		data.RateLabel = "Manday rate"
		data.RateField = kind.ItemRateField
	default:
		data.Title = "Environments"
		data.CategoryLabel = "Type"
		data.CategoryOptions = templates.OptionsFrom(collections.EnvironmentTypes)
		data.ReferenceLabel = "Deployment"
		data.ReferenceOptions = templates.OptionsFrom(collections.DeploymentOptions)
		data.DurationLabel = "License months"
		data.QuantityLabel = "Qty"
		data.RateLabel = "Unit / month"
		data.ShowMonthly = true
	}

	catalog := ed.Catalog()
	for i, f := range kind.Facets {
		in := templates.FacetInput{Name: f, Label: services.Humanize(f)}
		if i == 0 {
			in.Options = valueOptions(catalog.Options(0))
		}
		data.Facets = append(data.Facets, in)
	}

	for _, g := range ed.Groups() {
		eg := templates.EditorGroup{
			ID:           g.ID,
			Code:         g.Code,
			Name:         g.Attrs.Name,
			Category:     g.Attrs.Category,
			Reference:    g.Attrs.Reference,
			Duration:     g.Attrs.DurationMonths,
			MonthlyTotal: money(lineitems.MonthlyTotal(g.Items)),
			GrandTotal:   money(kind.GrandTotal(g)),
		}
		for _, it := range g.Items {
			eg.Items = append(eg.Items, templates.EditorItem{
				ID:       it.ID,
				Label:    it.Selection.String(),
				Quantity: services.FormatQty(it.Quantity),
				Markup:   services.FormatQty(it.Markup),
				Rate:     services.FormatQty(it.UnitRate),
				UnitRate: money(it.UnitRate),
				Total:    money(it.TotalPrice),
			})
		}
		data.Groups = append(data.Groups, eg)
	}
	totals := ed.Totals()
	data.MonthlyTotal = money(totals.Monthly)
	data.GrandTotal = money(totals.Grand)
	return data
}

// valueOptions keeps catalog values as their own labels.
func valueOptions(values []string) []templates.Option {
	out := make([]templates.Option, len(values))
	for i, v := range values {
		out[i] = templates.Option{Value: v, Label: v}
	}
	return out
}

func subcontractorOptions(app core.App) []templates.Option {
	records, err := app.FindRecordsByFilter("partners", "partner_type = 'subcontractor'", "name", 0, 0)
	if err != nil {
		zap.S().Warnf("editor: could not load subcontractors: %v", err)
		return nil
	}
	out := make([]templates.Option, 0, len(records))
	for _, rec := range records {
		out = append(out, templates.Option{Value: rec.Id, Label: rec.GetString("name")})
	}
	return out
}

func renderEditor(e *core.RequestEvent, d *Deps, t editorTarget) error {
	return templates.Editor(editorData(d, t.editor, t.baseURL, false)).Render(e.Request.Context(), e.Response)
}

// respond finishes a mutation: saved offers get their revenue snapshot
// refreshed and the editor partial is re-rendered, or the error is mapped
// to a status and toast.
func respond(e *core.RequestEvent, d *Deps, t editorTarget, err error, success string) error {
	var valErr *lineitems.ValidationError
	var cfgErr *lineitems.ConfigurationError
	var remoteErr *lineitems.RemoteMutationError
	var fetchErr *lineitems.FetchError

	switch {
	case err == nil:
		if t.offerID != "" {
			if _, rerr := services.RefreshOfferTotals(e.Request.Context(), d.App, t.offerID); rerr != nil {
				zap.S().Errorf("editor: could not refresh totals of offer %s: %v", t.offerID, rerr)
			}
		}
		if success != "" {
			SetToast(e, "success", success)
		}
		return renderEditor(e, d, t)
	case errors.As(err, &valErr):
		return ErrorToast(e, http.StatusUnprocessableEntity, validationMessage(valErr))
	case errors.As(err, &cfgErr):
		return ErrorToast(e, http.StatusUnprocessableEntity, lineitems.UserMessage(err))
	case errors.Is(err, lineitems.ErrReadOnly):
		return ErrorToast(e, http.StatusForbidden, lineitems.UserMessage(err))
	case errors.Is(err, lineitems.ErrGroupNotFound), errors.Is(err, lineitems.ErrItemNotFound):
		return ErrorToast(e, http.StatusNotFound, lineitems.UserMessage(err))
	case errors.As(err, &remoteErr):
		// local state was rolled back or reloaded; show what the store holds
		SetToast(e, "error", lineitems.UserMessage(err))
		return renderEditor(e, d, t)
	case errors.As(err, &fetchErr), errors.Is(err, lineitems.ErrNotReady):
		return ErrorToast(e, http.StatusServiceUnavailable, lineitems.UserMessage(err))
	default:
		zap.S().Errorf("editor: unexpected error: %v", err)
		return ErrorToast(e, http.StatusInternalServerError, lineitems.UserMessage(err))
	}
}

func validationMessage(err *lineitems.ValidationError) string {
	parts := make([]string, 0, len(err.Fields))
	for _, f := range []string{"name", "quantity", "markup", "rate", "duration_months"} {
		if msg, ok := err.Fields[f]; ok {
			parts = append(parts, services.Humanize(f)+" "+msg)
		}
	}
	if len(parts) == 0 {
		return lineitems.UserMessage(err)
	}
	return strings.Join(parts, ", ")
}

// HandleEditorView renders an editor partial.
func HandleEditorView(d *Deps, resolve EditorResolver) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		t, ok, err := resolve(e)
		if !ok {
			return err
		}
		return renderEditor(e, d, t)
	}
}

// HandleEditorAddGroup appends a group with default attributes.
func HandleEditorAddGroup(d *Deps, resolve EditorResolver) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		t, ok, err := resolve(e)
		if !ok {
			return err
		}
		_, err = t.editor.AddGroup(e.Request.Context())
		return respond(e, d, t, err, "")
	}
}

// parseGroupPatch reads the group attributes present in the form. Range
// checks happen in the editor.
func parseGroupPatch(e *core.RequestEvent) (lineitems.GroupPatch, error) {
	var patch lineitems.GroupPatch
	form := e.Request.PostForm
	if form.Has("name") {
		name := strings.TrimSpace(form.Get("name"))
		patch.Name = &name
	}
	if form.Has("category") {
		category := form.Get("category")
		patch.Category = &category
	}
	if form.Has("reference") {
		ref := form.Get("reference")
		patch.Reference = &ref
	}
	if form.Has("duration_months") {
		months, err := cast.ToIntE(strings.TrimSpace(form.Get("duration_months")))
		if err != nil {
			return patch, &lineitems.ValidationError{Fields: map[string]string{"duration_months": "must be a whole number"}}
		}
		patch.DurationMonths = &months
	}
	return patch, nil
}

// HandleEditorUpdateGroup patches a group's attributes.
func HandleEditorUpdateGroup(d *Deps, resolve EditorResolver) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		t, ok, err := resolve(e)
		if !ok {
			return err
		}
		if err := e.Request.ParseForm(); err != nil {
			return e.String(http.StatusBadRequest, "Invalid form data")
		}
		patch, err := parseGroupPatch(e)
		if err != nil {
			return respond(e, d, t, err, "")
		}
		err = t.editor.UpdateGroup(e.Request.Context(), e.Request.PathValue("group"), patch)
		return respond(e, d, t, err, "")
	}
}

// HandleEditorDeleteGroup removes a group with its items.
func HandleEditorDeleteGroup(d *Deps, resolve EditorResolver) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		t, ok, err := resolve(e)
		if !ok {
			return err
		}
		err = t.editor.DeleteGroup(e.Request.Context(), e.Request.PathValue("group"))
		return respond(e, d, t, err, "Deleted")
	}
}

// HandleEditorAddItem prices a catalog selection and appends it to a group.
func HandleEditorAddItem(d *Deps, resolve EditorResolver) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		t, ok, err := resolve(e)
		if !ok {
			return err
		}
		if err := e.Request.ParseForm(); err != nil {
			return e.String(http.StatusBadRequest, "Invalid form data")
		}
		in, err := t.editor.Kind().ParseItemInput(e.Request.FormValue)
		if err != nil {
			return respond(e, d, t, err, "")
		}
		_, err = t.editor.AddItem(e.Request.Context(), e.Request.PathValue("group"), in)
		return respond(e, d, t, err, "")
	}
}

// parseItemPatch reads the numeric item fields present in the form.
func parseItemPatch(kind *lineitems.Kind, e *core.RequestEvent) (lineitems.ItemPatch, error) {
	var patch lineitems.ItemPatch
	form := e.Request.PostForm
	fields := map[string]string{}
	read := func(formField, key string) *float64 {
		if formField == "" || !form.Has(formField) {
			return nil
		}
		v, err := cast.ToFloat64E(strings.TrimSpace(form.Get(formField)))
		if err != nil {
			fields[key] = "must be a number"
			return nil
		}
		return &v
	}
	patch.Quantity = read(kind.QuantityField, "quantity")
	if kind.HasMarkup() {
		patch.Markup = read(kind.MarkupField, "markup")
	}
	if kind.RateOverridable {
		patch.Rate = read(kind.ItemRateField, "rate")
	}
	if len(fields) > 0 {
		return patch, &lineitems.ValidationError{Fields: fields}
	}
	return patch, nil
}

// HandleEditorUpdateItem changes quantity, markup or rate of an item.
func HandleEditorUpdateItem(d *Deps, resolve EditorResolver) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		t, ok, err := resolve(e)
		if !ok {
			return err
		}
		if err := e.Request.ParseForm(); err != nil {
			return e.String(http.StatusBadRequest, "Invalid form data")
		}
		patch, err := parseItemPatch(t.editor.Kind(), e)
		if err != nil {
			return respond(e, d, t, err, "")
		}
		err = t.editor.UpdateItem(e.Request.Context(), e.Request.PathValue("group"), e.Request.PathValue("item"), patch)
		return respond(e, d, t, err, "")
	}
}

// HandleEditorDeleteItem removes an item.
func HandleEditorDeleteItem(d *Deps, resolve EditorResolver) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		t, ok, err := resolve(e)
		if !ok {
			return err
		}
		err = t.editor.DeleteItem(e.Request.Context(), e.Request.PathValue("group"), e.Request.PathValue("item"))
		return respond(e, d, t, err, "")
	}
}

// HandleEditorOptions renders the dropdown of one facet, narrowed by the
// facets chosen before it.
func HandleEditorOptions(d *Deps, resolve EditorResolver) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		t, ok, err := resolve(e)
		if !ok {
			return err
		}
		kind := t.editor.Kind()
		q := e.Request.URL.Query()
		facet, err := strconv.Atoi(q.Get("facet"))
		if err != nil || facet < 0 || facet >= len(kind.Facets) {
			return e.String(http.StatusBadRequest, "Invalid facet")
		}
		fixed := make(lineitems.Selection, facet)
		for i := range fixed {
			fixed[i] = q.Get(kind.Facets[i])
		}
		opts := valueOptions(t.editor.Catalog().OptionsFor(facet, fixed))
		var attrs templ.Attributes
		if facet+1 < len(kind.Facets) {
			attrs = templates.FacetChainAttrs(t.baseURL, kindSlug(kind), q.Get("group"), facet+1)
		}
		return templates.FacetOptions(kind.Facets[facet], opts, attrs).Render(e.Request.Context(), e.Response)
	}
}
