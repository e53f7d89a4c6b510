package handlers

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/pocketbase/pocketbase/core"
	"go.uber.org/zap"

	"offerdesk/services"
	"offerdesk/templates"
)

// customerScope returns the filter restricting an entity to the active
// customer, if the entity has a customer relation and one is active.
func customerScope(e *core.RequestEvent, ent *services.Entity) (string, map[string]any) {
	active := GetActiveCustomer(e.Request)
	if active == nil {
		return "", nil
	}
	if _, ok := ent.Field("customer"); !ok {
		return "", nil
	}
	return "customer = {:customer}", map[string]any{"customer": active.ID}
}

// relationLabels loads display labels for every relation target of ent.
func relationLabels(app core.App, ent *services.Entity) (map[string]string, map[string][]templates.Option) {
	labels := map[string]string{}
	options := map[string][]templates.Option{}
	for _, f := range ent.RelationFields() {
		labelField := services.RelationLabelField[f.Relation]
		records, err := app.FindRecordsByFilter(f.Relation, matchAll, labelField, 0, 0)
		if err != nil {
			zap.S().Warnf("entities: could not load %s options: %v", f.Relation, err)
			continue
		}
		for _, rec := range records {
			label := rec.GetString(labelField)
			labels[rec.Id] = label
			options[f.Name] = append(options[f.Name], templates.Option{Value: rec.Id, Label: label})
		}
	}
	return labels, options
}

func formFields(ent *services.Entity, options map[string][]templates.Option) []templates.FormField {
	out := make([]templates.FormField, 0, len(ent.Fields))
	for _, f := range ent.Fields {
		ff := templates.FormField{Name: f.Name, Label: f.Label, Required: f.Required, Type: "text"}
		switch f.Kind {
		case services.FieldTextArea:
			ff.Type = "textarea"
		case services.FieldEmail:
			ff.Type = "email"
		case services.FieldNumber, services.FieldInt:
			ff.Type = "number"
		case services.FieldDate:
			ff.Type = "date"
		case services.FieldSelect:
			ff.Type = "select"
			ff.Options = templates.OptionsFrom(f.Options)
		case services.FieldRelation:
			ff.Type = "select"
			ff.Options = options[f.Name]
		}
		out = append(out, ff)
	}
	return out
}

// HandleEntityList lists the records of an entity with search, sort and
// pagination.
func HandleEntityList(d *Deps, ent *services.Entity) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		params := parseListParams(e, d.Config.PageSize)
		searchFilter, searchParams := ent.SearchFilter(params.Search)
		scopeFilter, scopeParams := customerScope(e, ent)
		filter := andFilter(scopeFilter, searchFilter)
		filterParams := mergeParams(scopeParams, searchParams)

		view, err := d.Rows.Records(d.App, ent.Collection, filter, filterParams)
		if err != nil {
			zap.S().Errorf("entity_list: could not load %s: %v", ent.Collection, err)
			return e.String(http.StatusInternalServerError, "Failed to load "+ent.Title)
		}

		q := url.Values{}
		if params.Search != "" {
			q.Set("search", params.Search)
		}
		if params.SortBy != "" {
			q.Set("sort_by", params.SortBy)
			q.Set("sort_order", params.SortOrder)
		}
		base := "/" + ent.Slug
		if len(q) > 0 {
			base += "?" + q.Encode()
		}
		pagination, offset := params.pagination(view.Len(), base)

		labels, _ := relationLabels(d.App, ent)
		field, desc := ent.SortSpec(params.SortBy, params.SortOrder)
		sorted := view.Sorted(services.SortKey(field, desc), ent.Compare(field, desc, labels))
		records := services.Page(sorted, offset, params.PageSize)

		fields := ent.ListFields()
		data := templates.EntityListData{
			Slug:       ent.Slug,
			Title:      ent.Title,
			Singular:   ent.Singular,
			Search:     params.Search,
			Pagination: pagination,
			ExportURL:  "/" + ent.Slug + "/export",
		}
		if _, ok := services.CatalogKind(ent.Slug); ok {
			data.ImportURL = "/catalog/" + ent.Slug + "/import"
		}
		for _, f := range fields {
			col := templates.EntityColumn{Name: f.Name, Label: f.Label}
			order := "asc"
			if params.SortBy == f.Name {
				col.SortedBy = params.SortOrder
				if col.SortedBy == "" {
					col.SortedBy = "asc"
					order = "desc"
				}
			}
			sq := url.Values{"sort_by": {f.Name}, "sort_order": {order}}
			if params.Search != "" {
				sq.Set("search", params.Search)
			}
			col.SortURL = "/" + ent.Slug + "?" + sq.Encode()
			data.Columns = append(data.Columns, col)
		}
		for _, rec := range records {
			row := templates.EntityRow{ID: rec.Id}
			for _, f := range fields {
				row.Cells = append(row.Cells, ent.DisplayValue(rec, f, labels, d.Config.Currency))
			}
			data.Rows = append(data.Rows, row)
		}

		return render(e, templates.EntityListContent(data), func(h templates.HeaderData, s templates.SidebarData) templ.Component {
			return templates.EntityListPage(data, h, s)
		})
	}
}

func entityForm(d *Deps, ent *services.Entity, id string, values, errs map[string]string) templates.EntityFormData {
	_, options := relationLabels(d.App, ent)
	if errs == nil {
		errs = map[string]string{}
	}
	return templates.EntityFormData{
		Slug:     ent.Slug,
		Singular: ent.Singular,
		ID:       id,
		Fields:   formFields(ent, options),
		Values:   values,
		Errors:   errs,
	}
}

func renderEntityForm(e *core.RequestEvent, data templates.EntityFormData) error {
	return render(e, templates.EntityFormContent(data), func(h templates.HeaderData, s templates.SidebarData) templ.Component {
		return templates.EntityFormPage(data, h, s)
	})
}

func submittedValues(e *core.RequestEvent, ent *services.Entity) map[string]string {
	out := make(map[string]string, len(ent.Fields))
	for _, f := range ent.Fields {
		out[f.Name] = strings.TrimSpace(e.Request.FormValue(f.Name))
	}
	return out
}

// HandleEntityCreate renders an empty form, prefilled with the active customer.
func HandleEntityCreate(d *Deps, ent *services.Entity) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		values := map[string]string{}
		if active := GetActiveCustomer(e.Request); active != nil {
			if _, ok := ent.Field("customer"); ok {
				values["customer"] = active.ID
			}
		}
		return renderEntityForm(e, entityForm(d, ent, "", values, nil))
	}
}

// HandleEntitySave validates the form and creates a record.
func HandleEntitySave(d *Deps, ent *services.Entity) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		if err := e.Request.ParseForm(); err != nil {
			return e.String(http.StatusBadRequest, "Invalid form data")
		}
		values, errs := ent.ParseForm(e.Request.FormValue)
		if len(errs) > 0 {
			return renderEntityForm(e, entityForm(d, ent, "", submittedValues(e, ent), errs))
		}

		col, err := d.App.FindCollectionByNameOrId(ent.Collection)
		if err != nil {
			zap.S().Errorf("entity_save: could not find %s collection: %v", ent.Collection, err)
			return e.String(http.StatusInternalServerError, "Internal error")
		}
		rec := core.NewRecord(col)
		ent.Apply(rec, values)
		if err := d.App.Save(rec); err != nil {
			zap.S().Errorf("entity_save: could not save %s: %v", ent.Collection, err)
			return renderEntityForm(e, entityForm(d, ent, "", submittedValues(e, ent), map[string]string{
				ent.Fields[0].Name: "Could not save: " + err.Error(),
			}))
		}

		SetToast(e, "success", ent.Singular+" created")
		return redirect(e, "/"+ent.Slug)
	}
}

// HandleEntityEdit renders the form for an existing record.
func HandleEntityEdit(d *Deps, ent *services.Entity) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		id := e.Request.PathValue("id")
		rec, err := d.App.FindRecordById(ent.Collection, id)
		if err != nil {
			return e.String(http.StatusNotFound, ent.Singular+" not found")
		}
		return renderEntityForm(e, entityForm(d, ent, id, ent.FormValues(rec), nil))
	}
}

// HandleEntityUpdate validates the form and updates the record.
func HandleEntityUpdate(d *Deps, ent *services.Entity) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		id := e.Request.PathValue("id")
		rec, err := d.App.FindRecordById(ent.Collection, id)
		if err != nil {
			return e.String(http.StatusNotFound, ent.Singular+" not found")
		}
		if err := e.Request.ParseForm(); err != nil {
			return e.String(http.StatusBadRequest, "Invalid form data")
		}
		values, errs := ent.ParseForm(e.Request.FormValue)
		if len(errs) > 0 {
			return renderEntityForm(e, entityForm(d, ent, id, submittedValues(e, ent), errs))
		}

		ent.Apply(rec, values)
		if err := d.App.Save(rec); err != nil {
			zap.S().Errorf("entity_update: could not save %s %s: %v", ent.Collection, id, err)
			return ErrorToast(e, http.StatusInternalServerError, "Failed to save "+strings.ToLower(ent.Singular))
		}

		SetToast(e, "success", ent.Singular+" updated")
		return redirect(e, "/"+ent.Slug)
	}
}

// HandleEntityDelete deletes a record. Relations with cascade delete remove
// dependent records with it.
func HandleEntityDelete(d *Deps, ent *services.Entity) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		id := e.Request.PathValue("id")
		rec, err := d.App.FindRecordById(ent.Collection, id)
		if err != nil {
			return ErrorToast(e, http.StatusNotFound, ent.Singular+" not found")
		}
		if err := d.App.Delete(rec); err != nil {
			zap.S().Errorf("entity_delete: could not delete %s %s: %v", ent.Collection, id, err)
			return ErrorToast(e, http.StatusConflict, "Could not delete "+strings.ToLower(ent.Singular)+". It may still be referenced.")
		}
		if ent.Slug == "customers" {
			if active := GetActiveCustomer(e.Request); active != nil && active.ID == id {
				clearActiveCustomer(e)
			}
		}
		SetToast(e, "success", ent.Singular+" deleted")
		return e.HTML(http.StatusOK, "")
	}
}

// HandleEntityExport downloads the entity list as an Excel sheet, honoring
// the search and customer scope of the list.
func HandleEntityExport(d *Deps, ent *services.Entity) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		params := parseListParams(e, d.Config.PageSize)
		searchFilter, searchParams := ent.SearchFilter(params.Search)
		scopeFilter, scopeParams := customerScope(e, ent)
		view, err := d.Rows.Records(d.App, ent.Collection, andFilter(scopeFilter, searchFilter), mergeParams(scopeParams, searchParams))
		if err != nil {
			zap.S().Errorf("entity_export: could not query %s: %v", ent.Collection, err)
			return e.String(http.StatusInternalServerError, "Failed to export")
		}

		labels, _ := relationLabels(d.App, ent)
		field, desc := ent.SortSpec(params.SortBy, params.SortOrder)
		records := view.Sorted(services.SortKey(field, desc), ent.Compare(field, desc, labels))

		table := services.TableExport{Title: ent.Title}
		for _, f := range ent.Fields {
			table.Headers = append(table.Headers, f.Label)
		}
		for _, rec := range records {
			row := make([]string, 0, len(ent.Fields))
			for _, f := range ent.Fields {
				row = append(row, ent.DisplayValue(rec, f, labels, d.Config.Currency))
			}
			table.Rows = append(table.Rows, row)
		}

		data, err := services.GenerateTableExcel(table)
		if err != nil {
			zap.S().Errorf("entity_export: could not build workbook for %s: %v", ent.Collection, err)
			return e.String(http.StatusInternalServerError, "Failed to export")
		}
		filename := fmt.Sprintf("%s_%s.xlsx", ent.Slug, time.Now().Format("2006-01-02"))
		return sendFile(e, data, filename, xlsxContentType)
	}
}

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	pdfContentType  = "application/pdf"
)

func sendFile(e *core.RequestEvent, data []byte, filename, contentType string) error {
	e.Response.Header().Set("Content-Type", contentType)
	e.Response.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	return e.Blob(http.StatusOK, contentType, data)
}
