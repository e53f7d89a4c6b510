package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/a-h/templ"
	"github.com/pocketbase/pocketbase/core"
	"go.uber.org/zap"

	"offerdesk/lineitems"
	"offerdesk/services"
	"offerdesk/templates"
)

func catalogImportData(slug string, kind *lineitems.Kind) templates.CatalogImportData {
	data := templates.CatalogImportData{Catalog: slug, Title: "licenses"}
	if kind == lineitems.ServiceSets {
		data.Title = "services"
	}
	for _, c := range services.CatalogColumns(kind) {
		label := c.Label
		if c.Required {
			label += " *"
		}
		data.Columns = append(data.Columns, label)
	}
	return data
}

func resolveCatalog(e *core.RequestEvent) (string, *lineitems.Kind, bool) {
	slug := e.Request.PathValue("catalog")
	kind, ok := services.CatalogKind(slug)
	return slug, kind, ok
}

func renderCatalogImport(e *core.RequestEvent, data templates.CatalogImportData) error {
	return render(e, templates.CatalogImportContent(data), func(h templates.HeaderData, s templates.SidebarData) templ.Component {
		return templates.CatalogImportPage(data, h, s)
	})
}

// HandleCatalogImportPage renders the upload form of a pricing catalog.
func HandleCatalogImportPage(d *Deps) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		slug, kind, ok := resolveCatalog(e)
		if !ok {
			return e.String(http.StatusNotFound, "Unknown catalog")
		}
		return renderCatalogImport(e, catalogImportData(slug, kind))
	}
}

// HandleCatalogImport validates an uploaded .csv or .xlsx and, when every
// row is valid, upserts it into the catalog. A file with any invalid row
// imports nothing.
func HandleCatalogImport(d *Deps) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		slug, kind, ok := resolveCatalog(e)
		if !ok {
			return e.String(http.StatusNotFound, "Unknown catalog")
		}
		file, header, err := e.Request.FormFile("file")
		if err != nil {
			return ErrorToast(e, http.StatusBadRequest, "Please choose a file to upload")
		}
		defer file.Close()

		result, err := services.ParseCatalogFile(kind, file, header.Filename)
		if err != nil {
			return ErrorToast(e, http.StatusUnprocessableEntity, err.Error())
		}

		data := catalogImportData(slug, kind)
		data.FileName = result.FileName
		data.TotalRows = result.TotalRows
		data.ErrorRows = result.ErrorRows
		if len(result.Errors) > 0 {
			for _, ie := range result.Errors {
				data.Errors = append(data.Errors, templates.ImportErrorRow{Row: ie.Row, Field: ie.Field, Message: ie.Message})
			}
			return renderCatalogImport(e, data)
		}

		sum, err := services.ImportCatalog(d.App, kind, result.ParsedRows)
		if err != nil {
			zap.S().Errorf("catalog_import: %s: %v", kind.CatalogTable, err)
			return ErrorToast(e, http.StatusInternalServerError, "Import failed. Nothing was changed.")
		}
		if d.Metrics != nil {
			d.Metrics.CatalogImported(kind.CatalogTable, sum.Created+sum.Updated)
		}
		zap.S().Infof("catalog_import: %s: %d created, %d updated from %s", kind.CatalogTable, sum.Created, sum.Updated, result.FileName)

		data.Imported = true
		data.Created = sum.Created
		data.Updated = sum.Updated
		SetToast(e, "success", fmt.Sprintf("%d rows imported", sum.Created+sum.Updated))
		return renderCatalogImport(e, data)
	}
}

// HandleCatalogTemplate downloads an empty workbook with the import headers.
func HandleCatalogTemplate(d *Deps) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		slug, kind, ok := resolveCatalog(e)
		if !ok {
			return e.String(http.StatusNotFound, "Unknown catalog")
		}
		data, err := services.CatalogTemplate(kind)
		if err != nil {
			zap.S().Errorf("catalog_template: %v", err)
			return e.String(http.StatusInternalServerError, "Failed to generate template")
		}
		return sendFile(e, data, slug+"_template.xlsx", xlsxContentType)
	}
}

// HandleCatalogErrorReport turns the posted import errors into a workbook.
func HandleCatalogErrorReport(d *Deps) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		slug, _, ok := resolveCatalog(e)
		if !ok {
			return e.String(http.StatusNotFound, "Unknown catalog")
		}
		if err := e.Request.ParseForm(); err != nil {
			return ErrorToast(e, http.StatusBadRequest, "Invalid form data")
		}
		var errs []services.ImportError
		if err := json.Unmarshal([]byte(e.Request.FormValue("errors")), &errs); err != nil {
			return ErrorToast(e, http.StatusBadRequest, "Invalid error data")
		}
		data, err := services.GenerateErrorReport(errs)
		if err != nil {
			zap.S().Errorf("catalog_error_report: %v", err)
			return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}
		filename := fmt.Sprintf("%s_import_errors_%s.xlsx", slug, time.Now().Format("2006-01-02"))
		return sendFile(e, data, filename, xlsxContentType)
	}
}
