// Rendered form of catalog_import.templ; `templ generate` rewrites this file.

package templates

import "github.com/a-h/templ"

// CatalogImportContent renders the upload form and the last result.
func CatalogImportContent(data CatalogImportData) templ.Component {
	return component(func(h *html) {
		h.rawf(`<h1 class="text-2xl font-bold mb-2">Import %s</h1>`, data.Title)
		h.raw(`<p class="text-sm mb-4">Columns: `)
		for i, c := range data.Columns {
			if i > 0 {
				h.raw(", ")
			}
			h.text(c)
		}
		h.rawf(` · <a class="link" href="%s/template">Download template</a></p>`, data.baseURL())

		h.raw(`<form method="post" enctype="multipart/form-data" class="flex gap-2 mb-4"`)
		h.attr("action", data.baseURL())
		h.raw(`><input type="file" name="file" accept=".csv,.xlsx" class="file-input file-input-bordered file-input-sm">`)
		h.raw(`<button class="btn btn-sm btn-primary">Upload</button></form>`)

		if data.Imported {
			h.rawf(`<div class="alert alert-success" data-import-result>Imported %s: %s created, %s updated.</div>`,
				data.FileName, itoa(data.Created), itoa(data.Updated))
		}
		if len(data.Errors) == 0 {
			return
		}
		h.rawf(`<div class="alert alert-warning mb-2">%s of %s rows in %s have errors. Nothing was imported.</div>`,
			itoa(data.ErrorRows), itoa(data.TotalRows), data.FileName)
		h.raw(`<form method="post"`)
		h.attr("action", data.baseURL()+"/errors")
		h.raw(`><input type="hidden" name="errors"`)
		h.attr("value", data.errorsJSON())
		h.raw(`><button class="btn btn-xs">Download error report</button></form>`)
		h.raw(`<table class="table table-xs"><thead><tr><th>Row</th><th>Field</th><th>Error</th></tr></thead><tbody>`)
		for _, e := range data.Errors {
			h.rawf(`<tr><td>%s</td><td>%s</td><td>%s</td></tr>`, itoa(e.Row), e.Field, e.Message)
		}
		h.raw(`</tbody></table>`)
	})
}

// CatalogImportPage renders the import screen inside the shell.
func CatalogImportPage(data CatalogImportData, header HeaderData, sidebar SidebarData) templ.Component {
	return Page("Import "+data.Title, header, sidebar, CatalogImportContent(data))
}
