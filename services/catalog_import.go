package services

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"github.com/spf13/cast"
	"github.com/xuri/excelize/v2"

	"offerdesk/lineitems"
)

// ImportError is a single field-level problem on one uploaded row.
type ImportError struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ImportColumn is one column of a catalog import file.
type ImportColumn struct {
	Key      string
	Label    string
	Required bool
	Numeric  bool
}

// ImportResult is returned after parsing and validating an uploaded file.
type ImportResult struct {
	TotalRows  int                 `json:"total_rows"`
	ValidRows  int                 `json:"valid_rows"`
	ErrorRows  int                 `json:"error_rows"`
	Errors     []ImportError       `json:"errors"`
	ParsedRows []map[string]string `json:"-"`
	FileName   string              `json:"-"`
}

// ImportSummary counts what an import changed.
type ImportSummary struct {
	Created int
	Updated int
}

var errNoDataRows = errors.New("file must contain a header row and at least one data row")

// CatalogColumns returns the import columns for a kind's catalog: its
// facets, its rate and the service-only extras.
func CatalogColumns(kind *lineitems.Kind) []ImportColumn {
	var cols []ImportColumn
	for _, f := range kind.Facets {
		cols = append(cols, ImportColumn{Key: f, Label: Humanize(f), Required: true})
	}
	cols = append(cols, ImportColumn{Key: kind.RateField, Label: Humanize(kind.RateField), Required: true, Numeric: true})
	if kind.CatalogTable == "service_catalog" {
		cols = append(cols,
			ImportColumn{Key: "category", Label: "Category"},
			ImportColumn{Key: "cost_rate", Label: "Cost rate", Numeric: true},
		)
	}
	return cols
}

// CatalogKind resolves a catalog name as used by the import screen and CLI.
func CatalogKind(name string) (*lineitems.Kind, bool) {
	switch name {
	case "licenses", lineitems.Environments.CatalogTable:
		return lineitems.Environments, true
	case "services", lineitems.ServiceSets.CatalogTable:
		return lineitems.ServiceSets, true
	}
	return nil, false
}

func parseCSV(file io.Reader) ([]string, [][]string, error) {
	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true

	allRows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(allRows) < 2 {
		return nil, nil, errNoDataRows
	}
	return allRows[0], allRows[1:], nil
}

func parseExcel(file io.Reader) ([]string, [][]string, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read sheet: %w", err)
	}
	if len(rows) < 2 {
		return nil, nil, errNoDataRows
	}
	return rows[0], rows[1:], nil
}

// mapHeaders maps file headers to column keys by label or key, case
// insensitively. Unknown headers map to "".
func mapHeaders(headers []string, cols []ImportColumn) ([]string, []string) {
	lookup := make(map[string]string, 2*len(cols))
	for _, c := range cols {
		lookup[strings.ToLower(c.Label)] = c.Key
		lookup[strings.ToLower(c.Key)] = c.Key
	}
	mapped := make([]string, len(headers))
	var unrecognized []string
	for i, h := range headers {
		norm := strings.TrimSpace(strings.TrimSuffix(strings.ToLower(strings.TrimSpace(h)), " *"))
		if key, ok := lookup[norm]; ok {
			mapped[i] = key
		} else {
			unrecognized = append(unrecognized, h)
		}
	}
	return mapped, unrecognized
}

// ParseCatalogFile reads a .csv or .xlsx catalog upload and validates each row.
func ParseCatalogFile(kind *lineitems.Kind, file io.Reader, fileName string) (*ImportResult, error) {
	var headers []string
	var dataRows [][]string
	var err error

	switch lower := strings.ToLower(fileName); {
	case strings.HasSuffix(lower, ".csv"):
		headers, dataRows, err = parseCSV(file)
	case strings.HasSuffix(lower, ".xlsx"):
		headers, dataRows, err = parseExcel(file)
	default:
		return nil, fmt.Errorf("unsupported file format: must be .csv or .xlsx")
	}
	if err != nil {
		return nil, err
	}

	cols := CatalogColumns(kind)
	keys, _ := mapHeaders(headers, cols)

	result := &ImportResult{
		TotalRows:  len(dataRows),
		FileName:   fileName,
		ParsedRows: make([]map[string]string, 0, len(dataRows)),
	}
	seen := map[string]int{}
	errorRows := map[int]bool{}

	for i, raw := range dataRows {
		rowNum := i + 2
		row := make(map[string]string, len(cols))
		for c, key := range keys {
			if key != "" && c < len(raw) {
				row[key] = strings.TrimSpace(raw[c])
			}
		}

		var rowErrs []ImportError
		for _, c := range cols {
			v := row[c.Key]
			switch {
			case v == "" && c.Required:
				rowErrs = append(rowErrs, ImportError{Row: rowNum, Field: c.Label, Message: c.Label + " is required"})
			case v != "" && c.Numeric:
				n, err := cast.ToFloat64E(v)
				if err != nil || n < 0 {
					rowErrs = append(rowErrs, ImportError{Row: rowNum, Field: c.Label, Message: c.Label + " must be a number of zero or greater"})
				}
			}
		}

		key := catalogKey(kind, row).Key()
		if first, dup := seen[key]; dup && len(rowErrs) == 0 {
			rowErrs = append(rowErrs, ImportError{
				Row: rowNum, Field: Humanize(kind.Facets[0]),
				Message: fmt.Sprintf("duplicates row %d", first),
			})
		} else if !dup {
			seen[key] = rowNum
		}

		if len(rowErrs) > 0 {
			result.Errors = append(result.Errors, rowErrs...)
			errorRows[rowNum] = true
		}
		result.ParsedRows = append(result.ParsedRows, row)
	}
	result.ErrorRows = len(errorRows)
	result.ValidRows = result.TotalRows - result.ErrorRows
	return result, nil
}

func catalogKey(kind *lineitems.Kind, row map[string]string) lineitems.Selection {
	sel := make(lineitems.Selection, len(kind.Facets))
	for i, f := range kind.Facets {
		sel[i] = row[f]
	}
	return sel
}

// ImportCatalog upserts rows into the kind's catalog, matching existing rows
// by their facets. Everything is written in one transaction.
func ImportCatalog(app core.App, kind *lineitems.Kind, rows []map[string]string) (ImportSummary, error) {
	var sum ImportSummary
	cols := CatalogColumns(kind)

	err := app.RunInTransaction(func(txApp core.App) error {
		col, err := txApp.FindCollectionByNameOrId(kind.CatalogTable)
		if err != nil {
			return fmt.Errorf("find %s: %w", kind.CatalogTable, err)
		}
		for i, row := range rows {
			rec, err := txApp.FindFirstRecordByFilter(col, facetFilter(kind), facetParams(kind, row))
			if err != nil {
				rec = core.NewRecord(col)
				sum.Created++
			} else {
				sum.Updated++
			}
			for _, c := range cols {
				v, ok := row[c.Key]
				if !ok {
					continue
				}
				if c.Numeric {
					rec.Set(c.Key, cast.ToFloat64(v))
				} else {
					rec.Set(c.Key, v)
				}
			}
			if err := txApp.Save(rec); err != nil {
				return fmt.Errorf("row %d: %w", i+2, err)
			}
		}
		return nil
	})
	if err != nil {
		return ImportSummary{}, err
	}
	return sum, nil
}

func facetFilter(kind *lineitems.Kind) string {
	parts := make([]string, len(kind.Facets))
	for i, f := range kind.Facets {
		parts[i] = fmt.Sprintf("%s = {:%s}", f, f)
	}
	return strings.Join(parts, " && ")
}

func facetParams(kind *lineitems.Kind, row map[string]string) dbx.Params {
	p := dbx.Params{}
	for _, f := range kind.Facets {
		p[f] = row[f]
	}
	return p
}

// CatalogTemplate returns an empty .xlsx with the import headers for kind.
func CatalogTemplate(kind *lineitems.Kind) ([]byte, error) {
	cols := CatalogColumns(kind)
	headers := make([]string, len(cols))
	for i, c := range cols {
		headers[i] = c.Label
		if c.Required {
			headers[i] += " *"
		}
	}
	return GenerateTableExcel(TableExport{Title: Humanize(kind.CatalogTable), Headers: headers})
}

// GenerateErrorReport creates a downloadable .xlsx file from import errors.
func GenerateErrorReport(errs []ImportError) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Errors"
	f.SetSheetName(f.GetSheetName(0), sheet)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DC2626"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
		Border:    thinBorders(),
	})

	f.SetCellValue(sheet, "A1", "Row #")
	f.SetCellValue(sheet, "B1", "Field")
	f.SetCellValue(sheet, "C1", "Error")
	f.SetCellStyle(sheet, "A1", "C1", headerStyle)
	f.SetColWidth(sheet, "A", "A", 8)
	f.SetColWidth(sheet, "B", "B", 22)
	f.SetColWidth(sheet, "C", "C", 55)

	for i, e := range errs {
		row := fmt.Sprintf("%d", i+2)
		f.SetCellValue(sheet, "A"+row, e.Row)
		f.SetCellValue(sheet, "B"+row, e.Field)
		f.SetCellValue(sheet, "C"+row, e.Message)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write error report: %w", err)
	}
	return buf.Bytes(), nil
}
