package services

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

type offerSheetStyles struct {
	title, subtitle, header, group, item, label, value int
}

func newOfferSheetStyles(f *excelize.File) (offerSheetStyles, error) {
	var s offerSheetStyles
	defs := []struct {
		dst   *int
		name  string
		style *excelize.Style
	}{
		{&s.title, "title", &excelize.Style{Font: &excelize.Font{Bold: true, Size: 16}}},
		{&s.subtitle, "subtitle", &excelize.Style{Font: &excelize.Font{Size: 11}}},
		{&s.header, "header", &excelize.Style{
			Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
			Fill:      excelize.Fill{Type: "pattern", Color: []string{"#333333"}, Pattern: 1},
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
			Border:    thinBorders(),
		}},
		{&s.group, "group", &excelize.Style{Font: &excelize.Font{Bold: true, Size: 10}, Border: thinBorders()}},
		{&s.item, "item", &excelize.Style{Font: &excelize.Font{Size: 10}, Border: thinBorders()}},
		{&s.label, "summary label", &excelize.Style{
			Font:      &excelize.Font{Bold: true, Size: 11},
			Alignment: &excelize.Alignment{Horizontal: "right"},
		}},
		{&s.value, "summary value", &excelize.Style{Font: &excelize.Font{Bold: true, Size: 11}}},
	}
	for _, d := range defs {
		id, err := f.NewStyle(d.style)
		if err != nil {
			return s, fmt.Errorf("create %s style: %w", d.name, err)
		}
		*d.dst = id
	}
	return s, nil
}

var offerColumns = []string{"A", "B", "C", "D", "E", "F", "G"}

// GenerateOfferExcel renders an offer as a spreadsheet with one section
// for environments, one for service sets and a revenue summary.
func GenerateOfferExcel(data OfferExport) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := sheetName(data.OfferNumber, "Offer")
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, fmt.Errorf("set sheet name: %w", err)
	}
	lastCol := offerColumns[len(offerColumns)-1]

	widths := []float64{12, 40, 28, 8, 14, 14, 16}
	for i, col := range offerColumns {
		if err := f.SetColWidth(sheet, col, col, widths[i]); err != nil {
			return nil, fmt.Errorf("set col width %s: %w", col, err)
		}
	}

	st, err := newOfferSheetStyles(f)
	if err != nil {
		return nil, err
	}

	if err := f.MergeCell(sheet, "A1", lastCol+"1"); err != nil {
		return nil, fmt.Errorf("merge title: %w", err)
	}
	f.SetCellValue(sheet, "A1", sanitizeExcelCell(data.Title))
	f.SetCellStyle(sheet, "A1", lastCol+"1", st.title)

	subtitles := []string{
		"Offer: " + data.OfferNumber,
		"Customer: " + sanitizeExcelCell(data.Customer),
		"Date: " + data.CreatedDate,
	}
	if data.ValidUntil != "" {
		subtitles = append(subtitles, "Valid until: "+data.ValidUntil)
	}
	row := 2
	for _, s := range subtitles {
		cell := fmt.Sprintf("A%d", row)
		f.SetCellValue(sheet, cell, s)
		f.SetCellStyle(sheet, cell, fmt.Sprintf("%s%d", lastCol, row), st.subtitle)
		row++
	}
	row++

	sections := []struct {
		title   string
		headers []string
		rows    []ExportRow
	}{
		{"Environments", []string{"#", "Description", "Details", "Qty", "Unit/month", "Monthly", "Total"}, data.Environments},
		{"Services", []string{"#", "Description", "Markup", "Mandays", "Manday rate", "", "Total"}, data.Services},
	}
	for _, sec := range sections {
		if len(sec.rows) == 0 {
			continue
		}
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), sec.title)
		f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("A%d", row), st.value)
		row++
		for i, h := range sec.headers {
			f.SetCellValue(sheet, fmt.Sprintf("%s%d", offerColumns[i], row), h)
		}
		f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("%s%d", lastCol, row), st.header)
		row++

		for _, r := range sec.rows {
			rs := fmt.Sprintf("%d", row)
			f.SetCellValue(sheet, "A"+rs, r.Index)
			desc := r.Description
			if r.Level == 1 {
				desc = "  " + desc
			}
			f.SetCellValue(sheet, "B"+rs, sanitizeExcelCell(desc))
			f.SetCellValue(sheet, "C"+rs, sanitizeExcelCell(r.Detail))
			style := st.group
			if r.Level == 1 {
				style = st.item
				f.SetCellValue(sheet, "D"+rs, r.Qty)
				f.SetCellValue(sheet, "E"+rs, FormatMoney(r.UnitRate, data.Currency))
			} else if r.Monthly > 0 {
				f.SetCellValue(sheet, "F"+rs, FormatMoney(r.Monthly, data.Currency))
			}
			f.SetCellValue(sheet, "G"+rs, FormatMoney(r.Total, data.Currency))
			f.SetCellStyle(sheet, "A"+rs, lastCol+rs, style)
			row++
		}
		row++
	}

	summary := []struct {
		label string
		value string
	}{
		{"MRR:", FormatMoney(data.Revenue.MRR, data.Currency)},
		{"License TCV:", FormatMoney(data.Revenue.LicenseTCV, data.Currency)},
		{"Services:", FormatMoney(data.Revenue.ServiceRevenue, data.Currency)},
		{"Total contract value:", FormatMoney(data.Revenue.TCV, data.Currency)},
	}
	for _, s := range summary {
		rs := fmt.Sprintf("%d", row)
		f.SetCellValue(sheet, "F"+rs, s.label)
		f.SetCellStyle(sheet, "F"+rs, "F"+rs, st.label)
		f.SetCellValue(sheet, "G"+rs, s.value)
		f.SetCellStyle(sheet, "G"+rs, "G"+rs, st.value)
		row++
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write excel: %w", err)
	}
	return buf.Bytes(), nil
}

// GenerateTableExcel writes a generic list export with a styled header row.
func GenerateTableExcel(data TableExport) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := sheetName(data.Title, "Export")
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, fmt.Errorf("set sheet name: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"#333333"}, Pattern: 1},
		Border: thinBorders(),
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	for i, h := range data.Headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, headerStyle)
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, col, col, 20)
	}
	for r, cells := range data.Rows {
		for c, v := range cells {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return nil, err
			}
			f.SetCellValue(sheet, cell, sanitizeExcelCell(v))
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write excel: %w", err)
	}
	return buf.Bytes(), nil
}

// sheetName truncates to Excel's 31 character limit.
func sheetName(name, fallback string) string {
	if name == "" {
		return fallback
	}
	if len(name) > 31 {
		return name[:31]
	}
	return name
}

// sanitizeExcelCell prevents formula injection by prefixing dangerous leading
// characters with a single quote.
func sanitizeExcelCell(s string) string {
	if len(s) == 0 {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r', '|':
		return "'" + s
	}
	return s
}

// thinBorders returns thin borders on all four sides.
func thinBorders() []excelize.Border {
	sides := []string{"left", "top", "bottom", "right"}
	borders := make([]excelize.Border, len(sides))
	for i, side := range sides {
		borders[i] = excelize.Border{Type: side, Color: "#000000", Style: 1}
	}
	return borders
}
