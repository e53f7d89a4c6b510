package services

import (
	"fmt"

	"offerdesk/lineitems"
)

// ExportRow is one line of an offer export: a group header (Level 0) or an
// item under it (Level 1).
type ExportRow struct {
	Level       int
	Index       string // "ENV-01", "ENV-01.1"
	Description string
	Detail      string // deployment/type for groups, markup for services
	Qty         float64
	UnitRate    float64
	Monthly     float64
	Total       float64
}

// OfferExport holds everything rendered into an offer PDF or spreadsheet.
type OfferExport struct {
	Title        string
	OfferNumber  string
	Customer     string
	Status       string
	CreatedDate  string
	ValidUntil   string
	Currency     string
	Environments []ExportRow
	Services     []ExportRow
	Revenue      OfferRevenue
}

// BuildOfferExport flattens the saved lines of an offer into export rows.
func BuildOfferExport(header OfferExport, lines OfferLines, rev OfferRevenue) OfferExport {
	header.Revenue = rev
	header.Environments = exportRows(lines.Environments, true, func(g lineitems.GroupSummary) string {
		return fmt.Sprintf("%s, %s, %d months", Humanize(g.Attrs.Category), Humanize(g.Attrs.Reference), g.Attrs.DurationMonths)
	}, func(lineitems.ItemSummary) string { return "" })
	header.Services = exportRows(lines.ServiceSets, false, func(g lineitems.GroupSummary) string {
		return Humanize(g.Attrs.Category)
	}, func(it lineitems.ItemSummary) string {
		if it.Markup == 0 {
			return ""
		}
		return FormatPercent(it.Markup) + " markup"
	})
	return header
}

func exportRows(groups []lineitems.GroupSummary, monthly bool, groupDetail func(lineitems.GroupSummary) string, itemDetail func(lineitems.ItemSummary) string) []ExportRow {
	var rows []ExportRow
	for _, g := range groups {
		rows = append(rows, ExportRow{
			Level:       0,
			Index:       g.Code,
			Description: g.Attrs.Name,
			Detail:      groupDetail(g),
			Total:       g.GrandTotal,
		})
		if monthly {
			rows[len(rows)-1].Monthly = g.MonthlyTotal
		}
		for i, it := range g.Items {
			rows = append(rows, ExportRow{
				Level:       1,
				Index:       fmt.Sprintf("%s.%d", g.Code, i+1),
				Description: it.Selection.String(),
				Detail:      itemDetail(it),
				Qty:         it.Quantity,
				UnitRate:    it.UnitRate,
				Total:       it.TotalPrice,
			})
		}
	}
	return rows
}

// TableExport is a generic list export: a header row and string cells.
type TableExport struct {
	Title   string
	Headers []string
	Rows    [][]string
}
