package services

import (
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

var (
	pdfGrey      = &props.Color{Red: 80, Green: 80, Blue: 80}
	pdfHeaderBg  = &props.Color{Red: 33, Green: 37, Blue: 41}
	pdfItemBg    = &props.Color{Red: 245, Green: 245, Blue: 245}
	pdfSummaryBg = &props.Color{Red: 240, Green: 240, Blue: 240}
)

// GenerateOfferPDF renders an offer document with maroto.
func GenerateOfferPDF(data OfferExport) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(12).
		WithTopMargin(12).
		WithRightMargin(12).
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
			Size:    7,
			Color:   &props.Color{Red: 120, Green: 120, Blue: 120},
		}).
		Build()

	m := maroto.New(cfg)

	addOfferHeader(m, data)
	if len(data.Environments) > 0 {
		addSectionTitle(m, "Environments")
		addLinesHeader(m, "Qty", "Unit/month")
		for _, r := range data.Environments {
			addLineRow(m, r, data.Currency)
		}
	}
	if len(data.Services) > 0 {
		addSectionTitle(m, "Services")
		addLinesHeader(m, "Mandays", "Rate")
		for _, r := range data.Services {
			addLineRow(m, r, data.Currency)
		}
	}
	addRevenueSummary(m, data)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return doc.GetBytes(), nil
}

func addOfferHeader(m core.Maroto, data OfferExport) {
	m.AddRows(
		row.New(12).Add(
			col.New(12).Add(text.New(data.Title, props.Text{Size: 16, Style: fontstyle.Bold, Align: align.Center})),
		),
		row.New(6).Add(
			col.New(6).Add(text.New("Offer: "+data.OfferNumber, props.Text{Size: 9, Color: pdfGrey})),
			col.New(6).Add(text.New("Date: "+data.CreatedDate, props.Text{Size: 9, Align: align.Right, Color: pdfGrey})),
		),
	)
	validity := ""
	if data.ValidUntil != "" {
		validity = "Valid until: " + data.ValidUntil
	}
	m.AddRows(
		row.New(6).Add(
			col.New(6).Add(text.New("Customer: "+data.Customer, props.Text{Size: 9, Color: pdfGrey})),
			col.New(6).Add(text.New(validity, props.Text{Size: 9, Align: align.Right, Color: pdfGrey})),
		),
		row.New(4),
	)
}

func addSectionTitle(m core.Maroto, title string) {
	m.AddRows(
		row.New(9).Add(col.New(12).Add(text.New(title, props.Text{Size: 11, Style: fontstyle.Bold, Top: 2}))),
	)
}

func addLinesHeader(m core.Maroto, qtyLabel, rateLabel string) {
	headerText := props.Text{Size: 8, Style: fontstyle.Bold, Align: align.Center, Color: &props.Color{Red: 255, Green: 255, Blue: 255}}
	left := headerText
	left.Align = align.Left
	cell := &props.Cell{BackgroundColor: pdfHeaderBg}

	m.AddRows(
		row.New(8).Add(
			col.New(2).Add(text.New("#", headerText)).WithStyle(cell),
			col.New(4).Add(text.New("Description", left)).WithStyle(cell),
			col.New(1).Add(text.New(qtyLabel, headerText)).WithStyle(cell),
			col.New(2).Add(text.New(rateLabel, headerText)).WithStyle(cell),
			col.New(3).Add(text.New("Total", headerText)).WithStyle(cell),
		),
	)
}

func addLineRow(m core.Maroto, r ExportRow, currency string) {
	base := props.Text{Size: 7, Align: align.Center}
	desc := r.Description
	if r.Detail != "" {
		desc += " (" + r.Detail + ")"
	}
	qty, rate := "", ""
	var cellStyle *props.Cell
	if r.Level == 0 {
		base.Style = fontstyle.Bold
		base.Size = 8
	} else {
		desc = "  " + desc
		qty = FormatQty(r.Qty)
		rate = FormatMoney(r.UnitRate, currency)
		cellStyle = &props.Cell{BackgroundColor: pdfItemBg}
	}
	left, right := base, base
	left.Align = align.Left
	right.Align = align.Right

	cols := []core.Col{
		col.New(2).Add(text.New(r.Index, base)),
		col.New(4).Add(text.New(desc, left)),
		col.New(1).Add(text.New(qty, right)),
		col.New(2).Add(text.New(rate, right)),
		col.New(3).Add(text.New(FormatMoney(r.Total, currency), right)),
	}
	if cellStyle != nil {
		for i := range cols {
			cols[i] = cols[i].WithStyle(cellStyle)
		}
	}
	m.AddRows(row.New(7).Add(cols...))
}

func addRevenueSummary(m core.Maroto, data OfferExport) {
	m.AddRows(row.New(6))

	label := props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}
	cell := &props.Cell{BackgroundColor: pdfSummaryBg}
	lines := []struct {
		label string
		value float64
	}{
		{"Monthly recurring revenue", data.Revenue.MRR},
		{"License total", data.Revenue.LicenseTCV},
		{"Services total", data.Revenue.ServiceRevenue},
		{"Total contract value", data.Revenue.TCV},
	}
	for _, l := range lines {
		m.AddRows(
			row.New(8).Add(
				col.New(8).Add(text.New(l.label, label)).WithStyle(cell),
				col.New(4).Add(text.New(FormatMoney(l.value, data.Currency), label)).WithStyle(cell),
			),
		)
	}
}
