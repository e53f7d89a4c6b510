package services

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"

	"offerdesk/lineitems"
)

func envSummary() lineitems.GroupSummary {
	return lineitems.GroupSummary{
		Code:  "ENV-01",
		Attrs: lineitems.GroupAttrs{Name: "Production", Category: "production", Reference: "saas", DurationMonths: 12},
		Items: []lineitems.ItemSummary{
			{Selection: lineitems.Selection{"App Server", "Shared", "Small"}, Quantity: 3, UnitRate: 100, TotalPrice: 300},
		},
		MonthlyTotal: 300,
		GrandTotal:   3600,
	}
}

func svcSummary() lineitems.GroupSummary {
	return lineitems.GroupSummary{
		Code:  "SRV-01",
		Attrs: lineitems.GroupAttrs{Name: "Rollout", Category: "implementation", DurationMonths: 1},
		Items: []lineitems.ItemSummary{
			{Selection: lineitems.Selection{"Integration"}, Quantity: 10, UnitRate: 500, Markup: 20, TotalPrice: 6000},
		},
		MonthlyTotal: 6000,
		GrandTotal:   6000,
	}
}

func TestBuildOfferExport(t *testing.T) {
	data := sampleOfferExport()

	if len(data.Environments) != 2 {
		t.Fatalf("expected 2 environment rows, got %d", len(data.Environments))
	}
	group, item := data.Environments[0], data.Environments[1]
	if group.Level != 0 || group.Index != "ENV-01" || group.Total != 3600 || group.Monthly != 300 {
		t.Errorf("unexpected group row %+v", group)
	}
	if group.Detail != "Production, Saas, 12 months" {
		t.Errorf("group detail = %q", group.Detail)
	}
	if item.Level != 1 || item.Index != "ENV-01.1" || item.Description != "App Server / Shared / Small" {
		t.Errorf("unexpected item row %+v", item)
	}
	if data.Services[1].Detail != "20% markup" {
		t.Errorf("service detail = %q", data.Services[1].Detail)
	}
	if data.Revenue.TCV != 9600 {
		t.Errorf("TCV = %v, want 9600", data.Revenue.TCV)
	}
}

func TestGenerateOfferExcel(t *testing.T) {
	result, err := GenerateOfferExcel(sampleOfferExport())
	if err != nil {
		t.Fatalf("GenerateOfferExcel() error = %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(result))
	if err != nil {
		t.Fatalf("result is not valid Excel: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 || sheets[0] != "OFF-26-0003" {
		t.Fatalf("expected sheet OFF-26-0003, got %v", sheets)
	}
	title, _ := f.GetCellValue(sheets[0], "A1")
	if title != "Platform rollout" {
		t.Errorf("title = %q", title)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	found := map[string]bool{}
	for _, r := range rows {
		for _, c := range r {
			found[c] = true
		}
	}
	for _, want := range []string{"Environments", "Services", "ENV-01.1", "SRV-01", "€3,600", "€6,000", "€9,600"} {
		if !found[want] {
			t.Errorf("expected cell %q in sheet", want)
		}
	}
}

func TestGenerateTableExcel(t *testing.T) {
	result, err := GenerateTableExcel(TableExport{
		Title:   "Customers",
		Headers: []string{"Name", "Email"},
		Rows:    [][]string{{"Northwind", "it@northwind.example"}, {"=HYPERLINK(\"x\")", ""}},
	})
	if err != nil {
		t.Fatalf("GenerateTableExcel() error = %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(result))
	if err != nil {
		t.Fatalf("result is not valid Excel: %v", err)
	}
	defer f.Close()

	if v, _ := f.GetCellValue("Customers", "A1"); v != "Name" {
		t.Errorf("A1 = %q, want Name", v)
	}
	if v, _ := f.GetCellValue("Customers", "B2"); v != "it@northwind.example" {
		t.Errorf("B2 = %q", v)
	}
	if v, _ := f.GetCellValue("Customers", "A3"); v != "'=HYPERLINK(\"x\")" {
		t.Errorf("A3 = %q, want sanitized formula", v)
	}
}

func TestSanitizeExcelCell(t *testing.T) {
	tests := map[string]string{
		"":        "",
		"plain":   "plain",
		"=SUM(1)": "'=SUM(1)",
		"+1":      "'+1",
		"-1":      "'-1",
		"@cmd":    "'@cmd",
	}
	for in, want := range tests {
		if got := sanitizeExcelCell(in); got != want {
			t.Errorf("sanitizeExcelCell(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSheetName(t *testing.T) {
	if got := sheetName("", "Offer"); got != "Offer" {
		t.Errorf("sheetName(empty) = %q", got)
	}
	long := "An offer title that is much longer than thirty-one characters"
	if got := sheetName(long, "Offer"); len(got) != 31 {
		t.Errorf("sheetName(long) has length %d", len(got))
	}
}
