package services

import (
	"testing"

	"offerdesk/lineitems"
)

func sampleOfferExport() OfferExport {
	lines := OfferLines{
		Environments: []lineitems.GroupSummary{envSummary()},
		ServiceSets:  []lineitems.GroupSummary{svcSummary()},
	}
	rev := CalcOfferRevenue(lines.Environments, lines.ServiceSets, nil)
	return BuildOfferExport(OfferExport{
		Title:       "Platform rollout",
		OfferNumber: "OFF-26-0003",
		Customer:    "Northwind Logistics",
		Status:      "sent",
		CreatedDate: "15 Jan 2026",
		ValidUntil:  "15 Feb 2026",
		Currency:    "€",
	}, lines, rev)
}

func TestGenerateOfferPDF(t *testing.T) {
	result, err := GenerateOfferPDF(sampleOfferExport())
	if err != nil {
		t.Fatalf("GenerateOfferPDF() error = %v", err)
	}
	if len(result) < 5 || string(result[:5]) != "%PDF-" {
		t.Fatalf("result does not start with PDF header")
	}
}

func TestGenerateOfferPDF_NoLines(t *testing.T) {
	result, err := GenerateOfferPDF(OfferExport{Title: "Empty offer", OfferNumber: "OFF-26-0004", Currency: "€"})
	if err != nil {
		t.Fatalf("GenerateOfferPDF() error = %v", err)
	}
	if len(result) == 0 {
		t.Fatal("GenerateOfferPDF() returned empty bytes")
	}
}
