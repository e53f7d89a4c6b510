package services

import (
	"testing"
	"time"

	"offerdesk/testhelpers"
)

func TestFormatDocNumber(t *testing.T) {
	tests := []struct {
		prefix string
		year   int
		seq    int
		expect string
	}{
		{"OFF", 2026, 1, "OFF-26-0001"},
		{"OFF", 2026, 42, "OFF-26-0042"},
		{"CTR", 2030, 12345, "CTR-30-12345"},
		{"OFF", 2000, 7, "OFF-00-0007"},
	}
	for _, tt := range tests {
		got := formatDocNumber(tt.prefix, tt.year, tt.seq)
		if got != tt.expect {
			t.Errorf("formatDocNumber(%q, %d, %d) = %q, want %q", tt.prefix, tt.year, tt.seq, got, tt.expect)
		}
	}
}

func TestGenerateOfferNumber(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	now := time.Date(2026, time.March, 3, 10, 0, 0, 0, time.UTC)

	got, err := GenerateOfferNumber(app, now)
	if err != nil {
		t.Fatalf("GenerateOfferNumber() error: %v", err)
	}
	if got != "OFF-26-0001" {
		t.Errorf("first number = %q, want OFF-26-0001", got)
	}

	cust := testhelpers.CreateTestCustomer(t, app, "Numbering Co")
	testhelpers.CreateTestOffer(t, app, cust.Id, "OFF-26-0001", "draft")
	testhelpers.CreateTestOffer(t, app, cust.Id, "OFF-26-0007", "sent")
	testhelpers.CreateTestOffer(t, app, cust.Id, "OFF-25-0099", "sent")

	got, err = GenerateOfferNumber(app, now)
	if err != nil {
		t.Fatalf("GenerateOfferNumber() error: %v", err)
	}
	if got != "OFF-26-0008" {
		t.Errorf("next number = %q, want OFF-26-0008", got)
	}

	got, _ = GenerateOfferNumber(app, now.AddDate(1, 0, 0))
	if got != "OFF-27-0001" {
		t.Errorf("new year number = %q, want OFF-27-0001", got)
	}
}
