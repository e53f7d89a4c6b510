package services

import "testing"

func TestFormatMoney_Values(t *testing.T) {
	tests := []struct {
		name   string
		input  float64
		expect string
	}{
		{"zero", 0, "€0"},
		{"small integer", 5, "€5"},
		{"rounds up", 42.01, "€43"},
		{"float residue", 500 * 10 * 1.2, "€6,000"},
		{"hundreds", 999.99, "€1,000"},
		{"thousands", 1234, "€1,234"},
		{"millions", 1234567, "€1,234,567"},
		{"exact thousands boundary", 1000, "€1,000"},
		{"negative", -2500, "-€2,500"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatMoney(tt.input, "€")
			if got != tt.expect {
				t.Errorf("FormatMoney(%v) = %q, want %q", tt.input, got, tt.expect)
			}
		})
	}
}

func TestGroupThousands(t *testing.T) {
	tests := map[string]string{
		"1":          "1",
		"123":        "123",
		"1234":       "1,234",
		"123456":     "123,456",
		"1234567890": "1,234,567,890",
	}
	for in, want := range tests {
		if got := groupThousands(in); got != want {
			t.Errorf("groupThousands(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatQtyAndPercent(t *testing.T) {
	if got := FormatQty(3); got != "3" {
		t.Errorf("FormatQty(3) = %q", got)
	}
	if got := FormatQty(2.5); got != "2.50" {
		t.Errorf("FormatQty(2.5) = %q", got)
	}
	if got := FormatPercent(20); got != "20%" {
		t.Errorf("FormatPercent(20) = %q", got)
	}
	if got := FormatPercent(12.5); got != "12.5%" {
		t.Errorf("FormatPercent(12.5) = %q", got)
	}
	if got := Humanize("on_premise"); got != "On premise" {
		t.Errorf("Humanize = %q", got)
	}
}
