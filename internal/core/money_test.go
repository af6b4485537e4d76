package core

import (
	"encoding/json"
	"testing"
)

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{" 2.50 ", 250, true},
		{"-1", 0, false},
		{"0", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestMoneyJSON(t *testing.T) {
	b, err := json.Marshal(Money{Cents: 123450})
	if err != nil || string(b) != "1234.5" {
		t.Fatalf("unexpected marshal: %s (err=%v)", b, err)
	}
	var m Money
	if err := json.Unmarshal([]byte("99.999"), &m); err != nil || m.Cents != 10000 {
		t.Fatalf("unexpected unmarshal: %d (err=%v)", m.Cents, err)
	}
	if err := json.Unmarshal([]byte("-250"), &m); err != nil || m.Cents != -25000 {
		t.Fatalf("negative amounts must decode, got %d (err=%v)", m.Cents, err)
	}
}

func TestFormatCurrency(t *testing.T) {
	if got := FormatCurrency(Rupees(500), 2); got != "₹500.00" {
		t.Fatalf("unexpected: %q", got)
	}
	if got := FormatCurrency(Rupees(12.345), 0); got != "₹12" {
		t.Fatalf("unexpected: %q", got)
	}
}

func TestFormatCurrencyGrouped(t *testing.T) {
	cases := map[int64]string{
		0:          "₹0.00",
		99:         "₹0.99",
		100000:     "₹1,000.00",
		12345678:   "₹1,23,456.78",
		1234567890: "₹1,23,45,678.90",
		-50000:     "-₹500.00",
	}
	for cents, want := range cases {
		if got := FormatCurrencyGrouped(Money{Cents: cents}); got != want {
			t.Fatalf("%d: got %q, want %q", cents, got, want)
		}
	}
}
