package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestFormatPrice(t *testing.T) {
	tests := []struct {
		name  string
		price string
		want  string
	}{
		{"zero", "0", "0.0000"},
		{"sub dollar", "0.0514", "0.0514"},
		{"rounds to four", "0.123456", "0.1235"},
		{"below ten", "9.87654", "9.8765"},
		{"exactly ten", "10", "10.000"},
		{"tens", "12.345", "12.345"},
		{"tens rounding", "12.3456", "12.346"},
		{"exactly hundred", "100", "100.00"},
		{"thousands", "3456.789", "3,456.79"},
		{"just below ten thousand", "9999.994", "9,999.99"},
		{"exactly ten thousand", "10000", "10,000.0"},
		{"btc", "67890.12", "67,890.1"},
		{"millions", "1234567.89", "1,234,567.9"},
		{"bucket by input not output", "9.99995", "10.0000"},
		{"max int64", "9223372036854775807", "9,223,372,036,854,775,807.0"},
		{"beyond int64", "123456789012345678901234.5", "123,456,789,012,345,678,901,234.5"},
		{"negative", "-1234.5", "-1,234.5000"},
		{"negative below one", "-0.5", "-0.5000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatPrice(decimal.RequireFromString(tt.price))
			if got != tt.want {
				t.Errorf("FormatPrice(%s) = %q, want %q", tt.price, got, tt.want)
			}
		})
	}
}

func TestFormatPriceDeterministic(t *testing.T) {
	p := decimal.RequireFromString("3456.789")
	first := FormatPrice(p)
	for i := 0; i < 100; i++ {
		if got := FormatPrice(p); got != first {
			t.Fatalf("FormatPrice not deterministic: %q vs %q", got, first)
		}
	}
}

func TestPricePlacesBoundaries(t *testing.T) {
	tests := []struct {
		price string
		want  int32
	}{
		{"9.9999", 4},
		{"10", 3},
		{"99.999", 3},
		{"100", 2},
		{"9999.99", 2},
		{"10000", 1},
	}
	for _, tt := range tests {
		if got := PricePlaces(decimal.RequireFromString(tt.price)); got != tt.want {
			t.Errorf("PricePlaces(%s) = %d, want %d", tt.price, got, tt.want)
		}
	}
}

func TestFormatChange(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1.50", "+1.50%"},
		{"0", "+0.00%"},
		{"-2.345", "-2.35%"},
		{"12.3", "+12.30%"},
	}
	for _, tt := range tests {
		if got := FormatChange(decimal.RequireFromString(tt.in)); got != tt.want {
			t.Errorf("FormatChange(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
