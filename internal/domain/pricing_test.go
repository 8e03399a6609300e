package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestLandedCost(t *testing.T) {
	tests := []struct {
		name                          string
		cost, shipping, customs, rate string
		want                          string
	}{
		{"simple", "100", "20", "5", "1", "125"},
		{"converted", "100", "20", "5", "1.1", "137.5"},
		{"zero extras", "88.88", "0", "0", "1", "88.88"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LandedCost(dec(tt.cost), dec(tt.shipping), dec(tt.customs), dec(tt.rate))
			if !got.Equal(dec(tt.want)) {
				t.Errorf("LandedCost = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestCalculateMargin(t *testing.T) {
	tests := []struct {
		name       string
		price      string
		totalCost  string
		wantAmount string
		wantPct    int64
	}{
		{"half margin", "200", "100", "100", 50},
		{"rounded cents", "99.99", "66.666", "33.32", 33},
		{"loss", "80", "100", "-20", -25},
		{"zero price", "0", "10", "-10", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateMargin(dec(tt.price), dec(tt.totalCost))
			if !got.Amount.Equal(dec(tt.wantAmount)) {
				t.Errorf("amount = %s, want %s", got.Amount, tt.wantAmount)
			}
			if got.Percentage != tt.wantPct {
				t.Errorf("percentage = %d, want %d", got.Percentage, tt.wantPct)
			}
		})
	}
}
