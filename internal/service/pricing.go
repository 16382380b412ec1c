package service

import "github.com/shopspring/decimal"

// Pricing holds the quote parameters. Amounts are integer minor currency units.
type Pricing struct {
	PricePerPage int64
	DuplexFactor float64
}

// PriceLine is one document in a quote.
type PriceLine struct {
	Pages  int
	Copies int
}

// Total computes Σ pages×copies×pricePerPage. For duplex orders the sum is multiplied
// by DuplexFactor once and rounded half-up to a whole minor unit.
func (p Pricing) Total(lines []PriceLine, duplex bool) int64 {
	var sum int64
	for _, l := range lines {
		sum += int64(l.Pages) * int64(l.Copies) * p.PricePerPage
	}
	if !duplex {
		return sum
	}
	return decimal.NewFromInt(sum).
		Mul(decimal.NewFromFloat(p.DuplexFactor)).
		Round(0).
		IntPart()
}
