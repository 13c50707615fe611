package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
)

func testPolicy() Policy {
	return Policy{
		FlatFee:   decimal.NewFromInt(5),
		FreeAbove: decimal.NewFromInt(50),
	}
}

func TestLineTotalWithServices(t *testing.T) {
	line := Line{
		UnitPrice:     decimal.NewFromInt(5),
		ServicePrices: []decimal.Decimal{decimal.NewFromInt(2)},
		Quantity:      1,
	}
	if got := LineTotal(line); !got.Equal(decimal.NewFromInt(7)) {
		t.Fatalf("expected 7, got %s", got)
	}
}

func TestLineTotalZeroQuantity(t *testing.T) {
	line := Line{UnitPrice: decimal.NewFromInt(10), Quantity: 0}
	if got := LineTotal(line); !got.IsZero() {
		t.Fatalf("expected zero for quantity 0, got %s", got)
	}
}

func TestComputeTotalsHappyPathScenario(t *testing.T) {
	// 2 units at 10, plus 1 unit at 5 with a 2-priced add-on: subtotal 27,
	// flat 5 shipping below the 50 threshold, total 32.
	lines := []Line{
		{UnitPrice: decimal.NewFromInt(10), Quantity: 2},
		{UnitPrice: decimal.NewFromInt(5), ServicePrices: []decimal.Decimal{decimal.NewFromInt(2)}, Quantity: 1},
	}

	totals := ComputeTotals(lines, testPolicy())
	if !totals.Subtotal.Equal(decimal.NewFromInt(27)) {
		t.Fatalf("expected subtotal 27, got %s", totals.Subtotal)
	}
	if !totals.ShippingCost.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("expected shipping 5, got %s", totals.ShippingCost)
	}
	if !totals.Total.Equal(decimal.NewFromInt(32)) {
		t.Fatalf("expected total 32, got %s", totals.Total)
	}
}

func TestShippingFreeAboveThreshold(t *testing.T) {
	policy := testPolicy()
	if got := ShippingCost(decimal.NewFromInt(50), policy); !got.IsZero() {
		t.Fatalf("expected free shipping at threshold, got %s", got)
	}
	if got := ShippingCost(decimal.NewFromInt(49), policy); !got.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("expected flat fee below threshold, got %s", got)
	}
}

func TestShippingEmptyCartCostsNothing(t *testing.T) {
	if got := ShippingCost(decimal.Zero, testPolicy()); !got.IsZero() {
		t.Fatalf("expected zero shipping for empty cart, got %s", got)
	}
}

func TestTotalEqualsSubtotalPlusShipping(t *testing.T) {
	lines := []Line{
		{UnitPrice: decimal.RequireFromString("3.33"), Quantity: 3},
		{UnitPrice: decimal.RequireFromString("0.07"), Quantity: 7},
	}
	totals := ComputeTotals(lines, testPolicy())
	if !totals.Total.Equal(totals.Subtotal.Add(totals.ShippingCost)) {
		t.Fatalf("total %s != subtotal %s + shipping %s", totals.Total, totals.Subtotal, totals.ShippingCost)
	}
}

func TestSubtotalEqualsSumOfDisplayedLineTotals(t *testing.T) {
	// Each displayed line total is rounded to the cent; the subtotal sums the
	// rounded figures so the screen always adds up.
	lines := []Line{
		{UnitPrice: decimal.RequireFromString("1.005"), Quantity: 1},
		{UnitPrice: decimal.RequireFromString("2.004"), Quantity: 1},
	}
	displayed := decimal.Zero
	for _, line := range lines {
		displayed = displayed.Add(LineTotal(line))
	}
	if got := Subtotal(lines); !got.Equal(displayed) {
		t.Fatalf("subtotal %s != sum of displayed line totals %s", got, displayed)
	}
}
