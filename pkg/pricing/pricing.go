package pricing

import "github.com/shopspring/decimal"

// Policy maps an order subtotal to a delivery fee. Orders at or above
// FreeAbove ship for free; everything else pays the flat fee.
type Policy struct {
	FlatFee   decimal.Decimal
	FreeAbove decimal.Decimal
}

// Line is the minimal priced view of a cart line: one product price, the
// prices of its selected add-on services, and a quantity.
type Line struct {
	UnitPrice     decimal.Decimal
	ServicePrices []decimal.Decimal
	Quantity      int
}

// Totals bundles the three derived order-level amounts.
type Totals struct {
	Subtotal     decimal.Decimal `json:"subtotal"`
	ShippingCost decimal.Decimal `json:"shipping_cost"`
	Total        decimal.Decimal `json:"total"`
}

// Round applies the single rounding policy for every displayed or persisted
// amount: two decimal places, half up. Rounding happens once per figure;
// totals are sums of already-rounded line totals so the displayed numbers
// always add up.
func Round(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(2)
}

// LineTotal computes (unit price + sum of service prices) x quantity.
func LineTotal(line Line) decimal.Decimal {
	if line.Quantity <= 0 {
		return decimal.Zero
	}
	unit := line.UnitPrice
	for _, price := range line.ServicePrices {
		unit = unit.Add(price)
	}
	return Round(unit.Mul(decimal.NewFromInt(int64(line.Quantity))))
}

// Subtotal sums the rounded line totals.
func Subtotal(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, line := range lines {
		sum = sum.Add(LineTotal(line))
	}
	return sum
}

// ShippingCost applies the policy to an already-computed subtotal. An empty
// cart ships nothing and costs nothing.
func ShippingCost(subtotal decimal.Decimal, policy Policy) decimal.Decimal {
	if subtotal.IsZero() {
		return decimal.Zero
	}
	if policy.FreeAbove.IsPositive() && subtotal.GreaterThanOrEqual(policy.FreeAbove) {
		return decimal.Zero
	}
	return Round(policy.FlatFee)
}

// ComputeTotals derives all order-level amounts from the lines in one pass.
func ComputeTotals(lines []Line, policy Policy) Totals {
	subtotal := Subtotal(lines)
	shipping := ShippingCost(subtotal, policy)
	return Totals{
		Subtotal:     subtotal,
		ShippingCost: shipping,
		Total:        subtotal.Add(shipping),
	}
}
