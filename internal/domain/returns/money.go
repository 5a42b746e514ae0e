package returns

import "github.com/shopspring/decimal"

// MoneyScale is the number of decimal places kept for monetary amounts
const MoneyScale = 2

// PricedQuantity is a unit price and the quantity it applies to
type PricedQuantity struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

// LineTotal returns price × quantity
func LineTotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}

// SumItems returns Σ(price × quantity) over the given lines
func SumItems(lines []PricedQuantity) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(LineTotal(l.UnitPrice, l.Quantity))
	}
	return total
}

// FloorZero clamps negative amounts to zero
func FloorZero(amount decimal.Decimal) decimal.Decimal {
	if amount.IsNegative() {
		return decimal.Zero
	}
	return amount
}

// ApplyRestockingFee deducts the fee from amount, never going below zero
func ApplyRestockingFee(amount, fee decimal.Decimal) decimal.Decimal {
	return FloorZero(amount.Sub(fee))
}

// RefundTotal computes subtotal + shipping + tax − restocking fee, floored at zero
func RefundTotal(subtotal, shippingRefund, taxRefund, restockingFee decimal.Decimal) decimal.Decimal {
	return FloorZero(subtotal.Add(shippingRefund).Add(taxRefund).Sub(restockingFee))
}

// Round rounds half away from zero to MoneyScale places
func Round(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(MoneyScale)
}
