// Package sales prices checkouts and serves the immutable sales history.
package sales

import (
	"go-pos-server/internal/errs"
	"go-pos-server/internal/models"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Totals is the priced summary of a cart.
type Totals struct {
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	TaxAmount      decimal.Decimal
	Total          decimal.Decimal
}

// Line builds a frozen line item from the product's current name and price.
func Line(p models.Product, qty int) models.SaleItem {
	return models.SaleItem{
		ProductID:   p.ID,
		ProductName: p.Name,
		Quantity:    qty,
		UnitPrice:   p.Price,
		Total:       p.Price.Mul(decimal.NewFromInt(int64(qty))).Round(2),
	}
}

// ComputeTotals applies the discount to the subtotal, taxes the discounted
// base, and clamps the result at zero.
func ComputeTotals(lines []models.SaleItem, discountType string, discountValue, taxRate decimal.Decimal) (Totals, error) {
	if discountValue.IsNegative() {
		return Totals{}, errs.Reason(errs.ErrValidation, "discount cannot be negative")
	}
	if taxRate.IsNegative() {
		return Totals{}, errs.Reason(errs.ErrValidation, "tax rate cannot be negative")
	}

	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.Total)
	}

	var discount decimal.Decimal
	switch discountType {
	case models.DiscountNone:
		discount = decimal.Zero
	case models.DiscountPercentage:
		if discountValue.GreaterThan(hundred) {
			return Totals{}, errs.Reason(errs.ErrValidation, "percentage discount cannot exceed 100")
		}
		discount = subtotal.Mul(discountValue).Div(hundred)
	case models.DiscountFixed:
		discount = discountValue
	default:
		return Totals{}, errs.Reason(errs.ErrValidation, "unknown discount type %q", discountType)
	}
	discount = discount.Round(2)

	taxable := decimal.Max(decimal.Zero, subtotal.Sub(discount))
	tax := taxable.Mul(taxRate).Div(hundred).Round(2)
	total := decimal.Max(decimal.Zero, subtotal.Sub(discount).Add(tax))

	return Totals{
		Subtotal:       subtotal.Round(2),
		DiscountAmount: discount,
		TaxAmount:      tax,
		Total:          total.Round(2),
	}, nil
}
