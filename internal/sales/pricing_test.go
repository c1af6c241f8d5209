package sales

import (
	"testing"

	"go-pos-server/internal/errs"
	"go-pos-server/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertDec(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, d(want).Equal(got), "want %s, got %s", want, got)
}

func lines(totals ...string) []models.SaleItem {
	out := make([]models.SaleItem, 0, len(totals))
	for _, v := range totals {
		out = append(out, models.SaleItem{Quantity: 1, UnitPrice: d(v), Total: d(v)})
	}
	return out
}

func TestComputeTotals_PercentageThenTax(t *testing.T) {
	tot, err := ComputeTotals(lines("600", "400"), models.DiscountPercentage, d("10"), d("12"))
	require.NoError(t, err)

	assertDec(t, "1000", tot.Subtotal)
	assertDec(t, "100", tot.DiscountAmount)
	assertDec(t, "108", tot.TaxAmount)
	assertDec(t, "1008", tot.Total)
}

func TestComputeTotals(t *testing.T) {
	tests := []struct {
		name         string
		lines        []models.SaleItem
		discountType string
		value, rate  string
		discount     string
		tax          string
		total        string
	}{
		{"no discount no tax", lines("19.99", "5.01"), models.DiscountNone, "0", "0", "0", "0", "25"},
		{"fixed discount", lines("100"), models.DiscountFixed, "15.50", "0", "15.5", "0", "84.5"},
		{"tax rounds to cents", lines("10"), models.DiscountNone, "0", "12.5", "0", "1.25", "11.25"},
		{"fixed discount larger than subtotal clamps", lines("50"), models.DiscountFixed, "80", "12", "80", "0", "0"},
		{"full percentage discount", lines("50"), models.DiscountPercentage, "100", "12", "50", "0", "0"},
		{"empty cart", nil, models.DiscountNone, "0", "12", "0", "0", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tot, err := ComputeTotals(tt.lines, tt.discountType, d(tt.value), d(tt.rate))
			require.NoError(t, err)
			assertDec(t, tt.discount, tot.DiscountAmount)
			assertDec(t, tt.tax, tot.TaxAmount)
			assertDec(t, tt.total, tot.Total)
		})
	}
}

func TestComputeTotals_Rejects(t *testing.T) {
	_, err := ComputeTotals(lines("10"), models.DiscountPercentage, d("101"), d("0"))
	assert.ErrorIs(t, err, errs.ErrValidation)

	_, err = ComputeTotals(lines("10"), models.DiscountFixed, d("-1"), d("0"))
	assert.ErrorIs(t, err, errs.ErrValidation)

	_, err = ComputeTotals(lines("10"), "bogo", d("1"), d("0"))
	assert.ErrorIs(t, err, errs.ErrValidation)

	_, err = ComputeTotals(lines("10"), models.DiscountNone, d("0"), d("-5"))
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestLine_SnapshotsPrice(t *testing.T) {
	p := models.Product{ID: "p1", Name: "Cola", Price: d("12.25")}
	l := Line(p, 3)
	assert.Equal(t, "p1", l.ProductID)
	assert.Equal(t, "Cola", l.ProductName)
	assertDec(t, "12.25", l.UnitPrice)
	assertDec(t, "36.75", l.Total)

	p.Price = d("99")
	assertDec(t, "36.75", l.Total)
}
