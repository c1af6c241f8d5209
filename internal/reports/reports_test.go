package reports

import (
	"context"
	"testing"
	"time"

	"go-pos-server/internal/database/dbtest"
	"go-pos-server/internal/errs"
	"go-pos-server/internal/models"
	"go-pos-server/internal/sales"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db := dbtest.Open(t)
	return NewService(db, sales.NewService(db)), db
}

func product(t *testing.T, db *gorm.DB, name, barcode, price string, stock int, category string) {
	t.Helper()
	p := models.Product{Name: name, Barcode: barcode, Price: dec(price), Stock: stock, IsActive: stock > 0}
	if category != "" {
		p.PrimaryCategory = &category
	}
	require.NoError(t, db.Create(&p).Error)
}

func sale(t *testing.T, db *gorm.DB, at time.Time, items ...models.SaleItem) {
	t.Helper()
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Total)
	}
	require.NoError(t, db.Create(&models.Sale{
		Items: items, Subtotal: total, Total: total,
		CashierID: "c", CashierName: "alice", CreatedAt: at,
	}).Error)
}

func line(id, name string, qty int, unit string) models.SaleItem {
	u := dec(unit)
	return models.SaleItem{
		ProductID: id, ProductName: name, Quantity: qty,
		UnitPrice: u, Total: u.Mul(decimal.NewFromInt(int64(qty))),
	}
}

func TestDashboard(t *testing.T) {
	s, db := newService(t)
	now := time.Now()
	s.now = func() time.Time { return now }

	product(t, db, "Cola", "1", "25", 3, "Drinks")
	product(t, db, "Chips", "2", "40", 20, "Snacks")
	product(t, db, "Gone", "3", "10", 0, "")

	sale(t, db, now.AddDate(0, 0, -3), line("cola", "Cola", 4, "25"))
	sale(t, db, now, line("cola", "Cola", 1, "25"), line("chips", "Chips", 2, "40"))
	sale(t, db, now, line("gum", "Gum", 10, "1"))

	d, err := s.Dashboard(context.Background())
	require.NoError(t, err)

	assert.True(t, dec("215").Equal(d.TotalRevenue), d.TotalRevenue.String())
	assert.EqualValues(t, 3, d.TotalOrders)
	assert.True(t, dec("115").Equal(d.TodayRevenue), d.TodayRevenue.String())
	assert.EqualValues(t, 2, d.TodayOrders)

	require.Len(t, d.TopSelling, 3)
	assert.Equal(t, "Gum", d.TopSelling[0].ProductName)
	assert.Equal(t, "Cola", d.TopSelling[1].ProductName)
	assert.Equal(t, 5, d.TopSelling[1].Sold)
	assert.True(t, dec("125").Equal(d.TopSelling[1].Revenue))

	assert.Len(t, d.RecentSales, 3)

	require.Len(t, d.LowStock, 1, "archived products are not low stock")
	assert.Equal(t, "Cola", d.LowStock[0].Name)
}

func TestDashboard_Empty(t *testing.T) {
	s, _ := newService(t)
	d, err := s.Dashboard(context.Background())
	require.NoError(t, err)
	assert.True(t, d.TotalRevenue.IsZero())
	assert.Zero(t, d.TotalOrders)
	assert.Empty(t, d.TopSelling)
}

func TestValuation(t *testing.T) {
	s, db := newService(t)
	product(t, db, "Cola", "1", "25.50", 4, "Drinks")
	product(t, db, "Water", "2", "10", 10, "Drinks")
	product(t, db, "Chips", "3", "40", 2, "")
	product(t, db, "Gone", "4", "99", 0, "Drinks")

	v, err := s.Valuation(context.Background())
	require.NoError(t, err)

	require.Len(t, v.Categories, 2)
	drinks := v.Categories[0]
	assert.Equal(t, "Drinks", drinks.CategoryName)
	require.Len(t, drinks.Items, 2)
	assert.True(t, dec("202").Equal(drinks.Subtotal), drinks.Subtotal.String())

	assert.Equal(t, "Uncategorized", v.Categories[1].CategoryName)
	assert.True(t, dec("282").Equal(v.GrandTotal), v.GrandTotal.String())
}

func TestRange(t *testing.T) {
	s, db := newService(t)
	now := time.Now()
	sale(t, db, now.AddDate(0, 0, -10), line("a", "A", 1, "100"))
	sale(t, db, now.AddDate(0, 0, -1), line("a", "A", 1, "50"))
	sale(t, db, now, line("a", "A", 1, "25"))

	res, err := s.Range(context.Background(), now.AddDate(0, 0, -1), now)
	require.NoError(t, err)
	assert.EqualValues(t, 2, res.TotalCount)
	assert.True(t, dec("75").Equal(res.TotalRevenue))

	_, err = s.Range(context.Background(), now, now.AddDate(0, 0, -2))
	assert.ErrorIs(t, err, errs.ErrValidation)
}
