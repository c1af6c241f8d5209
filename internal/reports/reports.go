// Package reports builds the dashboard and stock valuation views.
package reports

import (
	"context"
	"sort"
	"time"

	"go-pos-server/internal/database"
	"go-pos-server/internal/errs"
	"go-pos-server/internal/models"
	"go-pos-server/internal/sales"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	topSellers    = 5
	recentSales   = 10
	LowStockLevel = 5
	uncategorized = "Uncategorized"
)

// TopSeller is one row of the best-seller table.
type TopSeller struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Sold        int             `json:"sold"`
	Revenue     decimal.Decimal `json:"revenue"`
}

// ReportData is the admin dashboard.
type ReportData struct {
	TotalRevenue decimal.Decimal  `json:"total_revenue"`
	TotalOrders  int64            `json:"total_orders"`
	TodayRevenue decimal.Decimal  `json:"today_revenue"`
	TodayOrders  int64            `json:"today_orders"`
	TopSelling   []TopSeller      `json:"top_selling"`
	RecentSales  []models.Sale    `json:"recent_sales"`
	LowStock     []models.Product `json:"low_stock"`
}

// ValuationItem is a single product row in the valuation table.
type ValuationItem struct {
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Total     decimal.Decimal `json:"total"`
}

// CategoryGroup is one category's table, e.g. "Drinks".
type CategoryGroup struct {
	CategoryName string          `json:"category_name"`
	Items        []ValuationItem `json:"items"`
	Subtotal     decimal.Decimal `json:"subtotal"`
}

// ValuationResponse is the whole valuation report.
type ValuationResponse struct {
	Categories []CategoryGroup `json:"categories"`
	GrandTotal decimal.Decimal `json:"grand_total"`
}

type Service struct {
	db    *gorm.DB
	sales *sales.Service
	now   func() time.Time
}

func NewService(db *gorm.DB, history *sales.Service) *Service {
	return &Service{db: db, sales: history, now: time.Now}
}

// Dashboard aggregates all-time and today's figures.
func (s *Service) Dashboard(ctx context.Context) (*ReportData, error) {
	db := s.db.WithContext(ctx)
	data := &ReportData{}

	err := db.Model(&models.Sale{}).Select("COALESCE(SUM(total), 0)").Row().Scan(&data.TotalRevenue)
	if err != nil {
		return nil, errs.FromDB(err, "")
	}
	data.TotalRevenue = data.TotalRevenue.Round(2)
	if err := db.Model(&models.Sale{}).Count(&data.TotalOrders).Error; err != nil {
		return nil, errs.FromDB(err, "")
	}

	start, end := dayBounds(s.now())
	today, err := database.GetSalesReport(ctx, s.db, start, end)
	if err != nil {
		return nil, errs.FromDB(err, "")
	}
	data.TodayRevenue = today.TotalRevenue
	data.TodayOrders = today.TotalCount

	if data.TopSelling, err = s.topSelling(db); err != nil {
		return nil, err
	}
	if data.RecentSales, err = s.sales.Recent(ctx, recentSales); err != nil {
		return nil, err
	}
	err = db.Where("is_active = ? AND stock <= ?", true, LowStockLevel).
		Order("stock asc, name asc").
		Find(&data.LowStock).Error
	if err != nil {
		return nil, errs.FromDB(err, "")
	}
	return data, nil
}

// topSelling sums line item snapshots. Names come from the sale records,
// so deleted or renamed products still show what was sold.
func (s *Service) topSelling(db *gorm.DB) ([]TopSeller, error) {
	var history []models.Sale
	if err := db.Select("id", "items", "created_at").Order("created_at asc").Find(&history).Error; err != nil {
		return nil, errs.FromDB(err, "")
	}

	byProduct := make(map[string]*TopSeller)
	for _, sale := range history {
		for _, it := range sale.Items {
			row, ok := byProduct[it.ProductID]
			if !ok {
				row = &TopSeller{ProductID: it.ProductID}
				byProduct[it.ProductID] = row
			}
			row.ProductName = it.ProductName
			row.Sold += it.Quantity
			row.Revenue = row.Revenue.Add(it.Total)
		}
	}

	out := make([]TopSeller, 0, len(byProduct))
	for _, row := range byProduct {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Sold != out[j].Sold {
			return out[i].Sold > out[j].Sold
		}
		if c := out[i].Revenue.Cmp(out[j].Revenue); c != 0 {
			return c > 0
		}
		return out[i].ProductName < out[j].ProductName
	})
	if len(out) > topSellers {
		out = out[:topSellers]
	}
	return out, nil
}

// Valuation prices the stock on hand of every active product at its
// selling price, grouped by primary category.
func (s *Service) Valuation(ctx context.Context) (*ValuationResponse, error) {
	var products []models.Product
	err := s.db.WithContext(ctx).Where("is_active = ?", true).Order("name").Find(&products).Error
	if err != nil {
		return nil, errs.FromDB(err, "")
	}

	resp := &ValuationResponse{Categories: []CategoryGroup{}}
	groups := make(map[string]*CategoryGroup)
	for _, p := range products {
		name := uncategorized
		if p.PrimaryCategory != nil && *p.PrimaryCategory != "" {
			name = *p.PrimaryCategory
		}
		g, ok := groups[name]
		if !ok {
			g = &CategoryGroup{CategoryName: name, Items: []ValuationItem{}}
			groups[name] = g
		}

		total := p.Price.Mul(decimal.NewFromInt(int64(p.Stock))).Round(2)
		g.Items = append(g.Items, ValuationItem{
			Name:      p.Name,
			Quantity:  p.Stock,
			UnitPrice: p.Price,
			Total:     total,
		})
		g.Subtotal = g.Subtotal.Add(total)
		resp.GrandTotal = resp.GrandTotal.Add(total)
	}

	for _, g := range groups {
		resp.Categories = append(resp.Categories, *g)
	}
	sort.Slice(resp.Categories, func(i, j int) bool {
		return resp.Categories[i].CategoryName < resp.Categories[j].CategoryName
	})
	return resp, nil
}

// Range is revenue and order count for an inclusive day range.
func (s *Service) Range(ctx context.Context, from, to time.Time) (*database.SalesReportResult, error) {
	start, _ := dayBounds(from)
	_, end := dayBounds(to)
	if end.Before(start) {
		return nil, errs.Reason(errs.ErrValidation, "endDate is before startDate")
	}
	res, err := database.GetSalesReport(ctx, s.db, start, end)
	if err != nil {
		return nil, errs.FromDB(err, "")
	}
	return res, nil
}

func dayBounds(t time.Time) (time.Time, time.Time) {
	y, m, d := t.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 0, 1).Add(-time.Nanosecond)
}
