package database

import (
	"context"
	"time"

	"go-pos-server/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SalesReportResult holds revenue and order count for a period
type SalesReportResult struct {
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	TotalCount   int64           `json:"total_count"`
}

// GetSalesReport calculates sales within a specific date range (inclusive)
func GetSalesReport(ctx context.Context, db *gorm.DB, start, end time.Time) (*SalesReportResult, error) {
	var result SalesReportResult

	// COALESCE ensures we get 0 instead of NULL if no sales exist
	err := db.WithContext(ctx).Model(&models.Sale{}).
		Where("created_at BETWEEN ? AND ?", start, end).
		Select("COALESCE(SUM(total), 0)").
		Row().Scan(&result.TotalRevenue)
	if err != nil {
		return nil, err
	}

	err = db.WithContext(ctx).Model(&models.Sale{}).
		Where("created_at BETWEEN ? AND ?", start, end).
		Count(&result.TotalCount).Error
	if err != nil {
		return nil, err
	}

	result.TotalRevenue = result.TotalRevenue.Round(2)
	return &result, nil
}
