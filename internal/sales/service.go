package sales

import (
	"context"
	"time"

	"go-pos-server/internal/errs"
	"go-pos-server/internal/models"

	"gorm.io/gorm"
)

// Service reads the sales history. Sales are created by the inventory
// ledger at checkout and never updated afterwards.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// List returns all sales, newest first.
func (s *Service) List(ctx context.Context) ([]models.Sale, error) {
	var out []models.Sale
	err := s.db.WithContext(ctx).Order("created_at desc").Find(&out).Error
	return out, errs.FromDB(err, "")
}

// Between returns sales created in [start, end], newest first.
func (s *Service) Between(ctx context.Context, start, end time.Time) ([]models.Sale, error) {
	if end.Before(start) {
		return nil, errs.Reason(errs.ErrValidation, "endDate is before startDate")
	}
	var out []models.Sale
	err := s.db.WithContext(ctx).
		Where("created_at >= ? AND created_at <= ?", start, end).
		Order("created_at desc").
		Find(&out).Error
	return out, errs.FromDB(err, "")
}

// ByCashier returns the sales rung up by one account, newest first.
func (s *Service) ByCashier(ctx context.Context, cashierID string) ([]models.Sale, error) {
	var out []models.Sale
	err := s.db.WithContext(ctx).
		Where("cashier_id = ?", cashierID).
		Order("created_at desc").
		Find(&out).Error
	return out, errs.FromDB(err, "")
}

// Get loads one sale.
func (s *Service) Get(ctx context.Context, id string) (*models.Sale, error) {
	var sale models.Sale
	if err := s.db.WithContext(ctx).First(&sale, "id = ?", id).Error; err != nil {
		return nil, errs.FromDB(err, "Sale not found")
	}
	return &sale, nil
}

// Recent returns the latest n sales.
func (s *Service) Recent(ctx context.Context, n int) ([]models.Sale, error) {
	var out []models.Sale
	err := s.db.WithContext(ctx).Order("created_at desc").Limit(n).Find(&out).Error
	return out, errs.FromDB(err, "")
}

// ClearAll wipes the sales history. Administrative reset only.
func (s *Service) ClearAll(ctx context.Context) error {
	err := s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&models.Sale{}).Error
	return errs.FromDB(err, "")
}
