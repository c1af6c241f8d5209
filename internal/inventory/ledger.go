// Package inventory keeps product stock consistent with recorded sales and
// enforces the archive/restore lifecycle.
package inventory

import (
	"context"
	"errors"
	"io"
	"regexp"
	"strings"
	"time"

	"go-pos-server/internal/errs"
	"go-pos-server/internal/models"
	"go-pos-server/internal/sales"
	"go-pos-server/internal/storage"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FileStore holds product images.
type FileStore interface {
	Save(r io.Reader, originalName, prefix string, allowed []string) (string, error)
	Delete(ref string) error
}

// Upload is an image sent along with a create or update.
type Upload struct {
	Reader   io.Reader
	Filename string
}

// ProductInput is a new product.
type ProductInput struct {
	Name            string
	Barcode         string
	Price           decimal.Decimal
	Stock           int
	PrimaryCategory *string
	SubCategory     *string
	TechnicalTags   *string
	ImageURL        *string
}

// ProductPatch changes only the fields that are set.
type ProductPatch struct {
	Name            *string
	Price           *decimal.Decimal
	Stock           *int
	PrimaryCategory *string
	SubCategory     *string
	TechnicalTags   *string
	ImageURL        *string
	ClearImage      bool
	IsActive        *bool
}

// CheckoutItem is one cart line as sent by the till.
type CheckoutItem struct {
	ProductID string
	Quantity  int
}

// Checkout is a confirmed cart.
type Checkout struct {
	Items         []CheckoutItem
	DiscountType  string
	DiscountValue decimal.Decimal
}

// Cashier is who rang up the sale.
type Cashier struct {
	ID   string
	Name string
}

// Ledger owns every stock-changing operation.
type Ledger struct {
	db    *gorm.DB
	files FileStore
	log   *zap.Logger
	now   func() time.Time
}

func NewLedger(db *gorm.DB, files FileStore, log *zap.Logger) *Ledger {
	return &Ledger{db: db, files: files, log: log, now: time.Now}
}

var imageURLPattern = regexp.MustCompile(`^(https?://|data:|/product-image/)`)

const productNotFound = "Product not found"

// ListProducts returns the catalogue, optionally only active products.
func (l *Ledger) ListProducts(ctx context.Context, activeOnly bool) ([]models.Product, error) {
	q := l.db.WithContext(ctx).Order("name")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var out []models.Product
	return out, errs.FromDB(q.Find(&out).Error, "")
}

// GetProduct loads a product by id.
func (l *Ledger) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	var p models.Product
	if err := l.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, errs.FromDB(err, productNotFound)
	}
	return &p, nil
}

// GetByBarcode is the scanner lookup.
func (l *Ledger) GetByBarcode(ctx context.Context, barcode string) (*models.Product, error) {
	var p models.Product
	if err := l.db.WithContext(ctx).First(&p, "barcode = ?", barcode).Error; err != nil {
		return nil, errs.FromDB(err, productNotFound)
	}
	return &p, nil
}

// CreateProduct adds a product. A product created without stock starts archived.
func (l *Ledger) CreateProduct(ctx context.Context, in ProductInput, image *Upload) (*models.Product, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Barcode = strings.TrimSpace(in.Barcode)
	switch {
	case in.Name == "":
		return nil, errs.Reason(errs.ErrValidation, "name is required")
	case in.Barcode == "":
		return nil, errs.Reason(errs.ErrValidation, "barcode is required")
	case in.Price.IsNegative():
		return nil, errs.Reason(errs.ErrValidation, "price cannot be negative")
	case in.Stock < 0:
		return nil, errs.Reason(errs.ErrValidation, "stock cannot be negative")
	}
	if err := checkImageURL(in.ImageURL); err != nil {
		return nil, err
	}

	var n int64
	if err := l.db.WithContext(ctx).Model(&models.Product{}).Where("barcode = ?", in.Barcode).Count(&n).Error; err != nil {
		return nil, errs.FromDB(err, "")
	}
	if n > 0 {
		return nil, errs.Reason(errs.ErrConflict, "Product with this barcode already exists")
	}

	p := models.Product{
		Name:            in.Name,
		Barcode:         in.Barcode,
		Price:           in.Price.Round(2),
		Stock:           in.Stock,
		PrimaryCategory: blankToNil(in.PrimaryCategory),
		SubCategory:     blankToNil(in.SubCategory),
		TechnicalTags:   blankToNil(in.TechnicalTags),
		ImageURL:        blankToNil(in.ImageURL),
		IsActive:        in.Stock > 0,
	}

	if image != nil {
		ref, err := l.files.Save(image.Reader, image.Filename, "", storage.ProductImageTypes)
		if err != nil {
			return nil, err
		}
		p.ImageURL = &ref
	}

	if err := l.db.WithContext(ctx).Create(&p).Error; err != nil {
		if image != nil {
			l.removeImage(*p.ImageURL)
		}
		return nil, errs.FromDB(err, "")
	}
	return &p, nil
}

// UpdateProduct applies a partial patch. Whatever the patch says, a product
// left with no stock is archived.
func (l *Ledger) UpdateProduct(ctx context.Context, id string, patch ProductPatch, image *Upload) (*models.Product, error) {
	if err := patch.validate(); err != nil {
		return nil, err
	}

	p, err := l.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := p.ImageURL

	if patch.Name != nil {
		p.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Price != nil {
		p.Price = patch.Price.Round(2)
	}
	if patch.Stock != nil {
		p.Stock = *patch.Stock
	}
	if patch.PrimaryCategory != nil {
		p.PrimaryCategory = blankToNil(patch.PrimaryCategory)
	}
	if patch.SubCategory != nil {
		p.SubCategory = blankToNil(patch.SubCategory)
	}
	if patch.TechnicalTags != nil {
		p.TechnicalTags = blankToNil(patch.TechnicalTags)
	}
	if patch.IsActive != nil {
		p.IsActive = *patch.IsActive
	}

	var stale *string
	switch {
	case image != nil:
		ref, err := l.files.Save(image.Reader, image.Filename, "", storage.ProductImageTypes)
		if err != nil {
			return nil, err
		}
		p.ImageURL = &ref
		stale = previous
	case patch.ClearImage:
		p.ImageURL = nil
		stale = previous
	case patch.ImageURL != nil:
		p.ImageURL = blankToNil(patch.ImageURL)
		if previous != nil && (p.ImageURL == nil || *p.ImageURL != *previous) {
			stale = previous
		}
	}

	if p.Stock <= 0 {
		p.IsActive = false
	}
	p.UpdatedAt = l.now()

	if err := l.db.WithContext(ctx).Save(p).Error; err != nil {
		if image != nil {
			l.removeImage(*p.ImageURL)
		}
		return nil, errs.FromDB(err, "")
	}

	if storage.IsLocal(stale) {
		l.removeImage(*stale)
	}
	return p, nil
}

// ArchiveProduct hides a product from the till without deleting it.
func (l *Ledger) ArchiveProduct(ctx context.Context, id string) (*models.Product, error) {
	return l.setActive(ctx, id, false)
}

// RestoreProduct reactivates an archived product. Stock must be raised first.
func (l *Ledger) RestoreProduct(ctx context.Context, id string) (*models.Product, error) {
	return l.setActive(ctx, id, true)
}

func (l *Ledger) setActive(ctx context.Context, id string, active bool) (*models.Product, error) {
	p, err := l.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if active && p.Stock <= 0 {
		return nil, errs.Reason(errs.ErrPrecondition, "Cannot restore %s with no stock. Add stock first.", p.Name)
	}
	p.IsActive = active
	p.UpdatedAt = l.now()
	if err := l.db.WithContext(ctx).Save(p).Error; err != nil {
		return nil, errs.FromDB(err, "")
	}
	return p, nil
}

// PermanentlyDelete removes the record and its stored image.
func (l *Ledger) PermanentlyDelete(ctx context.Context, id string) error {
	p, err := l.GetProduct(ctx, id)
	if err != nil {
		return err
	}
	if err := l.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", p.ID).Error; err != nil {
		return errs.FromDB(err, "")
	}
	if storage.IsLocal(p.ImageURL) {
		l.removeImage(*p.ImageURL)
	}
	return nil
}

// ApplySale decrements stock for every line and records the sale, all in one
// transaction. Rows are locked where the dialect supports it, so concurrent
// checkouts of the same product serialize instead of losing updates.
func (l *Ledger) ApplySale(ctx context.Context, cashier Cashier, co Checkout) (*models.Sale, error) {
	if len(co.Items) == 0 {
		return nil, errs.Reason(errs.ErrValidation, "cart is empty")
	}
	for _, it := range co.Items {
		if it.ProductID == "" {
			return nil, errs.Reason(errs.ErrValidation, "product_id is required")
		}
		if it.Quantity <= 0 {
			return nil, errs.Reason(errs.ErrValidation, "quantity must be at least 1")
		}
	}
	// reject a bad discount before touching any rows
	if _, err := sales.ComputeTotals(nil, co.DiscountType, co.DiscountValue, decimal.Zero); err != nil {
		return nil, err
	}

	var sale models.Sale
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taxRate, err := currentTaxRate(tx)
		if err != nil {
			return err
		}

		now := l.now()
		lines := make([]models.SaleItem, 0, len(co.Items))
		for _, it := range co.Items {
			var p models.Product
			err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, "id = ?", it.ProductID).Error
			if err != nil {
				return errs.FromDB(err, "Product "+it.ProductID+" not found")
			}
			if !p.IsActive {
				return errs.Reason(errs.ErrPrecondition, "%s is archived", p.Name)
			}
			if it.Quantity > p.Stock {
				return errs.Reason(errs.ErrPrecondition, "Insufficient stock for %s", p.Name)
			}

			newStock := p.Stock - it.Quantity
			updates := map[string]any{"stock": newStock, "updated_at": now}
			if newStock <= 0 {
				updates["is_active"] = false
			}
			if err := tx.Model(&models.Product{}).Where("id = ?", p.ID).Updates(updates).Error; err != nil {
				return errs.FromDB(err, "")
			}
			lines = append(lines, sales.Line(p, it.Quantity))
		}

		totals, err := sales.ComputeTotals(lines, co.DiscountType, co.DiscountValue, taxRate)
		if err != nil {
			return err
		}
		sale = models.Sale{
			Items:          lines,
			Subtotal:       totals.Subtotal,
			DiscountType:   co.DiscountType,
			DiscountValue:  co.DiscountValue.Round(2),
			DiscountAmount: totals.DiscountAmount,
			TaxRate:        taxRate,
			TaxAmount:      totals.TaxAmount,
			Total:          totals.Total,
			CashierID:      cashier.ID,
			CashierName:    cashier.Name,
			CreatedAt:      now,
		}
		return errs.FromDB(tx.Create(&sale).Error, "")
	})
	if err != nil {
		return nil, err
	}

	l.log.Info("sale recorded",
		zap.String("sale_id", sale.ID),
		zap.String("cashier", cashier.Name),
		zap.Int("lines", len(sale.Items)),
		zap.String("total", sale.Total.StringFixed(2)),
	)
	return &sale, nil
}

func currentTaxRate(tx *gorm.DB) (decimal.Decimal, error) {
	var st models.Settings
	err := tx.First(&st, "id = ?", models.SettingsID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, errs.FromDB(err, "")
	}
	return st.TaxRate, nil
}

// removeImage is best-effort: a missing old file is not a correctness issue.
func (l *Ledger) removeImage(ref string) {
	if err := l.files.Delete(ref); err != nil {
		l.log.Debug("image cleanup skipped", zap.String("ref", ref), zap.Error(err))
	}
}

func (p ProductPatch) validate() error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return errs.Reason(errs.ErrValidation, "name cannot be empty")
	}
	if p.Price != nil && p.Price.IsNegative() {
		return errs.Reason(errs.ErrValidation, "price cannot be negative")
	}
	if p.Stock != nil && *p.Stock < 0 {
		return errs.Reason(errs.ErrValidation, "stock cannot be negative")
	}
	return checkImageURL(p.ImageURL)
}

func checkImageURL(u *string) error {
	if u == nil || *u == "" {
		return nil
	}
	if !imageURLPattern.MatchString(*u) {
		return errs.Reason(errs.ErrValidation, "imageUrl must be an http(s) URL, data URL, or product image path")
	}
	return nil
}

func blankToNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
