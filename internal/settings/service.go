// Package settings owns the store profile singleton, first-run setup, and
// whole-store backup, restore and reset.
package settings

import (
	"context"
	"errors"
	"io"
	"strings"

	"go-pos-server/internal/accounts"
	"go-pos-server/internal/errs"
	"go-pos-server/internal/models"
	"go-pos-server/internal/storage"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultCurrency = "PHP"

// Files is the image store as seen by settings, backup and reset.
type Files interface {
	Save(r io.Reader, originalName, prefix string, allowed []string) (string, error)
	Delete(ref string) error
	List() ([]string, error)
	Read(name string) ([]byte, error)
	Write(name string, data []byte) error
	Clear() []error
}

// Patch changes only the fields that are set.
type Patch struct {
	StoreName        *string          `json:"store_name"`
	StoreEmail       *string          `json:"store_email"`
	StorePhone       *string          `json:"store_phone"`
	StoreAddress     *string          `json:"store_address"`
	StoreDescription *string          `json:"store_description"`
	StoreLogoURL     *string          `json:"store_logo_url"`
	Currency         *string          `json:"currency"`
	TaxRate          *decimal.Decimal `json:"tax_rate"`
	Categories       *[]string        `json:"categories"`
	TechnicalTags    *[]string        `json:"technical_tags"`
}

// FirstAdmin is the optional account created by the setup wizard.
type FirstAdmin struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Setup is the wizard payload.
type Setup struct {
	Patch
	Admin *FirstAdmin `json:"admin"`
}

type Service struct {
	db    *gorm.DB
	files Files
	log   *zap.Logger
}

func NewService(db *gorm.DB, files Files, log *zap.Logger) *Service {
	return &Service{db: db, files: files, log: log}
}

// Get returns the settings row, creating the defaults on first read.
func (s *Service) Get(ctx context.Context) (*models.Settings, error) {
	return load(s.db.WithContext(ctx))
}

func load(db *gorm.DB) (*models.Settings, error) {
	var st models.Settings
	err := db.First(&st, "id = ?", models.SettingsID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		st = models.DefaultSettings()
		if err := db.Create(&st).Error; err != nil {
			return nil, errs.FromDB(err, "")
		}
		return &st, nil
	}
	if err != nil {
		return nil, errs.FromDB(err, "")
	}
	return &st, nil
}

// Save applies a partial update.
func (s *Service) Save(ctx context.Context, p Patch) (*models.Settings, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	var out *models.Settings
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		st, err := load(tx)
		if err != nil {
			return err
		}
		p.apply(st)
		if err := tx.Save(st).Error; err != nil {
			return errs.FromDB(err, "")
		}
		out = st
		return nil
	})
	return out, err
}

// UpdateLogo stores a new logo image and drops the previous local one.
func (s *Service) UpdateLogo(ctx context.Context, r io.Reader, filename string) (*models.Settings, error) {
	ref, err := s.files.Save(r, filename, "logo-", storage.LogoImageTypes)
	if err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	st, err := load(db)
	if err != nil {
		s.removeImage(ref)
		return nil, err
	}
	previous := st.StoreLogoURL
	st.StoreLogoURL = &ref
	if err := db.Save(st).Error; err != nil {
		s.removeImage(ref)
		return nil, errs.FromDB(err, "")
	}
	if storage.IsLocal(previous) && *previous != ref {
		s.removeImage(*previous)
	}
	return st, nil
}

// CompleteSetup runs the first-run wizard. It can only succeed once.
func (s *Service) CompleteSetup(ctx context.Context, in Setup) (*models.Settings, error) {
	if err := in.Patch.validate(); err != nil {
		return nil, err
	}
	var out *models.Settings
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		st, err := load(tx)
		if err != nil {
			return err
		}
		if st.IsSetupComplete {
			return errs.Reason(errs.ErrConflict, "Setup has already been completed")
		}
		in.Patch.apply(st)
		st.IsSetupComplete = true
		if err := tx.Save(st).Error; err != nil {
			return errs.FromDB(err, "")
		}
		if in.Admin != nil {
			if _, err := accounts.RegisterTx(tx, in.Admin.Username, in.Admin.Password, models.RoleAdmin); err != nil {
				return err
			}
		}
		out = st
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("setup completed", zap.String("store", out.StoreName))
	return out, nil
}

// Reset wipes sales, products, accounts and settings, then every stored
// image, and recreates the default settings.
func (s *Service) Reset(ctx context.Context) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := clearTables(tx); err != nil {
			return err
		}
		st := models.DefaultSettings()
		return errs.FromDB(tx.Create(&st).Error, "")
	})
	if err != nil {
		return err
	}
	for _, err := range s.files.Clear() {
		s.log.Warn("reset: image not removed", zap.Error(err))
	}
	s.log.Warn("store reset")
	return nil
}

func clearTables(tx *gorm.DB) error {
	all := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
	for _, m := range []any{&models.Sale{}, &models.Product{}, &models.Account{}, &models.Settings{}} {
		if err := all.Delete(m).Error; err != nil {
			return errs.FromDB(err, "")
		}
	}
	return nil
}

func (s *Service) removeImage(ref string) {
	if err := s.files.Delete(ref); err != nil {
		s.log.Debug("image cleanup skipped", zap.String("ref", ref), zap.Error(err))
	}
}

func (p Patch) validate() error {
	if p.StoreName != nil && strings.TrimSpace(*p.StoreName) == "" {
		return errs.Reason(errs.ErrValidation, "store name cannot be empty")
	}
	if p.TaxRate != nil && (p.TaxRate.IsNegative() || p.TaxRate.GreaterThan(decimal.NewFromInt(100))) {
		return errs.Reason(errs.ErrValidation, "tax rate must be between 0 and 100")
	}
	return nil
}

func (p Patch) apply(st *models.Settings) {
	if p.StoreName != nil {
		st.StoreName = strings.TrimSpace(*p.StoreName)
	}
	set := func(dst **string, v *string) {
		if v == nil {
			return
		}
		if t := strings.TrimSpace(*v); t != "" {
			*dst = &t
		} else {
			*dst = nil
		}
	}
	set(&st.StoreEmail, p.StoreEmail)
	set(&st.StorePhone, p.StorePhone)
	set(&st.StoreAddress, p.StoreAddress)
	set(&st.StoreDescription, p.StoreDescription)
	set(&st.StoreLogoURL, p.StoreLogoURL)

	if p.Currency != nil {
		st.Currency = strings.ToUpper(strings.TrimSpace(*p.Currency))
		if st.Currency == "" {
			st.Currency = defaultCurrency
		}
	}
	if p.TaxRate != nil {
		st.TaxRate = p.TaxRate.Round(2)
	}
	if p.Categories != nil {
		st.Categories = *p.Categories
	}
	if p.TechnicalTags != nil {
		st.TechnicalTags = *p.TechnicalTags
	}
}
