package settings

import (
	"context"
	"encoding/base64"
	"strings"
	"time"

	"go-pos-server/internal/errs"
	"go-pos-server/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// BackupUser carries the password hash, unlike the account JSON served to clients.
type BackupUser struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"password_hash"`
	Role         string     `json:"role"`
	IsActive     *bool      `json:"is_active"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLoginAt  *time.Time `json:"last_login_at"`
}

// Image is a stored file, base64 encoded.
type Image struct {
	Filename string `json:"filename"`
	Data     string `json:"data"`
}

// Backup is a full snapshot of the store.
type Backup struct {
	Users      []BackupUser     `json:"users"`
	Products   []models.Product `json:"products"`
	Sales      []models.Sale    `json:"sales"`
	Settings   *models.Settings `json:"settings"`
	Images     []Image          `json:"images"`
	ExportedAt time.Time        `json:"exported_at"`
}

// RestoreSummary counts what an import wrote.
type RestoreSummary struct {
	Users    int `json:"users"`
	Products int `json:"products"`
	Sales    int `json:"sales"`
	Images   int `json:"images"`
}

// ExportBackup snapshots every table and stored image. Unreadable images are
// logged and left out.
func (s *Service) ExportBackup(ctx context.Context) (*Backup, error) {
	db := s.db.WithContext(ctx)
	b := &Backup{ExportedAt: time.Now().UTC()}

	var accs []models.Account
	if err := db.Order("created_at asc").Find(&accs).Error; err != nil {
		return nil, errs.FromDB(err, "")
	}
	for _, a := range accs {
		active := a.IsActive
		b.Users = append(b.Users, BackupUser{
			ID:           a.ID,
			Username:     a.Username,
			PasswordHash: a.PasswordHash,
			Role:         a.Role,
			IsActive:     &active,
			CreatedAt:    a.CreatedAt,
			LastLoginAt:  a.LastLoginAt,
		})
	}
	if err := db.Order("name").Find(&b.Products).Error; err != nil {
		return nil, errs.FromDB(err, "")
	}
	if err := db.Order("created_at asc").Find(&b.Sales).Error; err != nil {
		return nil, errs.FromDB(err, "")
	}
	st, err := load(db)
	if err != nil {
		return nil, err
	}
	b.Settings = st

	names, err := s.files.List()
	if err != nil {
		s.log.Warn("backup: image directory unreadable", zap.Error(err))
	}
	for _, name := range names {
		data, err := s.files.Read(name)
		if err != nil {
			s.log.Warn("backup: image skipped", zap.String("file", name), zap.Error(err))
			continue
		}
		b.Images = append(b.Images, Image{Filename: name, Data: base64.StdEncoding.EncodeToString(data)})
	}

	s.log.Info("backup exported",
		zap.Int("users", len(b.Users)),
		zap.Int("products", len(b.Products)),
		zap.Int("sales", len(b.Sales)),
		zap.Int("images", len(b.Images)),
	)
	return b, nil
}

// ImportBackup replaces everything with the backup's contents. A backup
// with any account missing its password hash is rejected before anything
// changes. Session tokens are never restored, and products without stock
// come back archived.
func (s *Service) ImportBackup(ctx context.Context, b *Backup) (*RestoreSummary, error) {
	if b == nil {
		return nil, errs.Reason(errs.ErrValidation, "backup is empty")
	}
	for i, u := range b.Users {
		if strings.TrimSpace(u.Username) == "" {
			return nil, errs.Reason(errs.ErrValidation, "user #%d has no username", i+1)
		}
		if u.PasswordHash == "" {
			return nil, errs.Reason(errs.ErrValidation,
				"user %q has no password hash; this backup cannot be restored", u.Username)
		}
	}

	sum := &RestoreSummary{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := clearTables(tx); err != nil {
			return err
		}

		for _, u := range b.Users {
			acc := models.Account{
				ID:           u.ID,
				Username:     u.Username,
				PasswordHash: u.PasswordHash,
				Role:         u.Role,
				IsActive:     u.IsActive == nil || *u.IsActive,
				CreatedAt:    u.CreatedAt,
				LastLoginAt:  u.LastLoginAt,
			}
			if !models.ValidRole(acc.Role) {
				acc.Role = models.RoleCashier
			}
			if err := tx.Create(&acc).Error; err != nil {
				return errs.FromDB(err, "")
			}
			sum.Users++
		}

		for i := range b.Products {
			if b.Products[i].Stock <= 0 {
				b.Products[i].IsActive = false
			}
			if err := tx.Create(&b.Products[i]).Error; err != nil {
				return errs.FromDB(err, "")
			}
			sum.Products++
		}
		for i := range b.Sales {
			if err := tx.Create(&b.Sales[i]).Error; err != nil {
				return errs.FromDB(err, "")
			}
			sum.Sales++
		}

		st := models.DefaultSettings()
		if b.Settings != nil {
			st = *b.Settings
			st.ID = models.SettingsID
		}
		return errs.FromDB(tx.Create(&st).Error, "")
	})
	if err != nil {
		return nil, err
	}

	for _, err := range s.files.Clear() {
		s.log.Warn("restore: old image not removed", zap.Error(err))
	}
	for _, img := range b.Images {
		data, err := base64.StdEncoding.DecodeString(img.Data)
		if err != nil {
			s.log.Warn("restore: image not decoded", zap.String("file", img.Filename), zap.Error(err))
			continue
		}
		if err := s.files.Write(img.Filename, data); err != nil {
			s.log.Warn("restore: image not written", zap.String("file", img.Filename), zap.Error(err))
			continue
		}
		sum.Images++
	}

	s.log.Info("backup restored",
		zap.Int("users", sum.Users),
		zap.Int("products", sum.Products),
		zap.Int("sales", sum.Sales),
		zap.Int("images", sum.Images),
	)
	return sum, nil
}
