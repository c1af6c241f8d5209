// Package accounts manages the people who can sign in to the till.
package accounts

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"go-pos-server/internal/auth"
	"go-pos-server/internal/errs"
	"go-pos-server/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	minUsername = 3
	minPassword = 6
)

// Patch changes an account's role or password. Nil fields are left alone.
type Patch struct {
	Role     *string
	Password *string
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewService(db *gorm.DB, log *zap.Logger) *Service {
	return &Service{db: db, log: log}
}

// Register creates an active account with no session.
func (s *Service) Register(ctx context.Context, username, password, role string) (*models.Account, error) {
	return register(s.db.WithContext(ctx), username, password, role)
}

// RegisterTx is Register inside a caller-owned transaction.
func RegisterTx(tx *gorm.DB, username, password, role string) (*models.Account, error) {
	return register(tx, username, password, role)
}

func register(db *gorm.DB, username, password, role string) (*models.Account, error) {
	username = strings.TrimSpace(username)
	if utf8.RuneCountInString(username) < minUsername {
		return nil, errs.Reason(errs.ErrValidation, "Username must be at least %d characters", minUsername)
	}
	if err := checkPassword(password); err != nil {
		return nil, err
	}
	if role == "" {
		role = models.RoleCashier
	}
	if !models.ValidRole(role) {
		return nil, errs.Reason(errs.ErrValidation, "Role must be admin or cashier")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	acc := models.Account{
		Username:     username,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
	}
	if err := db.Create(&acc).Error; err != nil {
		err = errs.FromDB(err, "")
		if errors.Is(err, errs.ErrConflict) {
			return nil, errs.Reason(errs.ErrConflict, "Username already exists")
		}
		return nil, err
	}
	return &acc, nil
}

// List returns every account, oldest first.
func (s *Service) List(ctx context.Context) ([]models.Account, error) {
	var out []models.Account
	err := s.db.WithContext(ctx).Order("created_at asc").Find(&out).Error
	return out, errs.FromDB(err, "")
}

func (s *Service) Get(ctx context.Context, id string) (*models.Account, error) {
	var acc models.Account
	if err := s.db.WithContext(ctx).First(&acc, "id = ?", id).Error; err != nil {
		return nil, errs.FromDB(err, "User not found")
	}
	return &acc, nil
}

// Count is the number of accounts, archived ones included.
func (s *Service) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Account{}).Count(&n).Error
	return n, errs.FromDB(err, "")
}

// Update changes role and/or password. An account that is signed in can only
// be edited by itself, and the last active admin cannot be demoted.
func (s *Service) Update(ctx context.Context, actorID, id string, p Patch) (*models.Account, error) {
	var out *models.Account
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		acc, err := load(tx, id)
		if err != nil {
			return err
		}
		if acc.ID != actorID && acc.Online() {
			return errs.Reason(errs.ErrPrecondition, "%s is currently signed in. Ask them to log out first.", acc.Username)
		}

		updates := map[string]any{}
		if p.Role != nil && *p.Role != acc.Role {
			if !models.ValidRole(*p.Role) {
				return errs.Reason(errs.ErrValidation, "Role must be admin or cashier")
			}
			if acc.Role == models.RoleAdmin && acc.IsActive {
				n, err := activeAdmins(tx)
				if err != nil {
					return err
				}
				if n <= 1 {
					return errs.Reason(errs.ErrPrecondition, "Cannot demote the last admin")
				}
			}
			updates["role"] = *p.Role
		}
		if p.Password != nil {
			if err := checkPassword(*p.Password); err != nil {
				return err
			}
			hash, err := auth.HashPassword(*p.Password)
			if err != nil {
				return err
			}
			updates["password_hash"] = hash
		}

		if len(updates) > 0 {
			if err := tx.Model(acc).Updates(updates).Error; err != nil {
				return errs.FromDB(err, "")
			}
		}
		out, err = load(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("account updated", zap.String("username", out.Username), zap.String("by", actorID))
	return out, nil
}

// ArchiveAccount deactivates an account. Nobody can archive themselves or an
// account that is signed in.
func (s *Service) ArchiveAccount(ctx context.Context, actorID, id string) (*models.Account, error) {
	var out *models.Account
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		acc, err := load(tx, id)
		if err != nil {
			return err
		}
		if acc.ID == actorID {
			return errs.Reason(errs.ErrPrecondition, "You cannot archive your own account")
		}
		if acc.Online() {
			return errs.Reason(errs.ErrPrecondition, "%s is currently signed in and cannot be archived", acc.Username)
		}
		if err := tx.Model(acc).Update("is_active", false).Error; err != nil {
			return errs.FromDB(err, "")
		}
		acc.IsActive = false
		out = acc
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("account archived", zap.String("username", out.Username), zap.String("by", actorID))
	return out, nil
}

// RestoreAccount reactivates an archived account.
func (s *Service) RestoreAccount(ctx context.Context, id string) (*models.Account, error) {
	db := s.db.WithContext(ctx)
	acc, err := load(db, id)
	if err != nil {
		return nil, err
	}
	if err := db.Model(acc).Update("is_active", true).Error; err != nil {
		return nil, errs.FromDB(err, "")
	}
	acc.IsActive = true
	return acc, nil
}

func load(db *gorm.DB, id string) (*models.Account, error) {
	var acc models.Account
	if err := db.First(&acc, "id = ?", id).Error; err != nil {
		return nil, errs.FromDB(err, "User not found")
	}
	return &acc, nil
}

func activeAdmins(db *gorm.DB) (int64, error) {
	var n int64
	err := db.Model(&models.Account{}).
		Where("role = ? AND is_active = ?", models.RoleAdmin, true).
		Count(&n).Error
	return n, errs.FromDB(err, "")
}

func checkPassword(pw string) error {
	if utf8.RuneCountInString(pw) < minPassword {
		return errs.Reason(errs.ErrValidation, "Password must be at least %d characters", minPassword)
	}
	return nil
}
