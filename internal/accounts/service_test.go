package accounts

import (
	"context"
	"testing"

	"go-pos-server/internal/auth"
	"go-pos-server/internal/database/dbtest"
	"go-pos-server/internal/errs"
	"go-pos-server/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db := dbtest.Open(t)
	return NewService(db, zap.NewNop()), db
}

func mustRegister(t *testing.T, s *Service, username, role string) *models.Account {
	t.Helper()
	acc, err := s.Register(context.Background(), username, "secret1", role)
	require.NoError(t, err)
	return acc
}

func signIn(t *testing.T, db *gorm.DB, id string) {
	t.Helper()
	require.NoError(t, db.Model(&models.Account{}).Where("id = ?", id).
		Update("active_session_token", "some-token").Error)
}

func strPtr(s string) *string { return &s }

func TestRegister(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()

	acc, err := s.Register(ctx, "alice", "secret1", models.RoleAdmin)
	require.NoError(t, err)
	assert.True(t, acc.IsActive)
	assert.Nil(t, acc.ActiveSessionToken)
	assert.True(t, auth.CheckPassword(acc.PasswordHash, "secret1"))

	cashier, err := s.Register(ctx, "bob", "secret1", "")
	require.NoError(t, err)
	assert.Equal(t, models.RoleCashier, cashier.Role)

	tests := []struct {
		name, username, password, role string
		want                           error
	}{
		{"short username", "al", "secret1", models.RoleAdmin, errs.ErrValidation},
		{"short password", "carol", "12345", models.RoleAdmin, errs.ErrValidation},
		{"bad role", "carol", "secret1", "owner", errs.ErrValidation},
		{"duplicate", "alice", "secret1", models.RoleCashier, errs.ErrConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Register(ctx, tt.username, tt.password, tt.role)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func TestUpdate_LastAdminCannotBeDemoted(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()
	alice := mustRegister(t, s, "alice", models.RoleAdmin)

	_, err := s.Update(ctx, alice.ID, alice.ID, Patch{Role: strPtr(models.RoleCashier)})
	assert.ErrorIs(t, err, errs.ErrPrecondition)

	bob := mustRegister(t, s, "bob", models.RoleAdmin)
	got, err := s.Update(ctx, bob.ID, alice.ID, Patch{Role: strPtr(models.RoleCashier)})
	require.NoError(t, err)
	assert.Equal(t, models.RoleCashier, got.Role)

	_, err = s.Update(ctx, bob.ID, alice.ID, Patch{Role: strPtr("owner")})
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestUpdate_Password(t *testing.T) {
	s, db := newService(t)
	ctx := context.Background()
	admin := mustRegister(t, s, "admin", models.RoleAdmin)
	bob := mustRegister(t, s, "bob", models.RoleCashier)

	_, err := s.Update(ctx, admin.ID, bob.ID, Patch{Password: strPtr("123")})
	assert.ErrorIs(t, err, errs.ErrValidation)

	_, err = s.Update(ctx, admin.ID, bob.ID, Patch{Password: strPtr("newsecret")})
	require.NoError(t, err)

	var stored models.Account
	require.NoError(t, db.First(&stored, "id = ?", bob.ID).Error)
	assert.True(t, auth.CheckPassword(stored.PasswordHash, "newsecret"))
	assert.False(t, auth.CheckPassword(stored.PasswordHash, "secret1"))
}

func TestUpdate_OnlineAccountIsLocked(t *testing.T) {
	s, db := newService(t)
	ctx := context.Background()
	admin := mustRegister(t, s, "admin", models.RoleAdmin)
	bob := mustRegister(t, s, "bob", models.RoleCashier)
	signIn(t, db, bob.ID)
	signIn(t, db, admin.ID)

	_, err := s.Update(ctx, admin.ID, bob.ID, Patch{Password: strPtr("newsecret")})
	assert.ErrorIs(t, err, errs.ErrPrecondition)

	// editing yourself while signed in is fine
	_, err = s.Update(ctx, admin.ID, admin.ID, Patch{Password: strPtr("newsecret")})
	assert.NoError(t, err)
}

func TestArchiveAccount(t *testing.T) {
	s, db := newService(t)
	ctx := context.Background()
	admin := mustRegister(t, s, "admin", models.RoleAdmin)
	bob := mustRegister(t, s, "bob", models.RoleCashier)
	carol := mustRegister(t, s, "carol", models.RoleCashier)
	signIn(t, db, carol.ID)

	_, err := s.ArchiveAccount(ctx, admin.ID, admin.ID)
	assert.ErrorIs(t, err, errs.ErrPrecondition, "self")

	_, err = s.ArchiveAccount(ctx, admin.ID, carol.ID)
	assert.ErrorIs(t, err, errs.ErrPrecondition, "online")

	_, err = s.ArchiveAccount(ctx, admin.ID, "missing")
	assert.ErrorIs(t, err, errs.ErrNotFound)

	got, err := s.ArchiveAccount(ctx, admin.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	restored, err := s.RestoreAccount(ctx, bob.ID)
	require.NoError(t, err)
	assert.True(t, restored.IsActive)

	reloaded, err := s.Get(ctx, bob.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.IsActive)

	_, err = s.RestoreAccount(ctx, "missing")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestList(t *testing.T) {
	s, _ := newService(t)
	mustRegister(t, s, "alice", models.RoleAdmin)
	mustRegister(t, s, "bob", models.RoleCashier)

	out, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, out, 2)
}
