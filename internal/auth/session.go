package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"go-pos-server/internal/errs"
	"go-pos-server/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Session describes a successful login.
type Session struct {
	UserID   string    `json:"user_id"`
	Username string    `json:"username"`
	Role     string    `json:"role"`
	LoginAt  time.Time `json:"login_at"`
}

// SessionAuthority keeps exactly one valid token per account. Each login
// overwrites the stored token, which silently orphans the previous one.
type SessionAuthority struct {
	db    *gorm.DB
	codec *TokenCodec
	log   *zap.Logger
	now   func() time.Time
}

// NewSessionAuthority wires the authority to its store and token codec.
func NewSessionAuthority(db *gorm.DB, codec *TokenCodec, log *zap.Logger) *SessionAuthority {
	return &SessionAuthority{db: db, codec: codec, log: log, now: time.Now}
}

var errBadCredentials = errs.Reason(errs.ErrUnauthorized, "Invalid username or password")

// Login verifies credentials and makes the new token the account's only valid one.
func (s *SessionAuthority) Login(ctx context.Context, username, password string) (string, Session, error) {
	var acc models.Account
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&acc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", Session{}, errBadCredentials
	}
	if err != nil {
		return "", Session{}, errs.FromDB(err, "")
	}

	if !acc.IsActive {
		return "", Session{}, errs.Reason(errs.ErrUnauthorized, "This account has been deactivated. Contact an administrator.")
	}
	if !CheckPassword(acc.PasswordHash, password) {
		return "", Session{}, errBadCredentials
	}

	sessionID := uuid.NewString()
	token, _, err := s.codec.Sign(acc.ID, acc.Username, acc.Role, sessionID)
	if err != nil {
		return "", Session{}, err
	}

	now := s.now()
	err = s.db.WithContext(ctx).Model(&models.Account{}).
		Where("id = ?", acc.ID).
		Updates(map[string]any{
			"active_session_token": token,
			"last_login_at":        now,
		}).Error
	if err != nil {
		return "", Session{}, errs.FromDB(err, "")
	}

	s.log.Info("login",
		zap.String("username", acc.Username),
		zap.String("session_id", sessionID),
	)

	return token, Session{
		UserID:   acc.ID,
		Username: acc.Username,
		Role:     acc.Role,
		LoginAt:  now,
	}, nil
}

// Validate reports whether token is the account's current authority token.
// It fails closed and never extends the token's expiry.
func (s *SessionAuthority) Validate(ctx context.Context, accountID, token string) bool {
	acc, err := s.check(ctx, accountID, token)
	if err != nil {
		s.log.Warn("session check failed", zap.String("user_id", accountID), zap.Error(err))
		return false
	}
	return acc != nil
}

// check returns the account when token is its current authority token, and
// nil when it is not.
func (s *SessionAuthority) check(ctx context.Context, accountID, token string) (*models.Account, error) {
	var acc models.Account
	err := s.db.WithContext(ctx).Where("id = ?", accountID).First(&acc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !acc.IsActive || acc.ActiveSessionToken == nil || token == "" {
		return nil, nil
	}
	if subtle.ConstantTimeCompare([]byte(*acc.ActiveSessionToken), []byte(token)) != 1 {
		s.log.Info("session superseded", zap.String("username", acc.Username))
		return nil, nil
	}
	return &acc, nil
}

// Authenticate verifies a presented token end to end: signature, expiry, and
// that it is still the account's authority token. Username and role come from
// the account row, so a role change applies to sessions already open.
func (s *SessionAuthority) Authenticate(ctx context.Context, token string) (*Claims, error) {
	claims, err := s.codec.Parse(token)
	if err != nil {
		return nil, errs.Reason(errs.ErrUnauthorized, "Invalid or expired token")
	}
	acc, err := s.check(ctx, claims.UserID(), token)
	if err != nil {
		return nil, errs.FromDB(err, "")
	}
	if acc == nil {
		return nil, errs.Reason(errs.ErrUnauthorized, "Session is no longer active. Please sign in again.")
	}
	claims.Username = acc.Username
	claims.Role = acc.Role
	return claims, nil
}

// Logout clears the account's authority token. Unknown accounts and repeated
// calls are not errors.
func (s *SessionAuthority) Logout(ctx context.Context, accountID string) error {
	res := s.db.WithContext(ctx).Model(&models.Account{}).
		Where("id = ?", accountID).
		Update("active_session_token", nil)
	if res.Error != nil {
		return errs.FromDB(res.Error, "")
	}
	if res.RowsAffected > 0 {
		s.log.Info("logout", zap.String("user_id", accountID))
	}
	return nil
}

// LogoutIfCurrent clears the authority token only while it still equals token,
// in a single statement. It reports whether a session was ended.
func (s *SessionAuthority) LogoutIfCurrent(ctx context.Context, accountID, token string) (bool, error) {
	if token == "" {
		return false, nil
	}
	res := s.db.WithContext(ctx).Model(&models.Account{}).
		Where("id = ? AND active_session_token = ?", accountID, token).
		Update("active_session_token", nil)
	if res.Error != nil {
		return false, errs.FromDB(res.Error, "")
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	s.log.Info("logout", zap.String("user_id", accountID))
	return true, nil
}

// ParseToken exposes signature/expiry checking without the authority lookup.
func (s *SessionAuthority) ParseToken(token string) (*Claims, error) {
	return s.codec.Parse(token)
}
