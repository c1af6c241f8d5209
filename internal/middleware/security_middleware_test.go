package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go-pos-server/internal/auth"
	"go-pos-server/internal/errs"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type stubAuthority struct {
	claims *auth.Claims
	err    error
}

func (s stubAuthority) Authenticate(context.Context, string) (*auth.Claims, error) {
	return s.claims, s.err
}

func newEngine(authority Authenticator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Recovery(zap.NewNop()), RequestLogger(zap.NewNop()))
	r.GET("/me", AuthMiddleware(authority), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": c.GetString(KeyUserID), "role": c.GetString(KeyRole)})
	})
	r.GET("/admin", AuthMiddleware(authority), RequireRole("admin"), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	r.GET("/boom", func(c *gin.Context) { panic("boom") })
	return r
}

func get(r *gin.Engine, path, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func cashier() *auth.Claims {
	return &auth.Claims{
		Username:         "bob",
		Role:             "cashier",
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u-1"},
	}
}

func TestAuthMiddleware(t *testing.T) {
	ok := newEngine(stubAuthority{claims: cashier()})

	tests := []struct {
		name   string
		r      *gin.Engine
		header string
		want   int
	}{
		{"missing header", ok, "", http.StatusUnauthorized},
		{"wrong scheme", ok, "Basic abc", http.StatusUnauthorized},
		{"empty bearer", ok, "Bearer ", http.StatusUnauthorized},
		{"valid", ok, "Bearer tok", http.StatusOK},
		{"stale session", newEngine(stubAuthority{err: errs.Reason(errs.ErrUnauthorized, "Session expired")}), "Bearer tok", http.StatusUnauthorized},
		{"store down", newEngine(stubAuthority{err: errors.New("dial tcp: refused")}), "Bearer tok", http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(tt.r, "/me", tt.header)
			assert.Equal(t, tt.want, w.Code)
		})
	}

	w := get(ok, "/me", "Bearer tok")
	assert.JSONEq(t, `{"id":"u-1","role":"cashier"}`, w.Body.String())
}

func TestRequireRole(t *testing.T) {
	w := get(newEngine(stubAuthority{claims: cashier()}), "/admin", "Bearer tok")
	assert.Equal(t, http.StatusForbidden, w.Code)

	admin := cashier()
	admin.Role = "admin"
	w = get(newEngine(stubAuthority{claims: admin}), "/admin", "Bearer tok")
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestRecovery(t *testing.T) {
	w := get(newEngine(stubAuthority{}), "/boom", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Internal server error")
}
