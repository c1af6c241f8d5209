// Package handlers adapts the services to the REST API.
package handlers

import (
	"errors"
	"net/http"
	"time"

	"go-pos-server/internal/accounts"
	"go-pos-server/internal/ai"
	"go-pos-server/internal/auth"
	"go-pos-server/internal/errs"
	"go-pos-server/internal/inventory"
	"go-pos-server/internal/reports"
	"go-pos-server/internal/sales"
	"go-pos-server/internal/settings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler holds every service the routes call into.
type Handler struct {
	Authority *auth.SessionAuthority
	Accounts  *accounts.Service
	Ledger    *inventory.Ledger
	Sales     *sales.Service
	Settings  *settings.Service
	Reports   *reports.Service
	Assistant *ai.Agent // nil when GEMINI_API_KEY is unset

	// AllowRegistration keeps /api/auth/register open after the first account.
	AllowRegistration bool

	Log *zap.Logger
}

// fail writes err with the status its kind maps to.
func (h *Handler) fail(c *gin.Context, err error) {
	_ = c.Error(err)
	switch {
	case errors.Is(err, errs.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, errs.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, errs.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, errs.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, errs.ErrPrecondition):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, errs.ErrUnavailable):
		h.Log.Error("backend unavailable", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "The server cannot reach its database. Try again shortly.",
			"code":  "BACKEND_UNREACHABLE",
		})
	default:
		h.Log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

// parseDate accepts YYYY-MM-DD (local midnight) or RFC 3339.
func parseDate(s string) (time.Time, error) {
	if t, err := time.ParseInLocation(time.DateOnly, s, time.Local); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, errs.Reason(errs.ErrValidation, "invalid date %q, use YYYY-MM-DD", s)
	}
	return t, nil
}
