package handlers

import (
	"net/http"

	"go-pos-server/internal/middleware"
	"go-pos-server/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role"`
}

// Login - POST /api/auth/login
func (h *Handler) Login(c *gin.Context) {
	var input LoginRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Username and password are required")
		return
	}

	token, sess, err := h.Authority.Login(c.Request.Context(), input.Username, input.Password)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":    token,
		"user_id":  sess.UserID,
		"role":     sess.Role,
		"username": sess.Username,
		"login_at": sess.LoginAt,
	})
}

// Register - POST /api/auth/register
// Open while the store has no accounts, so the first one can be created.
// After that only when ALLOW_REGISTRATION=true.
func (h *Handler) Register(c *gin.Context) {
	var input RegisterRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Invalid input")
		return
	}

	ctx := c.Request.Context()
	n, err := h.Accounts.Count(ctx)
	if err != nil {
		h.fail(c, err)
		return
	}
	role := input.Role
	switch {
	case n == 0:
		role = models.RoleAdmin
	case !h.AllowRegistration:
		c.JSON(http.StatusForbidden, gin.H{"error": "Registration is disabled. Ask an administrator for an account."})
		return
	}

	acc, err := h.Accounts.Register(ctx, input.Username, input.Password, role)
	if err != nil {
		h.fail(c, err)
		return
	}
	if n > 0 {
		h.Log.Warn("self-registration used", zap.String("username", acc.Username), zap.String("role", acc.Role))
	}
	c.JSON(http.StatusCreated, gin.H{"message": "User created successfully!", "user": acc})
}

// ValidateSession - GET /api/auth/validate-session
// Always answers 200 with {valid}; the client signs out on false.
func (h *Handler) ValidateSession(c *gin.Context) {
	token, ok := middleware.BearerToken(c)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"valid": false})
		return
	}
	claims, err := h.Authority.Authenticate(c.Request.Context(), token)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"valid": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"valid":    true,
		"user_id":  claims.UserID(),
		"username": claims.Username,
		"role":     claims.Role,
	})
}

// Logout - POST /api/auth/logout
// Only the account's current token can end the session. A superseded token
// gets a success response without signing out the newer session.
func (h *Handler) Logout(c *gin.Context) {
	token, ok := middleware.BearerToken(c)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
		return
	}
	claims, err := h.Authority.ParseToken(token)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
		return
	}

	if _, err := h.Authority.LogoutIfCurrent(c.Request.Context(), claims.UserID(), token); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}
