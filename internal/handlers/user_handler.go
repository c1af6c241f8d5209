package handlers

import (
	"net/http"

	"go-pos-server/internal/accounts"
	"go-pos-server/internal/middleware"

	"github.com/gin-gonic/gin"
)

type UpdateUserRequest struct {
	Role     *string `json:"role"`
	Password *string `json:"password"`
}

// GetUsers - GET /api/users
func (h *Handler) GetUsers(c *gin.Context) {
	out, err := h.Accounts.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// GetUser - GET /api/users/:id
func (h *Handler) GetUser(c *gin.Context) {
	acc, err := h.Accounts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, acc)
}

// CreateUser - POST /api/users
func (h *Handler) CreateUser(c *gin.Context) {
	var input RegisterRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Invalid input")
		return
	}
	acc, err := h.Accounts.Register(c.Request.Context(), input.Username, input.Password, input.Role)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, acc)
}

// UpdateUser - PUT /api/users/:id
func (h *Handler) UpdateUser(c *gin.Context) {
	var input UpdateUserRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Invalid input")
		return
	}
	acc, err := h.Accounts.Update(c.Request.Context(), c.GetString(middleware.KeyUserID), c.Param("id"),
		accounts.Patch{Role: input.Role, Password: input.Password})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, acc)
}

// ArchiveUser - DELETE /api/users/:id
func (h *Handler) ArchiveUser(c *gin.Context) {
	acc, err := h.Accounts.ArchiveAccount(c.Request.Context(), c.GetString(middleware.KeyUserID), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User archived", "user": acc})
}

// ReactivateUser - PUT /api/users/:id/reactivate
func (h *Handler) ReactivateUser(c *gin.Context) {
	acc, err := h.Accounts.RestoreAccount(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User reactivated", "user": acc})
}
