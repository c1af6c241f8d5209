package handlers

import (
	"fmt"
	"net/http"
	"time"

	"go-pos-server/internal/settings"

	"github.com/gin-gonic/gin"
)

// GetSettings - GET /api/settings (public, the login screen shows the store name)
func (h *Handler) GetSettings(c *gin.Context) {
	st, err := h.Settings.Get(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// SaveSettings - POST /api/settings
func (h *Handler) SaveSettings(c *gin.Context) {
	var patch settings.Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, "Invalid input")
		return
	}
	st, err := h.Settings.Save(c.Request.Context(), patch)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// UploadLogo - POST /api/settings/logo (multipart "logo")
func (h *Handler) UploadLogo(c *gin.Context) {
	fh, err := c.FormFile("logo")
	if err != nil {
		badRequest(c, "No file uploaded")
		return
	}
	f, err := fh.Open()
	if err != nil {
		badRequest(c, "Could not read upload")
		return
	}
	defer f.Close()

	st, err := h.Settings.UpdateLogo(c.Request.Context(), f, fh.Filename)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// CompleteSetup - POST /api/setup (public until setup is done)
func (h *Handler) CompleteSetup(c *gin.Context) {
	var in settings.Setup
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid input")
		return
	}
	st, err := h.Settings.CompleteSetup(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// ResetStore - DELETE /api/settings/reset
func (h *Handler) ResetStore(c *gin.Context) {
	if err := h.Settings.Reset(c.Request.Context()); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Store has been reset"})
}

// ExportBackup - GET /api/settings/backup
func (h *Handler) ExportBackup(c *gin.Context) {
	b, err := h.Settings.ExportBackup(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	name := fmt.Sprintf("pos-backup-%s.json", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.JSON(http.StatusOK, b)
}

// ImportBackup - POST /api/settings/restore
func (h *Handler) ImportBackup(c *gin.Context) {
	var b settings.Backup
	if err := c.ShouldBindJSON(&b); err != nil {
		badRequest(c, "Backup file is not valid JSON")
		return
	}
	sum, err := h.Settings.ImportBackup(c.Request.Context(), &b)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Backup restored", "restored": sum})
}
