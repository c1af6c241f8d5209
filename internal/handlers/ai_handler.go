package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AskRequest struct {
	Message string `json:"message" binding:"required"`
}

// AskAI - POST /api/assistant/ask
func (h *Handler) AskAI(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Message is required")
		return
	}
	if h.Assistant == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Assistant is not configured. Set GEMINI_API_KEY."})
		return
	}

	reply, err := h.Assistant.Ask(c.Request.Context(), req.Message)
	if err != nil {
		h.Log.Error("assistant failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "The assistant could not answer right now"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"reply": reply})
}
