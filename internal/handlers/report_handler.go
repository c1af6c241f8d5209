package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetSalesReport - GET /api/reports
func (h *Handler) GetSalesReport(c *gin.Context) {
	data, err := h.Reports.Dashboard(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, data)
}

// GetStockValuation - GET /api/reports/valuation
// Stock is valued at selling price, grouped by category.
func (h *Handler) GetStockValuation(c *gin.Context) {
	data, err := h.Reports.Valuation(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, data)
}

// GetRangeReport - GET /api/reports/range?startDate=YYYY-MM-DD&endDate=YYYY-MM-DD
func (h *Handler) GetRangeReport(c *gin.Context) {
	from, err := parseDate(c.Query("startDate"))
	if err != nil {
		h.fail(c, err)
		return
	}
	to, err := parseDate(c.Query("endDate"))
	if err != nil {
		h.fail(c, err)
		return
	}
	res, err := h.Reports.Range(c.Request.Context(), from, to)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
