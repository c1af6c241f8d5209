package handlers

import (
	"net/http"

	"go-pos-server/internal/inventory"
	"go-pos-server/internal/middleware"
	"go-pos-server/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// SaleRequest defines what the till sends at checkout.
type SaleRequest struct {
	Items []struct {
		ProductID string `json:"product_id"`
		Quantity  int    `json:"quantity"`
	} `json:"items" binding:"required"`
	DiscountType  string          `json:"discount_type"`
	DiscountValue decimal.Decimal `json:"discount_value"`
}

// ProcessSale - POST /api/sales
func (h *Handler) ProcessSale(c *gin.Context) {
	var req SaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	co := inventory.Checkout{DiscountType: req.DiscountType, DiscountValue: req.DiscountValue}
	for _, it := range req.Items {
		co.Items = append(co.Items, inventory.CheckoutItem{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	cashier := inventory.Cashier{
		ID:   c.GetString(middleware.KeyUserID),
		Name: c.GetString(middleware.KeyUsername),
	}

	sale, err := h.Ledger.ApplySale(c.Request.Context(), cashier, co)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, sale)
}

// GetSales - GET /api/sales?startDate=&endDate=
func (h *Handler) GetSales(c *gin.Context) {
	ctx := c.Request.Context()
	startStr, endStr := c.Query("startDate"), c.Query("endDate")
	if startStr == "" && endStr == "" {
		out, err := h.Sales.List(ctx)
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
		return
	}
	if startStr == "" || endStr == "" {
		badRequest(c, "startDate and endDate must be given together")
		return
	}

	start, err := parseDate(startStr)
	if err != nil {
		h.fail(c, err)
		return
	}
	end, err := parseDate(endStr)
	if err != nil {
		h.fail(c, err)
		return
	}
	if len(endStr) == len("2006-01-02") {
		end = end.AddDate(0, 0, 1).Add(-1)
	}

	out, err := h.Sales.Between(ctx, start, end)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// GetSale - GET /api/sales/:id
func (h *Handler) GetSale(c *gin.Context) {
	sale, err := h.Sales.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if c.GetString(middleware.KeyRole) != models.RoleAdmin && sale.CashierID != c.GetString(middleware.KeyUserID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only view your own sales"})
		return
	}
	c.JSON(http.StatusOK, sale)
}

// GetSalesByCashier - GET /api/sales/cashier/:cashierId
// Cashiers may only look at their own history.
func (h *Handler) GetSalesByCashier(c *gin.Context) {
	id := c.Param("cashierId")
	if c.GetString(middleware.KeyRole) != models.RoleAdmin && id != c.GetString(middleware.KeyUserID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only view your own sales"})
		return
	}
	out, err := h.Sales.ByCashier(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// ClearSales - DELETE /api/sales/clear
func (h *Handler) ClearSales(c *gin.Context) {
	if err := h.Sales.ClearAll(c.Request.Context()); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Sales history cleared"})
}
