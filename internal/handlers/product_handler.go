package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"go-pos-server/internal/errs"
	"go-pos-server/internal/inventory"
	"go-pos-server/internal/middleware"
	"go-pos-server/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// ProductRequest is the body of create and update. Create requires name,
// barcode and price; update changes only what is sent.
type ProductRequest struct {
	Name            *string          `json:"name"`
	Barcode         *string          `json:"barcode"`
	Price           *decimal.Decimal `json:"price"`
	Stock           *int             `json:"stock"`
	PrimaryCategory *string          `json:"primary_category"`
	SubCategory     *string          `json:"sub_category"`
	TechnicalTags   *string          `json:"technical_tags"`
	ImageURL        *string          `json:"image_url"`
	ClearImage      bool             `json:"clear_image"`
	IsActive        *bool            `json:"is_active"`
}

// bindProduct reads JSON, or a multipart form with an optional "image" file.
// The returned closer must be called once the upload has been consumed.
func bindProduct(c *gin.Context) (ProductRequest, *inventory.Upload, io.Closer, error) {
	var req ProductRequest
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		if err := c.ShouldBindJSON(&req); err != nil {
			return req, nil, nil, errs.Reason(errs.ErrValidation, "Invalid input")
		}
		return req, nil, nil, nil
	}

	str := func(key string) *string {
		if v, ok := c.GetPostForm(key); ok {
			return &v
		}
		return nil
	}
	req.Name = str("name")
	req.Barcode = str("barcode")
	req.PrimaryCategory = str("primary_category")
	req.SubCategory = str("sub_category")
	req.TechnicalTags = str("technical_tags")
	req.ImageURL = str("image_url")

	if v := str("price"); v != nil {
		d, err := decimal.NewFromString(strings.TrimSpace(*v))
		if err != nil {
			return req, nil, nil, errs.Reason(errs.ErrValidation, "price must be a number")
		}
		req.Price = &d
	}
	if v := str("stock"); v != nil {
		n, err := strconv.Atoi(strings.TrimSpace(*v))
		if err != nil {
			return req, nil, nil, errs.Reason(errs.ErrValidation, "stock must be a whole number")
		}
		req.Stock = &n
	}
	if v := str("is_active"); v != nil {
		b, err := strconv.ParseBool(*v)
		if err != nil {
			return req, nil, nil, errs.Reason(errs.ErrValidation, "is_active must be true or false")
		}
		req.IsActive = &b
	}
	if v := str("clear_image"); v != nil {
		req.ClearImage, _ = strconv.ParseBool(*v)
	}

	fh, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return req, nil, nil, nil
	}
	if err != nil {
		return req, nil, nil, errs.Reason(errs.ErrValidation, "could not read image upload")
	}
	f, err := fh.Open()
	if err != nil {
		return req, nil, nil, errs.Reason(errs.ErrValidation, "could not read image upload")
	}
	return req, &inventory.Upload{Reader: f, Filename: fh.Filename}, f, nil
}

// GetProducts - GET /api/products
// Cashiers only see active products; admins can ask for ?active=true.
func (h *Handler) GetProducts(c *gin.Context) {
	activeOnly := c.GetString(middleware.KeyRole) != models.RoleAdmin || c.Query("active") == "true"
	products, err := h.Ledger.ListProducts(c.Request.Context(), activeOnly)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// GetProduct - GET /api/products/:id
func (h *Handler) GetProduct(c *gin.Context) {
	p, err := h.Ledger.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// ScanProduct - GET /api/products/barcode/:barcode
func (h *Handler) ScanProduct(c *gin.Context) {
	p, err := h.Ledger.GetByBarcode(c.Request.Context(), c.Param("barcode"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// AddProduct - POST /api/products
func (h *Handler) AddProduct(c *gin.Context) {
	req, upload, closer, err := bindProduct(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	if closer != nil {
		defer closer.Close()
	}
	if req.Name == nil || req.Barcode == nil || req.Price == nil {
		badRequest(c, "name, barcode and price are required")
		return
	}

	in := inventory.ProductInput{
		Name:            *req.Name,
		Barcode:         *req.Barcode,
		Price:           *req.Price,
		PrimaryCategory: req.PrimaryCategory,
		SubCategory:     req.SubCategory,
		TechnicalTags:   req.TechnicalTags,
		ImageURL:        req.ImageURL,
	}
	if req.Stock != nil {
		in.Stock = *req.Stock
	}

	p, err := h.Ledger.CreateProduct(c.Request.Context(), in, upload)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// UpdateProduct - PUT /api/products/:id
func (h *Handler) UpdateProduct(c *gin.Context) {
	req, upload, closer, err := bindProduct(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	if closer != nil {
		defer closer.Close()
	}
	if req.Barcode != nil {
		badRequest(c, "barcode cannot be changed")
		return
	}

	p, err := h.Ledger.UpdateProduct(c.Request.Context(), c.Param("id"), inventory.ProductPatch{
		Name:            req.Name,
		Price:           req.Price,
		Stock:           req.Stock,
		PrimaryCategory: req.PrimaryCategory,
		SubCategory:     req.SubCategory,
		TechnicalTags:   req.TechnicalTags,
		ImageURL:        req.ImageURL,
		ClearImage:      req.ClearImage,
		IsActive:        req.IsActive,
	}, upload)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product updated successfully", "product": p})
}

// ArchiveProduct - PUT /api/products/:id/archive
func (h *Handler) ArchiveProduct(c *gin.Context) {
	p, err := h.Ledger.ArchiveProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// RestoreProduct - PUT /api/products/:id/restore
func (h *Handler) RestoreProduct(c *gin.Context) {
	p, err := h.Ledger.RestoreProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// DeleteProduct - DELETE /api/products/:id
// Permanent. Past sales keep their line item snapshots.
func (h *Handler) DeleteProduct(c *gin.Context) {
	if err := h.Ledger.PermanentlyDelete(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
}
