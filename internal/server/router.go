// Package server assembles the gin engine: middleware, routes, static files
// and the single-page app.
package server

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go-pos-server/internal/handlers"
	"go-pos-server/internal/middleware"
	"go-pos-server/internal/models"
	"go-pos-server/internal/storage"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Options are the parts of the config the router needs.
type Options struct {
	CORSOrigins []string
	UploadDir   string
	WebDir      string // empty disables the SPA
}

// NewRouter wires every route onto a fresh engine.
func NewRouter(h *handlers.Handler, opts Options, log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.MaxMultipartMemory = storage.MaxImageSize + 1<<20
	r.Use(middleware.Recovery(log), middleware.RequestLogger(log))

	if len(opts.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     opts.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "online"}) })
	r.Static(strings.TrimSuffix(storage.URLPrefix, "/"), opts.UploadDir)

	// --- PUBLIC ROUTES ---
	public := r.Group("/api")
	{
		public.POST("/auth/login", h.Login)
		public.POST("/auth/register", h.Register)
		public.GET("/auth/validate-session", h.ValidateSession)
		public.POST("/auth/logout", h.Logout)
		public.GET("/settings", h.GetSettings)
		public.POST("/setup", h.CompleteSetup)
	}

	// --- PROTECTED ROUTES ---
	api := r.Group("/api")
	api.Use(middleware.AuthMiddleware(h.Authority))
	{
		// STAFF & ADMIN
		api.GET("/products", h.GetProducts)
		api.GET("/products/:id", h.GetProduct)
		api.GET("/products/barcode/:barcode", h.ScanProduct)
		api.POST("/sales", h.ProcessSale)
		api.GET("/sales/cashier/:cashierId", h.GetSalesByCashier)
		api.GET("/sales/:id", h.GetSale)

		// ADMIN ONLY
		admin := api.Group("")
		admin.Use(middleware.RequireRole(models.RoleAdmin))
		{
			admin.POST("/products", h.AddProduct)
			admin.PUT("/products/:id", h.UpdateProduct)
			admin.PUT("/products/:id/archive", h.ArchiveProduct)
			admin.PUT("/products/:id/restore", h.RestoreProduct)
			admin.DELETE("/products/:id", h.DeleteProduct)

			admin.GET("/sales", h.GetSales)
			admin.DELETE("/sales/clear", h.ClearSales)

			admin.GET("/users", h.GetUsers)
			admin.GET("/users/:id", h.GetUser)
			admin.POST("/users", h.CreateUser)
			admin.PUT("/users/:id", h.UpdateUser)
			admin.DELETE("/users/:id", h.ArchiveUser)
			admin.PUT("/users/:id/reactivate", h.ReactivateUser)

			admin.POST("/settings", h.SaveSettings)
			admin.POST("/settings/logo", h.UploadLogo)
			admin.DELETE("/settings/reset", h.ResetStore)
			admin.GET("/settings/backup", h.ExportBackup)
			admin.POST("/settings/restore", h.ImportBackup)

			admin.GET("/reports", h.GetSalesReport)
			admin.GET("/reports/valuation", h.GetStockValuation)
			admin.GET("/reports/range", h.GetRangeReport)

			admin.POST("/assistant/ask", h.AskAI)
		}
	}

	serveSPA(r, opts.WebDir)
	return r
}

// serveSPA serves the built frontend. Unknown non-API paths get index.html
// so client-side routing survives a refresh.
func serveSPA(r *gin.Engine, webDir string) {
	index := filepath.Join(webDir, "index.html")
	hasSPA := webDir != ""
	if hasSPA {
		if _, err := os.Stat(index); err != nil {
			hasSPA = false
		}
	}
	if hasSPA {
		if _, err := os.Stat(filepath.Join(webDir, "assets")); err == nil {
			r.Static("/assets", filepath.Join(webDir, "assets"))
		}
	}

	r.NoRoute(func(c *gin.Context) {
		if !hasSPA || strings.HasPrefix(c.Request.URL.Path, "/api/") || c.Request.Method != http.MethodGet {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}
		c.File(index)
	})
}
