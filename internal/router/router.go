package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yuditriaji/ruhmrita-backend/internal/activity"
	"github.com/yuditriaji/ruhmrita-backend/internal/analytics"
	"github.com/yuditriaji/ruhmrita-backend/internal/auth"
	"github.com/yuditriaji/ruhmrita-backend/internal/config"
	"github.com/yuditriaji/ruhmrita-backend/internal/inventory"
	"github.com/yuditriaji/ruhmrita-backend/internal/ledger"
	"github.com/yuditriaji/ruhmrita-backend/internal/purchase"
	"github.com/yuditriaji/ruhmrita-backend/internal/reports"
	"github.com/yuditriaji/ruhmrita-backend/internal/sales"
	"github.com/yuditriaji/ruhmrita-backend/internal/store"
	"github.com/yuditriaji/ruhmrita-backend/pkg/activitylog"
	"github.com/yuditriaji/ruhmrita-backend/pkg/logger"
	"github.com/yuditriaji/ruhmrita-backend/pkg/middleware"
	"github.com/yuditriaji/ruhmrita-backend/pkg/realtime"
	"github.com/yuditriaji/ruhmrita-backend/pkg/storage"
)

// Deps is everything the HTTP layer needs. Hub, Uploader and Digests may be nil.
type Deps struct {
	Config   *config.Config
	Store    store.Store
	Ledger   *ledger.Ledger
	Uploader storage.Uploader
	Hub      *realtime.Hub
	Digests  reports.DigestReader
	Logger   *zap.Logger
}

// New builds the gin engine with every route mounted.
func New(d Deps) *gin.Engine {
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}
	cfg := d.Config
	loc := cfg.Reporting.Location()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger.Named(log, "http")))
	r.Use(middleware.CORS(cfg.Server.CORSOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC()})
	})

	if local, ok := d.Uploader.(*storage.LocalUploader); ok {
		r.Static("/uploads", local.Dir())
	}

	activityLogger := activitylog.NewLogger(d.Store, logger.Named(log, "activity"))
	restock := analytics.RestockOptions{
		LowStockThreshold:    cfg.Reporting.LowStockThreshold,
		FastSellingThreshold: cfg.Reporting.FastSellingThreshold,
		WindowDays:           cfg.Reporting.WindowDays,
	}

	v1 := r.Group("/api/v1")
	{
		authHandler := auth.NewHandler(d.Store, logger.Named(log, "auth"), auth.Options{
			JWTSecret:          cfg.Auth.JWTSecret,
			GoogleClientID:     cfg.Auth.GoogleClientID,
			GoogleClientSecret: cfg.Auth.GoogleClientSecret,
			GoogleRedirectURL:  cfg.Auth.GoogleRedirectURL,
			FrontendURL:        cfg.Server.FrontendURL,
		})
		v1.POST("/auth/login", authHandler.Login)
		v1.POST("/auth/refresh", authHandler.RefreshToken)
		v1.GET("/auth/google", authHandler.GoogleLogin)
		v1.GET("/auth/google/callback", authHandler.GoogleCallback)

		protected := v1.Group("")
		protected.Use(middleware.AuthRequired(cfg.Auth.JWTSecret))
		{
			protected.GET("/auth/me", authHandler.GetMe)

			inventoryHandler := inventory.NewHandler(d.Ledger, d.Uploader, activityLogger, logger.Named(log, "inventory"), inventory.Options{
				PlaceholderImageURL: cfg.Storage.PlaceholderImageURL,
				LowStockThreshold:   cfg.Reporting.LowStockThreshold,
			})
			importHandler := inventory.NewImportHandler(d.Ledger, activityLogger, logger.Named(log, "import"), cfg.Storage.PlaceholderImageURL)
			protected.GET("/sarees", inventoryHandler.List)
			protected.POST("/sarees", inventoryHandler.Create)
			protected.POST("/sarees/import", importHandler.ImportExcel)
			protected.GET("/sarees/export", inventoryHandler.ExportInventory)
			protected.GET("/sarees/template", importHandler.DownloadTemplate)
			protected.GET("/sarees/:id", inventoryHandler.Get)
			protected.PUT("/sarees/:id", inventoryHandler.Update)
			protected.DELETE("/sarees/:id", inventoryHandler.Delete)

			salesHandler := sales.NewHandler(d.Ledger, activityLogger, loc, logger.Named(log, "sales"))
			protected.GET("/sales", salesHandler.List)
			protected.POST("/sales", salesHandler.Create)
			protected.GET("/sales/export", salesHandler.Export)
			protected.PUT("/sales/:id", salesHandler.Update)
			protected.DELETE("/sales/:id", salesHandler.Delete)

			purchaseHandler := purchase.NewHandler(d.Ledger, activityLogger, loc, logger.Named(log, "purchase"))
			protected.GET("/purchases", purchaseHandler.List)
			protected.POST("/purchases", purchaseHandler.Create)

			reportsHandler := reports.NewHandler(d.Ledger, logger.Named(log, "reports"), reports.Options{
				Location: loc,
				Restock:  restock,
			})
			protected.GET("/reports/summary", reportsHandler.Summary)
			protected.GET("/reports/profit", reportsHandler.Profit)
			protected.GET("/reports/monthly", reportsHandler.Monthly)
			protected.GET("/reports/investment", reportsHandler.Investment)
			protected.GET("/reports/low-stock", reportsHandler.LowStock)
			protected.GET("/reports/restock", reportsHandler.Restock)
			protected.GET("/reports/types", reportsHandler.Types)
			if d.Digests != nil {
				protected.GET("/reports/digests", reports.NewDigestHandler(d.Digests, logger.Named(log, "digests")).List)
			}

			activityHandler := activity.NewHandler(activityLogger, logger.Named(log, "activity"))
			protected.GET("/activity", activityHandler.List)

			if d.Hub != nil {
				protected.GET("/ws", d.Hub.ServeWS)
			}
		}
	}

	return r
}
