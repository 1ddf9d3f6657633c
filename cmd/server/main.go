package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/yuditriaji/ruhmrita-backend/internal/analytics"
	"github.com/yuditriaji/ruhmrita-backend/internal/auth"
	"github.com/yuditriaji/ruhmrita-backend/internal/config"
	"github.com/yuditriaji/ruhmrita-backend/internal/ledger"
	"github.com/yuditriaji/ruhmrita-backend/internal/reports"
	"github.com/yuditriaji/ruhmrita-backend/internal/router"
	"github.com/yuditriaji/ruhmrita-backend/internal/scheduler"
	"github.com/yuditriaji/ruhmrita-backend/internal/store"
	"github.com/yuditriaji/ruhmrita-backend/pkg/archive"
	"github.com/yuditriaji/ruhmrita-backend/pkg/database"
	"github.com/yuditriaji/ruhmrita-backend/pkg/email"
	"github.com/yuditriaji/ruhmrita-backend/pkg/logger"
	"github.com/yuditriaji/ruhmrita-backend/pkg/realtime"
	"github.com/yuditriaji/ruhmrita-backend/pkg/storage"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.LogLevel))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	var st store.Store
	switch cfg.Store.Driver {
	case "memory":
		baseLogger.Warn("using in-memory store, data is lost on restart")
		st = store.NewMemoryStore(nil)
	default:
		db, err := database.Connect(cfg.Store.DatabaseURL, baseLogger.Named("database"))
		if err != nil {
			baseLogger.Fatal("failed to connect to database", zap.Error(err))
		}
		if err := database.Migrate(db); err != nil {
			baseLogger.Fatal("failed to run migrations", zap.Error(err))
		}
		st = store.NewGormStore(db)
	}

	bootCtx, cancelBoot := context.WithTimeout(context.Background(), 30*time.Second)
	if _, err := auth.EnsureOwner(bootCtx, st, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword, baseLogger.Named("auth")); err != nil {
		baseLogger.Fatal("failed to create owner account", zap.Error(err))
	}

	hub := realtime.NewHub(cfg.Server.CORSOrigins, baseLogger.Named("realtime"))
	defer hub.Close()

	l := ledger.New(st,
		ledger.WithLogger(baseLogger.Named("ledger")),
		ledger.WithNotifier(ledger.NotifierFunc(func(e ledger.Event) { hub.Publish(e) })),
	)
	if err := l.Refresh(bootCtx); err != nil {
		baseLogger.Warn("initial snapshot load failed, retrying on first read", zap.Error(err))
	}

	var uploader storage.Uploader
	switch cfg.Storage.Driver {
	case "bucket":
		uploader = storage.NewBucketUploader(cfg.Storage.BaseURL, cfg.Storage.APIKey, cfg.Storage.Bucket)
	default:
		uploader = storage.NewLocalUploader(cfg.Storage.UploadDir, cfg.Storage.PublicBaseURL)
	}

	mailer := email.NewEmailService(cfg.Email.ResendAPIKey, cfg.Email.FromAddress, "")
	if !mailer.IsConfigured() {
		baseLogger.Warn("email api key missing, restock digest will not be mailed")
	}

	var archiver scheduler.Archiver
	var digests reports.DigestReader
	if cfg.MongoDB.URI != "" {
		mongoArchive, err := archive.NewMongoArchive(bootCtx, cfg.MongoDB.URI, cfg.MongoDB.DBName)
		if err != nil {
			baseLogger.Fatal("failed to init mongodb archive", zap.Error(err))
		}
		defer func() {
			if err := mongoArchive.Close(context.Background()); err != nil {
				baseLogger.Error("failed to close mongodb connection", zap.Error(err))
			}
		}()
		archiver = mongoArchive
		digests = mongoArchive
	}
	cancelBoot()

	sched := scheduler.NewScheduler(l, mailer, archiver, scheduler.Options{
		Spec:     cfg.Reporting.DigestCron,
		Location: cfg.Reporting.Location(),
		MailTo:   cfg.Reporting.DigestEmailTo,
		Restock: analytics.RestockOptions{
			LowStockThreshold:    cfg.Reporting.LowStockThreshold,
			FastSellingThreshold: cfg.Reporting.FastSellingThreshold,
			WindowDays:           cfg.Reporting.WindowDays,
		},
	}, baseLogger.Named("scheduler"))
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to schedule restock digest", zap.Error(err))
	}
	defer sched.Stop()

	engine := router.New(router.Deps{
		Config:   cfg,
		Store:    st,
		Ledger:   l,
		Uploader: uploader,
		Hub:      hub,
		Digests:  digests,
		Logger:   baseLogger.Named("router"),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
