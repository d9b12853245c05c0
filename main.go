package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexedwards/scs/v2"
	scsmem "github.com/alexedwards/scs/v2/memstore"
	"github.com/joho/godotenv"
	"github.com/kevinaaaquil/intelliread/auth"
	"github.com/kevinaaaquil/intelliread/config"
	"github.com/kevinaaaquil/intelliread/handlers"
	"github.com/kevinaaaquil/intelliread/middleware"
	"github.com/kevinaaaquil/intelliread/service"
	"github.com/kevinaaaquil/intelliread/store"
	"github.com/kevinaaaquil/intelliread/store/memstore"
	"github.com/kevinaaaquil/intelliread/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// backend is everything the services need from persistence. *store.DB and
// *memstore.Store both provide it.
type backend interface {
	auth.AccountStore
	auth.AdminStore
	auth.OTPStore
	auth.LoginHistorySink
	handlers.CatalogStore
	handlers.DashboardStore
	service.NotificationLogStore
	Ping(ctx context.Context) error
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "err", err)
		os.Exit(1)
	}
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(log)

	if cfg.StoreBackend == config.BackendMongo {
		if err := config.ValidateEnv(log); err != nil {
			log.Error("env check failed", "err", err)
			os.Exit(1)
		}
	}

	ctx := context.Background()
	db, sessionStore, closeStore, err := openBackend(ctx, cfg, log)
	if err != nil {
		log.Error("store", "backend", cfg.StoreBackend, "err", err)
		os.Exit(1)
	}
	defer closeStore()

	sessions := scs.New()
	sessions.Store = sessionStore
	sessions.Lifetime = cfg.SessionLifetime
	sessions.Cookie.Name = "intelliread_session"
	sessions.Cookie.HttpOnly = true
	sessions.Cookie.Secure = cfg.CookieSecure
	sessions.Cookie.SameSite = http.SameSiteLaxMode
	sessions.Cookie.Persist = true

	var notifier auth.Notifier
	if cfg.SMTPHost != "" {
		notifier = service.NewMailer(service.MailerOptions{
			Host:      cfg.SMTPHost,
			Port:      cfg.SMTPPort,
			Username:  cfg.SMTPUser,
			Password:  cfg.SMTPPass,
			From:      cfg.SMTPFrom,
			StartTLS:  cfg.SMTPStartTLS,
			AppURL:    cfg.AppURL,
			AppName:   "IntelliRead",
			DialLimit: 10 * time.Second,
		}, db, log)
	} else {
		log.Warn("SMTP_HOST not set; notifications are only logged")
		notifier = service.NewLogNotifier("IntelliRead", db, log)
	}
	dispatch := auth.NewDispatcher(notifier, log)

	hasher := auth.NewHasher(cfg.BcryptCost, cfg.HashWorkers)
	creds := auth.NewCredentials(db, db, db, hasher, dispatch, log)
	ledger := auth.NewLedger(db, db, db, creds, hasher, dispatch, log)
	approvals := auth.NewApprovals(db, dispatch, log)
	gate := auth.NewGate(sessions, log)
	tokens := auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL)

	if cfg.AdminPassword != "" {
		created, err := creds.SeedAdmin(ctx, cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword)
		if err != nil {
			log.Error("seed admin", "err", err)
			os.Exit(1)
		}
		if created {
			log.Info("default admin created", "email", cfg.AdminEmail)
		}
	}

	var objects handlers.ObjectStore
	if cfg.S3Bucket != "" {
		s3Service, err := service.NewS3Service(ctx, service.S3Options{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretKey,
			Endpoint:        cfg.S3Endpoint,
		})
		if err != nil {
			log.Error("s3", "err", err)
			os.Exit(1)
		}
		objects = s3Service
	} else {
		log.Warn("AWS_S3_BUCKET not set; uploads and downloads are disabled")
	}
	var metadata handlers.MetadataLookup
	if cfg.MetadataEnabled {
		metadata = service.NewMetadataClient()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	auth.RegisterMetrics(reg)
	middleware.RegisterMetrics(reg)

	router := &handlers.Router{
		Auth: &handlers.AuthHandler{Creds: creds, Gate: gate, Tokens: tokens, Log: log},
		OTP:  &handlers.OTPHandler{Ledger: ledger},
		Books: &handlers.BooksHandler{
			Catalog: db,
			Objects: objects,
			Log:     log,
		},
		Publisher: &handlers.PublisherHandler{
			Gate:     gate,
			Catalog:  db,
			Objects:  objects,
			Metadata: metadata,
			MaxBytes: cfg.MaxUploadMB * 1024 * 1024,
			Log:      log,
		},
		Admin: &handlers.AdminHandler{
			Gate:      gate,
			Approvals: approvals,
			Creds:     creds,
			Catalog:   db,
			Dashboard: db,
			Objects:   objects,
			Log:       log,
		},
		Gate:        gate,
		Tokens:      tokens,
		Limiter:     middleware.NewRateLimiter(cfg.RateLimitPerMinute, cfg.RateLimitBurst),
		CORSOrigins: cfg.CORSOrigins,
		Health:      db.Ping,
		Metrics:     middleware.MetricsHandler(reg),
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("server listening", "addr", server.Addr, "store", cfg.StoreBackend)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("listen", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", "err", err)
	}
	dispatch.Wait()
}

// openBackend connects the configured store and returns the matching session store.
func openBackend(ctx context.Context, cfg *config.Config, log *slog.Logger) (backend, scs.Store, func(), error) {
	if cfg.StoreBackend == config.BackendMemory {
		log.Warn("using in-memory store; all data is lost on restart")
		return memstore.New(), scsmem.New(), func() {}, nil
	}

	db, err := store.NewMongoDB(ctx, cfg.MongoURI, cfg.DBName)
	if err != nil {
		return nil, nil, nil, err
	}
	closeDB := func() {
		if err := db.Disconnect(context.Background()); err != nil {
			log.Error("mongodb disconnect", "err", err)
		}
	}
	if cfg.OTPEncryptionKey != nil {
		sealer, err := utils.NewSealer(cfg.OTPEncryptionKey)
		if err != nil {
			closeDB()
			return nil, nil, nil, err
		}
		db.WithSealer(sealer)
	}
	if err := db.EnsureIndexes(ctx); err != nil {
		closeDB()
		return nil, nil, nil, err
	}
	return db, db.SessionStore(), closeDB, nil
}
