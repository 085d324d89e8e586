package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sbag9697/wealth-face-ai/internal/application"
	appanalysis "github.com/sbag9697/wealth-face-ai/internal/application/analysis"
	appcheckout "github.com/sbag9697/wealth-face-ai/internal/application/checkout"
	"github.com/sbag9697/wealth-face-ai/internal/config"
	"github.com/sbag9697/wealth-face-ai/internal/domain/session"
	aiclient "github.com/sbag9697/wealth-face-ai/internal/infra/ai/openai"
	"github.com/sbag9697/wealth-face-ai/internal/infra/db/memory"
	mysqlp "github.com/sbag9697/wealth-face-ai/internal/infra/db/mysql"
	postgresp "github.com/sbag9697/wealth-face-ai/internal/infra/db/postgres"
	"github.com/sbag9697/wealth-face-ai/internal/infra/httpserver"
	"github.com/sbag9697/wealth-face-ai/internal/infra/payment/toss"
	minioStore "github.com/sbag9697/wealth-face-ai/internal/infra/storage"
	"github.com/sbag9697/wealth-face-ai/internal/infra/token"
	"github.com/sbag9697/wealth-face-ai/internal/logger"
	"github.com/sbag9697/wealth-face-ai/internal/middleware"
)

func main() {
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	cfg, err := config.Load(path)
	if err != nil {
		logger.Log.Fatalf("config load error: %v", err)
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.File); err != nil {
		logger.Log.Fatalf("logger init error: %v", err)
	}

	ctx := context.Background()

	sessions, db, err := openSessions(ctx, cfg)
	if err != nil {
		logger.Log.Fatalf("%s connect error: %v", cfg.Database.Driver, err)
	}
	if db != nil {
		defer db.Close()
	}

	health := map[string]middleware.HealthChecker{
		"sessions": middleware.PingChecker(sessions.Ping),
	}

	if cfg.AI.APIKey == "" {
		logger.Log.Warn("GEMINI_API_KEY is not set; every reading will be the fallback")
	}
	ai := aiclient.NewClient(cfg.AI.APIKey, cfg.AI.BaseURL, cfg.AI.Timeout, cfg.Analysis.MatchRateMin, cfg.Analysis.MatchRateMax)

	analysisSvc := &appanalysis.Service{
		Model:         ai,
		Lister:        ai,
		Sessions:      sessions,
		Clock:         application.SystemClock{},
		PrimaryModel:  cfg.AI.PrimaryModel,
		FallbackModel: cfg.AI.FallbackModel,
		RetryDelay:    cfg.AI.RetryDelay,
		MatchRateMin:  cfg.Analysis.MatchRateMin,
		MatchRateMax:  cfg.Analysis.MatchRateMax,
	}

	if cfg.MinioEnabled() {
		store, err := minioStore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			logger.Log.Fatalf("minio init error: %v", err)
		}
		analysisSvc.Archive = store
		health["archive"] = store
	}

	gateway := toss.NewClient(cfg.Payment.BaseURL, cfg.Payment.SecretKey, cfg.Payment.Timeout)
	if !gateway.Configured() {
		logger.Log.Warn("TOSS_SECRET_KEY is not set; payment confirmation will answer 503")
	}
	checkoutSvc := &appcheckout.Service{
		Sessions:     sessions,
		Gateway:      gateway,
		Clock:        application.SystemClock{},
		Amount:       cfg.Payment.Amount,
		OrderName:    cfg.Payment.OrderName,
		CustomerName: cfg.Payment.CustomerName,
		ClientKey:    cfg.Payment.ClientKey,
		PublicURL:    cfg.Server.PublicURL,
	}

	if cfg.Session.SigningKey == "" {
		logger.Log.Warn("SESSION_SIGNING_KEY is not set; tokens will not survive a restart")
	}
	signer, err := token.NewSigner(cfg.Session.SigningKey, cfg.Session.TTL)
	if err != nil {
		logger.Log.Fatalf("session signer error: %v", err)
	}

	proxies, err := middleware.ParseProxies(cfg.Server.TrustedProxies)
	if err != nil {
		logger.Log.Fatalf("config error: %v", err)
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	done := make(chan struct{})
	limiter.StartCleanup(5*time.Minute, done)

	handler := httpserver.NewRouter(analysisSvc, checkoutSvc, signer, httpserver.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AdminKeys:      cfg.Server.AdminKeys,
		CookieName:     cfg.Session.CookieName,
		CookieSecure:   strings.HasPrefix(cfg.Server.PublicURL, "https://"),
		SessionTTL:     cfg.Session.TTL,
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
		TrustedProxies: proxies,
		RateLimit:      limiter,
		Health:         health,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.AI.Timeout*2 + cfg.AI.RetryDelay + 15*time.Second, // two model calls per upload
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Log.Infof("server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatalf("server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.Log.Info("shutting down server...")
	close(done)

	ctx2, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		logger.Log.Errorf("shutdown error: %v", err)
	}
}

// openSessions picks the session store by driver. db is nil for memory.
func openSessions(ctx context.Context, cfg *config.Config) (session.Repository, *sql.DB, error) {
	switch cfg.Database.Driver {
	case "mysql":
		db, err := mysqlp.Connect(ctx, cfg.DSN())
		if err != nil {
			return nil, nil, err
		}
		if err := mysqlp.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		return mysqlp.NewSessionRepository(db), db, nil
	case "postgres":
		db, err := postgresp.Connect(ctx, cfg.DSN())
		if err != nil {
			return nil, nil, err
		}
		if err := postgresp.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		return postgresp.NewSessionRepository(db), db, nil
	case "memory":
		logger.Log.Warn("using in-memory session store; sessions are lost on restart")
		return memory.NewSessionRepository(), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
}
