package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	goredis "github.com/redis/go-redis/v9"

	"github.com/Skotchmaster/corp_site/internal/events"
	"github.com/Skotchmaster/corp_site/internal/httpserver"
	"github.com/Skotchmaster/corp_site/internal/metrics"
	"github.com/Skotchmaster/corp_site/internal/middleware"
	"github.com/Skotchmaster/corp_site/internal/ratelimit"
	"github.com/Skotchmaster/corp_site/internal/repo"
	"github.com/Skotchmaster/corp_site/internal/service"
	"github.com/Skotchmaster/corp_site/pkg/config"
	"github.com/Skotchmaster/corp_site/pkg/db"
	"github.com/Skotchmaster/corp_site/pkg/logging"
	loggingmw "github.com/Skotchmaster/corp_site/pkg/middleware/logging"
	"github.com/Skotchmaster/corp_site/pkg/tokens"
)

func main() {
	cfg := config.Load()
	config.MustValid(cfg)
	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	gdb, err := db.Open(initCtx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}
	if err := repo.Migrate(gdb); err != nil {
		log.Fatalf("db migrate error: %v", err)
	}

	codec, err := tokens.NewCodec(cfg.JWTAccessSecret, cfg.JWTRefreshSecret, cfg.TokenIssuer)
	if err != nil {
		log.Fatalf("token codec: %v", err)
	}

	svc := &service.AuthService{
		Repo:       repo.New(gdb),
		Codec:      codec,
		AccessTTL:  cfg.AccessTTL,
		RefreshTTL: cfg.RefreshTTL,
		Seed: service.SeedConfig{
			Username: cfg.SeedAdminUsername,
			Email:    cfg.SeedAdminEmail,
			Password: cfg.SeedAdminPassword,
		},
		Events: events.NopPublisher{},
	}

	var redisClient *goredis.Client
	if cfg.RedisAddr != "" {
		redisClient = goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		svc.Limiter = ratelimit.NewLimiter(ratelimit.NewRedisStore(redisClient), cfg.LoginMaxAttempts, cfg.LoginWindow)
		logger.Info("login throttling enabled", "redis", cfg.RedisAddr, "max_attempts", cfg.LoginMaxAttempts, "window", cfg.LoginWindow)
	}

	var kafkaPub *events.KafkaPublisher
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPub = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		svc.Events = kafkaPub
		logger.Info("event publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	seedCtx, cancel := context.WithTimeout(logging.IntoContext(context.Background(), logger), 10*time.Second)
	if err := svc.SeedAdmin(seedCtx); err != nil {
		logger.Warn("seed admin failed", "error", err)
	}
	cancel()

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(metrics.Middleware())
	e.Use(loggingmw.RequestLogger(logger))

	httpserver.Register(e, &httpserver.Deps{
		AuthHandler:  &httpserver.AuthHTTP{Svc: svc, CookieSecure: cfg.CookieSecure},
		UsersHandler: &httpserver.UsersHTTP{Svc: svc},
		Gate:         middleware.NewGate(svc),
		Ready: func(ctx context.Context) error {
			return db.Ping(ctx, gdb)
		},
	})

	go func() {
		if err := e.Start(cfg.AuthAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("echo start: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("echo shutdown", "error", err)
	}
	svc.Wait()

	if kafkaPub != nil {
		if err := kafkaPub.Close(); err != nil {
			logger.Error("kafka writer close", "error", err)
		}
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error("redis close", "error", err)
		}
	}
	if err := db.Close(gdb); err != nil {
		logger.Error("db close", "error", err)
	}
}
