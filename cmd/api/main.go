// @title       patient-access API
// @version     1.0
// @description Tokens de invitación, grants de acceso y evaluación de permisos sobre datos de pacientes.
// @BasePath    /
package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"patient-access/internal/adapters/auth/idp"
	"patient-access/internal/adapters/auth/jwtauth"
	amqpevents "patient-access/internal/adapters/events"
	"patient-access/internal/adapters/ratelimit"
	pg "patient-access/internal/adapters/storage/postgres"
	"patient-access/internal/config"
	"patient-access/internal/domain/accessgrants"
	"patient-access/internal/domain/accesstokens"
	"patient-access/internal/platform/logger"
	"patient-access/internal/platform/metrics"
	"patient-access/internal/ports/auth"
	"patient-access/internal/ports/events"
	portratelimit "patient-access/internal/ports/ratelimit"
	"patient-access/internal/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.NewFromEnv().Error("config load failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}

	log := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.Logging.Level),
		Format: logger.ParseFormat(cfg.Logging.Format),
		App:    "patient-access",
	})

	if err := run(cfg, log); err != nil {
		log.Error("server stopped with error", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
}

func run(cfg *config.Config, log logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var db *sql.DB
	if cfg.Database.DSN != "" {
		opened, err := pg.Open(cfg.Database.DSN)
		if err != nil {
			return err
		}
		defer opened.Close()
		db = opened

		if cfg.Database.AutoMigrate {
			if err := pg.Migrate(ctx, db); err != nil {
				return err
			}
			log.Info("schema migrated", nil)
		}
	} else {
		log.Warn("database.dsn empty, using in-memory storage", nil)
	}

	verifier, err := buildVerifier(cfg)
	if err != nil {
		return err
	}
	if verifier == nil {
		log.Warn("auth.mode=dev: X-Debug-User-ID accepted without verification", nil)
	}

	var hasher accesstokens.Hasher
	if cfg.Tokens.CodePepper != "" {
		if hasher, err = accesstokens.NewHasher(cfg.Tokens.CodePepper); err != nil {
			return err
		}
	} else {
		log.Warn("tokens.code_pepper empty, using dev pepper", nil)
	}

	var limiter portratelimit.Limiter
	if cfg.Redis.Addr != "" {
		rc, err := ratelimit.NewRedisClient(ctx, ratelimit.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		defer rc.Close()
		limiter = ratelimit.NewRedisLimiter(rc, cfg.Redeem.MaxAttempts, cfg.Redeem.Window)
	} else {
		limiter = ratelimit.NewMemoryLimiter(cfg.Redeem.MaxAttempts, cfg.Redeem.Window)
	}

	var publisher events.Publisher = events.Discard{}
	if cfg.AMQP.URI != "" {
		p, err := amqpevents.NewAMQPPublisher(cfg.AMQP.URI, cfg.AMQP.Exchange)
		if err != nil {
			return err
		}
		defer p.Close()
		publisher = p
	}

	defaultPerm, err := accessgrants.ParsePermission(cfg.Invitations.DefaultPermission)
	if err != nil {
		return err
	}

	h := router.NewRouter(router.Options{
		AuthVerifier:      verifier,
		DB:                db,
		Logger:            log,
		Limiter:           limiter,
		Publisher:         publisher,
		CodeHasher:        hasher,
		DefaultTTL:        cfg.Tokens.DefaultTTL,
		MaxTTL:            cfg.Tokens.MaxTTL,
		AutoGrant:         cfg.Invitations.AutoGrant,
		DefaultPermission: defaultPerm,
		Metrics:           metrics.New(),
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      h,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", map[string]any{"addr": srv.Addr, "auth_mode": cfg.Auth.Mode})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info("shutdown signal received", nil)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// buildVerifier devuelve nil en modo dev.
func buildVerifier(cfg *config.Config) (auth.AuthVerifier, error) {
	switch cfg.Auth.Mode {
	case config.AuthModeJWT:
		return jwtauth.NewVerifier(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer)
	case config.AuthModeRemote:
		return idp.NewVerifier(idp.Config{
			BaseURL: cfg.Auth.RemoteBaseURL,
			APIKey:  cfg.Auth.RemoteAPIKey,
		})
	default:
		return nil, nil
	}
}
