package router

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	mem "patient-access/internal/adapters/storage/memory"
	pg "patient-access/internal/adapters/storage/postgres"
	"patient-access/internal/domain/accessgrants"
	"patient-access/internal/domain/accesstokens"
	"patient-access/internal/domain/authz"
	"patient-access/internal/domain/invitations"
	"patient-access/internal/domain/patients"
	"patient-access/internal/middleware"
	"patient-access/internal/platform/logger"
	"patient-access/internal/platform/metrics"
	"patient-access/internal/ports/auth"
	"patient-access/internal/ports/events"
	"patient-access/internal/ports/ratelimit"

	_ "patient-access/docs"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)

	// Opcional: si viene, usa Postgres. Si no, in-memory.
	DB *sql.DB

	Logger    logger.Logger
	Limiter   ratelimit.Limiter
	Publisher events.Publisher

	CodeHasher accesstokens.Hasher
	DefaultTTL time.Duration
	MaxTTL     time.Duration

	AutoGrant         bool
	DefaultPermission accessgrants.Permission

	// Metrics nil => sin /metrics ni instrumentación.
	Metrics *metrics.Metrics
}

func NewRouter(opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Recover(log))
	r.Use(middleware.AuthContext(opts.AuthVerifier, log))
	r.Use(middleware.AccessLog(log))
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Middleware)
		r.Handle("/metrics", opts.Metrics.Handler())
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", readyHandler(opts.DB))
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	var (
		tokenRepo   accesstokens.Repository
		grantRepo   accessgrants.Repository
		patientRepo patients.Repository
	)

	if opts.DB != nil {
		tokenRepo = pg.NewAccessTokensRepo(opts.DB)
		grantRepo = pg.NewAccessGrantsRepo(opts.DB)
		patientRepo = pg.NewPatientsRepo(opts.DB)
	} else {
		tokenRepo = mem.NewAccessTokensRepo()
		grantRepo = mem.NewAccessGrantsRepo()
		patientRepo = mem.NewPatientsRepo()
	}

	// Services por módulo
	patientsSvc := patients.NewService(patientRepo)
	tokensSvc := accesstokens.NewService(tokenRepo, accesstokens.Options{
		Hasher:     opts.CodeHasher,
		Limiter:    opts.Limiter,
		Publisher:  opts.Publisher,
		Logger:     log,
		DefaultTTL: opts.DefaultTTL,
		MaxTTL:     opts.MaxTTL,
	})
	grantsSvc := accessgrants.NewService(grantRepo, accessgrants.Options{
		Directory: patientsSvc,
		Publisher: opts.Publisher,
		Logger:    log,
	})
	var redeemer invitations.Redeemer = tokensSvc
	var checker authz.Checker = authz.NewEvaluator(grantRepo, log)
	if opts.Metrics != nil {
		redeemer = opts.Metrics.InstrumentRedeemer(tokensSvc)
		checker = opts.Metrics.InstrumentChecker(checker)
	}

	invitationsSvc := invitations.NewService(redeemer, grantsSvc, invitations.Options{
		AutoGrant:         opts.AutoGrant,
		DefaultPermission: opts.DefaultPermission,
		Logger:            log,
	})

	// Rutas por módulo; todas requieren usuario
	r.Group(func(pr chi.Router) {
		pr.Use(middleware.RequireUser)

		accesstokens.RegisterRoutes(pr, tokensSvc, log)
		invitations.RegisterRoutes(pr, invitationsSvc, log)
		accessgrants.RegisterRoutes(pr, grantsSvc, log)
		authz.RegisterRoutes(pr, checker, log)
		patients.RegisterRoutes(pr, patientsSvc, log)
	})

	return r
}

// readyHandler: sin DB (in-memory) siempre está listo.
func readyHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				http.Error(w, "db unreachable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}
