// Package metrics expone contadores Prometheus del flujo de acceso y un
// histograma de latencia HTTP. Usa un registry propio (no el global).
package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"patient-access/internal/domain/accessgrants"
	"patient-access/internal/domain/accesserr"
	"patient-access/internal/domain/accesstokens"
	"patient-access/internal/domain/scope"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	reg *prometheus.Registry

	redemptions  *prometheus.CounterVec
	accessChecks *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),

		// outcome: success/not_found/already_used/expired/rate_limited/invalid/error
		redemptions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "patient_access_token_redemptions_total",
				Help: "Token redemption attempts by outcome",
			},
			[]string{"outcome"},
		),

		accessChecks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "patient_access_checks_total",
				Help: "Authorization decisions by scope and result",
			},
			[]string{"scope", "result"},
		),

		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "patient_access_http_request_duration_seconds",
				Help:    "Time spent serving HTTP requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
	}
	m.reg.MustRegister(m.redemptions, m.accessChecks, m.httpDuration)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// Middleware etiqueta por patrón de ruta chi, no por path crudo, para no
// abrir una serie por cada id.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.httpDuration.WithLabelValues(r.Method, route, strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
	})
}

// RedeemOutcome clasifica el resultado de un canje para la etiqueta outcome.
func RedeemOutcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, accesserr.ErrNotFound):
		return "not_found"
	case errors.Is(err, accesserr.ErrAlreadyUsed):
		return "already_used"
	case errors.Is(err, accesserr.ErrExpired):
		return "expired"
	case errors.Is(err, accesserr.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, accesserr.ErrValidation):
		return "invalid"
	default:
		return "error"
	}
}

type Redeemer interface {
	Redeem(ctx context.Context, code, redeemerID string) (accesstokens.RedemptionResult, error)
}

type instrumentedRedeemer struct {
	next Redeemer
	m    *Metrics
}

// InstrumentRedeemer envuelve el token store; cuenta cada intento por outcome.
func (m *Metrics) InstrumentRedeemer(next Redeemer) Redeemer {
	return &instrumentedRedeemer{next: next, m: m}
}

func (r *instrumentedRedeemer) Redeem(ctx context.Context, code, redeemerID string) (accesstokens.RedemptionResult, error) {
	res, err := r.next.Redeem(ctx, code, redeemerID)
	r.m.redemptions.WithLabelValues(RedeemOutcome(err)).Inc()
	return res, err
}

type Checker interface {
	HasAccess(ctx context.Context, recipientID, patientID string, sc scope.Label, required accessgrants.Permission) bool
}

type instrumentedChecker struct {
	next Checker
	m    *Metrics
}

func (m *Metrics) InstrumentChecker(next Checker) Checker {
	return &instrumentedChecker{next: next, m: m}
}

func (c *instrumentedChecker) HasAccess(ctx context.Context, recipientID, patientID string, sc scope.Label, required accessgrants.Permission) bool {
	ok := c.next.HasAccess(ctx, recipientID, patientID, sc, required)
	result := "denied"
	if ok {
		result = "allowed"
	}
	c.m.accessChecks.WithLabelValues(string(sc), result).Inc()
	return ok
}
