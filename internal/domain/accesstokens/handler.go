package accesstokens

import (
	"math"
	"net/http"
	"strings"
	"time"

	"patient-access/internal/domain/accesserr"
	"patient-access/internal/domain/scope"
	"patient-access/internal/middleware"
	"patient-access/internal/platform/httpjson"
	"patient-access/internal/platform/logger"

	"github.com/go-chi/chi/v5"
)

// maxTTLHours es el mayor ttl_hours que cabe en un time.Duration.
const maxTTLHours = math.MaxInt64 / int64(time.Hour)

// RegisterRoutes monta las rutas del emisor. Todas exigen usuario autenticado.
func RegisterRoutes(r chi.Router, svc *Service, log logger.Logger) {
	r.Route("/tokens", func(tr chi.Router) {
		tr.Post("/", createTokenHandler(svc, log))
		tr.Get("/", listTokensHandler(svc, log))
		tr.Delete("/{tokenID}", deleteTokenHandler(svc, log))
	})
}

type createTokenRequest struct {
	Kind          string     `json:"kind,omitempty"`
	RecipientHint string     `json:"recipient_hint,omitempty"`
	Scope         []string   `json:"scope"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	TTLHours      *int       `json:"ttl_hours,omitempty"`
}

type tokenResponse struct {
	ID            string     `json:"id"`
	IssuerID      string     `json:"issuer_id"`
	Kind          string     `json:"kind,omitempty"`
	RecipientHint string     `json:"recipient_hint,omitempty"`
	Scope         []string   `json:"scope"`
	Status        Status     `json:"status"`
	ExpiresAt     time.Time  `json:"expires_at"`
	IsUsed        bool       `json:"is_used"`
	UsedAt        *time.Time `json:"used_at,omitempty"`
	UsedByID      string     `json:"used_by_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// createTokenResponse es la única respuesta que lleva el código en claro.
type createTokenResponse struct {
	Token tokenResponse `json:"token"`
	Code  string        `json:"code"`
}

type listTokensResponse struct {
	Items  []tokenResponse `json:"items"`
	Active int             `json:"active"`
	Used   int             `json:"used"`
}

// createTokenHandler godoc
// @Summary     Crear token de acceso
// @Tags        tokens
// @Accept      json
// @Produce     json
// @Param       body body createTokenRequest true "scope y vencimiento"
// @Success     201 {object} createTokenResponse
// @Failure     400 {object} httpjson.ErrorResponse
// @Failure     401 {object} httpjson.ErrorResponse
// @Router      /tokens [post]
func createTokenHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.UserID(r.Context())

		var req createTokenRequest
		if err := httpjson.Decode(r, &req); err != nil {
			httpjson.WriteError(w, log, err)
			return
		}

		in, err := req.toInput(userID, svc.now())
		if err != nil {
			httpjson.WriteError(w, log, err)
			return
		}

		issued, err := svc.CreateToken(r.Context(), in)
		if err != nil {
			httpjson.WriteError(w, log, err)
			return
		}

		httpjson.WriteJSON(w, http.StatusCreated, createTokenResponse{
			Token: toTokenResponse(View{Token: issued.Token, Status: StatusActive}),
			Code:  issued.Code,
		})
	}
}

func (req createTokenRequest) toInput(issuerID string, now time.Time) (CreateInput, error) {
	kind, err := scope.ParseKind(req.Kind)
	if err != nil {
		return CreateInput{}, accesserr.Validation(err.Error())
	}
	set, err := scope.ParseSet(req.Scope)
	if err != nil {
		return CreateInput{}, accesserr.Validation(err.Error())
	}

	in := CreateInput{
		IssuerID:      issuerID,
		RecipientHint: strings.TrimSpace(req.RecipientHint),
		Kind:          kind,
		Scope:         set,
		ExpiresAt:     req.ExpiresAt,
	}

	if req.TTLHours != nil {
		if req.ExpiresAt != nil {
			return CreateInput{}, accesserr.Validation("expires_at and ttl_hours are mutually exclusive")
		}
		if *req.TTLHours <= 0 {
			return CreateInput{}, accesserr.Validation("ttl_hours must be positive")
		}
		if int64(*req.TTLHours) > maxTTLHours {
			return CreateInput{}, accesserr.Validation("ttl_hours out of range")
		}
		exp := now.Add(time.Duration(*req.TTLHours) * time.Hour)
		in.ExpiresAt = &exp
	}
	return in, nil
}

// listTokensHandler godoc
// @Summary     Listar tokens emitidos por el caller
// @Tags        tokens
// @Produce     json
// @Success     200 {object} listTokensResponse
// @Failure     401 {object} httpjson.ErrorResponse
// @Router      /tokens [get]
func listTokensHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.UserID(r.Context())

		views, err := svc.ListTokens(r.Context(), userID)
		if err != nil {
			httpjson.WriteError(w, log, err)
			return
		}

		out := listTokensResponse{
			Items:  make([]tokenResponse, 0, len(views)),
			Active: CountStatus(views, StatusActive),
			Used:   CountStatus(views, StatusUsed),
		}
		for _, v := range views {
			out.Items = append(out.Items, toTokenResponse(v))
		}
		httpjson.WriteJSON(w, http.StatusOK, out)
	}
}

// deleteTokenHandler godoc
// @Summary     Borrar token (idempotente)
// @Tags        tokens
// @Param       tokenID path string true "token id"
// @Success     204
// @Failure     403 {object} httpjson.ErrorResponse
// @Router      /tokens/{tokenID} [delete]
func deleteTokenHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.UserID(r.Context())

		if err := svc.Delete(r.Context(), chi.URLParam(r, "tokenID"), userID); err != nil {
			httpjson.WriteError(w, log, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func toTokenResponse(v View) tokenResponse {
	t := v.Token
	return tokenResponse{
		ID:            t.ID,
		IssuerID:      t.IssuerID,
		Kind:          string(t.Kind),
		RecipientHint: t.RecipientHint,
		Scope:         t.Scope.Strings(),
		Status:        v.Status,
		ExpiresAt:     t.ExpiresAt,
		IsUsed:        t.IsUsed,
		UsedAt:        t.UsedAt,
		UsedByID:      t.UsedByID,
		CreatedAt:     t.CreatedAt,
	}
}
