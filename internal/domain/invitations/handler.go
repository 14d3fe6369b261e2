package invitations

import (
	"net/http"
	"time"

	"patient-access/internal/domain/accessgrants"
	"patient-access/internal/middleware"
	"patient-access/internal/platform/httpjson"
	"patient-access/internal/platform/logger"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, log logger.Logger) {
	r.Post("/invitations/redeem", redeemHandler(svc, log))
}

type redeemRequest struct {
	Code string `json:"code"`
}

type redemptionResponse struct {
	TokenID  string    `json:"token_id"`
	IssuerID string    `json:"issuer_id"`
	Kind     string    `json:"kind,omitempty"`
	Scope    []string  `json:"scope"`
	UsedAt   time.Time `json:"used_at"`
}

type grantSummary struct {
	ID         string                  `json:"id"`
	PatientID  string                  `json:"patient_id"`
	Role       accessgrants.Role       `json:"role"`
	Permission accessgrants.Permission `json:"permission"`
	DataTypes  []string                `json:"data_types"`
}

type redeemResponse struct {
	Redemption redemptionResponse `json:"redemption"`
	Grant      *grantSummary      `json:"grant,omitempty"`
}

// redeemHandler godoc
// @Summary     Redimir un código de invitación
// @Tags        invitations
// @Accept      json
// @Produce     json
// @Param       body body redeemRequest true "código de 8 caracteres"
// @Success     200 {object} redeemResponse
// @Failure     404 {object} httpjson.ErrorResponse
// @Failure     409 {object} httpjson.ErrorResponse "ya usado"
// @Failure     410 {object} httpjson.ErrorResponse "vencido"
// @Failure     429 {object} httpjson.ErrorResponse
// @Router      /invitations/redeem [post]
func redeemHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.UserID(r.Context())

		var req redeemRequest
		if err := httpjson.Decode(r, &req); err != nil {
			httpjson.WriteError(w, log, err)
			return
		}

		acc, err := svc.Accept(r.Context(), req.Code, userID)
		if err != nil {
			httpjson.WriteError(w, log, err)
			return
		}

		res := acc.Redemption
		out := redeemResponse{
			Redemption: redemptionResponse{
				TokenID:  res.TokenID,
				IssuerID: res.IssuerID,
				Kind:     string(res.Kind),
				Scope:    res.Scope.Strings(),
				UsedAt:   res.UsedAt,
			},
		}
		if g := acc.Grant; g != nil {
			out.Grant = &grantSummary{
				ID:         g.ID,
				PatientID:  g.PatientID,
				Role:       g.GrantedToRole,
				Permission: g.Permission,
				DataTypes:  g.DataTypes.Strings(),
			}
		}
		httpjson.WriteJSON(w, http.StatusOK, out)
	}
}
