package authz

import (
	"context"
	"net/http"

	"patient-access/internal/domain/accesserr"
	"patient-access/internal/domain/accessgrants"
	"patient-access/internal/domain/scope"
	"patient-access/internal/middleware"
	"patient-access/internal/platform/httpjson"
	"patient-access/internal/platform/logger"

	"github.com/go-chi/chi/v5"
)

// Checker es lo que expone la ruta; *Evaluator lo implementa.
type Checker interface {
	HasAccess(ctx context.Context, recipientID, patientID string, sc scope.Label, required accessgrants.Permission) bool
}

func RegisterRoutes(r chi.Router, c Checker, log logger.Logger) {
	r.Get("/access/check", checkAccessHandler(c, log))
}

type checkResponse struct {
	PatientID string `json:"patient_id"`
	Scope     string `json:"scope"`
	Level     string `json:"level"`
	Allowed   bool   `json:"allowed"`
}

// checkAccessHandler godoc
// @Summary     Consultar si el caller puede acceder a una categoría de un paciente
// @Tags        access
// @Produce     json
// @Param       patient_id query string true  "paciente"
// @Param       scope      query string true  "categoría"
// @Param       level      query string false "read (default) o write"
// @Success     200 {object} checkResponse
// @Failure     400 {object} httpjson.ErrorResponse
// @Router      /access/check [get]
func checkAccessHandler(c Checker, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.UserID(r.Context())
		q := r.URL.Query()

		patientID := q.Get("patient_id")
		if patientID == "" {
			httpjson.WriteError(w, log, accesserr.Validation("patient_id required"))
			return
		}
		sc, err := scope.ParseLabel(q.Get("scope"))
		if err != nil {
			httpjson.WriteError(w, log, accesserr.Validation(err.Error()))
			return
		}
		level := accessgrants.PermissionRead
		if raw := q.Get("level"); raw != "" {
			p, err := accessgrants.ParsePermission(raw)
			if err != nil {
				httpjson.WriteError(w, log, accesserr.Validation(err.Error()))
				return
			}
			level = p
		}
		if level != accessgrants.PermissionRead && level != accessgrants.PermissionWrite {
			httpjson.WriteError(w, log, accesserr.Validation("level must be read or write"))
			return
		}

		httpjson.WriteJSON(w, http.StatusOK, checkResponse{
			PatientID: patientID,
			Scope:     string(sc),
			Level:     string(level),
			Allowed:   c.HasAccess(r.Context(), userID, patientID, sc, level),
		})
	}
}
