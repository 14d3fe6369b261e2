package patients

import (
	"net/http"
	"time"

	"patient-access/internal/middleware"
	"patient-access/internal/platform/httpjson"
	"patient-access/internal/platform/logger"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, log logger.Logger) {
	r.Route("/me/profile", func(pr chi.Router) {
		pr.Get("/", getProfileHandler(svc, log))
		pr.Put("/", putProfileHandler(svc, log))
	})
}

type profileRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type profileResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func getProfileHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.UserID(r.Context())

		p, err := svc.GetByID(r.Context(), userID)
		if err != nil {
			httpjson.WriteError(w, log, err)
			return
		}
		httpjson.WriteJSON(w, http.StatusOK, toProfileResponse(p))
	}
}

// putProfileHandler godoc
// @Summary     Crear o actualizar el perfil del paciente
// @Tags        patients
// @Accept      json
// @Produce     json
// @Param       body body profileRequest true "perfil"
// @Success     200 {object} profileResponse
// @Failure     400 {object} httpjson.ErrorResponse
// @Router      /me/profile [put]
func putProfileHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.UserID(r.Context())

		var req profileRequest
		if err := httpjson.Decode(r, &req); err != nil {
			httpjson.WriteError(w, log, err)
			return
		}

		p, err := svc.UpsertProfile(r.Context(), userID, UpsertInput{Name: req.Name, Email: req.Email})
		if err != nil {
			httpjson.WriteError(w, log, err)
			return
		}
		httpjson.WriteJSON(w, http.StatusOK, toProfileResponse(p))
	}
}

func toProfileResponse(p Profile) profileResponse {
	return profileResponse{
		ID:        p.ID,
		Name:      p.Name,
		Email:     p.Email,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}
