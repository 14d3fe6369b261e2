package accessgrants

import (
	"net/http"
	"time"

	"patient-access/internal/domain/accesserr"
	"patient-access/internal/domain/scope"
	"patient-access/internal/middleware"
	"patient-access/internal/platform/httpjson"
	"patient-access/internal/platform/logger"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, log logger.Logger) {
	// Paciente: alta, auditoría y revocación
	r.Route("/grants", func(gr chi.Router) {
		gr.Post("/", createGrantHandler(svc, log))
		gr.Get("/", listPatientGrantsHandler(svc, log))
		gr.Post("/{grantID}/revoke", revokeGrantHandler(svc, log))
	})

	// Destinatario: grants efectivos sobre otros pacientes
	r.Get("/me/grants", listMyGrantsHandler(svc, log))
}

type createGrantRequest struct {
	GrantedToID string     `json:"granted_to_id"`
	Role        string     `json:"role"`
	Permission  string     `json:"permission"`
	DataTypes   []string   `json:"data_types"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

type grantResponse struct {
	ID            string     `json:"id"`
	PatientID     string     `json:"patient_id"`
	GrantedToID   string     `json:"granted_to_id"`
	GrantedToRole Role       `json:"granted_to_role"`
	Permission    Permission `json:"permission"`
	DataTypes     []string   `json:"data_types"`
	Status        Status     `json:"status"`
	GrantedAt     time.Time  `json:"granted_at"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	RevokedAt     *time.Time `json:"revoked_at,omitempty"`
}

type patientResponse struct {
	PatientID string `json:"patient_id"`
	Name      string `json:"name,omitempty"`
	Email     string `json:"email,omitempty"`
}

type sharedWithMeResponse struct {
	Grant   grantResponse   `json:"grant"`
	Patient patientResponse `json:"patient"`
}

// createGrantHandler godoc
// @Summary     Otorgar acceso a un destinatario
// @Tags        grants
// @Accept      json
// @Produce     json
// @Param       body body createGrantRequest true "grant"
// @Success     201 {object} grantResponse
// @Failure     400 {object} httpjson.ErrorResponse
// @Router      /grants [post]
func createGrantHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.UserID(r.Context())

		var req createGrantRequest
		if err := httpjson.Decode(r, &req); err != nil {
			httpjson.WriteError(w, log, err)
			return
		}

		in, err := req.toInput(userID)
		if err != nil {
			httpjson.WriteError(w, log, err)
			return
		}

		g, err := svc.Grant(r.Context(), in)
		if err != nil {
			httpjson.WriteError(w, log, err)
			return
		}
		httpjson.WriteJSON(w, http.StatusCreated, toGrantResponse(g, g.StatusAt(svc.now())))
	}
}

func (req createGrantRequest) toInput(patientID string) (GrantInput, error) {
	role, err := ParseRole(req.Role)
	if err != nil {
		return GrantInput{}, accesserr.Validation(err.Error())
	}
	perm, err := ParsePermission(req.Permission)
	if err != nil {
		return GrantInput{}, accesserr.Validation(err.Error())
	}
	set, err := scope.ParseSet(req.DataTypes)
	if err != nil {
		return GrantInput{}, accesserr.Validation(err.Error())
	}
	return GrantInput{
		PatientID:   patientID,
		GrantedToID: req.GrantedToID,
		Role:        role,
		Permission:  perm,
		DataTypes:   set,
		ExpiresAt:   req.ExpiresAt,
	}, nil
}

// listPatientGrantsHandler godoc
// @Summary     Historial de grants del paciente (incluye revocados y vencidos)
// @Tags        grants
// @Produce     json
// @Success     200 {array} grantResponse
// @Router      /grants [get]
func listPatientGrantsHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.UserID(r.Context())

		items, err := svc.ListForPatient(r.Context(), userID)
		if err != nil {
			httpjson.WriteError(w, log, err)
			return
		}

		out := make([]grantResponse, 0, len(items))
		for _, e := range items {
			out = append(out, toGrantResponse(e.Grant, e.Status))
		}
		httpjson.WriteJSON(w, http.StatusOK, out)
	}
}

// revokeGrantHandler godoc
// @Summary     Revocar un grant (idempotente)
// @Tags        grants
// @Produce     json
// @Param       grantID path string true "grant id"
// @Success     200 {object} grantResponse
// @Failure     403 {object} httpjson.ErrorResponse
// @Failure     404 {object} httpjson.ErrorResponse
// @Router      /grants/{grantID}/revoke [post]
func revokeGrantHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.UserID(r.Context())

		g, err := svc.Revoke(r.Context(), chi.URLParam(r, "grantID"), userID)
		if err != nil {
			httpjson.WriteError(w, log, err)
			return
		}
		httpjson.WriteJSON(w, http.StatusOK, toGrantResponse(g, StatusRevoked))
	}
}

// listMyGrantsHandler godoc
// @Summary     Pacientes que compartieron datos con el caller
// @Tags        grants
// @Produce     json
// @Success     200 {array} sharedWithMeResponse
// @Router      /me/grants [get]
func listMyGrantsHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.UserID(r.Context())

		items, err := svc.ListForRecipient(r.Context(), userID)
		if err != nil {
			httpjson.WriteError(w, log, err)
			return
		}

		out := make([]sharedWithMeResponse, 0, len(items))
		for _, it := range items {
			out = append(out, sharedWithMeResponse{
				Grant: toGrantResponse(it.Grant, StatusActive),
				Patient: patientResponse{
					PatientID: it.Patient.PatientID,
					Name:      it.Patient.Name,
					Email:     it.Patient.Email,
				},
			})
		}
		httpjson.WriteJSON(w, http.StatusOK, out)
	}
}

func toGrantResponse(g Grant, st Status) grantResponse {
	return grantResponse{
		ID:            g.ID,
		PatientID:     g.PatientID,
		GrantedToID:   g.GrantedToID,
		GrantedToRole: g.GrantedToRole,
		Permission:    g.Permission,
		DataTypes:     g.DataTypes.Strings(),
		Status:        st,
		GrantedAt:     g.GrantedAt,
		ExpiresAt:     g.ExpiresAt,
		RevokedAt:     g.RevokedAt,
	}
}
