// Package authz expone el único punto de decisión de acceso a datos de un
// paciente. Todo servicio que sirva datos protegidos debe llamar HasAccess.
package authz

import (
	"context"
	"strings"
	"time"

	"patient-access/internal/domain/accessgrants"
	"patient-access/internal/domain/scope"
	"patient-access/internal/platform/logger"
)

// GrantFinder es la consulta indexada por (granted_to_id, patient_id).
type GrantFinder interface {
	ListByRecipientAndPatient(ctx context.Context, grantedToID, patientID string) ([]accessgrants.Grant, error)
}

type Evaluator struct {
	grants GrantFinder
	log    logger.Logger
	now    func() time.Time
}

func NewEvaluator(grants GrantFinder, log logger.Logger) *Evaluator {
	if log == nil {
		log = logger.Nop()
	}
	return &Evaluator{
		grants: grants,
		log:    log.With(map[string]any{"component": "authz"}),
		now:    time.Now,
	}
}

// HasAccess responde si recipient puede acceder a la categoría sc de patient
// con al menos el nivel required. Nunca devuelve error: "sin grant", "revocado",
// "vencido" y fallas de storage son todos false.
func (e *Evaluator) HasAccess(ctx context.Context, recipientID, patientID string, sc scope.Label, required accessgrants.Permission) bool {
	recipientID = strings.TrimSpace(recipientID)
	patientID = strings.TrimSpace(patientID)
	if recipientID == "" || patientID == "" || !sc.Valid() {
		return false
	}
	if required != accessgrants.PermissionRead && required != accessgrants.PermissionWrite {
		return false
	}

	items, err := e.grants.ListByRecipientAndPatient(ctx, recipientID, patientID)
	if err != nil {
		e.log.Error("grant lookup failed, denying", map[string]any{
			"recipient_id": recipientID,
			"patient_id":   patientID,
			"error":        err.Error(),
		})
		return false
	}

	// reloj leído en cada llamada; nada se cachea
	now := e.now()
	for _, g := range items {
		if g.GrantedToID != recipientID || g.PatientID != patientID {
			continue
		}
		if !g.EffectiveAt(now) {
			continue
		}
		if g.DataTypes.Has(sc) && g.Permission.Satisfies(required) {
			return true
		}
	}
	return false
}
