package accessgrants

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"patient-access/internal/domain/accesserr"
	"patient-access/internal/domain/scope"
	"patient-access/internal/platform/logger"
	"patient-access/internal/ports/events"

	"github.com/google/uuid"
)

type Options struct {
	Directory PatientDirectory
	Publisher events.Publisher
	Logger    logger.Logger
}

type Service struct {
	repo      Repository
	directory PatientDirectory
	publisher events.Publisher
	log       logger.Logger
	now       func() time.Time
}

func NewService(repo Repository, opts Options) *Service {
	s := &Service{
		repo:      repo,
		directory: opts.Directory,
		publisher: opts.Publisher,
		log:       opts.Logger,
		now:       time.Now,
	}
	if s.publisher == nil {
		s.publisher = events.Discard{}
	}
	if s.log == nil {
		s.log = logger.Nop()
	}
	s.log = s.log.With(map[string]any{"component": "accessgrants"})
	return s
}

type GrantInput struct {
	PatientID   string
	GrantedToID string
	Role        Role
	Permission  Permission
	DataTypes   scope.Set
	ExpiresAt   *time.Time
}

// Grant crea siempre una fila nueva, aunque ya exista un grant equivalente.
func (s *Service) Grant(ctx context.Context, in GrantInput) (Grant, error) {
	patientID := strings.TrimSpace(in.PatientID)
	grantedToID := strings.TrimSpace(in.GrantedToID)

	if patientID == "" || grantedToID == "" {
		return Grant{}, accesserr.Validation("patient and recipient required")
	}
	if patientID == grantedToID {
		return Grant{}, accesserr.Validation("patient cannot grant to self")
	}
	role, err := ParseRole(string(in.Role))
	if err != nil {
		return Grant{}, accesserr.Validation(err.Error())
	}
	perm, err := ParsePermission(string(in.Permission))
	if err != nil {
		return Grant{}, accesserr.Validation(err.Error())
	}
	if in.DataTypes.Empty() {
		return Grant{}, accesserr.Validation("data types must not be empty")
	}

	now := s.now()
	if in.ExpiresAt != nil && !in.ExpiresAt.After(now) {
		return Grant{}, accesserr.Validation("expires_at must be in the future")
	}

	g := Grant{
		ID:            uuid.NewString(),
		PatientID:     patientID,
		GrantedToID:   grantedToID,
		GrantedToRole: role,
		Permission:    perm,
		DataTypes:     in.DataTypes,
		GrantedAt:     now,
		ExpiresAt:     in.ExpiresAt,
		IsActive:      true,
	}

	if err := s.repo.Create(ctx, g); err != nil {
		return Grant{}, accesserr.Persistence("create grant", err)
	}

	s.log.Info("grant created", map[string]any{
		"grant_id":      g.ID,
		"patient_id":    g.PatientID,
		"granted_to_id": g.GrantedToID,
		"permission":    string(g.Permission),
		"data_types":    g.DataTypes.String(),
	})
	s.publish(ctx, events.GrantCreated, patientID, g, map[string]any{
		"role":       string(g.GrantedToRole),
		"permission": string(g.Permission),
		"data_types": g.DataTypes.Strings(),
	})
	return g, nil
}

// Revoke es idempotente: revocar dos veces devuelve el mismo grant.
func (s *Service) Revoke(ctx context.Context, grantID, requestedBy string) (Grant, error) {
	grantID = strings.TrimSpace(grantID)
	requestedBy = strings.TrimSpace(requestedBy)

	if grantID == "" || requestedBy == "" {
		return Grant{}, accesserr.Validation("grant id and requester required")
	}

	g, err := s.repo.GetByID(ctx, grantID)
	if err != nil {
		if errors.Is(err, accesserr.ErrNotFound) {
			return Grant{}, accesserr.ErrNotFound
		}
		return Grant{}, accesserr.Persistence("get grant", err)
	}

	if g.PatientID != requestedBy {
		return Grant{}, accesserr.ErrForbidden
	}

	// Idempotente
	if g.RevokedAt != nil {
		return g, nil
	}

	now := s.now()
	g.IsActive = false
	g.RevokedAt = &now

	if err := s.repo.Update(ctx, g); err != nil {
		return Grant{}, accesserr.Persistence("revoke grant", err)
	}

	s.log.Info("grant revoked", map[string]any{"grant_id": g.ID, "patient_id": g.PatientID})
	s.publish(ctx, events.GrantRevoked, requestedBy, g, nil)
	return g, nil
}

// ListForPatient devuelve todo el historial (auditoría), más nuevo primero.
func (s *Service) ListForPatient(ctx context.Context, patientID string) ([]AuditEntry, error) {
	patientID = strings.TrimSpace(patientID)
	if patientID == "" {
		return nil, accesserr.Validation("patient id required")
	}

	items, err := s.repo.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, accesserr.Persistence("list grants", err)
	}
	sortNewestFirst(items)

	now := s.now()
	out := make([]AuditEntry, 0, len(items))
	for _, g := range items {
		out = append(out, AuditEntry{Grant: g, Status: g.StatusAt(now)})
	}
	return out, nil
}

// ListForRecipient devuelve solo grants efectivos. Nombre y email del paciente
// se incluyen únicamente si el grant cubre personal_info.
func (s *Service) ListForRecipient(ctx context.Context, recipientID string) ([]SharedWithMe, error) {
	recipientID = strings.TrimSpace(recipientID)
	if recipientID == "" {
		return nil, accesserr.Validation("recipient id required")
	}

	items, err := s.repo.ListByRecipient(ctx, recipientID)
	if err != nil {
		return nil, accesserr.Persistence("list grants", err)
	}
	sortNewestFirst(items)

	now := s.now()
	out := make([]SharedWithMe, 0, len(items))
	for _, g := range items {
		if !g.EffectiveAt(now) {
			continue
		}
		out = append(out, SharedWithMe{
			Grant:   g,
			Patient: s.identityFor(ctx, g),
		})
	}
	return out, nil
}

func (s *Service) identityFor(ctx context.Context, g Grant) PatientIdentity {
	id := PatientIdentity{PatientID: g.PatientID}
	if s.directory == nil || !g.DataTypes.Has(scope.PersonalInfo) {
		return id
	}
	p, err := s.directory.Lookup(ctx, g.PatientID)
	if err != nil {
		// tolera pacientes sin perfil cargado
		if !errors.Is(err, accesserr.ErrNotFound) {
			s.log.Warn("patient lookup failed", map[string]any{"patient_id": g.PatientID, "error": err.Error()})
		}
		return id
	}
	id.Name = p.Name
	id.Email = p.Email
	return id
}

func (s *Service) publish(ctx context.Context, typ events.Type, actorID string, g Grant, attrs map[string]any) {
	err := s.publisher.Publish(ctx, events.Event{
		ID:         uuid.NewString(),
		Type:       typ,
		ActorID:    actorID,
		PatientID:  g.PatientID,
		SubjectID:  g.ID,
		Attributes: attrs,
		OccurredAt: s.now(),
	})
	if err != nil {
		s.log.Warn("audit event not published", map[string]any{"type": string(typ), "error": err.Error()})
	}
}

func sortNewestFirst(items []Grant) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].GrantedAt.After(items[j].GrantedAt)
	})
}
