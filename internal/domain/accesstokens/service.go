package accesstokens

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"patient-access/internal/domain/accesserr"
	"patient-access/internal/domain/scope"
	"patient-access/internal/platform/logger"
	"patient-access/internal/ports/events"
	"patient-access/internal/ports/ratelimit"

	"github.com/google/uuid"
)

const (
	// MaxCodeAttempts acota el loop generar+insertar ante colisiones de código.
	MaxCodeAttempts = 5

	maxRecipientHint = 200
)

type Options struct {
	Hasher    Hasher
	Limiter   ratelimit.Limiter
	Publisher events.Publisher
	Logger    logger.Logger

	// DefaultTTL se usa cuando CreateInput.ExpiresAt es nil.
	DefaultTTL time.Duration
	// MaxTTL acota expiresAt; 0 = sin tope.
	MaxTTL time.Duration
}

type Service struct {
	repo      Repository
	hasher    Hasher
	limiter   ratelimit.Limiter
	publisher events.Publisher
	log       logger.Logger

	defaultTTL time.Duration
	maxTTL     time.Duration

	now      func() time.Time
	genCode  func() (string, error)
	attempts int
}

func NewService(repo Repository, opts Options) *Service {
	s := &Service{
		repo:       repo,
		hasher:     opts.Hasher,
		limiter:    opts.Limiter,
		publisher:  opts.Publisher,
		log:        opts.Logger,
		defaultTTL: opts.DefaultTTL,
		maxTTL:     opts.MaxTTL,
		now:        time.Now,
		genCode:    GenerateCode,
		attempts:   MaxCodeAttempts,
	}
	if s.hasher == nil {
		s.hasher, _ = NewHasher("dev-insecure-code-pepper")
	}
	if s.limiter == nil {
		s.limiter = ratelimit.Unlimited{}
	}
	if s.publisher == nil {
		s.publisher = events.Discard{}
	}
	if s.log == nil {
		s.log = logger.Nop()
	}
	if s.defaultTTL <= 0 {
		s.defaultTTL = 7 * 24 * time.Hour
	}
	s.log = s.log.With(map[string]any{"component": "accesstokens"})
	return s
}

type CreateInput struct {
	IssuerID      string
	RecipientHint string
	Kind          scope.Kind
	Scope         scope.Set
	ExpiresAt     *time.Time // nil => now + DefaultTTL
}

func (s *Service) CreateToken(ctx context.Context, in CreateInput) (Issued, error) {
	issuerID := strings.TrimSpace(in.IssuerID)
	hint := strings.TrimSpace(in.RecipientHint)

	if issuerID == "" {
		return Issued{}, accesserr.Validation("issuer id required")
	}
	if in.Scope.Empty() {
		return Issued{}, accesserr.Validation("scope must not be empty")
	}
	if !in.Scope.SubsetOf(scope.Allowed(in.Kind)) {
		return Issued{}, accesserr.Validation(fmt.Sprintf("scope %s not allowed for %s", in.Scope, in.Kind))
	}
	if len(hint) > maxRecipientHint {
		return Issued{}, accesserr.Validation("recipient hint too long")
	}

	now := s.now()
	expiresAt := now.Add(s.defaultTTL)
	if in.ExpiresAt != nil {
		expiresAt = *in.ExpiresAt
	}
	if !expiresAt.After(now) {
		return Issued{}, accesserr.Validation("expires_at must be in the future")
	}
	if s.maxTTL > 0 && expiresAt.Sub(now) > s.maxTTL {
		return Issued{}, accesserr.Validation(fmt.Sprintf("expires_at exceeds max ttl %s", s.maxTTL))
	}

	t := Token{
		ID:            uuid.NewString(),
		IssuerID:      issuerID,
		RecipientHint: hint,
		Kind:          in.Kind,
		Scope:         in.Scope,
		ExpiresAt:     expiresAt,
		CreatedAt:     now,
	}

	for attempt := 1; attempt <= s.attempts; attempt++ {
		code, err := s.genCode()
		if err != nil {
			return Issued{}, fmt.Errorf("generate code: %w", err)
		}
		t.CodeHash = s.hasher.Hash(code)

		err = s.repo.Create(ctx, t)
		if errors.Is(err, accesserr.ErrConflict) {
			s.log.Warn("token code collision", map[string]any{"attempt": attempt})
			continue
		}
		if err != nil {
			return Issued{}, accesserr.Persistence("create token", err)
		}

		s.log.Info("token created", map[string]any{
			"token_id":  t.ID,
			"issuer_id": t.IssuerID,
			"kind":      string(t.Kind),
			"scope":     t.Scope.String(),
		})
		s.publish(ctx, events.TokenCreated, issuerID, issuerID, t.ID, map[string]any{
			"kind":       string(t.Kind),
			"scope":      t.Scope.Strings(),
			"expires_at": t.ExpiresAt,
		})
		return Issued{Token: t, Code: code}, nil
	}

	return Issued{}, fmt.Errorf("%w: %d attempts", accesserr.ErrCodeGenerationExhausted, s.attempts)
}

func (s *Service) ListTokens(ctx context.Context, issuerID string) ([]View, error) {
	issuerID = strings.TrimSpace(issuerID)
	if issuerID == "" {
		return nil, accesserr.Validation("issuer id required")
	}

	items, err := s.repo.ListByIssuer(ctx, issuerID)
	if err != nil {
		return nil, accesserr.Persistence("list tokens", err)
	}

	now := s.now()
	out := make([]View, 0, len(items))
	for _, t := range items {
		out = append(out, View{Token: t, Status: t.StatusAt(now)})
	}
	return out, nil
}

// Redeem consume el token una sola vez. El paso final es un update
// condicional; dos redenciones concurrentes no pueden ganar ambas.
func (s *Service) Redeem(ctx context.Context, code, redeemerID string) (RedemptionResult, error) {
	code = NormalizeCode(code)
	redeemerID = strings.TrimSpace(redeemerID)

	if code == "" || redeemerID == "" {
		return RedemptionResult{}, accesserr.Validation("code and redeemer required")
	}

	allowed, err := s.limiter.Allow(ctx, "redeem:"+redeemerID)
	if err != nil {
		// sin limiter disponible seguimos; el código sigue siendo de un solo uso
		s.log.Warn("redeem limiter unavailable", map[string]any{"error": err.Error()})
	} else if !allowed {
		return RedemptionResult{}, accesserr.ErrRateLimited
	}

	if !validCode(code) {
		return RedemptionResult{}, accesserr.ErrNotFound
	}

	t, err := s.repo.GetByCodeHash(ctx, s.hasher.Hash(code))
	if err != nil {
		if errors.Is(err, accesserr.ErrNotFound) {
			return RedemptionResult{}, accesserr.ErrNotFound
		}
		return RedemptionResult{}, accesserr.Persistence("get token", err)
	}

	now := s.now()
	switch t.StatusAt(now) {
	case StatusUsed:
		return RedemptionResult{}, accesserr.ErrAlreadyUsed
	case StatusExpired:
		return RedemptionResult{}, accesserr.ErrExpired
	}
	if t.IssuerID == redeemerID {
		return RedemptionResult{}, accesserr.Validation("issuer cannot redeem own token")
	}

	ok, err := s.repo.MarkUsed(ctx, t.ID, now, redeemerID)
	if err != nil {
		return RedemptionResult{}, accesserr.Persistence("mark token used", err)
	}
	if !ok {
		return RedemptionResult{}, s.classifyLostRace(ctx, t.ID, now)
	}

	s.log.Info("token redeemed", map[string]any{
		"token_id":    t.ID,
		"issuer_id":   t.IssuerID,
		"redeemer_id": redeemerID,
	})
	s.publish(ctx, events.TokenRedeemed, redeemerID, t.IssuerID, t.ID, map[string]any{
		"kind":  string(t.Kind),
		"scope": t.Scope.Strings(),
	})

	return RedemptionResult{
		TokenID:  t.ID,
		IssuerID: t.IssuerID,
		Kind:     t.Kind,
		Scope:    t.Scope,
		UsedAt:   now,
	}, nil
}

// classifyLostRace relee la fila cuando el update condicional no afectó nada:
// otro request la usó, la borró o venció entre la lectura y el update.
func (s *Service) classifyLostRace(ctx context.Context, id string, now time.Time) error {
	t, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, accesserr.ErrNotFound) {
		return accesserr.ErrNotFound
	}
	if err != nil {
		return accesserr.Persistence("reload token", err)
	}
	if t.StatusAt(now) == StatusExpired {
		return accesserr.ErrExpired
	}
	return accesserr.ErrAlreadyUsed
}

// Delete borra físicamente el token. Idempotente: si ya no existe, no es error.
func (s *Service) Delete(ctx context.Context, tokenID, requestedBy string) error {
	tokenID = strings.TrimSpace(tokenID)
	requestedBy = strings.TrimSpace(requestedBy)

	if tokenID == "" || requestedBy == "" {
		return accesserr.Validation("token id and requester required")
	}

	t, err := s.repo.GetByID(ctx, tokenID)
	if errors.Is(err, accesserr.ErrNotFound) {
		return nil
	}
	if err != nil {
		return accesserr.Persistence("get token", err)
	}

	if t.IssuerID != requestedBy {
		return accesserr.ErrForbidden
	}

	if err := s.repo.Delete(ctx, tokenID); err != nil {
		return accesserr.Persistence("delete token", err)
	}

	s.log.Info("token deleted", map[string]any{"token_id": tokenID, "issuer_id": requestedBy})
	s.publish(ctx, events.TokenDeleted, requestedBy, requestedBy, tokenID, nil)
	return nil
}

func (s *Service) CountActive(ctx context.Context, issuerID string) (int, error) {
	views, err := s.ListTokens(ctx, issuerID)
	if err != nil {
		return 0, err
	}
	return CountStatus(views, StatusActive), nil
}

func (s *Service) CountUsed(ctx context.Context, issuerID string) (int, error) {
	views, err := s.ListTokens(ctx, issuerID)
	if err != nil {
		return 0, err
	}
	return CountStatus(views, StatusUsed), nil
}

// CountStatus cuenta vistas con un estado dado.
func CountStatus(views []View, st Status) int {
	n := 0
	for _, v := range views {
		if v.Status == st {
			n++
		}
	}
	return n
}

// publish es best-effort: la auditoría no revierte la operación.
func (s *Service) publish(ctx context.Context, typ events.Type, actorID, patientID, subjectID string, attrs map[string]any) {
	err := s.publisher.Publish(ctx, events.Event{
		ID:         uuid.NewString(),
		Type:       typ,
		ActorID:    actorID,
		PatientID:  patientID,
		SubjectID:  subjectID,
		Attributes: attrs,
		OccurredAt: s.now(),
	})
	if err != nil {
		s.log.Warn("audit event not published", map[string]any{"type": string(typ), "error": err.Error()})
	}
}
