// Package invitations une la redención de un token con el alta opcional de un
// grant. El token store y el registro de grants no se conocen entre sí.
package invitations

import (
	"context"

	"patient-access/internal/domain/accessgrants"
	"patient-access/internal/domain/accesstokens"
	"patient-access/internal/domain/scope"
	"patient-access/internal/platform/logger"
)

type Redeemer interface {
	Redeem(ctx context.Context, code, redeemerID string) (accesstokens.RedemptionResult, error)
}

type Granter interface {
	Grant(ctx context.Context, in accessgrants.GrantInput) (accessgrants.Grant, error)
}

type Options struct {
	// AutoGrant crea el grant de seguimiento al redimir. Apagado por defecto.
	AutoGrant         bool
	DefaultPermission accessgrants.Permission
	Logger            logger.Logger
}

// roleByKind: qué rol de destinatario implica cada flujo. El flujo familiar no
// tiene rol de grant y nunca genera uno automáticamente.
var roleByKind = map[scope.Kind]accessgrants.Role{
	scope.KindDoctorInvite: accessgrants.RoleDoctor,
}

type Service struct {
	tokens Redeemer
	grants Granter
	opts   Options
	log    logger.Logger
}

func NewService(tokens Redeemer, grants Granter, opts Options) *Service {
	if opts.DefaultPermission == "" {
		opts.DefaultPermission = accessgrants.PermissionRead
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		tokens: tokens,
		grants: grants,
		opts:   opts,
		log:    log.With(map[string]any{"component": "invitations"}),
	}
}

type Acceptance struct {
	Redemption accesstokens.RedemptionResult
	Grant      *accessgrants.Grant
}

// Accept redime el código. Si AutoGrant está activo y el kind tiene rol,
// crea el grant en nombre del emisor con el scope del token.
// Una falla al crear el grant no revierte la redención.
func (s *Service) Accept(ctx context.Context, code, redeemerID string) (Acceptance, error) {
	res, err := s.tokens.Redeem(ctx, code, redeemerID)
	if err != nil {
		return Acceptance{}, err
	}
	out := Acceptance{Redemption: res}

	if !s.opts.AutoGrant || s.grants == nil {
		return out, nil
	}
	role, ok := roleByKind[res.Kind]
	if !ok {
		return out, nil
	}

	g, err := s.grants.Grant(ctx, accessgrants.GrantInput{
		PatientID:   res.IssuerID,
		GrantedToID: redeemerID,
		Role:        role,
		Permission:  s.opts.DefaultPermission,
		DataTypes:   res.Scope,
	})
	if err != nil {
		s.log.Error("follow-up grant failed", map[string]any{
			"token_id":    res.TokenID,
			"redeemer_id": redeemerID,
			"error":       err.Error(),
		})
		return out, nil
	}
	out.Grant = &g
	return out, nil
}
