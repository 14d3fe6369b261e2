package accessgrants

import (
	"fmt"
	"strings"
	"time"

	"patient-access/internal/domain/scope"
)

// Role del destinatario. El rol real lo verifica el sistema que llama;
// acá solo se guarda.
type Role string

const (
	RoleDoctor     Role = "doctor"
	RoleClinic     Role = "clinic"
	RoleLaboratory Role = "laboratory"
)

func ParseRole(raw string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(raw)))
	switch r {
	case RoleDoctor, RoleClinic, RoleLaboratory:
		return r, nil
	}
	return "", fmt.Errorf("unknown role %q", raw)
}

// Permission: read < write; full satisface read y write.
type Permission string

const (
	PermissionRead  Permission = "read"
	PermissionWrite Permission = "write"
	PermissionFull  Permission = "full"
)

func ParsePermission(raw string) (Permission, error) {
	p := Permission(strings.ToLower(strings.TrimSpace(raw)))
	switch p {
	case PermissionRead, PermissionWrite, PermissionFull:
		return p, nil
	}
	return "", fmt.Errorf("unknown permission %q", raw)
}

func (p Permission) rank() int {
	switch p {
	case PermissionRead:
		return 1
	case PermissionWrite:
		return 2
	case PermissionFull:
		return 3
	}
	return 0
}

// Satisfies indica si un grant con permiso p cubre el nivel requerido.
// Solo read o write son niveles requeridos válidos.
func (p Permission) Satisfies(required Permission) bool {
	if required != PermissionRead && required != PermissionWrite {
		return false
	}
	return p.rank() >= required.rank()
}

type Status string

const (
	StatusActive  Status = "active"
	StatusExpired Status = "expired"
	StatusRevoked Status = "revoked"
)

type Grant struct {
	ID string

	PatientID     string // quien comparte
	GrantedToID   string // destinatario
	GrantedToRole Role

	Permission Permission
	DataTypes  scope.Set

	GrantedAt time.Time
	ExpiresAt *time.Time

	IsActive  bool
	RevokedAt *time.Time
}

// EffectiveAt: activo, no revocado y no vencido en now.
// El vencimiento se evalúa siempre acá; nadie barre filas vencidas.
func (g Grant) EffectiveAt(now time.Time) bool {
	if !g.IsActive || g.RevokedAt != nil {
		return false
	}
	if g.ExpiresAt != nil && !now.Before(*g.ExpiresAt) {
		return false
	}
	return true
}

func (g Grant) StatusAt(now time.Time) Status {
	if g.RevokedAt != nil || !g.IsActive {
		return StatusRevoked
	}
	if !g.EffectiveAt(now) {
		return StatusExpired
	}
	return StatusActive
}

// AuditEntry es la vista del paciente: incluye revocados y vencidos.
type AuditEntry struct {
	Grant  Grant
	Status Status
}

// PatientIdentity es la identidad mínima que ve un destinatario.
type PatientIdentity struct {
	PatientID string
	Name      string
	Email     string
}

// SharedWithMe es un grant efectivo visto por el destinatario.
type SharedWithMe struct {
	Grant   Grant
	Patient PatientIdentity
}
