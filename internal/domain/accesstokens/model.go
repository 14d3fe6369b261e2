package accesstokens

import (
	"time"

	"patient-access/internal/domain/scope"
)

type Status string

const (
	StatusActive  Status = "active"
	StatusExpired Status = "expired"
	StatusUsed    Status = "used"
)

// Token es una invitación de un solo uso emitida por un paciente.
type Token struct {
	ID string

	IssuerID      string // paciente que lo creó
	RecipientHint string // nombre/email, solo informativo
	Kind          scope.Kind

	// CodeHash es lo único que se persiste del código.
	CodeHash string

	Scope     scope.Set
	ExpiresAt time.Time

	IsUsed   bool
	UsedAt   *time.Time
	UsedByID string

	CreatedAt time.Time
}

// StatusAt deriva el estado en el instante now. Nunca se guarda.
func (t Token) StatusAt(now time.Time) Status {
	if t.IsUsed {
		return StatusUsed
	}
	if !now.Before(t.ExpiresAt) {
		return StatusExpired
	}
	return StatusActive
}

// RedeemableAt: !isUsed && now < expiresAt.
func (t Token) RedeemableAt(now time.Time) bool {
	return t.StatusAt(now) == StatusActive
}

// Issued es lo que devuelve CreateToken: la única vez que el código
// en claro está disponible.
type Issued struct {
	Token Token
	Code  string
}

type View struct {
	Token  Token
	Status Status
}

type RedemptionResult struct {
	TokenID  string
	IssuerID string
	Kind     scope.Kind
	Scope    scope.Set
	UsedAt   time.Time
}
