package events

import (
	"context"
	"time"
)

// Type es la routing key del evento de auditoría.
type Type string

const (
	TokenCreated  Type = "token.created"
	TokenRedeemed Type = "token.redeemed"
	TokenDeleted  Type = "token.deleted"
	GrantCreated  Type = "grant.created"
	GrantRevoked  Type = "grant.revoked"
)

// Event nunca lleva el código de un token ni datos médicos, solo ids y scopes.
type Event struct {
	ID         string         `json:"id"`
	Type       Type           `json:"type"`
	ActorID    string         `json:"actor_id"`
	PatientID  string         `json:"patient_id"`
	SubjectID  string         `json:"subject_id"`
	Attributes map[string]any `json:"attributes,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Discard es el publisher por defecto cuando no hay broker configurado.
type Discard struct{}

func (Discard) Publish(context.Context, Event) error { return nil }
