package events

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"patient-access/internal/ports/events"

	amqp "github.com/rabbitmq/amqp091-go"
)

func TestToPublishing(t *testing.T) {
	at := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	msg, err := toPublishing(events.Event{
		ID:         "e1",
		Type:       events.TokenRedeemed,
		ActorID:    "doctor-1",
		PatientID:  "patient-1",
		SubjectID:  "t1",
		Attributes: map[string]any{"scope": []string{"medical_records"}},
		OccurredAt: at,
	})
	if err != nil {
		t.Fatalf("to publishing: %v", err)
	}

	if msg.Type != "token.redeemed" || msg.MessageId != "e1" || msg.DeliveryMode != amqp.Persistent {
		t.Fatalf("unexpected headers %+v", msg)
	}
	if !msg.Timestamp.Equal(at) {
		t.Fatalf("unexpected timestamp %v", msg.Timestamp)
	}

	var got map[string]any
	if err := json.Unmarshal(msg.Body, &got); err != nil {
		t.Fatalf("body is not json: %v", err)
	}
	if got["patient_id"] != "patient-1" || got["type"] != "token.redeemed" {
		t.Fatalf("unexpected body %s", msg.Body)
	}
	if strings.Contains(string(msg.Body), "code") {
		t.Fatalf("event body must not carry a code: %s", msg.Body)
	}
}
