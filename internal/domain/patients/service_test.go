package patients

import (
	"context"
	"errors"
	"testing"
	"time"

	"patient-access/internal/domain/accesserr"
)

type testRepo struct {
	byID map[string]Profile
}

func newTestRepo() *testRepo { return &testRepo{byID: map[string]Profile{}} }

func (r *testRepo) Upsert(ctx context.Context, p Profile) error {
	r.byID[p.ID] = p
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (Profile, error) {
	p, ok := r.byID[id]
	if !ok {
		return Profile{}, accesserr.ErrNotFound
	}
	return p, nil
}

func TestUpsertProfile_KeepsCreatedAt(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)

	first := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return first }
	if _, err := svc.UpsertProfile(context.Background(), "patient-1", UpsertInput{Name: "Ana", Email: "ana@example.com"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	second := first.Add(48 * time.Hour)
	svc.now = func() time.Time { return second }
	p, err := svc.UpsertProfile(context.Background(), "patient-1", UpsertInput{Name: "Ana María"})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if !p.CreatedAt.Equal(first) || !p.UpdatedAt.Equal(second) {
		t.Fatalf("unexpected timestamps: %+v", p)
	}
	if p.Email != "" {
		t.Fatalf("email must be replaced, got %q", p.Email)
	}
}

func TestUpsertProfile_Validation(t *testing.T) {
	svc := NewService(newTestRepo())
	cases := []struct {
		id string
		in UpsertInput
	}{
		{"", UpsertInput{Name: "Ana"}},
		{"patient-1", UpsertInput{Name: "  "}},
		{"patient-1", UpsertInput{Name: "Ana", Email: "not-an-email"}},
	}
	for _, tc := range cases {
		_, err := svc.UpsertProfile(context.Background(), tc.id, tc.in)
		if !errors.Is(err, accesserr.ErrValidation) {
			t.Fatalf("expected validation error for %+v, got %v", tc, err)
		}
	}
}

func TestLookup(t *testing.T) {
	svc := NewService(newTestRepo())
	_, _ = svc.UpsertProfile(context.Background(), "patient-1", UpsertInput{Name: "Ana", Email: "ana@example.com"})

	id, err := svc.Lookup(context.Background(), "patient-1")
	if err != nil || id.Name != "Ana" || id.Email != "ana@example.com" {
		t.Fatalf("unexpected identity %+v err=%v", id, err)
	}
	if _, err := svc.Lookup(context.Background(), "patient-9"); !errors.Is(err, accesserr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
