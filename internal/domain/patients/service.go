package patients

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"patient-access/internal/domain/accessgrants"
	"patient-access/internal/domain/accesserr"
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

type UpsertInput struct {
	Name  string
	Email string
}

func (s *Service) UpsertProfile(ctx context.Context, patientID string, in UpsertInput) (Profile, error) {
	patientID = strings.TrimSpace(patientID)
	name := strings.TrimSpace(in.Name)
	email := strings.TrimSpace(in.Email)

	if patientID == "" || name == "" {
		return Profile{}, accesserr.Validation("patient id and name required")
	}
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return Profile{}, accesserr.Validation("invalid email")
		}
	}

	now := s.now()
	p := Profile{
		ID:        patientID,
		Name:      name,
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if current, err := s.repo.GetByID(ctx, patientID); err == nil {
		p.CreatedAt = current.CreatedAt
	} else if !errors.Is(err, accesserr.ErrNotFound) {
		return Profile{}, accesserr.Persistence("get profile", err)
	}

	if err := s.repo.Upsert(ctx, p); err != nil {
		return Profile{}, accesserr.Persistence("upsert profile", err)
	}
	return p, nil
}

func (s *Service) GetByID(ctx context.Context, patientID string) (Profile, error) {
	p, err := s.repo.GetByID(ctx, strings.TrimSpace(patientID))
	if errors.Is(err, accesserr.ErrNotFound) {
		return Profile{}, accesserr.ErrNotFound
	}
	if err != nil {
		return Profile{}, accesserr.Persistence("get profile", err)
	}
	return p, nil
}

// Lookup implementa accessgrants.PatientDirectory.
func (s *Service) Lookup(ctx context.Context, patientID string) (accessgrants.PatientIdentity, error) {
	p, err := s.GetByID(ctx, patientID)
	if err != nil {
		return accessgrants.PatientIdentity{}, err
	}
	return accessgrants.PatientIdentity{PatientID: p.ID, Name: p.Name, Email: p.Email}, nil
}
