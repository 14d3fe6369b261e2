package memory

import (
	"context"
	"strings"
	"sync"

	"patient-access/internal/domain/accesserr"
	"patient-access/internal/domain/patients"
)

type patientRepo struct {
	mu   sync.RWMutex
	byID map[string]patients.Profile
}

func NewPatientsRepo() *patientRepo {
	return &patientRepo{
		byID: make(map[string]patients.Profile),
	}
}

func (r *patientRepo) Upsert(ctx context.Context, p patients.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(p.ID) == "" {
		return accesserr.Validation("patient id required")
	}
	r.byID[p.ID] = p
	return nil
}

func (r *patientRepo) GetByID(ctx context.Context, id string) (patients.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byID[id]
	if !ok {
		return patients.Profile{}, accesserr.ErrNotFound
	}
	return p, nil
}
