package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"patient-access/internal/domain/accesserr"
	"patient-access/internal/domain/accesstokens"
)

type tokenRepo struct {
	mu   sync.RWMutex
	byID map[string]accesstokens.Token

	// usedHashes incluye hashes de tokens borrados: el código es único
	// entre tokens vivos e históricos.
	usedHashes map[string]string
}

func NewAccessTokensRepo() *tokenRepo {
	return &tokenRepo{
		byID:       make(map[string]accesstokens.Token),
		usedHashes: make(map[string]string),
	}
}

func (r *tokenRepo) Create(ctx context.Context, t accesstokens.Token) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t.ID == "" || t.CodeHash == "" {
		return errors.New("token id and code hash required")
	}
	if _, exists := r.byID[t.ID]; exists {
		return accesserr.ErrConflict
	}
	if _, taken := r.usedHashes[t.CodeHash]; taken {
		return accesserr.ErrConflict
	}
	r.byID[t.ID] = t
	r.usedHashes[t.CodeHash] = t.ID
	return nil
}

func (r *tokenRepo) GetByID(ctx context.Context, id string) (accesstokens.Token, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.byID[id]
	if !ok {
		return accesstokens.Token{}, accesserr.ErrNotFound
	}
	return t, nil
}

func (r *tokenRepo) GetByCodeHash(ctx context.Context, codeHash string) (accesstokens.Token, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.usedHashes[codeHash]
	if !ok {
		return accesstokens.Token{}, accesserr.ErrNotFound
	}
	t, ok := r.byID[id]
	if !ok {
		return accesstokens.Token{}, accesserr.ErrNotFound
	}
	return t, nil
}

func (r *tokenRepo) ListByIssuer(ctx context.Context, issuerID string) ([]accesstokens.Token, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]accesstokens.Token, 0)
	for _, t := range r.byID {
		if t.IssuerID == issuerID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// MarkUsed es el compare-and-set equivalente al UPDATE ... WHERE is_used = false.
func (r *tokenRepo) MarkUsed(ctx context.Context, id string, usedAt time.Time, usedByID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.byID[id]
	if !ok || t.IsUsed || !usedAt.Before(t.ExpiresAt) {
		return false, nil
	}
	t.IsUsed = true
	t.UsedAt = &usedAt
	t.UsedByID = usedByID
	r.byID[id] = t
	return true, nil
}

func (r *tokenRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.byID, id)
	return nil
}
