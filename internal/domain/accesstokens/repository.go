package accesstokens

import (
	"context"
	"time"
)

// Repository es el contrato de storage para access_tokens.
//   - Create devuelve accesserr.ErrConflict si code_hash ya existe.
//   - GetByID / GetByCodeHash devuelven accesserr.ErrNotFound.
//   - MarkUsed es un update condicional en un solo round trip; devuelve false
//     si la fila no existe, ya estaba usada o venció antes de usedAt.
//   - Delete no falla si la fila no existe.
type Repository interface {
	Create(ctx context.Context, t Token) error
	GetByID(ctx context.Context, id string) (Token, error)
	GetByCodeHash(ctx context.Context, codeHash string) (Token, error)
	ListByIssuer(ctx context.Context, issuerID string) ([]Token, error)
	MarkUsed(ctx context.Context, id string, usedAt time.Time, usedByID string) (bool, error)
	Delete(ctx context.Context, id string) error
}
