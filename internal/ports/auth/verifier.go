package auth

import (
	"context"
	"errors"
)

// ErrInvalidToken lo envuelven los verificadores cuando el token es rechazado.
// Cualquier otro error indica que no se pudo verificar (IdP caído, mala config).
var ErrInvalidToken = errors.New("invalid token")

// AuthVerifier verifica un bearer token y devuelve las claims del usuario.
type AuthVerifier interface {
	Verify(ctx context.Context, token string) (Claims, error)
}
