// Package accesserr agrupa los errores compartidos por tokens, grants y el
// evaluador. Los servicios envuelven estos sentinels con detalle
// (fmt.Errorf("%w: ...")); los handlers los comparan con errors.Is.
package accesserr

import (
	"errors"
	"fmt"
)

var (
	ErrValidation              = errors.New("validation error")
	ErrNotFound                = errors.New("not found")
	ErrAlreadyUsed             = errors.New("token already used")
	ErrExpired                 = errors.New("token expired")
	ErrForbidden               = errors.New("forbidden")
	ErrCodeGenerationExhausted = errors.New("code generation exhausted")
	ErrPersistence             = errors.New("persistence error")
	ErrRateLimited             = errors.New("too many attempts")
)

// ErrConflict lo devuelven los repos cuando un insert choca con una
// restricción única. No sale de la capa de dominio.
var ErrConflict = errors.New("unique constraint conflict")

func Validation(detail string) error {
	return fmt.Errorf("%w: %s", ErrValidation, detail)
}

// Persistence envuelve un error opaco de storage. Conserva la causa para logs.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}
