package ratelimit

import "context"

// Limiter cuenta intentos por key en una ventana fija.
// Allow devuelve false cuando la key superó el máximo de la ventana.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Unlimited deja pasar todo (modo dev / sin Redis).
type Unlimited struct{}

func (Unlimited) Allow(context.Context, string) (bool, error) { return true, nil }
