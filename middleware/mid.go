package middleware

import (
	"errors"

	"storefront/internal/auth"
)

type Mid struct {
	k *auth.Keys
}

func NewMid(k *auth.Keys) (*Mid, error) {
	if k == nil {
		return nil, errors.New("auth keys cannot be nil")
	}
	return &Mid{k: k}, nil
}
