package auth

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type ctxKey int

const ClaimsKey ctxKey = 1

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// Claims are issued by the identity service; Subject is the principal id.
type Claims struct {
	jwt.RegisteredClaims
	Roles []string `json:"roles"`
}

func (c Claims) HasRole(role string) bool {
	return slices.Contains(c.Roles, role)
}

func (c Claims) IsAdmin() bool { return c.HasRole(RoleAdmin) }

// Keys verifies tokens. The private key is only present in tests and local tooling.
type Keys struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
}

func NewKeys(privateKey *rsa.PrivateKey, publicKey *rsa.PublicKey) (*Keys, error) {
	if publicKey == nil {
		if privateKey == nil {
			return nil, errors.New("public key cannot be nil")
		}
		publicKey = &privateKey.PublicKey
	}
	return &Keys{privateKey: privateKey, publicKey: publicKey}, nil
}

// LoadKeys reads a PEM encoded RSA public key.
func LoadKeys(publicKeyPath string) (*Keys, error) {
	pem, err := os.ReadFile(publicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("reading public key: %w", err)
	}
	publicKey, err := jwt.ParseRSAPublicKeyFromPEM(pem)
	if err != nil {
		return nil, fmt.Errorf("parsing public key: %w", err)
	}
	return NewKeys(nil, publicKey)
}

func (k *Keys) GenerateToken(claims Claims) (string, error) {
	if k.privateKey == nil {
		return "", errors.New("no private key to sign with")
	}
	tkn := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token, err := tkn.SignedString(k.privateKey)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return token, nil
}

func (k *Keys) ValidateToken(token string) (Claims, error) {
	var c Claims
	tkn, err := jwt.ParseWithClaims(token, &c, func(*jwt.Token) (interface{}, error) {
		return k.publicKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}), jwt.WithLeeway(5*time.Second))
	if err != nil {
		return Claims{}, fmt.Errorf("parsing token: %w", err)
	}
	if !tkn.Valid {
		return Claims{}, errors.New("invalid token")
	}
	if c.Subject == "" {
		return Claims{}, errors.New("token has no subject")
	}
	return c, nil
}
