// Package auth treats identity verification as an external capability:
// the middleware only needs something that turns a bearer token into a
// caller identity. The token protocol itself is out of scope here.
package auth

import (
	"context"
	"errors"
	"strings"
)

// ErrInvalidToken means the token could not be resolved to an identity.
var ErrInvalidToken = errors.New("invalid or expired token")

// Identity is the authenticated caller. UserID is the stable owner
// identifier partitioning records and cache entries.
type Identity struct {
	UserID string
	Email  string
}

// Verifier resolves a bearer token to an identity.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// StaticVerifier resolves tokens from a fixed table, loaded from
// configuration. It stands in for the external identity provider in
// deployments and tests.
type StaticVerifier struct {
	identities map[string]Identity
}

// NewStaticVerifier parses a token table of the form
// "token=userId[:email],token2=userId2".
func NewStaticVerifier(table string) *StaticVerifier {
	identities := make(map[string]Identity)
	for _, pair := range strings.Split(table, ",") {
		token, ident, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || token == "" || ident == "" {
			continue
		}
		userID, email, _ := strings.Cut(ident, ":")
		identities[token] = Identity{UserID: userID, Email: email}
	}
	return &StaticVerifier{identities: identities}
}

func (v *StaticVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	ident, ok := v.identities[token]
	if !ok {
		return nil, ErrInvalidToken
	}
	return &ident, nil
}
