package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticVerifier(t *testing.T) {
	v := NewStaticVerifier("tok-alice=alice:alice@example.com, tok-bob=bob")

	ident, err := v.Verify(context.Background(), "tok-alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", ident.UserID)
	assert.Equal(t, "alice@example.com", ident.Email)

	ident, err = v.Verify(context.Background(), "tok-bob")
	require.NoError(t, err)
	assert.Equal(t, "bob", ident.UserID)
	assert.Empty(t, ident.Email)

	_, err = v.Verify(context.Background(), "unknown")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestStaticVerifierMalformedTable(t *testing.T) {
	v := NewStaticVerifier("=broken,also-broken,ok=carol")

	ident, err := v.Verify(context.Background(), "ok")
	require.NoError(t, err)
	assert.Equal(t, "carol", ident.UserID)

	_, err = v.Verify(context.Background(), "also-broken")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestStaticVerifierEmptyTable(t *testing.T) {
	v := NewStaticVerifier("")

	_, err := v.Verify(context.Background(), "anything")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
