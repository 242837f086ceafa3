package xbl

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProofKeyExport(t *testing.T) {
	key, err := newSigningKey()
	require.NoError(t, err)

	pk := key.proofKey
	assert.Equal(t, "EC", pk.Kty)
	assert.Equal(t, "P-256", pk.Crv)
	assert.Equal(t, "ES256", pk.Alg)
	assert.Equal(t, "sig", pk.Use)

	x, err := base64.RawURLEncoding.DecodeString(pk.X)
	require.NoError(t, err)
	y, err := base64.RawURLEncoding.DecodeString(pk.Y)
	require.NoError(t, err)
	assert.Len(t, x, 32, "coordinates are fixed-width")
	assert.Len(t, y, 32, "coordinates are fixed-width")
}

func TestProofKeyStableForSession(t *testing.T) {
	s, err := NewSession(0)
	require.NoError(t, err)
	assert.Equal(t, s.ProofKey(), s.ProofKey())
}
