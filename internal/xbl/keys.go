package xbl

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// ProofKey is the JWK-shaped public half of a session signing key. It is
// embedded verbatim as the ProofKey field of device-token and SISU
// requests; the authorities verify request signatures against it.
type ProofKey struct {
	Kty string `json:"kty"`
	Crv string `json:"crv"`
	X   string `json:"x"`
	Y   string `json:"y"`
	Alg string `json:"alg"`
	Use string `json:"use"`
}

// signingKey is the per-session P-256 key pair. It never leaves the
// process and dies with the session.
type signingKey struct {
	private  *ecdsa.PrivateKey
	proofKey ProofKey
}

func newSigningKey() (*signingKey, error) {
	private, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate signing key: %w", err)
	}
	return &signingKey{
		private:  private,
		proofKey: exportProofKey(&private.PublicKey),
	}, nil
}

// exportProofKey renders the public key as a JWK with the ES256/sig tags
// the Xbox authorities expect. Coordinates are fixed-width 32-byte
// big-endian values, base64url without padding.
func exportProofKey(pub *ecdsa.PublicKey) ProofKey {
	x := make([]byte, 32)
	y := make([]byte, 32)
	pub.X.FillBytes(x)
	pub.Y.FillBytes(y)
	return ProofKey{
		Kty: "EC",
		Crv: "P-256",
		X:   base64.RawURLEncoding.EncodeToString(x),
		Y:   base64.RawURLEncoding.EncodeToString(y),
		Alg: "ES256",
		Use: "sig",
	}
}
