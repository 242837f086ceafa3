package xbl

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"net/url"
	"time"
)

// The signed-request format is an external compatibility contract with
// the Xbox authorities, not this system's choice. Field order, byte
// widths, and the 1601 epoch must match exactly; the servers reject or
// misparse anything else without a useful error.
const (
	policyVersion = 1

	// Seconds between 1601-01-01 and 1970-01-01. The authorities use
	// Windows FILETIME timestamps: 100-nanosecond ticks since 1601.
	windowsEpochOffsetSeconds = 11644473600
)

// windowsTimestamp converts wall-clock time to 100 ns ticks since
// 1601-01-01, truncated to whole seconds like the upstream client.
func windowsTimestamp(now time.Time) uint64 {
	return (uint64(now.Unix()) + windowsEpochOffsetSeconds) * 10_000_000
}

// buildMessage serializes the material covered by a request signature:
//
//	int32 BE policy version | 0x00 | uint64 BE timestamp | 0x00 |
//	method 0x00 | path-and-query 0x00 | auth token 0x00 | payload 0x00
//
// Variable-length fields carry no length prefix, only the trailing NUL.
// None of method, path, token, or payload may themselves contain a NUL
// byte or the remote parser splits the message in the wrong place; the
// upstream client is equally permissive, so this is not checked here.
func buildMessage(timestamp uint64, method, pathAndQuery, authorizationToken string, payload []byte) []byte {
	var buf bytes.Buffer
	buf.Grow(14 + len(method) + 1 + len(pathAndQuery) + 1 + len(authorizationToken) + 1 + len(payload) + 1)
	_ = binary.Write(&buf, binary.BigEndian, int32(policyVersion))
	buf.WriteByte(0)
	_ = binary.Write(&buf, binary.BigEndian, timestamp)
	buf.WriteByte(0)
	buf.WriteString(method)
	buf.WriteByte(0)
	buf.WriteString(pathAndQuery)
	buf.WriteByte(0)
	buf.WriteString(authorizationToken)
	buf.WriteByte(0)
	buf.Write(payload)
	buf.WriteByte(0)
	return buf.Bytes()
}

// signHeader produces the value of the Signature header for one request:
// base64(int32 BE policy version | uint64 BE timestamp | r‖s signature).
// Only the path-and-query of rawURL is covered, never scheme or host.
func (k *signingKey) signHeader(method, rawURL, authorizationToken string, payload []byte, now time.Time) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse signing URL: %w", err)
	}

	timestamp := windowsTimestamp(now)
	digest := sha256.Sum256(buildMessage(timestamp, method, u.RequestURI(), authorizationToken, payload))

	signature, err := signP1363(k.private, digest[:])
	if err != nil {
		return "", fmt.Errorf("sign request: %w", err)
	}

	header := make([]byte, 12, 12+len(signature))
	binary.BigEndian.PutUint32(header[0:4], policyVersion)
	binary.BigEndian.PutUint64(header[4:12], timestamp)
	header = append(header, signature...)
	return base64.StdEncoding.EncodeToString(header), nil
}

// signP1363 signs digest with ECDSA and encodes the signature as raw
// fixed-width r‖s (IEEE P1363), not ASN.1 DER.
func signP1363(private *ecdsa.PrivateKey, digest []byte) ([]byte, error) {
	r, s, err := ecdsa.Sign(rand.Reader, private, digest)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 64)
	r.FillBytes(out[:32])
	s.FillBytes(out[32:])
	return out, nil
}
