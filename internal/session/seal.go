package session

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/nacl/secretbox"
)

const nonceLen = 24

var errUnsealable = errors.New("session: record cannot be opened")

// Sealer encrypts and authenticates stored records so a leaked store (Redis
// dump, copied bbolt file) does not leak bearer tokens.
type Sealer struct {
	key [32]byte
}

// NewSealer derives the sealing key from secret.
func NewSealer(secret string) *Sealer {
	return &Sealer{key: blake2b.Sum256([]byte(secret))}
}

// Seal returns base64(nonce || box).
func (s *Sealer) Seal(plain []byte) (string, error) {
	var nonce [nonceLen]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return "", fmt.Errorf("generating nonce: %w", err)
	}
	out := secretbox.Seal(nonce[:], plain, &nonce, &s.key)
	return base64.RawURLEncoding.EncodeToString(out), nil
}

// Open reverses Seal. Any tampering or a different key yields errUnsealable.
func (s *Sealer) Open(sealed string) ([]byte, error) {
	raw, err := base64.RawURLEncoding.DecodeString(sealed)
	if err != nil || len(raw) < nonceLen {
		return nil, errUnsealable
	}

	var nonce [nonceLen]byte
	copy(nonce[:], raw[:nonceLen])

	plain, ok := secretbox.Open(nil, raw[nonceLen:], &nonce, &s.key)
	if !ok {
		return nil, errUnsealable
	}
	return plain, nil
}
