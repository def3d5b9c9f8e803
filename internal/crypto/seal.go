// Package crypto seals the persisted directory at rest with a passphrase-derived key.
package crypto

import (
	"bytes"
	"crypto/rand"
	"errors"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

// Params
const (
	KeyLen  = 32
	SaltLen = 16

	argonTime    uint32 = 3
	argonMemory  uint32 = 64 * 1024
	argonThreads uint8  = 1
)

// magic prefixes every sealed blob; plain JSON can never start with it.
var magic = []byte("UDS1")

// ErrOpen is returned when a sealed blob cannot be authenticated with the given passphrase.
var ErrOpen = errors.New("open sealed blob")

// RandBytes returns n cryptographically secure random bytes.
func RandBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	return b, err
}

// DeriveKey derives a sealing key from passphrase and salt using Argon2id.
func DeriveKey(passphrase, salt []byte) []byte {
	return argon2.IDKey(passphrase, salt, argonTime, argonMemory, argonThreads, KeyLen)
}

// IsSealed reports whether blob carries the sealed-blob framing.
func IsSealed(blob []byte) bool { return bytes.HasPrefix(blob, magic) }

// Seal encrypts plaintext with XChaCha20-Poly1305 under a fresh salt and nonce.
// Layout: magic || salt || nonce || ciphertext. The magic is bound as AAD.
func Seal(passphrase, plaintext []byte) ([]byte, error) {
	salt, err := RandBytes(SaltLen)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(DeriveKey(passphrase, salt))
	if err != nil {
		return nil, err
	}
	nonce, err := RandBytes(chacha20poly1305.NonceSizeX)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(magic)+len(salt)+len(nonce)+len(plaintext)+aead.Overhead())
	out = append(out, magic...)
	out = append(out, salt...)
	out = append(out, nonce...)
	out = append(out, aead.Seal(nil, nonce, plaintext, magic)...)
	return out, nil
}

// Open reverses Seal.
func Open(passphrase, blob []byte) ([]byte, error) {
	if !IsSealed(blob) {
		return nil, errors.New("blob is not sealed")
	}
	rest := blob[len(magic):]
	if len(rest) < SaltLen+chacha20poly1305.NonceSizeX {
		return nil, errors.New("sealed blob too short")
	}
	salt := rest[:SaltLen]
	nonce := rest[SaltLen : SaltLen+chacha20poly1305.NonceSizeX]
	ct := rest[SaltLen+chacha20poly1305.NonceSizeX:]

	aead, err := chacha20poly1305.NewX(DeriveKey(passphrase, salt))
	if err != nil {
		return nil, err
	}
	pt, err := aead.Open(nil, nonce, ct, magic)
	if err != nil {
		return nil, ErrOpen
	}
	return pt, nil
}
