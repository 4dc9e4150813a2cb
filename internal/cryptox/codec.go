// Package cryptox implements field-level authenticated encryption for PII
// values (SSNs, IP-PINs, bank numbers) and display masking helpers.
//
// Blob wire format: IV (12 bytes) || ciphertext || GCM tag (16 bytes).
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"

	"github.com/taxintake/intakeengine/internal/common"
)

const (
	// KeySize is the AES-256 key length in bytes.
	KeySize = 32
	// NonceSize is the per-blob random IV length.
	NonceSize = 12
	// TagSize is the GCM authentication tag length.
	TagSize = 16

	minBlobSize = NonceSize + TagSize + 1
)

var (
	// ErrIntegrity is returned when a blob is truncated or fails authentication.
	ErrIntegrity = errors.New("ciphertext integrity check failed")

	// ErrEmptyPlaintext is returned by Encrypt for empty input. Callers that may
	// hold blank values go through SafeEncrypt instead.
	ErrEmptyPlaintext = errors.New("refusing to encrypt empty value")
)

// Codec encrypts and decrypts PII strings with a process-wide key.
// It holds no mutable state and is safe for concurrent use.
type Codec struct {
	aead cipher.AEAD
}

// NewCodec builds a Codec from a 32-byte key. Any other key length is a
// configuration fault.
func NewCodec(key []byte) (*Codec, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: encryption key must be %d bytes, got %d", common.ErrConfiguration, KeySize, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrConfiguration, err)
	}

	aead, err := cipher.NewGCMWithNonceSize(block, NonceSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrConfiguration, err)
	}

	return &Codec{aead: aead}, nil
}

// Encrypt seals plaintext under a fresh random IV. Two calls with the same
// input never return the same blob.
func (c *Codec) Encrypt(plaintext string) ([]byte, error) {
	if plaintext == "" {
		return nil, ErrEmptyPlaintext
	}

	nonce := make([]byte, NonceSize, NonceSize+len(plaintext)+TagSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generating nonce: %w", err)
	}

	return c.aead.Seal(nonce, nonce, []byte(plaintext), nil), nil
}

// Decrypt opens a blob produced by Encrypt. Truncated or tampered input
// yields ErrIntegrity and no plaintext.
func (c *Codec) Decrypt(blob []byte) (string, error) {
	if len(blob) < minBlobSize {
		return "", fmt.Errorf("%w: blob is %d bytes", ErrIntegrity, len(blob))
	}

	plaintext, err := c.aead.Open(nil, blob[:NonceSize], blob[NonceSize:], nil)
	if err != nil {
		return "", ErrIntegrity
	}
	defer WipeBytes(plaintext)

	return string(plaintext), nil
}

// SafeEncrypt maps empty or whitespace-only input to "no value" (nil blob)
// and encrypts everything else.
func (c *Codec) SafeEncrypt(value string) ([]byte, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	return c.Encrypt(value)
}

// DecryptOptional treats a nil or empty blob as an absent value.
func (c *Codec) DecryptOptional(blob []byte) (string, bool, error) {
	if len(blob) == 0 {
		return "", false, nil
	}
	v, err := c.Decrypt(blob)
	if err != nil {
		return "", true, err
	}
	return v, true, nil
}
