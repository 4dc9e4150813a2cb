package cryptox

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/taxintake/intakeengine/internal/common"
	"golang.org/x/crypto/argon2"
)

// keyDerivationSalt is fixed so that a passphrase always maps to the same key
// for the lifetime of the data it protects.
var keyDerivationSalt = []byte("intakeengine/pii-field-key/v1")

// ParseKey turns the configured secret into a 32-byte key.
//
// A 64-character hex string is decoded as the raw key. Any other non-empty
// secret is stretched with DeriveKey.
func ParseKey(secret string) ([]byte, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, fmt.Errorf("%w: PII encryption key is not set", common.ErrConfiguration)
	}

	if len(secret) == 2*KeySize {
		if raw, err := hex.DecodeString(secret); err == nil {
			return raw, nil
		}
	}

	return DeriveKey([]byte(secret)), nil
}

// DeriveKey hashes an arbitrary-length secret down to KeySize bytes with
// argon2id.
func DeriveKey(secret []byte) []byte {
	return argon2.IDKey(secret, keyDerivationSalt, 1, 64*1024, 4, KeySize)
}
