// Package cryptox implements one-way password hashing for stored credentials.
// Digests are always compared digest-to-digest in constant time; plaintext
// passwords are never stored or compared.
package cryptox

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/realty/internal/common"
	"golang.org/x/crypto/argon2"
)

// Hasher turns a password into a storable credential hash and checks
// candidates against it.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) (bool, error)
}

// NewHasher returns the hasher registered under name ("sha256" or "argon2id").
func NewHasher(name string) (Hasher, error) {
	switch name {
	case "sha256":
		return SHA256Hasher{}, nil
	case "argon2id":
		return NewArgon2Hasher(), nil
	default:
		return nil, fmt.Errorf("%w: unknown password hasher %q", common.ErrValidation, name)
	}
}

// SHA256Hasher stores the hex-encoded SHA-256 digest of the password.
// It is unsalted: equal passwords produce equal digests.
type SHA256Hasher struct{}

func (SHA256Hasher) Hash(password string) (string, error) {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:]), nil
}

func (h SHA256Hasher) Verify(hash, password string) (bool, error) {
	candidate, err := h.Hash(password)
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare([]byte(hash), []byte(candidate)) == 1, nil
}

const argon2Prefix = "argon2id"

// Argon2Hasher derives a salted argon2id key and encodes it as
// argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<key> (raw base64).
type Argon2Hasher struct {
	Time    uint32
	Memory  uint32
	Threads uint8
	KeyLen  uint32
	SaltLen int
}

func NewArgon2Hasher() *Argon2Hasher {
	return &Argon2Hasher{Time: 1, Memory: 64 * 1024, Threads: 4, KeyLen: 32, SaltLen: 16}
}

func (h *Argon2Hasher) Hash(password string) (string, error) {
	salt := common.GenerateRandByteArray(h.SaltLen)
	key := argon2.IDKey([]byte(password), salt, h.Time, h.Memory, h.Threads, h.KeyLen)

	return fmt.Sprintf("%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2Prefix, argon2.Version, h.Memory, h.Time, h.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify re-derives the key with the parameters recorded in hash, so hashes
// written with other settings keep verifying.
func (h *Argon2Hasher) Verify(hash, password string) (bool, error) {
	parts := strings.Split(hash, "$")
	if len(parts) != 5 || parts[0] != argon2Prefix {
		return false, fmt.Errorf("%w: malformed argon2id hash", common.ErrValidation)
	}

	var version int
	if _, err := fmt.Sscanf(parts[1], "v=%d", &version); err != nil || version != argon2.Version {
		return false, fmt.Errorf("%w: unsupported argon2 version %q", common.ErrValidation, parts[1])
	}

	var memory, time uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[2], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return false, fmt.Errorf("%w: bad argon2 parameters: %v", common.ErrValidation, err)
	}
	if time < 1 || threads < 1 {
		return false, fmt.Errorf("%w: bad argon2 parameters %q", common.ErrValidation, parts[2])
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[3])
	if err != nil {
		return false, fmt.Errorf("%w: bad argon2 salt: %v", common.ErrValidation, err)
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, fmt.Errorf("%w: bad argon2 key: %v", common.ErrValidation, err)
	}
	if len(key) == 0 {
		return false, fmt.Errorf("%w: empty argon2 key", common.ErrValidation)
	}

	candidate := argon2.IDKey([]byte(password), salt, time, memory, threads, uint32(len(key)))
	return subtle.ConstantTimeCompare(key, candidate) == 1, nil
}
