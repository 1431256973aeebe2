package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"

	"github.com/yndnr/bankmesh-go/internal/core/domain"
)

// Argon2 parameters for hashed credential secrets.
const (
	Argon2Memory      = 16 * 1024
	Argon2Time        = 2
	Argon2Parallelism = 2
	Argon2KeyLen      = 32
	Argon2SaltLen     = 16

	argon2Prefix = "$argon2id$"
)

// CredentialRepository loads the fixed credential record set.
type CredentialRepository interface {
	// LoadCredentials returns every stored (id, secret) record.
	LoadCredentials(ctx context.Context) ([]domain.Credential, error)
}

// CredentialService validates (id, secret) pairs against a fixed record set.
//
// Records never change after construction, so Validate is safe for any
// number of concurrent callers without locking.
type CredentialService struct {
	records []domain.Credential
}

// NewCredentialService creates a CredentialService over a copy of records.
func NewCredentialService(records []domain.Credential) *CredentialService {
	cp := make([]domain.Credential, len(records))
	copy(cp, records)
	return &CredentialService{records: cp}
}

// LoadCredentialService reads the record set from repo once. A malformed
// stored hash is reported as a configuration error.
func LoadCredentialService(ctx context.Context, repo CredentialRepository) (*CredentialService, error) {
	records, err := repo.LoadCredentials(ctx)
	if err != nil {
		return nil, err
	}
	if err := checkCredentials(records); err != nil {
		return nil, err
	}
	return NewCredentialService(records), nil
}

// Validate reports whether (id, secret) exactly matches a stored record.
//
// Stored secrets in argon2id form are verified by hashing the presented
// secret; every other stored secret is compared byte for byte.
func (s *CredentialService) Validate(id, secret string) bool {
	for _, rec := range s.records {
		if rec.ID != id {
			continue
		}
		if verifySecret(secret, rec.Secret) {
			return true
		}
	}
	return false
}

// Len returns the number of stored records.
func (s *CredentialService) Len() int {
	return len(s.records)
}

func verifySecret(presented, stored string) bool {
	if strings.HasPrefix(stored, argon2Prefix) {
		return verifyArgon2Hash(presented, stored)
	}
	return subtle.ConstantTimeCompare([]byte(presented), []byte(stored)) == 1
}

// Bounds accepted when decoding a stored Argon2id hash. Memory is in KiB.
const (
	maxArgon2Memory = 256 * 1024
	maxArgon2Time   = 64
	maxArgon2KeyLen = 128
)

type argon2Hash struct {
	memory      uint32
	iterations  uint32
	parallelism uint8
	salt        []byte
	key         []byte
}

// parseArgon2Hash decodes $argon2id$v=19$m=16384,t=2,p=2$<salt>$<hash>.
// Cost parameters outside the accepted bounds are an error, since
// argon2.IDKey panics on zero time or threads and allocates m KiB.
func parseArgon2Hash(hash string) (*argon2Hash, error) {
	parts := strings.Split(hash, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return nil, fmt.Errorf("not an argon2id hash")
	}
	if parts[2] != fmt.Sprintf("v=%d", argon2.Version) {
		return nil, fmt.Errorf("unsupported argon2 version %q", parts[2])
	}

	h := &argon2Hash{}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &h.memory, &h.iterations, &h.parallelism); err != nil {
		return nil, fmt.Errorf("parameters %q: %w", parts[3], err)
	}
	switch {
	case h.iterations < 1 || h.iterations > maxArgon2Time:
		return nil, fmt.Errorf("time %d out of range [1, %d]", h.iterations, maxArgon2Time)
	case h.parallelism < 1:
		return nil, fmt.Errorf("parallelism must be at least 1")
	case h.memory < 8*uint32(h.parallelism) || h.memory > maxArgon2Memory:
		return nil, fmt.Errorf("memory %d KiB out of range [%d, %d]", h.memory, 8*uint32(h.parallelism), maxArgon2Memory)
	}

	var err error
	if h.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return nil, fmt.Errorf("salt: %w", err)
	}
	if h.key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil {
		return nil, fmt.Errorf("key: %w", err)
	}
	if len(h.key) == 0 || len(h.key) > maxArgon2KeyLen {
		return nil, fmt.Errorf("key length %d out of range [1, %d]", len(h.key), maxArgon2KeyLen)
	}
	return h, nil
}

// verifyArgon2Hash verifies a secret against an Argon2id hash. A hash that
// does not parse never matches.
func verifyArgon2Hash(secret, hash string) bool {
	h, err := parseArgon2Hash(hash)
	if err != nil {
		return false
	}
	computed := argon2.IDKey([]byte(secret), h.salt, h.iterations, h.memory, h.parallelism, uint32(len(h.key)))
	return subtle.ConstantTimeCompare(computed, h.key) == 1
}

// checkCredentials rejects records whose stored secret looks like an
// Argon2id hash but cannot be verified.
func checkCredentials(records []domain.Credential) error {
	for _, rec := range records {
		if !strings.HasPrefix(rec.Secret, argon2Prefix) {
			continue
		}
		if _, err := parseArgon2Hash(rec.Secret); err != nil {
			return domain.ErrConfig.WithDetails(fmt.Sprintf("credential %q: %v", rec.ID, err))
		}
	}
	return nil
}

// HashSecret computes an Argon2id hash of secret suitable for storing in
// place of the plaintext secret.
func HashSecret(secret string) (string, error) {
	salt := make([]byte, Argon2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	hash := argon2.IDKey([]byte(secret), salt, Argon2Time, Argon2Memory, Argon2Parallelism, Argon2KeyLen)

	return fmt.Sprintf("%sv=19$m=%d,t=%d,p=%d$%s$%s",
		argon2Prefix, Argon2Memory, Argon2Time, Argon2Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash)), nil
}
