// Package keyring keeps unfilled's secrets (the PostgreSQL connection
// string and the object storage secret key) in the OS keyring.
package keyring

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"

	"github.com/julianstephens/unfilled/internal/constants"
)

var (
	// ErrNotFound is returned when no credentials are found in the keyring
	ErrNotFound = errors.New("credentials not found in keyring")
	// ErrKeyringUnavailable is returned when the OS keyring is not available
	ErrKeyringUnavailable = errors.New("OS keyring is not available")
	ErrEmptySecret        = errors.New("secret cannot be empty")
)

// Secret names a keyring entry under the unfilled service.
type Secret string

const (
	DatabaseDSN   Secret = constants.DefaultKeyringUser
	BlobSecretKey Secret = constants.BlobSecretUser
)

// Secrets lists every entry unfilled manages.
func Secrets() []Secret {
	return []Secret{DatabaseDSN, BlobSecretKey}
}

func (s Secret) String() string { return string(s) }

// Get retrieves a secret. Returns ErrNotFound if nothing is stored.
func Get(s Secret) (string, error) {
	v, err := keyring.Get(constants.AppName, string(s))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return v, nil
}

// Set stores a secret. Connection strings must be PostgreSQL URLs or
// key=value DSNs.
func Set(s Secret, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return ErrEmptySecret
	}
	if s == DatabaseDSN && !IsPostgresDSN(value) {
		return fmt.Errorf("not a PostgreSQL connection string")
	}
	if err := keyring.Set(constants.AppName, string(s), value); err != nil {
		return fmt.Errorf("failed to store %s in keyring: %w", s, err)
	}
	return nil
}

// Delete removes a secret.
func Delete(s Secret) error {
	if err := keyring.Delete(constants.AppName, string(s)); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete %s from keyring: %w", s, err)
	}
	return nil
}

// IsPostgresDSN reports whether v looks like a PostgreSQL connection string.
func IsPostgresDSN(v string) bool {
	return strings.HasPrefix(v, "postgres://") ||
		strings.HasPrefix(v, "postgresql://") ||
		strings.Contains(v, "host=") || strings.Contains(v, "dbname=")
}

// GetConnectionString retrieves the database connection string.
func GetConnectionString() (string, error) {
	return Get(DatabaseDSN)
}

// ResolveBlobSecret prefers an explicitly configured value and falls back
// to the keyring. A missing entry resolves to "".
func ResolveBlobSecret(configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	v, err := Get(BlobSecretKey)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	return v, err
}

type SecretStatus struct {
	Secret Secret
	Stored bool
	Err    error
}

// Status reports which secrets are stored.
func Status() []SecretStatus {
	out := make([]SecretStatus, 0, len(Secrets()))
	for _, s := range Secrets() {
		_, err := Get(s)
		st := SecretStatus{Secret: s, Stored: err == nil}
		if err != nil && !errors.Is(err, ErrNotFound) {
			st.Err = err
		}
		out = append(out, st)
	}
	return out
}

// IsAvailable checks if the OS keyring is available on the current system.
// This is a best-effort check and may not catch all failure scenarios.
func IsAvailable() bool {
	_, err := keyring.Get(constants.AppName, "test-availability")
	return err == nil || errors.Is(err, keyring.ErrNotFound)
}
