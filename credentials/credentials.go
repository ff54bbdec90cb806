// Package credentials stores the summarizer API token in the system keyring
// (macOS Keychain, Windows Credential Manager, Linux Secret Service).
//
// Tokens are kept per backend URL, so one machine can talk to a local
// development backend and a shared deployment with different tokens.
// For CI, MSUM_API_TOKEN overrides whatever the keyring holds.
package credentials

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/zalando/go-keyring"
)

// keyringService is the service name used in the system keyring.
const keyringService = "msum"

// TokenEnvVar overrides the stored token.
const TokenEnvVar = "MSUM_API_TOKEN"

var (
	// ErrNoCredentials is returned when no token is stored for a backend.
	ErrNoCredentials = errors.New("no credentials stored")
	// ErrKeyringUnavailable indicates the system keyring could not be used.
	ErrKeyringUnavailable = errors.New("system keyring unavailable")
)

// Source says where a token came from.
type Source string

const (
	SourceEnv     Source = "environment"
	SourceKeyring Source = "keyring"
)

// Store reads and writes API tokens.
type Store struct {
	service string
}

// NewStore returns a Store on the system keyring.
func NewStore() *Store {
	return &Store{service: keyringService}
}

func account(backendURL string) string {
	return strings.TrimRight(strings.TrimSpace(backendURL), "/")
}

// Save stores token for backendURL.
func (s *Store) Save(backendURL, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("token must not be empty")
	}
	if err := keyring.Set(s.service, account(backendURL), token); err != nil {
		return fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return nil
}

// Load returns the token for backendURL and where it came from. The
// environment takes precedence over the keyring.
func (s *Store) Load(backendURL string) (string, Source, error) {
	if token := strings.TrimSpace(os.Getenv(TokenEnvVar)); token != "" {
		return token, SourceEnv, nil
	}

	token, err := keyring.Get(s.service, account(backendURL))
	switch {
	case errors.Is(err, keyring.ErrNotFound):
		return "", "", ErrNoCredentials
	case err != nil:
		return "", "", fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return token, SourceKeyring, nil
}

// Token returns the token for backendURL, or "" when none is stored or the
// keyring cannot be read. Backends without authentication accept requests
// without a token.
func (s *Store) Token(backendURL string) string {
	token, _, err := s.Load(backendURL)
	if err != nil {
		return ""
	}
	return token
}

// Delete removes the token for backendURL. Deleting a missing token is not an error.
func (s *Store) Delete(backendURL string) error {
	err := keyring.Delete(s.service, account(backendURL))
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return nil
}

// Description names the keyring implementation in use.
func Description() string {
	switch runtime.GOOS {
	case "darwin":
		return "macOS Keychain"
	case "windows":
		return "Windows Credential Manager"
	default:
		return "System Keyring (Secret Service)"
	}
}

// MaskToken returns a masked token with the first and last few characters visible.
func MaskToken(token string) string {
	if len(token) <= 12 {
		return strings.Repeat("*", len(token))
	}
	return token[:4] + "..." + token[len(token)-4:]
}
