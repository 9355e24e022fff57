package secret

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"signon/pkg/logging"
)

// ServiceName is the keyring service under which secrets are stored.
const ServiceName = "signon"

// legacyAccount is the fixed account name older releases stored the refresh
// token under, inside a per-environment service.
const legacyAccount = "Refresh Token"

// Keyring stores secrets in the operating system credential store.
type Keyring struct{}

// NewKeyring returns a keyring-backed store.
func NewKeyring() Keyring {
	return Keyring{}
}

// Get returns the secret for account, or ("", nil) when none is stored.
func (Keyring) Get(account string) (string, error) {
	value, err := keyring.Get(ServiceName, account)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading secret %q: %w", account, err)
	}
	return value, nil
}

// Set stores the secret for account, replacing any previous value.
func (Keyring) Set(account, value string) error {
	if err := keyring.Set(ServiceName, account, value); err != nil {
		return fmt.Errorf("storing secret %q: %w", account, err)
	}
	return nil
}

// Delete removes the secret for account. A missing secret is not an error.
func (Keyring) Delete(account string) error {
	err := keyring.Delete(ServiceName, account)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("deleting secret %q: %w", account, err)
	}
	return nil
}

// MigrateLegacy moves a secret stored under the old per-environment service
// name ("<env>_signon", account "Refresh Token") to the current layout. It
// runs once at startup; an existing secret in the current layout wins and
// the legacy entry is removed either way.
func (k Keyring) MigrateLegacy(envName, account string) {
	legacyService := envName + "_" + ServiceName
	value, err := keyring.Get(legacyService, legacyAccount)
	if err != nil {
		return
	}

	current, err := k.Get(account)
	if err == nil && current == "" {
		if err := k.Set(account, value); err != nil {
			logging.Warn("Secret", "migrating legacy secret failed: %v", err)
			return
		}
	}

	if err := keyring.Delete(legacyService, legacyAccount); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		logging.Warn("Secret", "removing legacy secret failed: %v", err)
	}
}
