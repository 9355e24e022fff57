package secret

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestKeyringRoundTrip(t *testing.T) {
	keyring.MockInit()
	store := NewKeyring()

	require.NoError(t, store.Set("env-a", "rt-1"))

	value, err := store.Get("env-a")
	require.NoError(t, err)
	assert.Equal(t, "rt-1", value)

	require.NoError(t, store.Delete("env-a"))

	value, err = store.Get("env-a")
	require.NoError(t, err)
	assert.Empty(t, value)
}

func TestKeyringMissingSecretIsNotAnError(t *testing.T) {
	keyring.MockInit()
	store := NewKeyring()

	value, err := store.Get("never-stored")
	require.NoError(t, err)
	assert.Empty(t, value)

	assert.NoError(t, store.Delete("never-stored"))
}

func TestKeyringMigrateLegacy(t *testing.T) {
	keyring.MockInit()
	store := NewKeyring()

	require.NoError(t, keyring.Set("env-a_"+ServiceName, legacyAccount, "rt-legacy"))

	store.MigrateLegacy("env-a", "env-a")

	value, err := store.Get("env-a")
	require.NoError(t, err)
	assert.Equal(t, "rt-legacy", value)

	// The legacy entry is gone.
	_, err = keyring.Get("env-a_"+ServiceName, legacyAccount)
	assert.ErrorIs(t, err, keyring.ErrNotFound)
}

func TestKeyringMigrateLegacyDoesNotOverwrite(t *testing.T) {
	keyring.MockInit()
	store := NewKeyring()

	require.NoError(t, store.Set("env-a", "rt-current"))
	require.NoError(t, keyring.Set("env-a_"+ServiceName, legacyAccount, "rt-legacy"))

	store.MigrateLegacy("env-a", "env-a")

	value, err := store.Get("env-a")
	require.NoError(t, err)
	assert.Equal(t, "rt-current", value)
}

func TestNoopStore(t *testing.T) {
	store := Noop{}

	assert.NoError(t, store.Set("a", "v"))
	value, err := store.Get("a")
	assert.NoError(t, err)
	assert.Empty(t, value)
	assert.NoError(t, store.Delete("a"))
}
