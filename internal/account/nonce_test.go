package account

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNonce(t *testing.T) {
	nonce, err := NewNonce()
	require.NoError(t, err)

	decoded, err := base64.StdEncoding.DecodeString(nonce)
	require.NoError(t, err)
	assert.Len(t, decoded, nonceLength)
}

func TestNewNonceIsUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		nonce, err := NewNonce()
		require.NoError(t, err)
		assert.False(t, seen[nonce], "nonce repeated")
		seen[nonce] = true
	}
}
