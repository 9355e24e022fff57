package account

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// nonceLength is the number of random bytes in a CSRF nonce.
const nonceLength = 16

// NewNonce returns a cryptographically random CSRF nonce, base64-encoded.
// The nonce is round-tripped through the provider's redirect inside the
// state parameter to prove the callback corresponds to the request that
// initiated it.
func NewNonce() (string, error) {
	buf := make([]byte, nonceLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}
