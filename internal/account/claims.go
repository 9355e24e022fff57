package account

import (
	"github.com/golang-jwt/jwt/v5"
)

// identityFromTokens extracts the user and tenant identifiers from the id
// token, falling back to the access token. The tokens are parsed without
// signature verification: identity display is informational here, the tokens
// themselves were just received over TLS from the provider.
func identityFromTokens(tokens ...string) (userID, tenantID string) {
	parser := jwt.NewParser()
	for _, raw := range tokens {
		if raw == "" {
			continue
		}
		claims := jwt.MapClaims{}
		if _, _, err := parser.ParseUnverified(raw, claims); err != nil {
			continue
		}
		if userID == "" {
			userID = firstStringClaim(claims, "upn", "unique_name", "email", "oid", "sub")
		}
		if tenantID == "" {
			tenantID = firstStringClaim(claims, "tid")
		}
		if userID != "" && tenantID != "" {
			return userID, tenantID
		}
	}
	return userID, tenantID
}

func firstStringClaim(claims jwt.MapClaims, keys ...string) string {
	for _, key := range keys {
		if v, ok := claims[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
