package account

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"

	"golang.org/x/oauth2"
)

// Token is the credential material handed to callers of the Manager.
type Token struct {
	// AccessToken is the bearer token for the environment's resource.
	AccessToken string

	// RefreshToken is the long-lived credential used to renew the session
	// without re-prompting the user. May be empty.
	RefreshToken string

	// ExpiresIn is the access token lifetime in seconds as reported by the
	// provider.
	ExpiresIn int64

	// ExpiresOn is the absolute expiry of the access token.
	ExpiresOn time.Time
}

// ToOAuth2Token converts the token to an oauth2.Token for use with clients
// built on golang.org/x/oauth2.
func (t Token) ToOAuth2Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       t.ExpiresOn,
	}
}

// Session represents one authenticated identity. At most one Session is held
// at a time; it is owned exclusively by the SessionStore.
type Session struct {
	Environment Environment
	UserID      string
	TenantID    string
	Token       Token
}

// expirySeconds tolerates providers that encode expires_in as either a JSON
// number or a quoted decimal string.
type expirySeconds int64

func (e *expirySeconds) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*e = 0
		return nil
	}
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return err
	}
	*e = expirySeconds(n)
	return nil
}

// TokenResponse is the wire-level result of a token exchange. It is
// transient and consumed immediately into a Session.
type TokenResponse struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token,omitempty"`
	TokenType    string        `json:"token_type,omitempty"`
	ExpiresIn    expirySeconds `json:"expires_in,omitempty"`
	Resource     string        `json:"resource,omitempty"`
	IDToken      string        `json:"id_token,omitempty"`

	// ExpiresOn, UserID and TenantID are derived after parsing; they are not
	// part of the wire format.
	ExpiresOn time.Time `json:"-"`
	UserID    string    `json:"-"`
	TenantID  string    `json:"-"`
}

// Token converts the wire response into the caller-facing Token.
func (r *TokenResponse) Token() Token {
	return Token{
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		ExpiresIn:    int64(r.ExpiresIn),
		ExpiresOn:    r.ExpiresOn,
	}
}

// parseTokenResponse decodes a token endpoint response body and derives the
// absolute expiry and the user/tenant identity.
func parseTokenResponse(body []byte, now time.Time) (*TokenResponse, error) {
	var resp TokenResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}
	if resp.ExpiresIn > 0 {
		resp.ExpiresOn = now.Add(time.Duration(resp.ExpiresIn) * time.Second)
	}
	resp.UserID, resp.TenantID = identityFromTokens(resp.IDToken, resp.AccessToken)
	return &resp, nil
}
