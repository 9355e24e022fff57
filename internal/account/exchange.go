package account

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"signon/pkg/logging"
)

// DefaultHTTPTimeout is the default timeout for token endpoint requests.
const DefaultHTTPTimeout = 30 * time.Second

// TokenExchanger performs the two token-acquisition protocols against the
// provider's token endpoint. It never retries; retry policy belongs to the
// Manager.
type TokenExchanger struct {
	httpClient *http.Client
}

// NewTokenExchanger creates an exchanger. A nil httpClient selects a default
// client with DefaultHTTPTimeout.
func NewTokenExchanger(httpClient *http.Client) *TokenExchanger {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultHTTPTimeout}
	}
	return &TokenExchanger{httpClient: httpClient}
}

// ExchangeCode exchanges an authorization code for tokens.
func (e *TokenExchanger) ExchangeCode(ctx context.Context, clientID string, env Environment, redirectURI, tenantID, code string) (*TokenResponse, error) {
	form := url.Values{
		"grant_type":   {"authorization_code"},
		"client_id":    {clientID},
		"scope":        {env.Scope},
		"redirect_uri": {redirectURI},
		"code":         {code},
	}

	body, err := e.post(ctx, env.tokenURL(tenantID), form)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenExchangeFailed, err)
	}

	if errField := tokenErrorField(body); errField != "" {
		return nil, fmt.Errorf("%w: %s", ErrTokenExchangeFailed, errField)
	}

	resp, err := parseTokenResponse(body, time.Now())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenExchangeFailed, err)
	}

	logging.Debug("Account", "authorization code exchanged for %s", env.Name)
	return resp, nil
}

// ExchangeRefreshToken exchanges a refresh token for new tokens. An empty
// resource defaults to the environment's resource identifier. A successful
// HTTP response whose body carries an error field fails with
// ErrRefreshFailed; an empty access token without an error field is a
// higher-layer concern and passes through.
func (e *TokenExchanger) ExchangeRefreshToken(ctx context.Context, env Environment, refreshToken, tenantID, resource string) (*TokenResponse, error) {
	if resource == "" {
		resource = env.ResourceID
	}

	form := url.Values{
		"grant_type":    {"refresh_token"},
		"client_id":     {env.ClientID},
		"refresh_token": {refreshToken},
		"resource":      {resource},
	}

	body, err := e.post(ctx, env.tokenURL(tenantID), form)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}

	if errField := tokenErrorField(body); errField != "" {
		return nil, fmt.Errorf("%w: %s", ErrRefreshFailed, errField)
	}

	resp, err := parseTokenResponse(body, time.Now())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}

	logging.Debug("Account", "refresh token exchanged for %s", env.Name)
	return resp, nil
}

// tokenErrorField returns the provider-reported error carried in an
// otherwise-successful token response body, or "" if there is none.
func tokenErrorField(body []byte) string {
	var wire struct {
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	if err := json.Unmarshal(body, &wire); err != nil || wire.Error == "" {
		return ""
	}
	if wire.ErrorDescription != "" {
		return wire.Error + ": " + wire.ErrorDescription
	}
	return wire.Error
}

// post sends a form-encoded POST and returns the response body, failing on
// transport errors and non-2xx statuses.
func (e *TokenExchanger) post(ctx context.Context, endpoint string, form url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return body, nil
}
