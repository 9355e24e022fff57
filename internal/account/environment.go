package account

// Environment describes one identity-provider endpoint set. The authorize
// and token endpoints are derived from AuthorizeEndpointURL by appending the
// tenant and the protocol path.
type Environment struct {
	// Name identifies the environment. It is also the account name under
	// which the refresh token is persisted in the secret store.
	Name string `yaml:"name"`

	// AuthorizeEndpointURL is the base URL of the provider's authority,
	// including a trailing slash. The tenant is appended to it.
	AuthorizeEndpointURL string `yaml:"authorizeEndpointUrl"`

	// ResourceID is the resource identifier tokens are requested for.
	ResourceID string `yaml:"resourceId"`

	// ClientID is the application (client) identifier registered with the
	// provider.
	ClientID string `yaml:"clientId"`

	// ManagementEndpointURL is the API endpoint the access token is used
	// against. Informational; not consulted during login.
	ManagementEndpointURL string `yaml:"managementEndpointUrl"`

	// Scope is the scope string sent on the authorize request and the code
	// exchange.
	Scope string `yaml:"scope"`
}

// DefaultTenantID is used when no tenant override is configured.
const DefaultTenantID = "common"

// DefaultEnvironment is the built-in identity-provider environment. It is an
// explicit default parameter value; callers that want a different provider
// pass their own Environment.
var DefaultEnvironment = Environment{
	Name:                  "VSSaaS",
	AuthorizeEndpointURL:  "https://login.microsoftonline.com/",
	ResourceID:            "https://graph.microsoft.com/",
	ClientID:              "cdcf391a-4df6-473f-9bea-2c616df8c925",
	ManagementEndpointURL: "https://graph.microsoft.com/",
	Scope:                 "openid offline_access https://graph.microsoft.com/user.read",
}

// authorizeURL returns the provider's authorize endpoint for a tenant.
func (e Environment) authorizeURL(tenantID string) string {
	return e.AuthorizeEndpointURL + tenantID + "/oauth2/authorize"
}

// tokenURL returns the provider's token endpoint for a tenant.
func (e Environment) tokenURL(tenantID string) string {
	return e.AuthorizeEndpointURL + tenantID + "/oauth2/token"
}
