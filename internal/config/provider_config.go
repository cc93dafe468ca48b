package config

import "time"

type ProviderConfig interface {
	GetIssuerURL() string
	GetClientID() string
	GetClientSecret() string
	GetRedirectURL() string
	GetScopes() []string
	GetHTTPTimeout() time.Duration
}

type Provider struct{}

var _ ProviderConfig = Provider{}

func (Provider) GetIssuerURL() string {
	return GetEnv("OIDC_ISSUER", "http://localhost:8080")
}

func (Provider) GetClientID() string {
	return GetEnv("OIDC_CLIENT_ID", "postureiq-web")
}

// GetClientSecret is empty for public clients, which rely on PKCE.
func (Provider) GetClientSecret() string {
	return GetEnv("OIDC_CLIENT_SECRET", "")
}

func (Provider) GetRedirectURL() string {
	return GetEnv("OIDC_REDIRECT_URL", "http://localhost:8085/callback")
}

func (Provider) GetScopes() []string {
	return GetEnvList("OIDC_SCOPES", []string{"openid", "profile", "email", "offline_access"})
}

func (Provider) GetHTTPTimeout() time.Duration {
	return GetEnvDuration("OIDC_HTTP_TIMEOUT", 10*time.Second)
}
