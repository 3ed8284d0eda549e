package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func oauthTestConfig() *Config {
	return &Config{
		Server: ServerConfig{BaseURL: "http://localhost:8080"},
		OAuth: OAuthConfig{
			GitHub:    OAuthProviderConfig{ClientID: "gh-id", ClientSecret: "gh-secret"},
			Google:    OAuthProviderConfig{ClientID: "g-id", ClientSecret: "g-secret"},
			Microsoft: OAuthProviderConfig{ClientID: "ms-id", ClientSecret: "ms-secret"},
		},
	}
}

func TestProviderConfig(t *testing.T) {
	svc := NewOAuthService(nil, nil, oauthTestConfig())

	for _, provider := range []string{"github", "google", "microsoft"} {
		cfg := svc.ProviderConfig(provider)
		require.NotNil(t, cfg, provider)
		assert.NotEmpty(t, cfg.ClientID)
		assert.NotEmpty(t, cfg.Endpoint.AuthURL)
		assert.Contains(t, cfg.RedirectURL, "/connect/"+provider+"/callback")
	}

	assert.Nil(t, svc.ProviderConfig("gitlab"))
	assert.Nil(t, svc.ProviderConfig(""))
}

func TestGenerateState(t *testing.T) {
	svc := NewOAuthService(nil, nil, oauthTestConfig())

	first, err := svc.GenerateState()
	require.NoError(t, err)
	assert.Len(t, first, 32)

	second, err := svc.GenerateState()
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}
