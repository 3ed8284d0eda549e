package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	gogithub "github.com/google/go-github/v66/github"
	"golang.org/x/oauth2"
	oauthgithub "golang.org/x/oauth2/github"
	oauthgoogle "golang.org/x/oauth2/google"
	"golang.org/x/oauth2/microsoft"

	"github.com/lumeboard/lumeboard/backend/models"
	"github.com/lumeboard/lumeboard/backend/repository"
	"github.com/lumeboard/lumeboard/backend/secrets"
)

// providerIdentity is the normalized identity returned by each provider's
// user-info endpoint.
type providerIdentity struct {
	ID    string
	Login string
}

type OAuthService struct {
	repo      *repository.GORMRepository
	cipher    *secrets.Cipher
	providers map[string]*oauth2.Config
	client    *http.Client
}

func NewOAuthService(repo *repository.GORMRepository, cipher *secrets.Cipher, config *Config) *OAuthService {
	callback := func(provider string) string {
		return config.Server.BaseURL + "/api/v1/connect/" + provider + "/callback"
	}

	providers := map[string]*oauth2.Config{
		"github": {
			ClientID:     config.OAuth.GitHub.ClientID,
			ClientSecret: config.OAuth.GitHub.ClientSecret,
			Endpoint:     oauthgithub.Endpoint,
			RedirectURL:  callback("github"),
			Scopes:       []string{"read:user", "repo"},
		},
		"google": {
			ClientID:     config.OAuth.Google.ClientID,
			ClientSecret: config.OAuth.Google.ClientSecret,
			Endpoint:     oauthgoogle.Endpoint,
			RedirectURL:  callback("google"),
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/gmail.modify",
			},
		},
		"microsoft": {
			ClientID:     config.OAuth.Microsoft.ClientID,
			ClientSecret: config.OAuth.Microsoft.ClientSecret,
			Endpoint:     microsoft.AzureADEndpoint("common"),
			RedirectURL:  callback("microsoft"),
			Scopes:       []string{"offline_access", "User.Read", "Mail.ReadWrite"},
		},
	}

	return &OAuthService{
		repo:      repo,
		cipher:    cipher,
		providers: providers,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// ProviderConfig returns the oauth2 config for a provider, nil if unknown
func (s *OAuthService) ProviderConfig(provider string) *oauth2.Config {
	return s.providers[provider]
}

// GenerateState creates a random state value for the redirect flow
func (s *OAuthService) GenerateState() (string, error) {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// CompleteConnection exchanges the authorization code, resolves the provider
// identity and stores the encrypted tokens.
func (s *OAuthService) CompleteConnection(ctx context.Context, userID, provider, code string) error {
	cfg := s.providers[provider]
	if cfg == nil {
		return fmt.Errorf("unknown provider: %s", provider)
	}

	token, err := cfg.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("failed to exchange code: %w", err)
	}

	identity, err := s.fetchIdentity(ctx, provider, token)
	if err != nil {
		return fmt.Errorf("failed to fetch provider identity: %w", err)
	}

	encAccess, err := s.cipher.Encrypt(token.AccessToken)
	if err != nil {
		return fmt.Errorf("failed to encrypt access token: %w", err)
	}
	encRefresh, err := s.cipher.Encrypt(token.RefreshToken)
	if err != nil {
		return fmt.Errorf("failed to encrypt refresh token: %w", err)
	}

	conn := &models.OAuthConnection{
		UserID:         userID,
		Provider:       provider,
		ProviderUserID: identity.ID,
		ProviderLogin:  identity.Login,
		AccessToken:    encAccess,
		RefreshToken:   encRefresh,
	}
	if !token.Expiry.IsZero() {
		expiry := token.Expiry
		conn.TokenExpiresAt = &expiry
	}

	if err := s.repo.UpsertOAuthConnection(ctx, conn); err != nil {
		return fmt.Errorf("failed to store connection: %w", err)
	}

	slog.Info("OAuth connection established", "user_id", userID, "provider", provider, "login", identity.Login)
	return nil
}

// Token returns a live oauth2 token for the user's connection, refreshing and
// re-encrypting it when the provider rotated it.
func (s *OAuthService) Token(ctx context.Context, userID, provider string) (*oauth2.Token, error) {
	conn, err := s.repo.GetOAuthConnection(ctx, userID, provider)
	if err != nil {
		return nil, fmt.Errorf("failed to get connection: %w", err)
	}
	if conn == nil {
		return nil, fmt.Errorf("no %s connection for user", provider)
	}

	accessToken, err := s.cipher.Decrypt(conn.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt access token: %w", err)
	}
	refreshToken, err := s.cipher.Decrypt(conn.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt refresh token: %w", err)
	}

	token := &oauth2.Token{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}
	if conn.TokenExpiresAt != nil {
		token.Expiry = *conn.TokenExpiresAt
	}

	cfg := s.providers[provider]
	if cfg == nil {
		return token, nil
	}

	fresh, err := cfg.TokenSource(ctx, token).Token()
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}

	if fresh.AccessToken != token.AccessToken {
		if err := s.storeRefreshedToken(ctx, conn, fresh); err != nil {
			slog.Error("Failed to persist refreshed token", "error", err, "user_id", userID, "provider", provider)
		}
	}

	return fresh, nil
}

func (s *OAuthService) storeRefreshedToken(ctx context.Context, conn *models.OAuthConnection, token *oauth2.Token) error {
	encAccess, err := s.cipher.Encrypt(token.AccessToken)
	if err != nil {
		return err
	}
	conn.AccessToken = encAccess

	if token.RefreshToken != "" {
		encRefresh, err := s.cipher.Encrypt(token.RefreshToken)
		if err != nil {
			return err
		}
		conn.RefreshToken = encRefresh
	}
	if !token.Expiry.IsZero() {
		expiry := token.Expiry
		conn.TokenExpiresAt = &expiry
	}

	return s.repo.UpsertOAuthConnection(ctx, conn)
}

// fetchIdentity resolves the provider-side user ID and login for a token
func (s *OAuthService) fetchIdentity(ctx context.Context, provider string, token *oauth2.Token) (*providerIdentity, error) {
	switch provider {
	case "github":
		client := gogithub.NewClient(nil).WithAuthToken(token.AccessToken)
		user, _, err := client.Users.Get(ctx, "")
		if err != nil {
			return nil, fmt.Errorf("failed to get github user: %w", err)
		}
		return &providerIdentity{
			ID:    fmt.Sprintf("%d", user.GetID()),
			Login: user.GetLogin(),
		}, nil
	case "google":
		var info struct {
			ID    string `json:"id"`
			Email string `json:"email"`
		}
		if err := s.getJSON(ctx, "https://www.googleapis.com/oauth2/v2/userinfo", token, &info); err != nil {
			return nil, err
		}
		return &providerIdentity{ID: info.ID, Login: info.Email}, nil
	case "microsoft":
		var info struct {
			ID   string `json:"id"`
			Mail string `json:"mail"`
			UPN  string `json:"userPrincipalName"`
		}
		if err := s.getJSON(ctx, "https://graph.microsoft.com/v1.0/me", token, &info); err != nil {
			return nil, err
		}
		login := info.Mail
		if login == "" {
			login = info.UPN
		}
		return &providerIdentity{ID: info.ID, Login: login}, nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", provider)
	}
}

// getJSON performs an authorized GET and decodes the JSON response
func (s *OAuthService) getJSON(ctx context.Context, url string, token *oauth2.Token, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	token.SetAuthHeader(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("provider API error: %d - %s", resp.StatusCode, string(body))
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
