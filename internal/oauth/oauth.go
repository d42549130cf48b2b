package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	githubendpoint "golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/idtoken"

	"github.com/Omakidx/link6ync/internal/cache"
	"github.com/Omakidx/link6ync/internal/config"
)

// Provider identifies a supported OAuth provider.
type Provider string

const (
	ProviderGoogle Provider = "google"
	ProviderGitHub Provider = "github"
)

var (
	// ErrNotConfigured is returned when the provider's app credentials are
	// missing from the environment. Surfaces at first use, not at boot.
	ErrNotConfigured = errors.New("oauth provider credentials are not configured")
	// ErrInvalidState is returned when the callback state is missing, reused
	// or unknown.
	ErrInvalidState = errors.New("invalid oauth state")
	// ErrCodeExchange is returned when the authorization code is expired,
	// reused or otherwise rejected by the provider.
	ErrCodeExchange = errors.New("authorization code exchange failed")
	// ErrEmailNotVerified is returned when the provider cannot attest a
	// verified email for the account.
	ErrEmailNotVerified = errors.New("no verified email on provider account")
)

// Identity is the verified identity obtained from a provider.
type Identity struct {
	Email string
	Name  string
}

// Linker exchanges provider authorization codes for verified identities.
type Linker interface {
	AuthURL(ctx context.Context, provider Provider) (string, error)
	Exchange(ctx context.Context, provider Provider, code, state string) (*Identity, error)
}

// Service implements Linker for Google and GitHub.
type Service struct {
	google         *oauth2.Config
	github         *oauth2.Config
	googleClientID string
	states         *StateStore

	// overridable in tests
	githubAPIBase   string
	validateIDToken func(ctx context.Context, token, audience string) (*idtoken.Payload, error)
}

// NewService builds the linker from config. Missing credentials are not an
// error here; each provider fails at first use instead.
func NewService(cfg *config.Config, cacheClient *cache.Client) *Service {
	return &Service{
		google: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			Endpoint:     google.Endpoint,
			RedirectURL:  cfg.GoogleRedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
		},
		github: &oauth2.Config{
			ClientID:     cfg.GitHubClientID,
			ClientSecret: cfg.GitHubClientSecret,
			Endpoint:     githubendpoint.Endpoint,
			RedirectURL:  cfg.GitHubRedirectURL,
			Scopes:       []string{"user:email"},
		},
		googleClientID:  cfg.GoogleClientID,
		states:          NewStateStore(cacheClient),
		githubAPIBase:   "https://api.github.com",
		validateIDToken: idtoken.Validate,
	}
}

// AuthURL returns the provider consent URL with a fresh state nonce.
func (s *Service) AuthURL(ctx context.Context, provider Provider) (string, error) {
	conf, err := s.conf(provider)
	if err != nil {
		return "", err
	}
	state, err := s.states.Create(ctx)
	if err != nil {
		return "", fmt.Errorf("create oauth state: %w", err)
	}
	return conf.AuthCodeURL(state, oauth2.AccessTypeOffline), nil
}

// Exchange validates the state, swaps the authorization code for provider
// tokens and resolves the verified primary email.
func (s *Service) Exchange(ctx context.Context, provider Provider, code, state string) (*Identity, error) {
	conf, err := s.conf(provider)
	if err != nil {
		return nil, err
	}
	if !s.states.Consume(ctx, state) {
		return nil, ErrInvalidState
	}

	token, err := conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCodeExchange, err)
	}

	switch provider {
	case ProviderGoogle:
		return s.googleIdentity(ctx, token)
	case ProviderGitHub:
		return s.githubIdentity(ctx, conf, token)
	default:
		return nil, fmt.Errorf("unknown provider %q", provider)
	}
}

func (s *Service) conf(provider Provider) (*oauth2.Config, error) {
	var conf *oauth2.Config
	switch provider {
	case ProviderGoogle:
		conf = s.google
	case ProviderGitHub:
		conf = s.github
	default:
		return nil, fmt.Errorf("unknown provider %q", provider)
	}
	if conf.ClientID == "" || conf.ClientSecret == "" {
		return nil, ErrNotConfigured
	}
	return conf, nil
}

// googleIdentity verifies the ID token from the exchange and requires the
// email_verified claim.
func (s *Service) googleIdentity(ctx context.Context, token *oauth2.Token) (*Identity, error) {
	rawIDToken, _ := token.Extra("id_token").(string)
	if rawIDToken == "" {
		return nil, fmt.Errorf("%w: no id_token in response", ErrCodeExchange)
	}

	payload, err := s.validateIDToken(ctx, rawIDToken, s.googleClientID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCodeExchange, err)
	}

	email, _ := payload.Claims["email"].(string)
	verified, _ := payload.Claims["email_verified"].(bool)
	if email == "" || !verified {
		return nil, ErrEmailNotVerified
	}
	name, _ := payload.Claims["name"].(string)

	return &Identity{Email: email, Name: name}, nil
}

type githubUser struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Login string `json:"login"`
}

type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

// githubIdentity queries the user and emails endpoints; the primary email may
// be private, so the emails endpoint is authoritative.
func (s *Service) githubIdentity(ctx context.Context, conf *oauth2.Config, token *oauth2.Token) (*Identity, error) {
	client := conf.Client(ctx, token)

	var user githubUser
	if err := getJSON(ctx, client, s.githubAPIBase+"/user", &user); err != nil {
		return nil, fmt.Errorf("fetch github user: %w", err)
	}

	var emails []githubEmail
	if err := getJSON(ctx, client, s.githubAPIBase+"/user/emails", &emails); err != nil {
		return nil, fmt.Errorf("fetch github emails: %w", err)
	}

	email := pickVerifiedPrimaryEmail(emails, user.Email)
	if email == "" {
		return nil, ErrEmailNotVerified
	}

	name := user.Name
	if name == "" {
		name = user.Login
	}
	return &Identity{Email: email, Name: name}, nil
}

// pickVerifiedPrimaryEmail selects the entry flagged primary && verified,
// falling back to the public profile email.
func pickVerifiedPrimaryEmail(emails []githubEmail, fallback string) string {
	for _, e := range emails {
		if e.Primary && e.Verified {
			return e.Email
		}
	}
	return fallback
}

func getJSON(ctx context.Context, client *http.Client, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
