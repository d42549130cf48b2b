package oauth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"google.golang.org/api/idtoken"
)

func TestPickVerifiedPrimaryEmail(t *testing.T) {
	tests := []struct {
		name     string
		emails   []githubEmail
		fallback string
		expected string
	}{
		{
			name: "primary and verified wins",
			emails: []githubEmail{
				{Email: "old@example.com", Primary: false, Verified: true},
				{Email: "main@example.com", Primary: true, Verified: true},
			},
			fallback: "public@example.com",
			expected: "main@example.com",
		},
		{
			name: "unverified primary is skipped",
			emails: []githubEmail{
				{Email: "main@example.com", Primary: true, Verified: false},
			},
			fallback: "public@example.com",
			expected: "public@example.com",
		},
		{
			name:     "empty list falls back to profile email",
			emails:   nil,
			fallback: "public@example.com",
			expected: "public@example.com",
		},
		{
			name: "no match and no fallback",
			emails: []githubEmail{
				{Email: "side@example.com", Primary: false, Verified: false},
			},
			fallback: "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, pickVerifiedPrimaryEmail(tt.emails, tt.fallback))
		})
	}
}

func TestService_GoogleIdentity(t *testing.T) {
	tests := []struct {
		name          string
		claims        map[string]interface{}
		expectedEmail string
		expectedError error
	}{
		{
			name: "verified email",
			claims: map[string]interface{}{
				"email": "user@example.com", "email_verified": true, "name": "User",
			},
			expectedEmail: "user@example.com",
		},
		{
			name: "unverified email",
			claims: map[string]interface{}{
				"email": "user@example.com", "email_verified": false,
			},
			expectedError: ErrEmailNotVerified,
		},
		{
			name:          "missing email claim",
			claims:        map[string]interface{}{"email_verified": true},
			expectedError: ErrEmailNotVerified,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Service{
				googleClientID: "client-id",
				validateIDToken: func(ctx context.Context, token, audience string) (*idtoken.Payload, error) {
					return &idtoken.Payload{Claims: tt.claims}, nil
				},
			}

			token := (&oauth2.Token{AccessToken: "at"}).
				WithExtra(map[string]interface{}{"id_token": "raw-id-token"})

			identity, err := s.googleIdentity(context.Background(), token)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expectedEmail, identity.Email)
			}
		})
	}
}

func TestService_GoogleIdentity_MissingIDToken(t *testing.T) {
	s := &Service{googleClientID: "client-id"}

	_, err := s.googleIdentity(context.Background(), &oauth2.Token{AccessToken: "at"})
	assert.ErrorIs(t, err, ErrCodeExchange)
}

func TestService_GitHubIdentity(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/user":
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"login": "octo", "name": "Octo Cat", "email": "",
			})
		case "/user/emails":
			_ = json.NewEncoder(w).Encode([]map[string]interface{}{
				{"email": "side@example.com", "primary": false, "verified": true},
				{"email": "octo@example.com", "primary": true, "verified": true},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	s := &Service{githubAPIBase: server.URL}
	conf := &oauth2.Config{}

	identity, err := s.githubIdentity(context.Background(), conf, &oauth2.Token{AccessToken: "at"})
	require.NoError(t, err)
	assert.Equal(t, "octo@example.com", identity.Email)
	assert.Equal(t, "Octo Cat", identity.Name)
}

func TestService_GitHubIdentity_NoVerifiedEmail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/user":
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"login": "octo", "email": ""})
		case "/user/emails":
			_ = json.NewEncoder(w).Encode([]map[string]interface{}{
				{"email": "octo@example.com", "primary": true, "verified": false},
			})
		}
	}))
	defer server.Close()

	s := &Service{githubAPIBase: server.URL}

	_, err := s.githubIdentity(context.Background(), &oauth2.Config{}, &oauth2.Token{AccessToken: "at"})
	assert.ErrorIs(t, err, ErrEmailNotVerified)
}

func TestService_ConfRequiresCredentials(t *testing.T) {
	s := &Service{
		google: &oauth2.Config{},
		github: &oauth2.Config{ClientID: "id", ClientSecret: "secret"},
	}

	_, err := s.conf(ProviderGoogle)
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = s.conf(ProviderGitHub)
	assert.NoError(t, err)
}
