package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Omakidx/link6ync/internal/auth"
	"github.com/Omakidx/link6ync/internal/model"
	"github.com/Omakidx/link6ync/internal/oauth"
	"github.com/Omakidx/link6ync/internal/repository"
)

// ErrAccountExistsWithPassword is returned when the provider email belongs to
// a password-registered account. Linking is refused so a matching email claim
// at a provider can never take over a password account.
var ErrAccountExistsWithPassword = errors.New(
	"this email is registered with email and password; please sign in using your password")

// OAuthResult is the outcome of a provider callback. Either a full token pair
// is issued, or Requires2FA is set with a short-lived purpose-scoped token.
type OAuthResult struct {
	TokenPair   *TokenPair
	User        *model.User
	Requires2FA bool
	TempToken   string
}

// OAuthService drives the provider consent and callback flows.
type OAuthService interface {
	AuthURL(ctx context.Context, provider oauth.Provider) (string, error)
	HandleCallback(ctx context.Context, provider oauth.Provider, code, state string) (*OAuthResult, error)
}

type oauthService struct {
	userRepo   repository.UserRepository
	jwtService *auth.JWTService
	linker     oauth.Linker
}

// NewOAuthService creates a new OAuth service.
func NewOAuthService(
	userRepo repository.UserRepository,
	jwtService *auth.JWTService,
	linker oauth.Linker,
) OAuthService {
	return &oauthService{
		userRepo:   userRepo,
		jwtService: jwtService,
		linker:     linker,
	}
}

func (s *oauthService) AuthURL(ctx context.Context, provider oauth.Provider) (string, error) {
	return s.linker.AuthURL(ctx, provider)
}

// HandleCallback exchanges the authorization code, resolves the verified
// email and links or creates the local account.
func (s *oauthService) HandleCallback(ctx context.Context, provider oauth.Provider, code, state string) (*OAuthResult, error) {
	identity, err := s.linker.Exchange(ctx, provider, code, state)
	if err != nil {
		return nil, err
	}

	normalized := model.NormalizeEmail(identity.Email)

	user, err := s.userRepo.FindByEmail(ctx, normalized)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		user, err = s.createOAuthUser(ctx, normalized, identity.Name)
		if err != nil {
			return nil, err
		}
	case err != nil:
		return nil, fmt.Errorf("lookup user: %w", err)
	default:
		if !user.IsOAuthUser {
			return nil, ErrAccountExistsWithPassword
		}
		if !user.IsEmailVerified {
			user.IsEmailVerified = true
			if err := s.userRepo.Update(ctx, user); err != nil {
				return nil, fmt.Errorf("mark email verified: %w", err)
			}
		}
	}

	if user.TwoFactorEnabled {
		tempToken, err := s.jwtService.GenerateTwoFactorToken(user.ID.String())
		if err != nil {
			return nil, fmt.Errorf("generate temporary token: %w", err)
		}
		return &OAuthResult{User: user, Requires2FA: true, TempToken: tempToken}, nil
	}

	accessToken, err := s.jwtService.GenerateAccessToken(user.ID.String(), user.Role, user.TokenVersion)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}
	refreshToken, err := s.jwtService.GenerateRefreshToken(user.ID.String(), user.Role, user.TokenVersion)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	return &OAuthResult{
		TokenPair: &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken},
		User:      user,
	}, nil
}

// createOAuthUser creates a verified provider-linked account. A random
// unusable password keeps the password hash invariant satisfied; password
// login is blocked by the isOAuthUser flag.
func (s *oauthService) createOAuthUser(ctx context.Context, email, name string) (*model.User, error) {
	raw := make([]byte, 16)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("generate random password: %w", err)
	}
	hashed, err := model.HashPassword(hex.EncodeToString(raw))
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Name:            name,
		Email:           email,
		PasswordHash:    hashed,
		Role:            model.RoleUser,
		IsEmailVerified: true,
		IsOAuthUser:     true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}
