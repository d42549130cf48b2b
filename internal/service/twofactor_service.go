package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Omakidx/link6ync/internal/auth"
	"github.com/Omakidx/link6ync/internal/model"
	"github.com/Omakidx/link6ync/internal/repository"
	"github.com/Omakidx/link6ync/internal/totp"
)

var (
	// ErrTwoFactorNotSetup is returned when enabling 2FA before running setup.
	ErrTwoFactorNotSetup = errors.New("please set up two-factor authentication first")
	// ErrTwoFactorNotEnabled is returned when disabling 2FA on an account without it.
	ErrTwoFactorNotEnabled = errors.New("two-factor authentication is not enabled")
	// ErrInvalidTempToken is returned for a tampered or wrong-purpose 2FA login token.
	ErrInvalidTempToken = errors.New("invalid temporary token")
	// ErrTempTokenExpired is returned when the five-minute 2FA login window lapsed.
	ErrTempTokenExpired = errors.New("session expired, please sign in again")
)

// TwoFactorService manages TOTP enrollment and the second step of 2FA logins.
type TwoFactorService interface {
	Setup(ctx context.Context, userID uuid.UUID) (secret, otpauthURL string, err error)
	Enable(ctx context.Context, userID uuid.UUID, code string) error
	Disable(ctx context.Context, userID uuid.UUID, code string) error
	VerifyLogin(ctx context.Context, tempToken, code string) (*TokenPair, *model.User, error)
}

type twoFactorService struct {
	userRepo    repository.UserRepository
	jwtService  *auth.JWTService
	totpManager *totp.Manager
}

// NewTwoFactorService creates a new two-factor service.
func NewTwoFactorService(
	userRepo repository.UserRepository,
	jwtService *auth.JWTService,
	totpManager *totp.Manager,
) TwoFactorService {
	return &twoFactorService{
		userRepo:    userRepo,
		jwtService:  jwtService,
		totpManager: totpManager,
	}
}

// Setup generates and persists a fresh shared secret. The account stays at
// twoFactorEnabled=false until the user proves possession via Enable.
func (s *twoFactorService) Setup(ctx context.Context, userID uuid.UUID) (string, string, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return "", "", ErrUserNotFound
	}

	secret, otpauthURL, err := s.totpManager.GenerateSecret(user.Email)
	if err != nil {
		return "", "", fmt.Errorf("generate totp secret: %w", err)
	}

	user.TwoFactorSecret = secret
	user.TwoFactorEnabled = false
	if err := s.userRepo.Update(ctx, user); err != nil {
		return "", "", fmt.Errorf("store totp secret: %w", err)
	}

	return secret, otpauthURL, nil
}

// Enable flips twoFactorEnabled after the user submits a valid rolling code.
func (s *twoFactorService) Enable(ctx context.Context, userID uuid.UUID, code string) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return ErrUserNotFound
	}

	if user.TwoFactorSecret == "" {
		return ErrTwoFactorNotSetup
	}
	if !s.totpManager.Validate(code, user.TwoFactorSecret) {
		return ErrInvalidTwoFactorCode
	}

	user.TwoFactorEnabled = true
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("enable two-factor: %w", err)
	}
	return nil
}

// Disable requires a currently valid code, not just an authenticated session,
// so a stolen access token alone cannot turn 2FA off.
func (s *twoFactorService) Disable(ctx context.Context, userID uuid.UUID, code string) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return ErrUserNotFound
	}

	if !user.TwoFactorEnabled {
		return ErrTwoFactorNotEnabled
	}
	if user.TwoFactorSecret == "" {
		return ErrTwoFactorNotSetup
	}
	if !s.totpManager.Validate(code, user.TwoFactorSecret) {
		return ErrInvalidTwoFactorCode
	}

	user.TwoFactorEnabled = false
	user.TwoFactorSecret = ""
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("disable two-factor: %w", err)
	}
	return nil
}

// VerifyLogin exchanges a purpose-scoped temporary token plus a valid TOTP
// code for real session tokens.
func (s *twoFactorService) VerifyLogin(ctx context.Context, tempToken, code string) (*TokenPair, *model.User, error) {
	claims, err := s.jwtService.VerifyTwoFactorToken(tempToken)
	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) {
			return nil, nil, ErrTempTokenExpired
		}
		return nil, nil, ErrInvalidTempToken
	}

	user, err := findUserBySubject(ctx, s.userRepo, claims.Subject)
	if err != nil {
		return nil, nil, ErrUserNotFound
	}

	if user.TwoFactorSecret == "" {
		return nil, nil, ErrTwoFactorNotSetup
	}
	if !s.totpManager.Validate(code, user.TwoFactorSecret) {
		return nil, nil, ErrInvalidTwoFactorCode
	}

	accessToken, err := s.jwtService.GenerateAccessToken(user.ID.String(), user.Role, user.TokenVersion)
	if err != nil {
		return nil, nil, fmt.Errorf("generate access token: %w", err)
	}
	refreshToken, err := s.jwtService.GenerateRefreshToken(user.ID.String(), user.Role, user.TokenVersion)
	if err != nil {
		return nil, nil, fmt.Errorf("generate refresh token: %w", err)
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, user, nil
}
