package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/Omakidx/link6ync/internal/auth"
	"github.com/Omakidx/link6ync/internal/mailer"
	"github.com/Omakidx/link6ync/internal/model"
	"github.com/Omakidx/link6ync/internal/repository"
	"github.com/Omakidx/link6ync/internal/totp"
)

const resetTokenExpiry = 15 * time.Minute

var (
	// ErrUserAlreadyExists is returned when registering an email that is taken.
	ErrUserAlreadyExists = errors.New("user already exists")
	// ErrInvalidCredentials is returned when email or password is incorrect.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrEmailNotVerified is returned when logging in before verifying the email.
	ErrEmailNotVerified = errors.New("please verify your email before logging in")
	// ErrOAuthOnlyAccount is returned on password login against a provider-linked account.
	ErrOAuthOnlyAccount = errors.New("this account uses social login; please sign in with your provider")
	// ErrTwoFactorRequired is returned when the account has 2FA enabled and no code was supplied.
	ErrTwoFactorRequired = errors.New("two-factor authentication code is required")
	// ErrInvalidTwoFactorCode is returned for a wrong or stale TOTP code.
	ErrInvalidTwoFactorCode = errors.New("invalid two-factor authentication code")
	// ErrInvalidRefreshToken is returned for missing, invalid or revoked refresh tokens.
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")
	// ErrInvalidVerifyToken is returned for a bad or expired email verification token.
	ErrInvalidVerifyToken = errors.New("invalid or expired verification token")
	// ErrInvalidResetToken is returned for a bad or expired password reset token.
	ErrInvalidResetToken = errors.New("invalid or expired reset token")
	// ErrSamePassword is returned when the new password equals the current one.
	ErrSamePassword = errors.New("current password can't be set as new password")
	// ErrUserNotFound is returned when the addressed account does not exist.
	ErrUserNotFound = errors.New("user not found")
)

// TokenPair is an issued access/refresh token pair. The refresh token is only
// ever delivered through the refresh cookie.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// AuthService orchestrates the register/login/refresh/reset flows.
type AuthService interface {
	Register(ctx context.Context, name, email, password string) (*model.User, error)
	VerifyEmail(ctx context.Context, token string) (*model.User, error)
	Login(ctx context.Context, email, password, twoFactorCode string) (*TokenPair, *model.User, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, *model.User, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, rawToken, newPassword string) error
}

type authService struct {
	userRepo    repository.UserRepository
	jwtService  *auth.JWTService
	totpManager *totp.Manager
	mailer      mailer.Mailer
	frontendURL string
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	userRepo repository.UserRepository,
	jwtService *auth.JWTService,
	totpManager *totp.Manager,
	m mailer.Mailer,
	frontendURL string,
) AuthService {
	return &authService{
		userRepo:    userRepo,
		jwtService:  jwtService,
		totpManager: totpManager,
		mailer:      m,
		frontendURL: frontendURL,
	}
}

// Register creates an unverified account and mails the verification link.
func (s *authService) Register(ctx context.Context, name, email, password string) (*model.User, error) {
	normalized := model.NormalizeEmail(email)

	existing, err := s.userRepo.FindByEmail(ctx, normalized)
	if err == nil && existing != nil {
		return nil, ErrUserAlreadyExists
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check user existence: %w", err)
	}

	hashed, err := model.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Name:         name,
		Email:        normalized,
		PasswordHash: hashed,
		Role:         model.RoleUser,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	verifyToken, err := s.jwtService.GenerateVerifyEmailToken(user.ID.String())
	if err != nil {
		return nil, fmt.Errorf("generate verification token: %w", err)
	}
	verifyURL := fmt.Sprintf("%s/verify-email?token=%s", s.frontendURL, verifyToken)

	if err := s.mailer.SendVerificationEmail(user.Email, verifyURL, user.Name); err != nil {
		return nil, fmt.Errorf("send verification email: %w", err)
	}

	return user, nil
}

// VerifyEmail marks the account verified. Idempotent; the welcome email is
// best-effort and never fails the verification.
func (s *authService) VerifyEmail(ctx context.Context, token string) (*model.User, error) {
	claims, err := s.jwtService.VerifyEmailToken(token)
	if err != nil {
		return nil, ErrInvalidVerifyToken
	}

	user, err := s.findBySubject(ctx, claims.Subject)
	if err != nil {
		return nil, ErrInvalidVerifyToken
	}

	if user.IsEmailVerified {
		return user, nil
	}

	user.IsEmailVerified = true
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("mark email verified: %w", err)
	}

	if err := s.mailer.SendWelcomeEmail(user.Email, user.Name); err != nil {
		log.Printf("failed to send welcome email to %s: %v", user.Email, err)
	}

	return user, nil
}

// Login authenticates with password and, when enabled, a TOTP code, and
// issues a token pair.
func (s *authService) Login(ctx context.Context, email, password, twoFactorCode string) (*TokenPair, *model.User, error) {
	normalized := model.NormalizeEmail(email)

	user, err := s.userRepo.FindByEmail(ctx, normalized)
	if err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	if user.IsOAuthUser {
		return nil, nil, ErrOAuthOnlyAccount
	}

	if !user.CheckPassword(password) {
		return nil, nil, ErrInvalidCredentials
	}

	if !user.IsEmailVerified {
		return nil, nil, ErrEmailNotVerified
	}

	if user.TwoFactorEnabled {
		if twoFactorCode == "" {
			return nil, nil, ErrTwoFactorRequired
		}
		if user.TwoFactorSecret == "" {
			return nil, nil, fmt.Errorf("two-factor enabled without a secret for user %s", user.ID)
		}
		if !s.totpManager.Validate(twoFactorCode, user.TwoFactorSecret) {
			return nil, nil, ErrInvalidTwoFactorCode
		}
	}

	pair, err := s.issuePair(user)
	if err != nil {
		return nil, nil, err
	}
	return pair, user, nil
}

// Refresh rotates a valid refresh token into a new pair. Tokens minted before
// a password reset carry a stale tokenVersion and are rejected.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, *model.User, error) {
	claims, err := s.jwtService.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, nil, ErrInvalidRefreshToken
	}

	user, err := s.findBySubject(ctx, claims.Subject)
	if err != nil {
		return nil, nil, ErrInvalidRefreshToken
	}

	if user.TokenVersion != claims.TokenVersion {
		return nil, nil, ErrInvalidRefreshToken
	}

	pair, err := s.issuePair(user)
	if err != nil {
		return nil, nil, err
	}
	return pair, user, nil
}

// ForgotPassword stores a hashed one-time token and mails the raw token.
// It deliberately returns nil for unknown emails so the endpoint response is
// identical whether or not the account exists.
func (s *authService) ForgotPassword(ctx context.Context, email string) error {
	normalized := model.NormalizeEmail(email)

	user, err := s.userRepo.FindByEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("lookup user: %w", err)
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return fmt.Errorf("generate reset token: %w", err)
	}
	rawToken := hex.EncodeToString(raw)
	tokenHash := sha256.Sum256([]byte(rawToken))

	user.ResetPasswordToken = hex.EncodeToString(tokenHash[:])
	expires := time.Now().Add(resetTokenExpiry)
	user.ResetPasswordExpires = &expires

	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}

	resetURL := fmt.Sprintf("%s/reset-password?token=%s", s.frontendURL, rawToken)
	if err := s.mailer.SendPasswordResetEmail(user.Email, resetURL, user.Name); err != nil {
		// Do not surface mailer failures; the response must stay generic.
		log.Printf("failed to send password reset email to %s: %v", user.Email, err)
	}

	return nil
}

// ResetPassword consumes a valid reset token, rehashes the password and bumps
// tokenVersion so every outstanding session is revoked.
func (s *authService) ResetPassword(ctx context.Context, rawToken, newPassword string) error {
	tokenHash := sha256.Sum256([]byte(rawToken))

	user, err := s.userRepo.FindByResetToken(ctx, hex.EncodeToString(tokenHash[:]), time.Now())
	if err != nil {
		return ErrInvalidResetToken
	}

	if user.CheckPassword(newPassword) {
		return ErrSamePassword
	}

	if err := user.SetPassword(newPassword); err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.ClearResetToken()
	user.TokenVersion++

	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

func (s *authService) issuePair(user *model.User) (*TokenPair, error) {
	accessToken, err := s.jwtService.GenerateAccessToken(user.ID.String(), user.Role, user.TokenVersion)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}
	refreshToken, err := s.jwtService.GenerateRefreshToken(user.ID.String(), user.Role, user.TokenVersion)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}
	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func (s *authService) findBySubject(ctx context.Context, subject string) (*model.User, error) {
	return findUserBySubject(ctx, s.userRepo, subject)
}
