package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const (
	// AccessTokenExpiry is the duration for which access tokens are valid.
	AccessTokenExpiry = 30 * time.Minute
	// RefreshTokenExpiry is the duration for which refresh tokens are valid.
	RefreshTokenExpiry = 7 * 24 * time.Hour
	// VerifyEmailTokenExpiry bounds the email verification link.
	VerifyEmailTokenExpiry = 24 * time.Hour
	// TwoFactorTokenExpiry bounds the purpose-scoped token handed out between
	// provider verification and TOTP verification.
	TwoFactorTokenExpiry = 5 * time.Minute

	// PurposeTwoFactor marks tokens that may only be exchanged together with a
	// valid TOTP code.
	PurposeTwoFactor = "2fa-verify"
	// PurposeVerifyEmail marks tokens that may only confirm an email address.
	PurposeVerifyEmail = "verify-email"
)

var (
	// ErrTokenExpired is returned when a token's TTL has lapsed. Callers can
	// react differently to an expired session than to a tampered token.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid is returned for bad signatures, malformed tokens and
	// wrong claims.
	ErrTokenInvalid = errors.New("invalid token")
)

// Claims represents JWT claims.
type Claims struct {
	Role         string `json:"role,omitempty"`
	TokenVersion int    `json:"tokenVersion"`
	Purpose      string `json:"purpose,omitempty"`
	jwt.RegisteredClaims
}

// JWTService mints and validates the signed tokens of the session lifecycle.
// Access and refresh tokens are signed with distinct secrets so one kind can
// never be replayed as the other.
type JWTService struct {
	accessSecret  []byte
	refreshSecret []byte
}

// NewJWTService creates a new JWT service with the given secrets.
func NewJWTService(accessSecret, refreshSecret string) *JWTService {
	return &JWTService{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
	}
}

// GenerateAccessToken mints a short-lived bearer token.
func (s *JWTService) GenerateAccessToken(userID, role string, tokenVersion int) (string, error) {
	return s.sign(s.accessSecret, &Claims{
		Role:         role,
		TokenVersion: tokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(AccessTokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	})
}

// GenerateRefreshToken mints a long-lived token, delivered only via the
// refresh cookie.
func (s *JWTService) GenerateRefreshToken(userID, role string, tokenVersion int) (string, error) {
	return s.sign(s.refreshSecret, &Claims{
		Role:         role,
		TokenVersion: tokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(RefreshTokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	})
}

// GenerateVerifyEmailToken mints the one-day token mailed after registration.
func (s *JWTService) GenerateVerifyEmailToken(userID string) (string, error) {
	return s.sign(s.accessSecret, &Claims{
		Purpose: PurposeVerifyEmail,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(VerifyEmailTokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	})
}

// GenerateTwoFactorToken mints the five-minute token issued when a login
// still needs TOTP verification.
func (s *JWTService) GenerateTwoFactorToken(userID string) (string, error) {
	return s.sign(s.accessSecret, &Claims{
		Purpose: PurposeTwoFactor,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(TwoFactorTokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	})
}

// VerifyAccessToken validates signature and expiry of an access token.
// Purpose-scoped tokens share the access secret but are never valid as bearer
// credentials. Freshness against the account's tokenVersion is checked by the
// caller.
func (s *JWTService) VerifyAccessToken(token string) (*Claims, error) {
	claims, err := s.parse(token, s.accessSecret)
	if err != nil {
		return nil, err
	}
	if claims.Purpose != "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// VerifyRefreshToken validates signature and expiry of a refresh token.
func (s *JWTService) VerifyRefreshToken(token string) (*Claims, error) {
	return s.parse(token, s.refreshSecret)
}

// VerifyEmailToken validates an email verification token. Tokens minted for
// any other use are rejected as invalid.
func (s *JWTService) VerifyEmailToken(token string) (*Claims, error) {
	claims, err := s.parse(token, s.accessSecret)
	if err != nil {
		return nil, err
	}
	if claims.Purpose != PurposeVerifyEmail {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// VerifyTwoFactorToken validates a purpose-scoped 2FA token. A token with any
// other purpose claim is rejected as invalid.
func (s *JWTService) VerifyTwoFactorToken(token string) (*Claims, error) {
	claims, err := s.parse(token, s.accessSecret)
	if err != nil {
		return nil, err
	}
	if claims.Purpose != PurposeTwoFactor {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

func (s *JWTService) sign(secret []byte, claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func (s *JWTService) parse(tokenString string, secret []byte) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}
