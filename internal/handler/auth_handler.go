package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Omakidx/link6ync/internal/auth"
	"github.com/Omakidx/link6ync/internal/service"
)

const refreshCookieName = "refreshToken"

// forgotPasswordMessage is returned whether or not the email exists.
const forgotPasswordMessage = "If an account with this email exists, we would send you a reset link"

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService service.AuthService
	isProd      bool
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService service.AuthService, isProd bool) *AuthHandler {
	return &AuthHandler{authService: authService, isProd: isProd}
}

// RegisterRequest represents a user registration request.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=3,max=150"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Email         string `json:"email" validate:"required,email"`
	Password      string `json:"password" validate:"required"`
	TwoFactorCode string `json:"twoFactorCode"`
}

// ForgotPasswordRequest carries the email to send a reset link to.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest carries the raw reset token and the new password.
type ResetPasswordRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
}

// Register godoc
// @Summary Register a new account
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration data"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} errors.Response
// @Router /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request data")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request data")
	}

	user, err := h.authService.Register(c.Request().Context(), req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrUserAlreadyExists) {
			return echo.NewHTTPError(http.StatusBadRequest, "User already exists")
		}
		return err
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "User registered successfully",
		"user":    user,
	})
}

// VerifyEmail godoc
// @Summary Verify an email address
// @Tags auth
// @Produce json
// @Param token query string true "Verification token"
// @Success 200 {object} map[string]string
// @Failure 400 {object} errors.Response
// @Router /auth/verify-email [get]
func (h *AuthHandler) VerifyEmail(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Verification token is missing")
	}

	if _, err := h.authService.VerifyEmail(c.Request().Context(), token); err != nil {
		if errors.Is(err, service.ErrInvalidVerifyToken) {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid or expired verification token")
		}
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Email is now verified"})
}

// Login godoc
// @Summary Login with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} errors.Response
// @Failure 403 {object} errors.Response
// @Router /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request data")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request data")
	}

	pair, user, err := h.authService.Login(c.Request().Context(), req.Email, req.Password, req.TwoFactorCode)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTwoFactorRequired):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrInvalidCredentials),
			errors.Is(err, service.ErrEmailNotVerified),
			errors.Is(err, service.ErrOAuthOnlyAccount),
			errors.Is(err, service.ErrInvalidTwoFactorCode):
			return echo.NewHTTPError(http.StatusForbidden, err.Error())
		}
		return err
	}

	setRefreshCookie(c, pair.RefreshToken, h.isProd)

	return c.JSON(http.StatusOK, echo.Map{
		"message":     "Login Successful",
		"accessToken": pair.AccessToken,
		"user":        user,
	})
}

// Refresh godoc
// @Summary Rotate the refresh token into a new token pair
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} errors.Response
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	cookie, err := c.Cookie(refreshCookieName)
	if err != nil || cookie.Value == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "Refresh token missing")
	}

	pair, user, err := h.authService.Refresh(c.Request().Context(), cookie.Value)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRefreshToken) {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid refresh token")
		}
		return err
	}

	setRefreshCookie(c, pair.RefreshToken, h.isProd)

	return c.JSON(http.StatusOK, echo.Map{
		"message":     "Token Refreshed",
		"accessToken": pair.AccessToken,
		"user":        user,
	})
}

// Logout godoc
// @Summary Logout and clear the refresh cookie
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]string
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	clearRefreshCookie(c, h.isProd)
	return c.JSON(http.StatusOK, echo.Map{"message": "Logged out successfully"})
}

// ForgotPassword godoc
// @Summary Request a password reset link
// @Tags auth
// @Accept json
// @Produce json
// @Param request body ForgotPasswordRequest true "Account email"
// @Success 201 {object} map[string]string
// @Router /auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req ForgotPasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Email is required")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Email is required")
	}

	if err := h.authService.ForgotPassword(c.Request().Context(), req.Email); err != nil {
		return err
	}

	// Same message and status whether or not the account exists.
	return c.JSON(http.StatusCreated, echo.Map{"message": forgotPasswordMessage})
}

// ResetPassword godoc
// @Summary Reset the password with a one-time token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body ResetPasswordRequest true "Reset token and new password"
// @Success 200 {object} map[string]string
// @Failure 400 {object} errors.Response
// @Router /auth/reset-password [post]
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req ResetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request data")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Password must be at least 6 characters long")
	}

	if err := h.authService.ResetPassword(c.Request().Context(), req.Token, req.Password); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidResetToken), errors.Is(err, service.ErrSamePassword):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Password has been reset successfully"})
}

func setRefreshCookie(c echo.Context, token string, isProd bool) {
	sameSite := http.SameSiteLaxMode
	if isProd {
		sameSite = http.SameSiteNoneMode
	}
	c.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(auth.RefreshTokenExpiry / time.Second),
		HttpOnly: true,
		Secure:   isProd,
		SameSite: sameSite,
	})
}

func clearRefreshCookie(c echo.Context, isProd bool) {
	sameSite := http.SameSiteLaxMode
	if isProd {
		sameSite = http.SameSiteNoneMode
	}
	c.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   isProd,
		SameSite: sameSite,
	})
}
