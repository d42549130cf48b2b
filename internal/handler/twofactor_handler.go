package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Omakidx/link6ync/internal/middleware"
	"github.com/Omakidx/link6ync/internal/service"
)

// TwoFactorHandler handles TOTP enrollment and the 2FA login step.
type TwoFactorHandler struct {
	twoFactorService service.TwoFactorService
	isProd           bool
}

// NewTwoFactorHandler creates a new two-factor handler.
func NewTwoFactorHandler(twoFactorService service.TwoFactorService, isProd bool) *TwoFactorHandler {
	return &TwoFactorHandler{twoFactorService: twoFactorService, isProd: isProd}
}

// TwoFactorCodeRequest carries a 6-digit rolling code.
type TwoFactorCodeRequest struct {
	TwoFactorCode string `json:"twoFactorCode" validate:"required,len=6,numeric"`
}

// VerifyLoginRequest exchanges a temporary token plus code for session tokens.
type VerifyLoginRequest struct {
	TempToken     string `json:"tempToken" validate:"required"`
	TwoFactorCode string `json:"twoFactorCode" validate:"required,len=6,numeric"`
}

// Setup godoc
// @Summary Start TOTP enrollment
// @Tags 2fa
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]string
// @Router /auth/2fa/setup [get]
func (h *TwoFactorHandler) Setup(c echo.Context) error {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}

	secret, otpauthURL, err := h.twoFactorService.Setup(c.Request().Context(), p.ID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message":    "Scan the QR code with your authenticator app",
		"otpauthUrl": otpauthURL,
		"secret":     secret,
	})
}

// Verify godoc
// @Summary Prove possession of the TOTP secret and enable 2FA
// @Tags 2fa
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body TwoFactorCodeRequest true "Rolling code"
// @Success 200 {object} map[string]string
// @Failure 400 {object} errors.Response
// @Failure 403 {object} errors.Response
// @Router /auth/2fa/verify [post]
func (h *TwoFactorHandler) Verify(c echo.Context) error {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}

	var req TwoFactorCodeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Two-factor authentication code is required")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Two-factor authentication code is required")
	}

	if err := h.twoFactorService.Enable(c.Request().Context(), p.ID, req.TwoFactorCode); err != nil {
		switch {
		case errors.Is(err, service.ErrTwoFactorNotSetup):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrInvalidTwoFactorCode):
			return echo.NewHTTPError(http.StatusForbidden, err.Error())
		case errors.Is(err, service.ErrUserNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "2FA enabled successfully!"})
}

// Disable godoc
// @Summary Disable 2FA; requires a currently valid code
// @Tags 2fa
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body TwoFactorCodeRequest true "Rolling code"
// @Success 200 {object} map[string]string
// @Failure 400 {object} errors.Response
// @Failure 403 {object} errors.Response
// @Router /auth/2fa/disable [post]
func (h *TwoFactorHandler) Disable(c echo.Context) error {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}

	var req TwoFactorCodeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Two-factor authentication code is required")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Two-factor authentication code is required")
	}

	if err := h.twoFactorService.Disable(c.Request().Context(), p.ID, req.TwoFactorCode); err != nil {
		switch {
		case errors.Is(err, service.ErrTwoFactorNotEnabled), errors.Is(err, service.ErrTwoFactorNotSetup):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrInvalidTwoFactorCode):
			return echo.NewHTTPError(http.StatusForbidden, err.Error())
		case errors.Is(err, service.ErrUserNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Two-factor authentication disabled successfully"})
}

// VerifyLogin godoc
// @Summary Complete a 2FA login with the temporary token and code
// @Tags 2fa
// @Accept json
// @Produce json
// @Param request body VerifyLoginRequest true "Temporary token and rolling code"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} errors.Response
// @Failure 401 {object} errors.Response
// @Failure 403 {object} errors.Response
// @Router /auth/2fa/verify-login [post]
func (h *TwoFactorHandler) VerifyLogin(c echo.Context) error {
	var req VerifyLoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request data")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request data")
	}

	pair, user, err := h.twoFactorService.VerifyLogin(c.Request().Context(), req.TempToken, req.TwoFactorCode)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTempTokenExpired):
			return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
		case errors.Is(err, service.ErrInvalidTempToken), errors.Is(err, service.ErrTwoFactorNotSetup):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrInvalidTwoFactorCode):
			return echo.NewHTTPError(http.StatusForbidden, err.Error())
		case errors.Is(err, service.ErrUserNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return err
	}

	setRefreshCookie(c, pair.RefreshToken, h.isProd)

	return c.JSON(http.StatusOK, echo.Map{
		"message":     "Login successful",
		"accessToken": pair.AccessToken,
		"user":        user,
	})
}
