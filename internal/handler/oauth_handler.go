package handler

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/Omakidx/link6ync/internal/oauth"
	"github.com/Omakidx/link6ync/internal/service"
)

// OAuthHandler drives the provider redirect flows. Callback failures are
// surfaced as redirects with an error query parameter so the SPA can render
// a message instead of a bare status code.
type OAuthHandler struct {
	oauthService service.OAuthService
	frontendURL  string
	isProd       bool
}

// NewOAuthHandler creates a new OAuth handler.
func NewOAuthHandler(oauthService service.OAuthService, frontendURL string, isProd bool) *OAuthHandler {
	return &OAuthHandler{oauthService: oauthService, frontendURL: frontendURL, isProd: isProd}
}

// GoogleRedirect godoc
// @Summary Redirect to the Google consent screen
// @Tags oauth
// @Success 307
// @Router /auth/google [get]
func (h *OAuthHandler) GoogleRedirect(c echo.Context) error {
	return h.redirect(c, oauth.ProviderGoogle)
}

// GoogleCallback godoc
// @Summary Google OAuth callback
// @Tags oauth
// @Success 307
// @Router /auth/google/callback [get]
func (h *OAuthHandler) GoogleCallback(c echo.Context) error {
	return h.callback(c, oauth.ProviderGoogle)
}

// GitHubRedirect godoc
// @Summary Redirect to the GitHub consent screen
// @Tags oauth
// @Success 307
// @Router /auth/github [get]
func (h *OAuthHandler) GitHubRedirect(c echo.Context) error {
	return h.redirect(c, oauth.ProviderGitHub)
}

// GitHubCallback godoc
// @Summary GitHub OAuth callback
// @Tags oauth
// @Success 307
// @Router /auth/github/callback [get]
func (h *OAuthHandler) GitHubCallback(c echo.Context) error {
	return h.callback(c, oauth.ProviderGitHub)
}

func (h *OAuthHandler) redirect(c echo.Context, provider oauth.Provider) error {
	authURL, err := h.oauthService.AuthURL(c.Request().Context(), provider)
	if err != nil {
		if errors.Is(err, oauth.ErrNotConfigured) {
			// Configuration error, not a user mistake.
			return echo.NewHTTPError(http.StatusInternalServerError, "Internal Server Error").SetInternal(err)
		}
		return err
	}
	return c.Redirect(http.StatusTemporaryRedirect, authURL)
}

func (h *OAuthHandler) callback(c echo.Context, provider oauth.Provider) error {
	code := c.QueryParam("code")
	if code == "" {
		return h.loginError(c, "Missing authorization code")
	}

	result, err := h.oauthService.HandleCallback(c.Request().Context(), provider, code, c.QueryParam("state"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAccountExistsWithPassword):
			return h.loginError(c, err.Error())
		case errors.Is(err, oauth.ErrEmailNotVerified):
			return h.loginError(c, fmt.Sprintf("No verified email found on %s account", provider))
		case errors.Is(err, oauth.ErrCodeExchange):
			log.Printf("%s oauth code exchange failed: %v", provider, err)
			return h.loginError(c, "Authorization code has expired or already been used. Please try signing in again.")
		case errors.Is(err, oauth.ErrInvalidState):
			return h.loginError(c, "Authentication failed")
		case errors.Is(err, oauth.ErrNotConfigured):
			return echo.NewHTTPError(http.StatusInternalServerError, "Internal Server Error").SetInternal(err)
		}
		log.Printf("%s oauth callback error: %v", provider, err)
		return h.loginError(c, "Authentication failed")
	}

	if result.Requires2FA {
		target := fmt.Sprintf("%s/callback?requires2fa=true&tempToken=%s&provider=%s",
			h.frontendURL, url.QueryEscape(result.TempToken), provider)
		return c.Redirect(http.StatusTemporaryRedirect, target)
	}

	setRefreshCookie(c, result.TokenPair.RefreshToken, h.isProd)

	target := fmt.Sprintf("%s/callback?token=%s&provider=%s",
		h.frontendURL, url.QueryEscape(result.TokenPair.AccessToken), provider)
	return c.Redirect(http.StatusTemporaryRedirect, target)
}

func (h *OAuthHandler) loginError(c echo.Context, message string) error {
	target := fmt.Sprintf("%s/login?error=%s", h.frontendURL, url.QueryEscape(message))
	return c.Redirect(http.StatusTemporaryRedirect, target)
}
