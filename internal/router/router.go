package router

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/Omakidx/link6ync/internal/auth"
	"github.com/Omakidx/link6ync/internal/cache"
	"github.com/Omakidx/link6ync/internal/config"
	apperrors "github.com/Omakidx/link6ync/internal/errors"
	"github.com/Omakidx/link6ync/internal/handler"
	"github.com/Omakidx/link6ync/internal/middleware"
	"github.com/Omakidx/link6ync/internal/model"
	"github.com/Omakidx/link6ync/internal/repository"
)

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	jwtService *auth.JWTService,
	cacheClient *cache.Client,
	userRepo repository.UserRepository,
	authHandler *handler.AuthHandler,
	twoFactorHandler *handler.TwoFactorHandler,
	oauthHandler *handler.OAuthHandler,
	userHandler *handler.UserHandler,
	adminHandler *handler.AdminHandler,
	linkHandler *handler.LinkHandler,
) {
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     []string{cfg.FrontendURL},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowCredentials: true,
	}))

	e.Validator = &CustomValidator{validator: validator.New()}
	e.HTTPErrorHandler = apperrors.HTTPErrorHandler

	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// JWT middleware hands verified claims to LoadPrincipal, which rejects
	// tokens issued before a password reset bumped the token version.
	requireAuth := echojwt.WithConfig(echojwt.Config{
		TokenLookup: "header:" + echo.HeaderAuthorization + ":Bearer ",
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			return jwtService.VerifyAccessToken(token)
		},
	})
	loadPrincipal := middleware.LoadPrincipal(userRepo)

	authLimit := middleware.RateLimit(cacheClient, "auth", 10, 15*time.Minute)
	loginLimit := middleware.RateLimit(cacheClient, "login", 5, 15*time.Minute)
	passwordResetLimit := middleware.RateLimit(cacheClient, "password-reset", 3, time.Hour)
	verificationLimit := middleware.RateLimit(cacheClient, "verification", 5, 15*time.Minute)
	twoFactorLimit := middleware.RateLimit(cacheClient, "2fa", 10, 15*time.Minute)

	authGroup := e.Group("/auth")
	authGroup.POST("/register", authHandler.Register, authLimit)
	authGroup.GET("/verify-email", authHandler.VerifyEmail, verificationLimit)
	authGroup.POST("/login", authHandler.Login, loginLimit)
	authGroup.POST("/refresh", authHandler.Refresh)
	authGroup.POST("/logout", authHandler.Logout)
	authGroup.POST("/forgot-password", authHandler.ForgotPassword, passwordResetLimit)
	authGroup.POST("/reset-password", authHandler.ResetPassword, passwordResetLimit)

	authGroup.GET("/google", oauthHandler.GoogleRedirect, authLimit)
	authGroup.GET("/google/callback", oauthHandler.GoogleCallback, authLimit)
	authGroup.GET("/github", oauthHandler.GitHubRedirect, authLimit)
	authGroup.GET("/github/callback", oauthHandler.GitHubCallback, authLimit)

	twoFactor := authGroup.Group("/2fa")
	twoFactor.POST("/verify-login", twoFactorHandler.VerifyLogin, twoFactorLimit)

	twoFactorSecured := twoFactor.Group("", requireAuth, loadPrincipal)
	twoFactorSecured.GET("/setup", twoFactorHandler.Setup, twoFactorLimit)
	twoFactorSecured.POST("/verify", twoFactorHandler.Verify, twoFactorLimit)
	twoFactorSecured.POST("/disable", twoFactorHandler.Disable, twoFactorLimit)

	user := e.Group("/user", requireAuth, loadPrincipal)
	user.GET("/me", userHandler.Me)
	user.PATCH("/profile", userHandler.UpdateProfile)

	admin := e.Group("/admin", requireAuth, loadPrincipal, middleware.RequireRole(model.RoleAdmin))
	admin.GET("/dashboard", adminHandler.Dashboard)

	// Shortener routes. The catch-all redirect is registered last so it
	// does not shadow the named routes above.
	e.POST("/short", linkHandler.Shorten)
	e.GET("/:shortCode", linkHandler.Redirect)
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
