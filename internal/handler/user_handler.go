package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Omakidx/link6ync/internal/middleware"
	"github.com/Omakidx/link6ync/internal/service"
)

// UserHandler handles the profile surface.
type UserHandler struct {
	userService service.UserService
}

// NewUserHandler creates a new user handler.
func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// UpdateProfileRequest carries the editable profile fields.
type UpdateProfileRequest struct {
	Name string `json:"name" validate:"required,min=3,max=150"`
}

// Me godoc
// @Summary Return the authenticated principal
// @Tags user
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} errors.Response
// @Router /user/me [get]
func (h *UserHandler) Me(c echo.Context) error {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"user": echo.Map{
			"id":               p.ID,
			"email":            p.Email,
			"name":             p.Name,
			"role":             p.Role,
			"isEmailVerified":  p.IsEmailVerified,
			"twoFactorEnabled": p.TwoFactorEnabled,
			"isOAuthUser":      p.IsOAuthUser,
		},
	})
}

// UpdateProfile godoc
// @Summary Update the profile name
// @Tags user
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body UpdateProfileRequest true "Profile fields"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} errors.Response
// @Router /user/profile [patch]
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}

	var req UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request data")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request data")
	}

	user, err := h.userService.UpdateName(c.Request().Context(), p.ID, req.Name)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "Profile updated successfully",
		"user":    user,
	})
}
