package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Omakidx/link6ync/internal/service"
)

// AdminHandler serves the admin dashboard endpoints.
type AdminHandler struct {
	userService service.UserService
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(userService service.UserService) *AdminHandler {
	return &AdminHandler{userService: userService}
}

// Dashboard godoc
// @Summary List all registered users
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} errors.Response
// @Router /admin/dashboard [get]
func (h *AdminHandler) Dashboard(c echo.Context) error {
	users, err := h.userService.List(c.Request().Context())
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "Welcome to the admin dashboard",
		"users":   users,
	})
}
