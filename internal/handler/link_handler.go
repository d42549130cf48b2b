package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Omakidx/link6ync/internal/service"
)

// LinkHandler serves the URL shortener endpoints.
type LinkHandler struct {
	linkService service.LinkService
}

// NewLinkHandler creates a new link handler.
func NewLinkHandler(linkService service.LinkService) *LinkHandler {
	return &LinkHandler{linkService: linkService}
}

// ShortenRequest carries the URL to shorten.
type ShortenRequest struct {
	OriginalURL string `json:"originalUrl" validate:"required"`
}

// Shorten godoc
// @Summary Create a short code for a URL
// @Tags shortener
// @Accept json
// @Produce json
// @Param request body ShortenRequest true "URL to shorten"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} errors.Response
// @Router /short [post]
func (h *LinkHandler) Shorten(c echo.Context) error {
	var req ShortenRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request data")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "originalUrl is required")
	}

	link, err := h.linkService.Shorten(c.Request().Context(), req.OriginalURL)
	if err != nil {
		if errors.Is(err, service.ErrInvalidURL) {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid URL")
		}
		return err
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "URL shortened successfully",
		"url":     link,
	})
}

// Redirect godoc
// @Summary Redirect a short code to its original URL
// @Tags shortener
// @Produce json
// @Param shortCode path string true "Short code"
// @Success 302
// @Failure 404 {object} errors.Response
// @Router /{shortCode} [get]
func (h *LinkHandler) Redirect(c echo.Context) error {
	shortCode := c.Param("shortCode")

	link, err := h.linkService.Resolve(c.Request().Context(), shortCode)
	if err != nil {
		if errors.Is(err, service.ErrLinkNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "URL not found")
		}
		return err
	}

	return c.Redirect(http.StatusFound, link.OriginalURL)
}
