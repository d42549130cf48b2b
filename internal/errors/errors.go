package errors

import (
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Response is the JSON body of every error returned by the API.
type Response struct {
	Message string `json:"message"`
}

// HTTPErrorHandler converts handler errors into JSON {message} bodies.
// Unexpected errors are logged and returned as generic 500s so internals
// never leak to the client.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	message := "Internal Server Error"

	if he, ok := err.(*echo.HTTPError); ok {
		status = he.Code
		switch m := he.Message.(type) {
		case string:
			message = m
		case Response:
			message = m.Message
		default:
			message = http.StatusText(status)
		}
		if he.Internal != nil {
			log.Printf("request error: %v", he.Internal)
		}
	} else {
		log.Printf("unexpected error: %v", err)
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	_ = c.JSON(status, Response{Message: message})
}
