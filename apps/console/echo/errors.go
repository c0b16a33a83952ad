package consoleapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

var (
	errHttpNotFound          = echo.NewHTTPError(http.StatusNotFound, "not found")
	errBackendUnavailable    = echo.NewHTTPError(http.StatusBadGateway, "backend unavailable")
	errInvalidCredentials    = errors.New("invalid email or password")
	errDecisionNotFoundInCtx = errors.New("gate decision not found in echo.Context")
)
