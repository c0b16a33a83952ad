package devapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

var (
	errUnauthorized         = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errAuthenticationFailed = echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	errHttpNotFound         = echo.NewHTTPError(http.StatusNotFound, "not found")
)
