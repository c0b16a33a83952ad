package consoleapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/academyos/console/core"
	"github.com/academyos/console/core/access"
)

const contextDecisionKey = "decision"

// gateMiddleware runs the access gate for the requested path. A client that goes away
// while the gate is waiting on the backend abandons the navigation.
func gateMiddleware(gate *access.Gate, logger core.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			req := ctx.Request()
			nav := access.NewNavigation(req.Context())
			d := gate.Check(nav, req.URL.Path)

			if !nav.Alive() {
				logger.Debug("navigation abandoned", map[string]interface{}{"navigation": nav.ID, "path": d.Path})
				return nil
			}
			logger.Debug("navigation", map[string]interface{}{
				"navigation": nav.ID,
				"path":       d.Path,
				"outcome":    d.Outcome.String(),
			})

			if d.Redirect() {
				return ctx.Redirect(http.StatusFound, d.Location)
			}
			ctx.Set(contextDecisionKey, d)
			return next(ctx)
		}
	}
}

func getContextDecision(ctx echo.Context) (access.Decision, bool) {
	d, ok := ctx.Get(contextDecisionKey).(access.Decision)
	return d, ok
}
