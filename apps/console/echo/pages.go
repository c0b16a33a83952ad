package consoleapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/academyos/console/core/access"
	"github.com/academyos/console/core/banner"
	"github.com/academyos/console/core/session"
)

type pageApi struct {
	store  *session.Store
	banner *banner.Banner
}

type PageResponse struct {
	Path     string            `json:"path"`
	View     access.View       `json:"view"`
	Identity *session.Identity `json:"identity,omitempty"`
	Banner   *banner.Message   `json:"banner,omitempty"`
}

// render answers a navigation the gate let through.
func (api *pageApi) render(ctx echo.Context) error {
	d, ok := getContextDecision(ctx)
	if !ok {
		return errors.Wrap(errDecisionNotFoundInCtx, "retrieving decision from context")
	}
	if d.View.Path == "" {
		return errHttpNotFound
	}

	resp := PageResponse{Path: d.Path, View: d.View, Identity: api.store.State().Identity}
	if msg, shown := api.banner.Current(); shown {
		resp.Banner = &msg
	}
	return ctx.JSON(http.StatusOK, resp)
}
