package consoleapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/academyos/console/core"
	"github.com/academyos/console/core/access"
	"github.com/academyos/console/core/banner"
	"github.com/academyos/console/core/session"
	"github.com/academyos/console/services/backend"
)

type sessionApi struct {
	store    *session.Store
	routes   *access.Routes
	backend  Authenticator
	banner   *banner.Banner
	validate *validator.Validate
	logger   core.Logger
}

type (
	LoginRequest struct {
		Email    string `json:"email" form:"email" validate:"required,email"`
		Password string `json:"password" form:"password" validate:"required"`
		Next     string `json:"next" form:"next" query:"next"`
	}

	PublicPageResponse struct {
		View access.View `json:"view"`
		Next string      `json:"next,omitempty"`
	}

	SessionResponse struct {
		Authenticated       bool              `json:"authenticated"`
		Identity            *session.Identity `json:"identity,omitempty"`
		Verdict             *session.Verdict  `json:"verdict,omitempty"`
		LockHint            bool              `json:"lockHint"`
		CredentialExpiresAt *time.Time        `json:"credentialExpiresAt,omitempty"`
		Banner              *banner.Message   `json:"banner,omitempty"`
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Email = core.CleanString(lr.Email, true /* lower */)
	lr.Next = core.CleanString(lr.Next)
	return validate.Struct(lr)
}

// Handlers

func (api *sessionApi) home(ctx echo.Context) error {
	if st := api.store.State(); st.Authenticated() {
		return ctx.Redirect(http.StatusFound, landing(*st.Identity, ""))
	}
	return ctx.Redirect(http.StatusFound, api.routes.LoginPath)
}

func (api *sessionApi) loginPage(ctx echo.Context) error {
	next := ctx.QueryParam("next")
	if st := api.store.State(); st.Authenticated() {
		return ctx.Redirect(http.StatusFound, landing(*st.Identity, next))
	}
	return ctx.JSON(http.StatusOK, PublicPageResponse{
		View: access.View{Path: api.routes.LoginPath, Name: "login", Title: "Sign in"},
		Next: localPath(next),
	})
}

func (api *sessionApi) registerPage(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, PublicPageResponse{
		View: access.View{Path: api.routes.RegisterPath, Name: "register", Title: "Register your center"},
	})
}

func (api *sessionApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	res, err := api.backend.Login(ctx.Request().Context(), backend.LoginRequest{Email: data.Email, Password: data.Password})
	if err != nil {
		return loginError(err)
	}

	if err = api.store.SetSession(res.Identity, res.Token, res.TrialExpired); err != nil {
		return errors.Wrap(err, "setting session")
	}
	api.logger.Info("signed in", res.Identity)
	return ctx.Redirect(http.StatusFound, landing(res.Identity, data.Next))
}

func (api *sessionApi) logout(ctx echo.Context) error {
	if st := api.store.State(); st.Identity != nil {
		api.logger.Info("signed out", *st.Identity)
	}
	api.store.Clear()
	return ctx.Redirect(http.StatusFound, api.routes.LoginPath)
}

func (api *sessionApi) session(ctx echo.Context) error {
	st := api.store.State()
	resp := SessionResponse{
		Authenticated: st.Authenticated(),
		Identity:      st.Identity,
		Verdict:       st.Verdict,
		LockHint:      st.LockHint,
	}
	if exp, ok := backend.CredentialExpiry(st.Credential); ok {
		resp.CredentialExpiresAt = &exp
	}
	if msg, shown := api.banner.Current(); shown {
		resp.Banner = &msg
	}
	return ctx.JSON(http.StatusOK, resp)
}

// loginError maps backend failures to what the login form shows.
func loginError(err error) error {
	apiErr, ok := errors.Cause(err).(*backend.APIError)
	switch {
	case !ok:
		return &echo.HTTPError{Code: errBackendUnavailable.Code, Message: errBackendUnavailable.Message, Internal: err}
	case apiErr.StatusCode == http.StatusUnauthorized:
		return core.NewValidationError(errInvalidCredentials)
	case apiErr.StatusCode < http.StatusInternalServerError:
		return core.NewValidationError(apiErr)
	default:
		return &echo.HTTPError{Code: errBackendUnavailable.Code, Message: errBackendUnavailable.Message, Internal: err}
	}
}

// landing is where a signed-in user goes: next when it is a console path, else their home.
func landing(id session.Identity, next string) string {
	if p := localPath(next); p != "" {
		return p
	}
	if id.IsSuperAdmin() {
		return "/super-admin"
	}
	return "/dashboard"
}

// localPath rejects anything that could leave the console (absolute or protocol-relative URLs).
func localPath(p string) string {
	p = strings.TrimSpace(p)
	if !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.Contains(p, "\\") {
		return ""
	}
	return p
}
