// Package consoleapi serves the AcademyOS console: login and logout, the session summary
// and every protected view behind the access gate.
package consoleapi

import (
	"context"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/academyos/console/apps/shared"
	"github.com/academyos/console/core"
	"github.com/academyos/console/core/access"
	"github.com/academyos/console/core/banner"
	"github.com/academyos/console/core/session"
	"github.com/academyos/console/services/backend"
)

// Authenticator signs users in against the backend.
type Authenticator interface {
	Login(ctx context.Context, lr backend.LoginRequest) (backend.LoginResult, error)
}

type ServerDeps struct {
	Conf           *core.Config
	Logger         core.Logger
	Store          *session.Store
	Gate           *access.Gate
	Backend        Authenticator
	Banner         *banner.Banner
	Validate       *validator.Validate
	Translator     ut.Translator
	DisableReqLogs bool
}

type Server struct {
	*shared.Server
	deps ServerDeps
}

func NewServer(deps ServerDeps) *Server {
	conf := deps.Conf
	s := &Server{
		Server: shared.NewServer(conf.Console.Address, conf.Debug, conf.TestMode, deps.DisableReqLogs),
		deps:   deps,
	}
	s.setup()
	return s
}

func (s *Server) setup() {
	app := s.App()
	app.HTTPErrorHandler = shared.NewHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.SignalShutdown, s.logArgs)

	routes := s.deps.Gate.Routes()
	api := sessionApi{
		store:    s.deps.Store,
		routes:   routes,
		backend:  s.deps.Backend,
		banner:   s.deps.Banner,
		validate: s.deps.Validate,
		logger:   s.deps.Logger,
	}
	app.GET("/", api.home)
	app.GET(routes.LoginPath, api.loginPage)
	app.POST(routes.LoginPath, api.login)
	app.GET(routes.RegisterPath, api.registerPage)
	app.POST("/logout", api.logout)
	app.GET("/session", api.session)

	// everything else is a console view
	pages := pageApi{store: s.deps.Store, banner: s.deps.Banner}
	app.GET("/*", pages.render, gateMiddleware(s.deps.Gate, s.deps.Logger))
}

func (s *Server) logArgs(echo.Context) []interface{} {
	if st := s.deps.Store.State(); st.Identity != nil {
		return []interface{}{*st.Identity}
	}
	return nil
}
