// Package devapi serves a development stand-in of the AcademyOS backend.
package devapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/academyos/console/apps/devbackend/academy"
	"github.com/academyos/console/apps/shared"
	"github.com/academyos/console/core"
)

type ServerDeps struct {
	Conf           *core.Config
	Logger         core.Logger
	Directory      *academy.Directory
	Validate       *validator.Validate
	Translator     ut.Translator
	DisableReqLogs bool
}

type Server struct {
	*shared.Server
	deps ServerDeps
	auth *Authenticator
}

func NewServer(deps ServerDeps) *Server {
	conf := deps.Conf
	s := &Server{
		Server: shared.NewServer(conf.DevBackend.Address, conf.Debug, conf.TestMode, deps.DisableReqLogs),
		deps:   deps,
		auth:   NewAuthenticator(conf.AppName, conf.DevBackend.SecretKey, conf.DevBackend.JWTExpirationDelta, deps.Directory),
	}
	s.setup()
	return s
}

func (s *Server) Authenticator() *Authenticator { return s.auth }

func (s *Server) setup() {
	app := s.App()
	app.HTTPErrorHandler = shared.NewHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.SignalShutdown, s.logArgs)

	app.GET("/", home)

	api := app.Group("/api")
	registerAcademyAPI(api, s.auth.Middleware(), s.auth, s.deps.Directory, s.deps.Validate)
}

func (s *Server) logArgs(ctx echo.Context) []interface{} {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return nil
	}
	return []interface{}{map[string]interface{}{"user": claims.Subject, "email": claims.Email}}
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "AcademyOS development backend")
}
