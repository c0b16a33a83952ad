// Package testutil holds helpers shared by the tests of several packages.
package testutil

import (
	"context"
	"net/http/httptest"
	"testing"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/academyos/console/apps/devbackend/academy"
	devapi "github.com/academyos/console/apps/devbackend/echo"
	"github.com/academyos/console/core"
	"github.com/academyos/console/core/session"
	"github.com/academyos/console/storage/sessionstore"
)

// NewValidator returns a validator with every custom tag of the module registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	session.InitValidators(validate, translator)
	return validate, translator
}

// Config returns the TEST configuration pointing at backendURL.
func Config(backendURL string) *core.Config {
	conf := core.NewConfig()
	conf.Debug = false
	conf.TestMode = true
	conf.Backend.BaseURL = backendURL
	conf.Session.Driver = sessionstore.DriverMemory
	return conf
}

// DevBackend is a seeded development backend served over HTTP.
type DevBackend struct {
	*httptest.Server
	Directory *academy.Directory
	App       *devapi.Server
}

// APIURL is the base URL of the REST API.
func (b *DevBackend) APIURL() string { return b.URL + "/api" }

// Token signs a credential for the seeded user with email.
func (b *DevBackend) Token(t *testing.T, email string) string {
	t.Helper()
	usr, err := b.Directory.GetUserByEmail(email)
	require.NoError(t, err)
	token, err := b.App.Authenticator().GenerateToken(b.App.Authenticator().GetUserClaims(usr))
	require.NoError(t, err)
	return token
}

func NewDevBackend(t *testing.T) *DevBackend {
	t.Helper()
	dir, err := academy.NewSeededDirectory()
	require.NoError(t, err)

	validate, translator := NewValidator()
	conf := Config("")
	app := devapi.NewServer(devapi.ServerDeps{
		Conf:           conf,
		Logger:         core.NewNopLogger(),
		Directory:      dir,
		Validate:       validate,
		Translator:     translator,
		DisableReqLogs: true,
	})
	srv := httptest.NewServer(app)
	t.Cleanup(srv.Close)
	return &DevBackend{Server: srv, Directory: dir, App: app}
}

// OpenStore opens a session store over an in-memory persister.
func OpenStore(t *testing.T, opts ...session.Option) *session.Store {
	t.Helper()
	store, err := session.Open(context.Background(), sessionstore.NewMemory(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(context.Background()) })
	return store
}
