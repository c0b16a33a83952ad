package consoleapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/academyos/console/apps/devbackend/academy"
	"github.com/academyos/console/core"
	"github.com/academyos/console/core/access"
	"github.com/academyos/console/core/banner"
	"github.com/academyos/console/core/session"
	"github.com/academyos/console/services/backend"
	"github.com/academyos/console/tests"
)

type testApp struct {
	*Server
	devBackend *testutil.DevBackend
	store      *session.Store
}

func setup(t *testing.T) testApp {
	be := testutil.NewDevBackend(t)
	conf := testutil.Config(be.APIURL())
	validate, translator := testutil.NewValidator()

	store := testutil.OpenStore(t)
	client := backend.New(conf.Backend, core.NewNopLogger())
	client.OnUnauthorized(store.Clear)

	bnr, err := banner.New(store)
	require.NoError(t, err)
	t.Cleanup(bnr.Close)

	srv := NewServer(ServerDeps{
		Conf:           conf,
		Logger:         core.NewNopLogger(),
		Store:          store,
		Gate:           access.NewGate(store, client, access.DefaultRoutes()),
		Backend:        client,
		Banner:         bnr,
		Validate:       validate,
		Translator:     translator,
		DisableReqLogs: true,
	})
	return testApp{Server: srv, devBackend: be, store: store}
}

// signIn puts the seeded user with email in the session, bypassing the login form.
func (app testApp) signIn(t *testing.T, email string) {
	t.Helper()
	client := backend.New(core.BackendConfig{BaseURL: app.devBackend.APIURL()}, core.NewNopLogger())
	res, err := client.Login(context.Background(), backend.LoginRequest{Email: email, Password: academy.SeedPassword})
	require.NoError(t, err)
	require.NoError(t, app.store.SetSession(res.Identity, res.Token, res.TrialExpired))
}

type httpErr struct {
	Message string `json:"message"`
}

type httpTest struct {
	name         string
	method       string
	path         string
	body         []byte
	wantCode     int
	wantLocation string
	wantData     []byte
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	return req, rec
}

func (app testApp) do(tt httpTest) *httptest.ResponseRecorder {
	method := tt.method
	if method == "" {
		method = http.MethodGet
	}
	req, rec := newRequest(method, tt.path, tt.body)
	app.ServeHTTP(rec, req)
	return rec
}

func marshallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshallObj() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkResponse(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantLocation != "" {
		assert.Equal(t, tt.wantLocation, rec.Header().Get("Location"))
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	assert.True(t, ok, "failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
}

func decodePage(t *testing.T, rec *httptest.ResponseRecorder) PageResponse {
	t.Helper()
	var page PageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	return page
}
