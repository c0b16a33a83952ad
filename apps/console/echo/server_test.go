package consoleapi

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/academyos/console/apps/devbackend/academy"
	"github.com/academyos/console/core/banner"
	"github.com/academyos/console/core/session"
	"github.com/academyos/console/core/subscription"
)

func TestServer_anonymous(t *testing.T) {
	app := setup(t)

	tests := []httpTest{
		{name: "home", path: "/", wantCode: http.StatusFound, wantLocation: "/login"},
		{name: "dashboard", path: "/dashboard", wantCode: http.StatusFound, wantLocation: "/login?next=%2Fdashboard"},
		{name: "trailing slash", path: "/dashboard/fees/", wantCode: http.StatusFound, wantLocation: "/login?next=%2Fdashboard%2Ffees"},
		{name: "super-admin", path: "/super-admin/centers", wantCode: http.StatusFound, wantLocation: "/login?next=%2Fsuper-admin%2Fcenters"},
		{name: "unauthorized page", path: "/unauthorized", wantCode: http.StatusFound, wantLocation: "/login?next=%2Funauthorized"},
		{
			name:     "login page",
			path:     "/login?next=/dashboard/fees",
			wantCode: http.StatusOK,
			wantData: []byte(`{"view":{"path":"/login","name":"login","title":"Sign in"},"next":"/dashboard/fees"}`),
		},
		{
			name:     "register page",
			path:     "/register",
			wantCode: http.StatusOK,
			wantData: []byte(`{"view":{"path":"/register","name":"register","title":"Register your center"}}`),
		},
		{
			name:     "session",
			path:     "/session",
			wantCode: http.StatusOK,
			wantData: []byte(`{"authenticated":false,"lockHint":false}`),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkResponse(t, tt, app.do(tt))
		})
	}
}

func TestServer_login(t *testing.T) {
	tests := []httpTest{
		{
			name:     "missing fields",
			body:     []byte(`{}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"email":"this field is required","password":"this field is required"}`),
		},
		{
			name:     "wrong password",
			body:     []byte(`{"email":"admin@sunrise.dev","password":"nope"}`),
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, httpErr{Message: "invalid email or password"}),
		},
		{
			name:         "center admin",
			body:         []byte(`{"email":"Admin@Sunrise.dev","password":"` + academy.SeedPassword + `"}`),
			wantCode:     http.StatusFound,
			wantLocation: "/dashboard",
		},
		{
			name:         "next",
			body:         []byte(`{"email":"teacher@sunrise.dev","password":"` + academy.SeedPassword + `","next":"/dashboard/fees"}`),
			wantCode:     http.StatusFound,
			wantLocation: "/dashboard/fees",
		},
		{
			name:         "next off-site",
			body:         []byte(`{"email":"teacher@sunrise.dev","password":"` + academy.SeedPassword + `","next":"//evil.example.com"}`),
			wantCode:     http.StatusFound,
			wantLocation: "/dashboard",
		},
		{
			name:         "super-admin",
			body:         []byte(`{"email":"owner@academyos.dev","password":"` + academy.SeedPassword + `"}`),
			wantCode:     http.StatusFound,
			wantLocation: "/super-admin",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := setup(t)
			tt.method = http.MethodPost
			tt.path = "/login"
			checkResponse(t, tt, app.do(tt))

			st := app.store.State()
			assert.Equal(t, tt.wantCode == http.StatusFound, st.Authenticated())
			assert.Nil(t, st.Verdict, "login resets the verdict")
		})
	}
}

func TestServer_loginPageWhenSignedIn(t *testing.T) {
	app := setup(t)
	app.signIn(t, "admin@sunrise.dev")

	checkResponse(t, httpTest{wantCode: http.StatusFound, wantLocation: "/dashboard"}, app.do(httpTest{path: "/"}))
	checkResponse(t, httpTest{wantCode: http.StatusFound, wantLocation: "/dashboard"}, app.do(httpTest{path: "/login"}))
	checkResponse(t, httpTest{wantCode: http.StatusFound, wantLocation: "/dashboard/fees"}, app.do(httpTest{path: "/login?next=/dashboard/fees"}))
}

func TestServer_trialCenter(t *testing.T) {
	app := setup(t)
	app.signIn(t, "admin@sunrise.dev")

	rec := app.do(httpTest{path: "/dashboard"})
	require.Equal(t, http.StatusOK, rec.Code)
	page := decodePage(t, rec)
	assert.Equal(t, "dashboard", page.View.Name)
	require.NotNil(t, page.Identity)
	assert.Equal(t, "Sunrise Academy", page.Identity.CenterName)
	require.NotNil(t, page.Banner)
	assert.Equal(t, banner.LevelInfo, page.Banner.Level)

	st := app.store.State()
	require.NotNil(t, st.Verdict)
	assert.Equal(t, subscription.StatusTrial, st.Verdict.Status)
	assert.False(t, st.LockHint)

	tests := []httpTest{
		{name: "settings", path: "/dashboard/settings", wantCode: http.StatusOK},
		{name: "upgrade", path: "/dashboard/upgrade", wantCode: http.StatusOK},
		{name: "super-admin", path: "/super-admin", wantCode: http.StatusFound, wantLocation: "/unauthorized"},
		{name: "unauthorized page", path: "/unauthorized", wantCode: http.StatusOK},
		{name: "undeclared", path: "/nowhere", wantCode: http.StatusNotFound, wantData: marshallObj(t, httpErr{Message: "not found"})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkResponse(t, tt, app.do(tt))
		})
	}
}

func TestServer_expiredCenter(t *testing.T) {
	app := setup(t)
	app.signIn(t, "admin@bright.dev")

	tests := []httpTest{
		{name: "dashboard", path: "/dashboard", wantCode: http.StatusFound, wantLocation: "/dashboard/upgrade?returnTo=%2Fdashboard"},
		{name: "fees", path: "/dashboard/fees", wantCode: http.StatusFound, wantLocation: "/dashboard/upgrade?returnTo=%2Fdashboard%2Ffees"},
		{name: "upgrade", path: "/dashboard/upgrade", wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkResponse(t, tt, app.do(tt))
		})
	}

	st := app.store.State()
	assert.Equal(t, subscription.StatusExpired, st.Verdict.Status)
	assert.True(t, st.LockHint)

	rec := app.do(httpTest{path: "/session"})
	require.Equal(t, http.StatusOK, rec.Code)
	var resp SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Authenticated)
	require.NotNil(t, resp.Banner)
	assert.True(t, resp.Banner.Locked)
	assert.NotNil(t, resp.CredentialExpiresAt)
}

func TestServer_renewalUnlocks(t *testing.T) {
	app := setup(t)
	app.signIn(t, "admin@bright.dev")
	checkResponse(t, httpTest{wantCode: http.StatusFound}, app.do(httpTest{path: "/dashboard"}))

	_, err := app.devBackend.Directory.SetSubscription("center-bright", subscription.Details{Status: subscription.StatusActive, Plan: "pro"})
	require.NoError(t, err)

	// the verdict is cached for the freshness window; a new login resets it
	app.signIn(t, "admin@bright.dev")
	checkResponse(t, httpTest{wantCode: http.StatusOK}, app.do(httpTest{path: "/dashboard"}))
	assert.Equal(t, subscription.StatusActive, app.store.State().Identity.Subscription.Status)
}

func TestServer_teacherRoles(t *testing.T) {
	app := setup(t)
	app.signIn(t, "teacher@sunrise.dev")

	tests := []httpTest{
		{name: "attendance", path: "/dashboard/attendance", wantCode: http.StatusOK},
		{name: "settings", path: "/dashboard/settings", wantCode: http.StatusFound, wantLocation: "/unauthorized"},
		{name: "students has no role requirement", path: "/dashboard/students", wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkResponse(t, tt, app.do(tt))
		})
	}
}

func TestServer_superAdmin(t *testing.T) {
	app := setup(t)
	app.signIn(t, "owner@academyos.dev")

	tests := []httpTest{
		{name: "super-admin", path: "/super-admin/centers", wantCode: http.StatusOK},
		{name: "dashboard", path: "/dashboard", wantCode: http.StatusFound, wantLocation: "/unauthorized"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkResponse(t, tt, app.do(tt))
		})
	}
	assert.Nil(t, app.store.State().Verdict, "super-admins never consult the backend")
}

func TestServer_logout(t *testing.T) {
	app := setup(t)
	app.signIn(t, "admin@sunrise.dev")

	checkResponse(t, httpTest{wantCode: http.StatusFound, wantLocation: "/login"}, app.do(httpTest{method: http.MethodPost, path: "/logout"}))
	assert.False(t, app.store.State().Authenticated())

	// idempotent
	checkResponse(t, httpTest{wantCode: http.StatusFound, wantLocation: "/login"}, app.do(httpTest{method: http.MethodPost, path: "/logout"}))
	checkResponse(t, httpTest{wantCode: http.StatusFound, wantLocation: "/login?next=%2Fdashboard"}, app.do(httpTest{path: "/dashboard"}))
}

func TestServer_revokedCredential(t *testing.T) {
	app := setup(t)
	id := session.Identity{ID: "u1", Name: "Ama", Role: session.RoleAdmin, CenterID: "center-sunrise"}
	require.NoError(t, app.store.SetSession(id, "revoked.credential.token", false))

	// the backend answers 401: the session is cleared and the navigation goes to login
	checkResponse(t, httpTest{wantCode: http.StatusFound, wantLocation: "/login?next=%2Fdashboard"}, app.do(httpTest{path: "/dashboard"}))
	assert.False(t, app.store.State().Authenticated())
}

func TestServer_clientGone(t *testing.T) {
	app := setup(t)
	app.signIn(t, "admin@bright.dev")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req, rec := newRequest(http.MethodGet, "/dashboard")
	app.ServeHTTP(rec, req.WithContext(ctx))

	assert.Empty(t, rec.Header().Get("Location"))
	assert.Empty(t, rec.Body.Bytes())
	st := app.store.State()
	assert.Nil(t, st.Verdict, "abandoned navigations leave the store alone")
	assert.False(t, st.LockHint)
}
