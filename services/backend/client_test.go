package backend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/academyos/console/apps/devbackend/academy"
	"github.com/academyos/console/core"
	"github.com/academyos/console/core/session"
	"github.com/academyos/console/core/subscription"
	"github.com/academyos/console/tests"
)

func newClient(baseURL string) *Client {
	return New(core.BackendConfig{BaseURL: baseURL, Timeout: 5 * time.Second}, core.NewNopLogger())
}

func TestClient_Login(t *testing.T) {
	be := testutil.NewDevBackend(t)
	c := newClient(be.APIURL())
	ctx := context.Background()

	tests := []struct {
		name       string
		req        LoginRequest
		wantRole   session.Role
		wantCenter string
		wantStatus subscription.Status
		wantCode   int
	}{
		{
			name:       "center admin",
			req:        LoginRequest{Email: "admin@sunrise.dev", Password: academy.SeedPassword},
			wantRole:   session.RoleAdmin,
			wantCenter: "Sunrise Academy",
			wantStatus: subscription.StatusTrial,
		},
		{
			name:     "super-admin",
			req:      LoginRequest{Email: "owner@academyos.dev", Password: academy.SeedPassword},
			wantRole: session.RoleSuperAdmin,
		},
		{
			name:     "wrong password",
			req:      LoginRequest{Email: "admin@sunrise.dev", Password: "nope"},
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "invalid form",
			req:      LoginRequest{Email: "not-an-email", Password: "x"},
			wantCode: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := c.Login(ctx, tt.req)
			if tt.wantCode != 0 {
				apiErr, ok := errors.Cause(err).(*APIError)
				require.True(t, ok, "got %v", err)
				assert.Equal(t, tt.wantCode, apiErr.StatusCode)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, res.Token)
			assert.Equal(t, tt.wantRole, res.Identity.Role)
			assert.Equal(t, tt.wantCenter, res.Identity.CenterName)
			assert.Equal(t, tt.wantStatus, res.Identity.Subscription.Status)
			assert.False(t, res.TrialExpired)
		})
	}
}

func TestClient_FetchStatus(t *testing.T) {
	be := testutil.NewDevBackend(t)
	c := newClient(be.APIURL())
	ctx := context.Background()

	got, err := c.FetchStatus(ctx, be.Token(t, "admin@bright.dev"))
	require.NoError(t, err)
	assert.Equal(t, subscription.StatusExpired, got.Status)
	assert.Equal(t, "pro", got.Plan)
	assert.NotEmpty(t, got.EndAt)

	// platform accounts have no subscription
	got, err = c.FetchStatus(ctx, be.Token(t, "owner@academyos.dev"))
	require.NoError(t, err)
	assert.Equal(t, subscription.StatusUnknown, got.Status)

	_, err = c.FetchStatus(ctx, "not.a.jwt")
	assert.True(t, IsUnauthorized(err))
}

func TestClient_FetchStatusNormalizes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer cred", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"status":" Trial_Expired ","plan":"basic","trialEnd":"2024-01-01"}}`))
	}))
	defer srv.Close()

	got, err := newClient(srv.URL).FetchStatus(context.Background(), "cred")
	require.NoError(t, err)
	assert.Equal(t, subscription.Details{Status: subscription.StatusTrialExpired, Plan: "basic", TrialEnd: "2024-01-01"}, got)
}

func TestClient_OnUnauthorized(t *testing.T) {
	var code int32 = http.StatusOK
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(int(atomic.LoadInt32(&code)))
		_, _ = w.Write([]byte(`{"data":{"status":"active"},"message":"token expired"}`))
	}))
	defer srv.Close()

	c := newClient(srv.URL)
	var calls int32
	c.OnUnauthorized(func() { atomic.AddInt32(&calls, 1) })
	ctx := context.Background()

	_, err := c.FetchStatus(ctx, "cred")
	require.NoError(t, err)
	assert.Zero(t, atomic.LoadInt32(&calls))

	atomic.StoreInt32(&code, http.StatusInternalServerError)
	_, err = c.FetchStatus(ctx, "cred")
	require.Error(t, err)
	assert.False(t, IsUnauthorized(err))
	assert.Zero(t, atomic.LoadInt32(&calls), "only 401 invalidates the session")

	atomic.StoreInt32(&code, http.StatusUnauthorized)
	_, err = c.FetchStatus(ctx, "cred")
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))
	assert.Equal(t, "backend: 401 token expired", err.Error())
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	_, _ = c.Login(ctx, LoginRequest{Email: "a@b.dev", Password: "x"})
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls), "every endpoint is intercepted")
}

func TestClient_transportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := newClient(url)
	var called bool
	c.OnUnauthorized(func() { called = true })

	_, err := c.FetchStatus(context.Background(), "cred")
	assert.Error(t, err)
	assert.False(t, IsUnauthorized(err))
	assert.False(t, called)
}
