package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/academyos/console/apps/devbackend/academy"
	"github.com/academyos/console/core"
	"github.com/academyos/console/core/access"
	"github.com/academyos/console/services/backend"
	"github.com/academyos/console/tests"
)

func setup(t *testing.T) (*commandLine, *bytes.Buffer) {
	be := testutil.NewDevBackend(t)
	store := testutil.OpenStore(t)
	client := backend.New(core.BackendConfig{BaseURL: be.APIURL()}, core.NewNopLogger())
	client.OnUnauthorized(store.Clear)

	var out bytes.Buffer
	return &commandLine{
		out:     &out,
		store:   store,
		gate:    access.NewGate(store, client, access.DefaultRoutes()),
		backend: client,
	}, &out
}

func mockPassword(t *testing.T, pwd string, err error) {
	orig := readPasswordFunc
	readPasswordFunc = func(int) ([]byte, error) { return []byte(pwd), err }
	t.Cleanup(func() { readPasswordFunc = orig })
}

type cliTest struct {
	name       string
	args       []string // without program name
	password   string
	wantErr    error
	wantErrStr string
	wantOut    []string
}

func runCLI(t *testing.T, cli *commandLine, out *bytes.Buffer, tt cliTest) {
	t.Helper()
	mockPassword(t, tt.password, nil)
	out.Reset()

	err := cli.run(context.Background(), append([]string{"cli"}, tt.args...))
	switch {
	case tt.wantErr != nil:
		assert.Equal(t, tt.wantErr, errors.Cause(err))
	case tt.wantErrStr != "":
		assert.EqualError(t, err, tt.wantErrStr)
	default:
		require.NoError(t, err)
	}
	for _, s := range tt.wantOut {
		assert.Contains(t, out.String(), s)
	}
}

func Test_commandLine_usage(t *testing.T) {
	cli, out := setup(t)
	tests := []cliTest{
		{name: "no command", wantErr: errHelp, wantOut: []string{"Usage:"}},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp, wantOut: []string{"Usage:"}},
		{name: "login: no email", args: []string{"login"}, wantErr: errHelp},
		{name: "login: no password", args: []string{"login", "-email", "admin@sunrise.dev"}, wantErr: errHelp},
		{name: "login: bad flag", args: []string{"login", "-lol"}, wantErr: errHelp},
		{name: "check: no path", args: []string{"check"}, wantErr: errHelp},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runCLI(t, cli, out, tt)
		})
	}
}

func Test_commandLine_passwordPromptFails(t *testing.T) {
	cli, _ := setup(t)
	promptErr := errors.New("inappropriate ioctl for device")
	mockPassword(t, "", promptErr)

	err := cli.run(context.Background(), []string{"cli", "login", "-email", "admin@sunrise.dev"})
	assert.Equal(t, promptErr, err)
}

func Test_commandLine_session(t *testing.T) {
	cli, out := setup(t)

	tests := []cliTest{
		{name: "whoami: signed out", args: []string{"whoami"}, wantErr: errNotSignedIn},
		{name: "check: signed out", args: []string{"check", "-path", "/dashboard"}, wantOut: []string{"redirect-to-login /dashboard -> /login?next=%2Fdashboard"}},
		{
			name:       "login: wrong password",
			args:       []string{"login", "-email", "admin@bright.dev"},
			password:   "nope",
			wantErrStr: "invalid email or password",
		},
		{
			name:     "login",
			args:     []string{"login", "-email", " Admin@Bright.dev "},
			password: academy.SeedPassword,
			wantOut:  []string{"Enter password:", "Signed in as admin@bright.dev (admin)"},
		},
		{
			name:    "check: locked",
			args:    []string{"check", "-path", "/dashboard/fees"},
			wantOut: []string{"redirect-to-upgrade /dashboard/fees -> /dashboard/upgrade?returnTo=%2Fdashboard%2Ffees"},
		},
		{name: "check: upgrade", args: []string{"check", "-path", "/dashboard/upgrade"}, wantOut: []string{"render /dashboard/upgrade (upgrade)"}},
		{name: "check: role", args: []string{"check", "-path", "/super-admin"}, wantOut: []string{"redirect-to-unauthorized /super-admin -> /unauthorized"}},
		{
			name:    "whoami",
			args:    []string{"whoami"},
			wantOut: []string{"Esi Owusu <admin@bright.dev>", "role:          admin", "Bright Minds Tutorials (center-bright)", "verdict:       expired", "expires:"},
		},
		{name: "logout", args: []string{"logout"}, wantOut: []string{"Signed out"}},
		{name: "whoami: after logout", args: []string{"whoami"}, wantErr: errNotSignedIn},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runCLI(t, cli, out, tt)
		})
	}
}

func Test_commandLine_routes(t *testing.T) {
	cli, out := setup(t)
	runCLI(t, cli, out, cliTest{
		args:    []string{"routes"},
		wantOut: []string{"PATH", "/dashboard/settings", "super-admin", "/login", "public"},
	})
}
