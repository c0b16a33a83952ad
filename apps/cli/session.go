package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/academyos/console/core"
	"github.com/academyos/console/services/backend"
)

var errNotSignedIn = errors.New("not signed in")

func (cli *commandLine) login(ctx context.Context, email, pwd string) error {
	email = core.CleanString(email, true /* lower */)
	res, err := cli.backend.Login(ctx, backend.LoginRequest{Email: email, Password: pwd})
	if err != nil {
		if apiErr, ok := errors.Cause(err).(*backend.APIError); ok && apiErr.StatusCode == http.StatusUnauthorized {
			return errors.New("invalid email or password")
		}
		return errors.Wrap(err, "signing in")
	}
	if err = cli.store.SetSession(res.Identity, res.Token, res.TrialExpired); err != nil {
		return errors.Wrap(err, "setting session")
	}
	fmt.Fprintf(cli.out, "Signed in as %s (%s)\n", res.Identity.Email, res.Identity.Role)
	if res.TrialExpired {
		fmt.Fprintln(cli.out, "Your free trial has ended.")
	}
	return nil
}

func (cli *commandLine) logout() error {
	cli.store.Clear()
	fmt.Fprintln(cli.out, "Signed out")
	return nil
}

func (cli *commandLine) whoami() error {
	st := cli.store.State()
	if !st.Authenticated() {
		return errNotSignedIn
	}
	id := st.Identity
	fmt.Fprintf(cli.out, "%-14s %s <%s>\n", "user:", id.Name, id.Email)
	fmt.Fprintf(cli.out, "%-14s %s\n", "role:", id.Role)
	if id.CenterID != "" {
		fmt.Fprintf(cli.out, "%-14s %s (%s)\n", "center:", id.CenterName, id.CenterID)
		fmt.Fprintf(cli.out, "%-14s %s\n", "subscription:", id.Subscription.Status)
	}
	if st.Verdict != nil {
		fmt.Fprintf(cli.out, "%-14s %s at %s\n", "verdict:", st.Verdict.Status, st.Verdict.CheckedAt.Format(time.RFC3339))
	}
	if exp, ok := backend.CredentialExpiry(st.Credential); ok {
		fmt.Fprintf(cli.out, "%-14s %s\n", "expires:", exp.Format(time.RFC3339))
	}
	return nil
}
