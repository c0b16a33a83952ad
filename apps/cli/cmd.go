package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	"golang.org/x/term"

	"github.com/academyos/console/core/access"
	"github.com/academyos/console/core/session"
	"github.com/academyos/console/services/backend"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type authenticator interface {
	Login(ctx context.Context, lr backend.LoginRequest) (backend.LoginResult, error)
}

type commandLine struct {
	out     io.Writer
	store   *session.Store
	gate    *access.Gate
	backend authenticator
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  login -email EMAIL  - sign in (the password is prompted)")
	fmt.Fprintln(cli.out, "  logout              - sign out")
	fmt.Fprintln(cli.out, "  whoami              - show the signed in user and subscription")
	fmt.Fprintln(cli.out, "  check -path PATH    - show what the console does on a navigation to PATH")
	fmt.Fprintln(cli.out, "  routes              - list the console views")
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	loginCmd := flag.NewFlagSet("login", flag.ContinueOnError)
	loginCmd.SetOutput(cli.out)
	loginEmail := loginCmd.String("email", "", "The user's email. The password will be prompted next.")

	checkCmd := flag.NewFlagSet("check", flag.ContinueOnError)
	checkCmd.SetOutput(cli.out)
	checkPath := checkCmd.String("path", "", "The console path to navigate to, e.g. /dashboard/fees.")

	switch args[1] {
	case "login":
		if err := loginCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *loginEmail == "" {
			loginCmd.Usage()
			return errHelp
		}
		fmt.Fprint(cli.out, "Enter password:")
		pwd, err := readPasswordFunc(syscall.Stdin)
		fmt.Fprintln(cli.out)
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			loginCmd.Usage()
			return errHelp
		}
		return cli.login(ctx, *loginEmail, string(pwd))
	case "logout":
		return cli.logout()
	case "whoami":
		return cli.whoami()
	case "check":
		if err := checkCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *checkPath == "" {
			checkCmd.Usage()
			return errHelp
		}
		return cli.check(ctx, *checkPath)
	case "routes":
		return cli.routes()
	default:
		cli.printUsage()
		return errHelp
	}
}
