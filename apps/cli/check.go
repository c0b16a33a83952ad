package main

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/academyos/console/core/access"
)

func (cli *commandLine) check(ctx context.Context, path string) error {
	d := cli.gate.Check(access.NewNavigation(ctx), path)
	if d.Redirect() {
		fmt.Fprintf(cli.out, "%s %s -> %s\n", d.Outcome, d.Path, d.Location)
		return nil
	}
	view := d.View.Name
	if view == "" {
		view = "-"
	}
	fmt.Fprintf(cli.out, "%s %s (%s)\n", d.Outcome, d.Path, view)
	return nil
}

func (cli *commandLine) routes() error {
	routes := cli.gate.Routes()
	w := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PATH\tNAME\tROLES")
	for _, v := range routes.Views() {
		roles := make([]string, 0, len(v.RequiredRoles))
		for _, r := range v.RequiredRoles {
			roles = append(roles, string(r))
		}
		if len(roles) == 0 {
			roles = append(roles, "any")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", v.Path, v.Name, strings.Join(roles, ","))
	}
	fmt.Fprintf(w, "%s\t%s\t%s\n", routes.LoginPath, "login", "public")
	fmt.Fprintf(w, "%s\t%s\t%s\n", routes.RegisterPath, "register", "public")
	return w.Flush()
}
