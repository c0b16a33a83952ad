// Command cli drives the console session from a terminal: it signs in and out and shows
// what the access gate decides for a path.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/academyos/console/core"
	"github.com/academyos/console/core/access"
	"github.com/academyos/console/core/session"
	"github.com/academyos/console/services/backend"
	logsvc "github.com/academyos/console/services/logger"
	"github.com/academyos/console/storage/sessionstore"
)

func main() {
	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(log.New(os.Stderr, "CLI : ", log.LstdFlags), conf)
	logger.Enable(!conf.Debug)

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	if err := core.ValidateConfig(conf, validate, translator); err != nil {
		logger.Fatal(fmt.Sprintf("invalid configuration: %v", err), err)
	}

	ctx := context.Background()
	os.Exit(run(ctx, conf, logger))
}

func run(ctx context.Context, conf *core.Config, logger core.Logger) int {
	persister, err := sessionstore.New(ctx, conf.Session)
	if err != nil {
		logger.Error(fmt.Sprintf("setting up session persistence: %v", err), err)
		return 1
	}
	store, err := session.Open(ctx, persister, session.WithLogger(logger))
	if err != nil {
		logger.Error(fmt.Sprintf("opening session store: %v", err), err)
		return 1
	}
	defer func() { _ = store.Close(context.Background()) }()

	client := backend.New(conf.Backend, logger)
	client.OnUnauthorized(store.Clear)

	routes := access.DefaultRoutes()
	if conf.Access.RoutesFile != "" {
		if routes, err = access.LoadRoutes(conf.Access.RoutesFile); err != nil {
			logger.Error(fmt.Sprintf("loading routes: %v", err), err)
			return 1
		}
	}

	cli := commandLine{
		out:     os.Stdout,
		store:   store,
		gate:    access.NewGate(store, client, routes, access.WithGateLogger(logger)),
		backend: client,
	}
	if err = cli.run(ctx, os.Args); err != nil {
		if err != errHelp {
			fmt.Fprintf(os.Stderr, "\nerror: %s\n", err)
		}
		return 1
	}
	return 0
}
