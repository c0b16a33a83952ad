// Command console serves the AcademyOS console.
package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/go-playground/validator/v10"

	consoleapi "github.com/academyos/console/apps/console/echo"
	"github.com/academyos/console/core"
	"github.com/academyos/console/core/access"
	"github.com/academyos/console/core/banner"
	"github.com/academyos/console/core/session"
	"github.com/academyos/console/services/backend"
	logsvc "github.com/academyos/console/services/logger"
	"github.com/academyos/console/storage/sessionstore"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "CONSOLE : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	session.InitValidators(validate, translator)

	if err := core.ValidateConfig(conf, validate, translator); err != nil {
		logger.Fatal(fmt.Sprintf("invalid configuration: %v", err), err)
	}

	ctx := context.Background()

	persister, err := sessionstore.New(ctx, conf.Session)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up session persistence: %v", err), err)
	}
	store, err := session.Open(ctx, persister, session.WithLogger(logger))
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening session store: %v", err), err)
	}
	defer func() {
		if err = store.Close(context.Background()); err != nil {
			logger.Error("closing session store", err)
		}
	}()

	client := backend.New(conf.Backend, logger)
	client.OnUnauthorized(store.Clear)

	routes := access.DefaultRoutes()
	if conf.Access.RoutesFile != "" {
		if routes, err = access.LoadRoutes(conf.Access.RoutesFile); err != nil {
			logger.Fatal(fmt.Sprintf("loading routes: %v", err), err)
		}
	}
	gate := access.NewGate(store, client, routes, access.WithGateLogger(logger))

	bnr, err := banner.New(store)
	if err != nil {
		logger.Fatal(fmt.Sprintf("subscribing banner: %v", err), err)
	}
	defer bnr.Close()

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	// =========================================================================
	// Start Debug Service
	//
	// /debug/vars - Added to the default mux by importing the expvar package.

	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	expvar.NewString("sessionDriver").Set(conf.Session.Driver)
	expvar.Publish("session", expvar.Func(func() interface{} {
		st := store.State()
		vars := map[string]interface{}{"authenticated": st.Authenticated(), "lockHint": st.LockHint}
		if st.Identity != nil {
			vars["role"] = st.Identity.Role
		}
		if st.Verdict != nil {
			vars["verdict"] = st.Verdict
		}
		return vars
	}))

	if conf.Console.DebugAddress != "" {
		go func() {
			if err := http.ListenAndServe(conf.Console.DebugAddress, http.DefaultServeMux); err != nil {
				logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
			}
		}()
	}

	// =========================================================================
	// Start Console Service

	server := consoleapi.NewServer(consoleapi.ServerDeps{
		Conf:       conf,
		Logger:     logger,
		Store:      store,
		Gate:       gate,
		Backend:    client,
		Banner:     bnr,
		Validate:   validate,
		Translator: translator,
	})

	go server.Start()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Error(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Console.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Error(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}
