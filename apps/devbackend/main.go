// Command devbackend runs a local stand-in of the AcademyOS backend for the console.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/academyos/console/apps/devbackend/academy"
	devapi "github.com/academyos/console/apps/devbackend/echo"
	"github.com/academyos/console/core"
	"github.com/academyos/console/core/session"
	logsvc "github.com/academyos/console/services/logger"
)

func main() {
	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DEVBACKEND : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(false) // never report the stand-in

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	session.InitValidators(validate, translator)

	dir, err := academy.NewSeededDirectory()
	if err != nil {
		logger.Fatal(fmt.Sprintf("seeding directory: %v", err), err)
	}
	for _, c := range dir.Centers() {
		logger.Info(fmt.Sprintf("center %s (%s): %s", c.ID, c.Name, c.Subscription.Status))
	}
	logger.Info(fmt.Sprintf("seeded users sign in with password %q", academy.SeedPassword))

	server := devapi.NewServer(devapi.ServerDeps{
		Conf:       conf,
		Logger:     logger,
		Directory:  dir,
		Validate:   validate,
		Translator: translator,
	})
	go server.Start()

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		ctx, cancel := context.WithTimeout(context.Background(), conf.Console.ShutdownTimeout)
		defer cancel()
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)
			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}
