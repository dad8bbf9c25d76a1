package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"

	"github.com/jmoiron/sqlx"

	dig_container "github.com/trezcool/masomo-offline/apps/api/di/dig"
	echoapi "github.com/trezcool/masomo-offline/apps/api/echo"
	"github.com/trezcool/masomo-offline/core"
	"github.com/trezcool/masomo-offline/core/content"
	"github.com/trezcool/masomo-offline/services/broadcast"
	"github.com/trezcool/masomo-offline/services/scheduler"
)

func main() {
	c := dig_container.New()

	must(c.Invoke(func(
		conf *core.Config,
		apiLogger core.Logger,
		dbLoggerParam dig_container.DBLoggerParam,
		db *sqlx.DB,
		catalog *content.Catalog,
		local *broadcast.Memory,
		redisBus *broadcast.Redis,
		sched *scheduler.Scheduler,
		server *echoapi.Server,
	) {
		// =========================================================================
		// Initialize App

		apiLogger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))

		dbLogger := dbLoggerParam.Logger
		defer func() {
			if err := db.Close(); err != nil {
				dbLogger.Fatal("Failed to close", err)
			}
		}()
		defer apiLogger.Info("Application stopped")

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// warm the content cache; the daemon still starts offline without any content
		if _, err := catalog.Load(ctx, conf.Content.DefaultLang); err != nil {
			apiLogger.Warn(fmt.Sprintf("loading content: %v", err), err)
		}

		if redisBus != nil {
			defer func() { _ = redisBus.Close() }()
		}
		defer func() { _ = local.Close() }()

		if err := sched.Start(); err != nil {
			apiLogger.Error(fmt.Sprintf("starting background sync: %v", err), err)
		}
		defer sched.Stop()

		// =========================================================================
		// Start Debug Service
		//
		// /debug/vars - Added to the default mux by importing the expvar package.

		// Expose important info under /debug/vars.
		expvar.NewString("build").Set(conf.Build)
		expvar.NewString("env").Set(conf.Env)
		expvar.NewString("remote").Set(conf.Remote.BaseURL)

		go func() {
			if err := http.ListenAndServe(conf.Server.DebugAddress, http.DefaultServeMux); err != nil {
				apiLogger.Error(fmt.Sprintf("debug server closed: %v", err), err)
			}
		}()

		// =========================================================================
		// Start API Service

		go func() {
			server.Start()
		}()

		// =========================================================================
		// Shutdown

		select {
		case err := <-server.Errors():
			apiLogger.Fatal(fmt.Sprintf("server error: %v", err), err)

		case sig := <-server.ShutdownSignal():
			apiLogger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

			// give outstanding requests a deadline for completion
			sctx, scancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
			defer scancel()

			// end the event streams, they would hold the shutdown until its deadline
			_ = local.Close()

			// asking listener to shut down and shed load
			if err := server.Shutdown(sctx); err != nil {
				apiLogger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

				if err = server.Close(); err != nil {
					apiLogger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
				}
			}
		}
	}))
}

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
