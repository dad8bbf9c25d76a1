package dig_container

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/masomo-offline/apps/api/echo"
	"github.com/trezcool/masomo-offline/core"
	"github.com/trezcool/masomo-offline/core/classroom"
	"github.com/trezcool/masomo-offline/core/cloudsync"
	"github.com/trezcool/masomo-offline/core/content"
	"github.com/trezcool/masomo-offline/core/homework"
	"github.com/trezcool/masomo-offline/core/progress"
	"github.com/trezcool/masomo-offline/core/session"
	"github.com/trezcool/masomo-offline/services/broadcast"
	"github.com/trezcool/masomo-offline/services/cloud"
	logsvc "github.com/trezcool/masomo-offline/services/logger"
	"github.com/trezcool/masomo-offline/services/scheduler"
	"github.com/trezcool/masomo-offline/storage/database"
	sqlxrepos "github.com/trezcool/masomo-offline/storage/database/sqlx"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

func newConfig() *core.Config {
	conf := core.NewConfig()
	if err := conf.Validate(); err != nil {
		log.Fatal(err)
	}
	return conf
}

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags)
	logger, err := logsvc.New(stdLogger, conf)
	if err != nil {
		log.Fatal(errors.Wrap(err, "setting up logger"))
	}
	return logger
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger, err := logsvc.New(stdLogger, conf)
	if err != nil {
		log.Fatal(errors.Wrap(err, "setting up db logger"))
	}
	return logger
}

func newDB(conf *core.Config, loggerParam DBLoggerParam) (*sqlx.DB, core.DB) {
	setUp := func() (*sqlx.DB, error) {
		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}
		if err = database.Migrate(db); err != nil {
			_ = db.Close()
			return nil, err
		}
		return db, nil
	}

	db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return db, db
}

func newSessionService(repo session.Repository, conf *core.Config) *session.Service {
	return session.NewService(repo, conf.TeacherPasswordHash)
}

// newBus returns the in-process bus, bridged through redis when configured and reachable.
func newBus(conf *core.Config, logger core.Logger) (broadcast.Bus, progress.Publisher, *broadcast.Memory, *broadcast.Redis) {
	local := broadcast.NewMemory(logger)
	bus, rb := broadcast.Bridge(context.Background(), conf, local, logger)
	return bus, bus, local, rb
}

func newProgressService(repo progress.Repository, pub progress.Publisher, logger core.Logger, conf *core.Config) *progress.Service {
	return progress.NewService(repo, pub, logger, conf.KeepFurthest)
}

func newCatalog(conf *core.Config, logger core.Logger) *content.Catalog {
	if conf.Content.BaseURL == "" {
		return content.NewCatalog(nil, conf.Content.CacheDir, logger)
	}
	return content.NewCatalog(cloud.NewContentSource(conf), conf.Content.CacheDir, logger)
}

func newRemote(conf *core.Config, logger core.Logger) cloud.Remote {
	remote := cloud.FromConfig(conf)
	if remote == nil {
		logger.Info("no cloud backend configured, running offline")
	}
	return remote
}

func newPusher(builder *cloudsync.Builder, remote cloud.Remote, logger core.Logger) *cloudsync.Pusher {
	return cloudsync.NewPusher(builder, remote, remote, logger)
}

func newReconciler(remote cloud.Remote, progressSvc *progress.Service, catalog *content.Catalog, logger core.Logger) *homework.Reconciler {
	return homework.NewReconciler(remote, remote, progressSvc, catalog, logger)
}

func newClassroom(remote cloud.Remote, catalog *content.Catalog, sessions *session.Service, logger core.Logger) *classroom.Service {
	return classroom.NewService(remote, remote, remote, catalog, sessions, logger)
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(newConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newDB))
	must(c.Provide(sqlxrepos.NewSessionRepository))
	must(c.Provide(sqlxrepos.NewProgressRepository))
	must(c.Provide(core.NewValidator))
	must(c.Provide(newSessionService))
	must(c.Provide(newBus))
	must(c.Provide(newProgressService))
	must(c.Provide(newCatalog))
	must(c.Provide(newRemote))
	must(c.Provide(cloudsync.NewBuilder))
	must(c.Provide(newPusher))
	must(c.Provide(newReconciler))
	must(c.Provide(newClassroom))
	must(c.Provide(scheduler.New))
	must(c.Provide(echoapi.NewServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
