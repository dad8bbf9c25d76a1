package main

import (
	"log"
	"os"

	"github.com/trezcool/masomo-offline/core"
	"github.com/trezcool/masomo-offline/core/cloudsync"
	"github.com/trezcool/masomo-offline/core/content"
	"github.com/trezcool/masomo-offline/core/homework"
	"github.com/trezcool/masomo-offline/core/progress"
	"github.com/trezcool/masomo-offline/core/session"
	"github.com/trezcool/masomo-offline/services/cloud"
	logsvc "github.com/trezcool/masomo-offline/services/logger"
	"github.com/trezcool/masomo-offline/services/scheduler"
	"github.com/trezcool/masomo-offline/storage/database"
	sqlxrepos "github.com/trezcool/masomo-offline/storage/database/sqlx"
)

var stdLogger *log.Logger

func main() {
	stdLogger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf := core.NewConfig()
	errAndDie(conf.Validate())
	logger, err := logsvc.New(stdLogger, conf)
	errAndDie(err)

	// set up DB
	db, err := database.Open(conf)
	errAndDie(err)
	defer db.Close()

	// set up services
	sessions := session.NewService(sqlxrepos.NewSessionRepository(db), conf.TeacherPasswordHash)
	progressSvc := progress.NewService(sqlxrepos.NewProgressRepository(db), nil, logger, conf.KeepFurthest)
	var src content.Source
	if conf.Content.BaseURL != "" {
		src = cloud.NewContentSource(conf)
	}
	catalog := content.NewCatalog(src, conf.Content.CacheDir, logger)
	remote := cloud.FromConfig(conf)
	builder := cloudsync.NewBuilder(sessions, progressSvc)

	// start CLI
	cli := commandLine{
		db:       db,
		sessions: sessions,
		sched: scheduler.New(
			conf,
			sessions,
			cloudsync.NewPusher(builder, remote, remote, logger),
			homework.NewReconciler(remote, remote, progressSvc, catalog, logger),
			logger,
		),
		out: os.Stdout,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			stdLogger.Printf("\nerror: %s\n", err)
		}
		_ = db.Close()
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		stdLogger.Fatal(err)
	}
}
