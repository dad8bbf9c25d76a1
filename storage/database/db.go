package database

import (
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"

	"github.com/trezcool/masomo-offline/core"
	"github.com/trezcool/masomo-offline/storage/database/migrations"
)

// MemoryPath opens a sqlite database living as long as its (single) connection.
const MemoryPath = ":memory:"

// Open connects to the local store configured in conf.
func Open(conf *core.Config) (*sqlx.DB, error) {
	switch conf.Database.Engine {
	case "postgres":
		db, err := sqlx.Open("postgres", conf.Database.DSN)
		if err != nil {
			return nil, errors.Wrap(err, "opening database")
		}
		if err = ping(db); err != nil {
			_ = db.Close()
			return nil, err
		}
		return db, nil
	default:
		return OpenSQLite(conf.Database.Path)
	}
}

// OpenSQLite opens the sqlite database file at path, creating its directory if needed.
func OpenSQLite(path string) (*sqlx.DB, error) {
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, errors.Wrap(err, "creating data directory")
		}
	}
	db, err := sqlx.Connect("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	// sqlite has a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	return db, nil
}

// ping waits for the database to be ready. Waits 100ms longer between each attempt.
func ping(db *sqlx.DB) error {
	var err error
	maxAttempts := 30
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		if err = db.Ping(); err == nil {
			return nil
		}
		time.Sleep(time.Duration(attempts) * 100 * time.Millisecond)
	}
	return errors.Wrap(err, "DB ping timeout")
}

// Run executes a goose command (up, down, status, version, redo, reset...) on db.
func Run(db *sqlx.DB, command string, args ...string) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect(db.DriverName()); err != nil {
		return errors.Wrap(err, "setting migration dialect")
	}
	if err := goose.Run(command, db.DB, ".", args...); err != nil {
		return errors.Wrapf(err, "running migrations %s", command)
	}
	return nil
}

func Migrate(db *sqlx.DB) error {
	return Run(db, "up")
}
