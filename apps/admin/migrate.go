package main

import (
	"github.com/trezcool/masomo-offline/storage/database"
)

var gooseRunFunc = database.Run // mockable

func (cli *commandLine) migrate(args []string) error {
	return gooseRunFunc(cli.db, args[0], args[1:]...)
}

// ensureSchema applies the pending migrations, so commands reading the store also work on a fresh device.
func (cli *commandLine) ensureSchema() error {
	return database.Migrate(cli.db)
}
