package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	"github.com/jmoiron/sqlx"
	"golang.org/x/term"

	"github.com/trezcool/masomo-offline/core/session"
	"github.com/trezcool/masomo-offline/services/scheduler"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db       *sqlx.DB
	sessions *session.Service
	sched    *scheduler.Scheduler
	out      io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [ARGS] - run the migrations of the local store (up, down, status, version, redo, reset...)")
	fmt.Println("  hashpassword           - prompt for the teacher password and print its hash")
	fmt.Println("  whoami                 - print the active student")
	fmt.Println("  sync [-json]           - push the progress of the active student and reconcile their homework")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	syncCmd := flag.NewFlagSet("sync", flag.ContinueOnError)
	syncJSON := syncCmd.Bool("json", false, "Print the report as JSON.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "hashpassword":
		fmt.Print("Enter password:")
		pwd, err := readPasswordFunc(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			cli.printUsage()
			return errHelp
		}
		return cli.hashPassword(string(pwd))
	case "whoami":
		if err := cli.ensureSchema(); err != nil {
			return err
		}
		return cli.whoami()
	case "sync":
		if err := syncCmd.Parse(args[2:]); err != nil {
			return err
		}
		if err := cli.ensureSchema(); err != nil {
			return err
		}
		return cli.sync(*syncJSON)
	default:
		cli.printUsage()
		return errHelp
	}
}
