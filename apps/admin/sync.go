package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/trezcool/masomo-offline/services/scheduler"
)

const syncTimeout = time.Minute

func (cli *commandLine) sync(asJSON bool) error {
	ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
	defer cancel()

	rep, err := cli.sched.RunOnce(ctx)
	if err != nil {
		return err
	}
	if asJSON {
		enc := json.NewEncoder(cli.out)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}
	printReport(cli, rep)
	return nil
}

func printReport(cli *commandLine, rep scheduler.Report) {
	switch {
	case rep.Offline && !rep.Pushed:
		fmt.Fprintf(cli.out, "%s: offline, nothing synced\n", rep.StudentID)
		return
	case rep.Pushed:
		fmt.Fprintf(cli.out, "%s: progress pushed\n", rep.StudentID)
	}
	if hw := rep.Homework; hw != nil {
		fmt.Fprintf(cli.out, "%s: %d assignments, %d auto-completed, %d failed\n",
			rep.StudentID, len(hw.Assignments), len(hw.Promoted), len(hw.Failed))
	}
}
