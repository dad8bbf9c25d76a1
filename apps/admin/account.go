package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-offline/core/session"
)

// hashPassword prints the value to set as teacherPasswordHash.
func (cli *commandLine) hashPassword(pwd string) error {
	hash, err := session.HashPassword(pwd)
	if err != nil {
		return errors.Wrap(err, "hashing password")
	}
	_, err = fmt.Fprintln(cli.out, hash)
	return err
}

func (cli *commandLine) whoami() error {
	sess, err := cli.sessions.Active(context.Background())
	if err != nil {
		return err
	}
	p := sess.Profile
	_, err = fmt.Fprintf(cli.out, "%s\t%s\tgrade %s\tsince %s\n", p.ID, p.Name, p.Grade, p.CreatedAt.Format("2006-01-02 15:04"))
	return err
}
