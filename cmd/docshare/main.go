package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "docshare",
		Usage: "Document sharing with PIN and approval based access control",
		Commands: []*cli.Command{
			serveCommand,
			seedCommand,
			keygenCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		logrus.WithError(err).Fatal("application failed")
	}
}
