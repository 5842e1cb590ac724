// Command dashboard serves the dashboard API and queries a running instance.
//
//	dashboard serve --config /etc/dashboard/config.yaml
//	dashboard stats --url http://localhost:5000
//	dashboard users --url http://localhost:5000 --role admin
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

func newApp() *cli.App {
	return &cli.App{
		Name:                 "dashboard",
		Usage:                "serve and query the dashboard API",
		EnableBashCompletion: true,
		Commands: []*cli.Command{
			serveFlags(),
			statsFlags(),
			usersFlags(),
		},
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "dashboard:", err)
		os.Exit(1)
	}
}
