// Package main provides the entry point for bankmesh-server.
//
// Usage:
//
//	bankmesh-server [--config bankmesh.yaml] <host> <port>
//
// The server loads the RSA keypair, the credential file and the balances,
// then accepts bank protocol connections on host:port until SIGINT or
// SIGTERM.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/bankmesh-go/internal/infra/buildinfo"
)

var errUsage = errors.New("expected exactly two arguments: <host> <port>")

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:      "bankmesh-server",
		Usage:     "encrypted-request banking server",
		ArgsUsage: "<host> <port>",
		Version:   buildinfo.String(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to a YAML configuration file",
				EnvVars: []string{"BANKMESH_CONFIG"},
			},
		},
		Action: run,
	}
}

func run(c *cli.Context) error {
	if c.NArg() != 2 {
		_ = cli.ShowAppHelp(c)
		return errUsage
	}

	loader, cfg, err := loadConfig(c.String("config"), c.Args().Get(0), c.Args().Get(1))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	d, err := newDaemon(c.Context, cfg, os.Stdout)
	if err != nil {
		return err
	}
	d.watchConfig(loader)
	return d.run()
}
