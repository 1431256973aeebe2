package command

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/bankmesh-go/internal/cli/output"
	"github.com/yndnr/bankmesh-go/internal/infra/buildinfo"
	"github.com/yndnr/bankmesh-go/pkg/bankclient"
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "bankmesh-cli",
		Usage:   "bankmesh client and operator tool",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			BalanceCommand(),
			TransferCommand(),
			KeygenCommand(),
			HashCommand(),
		},
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "bank server address",
			EnvVars: []string{"BANKMESH_SERVER"},
			Value:   "127.0.0.1:8888",
		},
		&cli.StringFlag{
			Name:    "framing",
			Usage:   "wire framing: raw or length",
			EnvVars: []string{"BANKMESH_FRAMING"},
			Value:   bankclient.FramingRaw,
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "per-request timeout",
			Value: 10 * time.Second,
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "output format: table, json, yaml",
			Value:   string(output.FormatTable),
		},
	}
}

// accountFlags are shared by commands that log in.
func accountFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "id",
			Usage:    "account ID",
			EnvVars:  []string{"BANKMESH_ID"},
			Required: true,
		},
		&cli.StringFlag{
			Name:     "password",
			Usage:    "account password",
			EnvVars:  []string{"BANKMESH_PASSWORD"},
			Required: true,
		},
	}
}

// GlobalFlags holds the parsed global flags.
type GlobalFlags struct {
	Server  string
	Framing string
	Timeout time.Duration
	Output  output.Format
}

// ParseGlobalFlags extracts global flags from context.
func ParseGlobalFlags(c *cli.Context) (*GlobalFlags, error) {
	format, err := output.ParseFormat(c.String("output"))
	if err != nil {
		return nil, err
	}
	return &GlobalFlags{
		Server:  c.String("server"),
		Framing: c.String("framing"),
		Timeout: c.Duration("timeout"),
		Output:  format,
	}, nil
}

// session dials the server and logs in with the --id/--password flags.
func session(c *cli.Context, flags *GlobalFlags) (*bankclient.Client, error) {
	ctx, cancel := context.WithTimeout(c.Context, flags.Timeout)
	defer cancel()

	client, err := bankclient.Dial(ctx, bankclient.Config{
		Address: flags.Server,
		Framing: flags.Framing,
		Timeout: flags.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", flags.Server, err)
	}
	if err := client.Login(ctx, c.String("id"), c.String("password")); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

func render(c *cli.Context, flags *GlobalFlags, data any) error {
	return output.NewFormatter(flags.Output).Format(c.App.Writer, data)
}
