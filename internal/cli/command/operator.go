package command

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/bankmesh-go/internal/core/service"
	"github.com/yndnr/bankmesh-go/pkg/crypto/keypair"
)

// KeygenCommand returns the keygen command.
func KeygenCommand() *cli.Command {
	return &cli.Command{
		Name:  "keygen",
		Usage: "Generate the server RSA keypair",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "dir",
				Usage: "directory for private_key.pem and public_key.pem",
				Value: ".",
			},
			&cli.IntFlag{
				Name:  "bits",
				Usage: "RSA modulus size",
				Value: 2048,
			},
		},
		Action: keygenAction,
	}
}

func keygenAction(c *cli.Context) error {
	kp, err := keypair.Generate(c.Int("bits"))
	if err != nil {
		return err
	}
	privPath, pubPath, err := kp.WritePEM(c.String("dir"))
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "private key: %s\npublic key:  %s\n", privPath, pubPath)
	return nil
}

// HashCommand returns the hash command.
func HashCommand() *cli.Command {
	return &cli.Command{
		Name:      "hash",
		Usage:     "Hash a password for the credential file",
		ArgsUsage: "[password]",
		Description: "With no argument the password is read from the first line of stdin.\n" +
			"Paste the output in place of the plain secret in the credential file.",
		Action: hashAction,
	}
}

func hashAction(c *cli.Context) error {
	secret := c.Args().First()
	if c.NArg() == 0 {
		line, err := bufio.NewReader(c.App.Reader).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("read password: %w", err)
		}
		secret = strings.TrimRight(line, "\r\n")
	}
	if secret == "" {
		return errors.New("empty password")
	}
	if strings.ContainsAny(secret, " \t") {
		return errors.New("password must not contain whitespace")
	}

	hash, err := service.HashSecret(secret)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, hash)
	return nil
}
