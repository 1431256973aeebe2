// Package main provides the entry point for bankmesh-cli.
//
// Usage:
//
//	bankmesh-cli --server 127.0.0.1:8888 balance --id alice --password secret
//	bankmesh-cli transfer --id alice --password secret savings bob 25.50
//	bankmesh-cli keygen --dir /etc/bankmesh
//	bankmesh-cli hash < password.txt
package main

import (
	"fmt"
	"os"

	"github.com/yndnr/bankmesh-go/internal/cli/command"
)

func main() {
	app := command.App()

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
