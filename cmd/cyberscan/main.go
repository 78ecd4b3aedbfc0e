// Package main provides the cyberscan command-line malware scanner.
package main

import (
	"fmt"
	"os"

	"github.com/clean-dependency-project/cyberscan/internal/cli"
)

func main() {
	app := cli.NewApp()

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "cyberscan:", err)
		os.Exit(cli.ExitCode(err))
	}
}
