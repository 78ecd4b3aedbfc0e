// Package cli provides the cyberscan command-line interface.
// It wires configuration, engine selection, the scan renderer and the
// post-scan dialogue together behind urfave/cli commands.
package cli

import (
	"errors"
	"time"

	"github.com/urfave/cli/v2"
)

// Process exit codes.
const (
	ExitOK          = 0
	ExitError       = 1
	ExitInterrupted = 130
)

// Name is the binary name.
const Name = "cyberscan"

// Version is overridden at build time.
var Version = "dev"

// NewApp creates and configures the main CLI application.
func NewApp() *cli.App {
	return NewAppWithEnv(DefaultEnv())
}

// NewAppWithEnv creates the application over env.
func NewAppWithEnv(env *Env) *cli.App {
	scan := scanCommand(env)
	return &cli.App{
		Name:     Name,
		Usage:    "Scan files for malware and dispose of what is found",
		Version:  Version,
		Compiled: time.Now(),
		Authors: []*cli.Author{
			{
				Name: "Clean Dependency Project",
			},
		},
		Reader:    env.Stdin,
		Writer:    env.Stdout,
		ErrWriter: env.Stderr,
		// Exit codes are mapped by the caller through ExitCode.
		ExitErrHandler: func(*cli.Context, error) {},
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "cyberscan.yaml",
				Usage:   "path to configuration file (defaults apply when it does not exist)",
				EnvVars: []string{"CYBERSCAN_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "log level (debug, info, warn, error); overrides log_level from the config",
				EnvVars: []string{"CYBERSCAN_LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:  "log-format",
				Value: "text",
				Usage: "log format written to stderr (text, json)",
			},
		}, scanFlags()...),
		Action: func(c *cli.Context) error {
			return runScan(c, env)
		},
		Commands: []*cli.Command{
			scan,
			enginesCommand(env),
			sysinfoCommand(env),
			historyCommand(env),
			reportCommand(env),
			configCommand(env),
		},
	}
}

// ExitCode maps an error returned by App.Run to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var coder cli.ExitCoder
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	return ExitError
}
