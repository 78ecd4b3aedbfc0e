package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/clean-dependency-project/cyberscan/internal/clamav"
	"github.com/clean-dependency-project/cyberscan/internal/config"
	"github.com/clean-dependency-project/cyberscan/internal/defender"
	"github.com/clean-dependency-project/cyberscan/internal/engine"
	"github.com/clean-dependency-project/cyberscan/internal/ui"
	"github.com/clean-dependency-project/cyberscan/internal/version"
	"github.com/clean-dependency-project/cyberscan/internal/webreport"
)

// DefaultHistoryLimit is the number of runs the history command lists.
const DefaultHistoryLimit = 10

// ErrNoAuditDatabase is returned by history when no database exists yet.
var ErrNoAuditDatabase = errors.New("no audit database found")

func outputFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "output",
		Value: outputText,
		Usage: "output format (text, json)",
	}
}

func enginesCommand(env *Env) *cli.Command {
	return &cli.Command{
		Name:  "engines",
		Usage: "Show which scan engines are installed and their versions",
		Flags: []cli.Flag{outputFlag()},
		Action: func(c *cli.Context) error {
			return runEngines(c, env)
		},
	}
}

func sysinfoCommand(env *Env) *cli.Command {
	return &cli.Command{
		Name:  "sysinfo",
		Usage: "Print the system information report",
		Flags: []cli.Flag{outputFlag()},
		Action: func(c *cli.Context) error {
			return runSysinfo(c, env)
		},
	}
}

func historyCommand(env *Env) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List recent scan runs from the audit database",
		Flags: []cli.Flag{
			outputFlag(),
			&cli.IntFlag{
				Name:  "limit",
				Value: DefaultHistoryLimit,
				Usage: "number of runs to show (0 for all)",
			},
			&cli.StringFlag{
				Name:    "audit-db",
				Usage:   "path to the audit database (defaults to storage.database_path)",
				EnvVars: []string{"CYBERSCAN_AUDIT_DB"},
			},
		},
		Action: func(c *cli.Context) error {
			return runHistory(c, env)
		},
	}
}

func reportCommand(env *Env) *cli.Command {
	return &cli.Command{
		Name:  "report",
		Usage: "Generate a static HTML report of the audit history",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Value:   "cyberscan-report",
				Usage:   "output directory for generated HTML files",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "number of most recent runs to include (0 for all)",
			},
			&cli.StringFlag{
				Name:    "audit-db",
				Usage:   "path to the audit database (defaults to storage.database_path)",
				EnvVars: []string{"CYBERSCAN_AUDIT_DB"},
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "validate without writing files",
			},
		},
		Action: func(c *cli.Context) error {
			return runReport(c, env)
		},
	}
}

func configCommand(env *Env) *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Manage the configuration file",
		Subcommands: []*cli.Command{
			{
				Name:      "init",
				Usage:     "Write a default configuration file",
				ArgsUsage: "[path]",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "force",
						Usage: "overwrite an existing file",
					},
				},
				Action: func(c *cli.Context) error {
					return runConfigInit(c, env)
				},
			},
			{
				Name:      "validate",
				Usage:     "Validate a configuration file and its allowlist",
				ArgsUsage: "[path]",
				Action: func(c *cli.Context) error {
					return runConfigValidate(c, env)
				},
			},
		},
	}
}

func commandContext(c *cli.Context) context.Context {
	if c.Context != nil {
		return c.Context
	}
	return context.Background()
}

// runEngines implements the engines command.
func runEngines(c *cli.Context, env *Env) error {
	format := strings.ToLower(c.String("output"))
	if err := validateOutput(format); err != nil {
		return err
	}
	cfg, logger, err := loadSettings(c, env)
	if err != nil {
		return err
	}
	ctx := commandContext(c)

	avail := engine.Probe(probeOptions(cfg, env))

	clam := EngineStatus{Name: engine.NameClamAV, Available: avail.ScannerAvailable(), Path: avail.ScannerPath}
	if clam.Available {
		banner, err := clamav.NewLocalScanner(env.Runner, avail.ScannerPath, nil, logger).Version(ctx)
		if err != nil {
			clam.Error = err.Error()
		} else {
			clam.Version = banner
			if date := clamav.DatabaseDate(banner); date != "unknown" {
				clam.DatabaseDate = date
			}
			if v, err := version.Extract(banner); err == nil {
				clam.Version = v
				if minimum := cfg.Engines.ClamAV.MinVersion; minimum != "" {
					if ok, err := version.AtLeast(v, minimum); err == nil && !ok {
						clam.Outdated = true
					}
				}
			}
		}
	}

	def := EngineStatus{Name: engine.NameDefender, Available: avail.NativeAvailable(), Path: avail.NativePath}
	if def.Available {
		v, err := defender.NewScanner(env.Runner, avail.NativePath, logger).Version(ctx)
		if err != nil {
			def.Error = err.Error()
		} else {
			def.Version = v
		}
	}

	sim := EngineStatus{Name: engine.NameSimulation, Available: cfg.Simulation.Enabled}
	statuses := []EngineStatus{clam, def, sim}

	if format == outputJSON {
		return writeJSON(env.Stdout, statuses)
	}

	rows := make([][]string, 0, len(statuses))
	for _, s := range statuses {
		state := found(s.Available)
		if s.Name == engine.NameSimulation {
			state = "DISABLED"
			if s.Available {
				state = "OPT-IN"
			}
		}
		ver := s.Version
		switch {
		case s.Error != "":
			ver = "error: " + s.Error
		case s.Outdated:
			ver += " (below " + cfg.Engines.ClamAV.MinVersion + ")"
		}
		rows = append(rows, []string{s.Name, state, s.Path, ver, s.DatabaseDate})
	}
	printer := ui.NewPrinter(env.Stdout, ui.NewTheme(env.Stdout), env.Width, false)
	printer.Table([]string{"ENGINE", "STATUS", "PATH", "VERSION", "SIGNATURES"}, rows)
	return nil
}

// runSysinfo implements the sysinfo command.
func runSysinfo(c *cli.Context, env *Env) error {
	format := strings.ToLower(c.String("output"))
	if err := validateOutput(format); err != nil {
		return err
	}

	info, err := env.Collect()
	if err != nil {
		return fmt.Errorf("failed to collect system information: %w", err)
	}

	if format == outputJSON {
		return writeJSON(env.Stdout, info)
	}
	printer := ui.NewPrinter(env.Stdout, ui.NewTheme(env.Stdout), env.Width, false)
	printer.InfoTable(infoFields(info))
	return nil
}

// runHistory implements the history command.
func runHistory(c *cli.Context, env *Env) error {
	format := strings.ToLower(c.String("output"))
	if err := validateOutput(format); err != nil {
		return err
	}
	cfg, logger, err := loadSettings(c, env)
	if err != nil {
		return err
	}
	ctx := commandContext(c)

	db, err := openHistory(c, env, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			logger.Warn("failed to close audit database", "error", closeErr)
		}
	}()

	limit := c.Int("limit")
	if format == outputJSON {
		data, err := db.ExportRunsJSON(ctx, limit)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(env.Stdout, string(data))
		return err
	}

	runs, err := db.ListRuns(ctx, limit)
	if err != nil {
		return err
	}
	printer := ui.NewPrinter(env.Stdout, ui.NewTheme(env.Stdout), env.Width, false)
	if len(runs) == 0 {
		printer.Log("No scan runs recorded yet.")
		return nil
	}

	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		disps, err := db.ListDispositions(ctx, r.RunID)
		if err != nil {
			return err
		}
		status := "complete"
		switch {
		case r.Interrupted:
			status = "interrupted"
		case r.ErrorMessage != "":
			status = "error"
		}
		engineName := r.Engine
		if r.Simulated {
			engineName += " (simulated)"
		}
		rows = append(rows, []string{
			shortID(r.RunID),
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			engineName,
			r.Mode,
			strconv.Itoa(r.DetectionCount),
			strconv.Itoa(len(disps)),
			status,
		})
	}
	printer.Table([]string{"RUN", "STARTED", "ENGINE", "MODE", "DETECTIONS", "ACTIONS", "STATUS"}, rows)

	stats, err := db.GetStats(ctx)
	if err != nil {
		return err
	}
	printer.Log(fmt.Sprintf("%d run(s) recorded, %d detection(s) in total.", stats.TotalRuns, stats.TotalDetections))
	return nil
}

// openHistory opens the existing audit database named by --audit-db or the config.
func openHistory(c *cli.Context, env *Env, cfg *config.Config) (AuditReader, error) {
	path := firstNonEmpty(c.String("audit-db"), cfg.Storage.DatabasePath)
	if path == "" || !env.Exists(path) {
		return nil, fmt.Errorf("%w at %q: run a scan with --audit-db or enable storage.audit", ErrNoAuditDatabase, path)
	}
	db, err := env.OpenStore(path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize audit database: %w", err)
	}
	return db, nil
}

// runReport implements the report command.
func runReport(c *cli.Context, env *Env) error {
	cfg, logger, err := loadSettings(c, env)
	if err != nil {
		return err
	}
	ctx := commandContext(c)

	db, err := openHistory(c, env, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			logger.Warn("failed to close audit database", "error", closeErr)
		}
	}()

	outDir := c.String("out")
	model, err := webreport.NewGenerator(db, logger).Generate(ctx, webreport.GenerateOptions{
		OutputDir: outDir,
		Limit:     c.Int("limit"),
		DryRun:    c.Bool("dry-run"),
	})
	if err != nil {
		return err
	}

	if c.Bool("dry-run") {
		_, err = fmt.Fprintf(env.Stdout, "report would include %d run(s) from %d host(s)\n", model.Totals.Runs, len(model.Hosts))
		return err
	}
	index := filepath.Join(outDir, "index.html")
	_, err = fmt.Fprintf(env.Stdout, "report written to %s (%d run(s))\n", index, model.Totals.Runs)
	return err
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func configPathArg(c *cli.Context) string {
	if c.Args().Present() {
		return c.Args().First()
	}
	return c.String("config")
}

// runConfigInit implements "config init".
func runConfigInit(c *cli.Context, env *Env) error {
	path := configPathArg(c)
	if env.Exists(path) && !c.Bool("force") {
		return fmt.Errorf("config file %s already exists (use --force to overwrite)", path)
	}
	if err := config.SaveConfig(config.DefaultConfig(), path); err != nil {
		return err
	}
	_, err := fmt.Fprintf(env.Stdout, "wrote default configuration to %s\n", path)
	return err
}

// runConfigValidate implements "config validate".
func runConfigValidate(c *cli.Context, env *Env) error {
	path := configPathArg(c)
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return err
	}
	allow, err := config.LoadAllowlist(cfg.AllowlistFile)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(env.Stdout, "configuration %s is valid (%d allowlist pattern(s))\n", path, allow.Len())
	return err
}
