package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/clean-dependency-project/cyberscan/internal/clamav"
	"github.com/clean-dependency-project/cyberscan/internal/config"
	"github.com/clean-dependency-project/cyberscan/internal/defender"
	"github.com/clean-dependency-project/cyberscan/internal/disposition"
	"github.com/clean-dependency-project/cyberscan/internal/engine"
	"github.com/clean-dependency-project/cyberscan/internal/interact"
	"github.com/clean-dependency-project/cyberscan/internal/platform"
	"github.com/clean-dependency-project/cyberscan/internal/progress"
	"github.com/clean-dependency-project/cyberscan/internal/storage"
	"github.com/clean-dependency-project/cyberscan/internal/sysinfo"
	"github.com/clean-dependency-project/cyberscan/internal/trash"
	"github.com/clean-dependency-project/cyberscan/internal/ui"
)

// Output formats
const (
	outputText = "text"
	outputJSON = "json"
)

var errInterrupted = cli.Exit("interrupted", ExitInterrupted)

// scanOptions holds the flags of the scan command.
type scanOptions struct {
	Mode          string
	Path          string
	Paths         []string
	Simulate      bool
	NoAnimation   bool
	NoInteractive bool
	Output        string
	QuarantineDir string
	TrashDir      string
	AuditDB       string
}

func scanFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "mode",
			Aliases: []string{"m"},
			Usage:   "scan mode (quick, full, custom). Prompts on a terminal when omitted",
		},
		&cli.StringFlag{
			Name:  "path",
			Usage: "directory for a custom scan",
		},
		&cli.StringSliceFlag{
			Name:    "paths",
			Aliases: []string{"p"},
			Usage:   "explicit list of paths to scan (overrides --mode)",
		},
		&cli.BoolFlag{
			Name:  "simulate",
			Usage: "allow the simulation engine when no real engine is installed (results are fabricated)",
		},
		&cli.BoolFlag{
			Name:  "no-animation",
			Usage: "disable the animated scan panel",
		},
		&cli.BoolFlag{
			Name:  "no-interactive",
			Usage: "print the summary and exit without the disposition dialogue",
		},
		&cli.StringFlag{
			Name:  "output",
			Value: outputText,
			Usage: "output format (text, json)",
		},
		&cli.StringFlag{
			Name:  "quarantine-dir",
			Usage: "base directory for quarantine vaults (overrides config)",
		},
		&cli.StringFlag{
			Name:  "trash-dir",
			Usage: "fallback directory when the recycle bin is unavailable (overrides config)",
		},
		&cli.StringFlag{
			Name:    "audit-db",
			Usage:   "record scan runs and dispositions in this SQLite database",
			EnvVars: []string{"CYBERSCAN_AUDIT_DB"},
		},
	}
}

func scanCommand(env *Env) *cli.Command {
	return &cli.Command{
		Name:  "scan",
		Usage: "Scan for malware and review detections (default command)",
		Flags: scanFlags(),
		Action: func(c *cli.Context) error {
			return runScan(c, env)
		},
	}
}

func scanOptionsFrom(c *cli.Context) (scanOptions, error) {
	opts := scanOptions{
		Mode:          c.String("mode"),
		Path:          c.String("path"),
		Paths:         c.StringSlice("paths"),
		Simulate:      c.Bool("simulate"),
		NoAnimation:   c.Bool("no-animation"),
		NoInteractive: c.Bool("no-interactive"),
		Output:        strings.ToLower(c.String("output")),
		QuarantineDir: c.String("quarantine-dir"),
		TrashDir:      c.String("trash-dir"),
		AuditDB:       c.String("audit-db"),
	}
	if err := validateOutput(opts.Output); err != nil {
		return opts, err
	}
	return opts, nil
}

func validateOutput(format string) error {
	switch format {
	case outputText, outputJSON:
		return nil
	default:
		return fmt.Errorf("invalid output format %q: expected text or json", format)
	}
}

// loadSettings loads the configuration and builds the logger for a command.
func loadSettings(c *cli.Context, env *Env) (*config.Config, *slog.Logger, error) {
	cfg, err := config.LoadOrDefault(c.String("config"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	levelStr := c.String("log-level")
	if levelStr == "" {
		levelStr = cfg.LogLevel
	}
	logger := NewLogger(env.Stderr, ParseLogLevelOrDefault(levelStr), c.String("log-format"))
	return cfg, logger, nil
}

// runScan implements the scan command.
func runScan(c *cli.Context, env *Env) error {
	opts, err := scanOptionsFrom(c)
	if err != nil {
		return err
	}
	cfg, logger, err := loadSettings(c, env)
	if err != nil {
		return err
	}

	jsonOut := opts.Output == outputJSON
	out := env.Stdout
	if jsonOut {
		out = io.Discard
	}
	animate := cfg.UI.Animate && env.Interactive && !opts.NoAnimation && !jsonOut
	interactive := env.Interactive && !opts.NoInteractive && !jsonOut

	theme := ui.NewTheme(out)
	printer := ui.NewPrinter(out, theme, env.Width, animate)
	ctx := c.Context
	if ctx == nil {
		ctx = context.Background()
	}

	// Initialization: an interrupt here ends the process with ExitInterrupted.
	initCtx, stopInit := env.Notify(ctx)
	defer stopInit()

	host, err := env.Collect()
	if err != nil {
		printer.Error("System information unavailable.")
		return fmt.Errorf("failed to collect system information: %w", err)
	}
	printer.Boot(host.Hostname)
	printer.InfoTable(infoFields(host))

	avail := engine.Probe(probeOptions(cfg, env))
	logger.Info("engine probe", "clamav", avail.ScannerPath, "defender", avail.NativePath)
	printer.Log(fmt.Sprintf("Modules: ClamAV=%s | Defender=%s", found(avail.ScannerAvailable()), found(avail.NativeAvailable())))

	allowSimulation := cfg.Simulation.Enabled || opts.Simulate
	chain, err := engine.Select(avail, engineFactory(cfg, env, logger), allowSimulation, logger)
	if err != nil {
		printer.Error("No malware scan engine found. Install ClamAV (clamscan) or run with --simulate for a demonstration.")
		return fmt.Errorf("engine selection failed: %w", err)
	}
	if chain.Simulated() {
		printer.SimulationNotice()
		logger.Warn("no real scan engine installed, results will be simulated")
	}

	allow, err := config.LoadAllowlist(cfg.AllowlistFile)
	if err != nil {
		logger.Warn("failed to load allowlist", "allowlist_file", cfg.AllowlistFile, "error", err)
		allow = config.Allowlist{}
	}

	console := interact.NewConsole(env.Stdin)
	mode, customPath, err := chooseMode(initCtx, opts, interactive, console, printer, env.Exists)
	if err != nil {
		return err
	}

	home, err := env.Home()
	if err != nil {
		logger.Warn("home directory unknown", "error", err)
	}
	targets, err := engine.ResolveTargets(engine.TargetOptions{
		Mode:       mode,
		CustomPath: customPath,
		Explicit:   opts.Paths,
		Home:       home,
		Volumes:    env.Volumes,
		Exists:     env.Exists,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("failed to resolve scan targets: %w", err)
	}
	if initCtx.Err() != nil {
		return errInterrupted
	}
	stopInit()

	audit, err := openAudit(env, cfg, opts, logger)
	if err != nil {
		return err
	}
	if audit != nil {
		defer audit.close(logger)
	}

	startedAt := env.Now()
	run := &storage.ScanRun{
		Hostname:  host.Hostname,
		Platform:  host.Platform,
		Engine:    chain.Name(),
		Mode:      string(mode),
		StartedAt: startedAt,
	}
	if audit != nil {
		if err := audit.store.StartRun(ctx, run); err != nil {
			logger.Warn("failed to record scan run", "error", err)
			audit = nil
		}
	}

	// Scan: an interrupt stops the engine and keeps partial results.
	printer.Log(fmt.Sprintf("Engaging %s on %d target(s)...", strings.Join(chain.Engines(), " → "), len(targets)))
	status := ui.Status{
		Title:    cfg.UI.Title,
		Message:  "Scanning with " + chain.Name(),
		Mode:     ui.Title(string(mode)),
		ClamAV:   avail.ScannerAvailable(),
		Defender: avail.NativeAvailable(),
	}
	var renderer ui.Renderer
	switch {
	case jsonOut:
	case animate:
		renderer = ui.NewAnimated(out, theme, env.Width, cfg.UI.GetRefreshInterval())
	default:
		renderer = ui.NewHeadless(out, theme, cfg.UI.GetRefreshInterval())
	}

	scanCtx, stopScan := env.Notify(ctx)
	detections, scanErr := scanTargets(scanCtx, chain, targets, renderer, status, cfg.UI.GetRefreshInterval())
	interrupted := scanCtx.Err() != nil
	stopScan()
	finishedAt := env.Now()

	var warnings []string
	switch {
	case scanErr == nil, interrupted:
	case errors.Is(scanErr, engine.ErrExhausted):
		msg := "Every scan engine failed to launch. No results are available."
		printer.Warning(msg)
		logger.Warn("scan engines exhausted", "error", scanErr)
		warnings = append(warnings, msg)
	default:
		printer.Warning(fmt.Sprintf("Scan ended with an error: %v", scanErr))
		logger.Warn("scan ended with an error", "engine", chain.Name(), "error", scanErr)
		warnings = append(warnings, scanErr.Error())
	}
	if interrupted {
		logger.Info("scan interrupted", "partial_detections", len(detections))
	}

	osName := platform.CurrentPlatform().OS
	kept, suppressed := engine.FilterAllowed(detections, func(path string) bool {
		return allow.IsAllowed(path, osName)
	})
	for _, d := range suppressed {
		logger.Info("detection suppressed by allowlist", "path", d.Path, "label", d.Label)
	}

	run.Engine = chain.Name()
	run.Simulated = chain.Simulated()
	run.Interrupted = interrupted
	run.SuppressedCount = len(suppressed)
	run.FinishedAt = finishedAt
	if scanErr != nil && !interrupted {
		run.ErrorMessage = scanErr.Error()
	}
	if err := run.SetTargets(targets); err != nil {
		logger.Warn("failed to encode targets", "error", err)
	}
	if err := run.SetDetections(kept); err != nil {
		logger.Warn("failed to encode detections", "error", err)
	}
	if audit != nil {
		if err := audit.store.FinishRun(ctx, run); err != nil {
			logger.Warn("failed to finish scan run", "error", err)
		}
	}

	if jsonOut {
		report := ScanReport{
			RunID:       run.RunID,
			Engine:      chain.Name(),
			Simulated:   chain.Simulated(),
			Mode:        string(mode),
			Targets:     targets,
			Interrupted: interrupted,
			Detections:  nonNil(kept),
			Suppressed:  suppressed,
			StartedAt:   startedAt,
			FinishedAt:  finishedAt,
			DurationMs:  finishedAt.Sub(startedAt).Milliseconds(),
			Warnings:    warnings,
		}
		return writeJSON(env.Stdout, report)
	}

	printer.Debrief(kept, ui.DebriefOptions{
		Engine:      chain.Name(),
		Mode:        string(mode),
		Interrupted: interrupted,
		Simulated:   chain.Simulated(),
		Suppressed:  len(suppressed),
	})

	if interactive && !interrupted && len(kept) > 0 {
		var recorder disposition.Recorder
		if audit != nil {
			recorder = audit.store.Recorder(run.RunID)
		}
		svc := disposition.NewService(disposition.Options{
			QuarantineBase: firstNonEmpty(opts.QuarantineDir, cfg.Disposition.QuarantineBase),
			TrashFallback:  firstNonEmpty(opts.TrashDir, cfg.Disposition.TrashFallback),
			Trasher:        trash.New(env.Runner),
			Recorder:       recorder,
			Logger:         logger,
			Now:            env.Now,
		})

		dialogCtx, stopDialog := env.Notify(ctx)
		loop := interact.NewLoop(console, out, theme, svc, interact.Options{
			ConfirmToken: cfg.Disposition.ConfirmToken,
			Logger:       logger,
		})
		results, err := loop.Run(dialogCtx, kept)
		stopDialog()
		if err != nil {
			logger.Warn("disposition dialogue ended with an error", "error", err)
		}
		logger.Info("dispositions applied", "count", len(results))

		held, err := svc.Vault().ListFiles()
		if err != nil {
			logger.Warn("failed to list quarantine", "error", err)
		} else if len(held) > 0 {
			printer.Log(fmt.Sprintf("%d file(s) held in quarantine at %s", len(held), svc.Vault().Root()))
		}
	}

	printer.Terminated(env.Now())
	return nil
}

// scanTargets runs chain while the renderer and the progress driver run in
// the background. Both stop when the scan is interrupted.
func scanTargets(ctx context.Context, chain engine.Engine, targets []string, r ui.Renderer, status ui.Status, interval time.Duration) ([]engine.Detection, error) {
	sig := progress.New()
	renderCtx, stopRender := context.WithCancel(ctx)
	defer stopRender()

	var wg sync.WaitGroup
	if r != nil {
		wg.Add(2)
		go func() {
			defer wg.Done()
			progress.Drive(renderCtx, sig, interval)
		}()
		go func() {
			defer wg.Done()
			r.Run(renderCtx, sig, status)
		}()
	}

	detections, err := chain.Scan(ctx, targets)
	sig.Finish()
	if ctx.Err() != nil {
		stopRender()
	}
	wg.Wait()

	return detections, err
}

// chooseMode decides the scan mode from flags, or by prompting on a terminal.
func chooseMode(ctx context.Context, opts scanOptions, interactive bool, in interact.LineReader, p *ui.Printer, exists func(string) bool) (engine.Mode, string, error) {
	if len(opts.Paths) > 0 {
		return engine.ModeCustom, "", nil
	}

	var mode engine.Mode
	switch {
	case opts.Mode != "":
		m, err := engine.ParseMode(opts.Mode)
		if err != nil {
			return "", "", err
		}
		mode = m
	case opts.Path != "":
		mode = engine.ModeCustom
	case !interactive:
		return engine.ModeQuick, "", nil
	default:
		p.ModeMenu()
		p.Prompt("[INPUT] Choose mode [1-3]: ")
		line, err := in.ReadLine(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return "", "", errInterrupted
			}
			return engine.ModeQuick, "", nil
		}
		m, err := engine.ParseMode(line)
		if err != nil {
			p.Warning("Invalid selection. Defaulting to Quick Scan.")
			m = engine.ModeQuick
		}
		mode = m
	}

	if mode != engine.ModeCustom {
		return mode, "", nil
	}

	path := opts.Path
	if path == "" && interactive {
		p.Prompt("[INPUT] Enter path to scan: ")
		line, err := in.ReadLine(ctx)
		if err != nil && ctx.Err() != nil {
			return "", "", errInterrupted
		}
		path = strings.TrimSpace(line)
	}
	if path == "" || !exists(path) {
		p.Warning(fmt.Sprintf("Path %q not found. Falling back to Quick Scan.", path))
	}
	return mode, path, nil
}

// probeOptions maps the engine configuration onto engine.ProbeOptions.
func probeOptions(cfg *config.Config, env *Env) engine.ProbeOptions {
	opts := engine.ProbeOptions{
		NativeCandidates: cfg.Engines.Defender.Candidates,
		DisableScanner:   !cfg.Engines.ClamAV.Enabled,
		DisableNative:    !cfg.Engines.Defender.Enabled,
		LookPath:         env.LookPath,
		Exists:           env.Exists,
	}
	if b := cfg.Engines.ClamAV.Binary; b != "" && b != config.DefaultClamAVBinary {
		opts.ScannerNames = []string{b}
	}
	if len(opts.NativeCandidates) == 0 {
		opts.NativeCandidates = defender.DefaultCandidates
	}
	return opts
}

// engineFactory builds the engines Select asks for.
func engineFactory(cfg *config.Config, env *Env, logger *slog.Logger) engine.Factory {
	return engine.Factory{
		ClamAV: func(path string) engine.Engine {
			scanner := clamav.NewLocalScanner(env.Runner, path, cfg.Engines.ClamAV.ExtraArgs, logger)
			return engine.NewClamAV(scanner, cfg.Engines.ClamAV.MinVersion, logger)
		},
		Defender: func(path string) engine.Engine {
			return engine.NewDefender(defender.NewScanner(env.Runner, path, logger))
		},
		Simulation: func() engine.Engine {
			return engine.NewSimulator(engine.SimulatorOptions{
				Duration:      cfg.Simulation.GetDuration(),
				Probability:   cfg.Simulation.Probability,
				MaxDetections: cfg.Simulation.MaxDetections,
			})
		},
	}
}

// auditSession is an open audit database.
type auditSession struct {
	store AuditStore
}

func (a *auditSession) close(logger *slog.Logger) {
	if err := a.store.Close(); err != nil {
		// Log close error but don't fail - we're in cleanup
		logger.Warn("failed to close audit database", "error", err)
	}
}

// openAudit opens the audit database when --audit-db is set or auditing is
// enabled in the config. It returns nil when auditing is off.
func openAudit(env *Env, cfg *config.Config, opts scanOptions, logger *slog.Logger) (*auditSession, error) {
	path := opts.AuditDB
	if path == "" && cfg.Storage.Audit {
		path = cfg.Storage.DatabasePath
	}
	if path == "" {
		return nil, nil
	}
	db, err := env.OpenStore(path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize audit database: %w", err)
	}
	logger.Debug("audit database opened", "path", path)
	return &auditSession{store: db}, nil
}

func infoFields(info sysinfo.Info) []ui.Field {
	src := info.Fields()
	fields := make([]ui.Field, 0, len(src))
	for _, f := range src {
		fields = append(fields, ui.Field{Key: f.Key, Value: f.Value})
	}
	return fields
}

func found(ok bool) string {
	if ok {
		return "ONLINE"
	}
	return "OFFLINE"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func nonNil(dets []engine.Detection) []engine.Detection {
	if dets == nil {
		return []engine.Detection{}
	}
	return dets
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return nil
}
