package ui

import (
	"fmt"
	"io"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/clean-dependency-project/cyberscan/internal/engine"
)

var titleCaser = cases.Title(language.English)

// Title title-cases a mode or engine name for display.
func Title(s string) string {
	return titleCaser.String(s)
}

var bootSequence = []string{
	"[BOOT] Initializing Cyber Matrix Protocol...",
	"[BOOT] Loading Neural Network Interfaces...",
	"[BOOT] Establishing Quantum Encryption...",
	"[BOOT] Activating Intrusion Detection Systems...",
}

// Printer writes the non-animated report screens.
type Printer struct {
	out   io.Writer
	theme *Theme
	width int
	// Animate enables pauses and the matrix rain effect.
	Animate bool
	sleep   func(time.Duration)
}

// NewPrinter creates a printer for out.
func NewPrinter(out io.Writer, theme *Theme, width int, animate bool) *Printer {
	if width <= 0 {
		width = DefaultWidth
	}
	return &Printer{out: out, theme: theme, width: width, Animate: animate, sleep: time.Sleep}
}

func (p *Printer) pause(d time.Duration) {
	if p.Animate {
		p.sleep(d)
	}
}

func (p *Printer) fill() string {
	return borderCycle[rand.IntN(3)]
}

// Boot prints the boot sequence and welcome box for hostname.
func (p *Printer) Boot(hostname string) {
	t := p.theme
	if p.Animate {
		fmt.Fprint(p.out, clearScreen)
	}
	for _, msg := range bootSequence {
		fmt.Fprintln(p.out, t.OK.Render(msg))
		p.pause(500 * time.Millisecond)
	}

	if p.Animate {
		p.matrixRain(25, 35)
	}

	if hostname == "" {
		hostname = "Unknown Device"
	}
	welcome := fmt.Sprintf("Welcome to the Matrix, %s. Cyber Defense Systems Engaged.", hostname)
	fmt.Fprintln(p.out, box(t.Panel, p.fill(), p.width-2).Render(t.Status.Bold(true).Render(welcome)))

	fmt.Fprintln(p.out, t.Warn.Render("[INIT] Deploying Cyber Arsenal..."))
	if p.Animate {
		for i := 0; i <= 100; i += 2 {
			glitch := ""
			if rand.Float64() < 0.2 {
				glitch = glitchChars[rand.IntN(len(glitchChars))]
			}
			fmt.Fprint(p.out, "\r"+t.Info.Render(fmt.Sprintf("[%s%s] %d%% %s",
				strings.Repeat("#", i/2), strings.Repeat(".", 50-i/2), i, glitch)))
			p.sleep(40 * time.Millisecond)
		}
		fmt.Fprintln(p.out)
	}
	fmt.Fprintln(p.out, t.OK.Render("[✓] Arsenal Deployed!"))
	fmt.Fprintln(p.out)
}

func (p *Printer) matrixRain(frames, rows int) {
	lines := make([]string, rows)
	for i := range lines {
		lines[i] = strings.Repeat(" ", rand.IntN(p.width)) + bit()
	}
	for range frames {
		fmt.Fprint(p.out, clearScreen)
		for _, l := range lines {
			fmt.Fprintln(p.out, p.theme.OK.Render(l))
		}
		for i, l := range lines {
			if rand.Float64() > 0.1 {
				lines[i] = l[1:] + bit()
			}
		}
		p.sleep(60 * time.Millisecond)
	}
	fmt.Fprint(p.out, clearScreen)
}

func bit() string {
	return string("01"[rand.IntN(2)])
}

// Field is one row of the system report.
type Field struct {
	Key   string
	Value string
}

// InfoTable prints the system intel report.
func (p *Printer) InfoTable(fields []Field) {
	t := p.theme
	keyWidth := 24

	tbl := table.New().
		Border(lipgloss.DoubleBorder()).
		BorderStyle(t.Frame).
		Width(p.width).
		Headers("SYSTEM INTEL REPORT", "").
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return t.Title
			case col == 0:
				return t.Warn.Width(keyWidth)
			default:
				return t.OK
			}
		})
	for _, f := range fields {
		tbl.Row(f.Key, f.Value)
	}

	fmt.Fprintln(p.out, tbl.String())
	fmt.Fprintln(p.out)
}

// Table prints rows under headers.
func (p *Printer) Table(headers []string, rows [][]string) {
	t := p.theme

	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(t.Frame).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return t.Title.Padding(0, 1)
			}
			return t.Data.Padding(0, 1)
		}).
		Rows(rows...)

	fmt.Fprintln(p.out, tbl.String())
}

// ModeMenu prints the scan mode choices.
func (p *Printer) ModeMenu() {
	t := p.theme
	fmt.Fprintln(p.out, t.Status.Bold(true).Render("═[ SELECT CYBER SCAN MODE ]═"))
	fmt.Fprintln(p.out, t.Info.Render("[1] Quick Scan (User Folders)"))
	fmt.Fprintln(p.out, t.Info.Render("[2] Full Scan (All Devices/Drives)"))
	fmt.Fprintln(p.out, t.Info.Render("[3] Custom Scan (Specify Path)"))
}

// Prompt prints an input prompt without a trailing newline.
func (p *Printer) Prompt(s string) {
	fmt.Fprint(p.out, p.theme.Warn.Render(s))
}

// Log prints a mission log line.
func (p *Printer) Log(s string) {
	fmt.Fprintln(p.out, p.theme.Info.Render("[LOG] "+s))
}

// Warning prints a warning line.
func (p *Printer) Warning(s string) {
	fmt.Fprintln(p.out, p.theme.Warn.Render("[WARNING] "+s))
}

// Error prints an error line.
func (p *Printer) Error(s string) {
	fmt.Fprintln(p.out, p.theme.Alert.Render("[ERROR] "+s))
}

// SimulationNotice states that results are fabricated.
func (p *Printer) SimulationNotice() {
	msg := "SIMULATION MODE: no scan engine is installed. Detections below are FABRICATED and do not refer to real files."
	fmt.Fprintln(p.out, box(p.theme.Panel, "!", p.width-2).Render(p.theme.Alert.Render(msg)))
}

// DebriefOptions describes how a scan ended.
type DebriefOptions struct {
	Engine      string
	Mode        string
	Interrupted bool
	Simulated   bool
	Suppressed  int
}

// Debrief prints the final scan summary box.
func (p *Printer) Debrief(detections []engine.Detection, opts DebriefOptions) {
	t := p.theme
	inner := p.width - 4

	lines := []string{t.Title.Render(center("CYBER SCAN DEBRIEF", inner))}
	if opts.Engine != "" {
		meta := "Engine: " + opts.Engine
		if opts.Mode != "" {
			meta += " | Mode: " + Title(opts.Mode)
		}
		lines = append(lines, t.Muted.Render(meta))
	}
	if opts.Interrupted {
		lines = append(lines, t.Warn.Render("Mission aborted. Partial intel below."))
	}
	if opts.Simulated {
		lines = append(lines, t.Alert.Render("Simulated results: these detections are fabricated."))
	}
	if opts.Suppressed > 0 {
		lines = append(lines, t.Muted.Render(fmt.Sprintf("%d detection(s) suppressed by the allow list.", opts.Suppressed)))
	}

	if len(detections) == 0 {
		lines = append(lines, t.OK.Render("System Fortified: No Threats Infiltrated."))
	} else {
		lines = append(lines, t.Alert.Render(fmt.Sprintf("Alert: %d Intrusions Detected!", len(detections))))
		target := t.Alert.Width(inner)
		for i, d := range detections {
			lines = append(lines,
				t.Alert.Render(fmt.Sprintf("[ALERT %d] Sig: %s", i+1, d.Label)),
				target.Render("  Target: "+d.Path),
			)
		}
	}

	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, box(t.Panel, p.fill(), p.width-2).Render(strings.Join(lines, "\n")))
	fmt.Fprintln(p.out)
}

// Terminated prints the session end line.
func (p *Printer) Terminated(at time.Time) {
	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, p.theme.Info.Render(fmt.Sprintf("[MISSION LOG] Session Terminated at %s. Stay Vigilant! 🔒", at.Format("15:04:05"))))
}
