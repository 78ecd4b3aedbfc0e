package ui

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/clean-dependency-project/cyberscan/internal/progress"
)

// DefaultRefresh is the animation frame interval.
const DefaultRefresh = 50 * time.Millisecond

var (
	spinnerWords  = []string{"[HACKING]", "[INFILTRATING]", "[DECODING]", "[BREACHING]", "[CRACKING]", "[SCANNING]"}
	binaryStream  = []string{"010101", "101010", "110011", "001100", "111000", "000111"}
	glitchChars   = []string{"~", "#", "%", "&", "$", "@"}
	panelArt      = []string{"  ____  ", " | __ ) ", " |  _ \\ ", " | |_) |", " |____/ ", "  ***  ", " [VIRUS] "}
	decoyTargets  = []string{"kernel_exploit.dll", "rootkit.sys", "trojan_backdoor.exe", "spyware.dat", "malware_payload.bin"}
	clearScreen   = "\x1b[2J\x1b[H"
	glitchEvery   = 12
	progressWidth = 30
)

// Status describes the scan being rendered.
type Status struct {
	Title    string
	Message  string
	Mode     string
	ClamAV   bool
	Defender bool
}

// Renderer displays scan progress. Run returns when the signal completes or
// ctx is cancelled. Renderers only read the signal.
type Renderer interface {
	Run(ctx context.Context, sig *progress.Signal, status Status)
}

// Animated repaints a full-screen panel on every tick.
type Animated struct {
	out      io.Writer
	theme    *Theme
	width    int
	interval time.Duration
	rng      *rand.Rand
}

// NewAnimated creates an animated renderer writing to out.
func NewAnimated(out io.Writer, theme *Theme, width int, interval time.Duration) *Animated {
	if interval <= 0 {
		interval = DefaultRefresh
	}
	if width <= 0 {
		width = DefaultWidth
	}
	return &Animated{
		out:      out,
		theme:    theme,
		width:    width,
		interval: interval,
		rng:      rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)),
	}
}

// Run polls sig every interval and repaints.
func (a *Animated) Run(ctx context.Context, sig *progress.Signal, status Status) {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for tick := 0; ; tick++ {
		st := sig.Snapshot()
		fmt.Fprint(a.out, clearScreen+a.Frame(st, status, tick)+"\n")
		if st.Done {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Frame renders one panel frame.
func (a *Animated) Frame(st progress.State, status Status, tick int) string {
	t := a.theme
	inner := a.width - 4
	fill := borderCycle[tick%len(borderCycle)]

	glitch := ""
	if tick > 0 && tick%glitchEvery == 0 {
		glitch = glitchChars[a.rng.IntN(len(glitchChars))]
	}

	lines := []string{
		t.Title.Render(center(status.Title+" "+glitch, inner)),
		t.Status.Render(spread("[STATUS] "+status.Message, "[MODE] "+status.Mode, inner)),
		t.Warn.Render(spread(
			fmt.Sprintf("[MODULES] ClamAV=%s | Defender=%s", onOff(status.ClamAV), onOff(status.Defender)),
			"[ELAPSED] "+HumanDuration(st.Elapsed), inner)),
		t.Status.Render(spread(
			spinnerWords[tick%len(spinnerWords)]+progressBar(st.Percent, progressWidth)+fmt.Sprintf(" %5.1f%%", st.Percent),
			fmt.Sprintf("[SCANNED] %s files", groupThousands(st.Scanned)), inner)),
		t.Warn.Render(spread("[TARGET] "+decoyTargets[a.rng.IntN(len(decoyTargets))], "", inner)),
		t.Data.Render(spread(
			"[DATA] "+strings.Repeat(binaryStream[tick%len(binaryStream)], 6),
			fmt.Sprintf("[HEX] %04X", a.rng.IntN(0x10000)), inner)),
		t.Info.Render(center(panelArt[tick%len(panelArt)], inner)),
		t.Muted.Render("[TIP] Press Ctrl+C to abort mission (intel retained). " + glitch),
	}

	return box(t.Panel, fill, a.width-2).Render(strings.Join(lines, "\n"))
}

// Headless prints a start and an end line instead of animating.
type Headless struct {
	out      io.Writer
	theme    *Theme
	interval time.Duration
}

// NewHeadless creates a renderer for non-interactive output.
func NewHeadless(out io.Writer, theme *Theme, interval time.Duration) *Headless {
	if interval <= 0 {
		interval = DefaultRefresh
	}
	return &Headless{out: out, theme: theme, interval: interval}
}

// Run prints the status line and waits for completion.
func (h *Headless) Run(ctx context.Context, sig *progress.Signal, status Status) {
	fmt.Fprintln(h.out, h.theme.Status.Render(fmt.Sprintf("[STATUS] %s [MODE] %s", status.Message, status.Mode)))

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		st := sig.Snapshot()
		if st.Done {
			fmt.Fprintln(h.out, h.theme.Info.Render(fmt.Sprintf("[STATUS] Scan complete in %s", HumanDuration(st.Elapsed))))
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// HumanDuration formats d as "1h2m3s", "2m3s" or "3s".
func HumanDuration(d time.Duration) string {
	if d < time.Second {
		return "0s"
	}
	total := int(d.Seconds())
	h, m, s := total/3600, total/60%60, total%60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh%dm%ds", h, m, s)
	case m > 0:
		return fmt.Sprintf("%dm%ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

func progressBar(percent float64, width int) string {
	filled := int(percent / 100 * float64(width))
	if filled > width {
		filled = width
	}
	if filled == width {
		return "[" + strings.Repeat("#", width) + "]"
	}
	return "[" + strings.Repeat("#", filled) + ">" + strings.Repeat(".", width-filled-1) + "]"
}

func onOff(b bool) string {
	if b {
		return "ON"
	}
	return "OFF"
}

// spread left-aligns left and right-aligns right within width.
func spread(left, right string, width int) string {
	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}

func center(s string, width int) string {
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, s)
}

func groupThousands(n int64) string {
	s := fmt.Sprintf("%d", n)
	if n < 0 {
		return s
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return b.String()
}
