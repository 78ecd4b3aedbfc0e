package interact

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/clean-dependency-project/cyberscan/internal/disposition"
	"github.com/clean-dependency-project/cyberscan/internal/engine"
	"github.com/clean-dependency-project/cyberscan/internal/ui"
)

// DefaultConfirmToken must be typed to confirm a permanent delete.
const DefaultConfirmToken = "CONFIRM"

// State is a step of the dialogue.
type State int

// Dialogue states
const (
	StateIdle State = iota
	StateSelectingTargets
	StateAwaitingAction
	StateAwaitingDeleteConfirmation
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSelectingTargets:
		return "selecting_targets"
	case StateAwaitingAction:
		return "awaiting_action"
	case StateAwaitingDeleteConfirmation:
		return "awaiting_delete_confirmation"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Disposer applies a disposition. *disposition.Service implements it.
type Disposer interface {
	Apply(ctx context.Context, action disposition.Action, path, label string) disposition.Outcome
}

// Result records what happened to one detection.
type Result struct {
	Detection engine.Detection    `json:"detection"`
	Action    disposition.Action  `json:"action"`
	Outcome   disposition.Outcome `json:"outcome"`
}

// Loop is the post-scan dialogue. It is synchronous: dispositions run one at
// a time in the order the operator chose them.
type Loop struct {
	in       LineReader
	out      io.Writer
	theme    *ui.Theme
	disposer Disposer
	token    string
	logger   *slog.Logger

	state State
}

// Options configures a Loop.
type Options struct {
	ConfirmToken string
	Logger       *slog.Logger
}

// NewLoop creates a dialogue reading from in and writing to out.
func NewLoop(in LineReader, out io.Writer, theme *ui.Theme, disposer Disposer, opts Options) *Loop {
	if opts.ConfirmToken == "" {
		opts.ConfirmToken = DefaultConfirmToken
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if theme == nil {
		theme = ui.NewTheme(out)
	}
	return &Loop{
		in:       in,
		out:      out,
		theme:    theme,
		disposer: disposer,
		token:    opts.ConfirmToken,
		logger:   opts.Logger,
		state:    StateIdle,
	}
}

// State returns the current dialogue state.
func (l *Loop) State() State {
	return l.state
}

// Run drives the dialogue until the operator exits, input ends, or ctx is
// cancelled. End of input and cancellation are normal terminations.
func (l *Loop) Run(ctx context.Context, detections []engine.Detection) ([]Result, error) {
	if len(detections) == 0 {
		l.println(l.theme.OK, "[MISSION LOG] System secure. No intrusions detected.")
		l.state = StateDone
		return nil, nil
	}

	l.printDetections(detections)

	var results []Result
	l.state = StateSelectingTargets
	for l.state != StateDone {
		line, ok := l.read(ctx, "[COMMAND] Select target (or 'all', 'exit' to abort): ")
		if !ok {
			break
		}

		sel, err := ParseSelection(line, len(detections))
		if err != nil {
			l.println(l.theme.Warn, "[ERROR] Invalid input. Try again.")
			continue
		}
		if sel.Exit {
			break
		}
		for _, n := range sel.OutOfRange {
			l.println(l.theme.Warn, fmt.Sprintf("[ERROR] Target %d out of range.", n))
		}

		for _, idx := range sel.Indices {
			res, ok := l.handle(ctx, detections[idx])
			if !ok {
				l.state = StateDone
				break
			}
			results = append(results, res)
		}
		if l.state != StateDone {
			l.state = StateSelectingTargets
		}
	}

	l.state = StateDone
	return results, nil
}

// handle runs the action dialogue for one detection. It returns false when
// input ended.
func (l *Loop) handle(ctx context.Context, d engine.Detection) (Result, bool) {
	l.state = StateAwaitingAction

	fmt.Fprintln(l.out)
	l.println(l.theme.Status, "[TARGET] File: "+d.Path)
	l.println(l.theme.Alert, "[SIGNATURE] "+d.Label)
	l.println(l.theme.Info, "[OPTIONS] 1) Isolate (Quarantine)  2) Exile (Recycle)  3) Eradicate (Delete)  4) Ignore")

	line, ok := l.read(ctx, "[EXECUTE] Command: ")
	if !ok {
		return Result{}, false
	}

	action := ParseAction(line)
	res := Result{Detection: d, Action: action}

	switch action {
	case disposition.ActionQuarantine, disposition.ActionRecycle:
		res.Outcome = l.disposer.Apply(ctx, action, d.Path, d.Label)
		l.printOutcome(action, res.Outcome)
	case disposition.ActionDelete:
		l.state = StateAwaitingDeleteConfirmation
		confirm, ok := l.read(ctx, fmt.Sprintf("[CONFIRM] Type '%s' to eradicate: ", l.token))
		if !ok {
			return Result{}, false
		}
		if !strings.EqualFold(strings.TrimSpace(confirm), l.token) {
			l.println(l.theme.Warn, "[LOG] Operation aborted.")
			res.Action = disposition.ActionIgnore
			res.Outcome = disposition.Outcome{Message: "Delete not confirmed"}
			return res, true
		}
		res.Outcome = l.disposer.Apply(ctx, action, d.Path, d.Label)
		l.printOutcome(action, res.Outcome)
	default:
		res.Outcome = disposition.Outcome{Success: true, Message: "Ignored"}
		l.println(l.theme.Warn, "[LOG] Target ignored.")
	}

	return res, true
}

// read prompts and reads one line. It returns false on end of input or
// cancellation, both of which end the dialogue.
func (l *Loop) read(ctx context.Context, prompt string) (string, bool) {
	fmt.Fprint(l.out, l.theme.Info.Render(prompt))
	line, err := l.in.ReadLine(ctx)
	if err != nil {
		fmt.Fprintln(l.out)
		if errors.Is(err, io.EOF) || ctx.Err() != nil {
			l.logger.Debug("input closed, leaving dialogue", "state", l.state.String(), "error", err)
		} else {
			l.logger.Warn("failed to read input", "error", err)
		}
		return "", false
	}
	return line, true
}

func (l *Loop) printDetections(detections []engine.Detection) {
	l.println(l.theme.Alert, "[MISSION LOG] Intrusions detected in the matrix:")
	for i, d := range detections {
		l.println(l.theme.Alert, fmt.Sprintf("[ALERT %d] Signature: %s", i+1, d.Label))
		l.println(l.theme.Alert, "  Target: "+d.Path)
	}
}

var actionVerbs = map[disposition.Action]string{
	disposition.ActionQuarantine: "Isolation",
	disposition.ActionRecycle:    "Exile",
	disposition.ActionDelete:     "Eradication",
}

func (l *Loop) printOutcome(action disposition.Action, out disposition.Outcome) {
	fmt.Fprintln(l.out, l.theme.Outcome(out.Success, fmt.Sprintf("[LOG] %s: %s", actionVerbs[action], out.Message)))
}

type renderer interface {
	Render(strs ...string) string
}

func (l *Loop) println(style renderer, s string) {
	fmt.Fprintln(l.out, style.Render(s))
}
