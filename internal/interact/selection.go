package interact

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/clean-dependency-project/cyberscan/internal/disposition"
)

// ErrInvalidSelection rejects a whole input line.
var ErrInvalidSelection = errors.New("invalid selection")

// Selection is a parsed target selection.
type Selection struct {
	// Exit ends the dialogue.
	Exit bool
	// Indices are zero-based detection indices, in input order.
	Indices []int
	// OutOfRange lists 1-based entries that did not match a detection.
	OutOfRange []int
}

// ParseSelection parses "all", "exit"/"q", or a comma separated list of
// 1-based detection numbers against n detections. Input is trimmed and case
// insensitive. Any non-numeric entry rejects the whole line.
func ParseSelection(input string, n int) (Selection, error) {
	in := strings.ToLower(strings.TrimSpace(input))

	switch in {
	case "exit", "q", "quit":
		return Selection{Exit: true}, nil
	case "all":
		sel := Selection{Indices: make([]int, n)}
		for i := range sel.Indices {
			sel.Indices[i] = i
		}
		return sel, nil
	case "":
		return Selection{}, fmt.Errorf("%w: empty input", ErrInvalidSelection)
	}

	var sel Selection
	for _, part := range strings.Split(in, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		num, err := strconv.Atoi(part)
		if err != nil {
			return Selection{}, fmt.Errorf("%w: %q is not a number", ErrInvalidSelection, part)
		}
		if num < 1 || num > n {
			sel.OutOfRange = append(sel.OutOfRange, num)
			continue
		}
		sel.Indices = append(sel.Indices, num-1)
	}
	return sel, nil
}

// ParseAction maps a menu choice to an action. Anything unrecognised is
// treated as ignore.
func ParseAction(input string) disposition.Action {
	switch strings.TrimSpace(input) {
	case "1":
		return disposition.ActionQuarantine
	case "2":
		return disposition.ActionRecycle
	case "3":
		return disposition.ActionDelete
	default:
		return disposition.ActionIgnore
	}
}
