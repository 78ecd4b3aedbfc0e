// Package interact runs the operator dialogue after a scan.
package interact

import (
	"bufio"
	"context"
	"io"
	"strings"
	"sync"
)

// LineReader reads one line of operator input.
type LineReader interface {
	ReadLine(ctx context.Context) (string, error)
}

type lineResult struct {
	line string
	err  error
}

// Console reads lines from an io.Reader without blocking cancellation: a
// pending ReadLine returns ctx.Err() as soon as ctx is done.
type Console struct {
	r     io.Reader
	once  sync.Once
	lines chan lineResult
}

// NewConsole creates a console over r, typically os.Stdin.
func NewConsole(r io.Reader) *Console {
	return &Console{r: r, lines: make(chan lineResult)}
}

func (c *Console) start() {
	go func() {
		defer close(c.lines)
		sc := bufio.NewScanner(c.r)
		for sc.Scan() {
			c.lines <- lineResult{line: strings.TrimRight(sc.Text(), "\r")}
		}
		if err := sc.Err(); err != nil {
			c.lines <- lineResult{err: err}
		}
	}()
}

// ReadLine returns the next line without its line ending. It returns io.EOF
// once the input is exhausted.
func (c *Console) ReadLine(ctx context.Context) (string, error) {
	c.once.Do(c.start)

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res, ok := <-c.lines:
		if !ok {
			return "", io.EOF
		}
		return res.line, res.err
	}
}
