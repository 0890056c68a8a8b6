package system

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hypercube-linux/hypercube-utils/internal/logging"
)

// Runner executes external programs with a timeout.
type Runner struct {
	Timeout time.Duration
}

// NewRunner returns a Runner with a timeout suited to package installs.
func NewRunner() *Runner {
	return &Runner{Timeout: 30 * time.Minute}
}

// Run executes name with args, feeding stdin when non-nil. Every line the
// program prints is passed to progress. On failure the error carries the
// program's last stderr lines.
func (r *Runner) Run(ctx context.Context, progress func(string), stdin []byte, name string, args ...string) error {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}
	if progress == nil {
		progress = func(string) {}
	}

	logging.LogCommand(name, args)
	cmd := exec.CommandContext(ctx, name, args...)
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	var stderr tail
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	scanLines(stdout, maxLineLength, progress)

	if err := cmd.Wait(); err != nil {
		if s := stderr.String(); s != "" {
			return fmt.Errorf("%s: %s", name, s)
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// maxLineLength bounds a single progress line.
const maxLineLength = 1024 * 1024

// scanLines passes each non-blank line of r to progress. r is always read
// to the end so the program never blocks on a full pipe.
func scanLines(r io.Reader, limit int, progress func(string)) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, min(64*1024, limit)), limit)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			progress(line)
		}
	}
	if err := sc.Err(); err != nil {
		logging.Warn("Stopped reading program output", zap.Error(err))
		progress("Output unreadable, skipping the rest: " + err.Error())
		_, _ = io.Copy(io.Discard, r)
	}
}

// Output runs name and returns its stdout.
func (r *Runner) Output(ctx context.Context, name string, args ...string) (string, error) {
	var b strings.Builder
	err := r.Run(ctx, func(line string) {
		b.WriteString(line)
		b.WriteByte('\n')
	}, nil, name, args...)
	return b.String(), err
}

// tail keeps the last few lines written to it.
type tail struct {
	mu    sync.Mutex
	lines []string
	part  string
}

const tailLines = 5

func (t *tail) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	text := t.part + string(p)
	parts := strings.Split(text, "\n")
	t.part = parts[len(parts)-1]
	for _, l := range parts[:len(parts)-1] {
		if l = strings.TrimSpace(l); l != "" {
			t.lines = append(t.lines, l)
		}
	}
	if len(t.lines) > tailLines {
		t.lines = t.lines[len(t.lines)-tailLines:]
	}
	return len(p), nil
}

func (t *tail) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	lines := t.lines
	if p := strings.TrimSpace(t.part); p != "" {
		lines = append(append([]string(nil), lines...), p)
	}
	return strings.Join(lines, "; ")
}
