package printer

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// runFunc executes name with args, feeding stdin. Swapped in tests.
type runFunc func(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error)

func execRun(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = bytes.NewReader(stdin)
	return cmd.CombinedOutput()
}

// LPPrinter submits jobs to a CUPS queue through the lp command.
type LPPrinter struct {
	path    string
	queue   string
	timeout time.Duration
	run     runFunc
}

// NewLP returns an LPPrinter for the named queue.
func NewLP(path, queue string, timeout time.Duration) *LPPrinter {
	if path == "" {
		path = "lp"
	}
	return &LPPrinter{path: path, queue: queue, timeout: timeout, run: execRun}
}

func (p *LPPrinter) args(job Job) []string {
	copies := job.Copies
	if copies < 1 {
		copies = 1
	}
	args := []string{"-d", p.queue, "-n", strconv.Itoa(copies)}
	if job.Name != "" {
		args = append(args, "-t", job.Name)
	}
	if job.Duplex {
		args = append(args, "-o", "sides=two-sided-long-edge")
	} else {
		args = append(args, "-o", "sides=one-sided")
	}
	// No file operand: lp reads the document from stdin.
	return args
}

// Print runs lp and waits for it to accept the job.
func (p *LPPrinter) Print(ctx context.Context, job Job) error {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	out, err := p.run(ctx, job.Data, p.path, p.args(job)...)
	if err != nil {
		return fmt.Errorf("%w: lp: %v: %s", ErrRejected, err, strings.TrimSpace(string(out)))
	}
	return nil
}
