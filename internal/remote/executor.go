// Package remote defines how administration commands reach a scheduler.
//
// The transport itself (ssh, a login node, a test double) lives outside this module;
// callers hand an Executor to the scheduler backends.
package remote

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/Justype/gridadaptor/internal/utils"
	"github.com/armon/circbuf"
	"github.com/mattn/go-shellwords"
)

// maxOutputSize limits how much of stdout/stderr is kept per command.
const maxOutputSize = 1 << 20

var (
	// ErrCommandMissing indicates an empty command line.
	ErrCommandMissing = errors.New("command missing")
	// ErrOutputTruncated indicates a command wrote more than the executor keeps.
	// Partial output is never handed to the parsers.
	ErrOutputTruncated = errors.New("command output truncated")
)

// Result holds the captured output of one command.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Success reports whether the command exited with status 0.
func (r *Result) Success() bool {
	return r.ExitCode == 0
}

func (r *Result) String() string {
	return fmt.Sprintf("exit code: %d, stdout: %q, stderr: %q", r.ExitCode, r.Stdout, r.Stderr)
}

// Executor runs a command and returns its output.
// A non-zero exit is reported through Result.ExitCode, not as an error;
// the error is reserved for transport failures.
type Executor interface {
	Run(ctx context.Context, name string, args ...string) (*Result, error)
}

// LocalExecutor runs commands with os/exec, optionally behind a prefix such as
// "ssh -o BatchMode=yes headnode".
type LocalExecutor struct {
	prefix    []string
	env       []string
	maxOutput int64
}

// NewLocalExecutor creates an executor. prefix is split with shell quoting rules.
func NewLocalExecutor(prefix string, env ...string) (*LocalExecutor, error) {
	var words []string
	if strings.TrimSpace(prefix) != "" {
		var err error
		words, err = shellwords.Parse(prefix)
		if err != nil {
			return nil, fmt.Errorf("invalid command prefix %q: %w", prefix, err)
		}
	}
	return &LocalExecutor{prefix: words, env: env, maxOutput: maxOutputSize}, nil
}

// Run executes name with args and waits for it.
func (l *LocalExecutor) Run(ctx context.Context, name string, args ...string) (*Result, error) {
	argv := append(append([]string{}, l.prefix...), name)
	argv = append(argv, args...)
	if argv[0] == "" {
		return nil, ErrCommandMissing
	}

	stdout, err := circbuf.NewBuffer(l.maxOutput)
	if err != nil {
		return nil, err
	}
	stderr, err := circbuf.NewBuffer(l.maxOutput)
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	if len(l.env) > 0 {
		cmd.Env = append(os.Environ(), l.env...)
	}

	utils.PrintDebug("Executing: %s", utils.StyleCommand(strings.Join(argv, " ")))
	err = cmd.Run()

	for _, buf := range []*circbuf.Buffer{stdout, stderr} {
		if buf.TotalWritten() > buf.Size() {
			return nil, fmt.Errorf("%w: %s wrote %d bytes, limit is %d",
				ErrOutputTruncated, argv[0], buf.TotalWritten(), buf.Size())
		}
	}

	result := &Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && ctx.Err() == nil {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	return result, nil
}

// Command renders name and args as a single line, for messages.
func Command(name string, args ...string) string {
	return strings.TrimSpace(name + " " + strings.Join(args, " "))
}
