package remote

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// ErrNoFixture indicates no recorded output exists for a command.
var ErrNoFixture = errors.New("no recorded output for command")

// StaticExecutor answers commands from an in-memory table. It records every call.
type StaticExecutor struct {
	mu        sync.Mutex
	responses map[string]*Result
	failures  map[string]error
	calls     []string
}

// NewStaticExecutor creates an empty StaticExecutor.
func NewStaticExecutor() *StaticExecutor {
	return &StaticExecutor{
		responses: make(map[string]*Result),
		failures:  make(map[string]error),
	}
}

// Add registers the result for a command line such as "qconf -sql".
func (s *StaticExecutor) Add(commandLine string, result *Result) *StaticExecutor {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses[commandLine] = result
	return s
}

// AddOutput registers a successful command with the given stdout.
func (s *StaticExecutor) AddOutput(commandLine, stdout string) *StaticExecutor {
	return s.Add(commandLine, &Result{Stdout: stdout})
}

// Fail makes a command line return a transport error.
func (s *StaticExecutor) Fail(commandLine string, err error) *StaticExecutor {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[commandLine] = err
	return s
}

// Calls returns the command lines run so far, in order.
func (s *StaticExecutor) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

// Run looks up the command line.
func (s *StaticExecutor) Run(ctx context.Context, name string, args ...string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	line := Command(name, args...)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, line)
	if err, ok := s.failures[line]; ok {
		return nil, err
	}
	if res, ok := s.responses[line]; ok {
		copied := *res
		return &copied, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNoFixture, line)
}

// FixtureExecutor replays output recorded in a directory. For a command line
// "qconf -sql" it reads qconf_-sql.out (stdout), qconf_-sql.err (stderr) and
// qconf_-sql.exit (exit code); at least one of them must exist.
type FixtureExecutor struct {
	dir string
}

// NewFixtureExecutor creates a FixtureExecutor reading from dir.
func NewFixtureExecutor(dir string) (*FixtureExecutor, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}
	return &FixtureExecutor{dir: dir}, nil
}

// FixtureName returns the base file name used for a command line.
func FixtureName(name string, args ...string) string {
	line := Command(name, args...)
	return strings.NewReplacer(" ", "_", "/", "%").Replace(line)
}

// Run reads the recorded output for the command.
func (f *FixtureExecutor) Run(ctx context.Context, name string, args ...string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	base := filepath.Join(f.dir, FixtureName(name, args...))

	found := false
	result := &Result{}
	if data, err := os.ReadFile(base + ".out"); err == nil {
		result.Stdout = string(data)
		found = true
	}
	if data, err := os.ReadFile(base + ".err"); err == nil {
		result.Stderr = string(data)
		found = true
	}
	if data, err := os.ReadFile(base + ".exit"); err == nil {
		code, perr := strconv.Atoi(strings.TrimSpace(string(data)))
		if perr != nil {
			return nil, fmt.Errorf("invalid exit code in %s.exit: %w", base, perr)
		}
		result.ExitCode = code
		found = true
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrNoFixture, Command(name, args...))
	}
	return result, nil
}
