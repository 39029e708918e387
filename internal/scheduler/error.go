package scheduler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Justype/gridadaptor/internal/remote"
)

// Common errors
var (
	// ErrNoActiveBackend indicates no backend has been configured
	ErrNoActiveBackend = errors.New("no scheduler backend configured")

	// ErrUnknownBackend indicates the configured backend name is not supported
	ErrUnknownBackend = errors.New("unknown scheduler backend")

	// ErrJobIDParseFailed indicates parsing job ID from output failed
	ErrJobIDParseFailed = errors.New("failed to parse job ID from scheduler output")

	// ErrCancelFailed indicates the scheduler did not confirm a cancellation
	ErrCancelFailed = errors.New("scheduler did not confirm job deletion")

	// ErrInvalidTemplate indicates a dialect command template could not be used
	ErrInvalidTemplate = errors.New("invalid command template")
)

// RemoteOperationError represents an administration command that could not be run
// or that exited unsuccessfully.
type RemoteOperationError struct {
	Scheduler string         // Scheduler name
	Command   string         // Command line that failed
	Result    *remote.Result // Captured output, nil on transport failure
	Err       error          // Underlying error
}

func (e *RemoteOperationError) Error() string {
	if e.Result != nil {
		return fmt.Sprintf("%s command %q failed with exit code %d: %s",
			e.Scheduler, e.Command, e.Result.ExitCode, firstNonEmpty(e.Result.Stderr, e.Result.Stdout))
	}
	return fmt.Sprintf("%s command %q failed: %v", e.Scheduler, e.Command, e.Err)
}

func (e *RemoteOperationError) Unwrap() error {
	return e.Err
}

// ResourceKind names what a ResourceNotFoundError refers to.
type ResourceKind string

const (
	KindQueue               ResourceKind = "queue"
	KindParallelEnvironment ResourceKind = "parallel environment"
	KindAllocationRule      ResourceKind = "allocation rule"
)

// ResourceNotFoundError represents a queue or parallel environment missing from the topology
type ResourceNotFoundError struct {
	Kind ResourceKind // What was looked up
	Name string       // Name that was looked up
}

func (e *ResourceNotFoundError) Error() string {
	if e.Kind == KindAllocationRule {
		return fmt.Sprintf("parallel environment %s has no allocation rule", e.Name)
	}
	return fmt.Sprintf("%s %s not found", e.Kind, e.Name)
}

// UnsupportedAllocationError represents a node count the allocation rule cannot serve
type UnsupportedAllocationError struct {
	Environment string // Parallel environment
	Rule        string // Allocation rule
	Nodes       int    // Requested node count
	Reason      string // Why the request is unsupported
}

func (e *UnsupportedAllocationError) Error() string {
	return fmt.Sprintf("cannot allocate %d nodes in parallel environment %s (rule %s): %s",
		e.Nodes, e.Environment, e.Rule, e.Reason)
}

// MalformedRuleError represents an allocation rule that is neither a known keyword nor a positive integer
type MalformedRuleError struct {
	Environment string // Parallel environment
	Rule        string // Raw allocation rule
}

func (e *MalformedRuleError) Error() string {
	return fmt.Sprintf("malformed allocation rule %q in parallel environment %s", e.Rule, e.Environment)
}

// SubmissionError reports a qsub run that did not yield a job id. Output holds
// what the scheduler printed, if the command ran at all.
type SubmissionError struct {
	Scheduler  string
	Executable string
	Output     string
	Err        error
}

func (e *SubmissionError) Error() string {
	msg := fmt.Sprintf("%s: submitting %s: %v", e.Scheduler, e.Executable, e.Err)
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += ": " + out
	}
	return msg
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// Helper functions for creating errors

// NewRemoteOperationError creates a new RemoteOperationError
func NewRemoteOperationError(scheduler, command string, result *remote.Result, err error) *RemoteOperationError {
	return &RemoteOperationError{
		Scheduler: scheduler,
		Command:   command,
		Result:    result,
		Err:       err,
	}
}

// NewResourceNotFoundError creates a new ResourceNotFoundError
func NewResourceNotFoundError(kind ResourceKind, name string) *ResourceNotFoundError {
	return &ResourceNotFoundError{Kind: kind, Name: name}
}

// NewUnsupportedAllocationError creates a new UnsupportedAllocationError
func NewUnsupportedAllocationError(environment, rule string, nodes int, reason string) *UnsupportedAllocationError {
	return &UnsupportedAllocationError{
		Environment: environment,
		Rule:        rule,
		Nodes:       nodes,
		Reason:      reason,
	}
}

// NewMalformedRuleError creates a new MalformedRuleError
func NewMalformedRuleError(environment, rule string) *MalformedRuleError {
	return &MalformedRuleError{Environment: environment, Rule: rule}
}

// NewSubmissionError creates a SubmissionError for executable.
func NewSubmissionError(scheduler, executable, output string, err error) *SubmissionError {
	return &SubmissionError{Scheduler: scheduler, Executable: executable, Output: output, Err: err}
}

// IsRemoteOperationError checks if an error is a RemoteOperationError
func IsRemoteOperationError(err error) bool {
	var re *RemoteOperationError
	return errors.As(err, &re)
}

// IsResourceNotFoundError checks if an error is a ResourceNotFoundError
func IsResourceNotFoundError(err error) bool {
	var rn *ResourceNotFoundError
	return errors.As(err, &rn)
}

// IsUnsupportedAllocationError checks if an error is an UnsupportedAllocationError
func IsUnsupportedAllocationError(err error) bool {
	var ue *UnsupportedAllocationError
	return errors.As(err, &ue)
}

// IsMalformedRuleError checks if an error is a MalformedRuleError
func IsMalformedRuleError(err error) bool {
	var me *MalformedRuleError
	return errors.As(err, &me)
}

// IsSubmissionError checks if an error is a SubmissionError
func IsSubmissionError(err error) bool {
	var se *SubmissionError
	return errors.As(err, &se)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
