// Package scheduler provides a unified interface for batch scheduler backends
package scheduler

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/Justype/gridadaptor/internal/job"
	"github.com/Justype/gridadaptor/internal/parser"
	"github.com/Justype/gridadaptor/internal/remote"
)

// BackendType represents the type of scheduler backend
type BackendType string

const (
	BackendUnknown    BackendType = ""
	BackendGridEngine BackendType = "gridengine"
)

// SupportedBackends lists the backend names accepted by NewBackend.
func SupportedBackends() []string {
	return []string{string(BackendGridEngine)}
}

// Info holds information about a connected scheduler
type Info struct {
	Type       string `yaml:"type" json:"type"`                         // Backend type (e.g., "gridengine")
	Version    string `yaml:"version,omitempty" json:"version,omitempty"` // Canonical scheduler version, empty if unknown
	RawVersion string `yaml:"raw_version" json:"raw_version"`           // Version line as printed by the scheduler
	Supported  bool   `yaml:"supported" json:"supported"`               // Whether Version meets the dialect's MinVersion
	Queues     int    `yaml:"queues" json:"queues"`                     // Number of queues in the topology
	PEs        int    `yaml:"pes" json:"pes"`                           // Number of parallel environments in the topology
}

// Backend is implemented once per scheduler family. Families differ only in
// their Dialect; the parsing and allocation logic is shared.
type Backend interface {
	// Name returns the backend name used in errors and configuration
	Name() string

	// Dialect returns the command templates and field names of the backend
	Dialect() Dialect

	// Topology returns the snapshot taken when the backend was connected
	Topology() *Topology

	// BuildTopology queries the scheduler for a fresh topology snapshot
	BuildTopology(ctx context.Context) (*Topology, error)

	// CalculateSlots computes the slots to request for nodes nodes, using the
	// snapshot taken when the backend was connected
	CalculateSlots(pe, queue string, nodes int) (int, error)
}

// JobManager is implemented by backends that can submit and delete jobs
type JobManager interface {
	Submit(ctx context.Context, desc *job.Description) (*job.Job, error)
	Cancel(ctx context.Context, jobID string) error
}

// ClusterInspector is implemented by backends that can describe hosts and configuration
type ClusterInspector interface {
	Hosts(ctx context.Context) ([]HostInfo, error)
	ClusterConfig(ctx context.Context) (parser.Record, error)
	Info(ctx context.Context) (*Info, error)
}

// ConnectOptions describe a scheduler connection
type ConnectOptions struct {
	Location   *url.URL          // Where the scheduler lives, e.g. ssh://headnode
	Credential any               // Opaque credential handed to the identity model
	Properties map[string]string // Adaptor properties
	Overrides  map[string]string // Dialect template overrides
}

// NewBackend connects to a backend by type name.
func NewBackend(ctx context.Context, backendType string, exec remote.Executor, opts ConnectOptions) (Backend, error) {
	switch BackendType(strings.ToLower(backendType)) {
	case BackendGridEngine, "sge", "ge":
		dialect, err := GridEngineDialect().WithOverrides(opts.Overrides)
		if err != nil {
			return nil, err
		}
		return ConnectGridEngine(ctx, exec, dialect, opts)
	default:
		return nil, fmt.Errorf("%w: %q (supported: %s)", ErrUnknownBackend, backendType,
			strings.Join(SupportedBackends(), ", "))
	}
}

// Init connects to a backend and makes it the active one.
func Init(ctx context.Context, backendType string, exec remote.Executor, opts ConnectOptions) (Backend, error) {
	backend, err := NewBackend(ctx, backendType, exec, opts)
	if err != nil {
		ClearActiveBackend()
		return nil, err
	}
	SetActiveBackend(backend)
	return backend, nil
}
