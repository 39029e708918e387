package scheduler

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/Justype/gridadaptor/internal/job"
	"github.com/Justype/gridadaptor/internal/parser"
	"github.com/Justype/gridadaptor/internal/remote"
	"github.com/Justype/gridadaptor/internal/utils"
	"github.com/google/uuid"
	"golang.org/x/mod/semver"
)

var versionRe = regexp.MustCompile(`(\d+)(\.\d+)?(\.\d+)?`)

// HostInfo describes one execution host as reported by qhost.
type HostInfo struct {
	Name     string            `yaml:"name" json:"name"`
	Arch     string            `yaml:"arch,omitempty" json:"arch,omitempty"`
	CPUs     int               `yaml:"cpus" json:"cpus"`
	Load     string            `yaml:"load,omitempty" json:"load,omitempty"`
	MemTotal string            `yaml:"mem_total,omitempty" json:"mem_total,omitempty"`
	MemUsed  string            `yaml:"mem_used,omitempty" json:"mem_used,omitempty"`
	Fields   map[string]string `yaml:"fields" json:"fields"`
}

// GridEngine implements Backend for the Grid Engine family (SGE, SoGE, OGS, UGE).
type GridEngine struct {
	exec     remote.Executor
	dialect  Dialect
	topology *Topology
	identity *job.Scheduler
}

// ConnectGridEngine builds the topology snapshot and the scheduler identity for one connection.
func ConnectGridEngine(ctx context.Context, exec remote.Executor, dialect Dialect, opts ConnectOptions) (*GridEngine, error) {
	if exec == nil {
		return nil, job.NewInvalidArgumentError("executor", "executor may not be nil")
	}
	topology, err := BuildTopology(ctx, exec, dialect)
	if err != nil {
		return nil, err
	}
	identity, err := job.NewScheduler(dialect.Name, uuid.NewString(), opts.Location, topology.QueueNames(),
		opts.Credential, opts.Properties, true, false, false)
	if err != nil {
		return nil, err
	}
	utils.PrintDebug("Connected to %s with %d queues and %d parallel environments",
		dialect.Name, len(topology.queueNames), len(topology.environments))

	return &GridEngine{
		exec:     exec,
		dialect:  dialect,
		topology: topology,
		identity: identity,
	}, nil
}

func (g *GridEngine) Name() string     { return g.dialect.Name }
func (g *GridEngine) Dialect() Dialect { return g.dialect }

// Topology returns the snapshot taken when the connection was made.
func (g *GridEngine) Topology() *Topology { return g.topology }

// Identity returns the scheduler descriptor attached to submitted jobs.
func (g *GridEngine) Identity() *job.Scheduler { return g.identity }

// BuildTopology queries a fresh snapshot. The connection keeps its own.
func (g *GridEngine) BuildTopology(ctx context.Context) (*Topology, error) {
	return BuildTopology(ctx, g.exec, g.dialect)
}

// CalculateSlots uses the connection snapshot.
func (g *GridEngine) CalculateSlots(pe, queue string, nodes int) (int, error) {
	return g.topology.CalculateSlots(pe, queue, nodes)
}

// Submit submits desc as a binary job and returns its identity.
func (g *GridEngine) Submit(ctx context.Context, desc *job.Description) (*job.Job, error) {
	if desc == nil || desc.Executable == "" {
		return nil, job.NewInvalidArgumentError("description", "an executable is required")
	}
	args, err := g.submitArgs(desc)
	if err != nil {
		return nil, NewSubmissionError(g.Name(), desc.Executable, "", err)
	}

	name, base, err := expand(g.dialect.Submit, nil)
	if err != nil {
		return nil, NewSubmissionError(g.Name(), desc.Executable, "", err)
	}
	args = append(base, args...)
	command := remote.Command(name, args...)

	res, err := g.exec.Run(ctx, name, args...)
	if err != nil {
		return nil, NewSubmissionError(g.Name(), desc.Executable, "", transportError(ctx, g.dialect, command, err))
	}
	if !res.Success() {
		return nil, NewSubmissionError(g.Name(), desc.Executable, "",
			NewRemoteOperationError(g.Name(), command, res, nil))
	}

	id, err := g.parseJobID(res.Stdout)
	if err != nil {
		return nil, NewSubmissionError(g.Name(), desc.Executable, res.Stdout, err)
	}
	utils.PrintDebug("Submitted %s as job %s", desc.Executable, utils.StyleNumber(id))

	return job.NewJob(desc, g.identity, uuid.New(), id, false, false)
}

func (g *GridEngine) submitArgs(desc *job.Description) ([]string, error) {
	if desc.Interactive {
		return nil, errors.New("interactive jobs are not supported")
	}
	var args []string

	queue := desc.Queue
	if queue != "" {
		if _, ok := g.topology.Queue(queue); !ok {
			return nil, NewResourceNotFoundError(KindQueue, queue)
		}
		args = append(args, "-q", queue)
	}

	nodes := desc.NodeCount
	if nodes == 0 {
		nodes = 1
	}
	if desc.ParallelEnvironment != "" {
		if queue == "" {
			names := g.topology.QueueNames()
			if len(names) == 0 {
				return nil, errors.New("no queue available to size the parallel environment")
			}
			queue = names[0]
			utils.PrintDebug("No queue given, sizing %s against %s", desc.ParallelEnvironment, queue)
		}
		slots, err := g.topology.CalculateSlots(desc.ParallelEnvironment, queue, nodes)
		if err != nil {
			return nil, err
		}
		args = append(args, "-pe", desc.ParallelEnvironment, strconv.Itoa(slots))
	} else if nodes != 1 {
		return nil, fmt.Errorf("%d nodes requested without a parallel environment", nodes)
	}

	if desc.WorkingDirectory != "" {
		args = append(args, "-wd", desc.WorkingDirectory)
	}
	if desc.Stdout != "" {
		args = append(args, "-o", desc.Stdout)
	}
	if desc.Stderr != "" {
		args = append(args, "-e", desc.Stderr)
	}
	args = append(args, "-b", "y", desc.Executable)
	return append(args, desc.Arguments...), nil
}

// parseJobID returns the id from the first line announcing the job.
func (g *GridEngine) parseJobID(output string) (string, error) {
	var lastErr error = ErrJobIDParseFailed
	for _, line := range parser.Newline.Split(output, -1) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		id, err := parser.ParseJobIDFromLine(line, g.dialect.JobIDPrefixes...)
		if err == nil {
			return strconv.FormatInt(id, 10), nil
		}
		lastErr = err
	}
	return "", fmt.Errorf("%w: %v", ErrJobIDParseFailed, lastErr)
}

// Cancel deletes a job. The scheduler must confirm the deletion.
func (g *GridEngine) Cancel(ctx context.Context, jobID string) error {
	if strings.TrimSpace(jobID) == "" {
		return job.NewInvalidArgumentError("jobID", "job id may not be empty")
	}
	name, args, err := expand(g.dialect.Cancel, map[string]string{placeholderJob: jobID})
	if err != nil {
		return err
	}
	command := remote.Command(name, args...)

	res, err := g.exec.Run(ctx, name, args...)
	if err != nil {
		return transportError(ctx, g.dialect, command, err)
	}
	if _, err := parser.CheckIfContains(res.Stdout+"\n"+res.Stderr, g.dialect.CancelMarkers...); err != nil {
		if !res.Success() {
			return NewRemoteOperationError(g.Name(), command, res, nil)
		}
		return fmt.Errorf("%w %s: %v", ErrCancelFailed, jobID, err)
	}
	utils.PrintDebug("Cancelled job %s", utils.StyleNumber(jobID))
	return nil
}

// Hosts lists the execution hosts, sorted by name. The pseudo host "global" is dropped.
func (g *GridEngine) Hosts(ctx context.Context) ([]HostInfo, error) {
	out, err := run(ctx, g.exec, g.dialect, g.dialect.ListHosts, nil)
	if err != nil {
		return nil, err
	}
	table, err := parser.ParseTableWithOptions(out, g.dialect.HostKey, parser.Whitespace,
		parser.Options{Adaptor: g.Name()})
	if err != nil {
		return nil, err
	}
	delete(table, g.dialect.GlobalHost)

	hosts := make([]HostInfo, 0, len(table))
	for name, rec := range table {
		cpus, _ := strconv.Atoi(rec["NCPU"])
		hosts = append(hosts, HostInfo{
			Name:     name,
			Arch:     dash(rec["ARCH"]),
			CPUs:     cpus,
			Load:     dash(firstNonEmpty(rec["LOAD"], rec["NLOAD"])),
			MemTotal: dash(rec["MEMTOT"]),
			MemUsed:  dash(rec["MEMUSE"]),
			Fields:   copyRecord(rec),
		})
	}
	sort.Slice(hosts, func(i, j int) bool { return hosts[i].Name < hosts[j].Name })
	return hosts, nil
}

// dash maps the "-" placeholder printed for unknown values to empty.
func dash(v string) string {
	if v == "-" {
		return ""
	}
	return v
}

// ClusterConfig returns the global cluster configuration.
func (g *GridEngine) ClusterConfig(ctx context.Context) (parser.Record, error) {
	out, err := run(ctx, g.exec, g.dialect, g.dialect.ShowConfig, nil)
	if err != nil {
		return nil, err
	}
	rec, err := parser.ParseKeyValueLines(g.dialect.joinLines(out), parser.Whitespace, g.dialect.ConfigComment)
	if err != nil {
		var pe *parser.ParseError
		if errors.As(err, &pe) {
			return nil, pe.WithAdaptor(g.Name())
		}
		return nil, err
	}
	return rec, nil
}

// Version returns the canonical scheduler version (e.g. "v8.1.9") and the raw
// line it was read from. The canonical version is empty when the line carries none.
func (g *GridEngine) Version(ctx context.Context) (string, string, error) {
	name, args, err := expand(g.dialect.Version, nil)
	if err != nil {
		return "", "", err
	}
	// qstat -help exits non-zero on some releases; only the banner matters.
	res, err := g.exec.Run(ctx, name, args...)
	if err != nil {
		return "", "", transportError(ctx, g.dialect, remote.Command(name, args...), err)
	}
	raw := firstLine(res.Stdout)
	if raw == "" {
		raw = firstLine(res.Stderr)
	}
	return canonicalVersion(raw), raw, nil
}

func firstLine(s string) string {
	for _, line := range parser.Newline.Split(s, -1) {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}

// canonicalVersion extracts the first dotted number from a banner such as "SGE 8.1.9".
func canonicalVersion(banner string) string {
	m := versionRe.FindString(banner)
	if m == "" {
		return ""
	}
	return semver.Canonical("v" + m)
}

// Info reports the scheduler version and topology size.
func (g *GridEngine) Info(ctx context.Context) (*Info, error) {
	version, raw, err := g.Version(ctx)
	if err != nil {
		return nil, err
	}
	info := &Info{
		Type:       g.Name(),
		Version:    version,
		RawVersion: raw,
		Queues:     len(g.topology.queueNames),
		PEs:        len(g.topology.environments),
	}
	if version != "" {
		minVersion := semver.Canonical(g.dialect.MinVersion)
		info.Supported = minVersion == "" || semver.Compare(version, minVersion) >= 0
	}
	if !info.Supported {
		utils.PrintWarning("Scheduler version %q is older than %s or unknown; output formats may differ",
			raw, g.dialect.MinVersion)
	}
	return info, nil
}
