package scheduler

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/Justype/gridadaptor/internal/parser"
	"github.com/Justype/gridadaptor/internal/remote"
	"github.com/Justype/gridadaptor/internal/utils"
)

// Allocation rules understood by CalculateSlots besides plain integers.
const (
	RulePeSlots    = "$pe_slots"
	RuleFillUp     = "$fill_up"
	RuleRoundRobin = "$round_robin"
)

// QueueInfo describes one queue as reported by the scheduler.
type QueueInfo struct {
	name       string
	slots      int
	properties parser.Record
}

func (q QueueInfo) Name() string { return q.name }

// Slots is the number of execution slots each node of the queue offers.
func (q QueueInfo) Slots() int { return q.slots }

// Properties returns a copy of every field reported for the queue.
func (q QueueInfo) Properties() map[string]string { return copyRecord(q.properties) }

// ParallelEnvironmentInfo describes one parallel environment.
type ParallelEnvironmentInfo struct {
	name       string
	rule       string
	ruleSet    bool
	properties parser.Record
}

func (p ParallelEnvironmentInfo) Name() string { return p.name }

// AllocationRule returns the raw allocation rule and whether the scheduler reported one.
func (p ParallelEnvironmentInfo) AllocationRule() (string, bool) { return p.rule, p.ruleSet }

// Properties returns a copy of every field reported for the environment.
func (p ParallelEnvironmentInfo) Properties() map[string]string { return copyRecord(p.properties) }

// Topology is an immutable snapshot of the queues and parallel environments of one scheduler.
// All methods are safe for concurrent use.
type Topology struct {
	queueNames   []string
	queues       map[string]QueueInfo
	environments map[string]ParallelEnvironmentInfo
}

// NewTopology assembles a snapshot from already parsed records. queueNames keeps
// the scheduler's order; queue records must carry a parseable slots field.
func NewTopology(dialect Dialect, queueNames []string, queues, environments parser.Table) (*Topology, error) {
	t := &Topology{
		queueNames:   append([]string(nil), queueNames...),
		queues:       make(map[string]QueueInfo, len(queues)),
		environments: make(map[string]ParallelEnvironmentInfo, len(environments)),
	}

	for name, rec := range queues {
		slots, err := parseSlots(rec[dialect.SlotsField])
		if err != nil {
			err.Adaptor = dialect.Name
			err.Line = dialect.QueueKey + " " + name
			return nil, err
		}
		t.queues[name] = QueueInfo{name: name, slots: slots, properties: copyRecord(rec)}
	}
	for name, rec := range environments {
		rule, ok := rec[dialect.AllocationRuleField]
		t.environments[name] = ParallelEnvironmentInfo{
			name:       name,
			rule:       rule,
			ruleSet:    ok && rule != "",
			properties: copyRecord(rec),
		}
	}
	return t, nil
}

// parseSlots reads a slots value. Per-host overrides ("1,[node1=4]") fall back to the leading default.
func parseSlots(value string) (int, *parser.ParseError) {
	def := strings.TrimSpace(value)
	if i := strings.IndexByte(def, ','); i >= 0 {
		def = def[:i]
	}
	if def == "" {
		return 0, &parser.ParseError{Expected: "slots field", Reason: "queue has no slots value"}
	}
	n, err := strconv.Atoi(def)
	if err != nil || n < 0 {
		return 0, &parser.ParseError{Token: value, Expected: "non-negative slot count", Reason: "invalid slots value"}
	}
	return n, nil
}

// BuildTopology queries the scheduler and returns a snapshot. Nothing is returned
// unless every command succeeded and parsed.
func BuildTopology(ctx context.Context, exec remote.Executor, dialect Dialect) (*Topology, error) {
	opts := parser.Options{Adaptor: dialect.Name}

	out, err := run(ctx, exec, dialect, dialect.ListQueues, nil)
	if err != nil {
		return nil, err
	}
	queueNames := parser.ParseList(out)
	utils.PrintDebug("Found %d queues: %s", len(queueNames), strings.Join(queueNames, ", "))

	queues := parser.Table{}
	if len(queueNames) > 0 {
		out, err = run(ctx, exec, dialect, dialect.DescribeQueues,
			map[string]string{placeholderQueues: strings.Join(queueNames, ",")})
		if err != nil {
			return nil, err
		}
		queues, err = parser.ParseKeyValueRecordsWithOptions(dialect.joinLines(out), dialect.QueueKey, parser.Whitespace, opts)
		if err != nil {
			return nil, err
		}
		for _, name := range queueNames {
			if _, ok := queues[name]; !ok {
				utils.PrintWarning("Queue %s was listed but not described", utils.StyleName(name))
			}
		}
	}

	envNames, err := listEnvironments(ctx, exec, dialect)
	if err != nil {
		return nil, err
	}
	utils.PrintDebug("Found %d parallel environments: %s", len(envNames), strings.Join(envNames, ", "))

	environments := parser.Table{}
	if len(envNames) > 0 {
		name, args, err := expandEach(dialect.DescribeEnvironment, placeholderEnvironment, envNames)
		if err != nil {
			return nil, err
		}
		out, err = runCommand(ctx, exec, dialect, name, args)
		if err != nil {
			return nil, err
		}
		environments, err = parser.ParseKeyValueRecordsWithOptions(dialect.joinLines(out), dialect.EnvironmentKey, parser.Whitespace, opts)
		if err != nil {
			return nil, err
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return NewTopology(dialect, queueNames, queues, environments)
}

// listEnvironments tolerates the "none defined" failure of the listing command.
func listEnvironments(ctx context.Context, exec remote.Executor, dialect Dialect) ([]string, error) {
	name, args, err := expand(dialect.ListEnvironments, nil)
	if err != nil {
		return nil, err
	}
	res, err := exec.Run(ctx, name, args...)
	if err != nil {
		return nil, transportError(ctx, dialect, remote.Command(name, args...), err)
	}
	if !res.Success() {
		if res.ExitCode == dialect.NoEnvironmentsExitCode && strings.Contains(res.Stderr, dialect.NoEnvironmentsMarker) {
			return nil, nil
		}
		return nil, NewRemoteOperationError(dialect.Name, remote.Command(name, args...), res, nil)
	}
	return parser.ParseList(res.Stdout), nil
}

// run expands a template, runs it and returns stdout of a successful command.
func run(ctx context.Context, exec remote.Executor, dialect Dialect, tmpl string, vars map[string]string) (string, error) {
	name, args, err := expand(tmpl, vars)
	if err != nil {
		return "", err
	}
	return runCommand(ctx, exec, dialect, name, args)
}

func runCommand(ctx context.Context, exec remote.Executor, dialect Dialect, name string, args []string) (string, error) {
	res, err := exec.Run(ctx, name, args...)
	if err != nil {
		return "", transportError(ctx, dialect, remote.Command(name, args...), err)
	}
	if !res.Success() {
		return "", NewRemoteOperationError(dialect.Name, remote.Command(name, args...), res, nil)
	}
	return res.Stdout, nil
}

// transportError passes context cancellation through unchanged.
func transportError(ctx context.Context, dialect Dialect, command string, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return NewRemoteOperationError(dialect.Name, command, nil, err)
}

// QueueNames returns the queue names in the order the scheduler listed them.
func (t *Topology) QueueNames() []string {
	return append([]string(nil), t.queueNames...)
}

// Queue looks up a queue by name.
func (t *Topology) Queue(name string) (QueueInfo, bool) {
	q, ok := t.queues[name]
	return q, ok
}

// ParallelEnvironment looks up a parallel environment by name.
func (t *Topology) ParallelEnvironment(name string) (ParallelEnvironmentInfo, bool) {
	p, ok := t.environments[name]
	return p, ok
}

// ParallelEnvironmentNames returns the environment names, sorted.
func (t *Topology) ParallelEnvironmentNames() []string {
	names := make([]string, 0, len(t.environments))
	for name := range t.environments {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CalculateSlots returns the number of slots to request so that a job in
// parallel environment pe on queue gets nodes nodes.
func (t *Topology) CalculateSlots(pe, queue string, nodes int) (int, error) {
	env, ok := t.environments[pe]
	if !ok {
		return 0, NewResourceNotFoundError(KindParallelEnvironment, pe)
	}
	q, ok := t.queues[queue]
	if !ok {
		return 0, NewResourceNotFoundError(KindQueue, queue)
	}
	rule, ok := env.AllocationRule()
	if !ok {
		return 0, NewResourceNotFoundError(KindAllocationRule, pe)
	}
	if nodes < 1 {
		return 0, NewUnsupportedAllocationError(pe, rule, nodes, "node count must be at least 1")
	}

	switch rule {
	case RulePeSlots:
		if nodes > 1 {
			return 0, NewUnsupportedAllocationError(pe, rule, nodes, "rule places all slots on a single node")
		}
		return 1, nil
	case RuleFillUp:
		return multiplySlots(pe, rule, nodes, q.Slots())
	case RuleRoundRobin:
		return nodes, nil
	}

	perHost, err := strconv.Atoi(rule)
	if err != nil || perHost < 1 {
		return 0, NewMalformedRuleError(pe, rule)
	}
	return multiplySlots(pe, rule, nodes, perHost)
}

// multiplySlots returns nodes*perNode, failing instead of wrapping around.
func multiplySlots(pe, rule string, nodes, perNode int) (int, error) {
	if perNode > 0 && nodes > math.MaxInt/perNode {
		return 0, NewUnsupportedAllocationError(pe, rule, nodes,
			fmt.Sprintf("%d nodes of %d slots exceed the largest slot count", nodes, perNode))
	}
	return nodes * perNode, nil
}

func copyRecord(rec parser.Record) map[string]string {
	c := make(map[string]string, len(rec))
	for k, v := range rec {
		c[k] = v
	}
	return c
}
