package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/Justype/gridadaptor/internal/job"
	"github.com/Justype/gridadaptor/internal/remote"
)

func newTestGridEngine(t *testing.T, exec *remote.StaticExecutor) *GridEngine {
	t.Helper()
	g, err := ConnectGridEngine(context.Background(), exec, GridEngineDialect(), ConnectOptions{})
	if err != nil {
		t.Fatalf("ConnectGridEngine failed: %v", err)
	}
	return g
}

func TestConnectGridEngine(t *testing.T) {
	g := newTestGridEngine(t, newTestExecutor())

	if g.Name() != "gridengine" {
		t.Errorf("Name = %q", g.Name())
	}
	id := g.Identity()
	if id.AdaptorName() != "gridengine" || !id.IsBatch() || id.IsInteractive() {
		t.Errorf("unexpected identity %s", id)
	}
	if qs := id.QueueNames(); len(qs) != 2 || qs[0] != "all.q" {
		t.Errorf("identity queues = %v", qs)
	}
	if got, err := g.CalculateSlots("mpi", "all.q", 2); err != nil || got != 16 {
		t.Errorf("CalculateSlots = %d, %v; want 16", got, err)
	}

	var _ Backend = g
	var _ JobManager = g
	var _ ClusterInspector = g
}

func TestBackendKeepsConnectionTopology(t *testing.T) {
	exec := newTestExecutor()
	b, err := NewBackend(context.Background(), string(BackendGridEngine), exec, ConnectOptions{})
	if err != nil {
		t.Fatalf("NewBackend failed: %v", err)
	}

	topo := b.Topology()
	if topo == nil || b.Topology() != topo {
		t.Fatal("backend does not keep its connection snapshot")
	}
	if got := topo.QueueNames(); len(got) != 2 {
		t.Errorf("QueueNames = %v", got)
	}
	listed := 0
	for _, call := range exec.Calls() {
		if call == "qconf -sql" {
			listed++
		}
	}
	if listed != 1 {
		t.Errorf("queues listed %d times; want 1", listed)
	}
}

func TestGridEngineSubmit(t *testing.T) {
	tests := []struct {
		name    string
		desc    *job.Description
		command string
		output  string
		wantID  string
	}{
		{
			name:    "plain",
			desc:    &job.Description{Executable: "/bin/hostname"},
			command: "qsub -b y /bin/hostname",
			output:  "Your job 12345 (\"hostname\") has been submitted\n",
			wantID:  "12345",
		},
		{
			name: "parallel",
			desc: &job.Description{
				Executable:          "/opt/app",
				Arguments:           []string{"-n", "3"},
				Queue:               "all.q",
				ParallelEnvironment: "mpi",
				NodeCount:           3,
				WorkingDirectory:    "/scratch",
				Stdout:              "out.txt",
				Stderr:              "err.txt",
			},
			command: "qsub -q all.q -pe mpi 24 -wd /scratch -o out.txt -e err.txt -b y /opt/app -n 3",
			output:  "Your job 77.headnode (\"app\") has been submitted",
			wantID:  "77",
		},
		{
			name:    "array",
			desc:    &job.Description{Executable: "/bin/true", ParallelEnvironment: "rr", NodeCount: 2},
			command: "qsub -pe rr 2 -b y /bin/true",
			output:  "Your job-array 9.1-4:1 (\"true\") has been submitted",
			wantID:  "9",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := newTestExecutor().AddOutput(tt.command, tt.output)
			g := newTestGridEngine(t, exec)

			j, err := g.Submit(context.Background(), tt.desc)
			if err != nil {
				t.Fatalf("Submit failed: %v (calls %v)", err, exec.Calls())
			}
			if j.Identifier() != tt.wantID {
				t.Errorf("Identifier = %q; want %q", j.Identifier(), tt.wantID)
			}
			if j.Scheduler() != g.Identity() || j.Description().String() != tt.desc.String() {
				t.Error("job does not reference its scheduler and description")
			}
		})
	}
}

func TestGridEngineSubmitFreshUUIDs(t *testing.T) {
	exec := newTestExecutor().AddOutput("qsub -b y /bin/date", "Your job 1 (\"date\") has been submitted")
	g := newTestGridEngine(t, exec)
	desc := &job.Description{Executable: "/bin/date"}

	j1, err := g.Submit(context.Background(), desc)
	if err != nil {
		t.Fatal(err)
	}
	j2, err := g.Submit(context.Background(), desc)
	if err != nil {
		t.Fatal(err)
	}
	if j1.Equal(j2) {
		t.Error("two submissions share an identity")
	}
}

func TestGridEngineSubmitErrors(t *testing.T) {
	exec := newTestExecutor().
		Add("qsub -b y /bin/fail", &remote.Result{Stderr: "Unable to run job: denied", ExitCode: 1}).
		AddOutput("qsub -b y /bin/odd", "something unexpected")
	g := newTestGridEngine(t, exec)

	tests := []struct {
		name  string
		desc  *job.Description
		check func(error) bool
	}{
		{name: "no description", desc: nil, check: job.IsInvalidArgumentError},
		{name: "no executable", desc: &job.Description{}, check: job.IsInvalidArgumentError},
		{name: "unknown queue", desc: &job.Description{Executable: "x", Queue: "nope"}, check: IsResourceNotFoundError},
		{name: "pe slots multi node", desc: &job.Description{Executable: "x", ParallelEnvironment: "smp", NodeCount: 2}, check: IsUnsupportedAllocationError},
		{name: "nodes without pe", desc: &job.Description{Executable: "x", NodeCount: 4}, check: IsSubmissionError},
		{name: "interactive", desc: &job.Description{Executable: "x", Interactive: true}, check: IsSubmissionError},
		{name: "rejected", desc: &job.Description{Executable: "/bin/fail"}, check: IsRemoteOperationError},
		{name: "no job id", desc: &job.Description{Executable: "/bin/odd"}, check: func(err error) bool {
			return IsSubmissionError(err) && errors.Is(err, ErrJobIDParseFailed)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			j, err := g.Submit(context.Background(), tt.desc)
			if j != nil || !tt.check(err) {
				t.Errorf("unexpected result %v, %v", j, err)
			}
		})
	}
}

func TestGridEngineCancel(t *testing.T) {
	exec := newTestExecutor().
		AddOutput("qdel 12", "alice has registered the job 12 for deletion\n").
		AddOutput("qdel 13", "alice has deleted job 13\n").
		Add("qdel 14", &remote.Result{Stderr: "denied: job \"14\" does not exist", ExitCode: 1}).
		AddOutput("qdel 15", "nothing to say")
	g := newTestGridEngine(t, exec)
	ctx := context.Background()

	if err := g.Cancel(ctx, "12"); err != nil {
		t.Errorf("Cancel(12) failed: %v", err)
	}
	if err := g.Cancel(ctx, "13"); err != nil {
		t.Errorf("Cancel(13) failed: %v", err)
	}
	if err := g.Cancel(ctx, "14"); !IsRemoteOperationError(err) {
		t.Errorf("Cancel(14) = %v; want RemoteOperationError", err)
	}
	if err := g.Cancel(ctx, "15"); !errors.Is(err, ErrCancelFailed) {
		t.Errorf("Cancel(15) = %v; want ErrCancelFailed", err)
	}
	if err := g.Cancel(ctx, " "); !job.IsInvalidArgumentError(err) {
		t.Errorf("Cancel(\" \") = %v; want InvalidArgumentError", err)
	}
}

func TestGridEngineHosts(t *testing.T) {
	output := `HOSTNAME                ARCH         NCPU  LOAD  MEMTOT  MEMUSE  SWAPTO  SWAPUS
-------------------------------------------------------------------------------
global                  -               -     -       -       -       -       -
node2                   lx-amd64       16  0.50   62.9G    4.1G    2.0G     0.0
node1                   lx-amd64        8     -       -       -       -       -
`
	g := newTestGridEngine(t, newTestExecutor().AddOutput("qhost", output))

	hosts, err := g.Hosts(context.Background())
	if err != nil {
		t.Fatalf("Hosts failed: %v", err)
	}
	if len(hosts) != 2 {
		t.Fatalf("got %d hosts; want 2 (global dropped)", len(hosts))
	}
	if hosts[0].Name != "node1" || hosts[1].Name != "node2" {
		t.Errorf("hosts not sorted: %v", hosts)
	}
	if hosts[1].CPUs != 16 || hosts[1].MemTotal != "62.9G" || hosts[1].Load != "0.50" {
		t.Errorf("unexpected node2 %+v", hosts[1])
	}
	if hosts[0].Load != "" || hosts[0].Fields["LOAD"] != "-" {
		t.Errorf("unexpected node1 %+v", hosts[0])
	}
}

func TestGridEngineClusterConfig(t *testing.T) {
	output := `#global:
execd_spool_dir              /opt/sge/default/spool
mailer                       /bin/mail
load_report_time             00:00:40
execd_params                 ENABLE_ADDGRP_KILL=TRUE, \
                             KEEP_ACTIVE=FALSE
`
	g := newTestGridEngine(t, newTestExecutor().AddOutput("qconf -sconf", output))

	conf, err := g.ClusterConfig(context.Background())
	if err != nil {
		t.Fatalf("ClusterConfig failed: %v", err)
	}
	if conf["mailer"] != "/bin/mail" || conf["load_report_time"] != "00:00:40" {
		t.Errorf("unexpected config %v", conf)
	}
	if conf["execd_params"] != "ENABLE_ADDGRP_KILL=TRUE, KEEP_ACTIVE=FALSE" {
		t.Errorf("execd_params = %q", conf["execd_params"])
	}
	if _, ok := conf["#global:"]; ok {
		t.Error("comment line parsed as a key")
	}
}

func TestGridEngineVersion(t *testing.T) {
	tests := []struct {
		banner    string
		want      string
		supported bool
	}{
		{banner: "SGE 8.1.9\nusage: qstat [options]", want: "v8.1.9", supported: true},
		{banner: "GE 6.2u5", want: "v6.2.0", supported: true},
		{banner: "GE 6.1u4", want: "v6.1.0", supported: false},
		{banner: "OGS/GE 2011.11p1", want: "v2011.11.0", supported: true},
		{banner: "usage: qstat", want: "", supported: false},
	}

	for _, tt := range tests {
		t.Run(tt.banner, func(t *testing.T) {
			exec := newTestExecutor().Add("qstat -help", &remote.Result{Stdout: tt.banner, ExitCode: 1})
			g := newTestGridEngine(t, exec)

			info, err := g.Info(context.Background())
			if err != nil {
				t.Fatalf("Info failed: %v", err)
			}
			if info.Version != tt.want || info.Supported != tt.supported {
				t.Errorf("Info = %+v; want version %q supported %t", info, tt.want, tt.supported)
			}
			if info.Queues != 2 || info.PEs != 7 {
				t.Errorf("Info counts = %d/%d", info.Queues, info.PEs)
			}
		})
	}
}
