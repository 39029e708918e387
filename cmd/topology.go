package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/Justype/gridadaptor/internal/scheduler"
	"github.com/spf13/cobra"
)

var topologyCmd = &cobra.Command{
	Use:     "topology",
	Aliases: []string{"topo"},
	Short:   "Show queues and parallel environments",
	Long: `Query the scheduler for its queues and parallel environments and print the snapshot.

Queues are listed in the order the scheduler reports them. Parallel environments
are listed by name together with their allocation rule.`,
	Example: `  gridadaptor topology                    # Query the configured scheduler
  gridadaptor topology -o yaml            # Machine readable output
  gridadaptor topology --prefix 'ssh hn'  # Run qconf on the head node`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runTopology,
}

func init() {
	rootCmd.AddCommand(topologyCmd)
}

type queueView struct {
	Name   string `yaml:"name" json:"name"`
	Slots  int    `yaml:"slots" json:"slots"`
	PEList string `yaml:"pe_list,omitempty" json:"pe_list,omitempty"`
}

type environmentView struct {
	Name           string `yaml:"name" json:"name"`
	AllocationRule string `yaml:"allocation_rule,omitempty" json:"allocation_rule,omitempty"`
	Slots          string `yaml:"slots,omitempty" json:"slots,omitempty"`
}

type topologyView struct {
	Queues               []queueView       `yaml:"queues" json:"queues"`
	ParallelEnvironments []environmentView `yaml:"parallel_environments" json:"parallel_environments"`
}

func newTopologyView(topo *scheduler.Topology) topologyView {
	view := topologyView{
		Queues:               []queueView{},
		ParallelEnvironments: []environmentView{},
	}
	for _, name := range topo.QueueNames() {
		q, ok := topo.Queue(name)
		if !ok {
			continue
		}
		view.Queues = append(view.Queues, queueView{
			Name:   name,
			Slots:  q.Slots(),
			PEList: q.Properties()["pe_list"],
		})
	}
	for _, name := range topo.ParallelEnvironmentNames() {
		pe, _ := topo.ParallelEnvironment(name)
		rule, _ := pe.AllocationRule()
		view.ParallelEnvironments = append(view.ParallelEnvironments, environmentView{
			Name:           name,
			AllocationRule: rule,
			Slots:          pe.Properties()["slots"],
		})
	}
	return view
}

func (v topologyView) writeText(w io.Writer) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "QUEUE\tSLOTS\tPE_LIST")
	for _, q := range v.Queues {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", q.Name, q.Slots, q.PEList)
	}
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "PE\tALLOCATION_RULE\tSLOTS")
	for _, pe := range v.ParallelEnvironments {
		rule := pe.AllocationRule
		if rule == "" {
			rule = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", pe.Name, rule, pe.Slots)
	}
	tw.Flush()
}

func runTopology(cmd *cobra.Command, args []string) error {
	backend, err := connectBackend(commandContext(cmd))
	if err != nil {
		return err
	}
	view := newTopologyView(backend.Topology())
	return writeOutput(cmd.OutOrStdout(), view, view.writeText)
}
