package cmd

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"
)

var slotsCmd = &cobra.Command{
	Use:   "slots <pe> <queue> <nodes>",
	Short: "Compute the slot count to request for a number of nodes",
	Long: `Translate a node count into the slot count to pass to "qsub -pe".

The result depends on the allocation rule of the parallel environment:
  $pe_slots     single node only, always 1 slot
  $fill_up      nodes x slots of the queue
  $round_robin  one slot per node
  <n>           nodes x n`,
	Example: `  gridadaptor slots mpi all.q 4
  gridadaptor slots smp all.q 1 -o json`,
	Args:         cobra.ExactArgs(3),
	SilenceUsage: true,
	RunE:         runSlots,
}

func init() {
	rootCmd.AddCommand(slotsCmd)
}

type slotsView struct {
	ParallelEnvironment string `yaml:"pe" json:"pe"`
	Queue               string `yaml:"queue" json:"queue"`
	Nodes               int    `yaml:"nodes" json:"nodes"`
	Slots               int    `yaml:"slots" json:"slots"`
}

func runSlots(cmd *cobra.Command, args []string) error {
	nodes, err := strconv.Atoi(args[2])
	if err != nil {
		return fmt.Errorf("invalid node count %q: %w", args[2], err)
	}
	backend, err := connectBackend(commandContext(cmd))
	if err != nil {
		return err
	}
	slots, err := backend.CalculateSlots(args[0], args[1], nodes)
	if err != nil {
		return err
	}

	view := slotsView{ParallelEnvironment: args[0], Queue: args[1], Nodes: nodes, Slots: slots}
	return writeOutput(cmd.OutOrStdout(), view, func(w io.Writer) {
		fmt.Fprintln(w, slots)
	})
}
