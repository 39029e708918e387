package cmd

import (
	"fmt"
	"io"

	"github.com/Justype/gridadaptor/internal/job"
	"github.com/Justype/gridadaptor/internal/utils"
	"github.com/spf13/cobra"
)

var submitDesc job.Description

var submitCmd = &cobra.Command{
	Use:   "submit [flags] -- <executable> [args...]",
	Short: "Submit an executable as a batch job",
	Long: `Submit an executable with qsub and print the scheduler job id.

Multi-node jobs need a parallel environment; the slot count passed to qsub is
computed from its allocation rule (see "gridadaptor slots").`,
	Example: `  gridadaptor submit -- /bin/hostname
  gridadaptor submit --queue all.q --pe mpi -N 4 -- ./solver input.dat
  gridadaptor submit --wd /scratch/run1 -e err.log -- ./job.sh`,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE:         runSubmit,
}

func init() {
	rootCmd.AddCommand(submitCmd)
	submitCmd.Flags().StringVar(&submitDesc.Queue, "queue", "", "Queue to submit to")
	submitCmd.Flags().StringVar(&submitDesc.ParallelEnvironment, "pe", "", "Parallel environment for multi-node jobs")
	submitCmd.Flags().IntVarP(&submitDesc.NodeCount, "nodes", "N", 1, "Number of nodes")
	submitCmd.Flags().StringVar(&submitDesc.WorkingDirectory, "wd", "", "Working directory of the job")
	submitCmd.Flags().StringVar(&submitDesc.Stdout, "stdout", "", "Path for the job's standard output")
	submitCmd.Flags().StringVarP(&submitDesc.Stderr, "stderr", "e", "", "Path for the job's standard error")
}

type submitView struct {
	ID   string `yaml:"id" json:"id"`
	UUID string `yaml:"uuid" json:"uuid"`
}

func runSubmit(cmd *cobra.Command, args []string) error {
	desc := submitDesc
	desc.Executable = args[0]
	desc.Arguments = append([]string(nil), args[1:]...)

	jm, err := jobManager(commandContext(cmd))
	if err != nil {
		return err
	}
	j, err := jm.Submit(commandContext(cmd), &desc)
	if err != nil {
		return err
	}

	utils.PrintSuccess("Submitted %s as job %s", desc.Executable, utils.StyleNumber(j.Identifier()))
	view := submitView{ID: j.Identifier(), UUID: j.UUID().String()}
	return writeOutput(cmd.OutOrStdout(), view, func(w io.Writer) {
		fmt.Fprintln(w, j.Identifier())
	})
}
