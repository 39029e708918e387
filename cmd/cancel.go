package cmd

import (
	"fmt"

	"github.com/Justype/gridadaptor/internal/utils"
	"github.com/spf13/cobra"
)

var cancelCmd = &cobra.Command{
	Use:     "cancel <job-id>...",
	Aliases: []string{"qdel"},
	Short:   "Delete jobs",
	Example: `  gridadaptor cancel 12345
  gridadaptor cancel 12345 12346`,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE:         runCancel,
}

func init() {
	rootCmd.AddCommand(cancelCmd)
}

func runCancel(cmd *cobra.Command, args []string) error {
	jm, err := jobManager(commandContext(cmd))
	if err != nil {
		return err
	}

	failed := 0
	for _, id := range args {
		if err := jm.Cancel(commandContext(cmd), id); err != nil {
			utils.PrintError("Failed to cancel job %s: %v", id, err)
			failed++
			continue
		}
		utils.PrintSuccess("Cancelled job %s", utils.StyleNumber(id))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d jobs could not be cancelled", failed, len(args))
	}
	return nil
}
