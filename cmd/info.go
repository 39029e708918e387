package cmd

import (
	"fmt"
	"io"

	"github.com/Justype/gridadaptor/internal/parser"
	"github.com/Justype/gridadaptor/internal/scheduler"
	"github.com/Justype/gridadaptor/internal/utils"
	"github.com/spf13/cobra"
)

var infoShowConfig bool

var infoCmd = &cobra.Command{
	Use:     "info",
	Aliases: []string{"scheduler"},
	Short:   "Display scheduler information",
	Long: `Display the scheduler version and the size of its topology.

With --conf the global cluster configuration (qconf -sconf) is printed as well.`,
	Example: `  gridadaptor info
  gridadaptor info --conf -o yaml`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
	infoCmd.Flags().BoolVar(&infoShowConfig, "conf", false, "Include the global cluster configuration")
}

type infoView struct {
	scheduler.Info `yaml:",inline"`
	Config         parser.Record `yaml:"config,omitempty" json:"config,omitempty"`
}

func runInfo(cmd *cobra.Command, args []string) error {
	ci, err := clusterInspector(commandContext(cmd))
	if err != nil {
		return err
	}
	info, err := ci.Info(commandContext(cmd))
	if err != nil {
		return err
	}
	view := infoView{Info: *info}
	if infoShowConfig {
		if view.Config, err = ci.ClusterConfig(commandContext(cmd)); err != nil {
			return err
		}
	}

	return writeOutput(cmd.OutOrStdout(), view, func(w io.Writer) {
		fmt.Fprintln(w, "Scheduler Information:")
		fmt.Fprintf(w, "  Type:      %s\n", utils.StyleInfo(info.Type))
		version := info.RawVersion
		if version == "" {
			version = "unknown"
		}
		fmt.Fprintf(w, "  Version:   %s\n", utils.StyleNumber(version))
		if info.Supported {
			fmt.Fprintf(w, "  Status:    %s\n", utils.StyleSuccess("Supported"))
		} else {
			fmt.Fprintf(w, "  Status:    %s\n", utils.StyleWarning("Unverified version"))
		}
		fmt.Fprintf(w, "  Queues:    %d\n", info.Queues)
		fmt.Fprintf(w, "  PEs:       %d\n", info.PEs)
		if len(view.Config) > 0 {
			fmt.Fprintln(w)
			fmt.Fprintln(w, "Cluster Configuration:")
			for _, k := range sortedKeys(view.Config) {
				fmt.Fprintf(w, "  %-28s %s\n", k, view.Config[k])
			}
		}
	})
}
