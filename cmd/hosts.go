package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/Justype/gridadaptor/internal/scheduler"
	"github.com/spf13/cobra"
)

var hostsCmd = &cobra.Command{
	Use:          "hosts",
	Short:        "List execution hosts",
	Example:      `  gridadaptor hosts -o yaml`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runHosts,
}

func init() {
	rootCmd.AddCommand(hostsCmd)
}

func runHosts(cmd *cobra.Command, args []string) error {
	ci, err := clusterInspector(commandContext(cmd))
	if err != nil {
		return err
	}
	hosts, err := ci.Hosts(commandContext(cmd))
	if err != nil {
		return err
	}
	return writeOutput(cmd.OutOrStdout(), hosts, func(w io.Writer) {
		writeHostsText(w, hosts)
	})
}

func writeHostsText(w io.Writer, hosts []scheduler.HostInfo) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "HOST\tARCH\tCPUS\tLOAD\tMEMTOT\tMEMUSE")
	for _, h := range hosts {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\n",
			h.Name, orDash(h.Arch), h.CPUs, orDash(h.Load), orDash(h.MemTotal), orDash(h.MemUsed))
	}
	tw.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
