package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/Justype/gridadaptor/internal/config"
	"github.com/Justype/gridadaptor/internal/parser"
	"github.com/Justype/gridadaptor/internal/scheduler"
	"github.com/Justype/gridadaptor/internal/utils"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:           "gridadaptor",
	Short:         "GridAdaptor: inspect and drive Grid Engine clusters through their admin tools.",
	Version:       config.VERSION,
	SilenceErrors: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Step 1: Load defaults
		config.LoadDefaults()

		// Step 2: Command-line flags take precedence over env and config file
		cmd.Flags().VisitAll(func(f *pflag.Flag) {
			if f.Changed {
				_ = viper.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f)
			}
		})

		// Step 3: Initialize Viper (read config file, env vars)
		if err := config.InitViper(); err != nil {
			return err
		}

		// Step 4: Load values from Viper into Global config
		if err := config.LoadFromViper(); err != nil {
			return err
		}

		utils.DebugMode = config.Global.Debug
		utils.QuietMode = config.Global.Quiet
		if config.Global.Debug {
			utils.PrintDebug("Debug mode enabled")
			utils.PrintDebug("GridAdaptor Version: %s", utils.StyleInfo(config.VERSION))
			utils.PrintDebug("Backend: %s", config.Global.Backend)
			if config.Global.Prefix != "" {
				utils.PrintDebug("Command prefix: %s", utils.StyleCommand(config.Global.Prefix))
			}
			if config.Global.FixtureDir != "" {
				utils.PrintDebug("Replaying fixtures from %s", config.Global.FixtureDir)
			}
		}
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra's automatic error printing is silenced. Scheduler command
		// failures print the scheduler's own output after the message.
		utils.PrintError("%v", err)
		var re *scheduler.RemoteOperationError
		if errors.As(err, &re) && re.Result != nil && utils.DebugMode {
			fmt.Fprintln(os.Stderr, strings.TrimSpace(re.Result.Stdout))
		}
		os.Exit(exitCode(err))
	}
}

// exitCode maps error kinds to distinct exit statuses for scripting.
func exitCode(err error) int {
	switch {
	case parser.IsParseError(err):
		return 3
	case scheduler.IsRemoteOperationError(err):
		return 4
	case scheduler.IsResourceNotFoundError(err),
		scheduler.IsUnsupportedAllocationError(err),
		scheduler.IsMalformedRuleError(err):
		return 5
	default:
		return 1
	}
}

func init() {
	// Subcommands are attached to rootCmd in their respective init() functions
	flags := rootCmd.PersistentFlags()
	flags.Bool("debug", false, "Enable debug mode with verbose output")
	flags.BoolP("quiet", "q", false, "Suppress informational messages")
	flags.String("backend", "gridengine", "Scheduler backend ("+strings.Join(scheduler.SupportedBackends(), ", ")+")")
	flags.String("prefix", "", "Command prefix used to reach the scheduler, e.g. 'ssh headnode'")
	flags.String("fixture-dir", "", "Replay recorded command output from this directory instead of running commands")
	flags.String("location", "", "Scheduler URI recorded in job identities, e.g. ssh://headnode")
	flags.StringP("output", "o", config.OutputText, "Output format: text, yaml or json")
}
