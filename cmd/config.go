package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Justype/gridadaptor/internal/config"
	"github.com/Justype/gridadaptor/internal/scheduler"
	"github.com/Justype/gridadaptor/internal/utils"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// configKeysCompletion returns config keys for shell completion
func configKeysCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		keys := config.KnownKeys()
		for _, name := range scheduler.TemplateKeys() {
			keys = append(keys, config.TemplateKey(name))
		}
		return keys, cobra.ShellCompDirectiveNoFileComp
	}
	if len(args) == 1 {
		return configValueCompletion(args[0]), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

// configValueCompletion returns suggested values for a config key
func configValueCompletion(key string) []string {
	switch key {
	case "debug", "quiet":
		return []string{"true", "false"}
	case "output":
		return []string{config.OutputText, config.OutputYAML, config.OutputJSON}
	case "backend":
		return scheduler.SupportedBackends()
	default:
		return nil
	}
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage gridadaptor configuration",
	Long: `Manage gridadaptor configuration settings.

Configuration file priority (highest to lowest):
  1. Command-line flags
  2. Environment variables (GRIDADAPTOR_*, e.g. GRIDADAPTOR_TEMPLATES_SUBMIT)
  3. User config file (~/.config/gridadaptor/config.yaml)
  4. Home config file (~/.gridadaptor/config.yaml)
  5. System config file (/etc/gridadaptor/config.yaml)
  6. Defaults`,
}

type configView struct {
	ConfigFile string            `yaml:"config_file,omitempty" json:"config_file,omitempty"`
	Backend    string            `yaml:"backend" json:"backend"`
	Prefix     string            `yaml:"prefix,omitempty" json:"prefix,omitempty"`
	FixtureDir string            `yaml:"fixture_dir,omitempty" json:"fixture_dir,omitempty"`
	Location   string            `yaml:"location,omitempty" json:"location,omitempty"`
	Output     string            `yaml:"output" json:"output"`
	Templates  map[string]string `yaml:"templates" json:"templates"`
}

// effectiveTemplates merges configured overrides into the backend's default templates.
func effectiveTemplates() (map[string]string, error) {
	dialect, err := scheduler.GridEngineDialect().WithOverrides(config.Global.Templates)
	if err != nil {
		return nil, err
	}
	return map[string]string{
		"list_queues":          dialect.ListQueues,
		"describe_queues":      dialect.DescribeQueues,
		"list_environments":    dialect.ListEnvironments,
		"describe_environment": dialect.DescribeEnvironment,
		"submit":               dialect.Submit,
		"cancel":               dialect.Cancel,
		"list_hosts":           dialect.ListHosts,
		"show_config":          dialect.ShowConfig,
		"version":              dialect.Version,
	}, nil
}

var configShowCmd = &cobra.Command{
	Use:          "show",
	Short:        "Show current configuration",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		templates, err := effectiveTemplates()
		if err != nil {
			return err
		}
		view := configView{
			ConfigFile: viper.ConfigFileUsed(),
			Backend:    config.Global.Backend,
			Prefix:     config.Global.Prefix,
			FixtureDir: config.Global.FixtureDir,
			Location:   config.Global.Location,
			Output:     config.Global.Output,
			Templates:  templates,
		}
		return writeOutput(cmd.OutOrStdout(), view, func(w io.Writer) {
			fmt.Fprintln(w, utils.StyleTitle("Configuration:"))
			if view.ConfigFile != "" {
				fmt.Fprintf(w, "  %-22s %s\n", "config file", view.ConfigFile)
			} else {
				fmt.Fprintf(w, "  %-22s %s\n", "config file", utils.StyleWarning("none (defaults)"))
			}
			fmt.Fprintf(w, "  %-22s %s\n", "backend", view.Backend)
			fmt.Fprintf(w, "  %-22s %s\n", "prefix", orDash(view.Prefix))
			fmt.Fprintf(w, "  %-22s %s\n", "fixture_dir", orDash(view.FixtureDir))
			fmt.Fprintf(w, "  %-22s %s\n", "location", orDash(view.Location))
			fmt.Fprintf(w, "  %-22s %s\n", "output", view.Output)
			fmt.Fprintln(w)
			fmt.Fprintln(w, utils.StyleTitle("Command Templates:"))
			for _, name := range scheduler.TemplateKeys() {
				marker := ""
				if _, ok := config.Global.Templates[name]; ok {
					marker = " " + utils.StyleInfo("(override)")
				}
				fmt.Fprintf(w, "  %-22s %s%s\n", name, utils.StyleCommand(templates[name]), marker)
			}
		})
	},
}

var configPathCmd = &cobra.Command{
	Use:          "path",
	Short:        "Print the user config file path",
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, err := config.GetUserConfigPath()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), configPath)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value in the user config file",
	Example: `  gridadaptor config set prefix "ssh -o BatchMode=yes headnode"
  gridadaptor config set templates.list_queues "/opt/sge/bin/qconf -sql"`,
	Args:              cobra.ExactArgs(2),
	ValidArgsFunction: configKeysCompletion,
	SilenceUsage:      true,
	RunE: func(cmd *cobra.Command, args []string) error {
		value, err := configValue(args[0], args[1])
		if err != nil {
			return err
		}
		viper.Set(args[0], value)
		if err := config.SaveConfig(); err != nil {
			return err
		}
		utils.PrintSuccess("Set %s = %v", args[0], value)
		return nil
	},
}

// configValue validates a key and converts its value to the stored type.
func configValue(key, raw string) (any, error) {
	if !config.IsKnownKey(key) {
		return nil, fmt.Errorf("unknown config key %q (valid: %s, templates.<name>)", key, strings.Join(config.KnownKeys(), ", "))
	}
	switch {
	case key == "debug" || key == "quiet":
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("%s expects true or false: %w", key, err)
		}
		return b, nil
	case key == "output":
		if !config.IsValidOutput(raw) {
			return nil, fmt.Errorf("invalid output format %q", raw)
		}
	case strings.HasPrefix(key, "templates."):
		name := strings.TrimPrefix(key, "templates.")
		if _, err := scheduler.GridEngineDialect().WithOverrides(map[string]string{name: raw}); err != nil {
			return nil, err
		}
	}
	return raw, nil
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd, configPathCmd, configSetCmd)
}
