package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"

	"github.com/Justype/gridadaptor/internal/config"
	"github.com/Justype/gridadaptor/internal/remote"
	"github.com/Justype/gridadaptor/internal/scheduler"
	"github.com/Justype/gridadaptor/internal/utils"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// newExecutor returns the fixture replayer when a fixture directory is configured,
// otherwise a local executor behind the configured prefix.
func newExecutor() (remote.Executor, error) {
	if config.Global.FixtureDir != "" {
		return remote.NewFixtureExecutor(config.Global.FixtureDir)
	}
	return remote.NewLocalExecutor(config.Global.Prefix)
}

// connectBackend connects to the configured backend and makes it active.
func connectBackend(ctx context.Context) (scheduler.Backend, error) {
	exec, err := newExecutor()
	if err != nil {
		return nil, err
	}
	opts := scheduler.ConnectOptions{Overrides: config.Global.Templates}
	if config.Global.Location != "" {
		loc, err := url.Parse(config.Global.Location)
		if err != nil {
			return nil, fmt.Errorf("invalid location %q: %w", config.Global.Location, err)
		}
		opts.Location = loc
	}

	backend, err := scheduler.Init(ctx, config.Global.Backend, exec, opts)
	if err != nil {
		return nil, err
	}
	utils.PrintDebug("Scheduler backend %s initialized", backend.Name())
	return backend, nil
}

func jobManager(ctx context.Context) (scheduler.JobManager, error) {
	backend, err := connectBackend(ctx)
	if err != nil {
		return nil, err
	}
	jm, ok := backend.(scheduler.JobManager)
	if !ok {
		return nil, fmt.Errorf("backend %s cannot submit or cancel jobs", backend.Name())
	}
	return jm, nil
}

func clusterInspector(ctx context.Context) (scheduler.ClusterInspector, error) {
	backend, err := connectBackend(ctx)
	if err != nil {
		return nil, err
	}
	ci, ok := backend.(scheduler.ClusterInspector)
	if !ok {
		return nil, fmt.Errorf("backend %s cannot describe the cluster", backend.Name())
	}
	return ci, nil
}

// writeOutput renders v in the configured format. text is called for the text format.
func writeOutput(w io.Writer, v any, text func(io.Writer)) error {
	switch config.Global.Output {
	case config.OutputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case config.OutputJSON:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	default:
		text(w)
		return nil
	}
}

// commandContext returns the command's context, which cobra leaves nil outside ExecuteContext.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
