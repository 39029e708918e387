package scheduler

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mattn/go-shellwords"
)

// Template placeholders.
const (
	placeholderQueues      = "{queues}"
	placeholderEnvironment = "{pe}"
	placeholderJob         = "{job}"
)

// Dialect describes how one scheduler family is queried: which commands to run
// and which fields and markers to look for in their output. It holds no state.
//
// Command templates are split with shell quoting rules. A placeholder word is
// replaced by its value; in DescribeEnvironment every word after the command name
// is repeated once per environment ("qconf -sp {pe}" becomes "qconf -sp a -sp b").
type Dialect struct {
	Name string

	ListQueues          string
	DescribeQueues      string
	ListEnvironments    string
	DescribeEnvironment string
	Submit              string
	Cancel              string
	ListHosts           string
	ShowConfig          string
	Version             string

	QueueKey            string
	SlotsField          string
	EnvironmentKey      string
	AllocationRuleField string
	HostKey             string
	GlobalHost          string
	ConfigComment       string

	// LineContinuation ends a physical line that continues on the next one.
	LineContinuation string

	// Listing environments exits with NoEnvironmentsExitCode and prints
	// NoEnvironmentsMarker on stderr when none are defined.
	NoEnvironmentsMarker   string
	NoEnvironmentsExitCode int

	JobIDPrefixes []string
	CancelMarkers []string

	// MinVersion is the oldest release known to print the expected formats.
	MinVersion string
}

// GridEngineDialect returns the dialect for Sun/Oracle/Son of Grid Engine.
func GridEngineDialect() Dialect {
	return Dialect{
		Name: "gridengine",

		ListQueues:          "qconf -sql",
		DescribeQueues:      "qconf -sq " + placeholderQueues,
		ListEnvironments:    "qconf -spl",
		DescribeEnvironment: "qconf -sp " + placeholderEnvironment,
		Submit:              "qsub",
		Cancel:              "qdel " + placeholderJob,
		ListHosts:           "qhost",
		ShowConfig:          "qconf -sconf",
		Version:             "qstat -help",

		QueueKey:            "qname",
		SlotsField:          "slots",
		EnvironmentKey:      "pe_name",
		AllocationRuleField: "allocation_rule",
		HostKey:             "HOSTNAME",
		GlobalHost:          "global",
		ConfigComment:       "#",
		LineContinuation:    "\\",

		NoEnvironmentsMarker:   "no parallel environment defined",
		NoEnvironmentsExitCode: 1,

		JobIDPrefixes: []string{"Your job ", "Your job-array "},
		CancelMarkers: []string{"has registered the job", "has deleted job"},

		MinVersion: "v6.2",
	}
}

// templateFields maps override keys to the template they replace.
func (d *Dialect) templateFields() map[string]*string {
	return map[string]*string{
		"list_queues":          &d.ListQueues,
		"describe_queues":      &d.DescribeQueues,
		"list_environments":    &d.ListEnvironments,
		"describe_environment": &d.DescribeEnvironment,
		"submit":               &d.Submit,
		"cancel":               &d.Cancel,
		"list_hosts":           &d.ListHosts,
		"show_config":          &d.ShowConfig,
		"version":              &d.Version,
	}
}

// TemplateKeys returns the names accepted by WithOverrides, sorted.
func TemplateKeys() []string {
	var d Dialect
	keys := make([]string, 0, 9)
	for k := range d.templateFields() {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// WithOverrides returns a copy of d with the named command templates replaced.
// Empty values are ignored.
func (d Dialect) WithOverrides(overrides map[string]string) (Dialect, error) {
	d.JobIDPrefixes = append([]string(nil), d.JobIDPrefixes...)
	d.CancelMarkers = append([]string(nil), d.CancelMarkers...)

	fields := d.templateFields()
	for key, tmpl := range overrides {
		if strings.TrimSpace(tmpl) == "" {
			continue
		}
		field, ok := fields[key]
		if !ok {
			return d, fmt.Errorf("%w: unknown template %q (valid: %s)",
				ErrInvalidTemplate, key, strings.Join(TemplateKeys(), ", "))
		}
		if _, err := splitTemplate(tmpl); err != nil {
			return d, fmt.Errorf("template %s: %w", key, err)
		}
		*field = tmpl
	}
	return d, nil
}

func splitTemplate(tmpl string) ([]string, error) {
	words, err := shellwords.Parse(tmpl)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidTemplate, tmpl, err)
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("%w: empty template", ErrInvalidTemplate)
	}
	return words, nil
}

// expand renders a template into a command name and arguments.
func expand(tmpl string, vars map[string]string) (string, []string, error) {
	words, err := splitTemplate(tmpl)
	if err != nil {
		return "", nil, err
	}
	for i, w := range words {
		for placeholder, value := range vars {
			w = strings.ReplaceAll(w, placeholder, value)
		}
		words[i] = w
	}
	return words[0], words[1:], nil
}

// expandEach renders a template whose arguments repeat once per value.
func expandEach(tmpl, placeholder string, values []string) (string, []string, error) {
	words, err := splitTemplate(tmpl)
	if err != nil {
		return "", nil, err
	}
	var args []string
	for _, v := range values {
		for _, w := range words[1:] {
			args = append(args, strings.ReplaceAll(w, placeholder, v))
		}
	}
	return words[0], args, nil
}

// joinLines folds continued lines ("slots 1,[a=2], \\" + "[b=4]") into one.
func (d Dialect) joinLines(output string) string {
	if d.LineContinuation == "" || !strings.Contains(output, d.LineContinuation) {
		return output
	}
	var b strings.Builder
	continued := false
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimRight(line, "\r")
		if continued {
			line = strings.TrimSpace(line)
		}
		trimmed := strings.TrimRight(line, " \t")
		if strings.HasSuffix(trimmed, d.LineContinuation) {
			b.WriteString(strings.TrimSuffix(trimmed, d.LineContinuation))
			continued = true
			continue
		}
		b.WriteString(line)
		b.WriteString("\n")
		continued = false
	}
	return b.String()
}
