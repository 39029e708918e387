package cmd

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/Justype/gridadaptor/internal/parser"
	"github.com/Justype/gridadaptor/internal/scheduler"
	"github.com/spf13/cobra"
)

type parseOptions struct {
	File        string
	Key         string
	Sep         string
	Ignore      []string
	Suffixes    []string
	JobPrefixes []string
	Candidates  []string
	Strict      bool
}

var parseOpts parseOptions

// parseKinds maps the parse sub-kinds to a short description, for help and completion.
var parseKinds = map[string]string{
	"list":     "whitespace separated tokens",
	"pairs":    "key=value tokens",
	"lines":    "one key and value per line",
	"table":    "header line followed by rows (needs --key)",
	"records":  "key/value lines grouped into records (needs --key)",
	"jobid":    "job id from a submission message",
	"contains": "index of the first --candidate found",
}

// namedSeparators are the separators accepted by name in --sep.
var namedSeparators = map[string]*regexp.Regexp{
	"whitespace": parser.Whitespace,
	"equals":     parser.Equals,
	"bar":        parser.Bar,
	"dot":        parser.Dot,
}

var parseCmd = &cobra.Command{
	Use:   "parse <kind>",
	Short: "Parse saved administration tool output",
	Long: `Parse text printed by scheduler administration tools and print the result.

Input is read from --file, or from stdin. Kinds:
` + kindsHelp(),
	Example: `  qconf -sq all.q | gridadaptor parse records --key qname -o yaml
  qhost | gridadaptor parse table --key HOSTNAME -o json
  gridadaptor parse jobid -f qsub.out`,
	Args:         cobra.ExactArgs(1),
	ValidArgs:    sortedKinds(),
	SilenceUsage: true,
	RunE:         runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)
	parseCmd.Flags().StringVarP(&parseOpts.File, "file", "f", "", "Read input from file instead of stdin")
	parseCmd.Flags().StringVarP(&parseOpts.Key, "key", "k", "", "Key field for table and records")
	parseCmd.Flags().StringVar(&parseOpts.Sep, "sep", "whitespace", "Separator: whitespace, equals, bar, dot, or a regular expression")
	parseCmd.Flags().StringSliceVar(&parseOpts.Ignore, "ignore", nil, "Skip lines containing this marker (can be used multiple times)")
	parseCmd.Flags().StringSliceVar(&parseOpts.Suffixes, "suffix", nil, "Strip this suffix from table values (can be used multiple times)")
	parseCmd.Flags().StringSliceVar(&parseOpts.JobPrefixes, "job-prefix", scheduler.GridEngineDialect().JobIDPrefixes, "Line prefix announcing a job id")
	parseCmd.Flags().StringSliceVar(&parseOpts.Candidates, "candidate", nil, "String to look for with 'contains' (can be used multiple times)")
	parseCmd.Flags().BoolVar(&parseOpts.Strict, "strict", false, "Fail on duplicate key values instead of keeping the last record")
}

func sortedKinds() []string {
	kinds := make([]string, 0, len(parseKinds))
	for k := range parseKinds {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

func kindsHelp() string {
	var b strings.Builder
	for _, k := range sortedKinds() {
		fmt.Fprintf(&b, "  %-9s %s\n", k, parseKinds[k])
	}
	return b.String()
}

func separator(name string) (*regexp.Regexp, error) {
	if re, ok := namedSeparators[name]; ok {
		return re, nil
	}
	re, err := regexp.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("invalid separator %q: %w", name, err)
	}
	return re, nil
}

// parseText runs the parser selected by kind over input.
func parseText(kind, input string, o parseOptions) (any, error) {
	popts := parser.Options{RejectDuplicates: o.Strict}

	switch kind {
	case "list":
		return parser.ParseList(input), nil
	case "pairs":
		return parser.ParseKeyValuePairs(input, o.Ignore...)
	case "jobid":
		return parser.ParseJobIDFromLine(strings.TrimSpace(input), o.JobPrefixes...)
	case "contains":
		if len(o.Candidates) == 0 {
			return nil, fmt.Errorf("contains needs at least one --candidate")
		}
		return parser.CheckIfContains(input, o.Candidates...)
	}

	sep, err := separator(o.Sep)
	if err != nil {
		return nil, err
	}
	switch kind {
	case "lines":
		return parser.ParseKeyValueLines(input, sep, o.Ignore...)
	case "table", "records":
		if o.Key == "" {
			return nil, fmt.Errorf("%s needs --key", kind)
		}
		if kind == "table" {
			return parser.ParseTableWithOptions(input, o.Key, sep, popts, o.Suffixes...)
		}
		return parser.ParseKeyValueRecordsWithOptions(input, o.Key, sep, popts, o.Ignore...)
	}
	return nil, fmt.Errorf("unknown kind %q (valid: %s)", kind, strings.Join(sortedKinds(), ", "))
}

func runParse(cmd *cobra.Command, args []string) error {
	var in io.Reader = cmd.InOrStdin()
	if parseOpts.File != "" {
		f, err := os.Open(parseOpts.File)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return err
	}

	result, err := parseText(args[0], string(data), parseOpts)
	if err != nil {
		return err
	}
	return writeOutput(cmd.OutOrStdout(), result, func(w io.Writer) {
		writeParsedText(w, result)
	})
}

// writeParsedText prints parse results with sorted keys so output is stable.
func writeParsedText(w io.Writer, result any) {
	switch v := result.(type) {
	case []string:
		for _, s := range v {
			fmt.Fprintln(w, s)
		}
	case parser.Record:
		for _, k := range sortedKeys(v) {
			fmt.Fprintf(w, "%s=%s\n", k, v[k])
		}
	case parser.Table:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for i, k := range keys {
			if i > 0 {
				fmt.Fprintln(w)
			}
			fmt.Fprintf(w, "[%s]\n", k)
			rec := v[k]
			for _, field := range sortedKeys(rec) {
				fmt.Fprintf(w, "  %s=%s\n", field, rec[field])
			}
		}
	default:
		fmt.Fprintln(w, v)
	}
}

func sortedKeys(rec parser.Record) []string {
	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
