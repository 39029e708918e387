package parser

import (
	"reflect"
	"regexp"
	"strings"
	"testing"
)

func TestParseList(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "spaces and newline", input: "a  b\nc", want: []string{"a", "b", "c"}},
		{name: "leading and trailing whitespace", input: "  all.q\r\nlong.q \n", want: []string{"all.q", "long.q"}},
		{name: "tabs", input: "x\ty", want: []string{"x", "y"}},
		{name: "empty", input: "", want: []string{}},
		{name: "whitespace only", input: " \n\t ", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseList(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("ParseList(%q) = %q; want %q", tt.input, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("ParseList(%q)[%d] = %q; want %q", tt.input, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestParseKeyValuePairs(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		ignored []string
		want    Record
		wantErr bool
	}{
		{
			name:  "single line",
			input: "qname=foo slots=4",
			want:  Record{"qname": "foo", "slots": "4"},
		},
		{
			name:  "multiple lines, later key wins",
			input: "a=1 b=2\r\nb=3\n\nc=",
			want:  Record{"a": "1", "b": "3", "c": ""},
		},
		{
			name:    "ignored lines skipped",
			input:   "JobId=12 State=RUNNING\nwarning: something odd\n",
			ignored: []string{"warning"},
			want:    Record{"JobId": "12", "State": "RUNNING"},
		},
		{name: "whitespace around equals", input: "qname = foo", wantErr: true},
		{name: "missing equals", input: "qname", wantErr: true},
		{name: "two equals", input: "a=b=c", wantErr: true},
		{name: "empty key", input: "=value", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseKeyValuePairs(tt.input, tt.ignored...)
			if tt.wantErr {
				if !IsParseError(err) {
					t.Fatalf("expected ParseError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v; want %v", got, tt.want)
			}
		})
	}
}

func TestParseKeyValueLines(t *testing.T) {
	input := "execd_spool_dir      /opt/sge/default/spool\n" +
		"# comment line\n" +
		"mailer               /bin/mail\n" +
		"\n" +
		"load_report_time     00:00:40\n"

	got, err := ParseKeyValueLines(input, Whitespace, "#")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Record{
		"execd_spool_dir":  "/opt/sge/default/spool",
		"mailer":           "/bin/mail",
		"load_report_time": "00:00:40",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v; want %v", got, want)
	}

	bar, err := ParseKeyValueLines("name | value with spaces", Bar)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bar["name"] != "value with spaces" {
		t.Errorf("bar separated value = %q", bar["name"])
	}

	if _, err := ParseKeyValueLines("lonely", Whitespace); !IsParseError(err) {
		t.Errorf("expected ParseError for single column line, got %v", err)
	}
}

func TestParseTable(t *testing.T) {
	input := "name count\n" +
		"----------\n" +
		"alice 3\n" +
		"bob 4d\n"

	got, err := ParseTable(input, "name", Whitespace, "d")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Table{
		"alice": {"name": "alice", "count": "3"},
		"bob":   {"name": "bob", "count": "4"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v; want %v", got, want)
	}
}

func TestParseTableSeparatorsAndSuffixes(t *testing.T) {
	input := "==========\n" +
		"PARTITION AVAIL NODES\n" +
		"=== --- ___\n" +
		"batch* up 10\n" +
		"debug up 2@\n" +
		"------------------ \n"

	got, err := ParseTable(input, "PARTITION", Whitespace, "*", "@")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 rows, got %d: %v", len(got), got)
	}
	if got["batch"]["AVAIL"] != "up" {
		t.Errorf("batch AVAIL = %q; want up", got["batch"]["AVAIL"])
	}
	if got["debug"]["NODES"] != "2" {
		t.Errorf("debug NODES = %q; want 2", got["debug"]["NODES"])
	}
}

func TestParseTableOnlyOneSuffixStripped(t *testing.T) {
	got, err := ParseTable("k v\nx 5ab", "k", Whitespace, "b", "a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got["x"]["v"] != "5a" {
		t.Errorf("v = %q; want 5a", got["x"]["v"])
	}
}

func TestParseTableErrors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		keyField string
		sep      *regexp.Regexp
		contains string
	}{
		{name: "empty input", input: "", keyField: "name", sep: Whitespace, contains: "no input"},
		{name: "only separators", input: "-----\n=====", keyField: "name", sep: Whitespace, contains: "no table header"},
		{name: "empty header field", input: "name||count\nalice|x|3", keyField: "name", sep: regexp.MustCompile(`\|`), contains: "empty field name"},
		{name: "field count mismatch", input: "name count\nalice 3 extra", keyField: "name", sep: Whitespace, contains: "alice 3 extra"},
		{name: "missing key field", input: "name count\nalice 3", keyField: "user", sep: Whitespace, contains: "user"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTable(tt.input, tt.keyField, tt.sep)
			if !IsParseError(err) {
				t.Fatalf("expected ParseError, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.contains) {
				t.Errorf("error %q does not mention %q", err.Error(), tt.contains)
			}
		})
	}
}

func TestParseTableFieldCountMessage(t *testing.T) {
	_, err := ParseTable("a b c\n1 2", "a", Whitespace)
	if err == nil {
		t.Fatal("expected error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "3 fields") || !strings.Contains(msg, "2 values") {
		t.Errorf("error %q should name expected and actual counts", msg)
	}
}

func TestParseTableDuplicateKeys(t *testing.T) {
	input := "name count\nalice 1\nalice 2"

	got, err := ParseTable(input, "name", Whitespace)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got["alice"]["count"] != "2" {
		t.Errorf("later record should win, got %v", got["alice"])
	}

	_, err = ParseTableWithOptions(input, "name", Whitespace, Options{RejectDuplicates: true})
	if !IsParseError(err) || !strings.Contains(err.Error(), "duplicate") {
		t.Errorf("expected duplicate ParseError, got %v", err)
	}
}

func TestParseKeyValueRecords(t *testing.T) {
	input := "qname foo\nslots 4\nqname bar\nslots 8"

	got, err := ParseKeyValueRecords(input, "qname", Whitespace)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Table{
		"foo": {"qname": "foo", "slots": "4"},
		"bar": {"qname": "bar", "slots": "8"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v; want %v", got, want)
	}
}

func TestParseKeyValueRecordsValuesWithSpaces(t *testing.T) {
	input := "pe_name            mpi\n" +
		"slots              999\n" +
		"start_proc_args    /bin/true -x\n" +
		"allocation_rule    $fill_up\n"

	got, err := ParseKeyValueRecords(input, "pe_name", Whitespace)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got["mpi"]["start_proc_args"] != "/bin/true -x" {
		t.Errorf("start_proc_args = %q", got["mpi"]["start_proc_args"])
	}
	if got["mpi"]["allocation_rule"] != "$fill_up" {
		t.Errorf("allocation_rule = %q", got["mpi"]["allocation_rule"])
	}
}

func TestParseKeyValueRecordsErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "leading non key line", input: "slots 4\nqname foo"},
		{name: "single column line", input: "qname foo\nslots"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseKeyValueRecordsWithOptions(tt.input, "qname", Whitespace, Options{Adaptor: "gridengine"})
			if !IsParseError(err) {
				t.Fatalf("expected ParseError, got %v", err)
			}
			if !strings.HasPrefix(err.Error(), "gridengine ") {
				t.Errorf("error %q should name the adaptor", err.Error())
			}
		})
	}
}

func TestParseKeyValueRecordsIgnoredAndDuplicates(t *testing.T) {
	input := "qname a\n# hostlist changed\nslots 1\nqname a\nslots 2\n"

	got, err := ParseKeyValueRecords(input, "qname", Whitespace, "#")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got["a"]["slots"] != "2" {
		t.Errorf("later record should replace earlier, got %v", got)
	}

	_, err = ParseKeyValueRecordsWithOptions(input, "qname", Whitespace, Options{RejectDuplicates: true}, "#")
	if !IsParseError(err) {
		t.Errorf("expected duplicate ParseError, got %v", err)
	}
}

func TestParseJobIDFromLine(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		prefixes []string
		want     int64
		wantErr  bool
	}{
		{name: "grid engine", line: "Your job 12345.host has been submitted", prefixes: []string{"Your job "}, want: 12345},
		{name: "plain id", line: `Your job 77 ("run.sh") has been submitted`, prefixes: []string{"Your job "}, want: 77},
		{name: "host first", line: "Submitted host.4242", prefixes: []string{"Submitted "}, want: 4242},
		{name: "second prefix", line: "Submitted batch job 9", prefixes: []string{"Your job ", "Submitted batch job "}, want: 9},
		{name: "no prefix", line: "error: no such queue", prefixes: []string{"Your job "}, wantErr: true},
		{name: "empty remainder", line: "Your job    ", prefixes: []string{"Your job"}, wantErr: true},
		{name: "not a number", line: "Your job abc.def has been submitted", prefixes: []string{"Your job "}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseJobIDFromLine(tt.line, tt.prefixes...)
			if tt.wantErr {
				if !IsParseError(err) {
					t.Fatalf("expected ParseError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %d; want %d", got, tt.want)
			}
		})
	}
}

func TestCheckIfContains(t *testing.T) {
	out := "root has registered the job 12 for deletion"
	idx, err := CheckIfContains(out, "has deleted job", "has registered the job")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if idx != 1 {
		t.Errorf("index = %d; want 1", idx)
	}

	_, err = CheckIfContains("denied", "alpha", "beta")
	if !IsParseError(err) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if !strings.Contains(err.Error(), "alpha") || !strings.Contains(err.Error(), "beta") {
		t.Errorf("error %q should list all candidates", err.Error())
	}
}

func TestParsersAreIdempotent(t *testing.T) {
	input := "qname foo\nslots 4\nqname bar\nslots 8"
	first, err := ParseKeyValueRecords(input, "qname", Whitespace)
	if err != nil {
		t.Fatal(err)
	}
	second, err := ParseKeyValueRecords(input, "qname", Whitespace)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("parsing twice differs: %v vs %v", first, second)
	}

	table := "name count\nalice 3"
	t1, _ := ParseTable(table, "name", Whitespace)
	t2, _ := ParseTable(table, "name", Whitespace)
	if !reflect.DeepEqual(t1, t2) {
		t.Errorf("table parsing twice differs")
	}
}
