// Package parser turns the text printed by scheduler administration tools into maps.
//
// Every function is pure: it reads only its arguments and fails with a *ParseError
// naming the offending line or token instead of guessing.
package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Patterns shared by the scheduler backends.
var (
	Whitespace     = regexp.MustCompile(`\s+`)
	Dot            = regexp.MustCompile(`\.`)
	Bar            = regexp.MustCompile(`\s*\|\s*`)
	Newline        = regexp.MustCompile(`\r?\n`)
	Equals         = regexp.MustCompile(`\s*=\s*`)
	HorizontalLine = regexp.MustCompile(`^\s*([=_-]{3,}\s*)+$`)
)

// Record maps field names to values for one entry of scheduler output.
type Record map[string]string

// Table maps the value of a designated key field to its record.
type Table map[string]Record

// Options tunes the multi-record parsers.
type Options struct {
	// Adaptor is reported in errors (e.g. "gridengine").
	Adaptor string
	// RejectDuplicates turns a repeated key field value into a ParseError
	// instead of letting the later record replace the earlier one.
	RejectDuplicates bool
}

func splitLines(input string) []string {
	return Newline.Split(input, -1)
}

// containsAny reports whether line contains any of the markers.
func containsAny(line string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(line, m) {
			return true
		}
	}
	return false
}

// ParseList splits input on whitespace runs, including newlines.
// Empty input yields an empty slice.
func ParseList(input string) []string {
	return strings.Fields(input)
}

// ParseKeyValuePairs parses key=value tokens separated by whitespace over one or more lines.
// Whitespace around '=' or inside a value is an error. Lines containing any ignored
// marker are skipped; later duplicate keys overwrite earlier ones.
func ParseKeyValuePairs(input string, ignored ...string) (Record, error) {
	result := make(Record)
	for _, line := range splitLines(input) {
		if line == "" || containsAny(line, ignored) {
			continue
		}
		for _, pair := range strings.Fields(line) {
			parts := strings.Split(pair, "=")
			if len(parts) != 2 {
				return nil, &ParseError{
					Line:     line,
					Token:    pair,
					Expected: "key=value",
					Reason:   "invalid key/value pair",
				}
			}
			if parts[0] == "" {
				return nil, &ParseError{Line: line, Token: pair, Expected: "key=value", Reason: "empty key"}
			}
			result[parts[0]] = parts[1]
		}
	}
	return result, nil
}

// ParseKeyValueLines parses lines holding a single key and value split by sep.
// Both halves are trimmed. Empty lines and lines with an ignored marker are skipped.
func ParseKeyValueLines(input string, sep *regexp.Regexp, ignored ...string) (Record, error) {
	result := make(Record)
	for _, line := range splitLines(input) {
		if strings.TrimSpace(line) == "" || containsAny(line, ignored) {
			continue
		}
		key, value, perr := splitKeyValue(line, sep)
		if perr != nil {
			return nil, perr
		}
		result[key] = value
	}
	return result, nil
}

func splitKeyValue(line string, sep *regexp.Regexp) (string, string, *ParseError) {
	elements := sep.Split(strings.TrimSpace(line), 2)
	if len(elements) != 2 {
		return "", "", &ParseError{
			Line:     line,
			Expected: fmt.Sprintf("two columns separated by %q", sep.String()),
			Reason:   "invalid key/value line",
		}
	}
	key := strings.TrimSpace(elements[0])
	if key == "" {
		return "", "", &ParseError{Line: line, Expected: "non-empty key", Reason: "empty key"}
	}
	return key, strings.TrimSpace(elements[1]), nil
}

// cleanValue trims value and removes at most one of the suffixes.
func cleanValue(value string, suffixes []string) string {
	trimmed := strings.TrimSpace(value)
	for _, suffix := range suffixes {
		if suffix != "" && strings.HasSuffix(trimmed, suffix) {
			return strings.TrimSuffix(trimmed, suffix)
		}
	}
	return trimmed
}

func skipTableLine(line string) bool {
	return strings.TrimSpace(line) == "" || HorizontalLine.MatchString(line)
}

// ParseTable parses tabular output whose first non-separator line holds the column names.
// Each row becomes a Record keyed on keyField; suffixes mark defaults, disabled queues
// and the like and are stripped from values.
func ParseTable(input, keyField string, sep *regexp.Regexp, suffixes ...string) (Table, error) {
	return ParseTableWithOptions(input, keyField, sep, Options{}, suffixes...)
}

// ParseTableWithOptions is ParseTable with explicit Options.
func ParseTableWithOptions(input, keyField string, sep *regexp.Regexp, opts Options, suffixes ...string) (Table, error) {
	if input == "" {
		return nil, opts.errorf("", "at least a header line", "no input")
	}
	lines := splitLines(input)

	header := 0
	for header < len(lines) && skipTableLine(lines[header]) {
		header++
	}
	if header == len(lines) {
		return nil, opts.errorf("", "a header line", "no table header encountered")
	}

	fields := sep.Split(strings.TrimSpace(lines[header]), -1)
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
		if fields[i] == "" {
			return nil, opts.errorf(lines[header], "non-empty field names", "empty field name in header")
		}
	}

	result := make(Table)
	for _, line := range lines[header+1:] {
		if skipTableLine(line) {
			continue
		}
		values := sep.Split(strings.TrimSpace(line), -1)
		if len(values) != len(fields) {
			return nil, opts.errorf(line,
				fmt.Sprintf("%d fields", len(fields)),
				fmt.Sprintf("got line with %d values", len(values)))
		}

		record := make(Record, len(fields))
		for i, name := range fields {
			record[name] = cleanValue(values[i], suffixes)
		}
		key, ok := record[keyField]
		if !ok {
			return nil, opts.errorf(line, fmt.Sprintf("field %q", keyField), "required key field missing")
		}
		if _, dup := result[key]; dup && opts.RejectDuplicates {
			return nil, opts.errorf(line, "unique "+keyField, "duplicate key "+strconv.Quote(key))
		}
		result[key] = record
	}
	return result, nil
}

// ParseKeyValueRecords groups key/value lines into records. A line whose key equals
// keyField starts a new record identified by its value; following lines attach to it.
func ParseKeyValueRecords(input, keyField string, sep *regexp.Regexp, ignored ...string) (Table, error) {
	return ParseKeyValueRecordsWithOptions(input, keyField, sep, Options{}, ignored...)
}

// ParseKeyValueRecordsWithOptions is ParseKeyValueRecords with explicit Options.
func ParseKeyValueRecordsWithOptions(input, keyField string, sep *regexp.Regexp, opts Options, ignored ...string) (Table, error) {
	result := make(Table)
	var current Record

	for _, line := range splitLines(input) {
		if strings.TrimSpace(line) == "" || containsAny(line, ignored) {
			continue
		}
		key, value, perr := splitKeyValue(line, sep)
		if perr != nil {
			perr.Adaptor = opts.Adaptor
			return nil, perr
		}

		if key == keyField {
			if _, dup := result[value]; dup && opts.RejectDuplicates {
				return nil, opts.errorf(line, "unique "+keyField, "duplicate key "+strconv.Quote(value))
			}
			current = make(Record)
			result[value] = current
		} else if current == nil {
			return nil, opts.errorf(line, fmt.Sprintf("%q on first line", keyField), "record does not start with key field")
		}
		current[key] = value
	}
	return result, nil
}

// ParseJobIDFromLine extracts a numeric job ID from a line starting with one of prefixes.
// IDs rendered as "12345.host" and "host.12345" are both accepted.
func ParseJobIDFromLine(line string, prefixes ...string) (int64, error) {
	for _, prefix := range prefixes {
		if !strings.HasPrefix(line, prefix) {
			continue
		}
		rest := strings.TrimSpace(strings.TrimPrefix(line, prefix))
		if rest == "" {
			return 0, &ParseError{Line: line, Expected: "job ID after " + strconv.Quote(prefix), Reason: "line did not contain job ID"}
		}
		token := strings.Fields(rest)[0]
		for _, part := range Dot.Split(token, -1) {
			if id, err := strconv.ParseInt(part, 10, 64); err == nil {
				return id, nil
			}
		}
		return 0, &ParseError{Line: line, Token: token, Expected: "numeric job ID", Reason: "job ID is not a number"}
	}
	return 0, &ParseError{
		Line:     line,
		Expected: fmt.Sprintf("one of prefixes %q", prefixes),
		Reason:   "line does not match expected prefixes",
	}
}

// CheckIfContains returns the index of the first candidate found in input.
func CheckIfContains(input string, candidates ...string) (int, error) {
	for i, c := range candidates {
		if strings.Contains(input, c) {
			return i, nil
		}
	}
	return -1, &ParseError{
		Line:     input,
		Expected: fmt.Sprintf("one of %q", candidates),
		Reason:   "output does not contain expected string",
	}
}

func (o Options) errorf(line, expected, reason string) *ParseError {
	return &ParseError{Adaptor: o.Adaptor, Line: line, Expected: expected, Reason: reason}
}
