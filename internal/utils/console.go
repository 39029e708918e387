package utils

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

// DebugMode controls whether PrintDebug output is visible.
var DebugMode = false

// QuietMode controls whether verbose messages are suppressed (errors/warnings still shown)
var QuietMode = false

// projectPrefix is the standard tag for all logs.
const projectPrefix = "[GA]"

// Output destinations, swapped in tests.
var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

var (
	red     = color.New(color.FgRed).SprintFunc()
	green   = color.New(color.FgGreen).SprintFunc()
	yellow  = color.New(color.FgYellow).SprintFunc()
	magenta = color.New(color.FgMagenta).SprintFunc()
	cyan    = color.New(color.FgCyan).SprintFunc()
	gray    = color.New(color.FgWhite).SprintFunc() // FgWhite = Gray in ANSI
	bold    = color.New(color.Bold).SprintFunc()
)

// StyleError formats critical failure messages (Red).
func StyleError(msg string) string { return red(msg) }

// StyleSuccess formats success messages (Green).
func StyleSuccess(msg string) string { return green(msg) }

// StyleWarning formats non-critical warnings (Yellow).
func StyleWarning(msg string) string { return yellow(msg) }

// StyleHint formats helpful tips or suggestions (Cyan).
func StyleHint(msg string) string { return cyan(msg) }

// StyleInfo formats status labels or properties (Magenta)
func StyleInfo(msg string) string { return magenta(msg) }

// StyleDebug formats low-level technical info (Gray).
func StyleDebug(msg string) string { return gray(msg) }

// StyleCommand formats shell commands or flags (Gray/Faint).
func StyleCommand(cmd string) string { return gray(cmd) }

// StyleTitle
func StyleTitle(title string) string { return bold(cyan(title)) }

// StyleName formats queue, environment and host names (Yellow).
func StyleName(name string) string { return yellow(name) }

// StyleNumber formats counts, slots, or IDs (Magenta).
func StyleNumber(num interface{}) string {
	return magenta(fmt.Sprintf("%v", num))
}

// PrintMessage prints a standard info message.
// Output: [GA] Message...
func PrintMessage(format string, a ...interface{}) {
	if QuietMode {
		return
	}
	fmt.Fprintf(stdout, "%s %s\n", projectPrefix, fmt.Sprintf(format, a...))
}

// PrintSuccess prints a success message with a Green tag.
func PrintSuccess(format string, a ...interface{}) {
	if QuietMode {
		return
	}
	tag := StyleSuccess("[PASS]")
	fmt.Fprintf(stdout, "%s%s %s\n", projectPrefix, tag, fmt.Sprintf(format, a...))
}

// PrintError prints an error message with a Red tag to Stderr.
func PrintError(format string, a ...interface{}) {
	tag := StyleError("[ERR] ")
	fmt.Fprintf(stderr, "%s%s %s\n", projectPrefix, tag, fmt.Sprintf(format, a...))
}

// PrintWarning prints a warning with a Yellow tag to Stderr.
func PrintWarning(format string, a ...interface{}) {
	tag := StyleWarning("[WARN]")
	fmt.Fprintf(stderr, "%s%s %s\n", projectPrefix, tag, fmt.Sprintf(format, a...))
}

// PrintHint prints a helpful hint with a Cyan tag.
func PrintHint(format string, a ...interface{}) {
	if QuietMode {
		return
	}
	tag := StyleHint("[HINT]")
	fmt.Fprintf(stdout, "%s%s %s\n", projectPrefix, tag, fmt.Sprintf(format, a...))
}

// PrintDebug prints a debug message with a Gray tag (only if DebugMode is true).
// Output: [GA][DBG] Executing: qconf -sql
func PrintDebug(format string, a ...interface{}) {
	if DebugMode {
		tag := StyleDebug("[DBG] ")
		fmt.Fprintf(stderr, "%s%s %s\n", projectPrefix, tag, fmt.Sprintf(format, a...))
	}
}
