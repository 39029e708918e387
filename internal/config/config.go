package config

const VERSION = "0.3.0"

// Output formats accepted by the CLI.
const (
	OutputText = "text"
	OutputYAML = "yaml"
	OutputJSON = "json"
)

// Config holds global application settings
type Config struct {
	Debug   bool
	Quiet   bool
	Version string

	Backend    string // Scheduler backend, e.g. "gridengine"
	Prefix     string // Prepended to every scheduler command, e.g. "ssh headnode"
	FixtureDir string // Replay recorded output instead of running commands
	Location   string // Scheduler URI recorded in job identities
	Output     string // text, yaml or json

	// Templates overrides dialect command templates by name ("list_queues", ...).
	Templates map[string]string
}

// Global holds the singleton configuration instance
var Global Config

// LoadDefaults resets Global to built-in defaults.
func LoadDefaults() {
	Global = Config{
		Debug:     false,
		Quiet:     false,
		Version:   VERSION,
		Backend:   "gridengine",
		Output:    OutputText,
		Templates: map[string]string{},
	}
}

// IsValidOutput reports whether format is a supported output format.
func IsValidOutput(format string) bool {
	switch format {
	case OutputText, OutputYAML, OutputJSON:
		return true
	}
	return false
}
