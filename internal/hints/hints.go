// Package hints provides actionable error hints for common CLI failures.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"strings"

	"github.com/alnah/go-markdown/internal/fileutil"
)

// IsInContainer detects if running inside a Docker container or similar.
// Checks for /.dockerenv file which Docker creates automatically.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

// ForBrowserConnect returns hints for browser connection errors.
// getenv is usually os.Getenv.
func ForBrowserConnect(getenv func(string) string) string {
	var hints []string

	// The renderer drops the Chrome sandbox only for CI=true or an explicit binary
	if getenv("ROD_BROWSER_BIN") == "" {
		if getenv("CI") != "true" && IsInContainer() {
			hints = append(hints, "set CI=true to run Chrome without sandbox in containers")
		}
		hints = append(hints, "set ROD_BROWSER_BIN to use an installed Chrome")
	}

	return formatHints(hints)
}

// ForTimeout returns a hint about increasing the page load timeout.
func ForTimeout() string {
	return format("for large documents, use --timeout or MARKDOWN_TIMEOUT")
}

// ForConfigNotFound returns a hint for config file not found errors.
func ForConfigNotFound() string {
	return format("use --config /path/to/file.yaml, or a name found in . or the user config dir under go-markdown/")
}

// ForUnknownExtension lists the extensions that can be enabled.
func ForUnknownExtension(available []string) string {
	if len(available) == 0 {
		return ""
	}
	return format("available: " + strings.Join(available, ", "))
}

// ForStyleNotFound lists the built-in styles.
func ForStyleNotFound(available []string) string {
	if len(available) == 0 {
		return ""
	}
	return format("available: " + strings.Join(available, ", "))
}

// ForPDFStdout returns a hint for PDF output requested on stdout.
func ForPDFStdout() string {
	return format("use -o file.pdf when reading from stdin")
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

// formatHints joins multiple hints with consistent formatting.
func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
