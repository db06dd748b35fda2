package session

import (
	"strconv"
	"strings"
)

// Marker characters that never survive normalization of the input, which
// makes them safe delimiters for placeholders.
const (
	STX = "\x02"
	ETX = "\x03"
)

// Placeholder prefixes and markers shared across stages.
const (
	// InlinePlaceholderPrefix starts every inline stash token.
	InlinePlaceholderPrefix = STX + "klzzwxh:"
	// HTMLPlaceholderPrefix starts every raw-HTML stash token.
	HTMLPlaceholderPrefix = STX + "wzxhzdk:"
	// AmpSubstitute stands for a literal ampersand that must not be escaped.
	AmpSubstitute = STX + "amp" + ETX
)

// EscapeMarker returns the token that stands for an escaped character until
// the unescape postprocessor restores it.
func EscapeMarker(r rune) string {
	return STX + strconv.Itoa(int(r)) + ETX
}

// blockLevel is the set of tags treated as block-level HTML.
var blockLevel = map[string]bool{
	"p": true, "div": true, "h1": true, "h2": true, "h3": true, "h4": true,
	"h5": true, "h6": true, "blockquote": true, "pre": true, "table": true,
	"dl": true, "ol": true, "ul": true, "script": true, "noscript": true,
	"form": true, "fieldset": true, "iframe": true, "math": true, "hr": true,
	"hr/": true, "style": true, "li": true, "dt": true, "dd": true,
	"thead": true, "tbody": true, "tr": true, "th": true, "td": true,
	"section": true, "footer": true, "header": true, "group": true,
	"figure": true, "figcaption": true, "aside": true, "article": true,
	"canvas": true, "output": true, "progress": true, "video": true,
	"nav": true, "main": true,
}

// IsBlockLevel reports whether tag names a block-level HTML element.
// The comparison ignores case.
func IsBlockLevel(tag string) bool {
	return blockLevel[strings.ToLower(tag)]
}
