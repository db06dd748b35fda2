// Package session holds the state of one document conversion: the options
// in force, the link reference table, the raw-HTML stash, front matter and
// the logger. A Session is created fresh for every input and passed to each
// stage; nothing in it outlives the conversion.
package session

import (
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/cases"
)

// SafeMode selects how raw HTML found in the input is treated.
type SafeMode string

// Supported safe modes.
const (
	SafeOff     SafeMode = ""
	SafeReplace SafeMode = "replace"
	SafeRemove  SafeMode = "remove"
	SafeEscape  SafeMode = "escape"
)

// Valid reports whether m is a known safe mode.
func (m SafeMode) Valid() bool {
	switch m {
	case SafeOff, SafeReplace, SafeRemove, SafeEscape:
		return true
	}
	return false
}

// DefaultEscapedChars lists the characters a backslash can escape.
const DefaultEscapedChars = "\\`*_{}[]()>#+-.!"

// Options are the conversion settings every stage may consult.
type Options struct {
	TabLength           int
	SafeMode            SafeMode
	HTMLReplacementText string
	EnableAttributes    bool
	SmartEmphasis       bool
	LazyOL              bool
	EscapedChars        string
}

// Session is the per-document conversion context.
type Session struct {
	Options

	References *References
	HTMLStash  *HTMLStash
	// Meta receives front matter when an extension extracts it.
	Meta map[string]any
	Log  logrus.FieldLogger
}

// New returns a session for one conversion. A nil logger discards output.
func New(opts Options, log logrus.FieldLogger) *Session {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Session{
		Options:    opts,
		References: NewReferences(),
		HTMLStash:  &HTMLStash{},
		Meta:       make(map[string]any),
		Log:        log,
	}
}

// Escapable reports whether a backslash before r produces a literal r.
func (s *Session) Escapable(r rune) bool {
	return strings.ContainsRune(s.EscapedChars, r)
}

// Reference is the target of a link reference definition.
type Reference struct {
	URL   string
	Title string
}

var labelNewline = regexp.MustCompile(`[ ]?\n`)

// References maps normalized link labels to their targets.
type References struct {
	fold cases.Caser
	refs map[string]Reference
}

// NewReferences returns an empty reference table.
func NewReferences() *References {
	return &References{fold: cases.Fold(), refs: make(map[string]Reference)}
}

// Normalize folds case and collapses line breaks inside a label.
func (r *References) Normalize(label string) string {
	label = labelNewline.ReplaceAllString(strings.TrimSpace(label), " ")
	return r.fold.String(label)
}

// Set records a definition. A later definition of the same label wins.
func (r *References) Set(label string, ref Reference) {
	r.refs[r.Normalize(label)] = ref
}

// Lookup returns the definition for label.
func (r *References) Lookup(label string) (Reference, bool) {
	ref, ok := r.refs[r.Normalize(label)]
	return ref, ok
}

// Len returns the number of definitions.
func (r *References) Len() int { return len(r.refs) }

// RawBlock is one stashed piece of raw HTML.
type RawBlock struct {
	HTML string
	Safe bool
}

// HTMLStash keeps raw HTML out of the parser's way. Stored markup is
// replaced by a placeholder token and put back by a postprocessor.
type HTMLStash struct {
	blocks []RawBlock
}

// Store saves html and returns the placeholder that stands for it. Safe
// markup is exempt from the safe-mode policy.
func (h *HTMLStash) Store(html string, safe bool) string {
	h.blocks = append(h.blocks, RawBlock{HTML: html, Safe: safe})
	return h.Placeholder(len(h.blocks) - 1)
}

// Placeholder returns the token for entry i.
func (h *HTMLStash) Placeholder(i int) string {
	return HTMLPlaceholderPrefix + strconv.Itoa(i) + ETX
}

// Len returns the number of stored entries.
func (h *HTMLStash) Len() int { return len(h.blocks) }

// Block returns entry i.
func (h *HTMLStash) Block(i int) RawBlock { return h.blocks[i] }
