// Package preprocess holds the line-level stages that run before block
// parsing: whitespace normalization, raw HTML block extraction and link
// reference extraction. Each stage takes and returns the document as a
// slice of lines.
package preprocess

import (
	"strings"

	"github.com/dlclark/regexp2"

	"github.com/alnah/go-markdown/session"
)

// blankAfterNewline empties lines made only of spaces. The first line is
// left alone since nothing precedes it.
var blankAfterNewline = regexp2.MustCompile(`(?<=\n) +\n`, regexp2.None)

// NormalizeWhitespace strips the stash markers, unifies line endings,
// expands tabs and blanks whitespace-only lines.
type NormalizeWhitespace struct{}

// NewNormalizeWhitespace returns the whitespace normalizer.
func NewNormalizeWhitespace() *NormalizeWhitespace { return &NormalizeWhitespace{} }

// Run normalizes lines. The result always ends with two empty lines.
func (*NormalizeWhitespace) Run(s *session.Session, lines []string) []string {
	source := strings.Join(lines, "\n")
	source = strings.NewReplacer(session.STX, "", session.ETX, "").Replace(source)
	source = strings.NewReplacer("\r\n", "\n", "\r", "\n").Replace(source) + "\n\n"
	source = ExpandTabs(source, s.TabLength)

	out, err := blankAfterNewline.Replace(source, "\n", -1, -1)
	if err != nil {
		s.Log.WithError(err).Debug("blank line normalization skipped")
		out = source
	}
	return strings.Split(out, "\n")
}

// ExpandTabs replaces every tab with spaces up to the next multiple of
// size, counting columns from the start of each line.
func ExpandTabs(text string, size int) string {
	if !strings.Contains(text, "\t") {
		return text
	}
	if size < 1 {
		size = 1
	}
	var b strings.Builder
	b.Grow(len(text))
	col := 0
	for _, r := range text {
		switch r {
		case '\t':
			n := size - col%size
			b.WriteString(strings.Repeat(" ", n))
			col += n
		case '\n':
			b.WriteRune(r)
			col = 0
		default:
			b.WriteRune(r)
			col++
		}
	}
	return b.String()
}
