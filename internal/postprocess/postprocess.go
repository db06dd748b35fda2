// Package postprocess holds the string stages that run on serialized
// output: restoring stashed raw HTML, restoring literal ampersands and
// turning escape markers back into characters.
package postprocess

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/alnah/go-markdown/session"
)

var (
	htmlEscaper  = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
	openingTagRE = regexp.MustCompile(`^</?([^ >]+)`)
	escapedRE    = regexp.MustCompile(session.STX + `([0-9]+)` + session.ETX)
)

// RawHTML puts stashed HTML back in place of its placeholders, applying
// the safe mode to unsafe entries.
type RawHTML struct{}

// NewRawHTML returns the raw HTML restorer.
func NewRawHTML() *RawHTML { return &RawHTML{} }

// Run restores every stash entry. A block-level entry that was wrapped in
// a paragraph replaces the whole paragraph.
func (*RawHTML) Run(s *session.Session, text string) string {
	for i := 0; i < s.HTMLStash.Len(); i++ {
		block := s.HTMLStash.Block(i)
		html := block.HTML
		if s.SafeMode != session.SafeOff && !block.Safe {
			switch s.SafeMode {
			case session.SafeEscape:
				html = htmlEscaper.Replace(html)
			case session.SafeRemove:
				html = ""
			default:
				html = s.HTMLReplacementText
			}
		}
		ph := s.HTMLStash.Placeholder(i)
		if isBlockLevel(html) && (block.Safe || s.SafeMode == session.SafeOff) {
			text = strings.ReplaceAll(text, "<p>"+ph+"</p>", html+"\n")
		}
		text = strings.ReplaceAll(text, ph, html)
	}
	return text
}

// isBlockLevel reports whether html opens with a block-level tag, a
// comment or a processing instruction.
func isBlockLevel(html string) bool {
	m := openingTagRE.FindStringSubmatch(html)
	if m == nil {
		return false
	}
	if strings.ContainsRune("!?@%", rune(m[1][0])) {
		return true
	}
	return session.IsBlockLevel(m[1])
}

// AmpSubstitute turns the ampersand marker back into "&".
type AmpSubstitute struct{}

// NewAmpSubstitute returns the ampersand restorer.
func NewAmpSubstitute() *AmpSubstitute { return &AmpSubstitute{} }

// Run restores literal ampersands.
func (*AmpSubstitute) Run(_ *session.Session, text string) string {
	return strings.ReplaceAll(text, session.AmpSubstitute, "&")
}

// Unescape turns escape markers back into the characters they stand for.
type Unescape struct{}

// NewUnescape returns the escape marker restorer.
func NewUnescape() *Unescape { return &Unescape{} }

// Run replaces every marker with its character. Markers holding an
// impossible code point are left as they are.
func (*Unescape) Run(_ *session.Session, text string) string {
	if !strings.Contains(text, session.STX) {
		return text
	}
	return escapedRE.ReplaceAllStringFunc(text, func(marker string) string {
		code, err := strconv.Atoi(marker[len(session.STX) : len(marker)-len(session.ETX)])
		if err != nil || code > 0x10FFFF {
			return marker
		}
		return string(rune(code))
	})
}
