// Package inline applies inline patterns (emphasis, links, code spans and
// so on) to the text of a parsed document tree.
//
// Each pattern is a regular expression wrapped so that group 1 captures
// the text before the match and the last group the text after it. When a
// pattern matches, its result is stashed and the matched text is replaced
// by a placeholder token, which keeps later patterns from rescanning it.
// Once every pattern has run, the placeholders are turned back into
// elements and text.
//
// A pattern rescans its text from the start after every replacement, so
// the cost of a paragraph grows with the square of its length. Paragraphs
// of a few kilobytes are cheap; one of hundreds of kilobytes can hit
// MatchTimeout, and the patterns that time out leave their text
// unconverted with a warning logged.
package inline

import (
	"time"

	"github.com/dlclark/regexp2"

	"github.com/alnah/go-markdown/etree"
)

// MatchTimeout bounds a single pattern match. It is read by Compile. A
// match that runs out of time is treated as no match.
var MatchTimeout = 250 * time.Millisecond

// Compile wraps expr so that it can be applied at the start of a string:
// group 1 holds the text before expr and the last group the text after
// it. Group numbers inside expr are therefore shifted by one. Compile
// panics on an invalid expression, like regexp2.MustCompile.
func Compile(expr string) *regexp2.Regexp {
	re := regexp2.MustCompile(`^(.*?)`+expr+`(.*)\z`, regexp2.Singleline)
	re.MatchTimeout = MatchTimeout
	return re
}

// Pattern is one inline construct.
type Pattern interface {
	// Regexp returns the expression built with Compile.
	Regexp() *regexp2.Regexp
	// HandleMatch turns a match into its replacement. Returning
	// NoReplacement declines the match, and scanning resumes after it.
	HandleMatch(c *Context, m Match) Replacement
}

// Match is a successful match of a compiled pattern.
type Match struct {
	m *regexp2.Match
}

// Group returns the text of group i, or "" when the group is absent or did
// not take part in the match.
func (m Match) Group(i int) string {
	if i < 0 || i >= m.m.GroupCount() {
		return ""
	}
	g := m.m.GroupByNumber(i)
	if g == nil || len(g.Captures) == 0 {
		return ""
	}
	return g.String()
}

// Matched reports whether group i took part in the match.
func (m Match) Matched(i int) bool {
	if i < 0 || i >= m.m.GroupCount() {
		return false
	}
	g := m.m.GroupByNumber(i)
	return g != nil && len(g.Captures) > 0
}

// Groups returns the number of groups, counting group 0 and the wrapper
// groups.
func (m Match) Groups() int { return m.m.GroupCount() }

// Lead returns the text before the match.
func (m Match) Lead() string { return m.Group(1) }

// Trail returns the text after the match.
func (m Match) Trail() string { return m.Group(m.m.GroupCount() - 1) }

type replacementKind int

const (
	replaceNone replacementKind = iota
	replaceText
	replaceNode
)

// Replacement is what a pattern produces for a match: a string, an
// element, or nothing.
type Replacement struct {
	kind replacementKind
	text string
	node etree.Node
}

// NoReplacement declines a match.
var NoReplacement = Replacement{}

// TextReplacement replaces a match by s. The string is not rescanned.
func TextReplacement(s string) Replacement {
	return Replacement{kind: replaceText, text: s}
}

// NodeReplacement replaces a match by n, which must come from
// Context.NewElement. Unless n has atomic text, its text and the text of its
// children are scanned by the patterns that follow.
func NodeReplacement(n etree.Node) Replacement {
	if n.IsNull() {
		return NoReplacement
	}
	return Replacement{kind: replaceNode, node: n}
}

// Declined reports whether r is NoReplacement.
func (r Replacement) Declined() bool { return r.kind == replaceNone }

// Text returns the replacement string.
func (r Replacement) Text() (string, bool) { return r.text, r.kind == replaceText }

// Node returns the replacement element.
func (r Replacement) Node() (etree.Node, bool) { return r.node, r.kind == replaceNode }
