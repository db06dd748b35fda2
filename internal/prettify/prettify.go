// Package prettify adds line breaks between block-level elements so the
// serialized output reads one block per line.
package prettify

import (
	"strings"
	"unicode"

	"github.com/alnah/go-markdown/etree"
	"github.com/alnah/go-markdown/session"
)

// Processor is the newline tree processor.
type Processor struct{}

// New returns the prettify processor.
func New() *Processor { return &Processor{} }

// Run edits the tree below root in place and returns a null node.
func (*Processor) Run(_ *session.Session, root etree.Node) etree.Node {
	prettify(root)

	for _, br := range root.Iter("br") {
		if blank(br.Tail()) {
			br.SetTail("\n")
		} else {
			br.SetTail("\n" + br.Tail())
		}
	}

	for _, pre := range root.Iter("pre") {
		code := pre.FirstChild()
		if code.IsNull() || code.Tag() != "code" {
			continue
		}
		text := strings.TrimRightFunc(code.Text(), unicode.IsSpace) + "\n"
		if code.AtomicText() {
			code.SetAtomicText(text)
		} else {
			code.SetText(text)
		}
	}
	return etree.Node{}
}

func prettify(el etree.Node) {
	if session.IsBlockLevel(el.Tag()) && el.Tag() != "code" && el.Tag() != "pre" {
		first := el.FirstChild()
		if blank(el.Text()) && !first.IsNull() && session.IsBlockLevel(first.Tag()) {
			el.SetText("\n")
		}
		for _, c := range el.Children() {
			if session.IsBlockLevel(c.Tag()) {
				prettify(c)
			}
		}
	}
	if blank(el.Tail()) {
		el.SetTail("\n")
	}
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }
