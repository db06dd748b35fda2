package blockparser

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/alnah/go-markdown/etree"
	"github.com/alnah/go-markdown/registry"
)

// Defaults returns the built-in handlers in priority order.
func Defaults(tabLength int, lazyOL bool) *registry.Registry[Handler] {
	r := registry.New[Handler]()
	r.Append("empty", EmptyHandler{})
	r.Append("indent", NewListIndentHandler(tabLength))
	r.Append("code", CodeHandler{})
	r.Append("hashheader", HashHeaderHandler{})
	r.Append("setextheader", SetextHeaderHandler{})
	r.Append("hr", HRHandler{})
	r.Append("olist", NewListHandler("ol", tabLength, lazyOL))
	r.Append("ulist", NewListHandler("ul", tabLength, lazyOL))
	r.Append("quote", QuoteHandler{})
	r.Append("paragraph", ParagraphHandler{})
	return r
}

// Compile-time interface checks.
var (
	_ Handler = EmptyHandler{}
	_ Handler = (*ListIndentHandler)(nil)
	_ Handler = CodeHandler{}
	_ Handler = HashHeaderHandler{}
	_ Handler = SetextHeaderHandler{}
	_ Handler = HRHandler{}
	_ Handler = (*ListHandler)(nil)
	_ Handler = QuoteHandler{}
	_ Handler = ParagraphHandler{}
)

// Detab removes one indentation level from the leading lines of text.
// It stops at the first line that is neither indented nor blank and
// returns the dedented part and the untouched rest.
func Detab(text string, tabLength int) (string, string) {
	indent := strings.Repeat(" ", tabLength)
	lines := strings.Split(text, "\n")
	var out []string
	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, indent):
			out = append(out, line[tabLength:])
		case strings.TrimSpace(line) == "":
			out = append(out, "")
		default:
			return strings.Join(out, "\n"), strings.Join(lines[len(out):], "\n")
		}
	}
	return strings.Join(out, "\n"), ""
}

// LooseDetab removes level indentation levels from every line that has them.
func LooseDetab(text string, tabLength, level int) string {
	indent := strings.Repeat(" ", tabLength*level)
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimPrefix(line, indent)
	}
	return strings.Join(lines, "\n")
}

func isCodeBlock(n etree.Node) bool {
	return !n.IsNull() && n.Tag() == "pre" && n.ChildCount() > 0 && n.FirstChild().Tag() == "code"
}

// EmptyHandler consumes blank blocks and keeps blank lines inside a
// preceding code block.
type EmptyHandler struct{}

func (EmptyHandler) Test(_ *Parser, _ etree.Node, block string) bool {
	return block == "" || strings.HasPrefix(block, "\n")
}

func (EmptyHandler) Run(_ *Parser, parent etree.Node, blocks *Blocks) {
	block := blocks.Pop()
	filler := "\n\n"
	if block != "" {
		filler = "\n"
		if rest := block[1:]; rest != "" {
			blocks.Push(rest)
		}
	}
	if sibling := parent.LastChild(); isCodeBlock(sibling) {
		code := sibling.FirstChild()
		code.SetAtomicText(code.Text() + filler)
	}
}

// CodeHandler turns indented blocks into pre/code, continuing a preceding
// code block when there is one.
type CodeHandler struct{}

func (CodeHandler) Test(p *Parser, _ etree.Node, block string) bool {
	return strings.HasPrefix(block, strings.Repeat(" ", p.TabLength()))
}

func (CodeHandler) Run(p *Parser, parent etree.Node, blocks *Blocks) {
	block, rest := Detab(blocks.Pop(), p.TabLength())
	block = strings.TrimRightFunc(block, unicode.IsSpace)

	if sibling := parent.LastChild(); isCodeBlock(sibling) {
		code := sibling.FirstChild()
		code.SetAtomicText(code.Text() + "\n" + block + "\n")
	} else {
		pre := SubElement(parent, "pre")
		SubElement(pre, "code").SetAtomicText(block + "\n")
	}
	if rest != "" {
		blocks.Push(rest)
	}
}

// ParagraphHandler accepts every block. Inside a tight list the text joins
// the current item instead of opening a paragraph.
type ParagraphHandler struct{}

func (ParagraphHandler) Test(*Parser, etree.Node, string) bool { return true }

func (ParagraphHandler) Run(p *Parser, parent etree.Node, blocks *Blocks) {
	block := blocks.Pop()
	if strings.TrimSpace(block) == "" {
		return
	}
	if !p.State.IsState("list") {
		SubElement(parent, "p").SetText(strings.TrimLeftFunc(block, unicode.IsSpace))
		return
	}
	if sibling := parent.LastChild(); !sibling.IsNull() {
		if sibling.HasTail() {
			sibling.SetTail(sibling.Tail() + "\n" + block)
		} else {
			sibling.SetTail("\n" + block)
		}
		return
	}
	if parent.HasText() {
		parent.SetText(parent.Text() + "\n" + block)
	} else {
		parent.SetText(strings.TrimLeftFunc(block, unicode.IsSpace))
	}
}

var (
	hashHeaderRE = regexp.MustCompile(`(?:^|\n)(?P<level>#{1,6})(?P<header>.*?)#*(?:\n|$)`)
	setextLineRE = regexp.MustCompile(`^(?:=+|-+)[ ]*$`)
	hrRE         = regexp.MustCompile(`(?m)^[ ]{0,3}(?:(?:-+[ ]{0,2}){3,}|(?:_+[ ]{0,2}){3,}|(?:\*+[ ]{0,2}){3,})[ ]*`)
)

// HashHeaderHandler handles "# Heading" lines anywhere in a block.
type HashHeaderHandler struct{}

func (HashHeaderHandler) Test(_ *Parser, _ etree.Node, block string) bool {
	return hashHeaderRE.MatchString(block)
}

func (HashHeaderHandler) Run(p *Parser, parent etree.Node, blocks *Blocks) {
	block := blocks.Pop()
	m := hashHeaderRE.FindStringSubmatchIndex(block)
	if m == nil {
		p.Session().Log.WithField("block", block).Warn("problem header")
		return
	}
	before, after := block[:m[0]], block[m[1]:]
	if before != "" {
		p.ParseBlocks(parent, []string{before})
	}
	level := m[3] - m[2]
	h := SubElement(parent, "h"+string(rune('0'+level)))
	h.SetText(strings.TrimSpace(block[m[4]:m[5]]))
	if after != "" {
		blocks.Push(after)
	}
}

// SetextHeaderHandler handles a line underlined with "=" or "-".
type SetextHeaderHandler struct{}

func (SetextHeaderHandler) Test(_ *Parser, _ etree.Node, block string) bool {
	lines := strings.SplitN(block, "\n", 3)
	return len(lines) >= 2 && setextLineRE.MatchString(lines[1])
}

func (SetextHeaderHandler) Run(_ *Parser, parent etree.Node, blocks *Blocks) {
	lines := strings.SplitN(blocks.Pop(), "\n", 3)
	tag := "h2"
	if strings.HasPrefix(lines[1], "=") {
		tag = "h1"
	}
	SubElement(parent, tag).SetText(strings.TrimSpace(lines[0]))
	if len(lines) > 2 {
		blocks.Push(lines[2])
	}
}

// HRHandler handles horizontal rules. The rule must end the block or be
// followed by a newline.
type HRHandler struct{}

func hrMatch(block string) []int {
	loc := hrRE.FindStringIndex(block)
	if loc == nil || (loc[1] != len(block) && block[loc[1]] != '\n') {
		return nil
	}
	return loc
}

func (HRHandler) Test(_ *Parser, _ etree.Node, block string) bool {
	return hrMatch(block) != nil
}

func (HRHandler) Run(p *Parser, parent etree.Node, blocks *Blocks) {
	block := blocks.Pop()
	loc := hrMatch(block)
	if pre := strings.TrimRight(block[:loc[0]], "\n"); pre != "" {
		p.ParseBlocks(parent, []string{pre})
	}
	SubElement(parent, "hr")
	if post := strings.TrimLeft(block[loc[1]:], "\n"); post != "" {
		blocks.Push(post)
	}
}
