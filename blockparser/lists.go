package blockparser

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/alnah/go-markdown/etree"
)

func isList(n etree.Node) bool {
	return !n.IsNull() && (n.Tag() == "ul" || n.Tag() == "ol")
}

func isItem(n etree.Node) bool {
	return !n.IsNull() && n.Tag() == "li"
}

// ListIndentHandler attaches indented blocks that follow a list to the
// right list item.
type ListIndentHandler struct {
	tabLength int
	indentRE  *regexp.Regexp
}

// NewListIndentHandler returns the handler for tabLength-wide indentation.
func NewListIndentHandler(tabLength int) *ListIndentHandler {
	return &ListIndentHandler{
		tabLength: tabLength,
		indentRE:  regexp.MustCompile(fmt.Sprintf(`^((?:[ ]{%d})+)`, tabLength)),
	}
}

func (h *ListIndentHandler) Test(p *Parser, parent etree.Node, block string) bool {
	return strings.HasPrefix(block, strings.Repeat(" ", h.tabLength)) &&
		!p.State.IsState("detabbed") &&
		(isItem(parent) || isList(parent.LastChild()))
}

func (h *ListIndentHandler) Run(p *Parser, parent etree.Node, blocks *Blocks) {
	block := blocks.Pop()
	level, sibling := h.level(p, parent, block)
	block = LooseDetab(block, h.tabLength, level)

	p.WithState("detabbed", func() {
		switch {
		case isItem(parent):
			// An indented list whose first item was parsed earlier: its
			// last list child is the real parent.
			if last := parent.LastChild(); isList(last) {
				p.ParseBlocks(last, []string{block})
			} else {
				p.ParseBlocks(parent, []string{block})
			}
		case isItem(sibling):
			p.ParseBlocks(sibling, []string{block})
		case isItem(sibling.LastChild()):
			li := sibling.LastChild()
			if li.HasText() {
				para := li.Tree().NewNode("p")
				para.SetText(li.Text())
				li.SetText("")
				li.Insert(0, para)
			}
			p.ParseChunk(li, block)
		default:
			p.ParseBlocks(SubElement(sibling, "li"), []string{block})
		}
	})
}

// level counts how many lists to descend, following last children, to
// reach the parent for an indented block.
func (h *ListIndentHandler) level(p *Parser, parent etree.Node, block string) (int, etree.Node) {
	indent := 0
	if m := h.indentRE.FindStringSubmatch(block); m != nil {
		indent = len(m[1]) / h.tabLength
	}
	level := 0
	if p.State.IsState("list") {
		// A tight list is already positioned on the right parent.
		level = 1
	}
	for indent > level {
		child := parent.LastChild()
		if !isList(child) && !isItem(child) {
			break
		}
		if isList(child) {
			level++
		}
		parent = child
	}
	return level, parent
}

// ListHandler handles ordered ("1.") or unordered ("*", "+", "-") lists.
type ListHandler struct {
	tag       string
	tabLength int
	lazyOL    bool

	re       *regexp.Regexp
	childRE  *regexp.Regexp
	indentRE *regexp.Regexp
}

var leadingDigitsRE = regexp.MustCompile(`^\d+`)

// NewListHandler returns a handler producing tag, which is "ol" or "ul".
// With lazyOL false, an ordered list keeps the number of its first item.
func NewListHandler(tag string, tabLength int, lazyOL bool) *ListHandler {
	marker := `\d+\.`
	if tag != "ol" {
		marker = `[*+-]`
	}
	return &ListHandler{
		tag:       tag,
		tabLength: tabLength,
		lazyOL:    lazyOL,
		re:        regexp.MustCompile(fmt.Sprintf(`^[ ]{0,%d}%s[ ]+(.*)`, tabLength-1, marker)),
		childRE:   regexp.MustCompile(fmt.Sprintf(`^[ ]{0,%d}((\d+\.)|[*+-])[ ]+(.*)`, tabLength-1)),
		indentRE:  regexp.MustCompile(fmt.Sprintf(`^[ ]{%d,%d}((\d+\.)|[*+-])[ ]+.*`, tabLength, tabLength*2-1)),
	}
}

func (h *ListHandler) Test(_ *Parser, _ etree.Node, block string) bool {
	return h.re.MatchString(block)
}

func (h *ListHandler) Run(p *Parser, parent etree.Node, blocks *Blocks) {
	items, start := h.items(blocks.Pop())

	var lst etree.Node
	switch sibling := parent.LastChild(); {
	case isList(sibling):
		lst = sibling
		if last := lst.LastChild(); !last.IsNull() {
			// The previous item becomes loose: its bare text moves into a
			// paragraph, and so does a dangling tail.
			if last.HasText() {
				para := last.Tree().NewNode("p")
				para.SetText(last.Text())
				last.SetText("")
				last.Insert(0, para)
			}
			if lch := last.LastChild(); !lch.IsNull() && lch.HasTail() {
				SubElement(last, "p").SetText(strings.TrimLeftFunc(lch.Tail(), unicode.IsSpace))
				lch.SetTail("")
			}
		}
		li := SubElement(lst, "li")
		first := items[0]
		items = items[1:]
		p.WithState("looselist", func() {
			p.ParseBlocks(li, []string{first})
		})
	case isList(parent):
		// "* * item" style nesting: the list itself is the parent.
		lst = parent
	default:
		lst = SubElement(parent, h.tag)
		if h.tag == "ol" && !h.lazyOL && start != "1" {
			lst.SetAttr("start", start)
		}
	}

	indent := strings.Repeat(" ", h.tabLength)
	p.WithState("list", func() {
		for _, item := range items {
			if strings.HasPrefix(item, indent) && lst.ChildCount() > 0 {
				p.ParseBlocks(lst.LastChild(), []string{item})
				continue
			}
			p.ParseBlocks(SubElement(lst, "li"), []string{item})
		}
	})
}

// items splits a list block into item texts and returns the number of the
// first item.
func (h *ListHandler) items(block string) ([]string, string) {
	indent := strings.Repeat(" ", h.tabLength)
	start := "1"
	var items []string
	for _, line := range strings.Split(block, "\n") {
		if m := h.childRE.FindStringSubmatch(line); m != nil {
			if len(items) == 0 && h.tag == "ol" {
				if n := leadingDigitsRE.FindString(m[1]); n != "" {
					start = n
				}
			}
			items = append(items, m[3])
			continue
		}
		n := len(items)
		switch {
		case n == 0:
			items = append(items, line)
		case h.indentRE.MatchString(line) && !strings.HasPrefix(items[n-1], indent):
			items = append(items, line)
		default:
			items[n-1] += "\n" + line
		}
	}
	return items, start
}
