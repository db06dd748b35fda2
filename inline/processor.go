package inline

import (
	"fmt"
	"strings"

	"github.com/alnah/go-markdown/etree"
	"github.com/alnah/go-markdown/registry"
	"github.com/alnah/go-markdown/session"
)

// Processor is the tree processor that applies the inline patterns. It
// reads the registry on every run, so patterns added after construction
// take part.
type Processor struct {
	patterns  *registry.Registry[Pattern]
	serialize func(etree.Node) string
}

// NewProcessor returns a processor over patterns. serialize renders stashed
// elements that end up inside raw HTML; nil means HTML.
func NewProcessor(patterns *registry.Registry[Pattern], serialize func(etree.Node) string) *Processor {
	return &Processor{patterns: patterns, serialize: serialize}
}

// Run applies the patterns to every non-atomic text and tail below root.
// It edits the tree in place and returns a null node.
func (p *Processor) Run(s *session.Session, root etree.Node) etree.Node {
	r := &run{
		ctx:      NewContext(s, p.serialize),
		patterns: p.patterns.Snapshot(),
		doc:      root.Tree(),
	}
	r.walk(root)
	return etree.Node{}
}

type run struct {
	ctx      *Context
	patterns []Pattern
	doc      *etree.Tree
}

type pending struct {
	el       etree.Node
	children []etree.Node
}

func (r *run) walk(root etree.Node) {
	attrs := r.ctx.Session().EnableAttributes
	stack := []etree.Node{root}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		var queue []pending
		for _, child := range cur.Children() {
			if child.HasText() && !child.AtomicText() {
				text := child.Text()
				child.SetText("")
				lst := r.materialize(r.handleInline(text, 0), child, true)
				stack = append(stack, lst...)
				queue = append(queue, pending{el: child, children: lst})
			}
			if child.HasTail() {
				tail := r.handleInline(child.Tail(), 0)
				dummy := r.doc.NewNode("d")
				res := r.materialize(tail, dummy, true)
				child.SetTail(dummy.Text())
				pos := cur.Index(child) + 1
				for i, n := range res {
					cur.Insert(pos+i, n)
				}
			}
			if child.ChildCount() > 0 {
				stack = append(stack, child)
			}
		}

		for _, q := range queue {
			if attrs && q.el.HasText() && !q.el.AtomicText() {
				q.el.SetText(handleAttributes(q.el.Text(), q.el))
			}
			for i, n := range q.children {
				if attrs {
					if n.HasTail() {
						n.SetTail(handleAttributes(n.Tail(), q.el))
					}
					if n.HasText() && !n.AtomicText() {
						n.SetText(handleAttributes(n.Text(), n))
					}
				}
				q.el.Insert(i, n)
			}
		}
	}
}

// handleInline runs the patterns from index idx on data and returns it with
// every match replaced by a placeholder.
func (r *run) handleInline(data string, idx int) string {
	start := 0
	for idx < len(r.patterns) {
		var matched bool
		data, matched, start = r.applyPattern(r.patterns[idx], data, idx, start)
		if !matched {
			idx++
		}
	}
	return data
}

// applyPattern tries one pattern on data[start:]. It reports whether the
// pattern should be tried again, and from which offset.
func (r *run) applyPattern(p Pattern, data string, idx, start int) (string, bool, int) {
	left, sub := data[:start], data[start:]
	m, err := p.Regexp().FindStringMatch(sub)
	if err != nil {
		r.ctx.Session().Log.WithError(err).WithField("pattern", fmt.Sprintf("%T", p)).Warn("inline match abandoned, text left as is")
		return data, false, 0
	}
	if m == nil {
		return data, false, 0
	}
	match := Match{m: m}

	rep := p.HandleMatch(r.ctx, match)
	if rep.Declined() {
		next := start + len(sub) - len(match.Trail())
		if next <= start {
			return data, false, 0
		}
		return data, true, next
	}

	if node, ok := rep.Node(); ok && !node.AtomicText() {
		for _, child := range append([]etree.Node{node}, node.Children()...) {
			if child.HasText() && !child.AtomicText() {
				child.SetText(r.handleInline(child.Text(), idx+1))
			}
			if child.HasTail() {
				child.SetTail(r.handleInline(child.Tail(), idx))
			}
		}
	}
	ph := r.ctx.stash.Add(rep)
	return left + match.Lead() + ph + match.Trail(), true, 0
}

// findPlaceholder reads the placeholder starting at index and returns its
// id and the offset just past it. The id is empty for a malformed token.
func findPlaceholder(data string, index int) (string, int) {
	loc := placeholderRE.FindStringSubmatchIndex(data[index:])
	if loc == nil || loc[0] != 0 {
		return "", index + 1
	}
	return data[index+loc[2] : index+loc[3]], index + loc[1]
}

// materialize turns a string holding placeholders into elements. Leading
// text goes to parent (its text, or its tail when isText is false) and
// text after an element goes to that element's tail.
func (r *run) materialize(data string, parent etree.Node, isText bool) []etree.Node {
	var result []etree.Node
	linkText := func(text string) {
		switch {
		case text == "":
		case len(result) > 0:
			last := result[len(result)-1]
			last.SetTail(last.Tail() + text)
		case !isText:
			parent.SetTail(parent.Tail() + text)
		default:
			parent.SetText(parent.Text() + text)
		}
	}

	start := 0
	for start < len(data) {
		i := strings.Index(data[start:], session.InlinePlaceholderPrefix)
		if i < 0 {
			linkText(data[start:])
			break
		}
		index := start + i
		id, end := findPlaceholder(data, index)
		rep, ok := r.ctx.stash.Get(id)
		if !ok {
			r.ctx.Session().Log.WithField("offset", index).Debug("unknown inline placeholder kept as text")
			end = index + len(session.InlinePlaceholderPrefix)
			linkText(data[start:end])
			start = end
			continue
		}

		linkText(data[start:index])
		start = end
		if s, ok := rep.Text(); ok {
			linkText(s)
			continue
		}

		stashed, _ := rep.Node()
		node := r.doc.Import(stashed)
		if node.HasText() && strings.TrimSpace(node.Text()) != "" && !node.AtomicText() {
			r.processElementText(node, node, true)
		}
		for _, child := range node.Children() {
			if child.HasTail() && strings.TrimSpace(child.Tail()) != "" {
				r.processElementText(node, child, false)
			}
			if child.HasText() && strings.TrimSpace(child.Text()) != "" && !child.AtomicText() {
				r.processElementText(child, child, true)
			}
		}
		result = append(result, node)
	}
	return result
}

// processElementText materializes the text (or tail) of sub and inserts the
// resulting elements into node: at the front for a text, after sub for a
// tail.
func (r *run) processElementText(node, sub etree.Node, isText bool) {
	var text string
	if isText {
		text = sub.Text()
		sub.SetText("")
	} else {
		text = sub.Tail()
		sub.SetTail("")
	}
	children := r.materialize(text, sub, isText)

	pos := 0
	if !isText && node != sub {
		pos = node.Index(sub) + 1
	}
	for i, c := range children {
		node.Insert(pos+i, c)
	}
}
