package etree

import (
	"sort"
	"strings"
)

// Node is a handle on one element of a Tree. The zero Node is null.
// Handles are small values; copy them freely.
type Node struct {
	tree *Tree
	id   nodeID
}

// IsNull reports whether n refers to no element.
func (n Node) IsNull() bool { return n.tree == nil }

// Tree returns the owning tree, or nil for a null node.
func (n Node) Tree() *Tree { return n.tree }

func (n Node) data() *node {
	if n.tree == nil {
		panic(ErrNullNode)
	}
	return &n.tree.nodes[n.id]
}

func (n Node) wrap(id nodeID) Node {
	if id == none {
		return Node{}
	}
	return Node{tree: n.tree, id: id}
}

// Tag returns the element name. An empty tag is a transparent wrapper.
func (n Node) Tag() string { return n.data().tag }

// SetTag renames the element.
func (n Node) SetTag(tag string) { n.data().tag = tag }

// Attr returns the value of the attribute key.
func (n Node) Attr(key string) (string, bool) {
	v, ok := n.data().attrs[key]
	return v, ok
}

// SetAttr sets the attribute key to value.
func (n Node) SetAttr(key, value string) {
	d := n.data()
	if d.attrs == nil {
		d.attrs = make(map[string]string)
	}
	d.attrs[key] = value
}

// DeleteAttr removes the attribute key.
func (n Node) DeleteAttr(key string) { delete(n.data().attrs, key) }

// AttrKeys returns the attribute names in sorted order.
func (n Node) AttrKeys() []string {
	attrs := n.data().attrs
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Text returns the text before the first child.
func (n Node) Text() string { return n.data().text }

// SetText replaces the text and clears the atomic flag.
func (n Node) SetText(s string) {
	d := n.data()
	d.text = s
	d.atomic = false
}

// SetAtomicText replaces the text and marks it as final: inline patterns
// never rescan atomic text.
func (n Node) SetAtomicText(s string) {
	d := n.data()
	d.text = s
	d.atomic = true
}

// AtomicText reports whether the text was set with SetAtomicText.
func (n Node) AtomicText() bool { return n.data().atomic }

// HasText reports whether the node has non-empty text.
func (n Node) HasText() bool { return n.data().text != "" }

// Tail returns the text that follows the node inside its parent.
func (n Node) Tail() string { return n.data().tail }

// SetTail replaces the tail. Detached nodes may carry a tail; it shows up
// wherever the node is attached later.
func (n Node) SetTail(s string) { n.data().tail = s }

// HasTail reports whether the node has a non-empty tail.
func (n Node) HasTail() bool { return n.data().tail != "" }

// Parent returns the parent, or a null node for a root or detached node.
func (n Node) Parent() Node { return n.wrap(n.data().parent) }

// FirstChild returns the first child or a null node.
func (n Node) FirstChild() Node { return n.wrap(n.data().first) }

// LastChild returns the last child or a null node.
func (n Node) LastChild() Node { return n.wrap(n.data().last) }

// NextSibling returns the following sibling or a null node.
func (n Node) NextSibling() Node { return n.wrap(n.data().next) }

// PrevSibling returns the preceding sibling or a null node.
func (n Node) PrevSibling() Node { return n.wrap(n.data().prev) }

// ChildCount returns the number of children.
func (n Node) ChildCount() int { return n.data().count }

// Children returns a snapshot of the children. Later mutations do not
// affect the returned slice.
func (n Node) Children() []Node {
	d := n.data()
	out := make([]Node, 0, d.count)
	for c := d.first; c != none; c = n.tree.nodes[c].next {
		out = append(out, Node{tree: n.tree, id: c})
	}
	return out
}

// Child returns the i-th child, or a null node when i is out of range.
func (n Node) Child(i int) Node {
	if i < 0 {
		return Node{}
	}
	for c := n.data().first; c != none; c = n.tree.nodes[c].next {
		if i == 0 {
			return Node{tree: n.tree, id: c}
		}
		i--
	}
	return Node{}
}

// Index returns the position of child among the children of n, or -1.
func (n Node) Index(child Node) int {
	if child.tree != n.tree {
		return -1
	}
	i := 0
	for c := n.data().first; c != none; c = n.tree.nodes[c].next {
		if c == child.id {
			return i
		}
		i++
	}
	return -1
}

// Append moves child to the end of the children of n. A child attached
// elsewhere is detached first; its tail travels with it.
func (n Node) Append(child Node) {
	n.tree.own(child)
	n.tree.detach(child.id)
	n.tree.link(n.id, child.id, none)
}

// Insert moves child to position i. Positions past the end append.
func (n Node) Insert(i int, child Node) {
	n.tree.own(child)
	n.tree.detach(child.id)
	ref := n.Child(i)
	if ref.IsNull() {
		n.tree.link(n.id, child.id, none)
		return
	}
	n.tree.link(n.id, child.id, ref.id)
}

// InsertBefore moves child immediately before ref. It fails with
// ErrNotChild and leaves the tree unchanged when ref is not a child of n.
func (n Node) InsertBefore(child, ref Node) error {
	n.tree.own(child)
	if ref.tree != n.tree || ref.IsNull() || n.tree.nodes[ref.id].parent != n.id {
		return ErrNotChild
	}
	if child.id == ref.id {
		return nil
	}
	n.tree.detach(child.id)
	n.tree.link(n.id, child.id, ref.id)
	return nil
}

// Remove detaches child from n. The child keeps its tail, so that text no
// longer appears inside n. Remove reports false when child is not a child
// of n.
func (n Node) Remove(child Node) bool {
	if child.tree != n.tree || child.IsNull() || n.tree.nodes[child.id].parent != n.id {
		return false
	}
	n.tree.detach(child.id)
	return true
}

// Clear removes children, attributes, text and tail.
func (n Node) Clear() {
	for _, c := range n.Children() {
		n.tree.detach(c.id)
	}
	d := n.data()
	d.attrs = nil
	d.text, d.tail, d.atomic = "", "", false
}

// Iter returns n and its descendants in document order, keeping only
// elements with the given tag. An empty tag keeps everything.
func (n Node) Iter(tag string) []Node {
	var out []Node
	stack := []nodeID{n.id}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		d := &n.tree.nodes[id]
		if tag == "" || d.tag == tag {
			out = append(out, Node{tree: n.tree, id: id})
		}
		for c := d.last; c != none; c = n.tree.nodes[c].prev {
			stack = append(stack, c)
		}
	}
	return out
}

// TextContent concatenates the text of n and its descendants with the
// tails of the descendants, in document order. The tail of n is excluded.
func (n Node) TextContent() string {
	var b strings.Builder
	n.writeText(&b)
	return b.String()
}

func (n Node) writeText(b *strings.Builder) {
	d := n.data()
	b.WriteString(d.text)
	for c := d.first; c != none; c = n.tree.nodes[c].next {
		child := Node{tree: n.tree, id: c}
		child.writeText(b)
		b.WriteString(n.tree.nodes[c].tail)
	}
}
