// Package etree is the document tree shared by every conversion stage.
//
// Nodes live in an arena owned by a Tree and are addressed through Node
// handles. Each node carries a tag, attributes, text before its first
// child, and a tail: the text that follows the node inside its parent,
// before the next sibling. Because the tail is stored on the node it
// moves with the node: appending a node elsewhere carries its tail along,
// and removing a node takes its tail out of the former parent.
//
// Handles from different trees never mix. Linking a node owned by another
// tree panics with ErrForeignNode; copy it first with Tree.Import.
package etree

import (
	"fmt"
	"sync/atomic"
)

type nodeID int32

const none nodeID = -1

type node struct {
	tag    string
	attrs  map[string]string
	text   string
	tail   string
	atomic bool

	parent nodeID
	first  nodeID
	last   nodeID
	prev   nodeID
	next   nodeID
	count  int
}

// Tree owns an arena of nodes and one root.
type Tree struct {
	id    uint64
	nodes []node
	root  nodeID
}

var treeSeq atomic.Uint64

// NewTree creates a tree whose root element has the given tag.
func NewTree(rootTag string) *Tree {
	t := &Tree{id: treeSeq.Add(1)}
	t.root = t.alloc(rootTag)
	return t
}

// ID identifies the tree. No two trees created by one process share an ID.
func (t *Tree) ID() uint64 { return t.id }

// Root returns the root element.
func (t *Tree) Root() Node { return Node{tree: t, id: t.root} }

// Len reports how many nodes the arena holds, attached or not.
func (t *Tree) Len() int { return len(t.nodes) }

// NewNode creates a detached element owned by t.
func (t *Tree) NewNode(tag string) Node {
	return Node{tree: t, id: t.alloc(tag)}
}

// SetRoot makes n the root of t. n must be owned by t and detached.
func (t *Tree) SetRoot(n Node) {
	t.own(n)
	t.detach(n.id)
	t.root = n.id
}

// Import copies the subtree rooted at n into t and returns the detached copy.
// Text, tail, attributes and atomic flags are preserved. The source tree is
// left untouched.
func (t *Tree) Import(n Node) Node {
	if n.IsNull() {
		panic(ErrNullNode)
	}
	return Node{tree: t, id: t.copyFrom(n.tree, n.id)}
}

func (t *Tree) copyFrom(src *Tree, id nodeID) nodeID {
	s := src.nodes[id]
	c := t.alloc(s.tag)
	d := &t.nodes[c]
	d.text, d.tail, d.atomic = s.text, s.tail, s.atomic
	if len(s.attrs) > 0 {
		d.attrs = make(map[string]string, len(s.attrs))
		for k, v := range s.attrs {
			d.attrs[k] = v
		}
	}
	for ch := s.first; ch != none; ch = src.nodes[ch].next {
		// src may be t itself; index through the slice after each alloc.
		cc := t.copyFrom(src, ch)
		t.link(c, cc, none)
	}
	return c
}

func (t *Tree) alloc(tag string) nodeID {
	t.nodes = append(t.nodes, node{tag: tag, parent: none, first: none, last: none, prev: none, next: none})
	return nodeID(len(t.nodes) - 1)
}

func (t *Tree) own(n Node) {
	if n.tree == nil {
		panic(ErrNullNode)
	}
	if n.tree != t {
		panic(fmt.Errorf("%w: node of tree %d linked into tree %d", ErrForeignNode, n.tree.id, t.id))
	}
}

// detach unlinks id from its parent, if any.
func (t *Tree) detach(id nodeID) {
	n := &t.nodes[id]
	if n.parent == none {
		return
	}
	p := &t.nodes[n.parent]
	if n.prev != none {
		t.nodes[n.prev].next = n.next
	} else {
		p.first = n.next
	}
	if n.next != none {
		t.nodes[n.next].prev = n.prev
	} else {
		p.last = n.prev
	}
	p.count--
	n.parent, n.prev, n.next = none, none, none
}

// link attaches the detached child under parent, before ref or at the end
// when ref is none.
func (t *Tree) link(parent, child, ref nodeID) {
	for a := parent; a != none; a = t.nodes[a].parent {
		if a == child {
			panic(ErrCycle)
		}
	}
	p := &t.nodes[parent]
	c := &t.nodes[child]
	c.parent = parent
	if ref == none {
		c.prev = p.last
		c.next = none
		if p.last != none {
			t.nodes[p.last].next = child
		} else {
			p.first = child
		}
		p.last = child
	} else {
		r := &t.nodes[ref]
		c.prev = r.prev
		c.next = ref
		if r.prev != none {
			t.nodes[r.prev].next = child
		} else {
			p.first = child
		}
		r.prev = child
	}
	p.count++
}
