// Package blockparser turns normalized Markdown lines into a document tree.
//
// Text is split into blocks at blank lines. Blocks sit in a queue and each
// front block is offered to the registered handlers in order; the first
// whose Test accepts it runs and consumes it. Handlers may push remainders
// back onto the front of the queue and may call back into the parser to
// parse sub-blocks under another parent, which is how lists and quotes
// nest. The paragraph handler accepts everything and must stay last.
package blockparser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alnah/go-markdown/etree"
	"github.com/alnah/go-markdown/session"
)

// Sentinel errors. Both are logic faults and are raised as panics; the
// converter recovers them.
var (
	ErrNoHandler       = errors.New("no block handler accepted the block")
	ErrHandlerStalled  = errors.New("block handler did not consume the front block")
	ErrUnbalancedState = errors.New("block handler left the state stack unbalanced")
)

// DefaultMaxDepth bounds recursive parse calls. Deeper content is emitted
// as plain paragraphs.
const DefaultMaxDepth = 256

// Handler is one block-level construct.
type Handler interface {
	// Test reports whether the handler wants block, given the parent the
	// block would be attached to.
	Test(p *Parser, parent etree.Node, block string) bool
	// Run consumes at least the front block of blocks.
	Run(p *Parser, parent etree.Node, blocks *Blocks)
}

// Parser holds the state of one block-level parse. Create one per document.
type Parser struct {
	handlers []Handler
	session  *session.Session
	maxDepth int
	depth    int

	// State records the constructs being parsed, innermost last.
	State State
}

// New returns a parser that consults handlers in order.
func New(handlers []Handler, s *session.Session) *Parser {
	return &Parser{handlers: handlers, session: s, maxDepth: DefaultMaxDepth}
}

// SetMaxDepth changes the recursion ceiling. Values below 1 are ignored.
func (p *Parser) SetMaxDepth(n int) {
	if n > 0 {
		p.maxDepth = n
	}
}

// Session returns the conversion context.
func (p *Parser) Session() *session.Session { return p.session }

// TabLength returns the number of spaces in one indentation level.
func (p *Parser) TabLength() int { return p.session.TabLength }

// WithState runs fn with name pushed on the state stack and pops it
// afterwards, even if fn panics.
func (p *Parser) WithState(name string, fn func()) {
	p.State.Set(name)
	defer p.State.Reset()
	fn()
}

// ParseDocument parses lines into a new tree whose root has tag docTag.
func (p *Parser) ParseDocument(lines []string, docTag string) *etree.Tree {
	tree := etree.NewTree(docTag)
	p.ParseChunk(tree.Root(), strings.Join(lines, "\n"))
	if p.State.Depth() != 0 {
		panic(fmt.Errorf("%w: %d entries left", ErrUnbalancedState, p.State.Depth()))
	}
	return tree
}

// ParseChunk splits text into blocks and parses them under parent.
func (p *Parser) ParseChunk(parent etree.Node, text string) {
	p.ParseBlocks(parent, strings.Split(text, "\n\n"))
}

// ParseBlocks parses blocks under parent.
func (p *Parser) ParseBlocks(parent etree.Node, blocks []string) {
	p.parse(parent, NewBlocks(blocks))
}

func (p *Parser) parse(parent etree.Node, q *Blocks) {
	p.depth++
	defer func() { p.depth-- }()

	if p.depth > p.maxDepth {
		p.session.Log.WithField("depth", p.depth).Warn("nesting limit reached, flattening blocks")
		p.flatten(parent, q)
		return
	}

	for q.Len() > 0 {
		h := p.handlerFor(parent, q.Front())
		pops, depth := q.pops, p.State.Depth()
		h.Run(p, parent, q)
		if p.State.Depth() != depth {
			panic(fmt.Errorf("%w: %T", ErrUnbalancedState, h))
		}
		if q.pops == pops {
			panic(fmt.Errorf("%w: %T", ErrHandlerStalled, h))
		}
	}
}

func (p *Parser) handlerFor(parent etree.Node, block string) Handler {
	for _, h := range p.handlers {
		if h.Test(p, parent, block) {
			return h
		}
	}
	panic(fmt.Errorf("%w: %q", ErrNoHandler, block))
}

func (p *Parser) flatten(parent etree.Node, q *Blocks) {
	for q.Len() > 0 {
		if block := strings.TrimSpace(q.Pop()); block != "" {
			SubElement(parent, "p").SetText(block)
		}
	}
}

// SubElement creates a tag element and appends it to parent.
func SubElement(parent etree.Node, tag string) etree.Node {
	n := parent.Tree().NewNode(tag)
	parent.Append(n)
	return n
}

// Blocks is the queue of blocks waiting to be parsed under one parent.
type Blocks struct {
	// items holds the queue reversed so both ends of interest are cheap.
	items []string
	pops  int
}

// NewBlocks returns a queue holding blocks in order.
func NewBlocks(blocks []string) *Blocks {
	items := make([]string, len(blocks))
	for i, b := range blocks {
		items[len(blocks)-1-i] = b
	}
	return &Blocks{items: items}
}

// Len returns the number of queued blocks.
func (b *Blocks) Len() int { return len(b.items) }

// Front returns the next block without removing it.
func (b *Blocks) Front() string { return b.items[len(b.items)-1] }

// Pop removes and returns the next block.
func (b *Blocks) Pop() string {
	n := len(b.items) - 1
	block := b.items[n]
	b.items = b.items[:n]
	b.pops++
	return block
}

// Push puts block at the front of the queue.
func (b *Blocks) Push(block string) { b.items = append(b.items, block) }

// State is the stack of constructs being parsed.
type State struct {
	stack []string
}

// Set pushes name.
func (s *State) Set(name string) { s.stack = append(s.stack, name) }

// Reset pops the innermost entry. It is a no-op on an empty stack.
func (s *State) Reset() {
	if n := len(s.stack); n > 0 {
		s.stack = s.stack[:n-1]
	}
}

// IsState reports whether the innermost entry is name.
func (s *State) IsState(name string) bool {
	n := len(s.stack)
	return n > 0 && s.stack[n-1] == name
}

// Depth returns the number of entries.
func (s *State) Depth() int { return len(s.stack) }
