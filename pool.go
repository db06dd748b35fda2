package markdown

import (
	"runtime"
	"sync"
)

// Pool sizing constants.
const (
	// MinPoolSize ensures at least one converter is available.
	MinPoolSize = 1

	// MaxPoolSize caps the number of converters kept alive.
	MaxPoolSize = 32
)

// Pool hands out Markdown instances built with the same options, one
// goroutine at a time. Instances are created lazily on first acquire.
type Pool struct {
	size      int
	newFn     func() (*Markdown, error)
	instances chan *Markdown
	mu        sync.Mutex
	created   int
}

// NewPool creates a pool with capacity for n converters. The options are
// validated once up front by building the first converter.
//
// Every converter receives the same extension values. Extensions that keep
// per-document state, such as a table of contents, need their own value
// per converter; build those with NewPoolFunc.
func NewPool(n int, opts ...Option) (*Pool, error) {
	return NewPoolFunc(n, func() (*Markdown, error) { return New(opts...) })
}

// NewPoolFunc creates a pool whose converters are built by newFn.
func NewPoolFunc(n int, newFn func() (*Markdown, error)) (*Pool, error) {
	if n < 1 {
		n = 1
	}
	first, err := newFn()
	if err != nil {
		return nil, err
	}

	p := &Pool{
		size:      n,
		newFn:     newFn,
		instances: make(chan *Markdown, n),
		created:   1,
	}
	p.instances <- first
	return p, nil
}

// Acquire gets a converter from the pool, creating one if needed.
// Blocks if all converters are in use.
func (p *Pool) Acquire() (*Markdown, error) {
	select {
	case md := <-p.instances:
		return md, nil
	default:
	}

	p.mu.Lock()
	if p.created < p.size {
		p.created++
		p.mu.Unlock()

		md, err := p.newFn()
		if err != nil {
			p.mu.Lock()
			p.created--
			p.mu.Unlock()
			return nil, err
		}
		return md, nil
	}
	p.mu.Unlock()

	return <-p.instances, nil
}

// Release resets md and returns it to the pool.
func (p *Pool) Release(md *Markdown) {
	p.instances <- md.Reset()
}

// Size returns the pool capacity.
func (p *Pool) Size() int {
	return p.size
}

// Convert converts source with a pooled converter.
func (p *Pool) Convert(source string) (string, error) {
	md, err := p.Acquire()
	if err != nil {
		return "", err
	}
	defer p.Release(md)
	return md.Convert(source)
}

// ResolvePoolSize determines the pool size.
// Priority: explicit workers > GOMAXPROCS.
func ResolvePoolSize(workers int) int {
	if workers > 0 {
		return workers
	}

	// GOMAXPROCS is adjusted by automaxprocs for containers.
	n := runtime.GOMAXPROCS(0)
	if n < MinPoolSize {
		return MinPoolSize
	}
	if n > MaxPoolSize {
		return MaxPoolSize
	}
	return n
}
