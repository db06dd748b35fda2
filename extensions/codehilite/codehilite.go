// Package codehilite highlights code blocks with chroma.
//
// The language of a block comes from its first line:
//
//	:::go            language line, removed
//	#!python         language line, removed, line numbers on
//	#!/usr/bin/sh    kept as code, line numbers on
//
// Without a language line the lexer is guessed from the content, unless
// guessing is disabled, in which case the block is rendered as plain text.
package codehilite

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"

	markdown "github.com/alnah/go-markdown"
	"github.com/alnah/go-markdown/etree"
	"github.com/alnah/go-markdown/session"
)

// Defaults.
const (
	DefaultCSSClass = "codehilite"
	DefaultStyle    = "github"
)

// langRE matches a ":::lang" or "#!lang" first line. A path after the
// shebang means the line belongs to the code.
var langRE = regexp.MustCompile(`^(?:(?:::+)|(#!))((?:/\w+)*[/ ])?([\w+-]*)`)

// Option configures the extension.
type Option func(*Extension)

// WithCSSClass sets the class of the wrapping div.
func WithCSSClass(class string) Option {
	return func(e *Extension) { e.cssClass = class }
}

// WithStyle selects a chroma style. Unknown names fall back to chroma's
// default style.
func WithStyle(name string) Option {
	return func(e *Extension) { e.style = name }
}

// WithLineNumbers forces line numbers on or off. Without it, a shebang
// first line turns them on.
func WithLineNumbers(on bool) Option {
	return func(e *Extension) { e.lineNumbers = &on }
}

// WithGuessLang enables or disables lexer guessing for blocks without a
// language line. Guessing is on by default.
func WithGuessLang(guess bool) Option {
	return func(e *Extension) { e.guess = guess }
}

// WithNoClasses emits inline styles instead of CSS classes.
func WithNoClasses() Option {
	return func(e *Extension) { e.noClasses = true }
}

// Extension is the code highlighting extension.
type Extension struct {
	cssClass    string
	style       string
	lineNumbers *bool
	guess       bool
	noClasses   bool
}

var (
	_ markdown.Extension     = (*Extension)(nil)
	_ markdown.TreeProcessor = (*processor)(nil)
)

// New returns the extension.
func New(opts ...Option) *Extension {
	e := &Extension{cssClass: DefaultCSSClass, style: DefaultStyle, guess: true}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extend registers the "hilite" tree processor before the inline processor.
func (e *Extension) Extend(md *markdown.Markdown) error {
	return md.TreeProcessors.Insert("hilite", &processor{ext: e}, "<inline")
}

// CSS returns the stylesheet of the configured style for class-based
// output.
func (e *Extension) CSS() (string, error) {
	var buf bytes.Buffer
	if err := chromahtml.New(chromahtml.WithClasses(true)).WriteCSS(&buf, styles.Get(e.style)); err != nil {
		return "", fmt.Errorf("codehilite: %w", err)
	}
	return buf.String(), nil
}

type processor struct{ ext *Extension }

func (p *processor) Run(s *session.Session, root etree.Node) etree.Node {
	for _, pre := range root.Iter("pre") {
		if pre.ChildCount() != 1 || pre.FirstChild().Tag() != "code" {
			continue
		}
		out, err := p.ext.highlight(pre.FirstChild().Text())
		if err != nil {
			s.Log.WithError(err).Warn("code block left unhighlighted")
			continue
		}
		placeholder := s.HTMLStash.Store(out, true)
		pre.Clear()
		pre.SetTag("p")
		pre.SetText(placeholder)
	}
	return etree.Node{}
}

// block is a code block with its language line resolved.
type block struct {
	source      string
	lang        string
	lineNumbers bool
}

func (e *Extension) parse(src string) block {
	b := block{source: src}
	if e.lineNumbers != nil {
		b.lineNumbers = *e.lineNumbers
	}
	first, rest, _ := strings.Cut(src, "\n")
	m := langRE.FindStringSubmatch(first)
	if m == nil {
		return b
	}
	b.lang = strings.ToLower(m[3])
	if m[2] == "" {
		b.source = rest
	}
	if e.lineNumbers == nil && m[1] != "" {
		b.lineNumbers = true
	}
	return b
}

func (e *Extension) lexer(b block) chroma.Lexer {
	var l chroma.Lexer
	switch {
	case b.lang != "":
		l = lexers.Get(b.lang)
	case e.guess:
		l = lexers.Analyse(b.source)
	}
	if l == nil {
		l = lexers.Fallback
	}
	return chroma.Coalesce(l)
}

func (e *Extension) highlight(src string) (string, error) {
	b := e.parse(src)
	it, err := e.lexer(b).Tokenise(nil, b.source)
	if err != nil {
		return "", fmt.Errorf("codehilite: tokenise: %w", err)
	}
	f := chromahtml.New(
		chromahtml.WithClasses(!e.noClasses),
		chromahtml.WithLineNumbers(b.lineNumbers),
	)
	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<div class="%s">`, e.cssClass)
	if err := f.Format(&buf, styles.Get(e.style), it); err != nil {
		return "", fmt.Errorf("codehilite: format: %w", err)
	}
	buf.WriteString("</div>\n")
	return buf.String(), nil
}
