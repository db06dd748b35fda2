package inline

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
	"github.com/yuin/goldmark/util"

	"github.com/alnah/go-markdown/etree"
	"github.com/alnah/go-markdown/registry"
	"github.com/alnah/go-markdown/session"
)

// Building blocks of the link expressions. A bracketed text may nest six
// levels of brackets.
const (
	noBracket = `[^\]\[]*`
	brk       = `\[(` +
		noBracket + `(\[` + noBracket + `(\[` + noBracket + `(\[` + noBracket + `(\[` + noBracket + `(\[` + noBracket + `(\[` +
		noBracket + `\])*` + noBracket + `\])*` + noBracket + `\])*` + noBracket + `\])*` + noBracket + `\])*` + noBracket + `\])*` +
		noBracket + `)\]`
	noImg = `(?<!\!)`
)

// Expressions of the built-in patterns. Group numbers count the lead group
// added by Compile.
const (
	BacktickRE       = "(?<!\\\\)(`+)(.+?)(?<!`)\\2(?!`)"
	EscapeRE         = `\\(.)`
	EmphasisRE       = `(\*)([^\*]+)\2`
	StrongRE         = `(\*{2}|_{2})(.+?)\2`
	StrongEmRE       = `(\*{3}|_{3})(.+?)\2`
	SmartEmphasisRE  = `(?<!\w)(_)(?!_)(.+?)(?<!_)\2(?!\w)`
	Emphasis2RE      = `(_)(.+?)\2`
	LinkRE           = noImg + brk + `\(\s*(<.*?>|((?:(?:\(.*?\))|[^\(\)]))*?)\s*((['"])(.*?)\12\s*)?\)`
	ImageLinkRE      = `\!` + brk + `\s*\((<.*?>|([^\)]*))\)`
	ReferenceRE      = noImg + brk + `\s?\[([^\]]*)\]`
	ShortRefRE       = noImg + `\[([^\]]+)\]`
	ImageReferenceRE = `\!` + brk + `\s?\[([^\]]*)\]`
	NotStrongRE      = `((^| )(\*|_)( |$))`
	AutolinkRE       = `<((?:[Ff]|[Hh][Tt])[Tt][Pp][Ss]?://[^>]*)>`
	AutomailRE       = `<([^> \!]*@[^> ]*)>`
	HTMLRE           = `(<([a-zA-Z/][^>]*?|\!--.*?--)>)`
	EntityRE         = `(&[\#a-zA-Z0-9]*;)`
	LineBreakRE      = `  \n`
)

// Defaults returns the built-in patterns in priority order for opts. The
// inline html pattern is left out in escape mode, and SmartEmphasis picks
// the underscore emphasis flavour.
func Defaults(opts session.Options) *registry.Registry[Pattern] {
	r := registry.New[Pattern]()
	r.Append("backtick", NewBacktick(BacktickRE))
	r.Append("escape", NewEscape(EscapeRE))
	r.Append("reference", NewReference(ReferenceRE))
	r.Append("link", NewLink(LinkRE))
	r.Append("image_link", NewImage(ImageLinkRE))
	r.Append("image_reference", NewImageReference(ImageReferenceRE))
	r.Append("short_reference", NewReference(ShortRefRE))
	r.Append("autolink", NewAutolink(AutolinkRE))
	r.Append("automail", NewAutomail(AutomailRE))
	r.Append("linebreak", NewSubstituteTag(LineBreakRE, "br"))
	if opts.SafeMode != session.SafeEscape {
		r.Append("html", NewHTML(HTMLRE))
	}
	r.Append("entity", NewEntity(EntityRE))
	r.Append("not_strong", NewSimpleText(NotStrongRE))
	r.Append("strong_em", NewDoubleTag(StrongEmRE, "strong", "em"))
	r.Append("strong", NewSimpleTag(StrongRE, "strong"))
	r.Append("emphasis", NewSimpleTag(EmphasisRE, "em"))
	if opts.SmartEmphasis {
		r.Append("emphasis2", NewSimpleTag(SmartEmphasisRE, "em"))
	} else {
		r.Append("emphasis2", NewSimpleTag(Emphasis2RE, "em"))
	}
	return r
}

// Compile-time interface checks.
var (
	_ Pattern = (*SimpleTextPattern)(nil)
	_ Pattern = (*EscapePattern)(nil)
	_ Pattern = (*SimpleTagPattern)(nil)
	_ Pattern = (*SubstituteTagPattern)(nil)
	_ Pattern = (*BacktickPattern)(nil)
	_ Pattern = (*DoubleTagPattern)(nil)
	_ Pattern = (*HTMLPattern)(nil)
	_ Pattern = (*EntityPattern)(nil)
	_ Pattern = (*LinkPattern)(nil)
	_ Pattern = (*ImagePattern)(nil)
	_ Pattern = (*ReferencePattern)(nil)
	_ Pattern = (*ImageReferencePattern)(nil)
	_ Pattern = (*AutolinkPattern)(nil)
	_ Pattern = (*AutomailPattern)(nil)
)

type compiled struct {
	re *regexp2.Regexp
}

func (c compiled) Regexp() *regexp2.Regexp { return c.re }

// SimpleTextPattern returns group 2 as plain text.
type SimpleTextPattern struct{ compiled }

// NewSimpleText compiles expr.
func NewSimpleText(expr string) *SimpleTextPattern {
	return &SimpleTextPattern{compiled{Compile(expr)}}
}

func (p *SimpleTextPattern) HandleMatch(_ *Context, m Match) Replacement {
	text := m.Group(2)
	if text == session.InlinePlaceholderPrefix {
		return NoReplacement
	}
	return TextReplacement(text)
}

// EscapePattern turns a backslash escape into a marker that the unescape
// postprocessor restores. Characters outside the escapable set are left
// alone.
type EscapePattern struct{ compiled }

// NewEscape compiles expr. Group 2 must hold the escaped character.
func NewEscape(expr string) *EscapePattern {
	return &EscapePattern{compiled{Compile(expr)}}
}

func (p *EscapePattern) HandleMatch(c *Context, m Match) Replacement {
	r, size := utf8.DecodeRuneInString(m.Group(2))
	if size == 0 || !c.Session().Escapable(r) {
		return NoReplacement
	}
	return TextReplacement(session.EscapeMarker(r))
}

// SimpleTagPattern wraps group 3 in an element.
type SimpleTagPattern struct {
	compiled
	tag string
}

// NewSimpleTag compiles expr for elements named tag.
func NewSimpleTag(expr, tag string) *SimpleTagPattern {
	return &SimpleTagPattern{compiled: compiled{Compile(expr)}, tag: tag}
}

func (p *SimpleTagPattern) HandleMatch(c *Context, m Match) Replacement {
	el := c.NewElement(p.tag)
	el.SetText(m.Group(3))
	return NodeReplacement(el)
}

// SubstituteTagPattern replaces the match by an empty element.
type SubstituteTagPattern struct {
	compiled
	tag string
}

// NewSubstituteTag compiles expr for elements named tag.
func NewSubstituteTag(expr, tag string) *SubstituteTagPattern {
	return &SubstituteTagPattern{compiled: compiled{Compile(expr)}, tag: tag}
}

func (p *SubstituteTagPattern) HandleMatch(c *Context, _ Match) Replacement {
	return NodeReplacement(c.NewElement(p.tag))
}

// BacktickPattern produces a code span. Its text is final.
type BacktickPattern struct{ compiled }

// NewBacktick compiles expr. Group 3 must hold the code.
func NewBacktick(expr string) *BacktickPattern {
	return &BacktickPattern{compiled{Compile(expr)}}
}

func (p *BacktickPattern) HandleMatch(c *Context, m Match) Replacement {
	el := c.NewElement("code")
	el.SetAtomicText(strings.TrimSpace(m.Group(3)))
	return NodeReplacement(el)
}

// DoubleTagPattern wraps group 3 in inner, nested inside outer.
type DoubleTagPattern struct {
	compiled
	outer, inner string
}

// NewDoubleTag compiles expr for outer>inner elements.
func NewDoubleTag(expr, outer, inner string) *DoubleTagPattern {
	return &DoubleTagPattern{compiled: compiled{Compile(expr)}, outer: outer, inner: inner}
}

func (p *DoubleTagPattern) HandleMatch(c *Context, m Match) Replacement {
	el := c.NewElement(p.outer)
	in := c.NewElement(p.inner)
	in.SetText(m.Group(3))
	el.Append(in)
	return NodeReplacement(el)
}

// HTMLPattern moves inline raw HTML into the raw-HTML stash.
type HTMLPattern struct{ compiled }

// NewHTML compiles expr. Group 2 must hold the markup.
func NewHTML(expr string) *HTMLPattern {
	return &HTMLPattern{compiled{Compile(expr)}}
}

func (p *HTMLPattern) HandleMatch(c *Context, m Match) Replacement {
	raw := c.UnescapeHTML(m.Group(2))
	return TextReplacement(c.Session().HTMLStash.Store(raw, false))
}

var numericEntityRE = regexp.MustCompile(`^#(?:[0-9]+|[xX][0-9a-fA-F]+)$`)

// EntityPattern keeps known character references away from escaping.
// Unknown names are declined so that their ampersand gets escaped.
type EntityPattern struct{ compiled }

// NewEntity compiles expr. Group 2 must hold the whole reference.
func NewEntity(expr string) *EntityPattern {
	return &EntityPattern{compiled{Compile(expr)}}
}

func (p *EntityPattern) HandleMatch(c *Context, m Match) Replacement {
	ref := m.Group(2)
	name := strings.TrimSuffix(strings.TrimPrefix(ref, "&"), ";")
	if !numericEntityRE.MatchString(name) {
		if _, ok := util.LookUpHTML5EntityByName(name); !ok {
			return NoReplacement
		}
	}
	return TextReplacement(c.Session().HTMLStash.Store(ref, true))
}

func dequote(s string) string {
	if len(s) >= 2 && (s[0] == '"' && s[len(s)-1] == '"' || s[0] == '\'' && s[len(s)-1] == '\'') {
		return s[1 : len(s)-1]
	}
	return s
}

// LinkPattern handles [text](url "title").
type LinkPattern struct{ compiled }

// NewLink compiles expr. Groups 2, 9 and 13 hold text, url and title.
func NewLink(expr string) *LinkPattern {
	return &LinkPattern{compiled{Compile(expr)}}
}

func (p *LinkPattern) HandleMatch(c *Context, m Match) Replacement {
	el := c.NewElement("a")
	el.SetText(m.Group(2))

	href := m.Group(9)
	if href != "" {
		if href[0] == '<' {
			href = href[1 : len(href)-1]
		}
		el.SetAttr("href", c.SanitizeURL(c.Unescape(strings.TrimSpace(href))))
	} else {
		el.SetAttr("href", "")
	}
	if title := m.Group(13); title != "" {
		el.SetAttr("title", dequote(c.Unescape(title)))
	}
	return NodeReplacement(el)
}

// ImagePattern handles ![alt](src "title").
type ImagePattern struct{ compiled }

// NewImage compiles expr. Group 2 holds the alt text and group 9 the source
// followed by an optional title.
func NewImage(expr string) *ImagePattern {
	return &ImagePattern{compiled{Compile(expr)}}
}

func (p *ImagePattern) HandleMatch(c *Context, m Match) Replacement {
	el := c.NewElement("img")
	parts := strings.Fields(m.Group(9))
	if len(parts) > 0 {
		src := parts[0]
		if len(src) >= 2 && src[0] == '<' && src[len(src)-1] == '>' {
			src = src[1 : len(src)-1]
		}
		el.SetAttr("src", c.SanitizeURL(c.Unescape(src)))
	} else {
		el.SetAttr("src", "")
	}
	if len(parts) > 1 {
		el.SetAttr("title", dequote(c.Unescape(strings.Join(parts[1:], " "))))
	}

	alt := m.Group(2)
	if c.Session().EnableAttributes {
		alt = handleAttributes(alt, el)
	}
	el.SetAttr("alt", c.Unescape(alt))
	return NodeReplacement(el)
}

// ReferencePattern handles [text][id], [text][] and [text] links to
// reference definitions. Unknown ids are declined.
type ReferencePattern struct{ compiled }

// NewReference compiles expr. Group 2 holds the text and the optional
// group 9 the id.
func NewReference(expr string) *ReferencePattern {
	return &ReferencePattern{compiled{Compile(expr)}}
}

func lookupReference(c *Context, m Match) (session.Reference, bool) {
	id := m.Group(9)
	if id == "" {
		id = m.Group(2)
	}
	return c.Session().References.Lookup(id)
}

func (p *ReferencePattern) HandleMatch(c *Context, m Match) Replacement {
	ref, ok := lookupReference(c, m)
	if !ok {
		return NoReplacement
	}
	el := c.NewElement("a")
	el.SetAttr("href", c.SanitizeURL(ref.URL))
	if ref.Title != "" {
		el.SetAttr("title", ref.Title)
	}
	el.SetText(m.Group(2))
	return NodeReplacement(el)
}

// ImageReferencePattern handles ![alt][id].
type ImageReferencePattern struct{ compiled }

// NewImageReference compiles expr with the groups of NewReference.
func NewImageReference(expr string) *ImageReferencePattern {
	return &ImageReferencePattern{compiled{Compile(expr)}}
}

func (p *ImageReferencePattern) HandleMatch(c *Context, m Match) Replacement {
	ref, ok := lookupReference(c, m)
	if !ok {
		return NoReplacement
	}
	el := c.NewElement("img")
	el.SetAttr("src", c.SanitizeURL(ref.URL))
	if ref.Title != "" {
		el.SetAttr("title", ref.Title)
	}
	alt := m.Group(2)
	if c.Session().EnableAttributes {
		alt = handleAttributes(alt, el)
	}
	el.SetAttr("alt", c.Unescape(alt))
	return NodeReplacement(el)
}

// AutolinkPattern handles <http://example.com>.
type AutolinkPattern struct{ compiled }

// NewAutolink compiles expr. Group 2 holds the address.
func NewAutolink(expr string) *AutolinkPattern {
	return &AutolinkPattern{compiled{Compile(expr)}}
}

func (p *AutolinkPattern) HandleMatch(c *Context, m Match) Replacement {
	el := c.NewElement("a")
	el.SetAttr("href", c.Unescape(m.Group(2)))
	el.SetAtomicText(m.Group(2))
	return NodeReplacement(el)
}

// AutomailPattern handles <user@example.com>. The link text is written
// with character references, named where HTML 4 has a name, and the link
// target with numeric ones.
type AutomailPattern struct{ compiled }

// NewAutomail compiles expr. Group 2 holds the address.
func NewAutomail(expr string) *AutomailPattern {
	return &AutomailPattern{compiled{Compile(expr)}}
}

func (p *AutomailPattern) HandleMatch(c *Context, m Match) Replacement {
	email := strings.TrimPrefix(c.Unescape(m.Group(2)), "mailto:")
	el := c.NewElement("a")
	el.SetAtomicText(namedRefs(email))
	el.SetAttr("href", charRefs("mailto:"+email))
	return NodeReplacement(el)
}

// namedRefs writes each rune of s as a named entity when one exists and
// as a numeric reference otherwise.
func namedRefs(s string) string {
	var b strings.Builder
	for _, r := range s {
		b.WriteString(session.AmpSubstitute)
		if name, ok := html4Names[r]; ok {
			b.WriteString(name)
		} else {
			b.WriteByte('#')
			b.WriteString(strconv.Itoa(int(r)))
		}
		b.WriteByte(';')
	}
	return b.String()
}

// charRefs writes each rune of s as a numeric reference.
func charRefs(s string) string {
	var b strings.Builder
	for _, r := range s {
		b.WriteString(session.AmpSubstitute)
		b.WriteByte('#')
		b.WriteString(strconv.Itoa(int(r)))
		b.WriteByte(';')
	}
	return b.String()
}

var attrRE = regexp.MustCompile(`\{@([^\}]*)=([^\}]*)\}`)

// handleAttributes applies every {@key=value} directive in text to el and
// returns text without them.
func handleAttributes(text string, el etree.Node) string {
	return attrRE.ReplaceAllStringFunc(text, func(d string) string {
		sm := attrRE.FindStringSubmatch(d)
		el.SetAttr(sm[1], strings.ReplaceAll(sm[2], "\n", " "))
		return ""
	})
}
