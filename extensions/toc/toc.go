// Package toc gives every heading an id and replaces a paragraph holding
// only the marker (by default "[TOC]") with a nested list of links to the
// headings.
package toc

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	markdown "github.com/alnah/go-markdown"
	"github.com/alnah/go-markdown/etree"
	"github.com/alnah/go-markdown/session"
)

// DefaultMarker is the paragraph text replaced by the table of contents.
const DefaultMarker = "[TOC]"

var (
	headingRE = regexp.MustCompile(`^h[1-6]$`)
	nonWordRE = regexp.MustCompile(`[^\w\s-]`)
	spacingRE = regexp.MustCompile(`[-\s]+`)
	idCountRE = regexp.MustCompile(`^(.*)_([0-9]+)$`)
	markerRE  = regexp.MustCompile(session.STX + `([0-9]+)` + session.ETX)
	stashedRE = regexp.MustCompile(regexp.QuoteMeta(session.HTMLPlaceholderPrefix) + `[0-9]+` + session.ETX)
)

// Classes of the generated container and title.
const (
	ContainerClass = "toc"
	TitleClass     = "toctitle"
)

// Option configures the extension.
type Option func(*Extension)

// WithMarker changes the marker text. An empty marker disables the
// replacement; headings still get ids.
func WithMarker(marker string) Option {
	return func(e *Extension) { e.marker = marker }
}

// WithTitle adds a title above the list.
func WithTitle(title string) Option {
	return func(e *Extension) { e.title = title }
}

// Extension is the table of contents extension. It remembers the list
// built for the last document until Reset.
type Extension struct {
	marker string
	title  string
	md     *markdown.Markdown
	last   string
}

var (
	_ markdown.Extension     = (*Extension)(nil)
	_ markdown.Resetter      = (*Extension)(nil)
	_ markdown.TreeProcessor = (*processor)(nil)
)

// New returns the extension.
func New(opts ...Option) *Extension {
	e := &Extension{marker: DefaultMarker}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extend registers the "toc" tree processor after the inline processor.
func (e *Extension) Extend(md *markdown.Markdown) error {
	e.md = md
	return md.TreeProcessors.Insert("toc", &processor{ext: e}, ">inline")
}

// TOC returns the table of contents of the last document as markup.
func (e *Extension) TOC() string { return e.last }

// Reset forgets the last table of contents.
func (e *Extension) Reset() { e.last = "" }

type processor struct{ ext *Extension }

type level struct {
	depth int
	list  etree.Node
}

func (p *processor) Run(_ *session.Session, root etree.Node) etree.Node {
	tree := root.Tree()
	seen := make(map[string]bool)
	var stack []level

	for _, h := range root.Iter("") {
		if !headingRE.MatchString(h.Tag()) {
			continue
		}
		text := plainText(h.TextContent())
		id, ok := h.Attr("id")
		if !ok {
			id = unique(Slugify(text), seen)
			h.SetAttr("id", id)
		} else {
			seen[id] = true
		}

		depth := int(h.Tag()[1] - '0')
		if len(stack) == 0 {
			stack = append(stack, level{depth, tree.NewNode("ul")})
		}
		for len(stack) > 1 && depth < stack[len(stack)-1].depth {
			stack = stack[:len(stack)-1]
		}
		if top := stack[len(stack)-1]; depth > top.depth {
			ul := tree.NewNode("ul")
			if last := top.list.LastChild(); !last.IsNull() {
				last.Append(ul)
			} else {
				top.list.Append(ul)
			}
			stack = append(stack, level{depth, ul})
		}

		li := tree.NewNode("li")
		a := tree.NewNode("a")
		a.SetAttr("href", "#"+id)
		a.SetText(text)
		li.Append(a)
		stack[len(stack)-1].list.Append(li)
	}

	div := tree.NewNode("div")
	div.SetAttr("class", ContainerClass)
	if p.ext.title != "" {
		span := tree.NewNode("span")
		span.SetAttr("class", TitleClass)
		span.SetText(p.ext.title)
		div.Append(span)
	}
	if len(stack) > 0 {
		div.Append(stack[0].list)
	}
	if p.ext.md != nil {
		p.ext.last = p.ext.md.Serialize(div)
	}

	if p.ext.marker != "" {
		p.replaceMarkers(root, div)
	}
	return etree.Node{}
}

// replaceMarkers swaps every marker paragraph for a copy of toc.
func (p *processor) replaceMarkers(root, toc etree.Node) {
	for _, para := range root.Iter("p") {
		if para.ChildCount() != 0 || strings.TrimSpace(para.Text()) != p.ext.marker {
			continue
		}
		para.SetTag("div")
		para.SetText("")
		for _, k := range para.AttrKeys() {
			para.DeleteAttr(k)
		}
		copied := root.Tree().Import(toc)
		for _, k := range copied.AttrKeys() {
			v, _ := copied.Attr(k)
			para.SetAttr(k, v)
		}
		for _, c := range copied.Children() {
			para.Append(c)
		}
	}
}

// plainText resolves escape markers and drops stashed raw HTML.
func plainText(s string) string {
	s = stashedRE.ReplaceAllString(s, "")
	return markerRE.ReplaceAllStringFunc(s, func(m string) string {
		code, err := strconv.Atoi(m[len(session.STX) : len(m)-len(session.ETX)])
		if err != nil {
			return ""
		}
		return string(rune(code))
	})
}

// Slugify turns heading text into an id. Accents are stripped, anything
// left outside ASCII word characters is dropped, and runs of spaces and
// dashes become one dash.
func Slugify(text string) string {
	stripAccents := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	plain, _, err := transform.String(stripAccents, text)
	if err != nil {
		plain = norm.NFKD.String(text)
	}
	slug := nonWordRE.ReplaceAllString(plain, "")
	slug = cases.Fold().String(strings.TrimSpace(slug))
	return spacingRE.ReplaceAllString(slug, "-")
}

// unique returns id, or id with a numeric suffix when it is empty or
// already taken, and records the result in seen.
func unique(id string, seen map[string]bool) string {
	for id == "" || seen[id] {
		if m := idCountRE.FindStringSubmatch(id); m != nil {
			n, _ := strconv.Atoi(m[2])
			id = m[1] + "_" + strconv.Itoa(n+1)
		} else {
			id += "_1"
		}
	}
	seen[id] = true
	return id
}
