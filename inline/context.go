package inline

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/alnah/go-markdown/etree"
	"github.com/alnah/go-markdown/serializer"
	"github.com/alnah/go-markdown/session"
)

var placeholderRE = regexp.MustCompile(regexp.QuoteMeta(session.InlinePlaceholderPrefix) +
	`([0-9]{4,})` + regexp.QuoteMeta(session.ETX))

// Stash holds the replacements of one inline run, keyed by placeholder id.
type Stash struct {
	entries map[string]Replacement
}

// NewStash returns an empty stash.
func NewStash() *Stash {
	return &Stash{entries: make(map[string]Replacement)}
}

// Add stores r and returns the placeholder that stands for it.
func (s *Stash) Add(r Replacement) string {
	id := fmt.Sprintf("%04d", len(s.entries))
	s.entries[id] = r
	return session.InlinePlaceholderPrefix + id + session.ETX
}

// Get returns the replacement stored under id.
func (s *Stash) Get(id string) (Replacement, bool) {
	r, ok := s.entries[id]
	return r, ok
}

// Len returns the number of stored replacements.
func (s *Stash) Len() int { return len(s.entries) }

// Context is handed to patterns while one document is processed.
type Context struct {
	session   *session.Session
	scratch   *etree.Tree
	stash     *Stash
	serialize func(etree.Node) string
}

// NewContext returns a context with an empty stash. A nil serialize
// function writes HTML.
func NewContext(s *session.Session, serialize func(etree.Node) string) *Context {
	if serialize == nil {
		serialize = serializer.HTML
	}
	return &Context{
		session:   s,
		scratch:   etree.NewTree("scratch"),
		stash:     NewStash(),
		serialize: serialize,
	}
}

// Session returns the conversion context of the document.
func (c *Context) Session() *session.Session { return c.session }

// Stash returns the placeholder stash.
func (c *Context) Stash() *Stash { return c.stash }

// NewElement returns a detached element for a pattern result.
func (c *Context) NewElement(tag string) etree.Node { return c.scratch.NewNode(tag) }

// Unescape replaces the placeholders in text by the plain text they stand
// for. Unknown placeholders are dropped.
func (c *Context) Unescape(text string) string {
	return placeholderRE.ReplaceAllStringFunc(text, func(ph string) string {
		r, ok := c.stash.Get(placeholderRE.FindStringSubmatch(ph)[1])
		if !ok {
			return ""
		}
		if s, ok := r.Text(); ok {
			return s
		}
		n, _ := r.Node()
		return c.Unescape(n.TextContent())
	})
}

// UnescapeHTML replaces the placeholders in text by serialized markup, for
// use inside raw HTML. Stashed strings come back behind a backslash.
func (c *Context) UnescapeHTML(text string) string {
	return placeholderRE.ReplaceAllStringFunc(text, func(ph string) string {
		r, ok := c.stash.Get(placeholderRE.FindStringSubmatch(ph)[1])
		if !ok {
			return ""
		}
		if s, ok := r.Text(); ok {
			return `\` + s
		}
		n, _ := r.Node()
		return c.serialize(n)
	})
}

var (
	loclessSchemes = map[string]bool{"": true, "mailto": true, "news": true}
	allowedSchemes = map[string]bool{
		"": true, "mailto": true, "news": true,
		"http": true, "https": true, "ftp": true, "ftps": true,
	}
)

// SanitizeURL encodes the spaces of u as %20 and otherwise keeps it as
// written. In a safe mode it also returns "" for
// schemes outside a small allow list and for URLs that hide a colon in
// their path, query or fragment.
func (c *Context) SanitizeURL(u string) string {
	u = strings.ReplaceAll(u, " ", "%20")
	if c.session.SafeMode == session.SafeOff {
		return u
	}
	parsed, err := url.Parse(u)
	if err != nil {
		return ""
	}
	scheme := strings.ToLower(parsed.Scheme)
	if !allowedSchemes[scheme] {
		return ""
	}
	if parsed.Host == "" && !loclessSchemes[scheme] {
		return ""
	}
	for _, part := range []string{parsed.Opaque, parsed.Path, parsed.RawQuery, parsed.Fragment} {
		if strings.Contains(part, ":") {
			return ""
		}
	}
	return u
}
