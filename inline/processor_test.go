package inline

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/alnah/go-markdown/etree"
	"github.com/alnah/go-markdown/registry"
	"github.com/alnah/go-markdown/serializer"
	"github.com/alnah/go-markdown/session"
)

func newSession(mutate func(*session.Options)) *session.Session {
	opts := session.Options{
		TabLength:        4,
		EscapedChars:     session.DefaultEscapedChars,
		SmartEmphasis:    true,
		EnableAttributes: true,
	}
	if mutate != nil {
		mutate(&opts)
	}
	return session.New(opts, nil)
}

// render runs the inline processor over a single paragraph holding text and
// returns the paragraph as HTML.
func render(t *testing.T, s *session.Session, text string) string {
	t.Helper()

	tree := etree.NewTree("div")
	p := tree.NewNode("p")
	p.SetText(text)
	tree.Root().Append(p)
	if got := NewProcessor(Defaults(s.Options), nil).Run(s, tree.Root()); !got.IsNull() {
		t.Fatalf("Run() returned a replacement root")
	}
	return serializer.HTML(tree.Root().FirstChild())
}

func mark(r rune) string { return session.EscapeMarker(r) }

func TestProcessor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain text", "plain text", "<p>plain text</p>"},
		{"emphasis", "*em*", "<p><em>em</em></p>"},
		{"strong", "a **b** c", "<p>a <strong>b</strong> c</p>"},
		{"strong emphasis", "***both***", "<p><strong><em>both</em></strong></p>"},
		{"code span is final", "`<b>` & *x*", "<p><code>&lt;b&gt;</code> &amp; <em>x</em></p>"},
		{"link with title", `[text](http://example.com "Title")`, `<p><a href="http://example.com" title="Title">text</a></p>`},
		{"angle link", "[t](<a b>)", `<p><a href="a%20b">t</a></p>`},
		{"link inside emphasis", "*a [b](c) d*", `<p><em>a <a href="c">b</a> d</em></p>`},
		{"escapes", `\*not em\*`, "<p>" + mark('*') + "not em" + mark('*') + "</p>"},
		{"unknown escape declines", `\q *a*`, `<p>\q <em>a</em></p>`},
		{"escape inside href", `[a](/x\_y)`, `<p><a href="/x` + mark('_') + `y">a</a></p>`},
		{"autolink", "<http://a.b/c>", `<p><a href="http://a.b/c">http://a.b/c</a></p>`},
		{"line break", "a  \nb", "<p>a<br>b</p>"},
		{"smart emphasis ignores words", "snake_case_word", "<p>snake_case_word</p>"},
		{"lone star", "a * b", "<p>a * b</p>"},
		{"image", `![alt](i.png "Pic")`, `<p><img alt="alt" src="i.png" title="Pic"></p>`},
		{"image attributes", "![alt{@width=5}](i.png)", `<p><img alt="alt" src="i.png" width="5"></p>`},
		{"paragraph attributes", "para{@id=x}", `<p id="x">para</p>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := render(t, newSession(nil), tt.in); got != tt.want {
				t.Errorf("render(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestProcessor_LongParagraph(t *testing.T) {
	t.Parallel()

	const spans = 300
	in := strings.Repeat("word *em* and [link](/u) ", spans)
	got := render(t, newSession(nil), in)
	if n := strings.Count(got, "<em>em</em>"); n != spans {
		t.Errorf("emphasis spans = %d, want %d", n, spans)
	}
	if n := strings.Count(got, `<a href="/u">link</a>`); n != spans {
		t.Errorf("links = %d, want %d", n, spans)
	}
}

func TestProcessor_MatchTimeoutLeavesText(t *testing.T) {
	t.Parallel()

	slow := NewSimpleTag(`(\*)((?:a|aa)+b)\*`, "em")
	slow.Regexp().MatchTimeout = time.Millisecond
	patterns := registry.New[Pattern]()
	patterns.Append("slow", slow)

	var logs bytes.Buffer
	log := logrus.New()
	log.SetOutput(&logs)
	s := session.New(session.Options{TabLength: 4}, log)

	text := "*" + strings.Repeat("a", 64) + "!"
	tree := etree.NewTree("div")
	p := tree.NewNode("p")
	p.SetText(text)
	tree.Root().Append(p)
	NewProcessor(patterns, nil).Run(s, tree.Root())

	if got, want := serializer.HTML(p), "<p>"+text+"</p>"; got != want {
		t.Errorf("HTML() = %q, want %q", got, want)
	}
	if !strings.Contains(logs.String(), "level=warning") || !strings.Contains(logs.String(), "inline match abandoned") {
		t.Errorf("log = %q, want a warning for the abandoned match", logs.String())
	}
}

func TestProcessor_PlainUnderscoreEmphasis(t *testing.T) {
	t.Parallel()

	s := newSession(func(o *session.Options) { o.SmartEmphasis = false })
	if got, want := render(t, s, "snake_case_word"), "<p>snake<em>case</em>word</p>"; got != want {
		t.Errorf("render() = %q, want %q", got, want)
	}
}

func TestProcessor_AttributesDisabled(t *testing.T) {
	t.Parallel()

	s := newSession(func(o *session.Options) { o.EnableAttributes = false })
	if got, want := render(t, s, "para{@id=x}"), "<p>para{@id=x}</p>"; got != want {
		t.Errorf("render() = %q, want %q", got, want)
	}
}

func TestProcessor_References(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"full", "[x][Ref]", `<p><a href="/u" title="T">x</a></p>`},
		{"empty id", "[ref][]", `<p><a href="/u" title="T">ref</a></p>`},
		{"short", "see [ref].", `<p>see <a href="/u" title="T">ref</a>.</p>`},
		{"image", "![pic][ref]", `<p><img alt="pic" src="/u" title="T"></p>`},
		{"undefined", "[missing][nope]", "<p>[missing][nope]</p>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := newSession(nil)
			s.References.Set("ref", session.Reference{URL: "/u", Title: "T"})
			if got := render(t, s, tt.in); got != tt.want {
				t.Errorf("render(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestProcessor_RawHTML(t *testing.T) {
	t.Parallel()

	s := newSession(nil)
	got := render(t, s, "a <span>b</span>")
	want := "<p>a " + s.HTMLStash.Placeholder(0) + "b" + s.HTMLStash.Placeholder(1) + "</p>"
	if got != want {
		t.Errorf("render() = %q, want %q", got, want)
	}
	if s.HTMLStash.Len() != 2 || s.HTMLStash.Block(0).HTML != "<span>" || s.HTMLStash.Block(0).Safe {
		t.Errorf("stash = %d entries, first %+v", s.HTMLStash.Len(), s.HTMLStash.Block(0))
	}
}

func TestProcessor_Entities(t *testing.T) {
	t.Parallel()

	s := newSession(nil)
	got := render(t, s, "&amp; &#169; &bogus;")
	want := "<p>" + s.HTMLStash.Placeholder(0) + " " + s.HTMLStash.Placeholder(1) + " &amp;bogus;</p>"
	if got != want {
		t.Errorf("render() = %q, want %q", got, want)
	}
	for i := 0; i < s.HTMLStash.Len(); i++ {
		if !s.HTMLStash.Block(i).Safe {
			t.Errorf("entity %q stored as unsafe", s.HTMLStash.Block(i).HTML)
		}
	}
}

func TestProcessor_Automail(t *testing.T) {
	t.Parallel()

	got := render(t, newSession(nil), "<me@x.y>")
	want := `<p><a href="` + charRefs("mailto:me@x.y") + `">` + namedRefs("me@x.y") + `</a></p>`
	if got != want {
		t.Errorf("render() = %q, want %q", got, want)
	}
	if !strings.HasPrefix(charRefs("m"), session.AmpSubstitute+"#109;") {
		t.Errorf("charRefs(m) = %q", charRefs("m"))
	}
}

func TestNamedRefs(t *testing.T) {
	t.Parallel()

	amp := session.AmpSubstitute
	tests := []struct {
		in   string
		want string
	}{
		{"a@", amp + "#97;" + amp + "#64;"},
		{"é", amp + "eacute;"},
		{"<&>", amp + "lt;" + amp + "amp;" + amp + "gt;"},
		{"ß€", amp + "szlig;" + amp + "euro;"},
		{"ā", amp + "#257;"},
	}

	for _, tt := range tests {
		if got := namedRefs(tt.in); got != tt.want {
			t.Errorf("namedRefs(%q) = %q, want %q", tt.in, got, tt.want)
		}
		if got := charRefs(tt.in); strings.Contains(got, "eacute") || strings.Contains(got, "lt;") {
			t.Errorf("charRefs(%q) = %q, want numeric references only", tt.in, got)
		}
	}
}

func TestProcessor_Tails(t *testing.T) {
	t.Parallel()

	tree := etree.NewTree("div")
	p := tree.NewNode("p")
	p.SetText("a")
	br := tree.NewNode("br")
	br.SetTail("and *em*")
	p.Append(br)
	tree.Root().Append(p)

	s := newSession(nil)
	NewProcessor(Defaults(s.Options), nil).Run(s, tree.Root())
	if got, want := serializer.HTML(p), "<p>a<br>and <em>em</em></p>"; got != want {
		t.Errorf("HTML() = %q, want %q", got, want)
	}
}

func TestProcessor_AtomicTextUntouched(t *testing.T) {
	t.Parallel()

	tree := etree.NewTree("div")
	pre := tree.NewNode("pre")
	code := tree.NewNode("code")
	code.SetAtomicText("*not em*\n")
	pre.Append(code)
	tree.Root().Append(pre)

	s := newSession(nil)
	NewProcessor(Defaults(s.Options), nil).Run(s, tree.Root())
	if got, want := serializer.HTML(pre), "<pre><code>*not em*\n</code></pre>"; got != want {
		t.Errorf("HTML() = %q, want %q", got, want)
	}
}

func TestProcessor_UnknownPlaceholderKept(t *testing.T) {
	t.Parallel()

	in := "x" + session.InlinePlaceholderPrefix + "9999" + session.ETX + "y"
	tree := etree.NewTree("div")
	p := tree.NewNode("p")
	p.SetText(in)
	tree.Root().Append(p)

	s := newSession(nil)
	NewProcessor(Defaults(s.Options), nil).Run(s, tree.Root())
	if p.Text() != in || p.ChildCount() != 0 {
		t.Errorf("Text() = %q with %d children, want %q", p.Text(), p.ChildCount(), in)
	}
}

func TestStash_RoundTrip(t *testing.T) {
	t.Parallel()

	st := NewStash()
	var last string
	for i := 0; i <= 10000; i++ {
		last = st.Add(TextReplacement("v"))
	}
	if want := session.InlinePlaceholderPrefix + "10000" + session.ETX; last != want {
		t.Fatalf("Add() = %q, want %q", last, want)
	}
	data := "a" + last + "b"
	id, end := findPlaceholder(data, 1)
	if id != "10000" || end != len(data)-1 {
		t.Errorf("findPlaceholder() = (%q, %d), want (%q, %d)", id, end, "10000", len(data)-1)
	}
	if _, ok := st.Get("0000"); !ok {
		t.Error(`Get("0000") missing`)
	}
	if _, ok := st.Get("0"); ok {
		t.Error(`Get("0") found an entry under an unpadded id`)
	}
}

func TestDefaults(t *testing.T) {
	t.Parallel()

	keys := Defaults(session.Options{}).Keys()
	want := "backtick escape reference link image_link image_reference short_reference autolink automail linebreak html entity not_strong strong_em strong emphasis emphasis2"
	if got := strings.Join(keys, " "); got != want {
		t.Errorf("Keys() = %s, want %s", got, want)
	}

	if _, ok := Defaults(session.Options{SafeMode: session.SafeEscape}).Get("html"); ok {
		t.Error("html pattern registered in escape mode")
	}
}

func TestMatchGroups(t *testing.T) {
	t.Parallel()

	re := Compile(`(\*)([^\*]+)\2`)
	m, err := re.FindStringMatch("before *mid* after")
	if err != nil || m == nil {
		t.Fatalf("FindStringMatch() = %v, %v", m, err)
	}
	match := Match{m: m}
	if match.Lead() != "before " || match.Trail() != " after" || match.Group(3) != "mid" {
		t.Errorf("lead %q trail %q group(3) %q", match.Lead(), match.Trail(), match.Group(3))
	}
	if match.Group(42) != "" || match.Matched(42) {
		t.Error("out of range group reported as matched")
	}
}

func TestSanitizeURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		mode session.SafeMode
		in   string
		want string
	}{
		{"off keeps scripts", session.SafeOff, "javascript:x", "javascript:x"},
		{"spaces escaped", session.SafeOff, "/a b", "/a%20b"},
		{"non ascii kept", session.SafeOff, "/café/ü", "/café/ü"},
		{"reserved kept", session.SafeOff, `/q?x="1"&y=[2]`, `/q?x="1"&y=[2]`},
		{"existing escapes kept", session.SafeOff, "/a%2Fb", "/a%2Fb"},
		{"safe mode keeps non ascii", session.SafeReplace, "http://ok.com/café", "http://ok.com/café"},
		{"script blanked", session.SafeReplace, "javascript:alert(1)", ""},
		{"http kept", session.SafeReplace, "http://ok.com/a", "http://ok.com/a"},
		{"mailto kept", session.SafeEscape, "mailto:a@b.c", "mailto:a@b.c"},
		{"relative kept", session.SafeRemove, "docs/page.html", "docs/page.html"},
		{"missing host", session.SafeReplace, "http:/x", ""},
		{"colon in path", session.SafeReplace, "http://ok.com/a:b", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := NewContext(newSession(func(o *session.Options) { o.SafeMode = tt.mode }), nil)
			if got := c.SanitizeURL(tt.in); got != tt.want {
				t.Errorf("SanitizeURL(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
