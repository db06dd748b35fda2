package markdown

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"github.com/alnah/go-markdown/blockparser"
	"github.com/alnah/go-markdown/etree"
	"github.com/alnah/go-markdown/registry"
	"github.com/alnah/go-markdown/session"
)

func mustNew(t *testing.T, opts ...Option) *Markdown {
	t.Helper()
	md, err := New(opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return md
}

func mustConvert(t *testing.T, md *Markdown, src string) string {
	t.Helper()
	got, err := md.Convert(src)
	if err != nil {
		t.Fatalf("Convert(%q) error = %v", src, err)
	}
	return got
}

func charRefs(s string) string {
	var b strings.Builder
	for _, r := range s {
		fmt.Fprintf(&b, "&#%d;", r)
	}
	return b.String()
}

func TestConvert(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"tight list", "* a\n* b\n", "<ul>\n<li>a</li>\n<li>b</li>\n</ul>"},
		{"setext header", "Header\n======\n", "<h1>Header</h1>"},
		{"paragraph then code", "first\n\n    code line\n", "<p>first</p>\n<pre><code>code line\n</code></pre>"},
		{"inline link", `[text](http://example.com "Title")`, `<p><a href="http://example.com" title="Title">text</a></p>`},
		{"line break", "a  \nb", "<p>a<br />\nb</p>"},
		{"entities", "AT&amp;T &copy; &bogus;", "<p>AT&amp;T &copy; &amp;bogus;</p>"},
		{"escapes", `\*lit\*`, "<p>*lit*</p>"},
		{"automail", "<me@x.y>", `<p><a href="` + charRefs("mailto:me@x.y") + `">` + charRefs("me@x.y") + `</a></p>`},
		{"automail named entity", "<é@x.y>", `<p><a href="` + charRefs("mailto:é@x.y") + `">&eacute;` + charRefs("@x.y") + `</a></p>`},
		{"strong emphasis", "***x***", "<p><strong><em>x</em></strong></p>"},
		{"blockquote", "> quote", "<blockquote>\n<p>quote</p>\n</blockquote>"},
		{"ordered list", "1. one\n2. two", "<ol>\n<li>one</li>\n<li>two</li>\n</ol>"},
		{"horizontal rule", "---", "<hr />"},
		{"hash header", "## Two ##", "<h2>Two</h2>"},
		{"raw html block", "<div>x</div>\n\ntext", "<div>x</div>\n\n<p>text</p>"},
		{"reference link", "[x][r]\n\n[r]: /u \"T\"", `<p><a href="/u" title="T">x</a></p>`},
		{"attributes", "para{@id=x}", `<p id="x">para</p>`},
		{"smart emphasis", "snake_case_word", "<p>snake_case_word</p>"},
		{"blank input", "  \n\t\n", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := mustConvert(t, mustNew(t), tt.in); got != tt.want {
				t.Errorf("Convert(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestConvert_Options(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		opts []Option
		in   string
		want string
	}{
		{"html output", []Option{WithOutputFormat("html5")}, "a  \nb\n\n---", "<p>a<br>\nb</p>\n<hr>"},
		{"attributes disabled", []Option{WithEnableAttributes(false)}, "para{@id=x}", "<p>para{@id=x}</p>"},
		{"plain emphasis", []Option{WithSmartEmphasis(false)}, "snake_case_word", "<p>snake<em>case</em>word</p>"},
		{"ordered start", []Option{WithLazyOL(false)}, "3. a\n4. b", "<ol start=\"3\">\n<li>a</li>\n<li>b</li>\n</ol>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := mustConvert(t, mustNew(t, tt.opts...), tt.in); got != tt.want {
				t.Errorf("Convert(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestConvert_SafeMode(t *testing.T) {
	t.Parallel()

	const in = "<div>x</div>\n\nand <b>bold</b>"
	tests := []struct {
		mode session.SafeMode
		want string
	}{
		{session.SafeOff, "<div>x</div>\n\n<p>and <b>bold</b></p>"},
		{session.SafeReplace, "<p>[HTML_REMOVED]</p>\n<p>and [HTML_REMOVED]bold[HTML_REMOVED]</p>"},
		{session.SafeRemove, "<p></p>\n<p>and bold</p>"},
		{session.SafeEscape, "<p>&lt;div&gt;x&lt;/div&gt;</p>\n<p>and &lt;b&gt;bold&lt;/b&gt;</p>"},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			t.Parallel()

			if got := mustConvert(t, mustNew(t, WithSafeMode(tt.mode)), in); got != tt.want {
				t.Errorf("Convert() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConvert_PlainTextIdempotent(t *testing.T) {
	t.Parallel()

	md := mustNew(t)
	for _, in := range []string{"Hello world", "two\nlines", "numbers 123 and punctuation, ok?"} {
		got := mustConvert(t, md, in)
		inner := strings.TrimSuffix(strings.TrimPrefix(got, "<p>"), "</p>")
		if inner != in {
			t.Errorf("Convert(%q) = %q, want the text unchanged inside a paragraph", in, got)
		}
	}
}

func parseHTML(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("goquery.NewDocumentFromReader() error = %v", err)
	}
	return doc
}

func TestConvert_Scenarios(t *testing.T) {
	t.Parallel()

	md := mustNew(t)

	t.Run("list", func(t *testing.T) {
		doc := parseHTML(t, mustConvert(t, md, "* a\n* b\n"))
		items := doc.Find("ul").First().ChildrenFiltered("li")
		if doc.Find("ul").Length() != 1 || items.Length() != 2 {
			t.Fatalf("got %d lists with %d items, want 1 with 2", doc.Find("ul").Length(), items.Length())
		}
		if items.Eq(0).Text() != "a" || items.Eq(1).Text() != "b" {
			t.Errorf("items = %q, %q", items.Eq(0).Text(), items.Eq(1).Text())
		}
	})

	t.Run("header", func(t *testing.T) {
		doc := parseHTML(t, mustConvert(t, md, "Header\n======\n"))
		if h := doc.Find("h1"); h.Length() != 1 || h.Text() != "Header" {
			t.Errorf("h1 = %d nodes with %q", h.Length(), h.Text())
		}
	})

	t.Run("code", func(t *testing.T) {
		doc := parseHTML(t, mustConvert(t, md, "first\n\n    code line\n"))
		if p := doc.Find("p"); p.Text() != "first" {
			t.Errorf("p = %q, want first", p.Text())
		}
		if code := doc.Find("p + pre > code"); strings.TrimSpace(code.Text()) != "code line" {
			t.Errorf("pre > code = %q, want code line", code.Text())
		}
	})

	t.Run("link", func(t *testing.T) {
		doc := parseHTML(t, mustConvert(t, md, `[text](http://example.com "Title")`))
		a := doc.Find("a")
		href, _ := a.Attr("href")
		title, _ := a.Attr("title")
		if href != "http://example.com" || title != "Title" || a.Text() != "text" {
			t.Errorf("a = href %q title %q text %q", href, title, a.Text())
		}
	})
}

func TestConvert_ListNesting(t *testing.T) {
	t.Parallel()

	md := mustNew(t)
	for n := 1; n <= 3; n++ {
		lines := []string{"* i0"}
		for level := 1; level <= n; level++ {
			lines = append(lines, strings.Repeat("    ", level)+fmt.Sprintf("* i%d", level))
		}
		doc := parseHTML(t, mustConvert(t, md, strings.Join(lines, "\n\n")))

		deepest := doc.Find("li").Last()
		if got := strings.TrimSpace(deepest.Text()); got != fmt.Sprintf("i%d", n) {
			t.Errorf("N=%d: deepest item = %q", n, got)
		}
		if got := deepest.ParentsFiltered("ul").Length(); got != n+1 {
			t.Errorf("N=%d: deepest item is inside %d lists, want %d", n, got, n+1)
		}
	}
}

type asideHandler struct{}

func (asideHandler) Test(_ *blockparser.Parser, _ etree.Node, block string) bool {
	return strings.HasPrefix(block, "!! ")
}

func (asideHandler) Run(_ *blockparser.Parser, parent etree.Node, blocks *blockparser.Blocks) {
	block := blocks.Pop()
	blockparser.SubElement(parent, "aside").SetText(strings.TrimPrefix(block, "!! "))
}

type extensionFunc func(md *Markdown) error

func (f extensionFunc) Extend(md *Markdown) error { return f(md) }

func TestExtension_InsertBeforeParagraph(t *testing.T) {
	t.Parallel()

	ext := extensionFunc(func(md *Markdown) error {
		return md.BlockHandlers.Insert("aside", asideHandler{}, "<paragraph")
	})
	md := mustNew(t, WithExtensions(ext))

	aside, _ := md.BlockHandlers.Index("aside")
	paragraph, _ := md.BlockHandlers.Index("paragraph")
	if aside != paragraph-1 {
		t.Errorf("aside at %d, paragraph at %d, want adjacent", aside, paragraph)
	}
	if got, want := mustConvert(t, md, "!! note"), "<aside>note</aside>"; got != want {
		t.Errorf("Convert() = %q, want %q", got, want)
	}
}

func TestExtension_Error(t *testing.T) {
	t.Parallel()

	ext := extensionFunc(func(md *Markdown) error {
		return md.BlockHandlers.Insert("x", asideHandler{}, "<nope")
	})
	_, err := New(WithExtensions(ext))
	if !errors.Is(err, ErrExtension) || !errors.Is(err, registry.ErrUnknownKey) {
		t.Errorf("New() error = %v, want ErrExtension wrapping ErrUnknownKey", err)
	}
}

type resettable struct{ resets int }

func (*resettable) Extend(*Markdown) error { return nil }
func (r *resettable) Reset()               { r.resets++ }

func TestReset(t *testing.T) {
	t.Parallel()

	ext := &resettable{}
	md := mustNew(t, WithExtensions(ext))
	mustConvert(t, md, "text")
	if md.Reset() != md {
		t.Error("Reset() did not return the receiver")
	}
	if ext.resets != 1 {
		t.Errorf("extension reset %d times, want 1", ext.resets)
	}
	if md.Meta() != nil {
		t.Errorf("Meta() = %v, want nil", md.Meta())
	}
}

type treeFunc func(root etree.Node) etree.Node

func (f treeFunc) Run(_ *session.Session, root etree.Node) etree.Node { return f(root) }

func TestConvert_TreeProcessors(t *testing.T) {
	t.Parallel()

	t.Run("replacement root", func(t *testing.T) {
		t.Parallel()

		md := mustNew(t)
		md.TreeProcessors.Append("replace", treeFunc(func(etree.Node) etree.Node {
			tree := etree.NewTree("div")
			p := tree.NewNode("p")
			p.SetText("replaced")
			tree.Root().Append(p)
			return tree.Root()
		}))
		if got, want := mustConvert(t, md, "original"), "<p>replaced</p>"; got != want {
			t.Errorf("Convert() = %q, want %q", got, want)
		}
	})

	t.Run("panic becomes internal error", func(t *testing.T) {
		t.Parallel()

		md := mustNew(t)
		md.TreeProcessors.Append("boom", treeFunc(func(etree.Node) etree.Node { panic("boom") }))
		if _, err := md.Convert("text"); !errors.Is(err, ErrInternal) {
			t.Errorf("Convert() error = %v, want ErrInternal", err)
		}
	})

	t.Run("foreign root tag", func(t *testing.T) {
		t.Parallel()

		md := mustNew(t)
		md.TreeProcessors.Append("section", treeFunc(func(root etree.Node) etree.Node {
			root.SetTag("section")
			return etree.Node{}
		}))
		if _, err := md.Convert("text"); !errors.Is(err, ErrStripTopLevel) {
			t.Errorf("Convert() error = %v, want ErrStripTopLevel", err)
		}
	})
}

func TestNew_InvalidOptions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		opt  Option
	}{
		{"tab length zero", WithTabLength(0)},
		{"tab length too large", WithTabLength(17)},
		{"unknown safe mode", WithSafeMode("strict")},
		{"unknown format", WithOutputFormat("docx")},
		{"nesting zero", WithMaxNesting(0)},
		{"nil extension", WithExtensions(nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, err := New(tt.opt); !errors.Is(err, ErrInvalidOption) {
				t.Errorf("New() error = %v, want ErrInvalidOption", err)
			}
		})
	}
}

func TestNew_EscapeModeDropsHTMLBlock(t *testing.T) {
	t.Parallel()

	md := mustNew(t, WithSafeMode(session.SafeEscape))
	if _, ok := md.Preprocessors.Get("html_block"); ok {
		t.Error("html_block registered in escape mode")
	}
	if got := strings.Join(md.TreeProcessors.Keys(), " "); got != "inline prettify" {
		t.Errorf("TreeProcessors = %s", got)
	}
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, errors.New("disk gone") }

type errWriter struct{}

func (errWriter) Write([]byte) (int, error) { return 0, errors.New("pipe closed") }

func TestConvertFile(t *testing.T) {
	t.Parallel()

	md := mustNew(t)

	var out bytes.Buffer
	if err := md.ConvertFile(context.Background(), strings.NewReader("# Title"), &out); err != nil {
		t.Fatalf("ConvertFile() error = %v", err)
	}
	if out.String() != "<h1>Title</h1>" {
		t.Errorf("output = %q", out.String())
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := md.ConvertFile(ctx, strings.NewReader("x"), &out); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled ConvertFile() error = %v, want context.Canceled", err)
	}
	if err := md.ConvertFile(context.Background(), errReader{}, &out); !errors.Is(err, ErrReadInput) {
		t.Errorf("ConvertFile() read error = %v, want ErrReadInput", err)
	}
	if err := md.ConvertFile(context.Background(), strings.NewReader("x"), errWriter{}); !errors.Is(err, ErrWriteOutput) {
		t.Errorf("ConvertFile() write error = %v, want ErrWriteOutput", err)
	}
}
