// Package document wraps a converted fragment in a standalone HTML5 page.
//
// The page is assembled and re-rendered with golang.org/x/net/html, so the
// fragment is normalized the way a browser would see it. The title falls
// back to the text of the first h1. Stylesheets are inlined into <head>
// with closing sequences neutralized.
package document

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// DefaultTitle is used when no title is given and the fragment has no h1.
const DefaultTitle = "Document"

// ErrBuild indicates the page could not be parsed or rendered.
var ErrBuild = errors.New("building standalone document failed")

// Options configure a page.
type Options struct {
	Title     string // empty = first h1, then DefaultTitle
	CSS       string // inlined into a <style> block
	Lang      string // html lang attribute, omitted when empty
	SourceDir string // when set, relative img and a paths are rewritten to file:// URLs under it
}

const skeleton = "<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n</head>\n<body>\n%s\n</body>\n</html>\n"

// Build returns a complete HTML5 page around fragment.
func Build(fragment string, opts Options) (string, error) {
	doc, err := html.Parse(strings.NewReader(fmt.Sprintf(skeleton, fragment)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBuild, err)
	}
	root := findElement(doc, atom.Html)
	head := findElement(doc, atom.Head)
	body := findElement(doc, atom.Body)
	if root == nil || head == nil || body == nil {
		return "", fmt.Errorf("%w: malformed page skeleton", ErrBuild)
	}

	if opts.Lang != "" {
		root.Attr = append(root.Attr, html.Attribute{Key: "lang", Val: opts.Lang})
	}

	title := opts.Title
	if title == "" {
		if h1 := findElement(body, atom.H1); h1 != nil {
			title = strings.TrimSpace(textContent(h1))
		}
	}
	if title == "" {
		title = DefaultTitle
	}
	head.AppendChild(element(atom.Title, title))

	if opts.CSS != "" {
		head.AppendChild(element(atom.Style, sanitizeCSS(opts.CSS)))
	}

	if opts.SourceDir != "" {
		if err := rewriteRelativePaths(body, opts.SourceDir); err != nil {
			return "", fmt.Errorf("%w: %v", ErrBuild, err)
		}
	}

	var buf strings.Builder
	if err := html.Render(&buf, doc); err != nil {
		return "", fmt.Errorf("%w: %v", ErrBuild, err)
	}
	return buf.String(), nil
}

// sanitizeCSS escapes sequences that could break out of a <style> block.
func sanitizeCSS(css string) string {
	return strings.ReplaceAll(css, "</", `<\/`)
}

func element(a atom.Atom, text string) *html.Node {
	n := &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
	n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	return n
}

// findElement returns the first element with the given atom in document order.
func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
