// Package serializer writes a document tree as HTML or XHTML.
package serializer

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/yuin/goldmark/util"

	"github.com/alnah/go-markdown/etree"
)

// ErrUnknownFormat is returned by ParseFormat.
var ErrUnknownFormat = errors.New("unknown output format")

// Format selects the markup flavour.
type Format int

// Output formats.
const (
	FormatHTML Format = iota
	FormatXHTML
)

func (f Format) String() string {
	if f == FormatXHTML {
		return "xhtml"
	}
	return "html"
}

// ParseFormat maps a format name to a Format. The versioned names html4,
// html5, xhtml1 and xhtml5 are accepted as aliases.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "html", "html4", "html5":
		return FormatHTML, nil
	case "xhtml", "xhtml1", "xhtml5":
		return FormatXHTML, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// voidElements never have content or a closing tag.
var voidElements = map[string]bool{
	"area": true, "base": true, "basefont": true, "br": true, "col": true,
	"frame": true, "hr": true, "img": true, "input": true, "isindex": true,
	"link": true, "meta": true, "param": true,
}

// booleanAttrs are minimized to their bare name in HTML when the value
// repeats the name.
var booleanAttrs = map[string]bool{
	"async": true, "autofocus": true, "autoplay": true, "checked": true,
	"compact": true, "controls": true, "declare": true, "default": true,
	"defer": true, "disabled": true, "formnovalidate": true, "hidden": true,
	"ismap": true, "loop": true, "multiple": true, "muted": true,
	"nohref": true, "noresize": true, "noshade": true, "novalidate": true,
	"nowrap": true, "open": true, "readonly": true, "required": true,
	"reversed": true, "selected": true,
}

var cdataEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// HTML returns n, its descendants and its tail as HTML.
func HTML(n etree.Node) string { return toString(n, FormatHTML) }

// XHTML returns n, its descendants and its tail as XHTML.
func XHTML(n etree.Node) string { return toString(n, FormatXHTML) }

func toString(n etree.Node, f Format) string {
	var b strings.Builder
	_ = Write(&b, n, f)
	return b.String()
}

// Write writes n in format f to w. It returns the first write error.
func Write(w io.StringWriter, n etree.Node, f Format) error {
	sw := &writer{w: w, format: f}
	sw.node(n)
	return sw.err
}

type writer struct {
	w      io.StringWriter
	format Format
	err    error
}

func (w *writer) write(s string) {
	if w.err != nil || s == "" {
		return
	}
	_, w.err = w.w.WriteString(s)
}

func (w *writer) node(n etree.Node) {
	tag := n.Tag()
	if tag == "" {
		w.write(cdataEscaper.Replace(n.Text()))
		for _, c := range n.Children() {
			w.node(c)
		}
		w.write(cdataEscaper.Replace(n.Tail()))
		return
	}

	lower := strings.ToLower(tag)
	w.write("<" + tag)
	for _, k := range n.AttrKeys() {
		v, _ := n.Attr(k)
		v = string(util.EscapeHTML([]byte(v)))
		if w.format == FormatHTML && k == v && booleanAttrs[strings.ToLower(k)] {
			w.write(" " + k)
			continue
		}
		w.write(" " + k + `="` + v + `"`)
	}

	switch {
	case voidElements[lower] && w.format == FormatXHTML:
		w.write(" />")
	case voidElements[lower]:
		w.write(">")
	default:
		w.write(">")
		if lower == "script" || lower == "style" {
			w.write(n.Text())
		} else {
			w.write(cdataEscaper.Replace(n.Text()))
		}
		for _, c := range n.Children() {
			w.node(c)
		}
		w.write("</" + tag + ">")
	}
	w.write(cdataEscaper.Replace(n.Tail()))
}
