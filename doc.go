// Package markdown converts Markdown documents to HTML or XHTML.
//
// # Quick Start
//
// Create a converter and convert a document:
//
//	md, err := markdown.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	html, err := md.Convert("# Hello\n\nWorld")
//
// A converter keeps the state of its last document (see Meta) and must not
// be shared between goroutines. Use Pool for concurrent conversions.
//
// # Conversion Pipeline
//
// The conversion process follows these stages:
//
//  1. Preprocessors rewrite the source lines (whitespace normalization,
//     raw HTML blocks, link reference definitions)
//  2. The block parser builds a document tree from the lines
//  3. Tree processors edit the tree (inline patterns, newline tuning)
//  4. The tree is serialized as HTML or XHTML
//  5. Postprocessors restore stashed raw HTML and escaped characters
//
// Every stage lives in an ordered registry exported by Markdown. Entries
// are addressed by key and positioned with locations such as "<paragraph"
// (before) or ">inline" (after).
//
// # Configuration
//
// Use functional options to customize the converter:
//
//	md, err := markdown.New(
//	    markdown.WithOutputFormat("html5"),
//	    markdown.WithSafeMode(session.SafeEscape),
//	    markdown.WithTabLength(2),
//	)
//
// # Extensions
//
// An Extension receives the converter from New and edits its registries:
//
//	md, err := markdown.New(markdown.WithExtensions(
//	    tables.New(),
//	    toc.New(toc.WithTitle("Contents")),
//	))
//
// The extensions subpackages provide tables, YAML front matter, syntax
// highlighting and a table of contents.
package markdown
