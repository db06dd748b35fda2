// Package meta strips a YAML front matter block from the start of a
// document and records it as the document's metadata.
//
//	---
//	title: Notes
//	tags: [draft]
//	---
//	# Notes
//
// The block opens with "---" on the first line and closes with "---" or
// "...". The decoded mapping is available from Markdown.Meta.
package meta

import (
	"strings"

	markdown "github.com/alnah/go-markdown"
	"github.com/alnah/go-markdown/internal/yamlutil"
	"github.com/alnah/go-markdown/session"
)

// Extension registers the front matter preprocessor.
type Extension struct{}

// New returns the meta extension.
func New() *Extension { return &Extension{} }

// Extend registers "meta" right after whitespace normalization.
func (*Extension) Extend(md *markdown.Markdown) error {
	return md.Preprocessors.Insert("meta", Preprocessor{}, ">normalize_whitespace")
}

// Preprocessor extracts front matter into the session.
type Preprocessor struct{}

var _ markdown.Preprocessor = Preprocessor{}

// Run removes the front matter from lines. Without a closing delimiter,
// or when the block is not a YAML mapping, lines are returned unchanged.
func (Preprocessor) Run(s *session.Session, lines []string) []string {
	if len(lines) == 0 || strings.TrimRight(lines[0], " ") != "---" {
		return lines
	}
	end := -1
	for i := 1; i < len(lines); i++ {
		if l := strings.TrimRight(lines[i], " "); l == "---" || l == "..." {
			end = i
			break
		}
	}
	if end < 0 {
		return lines
	}

	body := strings.Join(lines[1:end], "\n")
	if strings.TrimSpace(body) != "" {
		meta, err := yamlutil.DecodeMapping([]byte(body))
		if err != nil {
			s.Log.WithError(err).Warn("front matter ignored")
			return lines
		}
		for k, v := range meta {
			s.Meta[k] = v
		}
	}
	return lines[end+1:]
}
