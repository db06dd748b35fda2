package blockparser

import (
	"regexp"
	"strings"

	"github.com/alnah/go-markdown/etree"
)

var (
	quoteRE     = regexp.MustCompile(`(?:^|\n)[ ]{0,3}>[ ]?(.*)`)
	quoteLineRE = regexp.MustCompile(`^[ ]{0,3}>[ ]?(.*)`)
)

// QuoteHandler handles "> " blockquotes. Lines before the first marker are
// parsed on their own first.
type QuoteHandler struct{}

func (QuoteHandler) Test(_ *Parser, _ etree.Node, block string) bool {
	return quoteRE.MatchString(block)
}

func (QuoteHandler) Run(p *Parser, parent etree.Node, blocks *Blocks) {
	block := blocks.Pop()
	if loc := quoteRE.FindStringIndex(block); loc != nil {
		if before := block[:loc[0]]; before != "" {
			p.ParseBlocks(parent, []string{before})
		}
		lines := strings.Split(block[loc[0]:], "\n")
		for i, line := range lines {
			lines[i] = dequote(line)
		}
		block = strings.Join(lines, "\n")
	}

	quote := parent.LastChild()
	if quote.IsNull() || quote.Tag() != "blockquote" {
		quote = SubElement(parent, "blockquote")
	}
	p.WithState("blockquote", func() {
		p.ParseChunk(quote, block)
	})
}

func dequote(line string) string {
	if strings.TrimSpace(line) == ">" {
		return ""
	}
	if m := quoteLineRE.FindStringSubmatch(line); m != nil {
		return m[1]
	}
	return line
}
