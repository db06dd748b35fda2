package preprocess

import (
	"regexp"
	"strings"

	"github.com/alnah/go-markdown/session"
)

// leftTagRE reads an opening tag and its attributes. Only the tag name and
// the length of the match are used.
var leftTagRE = regexp.MustCompile(
	`^<([^> ]+)((?:\s+[^>"'/= ]+=(?:"[^"\n]*"|'[^'\n]*')|\s+[^>"'/= ]+=[^> ]+|\s+[^>"'/= ]+)*)\s*/?>?`)

// HTMLBlock moves raw HTML blocks into the session stash and leaves a
// placeholder line in their place.
type HTMLBlock struct{}

// NewHTMLBlock returns the raw HTML block extractor.
func NewHTMLBlock() *HTMLBlock { return &HTMLBlock{} }

// Run extracts raw HTML blocks. A block that opens with a block-level tag is
// stashed whole, together with the blocks that follow it up to the matching
// closing tag.
func (*HTMLBlock) Run(s *session.Session, lines []string) []string {
	text := strings.Split(strings.Join(lines, "\n"), "\n\n")
	var (
		out     []string
		items   []string
		leftTag string
		inTag   bool
	)
	store := func(html string) { out = append(out, s.HTMLStash.Store(html, false)) }

	for len(text) > 0 {
		block := text[0]
		text = text[1:]
		for i := 0; i < 2 && strings.HasPrefix(block, "\n"); i++ {
			block = block[1:]
		}

		if !inTag {
			if !strings.HasPrefix(block, "<") || len(strings.TrimSpace(block)) <= 1 {
				out = append(out, block)
				continue
			}
			var leftIndex int
			leftTag, leftIndex = getLeftTag(block)
			rightTag, dataIndex := getRightTag(leftTag, leftIndex, block)

			blockLevel := session.IsBlockLevel(leftTag)
			if dataIndex < len(block) && (blockLevel || leftTag == "--") {
				text = append([]string{block[dataIndex:]}, text...)
				block = block[:dataIndex]
			}

			stripped := strings.TrimSpace(block)
			switch {
			case !(blockLevel || strings.ContainsRune("!?@%", rune(block[1]))):
				out = append(out, block)
			case isOneLiner(leftTag):
				out = append(out, stripped)
			case strings.HasSuffix(strings.TrimRight(block, " \t\n\r\f\v"), ">") && equalTags(leftTag, rightTag):
				store(stripped)
			case blockLevel || (leftTag == "--" && !strings.HasSuffix(strings.TrimRight(block, " \t\n\r\f\v"), ">")):
				items = append(items, stripped)
				inTag = true
			default:
				store(stripped)
			}
			continue
		}

		items = append(items, block)
		rightTag, dataIndex := getRightTag(leftTag, 0, block)
		if !equalTags(leftTag, rightTag) {
			continue
		}
		if dataIndex < len(block) {
			items[len(items)-1] = block[:dataIndex]
			text = append([]string{block[dataIndex:]}, text...)
		}
		inTag = false
		store(strings.Join(items, "\n\n"))
		items = nil
	}

	if len(items) > 0 {
		store(strings.Join(items, "\n\n"))
		out = append(out, "\n")
	}
	return strings.Split(strings.Join(out, "\n\n"), "\n")
}

// getLeftTag returns the name of the tag opening block and the offset just
// past it. A comment reports the tag "--".
func getLeftTag(block string) (string, int) {
	if len(block) >= 4 && block[1:4] == "!--" {
		return "--", 2
	}
	if m := leftTagRE.FindStringSubmatch(block); m != nil {
		return m[1], len(m[0])
	}
	tag, _, _ := strings.Cut(block[1:], ">")
	tag = strings.ToLower(tag)
	return tag, len(tag) + 2
}

// getRightTag finds the tag closing leftTag in block, skipping nested
// openings of the same tag, and returns it with the offset just past it.
// When no closing tag is found the last characters of block stand in.
func getRightTag(leftTag string, leftIndex int, block string) (string, int) {
	for _, rtag := range []string{"</" + leftTag + ">", leftTag + ">"} {
		i := recursiveTagFind("<"+leftTag, rtag, leftIndex, block)
		if i > 2 {
			tag := strings.TrimPrefix(rtag, "<")
			return strings.TrimSuffix(tag, ">"), i
		}
	}
	trimmed := strings.TrimRight(block, " \t\n\r\f\v")
	return strings.ToLower(pySlice(trimmed, -leftIndex, -1)), len(block)
}

// recursiveTagFind returns the offset just past the rtag that balances the
// ltag opened before start, or -1.
func recursiveTagFind(ltag, rtag string, start int, block string) int {
	for {
		i := indexFrom(block, rtag, start)
		if i == -1 {
			return -1
		}
		j := indexFrom(block, ltag, start)
		if j == -1 || j > i {
			return i + len(rtag)
		}
		// A nested opening: skip its closing tag first.
		j = indexFrom(block, ">", j)
		if j == -1 {
			return -1
		}
		start = recursiveTagFind(ltag, rtag, j+1, block)
		if start == -1 {
			return -1
		}
	}
}

func equalTags(leftTag, rightTag string) bool {
	if leftTag == "" {
		return false
	}
	switch {
	case strings.ContainsRune("?@%", rune(leftTag[0])):
		return true
	case "/"+leftTag == rightTag:
		return true
	case leftTag == "--" && rightTag == "--":
		return true
	case strings.HasPrefix(rightTag, "/") && leftTag == rightTag[1:]:
		return true
	}
	return false
}

func isOneLiner(tag string) bool { return tag == "hr" || tag == "hr/" }

func indexFrom(s, sub string, from int) int {
	if from < 0 {
		from = 0
	}
	if from > len(s) {
		return -1
	}
	i := strings.Index(s[from:], sub)
	if i < 0 {
		return -1
	}
	return from + i
}

// pySlice returns s[start:end] with negative offsets counted from the end
// and both ends clamped to the string. A zero start means the beginning.
func pySlice(s string, start, end int) string {
	clamp := func(i int) int {
		if i < 0 {
			i += len(s)
		}
		return max(0, min(i, len(s)))
	}
	a, b := clamp(start), clamp(end)
	if a >= b {
		return ""
	}
	return s[a:b]
}
