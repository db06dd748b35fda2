package preprocess

import (
	"regexp"
	"strings"

	"github.com/alnah/go-markdown/session"
)

const titlePattern = `[ ]*("(.*)"|'(.*)'|\((.*)\))[ ]*`

var (
	referenceRE = regexp.MustCompile(`(?s)^[ ]{0,3}\[([^\]]*)\]:\s*([^ ]*)[ ]*(` + titlePattern + `)?$`)
	titleRE     = regexp.MustCompile(`^` + titlePattern + `$`)
)

// Reference removes link reference definitions from the document and
// records them in the session.
type Reference struct{}

// NewReference returns the reference extractor.
func NewReference() *Reference { return &Reference{} }

// Run extracts definitions of the form [id]: url "title". The title may
// also sit alone on the following line.
func (*Reference) Run(s *session.Session, lines []string) []string {
	out := make([]string, 0, len(lines))
	for i := 0; i < len(lines); i++ {
		m := referenceRE.FindStringSubmatch(lines[i])
		if m == nil {
			out = append(out, lines[i])
			continue
		}
		id := strings.TrimSpace(m[1])
		link := strings.TrimRight(strings.TrimLeft(m[2], "<"), ">")
		title := firstNonEmpty(m[5], m[6], m[7])
		if title == "" && i+1 < len(lines) {
			if tm := titleRE.FindStringSubmatch(lines[i+1]); tm != nil {
				title = firstNonEmpty(tm[2], tm[3], tm[4])
				i++
			}
		}
		s.References.Set(id, session.Reference{URL: link, Title: title})
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
