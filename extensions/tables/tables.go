// Package tables adds pipe tables:
//
//	Name | Qty
//	:--- | --:
//	pen  | 2
//
// The first row is the header, the second sets the column alignment, and
// every following row becomes a body row.
package tables

import (
	"regexp"
	"strings"

	markdown "github.com/alnah/go-markdown"
	"github.com/alnah/go-markdown/blockparser"
	"github.com/alnah/go-markdown/etree"
)

// separatorCellRE matches one cell of the alignment row.
var separatorCellRE = regexp.MustCompile(`^:?-+:?$`)

// Extension registers the table handler before the hash header handler.
type Extension struct{}

// New returns the tables extension.
func New() *Extension { return &Extension{} }

// Extend registers the "table" block handler.
func (*Extension) Extend(md *markdown.Markdown) error {
	return md.BlockHandlers.Insert("table", Handler{}, "<hashheader")
}

// Handler is the table block handler.
type Handler struct{}

var _ blockparser.Handler = Handler{}

// Test accepts a block of three or more rows whose second row is a valid
// alignment row.
func (Handler) Test(_ *blockparser.Parser, _ etree.Node, block string) bool {
	rows := strings.Split(block, "\n")
	if len(rows) < 3 || !strings.Contains(rows[0], "|") {
		return false
	}
	sep := strings.TrimSpace(rows[1])
	if !strings.Contains(sep, "|") || !strings.Contains(sep, "-") || !strings.ContainsRune("|:-", rune(sep[0])) {
		return false
	}
	for _, cell := range splitRow(sep, true) {
		if !separatorCellRE.MatchString(strings.TrimSpace(cell)) {
			return false
		}
	}
	return true
}

// Run builds the table. Every row gets one cell per alignment column;
// missing cells are left empty and extra cells are dropped.
func (Handler) Run(_ *blockparser.Parser, parent etree.Node, blocks *blockparser.Blocks) {
	rows := strings.Split(blocks.Pop(), "\n")
	header := strings.TrimSpace(rows[0])
	border := strings.HasPrefix(header, "|")

	var align []string
	for _, cell := range splitRow(strings.TrimSpace(rows[1]), true) {
		cell = strings.TrimSpace(cell)
		left, right := strings.HasPrefix(cell, ":"), strings.HasSuffix(cell, ":")
		switch {
		case left && right:
			align = append(align, "center")
		case left:
			align = append(align, "left")
		case right:
			align = append(align, "right")
		default:
			align = append(align, "")
		}
	}

	table := blockparser.SubElement(parent, "table")
	buildRow(blockparser.SubElement(table, "thead"), "th", header, align, border)
	tbody := blockparser.SubElement(table, "tbody")
	for _, row := range rows[2:] {
		buildRow(tbody, "td", strings.TrimSpace(row), align, border)
	}
}

func buildRow(parent etree.Node, tag, row string, align []string, border bool) {
	tr := blockparser.SubElement(parent, "tr")
	cells := splitRow(row, border)
	for i, a := range align {
		c := blockparser.SubElement(tr, tag)
		if i < len(cells) {
			c.SetText(strings.TrimSpace(cells[i]))
		}
		if a != "" {
			c.SetAttr("align", a)
		}
	}
}

// splitRow splits row on "|", dropping the outer pipes when border is set.
func splitRow(row string, border bool) []string {
	if border {
		row = strings.TrimPrefix(row, "|")
		row = strings.TrimSuffix(row, "|")
	}
	return strings.Split(row, "|")
}
