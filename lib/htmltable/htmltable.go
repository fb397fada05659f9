// Package htmltable extracts HTML table rows as ordered lists of cell
// text, the raw input for positional row parsing.
package htmltable

import (
	"strings"
	"zkhmon-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

// Rows selects row elements and returns their cell text in document
// order. It returns nil when the selector matches no rows at all, which
// is distinct from a matched row without cells (an empty inner slice).
func Rows(doc *goquery.Document, selector string) [][]string {
	matches := doc.Find(selector)
	if matches.Length() == 0 {
		return nil
	}

	rows := make([][]string, 0, matches.Length())
	matches.Each(func(_ int, row *goquery.Selection) {
		cells := []string{}
		row.Find("td, th").Each(func(_ int, cell *goquery.Selection) {
			cells = append(cells, CellText(cell))
		})
		rows = append(rows, cells)
	})
	return rows
}

// CellText applies the two-tier cell text rule: the cell's direct text
// fragments if it has any, otherwise its full recursive text. Source
// markup wraps some values in inline tags whose nested annotations must
// not double-count, while other cells keep their value inside a single
// inline tag with no direct text at all.
func CellText(cell *goquery.Selection) string {
	if len(cell.Nodes) == 0 {
		return ""
	}
	direct := htmlutil.DirectText(cell.Nodes[0])
	if direct != "" {
		return direct
	}
	return strings.TrimSpace(cell.Text())
}
