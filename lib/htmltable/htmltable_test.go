package htmltable

import (
	"testing"
	"zkhmon-backend/lib/htmljson"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestRows(t *testing.T) {
	doc, err := htmljson.Parse(`
<form id="countersForm">
<table>
	<tr><th>Type</th><th>Value</th></tr>
	<tr>
		<td>Cold water</td>
		<td>381 <span class="unit">m3</span></td>
	</tr>
	<tr>
		<td><b>Electricity</b></td>
		<td>  10772  </td>
	</tr>
</table>
</form>`)
	if err != nil {
		t.Fatal(err)
	}

	rows := Rows(doc, "#countersForm table tr")
	diff := cmp.Diff([][]string{
		{"Type", "Value"},
		// nested annotation text is not part of the cell value
		{"Cold water", "381"},
		// cell value held entirely inside an inline tag
		{"Electricity", "10772"},
	}, rows)
	if diff != "" {
		t.Fatal(diff)
	}
}

func TestRowsNoMatch(t *testing.T) {
	doc, err := htmljson.Parse(`<div>no tables here</div>`)
	if err != nil {
		t.Fatal(err)
	}

	require.Nil(t, Rows(doc, "#countersForm table tr"))
}

func TestRowWithoutCells(t *testing.T) {
	doc, err := htmljson.Parse(`<table><tr></tr></table>`)
	if err != nil {
		t.Fatal(err)
	}

	rows := Rows(doc, "table tr")
	require.Equal(t, [][]string{{}}, rows)
}
