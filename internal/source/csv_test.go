package source

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/dtable/internal/ir"
)

const basicCSV = `# basic table scenario
HDR,Basic table,stored-and-cheap
CND,data::is-stored,true
CND,market::shop,<3,,
OUT,outcome,true,else
OUT,text,hello world,no rule satisfied
`

func TestReadTable(t *testing.T) {
	def, err := ReadTable(strings.NewReader(basicCSV), "specs/basic.csv")
	require.NoError(t, err)

	assert.Equal(t, "basic", def.Name)
	assert.Equal(t, "specs/basic.csv", def.Origin)
	require.Len(t, def.Rows, 5)

	assert.Equal(t, ir.Row{Kind: ir.RowHeader, Cells: []string{"Basic table", "stored-and-cheap"}, Line: 2}, def.Rows[0])
	assert.Equal(t, []string{"market::shop", "<3"}, def.Rows[2].Cells, "trailing empty cells dropped")
	assert.Equal(t, ir.RowOutcome, def.Rows[4].Kind)
	assert.Equal(t, 6, def.Rows[4].Line)
}

func TestReadTable_QuotedCellsAndLowercaseTags(t *testing.T) {
	def, err := ReadTable(strings.NewReader("hdr,T,a\nout,text,\"hello, world\"\n"), "t.csv")
	require.NoError(t, err)
	assert.Equal(t, ir.RowHeader, def.Rows[0].Kind)
	assert.Equal(t, []string{"text", "hello, world"}, def.Rows[1].Cells)
}

func TestReadTable_UnknownTagKept(t *testing.T) {
	def, err := ReadTable(strings.NewReader("HDR,T,a\nXYZ,foo\n"), "t.csv")
	require.NoError(t, err)
	assert.Equal(t, ir.RowKind("XYZ"), def.Rows[1].Kind, "validation reports unknown tags")
}

func TestReadTable_Errors(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		_, err := ReadTable(strings.NewReader("# only a comment\n"), "empty.csv")
		var le *LoadError
		require.ErrorAs(t, err, &le)
		assert.Equal(t, ErrCodeParseFailed, le.Code)
	})

	t.Run("bad quote", func(t *testing.T) {
		_, err := ReadTable(strings.NewReader("HDR,T,a\nOUT,x,\"unterminated\n"), "bad.csv")
		var le *LoadError
		require.ErrorAs(t, err, &le)
		assert.Equal(t, ErrCodeParseFailed, le.Code)
		assert.Equal(t, "bad.csv", le.File)
	})
}
