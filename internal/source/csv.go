package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/roach88/dtable/internal/ir"
)

// ReadTable parses one CSV rule table. The table is named after the file's
// base name without extension.
func ReadTable(r io.Reader, path string) (*ir.TableDef, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	def := &ir.TableDef{
		Name:   strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Origin: path,
	}

	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				return nil, &LoadError{Code: ErrCodeParseFailed, Message: perr.Err.Error(), File: path, Line: perr.Line}
			}
			return nil, &LoadError{Code: ErrCodeParseFailed, Message: err.Error(), File: path}
		}

		record = trimTrailingEmpty(record)
		if len(record) == 0 {
			continue
		}
		line, _ := cr.FieldPos(0)

		def.Rows = append(def.Rows, ir.Row{
			Kind:  ir.RowKind(strings.ToUpper(strings.TrimSpace(record[0]))),
			Cells: record[1:],
			Line:  line,
		})
	}

	if len(def.Rows) == 0 {
		return nil, &LoadError{Code: ErrCodeParseFailed, Message: fmt.Sprintf("table %s has no rows", def.Name), File: path}
	}
	return def, nil
}

func trimTrailingEmpty(record []string) []string {
	end := len(record)
	for end > 0 && strings.TrimSpace(record[end-1]) == "" {
		end--
	}
	return record[:end]
}
