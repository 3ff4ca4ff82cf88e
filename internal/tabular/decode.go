// Package tabular implements the delimited-text codec used for master file
// imports and exports. Master CSVs come from spreadsheet tools with quoted
// fields, embedded commas and newlines, and mixed line endings, so decoding
// is a single streaming character scan rather than line splitting.
package tabular

import "strings"

// Decode parses comma-delimited text into rows of cells. Quoted fields may
// contain commas and newlines; a doubled quote inside a quoted field is a
// literal quote. CRLF, CR and LF all terminate a row. Rows whose cells are
// all empty after trimming are dropped.
//
// An unterminated quote is consumed greedily to end of input. That is a
// documented limitation of the scan, not an error.
func Decode(text string) [][]string {
	var rows [][]string
	var row []string
	var cell strings.Builder
	inQuotes := false

	endRow := func() {
		row = append(row, cell.String())
		cell.Reset()
		blank := true
		for _, c := range row {
			if strings.TrimSpace(c) != "" {
				blank = false
				break
			}
		}
		if !blank {
			rows = append(rows, row)
		}
		row = nil
	}

	i := 0
	for i < len(text) {
		c := text[i]
		if inQuotes {
			if c == '"' {
				if i+1 < len(text) && text[i+1] == '"' {
					cell.WriteByte('"')
					i += 2
					continue
				}
				inQuotes = false
				i++
				continue
			}
			cell.WriteByte(c)
			i++
			continue
		}
		switch c {
		case '"':
			inQuotes = true
			i++
		case ',':
			row = append(row, cell.String())
			cell.Reset()
			i++
		case '\r':
			endRow()
			if i+1 < len(text) && text[i+1] == '\n' {
				i += 2
			} else {
				i++
			}
		case '\n':
			endRow()
			i++
		default:
			cell.WriteByte(c)
			i++
		}
	}
	if cell.Len() > 0 || len(row) > 0 {
		endRow()
	}
	return rows
}
