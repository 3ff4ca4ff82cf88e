package tabular

import "strings"

// EncodeCell re-quotes a single value for CSV output. Quoting is applied
// only when the value needs it, so content round-trips even if the original
// quoting style does not.
func EncodeCell(value string) string {
	if strings.ContainsAny(value, ",\"\r\n") {
		return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
	}
	return value
}

// EncodeRow serializes one row of cells.
func EncodeRow(cells []string) string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = EncodeCell(c)
	}
	return strings.Join(out, ",")
}

// Encode serializes rows to CRLF-terminated CSV text.
func Encode(rows [][]string) string {
	var b strings.Builder
	for _, row := range rows {
		b.WriteString(EncodeRow(row))
		b.WriteString("\r\n")
	}
	return b.String()
}
