package allocation

import (
	"strconv"
	"strings"
)

var requiredColumns = []string{
	ColApplicationNumber,
	ColBeneficiaryName,
	ColRequestedItem,
	ColQuantity,
	ColBeneficiaryType,
	ColItemType,
	ColComments,
}

// Normalize maps decoded rows into typed records plus verbatim master rows.
// The first row is the header row; required columns are matched
// case-insensitively in any order. Extra columns are preserved in the master
// row but never interpreted here.
//
// Returns MalformedInputError when there are fewer than two non-blank rows
// and MissingColumnsError (listing every absent header) when the header row
// is incomplete. Either aborts the import before any store call.
func Normalize(rows [][]string) ([]NormalizedRecord, []string, error) {
	if len(rows) < 2 {
		return nil, nil, &MalformedInputError{Reason: "file must contain a header row and at least one data row"}
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(h)
	}

	colIdx := make(map[string]int, len(headers))
	for i, h := range headers {
		key := strings.ToLower(h)
		if _, seen := colIdx[key]; !seen {
			colIdx[key] = i
		}
	}

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := colIdx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, nil, &MissingColumnsError{Columns: missing}
	}

	var records []NormalizedRecord
	for _, row := range rows[1:] {
		cell := func(idx int) string {
			if idx < len(row) {
				return row[idx]
			}
			return ""
		}

		rec := InputRecord{
			ApplicationNumber: strings.TrimSpace(cell(colIdx[ColApplicationNumber])),
			BeneficiaryName:   strings.TrimSpace(cell(colIdx[ColBeneficiaryName])),
			RequestedItem:     strings.TrimSpace(cell(colIdx[ColRequestedItem])),
			Quantity:          parseQuantity(cell(colIdx[ColQuantity])),
			BeneficiaryType:   strings.TrimSpace(cell(colIdx[ColBeneficiaryType])),
			ItemType:          strings.TrimSpace(cell(colIdx[ColItemType])),
			Comments:          strings.TrimSpace(cell(colIdx[ColComments])),
		}

		// Spreadsheet exports pad with filler lines; drop rows carrying no data.
		if rec.ApplicationNumber == "" && rec.BeneficiaryName == "" && rec.RequestedItem == "" && rec.Quantity == 0 {
			continue
		}

		master := make(MasterRow, len(headers))
		for j, h := range headers {
			master[h] = cell(j)
		}

		records = append(records, NormalizedRecord{Record: rec, Master: master})
	}

	return records, headers, nil
}

// parseQuantity parses a cell as a non-negative integer quantity. Thousands
// separators are stripped; empty or non-numeric input resolves to 0.
func parseQuantity(s string) int {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	n := int(f)
	if n < 0 {
		return 0
	}
	return n
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
