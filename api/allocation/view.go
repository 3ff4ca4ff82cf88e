package allocation

import (
	"sort"
	"strconv"
	"strings"

	"SevaDeskSaas/internal/tabular"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Filters selects a subset of the in-memory row set. Zero values mean "all".
type Filters struct {
	Search          string `json:"search"`
	BeneficiaryType string `json:"beneficiary_type"`
	District        string `json:"district"`
	RequestedItem   string `json:"requested_item"`
}

// districtFilterActive: the district/institution-name filter only applies
// when the type filter narrows to districts or institutions; otherwise it is
// treated as reset to "all".
func (f Filters) districtFilterActive() bool {
	t := strings.ToLower(strings.TrimSpace(f.BeneficiaryType))
	return t == "district" || strings.Contains(t, "institution")
}

// ApplyFilters derives the filtered view. Pure: the input slice is never
// mutated.
func ApplyFilters(rows []SeatAllocationRow, f Filters) []SeatAllocationRow {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	useDistrict := f.District != "" && f.districtFilterActive()

	out := make([]SeatAllocationRow, 0, len(rows))
	for _, row := range rows {
		if f.BeneficiaryType != "" && !strings.EqualFold(row.BeneficiaryType, f.BeneficiaryType) {
			continue
		}
		if useDistrict && !strings.EqualFold(row.District, f.District) {
			continue
		}
		if f.RequestedItem != "" && !strings.EqualFold(row.RequestedItem, f.RequestedItem) {
			continue
		}
		if search != "" && !matchesSearch(row, search) {
			continue
		}
		out = append(out, row)
	}
	return out
}

func matchesSearch(row SeatAllocationRow, lowered string) bool {
	for _, field := range []string{row.ApplicationNumber, row.BeneficiaryName, row.RequestedItem, row.Comments} {
		if strings.Contains(strings.ToLower(field), lowered) {
			return true
		}
	}
	return false
}

// SortSpec names a displayed column and direction. Ascending by default.
type SortSpec struct {
	Column    string `json:"column"`
	Ascending bool   `json:"ascending"`
}

var sortCollator = collate.New(language.Und, collate.Loose)

// SortRows returns a sorted copy. String columns compare through the
// collator, quantity columns numerically.
func SortRows(rows []SeatAllocationRow, spec SortSpec) []SeatAllocationRow {
	out := make([]SeatAllocationRow, len(rows))
	copy(out, rows)

	less := func(a, b SeatAllocationRow) bool {
		switch spec.Column {
		case "quantity":
			return a.Quantity < b.Quantity
		case "waiting_hall_quantity":
			return a.WaitingHallQuantity < b.WaitingHallQuantity
		case "token_quantity":
			return a.TokenQuantity < b.TokenQuantity
		default:
			return sortCollator.CompareString(stringColumn(a, spec.Column), stringColumn(b, spec.Column)) < 0
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if spec.Ascending {
			return less(out[i], out[j])
		}
		return less(out[j], out[i])
	})
	return out
}

func stringColumn(row SeatAllocationRow, column string) string {
	switch column {
	case "application_number":
		return row.ApplicationNumber
	case "beneficiary_name":
		return row.BeneficiaryName
	case "requested_item":
		return row.RequestedItem
	case "beneficiary_type":
		return row.BeneficiaryType
	case "item_type":
		return row.ItemType
	case "comments":
		return row.Comments
	case "district":
		return row.District
	default:
		return row.ApplicationNumber
	}
}

// ExportSplitCSV re-serializes the full row set in district, item,
// application-number order using the original master headers, with the two
// split columns appended. Master columns already named exactly like the
// split columns are dropped from the header list so they are not duplicated.
func ExportSplitCSV(rows []SeatAllocationRow) string {
	if len(rows) == 0 {
		return ""
	}

	ordered := make([]SeatAllocationRow, len(rows))
	copy(ordered, rows)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if c := sortCollator.CompareString(a.District, b.District); c != 0 {
			return c < 0
		}
		if c := sortCollator.CompareString(a.RequestedItem, b.RequestedItem); c != 0 {
			return c < 0
		}
		return sortCollator.CompareString(a.ApplicationNumber, b.ApplicationNumber) < 0
	})

	var headers []string
	for _, h := range ordered[0].MasterHeaders {
		if h == ColWaitingHall || h == ColToken {
			continue
		}
		headers = append(headers, h)
	}

	out := make([][]string, 0, len(ordered)+1)
	out = append(out, append(append([]string{}, headers...), ColWaitingHall, ColToken))
	for _, row := range ordered {
		cells := make([]string, 0, len(headers)+2)
		for _, h := range headers {
			cells = append(cells, row.MasterRow[h])
		}
		cells = append(cells, strconv.Itoa(row.WaitingHallQuantity), strconv.Itoa(row.TokenQuantity))
		out = append(out, cells)
	}
	return tabular.Encode(out)
}

var mergedAuditHeaders = []string{
	"Application Number", "Beneficiary Name", "Requested Item",
	"Merged Rows Count",
	"Quantity Before", "Quantity Added", "Quantity After",
	"Total Value Before", "Total Value Added", "Total Value After",
}

// ExportMergedAuditCSV serializes the last import's merge audit as the
// fixed ten-column report.
func ExportMergedAuditCSV(audit []MergedAuditRow) string {
	out := make([][]string, 0, len(audit)+1)
	out = append(out, mergedAuditHeaders)
	for _, a := range audit {
		out = append(out, []string{
			a.ApplicationNumber, a.BeneficiaryName, a.RequestedItem,
			strconv.Itoa(a.MergedRowsCount),
			strconv.Itoa(a.QuantityBefore), strconv.Itoa(a.QuantityAdded), strconv.Itoa(a.QuantityAfter),
			a.TotalValueBefore.String(), a.TotalValueAdded.String(), a.TotalValueAfter.String(),
		})
	}
	return tabular.Encode(out)
}
