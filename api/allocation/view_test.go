package allocation

import (
	"testing"

	"SevaDeskSaas/internal/tabular"

	"github.com/shopspring/decimal"
)

func viewRows() []SeatAllocationRow {
	return []SeatAllocationRow{
		{ID: "r1", ApplicationNumber: "APP-10", BeneficiaryName: "Salem", RequestedItem: "Tricycle", BeneficiaryType: "District", District: "Salem", Quantity: 5, TokenQuantity: 5},
		{ID: "r2", ApplicationNumber: "APP-2", BeneficiaryName: "Erode", RequestedItem: "Wheelchair", BeneficiaryType: "District", District: "Erode", Quantity: 2, TokenQuantity: 2, Comments: "urgent delivery"},
		{ID: "r3", ApplicationNumber: "APP-7", BeneficiaryName: "St. Joseph Home", RequestedItem: "Tricycle", BeneficiaryType: "Institutions", District: NonDistrict, Quantity: 9, TokenQuantity: 9},
		{ID: "r4", ApplicationNumber: "APP-4", BeneficiaryName: "Someone", RequestedItem: "Hearing Aid", BeneficiaryType: "Public", District: NonDistrict, Quantity: 1, TokenQuantity: 1},
	}
}

func idsOf(rows []SeatAllocationRow) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.ID)
	}
	return out
}

func TestApplyFiltersByType(t *testing.T) {
	got := ApplyFilters(viewRows(), Filters{BeneficiaryType: "district"})
	if len(got) != 2 {
		t.Fatalf("want 2 district rows, got %v", idsOf(got))
	}
}

func TestApplyFiltersDistrictGatedByType(t *testing.T) {
	rows := viewRows()

	got := ApplyFilters(rows, Filters{BeneficiaryType: "District", District: "Salem"})
	if len(got) != 1 || got[0].ID != "r1" {
		t.Fatalf("want [r1], got %v", idsOf(got))
	}

	// Without a district/institution type filter the district filter resets.
	got = ApplyFilters(rows, Filters{District: "Salem"})
	if len(got) != 4 {
		t.Fatalf("district filter must be inert without a type filter, got %v", idsOf(got))
	}
	got = ApplyFilters(rows, Filters{BeneficiaryType: "Public", District: "Salem"})
	if len(got) != 1 || got[0].ID != "r4" {
		t.Fatalf("want [r4], got %v", idsOf(got))
	}
}

func TestApplyFiltersSearch(t *testing.T) {
	got := ApplyFilters(viewRows(), Filters{Search: "URGENT"})
	if len(got) != 1 || got[0].ID != "r2" {
		t.Fatalf("search should match comments case-insensitively, got %v", idsOf(got))
	}
	got = ApplyFilters(viewRows(), Filters{Search: "tricycle"})
	if len(got) != 2 {
		t.Fatalf("want 2 tricycle rows, got %v", idsOf(got))
	}
}

func TestApplyFiltersCombine(t *testing.T) {
	got := ApplyFilters(viewRows(), Filters{BeneficiaryType: "Institutions", RequestedItem: "Tricycle"})
	if len(got) != 1 || got[0].ID != "r3" {
		t.Fatalf("want [r3], got %v", idsOf(got))
	}
}

func TestApplyFiltersPure(t *testing.T) {
	rows := viewRows()
	ApplyFilters(rows, Filters{BeneficiaryType: "Public"})
	if len(rows) != 4 {
		t.Fatalf("input slice mutated: %d", len(rows))
	}
}

func TestSortRowsNumeric(t *testing.T) {
	got := SortRows(viewRows(), SortSpec{Column: "quantity", Ascending: true})
	want := []string{"r4", "r2", "r1", "r3"}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("ascending quantity order: got %v", idsOf(got))
		}
	}
	got = SortRows(viewRows(), SortSpec{Column: "quantity"})
	if got[0].ID != "r3" {
		t.Fatalf("descending quantity order: got %v", idsOf(got))
	}
}

func TestSortRowsString(t *testing.T) {
	got := SortRows(viewRows(), SortSpec{Column: "beneficiary_name", Ascending: true})
	if got[0].BeneficiaryName != "Erode" || got[3].BeneficiaryName != "St. Joseph Home" {
		t.Fatalf("name order: %v", idsOf(got))
	}
}

func TestSortRowsStable(t *testing.T) {
	got := SortRows(viewRows(), SortSpec{Column: "requested_item", Ascending: true})
	// r1 precedes r3 in the input and both are tricycles.
	var tricycles []string
	for _, r := range got {
		if r.RequestedItem == "Tricycle" {
			tricycles = append(tricycles, r.ID)
		}
	}
	if len(tricycles) != 2 || tricycles[0] != "r1" || tricycles[1] != "r3" {
		t.Fatalf("equal keys must keep input order: %v", tricycles)
	}
}

func TestExportSplitCSV(t *testing.T) {
	headers := []string{"Application Number", "Beneficiary Name", "Requested Item", "Quantity", "Beneficiary Type", "Item Type", "Comments"}
	rows := []SeatAllocationRow{
		{
			ID: "r1", ApplicationNumber: "APP-2", BeneficiaryName: "Salem", RequestedItem: "Tricycle",
			BeneficiaryType: "District", District: "Salem", Quantity: 5, WaitingHallQuantity: 2, TokenQuantity: 3,
			MasterHeaders: headers,
			MasterRow: MasterRow{
				"Application Number": "APP-2", "Beneficiary Name": "Salem", "Requested Item": "Tricycle",
				"Quantity": "5", "Beneficiary Type": "District", "Item Type": "Mobility", "Comments": "has, comma",
			},
		},
		{
			ID: "r2", ApplicationNumber: "APP-1", BeneficiaryName: "Erode", RequestedItem: "Wheelchair",
			BeneficiaryType: "District", District: "Erode", Quantity: 3, WaitingHallQuantity: 0, TokenQuantity: 3,
			MasterHeaders: headers,
			MasterRow: MasterRow{
				"Application Number": "APP-1", "Beneficiary Name": "Erode", "Requested Item": "Wheelchair",
				"Quantity": "3", "Beneficiary Type": "District", "Item Type": "Mobility", "Comments": "",
			},
		},
	}

	decoded := tabular.Decode(ExportSplitCSV(rows))
	if len(decoded) != 3 {
		t.Fatalf("want header + 2 rows, got %d", len(decoded))
	}
	head := decoded[0]
	if head[len(head)-2] != ColWaitingHall || head[len(head)-1] != ColToken {
		t.Fatalf("split columns must come last: %v", head)
	}
	// Erode sorts before Salem.
	if decoded[1][0] != "APP-1" || decoded[2][0] != "APP-2" {
		t.Fatalf("district order: %v / %v", decoded[1], decoded[2])
	}
	if decoded[2][len(head)-2] != "2" || decoded[2][len(head)-1] != "3" {
		t.Fatalf("split values: %v", decoded[2])
	}
	if decoded[2][6] != "has, comma" {
		t.Fatalf("quoted cell lost: %v", decoded[2])
	}
}

func TestExportSplitCSVDropsExistingSplitColumns(t *testing.T) {
	headers := []string{"Application Number", "Beneficiary Name", "Requested Item", "Quantity", "Beneficiary Type", "Item Type", "Comments", ColWaitingHall, ColToken}
	rows := []SeatAllocationRow{{
		ID: "r1", ApplicationNumber: "APP-1", BeneficiaryName: "Salem", RequestedItem: "Tricycle",
		BeneficiaryType: "District", District: "Salem", Quantity: 5, WaitingHallQuantity: 1, TokenQuantity: 4,
		MasterHeaders: headers,
		MasterRow: MasterRow{
			"Application Number": "APP-1", "Beneficiary Name": "Salem", "Requested Item": "Tricycle",
			"Quantity": "5", "Beneficiary Type": "District", "Item Type": "Mobility", "Comments": "",
			ColWaitingHall: "0", ColToken: "5",
		},
	}}

	decoded := tabular.Decode(ExportSplitCSV(rows))
	head := decoded[0]
	count := 0
	for _, h := range head {
		if h == ColWaitingHall {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("split column duplicated in header: %v", head)
	}
	if decoded[1][len(head)-2] != "1" || decoded[1][len(head)-1] != "4" {
		t.Fatalf("current split values must win: %v", decoded[1])
	}
}

func TestExportSplitCSVEmpty(t *testing.T) {
	if got := ExportSplitCSV(nil); got != "" {
		t.Fatalf("want empty export, got %q", got)
	}
}

// An exported session must survive being imported again: same master values,
// same splits.
func TestExportReimportRoundTrip(t *testing.T) {
	recs, headers := mustNormalize(t, [][]string{
		{"Application Number", "Beneficiary Name", "Requested Item", "Quantity", "Total Value", "Beneficiary Type", "Item Type", "Comments", "Supplier Name"},
		{"APP-1", "Salem", "Tricycle", "10", "1000", "District", "Mobility", "line one\nline two", "Acme, Traders"},
		{"APP-2", "Erode", "Wheelchair", "3", "450", "District", "Mobility", "", "Zenith"},
	})
	res, err := NewMergeEngine().Merge(recs, headers)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}

	rows := make([]SeatAllocationRow, 0, len(res.Rows))
	for i, up := range res.Rows {
		row := SeatAllocationRow{
			ID:                "row-" + up.ApplicationNumber,
			ApplicationNumber: up.ApplicationNumber, BeneficiaryName: up.BeneficiaryName,
			RequestedItem: up.RequestedItem, BeneficiaryType: up.BeneficiaryType,
			ItemType: up.ItemType, Comments: up.Comments, District: up.District,
			Quantity: up.Quantity, WaitingHallQuantity: up.WaitingHallQuantity, TokenQuantity: up.TokenQuantity,
			MasterRow: up.MasterRow, MasterHeaders: up.MasterHeaders,
		}
		if i == 0 {
			row.WaitingHallQuantity = 4
			row.TokenQuantity = row.Quantity - 4
		}
		rows = append(rows, row)
	}

	recs2, headers2, err := Normalize(tabular.Decode(ExportSplitCSV(rows)))
	if err != nil {
		t.Fatalf("re-import normalize: %v", err)
	}
	res2, err := NewMergeEngine().Merge(recs2, headers2)
	if err != nil {
		t.Fatalf("re-import merge: %v", err)
	}
	if len(res2.Rows) != 2 || len(res2.Audit) != 0 {
		t.Fatalf("re-import altered the row set: %d rows, %d audit", len(res2.Rows), len(res2.Audit))
	}

	byApp := make(map[string]SeatAllocationUploadRow)
	for _, r := range res2.Rows {
		byApp[r.ApplicationNumber] = r
	}
	first := byApp["APP-1"]
	if first.WaitingHallQuantity != 4 || first.TokenQuantity != 6 {
		t.Fatalf("split lost on round trip: W=%d T=%d", first.WaitingHallQuantity, first.TokenQuantity)
	}
	if first.MasterRow["Supplier Name"] != "Acme, Traders" {
		t.Fatalf("quoted master value lost: %q", first.MasterRow["Supplier Name"])
	}
	if first.Comments != "line one\nline two" {
		t.Fatalf("embedded newline lost: %q", first.Comments)
	}
}

func TestExportMergedAuditCSV(t *testing.T) {
	audit := []MergedAuditRow{{
		ApplicationNumber: "APP-1", BeneficiaryName: "Salem", RequestedItem: "Tricycle",
		MergedRowsCount: 2, QuantityBefore: 3, QuantityAdded: 5, QuantityAfter: 8,
		TotalValueBefore: decimal.NewFromInt(300), TotalValueAdded: decimal.NewFromInt(500), TotalValueAfter: decimal.NewFromInt(800),
	}}
	decoded := tabular.Decode(ExportMergedAuditCSV(audit))
	if len(decoded) != 2 {
		t.Fatalf("want header + 1 row, got %d", len(decoded))
	}
	if len(decoded[0]) != 10 {
		t.Fatalf("want 10 columns, got %d: %v", len(decoded[0]), decoded[0])
	}
	if decoded[1][3] != "2" || decoded[1][6] != "8" || decoded[1][9] != "800" {
		t.Fatalf("audit row: %v", decoded[1])
	}
}
