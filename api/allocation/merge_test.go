package allocation

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"
)

func mustNormalize(t *testing.T, rows [][]string) ([]NormalizedRecord, []string) {
	t.Helper()
	recs, headers, err := Normalize(rows)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	return recs, headers
}

func TestMergeSumsQuantities(t *testing.T) {
	recs, headers := mustNormalize(t, [][]string{
		{"Application Number", "Beneficiary Name", "Requested Item", "Quantity", "Total Value", "Beneficiary Type", "Item Type", "Comments"},
		{"APP-1", "Salem", "Sewing Machine", "3", "300", "District", "Machine", "first batch"},
		{"APP-1", "Salem", "Sewing Machine", "5", "500", "District", "Machine", "second batch"},
	})
	res, err := NewMergeEngine().Merge(recs, headers)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if len(res.Rows) != 1 {
		t.Fatalf("want 1 merged row, got %d", len(res.Rows))
	}
	row := res.Rows[0]
	if row.Quantity != 8 {
		t.Fatalf("quantity: want 8, got %d", row.Quantity)
	}
	if row.WaitingHallQuantity != 0 || row.TokenQuantity != 8 {
		t.Fatalf("merged rows must restart at all tokens: W=%d T=%d", row.WaitingHallQuantity, row.TokenQuantity)
	}
	if row.MasterRow["Quantity"] != "8" || row.MasterRow["Total Value"] != "800" {
		t.Fatalf("master overwrite: %v", row.MasterRow)
	}
	if row.Comments != "first batch | second batch" {
		t.Fatalf("comments: %q", row.Comments)
	}

	if len(res.Audit) != 1 {
		t.Fatalf("want 1 audit row, got %d", len(res.Audit))
	}
	a := res.Audit[0]
	if a.MergedRowsCount != 2 {
		t.Fatalf("merged rows count: want 2, got %d", a.MergedRowsCount)
	}
	if a.QuantityBefore != 3 || a.QuantityAdded != 5 || a.QuantityAfter != 8 {
		t.Fatalf("quantity audit: before=%d added=%d after=%d", a.QuantityBefore, a.QuantityAdded, a.QuantityAfter)
	}
	if a.TotalValueAfter.String() != "800" {
		t.Fatalf("total value after: %s", a.TotalValueAfter)
	}
}

func TestMergeRecomputesUnitCost(t *testing.T) {
	recs, headers := mustNormalize(t, [][]string{
		{"Application Number", "Beneficiary Name", "Requested Item", "Quantity", "Total Value", "Unit Cost", "Beneficiary Type", "Item Type", "Comments"},
		{"APP-1", "Salem", "Tricycle", "2", "100", "50", "District", "Mobility", ""},
		{"APP-1", "Salem", "Tricycle", "2", "140", "70", "District", "Mobility", ""},
	})
	res, err := NewMergeEngine().Merge(recs, headers)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	master := res.Rows[0].MasterRow
	if master["Total Value"] != "240" {
		t.Fatalf("total value: %q", master["Total Value"])
	}
	if master["Unit Cost"] != "60" {
		t.Fatalf("unit cost should be recomputed from merged totals, got %q", master["Unit Cost"])
	}
}

func TestMergeIntegrityViolation(t *testing.T) {
	recs, headers := mustNormalize(t, [][]string{
		{"Application Number", "Beneficiary Name", "Requested Item", "Quantity", "Supplier Name", "Beneficiary Type", "Item Type", "Comments"},
		{"APP-1", "Salem", "Tricycle", "2", "Acme Traders", "District", "Mobility", ""},
		{"APP-1", "Salem", "Tricycle", "3", "Zenith Supplies", "District", "Mobility", ""},
	})
	_, err := NewMergeEngine().Merge(recs, headers)
	var ie *MergeIntegrityError
	if !errors.As(err, &ie) {
		t.Fatalf("want MergeIntegrityError, got %v", err)
	}
	if len(ie.Fields) != 1 || ie.Fields[0] != "Supplier Name" {
		t.Fatalf("want [Supplier Name], got %v", ie.Fields)
	}
	if ie.Key.ApplicationNumber != "APP-1" {
		t.Fatalf("key: %+v", ie.Key)
	}
}

func TestMergeKeysAreCaseSensitive(t *testing.T) {
	recs, headers := mustNormalize(t, [][]string{
		{"Application Number", "Beneficiary Name", "Requested Item", "Quantity", "Beneficiary Type", "Item Type", "Comments"},
		{"APP-1", "Salem", "Tricycle", "2", "District", "Mobility", ""},
		{"app-1", "Salem", "Tricycle", "3", "District", "Mobility", ""},
	})
	res, err := NewMergeEngine().Merge(recs, headers)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if len(res.Rows) != 2 {
		t.Fatalf("case-differing keys must not merge, got %d rows", len(res.Rows))
	}
}

func TestMergePreservesInputOrderAndSortOrder(t *testing.T) {
	recs, headers := mustNormalize(t, [][]string{
		{"Application Number", "Beneficiary Name", "Requested Item", "Quantity", "Beneficiary Type", "Item Type", "Comments"},
		{"APP-2", "Erode", "Wheelchair", "1", "District", "Mobility", ""},
		{"APP-1", "Salem", "Tricycle", "2", "District", "Mobility", ""},
		{"APP-2", "Erode", "Wheelchair", "4", "District", "Mobility", ""},
	})
	res, err := NewMergeEngine().Merge(recs, headers)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if len(res.Rows) != 2 {
		t.Fatalf("want 2 rows, got %d", len(res.Rows))
	}
	if res.Rows[0].ApplicationNumber != "APP-2" || res.Rows[1].ApplicationNumber != "APP-1" {
		t.Fatalf("first-occurrence order lost: %s, %s", res.Rows[0].ApplicationNumber, res.Rows[1].ApplicationNumber)
	}
	if *res.Rows[0].SortOrder != 0 || *res.Rows[1].SortOrder != 1 {
		t.Fatalf("sort order: %d, %d", *res.Rows[0].SortOrder, *res.Rows[1].SortOrder)
	}
}

func TestMergeWarnsWithoutValueColumn(t *testing.T) {
	recs, headers := mustNormalize(t, [][]string{
		{"Application Number", "Beneficiary Name", "Requested Item", "Quantity", "Beneficiary Type", "Item Type", "Comments"},
		{"APP-1", "Salem", "Tricycle", "2", "District", "Mobility", ""},
		{"APP-1", "Salem", "Tricycle", "3", "District", "Mobility", ""},
		{"APP-1", "Salem", "Tricycle", "4", "District", "Mobility", ""},
	})
	res, err := NewMergeEngine().Merge(recs, headers)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	// One warning per key, not per duplicate occurrence.
	if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0], "total-value") {
		t.Fatalf("want one total-value warning, got %v", res.Warnings)
	}
	if res.Rows[0].Quantity != 9 {
		t.Fatalf("quantity: want 9, got %d", res.Rows[0].Quantity)
	}
}

func TestMergeRestoresSplitFromReimport(t *testing.T) {
	recs, headers := mustNormalize(t, [][]string{
		{"Application Number", "Beneficiary Name", "Requested Item", "Quantity", "Beneficiary Type", "Item Type", "Comments", ColWaitingHall, ColToken},
		{"APP-1", "Salem", "Tricycle", "10", "District", "Mobility", "", "4", "6"},
		{"APP-2", "Erode", "Wheelchair", "3", "District", "Mobility", "", "99", "0"},
	})
	res, err := NewMergeEngine().Merge(recs, headers)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if res.Rows[0].WaitingHallQuantity != 4 || res.Rows[0].TokenQuantity != 6 {
		t.Fatalf("split not restored: W=%d T=%d", res.Rows[0].WaitingHallQuantity, res.Rows[0].TokenQuantity)
	}
	if res.Rows[1].WaitingHallQuantity != 3 || res.Rows[1].TokenQuantity != 0 {
		t.Fatalf("restored waiting must clamp to quantity: W=%d T=%d", res.Rows[1].WaitingHallQuantity, res.Rows[1].TokenQuantity)
	}
}

func TestJoinCommentsTruncates(t *testing.T) {
	long := strings.Repeat("x", 1500)
	got := joinComments(long, long)
	if len(got) != 2000 {
		t.Fatalf("want 2000 bytes, got %d", len(got))
	}
}

func TestJoinCommentsTruncatesOnRuneBoundary(t *testing.T) {
	// The cap lands inside the first three-byte rune of the second comment.
	got := joinComments(strings.Repeat("x", 1995), strings.Repeat("க", 5))
	if len(got) > 2000 {
		t.Fatalf("cap exceeded: %d bytes", len(got))
	}
	if !utf8.ValidString(got) {
		t.Fatalf("truncation split a rune: %q", got[len(got)-4:])
	}
}
