package allocation

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"SevaDeskSaas/internal/config"

	"github.com/shopspring/decimal"
)

// HeaderVariants maps each canonical value-bearing meaning to the literal
// header spellings accepted for it. Matching ignores case, spaces and
// underscores, so "Total Value", "TOTAL_VALUE" and "totalvalue" all hit the
// same slot. Master exports are source-controlled by an external tool, so
// the accepted spellings are data, not code.
type HeaderVariants struct {
	Quantity   []string
	TotalValue []string
	UnitCost   []string
}

// DefaultHeaderVariants covers the spellings seen in master exports so far.
func DefaultHeaderVariants() HeaderVariants {
	return HeaderVariants{
		Quantity:   []string{"Quantity"},
		TotalValue: []string{"Total Value", "Total Amount", "Total Cost"},
		UnitCost:   []string{"Cost", "Unit Price", "Unit Cost", "Rate"},
	}
}

func headerKey(h string) string {
	h = strings.ToLower(h)
	h = strings.ReplaceAll(h, " ", "")
	h = strings.ReplaceAll(h, "_", "")
	return h
}

type variantSet map[string]struct{}

func newVariantSet(spellings []string) variantSet {
	s := make(variantSet, len(spellings))
	for _, v := range spellings {
		s[headerKey(v)] = struct{}{}
	}
	return s
}

func (s variantSet) matches(header string) bool {
	_, ok := s[headerKey(header)]
	return ok
}

// MergeEngine deduplicates normalized records on the composite key and owns
// every merge decision. Downstream components never re-derive keys.
type MergeEngine struct {
	quantity   variantSet
	totalValue variantSet
	unitCost   variantSet
}

func NewMergeEngine() *MergeEngine {
	return NewMergeEngineWithVariants(DefaultHeaderVariants())
}

func NewMergeEngineWithVariants(v HeaderVariants) *MergeEngine {
	return &MergeEngine{
		quantity:   newVariantSet(v.Quantity),
		totalValue: newVariantSet(v.TotalValue),
		unitCost:   newVariantSet(v.UnitCost),
	}
}

// MergeResult carries the deduplicated rows (the entire new session
// content), the audit trail of what was merged, and non-fatal warnings.
type MergeResult struct {
	Rows     []SeatAllocationUploadRow
	Audit    []MergedAuditRow
	Warnings []string
}

type accumRow struct {
	up    SeatAllocationUploadRow
	audit *MergedAuditRow
}

// mergeExcluded reports whether a header is overwritten (or semantically
// merged) during a merge and therefore excluded from the integrity diff:
// the value-bearing variants, the comments column, and the split columns
// restored from a re-imported export.
func (e *MergeEngine) mergeExcluded(header string) bool {
	if e.quantity.matches(header) || e.totalValue.matches(header) || e.unitCost.matches(header) {
		return true
	}
	k := headerKey(header)
	return k == headerKey(ColComments) || k == headerKey(ColWaitingHall) || k == headerKey(ColToken)
}

// Merge iterates records in input order and collapses rows sharing a
// composite key. Quantities and total values sum, unit cost is recomputed,
// comments concatenate, and every other master field must be byte-identical
// across the merged rows; any difference fails the whole import with a
// MergeIntegrityError before anything is persisted.
func (e *MergeEngine) Merge(records []NormalizedRecord, headers []string) (*MergeResult, error) {
	byKey := make(map[CompositeKey]*accumRow)
	var order []CompositeKey
	var auditOrder []CompositeKey
	var warnings []string

	for i, nr := range records {
		key := keyOf(nr.Record)
		acc, exists := byKey[key]
		if !exists {
			so := i
			w := clamp(readIntCell(nr.Master, headers, ColWaitingHall), 0, nr.Record.Quantity)
			byKey[key] = &accumRow{up: SeatAllocationUploadRow{
				ApplicationNumber:   nr.Record.ApplicationNumber,
				BeneficiaryName:     nr.Record.BeneficiaryName,
				RequestedItem:       nr.Record.RequestedItem,
				Quantity:            nr.Record.Quantity,
				BeneficiaryType:     nr.Record.BeneficiaryType,
				ItemType:            nr.Record.ItemType,
				Comments:            nr.Record.Comments,
				District:            nr.Record.District(),
				WaitingHallQuantity: w,
				TokenQuantity:       nr.Record.Quantity - w,
				MasterRow:           nr.Master.Clone(),
				MasterHeaders:       headers,
				SortOrder:           &so,
			}}
			order = append(order, key)
			continue
		}

		if bad := e.integrityDiff(acc.up.MasterRow, nr.Master); len(bad) > 0 {
			return nil, &MergeIntegrityError{Key: key, Fields: bad}
		}

		prevQ := acc.up.Quantity
		mergedQ := prevQ + nr.Record.Quantity

		existTV, existOK := e.findMoney(acc.up.MasterRow, headers, e.totalValue)
		incTV, incOK := e.findMoney(nr.Master, headers, e.totalValue)
		mergedTV := existTV.Add(incTV)
		if !existOK && !incOK && acc.audit == nil {
			warnings = append(warnings, fmt.Sprintf(
				"merged duplicate rows for application %q / item %q without any recognized total-value column",
				key.ApplicationNumber, key.RequestedItem))
		}

		for _, h := range headers {
			switch {
			case e.quantity.matches(h):
				acc.up.MasterRow[h] = strconv.Itoa(mergedQ)
			case e.totalValue.matches(h):
				acc.up.MasterRow[h] = mergedTV.String()
			case e.unitCost.matches(h):
				if mergedQ == 0 {
					acc.up.MasterRow[h] = "0"
				} else {
					acc.up.MasterRow[h] = mergedTV.Div(decimal.NewFromInt(int64(mergedQ))).String()
				}
			case headerKey(h) == headerKey(ColWaitingHall):
				acc.up.MasterRow[h] = "0"
			case headerKey(h) == headerKey(ColToken):
				acc.up.MasterRow[h] = strconv.Itoa(mergedQ)
			}
		}

		acc.up.Comments = joinComments(acc.up.Comments, nr.Record.Comments)
		for _, h := range headers {
			if headerKey(h) == headerKey(ColComments) {
				acc.up.MasterRow[h] = acc.up.Comments
				break
			}
		}

		// Merged duplicates always restart the split at "all tokens".
		acc.up.Quantity = mergedQ
		acc.up.WaitingHallQuantity = 0
		acc.up.TokenQuantity = mergedQ

		if acc.audit == nil {
			acc.audit = &MergedAuditRow{
				ApplicationNumber: key.ApplicationNumber,
				BeneficiaryName:   key.BeneficiaryName,
				RequestedItem:     key.RequestedItem,
				MergedRowsCount:   1,
				QuantityBefore:    prevQ,
				TotalValueBefore:  existTV,
				TotalValueAdded:   decimal.Zero,
			}
			auditOrder = append(auditOrder, key)
		}
		acc.audit.MergedRowsCount++
		acc.audit.QuantityAdded += nr.Record.Quantity
		acc.audit.QuantityAfter = acc.audit.QuantityBefore + acc.audit.QuantityAdded
		acc.audit.TotalValueAdded = acc.audit.TotalValueAdded.Add(incTV)
		acc.audit.TotalValueAfter = acc.audit.TotalValueBefore.Add(acc.audit.TotalValueAdded)
	}

	res := &MergeResult{Warnings: warnings}
	for _, key := range order {
		res.Rows = append(res.Rows, byKey[key].up)
	}
	for _, key := range auditOrder {
		res.Audit = append(res.Audit, *byKey[key].audit)
	}
	return res, nil
}

// integrityDiff compares two master rows over the union of their field
// sets, skipping the merge-excluded headers, and returns the sorted names
// of every field whose value differs.
func (e *MergeEngine) integrityDiff(before, after MasterRow) []string {
	seen := make(map[string]struct{}, len(before)+len(after))
	var bad []string
	check := func(h string) {
		if _, done := seen[h]; done {
			return
		}
		seen[h] = struct{}{}
		if e.mergeExcluded(h) {
			return
		}
		if before[h] != after[h] {
			bad = append(bad, h)
		}
	}
	for h := range before {
		check(h)
	}
	for h := range after {
		check(h)
	}
	sort.Strings(bad)
	return bad
}

// findMoney returns the first value found under any total-value variant,
// scanning headers in column order for determinism.
func (e *MergeEngine) findMoney(master MasterRow, headers []string, set variantSet) (decimal.Decimal, bool) {
	for _, h := range headers {
		if !set.matches(h) {
			continue
		}
		if v, ok := master[h]; ok {
			return parseMoney(v), true
		}
	}
	return decimal.Zero, false
}

func parseMoney(s string) decimal.Decimal {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// readIntCell reads an integer from the master row under the given header,
// matched with the variant normalization. 0 when absent or unparseable.
func readIntCell(master MasterRow, headers []string, wanted string) int {
	for _, h := range headers {
		if headerKey(h) == headerKey(wanted) {
			return parseQuantity(master[h])
		}
	}
	return 0
}

func joinComments(a, b string) string {
	var joined string
	switch {
	case a == "":
		joined = b
	case b == "":
		joined = a
	default:
		joined = a + " | " + b
	}
	if len(joined) > config.MergedCommentsMaxLen {
		cut := config.MergedCommentsMaxLen
		for cut > 0 && !utf8.RuneStart(joined[cut]) {
			cut--
		}
		joined = joined[:cut]
	}
	return joined
}
