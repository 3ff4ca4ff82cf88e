package allocation

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Required master file columns, case-insensitive, any order.
const (
	ColApplicationNumber = "application number"
	ColBeneficiaryName   = "beneficiary name"
	ColRequestedItem     = "requested item"
	ColQuantity          = "quantity"
	ColBeneficiaryType   = "beneficiary type"
	ColItemType          = "item type"
	ColComments          = "comments"
)

// Split columns appended on export. Present in the master row only when a
// previously exported file is re-imported.
const (
	ColWaitingHall = "Waiting Hall Quantity"
	ColToken       = "Token Quantity"
)

const NonDistrict = "Non-District"

// InputRecord is one logical beneficiary/article request line from a master
// file row.
type InputRecord struct {
	ApplicationNumber string `json:"application_number"`
	BeneficiaryName   string `json:"beneficiary_name"`
	RequestedItem     string `json:"requested_item"`
	Quantity          int    `json:"quantity"`
	BeneficiaryType   string `json:"beneficiary_type"`
	ItemType          string `json:"item_type"`
	Comments          string `json:"comments"`
}

// District derives the district grouping: the beneficiary name itself for
// district-type beneficiaries, a fixed bucket for everyone else.
func (r InputRecord) District() string {
	if strings.EqualFold(strings.TrimSpace(r.BeneficiaryType), "district") {
		return r.BeneficiaryName
	}
	return NonDistrict
}

// MasterRow preserves the entire original file row verbatim, keyed by the
// original header string. Columns the application never interprets still
// round-trip through import, storage and export untouched.
type MasterRow map[string]string

// Clone returns an independent copy.
func (m MasterRow) Clone() MasterRow {
	out := make(MasterRow, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// NormalizedRecord pairs the typed record with its verbatim master row.
type NormalizedRecord struct {
	Record InputRecord
	Master MasterRow
}

// SeatAllocationUploadRow is the shape handed to the store on replace-all.
// Identity and audit fields are server-assigned on insert.
type SeatAllocationUploadRow struct {
	ApplicationNumber   string    `json:"application_number"`
	BeneficiaryName     string    `json:"beneficiary_name"`
	RequestedItem       string    `json:"requested_item"`
	Quantity            int       `json:"quantity"`
	BeneficiaryType     string    `json:"beneficiary_type"`
	ItemType            string    `json:"item_type"`
	Comments            string    `json:"comments"`
	District            string    `json:"district"`
	WaitingHallQuantity int       `json:"waiting_hall_quantity"`
	TokenQuantity       int       `json:"token_quantity"`
	MasterRow           MasterRow `json:"master_row"`
	MasterHeaders       []string  `json:"master_headers"`
	SortOrder           *int      `json:"sort_order"`
}

// SeatAllocationRow is the persisted entity as read back from the store.
// Invariant: WaitingHallQuantity + TokenQuantity == Quantity.
type SeatAllocationRow struct {
	ID                  string     `json:"id"`
	SessionName         string     `json:"session_name"`
	SourceFileName      string     `json:"source_file_name"`
	ApplicationNumber   string     `json:"application_number"`
	BeneficiaryName     string     `json:"beneficiary_name"`
	RequestedItem       string     `json:"requested_item"`
	Quantity            int        `json:"quantity"`
	BeneficiaryType     string     `json:"beneficiary_type"`
	ItemType            string     `json:"item_type"`
	Comments            string     `json:"comments"`
	District            string     `json:"district"`
	WaitingHallQuantity int        `json:"waiting_hall_quantity"`
	TokenQuantity       int        `json:"token_quantity"`
	MasterRow           MasterRow  `json:"master_row"`
	MasterHeaders       []string   `json:"master_headers"`
	SortOrder           *int       `json:"sort_order"`
	CreatedBy           *string    `json:"created_by"`
	UpdatedBy           *string    `json:"updated_by"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           *time.Time `json:"updated_at"`
}

// MergedAuditRow summarizes one composite key that collapsed two or more
// input rows. Held in memory for the latest import only, exported on demand.
type MergedAuditRow struct {
	ApplicationNumber string          `json:"application_number"`
	BeneficiaryName   string          `json:"beneficiary_name"`
	RequestedItem     string          `json:"requested_item"`
	MergedRowsCount   int             `json:"merged_rows_count"`
	QuantityBefore    int             `json:"quantity_before"`
	QuantityAdded     int             `json:"quantity_added"`
	QuantityAfter     int             `json:"quantity_after"`
	TotalValueBefore  decimal.Decimal `json:"total_value_before"`
	TotalValueAdded   decimal.Decimal `json:"total_value_added"`
	TotalValueAfter   decimal.Decimal `json:"total_value_after"`
}

// CompositeKey identifies rows that represent the same beneficiary/article
// pair. Fields are whitespace-trimmed, comparison is case-sensitive. Key
// computation belongs to the merge engine alone.
type CompositeKey struct {
	ApplicationNumber string
	District          string
	RequestedItem     string
	BeneficiaryName   string
}

func keyOf(r InputRecord) CompositeKey {
	return CompositeKey{
		ApplicationNumber: strings.TrimSpace(r.ApplicationNumber),
		District:          strings.TrimSpace(r.District()),
		RequestedItem:     strings.TrimSpace(r.RequestedItem),
		BeneficiaryName:   strings.TrimSpace(r.BeneficiaryName),
	}
}
