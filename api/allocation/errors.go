package allocation

import (
	"fmt"
	"strings"
)

// MalformedInputError: the file has fewer than two non-blank lines, or no
// usable shape at all. Detected before any store call.
type MalformedInputError struct {
	Reason string
}

func (e *MalformedInputError) Error() string {
	return "malformed input: " + e.Reason
}

// MissingColumnsError: one or more required headers are absent. Aborts the
// entire import with no partial write.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return "missing required columns: " + strings.Join(e.Columns, ", ")
}

// MergeIntegrityError: two rows merged on the composite key but differ in a
// master-row field outside the mergeable allow-list. Fatal for the whole
// import; nothing is persisted.
type MergeIntegrityError struct {
	Key    CompositeKey
	Fields []string
}

func (e *MergeIntegrityError) Error() string {
	return fmt.Sprintf(
		"merge integrity violation for application %q / beneficiary %q: field(s) %s changed during merge",
		e.Key.ApplicationNumber, e.Key.BeneficiaryName, strings.Join(e.Fields, ", "),
	)
}

// PersistenceError wraps a store failure. During replace-all the session may
// be left partially replaced; during a single-row update the in-memory value
// stays ahead of storage.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
