package config

import "time"

const (
	DefaultTimeZone = "Asia/Kolkata"

	// Replace-all inserts are chunked to stay under store payload limits.
	ReplaceChunkSize = 500

	// Per-row split edits are coalesced for this long before hitting the store.
	SplitDebounceDelay = 600 * time.Millisecond

	// Merged comments are capped after " | " concatenation.
	MergedCommentsMaxLen = 2000

	// Session Retention Job Constants
	DefaultRetentionSchedule = "30 2 * * *" // nightly, after data-entry hours
	DefaultRetentionDays     = 90
)
