package constants

import "fmt"

// ============================================================================
// AUTHENTICATION & SESSION ERRORS
// ============================================================================

const (
	ErrSessionExpired = "Your session has expired. Please login again"
	ErrUnauthorized   = "You are not authorized to perform this action"
)

// ============================================================================
// FILE UPLOAD ERRORS
// ============================================================================

const (
	ErrFileUploadFailed  = "File upload failed. Please check the file format and try again"
	ErrInvalidFileFormat = "Invalid file format. Please upload a CSV, XLSX or XLS file"
	ErrFileParsingFailed = "Failed to parse file contents. Please check the file format"
	ErrEmptyFile         = "Uploaded file has no data rows"
	ErrInvalidHeaders    = "File has invalid or missing column headers"
)

// ============================================================================
// ALLOCATION ERRORS
// ============================================================================

const (
	ErrSessionNameRequired  = "session_name is required"
	ErrNoAllocationRows     = "No allocation rows found for this session"
	ErrRowNotFound          = "Allocation row not found"
	ErrSplitExceedsQuantity = "Waiting hall and token quantities must sum to the row quantity"
	ErrMergeAborted         = "Import aborted: duplicate rows differ outside mergeable fields"
	ErrReplacePartial       = "Session replace failed partway; the session may be partially replaced. Re-import the file"
	ErrUpdateNotSaved       = "Update could not be saved. Refresh to resync with stored values"
)

// ============================================================================
// DATABASE OPERATION ERRORS
// ============================================================================

const (
	ErrDatabaseConnection = "Database connection failed. Please try again later"
	ErrQueryFailed        = "Database query failed. Please contact support if this persists"
	ErrDatabaseDelete     = "Failed to delete rows from database"
)

// FormatError formats an error message with additional context
func FormatError(baseError string, context ...interface{}) string {
	if len(context) == 0 {
		return baseError
	}
	return fmt.Sprintf(baseError, context...)
}
