// Package errors provides structured error handling for maar.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: Storage errors (SQLite, index files)
//   - 3XX: Network errors (embedder, rerank model)
//   - 4XX: Validation errors
//   - 5XX: Retrieval errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryStorage indicates metadata store and index I/O errors.
	CategoryStorage Category = "STORAGE"
	// CategoryNetwork indicates network-related errors.
	CategoryNetwork Category = "NETWORK"
	// CategoryValidation indicates input validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryRetrieval indicates search pipeline errors.
	CategoryRetrieval Category = "RETRIEVAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates unrecoverable error, must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed but can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"

	// Storage errors (200-299)
	ErrCodeStoreOpen    = "ERR_201_STORE_OPEN"
	ErrCodeStoreQuery   = "ERR_202_STORE_QUERY"
	ErrCodeCorruptIndex = "ERR_203_CORRUPT_INDEX"

	// Network errors (300-399)
	ErrCodeNetworkTimeout     = "ERR_301_NETWORK_TIMEOUT"
	ErrCodeNetworkUnavailable = "ERR_302_NETWORK_UNAVAILABLE"
	ErrCodeEmbedderFailed     = "ERR_303_EMBEDDER_FAILED"
	ErrCodeRerankFailed       = "ERR_304_RERANK_FAILED"

	// Validation errors (400-499)
	ErrCodeInvalidInput      = "ERR_401_INVALID_INPUT"
	ErrCodeInvalidLimit      = "ERR_402_INVALID_LIMIT"
	ErrCodeInvalidThreshold  = "ERR_403_INVALID_THRESHOLD"
	ErrCodeInvalidFilter     = "ERR_404_INVALID_FILTER"
	ErrCodeInvalidSearchType = "ERR_405_INVALID_SEARCH_TYPE"

	// Retrieval errors (500-599)
	ErrCodeRetrievalUnavailable = "ERR_501_RETRIEVAL_UNAVAILABLE"
	ErrCodeDegradedRetrieval    = "ERR_502_DEGRADED_RETRIEVAL"
	ErrCodeIndexNotReady        = "ERR_503_INDEX_NOT_READY"
	ErrCodeIndexBuildFailed     = "ERR_504_INDEX_BUILD_FAILED"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryRetrieval
	}

	// Numeric portion, e.g. "101" from "ERR_101_CONFIG_NOT_FOUND".
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryStorage
	case '3':
		return CategoryNetwork
	case '4':
		return CategoryValidation
	default:
		return CategoryRetrieval
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeCorruptIndex, ErrCodeRetrievalUnavailable:
		return SeverityFatal
	case ErrCodeDegradedRetrieval, ErrCodeIndexNotReady:
		return SeverityWarning
	}

	if isRetryableCode(code) {
		return SeverityWarning
	}

	return SeverityError
}

// isRetryableCode checks if an error code represents a retryable error.
func isRetryableCode(code string) bool {
	switch code {
	case ErrCodeNetworkTimeout, ErrCodeNetworkUnavailable, ErrCodeEmbedderFailed, ErrCodeRerankFailed:
		return true
	default:
		return false
	}
}
