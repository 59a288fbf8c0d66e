package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeMissingParameter     ErrorCode = 102
	ErrCodeInvalidVersion       ErrorCode = 103
	ErrCodeInvalidDateRange     ErrorCode = 104
	ErrCodeColumnMismatch       ErrorCode = 105

	// Data/Resource errors (200-299)
	ErrCodeDataNotFound          ErrorCode = 200
	ErrCodeDataSourceUnavailable ErrorCode = 201
	ErrCodeQueryFailed           ErrorCode = 202
	ErrCodeNoDataFound           ErrorCode = 203
	ErrCodeDataEmpty             ErrorCode = 204

	// Market data errors (700-799)
	ErrCodeMarketDataFetchFailed ErrorCode = 700
	ErrCodeMarketDataWriteFailed ErrorCode = 701
	ErrCodeMarketDataParseFailed ErrorCode = 702
	ErrCodeInvalidTimespan       ErrorCode = 703
	ErrCodeInvalidProvider       ErrorCode = 704
	ErrCodeInvalidWriter         ErrorCode = 705

	// Fundamentals errors (750-799)
	ErrCodeFundamentalsFetchFailed ErrorCode = 750
	ErrCodeTickerNotFound          ErrorCode = 751
)
