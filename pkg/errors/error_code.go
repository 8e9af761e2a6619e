package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidPeriod        ErrorCode = 102
	ErrCodeInvalidMultiplier    ErrorCode = 103
	ErrCodeInvalidThreshold     ErrorCode = 104
	ErrCodeMissingParameter     ErrorCode = 105

	// Data errors (200-299). Fatal at feed construction.
	ErrCodeNoDataFound           ErrorCode = 200
	ErrCodeNonMonotonicData      ErrorCode = 201
	ErrCodeDuplicateTimestamp    ErrorCode = 202
	ErrCodeInvalidBar            ErrorCode = 203
	ErrCodeDataSourceUnavailable ErrorCode = 204
	ErrCodeQueryFailed           ErrorCode = 205
	ErrCodeIndexOutOfRange       ErrorCode = 206

	// Indicator errors (300-399)
	ErrCodeIndicatorNotFound      ErrorCode = 300
	ErrCodeIndicatorAlreadyExists ErrorCode = 301
	ErrCodeInsufficientHistory    ErrorCode = 302

	// Strategy errors (400-499)
	ErrCodeStrategyConfigError  ErrorCode = 400
	ErrCodeStrategyRuntimeError ErrorCode = 401
	ErrCodeUnsupportedStrategy  ErrorCode = 402
	ErrCodeUnsupportedSizer     ErrorCode = 403

	// Order errors (500-599). Recovered by the run loop.
	ErrCodeInvalidOrder           ErrorCode = 500
	ErrCodeInvalidQuantity        ErrorCode = 501
	ErrCodeMarginRejected         ErrorCode = 502
	ErrCodeOrderOutstanding       ErrorCode = 503
	ErrCodeInvalidOrderTransition ErrorCode = 504

	// Backtest errors (600-699)
	ErrCodeBacktestConfigError ErrorCode = 600
	ErrCodeBacktestCanceled    ErrorCode = 601
	ErrCodeBacktestNoStrategy  ErrorCode = 602
	ErrCodeResultWriteFailed   ErrorCode = 603

	// Callback errors (800-899)
	ErrCodeCallbackFailed ErrorCode = 800
)

// IsDataError reports whether the code belongs to the fatal input-data range.
func (c ErrorCode) IsDataError() bool {
	return c >= 200 && c < 300
}

// IsOrderError reports whether the code belongs to the recoverable order range.
func (c ErrorCode) IsOrderError() bool {
	return c >= 500 && c < 600
}
