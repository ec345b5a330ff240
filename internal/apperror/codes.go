package apperror

// Code represents a unique error code for the application
type Code string

// General error codes
const (
	CodeRequiredField   Code = "REQUIRED_FIELD"
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeInvalidState    Code = "INVALID_STATE"
	CodeNotFound        Code = "NOT_FOUND"
	CodeValidationError Code = "VALIDATION_ERROR"

	// Configuration
	CodeConfigurationError Code = "CONFIGURATION_ERROR"

	// External service errors
	CodeExternalServiceError Code = "EXTERNAL_SERVICE_ERROR"
	CodeServiceTimeout       Code = "SERVICE_TIMEOUT"
	CodeRateLimitExceeded    Code = "RATE_LIMIT_EXCEEDED"

	// System errors
	CodeInternalError Code = "INTERNAL_ERROR"
	CodeUnknownError  Code = "UNKNOWN_ERROR"
)

// Quote fetching and matching error codes
const (
	CodeFetchFailed     Code = "FETCH_FAILED"
	CodeProviderOffline Code = "PROVIDER_OFFLINE"
	CodeCircuitOpen     Code = "CIRCUIT_OPEN"
	CodeQuoteMalformed  Code = "QUOTE_MALFORMED"
	CodeQuoteStale      Code = "QUOTE_STALE"
)

// Execution error codes
const (
	CodeUnknownProvider    Code = "UNKNOWN_PROVIDER"
	CodePlacementRejected  Code = "PLACEMENT_REJECTED"
	CodeCancelRejected     Code = "CANCEL_REJECTED"
	CodeCancelUnsupported  Code = "CANCEL_UNSUPPORTED"
	CodeCompensationFailed Code = "COMPENSATION_FAILED"
	CodeEventLocked        Code = "EVENT_LOCKED"
	CodeOddsMoved          Code = "ODDS_MOVED"
)

// Storage and messaging error codes
const (
	CodeStorageError   Code = "STORAGE_ERROR"
	CodeNotifyFailed   Code = "NOTIFY_FAILED"
	CodeWebSocketError Code = "WEBSOCKET_ERROR"
)
