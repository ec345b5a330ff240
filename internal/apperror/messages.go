package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	// General validation
	CodeRequiredField:   "Required field is missing",
	CodeInvalidInput:    "Invalid input provided",
	CodeInvalidState:    "Invalid state for this operation",
	CodeNotFound:        "Resource not found",
	CodeValidationError: "Validation error",

	// Configuration
	CodeConfigurationError: "Configuration error",

	// External service errors
	CodeExternalServiceError: "External service error",
	CodeServiceTimeout:       "Service request timeout",
	CodeRateLimitExceeded:    "Rate limit exceeded",

	// System errors
	CodeInternalError: "Internal error",
	CodeUnknownError:  "An unknown error occurred",

	// Quote fetching and matching
	CodeFetchFailed:     "Failed to fetch quotes from provider",
	CodeProviderOffline: "Provider did not respond this cycle",
	CodeCircuitOpen:     "Provider circuit breaker is open",
	CodeQuoteMalformed:  "Quote is malformed and was skipped",
	CodeQuoteStale:      "Quote is older than the freshness window",

	// Execution
	CodeUnknownProvider:    "No placement capability registered for provider",
	CodePlacementRejected:  "Bet placement rejected by provider",
	CodeCancelRejected:     "Bet cancellation rejected by provider",
	CodeCancelUnsupported:  "Provider does not support cancellation",
	CodeCompensationFailed: "Compensation failed, position is unhedged",
	CodeEventLocked:        "Event is already claimed by another execution",
	CodeOddsMoved:          "Odds moved below threshold since detection",

	// Storage and messaging
	CodeStorageError:   "Storage operation failed",
	CodeNotifyFailed:   "Operator notification failed",
	CodeWebSocketError: "WebSocket connection error",
}
