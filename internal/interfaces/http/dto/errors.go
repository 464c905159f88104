package dto

import "net/http"

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation error codes
const (
	// ErrCodeValidation is the base code for validation errors
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeValidationRequired is used when a required field is missing
	ErrCodeValidationRequired = "ERR_VALIDATION_REQUIRED"
	// ErrCodeValidationFormat is used when a field has invalid format
	ErrCodeValidationFormat = "ERR_VALIDATION_FORMAT"
	// ErrCodeValidationRange is used when a value is out of range
	ErrCodeValidationRange = "ERR_VALIDATION_RANGE"
	// ErrCodeValidationLength is used when a field length is invalid
	ErrCodeValidationLength = "ERR_VALIDATION_LENGTH"
)

// Authentication error codes
const (
	// ErrCodeUnauthorized is used when authentication is required but missing/invalid
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	// ErrCodeForbidden is used when the user lacks permission
	ErrCodeForbidden = "ERR_FORBIDDEN"
	// ErrCodeTokenExpired is used when the auth token has expired
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	// ErrCodeTokenInvalid is used when the auth token is invalid
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"
	// ErrCodeTokenRevoked is used when the token was logged out or revoked
	ErrCodeTokenRevoked = "ERR_TOKEN_REVOKED"
	// ErrCodeTokenMaxRefresh is used when a refresh chain is exhausted
	ErrCodeTokenMaxRefresh = "ERR_TOKEN_MAX_REFRESH"
	// ErrCodeInvalidCredentials is used when login fails
	ErrCodeInvalidCredentials = "ERR_INVALID_CREDENTIALS"
	// ErrCodeAccountInactive is used when a deactivated user logs in
	ErrCodeAccountInactive = "ERR_ACCOUNT_INACTIVE"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeAlreadyExists is used when trying to create a duplicate resource
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"
	// ErrCodeConflict is used for general resource conflicts
	ErrCodeConflict = "ERR_CONFLICT"
	// ErrCodeConcurrencyConflict is used when optimistic locking fails
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
)

// Business rule error codes
const (
	// ErrCodeInvalidState is used when an operation is invalid for current state
	ErrCodeInvalidState = "ERR_INVALID_STATE"
	// ErrCodeBusinessRule is used for generic business rule violations
	ErrCodeBusinessRule = "ERR_BUSINESS_RULE"
	// ErrCodeLimitExceeded is used when a request is over a configured limit
	ErrCodeLimitExceeded = "ERR_LIMIT_EXCEEDED"
)

// Tracker workflow error codes
const (
	ErrCodeInvalidTicket         = "ERR_INVALID_TICKET"
	ErrCodeInvalidGrant          = "ERR_INVALID_GRANT"
	ErrCodeInvalidTopic          = "ERR_INVALID_TOPIC"
	ErrCodeInvalidSubtopic       = "ERR_INVALID_SUBTOPIC"
	ErrCodeTopicClosed           = "ERR_TOPIC_CLOSED"
	ErrCodeUnknownAckType        = "ERR_UNKNOWN_ACK_TYPE"
	ErrCodeAckNotAllowed         = "ERR_ACK_NOT_ALLOWED"
	ErrCodeAckExists             = "ERR_ACK_EXISTS"
	ErrCodeDepositNotZero        = "ERR_DEPOSIT_NOT_ZERO"
	ErrCodeDepositLocked         = "ERR_DEPOSIT_LOCKED"
	ErrCodeDepositTooHigh        = "ERR_DEPOSIT_TOO_HIGH"
	ErrCodeStatutoryRequired     = "ERR_STATUTORY_DECLARATION_REQUIRED"
	ErrCodeSignatureUnsupported  = "ERR_SIGNATURE_UNSUPPORTED"
	ErrCodeExpedituresLocked     = "ERR_EXPEDITURES_LOCKED"
	ErrCodePreexpedituresLocked  = "ERR_PREEXPEDITURES_LOCKED"
	ErrCodeCommentsDisabled      = "ERR_COMMENTS_DISABLED"
	ErrCodeInvalidFilename       = "ERR_INVALID_FILENAME"
	ErrCodeDuplicateDocument     = "ERR_DUPLICATE_DOCUMENT"
	ErrCodeDuplicateMedia        = "ERR_DUPLICATE_MEDIA"
	ErrCodeInvalidUsername       = "ERR_INVALID_USERNAME"
	ErrCodeInvalidPassword       = "ERR_INVALID_PASSWORD"
	ErrCodeInvalidEmail          = "ERR_INVALID_EMAIL"
	ErrCodeInvalidName           = "ERR_INVALID_NAME"
)

// Input error codes
const (
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidInput is used for invalid input data
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
	// ErrCodeRequestTooLarge is used when an upload exceeds the body limit
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
)

// Rate limiting error codes
const (
	// ErrCodeRateLimited is used when rate limit is exceeded
	ErrCodeRateLimited = "ERR_RATE_LIMITED"
	// ErrCodeTooManyRequests is an alias for rate limiting
	ErrCodeTooManyRequests = "ERR_TOO_MANY_REQUESTS"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	// General errors
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	// Validation errors -> 400 Bad Request
	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeValidationRequired: http.StatusBadRequest,
	ErrCodeValidationFormat:   http.StatusBadRequest,
	ErrCodeValidationRange:    http.StatusBadRequest,
	ErrCodeValidationLength:   http.StatusBadRequest,

	// Auth errors
	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeTokenExpired:       http.StatusUnauthorized,
	ErrCodeTokenInvalid:       http.StatusUnauthorized,
	ErrCodeTokenRevoked:       http.StatusUnauthorized,
	ErrCodeTokenMaxRefresh:    http.StatusUnauthorized,
	ErrCodeInvalidCredentials: http.StatusUnauthorized,
	ErrCodeAccountInactive:    http.StatusForbidden,

	// Resource errors
	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,

	// Business rule errors -> 422 Unprocessable Entity
	ErrCodeInvalidState:  http.StatusUnprocessableEntity,
	ErrCodeBusinessRule:  http.StatusUnprocessableEntity,
	ErrCodeLimitExceeded: http.StatusUnprocessableEntity,

	// Ticket field validation -> 400 Bad Request
	ErrCodeInvalidTicket:     http.StatusBadRequest,
	ErrCodeInvalidGrant:      http.StatusBadRequest,
	ErrCodeInvalidTopic:      http.StatusBadRequest,
	ErrCodeInvalidSubtopic:   http.StatusBadRequest,
	ErrCodeUnknownAckType:    http.StatusBadRequest,
	ErrCodeDepositNotZero:    http.StatusBadRequest,
	ErrCodeDepositTooHigh:    http.StatusBadRequest,
	ErrCodeStatutoryRequired: http.StatusBadRequest,
	ErrCodeInvalidFilename:   http.StatusBadRequest,
	ErrCodeInvalidUsername:   http.StatusBadRequest,
	ErrCodeInvalidPassword:   http.StatusBadRequest,
	ErrCodeInvalidEmail:      http.StatusBadRequest,
	ErrCodeInvalidName:       http.StatusBadRequest,

	// Workflow state -> 403 or 409
	ErrCodeTopicClosed:          http.StatusForbidden,
	ErrCodeAckNotAllowed:        http.StatusForbidden,
	ErrCodeDepositLocked:        http.StatusForbidden,
	ErrCodeExpedituresLocked:    http.StatusForbidden,
	ErrCodePreexpedituresLocked: http.StatusForbidden,
	ErrCodeCommentsDisabled:     http.StatusForbidden,
	ErrCodeSignatureUnsupported: http.StatusForbidden,
	ErrCodeAckExists:            http.StatusConflict,
	ErrCodeDuplicateDocument:    http.StatusConflict,
	ErrCodeDuplicateMedia:       http.StatusConflict,

	// Input errors -> 400 Bad Request
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,
	ErrCodeInvalidJSON:  http.StatusBadRequest,

	// Upload over the body limit -> 413
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,

	// Rate limiting -> 429 Too Many Requests
	ErrCodeRateLimited:     http.StatusTooManyRequests,
	ErrCodeTooManyRequests: http.StatusTooManyRequests,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// LegacyErrorCodeMapping maps old error codes to new standardized codes
// This is for backward compatibility with existing domain errors
var LegacyErrorCodeMapping = map[string]string{
	"NOT_FOUND":            ErrCodeNotFound,
	"ALREADY_EXISTS":       ErrCodeAlreadyExists,
	"INVALID_INPUT":        ErrCodeInvalidInput,
	"INVALID_STATE":        ErrCodeInvalidState,
	"CONFLICT":             ErrCodeConflict,
	"UNAUTHORIZED":         ErrCodeUnauthorized,
	"FORBIDDEN":            ErrCodeForbidden,
	"CONCURRENCY_CONFLICT": ErrCodeConcurrencyConflict,
	"LIMIT_EXCEEDED":       ErrCodeLimitExceeded,
	"VALIDATION_ERROR":     ErrCodeValidation,
	"BAD_REQUEST":          ErrCodeBadRequest,
	"INTERNAL_ERROR":       ErrCodeInternal,
	"PASSWORD_HASH_ERROR":  ErrCodeInternal,

	"TOKEN_EXPIRED":       ErrCodeTokenExpired,
	"TOKEN_INVALID":       ErrCodeTokenInvalid,
	"TOKEN_REVOKED":       ErrCodeTokenRevoked,
	"TOKEN_MAX_REFRESH":   ErrCodeTokenMaxRefresh,
	"INVALID_CREDENTIALS": ErrCodeInvalidCredentials,
	"ACCOUNT_INACTIVE":    ErrCodeAccountInactive,
	"INVALID_USERNAME":    ErrCodeInvalidUsername,
	"INVALID_PASSWORD":    ErrCodeInvalidPassword,
	"INVALID_EMAIL":       ErrCodeInvalidEmail,
	"INVALID_NAME":        ErrCodeInvalidName,

	"INVALID_TICKET":                 ErrCodeInvalidTicket,
	"INVALID_GRANT":                  ErrCodeInvalidGrant,
	"INVALID_TOPIC":                  ErrCodeInvalidTopic,
	"INVALID_SUBTOPIC":               ErrCodeInvalidSubtopic,
	"TOPIC_CLOSED":                   ErrCodeTopicClosed,
	"UNKNOWN_ACK_TYPE":               ErrCodeUnknownAckType,
	"ACK_NOT_ALLOWED":                ErrCodeAckNotAllowed,
	"ACK_EXISTS":                     ErrCodeAckExists,
	"DEPOSIT_NOT_ZERO":               ErrCodeDepositNotZero,
	"DEPOSIT_LOCKED":                 ErrCodeDepositLocked,
	"DEPOSIT_TOO_HIGH":               ErrCodeDepositTooHigh,
	"STATUTORY_DECLARATION_REQUIRED": ErrCodeStatutoryRequired,
	"SIGNATURE_UNSUPPORTED":          ErrCodeSignatureUnsupported,
	"EXPEDITURES_LOCKED":             ErrCodeExpedituresLocked,
	"PREEXPEDITURES_LOCKED":          ErrCodePreexpedituresLocked,
	"COMMENTS_DISABLED":              ErrCodeCommentsDisabled,
	"INVALID_FILENAME":               ErrCodeInvalidFilename,
	"DUPLICATE_DOCUMENT":             ErrCodeDuplicateDocument,
	"DUPLICATE_MEDIA":                ErrCodeDuplicateMedia,
}

// NormalizeErrorCode converts a legacy error code to the standardized format
// If the code is already in the new format or unknown, returns it as-is
func NormalizeErrorCode(code string) string {
	if newCode, ok := LegacyErrorCodeMapping[code]; ok {
		return newCode
	}
	return code
}
