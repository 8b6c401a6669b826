package dto

import "net/http"

// General error codes
const (
	ErrCodeUnknown  = "ERR_UNKNOWN"
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation error codes
const (
	ErrCodeValidation = "ERR_VALIDATION"
)

// Authentication error codes
const (
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeForbidden    = "ERR_FORBIDDEN"
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"
)

// Resource error codes
const (
	ErrCodeNotFound            = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists       = "ERR_ALREADY_EXISTS"
	ErrCodeConflict            = "ERR_CONFLICT"
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
)

// Business rule error codes
const (
	ErrCodeInvalidState = "ERR_INVALID_STATE"
	ErrCodeBusinessRule = "ERR_BUSINESS_RULE"
)

// Input error codes
const (
	ErrCodeBadRequest   = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeValidation: http.StatusBadRequest,

	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,

	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,

	ErrCodeInvalidState: http.StatusUnprocessableEntity,
	ErrCodeBusinessRule: http.StatusUnprocessableEntity,

	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Returns 500 Internal Server Error if the error code is not found.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps domain error codes to standardized API codes
var DomainErrorCodeMapping = map[string]string{
	"NOT_FOUND":            ErrCodeNotFound,
	"ALREADY_EXISTS":       ErrCodeAlreadyExists,
	"CONCURRENCY_CONFLICT": ErrCodeConcurrencyConflict,
	"UNAUTHORIZED":         ErrCodeUnauthorized,
	"FORBIDDEN":            ErrCodeForbidden,
	"INVALID_INPUT":        ErrCodeInvalidInput,

	// Plan and modification construction failures
	"INVALID_PLAN_NUMBER":       ErrCodeValidation,
	"INVALID_SALE":              ErrCodeValidation,
	"INVALID_CUSTOMER":          ErrCodeValidation,
	"NO_PRODUCTS":               ErrCodeValidation,
	"INVALID_PRODUCT_LINE":      ErrCodeValidation,
	"INVALID_TOTAL_PRICE":       ErrCodeValidation,
	"INVALID_DOWN_PAYMENT":      ErrCodeValidation,
	"INVALID_RATE":              ErrCodeValidation,
	"INVALID_TERM":              ErrCodeValidation,
	"INVALID_PRINCIPAL":         ErrCodeValidation,
	"INVALID_AMOUNT":            ErrCodeValidation,
	"INDEX_OUT_OF_RANGE":        ErrCodeValidation,
	"INVALID_PLAN":              ErrCodeValidation,
	"INVALID_REASON":            ErrCodeValidation,
	"INVALID_REQUESTER":         ErrCodeValidation,
	"INVALID_APPROVER":          ErrCodeValidation,
	"INVALID_REJECTER":          ErrCodeValidation,
	"INVALID_MODIFICATION_TYPE": ErrCodeValidation,
	"MISSING_PAYLOAD":           ErrCodeValidation,

	// Lifecycle rule violations
	"INVALID_STATE":     ErrCodeInvalidState,
	"PLAN_NOT_ACTIVE":   ErrCodeInvalidState,
	"ALREADY_PAID":      ErrCodeInvalidState,
	"NOTHING_TO_MODIFY": ErrCodeInvalidState,
}

// NormalizeErrorCode converts a domain error code to the standardized format.
// Unknown codes are returned as-is.
func NormalizeErrorCode(code string) string {
	if apiCode, ok := DomainErrorCodeMapping[code]; ok {
		return apiCode
	}
	return code
}
