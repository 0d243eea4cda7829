package dto

import "net/http"

// General error codes
const (
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "INTERNAL_ERROR"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "BAD_REQUEST"
	// ErrCodeInvalidInput is used for input that fails validation
	ErrCodeInvalidInput = "INVALID_INPUT"
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "NOT_FOUND"
)

// errorCodeHTTPStatus maps domain error codes to HTTP status codes.
// Business-rule rejections are 422: the request was well-formed but the
// ledgers cannot support it. Input mistakes are 400, missing resources 404.
var errorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:     http.StatusInternalServerError,
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,
	ErrCodeNotFound:     http.StatusNotFound,

	"ALREADY_EXISTS": http.StatusConflict,

	// Input errors
	"INVALID_QUANTITY":     http.StatusBadRequest,
	"INVALID_AMOUNT":       http.StatusBadRequest,
	"INVALID_CODE":         http.StatusBadRequest,
	"INVALID_BATCH_CODE":   http.StatusBadRequest,
	"INVALID_PRODUCT":      http.StatusBadRequest,
	"INVALID_CUSTOMER":     http.StatusBadRequest,
	"INVALID_MACHINE":      http.StatusBadRequest,
	"INVALID_MATERIAL":     http.StatusBadRequest,
	"INVALID_PIECE_COUNT":  http.StatusBadRequest,
	"INVALID_NET_WEIGHT":   http.StatusBadRequest,
	"INVALID_LOSS_PERCENT": http.StatusBadRequest,
	"INVALID_DIRECTION":    http.StatusBadRequest,
	"NO_OUTPUT_TARGETS":    http.StatusBadRequest,
	"DUPLICATE_PRODUCT":    http.StatusBadRequest,
	"REASON_REQUIRED":      http.StatusBadRequest,

	// Missing collaborators
	"ROLL_NOT_FOUND":  http.StatusNotFound,
	"UNKNOWN_PRODUCT": http.StatusNotFound,

	// Business rule rejections
	"INVALID_STATE":                 http.StatusUnprocessableEntity,
	"INVALID_PLAN":                  http.StatusUnprocessableEntity,
	"INSUFFICIENT_STOCK":            http.StatusUnprocessableEntity,
	"INSUFFICIENT_ROLL_QUANTITY":    http.StatusUnprocessableEntity,
	"INSUFFICIENT_MATERIAL_STOCK":   http.StatusUnprocessableEntity,
	"INSUFFICIENT_MACHINE_CAPACITY": http.StatusUnprocessableEntity,
	"INSUFFICIENT_STOCK_TO_RETURN":  http.StatusUnprocessableEntity,
	"LOSS_EXCEEDS_INPUT":            http.StatusUnprocessableEntity,
	"RESTORE_EXCEEDS_CONSUMED":      http.StatusUnprocessableEntity,
	"PAYMENT_EXCEEDS_OUTSTANDING":   http.StatusUnprocessableEntity,
	"REOPEN_EXCEEDS_TOTAL":          http.StatusUnprocessableEntity,
}

// GetHTTPStatus returns the HTTP status code for a domain error code.
// Unknown codes map to 500 so a missed mapping surfaces loudly.
func GetHTTPStatus(code string) int {
	if status, ok := errorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
