package shared

import "fmt"

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewDomainErrorf creates a new domain error with a formatted message.
// Business-rule errors carry the entity and the requested vs available
// quantities so the caller can correct the input and resubmit.
func NewDomainErrorf(code, format string, args ...any) *DomainError {
	return &DomainError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Common domain errors
var (
	ErrNotFound      = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput  = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrInvalidState  = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
)

// Error codes for stock-mutating business rules. Every operation that fails
// with one of these leaves all ledgers in their pre-call state.
const (
	CodeInsufficientStock           = "INSUFFICIENT_STOCK"
	CodeInsufficientRollQuantity    = "INSUFFICIENT_ROLL_QUANTITY"
	CodeInsufficientMaterialStock   = "INSUFFICIENT_MATERIAL_STOCK"
	CodeInsufficientMachineCapacity = "INSUFFICIENT_MACHINE_CAPACITY"
	CodeInsufficientStockToReturn   = "INSUFFICIENT_STOCK_TO_RETURN"
	CodeLossExceedsInput            = "LOSS_EXCEEDS_INPUT"
)
