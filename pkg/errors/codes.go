package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common Error Codes
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeNotFound           ErrorCode = "COMMON_005"
	ErrCodeConflict           ErrorCode = "COMMON_006"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_008"
	ErrCodeTimeout            ErrorCode = "COMMON_009"
	ErrCodeValidation         ErrorCode = "COMMON_010"
	ErrCodeSerialization      ErrorCode = "COMMON_011"
	ErrCodeDatabaseError      ErrorCode = "COMMON_012"
	ErrCodeCacheError         ErrorCode = "COMMON_013"
	ErrCodeFeatureDisabled    ErrorCode = "COMMON_015"
)

// Aliases
const (
	CodeOK           = ErrorCode("OK")
	CodeUnknown      = ErrorCode("UNKNOWN")
	CodeInternal     = ErrCodeInternal
	CodeInvalidParam = ErrCodeBadRequest
	CodeNotFound     = ErrCodeNotFound
)

// Planning Error Codes
const (
	ErrCodeInsufficientPoints      ErrorCode = "PLAN_001"
	ErrCodeDegenerateGeometry      ErrorCode = "PLAN_002"
	ErrCodeInfeasibleDecomposition ErrorCode = "PLAN_003"
	ErrCodeSchedulingDeadlock      ErrorCode = "PLAN_004"
	ErrCodeValidationFailed        ErrorCode = "PLAN_005"
	ErrCodePlanNotFound            ErrorCode = "PLAN_006"
	ErrCodeInvalidAgentCount       ErrorCode = "PLAN_007"
)

// Portal Input Error Codes
const (
	ErrCodeInputUnreadable    ErrorCode = "IO_001"
	ErrCodeInputParse         ErrorCode = "IO_002"
	ErrCodeInputSchema        ErrorCode = "IO_003"
	ErrCodeInputFormat        ErrorCode = "IO_004"
	ErrCodeCoordinateRange    ErrorCode = "IO_005"
	ErrCodeDuplicateCoordinate ErrorCode = "IO_006"
)

// Storage Error Codes
const (
	ErrCodeStorageError     ErrorCode = "STORAGE_001"
	ErrCodeStorageNotFound  ErrorCode = "STORAGE_002"
	ErrCodeStorageCorrupted ErrorCode = "STORAGE_003"
)

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeDatabaseError:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeFeatureDisabled:    http.StatusForbidden,

	ErrCodeInsufficientPoints:      http.StatusUnprocessableEntity,
	ErrCodeDegenerateGeometry:      http.StatusUnprocessableEntity,
	ErrCodeInfeasibleDecomposition: http.StatusUnprocessableEntity,
	ErrCodeSchedulingDeadlock:      http.StatusInternalServerError,
	ErrCodeValidationFailed:        http.StatusInternalServerError,
	ErrCodePlanNotFound:            http.StatusNotFound,
	ErrCodeInvalidAgentCount:       http.StatusBadRequest,

	ErrCodeInputUnreadable:     http.StatusBadRequest,
	ErrCodeInputParse:          http.StatusBadRequest,
	ErrCodeInputSchema:         http.StatusBadRequest,
	ErrCodeInputFormat:         http.StatusBadRequest,
	ErrCodeCoordinateRange:     http.StatusBadRequest,
	ErrCodeDuplicateCoordinate: http.StatusBadRequest,

	ErrCodeStorageError:     http.StatusInternalServerError,
	ErrCodeStorageNotFound:  http.StatusNotFound,
	ErrCodeStorageCorrupted: http.StatusInternalServerError,
}

// HTTPStatus returns the HTTP status for code, defaulting to 500.
func HTTPStatus(code ErrorCode) int {
	if s, ok := ErrorCodeHTTPStatus[code]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// Module returns the module prefix of a code, e.g. "PLAN" for "PLAN_003".
func (c ErrorCode) Module() string {
	s := string(c)
	if i := strings.IndexByte(s, '_'); i > 0 {
		return s[:i]
	}
	return ""
}

//Personal.AI order the ending
