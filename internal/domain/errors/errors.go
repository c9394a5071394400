package errors

import (
	"errors"
	"fmt"
)

// ErrorType은 에러의 종류를 나타냅니다
type ErrorType string

const (
	// ErrorTypeValidation은 유효성 검증 실패를 나타냅니다
	ErrorTypeValidation ErrorType = "VALIDATION"

	// ErrorTypeSystem은 시스템 레벨 에러를 나타냅니다
	ErrorTypeSystem ErrorType = "SYSTEM"

	// ErrorTypeTimeout은 타임아웃 에러를 나타냅니다
	ErrorTypeTimeout ErrorType = "TIMEOUT"

	// ErrorTypeTransactionStart means start_transaction exited non-zero
	ErrorTypeTransactionStart ErrorType = "TRANSACTION_START"

	// ErrorTypeStep means a mutating call exited non-zero
	ErrorTypeStep ErrorType = "STEP"

	// ErrorTypeCommit means commit_transaction exited non-zero
	ErrorTypeCommit ErrorType = "COMMIT"
)

// DomainError는 도메인 레벨의 에러를 나타냅니다
type DomainError struct {
	Type    ErrorType
	Message string
	Cause   error

	// Step is the XRL method that failed, empty for non-call errors
	Step string
	// Output is the raw tool output of the failed step
	Output string
}

// Error는 error 인터페이스를 구현합니다
func (e *DomainError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Type, e.Message)
	if e.Step != "" {
		msg = fmt.Sprintf("%s (step %s)", msg, e.Step)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap은 내부 에러를 반환합니다
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is는 에러 비교를 위한 메서드입니다
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// NewValidationError는 유효성 검증 에러를 생성합니다
func NewValidationError(message string, cause error) *DomainError {
	return &DomainError{
		Type:    ErrorTypeValidation,
		Message: message,
		Cause:   cause,
	}
}

// NewSystemError는 시스템 에러를 생성합니다
func NewSystemError(message string, cause error) *DomainError {
	return &DomainError{
		Type:    ErrorTypeSystem,
		Message: message,
		Cause:   cause,
	}
}

// NewTimeoutError는 타임아웃 에러를 생성합니다
func NewTimeoutError(message string) *DomainError {
	return &DomainError{
		Type:    ErrorTypeTimeout,
		Message: message,
	}
}

// NewTransactionStartError reports a failed start_transaction call
func NewTransactionStartError(target, output string, cause error) *DomainError {
	return &DomainError{
		Type:    ErrorTypeTransactionStart,
		Message: fmt.Sprintf("failed to start transaction on %s", target),
		Cause:   cause,
		Step:    "start_transaction",
		Output:  output,
	}
}

// NewStepError reports a failed mutating call
func NewStepError(step, output string, cause error) *DomainError {
	return &DomainError{
		Type:    ErrorTypeStep,
		Message: "failed to execute XRL",
		Cause:   cause,
		Step:    step,
		Output:  output,
	}
}

// NewCommitError reports a failed commit_transaction call
func NewCommitError(target, output string, cause error) *DomainError {
	return &DomainError{
		Type:    ErrorTypeCommit,
		Message: fmt.Sprintf("failed to commit transaction on %s", target),
		Cause:   cause,
		Step:    "commit_transaction",
		Output:  output,
	}
}

// 에러 타입 확인 헬퍼 함수들

// TypeOf returns the ErrorType of the first DomainError in the chain, or "" if there is none
func TypeOf(err error) ErrorType {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type
	}
	return ""
}

// hasType walks nested DomainErrors looking for t
func hasType(err error, t ErrorType) bool {
	for err != nil {
		var domainErr *DomainError
		if !errors.As(err, &domainErr) {
			return false
		}
		if domainErr.Type == t {
			return true
		}
		err = domainErr.Cause
	}
	return false
}

// IsValidationError는 유효성 검증 에러인지 확인합니다
func IsValidationError(err error) bool {
	return hasType(err, ErrorTypeValidation)
}

// IsSystemError는 시스템 에러인지 확인합니다
func IsSystemError(err error) bool {
	return hasType(err, ErrorTypeSystem)
}

// IsTimeoutError는 타임아웃 에러인지 확인합니다
// A step that failed because the tool timed out is also a timeout.
func IsTimeoutError(err error) bool {
	return hasType(err, ErrorTypeTimeout)
}

// OutputOf returns the first non-empty tool output recorded in the chain
func OutputOf(err error) string {
	for err != nil {
		var domainErr *DomainError
		if !errors.As(err, &domainErr) {
			return ""
		}
		if domainErr.Output != "" {
			return domainErr.Output
		}
		err = domainErr.Cause
	}
	return ""
}

// StepOf returns the failing step of the outermost DomainError in the chain
func StepOf(err error) string {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Step
	}
	return ""
}

// IsCallError reports whether err is one of the three transaction protocol failures
func IsCallError(err error) bool {
	switch TypeOf(err) {
	case ErrorTypeTransactionStart, ErrorTypeStep, ErrorTypeCommit:
		return true
	}
	return false
}
