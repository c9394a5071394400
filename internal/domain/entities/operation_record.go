package entities

import "time"

// OperationStatus is the final state of a dispatched operation
type OperationStatus string

const (
	OperationSucceeded OperationStatus = "succeeded"
	OperationFailed    OperationStatus = "failed"
	OperationIgnored   OperationStatus = "ignored"
)

// OperationRecord is the audit entry written for a dispatched operation
type OperationRecord struct {
	Operation  Operation
	Route      string
	Status     OperationStatus
	ErrorType  string
	FailedStep string
	Output     string
	StartedAt  time.Time
	Duration   time.Duration
}
