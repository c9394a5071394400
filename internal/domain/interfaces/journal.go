package interfaces

import (
	"context"

	"xrl-config-agent/internal/domain/entities"
)

// OperationJournal records the outcome of every dispatched operation
type OperationJournal interface {
	// Record stores one entry. Failures are reported but never change the operation outcome.
	Record(ctx context.Context, record entities.OperationRecord) error

	// Close releases the underlying storage
	Close() error

	// Enabled is false for the no-op journal
	Enabled() bool
}

// OperationObserver is notified after every dispatched operation
type OperationObserver interface {
	ObserveOperation(record entities.OperationRecord)

	// ObserveJournalWrite receives the result of every journal write, nil on success
	ObserveJournalWrite(err error)
}
