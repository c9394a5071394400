package interfaces

import (
	"context"

	"xrl-config-agent/internal/domain/entities"
)

// XRLCaller is the switch configuration RPC tool as seen by the translation routines.
// Every method blocks until the tool exits.
type XRLCaller interface {
	// StartTransaction opens a transaction on target and returns its id, trimmed
	StartTransaction(ctx context.Context, target string) (string, error)

	// CommitTransaction commits tid on target
	CommitTransaction(ctx context.Context, target, tid string) error

	// AbortTransaction discards tid on target
	AbortTransaction(ctx context.Context, target, tid string) error

	// Invoke issues a single call and returns the tool's stdout
	Invoke(ctx context.Context, call entities.XRL) ([]byte, error)
}
