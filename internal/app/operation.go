package app

import (
	"time"

	"fsdrift/internal/drift"
)

// Operation tracks one CLI invocation. Its ID tags every log line the
// invocation writes, and its outcome is logged when the App closes.
type Operation struct {
	ID         string
	Name       string
	Parameters string
	Status     string // "success" or "error"
	Started    time.Time
}

// NewOperation creates an operation that is assumed to succeed until Fail is called.
func NewOperation(name, parameters string, ids drift.IDGenerator, clock drift.Clock) *Operation {
	return &Operation{
		ID:         ids.New(),
		Name:       name,
		Parameters: parameters,
		Status:     "success",
		Started:    clock.Now(),
	}
}

// Fail marks the operation as failed.
func (op *Operation) Fail() {
	op.Status = "error"
}

// Succeeded reports whether Fail was never called.
func (op *Operation) Succeeded() bool {
	return op.Status == "success"
}
