package usecase

import (
	"context"
)

// SweepSummary is the outcome report of one sweep invocation.
type SweepSummary struct {
	Processed int      `json:"processed"`
	Sent      int      `json:"sent"`
	Failed    int      `json:"failed"`
	Errors    []string `json:"errors,omitempty"`
	Message   string   `json:"message,omitempty"`
}

// SweepUsecase finds scheduled notifications whose delivery time has arrived
// and dispatches each exactly once. Safe to re-run and to trigger
// concurrently; the repository's conditional claim is the idempotency guard.
type SweepUsecase interface {
	ProcessDue(ctx context.Context) (*SweepSummary, error)
}
