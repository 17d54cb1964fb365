// Package coord implements the in-process coordination layer shared by all
// agents: the registry, the priority message bus, the deliverable store, the
// approval workflow and the checkpoint state machine.
package coord

import "errors"

// Common errors for coordination operations.
var (
	// ErrUnknownAgent indicates a sender or target is not registered.
	ErrUnknownAgent = errors.New("agent not registered")
	// ErrInvalidEnum indicates a string value does not match an allowed variant.
	ErrInvalidEnum = errors.New("invalid enum value")
	// ErrNotFound indicates an id lookup missed.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyDecided indicates a second decision on a resolved request.
	ErrAlreadyDecided = errors.New("decision already recorded")
	// ErrDeliveryFailure indicates a send failed and any store write made in
	// the same operation was rolled back.
	ErrDeliveryFailure = errors.New("message delivery failed")
)
