package protocol

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates an operation referenced a protocol ID that was never
// loaded.
var ErrNotFound = errors.New("protocol not found")

// ErrConditionsNotMet indicates activation was refused because at least one
// activation condition evaluated false. Activation never partially applies.
var ErrConditionsNotMet = errors.New("activation conditions not met")

// StructuralReason identifies why a protocol failed validation.
type StructuralReason string

const (
	// ReasonEmptyProtocol indicates the protocol declares no steps.
	ReasonEmptyProtocol StructuralReason = "empty_protocol"
	// ReasonDanglingStepReference indicates a step's successor list names an
	// ID absent from the protocol's own step set.
	ReasonDanglingStepReference StructuralReason = "dangling_step_reference"
	// ReasonCycle indicates the step graph contains a cycle. Only reported by
	// the opt-in DetectCycles pass, never by Validate.
	ReasonCycle StructuralReason = "cycle"
)

// StructuralError is a load-time validation failure. The offending protocol
// is rejected and never stored.
type StructuralError struct {
	// ProtocolID identifies the rejected protocol.
	ProtocolID string
	// Reason classifies the failure.
	Reason StructuralReason
	// StepID is the step carrying the bad reference, when applicable.
	StepID string
	// BadRef is the successor ID that does not exist, when applicable.
	BadRef string
}

func (e *StructuralError) Error() string {
	switch e.Reason {
	case ReasonEmptyProtocol:
		return fmt.Sprintf("protocol %s: no steps declared", e.ProtocolID)
	case ReasonDanglingStepReference:
		return fmt.Sprintf("protocol %s: step %s references unknown step %s", e.ProtocolID, e.StepID, e.BadRef)
	case ReasonCycle:
		return fmt.Sprintf("protocol %s: step graph contains a cycle through %s", e.ProtocolID, e.StepID)
	default:
		return fmt.Sprintf("protocol %s: structural error", e.ProtocolID)
	}
}

// UnknownActionError indicates a step named an action outside the dispatcher's
// table. Step-local, never fatal to the engine.
type UnknownActionError struct {
	Name string
}

func (e *UnknownActionError) Error() string {
	return fmt.Sprintf("unknown action %q", e.Name)
}

// DispatchError wraps a collaborator-side failure raised while executing a
// step's action. Step-local, never fatal to the engine.
type DispatchError struct {
	Action string
	Err    error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch %s: %v", e.Action, e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}
