package models

// ProtocolKind classifies a protocol by its operational role.
type ProtocolKind string

const (
	// ProtocolStandard is a routine operating procedure.
	ProtocolStandard ProtocolKind = "standard"
	// ProtocolEmergency is an emergency response procedure.
	ProtocolEmergency ProtocolKind = "emergency"
	// ProtocolCustom is a user-defined procedure.
	ProtocolCustom ProtocolKind = "custom"
)

// Valid returns true if the kind is a known value.
func (k ProtocolKind) Valid() bool {
	switch k {
	case ProtocolStandard, ProtocolEmergency, ProtocolCustom:
		return true
	default:
		return false
	}
}

// Protocol is a named graph of steps representing a procedure.
// Protocols are immutable once loaded; re-loading the same ID replaces
// the stored definition wholesale.
type Protocol struct {
	// ID is the unique identifier for this protocol.
	ID string `json:"id" yaml:"id"`
	// Name is the human-readable display name.
	Name string `json:"name" yaml:"name"`
	// Kind classifies the protocol (standard, emergency, custom).
	Kind ProtocolKind `json:"kind" yaml:"kind"`
	// Steps is the ordered collection of steps forming the graph.
	Steps []Step `json:"steps" yaml:"steps"`
	// Conditions gate activation. All must hold for the protocol to
	// activate and to remain active across re-evaluations.
	Conditions []Condition `json:"conditions,omitempty" yaml:"conditions,omitempty"`
}

// FirstStep returns the first declared step, or nil for an empty protocol.
func (p *Protocol) FirstStep() *Step {
	if len(p.Steps) == 0 {
		return nil
	}
	return &p.Steps[0]
}

// StepByID returns the step with the given ID, or nil if not found.
func (p *Protocol) StepByID(id string) *Step {
	for i := range p.Steps {
		if p.Steps[i].ID == id {
			return &p.Steps[i]
		}
	}
	return nil
}

// Step is one node in a protocol's graph.
type Step struct {
	// ID is unique within the owning protocol.
	ID string `json:"id" yaml:"id"`
	// Action names the operation the dispatcher performs for this step.
	Action string `json:"action" yaml:"action"`
	// Params are named parameters passed to the action.
	Params map[string]any `json:"params,omitempty" yaml:"params,omitempty"`
	// NextSteps lists successor step IDs activated when this step completes.
	NextSteps []string `json:"next_steps,omitempty" yaml:"next_steps,omitempty"`
	// Completion lists conditions that must all hold for the step to be
	// considered complete. A step with no completion conditions is complete
	// immediately after its action runs.
	Completion []Condition `json:"completion,omitempty" yaml:"completion,omitempty"`
}
