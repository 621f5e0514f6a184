package models

// ConditionKind selects which part of the evaluation context a condition reads.
type ConditionKind string

const (
	// ConditionEnvironmental reads the environmental sub-map of the context.
	ConditionEnvironmental ConditionKind = "environmental"
	// ConditionTactical reads the tactical sub-map of the context.
	ConditionTactical ConditionKind = "tactical"
	// ConditionTemporal compares against wall-clock time and ignores the context.
	ConditionTemporal ConditionKind = "temporal"
)

// Valid returns true if the kind is a known value.
func (k ConditionKind) Valid() bool {
	switch k {
	case ConditionEnvironmental, ConditionTactical, ConditionTemporal:
		return true
	default:
		return false
	}
}

// Operator is the comparison applied by a condition.
type Operator string

const (
	// OpEquals is structural equality.
	OpEquals Operator = "equals"
	// OpGreater is a numeric greater-than comparison.
	OpGreater Operator = "greater"
	// OpLess is a numeric less-than comparison.
	OpLess Operator = "less"
	// OpContains checks membership of the comparison value in a sequence.
	OpContains Operator = "contains"
)

// Valid returns true if the operator is a known value.
func (o Operator) Valid() bool {
	switch o {
	case OpEquals, OpGreater, OpLess, OpContains:
		return true
	default:
		return false
	}
}

// Condition is a boolean predicate over context data or time. It gates
// protocol activation, step completion, and continued activity.
type Condition struct {
	// Kind selects the context section (or wall-clock time) to read.
	Kind ConditionKind `json:"kind" yaml:"kind"`
	// Key optionally names an entry inside the selected sub-map. When empty,
	// the whole sub-map is the resolved operand. Ignored for temporal
	// conditions.
	Key string `json:"key,omitempty" yaml:"key,omitempty"`
	// Operator is the comparison to apply.
	Operator Operator `json:"operator" yaml:"operator"`
	// Value is the comparison operand.
	Value any `json:"value" yaml:"value"`
}
