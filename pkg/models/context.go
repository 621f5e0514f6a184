package models

// Context is the ephemeral, per-evaluation structure conditions are checked
// against. It is rebuilt for every activation and re-evaluation pass; the
// engine never retains one between passes.
type Context struct {
	// Environmental holds environmental readings (weather, visibility, ...).
	Environmental map[string]any `json:"environmental,omitempty"`
	// Tactical holds tactical readings (threat levels, contact counts, ...).
	Tactical map[string]any `json:"tactical,omitempty"`
	// ActiveSteps is the set of step IDs currently active for the protocol
	// under evaluation.
	ActiveSteps []string `json:"active_steps,omitempty"`
}

// Section returns the sub-map for the given condition kind, or nil if the
// kind has no backing sub-map (temporal) or the sub-map is absent.
func (c *Context) Section(kind ConditionKind) map[string]any {
	if c == nil {
		return nil
	}
	switch kind {
	case ConditionEnvironmental:
		return c.Environmental
	case ConditionTactical:
		return c.Tactical
	default:
		return nil
	}
}
