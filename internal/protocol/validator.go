package protocol

import (
	"github.com/oldmangrizzz/looktony/pkg/models"
)

// Validate checks structural well-formedness of a protocol definition.
// It fails for an empty step collection and for any successor reference that
// names a step absent from the protocol's own step set. Cycles, unreachable
// steps and duplicate IDs are deliberately not checked here; callers wanting
// the stricter variant run DetectCycles as a separate pass.
// No side effects.
func Validate(p *models.Protocol) error {
	if len(p.Steps) == 0 {
		return &StructuralError{ProtocolID: p.ID, Reason: ReasonEmptyProtocol}
	}

	known := make(map[string]struct{}, len(p.Steps))
	for i := range p.Steps {
		known[p.Steps[i].ID] = struct{}{}
	}

	for i := range p.Steps {
		step := &p.Steps[i]
		for _, ref := range step.NextSteps {
			if _, ok := known[ref]; !ok {
				return &StructuralError{
					ProtocolID: p.ID,
					Reason:     ReasonDanglingStepReference,
					StepID:     step.ID,
					BadRef:     ref,
				}
			}
		}
	}

	return nil
}

// DetectCycles runs a depth-first traversal over the step graph and fails if
// any step is reachable from itself. This is an opt-in, stricter check: a
// cycle in next_steps causes unbounded re-progression at runtime, so
// operators can reject such definitions up front.
// Uses depth-first search with coloring to detect back edges.
func DetectCycles(p *models.Protocol) error {
	// Color states: 0 = white (unvisited), 1 = gray (in progress), 2 = black (done).
	colors := make(map[string]int, len(p.Steps))
	edges := make(map[string][]string, len(p.Steps))
	for i := range p.Steps {
		colors[p.Steps[i].ID] = 0
		edges[p.Steps[i].ID] = p.Steps[i].NextSteps
	}

	var visit func(id string) bool
	visit = func(id string) bool {
		colors[id] = 1 // Mark as in progress.

		for _, next := range edges[id] {
			switch colors[next] {
			case 1:
				// Found a back edge - cycle detected.
				return true
			case 0:
				if visit(next) {
					return true
				}
			}
			// color == 2 means already processed, skip.
		}

		colors[id] = 2 // Mark as done.
		return false
	}

	for i := range p.Steps {
		id := p.Steps[i].ID
		if colors[id] == 0 {
			if visit(id) {
				return &StructuralError{ProtocolID: p.ID, Reason: ReasonCycle, StepID: id}
			}
		}
	}

	return nil
}
