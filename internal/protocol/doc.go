// Package protocol implements the protocol orchestration engine.
//
// The protocol package provides functionality for:
//   - Protocol definitions: Declarative, graph-shaped procedures made of steps
//   - Structural validation: Rejecting empty protocols and dangling step references
//   - Condition evaluation: Environmental, tactical and temporal predicates
//   - Step execution: Action dispatch against the situational store plus
//     completion-criteria checks
//   - Orchestration: Activation, concurrent progression along the step graph,
//     and passive re-evaluation driven by situation updates
//
// The engine has no control loop of its own. It reacts to two stimuli: calls
// from its owner (load, activate, deactivate) and situation updates pushed by
// the situational-data collaborator. Each update triggers a re-evaluation pass
// over every active protocol, which either re-executes its active steps or
// deactivates it when its conditions no longer hold.
//
// Example usage:
//
//	store := situation.NewMemoryStore("tactical")
//	engine := protocol.New(protocol.Config{Store: store})
//	err := engine.LoadProtocol(def)
//	err = engine.ActivateProtocol(ctx, def.ID, evalCtx)
//	go engine.Run(ctx, store.Updates())
package protocol
