package protocol

import (
	"context"
	"time"

	"github.com/oldmangrizzz/looktony/pkg/models"
)

// Outcome is the result of executing a single step.
type Outcome struct {
	// Complete reports whether the step satisfied its completion criteria
	// and should progress to its successors.
	Complete bool
}

// StepExecutor runs one step: it dispatches the step's action, evaluates the
// completion criteria, and reports whether the step completed. Every run,
// successful or not, emits a notification for observability.
type StepExecutor struct {
	dispatcher *Dispatcher
	emitter    *EventEmitter
}

// NewStepExecutor creates a step executor.
func NewStepExecutor(dispatcher *Dispatcher, emitter *EventEmitter) *StepExecutor {
	return &StepExecutor{
		dispatcher: dispatcher,
		emitter:    emitter,
	}
}

// Execute dispatches the step's action and checks completion.
//
// A dispatch failure stops processing immediately: completion is not
// evaluated, the step stays active for the next re-evaluation pass, and the
// failure is reported via a step_error notification. The returned error is
// the step-local dispatch error; callers must not treat it as fatal.
//
// A step with no completion conditions is complete after any successful
// dispatch.
func (e *StepExecutor) Execute(ctx context.Context, p *models.Protocol, step *models.Step, evalCtx *models.Context) (Outcome, error) {
	if err := e.dispatcher.Execute(ctx, step.Action, step.Params, evalCtx); err != nil {
		debugLog("step %s/%s action %s failed: %v", p.ID, step.ID, step.Action, err)
		e.emitter.Emit(Event{
			Type:       EventStepError,
			ProtocolID: p.ID,
			StepID:     step.ID,
			Message:    "action dispatch failed",
			Error:      err,
			Timestamp:  time.Now(),
		})
		return Outcome{}, err
	}

	complete := AllSatisfied(step.Completion, evalCtx)
	e.emitter.Emit(Event{
		Type:       EventStepExecuted,
		ProtocolID: p.ID,
		StepID:     step.ID,
		Complete:   complete,
		Timestamp:  time.Now(),
	})
	return Outcome{Complete: complete}, nil
}
