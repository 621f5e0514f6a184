package protocol

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oldmangrizzz/looktony/internal/situation"
	"github.com/oldmangrizzz/looktony/internal/state"
	"github.com/oldmangrizzz/looktony/pkg/models"
)

// Config contains configuration options for the Engine.
type Config struct {
	// Store is the situational-data collaborator actions are dispatched
	// against. Required.
	Store situation.Store
	// StateDB is the database for persisting activation episodes and step
	// execution history. If nil, history recording is disabled.
	StateDB *state.DB
	// DefaultLayer is the map layer mark_location targets.
	// If empty, DefaultLayer is used.
	DefaultLayer string
	// EventBuffer is the capacity of the event channel. If 0, defaults to 100.
	EventBuffer int
}

// Engine is the protocol orchestrator. It owns the protocol registry and the
// per-protocol active-step sets, drives progression along the step graph, and
// re-evaluates all active protocols whenever the situational collaborator
// pushes an update. It has no control loop of its own.
//
// Serialization strategy: the engine is the sole writer of the registry and
// active-step maps. Every read or mutation of an active-step set is a short
// critical section under mu; action dispatch (the only blocking point) never
// runs under the lock. An overlapping progression fan-out and re-evaluation
// pass therefore interleave at step granularity but can never corrupt the set.
type Engine struct {
	executor *StepExecutor
	emitter  *EventEmitter
	stateDB  *state.DB

	// mu protects protocols, active, and episodes.
	mu sync.RWMutex
	// protocols maps protocol ID to its definition. Entries are never
	// removed; re-loading an ID overwrites its definition.
	protocols map[string]*models.Protocol
	// active maps protocol ID to its set of active step IDs. A protocol is
	// active iff it has an entry here.
	active map[string]map[string]struct{}
	// episodes maps protocol ID to the current activation episode ID used
	// for history recording.
	episodes map[string]string

	// wg tracks step-execution goroutines.
	wg sync.WaitGroup
	// stopCh signals the engine to stop.
	stopCh chan struct{}
	// stopped indicates whether Stop has been called.
	stopped bool
	stopMu  sync.Mutex
}

// New creates an Engine with the given configuration.
func New(cfg Config) *Engine {
	bufferSize := cfg.EventBuffer
	if bufferSize <= 0 {
		bufferSize = 100
	}

	emitter := NewEventEmitter(bufferSize)
	dispatcher := NewDispatcher(cfg.Store, cfg.DefaultLayer)

	return &Engine{
		executor:  NewStepExecutor(dispatcher, emitter),
		emitter:   emitter,
		stateDB:   cfg.StateDB,
		protocols: make(map[string]*models.Protocol),
		active:    make(map[string]map[string]struct{}),
		episodes:  make(map[string]string),
		stopCh:    make(chan struct{}),
	}
}

// Dispatcher returns the action dispatcher so owners can register additional
// actions before activating protocols.
func (e *Engine) Dispatcher() *Dispatcher {
	return e.executor.dispatcher
}

// Events returns a read-only channel of engine events.
func (e *Engine) Events() <-chan Event {
	return e.emitter.Events()
}

// LoadProtocol validates a protocol definition and stores it in the registry.
// On validation failure the protocol is not stored and the structural error is
// returned. Re-loading an existing ID overwrites the stored definition.
func (e *Engine) LoadProtocol(p *models.Protocol) error {
	if err := Validate(p); err != nil {
		return err
	}

	e.mu.Lock()
	e.protocols[p.ID] = p
	e.mu.Unlock()

	debugLog("loaded protocol %s (%d steps)", p.ID, len(p.Steps))
	e.emitter.Emit(Event{
		Type:       EventProtocolLoaded,
		ProtocolID: p.ID,
		Message:    p.Name,
		Timestamp:  time.Now(),
	})
	return nil
}

// ActivateProtocol begins an activation episode. It fails with ErrNotFound
// for an unknown ID and with ErrConditionsNotMet if any activation condition
// evaluates false; in both cases no state changes. On success the active-step
// set is seeded with exactly the protocol's first declared step, which is then
// executed. Successor steps triggered by its completion run concurrently.
func (e *Engine) ActivateProtocol(ctx context.Context, id string, evalCtx *models.Context) error {
	e.mu.RLock()
	p, ok := e.protocols[id]
	e.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}

	if evalCtx == nil {
		evalCtx = &models.Context{}
	}
	if !AllSatisfied(p.Conditions, evalCtx) {
		debugLog("activation of %s refused: conditions not met", id)
		return ErrConditionsNotMet
	}

	first := p.FirstStep()
	episode := uuid.New().String()

	e.mu.Lock()
	e.active[id] = map[string]struct{}{first.ID: {}}
	e.episodes[id] = episode
	e.mu.Unlock()

	e.recordActivation(episode, p)
	e.emitter.Emit(Event{
		Type:       EventProtocolActivated,
		ProtocolID: id,
		Message:    p.Name,
		Timestamp:  time.Now(),
	})
	log.Printf("[engine] activated protocol %s", id)

	e.runStep(ctx, p, first.ID, evalCtx)
	return nil
}

// DeactivateProtocol ends a protocol's activation episode. Idempotent: a
// second call for an already-inactive protocol changes nothing and emits no
// further notification. Fails with ErrNotFound only for IDs never loaded.
func (e *Engine) DeactivateProtocol(id string) error {
	e.mu.Lock()
	if _, loaded := e.protocols[id]; !loaded {
		e.mu.Unlock()
		return ErrNotFound
	}
	_, wasActive := e.active[id]
	episode := e.episodes[id]
	delete(e.active, id)
	delete(e.episodes, id)
	e.mu.Unlock()

	if !wasActive {
		return nil
	}

	e.closeActivation(episode)
	e.emitter.Emit(Event{
		Type:       EventProtocolDeactivated,
		ProtocolID: id,
		Timestamp:  time.Now(),
	})
	log.Printf("[engine] deactivated protocol %s", id)
	return nil
}

// Run consumes situation updates until the context is canceled, the update
// channel closes, or Stop is called. Each update triggers one re-evaluation
// pass over all active protocols.
func (e *Engine) Run(ctx context.Context, updates <-chan situation.Update) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-e.stopCh:
			return
		case upd, ok := <-updates:
			if !ok {
				return
			}
			e.Reevaluate(ctx, upd)
		}
	}
}

// Reevaluate runs one re-evaluation pass: for every active protocol it
// re-checks the protocol-level conditions against a context built from the
// update plus the protocol's current active-step set. A failed check
// deactivates the protocol; otherwise every currently-active step is
// re-executed against the same context. Protocols are processed concurrently,
// as are the step re-runs within each protocol.
func (e *Engine) Reevaluate(ctx context.Context, upd situation.Update) {
	e.mu.RLock()
	ids := make([]string, 0, len(e.active))
	for id := range e.active {
		ids = append(ids, id)
	}
	e.mu.RUnlock()

	debugLog("re-evaluation pass over %d active protocols", len(ids))
	for _, id := range ids {
		id := id
		if !e.track() {
			return
		}
		go func() {
			defer e.wg.Done()
			e.reevaluateProtocol(ctx, id, upd)
		}()
	}
}

// track registers one unit of step work with the WaitGroup. It returns false
// once Stop has begun, so no new goroutine can start while Stop is waiting.
func (e *Engine) track() bool {
	e.stopMu.Lock()
	defer e.stopMu.Unlock()
	if e.stopped {
		return false
	}
	e.wg.Add(1)
	return true
}

// reevaluateProtocol processes a single protocol during a re-evaluation pass.
func (e *Engine) reevaluateProtocol(ctx context.Context, id string, upd situation.Update) {
	e.mu.RLock()
	p := e.protocols[id]
	e.mu.RUnlock()
	if p == nil {
		return
	}

	evalCtx := &models.Context{
		Environmental: upd.Environmental,
		Tactical:      upd.Tactical,
		ActiveSteps:   e.ActiveSteps(id),
	}

	if !AllSatisfied(p.Conditions, evalCtx) {
		debugLog("protocol %s conditions no longer hold, deactivating", id)
		_ = e.DeactivateProtocol(id)
		return
	}

	// Re-run, not resume: every active step executes again against this
	// context, so actions must be safe to repeat.
	for _, stepID := range evalCtx.ActiveSteps {
		stepID := stepID
		if !e.track() {
			return
		}
		go func() {
			defer e.wg.Done()
			e.runStep(ctx, p, stepID, evalCtx)
		}()
	}
}

// runStep executes one step and, if it completes, progresses the active-step
// set and fans out to its successors. Successors run concurrently with no
// ordering guarantee; each one's completion drives its own progression.
// Dispatch failures leave the step active for the next re-evaluation pass.
func (e *Engine) runStep(ctx context.Context, p *models.Protocol, stepID string, evalCtx *models.Context) {
	step := p.StepByID(stepID)
	if step == nil {
		// Definition was re-loaded underneath an older episode.
		debugLog("step %s no longer exists in protocol %s, skipping", stepID, p.ID)
		return
	}

	outcome, err := e.executor.Execute(ctx, p, step, evalCtx)
	e.recordStep(p.ID, stepID, outcome.Complete, err)
	if err != nil {
		// Step-local failure: the step stays in the active set.
		return
	}
	if !outcome.Complete {
		return
	}

	for _, next := range e.progress(p.ID, stepID, step.NextSteps) {
		next := next
		if !e.track() {
			return
		}
		go func() {
			defer e.wg.Done()
			e.runStep(ctx, p, next, evalCtx)
		}()
	}
}

// progress removes a completed step from the active set and inserts its
// successors, returning the successors that actually entered the set. Returns
// nil if the protocol was deactivated in the meantime. A successor already in
// the set is not re-added, so sibling completions cannot double-dispatch it.
func (e *Engine) progress(protocolID, stepID string, nextSteps []string) []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	set, ok := e.active[protocolID]
	if !ok {
		return nil
	}

	delete(set, stepID)
	var entered []string
	for _, next := range nextSteps {
		if _, dup := set[next]; dup {
			continue
		}
		set[next] = struct{}{}
		entered = append(entered, next)
	}
	return entered
}

// ActiveSteps returns a sorted snapshot of the active step IDs for a
// protocol. Returns nil if the protocol is not active.
func (e *Engine) ActiveSteps(id string) []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	set, ok := e.active[id]
	if !ok {
		return nil
	}
	steps := make([]string, 0, len(set))
	for stepID := range set {
		steps = append(steps, stepID)
	}
	sort.Strings(steps)
	return steps
}

// IsActive reports whether the protocol has a live activation episode.
func (e *Engine) IsActive(id string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.active[id]
	return ok
}

// Protocol returns the stored definition for an ID, or nil if never loaded.
func (e *Engine) Protocol(id string) *models.Protocol {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.protocols[id]
}

// ActiveProtocols returns a sorted snapshot of the active protocol IDs.
func (e *Engine) ActiveProtocols() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	ids := make([]string, 0, len(e.active))
	for id := range e.active {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Stop signals the engine to stop, waits for in-flight step executions to
// finish, and closes the event channel. Idempotent. After Stop no new step
// work starts and further notifications are dropped rather than sent.
func (e *Engine) Stop() {
	e.stopMu.Lock()
	if e.stopped {
		e.stopMu.Unlock()
		return
	}
	e.stopped = true
	e.stopMu.Unlock()

	close(e.stopCh)
	e.wg.Wait()
	e.emitter.Close()
}

// recordActivation persists the start of an activation episode.
func (e *Engine) recordActivation(episode string, p *models.Protocol) {
	if e.stateDB == nil {
		return // No-op if state DB not configured
	}

	err := e.stateDB.CreateActivation(&state.Activation{
		ID:           episode,
		ProtocolID:   p.ID,
		ProtocolName: p.Name,
		StartedAt:    time.Now(),
		Status:       state.ActivationActive,
	})
	if err != nil {
		log.Printf("[engine] warning: failed to record activation of %s: %v", p.ID, err)
	}
}

// closeActivation persists the end of an activation episode.
func (e *Engine) closeActivation(episode string) {
	if e.stateDB == nil || episode == "" {
		return // No-op if state DB not configured
	}

	if err := e.stateDB.CloseActivation(episode, state.ActivationDeactivated, time.Now()); err != nil {
		log.Printf("[engine] warning: failed to close activation %s: %v", episode, err)
	}
}

// recordStep persists one step execution row.
func (e *Engine) recordStep(protocolID, stepID string, complete bool, execErr error) {
	if e.stateDB == nil {
		return // No-op if state DB not configured
	}

	e.mu.RLock()
	episode := e.episodes[protocolID]
	e.mu.RUnlock()
	if episode == "" {
		return
	}

	row := &state.StepExecution{
		ActivationID: episode,
		ProtocolID:   protocolID,
		StepID:       stepID,
		Complete:     complete,
		ExecutedAt:   time.Now(),
	}
	if execErr != nil {
		row.Error = execErr.Error()
	}
	if err := e.stateDB.RecordStepExecution(row); err != nil {
		log.Printf("[engine] warning: failed to record step execution %s/%s: %v", protocolID, stepID, err)
	}
}
