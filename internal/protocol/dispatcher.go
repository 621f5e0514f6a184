package protocol

import (
	"context"
	"fmt"
	"time"

	"github.com/oldmangrizzz/looktony/internal/situation"
	"github.com/oldmangrizzz/looktony/pkg/models"
)

// DefaultLayer is the map layer mark_location targets when no layer is
// configured.
const DefaultLayer = "tactical"

// defaultRadiusMeters is the snapshot radius update_situation uses when a step
// supplies none.
const defaultRadiusMeters = 500

// ActionFunc performs a single named action against the situational
// collaborator. Errors are step-local; the engine wraps them in a
// DispatchError and reports them via the step_error notification.
type ActionFunc func(ctx context.Context, params map[string]any, evalCtx *models.Context) error

// Dispatcher maps a step's named action to a call against the situational
// store. The action table is fixed at construction plus whatever the owner
// registers; any name outside it fails with UnknownActionError.
type Dispatcher struct {
	store situation.Store
	layer string

	actions map[string]ActionFunc
	clock   func() time.Time
}

// NewDispatcher creates a dispatcher bound to the given store. The two
// required actions, mark_location and update_situation, are registered up
// front. An empty defaultLayer falls back to DefaultLayer.
func NewDispatcher(store situation.Store, defaultLayer string) *Dispatcher {
	if defaultLayer == "" {
		defaultLayer = DefaultLayer
	}
	d := &Dispatcher{
		store: store,
		layer: defaultLayer,
		clock: time.Now,
	}
	d.actions = map[string]ActionFunc{
		"mark_location":    d.markLocation,
		"update_situation": d.updateSituation,
	}
	return d
}

// Register adds or replaces an action in the table.
func (d *Dispatcher) Register(name string, fn ActionFunc) {
	d.actions[name] = fn
}

// Execute runs the named action with the given parameters. Unknown names
// yield an UnknownActionError; collaborator failures are wrapped in a
// DispatchError. Both are local to the step and never fatal to the engine.
func (d *Dispatcher) Execute(ctx context.Context, name string, params map[string]any, evalCtx *models.Context) error {
	fn, ok := d.actions[name]
	if !ok {
		return &UnknownActionError{Name: name}
	}
	if err := fn(ctx, params, evalCtx); err != nil {
		return &DispatchError{Action: name, Err: err}
	}
	return nil
}

// markLocation forwards to the store's add-element operation on the default
// layer, tagging the element with the current timestamp merged into any
// supplied metadata. Position parameters are optional; an absent coordinate
// defaults to the origin so parameterless steps still dispatch.
func (d *Dispatcher) markLocation(ctx context.Context, params map[string]any, _ *models.Context) error {
	lat, err := paramFloat(params, "lat", 0)
	if err != nil {
		return fmt.Errorf("mark_location: %w", err)
	}
	lon, err := paramFloat(params, "lon", 0)
	if err != nil {
		return fmt.Errorf("mark_location: %w", err)
	}

	metadata := map[string]any{
		"timestamp": d.clock().UnixMilli(),
	}
	if supplied, ok := params["metadata"].(map[string]any); ok {
		for k, v := range supplied {
			metadata[k] = v
		}
	}

	_, err = d.store.AddElement(ctx, d.layer, situation.Element{
		Position: situation.Coordinate{Lat: lat, Lon: lon},
		Metadata: metadata,
	})
	return err
}

// updateSituation forwards to the store's recompute operation with a center
// coordinate and radius drawn from parameters. An absent center defaults to
// the origin and an absent radius to defaultRadiusMeters.
func (d *Dispatcher) updateSituation(ctx context.Context, params map[string]any, _ *models.Context) error {
	lat, err := paramFloat(params, "lat", 0)
	if err != nil {
		return fmt.Errorf("update_situation: %w", err)
	}
	lon, err := paramFloat(params, "lon", 0)
	if err != nil {
		return fmt.Errorf("update_situation: %w", err)
	}
	radius, err := paramFloat(params, "radius", defaultRadiusMeters)
	if err != nil {
		return fmt.Errorf("update_situation: %w", err)
	}

	_, err = d.store.Recompute(ctx, situation.Coordinate{Lat: lat, Lon: lon}, radius)
	return err
}

// paramFloat reads a numeric parameter. An absent key yields the fallback; a
// present but non-numeric value is an error. YAML and JSON decoding produce a
// mix of int and float64, so both are accepted.
func paramFloat(params map[string]any, key string, fallback float64) (float64, error) {
	v, ok := params[key]
	if !ok {
		return fallback, nil
	}
	f, ok := toFloat(v)
	if !ok {
		return 0, fmt.Errorf("non-numeric param %q", key)
	}
	return f, nil
}
