// Package situation defines the boundary to the situational-data collaborator:
// the component that supplies periodic situation updates and accepts element
// mutations against named map layers. The engine only depends on the Store
// interface; MemoryStore is the in-process implementation used by the daemon
// and by tests.
package situation

import (
	"context"
	"errors"
	"time"
)

// ErrLayerNotFound indicates an element was addressed to an unknown layer.
var ErrLayerNotFound = errors.New("layer not found")

// Coordinate is a WGS84 position.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Element is a single marker on a situational layer.
type Element struct {
	// ID is assigned by the store on insertion.
	ID string `json:"id"`
	// Layer is the owning layer ID.
	Layer string `json:"layer"`
	// Position is where the element sits.
	Position Coordinate `json:"position"`
	// Metadata carries freeform tags attached by the producer.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Snapshot is a recomputed situational picture centered on a coordinate.
type Snapshot struct {
	Center      Coordinate `json:"center"`
	Radius      float64    `json:"radius"`
	Elements    []Element  `json:"elements"`
	GeneratedAt time.Time  `json:"generated_at"`
}

// Update is one "situation updated" payload pushed to subscribers. The
// sub-maps feed condition evaluation directly.
type Update struct {
	Environmental map[string]any `json:"environmental,omitempty"`
	Tactical      map[string]any `json:"tactical,omitempty"`
	At            time.Time      `json:"at"`
}

// Store is the mutation surface of the situational-data collaborator.
type Store interface {
	// AddElement inserts an element into the named layer and returns the
	// assigned element ID. Fails with ErrLayerNotFound for unknown layers.
	AddElement(ctx context.Context, layerID string, el Element) (string, error)
	// Recompute rebuilds the situational snapshot around a center coordinate.
	Recompute(ctx context.Context, center Coordinate, radiusMeters float64) (*Snapshot, error)
}

// UpdateSource is the event surface of the collaborator. The engine consumes
// the channel; it never polls.
type UpdateSource interface {
	Updates() <-chan Update
}
