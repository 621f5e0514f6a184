package situation

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
)

const earthRadiusMeters = 6371000

// MemoryStore is an in-process situational store. Layers are created up
// front; elements accumulate per layer. Updates published via Publish are
// fanned out to the single Updates channel.
type MemoryStore struct {
	mu      sync.RWMutex
	layers  map[string]map[string]Element
	updates chan Update
}

// NewMemoryStore creates a store with the given layer IDs.
func NewMemoryStore(layerIDs ...string) *MemoryStore {
	layers := make(map[string]map[string]Element, len(layerIDs))
	for _, id := range layerIDs {
		layers[id] = make(map[string]Element)
	}
	return &MemoryStore{
		layers:  layers,
		updates: make(chan Update, 16),
	}
}

// AddLayer registers a new empty layer. Adding an existing layer is a no-op.
func (s *MemoryStore) AddLayer(layerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.layers[layerID]; !ok {
		s.layers[layerID] = make(map[string]Element)
	}
}

// AddElement inserts an element into the named layer.
func (s *MemoryStore) AddElement(_ context.Context, layerID string, el Element) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	layer, ok := s.layers[layerID]
	if !ok {
		return "", fmt.Errorf("add element to %q: %w", layerID, ErrLayerNotFound)
	}

	el.ID = uuid.New().String()
	el.Layer = layerID
	layer[el.ID] = el
	return el.ID, nil
}

// Recompute returns a snapshot of all elements within radiusMeters of center.
func (s *MemoryStore) Recompute(_ context.Context, center Coordinate, radiusMeters float64) (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := &Snapshot{
		Center:      center,
		Radius:      radiusMeters,
		GeneratedAt: time.Now(),
	}
	for _, layer := range s.layers {
		for _, el := range layer {
			if haversine(center, el.Position) <= radiusMeters {
				snap.Elements = append(snap.Elements, el)
			}
		}
	}
	return snap, nil
}

// ElementCount returns the number of elements in the named layer.
// Returns 0 for unknown layers.
func (s *MemoryStore) ElementCount(layerID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.layers[layerID])
}

// Publish pushes a situation update to subscribers. If the update carries no
// timestamp, the current time is stamped in. Blocks only until buffer space
// is available.
func (s *MemoryStore) Publish(upd Update) {
	if upd.At.IsZero() {
		upd.At = time.Now()
	}
	s.updates <- upd
}

// Updates returns the channel of situation updates.
func (s *MemoryStore) Updates() <-chan Update {
	return s.updates
}

// Close closes the update channel. Publish must not be called afterwards.
func (s *MemoryStore) Close() {
	close(s.updates)
}

// haversine computes the great-circle distance between two coordinates in meters.
func haversine(a, b Coordinate) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(h))
}
