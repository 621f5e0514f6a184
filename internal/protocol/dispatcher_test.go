package protocol

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/oldmangrizzz/looktony/internal/situation"
	"github.com/oldmangrizzz/looktony/pkg/models"
)

// recordingStore captures calls so tests can assert exactly what the
// dispatcher forwarded to the collaborator.
type recordingStore struct {
	mu         sync.Mutex
	added      []situation.Element
	addedLayer []string
	recomputes []situation.Coordinate
	radii      []float64

	addErr       error
	recomputeErr error
}

func (s *recordingStore) AddElement(_ context.Context, layerID string, el situation.Element) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.addErr != nil {
		return "", s.addErr
	}
	s.added = append(s.added, el)
	s.addedLayer = append(s.addedLayer, layerID)
	return "el-1", nil
}

func (s *recordingStore) Recompute(_ context.Context, center situation.Coordinate, radiusMeters float64) (*situation.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recomputeErr != nil {
		return nil, s.recomputeErr
	}
	s.recomputes = append(s.recomputes, center)
	s.radii = append(s.radii, radiusMeters)
	return &situation.Snapshot{Center: center, Radius: radiusMeters}, nil
}

func (s *recordingStore) addCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.added)
}

func TestDispatcherMarkLocation(t *testing.T) {
	store := &recordingStore{}
	d := NewDispatcher(store, "tactical")
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	d.clock = func() time.Time { return fixed }

	params := map[string]any{
		"lat": 40.7128,
		"lon": -74.0060,
		"metadata": map[string]any{
			"label": "rally point",
		},
	}
	if err := d.Execute(context.Background(), "mark_location", params, nil); err != nil {
		t.Fatalf("mark_location failed: %v", err)
	}

	if len(store.added) != 1 {
		t.Fatalf("expected 1 element added, got %d", len(store.added))
	}
	el := store.added[0]
	if store.addedLayer[0] != "tactical" {
		t.Errorf("expected tactical layer, got %q", store.addedLayer[0])
	}
	if el.Position.Lat != 40.7128 || el.Position.Lon != -74.0060 {
		t.Errorf("unexpected position %+v", el.Position)
	}
	if el.Metadata["label"] != "rally point" {
		t.Errorf("expected supplied metadata to be preserved, got %v", el.Metadata)
	}
	if el.Metadata["timestamp"] != fixed.UnixMilli() {
		t.Errorf("expected timestamp %d, got %v", fixed.UnixMilli(), el.Metadata["timestamp"])
	}
}

func TestDispatcherMarkLocationIntParams(t *testing.T) {
	// YAML decodes whole numbers as int; the dispatcher must accept them.
	store := &recordingStore{}
	d := NewDispatcher(store, "")

	params := map[string]any{"lat": 41, "lon": -74}
	if err := d.Execute(context.Background(), "mark_location", params, nil); err != nil {
		t.Fatalf("mark_location with int params failed: %v", err)
	}
	if store.addedLayer[0] != DefaultLayer {
		t.Errorf("expected fallback layer %q, got %q", DefaultLayer, store.addedLayer[0])
	}
}

func TestDispatcherDefaultsMissingParams(t *testing.T) {
	store := &recordingStore{}
	d := NewDispatcher(store, "tactical")

	// Parameterless steps dispatch with defaults instead of failing.
	if err := d.Execute(context.Background(), "mark_location", nil, nil); err != nil {
		t.Fatalf("mark_location without params failed: %v", err)
	}
	if len(store.added) != 1 {
		t.Fatalf("expected 1 element added, got %d", len(store.added))
	}
	el := store.added[0]
	if el.Position.Lat != 0 || el.Position.Lon != 0 {
		t.Errorf("expected origin position, got %+v", el.Position)
	}
	if el.Metadata["timestamp"] == nil {
		t.Error("expected timestamp metadata on default dispatch")
	}

	if err := d.Execute(context.Background(), "update_situation", nil, nil); err != nil {
		t.Fatalf("update_situation without params failed: %v", err)
	}
	if len(store.radii) != 1 || store.radii[0] != defaultRadiusMeters {
		t.Errorf("expected default radius %d, got %v", defaultRadiusMeters, store.radii)
	}
}

func TestDispatcherNonNumericParam(t *testing.T) {
	d := NewDispatcher(&recordingStore{}, "tactical")

	err := d.Execute(context.Background(), "mark_location", map[string]any{"lat": "north"}, nil)
	if err == nil {
		t.Fatal("expected error for non-numeric lat")
	}
	var de *DispatchError
	if !errors.As(err, &de) {
		t.Fatalf("expected DispatchError, got %T", err)
	}
	if de.Action != "mark_location" {
		t.Errorf("expected action mark_location, got %q", de.Action)
	}
}

func TestDispatcherUpdateSituation(t *testing.T) {
	store := &recordingStore{}
	d := NewDispatcher(store, "tactical")

	params := map[string]any{"lat": 42.36, "lon": -71.06, "radius": 500.0}
	if err := d.Execute(context.Background(), "update_situation", params, nil); err != nil {
		t.Fatalf("update_situation failed: %v", err)
	}
	if len(store.recomputes) != 1 {
		t.Fatalf("expected 1 recompute, got %d", len(store.recomputes))
	}
	if store.radii[0] != 500.0 {
		t.Errorf("expected radius 500, got %v", store.radii[0])
	}
}

func TestDispatcherUnknownAction(t *testing.T) {
	d := NewDispatcher(&recordingStore{}, "tactical")

	err := d.Execute(context.Background(), "launch_flare", nil, nil)
	var ua *UnknownActionError
	if !errors.As(err, &ua) {
		t.Fatalf("expected UnknownActionError, got %v", err)
	}
	if ua.Name != "launch_flare" {
		t.Errorf("expected action name launch_flare, got %q", ua.Name)
	}
}

func TestDispatcherWrapsStoreError(t *testing.T) {
	boom := errors.New("layer offline")
	store := &recordingStore{addErr: boom}
	d := NewDispatcher(store, "tactical")

	err := d.Execute(context.Background(), "mark_location", map[string]any{"lat": 1.0, "lon": 2.0}, nil)
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
	var de *DispatchError
	if !errors.As(err, &de) {
		t.Fatalf("expected DispatchError, got %T", err)
	}
}

func TestDispatcherRegister(t *testing.T) {
	d := NewDispatcher(&recordingStore{}, "tactical")

	var got map[string]any
	d.Register("probe", func(_ context.Context, params map[string]any, _ *models.Context) error {
		got = params
		return nil
	})

	params := map[string]any{"name": "alpha"}
	if err := d.Execute(context.Background(), "probe", params, nil); err != nil {
		t.Fatalf("registered action failed: %v", err)
	}
	if got["name"] != "alpha" {
		t.Errorf("expected params forwarded, got %v", got)
	}
}
