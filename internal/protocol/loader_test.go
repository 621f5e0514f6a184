package protocol

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/oldmangrizzz/looktony/pkg/models"
)

const sampleProtocolYAML = `id: perimeter-sweep
name: Perimeter Sweep
kind: standard
conditions:
  - kind: tactical
    key: threat
    operator: greater
    value: 5
steps:
  - id: mark-entry
    action: mark_location
    params:
      lat: 40.7128
      lon: -74.0060
    next_steps: [refresh-picture]
  - id: refresh-picture
    action: update_situation
    params:
      lat: 40.7128
      lon: -74.0060
      radius: 500
    completion:
      - kind: tactical
        key: secured
        operator: equals
        value: true
`

func writeProtocolFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := writeProtocolFile(t, dir, "sweep.yaml", sampleProtocolYAML)

	p, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if p.ID != "perimeter-sweep" {
		t.Errorf("expected id perimeter-sweep, got %q", p.ID)
	}
	if p.Kind != models.ProtocolStandard {
		t.Errorf("expected kind standard, got %q", p.Kind)
	}
	if len(p.Steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(p.Steps))
	}
	if p.Steps[0].NextSteps[0] != "refresh-picture" {
		t.Errorf("unexpected next_steps %v", p.Steps[0].NextSteps)
	}
	if len(p.Conditions) != 1 || p.Conditions[0].Operator != models.OpGreater {
		t.Errorf("unexpected conditions %+v", p.Conditions)
	}
	if len(p.Steps[1].Completion) != 1 {
		t.Errorf("expected completion criteria on second step, got %+v", p.Steps[1].Completion)
	}
}

func TestLoadFileMissingID(t *testing.T) {
	dir := t.TempDir()
	path := writeProtocolFile(t, dir, "anon.yaml", "name: Anonymous\nsteps: []\n")

	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected error for definition without id")
	}
}

func TestLoadFileBadYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeProtocolFile(t, dir, "broken.yaml", "steps: [unclosed\n")

	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeProtocolFile(t, dir, "b.yaml", "id: bravo\nname: Bravo\nkind: standard\nsteps:\n  - id: s1\n    action: mark_location\n")
	writeProtocolFile(t, dir, "a.yml", "id: alpha\nname: Alpha\nkind: standard\nsteps:\n  - id: s1\n    action: mark_location\n")
	writeProtocolFile(t, dir, "notes.txt", "not a protocol")

	protocols, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("load dir: %v", err)
	}
	if len(protocols) != 2 {
		t.Fatalf("expected 2 protocols, got %d", len(protocols))
	}
	// Sorted by file name, not protocol ID.
	if protocols[0].ID != "alpha" || protocols[1].ID != "bravo" {
		t.Errorf("unexpected order: %s, %s", protocols[0].ID, protocols[1].ID)
	}
}

func TestLoadDirMissing(t *testing.T) {
	protocols, err := LoadDir(filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatalf("expected missing dir to be tolerated, got %v", err)
	}
	if len(protocols) != 0 {
		t.Errorf("expected no protocols, got %d", len(protocols))
	}
}
