package protocol

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/oldmangrizzz/looktony/pkg/models"
)

// LoadFile parses a single protocol definition from a YAML file.
// The definition is only parsed, not validated; LoadProtocol validates.
func LoadFile(path string) (*models.Protocol, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read protocol file: %w", err)
	}

	var p models.Protocol
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse protocol file %s: %w", path, err)
	}
	if p.ID == "" {
		return nil, fmt.Errorf("protocol file %s: missing id", path)
	}
	return &p, nil
}

// LoadDir parses every .yaml/.yml file in a directory, sorted by file name.
// A missing directory yields an empty slice, not an error.
func LoadDir(dir string) ([]*models.Protocol, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read protocol directory: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if ext := filepath.Ext(entry.Name()); ext != ".yaml" && ext != ".yml" {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(paths)

	protocols := make([]*models.Protocol, 0, len(paths))
	for _, path := range paths {
		p, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		protocols = append(protocols, p)
	}
	return protocols, nil
}
