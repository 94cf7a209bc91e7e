package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/robert-malhotra/scene-browser/internal/catalog"
)

// Fixture is the on-disk form of a catalog: the products it offers and the
// scenes it has issued, in catalog order.
type Fixture struct {
	Products []catalog.Product `json:"products"`
	Scenes   []catalog.Scene   `json:"scenes"`
}

// LoadFixture loads a catalog fixture from a single JSON file or from every
// .json file in a directory. Directory entries are merged in file name order,
// so scene order (and therefore sort ties) is stable across restarts.
func LoadFixture(path string) (*Fixture, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to access fixture path %q: %w", path, err)
	}

	if !info.IsDir() {
		return loadFixtureFile(path)
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture directory %q: %w", path, err)
	}

	merged := &Fixture{}
	loadedCount := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		filename := entry.Name()
		if !strings.HasSuffix(strings.ToLower(filename), ".json") {
			continue
		}

		filePath := filepath.Join(path, filename)
		f, err := loadFixtureFile(filePath)
		if err != nil {
			return nil, err
		}

		merged.Products = append(merged.Products, f.Products...)
		merged.Scenes = append(merged.Scenes, f.Scenes...)
		loadedCount++
	}

	if loadedCount == 0 {
		return nil, fmt.Errorf("no fixture files found in %q", path)
	}

	return merged, nil
}

// loadFixtureFile loads a single fixture from a JSON file.
func loadFixtureFile(filePath string) (*Fixture, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture %q: %w", filePath, err)
	}

	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse fixture %q: %w", filePath, err)
	}

	return &f, nil
}

// Catalog validates the fixture and builds an in-memory catalog from it.
func (f *Fixture) Catalog() (*catalog.MemoryCatalog, error) {
	c, err := catalog.NewMemoryCatalog(f.Products, f.Scenes)
	if err != nil {
		return nil, fmt.Errorf("invalid catalog fixture: %w", err)
	}
	return c, nil
}

// LoadMemoryCatalog is LoadFixture followed by Fixture.Catalog.
func LoadMemoryCatalog(path string) (*catalog.MemoryCatalog, error) {
	f, err := LoadFixture(path)
	if err != nil {
		return nil, err
	}
	return f.Catalog()
}
