// File: internal/registry/registry.go

// Package registry persists the cross-session state of the generator:
// the page registry (pages.json, page id to class and identity) and
// the locator status registry (locators.json, locator key to verified
// health). Both are small JSON maps written atomically so a crashed
// run never leaves a torn file behind.
package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/scribe-cli/api/schemas"
)

// json sorts map keys so repeated saves produce identical bytes.
var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	pagesFile    = "pages.json"
	locatorsFile = "locators.json"
)

// Registry reads and writes the state directory.
type Registry struct {
	dir    string
	logger *zap.Logger
}

// New builds a Registry rooted at dir. The directory is created on
// first write, not here.
func New(dir string, logger *zap.Logger) *Registry {
	return &Registry{dir: dir, logger: logger.Named("registry")}
}

// Dir returns the state directory path.
func (r *Registry) Dir() string { return r.dir }

// LoadPages returns the page registry; a missing file is an empty
// registry, not an error.
func (r *Registry) LoadPages() (map[string]schemas.PageRecord, error) {
	pages := make(map[string]schemas.PageRecord)
	if err := r.readJSON(pagesFile, &pages); err != nil {
		return nil, err
	}
	return pages, nil
}

// SavePages atomically replaces the page registry.
func (r *Registry) SavePages(pages map[string]schemas.PageRecord) error {
	return r.writeJSON(pagesFile, pages)
}

// RecordPages merges one compilation's page objects into the page
// registry, keyed by page id.
func (r *Registry) RecordPages(files []schemas.PageObjectFile, identities map[string]schemas.PageIdentity) error {
	pages, err := r.LoadPages()
	if err != nil {
		return err
	}
	for _, file := range files {
		record := schemas.PageRecord{
			ClassName: file.ClassName,
			FilePath:  filepath.Join("pageobjects", file.FileName),
		}
		if identity, ok := identities[file.PageID]; ok {
			record.Identity = identity
		}
		pages[file.PageID] = record
	}
	if err := r.SavePages(pages); err != nil {
		return err
	}
	r.logger.Debug("Page registry updated.", zap.Int("pages", len(pages)))
	return nil
}

// LoadLocators returns the locator status registry; a missing file is
// an empty registry.
func (r *Registry) LoadLocators() (map[string]schemas.LocatorStatus, error) {
	statuses := make(map[string]schemas.LocatorStatus)
	if err := r.readJSON(locatorsFile, &statuses); err != nil {
		return nil, err
	}
	return statuses, nil
}

// SaveLocators atomically replaces the locator status registry.
func (r *Registry) SaveLocators(statuses map[string]schemas.LocatorStatus) error {
	return r.writeJSON(locatorsFile, statuses)
}

// UpdateLocators merges verification results into the locator status
// registry, stamping each entry with the update time.
func (r *Registry) UpdateLocators(results map[string]schemas.LocatorStatus) error {
	statuses, err := r.LoadLocators()
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	for key, status := range results {
		if status.UpdatedAt.IsZero() {
			status.UpdatedAt = now
		}
		statuses[key] = status
	}
	if err := r.SaveLocators(statuses); err != nil {
		return err
	}
	r.logger.Debug("Locator status registry updated.",
		zap.Int("updated", len(results)), zap.Int("total", len(statuses)))
	return nil
}

func (r *Registry) readJSON(name string, v any) error {
	data, err := os.ReadFile(filepath.Join(r.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("registry: reading %s: %w", name, err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("registry: parsing %s: %w", name, err)
	}
	return nil
}

// writeJSON writes via a temp file in the same directory and renames
// over the target, so readers never observe a partial write.
func (r *Registry) writeJSON(name string, v any) error {
	if err := os.MkdirAll(r.dir, 0755); err != nil {
		return fmt.Errorf("registry: creating state dir: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("registry: encoding %s: %w", name, err)
	}
	target := filepath.Join(r.dir, name)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("registry: writing %s: %w", name, err)
	}
	if err := os.Rename(tmp, target); err != nil {
		return fmt.Errorf("registry: replacing %s: %w", name, err)
	}
	return nil
}
