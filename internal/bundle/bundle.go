// Package bundle reads and writes the per-test artifact directory: the
// spec file, page objects, data fixture, metadata, intent summary, and
// the persisted session (steps plus final DOM snapshot). Artifacts are
// written only from a fully compiled set; the writer never synthesizes
// content of its own.
package bundle

import (
	"fmt"
	"os"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/scribe-cli/api/schemas"
	"github.com/xkilldash9x/scribe-cli/internal/codegen"
)

// json sorts map keys so fixture and meta files diff cleanly.
var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	pageObjectsDir = "pageobjects"
	fixtureFile    = "data.json"
	metaFile       = "meta.json"
	intentFile     = "INTENT.md"
	sessionFile    = "steps.json"
	snapshotFile   = "snapshot.html"
)

// Bundle is one per-test artifact directory.
type Bundle struct {
	dir    string
	logger *zap.Logger
}

// New opens a bundle rooted at dir. Nothing is created until a write.
func New(dir string, logger *zap.Logger) *Bundle {
	return &Bundle{dir: dir, logger: logger.Named("bundle")}
}

// Dir returns the bundle directory path.
func (b *Bundle) Dir() string { return b.dir }

// SpecPath returns the path the spec file was (or will be) written to.
func (b *Bundle) SpecPath(artifacts *schemas.Artifacts) string {
	return filepath.Join(b.dir, artifacts.SpecFile)
}

// Write persists a compiled artifact set. The set is complete before
// the first byte is written, so an error here names the failing file
// rather than leaving a silently half-generated bundle.
func (b *Bundle) Write(artifacts *schemas.Artifacts) error {
	if artifacts == nil {
		return fmt.Errorf("bundle: nothing to write")
	}
	if err := os.MkdirAll(filepath.Join(b.dir, pageObjectsDir), 0755); err != nil {
		return fmt.Errorf("bundle: creating %s: %w", b.dir, err)
	}

	for _, file := range artifacts.PageObjects {
		path := filepath.Join(b.dir, pageObjectsDir, file.FileName)
		if err := os.WriteFile(path, []byte(file.Source), 0644); err != nil {
			return fmt.Errorf("bundle: writing page object %s: %w", file.FileName, err)
		}
	}
	if err := os.WriteFile(filepath.Join(b.dir, artifacts.SpecFile), []byte(artifacts.SpecSource), 0644); err != nil {
		return fmt.Errorf("bundle: writing %s: %w", artifacts.SpecFile, err)
	}
	if err := b.writeJSON(fixtureFile, artifacts.Fixture); err != nil {
		return err
	}
	if err := b.writeJSON(metaFile, artifacts.Meta); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(b.dir, intentFile), []byte(artifacts.Intent), 0644); err != nil {
		return fmt.Errorf("bundle: writing %s: %w", intentFile, err)
	}

	b.logger.Info("Bundle written.",
		zap.String("dir", b.dir),
		zap.String("spec", artifacts.SpecFile),
		zap.Int("page_objects", len(artifacts.PageObjects)))
	return nil
}

// SaveSession persists the frozen session so compilation can run later
// or repeatedly. The DOM snapshot goes to its own file; steps.json
// stays small enough to read with the eyes.
func (b *Bundle) SaveSession(session *schemas.Session) error {
	if session == nil {
		return fmt.Errorf("bundle: no session to save")
	}
	if err := os.MkdirAll(b.dir, 0755); err != nil {
		return fmt.Errorf("bundle: creating %s: %w", b.dir, err)
	}

	trimmed := *session
	trimmed.FinalDOM = ""
	if err := b.writeJSON(sessionFile, &trimmed); err != nil {
		return err
	}
	if session.FinalDOM != "" {
		if err := os.WriteFile(filepath.Join(b.dir, snapshotFile), []byte(session.FinalDOM), 0644); err != nil {
			return fmt.Errorf("bundle: writing %s: %w", snapshotFile, err)
		}
	}

	b.logger.Info("Session saved.",
		zap.String("dir", b.dir),
		zap.Int("steps", len(session.Steps)),
		zap.Bool("snapshot", session.FinalDOM != ""))
	return nil
}

// LoadSession reads a persisted session back, reattaching the DOM
// snapshot when one was captured.
func (b *Bundle) LoadSession() (*schemas.Session, error) {
	data, err := os.ReadFile(filepath.Join(b.dir, sessionFile))
	if err != nil {
		return nil, fmt.Errorf("bundle: reading %s: %w", sessionFile, err)
	}
	var session schemas.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("bundle: parsing %s: %w", sessionFile, err)
	}
	if dom, err := os.ReadFile(filepath.Join(b.dir, snapshotFile)); err == nil {
		session.FinalDOM = string(dom)
	}
	return &session, nil
}

// Snapshot returns the final DOM captured at session stop, or "" when
// none was saved.
func (b *Bundle) Snapshot() (string, error) {
	data, err := os.ReadFile(filepath.Join(b.dir, snapshotFile))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("bundle: reading %s: %w", snapshotFile, err)
	}
	return string(data), nil
}

// Meta reads the metadata of the last compilation. A directory with no
// bundle yields nil.
func (b *Bundle) Meta() (*schemas.BundleMeta, error) {
	data, err := os.ReadFile(filepath.Join(b.dir, metaFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("bundle: reading %s: %w", metaFile, err)
	}
	var meta schemas.BundleMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("bundle: parsing %s: %w", metaFile, err)
	}
	return &meta, nil
}

// LoadPrevious recovers the earlier generation output so recompilation
// preserves manual edits. A directory with no bundle yields nil.
func (b *Bundle) LoadPrevious() (*codegen.Previous, error) {
	meta, err := b.Meta()
	if err != nil || meta == nil {
		return nil, err
	}

	prev := &codegen.Previous{PageObjects: make(map[string]string)}
	for _, pageID := range meta.PageIDs {
		// Page-object file names derive deterministically from the page
		// id, so the meta listing is enough to find them again.
		name := codegen.SafeFileName(pageID) + ".page.ts"
		source, err := os.ReadFile(filepath.Join(b.dir, pageObjectsDir, name))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("bundle: reading page object %s: %w", name, err)
		}
		prev.PageObjects[pageID] = string(source)
	}

	if data, err := os.ReadFile(filepath.Join(b.dir, fixtureFile)); err == nil {
		if err := json.Unmarshal(data, &prev.Fixture); err != nil {
			return nil, fmt.Errorf("bundle: parsing %s: %w", fixtureFile, err)
		}
	}

	b.logger.Debug("Previous bundle loaded.",
		zap.Int("page_objects", len(prev.PageObjects)),
		zap.Int("fixture_rows", len(prev.Fixture)))
	return prev, nil
}

func (b *Bundle) writeJSON(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("bundle: encoding %s: %w", name, err)
	}
	if err := os.WriteFile(filepath.Join(b.dir, name), append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("bundle: writing %s: %w", name, err)
	}
	return nil
}
