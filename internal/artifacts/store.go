package artifacts

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"
)

// Store owns the process-wide model bundle. Reads never block: scoring calls
// take an atomic snapshot and keep using it to completion even across a hot
// reload. Reloading is the rare, exclusive operation: a single writer lock
// serializes loads, and the finished bundle is swapped in atomically.
type Store struct {
	dir     string
	mu      sync.Mutex // serializes Reload
	current atomic.Pointer[Bundle]
}

// NewStore loads the initial bundle from dir. Files absent from dir fall back
// to the embedded defaults; files present but unreadable are a hard error so
// the process fails closed rather than serving stale or partial models.
func NewStore(dir string) (*Store, error) {
	s := &Store{dir: dir}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Current returns the active bundle snapshot.
func (s *Store) Current() *Bundle {
	return s.current.Load()
}

// Reload re-reads the artifact directory and atomically swaps the bundle.
// In-flight scoring keeps the pre-swap snapshot.
func (s *Store) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bundle := &Bundle{LoadedAt: time.Now()}

	ensemble := &EnsembleArtifact{}
	ok, err := s.loadFile(EnsembleFile, ensemble)
	if err != nil {
		return err
	}
	if ok {
		bundle.Ensemble = ensemble
	} else {
		bundle.Ensemble = DefaultEnsemble()
	}

	text := &TextClassifierArtifact{}
	ok, err = s.loadFile(TextFile, text)
	if err != nil {
		return err
	}
	if ok {
		bundle.Text = text
	} else {
		bundle.Text = DefaultTextClassifier()
	}

	turnover := &TurnoverArtifact{}
	ok, err = s.loadFile(TurnoverFile, turnover)
	if err != nil {
		return err
	}
	if ok {
		bundle.Turnover = turnover
	} else {
		bundle.Turnover = DefaultTurnover()
	}

	bundle.Version = fmt.Sprintf("%s/%s/%s",
		bundle.Ensemble.Version, bundle.Text.Version, bundle.Turnover.Version)

	s.current.Store(bundle)
	return nil
}

// loadFile decodes one artifact file; returns false when the file is absent.
func (s *Store) loadFile(name string, out any) (bool, error) {
	path := filepath.Join(s.dir, name)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return false, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("failed to open artifact %s: %w", name, err)
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(out); err != nil {
		return false, fmt.Errorf("failed to decode artifact %s: %w", name, err)
	}
	return true, nil
}

// Save writes an artifact value as pretty JSON, used by offline training
// tooling to publish a new bundle before a hot reload.
func (s *Store) Save(name string, artifact any) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create artifact directory: %w", err)
	}

	f, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return fmt.Errorf("failed to create artifact %s: %w", name, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(artifact); err != nil {
		return fmt.Errorf("failed to encode artifact %s: %w", name, err)
	}
	return nil
}
