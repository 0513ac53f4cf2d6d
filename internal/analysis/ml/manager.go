package ml

import (
	"errors"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// ErrModelUnavailable means a prediction was requested before any
// trained model exists on disk. Handlers map it to 503.
var ErrModelUnavailable = errors.New("model not trained yet, run the analytics pipeline first")

// Manager caches trained predictors loaded from disk. Loads are lazy;
// Reload swaps the cache after a pipeline run without a restart.
type Manager struct {
	dir string

	mu       sync.RWMutex
	recovery *Predictor
	sleep    *Predictor
	factor   *Predictor
}

func NewManager(dir string) *Manager {
	return &Manager{dir: dir}
}

// Recovery returns the cached recovery predictor, loading it on first
// use.
func (m *Manager) Recovery() (*Predictor, error) {
	return m.get(&m.recovery, RecoveryModelFile)
}

func (m *Manager) Sleep() (*Predictor, error) {
	return m.get(&m.sleep, SleepModelFile)
}

func (m *Manager) Factor() (*Predictor, error) {
	return m.get(&m.factor, FactorModelFile)
}

func (m *Manager) get(slot **Predictor, file string) (*Predictor, error) {
	m.mu.RLock()
	if p := *slot; p != nil {
		m.mu.RUnlock()
		return p, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	if p := *slot; p != nil {
		return p, nil
	}
	p, err := LoadModel(m.dir, file)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrModelUnavailable
		}
		return nil, err
	}
	*slot = p
	return p, nil
}

// Reload drops the cache so the next access reads fresh model files.
func (m *Manager) Reload() {
	m.mu.Lock()
	m.recovery, m.sleep, m.factor = nil, nil, nil
	m.mu.Unlock()
	log.Printf("model cache cleared, reloading from %s on next use", m.dir)
}

// ModelsExist reports whether every model file is present on disk.
func (m *Manager) ModelsExist() bool {
	for _, file := range []string{RecoveryModelFile, SleepModelFile, FactorModelFile} {
		if _, err := os.Stat(filepath.Join(m.dir, file)); err != nil {
			return false
		}
	}
	return true
}
