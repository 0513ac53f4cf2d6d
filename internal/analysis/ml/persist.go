package ml

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Model file names under the models directory.
const (
	RecoveryModelFile = "recovery_predictor.json"
	SleepModelFile    = "sleep_predictor.json"
	FactorModelFile   = "factor_analyzer.json"
)

// SaveModel writes a predictor as JSON, creating the directory first.
func SaveModel(dir, file string, p *Predictor) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create models dir: %w", err)
	}
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal model %s: %w", file, err)
	}
	path := filepath.Join(dir, file)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write model %s: %w", path, err)
	}
	return nil
}

// LoadModel reads a persisted predictor.
func LoadModel(dir, file string) (*Predictor, error) {
	path := filepath.Join(dir, file)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model %s: %w", path, err)
	}
	var p Predictor
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse model %s: %w", path, err)
	}
	return &p, nil
}
