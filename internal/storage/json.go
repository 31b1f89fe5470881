package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"vtr/internal/domain"
)

// Save writes the run record to the configured JSON file.
func (s *JSONStorage) Save(run *domain.LastRun) error {
	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal last run: %w", err)
	}

	path := s.cfg.GetStatePath()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	// Write then rename so a reader never sees a half-written record
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write last run: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace last run: %w", err)
	}
	return nil
}

// Load reads the last run record from the configured JSON file.
func (s *JSONStorage) Load() (*domain.LastRun, error) {
	data, err := os.ReadFile(s.cfg.GetStatePath())
	if err != nil {
		return nil, fmt.Errorf("read last run: %w", err)
	}
	var run domain.LastRun
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("parse last run: %w", err)
	}
	return &run, nil
}
