package storage

import (
	"vtr/internal/config"
	"vtr/internal/domain"
)

// Storage persists and loads the last run record (e.g. for rerun and the errors viewer).
type Storage interface {
	Save(run *domain.LastRun) error
	// Load returns an error wrapping os.ErrNotExist when nothing was recorded yet.
	Load() (*domain.LastRun, error)
}

// JSONStorage stores the last run in a JSON file under the project's state directory.
type JSONStorage struct {
	cfg *config.Config
}

// NewJSONStorage returns a Storage that reads/writes the config's state path.
// The path is resolved on every call, after the project root is known.
func NewJSONStorage(cfg *config.Config) *JSONStorage {
	return &JSONStorage{cfg: cfg}
}
