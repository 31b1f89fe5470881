package execution

import (
	"errors"
	"os"
	"sync"

	"go.uber.org/zap"

	"vtr/internal/domain"
	"vtr/internal/storage"
)

// ErrNoLastCommand is returned by rerun when nothing has been run yet
var ErrNoLastCommand = errors.New("no previous test command")

// Session holds the most recently executed command. The orchestrator is its
// only writer. Every write is persisted so a later process can rerun it.
type Session struct {
	mu      sync.Mutex
	last    *domain.LastRun
	storage storage.Storage
	logger  *zap.Logger
}

// NewSession creates a new Session backed by st
func NewSession(st storage.Storage, logger *zap.Logger) *Session {
	return &Session{storage: st, logger: logger}
}

// Record stores run as the latest one
func (s *Session) Record(run *domain.LastRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.last = run
	if err := s.storage.Save(run); err != nil {
		return err
	}
	s.logger.Debug("recorded last command", zap.String("command", run.Command.Line))
	return nil
}

// Last returns the latest run, loading it from storage when this process has
// not run anything yet
func (s *Session) Last() (*domain.LastRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.last != nil {
		return s.last, nil
	}

	run, err := s.storage.Load()
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoLastCommand
	}
	if err != nil {
		return nil, err
	}
	if run.Command.Empty() {
		return nil, ErrNoLastCommand
	}
	s.last = run
	return run, nil
}
