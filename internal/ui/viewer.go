package ui

import "vtr/internal/domain"

// Viewer displays the error locations of a run
type Viewer interface {
	View(run *domain.LastRun) error
}
