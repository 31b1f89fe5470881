package execution

import (
	"context"

	"vtr/internal/domain"
)

// ProcessRunner launches a built command, streams its output line by line
// and reports the exit code
type ProcessRunner interface {
	Run(ctx context.Context, cmd domain.Command, onLine func(line string)) (domain.RunResult, error)
}
