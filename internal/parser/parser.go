package parser

import "vtr/internal/domain"

// Parser extracts error locations from test runner output
type Parser interface {
	ParseLocations(output, root string) []domain.ErrorLocation
	ParseCounts(result domain.RunResult) (passed, failed int)
}
