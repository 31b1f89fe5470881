package cli

import "vtr/internal/config"

// Flags holds command-line flags
type Flags struct {
	Debug         bool
	Verbose       bool
	NpxOptions    []string
	RunnerOptions []string
	Template      string
	Line          int
	Offset        int
	TestPath      string
	NameFilter    string
	Units         bool
	Plain         bool
}

// ToConfigFlags converts CLI flags to config flags
func (f *Flags) ToConfigFlags() config.Flags {
	return config.Flags{
		Debug:         f.Debug,
		Verbose:       f.Verbose,
		NpxOptions:    f.NpxOptions,
		RunnerOptions: f.RunnerOptions,
		Template:      f.Template,
		Line:          f.Line,
		Offset:        f.Offset,
		TestPath:      f.TestPath,
		NameFilter:    f.NameFilter,
		Units:         f.Units,
		Plain:         f.Plain,
	}
}
