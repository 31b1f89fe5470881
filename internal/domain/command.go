package domain

// CommandSpec is the input to the command builder. It is immutable once built
// and consumed exactly once.
type CommandSpec struct {
	NpxOptions    []string // Options for the npx launcher
	RunnerOptions []string // Options for the test runner itself
	Target        string   // Test file; empty runs the whole suite
}

// Command is a built test runner invocation
type Command struct {
	Dir  string   `json:"dir"`  // Working directory (project root)
	Line string   `json:"line"` // Rendered command template
	Args []string `json:"args"` // Argument vector handed to the process launcher
}

// String returns the rendered command line
func (c Command) String() string {
	return c.Line
}

// Empty reports whether there is nothing to execute
func (c Command) Empty() bool {
	return len(c.Args) == 0
}
