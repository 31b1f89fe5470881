package config

import "time"

const (
	// DefaultManifestFile marks a project root
	DefaultManifestFile = "package.json"
	// DefaultCommandTemplate takes npx options, runner options and the target, in that order
	DefaultCommandTemplate = "npx %s vite %s %s"
	// DefaultUnitFilterOption is passed before the test name when running a single unit
	DefaultUnitFilterOption = "-t"
	// DefaultConfigFile is the optional per-project config file
	DefaultConfigFile = ".vtr.yaml"
	// DefaultEnvFile is loaded from the project root
	DefaultEnvFile = ".env"
	// DefaultStateDir holds the last run record
	DefaultStateDir = ".vtr"
	// DefaultStateFile is the last run record file name
	DefaultStateFile = "last-run.json"
	// DefaultParseWorkers bounds concurrent declaration parsing in list
	DefaultParseWorkers = 4
	// DefaultWatchDebounce is the quiet period before watch reruns
	DefaultWatchDebounce = 300 * time.Millisecond
)

// DefaultNpxOptions are passed to npx
var DefaultNpxOptions = []string{}

// DefaultRunnerOptions are passed to the test runner
var DefaultRunnerOptions = []string{"--color"}

// DefaultDebugRunnerOptions are appended in debug mode: debugger attach, then
// synchronous execution
var DefaultDebugRunnerOptions = []string{"--inspect-brk", "--no-file-parallelism"}

// DefaultPathsToIgnore are the directories skipped when scanning and watching
var DefaultPathsToIgnore = []string{
	"node_modules",
	"dist",
	"coverage",
	"build",
}
