package domain

// DeclarationKind is the function used to declare a test block
type DeclarationKind string

const (
	KindIt       DeclarationKind = "it"
	KindTest     DeclarationKind = "test"
	KindDescribe DeclarationKind = "describe"
)

// TestDeclaration is a test block found in source text
type TestDeclaration struct {
	Kind     DeclarationKind // it, test or describe
	Modifier string          // Accessor such as "only" or "skip", empty when absent
	Name     string          // Test name with the surrounding quotes stripped
	Line     int             // 1-based line of the declaration
	Offset   int             // Byte offset of the declaration keyword
}

// TestFile represents a discovered test file
type TestFile struct {
	Path         string            // Full path to the test file
	RelPath      string            // Path relative to the project root
	Declarations []TestDeclaration // Filled only when declarations were requested
}
