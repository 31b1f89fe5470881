package discovery

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"vtr/internal/domain"
)

// ErrNoDeclaration is returned when no test declaration precedes the cursor
var ErrNoDeclaration = errors.New("no test declaration found")

// declarationPattern matches it/test/describe calls whose first argument is a
// string literal, escaped quotes included. Groups: 1 kind, 2 accessor (".only"),
// 3 argument, 4 quoted name.
// A declaration may start a line or follow a non-identifier character, so
// several declarations written on one line are all found.
var declarationPattern = regexp.MustCompile(
	`(?m)(?:^|[^\w$.])[ \t]*(it|test|describe)(\.[A-Za-z_$][\w$]*)?\(` +
		`(\s*('(?:[^'\\\n]|\\.)*'|"(?:[^"\\\n]|\\.)*"|` + "`(?:[^`\\\\]|\\\\[\\s\\S])*`" + `)\s*),`,
)

// Parser parses test files to extract test declarations
type Parser struct{}

// NewParser creates a new Parser
func NewParser() *Parser {
	return &Parser{}
}

// FindDeclarations finds all test declarations in a test file, in source order
func (p *Parser) FindDeclarations(filePath string) ([]domain.TestDeclaration, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("error reading file %s: %w", filePath, err)
	}

	text := string(content)
	var declarations []domain.TestDeclaration
	for _, m := range declarationPattern.FindAllStringSubmatchIndex(text, -1) {
		declarations = append(declarations, declarationAt(text, m))
	}
	return declarations, nil
}

// LocateUnit scans backward from the end of the line holding offset and
// returns the nearest declaration. It does not balance braces, so a closed
// sibling block above the cursor can be reported instead of the enclosing one.
func (p *Parser) LocateUnit(text string, offset int) (domain.TestDeclaration, error) {
	offset = max(0, min(offset, len(text)))

	end := len(text)
	if i := strings.IndexByte(text[offset:], '\n'); i >= 0 {
		end = offset + i
	}

	matches := declarationPattern.FindAllStringSubmatchIndex(text[:end], -1)
	if len(matches) == 0 {
		return domain.TestDeclaration{}, ErrNoDeclaration
	}
	return declarationAt(text, matches[len(matches)-1]), nil
}

// OffsetForLine returns the byte offset where the 1-based line starts
func OffsetForLine(text string, line int) int {
	offset := 0
	for n := 1; n < line; n++ {
		i := strings.IndexByte(text[offset:], '\n')
		if i < 0 {
			return len(text)
		}
		offset += i + 1
	}
	return offset
}

func declarationAt(text string, m []int) domain.TestDeclaration {
	decl := domain.TestDeclaration{
		Kind:   domain.DeclarationKind(text[m[2]:m[3]]),
		Offset: m[2],
		Line:   strings.Count(text[:m[2]], "\n") + 1,
	}
	if m[4] >= 0 {
		decl.Modifier = strings.TrimPrefix(text[m[4]:m[5]], ".")
	}
	// Strip one character from each side: the quotes
	quoted := text[m[8]:m[9]]
	decl.Name = quoted[1 : len(quoted)-1]
	return decl
}
