package discovery

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vtr/internal/domain"
)

const sampleSuite = `import { describe, it, expect } from 'vitest'

describe('Calculator', () => {
  it('adds numbers', () => {
    expect(add(1, 2)).toBe(3)
  })

  it.only("subtracts numbers", () => {
    expect(sub(3, 2)).toBe(1)
  })

  describe.skip(` + "`edge cases`" + `, () => {
    test('divides by zero', () => {
      expect(() => div(1, 0)).toThrow()
    })
  })
})
`

func TestParser_LocateUnit(t *testing.T) {
	parser := NewParser()

	offsetOf := func(t *testing.T, needle string) int {
		t.Helper()
		i := strings.Index(sampleSuite, needle)
		require.GreaterOrEqual(t, i, 0, "needle %q not in sample", needle)
		return i
	}

	tests := []struct {
		name     string
		needle   string
		kind     domain.DeclarationKind
		modifier string
		want     string
	}{
		{"inside first it", "expect(add", domain.KindIt, "", "adds numbers"},
		{"on the declaration line itself", "it('adds", domain.KindIt, "", "adds numbers"},
		{"double quoted with accessor", "expect(sub", domain.KindIt, "only", "subtracts numbers"},
		{"template literal describe", "test('divides", domain.KindTest, "", "divides by zero"},
		{"after nested block closes", "  })\n})\n", domain.KindTest, "", "divides by zero"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decl, err := parser.LocateUnit(sampleSuite, offsetOf(t, tt.needle))
			require.NoError(t, err)
			assert.Equal(t, tt.kind, decl.Kind)
			assert.Equal(t, tt.modifier, decl.Modifier)
			assert.Equal(t, tt.want, decl.Name)
		})
	}
}

func TestParser_LocateUnit_EscapedQuotes(t *testing.T) {
	tests := []struct {
		name string
		decl string
		want string
	}{
		{"escaped single quote", `it('doesn\'t crash', () => {`, `doesn\'t crash`},
		{"escaped double quote", `it("says \"hi\"", () => {`, `says \"hi\"`},
		{"double quote inside single quotes", `test('says "hi"', () => {`, `says "hi"`},
		{"single quote inside double quotes", `it("doesn't crash", () => {`, `doesn't crash`},
		{"escaped backtick", "it(`uses \\`ticks`, () => {", "uses \\`ticks"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := "describe('Suite', () => {\n  it('first', () => {})\n  " + tt.decl + "\n    x()\n  })\n})\n"

			decl, err := NewParser().LocateUnit(text, strings.Index(text, "x()"))
			require.NoError(t, err)
			assert.Equal(t, tt.want, decl.Name)
			assert.Equal(t, 3, decl.Line)
		})
	}
}

func TestParser_LocateUnit_InnermostOnOneLine(t *testing.T) {
	text := "describe('Foo', () => { it('does X', () => {\n\n}) })\n"
	cursor := strings.Index(text, "\n") + 1

	decl, err := NewParser().LocateUnit(text, cursor)
	require.NoError(t, err)
	assert.Equal(t, "does X", decl.Name)
	assert.Equal(t, domain.KindIt, decl.Kind)
	assert.Equal(t, 1, decl.Line)
}

func TestParser_LocateUnit_NotFound(t *testing.T) {
	parser := NewParser()

	t.Run("cursor before any declaration", func(t *testing.T) {
		_, err := parser.LocateUnit(sampleSuite, 0)
		assert.ErrorIs(t, err, ErrNoDeclaration)
	})

	t.Run("empty text", func(t *testing.T) {
		_, err := parser.LocateUnit("", 10)
		assert.ErrorIs(t, err, ErrNoDeclaration)
	})

	t.Run("identifiers ending in it are not declarations", func(t *testing.T) {
		_, err := parser.LocateUnit("submit('form', () => {})\nobj.test('x', y)\n", 40)
		assert.ErrorIs(t, err, ErrNoDeclaration)
	})
}

func TestParser_LocateUnit_ClampsOffset(t *testing.T) {
	parser := NewParser()

	decl, err := parser.LocateUnit(sampleSuite, len(sampleSuite)+100)
	require.NoError(t, err)
	assert.Equal(t, "divides by zero", decl.Name)

	_, err = parser.LocateUnit(sampleSuite, -5)
	assert.ErrorIs(t, err, ErrNoDeclaration)
}

func TestParser_FindDeclarations(t *testing.T) {
	parser := NewParser()

	testFile := filepath.Join(t.TempDir(), "calc.test.ts")
	require.NoError(t, os.WriteFile(testFile, []byte(sampleSuite), 0644))

	t.Run("finds declarations in order", func(t *testing.T) {
		decls, err := parser.FindDeclarations(testFile)
		require.NoError(t, err)

		var names []string
		var lines []int
		for _, d := range decls {
			names = append(names, d.Name)
			lines = append(lines, d.Line)
		}
		assert.Equal(t, []string{"Calculator", "adds numbers", "subtracts numbers", "edge cases", "divides by zero"}, names)
		assert.Equal(t, []int{3, 4, 8, 12, 13}, lines)
	})

	t.Run("returns error for non-existent file", func(t *testing.T) {
		_, err := parser.FindDeclarations("/non/existent/file.test.ts")
		assert.Error(t, err)
	})
}

func TestOffsetForLine(t *testing.T) {
	text := "a\nbb\nccc"

	assert.Equal(t, 0, OffsetForLine(text, 0))
	assert.Equal(t, 0, OffsetForLine(text, 1))
	assert.Equal(t, 2, OffsetForLine(text, 2))
	assert.Equal(t, 5, OffsetForLine(text, 3))
	assert.Equal(t, len(text), OffsetForLine(text, 10))
}
