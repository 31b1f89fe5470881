package ui

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"vtr/internal/config"
	"vtr/internal/domain"
)

func TestEditorCommand(t *testing.T) {
	loc := domain.ErrorLocation{File: "/repo/src/a.test.ts", Line: 12, Column: 5}

	tests := []struct {
		name   string
		visual string
		editor string
		want   []string
	}{
		{"fallback to vi", "", "", []string{"vi", "+12", "/repo/src/a.test.ts"}},
		{"EDITOR with arguments", "", "emacsclient -n", []string{"emacsclient", "-n", "+12", "/repo/src/a.test.ts"}},
		{"VISUAL wins", "nvim", "nano", []string{"nvim", "+12", "/repo/src/a.test.ts"}},
		{"vscode goto", "", "/usr/local/bin/code --wait", []string{"/usr/local/bin/code", "--wait", "--goto", "/repo/src/a.test.ts:12:5"}},
		{"unbalanced quotes fall back", "'vim", "", []string{"vi", "+12", "/repo/src/a.test.ts"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EditorCommand(tt.visual, tt.editor, loc))
		})
	}
}

func TestSourceSnippet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.test.ts")
	lines := []string{
		"import { it } from 'vitest'",
		"",
		"it('reads [config]', () => {",
		"\texpect(load()).toBe(1)",
		"})",
	}
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0644))

	t.Run("marks the line and column", func(t *testing.T) {
		snippet, err := SourceSnippet(path, 4, 2, 1)
		require.NoError(t, err)

		assert.Equal(t,
			"[gray]  3 |[white] it('reads [config[]', () => {\n"+
				"[red]> 4 |[white]     expect(load()).toBe(1)\n"+
				"    | [red]    ^[white]\n"+
				"[gray]  5 |[white] })\n",
			snippet)
	})

	t.Run("context clipped at file start", func(t *testing.T) {
		snippet, err := SourceSnippet(path, 1, 0, 2)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(snippet, "[red]> 1 |"))
		assert.NotContains(t, snippet, "^")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := SourceSnippet(filepath.Join(t.TempDir(), "gone.ts"), 1, 1, 1)
		assert.Error(t, err)
	})
}

type recordingStorage struct {
	saved []bool
	err   error
}

func (s *recordingStorage) Save(run *domain.LastRun) error {
	if s.err != nil {
		return s.err
	}
	s.saved = append(s.saved, run.Locations[0].Resolved)
	return nil
}

func (s *recordingStorage) Load() (*domain.LastRun, error) {
	return nil, os.ErrNotExist
}

func TestErrorViewer_ToggleResolved(t *testing.T) {
	newRun := func() *domain.LastRun {
		return &domain.LastRun{Locations: []domain.ErrorLocation{{File: "/repo/a.test.ts", Line: 3, Column: 7}}}
	}

	t.Run("saves each toggle", func(t *testing.T) {
		st := &recordingStorage{}
		viewer := NewErrorViewer(config.New(), st, zap.NewNop())
		run := newRun()

		require.NoError(t, viewer.ToggleResolved(run, 0))
		require.NoError(t, viewer.ToggleResolved(run, 0))
		assert.Equal(t, []bool{true, false}, st.saved)
		assert.False(t, run.Locations[0].Resolved)
	})

	t.Run("reports a failed save", func(t *testing.T) {
		diskFull := errors.New("no space left on device")
		core, logs := observer.New(zap.ErrorLevel)
		viewer := NewErrorViewer(config.New(), &recordingStorage{err: diskFull}, zap.New(core))
		run := newRun()

		err := viewer.ToggleResolved(run, 0)
		assert.ErrorIs(t, err, diskFull)
		assert.True(t, run.Locations[0].Resolved)
		require.Equal(t, 1, logs.Len())
		assert.Equal(t, "/repo/a.test.ts:3:7", logs.All()[0].ContextMap()["location"])
	})

	t.Run("ignores an index out of range", func(t *testing.T) {
		st := &recordingStorage{}
		viewer := NewErrorViewer(config.New(), st, zap.NewNop())

		assert.NoError(t, viewer.ToggleResolved(newRun(), 5))
		assert.Empty(t, st.saved)
	})
}
