package corpus

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"covgram/internal/coverage"
)

func TestLayoutPaths(t *testing.T) {
	term := Layout{Root: "in", Package: "org.app", Mode: coverage.ModeTerminal}
	require.Equal(t, filepath.Join("in", "org.app", "grammar.txt"), term.GrammarPath())
	require.Equal(t, filepath.Join("in", "org.app", "inputs03.txt"), term.InputsPath(3))

	word := Layout{Root: "in", Package: "org.app", Mode: coverage.ModeWord}
	require.Equal(t, filepath.Join("in", "org.app", "grammarWithCoverage.txt"), word.GrammarPath())
	require.Equal(t, filepath.Join("in", "org.app", "coverageInputs12.txt"), word.InputsPath(12))
}

func TestWriteReadInputs(t *testing.T) {
	dir := t.TempDir()
	l := Layout{Root: dir, Package: "pkg"}

	inputs := []string{"1+2", "", "(3)"}
	require.NoError(t, WriteInputs(l.InputsPath(0), inputs))
	require.NoError(t, WriteInputs(l.InputsPath(1), []string{"x"}))
	require.NoError(t, WriteInputs(Layout{Root: dir, Package: "pkg", Mode: coverage.ModeWord}.InputsPath(0), nil))

	got, err := ReadInputs(l.InputsPath(0))
	require.NoError(t, err)
	require.Equal(t, inputs, got)

	files, err := l.Existing()
	require.NoError(t, err)
	require.Len(t, files, 2)

	entries, err := os.ReadDir(l.Dir())
	require.NoError(t, err)
	require.Len(t, entries, 3, "no temp files left behind")

	require.Error(t, WriteInputs(l.InputsPath(2), []string{"a\nb"}))
}

func TestWriteInputsIsWorldReadable(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permissions")
	}
	path := Layout{Root: t.TempDir(), Package: "pkg"}.InputsPath(0)
	require.NoError(t, WriteInputs(path, []string{"a"}))
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o644), info.Mode().Perm())
}

func TestLoadRules(t *testing.T) {
	dir := t.TempDir()
	l := Layout{Root: dir, Package: "pkg"}
	require.NoError(t, os.MkdirAll(l.Dir(), 0o755))
	require.NoError(t, os.WriteFile(l.GrammarPath(), []byte(`{"<start>": ["<d>"], "<d>": ["0", "1"]}`), 0o600))

	rules, err := l.LoadRules()
	require.NoError(t, err)
	require.Equal(t, []string{"0", "1"}, rules["<d>"])

	_, err = Layout{Root: dir, Package: "missing"}.LoadRules()
	require.Error(t, err)
}
