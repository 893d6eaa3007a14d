// Package corpus knows the on-disk layout shared with the grammar extractor
// and the replay driver: one directory per target package holding the
// grammar and one line-delimited input file per seed.
package corpus

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"covgram/internal/coverage"
	"covgram/internal/grammar"
)

const (
	GrammarFile     = "grammar.txt"
	WordGrammarFile = "grammarWithCoverage.txt"
)

// Layout addresses one package directory under an inputs root.
type Layout struct {
	Root    string
	Package string
	Mode    coverage.Mode
}

func (l Layout) Dir() string {
	return filepath.Join(l.Root, l.Package)
}

// GrammarPath is grammar.txt in terminal mode and grammarWithCoverage.txt in
// word mode.
func (l Layout) GrammarPath() string {
	if l.Mode == coverage.ModeWord {
		return filepath.Join(l.Dir(), WordGrammarFile)
	}
	return filepath.Join(l.Dir(), GrammarFile)
}

// InputsPath names the output of seed: inputsNN.txt or coverageInputsNN.txt.
func (l Layout) InputsPath(seed int) string {
	prefix := "inputs"
	if l.Mode == coverage.ModeWord {
		prefix = "coverageInputs"
	}
	return filepath.Join(l.Dir(), fmt.Sprintf("%s%02d.txt", prefix, seed))
}

// LoadRules decodes the package grammar.
func (l Layout) LoadRules() (grammar.Rules, error) {
	return grammar.ReadFile(l.GrammarPath())
}

var inputsRE = regexp.MustCompile(`^(inputs|coverageInputs)(\d{2,})\.txt$`)

// Existing lists the seed files of this layout's mode, sorted by name.
func (l Layout) Existing() ([]string, error) {
	entries, err := os.ReadDir(l.Dir())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	want := "inputs"
	if l.Mode == coverage.ModeWord {
		want = "coverageInputs"
	}
	var out []string
	for _, e := range entries {
		m := inputsRE.FindStringSubmatch(e.Name())
		if e.IsDir() || m == nil || m[1] != want {
			continue
		}
		out = append(out, filepath.Join(l.Dir(), e.Name()))
	}
	sort.Strings(out)
	return out, nil
}

// WriteInputs writes one input per line, replacing path atomically.
func WriteInputs(path string, inputs []string) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".inputs-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
		}
	}()

	w := bufio.NewWriter(f)
	for _, in := range inputs {
		if strings.ContainsAny(in, "\r\n") {
			return fmt.Errorf("corpus: input %q spans lines", in)
		}
		if _, err = w.WriteString(in); err != nil {
			return err
		}
		if err = w.WriteByte('\n'); err != nil {
			return err
		}
	}
	if err = w.Flush(); err != nil {
		return err
	}
	// CreateTemp makes the file 0600.
	if err = f.Chmod(0o644); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), path)
}

// ReadInputs reads a seed file back. Blank lines are inputs too: an empty
// derivation is a valid input.
func ReadInputs(path string) ([]string, error) {
	// #nosec G304 -- path is built from the operator's inputs root
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n"), nil
}
