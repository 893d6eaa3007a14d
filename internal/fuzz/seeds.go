package fuzztests

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

const maxSeedBytes = 64 << 10

var builtinSeeds = []string{
	`{}`,
	`{"<start>": []}`,
	`{"<start>": ["a"]}`,
	`{"<start>": ["<a>"], "<a>": ["<a>a", ""]}`,
	`{"<start>": ["<a>"], "<a>": ["<b>", "a"], "<b>": ["b"]}`,
	`{"<start>": ["<x>b<y>"], "<x>": ["x"], "<y>": ["y"]}`,
	`{"<start>": ["<missing>"]}`,
	`{"<start>": ["<start>"]}`,
	`{"<start>": ["<empty>", "<start>x"]}`,
}

func addCorpusSeeds(f *testing.F) {
	for _, s := range builtinSeeds {
		f.Add([]byte(s))
	}
	f.Add(chainSeed(420))
	addTestdataSeeds(f)
}

// chainSeed is a linear grammar <s0> -> a0<s1> -> ... -> a{n-1}, the shape
// extracted from a single recorded exploration trace.
func chainSeed(n int) []byte {
	var buf bytes.Buffer
	buf.WriteString(`{"<start>": ["<s0>"]`)
	for i := range n - 1 {
		fmt.Fprintf(&buf, `, "<s%d>": ["a%d<s%d>"]`, i, i, i+1)
	}
	fmt.Fprintf(&buf, `, "<s%d>": ["a%d"]}`, n-1, n-1)
	return buf.Bytes()
}

func addTestdataSeeds(f *testing.F) {
	root := filepath.Join("..", "..", "testdata", "grammars")
	if _, err := os.Stat(root); err != nil {
		return
	}
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil || d.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}
		// #nosec G304 -- path comes from repository testdata walk
		src, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		f.Add(clampSeed(src))
		return nil
	})
}

func clampSeed(src []byte) []byte {
	if len(src) <= maxSeedBytes {
		return append([]byte(nil), src...)
	}
	return append([]byte(nil), src[:maxSeedBytes]...)
}
