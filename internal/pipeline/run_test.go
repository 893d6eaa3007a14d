package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"covgram/internal/corpus"
	"covgram/internal/coverage"
	"covgram/internal/diag"
	"covgram/internal/goalcache"
	"covgram/internal/observ"
	"covgram/internal/session"
)

func writeGrammar(t *testing.T, l corpus.Layout, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(l.Dir(), 0o755))
	require.NoError(t, os.WriteFile(l.GrammarPath(), []byte(body), 0o600))
}

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) OnEvent(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) count(stage Stage, status Status) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, ev := range r.events {
		if ev.Seed >= 0 && ev.Stage == stage && ev.Status == status {
			n++
		}
	}
	return n
}

func TestRunWritesSeedFiles(t *testing.T) {
	root := t.TempDir()
	l := corpus.Layout{Root: root, Package: "org.example", Mode: coverage.ModeWord}
	writeGrammar(t, l, `{"<start>": ["<act>"], "<act>": ["click button", "swipe left"]}`)

	cache, err := goalcache.OpenDir(filepath.Join(root, "cache"))
	require.NoError(t, err)
	rec := &recorder{}
	req := &Request{
		Layout:   l,
		Seeds:    3,
		Jobs:     2,
		Session:  session.DefaultOptions(),
		Cache:    cache,
		Progress: rec,
		Timer:    observ.NewTimer(),
	}

	res, err := Run(context.Background(), req)
	require.NoError(t, err)
	require.False(t, res.GoalCached)
	require.Equal(t, coverage.NewSet("click", "button", "swipe", "left"), res.Goal)
	require.Len(t, res.Seeds, 3)
	require.Equal(t, 0, res.Stagnated())
	require.Equal(t, 3, rec.count(StageGenerate, StatusDone))

	for i, s := range res.Seeds {
		require.Equal(t, l.InputsPath(i), s.Path)
		lines, err := corpus.ReadInputs(s.Path)
		require.NoError(t, err)
		require.ElementsMatch(t, []string{"click button", "swipe left"}, lines)
	}

	res, err = Run(context.Background(), req)
	require.NoError(t, err)
	require.True(t, res.GoalCached)
}

func TestRunDryRun(t *testing.T) {
	root := t.TempDir()
	l := corpus.Layout{Root: root, Package: "pkg"}
	writeGrammar(t, l, `{"<start>": ["<d>"], "<d>": ["0", "1"]}`)

	res, err := Run(context.Background(), &Request{Layout: l, Seeds: 2, Session: session.DefaultOptions(), DryRun: true})
	require.NoError(t, err)
	require.Len(t, res.Seeds, 2)
	files, err := l.Existing()
	require.NoError(t, err)
	require.Empty(t, files)
}

func TestRunRejectsMalformedGrammar(t *testing.T) {
	root := t.TempDir()
	l := corpus.Layout{Root: root, Package: "pkg"}
	writeGrammar(t, l, `{"<start>": ["a<x>b"]}`)

	res, err := Run(context.Background(), &Request{Layout: l, Seeds: 1, Session: session.DefaultOptions()})
	var malformed *coverage.MalformedProductionError
	require.ErrorAs(t, err, &malformed)
	require.True(t, res.Bag.HasErrors())
	require.NotNil(t, res.Bag.First(diag.GramMalformedProduction))
}

func TestRunMissingGrammar(t *testing.T) {
	res, err := Run(context.Background(), &Request{
		Layout:  corpus.Layout{Root: t.TempDir(), Package: "none"},
		Seeds:   1,
		Session: session.DefaultOptions(),
	})
	require.Error(t, err)
	require.NotNil(t, res.Bag.First(diag.IOLoadFileError))
}

func TestRunValidatesSeeds(t *testing.T) {
	_, err := Run(context.Background(), &Request{Seeds: 0})
	require.Error(t, err)
	_, err = Run(context.Background(), nil)
	require.Error(t, err)
}
