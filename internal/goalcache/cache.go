// Package goalcache stores computed coverage goals on disk, keyed by grammar
// digest and coverage mode, so repeated runs over the same grammar skip the
// reachability walk.
package goalcache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"covgram/internal/coverage"
	"covgram/internal/grammar"
)

// Bump when Payload changes shape.
const schemaVersion uint16 = 1

// Cache is a directory of msgpack payloads. Safe for concurrent use.
type Cache struct {
	mu  sync.RWMutex
	dir string
}

// Payload is the stored form of one goal.
type Payload struct {
	Schema  uint16
	Digest  grammar.Digest
	Mode    uint8
	Depth   int
	Units   []string
	Created time.Time
}

// Open returns the cache under $XDG_CACHE_HOME/app (or ~/.cache/app).
func Open(app string) (*Cache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	return OpenDir(filepath.Join(base, app))
}

// OpenDir returns a cache rooted at dir, creating it if needed.
func OpenDir(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Cache{dir: dir}, nil
}

func (c *Cache) Dir() string {
	return c.dir
}

// Key identifies the goal of g under mode.
func Key(g *grammar.Grammar, mode coverage.Mode) grammar.Digest {
	return grammar.Combine(g.Digest(), []byte{byte(schemaVersion), byte(mode)})
}

func (c *Cache) pathFor(key grammar.Digest) string {
	return filepath.Join(c.dir, "goals", key.Hex()+".mp")
}

// Put writes payload under key, replacing any previous entry atomically.
func (c *Cache) Put(key grammar.Digest, payload *Payload) (err error) {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
		}
	}()

	if err = msgpack.NewEncoder(f).Encode(payload); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), p)
}

// Get reads the payload stored under key. A missing entry is (false, nil).
func (c *Cache) Get(key grammar.Digest, out *Payload) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	// #nosec G304 -- path is derived from a hex digest inside the cache dir
	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer func() {
		_ = f.Close()
	}()
	if err := msgpack.NewDecoder(f).Decode(out); err != nil {
		return false, fmt.Errorf("goalcache: %s: %w", key.Hex(), err)
	}
	return true, nil
}

// Lookup returns the cached goal of g under mode. Entries from another
// schema or grammar are treated as misses.
func (c *Cache) Lookup(g *grammar.Grammar, mode coverage.Mode) (coverage.Set, bool, error) {
	key := Key(g, mode)
	var p Payload
	ok, err := c.Get(key, &p)
	if err != nil || !ok {
		return nil, false, err
	}
	if p.Schema != schemaVersion || p.Digest != g.Digest() || p.Mode != uint8(mode) {
		return nil, false, nil
	}
	units := make([]coverage.Unit, len(p.Units))
	for i, u := range p.Units {
		units[i] = coverage.Unit(u)
	}
	return coverage.NewSet(units...), true, nil
}

// Store records goal for g under mode.
func (c *Cache) Store(g *grammar.Grammar, mode coverage.Mode, goal coverage.Set) error {
	return c.Put(Key(g, mode), &Payload{
		Schema:  schemaVersion,
		Digest:  g.Digest(),
		Mode:    uint8(mode),
		Depth:   g.Len(),
		Units:   goal.Strings(),
		Created: time.Now().UTC(),
	})
}

// DropAll removes every entry.
func (c *Cache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := os.RemoveAll(old); err != nil {
		return err
	}
	return os.MkdirAll(c.dir, 0o755)
}
