package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"fortio.org/safecast"
	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"covgram/internal/coverage"
	"covgram/internal/derive"
	"covgram/internal/session"
)

const manifestName = "covgram.toml"

// Environment variables consulted below the manifest.
const (
	envInputsDir = "COVGRAM_INPUTS_DIR"
	envSeeds     = "COVGRAM_SEEDS"
	envMode      = "COVGRAM_MODE"
	envJobs      = "COVGRAM_JOBS"
)

type manifestConfig struct {
	Inputs   string         `toml:"inputs"`
	Package  string         `toml:"package"`
	Generate generateConfig `toml:"generate"`
}

type generateConfig struct {
	Seeds       int    `toml:"seeds"`
	SeedBase    int64  `toml:"seed_base"`
	Mode        string `toml:"mode"`
	Policy      string `toml:"policy"`
	TieBreak    string `toml:"tie_break"`
	Fallback    string `toml:"fallback"`
	Jobs        int    `toml:"jobs"`
	MinNonterm  int    `toml:"min_nonterminals"`
	MaxFrontier int    `toml:"max_frontier"`
	MaxNodes    int    `toml:"max_nodes"`
	CacheSize   int    `toml:"cache_size"`
	MaxAttempts int    `toml:"max_attempts"`
}

// settings is the merged configuration. Layers apply in order defaults,
// environment, manifest, flags; later layers win.
type settings struct {
	Manifest    string // path of the manifest that was applied, if any
	Inputs      string
	Package     string
	Seeds       int
	SeedBase    uint64
	Mode        string
	Policy      string
	TieBreak    string
	Fallback    string
	Jobs        int
	MinNonterm  int
	MaxFrontier int
	MaxNodes    int
	CacheSize   int
	MaxAttempts int
}

func defaultSettings() settings {
	tree := derive.DefaultOptions()
	return settings{
		Inputs:      "inputs",
		Seeds:       10,
		Mode:        coverage.ModeTerminal.String(),
		Policy:      derive.PolicyCoverage.String(),
		TieBreak:    derive.TieRandom.String(),
		Fallback:    derive.FallbackRandom.String(),
		MinNonterm:  tree.MinNonterminals,
		MaxFrontier: tree.MaxFrontier,
		MaxNodes:    tree.MaxNodes,
		CacheSize:   coverage.DefaultCacheSize,
	}
}

func findManifest(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, manifestName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

func loadManifest(path string) (manifestConfig, error) {
	var cfg manifestConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return manifestConfig{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return manifestConfig{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	// Relative inputs are anchored at the manifest, not the working directory.
	if cfg.Inputs != "" && !filepath.IsAbs(cfg.Inputs) {
		cfg.Inputs = filepath.Join(filepath.Dir(path), cfg.Inputs)
	}
	return cfg, nil
}

// loadDotEnv reads .env from dir if present. Existing variables win.
func loadDotEnv(dir string) error {
	envPath := filepath.Join(dir, ".env")
	if _, err := os.Stat(envPath); errors.Is(err, os.ErrNotExist) {
		return nil
	} else if err != nil {
		return fmt.Errorf("failed to check %s: %w", envPath, err)
	}
	if err := godotenv.Load(envPath); err != nil {
		return fmt.Errorf("could not load %s: %w", envPath, err)
	}
	return nil
}

func (s *settings) applyEnv(getenv func(string) string) error {
	if v := strings.TrimSpace(getenv(envInputsDir)); v != "" {
		s.Inputs = v
	}
	if v := strings.TrimSpace(getenv(envMode)); v != "" {
		s.Mode = v
	}
	if v := strings.TrimSpace(getenv(envSeeds)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", envSeeds, err)
		}
		s.Seeds = n
	}
	if v := strings.TrimSpace(getenv(envJobs)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", envJobs, err)
		}
		s.Jobs = n
	}
	return nil
}

func (s *settings) applyManifest(path string, cfg manifestConfig) error {
	s.Manifest = path
	setString(&s.Inputs, cfg.Inputs)
	setString(&s.Package, cfg.Package)
	g := cfg.Generate
	setString(&s.Mode, g.Mode)
	setString(&s.Policy, g.Policy)
	setString(&s.TieBreak, g.TieBreak)
	setString(&s.Fallback, g.Fallback)
	setInt(&s.Seeds, g.Seeds)
	setInt(&s.Jobs, g.Jobs)
	setInt(&s.MinNonterm, g.MinNonterm)
	setInt(&s.MaxFrontier, g.MaxFrontier)
	setInt(&s.MaxNodes, g.MaxNodes)
	setInt(&s.CacheSize, g.CacheSize)
	setInt(&s.MaxAttempts, g.MaxAttempts)
	if g.SeedBase != 0 {
		base, err := safecast.Conv[uint64](g.SeedBase)
		if err != nil {
			return fmt.Errorf("%s: seed_base: %w", path, err)
		}
		s.SeedBase = base
	}
	return nil
}

// applyFlags overrides settings with flags the user set explicitly. Commands
// register only the flags that make sense for them.
func (s *settings) applyFlags(cmd *cobra.Command) error {
	flags := cmd.Flags()
	strs := map[string]*string{
		"inputs":    &s.Inputs,
		"mode":      &s.Mode,
		"policy":    &s.Policy,
		"tie-break": &s.TieBreak,
		"fallback":  &s.Fallback,
	}
	for name, dst := range strs {
		if flags.Lookup(name) == nil || !flags.Changed(name) {
			continue
		}
		v, err := flags.GetString(name)
		if err != nil {
			return fmt.Errorf("failed to get %s flag: %w", name, err)
		}
		*dst = v
	}
	ints := map[string]*int{
		"seeds":            &s.Seeds,
		"jobs":             &s.Jobs,
		"min-nonterminals": &s.MinNonterm,
		"max-frontier":     &s.MaxFrontier,
		"max-nodes":        &s.MaxNodes,
		"cache-size":       &s.CacheSize,
		"max-attempts":     &s.MaxAttempts,
	}
	for name, dst := range ints {
		if flags.Lookup(name) == nil || !flags.Changed(name) {
			continue
		}
		v, err := flags.GetInt(name)
		if err != nil {
			return fmt.Errorf("failed to get %s flag: %w", name, err)
		}
		*dst = v
	}
	if flags.Lookup("seed-base") != nil && flags.Changed("seed-base") {
		v, err := flags.GetUint64("seed-base")
		if err != nil {
			return fmt.Errorf("failed to get seed-base flag: %w", err)
		}
		s.SeedBase = v
	}
	return nil
}

// resolveSettings merges every configuration layer for cmd.
func resolveSettings(cmd *cobra.Command, workDir string, getenv func(string) string) (settings, error) {
	s := defaultSettings()
	if err := loadDotEnv(workDir); err != nil {
		return s, err
	}
	if err := s.applyEnv(getenv); err != nil {
		return s, err
	}

	manifestPath, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return s, fmt.Errorf("failed to get config flag: %w", err)
	}
	found := manifestPath != ""
	if !found {
		manifestPath, found, err = findManifest(workDir)
		if err != nil {
			return s, err
		}
	}
	if found {
		cfg, err := loadManifest(manifestPath)
		if err != nil {
			return s, err
		}
		if err := s.applyManifest(manifestPath, cfg); err != nil {
			return s, err
		}
	}

	if err := s.applyFlags(cmd); err != nil {
		return s, err
	}
	return s, s.validate()
}

func (s settings) validate() error {
	if s.Seeds <= 0 {
		return fmt.Errorf("seeds must be positive, got %d", s.Seeds)
	}
	if s.Jobs < 0 {
		return fmt.Errorf("jobs must not be negative, got %d", s.Jobs)
	}
	if s.MaxAttempts < 0 {
		return fmt.Errorf("max attempts must not be negative, got %d", s.MaxAttempts)
	}
	if s.MinNonterm < 0 {
		return fmt.Errorf("min nonterminals must not be negative, got %d", s.MinNonterm)
	}
	if s.MaxFrontier > 0 && s.MinNonterm > s.MaxFrontier {
		return fmt.Errorf("min nonterminals (%d) exceeds max frontier (%d)", s.MinNonterm, s.MaxFrontier)
	}
	_, err := s.sessionOptions()
	return err
}

func (s settings) mode() (coverage.Mode, error) {
	return coverage.ParseMode(s.Mode)
}

func (s settings) sessionOptions() (session.Options, error) {
	opts := session.DefaultOptions()
	var err error
	if opts.Mode, err = s.mode(); err != nil {
		return opts, err
	}
	if opts.Policy, err = derive.ParsePolicy(s.Policy); err != nil {
		return opts, err
	}
	if opts.TieBreak, err = derive.ParseTieBreak(s.TieBreak); err != nil {
		return opts, err
	}
	if opts.Fallback, err = derive.ParseFallback(s.Fallback); err != nil {
		return opts, err
	}
	opts.Tree.MinNonterminals = s.MinNonterm
	opts.Tree.MaxFrontier = s.MaxFrontier
	opts.Tree.MaxNodes = s.MaxNodes
	opts.CacheSize = s.CacheSize
	opts.MaxAttempts = s.MaxAttempts
	return opts, nil
}

func setString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}
