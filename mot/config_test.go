package mot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	require.Equal(t, MatcherCascade, cfg.Matcher)
	require.Equal(t, 40000.0, cfg.CostThreshold)
	require.Equal(t, 30, cfg.MaxAge)
	require.Equal(t, 3, cfg.NInit)
	require.Equal(t, 100, cfg.NNBudget)
}

func TestConfigValidate(t *testing.T) {
	cfg := Config{}
	require.NoError(t, cfg.Validate())
	require.Equal(t, DefaultConfig(), cfg, "zero values fall back to defaults")

	bad := Config{Matcher: "greedy"}
	require.Error(t, bad.Validate())

	bad = Config{MaxIOUDistance: 1.5}
	require.Error(t, bad.Validate())

	bad = Config{NInit: -1}
	require.Error(t, bad.Validate())

	// The exponential affinity cannot inherit the linear-scale threshold
	bad = Config{Affinity: AffinityExponential}
	require.Error(t, bad.Validate())

	ok := Config{Affinity: AffinityExponential, CostThreshold: 0.5}
	require.NoError(t, ok.Validate())
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "engine.yaml")
	content := []byte("matcher: simple\ncost_threshold: 500\nmax_age: 10\n")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, MatcherSimple, cfg.Matcher)
	require.Equal(t, 500.0, cfg.CostThreshold)
	require.Equal(t, 10, cfg.MaxAge)
	// Unset fields pick up defaults
	require.Equal(t, 3, cfg.NInit)

	_, err = LoadConfig(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)

	badPath := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(badPath, []byte("matcher: greedy\n"), 0o644))
	_, err = LoadConfig(badPath)
	require.Error(t, err)
}

func TestNewMatcherSelectsEngine(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Matcher = MatcherSimple
	m, err := NewMatcher(cfg)
	require.NoError(t, err)
	_, ok := m.(*SimpleMapper)
	require.True(t, ok, "expected a SimpleMapper, got %T", m)

	cfg.Matcher = MatcherCascade
	m, err = NewMatcher(cfg)
	require.NoError(t, err)
	_, ok = m.(*Tracker)
	require.True(t, ok, "expected a Tracker, got %T", m)

	cfg.Matcher = "greedy"
	_, err = NewMatcher(cfg)
	require.Error(t, err)
}
