package mot

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// MatcherKind selects the matching engine implementation
type MatcherKind string

const (
	// MatcherSimple is the threshold-gated nearest-match identity mapper
	MatcherSimple MatcherKind = "simple"
	// MatcherCascade is the full tracker with motion filtering, appearance
	// cascade and lifecycle management
	MatcherCascade MatcherKind = "cascade"
)

// AffinityKind selects the pairwise cost variant for the simple matcher
type AffinityKind string

const (
	// AffinityLinear is position delta times size delta, in squared pixels
	AffinityLinear AffinityKind = "linear"
	// AffinityExponential is the damped similarity in (0;1]
	AffinityExponential AffinityKind = "exponential"
)

// Config holds every engine parameter. Zero values fall back to defaults on
// Validate, so a partial YAML document is fine.
type Config struct {
	Matcher  MatcherKind  `yaml:"matcher"`
	Affinity AffinityKind `yaml:"affinity"`

	// CostThreshold gates the simple matcher. Coupled to the affinity
	// variant: the default 40000 is a linear-affinity scale.
	CostThreshold float64 `yaml:"cost_threshold"`

	// Cascade engine parameters
	MaxIOUDistance    float64 `yaml:"max_iou_distance"`
	MaxAge            int     `yaml:"max_age"`
	NInit             int     `yaml:"n_init"`
	MaxCosineDistance float64 `yaml:"max_cosine_distance"`
	NNBudget          int     `yaml:"nn_budget"`
}

// DefaultConfig returns the engine defaults: cascade matching with
// DeepSORT-style parameters
func DefaultConfig() Config {
	return Config{
		Matcher:           MatcherCascade,
		Affinity:          AffinityLinear,
		CostThreshold:     40000,
		MaxIOUDistance:    0.7,
		MaxAge:            30,
		NInit:             3,
		MaxCosineDistance: 0.2,
		NNBudget:          100,
	}
}

// LoadConfig reads a YAML config file, filling unset fields with defaults
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "can't read config %s", path)
	}
	cfg := Config{}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrapf(err, "can't parse config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate fills zero values with defaults and rejects inconsistent
// combinations
func (c *Config) Validate() error {
	def := DefaultConfig()
	if c.Matcher == "" {
		c.Matcher = def.Matcher
	}
	if c.Affinity == "" {
		c.Affinity = def.Affinity
	}
	if c.CostThreshold == 0 {
		c.CostThreshold = def.CostThreshold
	}
	if c.MaxIOUDistance == 0 {
		c.MaxIOUDistance = def.MaxIOUDistance
	}
	if c.MaxAge == 0 {
		c.MaxAge = def.MaxAge
	}
	if c.NInit == 0 {
		c.NInit = def.NInit
	}
	if c.MaxCosineDistance == 0 {
		c.MaxCosineDistance = def.MaxCosineDistance
	}
	if c.NNBudget == 0 {
		c.NNBudget = def.NNBudget
	}

	switch c.Matcher {
	case MatcherSimple, MatcherCascade:
	default:
		return errors.Errorf("unknown matcher kind %q", c.Matcher)
	}
	switch c.Affinity {
	case AffinityLinear:
	case AffinityExponential:
		// The exponential affinity lives in (0;1]; a linear-scale threshold
		// would accept every pair.
		if c.CostThreshold == def.CostThreshold {
			return errors.New("exponential affinity requires an explicit cost_threshold: the default 40000 is a linear-affinity scale")
		}
	default:
		return errors.Errorf("unknown affinity kind %q", c.Affinity)
	}
	if c.MaxIOUDistance < 0 || c.MaxIOUDistance > 1 {
		return errors.Errorf("max_iou_distance must be in [0;1], got %v", c.MaxIOUDistance)
	}
	if c.MaxAge < 1 {
		return errors.Errorf("max_age must be positive, got %d", c.MaxAge)
	}
	if c.NInit < 1 {
		return errors.Errorf("n_init must be positive, got %d", c.NInit)
	}
	if c.NNBudget < 1 {
		return errors.Errorf("nn_budget must be positive, got %d", c.NNBudget)
	}
	return nil
}

// NewMatcher builds the configured matching engine
func NewMatcher(cfg Config) (Matcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Matcher {
	case MatcherSimple:
		affinity := LinearCost
		if cfg.Affinity == AffinityExponential {
			affinity = ExpCost
		}
		return NewSimpleMapper(
			WithAffinity(affinity),
			WithCostThreshold(cfg.CostThreshold),
		), nil
	case MatcherCascade:
		return NewTracker(
			WithMaxIOUDistance(cfg.MaxIOUDistance),
			WithMaxAge(cfg.MaxAge),
			WithNInit(cfg.NInit),
			WithMaxCosineDistance(cfg.MaxCosineDistance),
			WithNNBudget(cfg.NNBudget),
		), nil
	}
	return nil, errors.Errorf("unknown matcher kind %q", cfg.Matcher)
}
