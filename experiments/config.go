package experiments

import (
	"fmt"
	"os"

	"github.com/zeu5/osm-deviation-rl/deviation"
	"github.com/zeu5/osm-deviation-rl/types"
	"gopkg.in/yaml.v3"
)

// Config is the optional experiment file given with --config
type Config struct {
	// Graph is a JSON way graph, OSM a .osm.pbf extract; Graph wins when both are set
	Graph string `yaml:"graph"`
	OSM   string `yaml:"osm"`

	Trips []TripConfig `yaml:"trips"`

	Routes    []RouteConfig     `yaml:"routes"`
	Scenarios []int64           `yaml:"scenarios"`
	Weights   deviation.Weights `yaml:"weights"`

	Fit   FitConfig   `yaml:"fit"`
	Sinks SinkConfig  `yaml:"sinks"`
	Redis RedisConfig `yaml:"redis"`
}

// TripConfig is a trip file, plain way ids one per line or JSON, with the
// ways to block
type TripConfig struct {
	File    string  `yaml:"file"`
	Blocked []int64 `yaml:"blocked"`
	Start   int64   `yaml:"start"`
}

// RouteConfig is a route file with its deviation files
type RouteConfig struct {
	Route      string   `yaml:"route"`
	Deviations []string `yaml:"deviations"`
}

type FitConfig struct {
	Gamma        float64 `yaml:"gamma"`
	Epsilon      float64 `yaml:"epsilon"`
	EpsilonDecay float64 `yaml:"epsilon_decay"`
	Alpha        float64 `yaml:"alpha"`
	Window       int     `yaml:"window"`
	Threshold    float64 `yaml:"threshold"`
	// Algorithms to compare, all when empty: q-learning, sarsa, expected-sarsa, random
	Algorithms []string `yaml:"algorithms"`
}

type SinkConfig struct {
	CSV    bool   `yaml:"csv"`
	SQLite string `yaml:"sqlite"`
	Plot   bool   `yaml:"plot"`
}

type RedisConfig struct {
	Addr string `yaml:"addr"`
	Key  string `yaml:"key"`
}

// DefaultConfig is used when no file is given
func DefaultConfig() *Config {
	fit := types.DefaultFitConfig()
	return &Config{
		Weights: deviation.DefaultWeights(),
		Fit: FitConfig{
			Gamma:        fit.Gamma,
			Epsilon:      fit.Epsilon,
			EpsilonDecay: fit.EpsilonDecay,
			Alpha:        fit.Alpha,
			Window:       fit.Window,
			Threshold:    fit.Threshold,
		},
		Sinks: SinkConfig{CSV: true, Plot: true},
		Redis: RedisConfig{Addr: "127.0.0.1:6379", Key: "qtable"},
	}
}

// LoadConfig reads a yaml file over the defaults
func LoadConfig(file string) (*Config, error) {
	c := DefaultConfig()
	if file == "" {
		return c, nil
	}
	bs, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(bs, c); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", file, err)
	}
	return c, nil
}

// FitConfig merges the file parameters with the command line budget and horizon
func (c *Config) FitConfig(episodes, horizon int) types.FitConfig {
	return types.FitConfig{
		Gamma:         c.Fit.Gamma,
		Epsilon:       c.Fit.Epsilon,
		EpsilonDecay:  c.Fit.EpsilonDecay,
		Alpha:         c.Fit.Alpha,
		EpisodeBudget: episodes,
		Horizon:       horizon,
		Window:        c.Fit.Window,
		Threshold:     c.Fit.Threshold,
	}
}
