package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/jbaussand/spin-market/internal/lattice"
)

// Plan is the YAML run plan: how many sweeps to run, with which couplings,
// which shocks to inject when, and what to record and serve.
type Plan struct {
	Seed    int64 `yaml:"seed"`
	Sweeps  int   `yaml:"sweeps"`
	Workers int   `yaml:"workers"`

	NeighborCoupling float64 `yaml:"neighbor_coupling"`
	Alpha            float64 `yaml:"alpha"`
	ExcludeNeutrals  bool    `yaml:"exclude_neutrals"`

	Shocks []ShockEvent `yaml:"shocks"`

	API    APIConfig    `yaml:"api"`
	Record RecordConfig `yaml:"record"`
}

// ShockEvent schedules one crash injection before the given sweep index.
type ShockEvent struct {
	Sweep    int     `yaml:"sweep"`
	Fraction float64 `yaml:"fraction"`
	Region   string  `yaml:"region"`
}

// APIConfig configures the observation HTTP server. Port 0 disables it.
type APIConfig struct {
	Port     int    `yaml:"port"`
	AdminKey string `yaml:"admin_key"` // Bearer token for POST endpoints. Empty = POST disabled.
}

// RecordConfig configures run recording. Empty paths disable each sink.
type RecordConfig struct {
	DBPath     string `yaml:"db_path"`
	FramesDir  string `yaml:"frames_dir"`
	FrameEvery int    `yaml:"frame_every"` // grid frame every N sweeps; 0 = no frames
}

// LoadPlan reads and validates a YAML run plan.
func LoadPlan(path string) (Plan, error) {
	var p Plan
	raw, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("read plan: %w", err)
	}
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return p, fmt.Errorf("parse plan %s: %w", path, err)
	}
	return p, p.Validate()
}

// Validate checks the plan eagerly, before any simulation state exists.
func (p Plan) Validate() error {
	if p.Sweeps <= 0 {
		return fmt.Errorf("%w: sweeps %d must be positive", lattice.ErrInvalidConfig, p.Sweeps)
	}
	if p.Workers < 0 {
		return fmt.Errorf("%w: workers %d must not be negative", lattice.ErrInvalidConfig, p.Workers)
	}
	for i, s := range p.Shocks {
		if s.Sweep < 0 || s.Sweep >= p.Sweeps {
			return fmt.Errorf("%w: shock %d scheduled at sweep %d, outside run of %d sweeps",
				lattice.ErrInvalidConfig, i, s.Sweep, p.Sweeps)
		}
		if s.Fraction < 0 || s.Fraction > 1 {
			return fmt.Errorf("%w: shock %d fraction %g outside [0,1]", lattice.ErrInvalidConfig, i, s.Fraction)
		}
		if _, err := lattice.ParseRegion(s.Region); err != nil {
			return fmt.Errorf("shock %d: %w", i, err)
		}
	}
	if p.Record.FrameEvery < 0 {
		return fmt.Errorf("%w: frame_every %d must not be negative", lattice.ErrInvalidConfig, p.Record.FrameEvery)
	}
	return nil
}
