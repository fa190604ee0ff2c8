// Package config loads the two configuration surfaces: the flat key=value
// parameter files the original model shipped with, and the YAML run plan
// that drives a full simulation run.
package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/jbaussand/spin-market/internal/lattice"
)

// ReadParams parses a flat key=value file. Lines starting with '#' and blank
// lines are ignored; whitespace around keys and values is trimmed.
func ReadParams(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read params: %w", err)
	}
	defer f.Close()
	return ParseParams(f)
}

// ParseParams is ReadParams over an io.Reader.
func ParseParams(r io.Reader) (map[string]string, error) {
	params := make(map[string]string)
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("params line %d: missing '=' in %q", lineNo, line)
		}
		params[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read params: %w", err)
	}
	return params, nil
}

// LatticeConfig maps a parameter set onto a lattice configuration. Key names
// follow the original model's parameter files. Unknown keys are ignored so
// one file can carry driver settings too.
func LatticeConfig(params map[string]string) (lattice.Config, error) {
	var cfg lattice.Config
	var err error

	if cfg.Height, err = intParam(params, "grid_height", 0); err != nil {
		return cfg, err
	}
	if cfg.Width, err = intParam(params, "grid_width", 0); err != nil {
		return cfg, err
	}
	if cfg.InitUp, err = floatParam(params, "init_up", 0.5); err != nil {
		return cfg, err
	}
	if cfg.NeutralFraction, err = floatParam(params, "fraction_neutral", 0); err != nil {
		return cfg, err
	}
	if region, ok := params["region_neutral"]; ok {
		r, err := lattice.ParseRegion(region)
		if err != nil {
			return cfg, err
		}
		cfg.NeutralRegion = r
	}
	if cfg.PrivilegedFraction, err = floatParam(params, "privileged_fraction", 0); err != nil {
		return cfg, err
	}
	if cfg.PrivilegedFactor, err = floatParam(params, "privileged_flip_factor", 1); err != nil {
		return cfg, err
	}
	if pattern, ok := params["init_pattern"]; ok {
		cfg.InitPattern = lattice.Pattern(pattern)
	}

	return cfg, cfg.Validate()
}

func intParam(params map[string]string, key string, def int) (int, error) {
	raw, ok := params[key]
	if !ok {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("param %s: %w", key, err)
	}
	return v, nil
}

func floatParam(params map[string]string, key string, def float64) (float64, error) {
	raw, ok := params[key]
	if !ok {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("param %s: %w", key, err)
	}
	return v, nil
}
