package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variables that override file settings.
const (
	EnvThreshold   = "MOONQUAKE_THRESHOLD"
	EnvSensitivity = "MOONQUAKE_SENSITIVITY"
	EnvFilter      = "MOONQUAKE_FILTER"
	EnvMinFreq     = "MOONQUAKE_MIN_FREQ"
	EnvMaxFreq     = "MOONQUAKE_MAX_FREQ"
	EnvCorners     = "MOONQUAKE_CORNERS"
	EnvDetectOn    = "MOONQUAKE_DETECT_ON"
	EnvTrace       = "MOONQUAKE_TRACE"
	EnvClusterGap  = "MOONQUAKE_CLUSTER_GAP"
)

// EnvFromFile reads KEY=value pairs from a .env file. A missing file yields
// an empty map.
func EnvFromFile(path string) (map[string]string, error) {
	vals, err := godotenv.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return vals, nil
}

// LookupEnv layers the process environment over values read from a .env
// file; the process environment wins.
func LookupEnv(dotenv map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}
}

// ApplyEnv overrides fields with any MOONQUAKE_* values lookup returns and
// validates the result.
func (c *DetectionFile) ApplyEnv(lookup func(string) (string, bool)) error {
	floats := []struct {
		key string
		dst **float64
	}{
		{EnvThreshold, &c.Threshold},
		{EnvSensitivity, &c.Sensitivity},
		{EnvMinFreq, &c.MinFreq},
		{EnvMaxFreq, &c.MaxFreq},
	}
	for _, f := range floats {
		v, ok := lookup(f.key)
		if !ok || v == "" {
			continue
		}
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", f.key, err)
		}
		*f.dst = ptrFloat64(n)
	}

	ints := []struct {
		key string
		dst **int
	}{
		{EnvCorners, &c.Corners},
		{EnvClusterGap, &c.ClusterGap},
	}
	for _, f := range ints {
		v, ok := lookup(f.key)
		if !ok || v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", f.key, err)
		}
		*f.dst = ptrInt(n)
	}

	if v, ok := lookup(EnvFilter); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", EnvFilter, err)
		}
		c.Filter = ptrBool(b)
	}
	if v, ok := lookup(EnvDetectOn); ok && v != "" {
		c.DetectOn = ptrString(v)
	}
	if v, ok := lookup(EnvTrace); ok && v != "" {
		c.Trace = ptrString(v)
	}

	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid environment override: %w", err)
	}
	return nil
}
