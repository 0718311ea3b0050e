// Package config loads detection settings from JSON files and the
// environment and turns them into a pipeline.DetectionConfig.
package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/banshee-data/moonquake.report/internal/pipeline"
	"github.com/banshee-data/moonquake.report/internal/source"
)

// DefaultConfigPath is the canonical detection defaults file.
const DefaultConfigPath = "config/detection.defaults.json"

// Surface ranges for the externally adjustable settings.
const (
	MinThreshold   = 0.0
	MaxThreshold   = 10.0
	MinSensitivity = 0.1
	MaxSensitivity = 1.0
	MinLowCorner   = 0.01
	MaxLowCorner   = 1.0
	MinHighCorner  = 0.5
	MaxHighCorner  = 2.0
)

// DetectionFile is the JSON form of the detection settings. Every field is
// optional; the Get* methods supply defaults for omitted ones.
type DetectionFile struct {
	Threshold   *float64 `json:"threshold,omitempty"`
	Sensitivity *float64 `json:"sensitivity,omitempty"` // accepted, not used by detection

	// Filter params
	Filter  *bool    `json:"filter,omitempty"`
	MinFreq *float64 `json:"min_freq,omitempty"`
	MaxFreq *float64 `json:"max_freq,omitempty"`
	Corners *int     `json:"corners,omitempty"`

	// Detection params
	DetectOn   *string `json:"detect_on,omitempty"`   // auto, raw or filtered
	Trace      *string `json:"trace,omitempty"`       // first, an index, or NET.STA.LOC.CHA
	ClusterGap *int    `json:"cluster_gap,omitempty"` // samples
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyDetectionFile returns a DetectionFile with every field unset.
func EmptyDetectionFile() *DetectionFile {
	return &DetectionFile{}
}

// LoadDetectionConfig loads a DetectionFile from a JSON file. The path must
// end in .json and the file must be under 1MB. Omitted fields keep their
// defaults.
func LoadDetectionConfig(path string) (*DetectionFile, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyDetectionFile()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func inRange(v, lo, hi float64) bool {
	return !math.IsNaN(v) && v >= lo && v <= hi
}

// Validate checks set fields against the supported ranges.
func (c *DetectionFile) Validate() error {
	if c.Threshold != nil && !inRange(*c.Threshold, MinThreshold, MaxThreshold) {
		return fmt.Errorf("threshold must be between %g and %g, got %g", MinThreshold, MaxThreshold, *c.Threshold)
	}
	if c.Sensitivity != nil && !inRange(*c.Sensitivity, MinSensitivity, MaxSensitivity) {
		return fmt.Errorf("sensitivity must be between %g and %g, got %g", MinSensitivity, MaxSensitivity, *c.Sensitivity)
	}
	if c.MinFreq != nil && !inRange(*c.MinFreq, MinLowCorner, MaxLowCorner) {
		return fmt.Errorf("min_freq must be between %g and %g Hz, got %g", MinLowCorner, MaxLowCorner, *c.MinFreq)
	}
	if c.MaxFreq != nil && !inRange(*c.MaxFreq, MinHighCorner, MaxHighCorner) {
		return fmt.Errorf("max_freq must be between %g and %g Hz, got %g", MinHighCorner, MaxHighCorner, *c.MaxFreq)
	}
	if c.GetFilter() && c.GetMinFreq() >= c.GetMaxFreq() {
		return fmt.Errorf("min_freq (%g) must be below max_freq (%g)", c.GetMinFreq(), c.GetMaxFreq())
	}
	if c.Corners != nil && (*c.Corners < 1 || *c.Corners > 10) {
		return fmt.Errorf("corners must be between 1 and 10, got %d", *c.Corners)
	}
	if c.ClusterGap != nil && *c.ClusterGap < 1 {
		return fmt.Errorf("cluster_gap must be at least 1, got %d", *c.ClusterGap)
	}
	if c.DetectOn != nil {
		target, err := pipeline.ParseDetectTarget(*c.DetectOn)
		if err != nil {
			return err
		}
		if target == pipeline.DetectFiltered && !c.GetFilter() {
			return fmt.Errorf("detect_on is filtered but filter is disabled")
		}
	}
	if c.Trace != nil {
		if _, err := source.ParseTraceSelection(*c.Trace); err != nil {
			return fmt.Errorf("invalid trace: %w", err)
		}
	}
	return nil
}

// Merge copies every field set in o over c.
func (c *DetectionFile) Merge(o *DetectionFile) {
	if o == nil {
		return
	}
	if o.Threshold != nil {
		c.Threshold = o.Threshold
	}
	if o.Sensitivity != nil {
		c.Sensitivity = o.Sensitivity
	}
	if o.Filter != nil {
		c.Filter = o.Filter
	}
	if o.MinFreq != nil {
		c.MinFreq = o.MinFreq
	}
	if o.MaxFreq != nil {
		c.MaxFreq = o.MaxFreq
	}
	if o.Corners != nil {
		c.Corners = o.Corners
	}
	if o.DetectOn != nil {
		c.DetectOn = o.DetectOn
	}
	if o.Trace != nil {
		c.Trace = o.Trace
	}
	if o.ClusterGap != nil {
		c.ClusterGap = o.ClusterGap
	}
}

// GetThreshold returns the threshold value or the default.
func (c *DetectionFile) GetThreshold() float64 {
	if c.Threshold == nil {
		return 3.0 // default
	}
	return *c.Threshold
}

// GetSensitivity returns the sensitivity value or the default.
func (c *DetectionFile) GetSensitivity() float64 {
	if c.Sensitivity == nil {
		return 0.5 // default
	}
	return *c.Sensitivity
}

// GetFilter reports whether the bandpass filter is enabled.
func (c *DetectionFile) GetFilter() bool {
	if c.Filter == nil {
		return true // default
	}
	return *c.Filter
}

// GetMinFreq returns the low corner in Hz or the default.
func (c *DetectionFile) GetMinFreq() float64 {
	if c.MinFreq == nil {
		return 0.1 // default
	}
	return *c.MinFreq
}

// GetMaxFreq returns the high corner in Hz or the default.
func (c *DetectionFile) GetMaxFreq() float64 {
	if c.MaxFreq == nil {
		return 0.5 // default
	}
	return *c.MaxFreq
}

func (c *DetectionFile) GetCorners() int {
	if c.Corners == nil {
		return 4 // default
	}
	return *c.Corners
}

func (c *DetectionFile) GetDetectOn() string {
	if c.DetectOn == nil || *c.DetectOn == "" {
		return "auto" // default
	}
	return *c.DetectOn
}

func (c *DetectionFile) GetTrace() string {
	if c.Trace == nil || *c.Trace == "" {
		return "first" // default
	}
	return *c.Trace
}

func (c *DetectionFile) GetClusterGap() int {
	if c.ClusterGap == nil {
		return 1 // default
	}
	return *c.ClusterGap
}

// DetectionConfig converts the file settings into the pipeline's value
// object. A disabled filter leaves both band edges zero.
func (c *DetectionFile) DetectionConfig() (pipeline.DetectionConfig, error) {
	if err := c.Validate(); err != nil {
		return pipeline.DetectionConfig{}, err
	}
	target, err := pipeline.ParseDetectTarget(c.GetDetectOn())
	if err != nil {
		return pipeline.DetectionConfig{}, err
	}
	trace, err := source.ParseTraceSelection(c.GetTrace())
	if err != nil {
		return pipeline.DetectionConfig{}, err
	}

	cfg := pipeline.DetectionConfig{
		Threshold:   c.GetThreshold(),
		Sensitivity: c.GetSensitivity(),
		Corners:     c.GetCorners(),
		DetectOn:    target,
		Trace:       trace,
		ClusterGap:  c.GetClusterGap(),
	}
	if c.GetFilter() {
		cfg.MinFreq = c.GetMinFreq()
		cfg.MaxFreq = c.GetMaxFreq()
	}
	return cfg, nil
}
