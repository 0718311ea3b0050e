package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/moonquake.report/internal/pipeline"
	"github.com/banshee-data/moonquake.report/internal/source"
)

// loadDefaults reads DefaultConfigPath from the repository root.
func loadDefaults(t *testing.T) *DetectionFile {
	t.Helper()
	cfg, err := LoadDetectionConfig(filepath.Join("..", "..", DefaultConfigPath))
	require.NoError(t, err)
	return cfg
}

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	return path
}

func TestEmptyDetectionFileDefaults(t *testing.T) {
	t.Parallel()

	cfg := EmptyDetectionFile()
	if cfg.GetThreshold() != 3.0 {
		t.Errorf("GetThreshold() = %f, want 3.0", cfg.GetThreshold())
	}
	if cfg.GetSensitivity() != 0.5 {
		t.Errorf("GetSensitivity() = %f, want 0.5", cfg.GetSensitivity())
	}
	if !cfg.GetFilter() {
		t.Errorf("GetFilter() = false, want true")
	}
	assert.Equal(t, 0.1, cfg.GetMinFreq())
	assert.Equal(t, 0.5, cfg.GetMaxFreq())
	assert.Equal(t, 4, cfg.GetCorners())
	assert.Equal(t, "auto", cfg.GetDetectOn())
	assert.Equal(t, "first", cfg.GetTrace())
	assert.Equal(t, 1, cfg.GetClusterGap())
}

func TestDefaultsFileMatchesGetters(t *testing.T) {
	t.Parallel()

	file := loadDefaults(t)
	empty := EmptyDetectionFile()

	fromFile, err := file.DetectionConfig()
	require.NoError(t, err)
	fromEmpty, err := empty.DetectionConfig()
	require.NoError(t, err)

	if diff := cmp.Diff(fromEmpty, fromFile); diff != "" {
		t.Errorf("defaults file drifted from getters (-getters +file):\n%s", diff)
	}
	assert.Equal(t, empty.GetClusterGap(), file.GetClusterGap())

	want := pipeline.DetectionConfig{
		Threshold:   3,
		Sensitivity: 0.5,
		MinFreq:     0.1,
		MaxFreq:     0.5,
		Corners:     4,
		DetectOn:    pipeline.DetectAuto,
		Trace:       source.FirstTrace(),
		ClusterGap:  1,
	}
	assert.Equal(t, want, fromFile)
}

func TestLoadDetectionConfig(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "run.json", `{
  "threshold": 1.25,
  "sensitivity": 0.9,
  "min_freq": 0.2,
  "max_freq": 1.5,
  "detect_on": "raw",
  "trace": "XA.S12..MHZ"
}`)
	cfg, err := LoadDetectionConfig(path)
	require.NoError(t, err)

	dc, err := cfg.DetectionConfig()
	require.NoError(t, err)
	assert.Equal(t, 1.25, dc.Threshold)
	assert.Equal(t, 0.9, dc.Sensitivity)
	assert.Equal(t, 0.2, dc.MinFreq)
	assert.Equal(t, 1.5, dc.MaxFreq)
	assert.Equal(t, pipeline.DetectRaw, dc.DetectOn)
	assert.Equal(t, 1, dc.ClusterGap)
	assert.Equal(t, source.TraceSelection{Mode: source.SelectID, ID: "XA.S12..MHZ"}, dc.Trace)
	assert.Nil(t, cfg.Corners)
}

func TestLoadDetectionConfigFilterOff(t *testing.T) {
	t.Parallel()

	cfg, err := LoadDetectionConfig(writeConfig(t, "raw.json", `{"filter": false, "threshold": 0}`))
	require.NoError(t, err)

	dc, err := cfg.DetectionConfig()
	require.NoError(t, err)
	assert.False(t, dc.BandConfigured())
	assert.Zero(t, dc.Threshold)
}

func TestLoadDetectionConfigErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		file    string
		body    string
		wantErr string
	}{
		{"wrong extension", "run.yaml", `{}`, ".json extension"},
		{"invalid json", "bad.json", `{"threshold": "high"`, "failed to parse"},
		{"out of range", "range.json", `{"threshold": 11}`, "threshold must be between"},
		{"too large", "big.json", `{"trace": "` + strings.Repeat("x", 1<<20) + `"}`, "too large"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := LoadDetectionConfig(writeConfig(t, tt.file, tt.body))
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}

	_, err := LoadDetectionConfig("/nonexistent/path/to/config.json")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     DetectionFile
		wantErr string
	}{
		{"empty", DetectionFile{}, ""},
		{"threshold at max", DetectionFile{Threshold: ptrFloat64(10)}, ""},
		{"negative threshold", DetectionFile{Threshold: ptrFloat64(-0.5)}, "threshold"},
		{"sensitivity low", DetectionFile{Sensitivity: ptrFloat64(0.05)}, "sensitivity"},
		{"min freq high", DetectionFile{MinFreq: ptrFloat64(1.5)}, "min_freq"},
		{"max freq low", DetectionFile{MaxFreq: ptrFloat64(0.2)}, "max_freq"},
		{"inverted band", DetectionFile{MinFreq: ptrFloat64(0.9), MaxFreq: ptrFloat64(0.6)}, "below max_freq"},
		{"inverted band unused", DetectionFile{Filter: ptrBool(false), MinFreq: ptrFloat64(0.9), MaxFreq: ptrFloat64(0.6)}, ""},
		{"corners", DetectionFile{Corners: ptrInt(0)}, "corners"},
		{"cluster gap", DetectionFile{ClusterGap: ptrInt(0)}, "cluster_gap"},
		{"detect on", DetectionFile{DetectOn: ptrString("sideways")}, "detect target"},
		{"filtered without filter", DetectionFile{Filter: ptrBool(false), DetectOn: ptrString("filtered")}, "filter is disabled"},
		{"trace", DetectionFile{Trace: ptrString("S12")}, "invalid trace"},
		{"trace index", DetectionFile{Trace: ptrString("2")}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestMerge(t *testing.T) {
	t.Parallel()

	base := loadDefaults(t)
	base.Merge(&DetectionFile{Threshold: ptrFloat64(7), Trace: ptrString("1")})
	base.Merge(nil)

	assert.Equal(t, 7.0, base.GetThreshold())
	assert.Equal(t, "1", base.GetTrace())
	assert.Equal(t, 0.1, base.GetMinFreq())
}
