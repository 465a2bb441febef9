package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kestrel-data/crossing.report/internal/count"
	"github.com/kestrel-data/crossing.report/internal/session"
)

func minimalConfig() *LaunchConfig {
	return &LaunchConfig{StreamURL: ptrString("rtsp://cam1/live")}
}

func TestDefaultsForOmittedFields(t *testing.T) {
	cfg := minimalConfig()

	if got := cfg.GetObjectType(); got != "car" {
		t.Errorf("GetObjectType() = %q, want %q", got, "car")
	}
	if got := cfg.GetAnalysisMode(); got != session.ModeDirectional {
		t.Errorf("GetAnalysisMode() = %q, want %q", got, session.ModeDirectional)
	}
	if got := cfg.GetLineOrientation(); got != count.OrientationHorizontal {
		t.Errorf("GetLineOrientation() = %q, want %q", got, count.OrientationHorizontal)
	}
	if got := cfg.GetLinePosition(); got != 0.5 {
		t.Errorf("GetLinePosition() = %f, want 0.5", got)
	}
	if got := cfg.GetAlgorithm(); got != count.AlgorithmStandard {
		t.Errorf("GetAlgorithm() = %q, want %q", got, count.AlgorithmStandard)
	}
	if got := cfg.GetRecordInterval(); got != session.DefaultRecordInterval {
		t.Errorf("GetRecordInterval() = %v, want %v", got, session.DefaultRecordInterval)
	}
}

func TestGetLineSpecDerivesDirectionMode(t *testing.T) {
	cfg := minimalConfig()
	cfg.LineOrientation = ptrString("vertical")

	spec := cfg.GetLineSpec()
	if spec.DirectionMode != count.DirectionHorizontal {
		t.Errorf("vertical orientation resolved direction mode %q, want %q", spec.DirectionMode, count.DirectionHorizontal)
	}

	cfg.LineOrientation = ptrString("diagonal")
	cfg.DirectionMode = ptrString("diag2")
	spec = cfg.GetLineSpec()
	if spec.DirectionMode != count.DirectionDiag2 {
		t.Errorf("explicit diag2 resolved direction mode %q, want diag2", spec.DirectionMode)
	}
}

func TestLoadLaunchConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "launch.json")

	testJSON := `{
  "stream_url": "rtsp://cam2/live",
  "object_type": "person",
  "analysis_mode": "unique",
  "line_position": 0.25,
  "algorithm": "threshold",
  "min_displacement": 12,
  "record_interval": "30s"
}`
	if err := os.WriteFile(configPath, []byte(testJSON), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := LoadLaunchConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.GetStreamURL() != "rtsp://cam2/live" {
		t.Errorf("GetStreamURL() = %q, want rtsp://cam2/live", cfg.GetStreamURL())
	}
	if cfg.GetObjectType() != "person" {
		t.Errorf("GetObjectType() = %q, want person", cfg.GetObjectType())
	}
	if cfg.GetAnalysisMode() != session.ModeUnique {
		t.Errorf("GetAnalysisMode() = %q, want unique", cfg.GetAnalysisMode())
	}
	if cfg.GetLinePosition() != 0.25 {
		t.Errorf("GetLinePosition() = %f, want 0.25", cfg.GetLinePosition())
	}
	if cfg.GetMinDisplacement() != 12 {
		t.Errorf("GetMinDisplacement() = %f, want 12", cfg.GetMinDisplacement())
	}
	if cfg.GetRecordInterval() != 30*time.Second {
		t.Errorf("GetRecordInterval() = %v, want 30s", cfg.GetRecordInterval())
	}
}

func TestLoadLaunchConfigMissing(t *testing.T) {
	_, err := LoadLaunchConfig("/nonexistent/path/to/launch.json")
	if err == nil {
		t.Error("Expected error when loading missing file, got nil")
	}
}

func TestLoadLaunchConfigBadExtension(t *testing.T) {
	_, err := LoadLaunchConfig("launch.yaml")
	if err == nil {
		t.Error("Expected error for non-JSON extension, got nil")
	}
}

func TestLoadLaunchConfigInvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.json")

	invalidJSON := `{
  "stream_url": "rtsp://cam1/live"
`
	if err := os.WriteFile(configPath, []byte(invalidJSON), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	_, err := LoadLaunchConfig(configPath)
	if err == nil {
		t.Error("Expected error when loading invalid JSON, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*LaunchConfig)
		wantErr bool
	}{
		{
			name:    "minimal valid",
			mutate:  func(c *LaunchConfig) {},
			wantErr: false,
		},
		{
			name:    "missing stream url",
			mutate:  func(c *LaunchConfig) { c.StreamURL = nil },
			wantErr: true,
		},
		{
			name:    "unknown object type",
			mutate:  func(c *LaunchConfig) { c.ObjectType = ptrString("unicorn") },
			wantErr: true,
		},
		{
			name:    "unknown analysis mode",
			mutate:  func(c *LaunchConfig) { c.AnalysisMode = ptrString("psychic") },
			wantErr: true,
		},
		{
			name:    "unknown orientation",
			mutate:  func(c *LaunchConfig) { c.LineOrientation = ptrString("sideways") },
			wantErr: true,
		},
		{
			name:    "position out of range",
			mutate:  func(c *LaunchConfig) { c.LinePosition = ptrFloat64(1.5) },
			wantErr: true,
		},
		{
			name: "direction mode contradicts orientation",
			mutate: func(c *LaunchConfig) {
				c.LineOrientation = ptrString("horizontal")
				c.DirectionMode = ptrString("horizontal")
			},
			wantErr: true,
		},
		{
			name: "contradictory direction mode ignored in unique mode",
			mutate: func(c *LaunchConfig) {
				c.AnalysisMode = ptrString("unique")
				c.LineOrientation = ptrString("horizontal")
				c.DirectionMode = ptrString("horizontal")
			},
			wantErr: false,
		},
		{
			name: "threshold without displacement",
			mutate: func(c *LaunchConfig) {
				c.Algorithm = ptrString("threshold")
				c.MinDisplacement = ptrFloat64(0)
			},
			wantErr: true,
		},
		{
			name: "threshold with displacement",
			mutate: func(c *LaunchConfig) {
				c.Algorithm = ptrString("threshold")
				c.MinDisplacement = ptrFloat64(15)
			},
			wantErr: false,
		},
		{
			name:    "negative displacement",
			mutate:  func(c *LaunchConfig) { c.MinDisplacement = ptrFloat64(-3) },
			wantErr: true,
		},
		{
			name:    "bad record interval",
			mutate:  func(c *LaunchConfig) { c.RecordInterval = ptrString("soon") },
			wantErr: true,
		},
		{
			name:    "negative record interval",
			mutate:  func(c *LaunchConfig) { c.RecordInterval = ptrString("-5s") },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := minimalConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "saved.json")

	cfg := minimalConfig()
	cfg.ObjectType = ptrString("bicycle")
	cfg.RecordInterval = ptrString("45s")
	if err := cfg.Save(configPath); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := LoadLaunchConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to reload saved config: %v", err)
	}
	if loaded.GetObjectType() != "bicycle" {
		t.Errorf("round-tripped object type = %q, want bicycle", loaded.GetObjectType())
	}
	if loaded.GetRecordInterval() != 45*time.Second {
		t.Errorf("round-tripped record interval = %v, want 45s", loaded.GetRecordInterval())
	}
}
