package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kestrel-data/crossing.report/internal/count"
	"github.com/kestrel-data/crossing.report/internal/detect"
	"github.com/kestrel-data/crossing.report/internal/session"
)

// DefaultConfigPath is the path to the canonical launch defaults file.
const DefaultConfigPath = "config/launch.defaults.json"

// LaunchConfig represents the root configuration for one counting run.
// All fields are optional in the JSON except stream_url; the Get* methods
// provide fallback defaults for anything omitted, so partial configs are
// safe.
type LaunchConfig struct {
	// Stream params
	StreamURL  *string `json:"stream_url,omitempty"`
	ObjectType *string `json:"object_type,omitempty"`

	// Counting params
	AnalysisMode    *string  `json:"analysis_mode,omitempty"`    // "directional" or "unique"
	LineOrientation *string  `json:"line_orientation,omitempty"` // "horizontal", "vertical", "diagonal"
	LinePosition    *float64 `json:"line_position,omitempty"`    // fraction of the frame, 0..1
	DirectionMode   *string  `json:"direction_mode,omitempty"`   // derived from the orientation when omitted
	Algorithm       *string  `json:"algorithm,omitempty"`        // "standard" or "threshold"
	MinDisplacement *float64 `json:"min_displacement,omitempty"` // pixels, threshold algorithm only

	// Persistence params
	RecordInterval *string `json:"record_interval,omitempty"` // duration string like "60s"
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }

// EmptyLaunchConfig returns a LaunchConfig with all fields set to nil.
func EmptyLaunchConfig() *LaunchConfig {
	return &LaunchConfig{}
}

// LoadLaunchConfig loads a LaunchConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the
// max file size.
func LoadLaunchConfig(path string) (*LaunchConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
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

	cfg := EmptyLaunchConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration back out as indented JSON.
func (c *LaunchConfig) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks that the configuration values are valid.
func (c *LaunchConfig) Validate() error {
	if c.StreamURL == nil || *c.StreamURL == "" {
		return fmt.Errorf("stream_url is required")
	}

	// Validate ObjectType against the detection catalog if set
	if c.ObjectType != nil {
		if _, err := detect.DefaultCatalog().Resolve(*c.ObjectType); err != nil {
			return fmt.Errorf("invalid object_type: %w", err)
		}
	}

	if c.AnalysisMode != nil {
		switch session.Mode(*c.AnalysisMode) {
		case session.ModeDirectional, session.ModeUnique:
		default:
			return fmt.Errorf("analysis_mode must be %q or %q, got %q",
				session.ModeDirectional, session.ModeUnique, *c.AnalysisMode)
		}
	}

	if c.LineOrientation != nil {
		switch count.Orientation(*c.LineOrientation) {
		case count.OrientationHorizontal, count.OrientationVertical, count.OrientationDiagonal:
		default:
			return fmt.Errorf("unknown line_orientation %q", *c.LineOrientation)
		}
	}

	if c.LinePosition != nil {
		if *c.LinePosition < 0 || *c.LinePosition > 1 {
			return fmt.Errorf("line_position must be between 0 and 1, got %f", *c.LinePosition)
		}
	}

	// The assembled line must also satisfy the orientation/direction rules,
	// including an explicitly configured direction_mode that contradicts the
	// orientation.
	if c.GetAnalysisMode() == session.ModeDirectional {
		if err := c.GetLineSpec().Validate(); err != nil {
			return err
		}
	}

	if c.Algorithm != nil {
		switch count.Algorithm(*c.Algorithm) {
		case count.AlgorithmStandard, count.AlgorithmThreshold:
		default:
			return fmt.Errorf("algorithm must be %q or %q, got %q",
				count.AlgorithmStandard, count.AlgorithmThreshold, *c.Algorithm)
		}
	}

	if c.MinDisplacement != nil {
		if *c.MinDisplacement < 0 {
			return fmt.Errorf("min_displacement must be non-negative, got %f", *c.MinDisplacement)
		}
	}
	if c.GetAlgorithm() == count.AlgorithmThreshold && c.GetMinDisplacement() <= 0 {
		return fmt.Errorf("threshold algorithm requires a positive min_displacement")
	}

	// Validate RecordInterval can be parsed if set
	if c.RecordInterval != nil && *c.RecordInterval != "" {
		d, err := time.ParseDuration(*c.RecordInterval)
		if err != nil {
			return fmt.Errorf("invalid record_interval '%s': %w", *c.RecordInterval, err)
		}
		if d <= 0 {
			return fmt.Errorf("record_interval must be positive, got %s", d)
		}
	}

	return nil
}

// GetStreamURL returns the stream_url value, or the empty string if unset.
func (c *LaunchConfig) GetStreamURL() string {
	if c.StreamURL == nil {
		return ""
	}
	return *c.StreamURL
}

// GetObjectType returns the object_type value or the default.
func (c *LaunchConfig) GetObjectType() string {
	if c.ObjectType == nil {
		return "car" // default
	}
	return *c.ObjectType
}

// GetAnalysisMode returns the analysis_mode value or the default.
func (c *LaunchConfig) GetAnalysisMode() session.Mode {
	if c.AnalysisMode == nil {
		return session.ModeDirectional // default
	}
	return session.Mode(*c.AnalysisMode)
}

// GetLineOrientation returns the line_orientation value or the default.
func (c *LaunchConfig) GetLineOrientation() count.Orientation {
	if c.LineOrientation == nil {
		return count.OrientationHorizontal // default
	}
	return count.Orientation(*c.LineOrientation)
}

// GetLinePosition returns the line_position value or the default.
func (c *LaunchConfig) GetLinePosition() float64 {
	if c.LinePosition == nil {
		return 0.5 // default: mid-frame
	}
	return *c.LinePosition
}

// GetAlgorithm returns the algorithm value or the default.
func (c *LaunchConfig) GetAlgorithm() count.Algorithm {
	if c.Algorithm == nil {
		return count.AlgorithmStandard // default
	}
	return count.Algorithm(*c.Algorithm)
}

// GetMinDisplacement returns the min_displacement value or the default.
func (c *LaunchConfig) GetMinDisplacement() float64 {
	if c.MinDisplacement == nil {
		return 20 // default, pixels
	}
	return *c.MinDisplacement
}

// GetRecordInterval parses and returns the RecordInterval as a time.Duration.
func (c *LaunchConfig) GetRecordInterval() time.Duration {
	if c.RecordInterval == nil || *c.RecordInterval == "" {
		return session.DefaultRecordInterval
	}
	d, err := time.ParseDuration(*c.RecordInterval)
	if err != nil {
		return session.DefaultRecordInterval // default on parse error
	}
	return d
}

// GetLineSpec assembles the crossing line from the line fields. The
// direction mode falls back to the orientation's natural axis when unset.
func (c *LaunchConfig) GetLineSpec() count.LineSpec {
	spec := count.LineSpec{
		Orientation: c.GetLineOrientation(),
		Position:    c.GetLinePosition(),
	}
	if c.DirectionMode != nil {
		spec.DirectionMode = count.DirectionMode(*c.DirectionMode)
	} else {
		spec.DirectionMode = spec.ResolveDirectionMode()
	}
	return spec
}
