package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is the path to the canonical exploration defaults file.
// This is the single source of truth for all default exploration values.
const DefaultConfigPath = "config/exploration.defaults.json"

// ExplorationConfig represents the root configuration for frontier
// detection, clustering, fusion, ranking and scoring. Every field is
// optional; the Get* methods supply defaults for anything left unset.
type ExplorationConfig struct {
	// Frontier detection
	FrontierConnectivity *int  `json:"frontier_connectivity,omitempty" yaml:"frontier_connectivity,omitempty"`
	RequireFree          *bool `json:"require_free,omitempty" yaml:"require_free,omitempty"`

	// Clustering
	ClusterConnectivity *int `json:"cluster_connectivity,omitempty" yaml:"cluster_connectivity,omitempty"`
	MinClusterSize      *int `json:"min_cluster_size,omitempty" yaml:"min_cluster_size,omitempty"`

	// Ranking
	RankRadiusCells *int    `json:"rank_radius_cells,omitempty" yaml:"rank_radius_cells,omitempty"`
	RankMode        *string `json:"rank_mode,omitempty" yaml:"rank_mode,omitempty"` // "mean" or "max"

	// Observation fusion
	ObservationRadiusCells *int     `json:"observation_radius_cells,omitempty" yaml:"observation_radius_cells,omitempty"`
	FusionEpsilon          *float64 `json:"fusion_epsilon,omitempty" yaml:"fusion_epsilon,omitempty"`
	ConfidenceCap          *float64 `json:"confidence_cap,omitempty" yaml:"confidence_cap,omitempty"`

	// Scorer
	ScorerBackend *string `json:"scorer_backend,omitempty" yaml:"scorer_backend,omitempty"`
	ScorerSeed    *int    `json:"scorer_seed,omitempty" yaml:"scorer_seed,omitempty"`

	// Grid
	Resolution *float64 `json:"resolution,omitempty" yaml:"resolution,omitempty"`

	EnableDiagnostics *bool `json:"enable_diagnostics,omitempty" yaml:"enable_diagnostics,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyExplorationConfig returns an ExplorationConfig with all fields set to nil.
// Use LoadExplorationConfig to load actual values from the defaults file.
func EmptyExplorationConfig() *ExplorationConfig {
	return &ExplorationConfig{}
}

// DefaultExplorationConfig returns a config with every field populated
// with its default, matching config/exploration.defaults.json.
func DefaultExplorationConfig() *ExplorationConfig {
	return &ExplorationConfig{
		FrontierConnectivity:   ptrInt(4),
		RequireFree:            ptrBool(true),
		ClusterConnectivity:    ptrInt(8),
		MinClusterSize:         ptrInt(5),
		RankRadiusCells:        ptrInt(3),
		RankMode:               ptrString("mean"),
		ObservationRadiusCells: ptrInt(10),
		FusionEpsilon:          ptrFloat64(1e-6),
		ConfidenceCap:          ptrFloat64(1.0),
		ScorerBackend:          ptrString("hash"),
		ScorerSeed:             ptrInt(0),
		Resolution:             ptrFloat64(0.05),
		EnableDiagnostics:      ptrBool(false),
	}
}

// LoadExplorationConfig loads an ExplorationConfig from a JSON or YAML file.
// The file must have a .json, .yaml or .yml extension and be under 1MB.
// Fields omitted from the file retain their default values, so partial
// configs are safe.
func LoadExplorationConfig(path string) (*ExplorationConfig, error) {
	cleanPath := filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(cleanPath))
	if ext != ".json" && ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
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

	cfg := EmptyExplorationConfig()
	if ext == ".json" {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical defaults from DefaultConfigPath.
// It searches for the file in the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *ExplorationConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,       // from internal/config/
		"../../../" + DefaultConfigPath,    // from internal/explore/pipeline/
		"../../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadExplorationConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *ExplorationConfig) Validate() error {
	for name, v := range map[string]*int{
		"frontier_connectivity": c.FrontierConnectivity,
		"cluster_connectivity":  c.ClusterConnectivity,
	} {
		if v != nil && *v != 4 && *v != 8 {
			return fmt.Errorf("%s must be 4 or 8, got %d", name, *v)
		}
	}

	if c.MinClusterSize != nil && *c.MinClusterSize < 0 {
		return fmt.Errorf("min_cluster_size must be non-negative, got %d", *c.MinClusterSize)
	}
	if c.RankRadiusCells != nil && *c.RankRadiusCells < 0 {
		return fmt.Errorf("rank_radius_cells must be non-negative, got %d", *c.RankRadiusCells)
	}
	if c.ObservationRadiusCells != nil && *c.ObservationRadiusCells < 0 {
		return fmt.Errorf("observation_radius_cells must be non-negative, got %d", *c.ObservationRadiusCells)
	}

	if c.RankMode != nil {
		switch strings.ToLower(*c.RankMode) {
		case "mean", "max":
		default:
			return fmt.Errorf("rank_mode must be 'mean' or 'max', got '%s'", *c.RankMode)
		}
	}

	if c.FusionEpsilon != nil && *c.FusionEpsilon < 0 {
		return fmt.Errorf("fusion_epsilon must be non-negative, got %f", *c.FusionEpsilon)
	}
	if c.ConfidenceCap != nil {
		if *c.ConfidenceCap <= 0 || *c.ConfidenceCap > 1 {
			return fmt.Errorf("confidence_cap must be in (0, 1], got %f", *c.ConfidenceCap)
		}
	}
	if c.Resolution != nil && *c.Resolution <= 0 {
		return fmt.Errorf("resolution must be positive, got %f", *c.Resolution)
	}

	return nil
}

// GetFrontierConnectivity returns the frontier_connectivity value or the default.
func (c *ExplorationConfig) GetFrontierConnectivity() int {
	if c.FrontierConnectivity == nil {
		return 4
	}
	return *c.FrontierConnectivity
}

// GetRequireFree returns the require_free value or the default.
func (c *ExplorationConfig) GetRequireFree() bool {
	if c.RequireFree == nil {
		return true
	}
	return *c.RequireFree
}

// GetClusterConnectivity returns the cluster_connectivity value or the default.
func (c *ExplorationConfig) GetClusterConnectivity() int {
	if c.ClusterConnectivity == nil {
		return 8
	}
	return *c.ClusterConnectivity
}

// GetMinClusterSize returns the min_cluster_size value or the default.
func (c *ExplorationConfig) GetMinClusterSize() int {
	if c.MinClusterSize == nil {
		return 5
	}
	return *c.MinClusterSize
}

// GetRankRadiusCells returns the rank_radius_cells value or the default.
func (c *ExplorationConfig) GetRankRadiusCells() int {
	if c.RankRadiusCells == nil {
		return 3
	}
	return *c.RankRadiusCells
}

// GetRankMode returns the rank_mode value or the default.
func (c *ExplorationConfig) GetRankMode() string {
	if c.RankMode == nil || *c.RankMode == "" {
		return "mean"
	}
	return strings.ToLower(*c.RankMode)
}

// GetObservationRadiusCells returns the observation_radius_cells value or the default.
func (c *ExplorationConfig) GetObservationRadiusCells() int {
	if c.ObservationRadiusCells == nil {
		return 10
	}
	return *c.ObservationRadiusCells
}

// GetFusionEpsilon returns the fusion_epsilon value or the default.
func (c *ExplorationConfig) GetFusionEpsilon() float64 {
	if c.FusionEpsilon == nil {
		return 1e-6
	}
	return *c.FusionEpsilon
}

// GetConfidenceCap returns the confidence_cap value or the default.
func (c *ExplorationConfig) GetConfidenceCap() float64 {
	if c.ConfidenceCap == nil {
		return 1.0
	}
	return *c.ConfidenceCap
}

// GetScorerBackend returns the scorer_backend value or the default.
func (c *ExplorationConfig) GetScorerBackend() string {
	if c.ScorerBackend == nil || *c.ScorerBackend == "" {
		return "hash"
	}
	return *c.ScorerBackend
}

// GetScorerSeed returns the scorer_seed value or the default.
func (c *ExplorationConfig) GetScorerSeed() int {
	if c.ScorerSeed == nil {
		return 0
	}
	return *c.ScorerSeed
}

// GetResolution returns the resolution value or the default.
func (c *ExplorationConfig) GetResolution() float64 {
	if c.Resolution == nil {
		return 0.05
	}
	return *c.Resolution
}

// GetEnableDiagnostics returns the enable_diagnostics value or the default.
func (c *ExplorationConfig) GetEnableDiagnostics() bool {
	if c.EnableDiagnostics == nil {
		return false
	}
	return *c.EnableDiagnostics
}
