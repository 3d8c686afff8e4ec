package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultExplorationConfig(t *testing.T) {
	cfg := DefaultExplorationConfig()

	if cfg.FrontierConnectivity == nil || *cfg.FrontierConnectivity != 4 {
		t.Errorf("Expected FrontierConnectivity 4, got %v", cfg.FrontierConnectivity)
	}
	if cfg.ClusterConnectivity == nil || *cfg.ClusterConnectivity != 8 {
		t.Errorf("Expected ClusterConnectivity 8, got %v", cfg.ClusterConnectivity)
	}
	if cfg.RankMode == nil || *cfg.RankMode != "mean" {
		t.Errorf("Expected RankMode 'mean', got %v", cfg.RankMode)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestEmptyConfig_GettersReturnDefaults(t *testing.T) {
	cfg := EmptyExplorationConfig()

	if got := cfg.GetFrontierConnectivity(); got != 4 {
		t.Errorf("GetFrontierConnectivity() = %d, want 4", got)
	}
	if got := cfg.GetRequireFree(); got != true {
		t.Errorf("GetRequireFree() = %v, want true", got)
	}
	if got := cfg.GetClusterConnectivity(); got != 8 {
		t.Errorf("GetClusterConnectivity() = %d, want 8", got)
	}
	if got := cfg.GetMinClusterSize(); got != 5 {
		t.Errorf("GetMinClusterSize() = %d, want 5", got)
	}
	if got := cfg.GetRankRadiusCells(); got != 3 {
		t.Errorf("GetRankRadiusCells() = %d, want 3", got)
	}
	if got := cfg.GetRankMode(); got != "mean" {
		t.Errorf("GetRankMode() = %q, want mean", got)
	}
	if got := cfg.GetObservationRadiusCells(); got != 10 {
		t.Errorf("GetObservationRadiusCells() = %d, want 10", got)
	}
	if got := cfg.GetFusionEpsilon(); got != 1e-6 {
		t.Errorf("GetFusionEpsilon() = %g, want 1e-6", got)
	}
	if got := cfg.GetConfidenceCap(); got != 1.0 {
		t.Errorf("GetConfidenceCap() = %g, want 1", got)
	}
	if got := cfg.GetScorerBackend(); got != "hash" {
		t.Errorf("GetScorerBackend() = %q, want hash", got)
	}
	if got := cfg.GetScorerSeed(); got != 0 {
		t.Errorf("GetScorerSeed() = %d, want 0", got)
	}
	if got := cfg.GetResolution(); got != 0.05 {
		t.Errorf("GetResolution() = %g, want 0.05", got)
	}
	if got := cfg.GetEnableDiagnostics(); got != false {
		t.Errorf("GetEnableDiagnostics() = %v, want false", got)
	}
}

func TestLoadExplorationConfig_JSON(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "explore.json")

	testJSON := `{
  "cluster_connectivity": 4,
  "min_cluster_size": 20,
  "rank_mode": "MAX",
  "confidence_cap": 0.95
}`
	if err := os.WriteFile(configPath, []byte(testJSON), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := LoadExplorationConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.GetClusterConnectivity() != 4 {
		t.Errorf("cluster_connectivity = %d, want 4", cfg.GetClusterConnectivity())
	}
	if cfg.GetMinClusterSize() != 20 {
		t.Errorf("min_cluster_size = %d, want 20", cfg.GetMinClusterSize())
	}
	if cfg.GetRankMode() != "max" {
		t.Errorf("rank_mode = %q, want max", cfg.GetRankMode())
	}
	if cfg.GetConfidenceCap() != 0.95 {
		t.Errorf("confidence_cap = %g, want 0.95", cfg.GetConfidenceCap())
	}
	// Omitted fields keep defaults.
	if cfg.FrontierConnectivity != nil {
		t.Errorf("FrontierConnectivity should be nil when omitted, got %v", *cfg.FrontierConnectivity)
	}
	if cfg.GetObservationRadiusCells() != 10 {
		t.Errorf("observation_radius_cells = %d, want 10", cfg.GetObservationRadiusCells())
	}
}

func TestLoadExplorationConfig_YAML(t *testing.T) {
	tmpDir := t.TempDir()
	for _, name := range []string{"explore.yaml", "explore.yml"} {
		configPath := filepath.Join(tmpDir, name)
		testYAML := "require_free: false\nrank_radius_cells: 6\nscorer_seed: 42\nresolution: 0.1\n"
		if err := os.WriteFile(configPath, []byte(testYAML), 0644); err != nil {
			t.Fatalf("Failed to write test config: %v", err)
		}

		cfg, err := LoadExplorationConfig(configPath)
		if err != nil {
			t.Fatalf("%s: failed to load config: %v", name, err)
		}
		if cfg.GetRequireFree() != false {
			t.Errorf("%s: require_free = true, want false", name)
		}
		if cfg.GetRankRadiusCells() != 6 {
			t.Errorf("%s: rank_radius_cells = %d, want 6", name, cfg.GetRankRadiusCells())
		}
		if cfg.GetScorerSeed() != 42 {
			t.Errorf("%s: scorer_seed = %d, want 42", name, cfg.GetScorerSeed())
		}
		if cfg.GetResolution() != 0.1 {
			t.Errorf("%s: resolution = %g, want 0.1", name, cfg.GetResolution())
		}
	}
}

func TestLoadExplorationConfig_Errors(t *testing.T) {
	tmpDir := t.TempDir()

	write := func(name, body string) string {
		p := filepath.Join(tmpDir, name)
		if err := os.WriteFile(p, []byte(body), 0644); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
		return p
	}

	cases := []struct {
		name    string
		path    string
		wantErr string
	}{
		{"bad extension", write("explore.toml", "x = 1"), "extension"},
		{"missing file", filepath.Join(tmpDir, "nope.json"), "stat"},
		{"bad json", write("bad.json", "{"), "parse config JSON"},
		{"bad yaml", write("bad.yaml", "rank_mode: [unterminated"), "parse config YAML"},
		{"invalid connectivity", write("conn.json", `{"frontier_connectivity": 6}`), "frontier_connectivity must be 4 or 8"},
		{"invalid rank mode", write("mode.json", `{"rank_mode": "median"}`), "rank_mode"},
		{"invalid cap", write("cap.json", `{"confidence_cap": 1.5}`), "confidence_cap"},
		{"zero cap", write("cap0.json", `{"confidence_cap": 0}`), "confidence_cap"},
		{"negative radius", write("rad.json", `{"rank_radius_cells": -1}`), "rank_radius_cells"},
		{"negative obs radius", write("obs.json", `{"observation_radius_cells": -2}`), "observation_radius_cells"},
		{"negative min size", write("min.json", `{"min_cluster_size": -5}`), "min_cluster_size"},
		{"negative epsilon", write("eps.json", `{"fusion_epsilon": -1}`), "fusion_epsilon"},
		{"zero resolution", write("res.json", `{"resolution": 0}`), "resolution"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadExplorationConfig(tc.path)
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tc.wantErr)
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error %q does not contain %q", err.Error(), tc.wantErr)
			}
		})
	}
}

func TestLoadExplorationConfig_TooLarge(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "big.json")

	big := make([]byte, 1024*1024+1)
	for i := range big {
		big[i] = ' '
	}
	if err := os.WriteFile(configPath, big, 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	_, err := LoadExplorationConfig(configPath)
	if err == nil || !strings.Contains(err.Error(), "too large") {
		t.Errorf("expected too-large error, got %v", err)
	}
}

func TestMustLoadDefaultConfig(t *testing.T) {
	cfg := MustLoadDefaultConfig()
	want := DefaultExplorationConfig()

	if cfg.GetFrontierConnectivity() != want.GetFrontierConnectivity() {
		t.Errorf("frontier_connectivity = %d, want %d", cfg.GetFrontierConnectivity(), want.GetFrontierConnectivity())
	}
	if cfg.GetMinClusterSize() != want.GetMinClusterSize() {
		t.Errorf("min_cluster_size = %d, want %d", cfg.GetMinClusterSize(), want.GetMinClusterSize())
	}
	if cfg.GetRankMode() != want.GetRankMode() {
		t.Errorf("rank_mode = %q, want %q", cfg.GetRankMode(), want.GetRankMode())
	}
	if cfg.GetFusionEpsilon() != want.GetFusionEpsilon() {
		t.Errorf("fusion_epsilon = %g, want %g", cfg.GetFusionEpsilon(), want.GetFusionEpsilon())
	}
	if cfg.GetScorerBackend() != want.GetScorerBackend() {
		t.Errorf("scorer_backend = %q, want %q", cfg.GetScorerBackend(), want.GetScorerBackend())
	}
}
