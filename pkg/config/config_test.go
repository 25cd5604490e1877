package config

import (
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg == nil {
		t.Fatal("DefaultConfig() returned nil")
	}

	if cfg.Module != "Main" {
		t.Errorf("Module = %q, want Main", cfg.Module)
	}
	if cfg.DeadCode.Mode != ModeLibrary {
		t.Errorf("DeadCode.Mode = %q, want library", cfg.DeadCode.Mode)
	}
	if !cfg.DeadCode.TreatPublicAsEntryPoint {
		t.Error("TreatPublicAsEntryPoint should be true by default")
	}
	if !cfg.DeadCode.TreatOpenAsEntryPoint {
		t.Error("TreatOpenAsEntryPoint should be true by default")
	}
	if len(cfg.DeadCode.EntryPointAttributes) == 0 {
		t.Error("EntryPointAttributes should have default values")
	}
	if len(cfg.DeadCode.FrameworkDispatchNames) == 0 {
		t.Error("FrameworkDispatchNames should have default values")
	}

	if !cfg.Exclude.Gitignore {
		t.Error("Exclude.Gitignore should be true by default")
	}
	if len(cfg.Exclude.Dirs) == 0 {
		t.Error("Exclude.Dirs should have default values")
	}

	if !cfg.Cache.Enabled {
		t.Error("Cache.Enabled should be true by default")
	}
	if cfg.Output.Format != "text" {
		t.Errorf("Output.Format = %q, want text", cfg.Output.Format)
	}
	if !cfg.Output.Color {
		t.Error("Output.Color should be true by default")
	}
}

func TestLoadTOML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "strictswift.toml")

	content := `
module = "MyApp"

[deadcode]
mode = "executable"
treat_public_as_entry_point = false
entry_point_attributes = ["main"]
ignored_prefixes = ["_", "legacy"]

[exclude]
dirs = ["Pods", "Generated"]
patterns = ["*.generated.swift"]

[cache]
enabled = false

[output]
format = "json"
`

	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Module != "MyApp" {
		t.Errorf("Module = %q, want MyApp", cfg.Module)
	}
	if cfg.DeadCode.Mode != ModeExecutable {
		t.Errorf("DeadCode.Mode = %q, want executable", cfg.DeadCode.Mode)
	}
	if cfg.DeadCode.TreatPublicAsEntryPoint {
		t.Error("TreatPublicAsEntryPoint should be false")
	}
	if len(cfg.DeadCode.IgnoredPrefixes) != 2 {
		t.Errorf("IgnoredPrefixes = %v, want 2 entries", cfg.DeadCode.IgnoredPrefixes)
	}
	if cfg.Cache.Enabled {
		t.Error("Cache.Enabled should be false")
	}
	if cfg.Output.Format != "json" {
		t.Errorf("Output.Format = %q, want json", cfg.Output.Format)
	}
}

func TestLoadYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "strictswift.yaml")

	doc := map[string]any{
		"module": "YamlApp",
		"deadcode": map[string]any{
			"mode":                    "library",
			"framework_dispatch_names": []string{"viewDidLoad", "body"},
		},
		"output": map[string]any{
			"format": "markdown",
		},
	}
	content, err := yaml.Marshal(doc)
	if err != nil {
		t.Fatalf("yaml.Marshal: %v", err)
	}

	if err := os.WriteFile(configPath, content, 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Module != "YamlApp" {
		t.Errorf("Module = %q, want YamlApp", cfg.Module)
	}
	if len(cfg.DeadCode.FrameworkDispatchNames) != 2 {
		t.Errorf("FrameworkDispatchNames = %v, want 2 entries", cfg.DeadCode.FrameworkDispatchNames)
	}
	if cfg.Output.Format != "markdown" {
		t.Errorf("Output.Format = %q, want markdown", cfg.Output.Format)
	}
}

func TestLoadJSON(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "strictswift.json")

	content := `{
  "module": "JsonApp",
  "deadcode": {
    "treat_open_as_entry_point": false,
    "enumerable_protocols": ["CaseIterable", "MyIterable"]
  },
  "exclude": {
    "max_file_size": 1024
  }
}`

	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Module != "JsonApp" {
		t.Errorf("Module = %q, want JsonApp", cfg.Module)
	}
	if cfg.DeadCode.TreatOpenAsEntryPoint {
		t.Error("TreatOpenAsEntryPoint should be false")
	}
	if len(cfg.DeadCode.EnumerableProtocols) != 2 {
		t.Errorf("EnumerableProtocols = %v, want 2 entries", cfg.DeadCode.EnumerableProtocols)
	}
	if cfg.Exclude.MaxFileSize != 1024 {
		t.Errorf("Exclude.MaxFileSize = %d, want 1024", cfg.Exclude.MaxFileSize)
	}
}

func TestLoadNonExistentFile(t *testing.T) {
	_, err := Load("/nonexistent/path/strictswift.toml")
	if err == nil {
		t.Error("Load() should return error for non-existent file")
	}
}

func TestLoadInvalidFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "strictswift.toml")

	content := `[deadcode
invalid toml`

	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() should return error for invalid config")
	}
}

func TestLoadOrDefault(t *testing.T) {
	// In a directory without config files, should return defaults
	tmpDir := t.TempDir()
	oldWd, _ := os.Getwd()
	defer os.Chdir(oldWd)

	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("Failed to change directory: %v", err)
	}

	cfg := LoadOrDefault()
	if cfg == nil {
		t.Fatal("LoadOrDefault() returned nil")
	}
	if cfg.Module != "Main" {
		t.Errorf("LoadOrDefault() returned non-default Module: %q", cfg.Module)
	}
}

func TestLoadOrDefaultWithConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	oldWd, _ := os.Getwd()
	defer os.Chdir(oldWd)

	content := `
module = "FromFile"
`
	if err := os.WriteFile(filepath.Join(tmpDir, "strictswift.toml"), []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("Failed to change directory: %v", err)
	}

	cfg := LoadOrDefault()
	if cfg.Module != "FromFile" {
		t.Errorf("LoadOrDefault() should load from file, got Module=%q", cfg.Module)
	}
}

func TestShouldExclude(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		path string
		want bool
	}{
		{"Pods/Alamofire/Source/Request.swift", true},
		{".build/checkouts/pkg/File.swift", true},
		{"Carthage/Build/File.swift", true},
		{"Sources/Model.generated.swift", true},
		{"Package.swift", true},

		{"Sources/App/Model.swift", false},
		{"Tests/AppTests/ModelTests.swift", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got := cfg.ShouldExclude(tt.path)
			if got != tt.want {
				t.Errorf("ShouldExclude(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestShouldExcludeCustomPatterns(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Exclude.Patterns = append(cfg.Exclude.Patterns, "*+Mock.swift")
	cfg.Exclude.Dirs = append(cfg.Exclude.Dirs, "Vendored")

	tests := []struct {
		path string
		want bool
	}{
		{"Sources/Services/API+Mock.swift", true},
		{"Vendored/Lib/File.swift", true},
		{"Sources/App/Main.swift", false},
		{"Sources/VendoredHelpers.swift", false}, // "Vendored" in name, not directory
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got := cfg.ShouldExclude(tt.path)
			if got != tt.want {
				t.Errorf("ShouldExclude(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}
