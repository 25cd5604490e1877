package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration options for strictswift.
type Config struct {
	// Module is the name used when deriving symbol identities.
	Module string `koanf:"module"`

	// DeadCode controls entry point and classification behavior.
	DeadCode DeadCodeConfig `koanf:"deadcode"`

	// Exclude defines file exclusion patterns.
	Exclude ExcludeConfig `koanf:"exclude"`

	// Cache settings for the file fingerprint manifest.
	Cache CacheConfig `koanf:"cache"`

	// Output settings
	Output OutputConfig `koanf:"output"`
}

// AnalysisMode selects the default entry point policy.
type AnalysisMode string

const (
	// ModeLibrary treats exported declarations as entry points.
	ModeLibrary AnalysisMode = "library"
	// ModeExecutable treats only explicit entry markers as entry points.
	ModeExecutable AnalysisMode = "executable"
)

// DeadCodeConfig configures the dead code analyzer.
type DeadCodeConfig struct {
	// Mode selects the entry point policy. In executable mode the two
	// accessibility flags below are inert: exported declarations need a
	// real reference, an entry attribute, or a dispatch name to be live.
	Mode                       AnalysisMode `koanf:"mode"`
	TreatPublicAsEntryPoint    bool         `koanf:"treat_public_as_entry_point"`
	TreatOpenAsEntryPoint      bool         `koanf:"treat_open_as_entry_point"`
	EntryPointAttributes       []string     `koanf:"entry_point_attributes"`
	EntryPointFilePatterns     []string     `koanf:"entry_point_file_patterns"`
	FrameworkDispatchNames     []string     `koanf:"framework_dispatch_names"`
	IgnoredPatterns            []string     `koanf:"ignored_patterns"`
	IgnoredPrefixes            []string     `koanf:"ignored_prefixes"`
	EnumerableProtocols        []string     `koanf:"enumerable_protocols"`
	SynthesizedMemberProtocols []string     `koanf:"synthesized_member_protocols"`
	SynthesizedMemberNames     []string     `koanf:"synthesized_member_names"`
}

// ExcludeConfig defines file exclusion patterns.
type ExcludeConfig struct {
	Patterns    []string `koanf:"patterns"`
	Dirs        []string `koanf:"dirs"`
	Gitignore   bool     `koanf:"gitignore"`
	MaxFileSize int64    `koanf:"max_file_size"`
}

// CacheConfig controls the fingerprint manifest used for incremental runs.
type CacheConfig struct {
	Enabled bool   `koanf:"enabled"`
	Dir     string `koanf:"dir"`
}

// OutputConfig controls output formatting.
type OutputConfig struct {
	Format  string `koanf:"format"` // text, json, markdown, toon
	Color   bool   `koanf:"color"`
	Verbose bool   `koanf:"verbose"`
}

// DefaultConfig returns a config with sensible defaults for analyzing a
// Swift package in library mode.
func DefaultConfig() *Config {
	return &Config{
		Module: "Main",
		DeadCode: DeadCodeConfig{
			Mode:                    ModeLibrary,
			TreatPublicAsEntryPoint: true,
			TreatOpenAsEntryPoint:   true,
			EntryPointAttributes: []string{
				"main",
				"UIApplicationMain",
				"NSApplicationMain",
				"objc",
				"IBAction",
				"IBOutlet",
				"IBSegueAction",
				"cdecl",
			},
			EntryPointFilePatterns: []string{
				"main.swift",
				"*Tests.swift",
				"*Test.swift",
			},
			FrameworkDispatchNames: []string{
				"viewDidLoad",
				"viewWillAppear",
				"viewDidAppear",
				"viewWillDisappear",
				"viewDidDisappear",
				"applicationDidFinishLaunching",
				"applicationWillTerminate",
				"sceneDidBecomeActive",
				"awakeFromNib",
				"prepare",
				"encode",
				"init",
				"deinit",
				"body",
				"run",
				"main",
			},
			IgnoredPatterns: []string{},
			IgnoredPrefixes: []string{"_"},
			EnumerableProtocols: []string{
				"CaseIterable",
			},
			SynthesizedMemberProtocols: []string{
				"Codable",
				"Encodable",
				"Decodable",
				"Equatable",
				"Hashable",
				"RawRepresentable",
			},
			SynthesizedMemberNames: []string{
				"init",
				"encode",
				"hash",
				"rawValue",
			},
		},
		Exclude: ExcludeConfig{
			Patterns: []string{
				"*.generated.swift",
				"Package.swift",
			},
			Dirs: []string{
				".build",
				".git",
				".strictswift",
				"Pods",
				"Carthage",
				"DerivedData",
			},
			Gitignore:   true,
			MaxFileSize: 2 * 1024 * 1024,
		},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     ".strictswift/cache",
		},
		Output: OutputConfig{
			Format:  "text",
			Color:   true,
			Verbose: false,
		},
	}
}

// Load loads configuration from a file, choosing the parser by extension.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	var parser koanf.Parser
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".toml":
		parser = toml.Parser()
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		parser = toml.Parser()
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadOrDefault tries to load config from standard locations or returns defaults.
func LoadOrDefault() *Config {
	configNames := []string{
		"strictswift.toml",
		"strictswift.yaml",
		"strictswift.yml",
		"strictswift.json",
		".strictswift.toml",
		".strictswift.yaml",
		".strictswift.yml",
		".strictswift.json",
	}

	searchDirs := []string{".", ".strictswift"}

	for _, dir := range searchDirs {
		for _, name := range configNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				cfg, err := Load(path)
				if err == nil {
					return cfg
				}
			}
		}
	}

	return DefaultConfig()
}

// ShouldExclude checks if a path should be excluded from analysis.
func (c *Config) ShouldExclude(path string) bool {
	for _, dir := range c.Exclude.Dirs {
		if strings.Contains(path, string(filepath.Separator)+dir+string(filepath.Separator)) ||
			strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}

	base := filepath.Base(path)
	for _, pattern := range c.Exclude.Patterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}

	return false
}
