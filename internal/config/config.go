package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileName is the base name of the project configuration file.
const FileName = "vhdl_senscheck.json"

// DefaultCacheDir is the model cache directory, relative to the project root.
const DefaultCacheDir = ".vhdl_senscheck_cache"

// Config is the top-level configuration for vhdl-senscheck
type Config struct {
	// Standard specifies the VHDL standard to use: "1993", "2002", "2008", "2019"
	Standard string `json:"standard,omitempty" yaml:"standard,omitempty"`

	// Files is an explicit list of files with optional library/language overrides
	Files []FileEntry `json:"files,omitempty" yaml:"files,omitempty"`

	// Libraries maps library names to their configuration
	Libraries map[string]LibraryConfig `json:"libraries,omitempty" yaml:"libraries,omitempty"`

	// Lint contains rule configuration
	Lint LintConfig `json:"lint,omitempty" yaml:"lint,omitempty"`

	// Analysis contains analysis options
	Analysis AnalysisConfig `json:"analysis,omitempty" yaml:"analysis,omitempty"`

	// Report controls where and how violations are written
	Report ReportConfig `json:"report,omitempty" yaml:"report,omitempty"`
}

// LibraryConfig defines a VHDL library's files and options
type LibraryConfig struct {
	// Files is a list of glob patterns for VHDL files in this library
	Files []string `json:"files" yaml:"files"`

	// Exclude is a list of glob patterns to exclude from this library
	Exclude []string `json:"exclude,omitempty" yaml:"exclude,omitempty"`

	// IsThirdParty marks the library as third-party; its files are not checked
	IsThirdParty bool `json:"isThirdParty,omitempty" yaml:"isThirdParty,omitempty"`
}

// FileEntry is an explicit file entry with optional library and language metadata
type FileEntry struct {
	File         string `json:"file" yaml:"file"`
	Library      string `json:"library,omitempty" yaml:"library,omitempty"`
	Language     string `json:"language,omitempty" yaml:"language,omitempty"`
	IsThirdParty bool   `json:"isThirdParty,omitempty" yaml:"isThirdParty,omitempty"`
}

// LintConfig contains rule configuration
type LintConfig struct {
	// Rules maps rule ids to "off", "warning" or "error"
	Rules map[string]string `json:"rules,omitempty" yaml:"rules,omitempty"`

	// IgnorePatterns is a list of file patterns to skip entirely
	IgnorePatterns []string `json:"ignorePatterns,omitempty" yaml:"ignorePatterns,omitempty"`
}

// CacheConfig controls the per-file model cache
type CacheConfig struct {
	// Enabled turns on cache usage
	Enabled *bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`

	// Dir is the cache directory (relative to project root if not absolute)
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty"`
}

// AnalysisConfig contains analysis options
type AnalysisConfig struct {
	// MaxParallelFiles limits concurrent file processing (0 = auto)
	MaxParallelFiles int `json:"maxParallelFiles,omitempty" yaml:"maxParallelFiles,omitempty"`

	// Cache controls the per-file model cache
	Cache CacheConfig `json:"cache,omitempty" yaml:"cache,omitempty"`
}

// ReportConfig controls the report sink
type ReportConfig struct {
	// Format is one of "text", "json", "yaml", "xml"
	Format string `json:"format,omitempty" yaml:"format,omitempty"`

	// Output is the report path; empty or "-" writes to stdout
	Output string `json:"output,omitempty" yaml:"output,omitempty"`

	// Waivers is a Rego file or directory of waiver policies
	Waivers string `json:"waivers,omitempty" yaml:"waivers,omitempty"`
}

// DefaultConfig returns a sensible default configuration
func DefaultConfig() *Config {
	return &Config{
		Standard: "2008",
		Libraries: map[string]LibraryConfig{
			"work": {
				Files:        []string{"*.vhd", "*.vhdl", "**/*.vhd", "**/*.vhdl"},
				Exclude:      []string{},
				IsThirdParty: false,
			},
		},
		Lint: LintConfig{
			Rules:          map[string]string{},
			IgnorePatterns: []string{},
		},
		Analysis: AnalysisConfig{
			MaxParallelFiles: 0, // auto
			Cache: CacheConfig{
				Enabled: boolPtr(true),
				Dir:     DefaultCacheDir,
			},
		},
		Report: ReportConfig{
			Format: "text",
		},
	}
}

func boolPtr(v bool) *bool {
	return &v
}

// Load finds and loads the configuration file
// Search order:
//  1. ./vhdl_senscheck.json (current working directory)
//  2. ./.vhdl_senscheck.json (current working directory)
//  3. <rootPath>/vhdl_senscheck.json (if different from cwd)
//  4. ~/.config/vhdl_senscheck/config.json
//
// YAML variants (.yaml) are tried next to each JSON name.
// Returns DefaultConfig if no config file is found
func Load(rootPath string) (*Config, error) {
	path, err := Find(rootPath)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadFile(path)
}

// Find returns the first existing configuration file in the search order, or
// "" when there is none.
func Find(rootPath string) (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting working directory: %w", err)
	}

	dirs := []string{cwd}
	if info, err := os.Stat(rootPath); err == nil && info.IsDir() {
		absRoot, _ := filepath.Abs(rootPath)
		if absRoot != cwd {
			dirs = append(dirs, absRoot)
		}
	}

	var searchPaths []string
	for _, dir := range dirs {
		for _, base := range []string{"vhdl_senscheck", ".vhdl_senscheck"} {
			searchPaths = append(searchPaths,
				filepath.Join(dir, base+".json"),
				filepath.Join(dir, base+".yaml"),
			)
		}
	}
	if home, err := os.UserHomeDir(); err == nil {
		searchPaths = append(searchPaths, filepath.Join(home, ".config", "vhdl_senscheck", "config.json"))
	}

	for _, path := range searchPaths {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", nil
}

// LoadFile loads configuration from a specific file. Files ending in .yaml or
// .yml are decoded as YAML, everything else as JSON.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if isYAML(path) {
		err = yaml.Unmarshal(data, &cfg)
	} else {
		err = json.Unmarshal(data, &cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply defaults for missing fields
	cfg.applyDefaults()

	return &cfg, nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// applyDefaults fills in missing configuration with defaults
func (c *Config) applyDefaults() {
	if c.Standard == "" {
		c.Standard = "2008"
	}

	if c.Libraries == nil {
		if len(c.Files) == 0 {
			c.Libraries = map[string]LibraryConfig{
				"work": {
					Files: []string{"*.vhd", "*.vhdl", "**/*.vhd", "**/*.vhdl"},
				},
			}
		} else {
			c.Libraries = map[string]LibraryConfig{}
		}
	}

	if c.Lint.Rules == nil {
		c.Lint.Rules = make(map[string]string)
	}

	if c.Analysis.MaxParallelFiles < 0 {
		c.Analysis.MaxParallelFiles = 0
	}
	if c.Analysis.Cache.Dir == "" {
		c.Analysis.Cache.Dir = DefaultCacheDir
	}
	if c.Analysis.Cache.Enabled == nil {
		c.Analysis.Cache.Enabled = boolPtr(true)
	}

	if c.Report.Format == "" {
		c.Report.Format = "text"
	}
}

// Save writes the configuration to a file, as YAML when the name ends in
// .yaml or .yml.
func (c *Config) Save(path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// GetRuleSeverity returns the severity for a rule, or the default if not
// configured. A rule at "warning" reports its findings without failing the run.
func (c *Config) GetRuleSeverity(rule string, defaultSeverity string) string {
	if severity, ok := c.Lint.Rules[rule]; ok {
		return severity
	}
	return defaultSeverity
}

// IsRuleEnabled returns true if the rule is not set to "off"
func (c *Config) IsRuleEnabled(rule string) bool {
	if severity, ok := c.Lint.Rules[rule]; ok {
		return severity != "off"
	}
	return true // enabled by default
}

// CacheEnabled reports whether the model cache is on.
func (c *Config) CacheEnabled() bool {
	if c == nil || c.Analysis.Cache.Enabled == nil {
		return true
	}
	return *c.Analysis.Cache.Enabled
}

// ShouldIgnoreFile checks if a file should be skipped entirely
func (c *Config) ShouldIgnoreFile(filePath string) bool {
	for _, pattern := range c.Lint.IgnorePatterns {
		if matched, _ := filepath.Match(pattern, filePath); matched {
			return true
		}
		if matched, _ := filepath.Match(pattern, filepath.Base(filePath)); matched {
			return true
		}
	}
	return false
}
