package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/alnah/go-markdown/internal/fileutil"
	"github.com/alnah/go-markdown/internal/yamlutil"
	"github.com/alnah/go-markdown/serializer"
	"github.com/alnah/go-markdown/session"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// Field length limits.
const (
	MaxPathLength            = 4096
	MaxTitleLength           = 200
	MaxReplacementTextLength = 200
	MaxExtensionNameLength   = 50
	MaxStyleNameLength       = 50
)

// Tab length bounds accepted in a config file. Zero keeps the library default.
const (
	MinTabLength = 1
	MaxTabLength = 16
)

// Names of the extensions a config file may enable.
const (
	ExtTables     = "tables"
	ExtMeta       = "meta"
	ExtCodeHilite = "codehilite"
	ExtTOC        = "toc"
)

// KnownExtensions lists the extension names in registration order.
var KnownExtensions = []string{ExtTables, ExtMeta, ExtCodeHilite, ExtTOC}

// Config holds the CLI configuration.
type Config struct {
	Markdown   MarkdownConfig    `yaml:"markdown"`
	Output     OutputConfig      `yaml:"output"`
	Extensions []ExtensionConfig `yaml:"extensions"`
}

// MarkdownConfig holds the conversion options. Nil booleans keep the
// library defaults.
type MarkdownConfig struct {
	SafeMode         string `yaml:"safeMode"`        // "", "replace", "remove", "escape"
	ReplacementText  string `yaml:"replacementText"` // used by safeMode "replace"
	TabLength        int    `yaml:"tabLength"`       // 0 = default (4)
	LazyOL           *bool  `yaml:"lazyOL"`
	SmartEmphasis    *bool  `yaml:"smartEmphasis"`
	EnableAttributes *bool  `yaml:"enableAttributes"`
}

// OutputConfig defines what is written and where.
type OutputConfig struct {
	Format     string `yaml:"format"`     // html4, html5, xhtml1, xhtml5 (empty = xhtml1)
	Dir        string `yaml:"dir"`        // empty = next to the source
	Standalone bool   `yaml:"standalone"` // wrap the fragment in a full page
	CSS        string `yaml:"css"`        // stylesheet file injected into standalone pages
	Style      string `yaml:"style"`      // built-in style name, used when css is empty
	Title      string `yaml:"title"`      // empty = first h1
	PDF        bool   `yaml:"pdf"`        // render the standalone page to PDF
}

// ExtensionConfig enables one extension with its settings.
type ExtensionConfig struct {
	Name   string         `yaml:"name"`
	Config map[string]any `yaml:"config"`
}

// Validate checks enumerations and field lengths.
// Called automatically by LoadConfig, but available for consumers
// who construct Config manually.
func (c *Config) Validate() error {
	if !session.SafeMode(c.Markdown.SafeMode).Valid() {
		return fmt.Errorf("%w: markdown.safeMode %q (must be replace, remove, or escape)", ErrInvalidValue, c.Markdown.SafeMode)
	}
	if err := validateFieldLength("markdown.replacementText", c.Markdown.ReplacementText, MaxReplacementTextLength); err != nil {
		return err
	}
	if n := c.Markdown.TabLength; n != 0 && (n < MinTabLength || n > MaxTabLength) {
		return fmt.Errorf("%w: markdown.tabLength must be between %d and %d, got %d", ErrInvalidValue, MinTabLength, MaxTabLength, n)
	}

	if c.Output.Format != "" {
		if _, err := serializer.ParseFormat(c.Output.Format); err != nil {
			return fmt.Errorf("%w: output.format: %v", ErrInvalidValue, err)
		}
	}
	if err := validateFieldLength("output.dir", c.Output.Dir, MaxPathLength); err != nil {
		return err
	}
	if err := validateFieldLength("output.css", c.Output.CSS, MaxPathLength); err != nil {
		return err
	}
	if err := validateFieldLength("output.style", c.Output.Style, MaxStyleNameLength); err != nil {
		return err
	}
	if err := validateFieldLength("output.title", c.Output.Title, MaxTitleLength); err != nil {
		return err
	}

	seen := make(map[string]bool, len(c.Extensions))
	for i, ext := range c.Extensions {
		field := fmt.Sprintf("extensions[%d].name", i)
		if err := validateFieldLength(field, ext.Name, MaxExtensionNameLength); err != nil {
			return err
		}
		if !slices.Contains(KnownExtensions, ext.Name) {
			return fmt.Errorf("%w: %s: unknown extension %q (must be one of %s)",
				ErrInvalidValue, field, ext.Name, strings.Join(KnownExtensions, ", "))
		}
		if seen[ext.Name] {
			return fmt.Errorf("%w: %s: extension %q listed twice", ErrInvalidValue, field, ext.Name)
		}
		seen[ext.Name] = true
	}

	return nil
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// DefaultConfig returns a configuration that keeps every library default
// and enables no extension.
func DefaultConfig() *Config {
	return &Config{}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	var configPath string
	var err error

	if fileutil.IsFilePath(nameOrPath) {
		configPath = nameOrPath
	} else {
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yamlutil.UnmarshalStrict(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// resolveConfigPath searches for a config file by name in standard locations.
// Tries extensions in order: .yaml, .yml
// Tries locations in order: current directory, ~/.config/go-markdown/
func resolveConfigPath(name string) (string, error) {
	extensions := []string{".yaml", ".yml"}
	triedPaths := make([]string, 0, len(extensions)*2) // 2 locations

	for _, ext := range extensions {
		localPath := name + ext
		if fileutil.FileExists(localPath) {
			return localPath, nil
		}
		triedPaths = append(triedPaths, localPath)
	}

	userConfigDir, err := os.UserConfigDir()
	if err == nil {
		for _, ext := range extensions {
			userPath := filepath.Join(userConfigDir, "go-markdown", name+ext)
			if fileutil.FileExists(userPath) {
				return userPath, nil
			}
			triedPaths = append(triedPaths, userPath)
		}
	}

	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(triedPaths, ", "))
}
