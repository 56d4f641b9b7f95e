// Package config loads fq settings.
//
// Resolution order (later overrides earlier):
//  1. Built-in defaults (embedded in the binary)
//  2. The user config file ($FQ_CONFIG or $XDG_CONFIG_HOME/fq/config.toml)
//
// The user file merges with the defaults; it only needs the fields it changes.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/forcequit/fq/internal/classify"
	"github.com/forcequit/fq/internal/terminate"
)

//go:embed defaults.toml
var defaultsTOML []byte

// Config is the complete fq configuration.
type Config struct {
	// EmptyName is the verdict for blank application names: "preserve" or "quit".
	EmptyName string `toml:"empty_name"`

	Essential EssentialConfig `toml:"essential"`
	Quit      QuitConfig      `toml:"quit"`
	UI        UIConfig        `toml:"ui"`
	Log       LogConfig       `toml:"log"`
}

// EssentialConfig extends or replaces the built-in allow-list.
type EssentialConfig struct {
	// ReplaceDefaults drops the built-in patterns and keywords.
	ReplaceDefaults bool `toml:"replace_defaults"`

	// Patterns are shorthand for substring rules.
	Patterns []string `toml:"patterns,omitempty"`

	// Rules carry an explicit match kind.
	Rules []RuleConfig `toml:"rule,omitempty"`

	// Keywords are extra OS-subsystem substrings.
	Keywords []string `toml:"keywords,omitempty"`
}

// RuleConfig is one [[essential.rule]] table.
type RuleConfig struct {
	Pattern string `toml:"pattern"`
	// Match is "exact", "prefix" or "substring" (default).
	Match string `toml:"match,omitempty"`
}

// QuitConfig controls how applications are stopped.
type QuitConfig struct {
	// Timeout bounds a single graceful quit request.
	Timeout Duration `toml:"timeout"`

	// KillPolicy is "always" or "on-failure".
	KillPolicy string `toml:"kill_policy"`

	// Backend is "auto", "macos" or "unix".
	Backend string `toml:"backend"`
}

// UIConfig holds presentation settings.
type UIConfig struct {
	Theme string `toml:"theme"`
}

// LogConfig controls the run log.
type LogConfig struct {
	Enabled bool `toml:"enabled"`
	// Path overrides the default run log location.
	Path string `toml:"path,omitempty"`
}

// Duration is a wrapper for time.Duration that supports TOML marshaling.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler for Duration.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler for Duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// String returns the duration as a string.
func (d Duration) String() string {
	return d.Duration.String()
}

// Default returns the built-in configuration.
func Default() *Config {
	var cfg Config
	if err := toml.Unmarshal(defaultsTOML, &cfg); err != nil {
		// The embedded file is part of the binary; failing here is a build bug.
		panic(fmt.Sprintf("parsing built-in defaults: %v", err))
	}
	return &cfg
}

// DefaultsTOML returns the embedded defaults file, for `fq config init`.
func DefaultsTOML() []byte {
	return append([]byte(nil), defaultsTOML...)
}

// Load returns the defaults overlaid with the file at path. A missing file is
// not an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	override, meta, err := loadOverride(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}

	merge(cfg, override, meta)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func loadOverride(path string) (*Config, toml.MetaData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, toml.MetaData{}, err
		}
		return nil, toml.MetaData{}, fmt.Errorf("reading %s: %w", path, err)
	}

	var override Config
	meta, err := toml.Decode(string(data), &override)
	if err != nil {
		return nil, meta, fmt.Errorf("parsing %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, meta, fmt.Errorf("parsing %s: unknown key %q", path, undecoded[0].String())
	}
	return &override, meta, nil
}

// merge applies the keys the user file actually set. Booleans use the
// metadata so that `enabled = false` is honoured.
func merge(base, override *Config, meta toml.MetaData) {
	if override.EmptyName != "" {
		base.EmptyName = override.EmptyName
	}

	if meta.IsDefined("essential", "replace_defaults") {
		base.Essential.ReplaceDefaults = override.Essential.ReplaceDefaults
	}
	// Lists append, so a user only names what they add.
	base.Essential.Patterns = append(base.Essential.Patterns, override.Essential.Patterns...)
	base.Essential.Rules = append(base.Essential.Rules, override.Essential.Rules...)
	base.Essential.Keywords = append(base.Essential.Keywords, override.Essential.Keywords...)

	if override.Quit.Timeout.Duration != 0 {
		base.Quit.Timeout = override.Quit.Timeout
	}
	if override.Quit.KillPolicy != "" {
		base.Quit.KillPolicy = override.Quit.KillPolicy
	}
	if override.Quit.Backend != "" {
		base.Quit.Backend = override.Quit.Backend
	}

	if override.UI.Theme != "" {
		base.UI.Theme = override.UI.Theme
	}

	if meta.IsDefined("log", "enabled") {
		base.Log.Enabled = override.Log.Enabled
	}
	if override.Log.Path != "" {
		base.Log.Path = override.Log.Path
	}
}

// Validate checks values that can be wrong in a user file.
func (c *Config) Validate() error {
	if _, err := classify.ParseEmptyPolicy(c.EmptyName); err != nil {
		return err
	}
	for _, r := range c.Essential.Rules {
		if _, err := classify.ParseMatchKind(r.Match); err != nil {
			return fmt.Errorf("rule %q: %w", r.Pattern, err)
		}
	}
	if _, err := terminate.ParseKillPolicy(c.Quit.KillPolicy); err != nil {
		return err
	}
	if c.Quit.Timeout.Duration < 0 {
		return fmt.Errorf("quit timeout must not be negative, got %s", c.Quit.Timeout)
	}
	return nil
}

// EssentialSet builds the classifier allow-list described by the config.
func (c *Config) EssentialSet() (*classify.EssentialSet, error) {
	empty, err := classify.ParseEmptyPolicy(c.EmptyName)
	if err != nil {
		return nil, err
	}

	var rules []classify.Rule
	var keywords []string
	if !c.Essential.ReplaceDefaults {
		rules = append(rules, classify.SubstringRules(classify.DefaultPatterns)...)
		keywords = append(keywords, classify.DefaultKeywords...)
	}

	rules = append(rules, classify.SubstringRules(c.Essential.Patterns)...)
	for _, r := range c.Essential.Rules {
		kind, err := classify.ParseMatchKind(r.Match)
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", r.Pattern, err)
		}
		rules = append(rules, classify.Rule{Pattern: r.Pattern, Match: kind})
	}
	keywords = append(keywords, c.Essential.Keywords...)

	return classify.New(rules, keywords, empty), nil
}
