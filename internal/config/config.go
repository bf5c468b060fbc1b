// Package config loads ringctl's topic configuration files: JSONC documents
// (parsed via hujson, tolerating trailing commas and comments in
// hand-edited config) describing one or more named topics and the Options
// each should join with.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tailscale/hujson"
)

// ConfigFileName is the default project config file name, checked in the
// working directory when no -config flag is given.
const ConfigFileName = ".ringbus.json"

// globalConfigDirName names the subdirectory ringctl's global config lives
// in, under $XDG_CONFIG_HOME or ~/.config.
const globalConfigDirName = "ringbus"

// TopicConfig mirrors ringbus.Options' JSON-facing fields. Durations are
// accepted as strings (e.g. "500ms") since encoding/json has no native
// time.Duration support.
type TopicConfig struct {
	Topic                 string `json:"topic"`
	MaxPublishers         uint32 `json:"max_publishers"`                    //nolint:tagliatelle
	MaxSubscribers        uint32 `json:"max_subscribers"`                   //nolint:tagliatelle
	MaxConcurrentAcquires uint32 `json:"max_concurrent_acquires,omitempty"` //nolint:tagliatelle
	UserVersion           uint64 `json:"user_version,omitempty"`           //nolint:tagliatelle
	JoinTimeout           string `json:"join_timeout,omitempty"`           //nolint:tagliatelle
	InitTimeout           string `json:"init_timeout,omitempty"`           //nolint:tagliatelle
	Dir                   string `json:"dir,omitempty"`
}

// Config is the top-level shape of a .ringbus.json file: a directory
// default shared by every topic that doesn't override it, plus the list of
// named topics ringctl knows about.
type Config struct {
	Dir    string        `json:"dir,omitempty"`
	Topics []TopicConfig `json:"topics"`
}

// Load reads and parses the config file at path. Missing files are not an
// error when path equals the default ConfigFileName location - callers
// that pass an explicit path expect it to exist.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // operator-supplied config path
	if err != nil {
		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("invalid JSONC in %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(standardized, &cfg); err != nil {
		return Config{}, fmt.Errorf("invalid JSON in %s: %w", path, err)
	}

	for i := range cfg.Topics {
		if cfg.Topics[i].Dir == "" {
			cfg.Topics[i].Dir = cfg.Dir
		}
	}

	return cfg, nil
}

// LoadDefault looks for ConfigFileName in workDir and returns a zero Config
// if it isn't present - an unconfigured directory is a valid state, not
// an error, since a caller may only want print-config or may resolve every
// topic via explicit -dir flags.
func LoadDefault(workDir string) (Config, error) {
	path := filepath.Join(workDir, ConfigFileName)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Config{}, nil
	}

	return Load(path)
}

// getGlobalConfigPath returns the path to the global config file: the
// operator's machine-wide topic defaults, shared across every project
// directory. Uses $XDG_CONFIG_HOME/ringbus/config.json if set, otherwise
// ~/.config/ringbus/config.json. env is searched before os.Getenv so
// callers can test this deterministically without mutating the process
// environment. Returns "" if no home directory can be determined.
func getGlobalConfigPath(env []string) string {
	for _, e := range env {
		if after, ok := strings.CutPrefix(e, "XDG_CONFIG_HOME="); ok {
			return filepath.Join(after, globalConfigDirName, "config.json")
		}
	}

	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, globalConfigDirName, "config.json")
	}

	home, err := os.UserHomeDir()
	if err == nil {
		return filepath.Join(home, ".config", globalConfigDirName, "config.json")
	}

	return ""
}

// LoadGlobal reads the global config file if one exists, returning a zero
// Config (and no error) when it's absent - most machines never have one.
func LoadGlobal(env []string) (Config, error) {
	path := getGlobalConfigPath(env)
	if path == "" {
		return Config{}, nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Config{}, nil
	}

	return Load(path)
}

// mergeConfig layers overlay on top of base: overlay.Dir replaces base.Dir
// when set, and overlay's topics replace same-named base topics (or are
// appended if base has no topic by that name). Used to fold the
// global/project/explicit config tiers into one Config in precedence
// order before CLI flags are applied on top.
func mergeConfig(base, overlay Config) Config {
	if overlay.Dir != "" {
		base.Dir = overlay.Dir
	}

	for _, t := range overlay.Topics {
		replaced := false

		for i := range base.Topics {
			if base.Topics[i].Topic == t.Topic {
				base.Topics[i] = t
				replaced = true

				break
			}
		}

		if !replaced {
			base.Topics = append(base.Topics, t)
		}
	}

	return base
}

// LoadAll resolves ringctl's full config precedence chain: defaults <
// global config < project config (or an explicit -config file) - CLI flag
// overrides (e.g. -dir) are layered on top by the caller per-command, since
// they're command-specific rather than part of this shared Config shape.
// explicitPath, if non-empty, is used instead of the default project
// config file location and must exist; env is the process environment used
// to resolve the global config path (pass os.Environ() in production).
func LoadAll(workDir, explicitPath string, env []string) (Config, error) {
	cfg, err := LoadGlobal(env)
	if err != nil {
		return Config{}, fmt.Errorf("loading global config: %w", err)
	}

	var project Config

	if explicitPath != "" {
		project, err = Load(explicitPath)
	} else {
		project, err = LoadDefault(workDir)
	}

	if err != nil {
		return Config{}, err
	}

	cfg = mergeConfig(cfg, project)

	for i := range cfg.Topics {
		if cfg.Topics[i].Dir == "" {
			cfg.Topics[i].Dir = cfg.Dir
		}
	}

	return cfg, nil
}

// Topic looks up a named topic's config, returning ok=false if absent.
func (c Config) Topic(name string) (TopicConfig, bool) {
	for _, t := range c.Topics {
		if t.Topic == name {
			return t, true
		}
	}

	return TopicConfig{}, false
}

// Duration parses a TopicConfig duration field, returning def if the field
// is empty.
func Duration(s string, def time.Duration) (time.Duration, error) {
	if s == "" {
		return def, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}

	return d, nil
}
