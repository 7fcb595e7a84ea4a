// Package config loads the small set of defaults that can be preset outside
// of an invocation's command line: colored-output default, default pretty
// indent width, and the NDJSON worker pool's concurrency. Layering follows
// the harvx reference tool's own config philosophy -- a file provides
// defaults, explicit flags always win -- scaled down to this tool's much
// smaller surface, so it is decoded with github.com/BurntSushi/toml rather
// than pulling in a full layered-provider library.
package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds the decoded file defaults. Every field is a pointer so the
// CLI layer can tell "not set in the file" apart from "set to the zero
// value" when deciding whether a flag should override it. Concurrency is
// decoded but the CLI does not pass it on: the NDJSON worker pool always
// sizes itself from GOMAXPROCS.
type Config struct {
	Color       *bool `toml:"color"`
	IndentWidth *int  `toml:"indent_width"`
	Concurrency *int  `toml:"concurrency"`
	CompatMode  *bool `toml:"compat_mode"`
}

// DefaultPath returns "$HOME/.config/simdjq/config.toml", the file Load
// reads when no explicit path is given.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "simdjq", "config.toml"), nil
}

// Load reads and decodes path. A missing file is not an error -- it
// produces a zero-value Config, meaning "no overrides" -- since the tool
// must run with sensible built-in defaults even when unconfigured.
func Load(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadDefault loads the config at DefaultPath(), treating a failure to
// locate $HOME the same as "file not found": an empty Config.
func LoadDefault() Config {
	path, err := DefaultPath()
	if err != nil {
		return Config{}
	}
	cfg, err := Load(path)
	if err != nil {
		return Config{}
	}
	return cfg
}
