package scum

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// ConfigFileName is the name of the project configuration file.
const ConfigFileName = "scum.toml"

// ProjectConfig represents a scum.toml project configuration file.
type ProjectConfig struct {
	// Prelude lists files loaded into every session, relative to the
	// directory containing scum.toml.
	Prelude []string `toml:"prelude"`

	// Arity selects the operand-count rule for the variadic builtins.
	Arity ArityPolicy `toml:"arity"`

	REPL REPLConfig `toml:"repl"`

	// Dir is the directory the config was loaded from.
	Dir string `toml:"-"`
}

// REPLConfig configures the interactive prompt.
type REPLConfig struct {
	Prompt  string `toml:"prompt,omitempty"`
	History string `toml:"history,omitempty"`
}

// LoadProjectConfig loads a scum.toml file from the given path.
func LoadProjectConfig(path string) (*ProjectConfig, error) {
	var config ProjectConfig
	md, err := toml.DecodeFile(path, &config)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("parsing %s: unknown key %s", path, undecoded[0])
	}
	config.Dir = filepath.Dir(path)
	return &config, nil
}

// FindProjectConfig looks for scum.toml in dir and its ancestors, stopping
// at the root of a git checkout. It returns ("", nil, nil) when there is none.
func FindProjectConfig(dir string) (string, *ProjectConfig, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", nil, err
	}
	for ; ; dir = filepath.Dir(dir) {
		path := filepath.Join(dir, ConfigFileName)
		switch _, err := os.Stat(path); {
		case err == nil:
			config, err := LoadProjectConfig(path)
			if err != nil {
				return "", nil, err
			}
			return path, config, nil
		case !errors.Is(err, fs.ErrNotExist):
			return "", nil, err
		}
		if exists(filepath.Join(dir, ".git")) || filepath.Dir(dir) == dir {
			return "", nil, nil
		}
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Options returns the session options the config selects.
func (c *ProjectConfig) Options() []Option {
	if c == nil {
		return nil
	}
	return []Option{
		WithArity(c.Arity),
		WithPrelude(c.PreludePaths()...),
	}
}

// PreludePaths resolves the prelude files against the config directory.
func (c *ProjectConfig) PreludePaths() []string {
	if c == nil {
		return nil
	}
	paths := make([]string, len(c.Prelude))
	for i, p := range c.Prelude {
		if !filepath.IsAbs(p) {
			p = filepath.Join(c.Dir, p)
		}
		paths[i] = p
	}
	return paths
}
