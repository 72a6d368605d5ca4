// Package config loads quartz.toml.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// FileName is the name of the configuration file searched for.
const FileName = "quartz.toml"

// Config represents a quartz.toml configuration file.
type Config struct {
	Numeric Numeric `toml:"numeric"`
	Macros  Macros  `toml:"macros"`
	Log     Log     `toml:"log"`

	// Prelude lists extra definition files (relative to quartz.toml) that
	// are loaded before user code.
	Prelude []string `toml:"prelude,omitempty"`

	// Dir is the directory the config was loaded from.
	Dir string `toml:"-"`
}

// Numeric configures the numeric tower.
type Numeric struct {
	// IntLiteral and FloatLiteral name the kinds given to unsuffixed
	// literals.
	IntLiteral   string `toml:"int_literal"`
	FloatLiteral string `toml:"float_literal"`

	Kinds      []NumericKind `toml:"kinds"`
	Promotions []Promotion   `toml:"promotions,omitempty"`
}

// NumericKind is one member of the tower.
type NumericKind struct {
	Name   string `toml:"name"`
	Size   int    `toml:"size"`
	Float  bool   `toml:"float"`
	Signed bool   `toml:"signed"`
}

// Promotion overrides the result kind of a binary operation.
type Promotion struct {
	Left   string `toml:"left"`
	Right  string `toml:"right"`
	Result string `toml:"result"`
}

// Macros configures the external macro expander.
type Macros struct {
	// Command is the argv of a JSON-RPC macro server speaking over stdio.
	Command []string `toml:"command,omitempty"`
}

// Log configures logging.
type Log struct {
	Level string `toml:"level,omitempty"`
}

// Default returns the built-in configuration: the Int8..Int64,
// UInt8..UInt64, Float32, Float64 tower with Int32 and Float64 literals.
func Default() Config {
	var kinds []NumericKind
	for _, size := range []int{1, 2, 4, 8} {
		kinds = append(kinds, NumericKind{Name: fmt.Sprintf("Int%d", size*8), Size: size, Signed: true})
	}
	for _, size := range []int{1, 2, 4, 8} {
		kinds = append(kinds, NumericKind{Name: fmt.Sprintf("UInt%d", size*8), Size: size})
	}
	kinds = append(kinds,
		NumericKind{Name: "Float32", Size: 4, Float: true, Signed: true},
		NumericKind{Name: "Float64", Size: 8, Float: true, Signed: true},
	)
	return Config{
		Numeric: Numeric{
			IntLiteral:   "Int32",
			FloatLiteral: "Float64",
			Kinds:        kinds,
		},
		Log: Log{Level: "info"},
	}
}

// Load reads a config file over the defaults. A file that lists numeric
// kinds replaces the default tower entirely.
func Load(path string) (Config, error) {
	cfg := Default()
	var file Config
	md, err := toml.DecodeFile(path, &file)
	if err != nil {
		return cfg, fmt.Errorf("parsing %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		slog.Warn("unknown config keys", "path", path, "keys", fmt.Sprint(undecoded))
	}
	if len(file.Numeric.Kinds) > 0 {
		cfg.Numeric.Kinds = file.Numeric.Kinds
	}
	if file.Numeric.IntLiteral != "" {
		cfg.Numeric.IntLiteral = file.Numeric.IntLiteral
	}
	if file.Numeric.FloatLiteral != "" {
		cfg.Numeric.FloatLiteral = file.Numeric.FloatLiteral
	}
	cfg.Numeric.Promotions = file.Numeric.Promotions
	cfg.Macros = file.Macros
	if file.Log.Level != "" {
		cfg.Log.Level = file.Log.Level
	}
	cfg.Prelude = file.Prelude
	cfg.Dir = filepath.Dir(path)
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Find searches for quartz.toml starting from dir and walking up to parent
// directories, stopping at a .git boundary. It returns the defaults if no
// file is found.
func Find(dir string) (Config, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return Default(), err
	}
	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}

		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return Default(), nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return Default(), nil
		}
		dir = parent
	}
}

// Validate checks that literal kinds and promotions name declared kinds.
func (c Config) Validate() error {
	n := c.Numeric
	if len(n.Kinds) == 0 {
		return fmt.Errorf("numeric: no kinds declared")
	}
	seen := map[string]bool{}
	for _, k := range n.Kinds {
		if k.Name == "" {
			return fmt.Errorf("numeric: kind without a name")
		}
		if seen[k.Name] {
			return fmt.Errorf("numeric: kind %s declared twice", k.Name)
		}
		seen[k.Name] = true
	}
	for _, name := range []string{n.IntLiteral, n.FloatLiteral} {
		if !seen[name] {
			return fmt.Errorf("numeric: literal kind %s is not declared", name)
		}
	}
	for _, p := range n.Promotions {
		for _, name := range []string{p.Left, p.Right, p.Result} {
			if !seen[name] {
				return fmt.Errorf("numeric: promotion %s+%s mentions undeclared kind %s", p.Left, p.Right, name)
			}
		}
	}
	return nil
}

// Kind returns the named kind.
func (n Numeric) Kind(name string) (NumericKind, bool) {
	for _, k := range n.Kinds {
		if k.Name == name {
			return k, true
		}
	}
	return NumericKind{}, false
}

// Promote returns the kind produced by a binary operation on left and
// right. Explicit promotions win; otherwise floats beat integers, wider
// beats narrower, and ties keep the left operand.
func (n Numeric) Promote(left, right string) string {
	for _, p := range n.Promotions {
		if p.Left == left && p.Right == right {
			return p.Result
		}
	}
	l, _ := n.Kind(left)
	r, _ := n.Kind(right)
	switch {
	case l.Float != r.Float:
		if r.Float {
			return right
		}
		return left
	case r.Size > l.Size:
		return right
	}
	return left
}

// LogLevel parses Log.Level.
func (c Config) LogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(c.Log.Level))); err != nil {
		return slog.LevelInfo
	}
	return level
}

// PreludePaths resolves Prelude entries against the config directory.
func (c Config) PreludePaths() []string {
	out := make([]string, len(c.Prelude))
	for i, p := range c.Prelude {
		if !filepath.IsAbs(p) && c.Dir != "" {
			p = filepath.Join(c.Dir, p)
		}
		out[i] = p
	}
	return out
}
