// Package taskfile defines the declarative task definition format and its
// loading. A taskfile describes one task: a name, an optional repeat count,
// and an ordered list of shell commands. Definitions are read once at
// startup from a directory; any file that cannot be read or decoded aborts
// the whole load.
//
// Both TOML and YAML taskfiles are supported, selected by file extension.
// A TOML taskfile looks like:
//
//	name = "rebuild"
//	repeat = 2
//
//	[[command]]
//	shell = "make clean"
//
//	[[command]]
//	shell = "make all -j4"
//	ignore_failure = true
//
// and the equivalent YAML:
//
//	name: rebuild
//	repeat: 2
//	commands:
//	  - shell: make clean
//	  - shell: make all -j4
//	    ignore_failure: true
package taskfile

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/taskdist/taskdist/internal/errors"
)

// Definition is the declarative description of a single task. It is
// read-only once produced by the loader.
type Definition struct {
	// Name identifies the task in log output. Required.
	Name string `toml:"name" yaml:"name"`

	// Repeat is the number of times the command sequence runs.
	// 0 means repeat forever; absent means 1.
	Repeat *uint `toml:"repeat,omitempty" yaml:"repeat,omitempty"`

	// Commands is the ordered command sequence. At least one is required.
	Commands []CommandDef `toml:"command" yaml:"commands"`
}

// CommandDef is one step of a task's pipeline.
type CommandDef struct {
	// Shell is the command text passed to the interpreter. Required.
	Shell string `toml:"shell" yaml:"shell"`

	// IgnoreFailure treats a failed run of this command as success.
	IgnoreFailure bool `toml:"ignore_failure,omitempty" yaml:"ignore_failure,omitempty"`

	// Parallel launches this command without blocking the ones after it.
	Parallel bool `toml:"parallel,omitempty" yaml:"parallel,omitempty"`
}

// RepeatCount resolves the effective repeat count: 1 when absent,
// otherwise the declared value (0 meaning forever).
func (d *Definition) RepeatCount() uint {
	if d.Repeat == nil {
		return 1
	}
	return *d.Repeat
}

// Format identifies a taskfile encoding.
type Format int

const (
	// FormatTOML is the TOML taskfile encoding (.toml).
	FormatTOML Format = iota
	// FormatYAML is the YAML taskfile encoding (.yaml, .yml).
	FormatYAML
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatTOML:
		return "toml"
	case FormatYAML:
		return "yaml"
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}

// FormatForPath selects the codec for a taskfile path by extension.
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return 0, fmt.Errorf("%w: %s", errors.ErrUnsupportedFormat, path)
	}
}

// Decode parses a taskfile body in the given format and validates it.
func Decode(data []byte, format Format) (*Definition, error) {
	var def Definition

	switch format {
	case FormatTOML:
		if err := toml.Unmarshal(data, &def); err != nil {
			return nil, err
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &def); err != nil {
			return nil, err
		}
	default:
		return nil, errors.ErrUnsupportedFormat
	}

	if err := def.validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// Encode serializes a Definition in the given format. Encode and Decode
// round-trip: decoding an encoded definition yields an identical one.
func Encode(def *Definition, format Format) ([]byte, error) {
	switch format {
	case FormatTOML:
		return toml.Marshal(def)
	case FormatYAML:
		return yaml.Marshal(def)
	default:
		return nil, errors.ErrUnsupportedFormat
	}
}

// validate rejects definitions the factory could not build a task from.
func (d *Definition) validate() error {
	if d.Name == "" {
		return errors.ErrMissingName
	}
	if len(d.Commands) == 0 {
		return errors.ErrNoCommands
	}
	for i, cmd := range d.Commands {
		if cmd.Shell == "" {
			return fmt.Errorf("%w (command %d)", errors.ErrMissingShell, i+1)
		}
	}
	return nil
}

// Load reads and decodes a single taskfile.
func Load(path string) (*Definition, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return Decode(data, format)
}

// LoadDir reads every taskfile in dir, in lexical filename order, and
// returns their definitions. Subdirectories are skipped. Any unreadable or
// undecodable file fails the whole load with a StartupError; partial loads
// are not supported.
func LoadDir(dir string) ([]*Definition, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.NewStartupError(dir, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(paths)

	defs := make([]*Definition, 0, len(paths))
	for _, path := range paths {
		def, err := Load(path)
		if err != nil {
			return nil, errors.NewStartupError(path, err)
		}
		defs = append(defs, def)
	}
	return defs, nil
}
