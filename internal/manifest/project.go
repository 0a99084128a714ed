package manifest

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ProjectConfig is the `ailang.yaml` project manifest: it declares the crate graph
// seed, an optional stdlib path override, and default CLI flags, the same three
// concerns the CLI would otherwise need repeating on every invocation. Parsed with
// gopkg.in/yaml.v3, since this is a small file a project author hand-edits rather
// than machine-generated tooling output.
type ProjectConfig struct {
	// Root is the directory `./src/**/*.an` and `./deps/*` are discovered relative to.
	// Empty means "the directory ailang.yaml itself lives in".
	Root string `yaml:"root,omitempty"`
	// StdlibPath overrides the built-in Std crate's source directory; empty leaves it
	// to the AILANG_STDLIB environment variable or the compiled-in default
	// (cmd/ailang's resolveStdlibPath implements the fallback order).
	StdlibPath string `yaml:"stdlib_path,omitempty"`
	// DefaultFlags holds per-project flag values (e.g. {"O": "2", "backend": "llvm"}).
	// It is parsed but cmd/ailang does not apply it to its flag set.
	DefaultFlags map[string]string `yaml:"default_flags,omitempty"`
}

// LoadProjectConfig reads and parses an ailang.yaml file. A missing file returns
// os.ReadFile's error unchanged, so os.IsNotExist on it tells "absent" from
// "malformed"; cmd/ailang's loadProjectConfig treats any error as "no manifest".
func LoadProjectConfig(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("manifest: parsing %s: %w", path, err)
	}
	return &cfg, nil
}
