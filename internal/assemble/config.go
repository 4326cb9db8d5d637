package assemble

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/distkit/distkit/internal/log"
	"github.com/distkit/distkit/internal/platform"
)

// EntryPoint maps a launcher name to the application module it starts.
type EntryPoint struct {
	// Name is the launcher file name (without platform suffix)
	Name string `yaml:"name"`

	// Module is the Python module invoked with `-m`
	Module string `yaml:"module"`
}

// DefaultEntryPoints are the launchers every package carries: the CLI entry
// point and the long-running server.
func DefaultEntryPoints() []EntryPoint {
	return []EntryPoint{
		{Name: "distapp", Module: "distapp.cli"},
		{Name: "distapp-server", Module: "distapp.server"},
	}
}

// Config describes one assembly run.
type Config struct {
	// Version is the application version being packaged
	Version string `yaml:"version"`

	// Target is the platform the package is assembled for
	Target platform.Target `yaml:"-"`

	// TierName selects the optional component tier
	TierName string `yaml:"tier"`

	// ComponentOverride, when non-empty, replaces the tier's component set
	ComponentOverride []string `yaml:"component_override"`

	// RuntimePath is the pre-fetched embedded runtime to copy in. Must
	// exist and be non-empty before assembly starts.
	RuntimePath string `yaml:"runtime_path"`

	// AppSource is the directory holding the application distribution
	// (wheels or sources) installed into the embedded runtime
	AppSource string `yaml:"app_source"`

	// ComponentSource is where optional components are fetched from: a
	// local directory with one subdirectory per component ID, or an
	// http(s) base URL
	ComponentSource string `yaml:"component_source"`

	// ComponentChecksums optionally maps component IDs to expected
	// "blake3:<hex>" digests; a mismatch is fatal
	ComponentChecksums map[string]string `yaml:"component_checksums"`

	// OutputDir is where the package tree is created. Any stale tree at
	// this path is removed first.
	OutputDir string `yaml:"output_dir"`

	// EntryPoints overrides DefaultEntryPoints when non-empty
	EntryPoints []EntryPoint `yaml:"entry_points"`

	// SkipSelfCheck disables the final launcher version query
	SkipSelfCheck bool `yaml:"skip_self_check"`

	// SelfCheckTimeout bounds the self-check subprocess (default 10s)
	SelfCheckTimeout time.Duration `yaml:"self_check_timeout"`

	// Installer overrides the default pip-based application installer.
	// Nil means PipInstaller.
	Installer Installer `yaml:"-"`

	// Logger receives assembly progress. Nil means the default logger.
	Logger *log.Logger `yaml:"-"`
}

// Validate checks that the config names everything assembly needs.
func (c *Config) Validate() error {
	if c.Version == "" {
		return fmt.Errorf("version is required")
	}
	if c.Target.OS == "" {
		return fmt.Errorf("platform target is required")
	}
	if c.TierName == "" && len(c.ComponentOverride) == 0 {
		return fmt.Errorf("tier name is required")
	}
	if c.RuntimePath == "" {
		return fmt.Errorf("runtime path is required")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output directory is required")
	}
	return nil
}

// LoadConfigFile reads an assembly config from a YAML file. The platform
// identifier is carried in the file as `platform:` and resolved here, once.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var raw struct {
		Config   `yaml:",inline"`
		Platform string `yaml:"platform"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg := raw.Config
	if raw.Platform != "" {
		target, err := platform.Parse(raw.Platform)
		if err != nil {
			return nil, err
		}
		cfg.Target = target
	}
	return &cfg, nil
}
