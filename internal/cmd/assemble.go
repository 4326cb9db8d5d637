package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/distkit/distkit/internal/assemble"
	"github.com/distkit/distkit/internal/manifest"
	"github.com/distkit/distkit/internal/platform"
	"github.com/distkit/distkit/internal/tier"
)

var assembleCmd = &cobra.Command{
	Use:   "assemble",
	Short: "Assemble an offline distribution package",
	Long: `Assemble a self-contained package for one platform and tier.

Assembly copies the embedded runtime, installs the application into it,
prefetches the tier's optional components, generates platform-appropriate
launchers, and writes the build manifest last. A failed prefetch of an
optional component downgrades to a warning; everything else is fatal and
removes the partial tree.

Examples:
  # Assemble a standard-tier linux package
  distkit assemble --version 1.4.0 --platform linux-x64 --tier standard \
    --runtime ./runtimes/cpython-3.12-linux-x64 --app-source ./dist \
    --component-source https://components.example.com --output ./out/distapp

  # Drive assembly from a YAML config
  distkit assemble --config assembly.yaml

  # Override the tier's component set
  distkit assemble --config assembly.yaml --component python --component go`,
	Args: cobra.NoArgs,
	RunE: runAssemble,
}

var (
	assembleConfigFile      string
	assembleVersion         string
	assemblePlatform        string
	assembleTier            string
	assembleComponents      []string
	assembleRuntimePath     string
	assembleAppSource       string
	assembleComponentSource string
	assembleOutputDir       string
	assembleSkipSelfCheck   bool
	assembleSelfCheckWait   time.Duration
	assembleArchive         string
)

func init() {
	flags := assembleCmd.Flags()
	flags.StringVarP(&assembleConfigFile, "config", "c", "", "YAML assembly config file")
	flags.StringVar(&assembleVersion, "version", "", "application version to package")
	flags.StringVarP(&assemblePlatform, "platform", "p",
		envString("DISTKIT_PLATFORM", ""), "target platform (e.g. linux-x64, win-x64)")
	flags.StringVarP(&assembleTier, "tier", "t", "", "component tier (minimal, standard, full)")
	flags.StringArrayVar(&assembleComponents, "component", nil,
		"component ID to include, replacing the tier's set (repeatable)")
	flags.StringVar(&assembleRuntimePath, "runtime", "", "pre-fetched embedded runtime directory")
	flags.StringVar(&assembleAppSource, "app-source", "", "application distribution directory")
	flags.StringVar(&assembleComponentSource, "component-source", "",
		"component source: local directory or http(s) base URL")
	flags.StringVarP(&assembleOutputDir, "output", "o", "", "package output directory")
	flags.BoolVar(&assembleSkipSelfCheck, "skip-self-check", false,
		"skip the final launcher version query")
	flags.DurationVar(&assembleSelfCheckWait, "self-check-timeout", 0,
		"self-check subprocess budget (default 10s)")
	flags.StringVar(&assembleArchive, "archive", "",
		"additionally write a tar.gz of the assembled tree to this path")

	rootCmd.AddCommand(assembleCmd)
}

func runAssemble(cmd *cobra.Command, args []string) error {
	cfg, err := buildAssembleConfig()
	if err != nil {
		return err
	}

	assembler, err := assemble.New(*cfg)
	if err != nil {
		return err
	}

	result, err := assembler.Assemble(cmd.Context())
	if err != nil {
		return err
	}

	m := result.Manifest
	fmt.Printf("Assembled %s %s (%s) at %s\n", "distapp", m.Version, m.Platform, result.Layout.Root)
	fmt.Printf("  build:      %s\n", m.BuildID)
	fmt.Printf("  tier:       %s (%d components, ~%d MB)\n",
		tierLabel(m), len(m.Components), tier.TotalSize(m.Components)>>20)
	if len(m.ComponentsMissing) > 0 {
		fmt.Printf("  missing:    %v (prefetch failed, package remains usable)\n", m.ComponentsMissing)
	}
	if result.SelfCheckVersion != "" {
		fmt.Printf("  self-check: launcher reports %s\n", result.SelfCheckVersion)
	}

	if assembleArchive != "" {
		digest, err := assemble.WriteArchive(result.Layout, assembleArchive)
		if err != nil {
			return err
		}
		fmt.Printf("  archive:    %s (%s)\n", assembleArchive, digest)
	}
	return nil
}

// buildAssembleConfig merges the optional YAML config with flags; flags win.
func buildAssembleConfig() (*assemble.Config, error) {
	cfg := &assemble.Config{}
	if assembleConfigFile != "" {
		loaded, err := assemble.LoadConfigFile(assembleConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if assembleVersion != "" {
		cfg.Version = assembleVersion
	}
	if assemblePlatform != "" {
		target, err := platform.Parse(assemblePlatform)
		if err != nil {
			return nil, err
		}
		cfg.Target = target
	}
	if assembleTier != "" {
		cfg.TierName = assembleTier
	}
	if len(assembleComponents) > 0 {
		cfg.ComponentOverride = assembleComponents
	}
	if assembleRuntimePath != "" {
		cfg.RuntimePath = assembleRuntimePath
	}
	if assembleAppSource != "" {
		cfg.AppSource = assembleAppSource
	}
	if assembleComponentSource != "" {
		cfg.ComponentSource = assembleComponentSource
	}
	if assembleOutputDir != "" {
		cfg.OutputDir = assembleOutputDir
	}
	if assembleSkipSelfCheck {
		cfg.SkipSelfCheck = true
	}
	if assembleSelfCheckWait > 0 {
		cfg.SelfCheckTimeout = assembleSelfCheckWait
	}
	return cfg, nil
}

func tierLabel(m *manifest.Manifest) string {
	if m.TierOverridden {
		return "override"
	}
	return m.TierName
}
