// Package assemble builds a self-contained, offline-runnable distribution of
// the host application: embedded runtime, installed application, tiered
// optional components, platform launchers, and a manifest written last.
package assemble

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/distkit/distkit/internal/errors"
	"github.com/distkit/distkit/internal/fsutil"
	"github.com/distkit/distkit/internal/log"
	"github.com/distkit/distkit/internal/manifest"
	"github.com/distkit/distkit/internal/tier"
)

// Result describes a completed assembly.
type Result struct {
	// Layout is the assembled package tree
	Layout manifest.Layout

	// Manifest is the persisted build record
	Manifest *manifest.Manifest

	// SelfCheckVersion is the version string the launcher reported, empty
	// when the self-check was skipped
	SelfCheckVersion string
}

// Assembler produces one verifiable package per (version, target, tier)
// triple. It owns the output tree exclusively until the manifest is written;
// after that the tree is read-only shared state.
type Assembler struct {
	cfg    Config
	logger *log.Logger
}

// New creates an Assembler for the given config.
func New(cfg Config) (*Assembler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid assembly config: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.DefaultLogger()
	}

	return &Assembler{
		cfg:    cfg,
		logger: logger.With("component", "assembler", "platform", cfg.Target.Identifier()),
	}, nil
}

// Assemble runs the full assembly sequence. Steps are strictly sequential:
// each depends on the previous step's filesystem state. On any fatal error
// the partial tree is removed so a half-built package can never be mistaken
// for a valid one.
func (a *Assembler) Assemble(ctx context.Context) (*Result, error) {
	// Tier resolution happens before any filesystem mutation so an unknown
	// tier surfaces with nothing written.
	resolution, err := tier.ResolveWithOverride(a.cfg.TierName, a.cfg.ComponentOverride)
	if err != nil {
		return nil, err
	}

	if err := a.checkPrerequisites(); err != nil {
		return nil, err
	}

	layout := manifest.NewLayout(a.cfg.OutputDir)
	if err := a.createTree(layout); err != nil {
		return nil, err
	}

	result, err := a.assembleInto(ctx, layout, resolution)
	if err != nil {
		// Leave no ambiguous partial package behind.
		if rmErr := os.RemoveAll(a.cfg.OutputDir); rmErr != nil {
			a.logger.Warn("failed to remove partial package tree", "error", rmErr.Error())
		}
		return nil, err
	}
	return result, nil
}

func (a *Assembler) assembleInto(ctx context.Context, layout manifest.Layout, resolution tier.Resolution) (*Result, error) {
	a.logger.Info("embedding runtime", "source", a.cfg.RuntimePath)
	if err := embedRuntime(a.cfg.RuntimePath, layout, a.cfg.Target); err != nil {
		return nil, err
	}

	a.logger.Info("installing application", "source", a.cfg.AppSource)
	installer := a.cfg.Installer
	if installer == nil {
		installer = PipInstaller{}
	}
	if err := installer.Install(ctx, layout, a.cfg.Target, a.cfg.AppSource); err != nil {
		return nil, fmt.Errorf("assembly aborted: %w", err)
	}

	a.logger.Info("prefetching components", "tier", resolution.TierName,
		"count", len(resolution.Components), "overridden", resolution.Overridden)
	prefetcher := &Prefetcher{
		Source:    NewComponentSource(a.cfg.ComponentSource),
		Checksums: a.cfg.ComponentChecksums,
		Logger:    a.logger,
	}
	prefetched, err := prefetcher.Prefetch(ctx, layout, resolution.Components)
	if err != nil {
		return nil, err
	}

	a.logger.Info("generating launchers")
	entries := a.cfg.EntryPoints
	if len(entries) == 0 {
		entries = DefaultEntryPoints()
	}
	launchers, err := GenerateLaunchers(layout, a.cfg.Target, entries)
	if err != nil {
		return nil, err
	}

	if err := os.WriteFile(layout.VersionPath(), []byte(a.cfg.Version+"\n"), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write version file: %w", err)
	}

	// The manifest is written last: its presence marks that assembly
	// reached completion.
	m := manifest.New(a.cfg.Version, a.cfg.Target.Identifier(), resolution.TierName,
		prefetched.Included, prefetched.Missing)
	m.TierOverridden = resolution.Overridden
	if err := m.Write(layout.ManifestPath()); err != nil {
		return nil, err
	}

	result := &Result{Layout: layout, Manifest: m}

	if !a.cfg.SkipSelfCheck {
		version, err := SelfCheck(ctx, launchers[0], a.cfg.Target, a.cfg.SelfCheckTimeout)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeSelfCheckFailed, "package self-check failed", err).
				WithSuggestion("Invoke the launcher manually with --version to reproduce")
		}
		result.SelfCheckVersion = version
		a.logger.Info("self-check passed", "reported_version", version)
	}

	a.logger.Info("assembly complete", "build_id", m.BuildID,
		"components", len(m.Components), "missing", len(m.ComponentsMissing))
	return result, nil
}

// checkPrerequisites validates inputs before any mutation. A missing or
// empty embedded runtime is fatal with no retry.
func (a *Assembler) checkPrerequisites() error {
	if !fsutil.DirExists(a.cfg.RuntimePath) {
		return errors.NewPrerequisiteMissingError("embedded runtime", a.cfg.RuntimePath)
	}
	if !fsutil.DirNonEmpty(a.cfg.RuntimePath) {
		return errors.NewPrerequisiteMissingError("non-empty embedded runtime", a.cfg.RuntimePath)
	}
	if a.cfg.AppSource != "" && !fsutil.DirExists(a.cfg.AppSource) {
		return errors.NewPrerequisiteMissingError("application source", a.cfg.AppSource)
	}
	return nil
}

// createTree removes any stale partial tree and lays down the fixed package
// directory skeleton. Assembly is never incremental.
func (a *Assembler) createTree(layout manifest.Layout) error {
	if err := os.RemoveAll(layout.Root); err != nil {
		return fmt.Errorf("failed to remove stale package tree: %w", err)
	}

	for _, dir := range []string{
		layout.Root,
		layout.LauncherPath(),
		layout.AppPath(),
		layout.ComponentsPath(),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", filepath.Base(dir), err)
		}
	}
	return nil
}
