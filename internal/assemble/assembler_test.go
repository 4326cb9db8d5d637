package assemble

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/distkit/distkit/internal/errors"
	"github.com/distkit/distkit/internal/fsutil"
	"github.com/distkit/distkit/internal/manifest"
	"github.com/distkit/distkit/internal/platform"
	"github.com/distkit/distkit/internal/tier"
)

// fakeInterpreter mimics the embedded python for launcher and pip calls.
const fakeInterpreter = `#!/bin/sh
if [ "$1" = "-m" ]; then
  case "$2" in
    pip) exit 0 ;;
    distapp.cli) echo "distapp 1.2.3"; exit 0 ;;
    distapp.server) echo "Initialization complete"; exit 0 ;;
  esac
fi
echo "Python 3.12.0"
`

func requirePOSIX(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("test runs POSIX shell launchers")
	}
}

// fakeRuntimeDir builds a runtime tree whose interpreter is a shell script.
func fakeRuntimeDir(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "runtime-src")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "bin"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bin", "python3"), []byte(fakeInterpreter), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lib.txt"), []byte("stdlib"), 0o644))
	return dir
}

// componentSourceDir lays out a local component source for the given IDs.
func componentSourceDir(t *testing.T, ids ...string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "components-src")
	for _, id := range ids {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, id), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, id, "server.bin"), []byte(id+" payload"), 0o644))
	}
	return dir
}

type nopInstaller struct{}

func (nopInstaller) Install(context.Context, manifest.Layout, platform.Target, string) error {
	return nil
}

type failingInstaller struct{}

func (failingInstaller) Install(context.Context, manifest.Layout, platform.Target, string) error {
	return errSimulatedInstall
}

var errSimulatedInstall = errors.New(errors.ErrCodeInstallFailed, "simulated install failure")

func baseConfig(t *testing.T, target platform.Target) Config {
	t.Helper()
	return Config{
		Version:         "1.2.3",
		Target:          target,
		TierName:        "minimal",
		RuntimePath:     fakeRuntimeDir(t),
		ComponentSource: componentSourceDir(t, "python", "typescript", "go"),
		OutputDir:       filepath.Join(t.TempDir(), "pkg"),
	}
}

func TestAssembleProducesPackage(t *testing.T) {
	requirePOSIX(t)

	cfg := baseConfig(t, platform.Make(platform.OSLinux, platform.ArchX64))
	asm, err := New(cfg)
	require.NoError(t, err)

	result, err := asm.Assemble(context.Background())
	require.NoError(t, err)

	layout := result.Layout
	assert.True(t, fsutil.DirExists(layout.LauncherPath()))
	assert.True(t, fsutil.DirExists(layout.RuntimePath()))
	assert.True(t, fsutil.DirExists(layout.AppPath()))
	assert.True(t, fsutil.DirExists(layout.ComponentsPath()))

	versionData, err := os.ReadFile(layout.VersionPath())
	require.NoError(t, err)
	assert.Equal(t, "1.2.3\n", string(versionData))

	m, err := manifest.Load(layout.ManifestPath())
	require.NoError(t, err)
	assert.Equal(t, "1.2.3", m.Version)
	assert.Equal(t, "linux-x64", m.Platform)
	assert.Equal(t, "minimal", m.TierName)
	assert.Equal(t, []string{"python", "typescript", "go"}, m.ComponentIDs())
	assert.Empty(t, m.ComponentsMissing)

	// the self-check ran the generated launcher
	assert.Equal(t, "1.2.3", result.SelfCheckVersion)

	launcher := filepath.Join(layout.LauncherPath(), "distapp")
	assert.True(t, fsutil.IsExecutable(launcher))
	data, err := os.ReadFile(launcher)
	require.NoError(t, err)
	assert.True(t, fsutil.HasLFOnlyEndings(data))
	assert.True(t, len(data) > 2 && string(data[:3]) == "#!/")
}

func TestAssembleWindowsLauncherEndings(t *testing.T) {
	cfg := baseConfig(t, platform.Make(platform.OSWindows, platform.ArchX64))
	cfg.SkipSelfCheck = true
	cfg.Installer = nopInstaller{}

	asm, err := New(cfg)
	require.NoError(t, err)
	result, err := asm.Assemble(context.Background())
	require.NoError(t, err)

	entries, err := os.ReadDir(result.Layout.LauncherPath())
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	for _, entry := range entries {
		assert.Equal(t, ".cmd", filepath.Ext(entry.Name()))
		data, err := os.ReadFile(filepath.Join(result.Layout.LauncherPath(), entry.Name()))
		require.NoError(t, err)
		assert.True(t, fsutil.HasCRLFEndings(data), "%s must be CRLF", entry.Name())
		assert.False(t, fsutil.HasLFOnlyEndings(data))
	}
}

func TestAssembleMissingRuntimeIsFatal(t *testing.T) {
	cfg := baseConfig(t, platform.Make(platform.OSLinux, platform.ArchX64))
	cfg.RuntimePath = filepath.Join(t.TempDir(), "absent")

	asm, err := New(cfg)
	require.NoError(t, err)
	_, err = asm.Assemble(context.Background())

	var dkErr *errors.DistkitError
	require.ErrorAs(t, err, &dkErr)
	assert.Equal(t, errors.ErrCodePrerequisiteMissing, dkErr.Code)
	assert.False(t, fsutil.DirExists(cfg.OutputDir), "nothing should be written")
}

func TestAssembleEmptyRuntimeIsFatal(t *testing.T) {
	cfg := baseConfig(t, platform.Make(platform.OSLinux, platform.ArchX64))
	cfg.RuntimePath = t.TempDir()

	asm, err := New(cfg)
	require.NoError(t, err)
	_, err = asm.Assemble(context.Background())

	var dkErr *errors.DistkitError
	require.ErrorAs(t, err, &dkErr)
	assert.Equal(t, errors.ErrCodePrerequisiteMissing, dkErr.Code)
}

func TestAssembleUnknownTierBeforeAnyWrite(t *testing.T) {
	cfg := baseConfig(t, platform.Make(platform.OSLinux, platform.ArchX64))
	cfg.TierName = "gigantic"

	asm, err := New(cfg)
	require.NoError(t, err)
	_, err = asm.Assemble(context.Background())

	var dkErr *errors.DistkitError
	require.ErrorAs(t, err, &dkErr)
	assert.Equal(t, errors.ErrCodeUnknownTier, dkErr.Code)
	assert.False(t, fsutil.DirExists(cfg.OutputDir))
}

func TestAssembleRemovesStaleTree(t *testing.T) {
	requirePOSIX(t)

	cfg := baseConfig(t, platform.Make(platform.OSLinux, platform.ArchX64))
	stale := filepath.Join(cfg.OutputDir, "leftover.txt")
	require.NoError(t, os.MkdirAll(cfg.OutputDir, 0o755))
	require.NoError(t, os.WriteFile(stale, []byte("from a failed run"), 0o644))

	asm, err := New(cfg)
	require.NoError(t, err)
	_, err = asm.Assemble(context.Background())
	require.NoError(t, err)

	assert.False(t, fsutil.FileExists(stale), "stale partial tree must be removed")
}

func TestAssembleComponentFailureIsWarning(t *testing.T) {
	requirePOSIX(t)

	cfg := baseConfig(t, platform.Make(platform.OSLinux, platform.ArchX64))
	// source only carries two of the three minimal-tier components
	cfg.ComponentSource = componentSourceDir(t, "python", "typescript")

	asm, err := New(cfg)
	require.NoError(t, err)
	result, err := asm.Assemble(context.Background())
	require.NoError(t, err, "per-component failure must not abort assembly")

	assert.Equal(t, []string{"go"}, result.Manifest.ComponentsMissing)
	assert.Equal(t, []string{"python", "typescript"}, result.Manifest.ComponentIDs())
}

func TestAssembleChecksumMismatchIsFatal(t *testing.T) {
	requirePOSIX(t)

	cfg := baseConfig(t, platform.Make(platform.OSLinux, platform.ArchX64))
	cfg.ComponentChecksums = map[string]string{"python": "blake3:deadbeef"}

	asm, err := New(cfg)
	require.NoError(t, err)
	_, err = asm.Assemble(context.Background())

	var dkErr *errors.DistkitError
	require.ErrorAs(t, err, &dkErr)
	assert.Equal(t, errors.ErrCodeChecksumMismatch, dkErr.Code)
	assert.False(t, fsutil.DirExists(cfg.OutputDir), "failed assembly must not leave a partial tree")
}

func TestAssembleInstallFailureAborts(t *testing.T) {
	cfg := baseConfig(t, platform.Make(platform.OSLinux, platform.ArchX64))
	cfg.Installer = failingInstaller{}

	asm, err := New(cfg)
	require.NoError(t, err)
	_, err = asm.Assemble(context.Background())

	require.Error(t, err)
	assert.False(t, fsutil.DirExists(cfg.OutputDir))
}

func TestAssembleSelfCheckFailureDowngradesResult(t *testing.T) {
	requirePOSIX(t)

	cfg := baseConfig(t, platform.Make(platform.OSLinux, platform.ArchX64))
	// interpreter that answers the version query with no version at all
	runtimeDir := filepath.Join(t.TempDir(), "runtime-silent")
	require.NoError(t, os.MkdirAll(filepath.Join(runtimeDir, "bin"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(runtimeDir, "bin", "python3"),
		[]byte("#!/bin/sh\nexit 0\n"), 0o755))
	cfg.RuntimePath = runtimeDir
	cfg.Installer = nopInstaller{}

	asm, err := New(cfg)
	require.NoError(t, err)
	_, err = asm.Assemble(context.Background())

	var dkErr *errors.DistkitError
	require.ErrorAs(t, err, &dkErr)
	assert.Equal(t, errors.ErrCodeSelfCheckFailed, dkErr.Code)
}

// Relocating the package into a path with spaces must not break the launcher.
func TestLauncherSurvivesRelocationWithSpaces(t *testing.T) {
	requirePOSIX(t)

	cfg := baseConfig(t, platform.Make(platform.OSLinux, platform.ArchX64))
	asm, err := New(cfg)
	require.NoError(t, err)
	result, err := asm.Assemble(context.Background())
	require.NoError(t, err)

	relocated := filepath.Join(t.TempDir(), "dir with spaces", "pkg")
	require.NoError(t, os.MkdirAll(filepath.Dir(relocated), 0o755))
	require.NoError(t, os.Rename(result.Layout.Root, relocated))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	out, err := exec.CommandContext(ctx, filepath.Join(relocated, "bin", "distapp"), "--version").CombinedOutput()
	require.NoError(t, err, "launcher output: %s", out)
	assert.Contains(t, string(out), "1.2.3")
}

func TestLauncherSurvivesSymlinkInvocation(t *testing.T) {
	requirePOSIX(t)

	cfg := baseConfig(t, platform.Make(platform.OSLinux, platform.ArchX64))
	asm, err := New(cfg)
	require.NoError(t, err)
	result, err := asm.Assemble(context.Background())
	require.NoError(t, err)

	link := filepath.Join(t.TempDir(), "distapp-link")
	require.NoError(t, os.Symlink(filepath.Join(result.Layout.Root, "bin", "distapp"), link))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	out, err := exec.CommandContext(ctx, link, "--version").CombinedOutput()
	require.NoError(t, err, "launcher output: %s", out)
	assert.Contains(t, string(out), "1.2.3")
}

func TestWriteArchive(t *testing.T) {
	requirePOSIX(t)

	cfg := baseConfig(t, platform.Make(platform.OSLinux, platform.ArchX64))
	asm, err := New(cfg)
	require.NoError(t, err)
	result, err := asm.Assemble(context.Background())
	require.NoError(t, err)

	archivePath := filepath.Join(t.TempDir(), "pkg.tar.gz")
	digest, err := WriteArchive(result.Layout, archivePath)
	require.NoError(t, err)

	assert.Contains(t, digest, "blake3:")
	info, err := os.Stat(archivePath)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "assemble.yaml")
	content := `version: 2.0.0
platform: linux-arm64
tier: standard
runtime_path: /opt/runtime
component_source: /opt/components
output_dir: /tmp/pkg
component_checksums:
  rust: blake3:abcd
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, "2.0.0", cfg.Version)
	assert.Equal(t, platform.OSLinux, cfg.Target.OS)
	assert.Equal(t, platform.ArchARM64, cfg.Target.Arch)
	assert.Equal(t, "standard", cfg.TierName)
	assert.Equal(t, "blake3:abcd", cfg.ComponentChecksums["rust"])
	require.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	cfg := Config{}
	assert.Error(t, cfg.Validate())

	cfg = Config{
		Version:     "1.0.0",
		Target:      platform.Make(platform.OSLinux, platform.ArchX64),
		TierName:    "minimal",
		RuntimePath: "/r",
		OutputDir:   "/o",
	}
	assert.NoError(t, cfg.Validate())
}

func TestTierSizeTotalsAreInformational(t *testing.T) {
	components, err := tier.Resolve("full")
	require.NoError(t, err)
	assert.Greater(t, tier.TotalSize(components), int64(0))
}
