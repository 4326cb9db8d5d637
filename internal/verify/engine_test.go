package verify

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/distkit/distkit/internal/manifest"
	"github.com/distkit/distkit/internal/platform"
	"github.com/distkit/distkit/internal/tier"
)

func requirePOSIX(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("verification tests spawn /bin/sh")
	}
}

func hostTarget(t *testing.T) platform.Target {
	t.Helper()
	target, err := platform.Parse("linux-x64")
	require.NoError(t, err)
	return target
}

const fakeInterpreterScript = `#!/bin/sh
case "$1" in
  --version)
    echo "Python 3.12.0"
    ;;
  -c)
    exit 0
    ;;
  -m)
    # py_compile and friends succeed silently
    exit 0
    ;;
esac
exit 0
`

const fakeLauncherScript = `#!/bin/sh
case "$1" in
  --version)
    echo "distapp 1.2.3"
    ;;
  --help)
    echo "usage: distapp [command]"
    ;;
  list)
    echo "default"
    echo "extended"
    ;;
  describe)
    echo "profile: $2"
    ;;
esac
exit 0
`

const fakeServerScript = `#!/bin/sh
trap 'exit 0' TERM
echo "Server listening on 127.0.0.1:8080"
sleep 30
`

// fakePackage lays out a complete package tree the way the assembler would,
// with shell scripts standing in for the interpreter and launchers.
func fakePackage(t *testing.T) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), "pkg")
	layout := manifest.NewLayout(root)

	require.NoError(t, os.MkdirAll(filepath.Join(layout.RuntimePath(), "bin"), 0o755))
	require.NoError(t, os.MkdirAll(layout.LauncherPath(), 0o755))
	require.NoError(t, os.MkdirAll(layout.AppPath(), 0o755))

	writeExecutable(t, layout.InterpreterPath(""), fakeInterpreterScript)
	writeExecutable(t, filepath.Join(layout.LauncherPath(), "distapp"), fakeLauncherScript)
	writeExecutable(t, filepath.Join(layout.LauncherPath(), "distapp-server"), fakeServerScript)

	require.NoError(t, os.WriteFile(filepath.Join(layout.AppPath(), "cli.py"),
		[]byte("print('hi')\n"), 0o644))

	components, err := tier.Resolve("minimal")
	require.NoError(t, err)
	for _, c := range components {
		dir := layout.ComponentPath(c.ID)
		require.NoError(t, os.MkdirAll(dir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "server.bin"),
			[]byte(c.ID), 0o644))
	}

	m := manifest.New("1.2.3", "linux-x64", "minimal", components, nil)
	require.NoError(t, m.Write(layout.ManifestPath()))
	require.NoError(t, os.WriteFile(layout.VersionPath(), []byte("1.2.3\n"), 0o644))

	return root
}

func writeExecutable(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o755))
}

func TestNewEngineRejectsMissingPackage(t *testing.T) {
	_, err := NewEngine(filepath.Join(t.TempDir(), "nope"), hostTarget(t), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "VERIFY-001")
}

func TestRunHealthyPackagePasses(t *testing.T) {
	requirePOSIX(t)

	pkg := fakePackage(t)
	engine, err := NewEngine(pkg, hostTarget(t), Options{SkipSlow: true})
	require.NoError(t, err)

	report, err := engine.Run(context.Background())
	require.NoError(t, err)

	assert.Zero(t, report.Failed(), "failures: %v", report.Failures())
	assert.Equal(t, 0, report.ExitCode())
	assert.Greater(t, report.Total(), 10)
}

// Re-running against an unmodified package must yield identical counts.
func TestRunIsDeterministic(t *testing.T) {
	requirePOSIX(t)

	pkg := fakePackage(t)
	engine, err := NewEngine(pkg, hostTarget(t), Options{SkipSlow: true})
	require.NoError(t, err)

	first, err := engine.Run(context.Background())
	require.NoError(t, err)
	second, err := engine.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first.Total(), second.Total())
	assert.Equal(t, first.Passed(), second.Passed())
	assert.Equal(t, first.Failed(), second.Failed())

	firstResults := first.Results()
	secondResults := second.Results()
	require.Equal(t, len(firstResults), len(secondResults))
	for i := range firstResults {
		assert.Equal(t, firstResults[i].Name, secondResults[i].Name)
		assert.Equal(t, firstResults[i].Passed, secondResults[i].Passed)
	}
}

func TestRunSkipsCategories(t *testing.T) {
	requirePOSIX(t)

	pkg := fakePackage(t)
	engine, err := NewEngine(pkg, hostTarget(t), Options{
		SkipSlow:       true,
		SkipCategories: []string{"cli", "platform", "integration"},
	})
	require.NoError(t, err)

	report, err := engine.Run(context.Background())
	require.NoError(t, err)

	perCategory := report.PerCategory()
	assert.Empty(t, perCategory[CategoryCLI])
	assert.Empty(t, perCategory[CategoryPlatform])
	assert.Empty(t, perCategory[CategoryIntegration])
	assert.NotEmpty(t, perCategory[CategoryStructure])
	assert.NotEmpty(t, perCategory[CategoryRuntime])
	assert.NotEmpty(t, perCategory[CategoryComponents])
}

func TestRunSkipsSlowCases(t *testing.T) {
	requirePOSIX(t)

	pkg := fakePackage(t)
	engine, err := NewEngine(pkg, hostTarget(t), Options{SkipSlow: true})
	require.NoError(t, err)

	report, err := engine.Run(context.Background())
	require.NoError(t, err)

	for _, result := range report.Results() {
		assert.NotEqual(t, CategoryIntegration, result.Category,
			"integration cases are all slow and should be skipped")
	}
}

// A failing case must not abort the suite; later categories still run.
func TestRunContinuesPastFailures(t *testing.T) {
	requirePOSIX(t)

	pkg := fakePackage(t)
	require.NoError(t, os.Remove(filepath.Join(pkg, "VERSION")))

	engine, err := NewEngine(pkg, hostTarget(t), Options{SkipSlow: true})
	require.NoError(t, err)

	report, err := engine.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Failed())
	assert.Equal(t, 1, report.ExitCode())
	assert.NotEmpty(t, report.PerCategory()[CategoryComponents],
		"categories after a failure must still run")

	failures := report.Failures()
	require.Len(t, failures, 1)
	assert.Equal(t, CategoryStructure, failures[0].Category)
	assert.False(t, failures[0].TimedOut)
}

func TestRunManifestPlatformMismatch(t *testing.T) {
	requirePOSIX(t)

	pkg := fakePackage(t)
	layout := manifest.NewLayout(pkg)
	m, err := manifest.Load(layout.ManifestPath())
	require.NoError(t, err)
	m.Platform = "darwin-arm64"
	require.NoError(t, m.Write(layout.ManifestPath()))

	engine, err := NewEngine(pkg, hostTarget(t), Options{
		SkipSlow:       true,
		SkipCategories: []string{"runtime", "cli", "platform", "components", "integration"},
	})
	require.NoError(t, err)

	report, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed())
}

func TestRunMissingComponentDetected(t *testing.T) {
	requirePOSIX(t)

	pkg := fakePackage(t)
	require.NoError(t, os.RemoveAll(manifest.NewLayout(pkg).ComponentPath("go")))

	engine, err := NewEngine(pkg, hostTarget(t), Options{
		SkipSlow:       true,
		SkipCategories: []string{"structure", "runtime", "cli", "platform", "integration"},
	})
	require.NoError(t, err)

	report, err := engine.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Failures(), 1)
	assert.Contains(t, report.Failures()[0].Output, "go")
}

// A hung subprocess must surface as a distinguishable timeout, not a hang.
func TestRunCaseTimeoutIsDistinguishable(t *testing.T) {
	requirePOSIX(t)

	pkg := fakePackage(t)
	layout := manifest.NewLayout(pkg)
	writeExecutable(t, layout.InterpreterPath(""), "#!/bin/sh\nsleep 30\n")

	engine, err := NewEngine(pkg, hostTarget(t), Options{
		SkipSlow:       true,
		CaseTimeout:    300 * time.Millisecond,
		SkipCategories: []string{"structure", "cli", "platform", "components", "integration"},
	})
	require.NoError(t, err)

	started := time.Now()
	report, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.Less(t, time.Since(started), 10*time.Second)

	var timedOut int
	for _, failure := range report.Failures() {
		if failure.TimedOut {
			timedOut++
		}
	}
	assert.Greater(t, timedOut, 0, "hung interpreter should be recorded as a timeout")
}

func TestRunSupervisedServerCase(t *testing.T) {
	requirePOSIX(t)

	pkg := fakePackage(t)
	engine, err := NewEngine(pkg, hostTarget(t), Options{
		CaseTimeout:    30 * time.Second,
		SkipCategories: []string{"structure", "runtime", "cli", "components", "integration"},
	})
	require.NoError(t, err)

	report, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.Failed(), "failures: %v", report.Failures())
}

func TestIntegrationCompilesTestProject(t *testing.T) {
	requirePOSIX(t)

	project := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(project, "main.py"),
		[]byte("print('ok')\n"), 0o644))

	pkg := fakePackage(t)
	engine, err := NewEngine(pkg, hostTarget(t), Options{
		TestProject:    project,
		SkipCategories: []string{"structure", "runtime", "cli", "platform", "components"},
	})
	require.NoError(t, err)

	report, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.Failed(), "failures: %v", report.Failures())
}
