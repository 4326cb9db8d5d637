// Package platform models the build targets a package can be assembled for.
//
// A Target is resolved exactly once, at the CLI boundary, from an explicit
// identifier string such as "linux-x64" or "win-arm64". It is never inferred
// from the host the tool happens to run on, and it is never re-derived from
// string comparisons deeper in the call chain: capability flags carried on
// the Target answer every platform question downstream code has.
package platform

import (
	"fmt"
	"strings"

	"github.com/distkit/distkit/internal/errors"
)

// OS is the target operating system
type OS string

const (
	OSWindows OS = "windows"
	OSLinux   OS = "linux"
	OSMacOS   OS = "macos"
)

// Arch is the target CPU architecture
type Arch string

const (
	ArchX64   Arch = "x64"
	ArchARM64 Arch = "arm64"
)

// LauncherKind is the launcher script dialect for a target
type LauncherKind string

const (
	LauncherBatch      LauncherKind = "batch"
	LauncherPOSIXShell LauncherKind = "posix-shell"
)

// Target describes one platform a package is assembled for.
// The zero value is not a valid target; use Parse or Make.
type Target struct {
	OS       OS
	Arch     Arch
	Launcher LauncherKind

	// UsesBatchLauncher is true when launchers are batch scripts with CRLF
	// line endings rather than POSIX shell scripts.
	UsesBatchLauncher bool

	// UsesCmdWrapper is true when subprocesses must be spawned through the
	// cmd.exe interpreter (batch files are not directly executable).
	UsesCmdWrapper bool

	// SupportsSignals is true when graceful termination signals (SIGTERM)
	// are deliverable; otherwise supervision falls back to a hard kill.
	SupportsSignals bool
}

// Identifier returns the canonical ID string, e.g. "linux-x64".
func (t Target) Identifier() string {
	osPart := string(t.OS)
	if t.OS == OSWindows {
		osPart = "win"
	}
	return fmt.Sprintf("%s-%s", osPart, t.Arch)
}

// String implements fmt.Stringer.
func (t Target) String() string {
	return t.Identifier()
}

// IsPOSIX reports whether the target uses POSIX filesystem semantics
// (executable bits, shebangs, symlinks).
func (t Target) IsPOSIX() bool {
	return t.OS != OSWindows
}

// ExecutableSuffix returns the suffix appended to native executables.
func (t Target) ExecutableSuffix() string {
	if t.OS == OSWindows {
		return ".exe"
	}
	return ""
}

// LauncherSuffix returns the file suffix for launcher scripts.
func (t Target) LauncherSuffix() string {
	if t.UsesBatchLauncher {
		return ".cmd"
	}
	return ""
}

// Make constructs a Target for the given os/arch pair with its capability
// flags resolved.
func Make(os OS, arch Arch) Target {
	t := Target{OS: os, Arch: arch}
	if os == OSWindows {
		t.Launcher = LauncherBatch
		t.UsesBatchLauncher = true
		t.UsesCmdWrapper = true
		t.SupportsSignals = false
	} else {
		t.Launcher = LauncherPOSIXShell
		t.SupportsSignals = true
	}
	return t
}

// Supported lists every target the assembler can produce.
func Supported() []Target {
	return []Target{
		Make(OSWindows, ArchX64),
		Make(OSWindows, ArchARM64),
		Make(OSLinux, ArchX64),
		Make(OSLinux, ArchARM64),
		Make(OSMacOS, ArchX64),
		Make(OSMacOS, ArchARM64),
	}
}

// Parse resolves an explicit platform identifier ("linux-x64", "win-arm64",
// "macos-x64", also accepting "windows-*" and "darwin-*" spellings) into a
// Target. It is the single place identifier strings are interpreted.
func Parse(identifier string) (Target, error) {
	parts := strings.SplitN(strings.ToLower(strings.TrimSpace(identifier)), "-", 2)
	if len(parts) != 2 {
		return Target{}, errors.New(errors.ErrCodePlatformUnknown,
			fmt.Sprintf("malformed platform identifier: %q", identifier)).
			WithSuggestion("Use <os>-<arch>, e.g. linux-x64 or win-arm64")
	}

	var os OS
	switch parts[0] {
	case "win", "windows":
		os = OSWindows
	case "linux":
		os = OSLinux
	case "macos", "darwin", "mac":
		os = OSMacOS
	default:
		return Target{}, errors.New(errors.ErrCodePlatformUnknown,
			fmt.Sprintf("unknown platform OS: %q", parts[0])).
			WithSuggestion("Supported: win, linux, macos")
	}

	var arch Arch
	switch parts[1] {
	case "x64", "amd64", "x86_64":
		arch = ArchX64
	case "arm64", "aarch64":
		arch = ArchARM64
	default:
		return Target{}, errors.New(errors.ErrCodePlatformUnknown,
			fmt.Sprintf("unknown platform architecture: %q", parts[1])).
			WithSuggestion("Supported: x64, arm64")
	}

	return Make(os, arch), nil
}
