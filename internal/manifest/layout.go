package manifest

import "path/filepath"

// Fixed package directory layout. Launchers resolve paths relative to their
// own location, so these names must stay bit-exact across assembler,
// launcher templates, and verifier.
const (
	// LauncherDir holds the generated entry-point scripts
	LauncherDir = "bin"

	// RuntimeDir holds the embedded language runtime
	RuntimeDir = "runtime"

	// AppDir holds the installed application files
	AppDir = "app"

	// ComponentsDir holds prefetched optional components, one subdirectory
	// per component ID
	ComponentsDir = "components"

	// ManifestFileName is the package metadata file at the root
	ManifestFileName = "manifest.json"

	// VersionFileName is the plain-text version file at the root
	VersionFileName = "VERSION"
)

// Layout resolves well-known paths inside an assembled package tree.
type Layout struct {
	Root string
}

// NewLayout creates a Layout rooted at the given package directory.
func NewLayout(root string) Layout {
	return Layout{Root: root}
}

// LauncherPath returns the path of the launcher directory.
func (l Layout) LauncherPath() string { return filepath.Join(l.Root, LauncherDir) }

// RuntimePath returns the path of the embedded runtime directory.
func (l Layout) RuntimePath() string { return filepath.Join(l.Root, RuntimeDir) }

// AppPath returns the path of the application files directory.
func (l Layout) AppPath() string { return filepath.Join(l.Root, AppDir) }

// ComponentsPath returns the path of the optional components directory.
func (l Layout) ComponentsPath() string { return filepath.Join(l.Root, ComponentsDir) }

// ComponentPath returns the directory of one prefetched component.
func (l Layout) ComponentPath(id string) string {
	return filepath.Join(l.Root, ComponentsDir, id)
}

// ManifestPath returns the path of the manifest file.
func (l Layout) ManifestPath() string { return filepath.Join(l.Root, ManifestFileName) }

// VersionPath returns the path of the plain-text version file.
func (l Layout) VersionPath() string { return filepath.Join(l.Root, VersionFileName) }

// InterpreterPath returns the embedded Python interpreter path for the given
// executable suffix ("" on POSIX, ".exe" on windows).
func (l Layout) InterpreterPath(executableSuffix string) string {
	if executableSuffix != "" {
		return filepath.Join(l.RuntimePath(), "python"+executableSuffix)
	}
	return filepath.Join(l.RuntimePath(), "bin", "python3")
}
