package verify

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/distkit/distkit/internal/assemble"
	"github.com/distkit/distkit/internal/fsutil"
	"github.com/distkit/distkit/internal/manifest"
)

// structureCases validates the fixed package layout and its metadata files.
func (e *Engine) structureCases() []TestCase {
	cases := []TestCase{
		{
			Name:     "required directories exist",
			Category: CategoryStructure,
			Run: func(context.Context) (bool, string) {
				var missing []string
				for _, dir := range []string{
					e.layout.LauncherPath(),
					e.layout.RuntimePath(),
					e.layout.AppPath(),
					e.layout.ComponentsPath(),
				} {
					if !fsutil.DirExists(dir) {
						missing = append(missing, dir)
					}
				}
				if len(missing) > 0 {
					return false, "missing directories: " + strings.Join(missing, ", ")
				}
				return true, ""
			},
		},
		{
			Name:     "manifest is present and valid",
			Category: CategoryStructure,
			Run: func(context.Context) (bool, string) {
				m, err := manifest.Load(e.layout.ManifestPath())
				if err != nil {
					return false, err.Error()
				}
				if m.Schema != manifest.SchemaVersion {
					return false, fmt.Sprintf("unexpected manifest schema %q", m.Schema)
				}
				if m.Platform != e.target.Identifier() {
					return false, fmt.Sprintf("manifest platform %q does not match target %q",
						m.Platform, e.target.Identifier())
				}
				if m.Version == "" {
					return false, "manifest carries no version"
				}
				return true, ""
			},
		},
		{
			// Content validation that can actually fail: the version file
			// must exist and agree with the manifest.
			Name:     "version file matches manifest",
			Category: CategoryStructure,
			Run: func(context.Context) (bool, string) {
				m, err := manifest.Load(e.layout.ManifestPath())
				if err != nil {
					return false, err.Error()
				}
				data, err := os.ReadFile(e.layout.VersionPath())
				if err != nil {
					return false, err.Error()
				}
				got := strings.TrimSpace(string(data))
				if got != m.Version {
					return false, fmt.Sprintf("VERSION file says %q, manifest says %q", got, m.Version)
				}
				return true, ""
			},
		},
		{
			Name:     "entry point launchers exist",
			Category: CategoryStructure,
			Run: func(context.Context) (bool, string) {
				var missing []string
				for _, entry := range assemble.DefaultEntryPoints() {
					path := e.launcherPath(entry.Name)
					if !fsutil.FileExists(path) {
						missing = append(missing, path)
					}
				}
				if len(missing) > 0 {
					return false, "missing launchers: " + strings.Join(missing, ", ")
				}
				return true, ""
			},
		},
	}
	return cases
}
