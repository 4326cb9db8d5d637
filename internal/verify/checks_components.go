package verify

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/distkit/distkit/internal/fsutil"
	"github.com/distkit/distkit/internal/manifest"
)

// componentCases checks that every component the manifest claims to include
// is actually on disk, and that the missing list is consistent with the
// included list. A component recorded as missing is not a failure here; the
// warning was already raised at assembly time.
func (e *Engine) componentCases() []TestCase {
	return []TestCase{
		{
			Name:     "manifest components are present on disk",
			Category: CategoryComponents,
			Run: func(context.Context) (bool, string) {
				m, err := manifest.Load(e.layout.ManifestPath())
				if err != nil {
					return false, err.Error()
				}

				var absent []string
				for _, id := range m.ComponentIDs() {
					dir := e.layout.ComponentPath(id)
					if !fsutil.DirExists(dir) || !fsutil.DirNonEmpty(dir) {
						absent = append(absent, id)
					}
				}
				if len(absent) > 0 {
					return false, "components listed in manifest but absent or empty: " +
						strings.Join(absent, ", ")
				}
				return true, fmt.Sprintf("%d components present", len(m.Components))
			},
		},
		{
			Name:     "missing list is disjoint from included components",
			Category: CategoryComponents,
			Run: func(context.Context) (bool, string) {
				m, err := manifest.Load(e.layout.ManifestPath())
				if err != nil {
					return false, err.Error()
				}

				included := make(map[string]bool, len(m.Components))
				for _, id := range m.ComponentIDs() {
					included[id] = true
				}
				for _, id := range m.ComponentsMissing {
					if included[id] {
						return false, "component recorded both included and missing: " + id
					}
				}
				return true, ""
			},
		},
		{
			Name:     "components directory has no strays",
			Category: CategoryComponents,
			Run: func(context.Context) (bool, string) {
				m, err := manifest.Load(e.layout.ManifestPath())
				if err != nil {
					return false, err.Error()
				}

				known := make(map[string]bool, len(m.Components))
				for _, id := range m.ComponentIDs() {
					known[id] = true
				}

				entries, err := e.componentDirEntries()
				if err != nil {
					return false, err.Error()
				}
				var strays []string
				for _, name := range entries {
					if !known[name] {
						strays = append(strays, name)
					}
				}
				if len(strays) > 0 {
					return false, "components on disk but not in manifest: " +
						strings.Join(strays, ", ")
				}
				return true, ""
			},
		},
	}
}

// componentDirEntries lists the subdirectory names under components/. A
// package assembled with an empty tier may have no components directory at
// all; that is not an error.
func (e *Engine) componentDirEntries() ([]string, error) {
	entries, err := os.ReadDir(e.layout.ComponentsPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}
