// Package tier maps named component tiers to concrete sets of optional
// components. Tiers are strictly nested: each tier is defined as the
// previous tier plus additions, so the nesting invariant holds by
// construction and is never re-validated at runtime.
package tier

import (
	"github.com/distkit/distkit/internal/errors"
)

// ComponentSpec describes one optional component a tier can include.
type ComponentSpec struct {
	// ID is the stable component identifier used in directory names and
	// manifests (e.g. "rust").
	ID string `json:"id" yaml:"id"`

	// DisplayName is the human-readable component name.
	DisplayName string `json:"display_name" yaml:"display_name"`

	// ApproxSizeBytes is the expected on-disk size, used for tier listings
	// and prefetch progress; it is informational, not enforced.
	ApproxSizeBytes int64 `json:"approx_size_bytes" yaml:"approx_size_bytes"`
}

// Resolution is the outcome of resolving a tier name or an explicit override.
type Resolution struct {
	// TierName is the resolved tier, or the empty string for an override.
	TierName string

	// Components is the ordered component list.
	Components []ComponentSpec

	// Overridden is true when an explicit override list replaced the named
	// tier. Overrides bypass the nesting guarantee.
	Overridden bool
}

// language server components, ordered by tier introduction
var (
	componentPython = ComponentSpec{ID: "python", DisplayName: "Python Language Server", ApproxSizeBytes: 45 << 20}
	componentTS     = ComponentSpec{ID: "typescript", DisplayName: "TypeScript Language Server", ApproxSizeBytes: 60 << 20}
	componentGo     = ComponentSpec{ID: "go", DisplayName: "Go Language Server", ApproxSizeBytes: 30 << 20}
	componentRust   = ComponentSpec{ID: "rust", DisplayName: "Rust Language Server", ApproxSizeBytes: 80 << 20}
	componentJava   = ComponentSpec{ID: "java", DisplayName: "Java Language Server", ApproxSizeBytes: 120 << 20}
	componentRuby   = ComponentSpec{ID: "ruby", DisplayName: "Ruby Language Server", ApproxSizeBytes: 25 << 20}
	componentPHP    = ComponentSpec{ID: "php", DisplayName: "PHP Language Server", ApproxSizeBytes: 40 << 20}
	componentCSharp = ComponentSpec{ID: "csharp", DisplayName: "C# Language Server", ApproxSizeBytes: 110 << 20}
	componentKotlin = ComponentSpec{ID: "kotlin", DisplayName: "Kotlin Language Server", ApproxSizeBytes: 95 << 20}
	componentLua    = ComponentSpec{ID: "lua", DisplayName: "Lua Language Server", ApproxSizeBytes: 15 << 20}
)

// tierMinimal ⊂ tierStandard ⊂ tierFull, each built from the previous
var (
	tierMinimal  = []ComponentSpec{componentPython, componentTS, componentGo}
	tierStandard = append(append([]ComponentSpec{}, tierMinimal...), componentRust, componentJava, componentRuby, componentPHP)
	tierFull     = append(append([]ComponentSpec{}, tierStandard...), componentCSharp, componentKotlin, componentLua)
)

var registry = map[string][]ComponentSpec{
	"minimal":  tierMinimal,
	"standard": tierStandard,
	"full":     tierFull,
}

// tierOrder keeps listings deterministic, smallest tier first.
var tierOrder = []string{"minimal", "standard", "full"}

// Names returns the registered tier names, smallest tier first.
func Names() []string {
	names := make([]string, len(tierOrder))
	copy(names, tierOrder)
	return names
}

// Resolve maps a tier name to its ordered component list.
// It fails with an unknown-tier error for unregistered names and performs
// no I/O.
func Resolve(tierName string) ([]ComponentSpec, error) {
	components, ok := registry[tierName]
	if !ok {
		return nil, errors.NewUnknownTierError(tierName, Names())
	}

	// Callers must not be able to mutate the registry through the result.
	out := make([]ComponentSpec, len(components))
	copy(out, components)
	return out, nil
}

// ResolveWithOverride resolves a tier, unless an explicit override list is
// given, in which case the override replaces the resolved set entirely.
// An override is never intersected or merged with the named tier, and it
// bypasses the nesting guarantee; unknown component IDs in the override are
// rejected.
func ResolveWithOverride(tierName string, override []string) (Resolution, error) {
	if len(override) == 0 {
		components, err := Resolve(tierName)
		if err != nil {
			return Resolution{}, err
		}
		return Resolution{TierName: tierName, Components: components}, nil
	}

	byID := make(map[string]ComponentSpec, len(tierFull))
	for _, c := range tierFull {
		byID[c.ID] = c
	}

	components := make([]ComponentSpec, 0, len(override))
	for _, id := range override {
		spec, ok := byID[id]
		if !ok {
			return Resolution{}, errors.New(errors.ErrCodeOverrideInvalid,
				"unknown component in override: "+id).
				WithSuggestion("Run 'distkit tiers' to list known component IDs")
		}
		components = append(components, spec)
	}

	return Resolution{TierName: tierName, Components: components, Overridden: true}, nil
}

// TotalSize sums the approximate sizes of a component list.
func TotalSize(components []ComponentSpec) int64 {
	var total int64
	for _, c := range components {
		total += c.ApproxSizeBytes
	}
	return total
}
