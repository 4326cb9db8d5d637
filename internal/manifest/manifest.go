package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/distkit/distkit/internal/tier"
)

// SchemaVersion is the current manifest schema version
const SchemaVersion = "distkit.package/v1"

// Manifest is the persisted record of what was actually built. It is written
// exactly once, as the final step of a successful assembly, and never mutated
// afterwards; a re-run produces a new manifest. Its presence marks that
// assembly reached completion, though partial tiers are still possible (see
// ComponentsMissing).
type Manifest struct {
	// Schema is the manifest format version
	Schema string `json:"schema"`

	// BuildID uniquely identifies this assembly run
	BuildID string `json:"build_id"`

	// Version is the application version the package carries
	Version string `json:"version"`

	// Platform is the canonical platform identifier (e.g. "linux-x64")
	Platform string `json:"platform"`

	// TierName is the component tier the package was assembled for
	TierName string `json:"tier_name"`

	// TierOverridden is true when an explicit component override replaced
	// the named tier's set
	TierOverridden bool `json:"tier_overridden,omitempty"`

	// Components lists the components actually included in the package
	Components []tier.ComponentSpec `json:"components"`

	// ComponentsMissing lists requested components whose prefetch failed;
	// their absence is a recorded warning, not a hidden gap
	ComponentsMissing []string `json:"components_missing,omitempty"`

	// BuiltAtUTC is the assembly completion time in UTC
	BuiltAtUTC time.Time `json:"built_at_utc"`
}

// New creates a manifest for a completed assembly.
func New(version, platformID, tierName string, included []tier.ComponentSpec, missing []string) *Manifest {
	return &Manifest{
		Schema:            SchemaVersion,
		BuildID:           uuid.NewString(),
		Version:           version,
		Platform:          platformID,
		TierName:          tierName,
		Components:        included,
		ComponentsMissing: missing,
		BuiltAtUTC:        time.Now().UTC(),
	}
}

// Write persists the manifest to path. Consumers treat the written file as
// append-only history; it is never rewritten in place by a later run against
// the same tree because assembly always starts from a fresh tree.
func (m *Manifest) Write(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// Load reads and parses a manifest file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return &m, nil
}

// ComponentIDs returns the IDs of the included components.
func (m *Manifest) ComponentIDs() []string {
	ids := make([]string, len(m.Components))
	for i, c := range m.Components {
		ids[i] = c.ID
	}
	return ids
}
