// Package gcrcconfig loads and hot-reloads a JSON policy file that tunes
// a Dumpster's CollectCondition. It is deliberately outside internal/gcrc:
// the core package carries no file-format or reload surface of its own.
package gcrcconfig

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/orizon-lang/cyclegc/internal/gcrc"
)

// SchemaVersion is the policy file format this build understands, in
// the same semver constraint pattern as
// internal/packagemanager/lockfile.go's NewConstraint/Check usage.
const SchemaVersion = "1.0.0"

// Policy is the on-disk shape of a collection policy, read by Load and
// written by Save.
type Policy struct {
	// Schema is checked against a ^1.0.0-style constraint by version.go;
	// unset is treated as "1.0.0" for files predating this field.
	Schema string `json:"schema,omitempty"`

	// Mode selects how ToCondition interprets the remaining fields.
	// "ratio" (default): collect once DropsPerLiving drops have happened
	// per currently-live handle. "fixed": collect once FixedDropThreshold
	// drops have happened, regardless of how many handles are live.
	Mode string `json:"mode,omitempty"`

	// DropsPerLiving is consulted when Mode == "ratio" (or unset). A
	// value <= 0 falls back to gcrc.DefaultCollectCondition's ratio (1.0:
	// more drops than live handles).
	DropsPerLiving float64 `json:"drops_per_living,omitempty"`

	// FixedDropThreshold is consulted when Mode == "fixed".
	FixedDropThreshold uint64 `json:"fixed_drop_threshold,omitempty"`
}

// Default returns the policy matching gcrc.DefaultCollectCondition.
func Default() *Policy {
	return &Policy{Schema: SchemaVersion, Mode: "ratio", DropsPerLiving: 1.0}
}

// Load reads and validates a policy file. A missing file (or an empty
// path) is not an error — it returns Default().
func Load(path string) (*Policy, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}

		return nil, fmt.Errorf("gcrcconfig: read %s: %w", path, err)
	}

	p := Default()
	if err := json.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("gcrcconfig: parse %s: %w", path, err)
	}

	if err := checkSchema(p.Schema); err != nil {
		return nil, fmt.Errorf("gcrcconfig: %s: %w", path, err)
	}

	return p, nil
}

// Save writes p to path as indented JSON, filling in Schema with
// SchemaVersion if it is unset.
func (p *Policy) Save(path string) error {
	if p.Schema == "" {
		p.Schema = SchemaVersion
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("gcrcconfig: marshal: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("gcrcconfig: write %s: %w", path, err)
	}

	return nil
}

// ToCondition builds the gcrc.CollectCondition p describes.
func (p *Policy) ToCondition() gcrc.CollectCondition {
	switch p.Mode {
	case "fixed":
		threshold := p.FixedDropThreshold

		return func(s gcrc.Stats) bool {
			return s.NGCsDroppedSinceLastCollect() >= threshold
		}
	default:
		ratio := p.DropsPerLiving
		if ratio <= 0 {
			ratio = 1.0
		}

		return func(s gcrc.Stats) bool {
			living := s.NGCsExisting()
			if living == 0 {
				return s.NGCsDroppedSinceLastCollect() > 0
			}

			return float64(s.NGCsDroppedSinceLastCollect()) > ratio*float64(living)
		}
	}
}
