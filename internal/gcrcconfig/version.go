package gcrcconfig

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// schemaConstraint accepts any policy file whose schema is compatible
// with SchemaVersion under semver's caret-range rules (same major,
// same-or-newer minor/patch), in the same semver.NewConstraint/Check
// shape as internal/packagemanager/lockfile.go.
var schemaConstraint = mustConstraint("^" + SchemaVersion)

func mustConstraint(expr string) *semver.Constraints {
	c, err := semver.NewConstraint(expr)
	if err != nil {
		panic(fmt.Sprintf("gcrcconfig: invalid built-in constraint %q: %v", expr, err))
	}

	return c
}

func checkSchema(schema string) error {
	if schema == "" {
		return nil
	}

	v, err := semver.NewVersion(schema)
	if err != nil {
		return fmt.Errorf("invalid schema version %q: %w", schema, err)
	}

	if !schemaConstraint.Check(v) {
		return fmt.Errorf("schema version %s is not compatible with %s", schema, SchemaVersion)
	}

	return nil
}
