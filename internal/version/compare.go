package version

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// CheckVersionCompatibility checks whether output recorded by producerVersion can be
// reused by a run of currentVersion. Returns nil if compatible, error with details if not.
//
// Compatibility Rules:
//   - If either version is "main" (development build), compatibility check is skipped
//   - Major versions must match exactly
//   - Minor versions must match exactly
//   - Patch versions can differ (e.g., 1.2.0 is compatible with 1.2.5)
//
// Examples:
//   - Current 1.2.0, Producer 1.2.0 -> OK (exact match)
//   - Current 1.2.1, Producer 1.2.0 -> OK (patch differs)
//   - Current 1.3.0, Producer 1.2.0 -> ERROR (minor differs)
//   - Current main, Producer 1.2.0 -> OK (dev build, skip check)
func CheckVersionCompatibility(currentVersion, producerVersion string) error {
	currentVersion = strings.TrimPrefix(currentVersion, "v")
	producerVersion = strings.TrimPrefix(producerVersion, "v")

	if currentVersion == "main" || producerVersion == "main" {
		return nil
	}

	current, err := semver.NewVersion(currentVersion)
	if err != nil {
		return fmt.Errorf("invalid current version '%s': %w", currentVersion, err)
	}

	producer, err := semver.NewVersion(producerVersion)
	if err != nil {
		return fmt.Errorf("invalid producer version '%s': %w", producerVersion, err)
	}

	if current.Major() != producer.Major() {
		return fmt.Errorf("major version mismatch: running %d.x.x but data was written by %d.x.x",
			current.Major(), producer.Major())
	}

	if current.Minor() != producer.Minor() {
		return fmt.Errorf("minor version mismatch: running %d.%d.x but data was written by %d.%d.x",
			current.Major(), current.Minor(),
			producer.Major(), producer.Minor())
	}

	return nil
}
