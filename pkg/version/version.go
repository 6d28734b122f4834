// Package version exposes the batchkit build version.
package version

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// version is overridden at build time with
// -ldflags "-X github.com/rshade/batchkit/pkg/version.version=1.2.3".
var version = "0.1.0-dev" //nolint:gochecknoglobals // set via ldflags

// GetVersion returns the build version string.
func GetVersion() string {
	return version
}

// Semver parses the build version.
func Semver() (*semver.Version, error) {
	v, err := semver.NewVersion(version)
	if err != nil {
		return nil, fmt.Errorf("parsing build version %q: %w", version, err)
	}
	return v, nil
}

// Satisfies reports whether the build version meets the semver constraint,
// e.g. ">= 0.1, < 2". Pre-release builds are compared on their release part.
func Satisfies(constraint string) (bool, error) {
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return false, fmt.Errorf("parsing version constraint %q: %w", constraint, err)
	}
	v, err := Semver()
	if err != nil {
		return false, err
	}
	release, err := v.SetPrerelease("")
	if err != nil {
		return false, err
	}
	return c.Check(&release), nil
}
