// Package update compares the running version with a published one.
package update

import (
	"fmt"
	"runtime"

	"github.com/hashicorp/go-version"
)

// Status is the outcome of a version comparison.
type Status struct {
	Current   string
	Latest    string
	Available bool
}

// Check reports whether latest is newer than current. Both accept an
// optional leading "v".
func Check(current, latest string) (Status, error) {
	cur, err := version.NewVersion(current)
	if err != nil {
		return Status{}, fmt.Errorf("invalid version format: %w", err)
	}
	lat, err := version.NewVersion(latest)
	if err != nil {
		return Status{}, fmt.Errorf("invalid latest version format: %w", err)
	}
	return Status{
		Current:   cur.String(),
		Latest:    lat.String(),
		Available: cur.LessThan(lat),
	}, nil
}

// GetDownloadURL returns the download URL for the current platform
func GetDownloadURL(v string) string {
	return fmt.Sprintf("https://github.com/satishbabariya/normgo/releases/download/v%s/norm-%s-%s", v, runtime.GOOS, runtime.GOARCH)
}
