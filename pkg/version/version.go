// Package version provides firmware version parsing and comparison.
package version

import (
	"fmt"
	"strconv"
	"strings"
)

// Current is the version reported by the bundled binaries.
const Current = "1.0.0"

// Version represents a parsed "major.minor.patch" version.
type Version struct {
	Major uint16
	Minor uint16
	Patch uint16
}

// Parse parses a "major.minor.patch" version string.
func Parse(s string) (Version, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return Version{}, fmt.Errorf("invalid version %q: expected major.minor.patch", s)
	}

	nums := make([]uint16, 3)
	for i, part := range parts {
		n, err := strconv.ParseUint(part, 10, 16)
		if err != nil || part == "" {
			return Version{}, fmt.Errorf("invalid version %q: bad component %q", s, part)
		}
		nums[i] = uint16(n)
	}

	return Version{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}

// String returns the version as "major.minor.patch".
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Compatible returns true if the other version has the same major version.
func (v Version) Compatible(other Version) bool {
	return v.Major == other.Major
}

// Less returns true if v orders strictly before other.
func (v Version) Less(other Version) bool {
	if v.Major != other.Major {
		return v.Major < other.Major
	}
	if v.Minor != other.Minor {
		return v.Minor < other.Minor
	}
	return v.Patch < other.Patch
}
