package model

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/mod/semver"
)

// ErrInvalidVersion is returned when a version string is not major.minor.rev.
var ErrInvalidVersion = errors.New("invalid version")

// Version is a major.minor.rev version number. It is written without the
// leading "v" semver uses.
type Version struct {
	Major, Minor, Rev int
}

// ParseVersion parses a "major.minor.rev" string. Shorthands, pre-releases
// and build metadata are rejected.
func ParseVersion(s string) (Version, error) {
	sv := "v" + s
	if !semver.IsValid(sv) || semver.Canonical(sv) != sv || semver.Prerelease(sv) != "" {
		return Version{}, errors.Wrapf(ErrInvalidVersion, "%q", s)
	}

	parts := strings.Split(s, ".")
	nums := make([]int, len(parts))

	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return Version{}, errors.Wrapf(ErrInvalidVersion, "%q: %v", s, err)
		}

		nums[i] = n
	}

	return Version{Major: nums[0], Minor: nums[1], Rev: nums[2]}, nil
}

// Compare returns -1, 0 or 1 if v is lower than, equal to or greater than o.
func (v Version) Compare(o Version) int {
	return semver.Compare(v.semver(), o.semver())
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Rev)
}

func (v Version) semver() string {
	return "v" + v.String()
}
