package models

import (
	"fmt"
	"strconv"
	"strings"
)

// ── Semantic Versioning Helpers ──────────────────────────────

// DefaultRuleVersion is the version stamped on freshly generated catalog entries.
const DefaultRuleVersion = "1.0.0"

// Version bump kinds accepted by IncrementVersion.
const (
	BumpMajor = "major"
	BumpMinor = "minor"
	BumpPatch = "patch"
)

// Version is a parsed major.minor.patch triple.
type Version struct {
	Major int
	Minor int
	Patch int
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// ParseVersion splits a "major.minor.patch" string. Every component must be
// one or more ASCII digits; anything else is an *ErrMalformedVersion.
func ParseVersion(s string) (Version, error) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) != 3 {
		return Version{}, &ErrMalformedVersion{Version: s}
	}
	var nums [3]int
	for i, p := range parts {
		if !allDigits(p) {
			return Version{}, &ErrMalformedVersion{Version: s}
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return Version{}, &ErrMalformedVersion{Version: s}
		}
		nums[i] = n
	}
	return Version{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// IsSemver returns true if the string parses as "X.Y.Z".
func IsSemver(v string) bool {
	_, err := ParseVersion(v)
	return err == nil
}

// Compare returns -1, 0 or 1 comparing v to o component by component.
func (v Version) Compare(o Version) int {
	for _, d := range [3]int{v.Major - o.Major, v.Minor - o.Minor, v.Patch - o.Patch} {
		if d < 0 {
			return -1
		}
		if d > 0 {
			return 1
		}
	}
	return 0
}

// CompareVersions compares two version strings: -1 if v1 < v2, 0 if equal, 1 if v1 > v2.
func CompareVersions(v1, v2 string) (int, error) {
	a, err := ParseVersion(v1)
	if err != nil {
		return 0, err
	}
	b, err := ParseVersion(v2)
	if err != nil {
		return 0, err
	}
	return a.Compare(b), nil
}

// CanAutoUpgrade reports whether candidate may replace current without
// manual action. A MAJOR bump never auto-applies. Any other candidate passes
// when the flag is on, including equal or older versions.
func CanAutoUpgrade(current, candidate string, autoUpgradeEnabled bool) (bool, error) {
	if !autoUpgradeEnabled {
		return false, nil
	}
	cur, err := ParseVersion(current)
	if err != nil {
		return false, err
	}
	cand, err := ParseVersion(candidate)
	if err != nil {
		return false, err
	}
	return cand.Major <= cur.Major, nil
}

// IncrementVersion bumps current by bumpType ("major", "minor" or "patch"):
//
//	major: 1.2.3 → 2.0.0
//	minor: 1.2.3 → 1.3.0
//	patch: 1.2.3 → 1.2.4
func IncrementVersion(current, bumpType string) (string, error) {
	v, err := ParseVersion(current)
	if err != nil {
		return "", err
	}
	switch bumpType {
	case BumpMajor:
		v = Version{Major: v.Major + 1}
	case BumpMinor:
		v = Version{Major: v.Major, Minor: v.Minor + 1}
	case BumpPatch:
		v.Patch++
	default:
		return "", &ErrInvalidArgument{Field: "bump_type", Reason: fmt.Sprintf("unknown bump type %q", bumpType)}
	}
	return v.String(), nil
}
