package capability

import (
	"strconv"
	"strings"
)

// Version is an engine release such as "2017.4.1f1". Only the major and
// minor components take part in comparisons.
type Version struct {
	Major int
	Minor int
	Raw   string
}

// ParseVersion reads the leading "major.minor" of an engine version string.
// Anything it cannot read yields the unknown version.
func ParseVersion(s string) Version {
	s = strings.TrimSpace(s)
	if s == "" {
		return Version{}
	}

	parts := strings.SplitN(s, ".", 3)
	major, err := strconv.Atoi(parts[0])
	if err != nil || major <= 0 {
		return Version{Raw: s}
	}
	minor := 0
	if len(parts) > 1 {
		minor, err = strconv.Atoi(leadingDigits(parts[1]))
		if err != nil {
			return Version{Raw: s}
		}
	}
	return Version{Major: major, Minor: minor, Raw: s}
}

func leadingDigits(s string) string {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	return s[:end]
}

// Known reports whether the version was parsed successfully.
func (v Version) Known() bool {
	return v.Major > 0
}

// AtLeast reports whether v is major.minor or newer. Unknown versions are
// never at least anything.
func (v Version) AtLeast(major, minor int) bool {
	if !v.Known() {
		return false
	}
	if v.Major != major {
		return v.Major > major
	}
	return v.Minor >= minor
}

// Less reports whether v is older than major.minor. Unknown versions are
// treated as older than every release.
func (v Version) Less(major, minor int) bool {
	return !v.AtLeast(major, minor)
}

func (v Version) String() string {
	if v.Raw != "" {
		return v.Raw
	}
	if !v.Known() {
		return "unknown"
	}
	return strconv.Itoa(v.Major) + "." + strconv.Itoa(v.Minor)
}
