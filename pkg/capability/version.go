package capability

import "fmt"

// Version is a FiRa protocol version.
type Version struct {
	Major uint8
	Minor uint8
}

// DefaultVersion is used for any version range the peer does not advertise.
var DefaultVersion = Version{Major: 1, Minor: 1}

// Compare returns -1, 0 or 1 ordering by major, then minor.
func (v Version) Compare(o Version) int {
	switch {
	case v.Major < o.Major:
		return -1
	case v.Major > o.Major:
		return 1
	case v.Minor < o.Minor:
		return -1
	case v.Minor > o.Minor:
		return 1
	default:
		return 0
	}
}

// String returns "major.minor".
func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// VersionRange is an inclusive range of supported versions.
type VersionRange struct {
	Min Version
	Max Version
}

// DefaultVersionRange is [1.1, 1.1].
var DefaultVersionRange = VersionRange{Min: DefaultVersion, Max: DefaultVersion}

// Overlaps reports whether r and o share at least one version. Majors are
// compared first; minors only decide when the bounding majors are equal.
func (r VersionRange) Overlaps(o VersionRange) bool {
	return r.Min.Compare(o.Max) <= 0 && r.Max.Compare(o.Min) >= 0
}

func (r VersionRange) bytes() []byte {
	return []byte{r.Min.Major, r.Min.Minor, r.Max.Major, r.Max.Minor}
}

func versionRangeFromBytes(b []byte) (VersionRange, bool) {
	if len(b) != 4 {
		return VersionRange{}, false
	}
	return VersionRange{
		Min: Version{Major: b[0], Minor: b[1]},
		Max: Version{Major: b[2], Minor: b[3]},
	}, true
}

// String returns "min-max".
func (r VersionRange) String() string {
	return r.Min.String() + "-" + r.Max.String()
}
