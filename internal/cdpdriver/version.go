package cdpdriver

import (
	"regexp"
	"strconv"
)

// MinVersion is the oldest Chrome release Launch accepts.
const MinVersion = "112.0"

var versionRe = regexp.MustCompile(`(\d+)\.(\d+)`)

// versionAtLeast reports whether version >= minVersion. It reads the first
// major.minor pair, so product strings like "HeadlessChrome/126.0.6478.126"
// work.
func versionAtLeast(version, minVersion string) bool {
	parseMajorMinor := func(v string) (int, int, bool) {
		m := versionRe.FindStringSubmatch(v)
		if m == nil {
			return 0, 0, false
		}
		major, _ := strconv.Atoi(m[1])
		minor, _ := strconv.Atoi(m[2])
		return major, minor, true
	}

	vMajor, vMinor, ok1 := parseMajorMinor(version)
	mMajor, mMinor, ok2 := parseMajorMinor(minVersion)
	if !ok1 || !ok2 {
		return false
	}
	if vMajor != mMajor {
		return vMajor > mMajor
	}
	return vMinor >= mMinor
}
