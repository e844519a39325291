package tools

import (
	"strconv"
	"strings"
)

// Minimum versions by tool. amix's normalize option, used by the music
// mix, first shipped in ffmpeg 4.4.
var minimumVersions = map[string]string{
	"ffmpeg":  "4.4",
	"ffprobe": "4.4",
}

// MinimumVersion returns the oldest supported version of a tool, or "".
func MinimumVersion(name string) string {
	return minimumVersions[name]
}

// MeetsMinimum compares dotted numeric versions. Non-numeric decoration
// such as the "n" in "n7.0-static" is ignored.
func MeetsMinimum(version, minimum string) bool {
	if minimum == "" {
		return true
	}
	if version == "" {
		return false
	}

	vParts := numericParts(version)
	mParts := numericParts(minimum)
	if len(vParts) == 0 {
		return false
	}
	for len(vParts) < len(mParts) {
		vParts = append(vParts, 0)
	}
	for len(mParts) < len(vParts) {
		mParts = append(mParts, 0)
	}
	for i := range vParts {
		if vParts[i] > mParts[i] {
			return true
		}
		if vParts[i] < mParts[i] {
			return false
		}
	}
	return true
}

func numericParts(version string) []int {
	var parts []int
	current := strings.Builder{}
	flush := func() {
		if current.Len() > 0 {
			val, _ := strconv.Atoi(current.String())
			parts = append(parts, val)
			current.Reset()
		}
	}
	for _, r := range version {
		if r >= '0' && r <= '9' {
			current.WriteRune(r)
			continue
		}
		flush()
	}
	flush()
	return parts
}
