package domain

import (
	"math/rand/v2"
	"strconv"
	"strings"
	"time"
)

const referenceSuffixSpace = 36 * 36 * 36 * 36 * 36 * 36

// NewReference builds an opaque identifier such as ORD-LZ3K9Q1B-4F7XQ2 from a
// base36 millisecond timestamp and six random base36 characters. Collisions
// are unlikely but not excluded.
func NewReference(prefix string, now time.Time) string {
	ts := strconv.FormatInt(now.UnixMilli(), 36)
	suffix := strconv.FormatInt(rand.Int64N(referenceSuffixSpace), 36)
	if pad := 6 - len(suffix); pad > 0 {
		suffix = strings.Repeat("0", pad) + suffix
	}
	return strings.ToUpper(prefix + "-" + ts + "-" + suffix)
}
