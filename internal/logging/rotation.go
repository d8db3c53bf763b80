package logging

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultRotateBytes is the size threshold used when no rotation trigger is
// configured (2 MiB).
const DefaultRotateBytes = 2 * 1024 * 1024

// DefaultRetain is how many rotated files are kept by default.
const DefaultRetain = 2

// Rotation describes when a log file is rotated: after a byte threshold or at
// a calendar boundary.
type Rotation struct {
	kind  rotationKind
	bytes int64
}

type rotationKind int

const (
	rotateBytes rotationKind = iota
	rotateDaily
	rotateHourly
)

// RotateBytes rotates once the file exceeds n bytes.
func RotateBytes(n int64) Rotation { return Rotation{kind: rotateBytes, bytes: n} }

// RotateDaily rotates at every local-time day boundary.
func RotateDaily() Rotation { return Rotation{kind: rotateDaily} }

// RotateHourly rotates at every local-time hour boundary.
func RotateHourly() Rotation { return Rotation{kind: rotateHourly} }

// DefaultRotation is the trigger used when none is configured.
func DefaultRotation() Rotation { return RotateBytes(DefaultRotateBytes) }

// ParseRotation parses a rotation trigger: "daily", "hourly" or "bytes=N".
func ParseRotation(s string) (Rotation, error) {
	switch strings.TrimSpace(s) {
	case "daily":
		return RotateDaily(), nil
	case "hourly":
		return RotateHourly(), nil
	}
	if rest, ok := strings.CutPrefix(strings.TrimSpace(s), "bytes="); ok {
		n, err := strconv.ParseInt(rest, 10, 64)
		if err != nil || n <= 0 {
			return Rotation{}, fmt.Errorf("unable to parse log rotation as bytes: %q", s)
		}
		return RotateBytes(n), nil
	}
	return Rotation{}, fmt.Errorf("unable to parse log rotation: %q", s)
}

func (r Rotation) String() string {
	switch r.kind {
	case rotateDaily:
		return "daily"
	case rotateHourly:
		return "hourly"
	default:
		n := r.bytes
		if n <= 0 {
			n = DefaultRotateBytes
		}
		return fmt.Sprintf("bytes=%d", n)
	}
}

// byteLimit returns the size threshold, 0 when rotation is calendar-based.
func (r Rotation) byteLimit() int64 {
	if r.kind != rotateBytes {
		return 0
	}
	if r.bytes <= 0 {
		return DefaultRotateBytes
	}
	return r.bytes
}
