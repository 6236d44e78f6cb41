package metrics

import (
	"fmt"
	"math"
	"time"
)

// PaceUnknown is shown instead of a pace when the speed is zero or not a
// finite number.
const PaceUnknown = "—:— /km"

// maxPaceSeconds is the slowest pace still shown, one day per kilometer.
const maxPaceSeconds = 24 * 60 * 60

// TimeAgo formats t relative to now using the largest whole unit.
func TimeAgo(t, now time.Time) string {
	seconds := int64(now.Sub(t) / time.Second)
	if seconds < 0 {
		return "Just now"
	}

	minutes := seconds / 60
	hours := minutes / 60
	days := hours / 24

	switch {
	case days > 0:
		return plural(days, "day") + " ago"
	case hours > 0:
		return plural(hours, "hour") + " ago"
	case minutes > 0:
		return plural(minutes, "minute") + " ago"
	default:
		return "Just now"
	}
}

func plural(n int64, unit string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// Pace converts a speed in m/s into minutes per kilometer, "M:SS /km".
func Pace(speed float64) string {
	if speed <= 0 || math.IsNaN(speed) || math.IsInf(speed, 0) {
		return PaceUnknown
	}

	// rounding the total keeps 59.5+ seconds from showing up as :60
	secs := math.Round(1000 / speed)
	if math.IsInf(secs, 0) || secs > maxPaceSeconds {
		return PaceUnknown
	}

	total := int64(secs)
	return fmt.Sprintf("%d:%02d /km", total/60, total%60)
}

func DistanceKm(meters float64, decimals int) string {
	return fmt.Sprintf("%.*f km", decimals, meters/1000)
}

func DurationMin(seconds float64) string {
	return fmt.Sprintf("%d min", int64(math.Round(seconds/60)))
}

func ElevationM(meters float64) string {
	return fmt.Sprintf("%d m", int64(math.Round(meters)))
}

func HeartRate(bpm float64) string {
	return fmt.Sprintf("%d bpm", int64(math.Round(bpm)))
}
