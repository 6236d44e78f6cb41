package stats

import (
	"github.com/matematik7/stride/metrics"
	"github.com/matematik7/stride/strava"
)

// Summary holds the aggregate cards shown above the activity list. Raw
// totals are kept next to their display form so the JSON view can carry
// both.
type Summary struct {
	Count int `json:"count"`

	Distance     float64 `json:"distance"`      // meters
	MovingTime   float64 `json:"moving_time"`   // seconds
	AverageSpeed float64 `json:"average_speed"` // m/s, mean of the raw speeds
	Elevation    float64 `json:"elevation"`     // meters

	TotalDistance  string `json:"total_distance"`
	TotalTime      string `json:"total_time"`
	AveragePace    string `json:"average_pace"`
	TotalElevation string `json:"total_elevation"`
}

// Summarize aggregates the whole collection. The average pace is derived
// from the mean speed, never from averaging paces.
func Summarize(activities []strava.Activity) Summary {
	distances := make([]float64, len(activities))
	times := make([]float64, len(activities))
	speeds := make([]float64, len(activities))
	elevations := make([]float64, len(activities))
	for i := range activities {
		distances[i] = activities[i].Distance
		times[i] = float64(activities[i].MovingTime)
		speeds[i] = activities[i].AverageSpeed
		elevations[i] = activities[i].TotalElevationGain
	}

	s := Summary{
		Count:        len(activities),
		Distance:     sum(distances),
		MovingTime:   sum(times),
		AverageSpeed: average(speeds),
		Elevation:    sum(elevations),
	}

	s.TotalDistance = metrics.DistanceKm(s.Distance, 1)
	s.TotalTime = metrics.DurationMin(s.MovingTime)
	s.AveragePace = metrics.Pace(s.AverageSpeed)
	s.TotalElevation = metrics.ElevationM(s.Elevation)

	return s
}

func sum(values []float64) float64 {
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total
}

func average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return sum(values) / float64(len(values))
}
