package strava

import (
	"bytes"
	"time"
)

// TypeRun is the only activity type the dashboard shows.
const TypeRun = "Run"

type Activity struct {
	ID                 int64     `json:"id"`
	Name               string    `json:"name"`
	Type               string    `json:"type"`
	Distance           float64   `json:"distance"`             // meters
	MovingTime         int       `json:"moving_time"`          // seconds
	AverageSpeed       float64   `json:"average_speed"`        // m/s
	TotalElevationGain float64   `json:"total_elevation_gain"` // meters
	StartDateLocal     LocalTime `json:"start_date_local"`
	KudosCount         int       `json:"kudos_count"`
	AchievementCount   int       `json:"achievement_count"`
	AverageHeartrate   *float64  `json:"average_heartrate,omitempty"`
	MaxHeartrate       *float64  `json:"max_heartrate,omitempty"`
	SplitsMetric       []Split   `json:"splits_metric,omitempty"`
	StartLatLng        []float64 `json:"start_latlng,omitempty"`
	Map                Map       `json:"map"`
}

type Split struct {
	ElevationDifference float64 `json:"elevation_difference"` // meters, signed
	AverageSpeed        float64 `json:"average_speed"`        // m/s
}

type Map struct {
	ID              string `json:"id,omitempty"`
	SummaryPolyline string `json:"summary_polyline,omitempty"`
}

// HeartRate returns the average and maximum heart rate when both were
// recorded.
func (a Activity) HeartRate() (average, maximum float64, ok bool) {
	if a.AverageHeartrate == nil || a.MaxHeartrate == nil {
		return 0, 0, false
	}
	if *a.AverageHeartrate <= 0 || *a.MaxHeartrate <= 0 {
		return 0, 0, false
	}
	return *a.AverageHeartrate, *a.MaxHeartrate, true
}

// StartPoint returns the recorded start coordinates, if any.
func (a Activity) StartPoint() (lat, lng float64, ok bool) {
	if len(a.StartLatLng) != 2 {
		return 0, 0, false
	}
	return a.StartLatLng[0], a.StartLatLng[1], true
}

const localTimeLayout = "2006-01-02T15:04:05"

// LocalTime is a start_date_local timestamp. The provider sends it either
// with a zone designator or without one, in which case the server's local
// zone is assumed.
type LocalTime struct {
	time.Time
}

func (t *LocalTime) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if len(data) == 0 || string(data) == "null" {
		t.Time = time.Time{}
		return nil
	}

	parsed, err := time.Parse(time.RFC3339, string(data))
	if err != nil {
		parsed, err = time.ParseInLocation(localTimeLayout, string(data), time.Local)
		if err != nil {
			return err
		}
	}
	t.Time = parsed
	return nil
}

func (t LocalTime) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + t.Format(time.RFC3339) + `"`), nil
}
