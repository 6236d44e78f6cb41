package stats

import (
	"testing"

	"github.com/matematik7/stride/metrics"
	"github.com/matematik7/stride/strava"
)

func TestSummarizeAveragesSpeedsNotPaces(t *testing.T) {
	s := Summarize([]strava.Activity{
		{Type: "Run", AverageSpeed: 2},
		{Type: "Run", AverageSpeed: 4},
	})

	if s.AverageSpeed != 3 {
		t.Errorf("AverageSpeed = %v, want 3", s.AverageSpeed)
	}
	if s.AveragePace != metrics.Pace(3) {
		t.Errorf("AveragePace = %q, want %q", s.AveragePace, metrics.Pace(3))
	}
	// averaging 8:20 and 4:10 would give 6:15
	if s.AveragePace == "6:15 /km" {
		t.Error("AveragePace was computed from paces")
	}
}

func TestSummarizeTotals(t *testing.T) {
	s := Summarize([]strava.Activity{
		{Type: "Run", Distance: 5000, MovingTime: 1500, AverageSpeed: 3.33, TotalElevationGain: 12.4},
		{Type: "Run", Distance: 10260, MovingTime: 3010, AverageSpeed: 3.4, TotalElevationGain: 30.3},
	})

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"distance", s.TotalDistance, "15.3 km"},
		{"time", s.TotalTime, "75 min"},
		{"elevation", s.TotalElevation, "43 m"},
		{"pace", s.AveragePace, metrics.Pace((3.33 + 3.4) / 2)},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.name, tt.got, tt.want)
		}
	}
	if s.Count != 2 {
		t.Errorf("Count = %d", s.Count)
	}
}

func TestSummarizeSingleRun(t *testing.T) {
	s := Summarize([]strava.Activity{{Type: "Run", Distance: 5000, MovingTime: 1500, AverageSpeed: 3.33}})
	if s.TotalDistance != "5.0 km" {
		t.Errorf("TotalDistance = %q, want %q", s.TotalDistance, "5.0 km")
	}
	if s.TotalTime != "25 min" {
		t.Errorf("TotalTime = %q, want %q", s.TotalTime, "25 min")
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	if s.TotalDistance != "0.0 km" || s.TotalTime != "0 min" || s.TotalElevation != "0 m" {
		t.Errorf("empty totals = %+v", s)
	}
	if s.AveragePace != metrics.PaceUnknown {
		t.Errorf("AveragePace = %q, want %q", s.AveragePace, metrics.PaceUnknown)
	}
	if s.AverageSpeed != 0 {
		t.Errorf("AverageSpeed = %v, want 0", s.AverageSpeed)
	}
}
