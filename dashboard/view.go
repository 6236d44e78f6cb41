package dashboard

import (
	"time"

	"github.com/matematik7/stride/charts"
	"github.com/matematik7/stride/metrics"
	"github.com/matematik7/stride/stats"
	"github.com/matematik7/stride/strava"
)

const EmptyMessage = "No running activities found. Start tracking your runs with Strava!"

// View is a snapshot of a controller with every derived value computed. It
// is what the page and the JSON endpoint show.
type View struct {
	Status        string `json:"status"`
	Error         string `json:"error,omitempty"`
	Authenticated bool   `json:"authenticated"`

	ShowConnect bool `json:"show_connect"`
	ShowRetry   bool `json:"show_retry"`
	Empty       bool `json:"empty"`

	Summary    *stats.Summary `json:"summary,omitempty"`
	Activities []Card         `json:"activities,omitempty"`
	Selected   *Detail        `json:"selected,omitempty"`
}

// Card is one entry of the activity list.
type Card struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	When     string `json:"when"`
	Distance string `json:"distance"`
	Time     string `json:"time"`
	Pace     string `json:"pace"`
	Selected bool   `json:"selected"`
}

// Detail describes the selected activity.
type Detail struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	When         string `json:"when"`
	Distance     string `json:"distance"`
	Time         string `json:"time"`
	Pace         string `json:"pace"`
	Elevation    string `json:"elevation"`
	HeartRate    string `json:"heart_rate,omitempty"`
	Kudos        int    `json:"kudos,omitempty"`
	Achievements int    `json:"achievements,omitempty"`
	Place        string `json:"place,omitempty"`

	Charts charts.Set `json:"charts"`
}

func (c *Controller) View(now time.Time) View {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := View{Status: c.status.String()}

	switch s := c.status.(type) {
	case AuthRequired:
		v.Error = s.Message
		v.ShowConnect = true
		v.ShowRetry = true
	case Transient:
		v.Error = s.Message
		v.ShowRetry = true
	case Ready:
		v.Authenticated = true
	}

	if _, ok := c.status.(Ready); !ok {
		return v
	}
	if len(c.activities) == 0 {
		v.Empty = true
		return v
	}

	summary := stats.Summarize(c.activities)
	v.Summary = &summary

	selected, hasSelected := c.selectedActivity()
	for _, activity := range c.activities {
		v.Activities = append(v.Activities, Card{
			ID:       activity.ID,
			Name:     activity.Name,
			When:     metrics.TimeAgo(activity.StartDateLocal.Time, now),
			Distance: metrics.DistanceKm(activity.Distance, 1),
			Time:     metrics.DurationMin(float64(activity.MovingTime)),
			Pace:     metrics.Pace(activity.AverageSpeed),
			Selected: hasSelected && activity.ID == selected.ID,
		})
	}

	if hasSelected {
		v.Selected = detail(selected, now)
	}

	return v
}

func detail(activity strava.Activity, now time.Time) *Detail {
	d := &Detail{
		ID:           activity.ID,
		Name:         activity.Name,
		When:         metrics.TimeAgo(activity.StartDateLocal.Time, now),
		Distance:     metrics.DistanceKm(activity.Distance, 2),
		Time:         metrics.DurationMin(float64(activity.MovingTime)),
		Pace:         metrics.Pace(activity.AverageSpeed),
		Elevation:    metrics.ElevationM(activity.TotalElevationGain),
		Kudos:        activity.KudosCount,
		Achievements: activity.AchievementCount,
		Charts:       charts.For(activity),
	}
	if activity.AverageHeartrate != nil && *activity.AverageHeartrate > 0 {
		d.HeartRate = metrics.HeartRate(*activity.AverageHeartrate)
	}
	return d
}
