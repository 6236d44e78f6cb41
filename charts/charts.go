// Package charts maps a single activity onto the chart configurations the
// browser side chart renderer expects. Every chart is optional: a missing
// input means the chart is left out, never drawn with placeholder values.
package charts

import (
	"strconv"

	jsoniter "github.com/json-iterator/go"
	"github.com/twpayne/go-polyline"

	"github.com/matematik7/stride/strava"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	KindLine    = "line"
	KindBar     = "bar"
	KindScatter = "scatter"
)

// Chart is a chart.js style configuration.
type Chart struct {
	Type    string  `json:"type"`
	Data    Data    `json:"data"`
	Options Options `json:"options"`
}

type Data struct {
	Labels   []string  `json:"labels,omitempty"`
	Datasets []Dataset `json:"datasets"`
}

type Dataset struct {
	Label string
	Data  []float64
	// Points is used by scatter charts instead of Data.
	Points []Point

	BorderColor     Colors
	BackgroundColor Colors
	BorderWidth     int
	Tension         float64
}

func (d Dataset) MarshalJSON() ([]byte, error) {
	var data interface{} = d.Data
	if d.Points != nil {
		data = d.Points
	}

	return json.Marshal(struct {
		Label           string      `json:"label"`
		Data            interface{} `json:"data"`
		BorderColor     Colors      `json:"borderColor"`
		BackgroundColor Colors      `json:"backgroundColor"`
		BorderWidth     int         `json:"borderWidth,omitempty"`
		Tension         float64     `json:"tension,omitempty"`
	}{
		Label:           d.Label,
		Data:            data,
		BorderColor:     d.BorderColor,
		BackgroundColor: d.BackgroundColor,
		BorderWidth:     d.BorderWidth,
		Tension:         d.Tension,
	})
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Colors is a single color for line charts or one color per bar.
type Colors []string

func (c Colors) MarshalJSON() ([]byte, error) {
	if len(c) == 1 {
		return json.Marshal(c[0])
	}
	return json.Marshal([]string(c))
}

type Options struct {
	Responsive bool             `json:"responsive"`
	Plugins    Plugins          `json:"plugins"`
	Scales     map[string]Scale `json:"scales,omitempty"`
}

type Plugins struct {
	Legend Legend `json:"legend"`
	Title  Title  `json:"title"`
}

type Legend struct {
	Position string `json:"position"`
}

type Title struct {
	Display bool   `json:"display"`
	Text    string `json:"text"`
}

type Scale struct {
	BeginAtZero bool  `json:"beginAtZero,omitempty"`
	Title       Title `json:"title"`
}

// Set holds the charts for one activity; nil entries are not rendered.
type Set struct {
	Elevation *Chart `json:"elevation,omitempty"`
	Speed     *Chart `json:"speed,omitempty"`
	HeartRate *Chart `json:"heart_rate,omitempty"`
	Route     *Chart `json:"route,omitempty"`
}

// For builds every chart the activity has data for.
func For(activity strava.Activity) Set {
	return Set{
		Elevation: Elevation(activity),
		Speed:     Speed(activity),
		HeartRate: HeartRate(activity),
		Route:     Route(activity),
	}
}

// Get returns the chart with the given name (elevation, speed, heart_rate,
// route).
func (s Set) Get(name string) *Chart {
	switch name {
	case "elevation":
		return s.Elevation
	case "speed":
		return s.Speed
	case "heart_rate":
		return s.HeartRate
	case "route":
		return s.Route
	default:
		return nil
	}
}

func splitLabels(splits []strava.Split) []string {
	labels := make([]string, len(splits))
	for i := range splits {
		labels[i] = strconv.Itoa(i + 1)
	}
	return labels
}

func options(title, xTitle, yTitle string) Options {
	scales := map[string]Scale{
		"y": {BeginAtZero: true, Title: Title{Display: true, Text: yTitle}},
	}
	if xTitle != "" {
		scales["x"] = Scale{Title: Title{Display: true, Text: xTitle}}
	}

	return Options{
		Responsive: true,
		Plugins: Plugins{
			Legend: Legend{Position: "top"},
			Title:  Title{Display: true, Text: title},
		},
		Scales: scales,
	}
}

// Elevation plots the elevation difference of every kilometer split.
func Elevation(activity strava.Activity) *Chart {
	if len(activity.SplitsMetric) == 0 {
		return nil
	}

	values := make([]float64, len(activity.SplitsMetric))
	for i, split := range activity.SplitsMetric {
		values[i] = split.ElevationDifference
	}

	return &Chart{
		Type: KindLine,
		Data: Data{
			Labels: splitLabels(activity.SplitsMetric),
			Datasets: []Dataset{{
				Label:           "Elevation Difference (m)",
				Data:            values,
				BorderColor:     Colors{"rgb(75, 192, 192)"},
				BackgroundColor: Colors{"rgba(75, 192, 192, 0.5)"},
				Tension:         0.1,
			}},
		},
		Options: options("Elevation Profile", "Kilometer Splits", "Elevation (m)"),
	}
}

// Speed plots the raw average speed of every kilometer split. Turning it
// into a pace is left to the axis labels of the renderer.
func Speed(activity strava.Activity) *Chart {
	if len(activity.SplitsMetric) == 0 {
		return nil
	}

	values := make([]float64, len(activity.SplitsMetric))
	for i, split := range activity.SplitsMetric {
		values[i] = split.AverageSpeed
	}

	return &Chart{
		Type: KindLine,
		Data: Data{
			Labels: splitLabels(activity.SplitsMetric),
			Datasets: []Dataset{{
				Label:           "Pace (m/s)",
				Data:            values,
				BorderColor:     Colors{"rgb(255, 99, 132)"},
				BackgroundColor: Colors{"rgba(255, 99, 132, 0.5)"},
				Tension:         0.1,
			}},
		},
		Options: options("Pace Profile", "Kilometer Splits", "Speed (m/s)"),
	}
}

// HeartRate compares average and maximum heart rate. It needs both.
func HeartRate(activity strava.Activity) *Chart {
	average, maximum, ok := activity.HeartRate()
	if !ok {
		return nil
	}

	return &Chart{
		Type: KindBar,
		Data: Data{
			Labels: []string{"Average", "Maximum"},
			Datasets: []Dataset{{
				Label:           "Heart Rate (bpm)",
				Data:            []float64{average, maximum},
				BorderColor:     Colors{"rgba(255, 206, 86, 1)", "rgba(255, 99, 132, 1)"},
				BackgroundColor: Colors{"rgba(255, 206, 86, 0.5)", "rgba(255, 99, 132, 0.5)"},
				BorderWidth:     1,
			}},
		},
		Options: options("Heart Rate Analysis", "", "BPM"),
	}
}

// Route draws the summary polyline as longitude/latitude points.
func Route(activity strava.Activity) *Chart {
	if activity.Map.SummaryPolyline == "" {
		return nil
	}

	coords, _, err := polyline.DecodeCoords([]byte(activity.Map.SummaryPolyline))
	if err != nil || len(coords) == 0 {
		return nil
	}

	points := make([]Point, len(coords))
	for i, coord := range coords {
		points[i] = Point{X: coord[1], Y: coord[0]}
	}

	o := options("Route", "Longitude", "Latitude")
	o.Scales["y"] = Scale{Title: Title{Display: true, Text: "Latitude"}}

	return &Chart{
		Type: KindScatter,
		Data: Data{
			Datasets: []Dataset{{
				Label:           "Route",
				Points:          points,
				BorderColor:     Colors{"#f97316"},
				BackgroundColor: Colors{"#fdba74"},
			}},
		},
		Options: o,
	}
}
