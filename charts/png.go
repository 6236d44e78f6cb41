package charts

import (
	"io"
	"math"
	"regexp"
	"strconv"

	"github.com/pkg/errors"
	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

var rgbaPattern = regexp.MustCompile(`^rgba?\((\d+),\s*(\d+),\s*(\d+)(?:,\s*([\d.]+))?\)$`)

// parseColor understands the rgb(), rgba() and #hex colors used in the
// chart configs.
func parseColor(s string) drawing.Color {
	if len(s) > 0 && s[0] == '#' {
		return drawing.ColorFromHex(s[1:])
	}

	m := rgbaPattern.FindStringSubmatch(s)
	if m == nil {
		return chart.ColorBlue
	}

	channel := func(v string) uint8 {
		n, _ := strconv.Atoi(v)
		return uint8(n)
	}
	alpha := uint8(255)
	if m[4] != "" {
		if a, err := strconv.ParseFloat(m[4], 64); err == nil {
			alpha = uint8(math.Round(a * 255))
		}
	}

	return drawing.Color{R: channel(m[1]), G: channel(m[2]), B: channel(m[3]), A: alpha}
}

func colorAt(colors Colors, i int) drawing.Color {
	if len(colors) == 0 {
		return chart.ColorBlue
	}
	return parseColor(colors[i%len(colors)])
}

// valueRange starts at zero when asked to and never collapses to a single
// value, which go-chart refuses to draw.
func valueRange(values []float64, beginAtZero bool) *chart.ContinuousRange {
	min, max := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		min = math.Min(min, v)
		max = math.Max(max, v)
	}
	if beginAtZero {
		min = math.Min(min, 0)
		max = math.Max(max, 0)
	}
	if max-min == 0 {
		max = min + 1
	}
	return &chart.ContinuousRange{Min: min, Max: max}
}

// RenderPNG draws c as a PNG image of the given size.
func RenderPNG(w io.Writer, c *Chart, width, height int) error {
	if c == nil || len(c.Data.Datasets) == 0 {
		return errors.New("nothing to render")
	}

	switch c.Type {
	case KindBar:
		return renderBar(w, c, width, height)
	case KindLine, KindScatter:
		return renderContinuous(w, c, width, height)
	default:
		return errors.Errorf("unsupported chart type %q", c.Type)
	}
}

func renderContinuous(w io.Writer, c *Chart, width, height int) error {
	var series []chart.Series
	var xs, ys []float64

	for _, dataset := range c.Data.Datasets {
		s := chart.ContinuousSeries{
			Name: dataset.Label,
			Style: chart.Style{
				StrokeColor: colorAt(dataset.BorderColor, 0),
				StrokeWidth: 2,
				DotColor:    colorAt(dataset.BorderColor, 0),
				DotWidth:    3,
			},
		}

		if c.Type == KindScatter {
			// points only, no connecting line
			s.Style.StrokeWidth = chart.Disabled
			for _, p := range dataset.Points {
				s.XValues = append(s.XValues, p.X)
				s.YValues = append(s.YValues, p.Y)
			}
		} else {
			for i, v := range dataset.Data {
				s.XValues = append(s.XValues, float64(i+1))
				s.YValues = append(s.YValues, v)
			}
		}

		if len(s.XValues) == 0 {
			continue
		}
		xs = append(xs, s.XValues...)
		ys = append(ys, s.YValues...)
		series = append(series, s)
	}

	if len(series) == 0 {
		return errors.New("nothing to render")
	}

	graph := chart.Chart{
		Title:  c.Options.Plugins.Title.Text,
		Width:  width,
		Height: height,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16},
		},
		XAxis: chart.XAxis{
			Name:  c.Options.Scales["x"].Title.Text,
			Range: valueRange(xs, false),
		},
		YAxis: chart.YAxis{
			Name:  c.Options.Scales["y"].Title.Text,
			Range: valueRange(ys, c.Options.Scales["y"].BeginAtZero),
		},
		Series: series,
	}

	if err := graph.Render(chart.PNG, w); err != nil {
		return errors.Wrap(err, "could not render chart")
	}
	return nil
}

func renderBar(w io.Writer, c *Chart, width, height int) error {
	dataset := c.Data.Datasets[0]
	if len(dataset.Data) == 0 {
		return errors.New("nothing to render")
	}

	bars := make([]chart.Value, len(dataset.Data))
	for i, v := range dataset.Data {
		label := ""
		if i < len(c.Data.Labels) {
			label = c.Data.Labels[i]
		}
		bars[i] = chart.Value{
			Label: label,
			Value: v,
			Style: chart.Style{
				FillColor:   colorAt(dataset.BackgroundColor, i),
				StrokeColor: colorAt(dataset.BorderColor, i),
				StrokeWidth: float64(dataset.BorderWidth),
			},
		}
	}

	graph := chart.BarChart{
		Title:  c.Options.Plugins.Title.Text,
		Width:  width,
		Height: height,
		Background: chart.Style{
			Padding: chart.Box{Top: 40},
		},
		BarWidth: width / (2*len(bars) + 1),
		YAxis: chart.YAxis{
			Name:  c.Options.Scales["y"].Title.Text,
			Range: valueRange(dataset.Data, true),
		},
		Bars: bars,
	}

	if err := graph.Render(chart.PNG, w); err != nil {
		return errors.Wrap(err, "could not render chart")
	}
	return nil
}
