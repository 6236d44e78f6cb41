package metrics

import (
	"sync"
	"time"

	"github.com/flosch/pongo2"
	"github.com/pkg/errors"
)

var registerOnce sync.Once

// RegisterFilters makes the formatters available to pongo2 templates as
// pace, timeago, km, minutes, meters and bpm.
func RegisterFilters() {
	registerOnce.Do(func() {
		pongo2.RegisterFilter("pace", func(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
			return pongo2.AsValue(Pace(in.Float())), nil
		})

		pongo2.RegisterFilter("timeago", func(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
			t, ok := in.Interface().(time.Time)
			if !ok {
				return nil, &pongo2.Error{
					Sender:    "filter:timeago",
					OrigError: errors.Errorf("expected time.Time, got %T", in.Interface()),
				}
			}
			return pongo2.AsValue(TimeAgo(t, time.Now())), nil
		})

		pongo2.RegisterFilter("km", func(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
			decimals := 1
			if !param.IsNil() {
				decimals = param.Integer()
			}
			return pongo2.AsValue(DistanceKm(in.Float(), decimals)), nil
		})

		pongo2.RegisterFilter("minutes", func(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
			return pongo2.AsValue(DurationMin(in.Float())), nil
		})

		pongo2.RegisterFilter("meters", func(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
			return pongo2.AsValue(ElevationM(in.Float())), nil
		})

		pongo2.RegisterFilter("bpm", func(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
			return pongo2.AsValue(HeartRate(in.Float())), nil
		})
	})
}
