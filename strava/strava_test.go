package strava

import (
	"context"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus"

	"github.com/matematik7/stride/autherror"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.Out = ioutil.Discard
	return log
}

func newTestClient(t *testing.T, handler http.HandlerFunc, options ...Option) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	options = append([]Option{WithLogger(quietLogger())}, options...)
	client, err := New(server.URL, options...)
	if err != nil {
		t.Fatal(err)
	}
	return client
}

func TestActivitiesFiltersRuns(t *testing.T) {
	var gotCookie string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != ActivitiesPath {
			t.Errorf("request path = %q", r.URL.Path)
		}
		if r.Method != http.MethodGet {
			t.Errorf("request method = %q", r.Method)
		}
		if c, err := r.Cookie("session"); err == nil {
			gotCookie = c.Value
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"id": 1, "name": "Morning Run", "type": "Run", "distance": 5000, "moving_time": 1500, "average_speed": 3.33,
			 "start_date_local": "2024-05-01T07:00:00Z", "average_heartrate": 150.5, "max_heartrate": 171,
			 "splits_metric": [{"elevation_difference": 3.2, "average_speed": 3.1}, {"elevation_difference": -1.5, "average_speed": 3.4}]},
			{"id": 2, "name": "Commute", "type": "Ride", "distance": 12000},
			{"id": 3, "name": "Evening Run", "type": "Run", "distance": 8000, "start_date_local": "2024-05-02T18:30:00"}
		]`))
	})

	ctx := WithCookies(context.Background(), []*http.Cookie{{Name: "session", Value: "abc"}})
	activities, err := client.Activities(ctx)
	if err != nil {
		t.Fatal(err)
	}

	if gotCookie != "abc" {
		t.Errorf("session cookie = %q, want %q", gotCookie, "abc")
	}

	var ids []int64
	for _, activity := range activities {
		ids = append(ids, activity.ID)
	}
	if diff := cmp.Diff([]int64{1, 3}, ids); diff != "" {
		t.Errorf("activity ids mismatch (-want +got):\n%s", diff)
	}

	first := activities[0]
	want := []Split{{ElevationDifference: 3.2, AverageSpeed: 3.1}, {ElevationDifference: -1.5, AverageSpeed: 3.4}}
	if diff := cmp.Diff(want, first.SplitsMetric); diff != "" {
		t.Errorf("splits mismatch (-want +got):\n%s", diff)
	}
	if !first.StartDateLocal.Equal(time.Date(2024, 5, 1, 7, 0, 0, 0, time.UTC)) {
		t.Errorf("start date = %v", first.StartDateLocal)
	}
	if avg, max, ok := first.HeartRate(); !ok || avg != 150.5 || max != 171 {
		t.Errorf("HeartRate() = %v, %v, %v", avg, max, ok)
	}

	second := activities[1]
	if !second.StartDateLocal.Equal(time.Date(2024, 5, 2, 18, 30, 0, 0, time.Local)) {
		t.Errorf("zone-less start date = %v", second.StartDateLocal)
	}
	if _, _, ok := second.HeartRate(); ok {
		t.Error("HeartRate() reported data for an activity without heart rate")
	}
}

func TestActivitiesNonArrayIsEmpty(t *testing.T) {
	for _, body := range []string{`{"error": "nothing here"}`, `null`, `"text"`, ` 42 `} {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(body))
		})

		activities, err := client.Activities(context.Background())
		if err != nil {
			t.Errorf("body %s: unexpected error %v", body, err)
		}
		if len(activities) != 0 {
			t.Errorf("body %s: got %d activities", body, len(activities))
		}
	}
}

func TestActivitiesStatusClassification(t *testing.T) {
	tests := []struct {
		status int
		body   string
		kind   autherror.Kind
		msg    string
	}{
		{http.StatusUnauthorized, `{"error": "Not authorized"}`, autherror.KindAuthRequired, autherror.LoadFailed},
		{http.StatusForbidden, `[{"id": 1, "type": "Run"}]`, autherror.KindAuthRequired, autherror.LoadFailed},
		{http.StatusInternalServerError, `{"error": "Internal server error"}`, autherror.KindTransient, "HTTP error! status: 500"},
	}

	for _, tt := range tests {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
			w.Write([]byte(tt.body))
		})

		activities, err := client.Activities(context.Background())
		if err == nil {
			t.Fatalf("status %d: expected error, got %d activities", tt.status, len(activities))
		}
		if kind := autherror.KindOf(err); kind != tt.kind {
			t.Errorf("status %d: kind = %v, want %v", tt.status, kind, tt.kind)
		}
		if msg := autherror.Message(err); msg != tt.msg {
			t.Errorf("status %d: message = %q, want %q", tt.status, msg, tt.msg)
		}
	}
}

func TestActivitiesMalformedPayload(t *testing.T) {
	for _, body := range []string{`[{"id": 1,`, ``, `[{"id": "one", "type": "Run"}]`} {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(body))
		})

		_, err := client.Activities(context.Background())
		if err == nil {
			t.Errorf("body %q: expected error", body)
			continue
		}
		if autherror.KindOf(err) != autherror.KindTransient {
			t.Errorf("body %q: kind = %v, want transient", body, autherror.KindOf(err))
		}
	}
}

func TestActivitiesSkipsOddNonRuns(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"id": "x", "type": "Ride", "distance": "far"},
			{"id": 4, "name": "Lunch Run", "type": "Run", "distance": 6000},
			7,
			{"id": 5, "type": {"kind": "Swim"}}
		]`))
	})

	activities, err := client.Activities(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(activities) != 1 || activities[0].ID != 4 || activities[0].Distance != 6000 {
		t.Errorf("activities = %+v", activities)
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestWithTransport(t *testing.T) {
	var gotURL, gotCookie string
	transport := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		gotURL = r.URL.String()
		if c, err := r.Cookie("session"); err == nil {
			gotCookie = c.Value
		}
		return &http.Response{
			StatusCode: http.StatusOK,
			Header:     http.Header{"Content-Type": {"application/json"}},
			Body:       ioutil.NopCloser(strings.NewReader(`[{"id": 9, "type": "Run"}]`)),
			Request:    r,
		}, nil
	})

	client, err := New("https://activities.example.com/proxy/", WithTransport(transport), WithLogger(quietLogger()))
	if err != nil {
		t.Fatal(err)
	}

	ctx := WithCookies(context.Background(), []*http.Cookie{{Name: "session", Value: "xyz"}})
	activities, err := client.Activities(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if gotURL != "https://activities.example.com/proxy/api/activities" {
		t.Errorf("request url = %q", gotURL)
	}
	if gotCookie != "xyz" {
		t.Errorf("session cookie = %q", gotCookie)
	}
	if len(activities) != 1 || activities[0].ID != 9 {
		t.Errorf("activities = %+v", activities)
	}
}

func TestActivitiesUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	baseURL := server.URL
	server.Close()

	client, err := New(baseURL, WithLogger(quietLogger()))
	if err != nil {
		t.Fatal(err)
	}

	_, err = client.Activities(context.Background())
	if err == nil {
		t.Fatal("expected error for unreachable upstream")
	}
	if autherror.KindOf(err) != autherror.KindTransient {
		t.Errorf("kind = %v, want transient", autherror.KindOf(err))
	}
	if autherror.Message(err) != "Failed to load activities. Please try again." {
		t.Errorf("message = %q", autherror.Message(err))
	}
}

func TestActivitiesTimeout(t *testing.T) {
	release := make(chan struct{})
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, WithTimeout(50*time.Millisecond))
	defer close(release)

	start := time.Now()
	_, err := client.Activities(context.Background())
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if autherror.KindOf(err) != autherror.KindTransient {
		t.Errorf("kind = %v, want transient", autherror.KindOf(err))
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("request took %v", elapsed)
	}
}

func TestActivitiesCancelled(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := client.Activities(ctx); autherror.KindOf(err) != autherror.KindTransient || err == nil {
		t.Errorf("cancelled request returned %v", err)
	}
}

func TestFilterRunsIdempotent(t *testing.T) {
	inputs := [][]Activity{
		nil,
		{},
		{{ID: 1, Type: "Ride"}},
		{{ID: 1, Type: "Run"}, {ID: 2, Type: "Walk"}, {ID: 3, Type: "Run"}, {ID: 4, Type: "run"}},
	}

	for _, input := range inputs {
		once := FilterRuns(input)
		twice := FilterRuns(once)
		if diff := cmp.Diff(once, twice); diff != "" {
			t.Errorf("filtering twice differs (-once +twice):\n%s", diff)
		}
		for _, activity := range once {
			if activity.Type != TypeRun {
				t.Errorf("filter kept %q", activity.Type)
			}
		}
	}
}

func TestNewRejectsRelativeURL(t *testing.T) {
	if _, err := New("/api"); err == nil {
		t.Error("expected error for relative base url")
	}
}
