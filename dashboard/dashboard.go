// Package dashboard serves the activity dashboard. Every page view gets its
// own Controller, kept in a Views registry and addressed by id.
package dashboard

import (
	"bytes"
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/gobuffalo/packr"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/matematik7/stride/charts"
	"github.com/matematik7/stride/metrics"
	"github.com/matematik7/stride/render"
	"github.com/matematik7/stride/strava"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	idPattern = "{id:[0-9a-fA-F-]+}"

	chartWidth     = 640
	chartHeight    = 320
	maxChartWidth  = 1600
	maxChartHeight = 1200
)

// Locator names the place at a coordinate.
type Locator interface {
	City(ctx context.Context, latitude, longitude float64) (string, error)
}

type Dashboard struct {
	fetcher Fetcher
	render  *render.Render
	log     logrus.FieldLogger

	views       *Views
	connectURL  string
	cookieNames []string
	locator     Locator
	now         func() time.Time
}

type Option func(*Dashboard)

// WithConnectURL sets the authentication entry point Connect redirects to.
func WithConnectURL(url string) Option {
	return func(d *Dashboard) {
		d.connectURL = url
	}
}

// WithCookies sets the names of the session cookies forwarded upstream.
func WithCookies(names ...string) Option {
	return func(d *Dashboard) {
		d.cookieNames = names
	}
}

func WithViews(views *Views) Option {
	return func(d *Dashboard) {
		d.views = views
	}
}

func WithLocator(locator Locator) Option {
	return func(d *Dashboard) {
		d.locator = locator
	}
}

func New(fetcher Fetcher, r *render.Render, log logrus.FieldLogger, options ...Option) *Dashboard {
	d := &Dashboard{
		fetcher:     fetcher,
		render:      r,
		log:         log,
		views:       NewViews(30 * time.Minute),
		cookieNames: []string{"session"},
		now:         time.Now,
	}
	for _, option := range options {
		option(d)
	}

	metrics.RegisterFilters()
	d.render.AddTemplates(packr.NewBox("./templates"))

	return d
}

func (d *Dashboard) ServeMux() http.Handler {
	router := chi.NewRouter()

	router.Get("/", d.IndexHandler)
	router.Get("/views/"+idPattern, d.ViewHandler)
	router.Get("/views/"+idPattern+".json", d.JSONHandler)
	router.Post("/views/"+idPattern+"/select", d.SelectHandler)
	router.Post("/views/"+idPattern+"/retry", d.RetryHandler)
	router.Get("/views/"+idPattern+"/connect", d.ConnectHandler)
	router.Post("/views/"+idPattern+"/close", d.CloseHandler)
	router.Get("/views/"+idPattern+"/charts/{kind}.png", d.ChartHandler)

	return router
}

// querySignal carries the error parameter of the entry request.
type querySignal struct {
	code         string
	acknowledged bool
}

func (s *querySignal) ErrorCode() string { return s.code }

func (s *querySignal) Acknowledge() { s.acknowledged = true }

// upstreamContext forwards the configured session cookies of r.
func (d *Dashboard) upstreamContext(r *http.Request) context.Context {
	var cookies []*http.Cookie
	for _, name := range d.cookieNames {
		if cookie, err := r.Cookie(name); err == nil {
			cookies = append(cookies, cookie)
		}
	}
	return strava.WithCookies(r.Context(), cookies)
}

func viewURL(id string) string {
	return "/views/" + id
}

// IndexHandler opens a new view and sends the browser to its clean URL,
// which also drops a consumed error parameter from the history.
func (d *Dashboard) IndexHandler(w http.ResponseWriter, r *http.Request) {
	signal := &querySignal{code: r.URL.Query().Get("error")}

	controller := NewController(d.fetcher, d.connectURL, d.log)
	if err := controller.Mount(d.upstreamContext(r), signal); err != nil {
		d.render.Error(w, r, err)
		return
	}

	id, err := d.views.Create(controller)
	if err != nil {
		d.render.Error(w, r, err)
		return
	}

	d.log.WithFields(logrus.Fields{
		"view":         id,
		"status":       controller.Status().String(),
		"acknowledged": signal.acknowledged,
	}).Info("view opened")

	d.render.Redirect(w, r, viewURL(id))
}

// controller looks up the view of the request. A missing view sends the
// browser back to a fresh one.
func (d *Dashboard) controller(w http.ResponseWriter, r *http.Request) (string, *Controller, bool) {
	id := chi.URLParam(r, "id")

	controller, err := d.views.Get(id)
	if err != nil {
		d.log.WithError(err).WithField("view", id).Info("view not found")
		if err := d.render.AddFlash(w, r, render.FlashInfo("Your dashboard view has expired and was reloaded.")); err != nil {
			d.log.WithError(err).Warn("could not add flash")
		}
		d.render.Redirect(w, r, "/")
		return "", nil, false
	}

	return id, controller, true
}

// place looks up the start of the selected activity. Failures only leave
// the place out.
func (d *Dashboard) place(ctx context.Context, controller *Controller) string {
	if d.locator == nil {
		return ""
	}
	selected, ok := controller.Selected()
	if !ok {
		return ""
	}
	lat, lng, ok := selected.StartPoint()
	if !ok {
		return ""
	}

	city, err := d.locator.City(ctx, lat, lng)
	if err != nil {
		d.log.WithError(err).WithField("activity", selected.ID).Warn("could not look up start place")
		return ""
	}
	return city
}

func (d *Dashboard) snapshot(r *http.Request, controller *Controller) View {
	view := controller.View(d.now())
	if view.Selected != nil {
		view.Selected.Place = d.place(r.Context(), controller)
	}
	return view
}

func (d *Dashboard) ViewHandler(w http.ResponseWriter, r *http.Request) {
	id, controller, ok := d.controller(w, r)
	if !ok {
		return
	}

	view := d.snapshot(r, controller)

	chartsJSON := []byte("{}")
	if view.Selected != nil {
		data, err := json.Marshal(view.Selected.Charts)
		if err != nil {
			d.render.Error(w, r, errors.Wrap(err, "could not encode charts"))
			return
		}
		chartsJSON = data
	}

	context := render.Context{
		"view_id":     id,
		"view":        view,
		"activities":  controller.Activities(),
		"charts_json": string(chartsJSON),
		"empty":       EmptyMessage,
	}

	d.render.Template(w, r, "dashboard.html", context)
}

func (d *Dashboard) JSONHandler(w http.ResponseWriter, r *http.Request) {
	controller, err := d.views.Get(chi.URLParam(r, "id"))
	if err != nil {
		d.render.NotFound(w, r)
		return
	}

	data, err := json.Marshal(d.snapshot(r, controller))
	if err != nil {
		d.render.Error(w, r, errors.Wrap(err, "could not encode view"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

// rejected reports a refused action as a flash and returns to the view.
func (d *Dashboard) rejected(w http.ResponseWriter, r *http.Request, id string, err error) {
	d.log.WithError(err).WithField("view", id).Info("action rejected")

	msg := "That action is not available right now."
	if errors.Is(err, ErrUnknownActivity) {
		msg = "That activity is not in your list."
	}
	if err := d.render.AddFlash(w, r, render.FlashError(msg)); err != nil {
		d.render.Error(w, r, err)
		return
	}
	d.render.Redirect(w, r, viewURL(id))
}

func (d *Dashboard) SelectHandler(w http.ResponseWriter, r *http.Request) {
	id, controller, ok := d.controller(w, r)
	if !ok {
		return
	}

	activityID, err := strconv.ParseInt(r.PostFormValue("activity"), 10, 64)
	if err != nil {
		d.rejected(w, r, id, errors.Wrap(ErrUnknownActivity, "invalid activity id"))
		return
	}

	if err := controller.Select(activityID); err != nil {
		d.rejected(w, r, id, err)
		return
	}

	d.render.Redirect(w, r, viewURL(id))
}

func (d *Dashboard) RetryHandler(w http.ResponseWriter, r *http.Request) {
	id, controller, ok := d.controller(w, r)
	if !ok {
		return
	}

	if err := controller.Retry(d.upstreamContext(r)); err != nil {
		d.rejected(w, r, id, err)
		return
	}

	d.log.WithFields(logrus.Fields{
		"view":   id,
		"status": controller.Status().String(),
	}).Info("view retried")

	d.render.Redirect(w, r, viewURL(id))
}

// ConnectHandler hands the browser over to the authentication entry point.
func (d *Dashboard) ConnectHandler(w http.ResponseWriter, r *http.Request) {
	id, controller, ok := d.controller(w, r)
	if !ok {
		return
	}

	url, err := controller.Connect()
	if err != nil {
		d.rejected(w, r, id, err)
		return
	}

	http.Redirect(w, r, url, http.StatusFound)
}

func (d *Dashboard) CloseHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	d.views.Close(id)
	d.log.WithField("view", id).Debug("view closed")

	w.WriteHeader(http.StatusNoContent)
}

func dimension(r *http.Request, name string, def, max int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || v <= 0 {
		return def
	}
	if v > max {
		return max
	}
	return v
}

// ChartHandler draws a chart of the selected activity as a PNG image.
func (d *Dashboard) ChartHandler(w http.ResponseWriter, r *http.Request) {
	controller, err := d.views.Get(chi.URLParam(r, "id"))
	if err != nil {
		d.render.NotFound(w, r)
		return
	}

	selected, ok := controller.Selected()
	if !ok {
		d.render.NotFound(w, r)
		return
	}

	chart := charts.For(selected).Get(chi.URLParam(r, "kind"))
	if chart == nil {
		d.render.NotFound(w, r)
		return
	}

	var buf bytes.Buffer
	width := dimension(r, "w", chartWidth, maxChartWidth)
	height := dimension(r, "h", chartHeight, maxChartHeight)
	if err := charts.RenderPNG(&buf, chart, width, height); err != nil {
		d.render.Error(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	buf.WriteTo(w)
}
