// Package render executes pongo2 templates stored in packr boxes and keeps
// flash messages in the session.
package render

import (
	"bytes"
	"encoding/gob"
	"net/http"
	"sync"

	"github.com/flosch/pongo2"
	"github.com/gobuffalo/packr"
	"github.com/gorilla/csrf"
	"github.com/gorilla/sessions"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const sessionName = "stride"

type Context = pongo2.Context

type Render struct {
	store sessions.Store
	log   logrus.FieldLogger

	mu     sync.RWMutex
	loader *boxLoader
	set    *pongo2.TemplateSet
	cache  bool
}

// New creates a renderer. Compiled templates are cached when cache is set,
// otherwise every request reads them again from the boxes.
func New(store sessions.Store, cache bool, log logrus.FieldLogger) *Render {
	loader := &boxLoader{}
	set := pongo2.NewSet("stride", loader)
	set.Debug = !cache

	return &Render{
		store:  store,
		log:    log,
		loader: loader,
		set:    set,
		cache:  cache,
	}
}

func (r *Render) AddTemplates(box packr.Box) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.loader.boxes = append(r.loader.boxes, box)
}

func (r *Render) template(name string) (*pongo2.Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.cache {
		return r.set.FromCache(name)
	}
	return r.set.FromFile(name)
}

// Template renders name with status 200. Flashes and the CSRF token of the
// request are added to the context.
func (r *Render) Template(w http.ResponseWriter, req *http.Request, name string, context Context) {
	r.TemplateStatus(w, req, http.StatusOK, name, context)
}

func (r *Render) TemplateStatus(w http.ResponseWriter, req *http.Request, status int, name string, context Context) {
	flashes, err := r.Flashes(w, req)
	if err != nil {
		r.log.WithError(err).Warn("could not read flashes")
	}

	ctx := Context{
		"flashes":    flashes,
		"csrf_token": csrf.Token(req),
		"path":       req.URL.Path,
	}
	ctx.Update(context)

	tpl, err := r.template(name)
	if err != nil {
		r.Error(w, req, errors.Wrapf(err, "could not load template %s", name))
		return
	}

	var buf bytes.Buffer
	if err := tpl.ExecuteWriter(ctx, &buf); err != nil {
		r.Error(w, req, errors.Wrapf(err, "could not execute template %s", name))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func (r *Render) Error(w http.ResponseWriter, req *http.Request, err error) {
	r.log.WithError(err).WithField("path", req.URL.Path).Error("request failed")
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func (r *Render) NotFound(w http.ResponseWriter, req *http.Request) {
	http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
}

// Flash is a one-time message shown on the next rendered page.
type Flash struct {
	Type    string
	Message string
}

func FlashInfo(msg string) Flash {
	return Flash{Type: "info", Message: msg}
}

func FlashError(msg string) Flash {
	return Flash{Type: "danger", Message: msg}
}

func init() {
	gob.Register(Flash{})
}

// Redirect answers with 303 so the browser follows up with a GET and the
// target replaces the current entry.
func (r *Render) Redirect(w http.ResponseWriter, req *http.Request, url string) {
	http.Redirect(w, req, url, http.StatusSeeOther)
}

func (r *Render) AddFlash(w http.ResponseWriter, req *http.Request, flash Flash) error {
	session, err := r.store.Get(req, sessionName)
	if err != nil {
		return errors.Wrap(err, "could not get session")
	}

	session.AddFlash(flash)
	if err := session.Save(req, w); err != nil {
		return errors.Wrap(err, "could not save session")
	}
	return nil
}

// Flashes returns and clears the pending flashes.
func (r *Render) Flashes(w http.ResponseWriter, req *http.Request) ([]Flash, error) {
	session, err := r.store.Get(req, sessionName)
	if err != nil {
		return nil, errors.Wrap(err, "could not get session")
	}

	raw := session.Flashes()
	if len(raw) == 0 {
		return nil, nil
	}

	flashes := make([]Flash, 0, len(raw))
	for _, f := range raw {
		if flash, ok := f.(Flash); ok {
			flashes = append(flashes, flash)
		}
	}

	if err := session.Save(req, w); err != nil {
		return flashes, errors.Wrap(err, "could not save session")
	}
	return flashes, nil
}
