package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/evalphobia/logrus_sentry"
	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/gobuffalo/packr"
	"github.com/gorilla/csrf"
	"github.com/gorilla/sessions"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/matematik7/stride/dashboard"
	"github.com/matematik7/stride/places"
	"github.com/matematik7/stride/render"
	"github.com/matematik7/stride/strava"
)

func newLogger(c config) (*logrus.Logger, error) {
	log := logrus.New()
	log.SetLevel(c.LogLevel)
	if c.IsProd {
		log.SetFormatter(&logrus.JSONFormatter{})
	}

	if c.SentryDSN != "" {
		hook, err := logrus_sentry.NewSentryHook(c.SentryDSN, []logrus.Level{
			logrus.PanicLevel,
			logrus.FatalLevel,
			logrus.ErrorLevel,
		})
		if err != nil {
			return nil, errors.Wrap(err, "could not create sentry hook")
		}
		hook.Timeout = 5 * time.Second
		log.AddHook(hook)
	}

	return log, nil
}

func newRouter(c config, log *logrus.Logger) (http.Handler, error) {
	store := sessions.NewCookieStore([]byte(c.CookieKey))
	store.MaxAge(60 * 60 * 24)
	store.Options.Path = "/"
	store.Options.HttpOnly = true
	store.Options.Secure = c.IsProd

	Render := render.New(store, c.IsProd, log)
	Render.AddTemplates(packr.NewBox("./templates"))

	client, err := strava.New(
		c.UpstreamURL,
		strava.WithTimeout(c.UpstreamTimeout),
		strava.WithLogger(log.WithField("component", "strava")),
	)
	if err != nil {
		return nil, err
	}

	options := []dashboard.Option{
		dashboard.WithConnectURL(c.ConnectURL),
		dashboard.WithCookies(c.UpstreamCookies...),
		dashboard.WithViews(dashboard.NewViews(c.ViewsTTL)),
	}
	if c.GmapServerKey != "" {
		locator, err := places.New(c.GmapServerKey)
		if err != nil {
			return nil, err
		}
		options = append(options, dashboard.WithLocator(locator))
	}

	Dashboard := dashboard.New(client, Render, log.WithField("component", "dashboard"), options...)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: log, NoColor: true}))
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)

	r.Mount("/static", http.StripPrefix("/static", http.FileServer(packr.NewBox("./static"))))
	r.Mount("/", csrf.Protect(
		[]byte(c.CSRFKey),
		csrf.Secure(c.IsProd),
		csrf.Path("/"),
	)(Dashboard.ServeMux()))

	return r, nil
}

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logrus.WithError(err).Fatal("could not load .env")
	}

	c, err := loadConfig(viper.GetViper())
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}

	log, err := newLogger(c)
	if err != nil {
		logrus.WithError(err).Fatal("could not set up logging")
	}

	router, err := newRouter(c, log)
	if err != nil {
		log.WithError(err).Fatal("could not set up server")
	}

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", c.Host, c.Port),
		Handler: router,
	}

	go func() {
		log.WithField("url", c.URL).Info("listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	shutdownCtx, shutdownRelease := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownRelease()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("shutdown failed")
		return
	}
	log.Info("server stopped")
}
