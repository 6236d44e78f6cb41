package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

func TestLoadConfigDefaults(t *testing.T) {
	c, err := loadConfig(viper.New())
	if err != nil {
		t.Fatal(err)
	}

	want := config{
		Host:            "localhost",
		Port:            3000,
		URL:             "http://localhost:3000",
		CookieKey:       "SESSION_SECRET",
		CSRFKey:         "stride-development-csrf-key-0001",
		UpstreamURL:     "http://localhost:5000",
		UpstreamCookies: []string{"session"},
		UpstreamTimeout: 15 * time.Second,
		ConnectURL:      "http://localhost:5000/",
		ViewsTTL:        30 * time.Minute,
		LogLevel:        logrus.InfoLevel,
	}
	if diff := cmp.Diff(want, c); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfigEnv(t *testing.T) {
	t.Setenv("UPSTREAM_URL", "https://api.example.com/")
	t.Setenv("UPSTREAM_COOKIES", "session, remember_token")
	t.Setenv("UPSTREAM_TIMEOUT", "3s")
	t.Setenv("LOG_LEVEL", "debug")

	c, err := loadConfig(viper.New())
	if err != nil {
		t.Fatal(err)
	}

	if c.ConnectURL != "https://api.example.com/" {
		t.Errorf("ConnectURL = %q", c.ConnectURL)
	}
	if diff := cmp.Diff([]string{"session", "remember_token"}, c.UpstreamCookies); diff != "" {
		t.Errorf("cookies mismatch (-want +got):\n%s", diff)
	}
	if c.UpstreamTimeout != 3*time.Second || c.LogLevel != logrus.DebugLevel {
		t.Errorf("config = %+v", c)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := map[string]string{
		"UPSTREAM_URL": "not a url",
		"CSRF_KEY":     "short",
		"LOG_LEVEL":    "loud",
		"PROD":         "true",
		"VIEWS_TTL":    "0s",
	}

	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			if _, err := loadConfig(viper.New()); err == nil {
				t.Errorf("%s=%q accepted", key, value)
			}
		})
	}
}

func TestRouter(t *testing.T) {
	c, err := loadConfig(viper.New())
	if err != nil {
		t.Fatal(err)
	}

	log := logrus.New()
	log.Out = &strings.Builder{}

	router, err := newRouter(c, log)
	if err != nil {
		t.Fatal(err)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/static/style.css", nil))
	if w.Code != http.StatusOK {
		t.Errorf("static asset = %d", w.Code)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/views/6ba7b810-9dad-11d1-80b4-00c04fd430c8/retry", nil))
	if w.Code != http.StatusForbidden {
		t.Errorf("post without csrf token = %d, want 403", w.Code)
	}
}
