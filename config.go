package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type config struct {
	Host   string
	Port   int
	URL    string
	IsProd bool

	CookieKey string
	CSRFKey   string

	UpstreamURL     string
	UpstreamCookies []string
	UpstreamTimeout time.Duration
	ConnectURL      string
	ViewsTTL        time.Duration

	GmapServerKey string
	SentryDSN     string
	LogLevel      logrus.Level
}

func loadConfig(v *viper.Viper) (config, error) {
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("port", 3000)
	v.SetDefault("host", "localhost")
	v.SetDefault("url", fmt.Sprintf("http://%s:%d", v.GetString("host"), v.GetInt("port")))
	v.SetDefault("prod", false)
	v.SetDefault("cookie_key", "SESSION_SECRET")
	v.SetDefault("csrf_key", "stride-development-csrf-key-0001")
	v.SetDefault("upstream_url", "http://localhost:5000")
	v.SetDefault("upstream_cookies", "session")
	v.SetDefault("upstream_timeout", "15s")
	v.SetDefault("connect_url", strings.TrimSuffix(v.GetString("upstream_url"), "/")+"/")
	v.SetDefault("views_ttl", "30m")
	v.SetDefault("log_level", "info")

	c := config{
		Host:            v.GetString("host"),
		Port:            v.GetInt("port"),
		URL:             v.GetString("url"),
		IsProd:          v.GetBool("prod"),
		CookieKey:       v.GetString("cookie_key"),
		CSRFKey:         v.GetString("csrf_key"),
		UpstreamURL:     v.GetString("upstream_url"),
		UpstreamTimeout: v.GetDuration("upstream_timeout"),
		ConnectURL:      v.GetString("connect_url"),
		ViewsTTL:        v.GetDuration("views_ttl"),
		GmapServerKey:   v.GetString("gmap_server_key"),
		SentryDSN:       v.GetString("sentry_dsn"),
	}

	for _, name := range strings.Split(v.GetString("upstream_cookies"), ",") {
		if name = strings.TrimSpace(name); name != "" {
			c.UpstreamCookies = append(c.UpstreamCookies, name)
		}
	}

	level, err := logrus.ParseLevel(v.GetString("log_level"))
	if err != nil {
		return c, errors.Wrap(err, "invalid log_level")
	}
	c.LogLevel = level

	return c, c.validate()
}

func (c config) validate() error {
	urls := map[string]string{
		"url":          c.URL,
		"upstream_url": c.UpstreamURL,
		"connect_url":  c.ConnectURL,
	}
	for key, value := range urls {
		if !govalidator.IsURL(value) {
			return errors.Errorf("%s %q is not a valid url", key, value)
		}
	}

	if c.Port <= 0 || c.Port > 65535 {
		return errors.Errorf("invalid port %d", c.Port)
	}
	if len(c.CSRFKey) != 32 {
		return errors.New("csrf_key must be 32 bytes long")
	}
	if c.IsProd && c.CookieKey == "SESSION_SECRET" {
		return errors.New("cookie_key must be set in production")
	}
	if c.UpstreamTimeout <= 0 {
		return errors.New("upstream_timeout must be positive")
	}
	if c.ViewsTTL <= 0 {
		return errors.New("views_ttl must be positive")
	}
	if len(c.UpstreamCookies) == 0 {
		return errors.New("upstream_cookies must name at least one cookie")
	}
	return nil
}
