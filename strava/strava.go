package strava

import (
	"bytes"
	"context"
	"io/ioutil"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/publicsuffix"

	"github.com/matematik7/stride/autherror"
)

const (
	ActivitiesPath = "/api/activities"

	DefaultTimeout = 15 * time.Second
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type cookiesKey struct{}

// WithCookies attaches the caller's session cookies to ctx. They are sent
// with every request made using ctx.
func WithCookies(ctx context.Context, cookies []*http.Cookie) context.Context {
	return context.WithValue(ctx, cookiesKey{}, cookies)
}

func cookiesFrom(ctx context.Context) []*http.Cookie {
	cookies, _ := ctx.Value(cookiesKey{}).([]*http.Cookie)
	return cookies
}

type Client struct {
	baseURL   *url.URL
	transport http.RoundTripper
	timeout   time.Duration
	log       logrus.FieldLogger
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

func WithTransport(t http.RoundTripper) Option {
	return func(c *Client) {
		c.transport = t
	}
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Client) {
		c.log = log
	}
}

func New(baseURL string, options ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, errors.Wrap(err, "could not parse base url")
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, errors.Errorf("base url %q must be absolute", baseURL)
	}

	c := &Client{
		baseURL:   u,
		transport: http.DefaultTransport,
		timeout:   DefaultTimeout,
		log:       logrus.StandardLogger(),
	}
	for _, option := range options {
		option(c)
	}

	return c, nil
}

// httpClient returns a client with a fresh cookie jar holding the session
// cookies from ctx, so they follow redirects within the provider's domain.
func (c *Client) httpClient(ctx context.Context) (*http.Client, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, errors.Wrap(err, "could not init cookiejar")
	}
	if cookies := cookiesFrom(ctx); len(cookies) > 0 {
		jar.SetCookies(c.baseURL, cookies)
	}

	return &http.Client{
		Jar:       jar,
		Transport: c.transport,
		Timeout:   c.timeout,
	}, nil
}

func (c *Client) url(path string) string {
	u := *c.baseURL
	u.Path = c.baseURL.Path + path
	return u.String()
}

func (c *Client) call(ctx context.Context, path string) ([]byte, error) {
	log := c.log.WithField("url", c.url(path))

	client, err := c.httpClient(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(path), nil)
	if err != nil {
		return nil, errors.Wrap(err, "could not prepare request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		log.WithError(err).Error("activity request failed")
		return nil, autherror.Transient(err)
	}
	defer resp.Body.Close()

	if classified := autherror.FromStatus(resp.StatusCode); classified != nil {
		log.WithFields(logrus.Fields{
			"status": resp.StatusCode,
			"kind":   classified.Kind,
		}).Warn("activity request rejected")
		return nil, classified
	}

	body, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		log.WithError(err).Error("could not read activity response")
		return nil, autherror.Transient(err)
	}

	return body, nil
}

// Activities fetches the caller's activities and keeps only runs. Elements
// that are not runs are skipped without being decoded. A payload
// that is valid JSON but not an array means there is nothing to show and is
// not an error.
func (c *Client) Activities(ctx context.Context) ([]Activity, error) {
	body, err := c.call(ctx, ActivitiesPath)
	if err != nil {
		return nil, err
	}

	body = bytes.TrimSpace(body)
	if !json.Valid(body) {
		err := errors.New("activity response is not valid json")
		c.log.WithField("body_size", len(body)).Error(err)
		return nil, autherror.Transient(err)
	}
	if body[0] != '[' {
		c.log.Info("activity response is not an array, treating as empty")
		return nil, nil
	}

	var response []jsoniter.RawMessage
	if err := json.Unmarshal(body, &response); err != nil {
		c.log.WithError(err).Error("could not decode activities")
		return nil, autherror.Transient(errors.Wrap(err, "could not decode activities"))
	}

	// only runs are decoded, other activities may carry fields we do not model
	runs := make([]Activity, 0, len(response))
	for i, raw := range response {
		if json.Get(raw, "type").ToString() != TypeRun {
			continue
		}

		var activity Activity
		if err := json.Unmarshal(raw, &activity); err != nil {
			c.log.WithError(err).WithField("index", i).Error("could not decode activity")
			return nil, autherror.Transient(errors.Wrap(err, "could not decode activity"))
		}
		runs = append(runs, activity)
	}

	return runs, nil
}

// FilterRuns returns the activities of type Run in their original order.
func FilterRuns(activities []Activity) []Activity {
	runs := make([]Activity, 0, len(activities))
	for _, activity := range activities {
		if activity.Type == TypeRun {
			runs = append(runs, activity)
		}
	}
	return runs
}
