package dashboard

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/matematik7/stride/autherror"
	"github.com/matematik7/stride/strava"
)

var (
	ErrActionNotOffered = errors.New("action is not offered in the current state")
	ErrUnknownActivity  = errors.New("activity is not in the collection")
)

// Fetcher loads the caller's run activities.
type Fetcher interface {
	Activities(ctx context.Context) ([]strava.Activity, error)
}

// Signal is the one-shot navigation input a view is mounted with.
type Signal interface {
	// ErrorCode is the authentication error code the view was opened with,
	// or empty.
	ErrorCode() string
	// Acknowledge consumes the signal so it is not seen again.
	Acknowledge()
}

// Controller holds the state of one dashboard view. All events are
// serialized, so a selection never interleaves with an outstanding fetch.
type Controller struct {
	fetcher    Fetcher
	connectURL string
	log        logrus.FieldLogger

	mu         sync.Mutex
	mounted    bool
	status     Status
	activities []strava.Activity
	selected   *int64
}

func NewController(fetcher Fetcher, connectURL string, log logrus.FieldLogger) *Controller {
	return &Controller{
		fetcher:    fetcher,
		connectURL: connectURL,
		log:        log,
		status:     Loading{},
	}
}

// Mount starts the view. An error code in the signal is shown instead of
// fetching; the signal is acknowledged once it has been classified.
func (c *Controller) Mount(ctx context.Context, signal Signal) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mounted {
		return ErrActionNotOffered
	}
	c.mounted = true

	if signal != nil {
		if classified := autherror.FromCode(signal.ErrorCode()); classified != nil {
			c.log.WithField("code", classified.Code).Info("view opened with authentication error")
			c.status = AuthRequired{Message: classified.Message}
			signal.Acknowledge()
			return nil
		}
	}

	c.fetch(ctx)
	return nil
}

// Retry refetches after a failure.
func (c *Controller) Retry(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.status.(type) {
	case AuthRequired, Transient:
	default:
		return ErrActionNotOffered
	}

	c.status = Loading{}
	c.fetch(ctx)
	return nil
}

// Connect returns the authentication entry point the client should be sent
// to. It is only offered when authentication is required.
func (c *Controller) Connect() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.status.(AuthRequired); !ok {
		return "", ErrActionNotOffered
	}
	return c.connectURL, nil
}

// Select changes the inspected activity.
func (c *Controller) Select(id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.status.(Ready); !ok || len(c.activities) == 0 {
		return ErrActionNotOffered
	}

	for i := range c.activities {
		if c.activities[i].ID == id {
			c.selected = &c.activities[i].ID
			return nil
		}
	}
	return errors.Wrapf(ErrUnknownActivity, "activity %d", id)
}

// fetch must be called with c.mu held. Readers wait for it, so Loading is
// never seen outside a fetch.
func (c *Controller) fetch(ctx context.Context) {
	activities, err := c.fetcher.Activities(ctx)
	if err != nil {
		log := c.log.WithError(err)
		c.activities = nil
		c.selected = nil

		if autherror.IsAuthRequired(err) {
			log.Warn("activities require authentication")
			c.status = AuthRequired{Message: autherror.Message(err)}
		} else {
			log.Error("could not load activities")
			c.status = Transient{Message: autherror.Message(err)}
		}
		return
	}

	c.activities = strava.FilterRuns(activities)
	c.selected = nil
	if len(c.activities) > 0 {
		c.selected = &c.activities[0].ID
	}
	c.status = Ready{}

	c.log.WithField("activities", len(c.activities)).Debug("activities loaded")
}

func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.status
}

// IsAuthenticated reports whether activities were loaded successfully.
func (c *Controller) IsAuthenticated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.status.(Ready)
	return ok
}

func (c *Controller) Activities() []strava.Activity {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]strava.Activity(nil), c.activities...)
}

// Selected returns the inspected activity, if any.
func (c *Controller) Selected() (strava.Activity, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.selectedActivity()
}

func (c *Controller) selectedActivity() (strava.Activity, bool) {
	if c.selected == nil {
		return strava.Activity{}, false
	}
	for _, activity := range c.activities {
		if activity.ID == *c.selected {
			return activity, true
		}
	}
	return strava.Activity{}, false
}
