package dashboard

import (
	"sync"
	"time"

	"github.com/pkg/errors"
	uuid "github.com/satori/go.uuid"
)

var ErrViewNotFound = errors.New("view not found")

// DefaultCloseGrace is how long a closed view can still be reopened. A
// browser reports a close on every unload, including reloads and form
// posts that land on the same view again.
const DefaultCloseGrace = 10 * time.Second

type viewEntry struct {
	controller *Controller
	lastAccess time.Time
	closed     bool
}

// Views keeps the controllers of open page views. Views idle for longer
// than the ttl are dropped, closed views after the close grace unless they
// are used again.
type Views struct {
	ttl   time.Duration
	grace time.Duration
	now   func() time.Time

	mu    sync.Mutex
	views map[uuid.UUID]*viewEntry
}

func NewViews(ttl time.Duration) *Views {
	return &Views{
		ttl:   ttl,
		grace: DefaultCloseGrace,
		now:   time.Now,
		views: map[uuid.UUID]*viewEntry{},
	}
}

// Create registers c and returns its id.
func (v *Views) Create(c *Controller) (string, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return "", errors.Wrap(err, "could not generate view id")
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	now := v.now()
	v.expire(now)
	v.views[id] = &viewEntry{
		controller: c,
		lastAccess: now,
	}
	return id.String(), nil
}

func (v *Views) Get(id string) (*Controller, error) {
	key, err := uuid.FromString(id)
	if err != nil {
		return nil, errors.Wrapf(ErrViewNotFound, "invalid view id %q", id)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	now := v.now()
	v.expire(now)
	entry, ok := v.views[key]
	if !ok {
		return nil, errors.Wrapf(ErrViewNotFound, "view %s", id)
	}
	entry.lastAccess = now
	entry.closed = false
	return entry.controller, nil
}

// Close marks the view as left. It is dropped once the close grace passes
// without another Get.
func (v *Views) Close(id string) {
	key, err := uuid.FromString(id)
	if err != nil {
		return
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if entry, ok := v.views[key]; ok {
		entry.closed = true
		entry.lastAccess = v.now()
	}
}

func (v *Views) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()

	return len(v.views)
}

// expire must be called with v.mu held.
func (v *Views) expire(now time.Time) {
	for id, entry := range v.views {
		limit := v.ttl
		if entry.closed {
			limit = v.grace
		}
		if limit > 0 && now.Sub(entry.lastAccess) > limit {
			delete(v.views, id)
		}
	}
}
