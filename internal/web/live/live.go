// Package live pushes session changes to the open views of the console over
// server sent events.
//
// Each stream is one mounted view: it runs its own route guard, receives the
// session snapshots and the forced navigation after an expired token, and
// forwards what the guard decides as "state" and "redirect" frames.
package live

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp"

	"github.com/knowledgeai/knowledge-console/internal/guard"
	"github.com/knowledgeai/knowledge-console/internal/session"
)

// Path is the event stream endpoint.
const Path = "/events/session"

const defaultHeartbeat = 15 * time.Second

// Frame names.
const (
	EventState    = "state"
	EventRedirect = "redirect"
)

// ErrClosed is returned by Watch after the hub was closed.
var ErrClosed = errors.New("live hub closed")

// Event is one frame sent to a view.
type Event struct {
	Name string
	Data any
}

// StateData is the payload of a state frame.
type StateData struct {
	State  guard.State    `json:"state"`
	Status session.Status `json:"status"`
}

// RedirectData is the payload of a redirect frame.
type RedirectData struct {
	To string `json:"to"`
}

// Subscriber delivers session snapshots.
type Subscriber interface {
	Subscribe() (<-chan session.Snapshot, func())
}

// Hub tracks the open views.
type Hub struct {
	store     Subscriber
	routes    *guard.Routes
	heartbeat time.Duration

	mu     sync.Mutex
	views  map[int]chan struct{}
	nextID int
	done   chan struct{}
	closed bool
}

// NewHub returns a Hub guarding views with routes.
func NewHub(store Subscriber, routes *guard.Routes) *Hub {
	return &Hub{
		store:     store,
		routes:    routes,
		heartbeat: defaultHeartbeat,
		views:     make(map[int]chan struct{}),
		done:      make(chan struct{}),
	}
}

// SetHeartbeat changes the keep alive interval of new streams.
func (h *Hub) SetHeartbeat(d time.Duration) {
	h.heartbeat = d
}

// ForceLogin sends every open view to the login. The request layer calls it
// after a 401 reset the session.
func (h *Hub) ForceLogin() {
	h.mu.Lock()
	defer h.mu.Unlock()

	log.Debug().Int("views", len(h.views)).Msg("forcing login on open views")

	for _, ch := range h.views {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Views returns the number of open views.
func (h *Hub) Views() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.views)
}

// Close ends all streams. Streams opened afterwards end immediately.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.closed {
		h.closed = true
		close(h.done)
	}
}

func (h *Hub) join() (<-chan struct{}, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++

	ch := make(chan struct{}, 1)
	h.views[id] = ch

	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()

		delete(h.views, id)
	}
}

// Watch runs the view at path until ctx is done, the hub closed or emit failed.
// An Event without name is a heartbeat.
func (h *Hub) Watch(ctx context.Context, path string, emit func(Event) error) error {
	g := guard.New(h.routes, path)

	updates, unsubscribe := h.store.Subscribe()
	defer unsubscribe()

	force, leave := h.join()
	defer leave()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		var action guard.Action

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-h.done:
			return ErrClosed
		case <-ticker.C:
			if err := emit(Event{}); err != nil {
				return err
			}

			continue
		case <-force:
			action = g.Force()
		case snap, ok := <-updates:
			if !ok {
				return nil
			}

			action = g.Observe(snap)

			if err := emit(Event{Name: EventState, Data: StateData{State: action.State, Status: snap.Status}}); err != nil {
				return err
			}
		}

		if action.Redirect != "" {
			log.Debug().Str("view", path).Str("to", action.Redirect).Msg("redirecting view")

			if err := emit(Event{Name: EventRedirect, Data: RedirectData{To: action.Redirect}}); err != nil {
				return err
			}
		}
	}
}

// Handler serves the event stream of the view named by the path query parameter.
func (h *Hub) Handler(c *fiber.Ctx) error {
	path := c.Query("path", "/")

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	var stream fasthttp.StreamWriter = func(w *bufio.Writer) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		err := h.Watch(ctx, path, func(e Event) error {
			return writeEvent(w, e)
		})
		if err != nil && !errors.Is(err, ErrClosed) {
			log.Debug().Err(err).Str("view", path).Msg("session stream ended")
		}
	}

	c.Context().SetBodyStreamWriter(stream)

	return nil
}

func writeEvent(w *bufio.Writer, e Event) error {
	if e.Name == "" {
		if _, err := w.WriteString(": ping\n\n"); err != nil {
			return errors.Wrap(err, "write heartbeat")
		}

		return errors.Wrap(w.Flush(), "flush heartbeat")
	}

	data, err := json.Marshal(e.Data)
	if err != nil {
		return errors.Wrap(err, "marshal event")
	}

	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Name, data); err != nil {
		return errors.Wrap(err, "write event")
	}

	return errors.Wrap(w.Flush(), "flush event")
}
