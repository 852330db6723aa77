package live

import (
	"bufio"
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knowledgeai/knowledge-console/internal/guard"
	"github.com/knowledgeai/knowledge-console/internal/session"
)

type memTokens struct{ token string }

func (m *memTokens) Load() (string, error) { return m.token, nil }
func (m *memTokens) Save(t string) error   { m.token = t; return nil }
func (m *memTokens) Clear() error          { m.token = ""; return nil }

var alice = session.Identity{ID: "1", Email: "alice@example.com"}

type watcher struct {
	events chan Event
	done   chan error
	cancel context.CancelFunc
}

func watch(t *testing.T, h *Hub, path string) *watcher {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	w := &watcher{events: make(chan Event, 32), done: make(chan error, 1), cancel: cancel}

	go func() {
		w.done <- h.Watch(ctx, path, func(e Event) error {
			w.events <- e
			return nil
		})
	}()

	t.Cleanup(cancel)

	return w
}

func (w *watcher) next(t *testing.T) Event {
	t.Helper()

	select {
	case e := <-w.events:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("no event")

		return Event{}
	}
}

func (w *watcher) none(t *testing.T) {
	t.Helper()

	select {
	case e := <-w.events:
		t.Fatalf("unexpected event %+v", e)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestWatch_PendingThenRedirect(t *testing.T) {
	store := session.New(&memTokens{})
	h := NewHub(store, guard.DefaultRoutes())

	w := watch(t, h, "/dashboard")

	assert.Equal(t, Event{Name: EventState, Data: StateData{State: guard.StatePending, Status: session.StatusResolving}}, w.next(t))

	require.NoError(t, store.Clear(store.Begin(), session.ReasonBootstrap))

	assert.Equal(t, Event{Name: EventState, Data: StateData{State: guard.StateDenied, Status: session.StatusAnonymous}}, w.next(t))
	assert.Equal(t, Event{Name: EventRedirect, Data: RedirectData{To: guard.LoginPath}}, w.next(t))
	w.none(t)
}

func TestWatch_Ready(t *testing.T) {
	store := session.New(&memTokens{})
	h := NewHub(store, guard.DefaultRoutes())

	w := watch(t, h, "/chat")
	w.next(t)

	require.NoError(t, store.Authenticate(store.Begin(), alice, "t1", session.ReasonBootstrap))

	assert.Equal(t, Event{Name: EventState, Data: StateData{State: guard.StateAllowed, Status: session.StatusAuthenticated}}, w.next(t))
	w.none(t)
}

func TestWatch_ForceLoginOnce(t *testing.T) {
	store := session.New(&memTokens{})
	require.NoError(t, store.Authenticate(store.Begin(), alice, "t1", session.ReasonLogin))

	h := NewHub(store, guard.DefaultRoutes())

	dashboard := watch(t, h, "/dashboard")
	home := watch(t, h, "/")
	login := watch(t, h, guard.LoginPath)

	dashboard.next(t)
	home.next(t)
	login.next(t)

	require.Eventually(t, func() bool { return h.Views() == 3 }, 2*time.Second, 5*time.Millisecond)

	// the request layer resets the session, then forces the navigation
	require.True(t, store.Expire("t1"))
	h.ForceLogin()

	redirects := func(w *watcher) int {
		n := 0

		for {
			select {
			case e := <-w.events:
				if e.Name == EventRedirect {
					assert.Equal(t, RedirectData{To: guard.LoginPath}, e.Data)
					n++
				}
			case <-time.After(100 * time.Millisecond):
				return n
			}
		}
	}

	assert.Equal(t, 1, redirects(dashboard))
	assert.Equal(t, 1, redirects(home))
	assert.Equal(t, 0, redirects(login))
}

func TestWatch_Heartbeat(t *testing.T) {
	store := session.New(&memTokens{})
	h := NewHub(store, guard.DefaultRoutes())
	h.SetHeartbeat(10 * time.Millisecond)

	w := watch(t, h, "/")
	w.next(t)

	assert.Equal(t, Event{}, w.next(t))
}

func TestWatch_Close(t *testing.T) {
	store := session.New(&memTokens{})
	h := NewHub(store, guard.DefaultRoutes())

	w := watch(t, h, "/")
	w.next(t)

	h.Close()
	h.Close()

	select {
	case err := <-w.done:
		require.ErrorIs(t, err, ErrClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not end")
	}

	assert.Equal(t, 0, h.Views())
}

func TestWatch_Cancel(t *testing.T) {
	store := session.New(&memTokens{})
	h := NewHub(store, guard.DefaultRoutes())

	w := watch(t, h, "/")
	w.next(t)
	w.cancel()

	select {
	case err := <-w.done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not end")
	}
}

func TestWriteEvent(t *testing.T) {
	var buf bytes.Buffer

	w := bufio.NewWriter(&buf)

	require.NoError(t, writeEvent(w, Event{Name: EventRedirect, Data: RedirectData{To: "/login"}}))
	require.NoError(t, writeEvent(w, Event{}))

	assert.Equal(t, "event: redirect\ndata: {\"to\":\"/login\"}\n\n: ping\n\n", buf.String())
}
