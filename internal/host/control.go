package host

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/christopherklint97/timegrid/internal/week"
)

var ErrDestroyed = errors.New("control destroyed")

// RenderFunc draws a snapshot in whatever surface hosts the grid.
type RenderFunc func(week.Snapshot)

type boundSession struct {
	*Session
	render RenderFunc
}

func (b boundSession) Render(snap week.Snapshot) {
	if b.render != nil {
		b.render(snap)
	}
}

// Bind pairs a session with a render target, yielding an Adapter.
func Bind(s *Session, render RenderFunc) Adapter {
	return boundSession{Session: s, render: render}
}

// snapshotter is implemented by adapters that can hand back their current
// collections without another round trip to the store.
type snapshotter interface {
	Snapshot() week.Snapshot
}

// refresher is implemented by adapters that can bypass their caches.
type refresher interface {
	Refresh(ctx context.Context) (week.Snapshot, error)
}

// Control translates host lifecycle calls into Adapter calls.
type Control struct {
	adapter Adapter
	logger  *slog.Logger

	mu        sync.Mutex
	destroyed bool
}

func NewControl(a Adapter, logger *slog.Logger) *Control {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Control{adapter: a, logger: logger}
}

// Init performs the first load and render.
func (c *Control) Init(ctx context.Context) error {
	return c.UpdateView(ctx)
}

// UpdateView reloads the collections and renders them. On a failed load the
// last known snapshot is rendered.
func (c *Control) UpdateView(ctx context.Context) error {
	if c.isDestroyed() {
		return ErrDestroyed
	}
	return c.load(ctx, c.adapter.Load)
}

// Reload is UpdateView on user request; adapters that cache reference data
// fetch it again.
func (c *Control) Reload(ctx context.Context) error {
	if c.isDestroyed() {
		return ErrDestroyed
	}
	if r, ok := c.adapter.(refresher); ok {
		return c.load(ctx, r.Refresh)
	}
	return c.load(ctx, c.adapter.Load)
}

func (c *Control) load(ctx context.Context, fn func(context.Context) (week.Snapshot, error)) error {
	snap, err := fn(ctx)
	if err != nil {
		c.logger.Error("loading collections failed", "error", err)
	}
	c.render(snap)
	return err
}

// Dispatch hands an intent to the adapter and renders whatever collections
// the adapter holds afterwards, whether or not the intent succeeded.
func (c *Control) Dispatch(ctx context.Context, in week.Intent) error {
	if c.isDestroyed() {
		return ErrDestroyed
	}

	err := c.adapter.OnIntent(ctx, in)
	if err != nil {
		c.logger.Error("intent failed", "kind", in.Kind, "entry_id", in.EntryID, "error", err)
	}

	if s, ok := c.adapter.(snapshotter); ok {
		c.render(s.Snapshot())
		return err
	}
	snap, loadErr := c.adapter.Load(ctx)
	if loadErr != nil {
		c.logger.Error("reloading collections failed", "error", loadErr)
	}
	c.render(snap)
	return errors.Join(err, loadErr)
}

// Destroy detaches the control; later lifecycle calls are rejected.
func (c *Control) Destroy() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.destroyed = true
}

func (c *Control) isDestroyed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.destroyed
}

func (c *Control) render(snap week.Snapshot) {
	if c.isDestroyed() {
		return
	}
	c.adapter.Render(snap)
}
