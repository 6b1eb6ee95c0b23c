// Package listview holds the state of an order list screen: the fetched
// collection, the search term and the loading and error flags, kept in sync
// with the API after every mutation.
package listview

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"orderdesk/internal/models"

	"go.uber.org/zap"
)

// ErrClosed is returned by operations on a controller after Close.
var ErrClosed = errors.New("list view closed")

// OrderSource is the part of the API client the controller needs.
type OrderSource interface {
	List(ctx context.Context) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id uint64, status models.Status) (*models.Order, error)
	Delete(ctx context.Context, id uint64) (*models.DeleteResult, error)
}

// SyncMode selects how local state catches up after a mutation.
type SyncMode int

const (
	// SyncRefetch reloads the whole collection after every mutation.
	SyncRefetch SyncMode = iota
	// SyncPatch applies the mutation's response to the affected row and only
	// refetches when the mutation fails.
	SyncPatch
)

func (m SyncMode) String() string {
	switch m {
	case SyncRefetch:
		return "refetch"
	case SyncPatch:
		return "patch"
	}
	return fmt.Sprintf("SyncMode(%d)", int(m))
}

// ParseSyncMode accepts "refetch" or "patch"; empty means refetch.
func ParseSyncMode(raw string) (SyncMode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "refetch":
		return SyncRefetch, nil
	case "patch":
		return SyncPatch, nil
	}
	return 0, fmt.Errorf("unknown sync mode %q", raw)
}

// State is a point-in-time copy of the view.
type State struct {
	// Orders is the filtered view.
	Orders []models.Order
	// Total counts the unfiltered collection.
	Total      int
	SearchTerm string
	Loading    bool
	Err        error
}

// Empty reports the explicit "no results" state.
func (s State) Empty() bool { return len(s.Orders) == 0 }

// Option configures a Controller.
type Option func(*Controller)

// WithSyncMode selects how state catches up after a mutation.
func WithSyncMode(m SyncMode) Option {
	return func(c *Controller) { c.mode = m }
}

// WithLogger sets the logger for discarded fetches and failed mutations.
func WithLogger(log *zap.Logger) Option {
	return func(c *Controller) { c.log = log }
}

// Controller owns the list state. It is safe for concurrent use.
//
// Every fetch is stamped with a generation; only the most recently issued one
// may replace state, so an older fetch resolving late is dropped.
type Controller struct {
	source OrderSource
	mode   SyncMode
	log    *zap.Logger

	lifetime context.Context
	shutdown context.CancelFunc

	mu         sync.Mutex
	orders     []models.Order
	searchTerm string
	loading    bool
	err        error
	gen        uint64
	closed     bool
}

// NewController creates a controller over source. Nothing is fetched until
// Mount.
func NewController(source OrderSource, opts ...Option) *Controller {
	lifetime, shutdown := context.WithCancel(context.Background())
	c := &Controller{
		source:   source,
		log:      zap.NewNop(),
		lifetime: lifetime,
		shutdown: shutdown,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Mount performs the initial fetch.
func (c *Controller) Mount(ctx context.Context) error {
	return c.Refresh(ctx)
}

// Refresh reloads the whole collection. On failure the previous orders are
// kept and the error is recorded.
func (c *Controller) Refresh(ctx context.Context) error {
	gen, err := c.beginFetch()
	if err != nil {
		return err
	}

	ctx, stop := c.bind(ctx)
	defer stop()

	orders, err := c.source.List(ctx)
	c.finishFetch(gen, orders, err)
	return err
}

// SetSearchTerm changes the filter. It never hits the API.
func (c *Controller) SetSearchTerm(term string) {
	c.mu.Lock()
	c.searchTerm = term
	c.mu.Unlock()
}

// ChangeStatus updates one order through the API, then resyncs. A failed
// update still triggers a refetch; its error is recorded and returned.
func (c *Controller) ChangeStatus(ctx context.Context, id uint64, status models.Status) error {
	if c.isClosed() {
		return ErrClosed
	}
	bound, stop := c.bind(ctx)
	updated, err := c.source.UpdateStatus(bound, id, status)
	stop()

	if err == nil && c.mode == SyncPatch && updated != nil && c.patch(func(orders []models.Order) ([]models.Order, bool) {
		for i := range orders {
			if orders[i].ID == updated.ID {
				orders[i] = *updated
				return orders, true
			}
		}
		return orders, false
	}) {
		return nil
	}
	return c.resync(ctx, "change status", id, err)
}

// Delete removes one order through the API, then resyncs the same way as
// ChangeStatus.
func (c *Controller) Delete(ctx context.Context, id uint64) error {
	if c.isClosed() {
		return ErrClosed
	}
	bound, stop := c.bind(ctx)
	res, err := c.source.Delete(bound, id)
	stop()

	if err == nil && c.mode == SyncPatch && res != nil && res.Deleted && c.patch(func(orders []models.Order) ([]models.Order, bool) {
		kept := orders[:0]
		for _, o := range orders {
			if o.ID != res.ID {
				kept = append(kept, o)
			}
		}
		return kept, true
	}) {
		return nil
	}
	return c.resync(ctx, "delete", id, err)
}

// Snapshot returns the current state with the filter applied.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		Orders:     Filter(c.orders, c.searchTerm),
		Total:      len(c.orders),
		SearchTerm: c.searchTerm,
		Loading:    c.loading,
		Err:        c.err,
	}
}

// DismissError clears the recorded error.
func (c *Controller) DismissError() {
	c.mu.Lock()
	c.err = nil
	c.mu.Unlock()
}

// Close tears the view down. In-flight requests are cancelled and any result
// that still arrives is discarded. Close is idempotent.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.loading = false
	c.mu.Unlock()
	c.shutdown()
}

// resync refetches after a mutation. When the mutation failed its error wins
// over the outcome of the refetch.
func (c *Controller) resync(ctx context.Context, op string, id uint64, mutErr error) error {
	fetchErr := c.Refresh(ctx)
	if mutErr == nil {
		return fetchErr
	}
	c.log.Warn("order mutation failed", zap.String("op", op), zap.Uint64("order_id", id), zap.Error(mutErr))

	c.mu.Lock()
	if !c.closed {
		c.err = mutErr
	}
	c.mu.Unlock()
	return mutErr
}

// patch applies fn to the local collection and supersedes in-flight fetches,
// whose results predate the mutation. It reports false, leaving state
// untouched, when fn could not apply the change.
func (c *Controller) patch(fn func([]models.Order) ([]models.Order, bool)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return true
	}
	next, ok := fn(append([]models.Order(nil), c.orders...))
	if !ok {
		return false
	}
	c.orders = next
	c.gen++
	c.loading = false
	c.err = nil
	return true
}

func (c *Controller) beginFetch() (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return 0, ErrClosed
	}
	c.gen++
	c.loading = true
	return c.gen, nil
}

func (c *Controller) finishFetch(gen uint64, orders []models.Order, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if gen != c.gen {
		c.log.Debug("discarding superseded fetch", zap.Uint64("generation", gen), zap.Uint64("current", c.gen))
		return
	}
	c.loading = false
	if err != nil {
		c.err = err
		return
	}
	c.orders = append([]models.Order(nil), orders...)
	c.err = nil
}

func (c *Controller) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// bind derives a context that is also cancelled when the controller closes.
func (c *Controller) bind(ctx context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(c.lifetime, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}
