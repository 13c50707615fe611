package relay

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/rdelacruz/freshmarket-backend/internal/orders"
	"github.com/rdelacruz/freshmarket-backend/pkg/db/models"
	"github.com/rdelacruz/freshmarket-backend/pkg/enums"
	"github.com/rdelacruz/freshmarket-backend/pkg/logger"
	"github.com/rdelacruz/freshmarket-backend/pkg/pagination"
)

type pageLoader interface {
	ListPaginated(ctx context.Context, params pagination.Params) (*orders.Page, error)
}

// OrderView mirrors one paginated admin view of the order table and keeps it
// reconciled with the change feed. Inserts trigger a full re-fetch of the
// current page; updates patch the matching row in place as a full-record
// upsert; deletes drop the row and close the detail panel if it was showing
// the deleted order. The view never treats its local copy as authoritative.
type OrderView struct {
	feed          Feed
	loader        pageLoader
	logg          *logger.Logger
	fallbackEvery time.Duration

	mu     sync.Mutex
	params pagination.Params
	page   *orders.Page
	detail *models.Order

	cancelFeed func() error
	stop       chan struct{}
	stopped    sync.WaitGroup
	opened     bool
}

// NewOrderView builds a view over the repository page loader. fallbackEvery
// bounds staleness when the feed is silent or broken; zero disables the
// periodic re-fetch.
func NewOrderView(feed Feed, loader pageLoader, logg *logger.Logger, fallbackEvery time.Duration) *OrderView {
	return &OrderView{
		feed:          feed,
		loader:        loader,
		logg:          logg,
		fallbackEvery: fallbackEvery,
		stop:          make(chan struct{}),
	}
}

// Open loads the first page and attaches the view to the change feed.
func (v *OrderView) Open(ctx context.Context, params pagination.Params) error {
	if err := v.SetPage(ctx, params); err != nil {
		return err
	}

	cancel, err := v.feed.Subscribe(ctx, OrdersTable, func(event ChangeEvent) {
		v.apply(ctx, event)
	})
	if err != nil {
		return err
	}

	v.mu.Lock()
	v.cancelFeed = cancel
	v.opened = true
	v.mu.Unlock()

	if v.fallbackEvery > 0 {
		v.stopped.Add(1)
		go v.refetchLoop(ctx)
	}
	return nil
}

// SetPage moves the view to another page and re-fetches it.
func (v *OrderView) SetPage(ctx context.Context, params pagination.Params) error {
	params = params.Normalize()
	page, err := v.loader.ListPaginated(ctx, params)
	if err != nil {
		return err
	}

	v.mu.Lock()
	v.params = params
	v.page = page
	v.mu.Unlock()
	return nil
}

// Refresh re-fetches the current page.
func (v *OrderView) Refresh(ctx context.Context) error {
	v.mu.Lock()
	params := v.params
	v.mu.Unlock()
	return v.SetPage(ctx, params)
}

// Orders returns a snapshot of the rows currently on the page.
func (v *OrderView) Orders() []models.Order {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.page == nil {
		return []models.Order{}
	}
	out := make([]models.Order, len(v.page.Orders))
	copy(out, v.page.Orders)
	return out
}

// Page returns the current page metadata, or nil before the first load.
func (v *OrderView) Page() *orders.Page {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.page == nil {
		return nil
	}
	snapshot := *v.page
	snapshot.Orders = make([]models.Order, len(v.page.Orders))
	copy(snapshot.Orders, v.page.Orders)
	return &snapshot
}

// OpenDetail pins the row with the given id into the detail panel. Returns
// false if the row is not on the current page.
func (v *OrderView) OpenDetail(id uuid.UUID) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.page == nil {
		return false
	}
	for i := range v.page.Orders {
		if v.page.Orders[i].ID == id {
			row := v.page.Orders[i]
			v.detail = &row
			return true
		}
	}
	return false
}

// Detail returns a copy of the pinned row, or nil when no panel is open.
func (v *OrderView) Detail() *models.Order {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.detail == nil {
		return nil
	}
	row := *v.detail
	return &row
}

// CloseDetail dismisses the detail panel.
func (v *OrderView) CloseDetail() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.detail = nil
}

func (v *OrderView) apply(ctx context.Context, event ChangeEvent) {
	switch event.Type {
	case enums.ChangeEventInsert:
		if err := v.Refresh(ctx); err != nil && v.logg != nil {
			v.logg.Error(ctx, "re-fetch page after insert event", err)
		}
	case enums.ChangeEventUpdate:
		v.patch(event.Order)
	case enums.ChangeEventDelete:
		v.remove(event.Order.ID)
	}
}

// patch applies an update event as a whole-record replacement keyed by id.
// Re-applying the same event or receiving one late leaves the view in the
// same state, so feed ordering does not matter here.
func (v *OrderView) patch(order models.Order) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.page == nil {
		return
	}
	for i := range v.page.Orders {
		if v.page.Orders[i].ID == order.ID {
			v.page.Orders[i] = order
			break
		}
	}
	if v.detail != nil && v.detail.ID == order.ID {
		row := order
		v.detail = &row
	}
}

func (v *OrderView) remove(id uuid.UUID) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.page != nil {
		rows := v.page.Orders[:0]
		for _, row := range v.page.Orders {
			if row.ID != id {
				rows = append(rows, row)
			}
		}
		v.page.Orders = rows
	}
	if v.detail != nil && v.detail.ID == id {
		v.detail = nil
	}
}

func (v *OrderView) refetchLoop(ctx context.Context) {
	defer v.stopped.Done()

	ticker := time.NewTicker(v.fallbackEvery)
	defer ticker.Stop()

	for {
		select {
		case <-v.stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := v.Refresh(ctx); err != nil && v.logg != nil {
				v.logg.Error(ctx, "fallback page re-fetch", err)
			}
		}
	}
}

// Close detaches the view from the feed and stops the fallback re-fetch.
// Safe to call once after Open; a view that never opened closes cleanly.
func (v *OrderView) Close() error {
	v.mu.Lock()
	cancel := v.cancelFeed
	v.cancelFeed = nil
	opened := v.opened
	v.opened = false
	v.detail = nil
	v.mu.Unlock()

	if !opened {
		return nil
	}

	close(v.stop)
	v.stopped.Wait()

	var err error
	if cancel != nil {
		err = multierr.Append(err, cancel())
	}
	return err
}
