package cart

import (
	"sync"

	"github.com/google/uuid"

	"github.com/rdelacruz/freshmarket-backend/pkg/db/models"
	"github.com/rdelacruz/freshmarket-backend/pkg/pricing"
)

// Line is one product entry in a cart: a product snapshot, a quantity, and
// the add-on services selected for it.
type Line struct {
	Product  models.Product        `json:"product"`
	Quantity int                   `json:"quantity"`
	Services []models.AddOnService `json:"services,omitempty"`
}

// EventKind classifies cart change notifications.
type EventKind string

const (
	EventItemAdded      EventKind = "item_added"
	EventQuantityChange EventKind = "quantity_changed"
	EventItemRemoved    EventKind = "item_removed"
	EventCleared        EventKind = "cleared"
)

// Event describes one cart mutation, delivered to subscribed listeners.
type Event struct {
	Kind      EventKind
	ProductID uuid.UUID
}

// Listener receives cart change events. Listeners run under the store lock
// so they observe a consistent cart; they must not call back into the store.
type Listener func(Event)

// Store holds the mutable cart of a single session. Lines are ordered by
// insertion and keyed by product id: adding a product that is already present
// bumps its quantity instead of duplicating the line.
type Store struct {
	mu        sync.Mutex
	lines     []Line
	policy    pricing.Policy
	listeners map[int]Listener
	nextSub   int
}

// NewStore builds an empty cart priced under the given shipping policy.
func NewStore(policy pricing.Policy) *Store {
	return &Store{
		policy:    policy,
		listeners: map[int]Listener{},
	}
}

// Subscribe registers a listener for cart change events and returns the
// function that removes it again.
func (s *Store) Subscribe(fn Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// AddItem appends a new line with quantity 1, or, when the product is already
// in the cart, increments its quantity and unions the selected services.
func (s *Store) AddItem(product models.Product, services ...models.AddOnService) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.lines {
		if s.lines[i].Product.ID == product.ID {
			s.lines[i].Quantity++
			s.lines[i].Services = unionServices(s.lines[i].Services, services)
			s.emit(Event{Kind: EventQuantityChange, ProductID: product.ID})
			return
		}
	}

	s.lines = append(s.lines, Line{
		Product:  product,
		Quantity: 1,
		Services: unionServices(nil, services),
	})
	s.emit(Event{Kind: EventItemAdded, ProductID: product.ID})
}

// UpdateQuantity sets the quantity of the product's line. Anything below 1
// removes the line. Updating a product that is not in the cart is a no-op.
func (s *Store) UpdateQuantity(productID uuid.UUID, quantity int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.lines {
		if s.lines[i].Product.ID != productID {
			continue
		}
		if quantity < 1 {
			s.lines = append(s.lines[:i], s.lines[i+1:]...)
			s.emit(Event{Kind: EventItemRemoved, ProductID: productID})
			return
		}
		s.lines[i].Quantity = quantity
		s.emit(Event{Kind: EventQuantityChange, ProductID: productID})
		return
	}
}

// RemoveItem drops the product's line. Removing an absent product is a no-op.
func (s *Store) RemoveItem(productID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.lines {
		if s.lines[i].Product.ID != productID {
			continue
		}
		s.lines = append(s.lines[:i], s.lines[i+1:]...)
		s.emit(Event{Kind: EventItemRemoved, ProductID: productID})
		return
	}
}

// Clear empties the cart.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.lines) == 0 {
		return
	}
	s.lines = nil
	s.emit(Event{Kind: EventCleared})
}

// Lines returns a deep copy of the current cart lines.
func (s *Store) Lines() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Snapshot is an alias of Lines used at checkout to make the copied-not-
// referenced contract explicit at the call site.
func (s *Store) Snapshot() []Line {
	return s.Lines()
}

// Len returns the number of lines in the cart.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lines)
}

// Totals recomputes subtotal, shipping, and total from the current lines.
// Nothing is cached; the figures always reflect the cart as it stands.
func (s *Store) Totals() pricing.Totals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return pricing.ComputeTotals(pricingLines(s.lines), s.policy)
}

func (s *Store) emit(event Event) {
	for _, fn := range s.listeners {
		fn(event)
	}
}

func (s *Store) snapshotLocked() []Line {
	out := make([]Line, len(s.lines))
	for i, line := range s.lines {
		copied := line
		copied.Services = append([]models.AddOnService(nil), line.Services...)
		out[i] = copied
	}
	return out
}

func pricingLines(lines []Line) []pricing.Line {
	out := make([]pricing.Line, len(lines))
	for i, line := range lines {
		priced := pricing.Line{
			UnitPrice: line.Product.Price,
			Quantity:  line.Quantity,
		}
		for _, svc := range line.Services {
			priced.ServicePrices = append(priced.ServicePrices, svc.Price)
		}
		out[i] = priced
	}
	return out
}

func unionServices(existing, incoming []models.AddOnService) []models.AddOnService {
	out := append([]models.AddOnService(nil), existing...)
	for _, svc := range incoming {
		present := false
		for _, have := range out {
			if have.ID == svc.ID {
				present = true
				break
			}
		}
		if !present {
			out = append(out, svc)
		}
	}
	return out
}
