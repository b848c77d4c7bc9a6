package screens

import (
	"context"
	"sync"

	"github.com/orderdesk/admin-api/client"
	"github.com/orderdesk/admin-api/internal/status"
)

// AllOrders drives the master order list: every order regardless of
// status, with the full filter bar and pagination.
type AllOrders struct {
	api  API
	gate gate

	mu     sync.Mutex
	filter client.Filter
	orders []client.Order
	total  int64
	page   int
	limit  int
}

// NewAllOrders creates the controller with default pagination.
func NewAllOrders(api API) *AllOrders {
	return &AllOrders{api: api, page: 1, limit: 20}
}

// SetFilter replaces the filter and resets to the first page. The new
// filter takes effect on the next Load.
func (s *AllOrders) SetFilter(f client.Filter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = f
	s.page = 1
}

// SetPage selects a 1-indexed page for the next Load.
func (s *AllOrders) SetPage(page int) {
	if page < 1 {
		page = 1
	}
	s.mu.Lock()
	s.page = page
	s.mu.Unlock()
}

// Load fetches the current page. Stale results are replaced wholesale;
// the screen never merges two snapshots.
func (s *AllOrders) Load(ctx context.Context) error {
	if err := s.gate.enter(); err != nil {
		return err
	}
	defer s.gate.leave()

	s.mu.Lock()
	f := s.filter
	f.Page = s.page
	f.Limit = s.limit
	s.mu.Unlock()

	page, err := s.api.Query(ctx, f)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.orders = page.Orders
	s.total = page.Total
	s.page = page.Page
	s.limit = page.Limit
	s.mu.Unlock()
	return nil
}

// Orders returns a copy of the current page.
func (s *AllOrders) Orders() []client.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]client.Order, len(s.orders))
	copy(out, s.orders)
	return out
}

// Total returns the matching order count across all pages.
func (s *AllOrders) Total() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

// Page returns the current 1-indexed page number.
func (s *AllOrders) Page() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page
}

// HasMore reports whether pages remain after the current one.
func (s *AllOrders) HasMore() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(s.page*s.limit) < s.total
}

// Transition moves one listed order to a new status and patches the row
// in place with the server's response, avoiding a full reload.
func (s *AllOrders) Transition(ctx context.Context, orderID string, newStatus status.Status, tc client.TransitionContext) error {
	if err := s.gate.enter(); err != nil {
		return err
	}
	defer s.gate.leave()

	updated, err := s.api.Transition(ctx, orderID, newStatus, tc)
	if err != nil {
		return err
	}

	s.mu.Lock()
	for i := range s.orders {
		if s.orders[i].OrderID == updated.OrderID {
			s.orders[i] = *updated
			break
		}
	}
	s.mu.Unlock()
	return nil
}
