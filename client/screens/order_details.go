package screens

import (
	"context"
	"sync"

	"github.com/orderdesk/admin-api/client"
	"github.com/orderdesk/admin-api/internal/status"
)

// OrderDetails drives the single-order view: the full record with line
// items, the customer contact lookup, and the status action row.
type OrderDetails struct {
	api  API
	gate gate

	mu      sync.Mutex
	order   *client.Order
	contact *client.Contact
}

// Action is one status button on the details screen. Unreachable actions
// stay visible but disabled, so the operator sees the whole lifecycle.
type Action struct {
	Status  status.Status
	Label   string
	Enabled bool
}

// NewOrderDetails creates the controller.
func NewOrderDetails(api API) *OrderDetails {
	return &OrderDetails{api: api}
}

// Load fetches the order and resets any stale contact lookup.
func (s *OrderDetails) Load(ctx context.Context, orderID string) error {
	if err := s.gate.enter(); err != nil {
		return err
	}
	defer s.gate.leave()

	order, err := s.api.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.order = order
	s.contact = nil
	s.mu.Unlock()
	return nil
}

// Order returns the loaded order, nil before the first Load.
func (s *OrderDetails) Order() *client.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.order
}

// Actions builds the status button row for the loaded order. The advisory
// next statuses are enabled; the two closing statuses are always shown,
// disabled when not reachable from the current status. Terminal orders
// get a fully disabled row.
func (s *OrderDetails) Actions() []Action {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.order == nil {
		return nil
	}

	allowed := status.AllowedNext(s.order.Status, s.order.DeliveryType)
	seen := make(map[status.Status]bool, len(allowed))
	actions := make([]Action, 0, len(allowed)+2)
	for _, next := range allowed {
		actions = append(actions, Action{Status: next, Label: status.Describe(next).Label, Enabled: true})
		seen[next] = true
	}
	for _, next := range []status.Status{status.OrderComplete, status.OrderRefunded} {
		if !seen[next] {
			actions = append(actions, Action{Status: next, Label: status.Describe(next).Label})
		}
	}
	return actions
}

// Transition moves the order to a new status and replaces the loaded
// record with the server's response.
func (s *OrderDetails) Transition(ctx context.Context, newStatus status.Status, tc client.TransitionContext) error {
	s.mu.Lock()
	if s.order == nil {
		s.mu.Unlock()
		return &client.ValidationError{Message: "no order loaded"}
	}
	orderID := s.order.OrderID
	s.mu.Unlock()

	if err := s.gate.enter(); err != nil {
		return err
	}
	defer s.gate.leave()

	updated, err := s.api.Transition(ctx, orderID, newStatus, tc)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.order = updated
	s.mu.Unlock()
	return nil
}

// LookupContact fetches the customer phone number on demand for the
// call-customer action.
func (s *OrderDetails) LookupContact(ctx context.Context) (*client.Contact, error) {
	s.mu.Lock()
	if s.order == nil {
		s.mu.Unlock()
		return nil, &client.ValidationError{Message: "no order loaded"}
	}
	if s.contact != nil {
		contact := s.contact
		s.mu.Unlock()
		return contact, nil
	}
	orderID := s.order.OrderID
	s.mu.Unlock()

	if err := s.gate.enter(); err != nil {
		return nil, err
	}
	defer s.gate.leave()

	contact, err := s.api.GetContact(ctx, orderID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.contact = contact
	s.mu.Unlock()
	return contact, nil
}
