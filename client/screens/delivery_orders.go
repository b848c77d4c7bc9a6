package screens

import (
	"context"
	"strings"
	"sync"

	"github.com/orderdesk/admin-api/client"
	"github.com/orderdesk/admin-api/internal/status"
)

// DeliveryOrders drives the delivery dispatch screen: processed orders
// waiting for a driver, plus the driver roster for allocation.
type DeliveryOrders struct {
	api  API
	gate gate

	mu      sync.Mutex
	orders  []client.Order
	drivers []client.Employee
}

// NewDeliveryOrders creates the controller.
func NewDeliveryOrders(api API) *DeliveryOrders {
	return &DeliveryOrders{api: api}
}

// Load fetches the delivery queue and refreshes the driver roster.
func (s *DeliveryOrders) Load(ctx context.Context) error {
	if err := s.gate.enter(); err != nil {
		return err
	}
	defer s.gate.leave()

	page, err := s.api.Query(ctx, client.Filter{
		DeliveryType: status.ModeDelivery,
		Statuses: []status.Status{
			status.OrderProcessed,
			status.AllocatedDriver,
			status.OnWay,
			status.DriverConfirmed,
		},
		Limit: 100,
	})
	if err != nil {
		return err
	}

	drivers, err := s.api.ListDrivers(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.orders = page.Orders
	s.drivers = drivers
	s.mu.Unlock()
	return nil
}

// Orders returns a copy of the delivery queue.
func (s *DeliveryOrders) Orders() []client.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]client.Order, len(s.orders))
	copy(out, s.orders)
	return out
}

// Drivers returns a copy of the active driver roster.
func (s *DeliveryOrders) Drivers() []client.Employee {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]client.Employee, len(s.drivers))
	copy(out, s.drivers)
	return out
}

// Allocation is the driver assignment form for one order.
type Allocation struct {
	Driver1        string
	Driver2        string
	TimeSlot       string
	TruckOnDeliver *bool
}

// AllocateDriver assigns drivers and a time slot to a processed order,
// moving it to allocated-driver. The primary driver and time slot are
// required and checked locally before any network call.
func (s *DeliveryOrders) AllocateDriver(ctx context.Context, orderID string, a Allocation) error {
	if strings.TrimSpace(a.Driver1) == "" {
		return &client.ValidationError{Message: "a primary driver is required"}
	}
	if strings.TrimSpace(a.TimeSlot) == "" {
		return &client.ValidationError{Message: "a time slot is required"}
	}

	if err := s.gate.enter(); err != nil {
		return err
	}
	defer s.gate.leave()

	updated, err := s.api.Transition(ctx, orderID, status.AllocatedDriver, client.TransitionContext{
		Driver1:        a.Driver1,
		Driver2:        a.Driver2,
		TimeSlot:       a.TimeSlot,
		TruckOnDeliver: a.TruckOnDeliver,
	})
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

// Advance moves a delivery order along its route, e.g. allocated-driver
// to on-way, and patches the row with the server's response.
func (s *DeliveryOrders) Advance(ctx context.Context, orderID string, newStatus status.Status) error {
	if err := s.gate.enter(); err != nil {
		return err
	}
	defer s.gate.leave()

	updated, err := s.api.Transition(ctx, orderID, newStatus, client.TransitionContext{})
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
