package screens

import (
	"context"
	"sync"

	"github.com/orderdesk/admin-api/client"
	"github.com/orderdesk/admin-api/internal/status"
)

// PickupOrders drives the self-pickup counter screen. Orders flow through
// three columns: waiting for allocation, allocated to the counter, and
// picked up. Movement is strictly forward; nothing moves back a column.
type PickupOrders struct {
	api  API
	gate gate

	mu          sync.Mutex
	unallocated []client.Order
	allocated   []client.Order
	pickedUp    []client.Order
}

// NewPickupOrders creates the controller.
func NewPickupOrders(api API) *PickupOrders {
	return &PickupOrders{api: api}
}

// Load fetches self-pickup orders and partitions them into columns.
func (s *PickupOrders) Load(ctx context.Context) error {
	if err := s.gate.enter(); err != nil {
		return err
	}
	defer s.gate.leave()

	page, err := s.api.Query(ctx, client.Filter{
		DeliveryType: status.ModePickup,
		Statuses: []status.Status{
			status.OrderProcessed,
			status.ReadyToPickup,
			status.OrderNotPickedUp,
		},
		Limit: 100,
	})
	if err != nil {
		return err
	}

	var unallocated, allocated, pickedUp []client.Order
	for _, o := range page.Orders {
		switch {
		case o.PickupStatus != nil && *o.PickupStatus == status.OrderPickedUp:
			pickedUp = append(pickedUp, o)
		case o.PickupAllocated:
			allocated = append(allocated, o)
		default:
			unallocated = append(unallocated, o)
		}
	}

	s.mu.Lock()
	s.unallocated = unallocated
	s.allocated = allocated
	s.pickedUp = pickedUp
	s.mu.Unlock()
	return nil
}

// Unallocated returns a copy of the waiting column.
func (s *PickupOrders) Unallocated() []client.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyOrders(s.unallocated)
}

// Allocated returns a copy of the counter column.
func (s *PickupOrders) Allocated() []client.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyOrders(s.allocated)
}

// PickedUp returns a copy of the done column.
func (s *PickupOrders) PickedUp() []client.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyOrders(s.pickedUp)
}

// Allocate reserves an order for the counter. The row leaves the waiting
// column immediately so a double action cannot allocate twice; if the
// call fails the row is put back where it was.
func (s *PickupOrders) Allocate(ctx context.Context, orderID string) error {
	if err := s.gate.enter(); err != nil {
		return err
	}
	defer s.gate.leave()

	order, idx, ok := s.take(&s.unallocated, orderID)
	if !ok {
		return &client.ValidationError{Message: "order is not waiting for allocation"}
	}

	updated, err := s.api.Allocate(ctx, orderID)
	if err != nil {
		s.putBack(&s.unallocated, order, idx)
		return err
	}

	s.mu.Lock()
	s.allocated = append(s.allocated, *updated)
	s.mu.Unlock()
	return nil
}

// MarkPickedUp records that the customer collected an allocated order.
// Same two-phase move as Allocate: the row leaves the counter column
// first and comes back only on failure.
func (s *PickupOrders) MarkPickedUp(ctx context.Context, orderID string) error {
	if err := s.gate.enter(); err != nil {
		return err
	}
	defer s.gate.leave()

	order, idx, ok := s.take(&s.allocated, orderID)
	if !ok {
		return &client.ValidationError{Message: "order is not allocated"}
	}

	updated, err := s.api.SetPickupStatus(ctx, orderID, status.OrderPickedUp)
	if err != nil {
		s.putBack(&s.allocated, order, idx)
		return err
	}

	s.mu.Lock()
	s.pickedUp = append(s.pickedUp, *updated)
	s.mu.Unlock()
	return nil
}

// MarkNotPickedUp flags an allocated order whose customer has not shown
// up. The order stays in the counter column with the updated sub-status.
func (s *PickupOrders) MarkNotPickedUp(ctx context.Context, orderID string) error {
	if err := s.gate.enter(); err != nil {
		return err
	}
	defer s.gate.leave()

	updated, err := s.api.SetPickupStatus(ctx, orderID, status.OrderNotPickedUp)
	if err != nil {
		return err
	}

	s.mu.Lock()
	for i := range s.allocated {
		if s.allocated[i].OrderID == updated.OrderID {
			s.allocated[i] = *updated
			break
		}
	}
	s.mu.Unlock()
	return nil
}

// take removes the order from a column and reports its position for a
// possible rollback.
func (s *PickupOrders) take(column *[]client.Order, orderID string) (client.Order, int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, o := range *column {
		if o.OrderID == orderID {
			*column = append((*column)[:i], (*column)[i+1:]...)
			return o, i, true
		}
	}
	return client.Order{}, 0, false
}

// putBack restores a taken order to its original position.
func (s *PickupOrders) putBack(column *[]client.Order, order client.Order, idx int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx > len(*column) {
		idx = len(*column)
	}
	*column = append((*column)[:idx], append([]client.Order{order}, (*column)[idx:]...)...)
}

func copyOrders(in []client.Order) []client.Order {
	out := make([]client.Order, len(in))
	copy(out, in)
	return out
}
