package screens

import (
	"context"
	"strings"
	"sync"

	"github.com/orderdesk/admin-api/client"
	"github.com/orderdesk/admin-api/internal/status"
)

// TransactionControl drives the payment verification screen: orders with
// an unverified bank transfer, each either approved into the fulfilment
// pipeline or rejected into a refund.
type TransactionControl struct {
	api  API
	gate gate

	mu      sync.Mutex
	pending []client.Order
}

// NewTransactionControl creates the controller.
func NewTransactionControl(api API) *TransactionControl {
	return &TransactionControl{api: api}
}

// Load fetches orders awaiting payment verification.
func (s *TransactionControl) Load(ctx context.Context) error {
	if err := s.gate.enter(); err != nil {
		return err
	}
	defer s.gate.leave()

	page, err := s.api.Query(ctx, client.Filter{
		Statuses: []status.Status{status.PayNotConfirmed},
		Limit:    100,
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.pending = page.Orders
	s.mu.Unlock()
	return nil
}

// Pending returns a copy of the verification queue.
func (s *TransactionControl) Pending() []client.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyOrders(s.pending)
}

// Approve confirms the payment, moving the order to order-confirmed and
// dropping it from the queue.
func (s *TransactionControl) Approve(ctx context.Context, orderID string) error {
	if err := s.gate.enter(); err != nil {
		return err
	}
	defer s.gate.leave()

	updated, err := s.api.Transition(ctx, orderID, status.OrderConfirmed, client.TransitionContext{})
	if err != nil {
		return err
	}

	s.remove(updated.OrderID)
	return nil
}

// Reject refunds the order. A reason is mandatory and checked before any
// network call; a blank reason never leaves the screen.
func (s *TransactionControl) Reject(ctx context.Context, orderID, reason string) error {
	if strings.TrimSpace(reason) == "" {
		return &client.ValidationError{Message: "a reason is required to reject an order"}
	}

	if err := s.gate.enter(); err != nil {
		return err
	}
	defer s.gate.leave()

	updated, err := s.api.Transition(ctx, orderID, status.OrderRefunded, client.TransitionContext{Reason: reason})
	if err != nil {
		return err
	}

	s.remove(updated.OrderID)
	return nil
}

func (s *TransactionControl) remove(orderID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, o := range s.pending {
		if o.OrderID == orderID {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			return
		}
	}
}
