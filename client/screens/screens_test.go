package screens_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/orderdesk/admin-api/client"
	"github.com/orderdesk/admin-api/client/screens"
	"github.com/orderdesk/admin-api/internal/status"
)

// --- Mock API ---

type mockAPI struct {
	queryFn           func(ctx context.Context, f client.Filter) (*client.OrderPage, error)
	getOrderFn        func(ctx context.Context, orderID string) (*client.Order, error)
	getContactFn      func(ctx context.Context, orderID string) (*client.Contact, error)
	listDriversFn     func(ctx context.Context) ([]client.Employee, error)
	transitionFn      func(ctx context.Context, orderID string, newStatus status.Status, tc client.TransitionContext) (*client.Order, error)
	setPickupStatusFn func(ctx context.Context, orderID string, pickupStatus status.Status) (*client.Order, error)
	allocateFn        func(ctx context.Context, orderID string) (*client.Order, error)
}

func (m *mockAPI) Query(ctx context.Context, f client.Filter) (*client.OrderPage, error) {
	if m.queryFn != nil {
		return m.queryFn(ctx, f)
	}
	return &client.OrderPage{Orders: []client.Order{}, Page: 1, Limit: 20}, nil
}

func (m *mockAPI) GetOrder(ctx context.Context, orderID string) (*client.Order, error) {
	if m.getOrderFn != nil {
		return m.getOrderFn(ctx, orderID)
	}
	return nil, &client.ServerError{StatusCode: 404, Message: "order not found"}
}

func (m *mockAPI) GetContact(ctx context.Context, orderID string) (*client.Contact, error) {
	if m.getContactFn != nil {
		return m.getContactFn(ctx, orderID)
	}
	return nil, &client.ServerError{StatusCode: 404, Message: "order not found"}
}

func (m *mockAPI) ListDrivers(ctx context.Context) ([]client.Employee, error) {
	if m.listDriversFn != nil {
		return m.listDriversFn(ctx)
	}
	return []client.Employee{}, nil
}

func (m *mockAPI) Transition(ctx context.Context, orderID string, newStatus status.Status, tc client.TransitionContext) (*client.Order, error) {
	if m.transitionFn != nil {
		return m.transitionFn(ctx, orderID, newStatus, tc)
	}
	return nil, &client.ServerError{StatusCode: 404, Message: "order not found"}
}

func (m *mockAPI) SetPickupStatus(ctx context.Context, orderID string, pickupStatus status.Status) (*client.Order, error) {
	if m.setPickupStatusFn != nil {
		return m.setPickupStatusFn(ctx, orderID, pickupStatus)
	}
	return nil, &client.ServerError{StatusCode: 404, Message: "order not found"}
}

func (m *mockAPI) Allocate(ctx context.Context, orderID string) (*client.Order, error) {
	if m.allocateFn != nil {
		return m.allocateFn(ctx, orderID)
	}
	return nil, &client.ServerError{StatusCode: 404, Message: "order not found"}
}

// --- Test data ---

func testOrder(orderID string, st status.Status) client.Order {
	return client.Order{
		OrderID:      orderID,
		Status:       st,
		StatusLabel:  status.Describe(st).Label,
		StatusColor:  status.Describe(st).Color,
		Customer:     "Nimal Perera",
		PhoneNumber:  "0771234567",
		DeliveryType: status.ModeDelivery,
	}
}

func testPickupOrder(orderID string, allocated bool, pickup *status.Status) client.Order {
	o := testOrder(orderID, status.ReadyToPickup)
	o.DeliveryType = status.ModePickup
	o.PickupAllocated = allocated
	o.PickupStatus = pickup
	return o
}

// --- AllOrders ---

func TestAllOrders_LoadAndPaginate(t *testing.T) {
	var gotFilter client.Filter
	api := &mockAPI{
		queryFn: func(ctx context.Context, f client.Filter) (*client.OrderPage, error) {
			gotFilter = f
			return &client.OrderPage{
				Orders: []client.Order{testOrder("ORD-1", status.OrderConfirmed)},
				Total:  45, Page: f.Page, Limit: f.Limit,
			}, nil
		},
	}

	s := screens.NewAllOrders(api)
	s.SetFilter(client.Filter{Search: "Nimal"})
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}

	if gotFilter.Search != "Nimal" {
		t.Errorf("search: got %q, want Nimal", gotFilter.Search)
	}
	if gotFilter.Page != 1 {
		t.Errorf("page: got %d, want 1", gotFilter.Page)
	}
	if len(s.Orders()) != 1 {
		t.Fatalf("orders: got %d, want 1", len(s.Orders()))
	}
	if !s.HasMore() {
		t.Error("expected more pages with total=45, limit=20")
	}

	s.SetPage(2)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("load page 2: %v", err)
	}
	if gotFilter.Page != 2 {
		t.Errorf("page: got %d, want 2", gotFilter.Page)
	}
}

func TestAllOrders_TransitionPatchesRow(t *testing.T) {
	api := &mockAPI{
		queryFn: func(ctx context.Context, f client.Filter) (*client.OrderPage, error) {
			return &client.OrderPage{
				Orders: []client.Order{
					testOrder("ORD-1", status.OrderConfirmed),
					testOrder("ORD-2", status.OrderConfirmed),
				},
				Total: 2, Page: 1, Limit: 20,
			}, nil
		},
		transitionFn: func(ctx context.Context, orderID string, newStatus status.Status, tc client.TransitionContext) (*client.Order, error) {
			o := testOrder(orderID, newStatus)
			return &o, nil
		},
	}

	s := screens.NewAllOrders(api)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := s.Transition(context.Background(), "ORD-2", status.PickingOrder, client.TransitionContext{}); err != nil {
		t.Fatalf("transition: %v", err)
	}

	orders := s.Orders()
	if orders[0].Status != status.OrderConfirmed {
		t.Errorf("ORD-1 status: got %s, want order-confirmed (untouched)", orders[0].Status)
	}
	if orders[1].Status != status.PickingOrder {
		t.Errorf("ORD-2 status: got %s, want picking-order", orders[1].Status)
	}
}

func TestAllOrders_InFlightGuard(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var startedOnce sync.Once
	api := &mockAPI{
		queryFn: func(ctx context.Context, f client.Filter) (*client.OrderPage, error) {
			startedOnce.Do(func() { close(started) })
			<-release
			return &client.OrderPage{Orders: []client.Order{}, Page: 1, Limit: 20}, nil
		},
	}

	s := screens.NewAllOrders(api)

	done := make(chan error, 1)
	go func() { done <- s.Load(context.Background()) }()
	<-started

	// A second action while the first is blocked must fail fast.
	err := s.Transition(context.Background(), "ORD-1", status.PickingOrder, client.TransitionContext{})
	if !errors.Is(err, screens.ErrRequestInFlight) {
		t.Errorf("error: got %v, want ErrRequestInFlight", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first load: %v", err)
	}

	// The gate opens again once the first call settles.
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("reload after release: %v", err)
	}
}

// --- OrderDetails ---

func TestOrderDetails_ActionsDisableNotHide(t *testing.T) {
	api := &mockAPI{
		getOrderFn: func(ctx context.Context, orderID string) (*client.Order, error) {
			o := testOrder(orderID, status.PayNotConfirmed)
			return &o, nil
		},
	}

	s := screens.NewOrderDetails(api)
	if err := s.Load(context.Background(), "ORD-1"); err != nil {
		t.Fatalf("load: %v", err)
	}

	actions := s.Actions()
	byStatus := map[status.Status]screens.Action{}
	for _, a := range actions {
		byStatus[a.Status] = a
	}

	// pay-not-confirmed allows confirm and refund.
	if a, ok := byStatus[status.OrderConfirmed]; !ok || !a.Enabled {
		t.Errorf("order-confirmed: got %+v, want enabled", a)
	}
	if a, ok := byStatus[status.OrderRefunded]; !ok || !a.Enabled {
		t.Errorf("order-refunded: got %+v, want enabled", a)
	}
	// Complete is unreachable here but still visible, disabled.
	if a, ok := byStatus[status.OrderComplete]; !ok || a.Enabled {
		t.Errorf("order-complete: got %+v, want visible and disabled", a)
	}
}

func TestOrderDetails_TerminalOrderFullyDisabled(t *testing.T) {
	api := &mockAPI{
		getOrderFn: func(ctx context.Context, orderID string) (*client.Order, error) {
			o := testOrder(orderID, status.OrderComplete)
			return &o, nil
		},
	}

	s := screens.NewOrderDetails(api)
	if err := s.Load(context.Background(), "ORD-1"); err != nil {
		t.Fatalf("load: %v", err)
	}

	for _, a := range s.Actions() {
		if a.Enabled {
			t.Errorf("action %s enabled on a terminal order", a.Status)
		}
	}
}

func TestOrderDetails_PickupModeForksActions(t *testing.T) {
	api := &mockAPI{
		getOrderFn: func(ctx context.Context, orderID string) (*client.Order, error) {
			o := testOrder(orderID, status.OrderProcessed)
			o.DeliveryType = status.ModePickup
			return &o, nil
		},
	}

	s := screens.NewOrderDetails(api)
	if err := s.Load(context.Background(), "ORD-1"); err != nil {
		t.Fatalf("load: %v", err)
	}

	var sawReady, sawDriver bool
	for _, a := range s.Actions() {
		if a.Status == status.ReadyToPickup && a.Enabled {
			sawReady = true
		}
		if a.Status == status.AllocatedDriver && a.Enabled {
			sawDriver = true
		}
	}
	if !sawReady {
		t.Error("self-pickup processed order must offer ready to pickup")
	}
	if sawDriver {
		t.Error("self-pickup processed order must not offer allocated-driver")
	}
}

func TestOrderDetails_LookupContactCached(t *testing.T) {
	var calls int
	api := &mockAPI{
		getOrderFn: func(ctx context.Context, orderID string) (*client.Order, error) {
			o := testOrder(orderID, status.OrderConfirmed)
			return &o, nil
		},
		getContactFn: func(ctx context.Context, orderID string) (*client.Contact, error) {
			calls++
			return &client.Contact{PhoneNumber: "0771234567", Name: "Nimal Perera"}, nil
		},
	}

	s := screens.NewOrderDetails(api)
	if err := s.Load(context.Background(), "ORD-1"); err != nil {
		t.Fatalf("load: %v", err)
	}
	for i := 0; i < 3; i++ {
		contact, err := s.LookupContact(context.Background())
		if err != nil {
			t.Fatalf("lookup %d: %v", i, err)
		}
		if contact.PhoneNumber != "0771234567" {
			t.Errorf("phone: got %s", contact.PhoneNumber)
		}
	}
	if calls != 1 {
		t.Errorf("contact calls: got %d, want 1", calls)
	}
}

// --- DeliveryOrders ---

func TestDeliveryOrders_AllocateDriverValidatesLocally(t *testing.T) {
	var calls int
	api := &mockAPI{
		transitionFn: func(ctx context.Context, orderID string, newStatus status.Status, tc client.TransitionContext) (*client.Order, error) {
			calls++
			o := testOrder(orderID, newStatus)
			return &o, nil
		},
	}

	s := screens.NewDeliveryOrders(api)

	err := s.AllocateDriver(context.Background(), "ORD-1", screens.Allocation{TimeSlot: "10-12"})
	var verr *client.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("missing driver: got %T, want *ValidationError", err)
	}

	err = s.AllocateDriver(context.Background(), "ORD-1", screens.Allocation{Driver1: "Kamal Silva"})
	if !errors.As(err, &verr) {
		t.Fatalf("missing time slot: got %T, want *ValidationError", err)
	}

	if calls != 0 {
		t.Errorf("network calls: got %d, want 0", calls)
	}
}

func TestDeliveryOrders_AllocateDriver(t *testing.T) {
	api := &mockAPI{
		queryFn: func(ctx context.Context, f client.Filter) (*client.OrderPage, error) {
			if f.DeliveryType != status.ModeDelivery {
				t.Errorf("deliveryType: got %s, want delivery", f.DeliveryType)
			}
			return &client.OrderPage{
				Orders: []client.Order{testOrder("ORD-1", status.OrderProcessed)},
				Total:  1, Page: 1, Limit: 100,
			}, nil
		},
		transitionFn: func(ctx context.Context, orderID string, newStatus status.Status, tc client.TransitionContext) (*client.Order, error) {
			if newStatus != status.AllocatedDriver {
				t.Errorf("status: got %s, want allocated-driver", newStatus)
			}
			if tc.Driver1 != "Kamal Silva" || tc.TimeSlot != "10-12" {
				t.Errorf("context: got %+v", tc)
			}
			o := testOrder(orderID, newStatus)
			return &o, nil
		},
	}

	s := screens.NewDeliveryOrders(api)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := s.AllocateDriver(context.Background(), "ORD-1", screens.Allocation{
		Driver1: "Kamal Silva", TimeSlot: "10-12",
	}); err != nil {
		t.Fatalf("allocate driver: %v", err)
	}

	if got := s.Orders()[0].Status; got != status.AllocatedDriver {
		t.Errorf("row status: got %s, want allocated-driver", got)
	}
}

// --- TransactionControl ---

func TestTransactionControl_RejectRequiresReason(t *testing.T) {
	var calls int
	api := &mockAPI{
		transitionFn: func(ctx context.Context, orderID string, newStatus status.Status, tc client.TransitionContext) (*client.Order, error) {
			calls++
			o := testOrder(orderID, newStatus)
			return &o, nil
		},
	}

	s := screens.NewTransactionControl(api)
	err := s.Reject(context.Background(), "ORD-1", "   ")
	var verr *client.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error: got %T, want *ValidationError", err)
	}
	if calls != 0 {
		t.Errorf("network calls: got %d, want 0", calls)
	}
}

func TestTransactionControl_ApproveRemovesFromQueue(t *testing.T) {
	api := &mockAPI{
		queryFn: func(ctx context.Context, f client.Filter) (*client.OrderPage, error) {
			if len(f.Statuses) != 1 || f.Statuses[0] != status.PayNotConfirmed {
				t.Errorf("statuses: got %v, want [pay-not-confirmed]", f.Statuses)
			}
			return &client.OrderPage{
				Orders: []client.Order{
					testOrder("ORD-1", status.PayNotConfirmed),
					testOrder("ORD-2", status.PayNotConfirmed),
				},
				Total: 2, Page: 1, Limit: 100,
			}, nil
		},
		transitionFn: func(ctx context.Context, orderID string, newStatus status.Status, tc client.TransitionContext) (*client.Order, error) {
			if newStatus != status.OrderConfirmed {
				t.Errorf("status: got %s, want order-confirmed", newStatus)
			}
			o := testOrder(orderID, newStatus)
			return &o, nil
		},
	}

	s := screens.NewTransactionControl(api)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := s.Approve(context.Background(), "ORD-1"); err != nil {
		t.Fatalf("approve: %v", err)
	}

	pending := s.Pending()
	if len(pending) != 1 || pending[0].OrderID != "ORD-2" {
		t.Errorf("pending: got %+v, want only ORD-2", pending)
	}
}

func TestTransactionControl_RejectRemovesFromQueue(t *testing.T) {
	api := &mockAPI{
		queryFn: func(ctx context.Context, f client.Filter) (*client.OrderPage, error) {
			return &client.OrderPage{
				Orders: []client.Order{testOrder("ORD-1", status.PayNotConfirmed)},
				Total:  1, Page: 1, Limit: 100,
			}, nil
		},
		transitionFn: func(ctx context.Context, orderID string, newStatus status.Status, tc client.TransitionContext) (*client.Order, error) {
			if newStatus != status.OrderRefunded {
				t.Errorf("status: got %s, want order-refunded", newStatus)
			}
			if tc.Reason != "receipt does not match" {
				t.Errorf("reason: got %q", tc.Reason)
			}
			o := testOrder(orderID, newStatus)
			return &o, nil
		},
	}

	s := screens.NewTransactionControl(api)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := s.Reject(context.Background(), "ORD-1", "receipt does not match"); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if len(s.Pending()) != 0 {
		t.Errorf("pending: got %d, want 0", len(s.Pending()))
	}
}
