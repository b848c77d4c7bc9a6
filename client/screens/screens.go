// Package screens holds the headless controllers behind the admin
// dashboard screens. Each controller owns the state for one screen,
// talks to the API through the client package, and serializes its own
// network activity: one request in flight per screen, never more.
package screens

import (
	"context"
	"errors"
	"sync"

	"github.com/orderdesk/admin-api/client"
	"github.com/orderdesk/admin-api/internal/status"
)

// ErrRequestInFlight is returned when a screen action is triggered while
// a previous one is still running. The caller keeps the button disabled
// and tries again once the first call settles.
var ErrRequestInFlight = errors.New("a request is already in flight")

// API is the slice of the client a screen controller needs.
// Satisfied by *client.Client; narrow interface for testability.
type API interface {
	Query(ctx context.Context, f client.Filter) (*client.OrderPage, error)
	GetOrder(ctx context.Context, orderID string) (*client.Order, error)
	GetContact(ctx context.Context, orderID string) (*client.Contact, error)
	ListDrivers(ctx context.Context) ([]client.Employee, error)
	Transition(ctx context.Context, orderID string, newStatus status.Status, tc client.TransitionContext) (*client.Order, error)
	SetPickupStatus(ctx context.Context, orderID string, pickupStatus status.Status) (*client.Order, error)
	Allocate(ctx context.Context, orderID string) (*client.Order, error)
}

// gate is the per-screen in-flight guard. enter fails instead of
// blocking so a double-click surfaces as ErrRequestInFlight immediately.
type gate struct {
	mu   sync.Mutex
	busy bool
}

func (g *gate) enter() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.busy {
		return ErrRequestInFlight
	}
	g.busy = true
	return nil
}

func (g *gate) leave() {
	g.mu.Lock()
	g.busy = false
	g.mu.Unlock()
}
