package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/orderdesk/admin-api/internal/status"
)

// TransitionContext carries the optional attributes a status change may
// record alongside the new status.
type TransitionContext struct {
	// Reason is required when moving an order to order-refunded.
	Reason string
	// Delivery scheduling attributes, set when allocating a driver.
	TimeSlot       string
	Driver1        string
	Driver2        string
	TruckOnDeliver *bool
	// PickupType is set when a self-pickup order moves to ready to pickup.
	PickupType string
}

type transitionRequest struct {
	Status         string `json:"status"`
	Reason         string `json:"reason,omitempty"`
	TimeSlot       string `json:"timeSlot,omitempty"`
	Driver1        string `json:"driver1,omitempty"`
	Driver2        string `json:"driver2,omitempty"`
	PickupType     string `json:"pickupType,omitempty"`
	TruckOnDeliver *bool  `json:"truckOnDeliver,omitempty"`
}

// Transition moves an order to a new status. Exactly one PUT is issued
// per call and never retried; a concurrent change surfaces as a 409
// ServerError and the caller decides whether to refetch.
//
// Rejections (order-refunded) without a reason are refused locally, before
// any network traffic.
func (c *Client) Transition(ctx context.Context, orderID string, newStatus status.Status, tc TransitionContext) (*Order, error) {
	if orderID == "" {
		return nil, &ValidationError{Message: "order id is required"}
	}
	if !status.Known(newStatus) {
		return nil, &ValidationError{Message: fmt.Sprintf("unknown status %q", newStatus)}
	}
	if newStatus == status.OrderRefunded && strings.TrimSpace(tc.Reason) == "" {
		return nil, &ValidationError{Message: "a reason is required to reject an order"}
	}

	req := transitionRequest{
		Status:         string(newStatus),
		Reason:         tc.Reason,
		TimeSlot:       tc.TimeSlot,
		Driver1:        tc.Driver1,
		Driver2:        tc.Driver2,
		PickupType:     tc.PickupType,
		TruckOnDeliver: tc.TruckOnDeliver,
	}

	var order Order
	path := fmt.Sprintf("/api/orders/%s/status", url.PathEscape(orderID))
	if err := c.do(ctx, http.MethodPut, path, nil, req, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// SetPickupStatus updates the pickup sub-status of a self-pickup order.
// Only the pickup sub-status keys are accepted; anything else is refused
// locally.
func (c *Client) SetPickupStatus(ctx context.Context, orderID string, pickupStatus status.Status) (*Order, error) {
	if orderID == "" {
		return nil, &ValidationError{Message: "order id is required"}
	}
	if !status.IsPickupSubStatus(pickupStatus) {
		return nil, &ValidationError{Message: fmt.Sprintf("%q is not a pickup status", pickupStatus)}
	}

	req := map[string]string{"pickupStatus": string(pickupStatus)}

	var order Order
	path := fmt.Sprintf("/api/orders/%s/pickup-status", url.PathEscape(orderID))
	if err := c.do(ctx, http.MethodPut, path, nil, req, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// Allocate reserves a self-pickup order for the counter. Allocating an
// already-allocated order surfaces as a 409 ServerError.
func (c *Client) Allocate(ctx context.Context, orderID string) (*Order, error) {
	if orderID == "" {
		return nil, &ValidationError{Message: "order id is required"}
	}

	var order Order
	path := fmt.Sprintf("/api/orders/%s/allocate", url.PathEscape(orderID))
	if err := c.do(ctx, http.MethodPut, path, nil, nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}
