// Package status is the single source of truth for the order lifecycle:
// every status key the backend can return, its display metadata, and the
// advisory transition sets the admin screens offer. The server only enforces
// known-status, terminal immutability and a compare-and-swap on the current
// value; everything else here is advice for the UI.
package status

// Status is a lifecycle status key as stored on an order. Unknown keys
// coming back from older data must still render, so Status is a named
// string rather than a closed integer enum.
type Status string

const (
	CartNotPaid       Status = "cart-not-paid"
	OrderMadeNotPaid  Status = "order-made-not-paid"
	PayNotConfirmed   Status = "pay-not-confirmed"
	OrderConfirmed    Status = "order-confirmed"
	PickingOrder      Status = "picking-order"
	OrderProcessed    Status = "order-processed"
	AllocatedDriver   Status = "allocated-driver"
	OnWay             Status = "on-way"
	DriverConfirmed   Status = "driver-confirmed"
	CustomerConfirmed Status = "customer-confirmed"
	ReadyToPickup     Status = "ready to pickup"
	OrderNotPickedUp  Status = "order-not-pickedup"
	OrderPickedUp     Status = "order-pickuped-up"
	OrderNotPicked    Status = "order not picked"
	IssueCustomer     Status = "issue-customer"
	IssueDriver       Status = "issue-driver"
	ComplainOrder     Status = "complain-order"
	ParcelReturned    Status = "parcel-returned"
	OrderComplete     Status = "order-complete"
	OrderRefunded     Status = "order-refunded"
)

// DeliveryMode distinguishes driver delivery from counter self-pickup.
// It selects which branch of the lifecycle an order follows after picking.
type DeliveryMode string

const (
	ModeDelivery DeliveryMode = "delivery"
	ModePickup   DeliveryMode = "self-pickup"
)

// Phase groups statuses for filter tabs and reporting.
type Phase string

const (
	PhasePayment     Phase = "payment"
	PhaseFulfillment Phase = "fulfillment"
	PhaseDelivery    Phase = "delivery"
	PhasePickup      Phase = "pickup"
	PhaseIssue       Phase = "issue"
	PhaseTerminal    Phase = "terminal"
)

// Info is the display metadata for a status.
type Info struct {
	Label string
	Color string
	Phase Phase
}

var registry = map[Status]Info{
	CartNotPaid:       {Label: "Cart (unpaid)", Color: "secondary", Phase: PhasePayment},
	OrderMadeNotPaid:  {Label: "Awaiting payment", Color: "warning", Phase: PhasePayment},
	PayNotConfirmed:   {Label: "Payment unverified", Color: "warning", Phase: PhasePayment},
	OrderConfirmed:    {Label: "Confirmed", Color: "info", Phase: PhaseFulfillment},
	PickingOrder:      {Label: "Picking", Color: "info", Phase: PhaseFulfillment},
	OrderProcessed:    {Label: "Processed", Color: "primary", Phase: PhaseFulfillment},
	AllocatedDriver:   {Label: "Driver allocated", Color: "primary", Phase: PhaseDelivery},
	OnWay:             {Label: "On the way", Color: "primary", Phase: PhaseDelivery},
	DriverConfirmed:   {Label: "Driver confirmed", Color: "info", Phase: PhaseDelivery},
	CustomerConfirmed: {Label: "Customer confirmed", Color: "success", Phase: PhaseDelivery},
	ReadyToPickup:     {Label: "Ready to pick up", Color: "primary", Phase: PhasePickup},
	OrderNotPickedUp:  {Label: "Not picked up yet", Color: "warning", Phase: PhasePickup},
	OrderPickedUp:     {Label: "Picked up", Color: "success", Phase: PhasePickup},
	OrderNotPicked:    {Label: "Never picked up", Color: "danger", Phase: PhasePickup},
	IssueCustomer:     {Label: "Customer issue", Color: "danger", Phase: PhaseIssue},
	IssueDriver:       {Label: "Driver issue", Color: "danger", Phase: PhaseIssue},
	ComplainOrder:     {Label: "Complaint raised", Color: "danger", Phase: PhaseIssue},
	ParcelReturned:    {Label: "Parcel returned", Color: "danger", Phase: PhaseIssue},
	OrderComplete:     {Label: "Complete", Color: "success", Phase: PhaseTerminal},
	OrderRefunded:     {Label: "Refunded", Color: "neutral", Phase: PhaseTerminal},
}

// Describe returns display metadata for a status. Unknown keys get a
// neutral fallback with the raw key as label; the dashboard must never
// crash on a status it has not seen before.
func Describe(s Status) Info {
	if info, ok := registry[s]; ok {
		return info
	}
	return Info{Label: string(s), Color: "neutral"}
}

// Known reports whether s is a registered status key.
func Known(s Status) bool {
	_, ok := registry[s]
	return ok
}

// IsTerminal reports whether s closes the order lifecycle. Terminal orders
// accept no further transitions through this subsystem.
func IsTerminal(s Status) bool {
	return s == OrderComplete || s == OrderRefunded
}

// allowedNext is the advisory transition table shared by both delivery
// modes. Post-picking branching is handled in AllowedNext.
var allowedNext = map[Status][]Status{
	CartNotPaid:       {OrderMadeNotPaid},
	OrderMadeNotPaid:  {PayNotConfirmed},
	PayNotConfirmed:   {OrderConfirmed, OrderRefunded},
	OrderConfirmed:    {PickingOrder, OrderRefunded},
	PickingOrder:      {OrderProcessed, IssueCustomer},
	AllocatedDriver:   {OnWay, IssueDriver},
	OnWay:             {DriverConfirmed, IssueDriver, ParcelReturned},
	DriverConfirmed:   {CustomerConfirmed, IssueCustomer},
	CustomerConfirmed: {OrderComplete, ComplainOrder},
	ReadyToPickup:     {OrderPickedUp, OrderNotPickedUp},
	OrderNotPickedUp:  {OrderPickedUp, OrderNotPicked},
	OrderPickedUp:     {OrderComplete, ComplainOrder},
	OrderNotPicked:    {OrderRefunded},
	IssueCustomer:     {OrderRefunded, OrderComplete},
	IssueDriver:       {AllocatedDriver, OrderRefunded},
	ComplainOrder:     {OrderRefunded, OrderComplete},
	ParcelReturned:    {OrderRefunded},
}

// AllowedNext enumerates the transitions a screen may offer from current.
// Advisory only: the backend is the final authority on legality. Terminal
// and unknown statuses return nil.
func AllowedNext(current Status, mode DeliveryMode) []Status {
	if IsTerminal(current) || !Known(current) {
		return nil
	}
	// A processed order forks by fulfilment mode.
	if current == OrderProcessed {
		if mode == ModePickup {
			return []Status{ReadyToPickup}
		}
		return []Status{AllocatedDriver}
	}
	next := allowedNext[current]
	out := make([]Status, len(next))
	copy(out, next)
	return out
}

// CanTransition reports whether next is in the advisory set for current.
func CanTransition(current, next Status, mode DeliveryMode) bool {
	for _, s := range AllowedNext(current, mode) {
		if s == next {
			return true
		}
	}
	return false
}

// Pickup sub-status values. pickupStatus is a second dimension on
// self-pickup orders, independent of the main status field.
var pickupSubStatuses = map[Status]bool{
	ReadyToPickup:    true,
	OrderNotPickedUp: true,
	OrderPickedUp:    true,
}

// IsPickupSubStatus reports whether s is valid for the pickupStatus field.
func IsPickupSubStatus(s Status) bool {
	return pickupSubStatuses[s]
}

// All returns every registered status key. Order is not specified.
func All() []Status {
	out := make([]Status, 0, len(registry))
	for s := range registry {
		out = append(out, s)
	}
	return out
}
