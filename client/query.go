package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/orderdesk/admin-api/internal/status"
)

// Order is the client-side view of an order as the API returns it.
type Order struct {
	OrderID         string              `json:"orderId"`
	Status          status.Status       `json:"status"`
	StatusLabel     string              `json:"statusLabel"`
	StatusColor     string              `json:"statusColor"`
	Customer        string              `json:"customer"`
	PhoneNumber     string              `json:"phoneNumber"`
	Email           *string             `json:"email"`
	DeliveryType    status.DeliveryMode `json:"deliveryType"`
	TotalAmount     decimal.Decimal     `json:"totalAmount"`
	DeliveryCharge  decimal.Decimal     `json:"deliveryCharge"`
	Discount        decimal.Decimal     `json:"discount"`
	TimeSlot        *string             `json:"timeSlot"`
	Driver1         *string             `json:"driver1"`
	Driver2         *string             `json:"driver2"`
	PickupType      *string             `json:"pickupType"`
	TruckOnDeliver  *bool               `json:"truckOnDeliver"`
	PickupStatus    *status.Status      `json:"pickupStatus"`
	PickupAllocated bool                `json:"pickupAllocated"`
	AllocatedAt     *time.Time          `json:"allocatedAt"`
	AdminReason     *string             `json:"adminReason"`
	OrderDate       time.Time           `json:"orderDate"`

	AccountHolderName  *string `json:"accountHolderName"`
	PaidBankName       *string `json:"paidBankName"`
	TransactionID      *string `json:"transactionId"`
	ReceiptImage       []byte  `json:"receiptImage,omitempty"`
	ReceiptContentType *string `json:"receiptContentType"`

	Complaints []Complaint `json:"complaints,omitempty"`
	Items      []OrderItem `json:"items,omitempty"`
}

// OrderItem is one line of an order.
type OrderItem struct {
	ProductName string          `json:"productName"`
	Quantity    int32           `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	TotalPrice  decimal.Decimal `json:"totalPrice"`
	Weight      *string         `json:"weight,omitempty"`
}

// Complaint is a customer complaint attached to an order.
type Complaint struct {
	ComplaintID string    `json:"complaintId"`
	IssueTypes  []string  `json:"issueTypes"`
	Status      string    `json:"status"`
	ReportedBy  string    `json:"reportedBy"`
	ReportedAt  time.Time `json:"reportedAt"`
}

// Contact is the customer phone lookup result.
type Contact struct {
	PhoneNumber string `json:"phoneNumber"`
	Name        string `json:"name"`
}

// Employee is one roster entry, e.g. a driver available for allocation.
type Employee struct {
	ID               string `json:"id"`
	FullName         string `json:"fullName"`
	PhoneNumber      string `json:"phoneNumber"`
	EmployeeCategory string `json:"employeeCategory"`
}

// Filter narrows an order query. Zero values mean "no constraint".
type Filter struct {
	// Statuses restricts to any of the given keys; sent comma-joined.
	Statuses []status.Status
	// DeliveryType restricts to one fulfillment mode.
	DeliveryType status.DeliveryMode
	// Search matches order id, customer name or phone number.
	Search string
	// StartDate and EndDate bound the order date, both inclusive.
	StartDate time.Time
	EndDate   time.Time
	// Page is 1-indexed; 0 means the first page.
	Page int
	// Limit is the page size; 0 takes the server default.
	Limit int
}

// OrderPage is one page of query results.
type OrderPage struct {
	Orders []Order `json:"orders"`
	Total  int64   `json:"total"`
	Page   int     `json:"page"`
	Limit  int     `json:"limit"`
}

// HasMore reports whether pages remain after this one.
func (p *OrderPage) HasMore() bool {
	return int64(p.Page*p.Limit) < p.Total
}

// Query fetches one page of orders matching the filter.
// An empty result is a valid page with no orders, never an error.
func (c *Client) Query(ctx context.Context, f Filter) (*OrderPage, error) {
	q := url.Values{}
	if len(f.Statuses) > 0 {
		keys := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			keys[i] = string(s)
		}
		q.Set("status", strings.Join(keys, ","))
	}
	if f.DeliveryType != "" {
		q.Set("deliveryType", string(f.DeliveryType))
	}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if !f.StartDate.IsZero() {
		q.Set("startDate", f.StartDate.Format("2006-01-02"))
	}
	if !f.EndDate.IsZero() {
		q.Set("endDate", f.EndDate.Format("2006-01-02"))
	}
	if f.Page > 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}

	var page OrderPage
	if err := c.do(ctx, http.MethodGet, "/api/orders", q, nil, &page); err != nil {
		return nil, err
	}
	if page.Orders == nil {
		page.Orders = []Order{}
	}
	return &page, nil
}

// GetOrder fetches one order with its line items.
func (c *Client) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	if orderID == "" {
		return nil, &ValidationError{Message: "order id is required"}
	}
	var order Order
	if err := c.do(ctx, http.MethodGet, "/api/orders/"+url.PathEscape(orderID), nil, nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// GetContact fetches the customer phone number for an order. The list
// endpoints omit it, so the call-customer action asks on demand.
func (c *Client) GetContact(ctx context.Context, orderID string) (*Contact, error) {
	if orderID == "" {
		return nil, &ValidationError{Message: "order id is required"}
	}
	var contact Contact
	path := fmt.Sprintf("/api/orders/%s/phone", url.PathEscape(orderID))
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &contact); err != nil {
		return nil, err
	}
	return &contact, nil
}

// ListDrivers fetches the active driver roster for delivery allocation.
func (c *Client) ListDrivers(ctx context.Context) ([]Employee, error) {
	q := url.Values{}
	q.Set("employeeCategory", "Driver")

	var resp struct {
		Employees []Employee `json:"employees"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/employees", q, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Employees == nil {
		resp.Employees = []Employee{}
	}
	return resp.Employees, nil
}
