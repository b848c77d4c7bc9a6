package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/orderdesk/admin-api/internal/status"
	"github.com/orderdesk/admin-api/internal/store"
)

// OrderStore defines the database methods needed by order handlers.
// Satisfied by *store.Store; narrow interface for testability.
type OrderStore interface {
	ListOrders(ctx context.Context, arg store.ListOrdersParams) ([]store.Order, error)
	CountOrders(ctx context.Context, arg store.ListOrdersParams) (int64, error)
	GetOrderByPublicID(ctx context.Context, orderID string) (store.Order, error)
	ListOrderItems(ctx context.Context, orderID uuid.UUID) ([]store.OrderItem, error)
	UpdateOrderStatus(ctx context.Context, arg store.UpdateOrderStatusParams) (store.Order, error)
	UpdatePickupStatus(ctx context.Context, orderID, pickupStatus string) (store.Order, error)
	AllocatePickup(ctx context.Context, orderID string) (store.Order, error)
	GetOrderContact(ctx context.Context, orderID string) (phoneNumber, name string, err error)
}

// Broadcaster pushes order events to connected dashboards.
// Satisfied by *ws.Hub.
type Broadcaster interface {
	Broadcast(eventType string, payload interface{})
}

// OrderHandler handles order endpoints.
type OrderHandler struct {
	store  OrderStore
	events Broadcaster
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(store OrderStore, events Broadcaster) *OrderHandler {
	return &OrderHandler{store: store, events: events}
}

// RegisterRoutes registers order endpoints on the given Chi router.
// Expected to be mounted at /api/orders.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{orderId}", h.Get)
	r.Get("/{orderId}/phone", h.Phone)
	r.Put("/{orderId}/status", h.UpdateStatus)
	r.Put("/{orderId}/pickup-status", h.UpdatePickupStatus)
	r.Put("/{orderId}/allocate", h.Allocate)
}

// --- Request / Response types ---

type updateStatusRequest struct {
	Status         string `json:"status" validate:"required"`
	Reason         string `json:"reason"`
	TimeSlot       string `json:"timeSlot"`
	Driver1        string `json:"driver1"`
	Driver2        string `json:"driver2"`
	PickupType     string `json:"pickupType"`
	TruckOnDeliver *bool  `json:"truckOnDeliver"`
}

type updatePickupStatusRequest struct {
	PickupStatus string `json:"pickupStatus" validate:"required"`
}

type orderResponse struct {
	OrderID         string     `json:"orderId"`
	Status          string     `json:"status"`
	StatusLabel     string     `json:"statusLabel"`
	StatusColor     string     `json:"statusColor"`
	Customer        string     `json:"customer"`
	PhoneNumber     string     `json:"phoneNumber"`
	Email           *string    `json:"email"`
	DeliveryType    string     `json:"deliveryType"`
	TotalAmount     string     `json:"totalAmount"`
	DeliveryCharge  string     `json:"deliveryCharge"`
	Discount        string     `json:"discount"`
	TimeSlot        *string    `json:"timeSlot"`
	Driver1         *string    `json:"driver1"`
	Driver2         *string    `json:"driver2"`
	PickupType      *string    `json:"pickupType"`
	TruckOnDeliver  *bool      `json:"truckOnDeliver"`
	PickupStatus    *string    `json:"pickupStatus"`
	PickupAllocated bool       `json:"pickupAllocated"`
	AllocatedAt     *time.Time `json:"allocatedAt"`
	AdminReason     *string    `json:"adminReason"`
	OrderDate       time.Time  `json:"orderDate"`

	// Payment verification attributes; receiptImage is base64 in JSON.
	AccountHolderName  *string `json:"accountHolderName"`
	PaidBankName       *string `json:"paidBankName"`
	TransactionID      *string `json:"transactionId"`
	ReceiptImage       []byte  `json:"receiptImage,omitempty"`
	ReceiptContentType *string `json:"receiptContentType"`

	Complaints []store.Complaint   `json:"complaints,omitempty"`
	Items      []orderItemResponse `json:"items,omitempty"`
}

type orderItemResponse struct {
	ProductName string  `json:"productName"`
	Quantity    int32   `json:"quantity"`
	Price       string  `json:"price"`
	TotalPrice  string  `json:"totalPrice"`
	Weight      *string `json:"weight,omitempty"`
}

type orderListResponse struct {
	Orders []orderResponse `json:"orders"`
	Total  int64           `json:"total"`
	Page   int             `json:"page"`
	Limit  int             `json:"limit"`
}

type phoneResponse struct {
	PhoneNumber string `json:"phoneNumber"`
	Name        string `json:"name"`
}

// --- Handlers ---

// List handles GET /api/orders.
// Pagination is 1-indexed; status accepts a comma-joined set of keys.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if s := r.URL.Query().Get("limit"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > 100 {
		limit = 100
	}

	page := 1
	if s := r.URL.Query().Get("page"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			page = v
		}
	}

	params := store.ListOrdersParams{
		DeliveryType: r.URL.Query().Get("deliveryType"),
		Search:       r.URL.Query().Get("search"),
		Limit:        int32(limit),
		Offset:       int32((page - 1) * limit),
	}

	if s := r.URL.Query().Get("status"); s != "" {
		for _, key := range strings.Split(s, ",") {
			if key = strings.TrimSpace(key); key != "" {
				params.Statuses = append(params.Statuses, key)
			}
		}
	}
	if s := r.URL.Query().Get("startDate"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid startDate format, use YYYY-MM-DD"})
			return
		}
		params.StartDate = pgtype.Timestamptz{Time: t, Valid: true}
	}
	if s := r.URL.Query().Get("endDate"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid endDate format, use YYYY-MM-DD"})
			return
		}
		// Inclusive end of day.
		params.EndDate = pgtype.Timestamptz{Time: t.Add(24*time.Hour - time.Nanosecond), Valid: true}
	}

	orders, err := h.store.ListOrders(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: list orders: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	total, err := h.store.CountOrders(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: count orders: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]orderResponse, len(orders))
	for i, o := range orders {
		resp[i] = toOrderResponse(o)
	}

	writeJSON(w, http.StatusOK, orderListResponse{
		Orders: resp,
		Total:  total,
		Page:   page,
		Limit:  limit,
	})
}

// Get handles GET /api/orders/{orderId}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")

	order, err := h.store.GetOrderByPublicID(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Printf("ERROR: get order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	items, err := h.store.ListOrderItems(r.Context(), order.ID)
	if err != nil {
		log.Printf("ERROR: list order items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := toOrderResponse(order)
	resp.Items = make([]orderItemResponse, len(items))
	for i, it := range items {
		resp.Items[i] = toOrderItemResponse(it)
	}

	writeJSON(w, http.StatusOK, resp)
}

// Phone handles GET /api/orders/{orderId}/phone.
func (h *OrderHandler) Phone(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")

	phone, name, err := h.store.GetOrderContact(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Printf("ERROR: get order contact: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, phoneResponse{PhoneNumber: phone, Name: name})
}

// UpdateStatus handles PUT /api/orders/{orderId}/status.
// The update is a compare-and-swap against the status we just read, so a
// concurrent transition surfaces as 409 instead of silently overwriting.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if err := validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "status is required"})
		return
	}

	newStatus := status.Status(req.Status)
	if !status.Known(newStatus) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
		return
	}

	current, err := h.store.GetOrderByPublicID(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Printf("ERROR: get order for status update: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	// Terminal orders never re-open through this endpoint.
	if status.IsTerminal(current.Status) && newStatus != current.Status {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "order is closed"})
		return
	}

	updated, err := h.store.UpdateOrderStatus(r.Context(), store.UpdateOrderStatusParams{
		OrderID:        orderID,
		NewStatus:      string(newStatus),
		CurrentStatus:  string(current.Status),
		Reason:         textFrom(req.Reason),
		TimeSlot:       textFrom(req.TimeSlot),
		Driver1:        textFrom(req.Driver1),
		Driver2:        textFrom(req.Driver2),
		PickupType:     textFrom(req.PickupType),
		TruckOnDeliver: boolFrom(req.TruckOnDeliver),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// The status changed between our read and write.
			writeJSON(w, http.StatusConflict, map[string]string{"error": "order status changed, please retry"})
			return
		}
		log.Printf("ERROR: update order status: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	h.events.Broadcast("order.updated", map[string]string{
		"orderId": updated.OrderID,
		"status":  string(updated.Status),
	})

	writeJSON(w, http.StatusOK, toOrderResponse(updated))
}

// UpdatePickupStatus handles PUT /api/orders/{orderId}/pickup-status.
// pickupStatus is a separate dimension from the main status and only
// applies to self-pickup orders.
func (h *OrderHandler) UpdatePickupStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")

	var req updatePickupStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if err := validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "pickupStatus is required"})
		return
	}

	if !status.IsPickupSubStatus(status.Status(req.PickupStatus)) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid pickupStatus"})
		return
	}

	updated, err := h.store.UpdatePickupStatus(r.Context(), orderID, req.PickupStatus)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			h.explainPickupFailure(w, r, orderID)
			return
		}
		log.Printf("ERROR: update pickup status: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	h.events.Broadcast("order.pickup_status", map[string]string{
		"orderId":      updated.OrderID,
		"pickupStatus": req.PickupStatus,
	})

	writeJSON(w, http.StatusOK, toOrderResponse(updated))
}

// Allocate handles PUT /api/orders/{orderId}/allocate.
// Marks a self-pickup order as reserved for the counter.
func (h *OrderHandler) Allocate(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")

	updated, err := h.store.AllocatePickup(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// No rows updated: missing, wrong mode, or already allocated.
			current, fetchErr := h.store.GetOrderByPublicID(r.Context(), orderID)
			if fetchErr != nil {
				if errors.Is(fetchErr, pgx.ErrNoRows) {
					writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
					return
				}
				log.Printf("ERROR: get order for allocate: %v", fetchErr)
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
				return
			}
			if current.DeliveryMode != string(status.ModePickup) {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "not a self-pickup order"})
				return
			}
			writeJSON(w, http.StatusConflict, map[string]string{"error": "order is already allocated"})
			return
		}
		log.Printf("ERROR: allocate pickup: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	h.events.Broadcast("order.allocated", map[string]string{"orderId": updated.OrderID})

	writeJSON(w, http.StatusOK, toOrderResponse(updated))
}

// --- Helpers ---

// explainPickupFailure turns a no-rows pickup-status update into a precise
// client error: missing order vs. an order that isn't self-pickup.
func (h *OrderHandler) explainPickupFailure(w http.ResponseWriter, r *http.Request, orderID string) {
	current, err := h.store.GetOrderByPublicID(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Printf("ERROR: get order for pickup status: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	if current.DeliveryMode != string(status.ModePickup) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "not a self-pickup order"})
		return
	}
	writeJSON(w, http.StatusConflict, map[string]string{"error": "pickup status could not be updated"})
}

func boolFrom(b *bool) pgtype.Bool {
	if b == nil {
		return pgtype.Bool{}
	}
	return pgtype.Bool{Bool: *b, Valid: true}
}

func toOrderResponse(o store.Order) orderResponse {
	info := status.Describe(o.Status)
	resp := orderResponse{
		OrderID:            o.OrderID,
		Status:             string(o.Status),
		StatusLabel:        info.Label,
		StatusColor:        info.Color,
		Customer:           o.Customer,
		PhoneNumber:        o.PhoneNumber,
		Email:              textPtr(o.Email),
		DeliveryType:       o.DeliveryMode,
		TotalAmount:        numericToString(o.TotalAmount),
		DeliveryCharge:     numericToString(o.DeliveryCharge),
		Discount:           numericToString(o.Discount),
		TimeSlot:           textPtr(o.TimeSlot),
		Driver1:            textPtr(o.Driver1),
		Driver2:            textPtr(o.Driver2),
		PickupType:         textPtr(o.PickupType),
		PickupStatus:       textPtr(o.PickupStatus),
		PickupAllocated:    o.PickupAllocated,
		AdminReason:        textPtr(o.AdminReason),
		OrderDate:          o.OrderDate,
		AccountHolderName:  textPtr(o.AccountHolderName),
		PaidBankName:       textPtr(o.PaidBankName),
		TransactionID:      textPtr(o.TransactionID),
		ReceiptImage:       o.ReceiptImage,
		ReceiptContentType: textPtr(o.ReceiptContentType),
	}

	if o.TruckOnDeliver.Valid {
		resp.TruckOnDeliver = &o.TruckOnDeliver.Bool
	}
	if o.AllocatedAt.Valid {
		resp.AllocatedAt = &o.AllocatedAt.Time
	}
	if len(o.Complaints) > 0 {
		var complaints []store.Complaint
		if err := json.Unmarshal(o.Complaints, &complaints); err != nil {
			log.Printf("ERROR: unmarshal complaints for %s: %v", o.OrderID, err)
		} else {
			resp.Complaints = complaints
		}
	}

	return resp
}

func toOrderItemResponse(it store.OrderItem) orderItemResponse {
	resp := orderItemResponse{
		ProductName: it.ProductName,
		Quantity:    it.Quantity,
		Price:       numericToString(it.Price),
		TotalPrice:  numericToString(it.TotalPrice),
	}
	if it.Weight.Valid {
		s := numericToString(it.Weight)
		resp.Weight = &s
	}
	return resp
}
