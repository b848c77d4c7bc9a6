package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const orderColumns = `id, order_id, status, customer, phone_number, email, delivery_mode,
	total_amount, delivery_charge, discount,
	time_slot, driver1, driver2, pickup_type, truck_on_deliver,
	pickup_status, pickup_allocated, allocated_at,
	account_holder_name, paid_bank_name, transaction_id, receipt_image, receipt_content_type,
	admin_reason, complaints, order_date, created_at, updated_at`

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	err := row.Scan(
		&o.ID, &o.OrderID, &o.Status, &o.Customer, &o.PhoneNumber, &o.Email, &o.DeliveryMode,
		&o.TotalAmount, &o.DeliveryCharge, &o.Discount,
		&o.TimeSlot, &o.Driver1, &o.Driver2, &o.PickupType, &o.TruckOnDeliver,
		&o.PickupStatus, &o.PickupAllocated, &o.AllocatedAt,
		&o.AccountHolderName, &o.PaidBankName, &o.TransactionID, &o.ReceiptImage, &o.ReceiptContentType,
		&o.AdminReason, &o.Complaints, &o.OrderDate, &o.CreatedAt, &o.UpdatedAt,
	)
	return o, err
}

// ListOrdersParams is the filter spec for the order listing. Empty fields
// are not applied; Statuses empty means no status filter.
type ListOrdersParams struct {
	Statuses     []string
	DeliveryType string
	Search       string
	StartDate    pgtype.Timestamptz
	EndDate      pgtype.Timestamptz
	Limit        int32
	Offset       int32
}

// buildOrderFilter renders the WHERE clause shared by ListOrders and
// CountOrders so the page and the total can never disagree on the filter.
func buildOrderFilter(arg ListOrdersParams) (string, []interface{}) {
	var clauses []string
	var args []interface{}

	if len(arg.Statuses) > 0 {
		args = append(args, arg.Statuses)
		clauses = append(clauses, fmt.Sprintf("status = ANY($%d)", len(args)))
	}
	if arg.DeliveryType != "" {
		args = append(args, arg.DeliveryType)
		clauses = append(clauses, fmt.Sprintf("delivery_mode = $%d", len(args)))
	}
	if arg.Search != "" {
		args = append(args, "%"+arg.Search+"%")
		n := len(args)
		clauses = append(clauses, fmt.Sprintf("(order_id ILIKE $%d OR customer ILIKE $%d OR phone_number ILIKE $%d)", n, n, n))
	}
	if arg.StartDate.Valid {
		args = append(args, arg.StartDate)
		clauses = append(clauses, fmt.Sprintf("order_date >= $%d", len(args)))
	}
	if arg.EndDate.Valid {
		args = append(args, arg.EndDate)
		clauses = append(clauses, fmt.Sprintf("order_date <= $%d", len(args)))
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// ListOrders returns one page of orders matching the filter, newest first.
// The sort includes order_id as a tiebreak so pagination is stable.
func (s *Store) ListOrders(ctx context.Context, arg ListOrdersParams) ([]Order, error) {
	where, args := buildOrderFilter(arg)

	args = append(args, arg.Limit)
	limitPos := len(args)
	args = append(args, arg.Offset)
	offsetPos := len(args)

	sql := "SELECT " + orderColumns + " FROM orders" + where +
		fmt.Sprintf(" ORDER BY order_date DESC, order_id DESC LIMIT $%d OFFSET $%d", limitPos, offsetPos)

	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// CountOrders returns the total matching the same filter, for pagination.
func (s *Store) CountOrders(ctx context.Context, arg ListOrdersParams) (int64, error) {
	where, args := buildOrderFilter(arg)
	var total int64
	err := s.db.QueryRow(ctx, "SELECT COUNT(*) FROM orders"+where, args...).Scan(&total)
	return total, err
}

// GetOrderByPublicID fetches one order by its public "ORD-…" key.
func (s *Store) GetOrderByPublicID(ctx context.Context, orderID string) (Order, error) {
	sql := "SELECT " + orderColumns + " FROM orders WHERE order_id = $1"
	return scanOrder(s.db.QueryRow(ctx, sql, orderID))
}

// ListOrderItems returns the line items of an order in insertion order.
func (s *Store) ListOrderItems(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error) {
	sql := `SELECT id, order_id, product_name, quantity, price, total_price, weight
		FROM order_items WHERE order_id = $1 ORDER BY id`
	rows, err := s.db.Query(ctx, sql, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductName, &it.Quantity, &it.Price, &it.TotalPrice, &it.Weight); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// UpdateOrderStatusParams carries a guarded status mutation. CurrentStatus
// is the status the caller read; the UPDATE only applies if it still holds,
// so a concurrent transition surfaces as pgx.ErrNoRows.
type UpdateOrderStatusParams struct {
	OrderID        string
	NewStatus      string
	CurrentStatus  string
	Reason         pgtype.Text
	TimeSlot       pgtype.Text
	Driver1        pgtype.Text
	Driver2        pgtype.Text
	PickupType     pgtype.Text
	TruckOnDeliver pgtype.Bool
}

// UpdateOrderStatus performs the compare-and-swap status transition and
// applies any auxiliary context fields carried with it. Unset context
// fields leave the stored values untouched.
func (s *Store) UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) (Order, error) {
	sql := `UPDATE orders SET
			status = $1,
			admin_reason = COALESCE($2, admin_reason),
			time_slot = COALESCE($3, time_slot),
			driver1 = COALESCE($4, driver1),
			driver2 = COALESCE($5, driver2),
			pickup_type = COALESCE($6, pickup_type),
			truck_on_deliver = COALESCE($7, truck_on_deliver),
			updated_at = NOW()
		WHERE order_id = $8 AND status = $9
		RETURNING ` + orderColumns
	return scanOrder(s.db.QueryRow(ctx, sql,
		arg.NewStatus, arg.Reason, arg.TimeSlot, arg.Driver1, arg.Driver2,
		arg.PickupType, arg.TruckOnDeliver, arg.OrderID, arg.CurrentStatus))
}

// UpdatePickupStatus sets the pickup sub-status. Moving to picked-up also
// releases the allocation flag, which is how the order leaves the
// "allocated" working set.
func (s *Store) UpdatePickupStatus(ctx context.Context, orderID, pickupStatus string) (Order, error) {
	sql := `UPDATE orders SET
			pickup_status = $1,
			pickup_allocated = CASE WHEN $1 = 'order-pickuped-up' THEN FALSE ELSE pickup_allocated END,
			updated_at = NOW()
		WHERE order_id = $2 AND delivery_mode = 'self-pickup'
		RETURNING ` + orderColumns
	return scanOrder(s.db.QueryRow(ctx, sql, pickupStatus, orderID))
}

// AllocatePickup marks a self-pickup order as reserved for the counter.
// Only unallocated orders match, so a double allocate returns ErrNoRows.
func (s *Store) AllocatePickup(ctx context.Context, orderID string) (Order, error) {
	sql := `UPDATE orders SET
			pickup_allocated = TRUE,
			allocated_at = NOW(),
			updated_at = NOW()
		WHERE order_id = $1 AND delivery_mode = 'self-pickup' AND pickup_allocated = FALSE
		RETURNING ` + orderColumns
	return scanOrder(s.db.QueryRow(ctx, sql, orderID))
}

// GetOrderContact returns just the phone number and customer name, for the
// call-customer affordance on the logistics screens.
func (s *Store) GetOrderContact(ctx context.Context, orderID string) (phoneNumber, name string, err error) {
	err = s.db.QueryRow(ctx, "SELECT phone_number, customer FROM orders WHERE order_id = $1", orderID).
		Scan(&phoneNumber, &name)
	return phoneNumber, name, err
}
