package store

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/orderdesk/admin-api/internal/status"
)

// Order is the central back-office record. The public key is OrderID
// (the upstream "ORD-…" string); the row ID is internal only.
type Order struct {
	ID             uuid.UUID
	OrderID        string
	Status         status.Status
	Customer       string
	PhoneNumber    string
	Email          pgtype.Text
	DeliveryMode   string
	TotalAmount    pgtype.Numeric
	DeliveryCharge pgtype.Numeric
	Discount       pgtype.Numeric

	// Logistics fields, set by transitions.
	TimeSlot        pgtype.Text
	Driver1         pgtype.Text
	Driver2         pgtype.Text
	PickupType      pgtype.Text
	TruckOnDeliver  pgtype.Bool
	PickupStatus    pgtype.Text
	PickupAllocated bool
	AllocatedAt     pgtype.Timestamptz

	// Payment verification fields.
	AccountHolderName  pgtype.Text
	PaidBankName       pgtype.Text
	TransactionID      pgtype.Text
	ReceiptImage       []byte
	ReceiptContentType pgtype.Text

	AdminReason pgtype.Text
	Complaints  []byte // JSONB, appended upstream, read-only here

	OrderDate time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

type OrderItem struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	ProductName string
	Quantity    int32
	Price       pgtype.Numeric
	TotalPrice  pgtype.Numeric
	Weight      pgtype.Numeric
}

// Complaint is the shape of one entry in the order's complaints JSONB.
type Complaint struct {
	ComplaintID string    `json:"complaintId"`
	IssueTypes  []string  `json:"issueTypes"`
	Status      string    `json:"status"`
	ReportedBy  string    `json:"reportedBy"`
	ReportedAt  time.Time `json:"reportedAt"`
}

type Employee struct {
	ID               uuid.UUID
	FullName         string
	PhoneNumber      string
	EmployeeCategory string
	Active           bool
	CreatedAt        time.Time
}

type User struct {
	ID             uuid.UUID
	Username       string
	FullName       string
	HashedPassword string
	Role           string
	TOTPSecret     pgtype.Text
	CreatedAt      time.Time
}
