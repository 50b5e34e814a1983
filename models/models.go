package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order lifecycle statuses.
const (
	StatusPending    = "pending"
	StatusConfirmed  = "confirmed"
	StatusProcessing = "processing"
	StatusShipped    = "shipped"
	StatusDelivered  = "delivered"
	StatusCancelled  = "cancelled"
)

// Payment statuses.
const (
	PaymentPending = "pending"
	PaymentPaid    = "paid"
)

// RealizedStatuses are the order statuses that count as realized demand.
// Pending and cancelled orders are excluded from aggregation.
var RealizedStatuses = []string{StatusConfirmed, StatusProcessing, StatusShipped, StatusDelivered}

// Stock movement types. Quantity is signed: positive for "in", negative for "out".
const (
	MovementIn  = "in"
	MovementOut = "out"
)

// Medicine holds the product record and its current stock snapshot.
type Medicine struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:200" json:"name"`
	CurrentStock int       `json:"current_stock"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Order is one customer order created by a sales representative.
type Order struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	OrderNumber     string          `gorm:"size:30;uniqueIndex" json:"order_number"`
	CustomerName    string          `gorm:"size:100" json:"customer_name"`
	CustomerPhone   string          `gorm:"size:20" json:"customer_phone"`
	CustomerAddress string          `gorm:"size:200" json:"customer_address"`
	Status          string          `gorm:"size:20;index" json:"status"`
	PaymentStatus   string          `gorm:"size:20" json:"payment_status"`
	Subtotal        decimal.Decimal `gorm:"type:decimal(10,2)" json:"subtotal"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(10,2)" json:"total_amount"`
	CreatedAt       time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// OrderItem is one medicine line within an order.
type OrderItem struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	OrderID    uint            `gorm:"index" json:"order_id"`
	MedicineID uint            `gorm:"index:idx_order_items_medicine" json:"medicine_id"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `gorm:"type:decimal(10,2)" json:"unit_price"`
	TotalPrice decimal.Decimal `gorm:"type:decimal(10,2)" json:"total_price"`
	CreatedAt  time.Time       `json:"created_at"`
}

// OrderStatusHistory records one status transition of an order. Append-only.
type OrderStatusHistory struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	OrderID          uint      `gorm:"index" json:"order_id"`
	OldStatus        string    `gorm:"size:20" json:"old_status"`
	NewStatus        string    `gorm:"size:20" json:"new_status"`
	OldPaymentStatus string    `gorm:"size:20" json:"old_payment_status"`
	NewPaymentStatus string    `gorm:"size:20" json:"new_payment_status"`
	Notes            string    `gorm:"size:200" json:"notes"`
	ChangedAt        time.Time `json:"changed_at"`
}

// StockMovement is one signed stock delta in the append-only ledger.
// Reorders reference "REORDER-YYYYMMDD", sales reference the order number.
type StockMovement struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	MedicineID   uint      `gorm:"index:idx_stock_movements_medicine" json:"medicine_id"`
	MovementType string    `gorm:"size:10" json:"movement_type"`
	Quantity     int       `json:"quantity"`
	Reference    string    `gorm:"size:30" json:"reference"`
	Notes        string    `gorm:"size:200" json:"notes"`
	CreatedAt    time.Time `json:"created_at"`
}

// DemandRecord is one realized demand observation returned by the store's
// demand query. It is a transient projection over order items joined with
// their orders and is never persisted.
type DemandRecord struct {
	Timestamp time.Time `gorm:"column:timestamp" json:"timestamp"`
	Quantity  int       `gorm:"column:quantity" json:"quantity"`
	Status    string    `gorm:"column:status" json:"status"`
}
