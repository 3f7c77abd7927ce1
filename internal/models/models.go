package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	RoleAdmin   = "admin"
	RoleCashier = "cashier"
)

// Activity types written to the audit trail
const (
	ActivitySale          = "sale"
	ActivityStockUpdate   = "stock_update"
	ActivityProductCreate = "product_create"
	ActivityProductUpdate = "product_update"
	ActivityProductDelete = "product_delete"
)

// TransactionCounter is the well-known counter row behind transaction numbers.
const TransactionCounter = "transactions"

// User - The person logged into a terminal
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;size:50" json:"username"`
	PasswordHash string    `json:"-"`    // Never return this in JSON
	Role         string    `json:"role"` // 'admin', 'cashier'
	CreatedAt    time.Time `json:"created_at"`
}

// Product - The Inventory
type Product struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	Name              string          `gorm:"size:200;not null" json:"name"`
	Barcode           string          `gorm:"uniqueIndex;size:64;not null" json:"barcode"`
	Price             decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	PurchasePrice     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"purchase_price"`
	Stock             int             `gorm:"not null;default:0" json:"stock"`
	SoldCount         int             `gorm:"not null;default:0" json:"sold_count"`
	Supplier          string          `gorm:"size:120" json:"supplier"`
	Category          string          `gorm:"size:80;index" json:"category"`
	ImageURL          string          `json:"image_url"`
	LowStockThreshold int             `json:"low_stock_threshold"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// TransactionRecord - The Sale Header, immutable once written
type TransactionRecord struct {
	ID            uint              `gorm:"primaryKey" json:"id"`
	Number        string            `gorm:"uniqueIndex;size:32;not null" json:"number"`
	CashierID     uint              `gorm:"index" json:"cashier_id"`
	CashierName   string            `json:"cashier_name"`
	Total         decimal.Decimal   `gorm:"type:decimal(12,2);not null" json:"total"`
	PaymentMethod string            `gorm:"size:20" json:"payment_method"` // 'cash', 'card', 'qris', ...
	CashAmount    decimal.Decimal   `gorm:"type:decimal(12,2)" json:"cash_amount"`
	ChangeAmount  decimal.Decimal   `gorm:"type:decimal(12,2)" json:"change_amount"`
	TerminalID    string            `gorm:"size:32" json:"terminal_id"`
	CreatedAt     time.Time         `gorm:"index" json:"created_at"`
	Items         []TransactionItem `gorm:"foreignKey:TransactionID" json:"items"`
}

// TransactionItem - One line of a sale
type TransactionItem struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	TransactionID uint            `gorm:"index" json:"transaction_id"`
	ProductID     uint            `gorm:"index" json:"product_id"`
	Name          string          `json:"name"`
	Quantity      int             `json:"quantity"`
	Price         decimal.Decimal `gorm:"type:decimal(12,2)" json:"price"` // Snapshot of price at time of sale
	Subtotal      decimal.Decimal `gorm:"type:decimal(12,2)" json:"subtotal"`
}

// Counter - A named monotonically increasing sequence
type Counter struct {
	Name  string `gorm:"primaryKey;size:40" json:"name"`
	Count int64  `gorm:"not null;default:0" json:"count"`
}

// ActivityLog - Append-only audit trail
type ActivityLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Type      string    `gorm:"size:30;index" json:"type"`
	Message   string    `gorm:"type:text" json:"message"`
	ActorID   uint      `json:"actor_id"`
	ActorName string    `json:"actor_name"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// IsLowStock reports whether the product is at or under its threshold.
// A zero threshold falls back to the store-wide default.
func (p Product) IsLowStock(defaultThreshold int) bool {
	threshold := p.LowStockThreshold
	if threshold <= 0 {
		threshold = defaultThreshold
	}
	return p.Stock <= threshold
}
