package trade

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/invsync/backend/internal/domain/shared"
)

// OrderStatus is the local order lifecycle vocabulary
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusReturned   OrderStatus = "returned"
)

// PaymentStatus is the local payment vocabulary
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusRefunded PaymentStatus = "refunded"
	PaymentStatusFailed   PaymentStatus = "failed"
)

// Customer holds buyer contact details copied from the marketplace
type Customer struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// Address is a shipping address copied from the marketplace
type Address struct {
	Name       string `json:"name,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Line1      string `json:"line1,omitempty"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country,omitempty"`
}

// IsEmpty reports whether no address field is set
func (a Address) IsEmpty() bool {
	return a == Address{}
}

// Order is a marketplace order imported into the local store.
// Orders are created once per (marketplace, order number) and never re-created.
type Order struct {
	shared.BaseEntity
	MarketplaceID   uuid.UUID
	OrderNumber     string
	Status          OrderStatus
	PaymentStatus   PaymentStatus
	TotalAmount     decimal.Decimal
	Customer        Customer
	ShippingAddress Address
	OrderedAt       time.Time
	Items           []OrderItem
}

// OrderItem is an immutable order line
type OrderItem struct {
	ID         uuid.UUID
	OrderID    uuid.UUID
	ProductID  *uuid.UUID
	SKU        string
	Name       string
	Quantity   int
	UnitPrice  decimal.Decimal
	TotalPrice decimal.Decimal
}

// NewOrder creates an order for a marketplace
func NewOrder(marketplaceID uuid.UUID, orderNumber string) (*Order, error) {
	orderNumber = strings.TrimSpace(orderNumber)
	if marketplaceID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_MARKETPLACE", "Marketplace ID cannot be empty")
	}
	if orderNumber == "" {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot be empty")
	}

	now := time.Now().UTC()
	return &Order{
		BaseEntity:    shared.NewBaseEntity(),
		MarketplaceID: marketplaceID,
		OrderNumber:   orderNumber,
		Status:        OrderStatusPending,
		PaymentStatus: PaymentStatusPending,
		TotalAmount:   decimal.Zero,
		OrderedAt:     now,
		Items:         make([]OrderItem, 0),
	}, nil
}

// AddItem appends an order line. The total price is derived when not given.
func (o *Order) AddItem(productID *uuid.UUID, sku, name string, quantity int, unitPrice, totalPrice decimal.Decimal) error {
	if strings.TrimSpace(sku) == "" {
		return shared.NewDomainError("INVALID_SKU", "Order item SKU cannot be empty")
	}
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Order item quantity must be positive")
	}
	if totalPrice.IsZero() {
		totalPrice = unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
	}

	o.Items = append(o.Items, OrderItem{
		ID:         uuid.New(),
		OrderID:    o.ID,
		ProductID:  productID,
		SKU:        sku,
		Name:       name,
		Quantity:   quantity,
		UnitPrice:  unitPrice,
		TotalPrice: totalPrice,
	})
	return nil
}

// ItemsTotal sums the line totals
func (o *Order) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.TotalPrice)
	}
	return total
}
