package integration

import (
	"context"
	"time"

	"github.com/invsync/backend/internal/domain/catalog"
	"github.com/invsync/backend/internal/domain/trade"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Paging
// ---------------------------------------------------------------------------

// FetchQuery selects one page of a marketplace listing
type FetchQuery struct {
	// Cursor is a page number or opaque token; empty means the first page
	Cursor string
	// Since is the incremental fetch hint, nil means full fetch
	Since *time.Time
	// PageSize is the requested number of records per page
	PageSize int
}

// PageInfo carries paging hints found in a response envelope
type PageInfo struct {
	NextCursor string
	HasMore    *bool
}

// Page is a raw response body as returned by the marketplace
type Page struct {
	Endpoint string
	Body     []byte
}

// ---------------------------------------------------------------------------
// Client Port
// ---------------------------------------------------------------------------

// MarketplaceClient is the port for authenticated HTTP access to one
// marketplace. Implementations retry transient failures themselves and
// return *TransientAPIError once the retry budget is exhausted.
type MarketplaceClient interface {
	// Type returns the marketplace type this client talks to
	Type() MarketplaceType

	// HealthCheck tries the marketplace's candidate status endpoints in order
	// and returns the path that answered
	HealthCheck(ctx context.Context) (string, error)

	// FetchProducts fetches one page of the product listing
	FetchProducts(ctx context.Context, q FetchQuery) (*Page, error)

	// FetchOrders fetches one page of orders changed since q.Since
	FetchOrders(ctx context.Context, q FetchQuery) (*Page, error)

	// FetchInventory fetches one page of stock levels
	FetchInventory(ctx context.Context, q FetchQuery) (*Page, error)

	// PushInventory sends a quantity correction for a SKU to the marketplace
	PushInventory(ctx context.Context, sku string, quantity int) error

	// NextPage computes the query of the following page. It returns false
	// when the listing is exhausted.
	NextPage(q FetchQuery, info PageInfo, received int) (FetchQuery, bool)
}

// ---------------------------------------------------------------------------
// Canonical Records
// ---------------------------------------------------------------------------

// ProductRecord is a marketplace product mapped to local shape
type ProductRecord struct {
	SKU         string
	Name        string
	Description string
	BasePrice   decimal.Decimal
	CostPrice   decimal.Decimal
	Status      catalog.ProductStatus
}

// OrderItemRecord is a marketplace order line mapped to local shape
type OrderItemRecord struct {
	SKU        string
	Name       string
	Quantity   int
	UnitPrice  decimal.Decimal
	TotalPrice decimal.Decimal
}

// OrderRecord is a marketplace order mapped to local shape
type OrderRecord struct {
	OrderNumber     string
	Status          trade.OrderStatus
	PaymentStatus   trade.PaymentStatus
	TotalAmount     decimal.Decimal
	Customer        trade.Customer
	ShippingAddress trade.Address
	OrderedAt       time.Time
	Items           []OrderItemRecord
}

// InventoryRecord is a marketplace stock level for one SKU
type InventoryRecord struct {
	SKU      string
	Quantity int
	Price    decimal.Decimal
}

// Item is one normalized record or the reason it was rejected
type Item[T any] struct {
	// Ref identifies the record in error messages (sku, order number or position)
	Ref    string
	Record T
	Err    error
}

// Batch is one normalized page
type Batch[T any] struct {
	Items    []Item[T]
	Page     PageInfo
	Strategy string
}

// ---------------------------------------------------------------------------
// Normalizer Port
// ---------------------------------------------------------------------------

// RecordNormalizer maps raw response bodies into canonical records.
// An unrecognised envelope yields *ShapeMismatchError; a malformed record
// yields an Item whose Err is *ItemValidationError.
type RecordNormalizer interface {
	NormalizeProducts(body []byte) (*Batch[ProductRecord], error)
	NormalizeOrders(body []byte) (*Batch[OrderRecord], error)
	NormalizeInventory(body []byte) (*Batch[InventoryRecord], error)
}

// Connection pairs a client with the normalizer configured for its payloads
type Connection struct {
	Client     MarketplaceClient
	Normalizer RecordNormalizer
}

// Connector builds a Connection for a marketplace
type Connector interface {
	Connect(m *Marketplace) (*Connection, error)
}

// ---------------------------------------------------------------------------
// Sync Lock Port
// ---------------------------------------------------------------------------

// SyncLock serialises sync runs per marketplace
type SyncLock interface {
	// TryAcquire takes the lock without waiting. It returns the owner token
	// and false when another holder owns the key.
	TryAcquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error)

	// Release frees the lock if token still owns it
	Release(ctx context.Context, key, token string) error
}
