package ecommerce

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/invsync/backend/internal/domain/catalog"
	"github.com/invsync/backend/internal/domain/integration"
	"github.com/invsync/backend/internal/domain/trade"
)

// ErrMarketplaceResponse indicates a 2xx response whose body reports an error
var ErrMarketplaceResponse = errors.New("ecommerce: marketplace returned an error response")

// Field name fallbacks, tried in order
var (
	productNameKeys  = []string{"title", "name", "productName", "product_name"}
	productSKUKeys   = []string{"sku", "seller_sku", "sellerSku", "outer_id", "skuId", "sku_id"}
	productPriceKeys = []string{"price", "mrp", "sellingPrice", "selling_price", "sale_price", "discount_price"}
	productCostKeys  = []string{"cost", "costPrice", "cost_price", "purchase_price"}
	productDescKeys  = []string{"description", "desc", "summary"}
	recordIDKeys     = []string{"id", "product_id", "productId", "num_iid", "item_id"}
	statusKeys       = []string{"status", "approve_status", "state"}

	orderNumberKeys   = []string{"order_number", "orderNumber", "order_id", "orderId", "tid", "id"}
	orderStatusKeys   = []string{"status", "order_status", "orderStatus", "state"}
	paymentStatusKeys = []string{"payment_status", "paymentStatus", "pay_status", "financial_status"}
	orderTotalKeys    = []string{"total_amount", "totalAmount", "total", "payment", "pay_amount", "order_amount"}
	orderedAtKeys     = []string{"ordered_at", "orderedAt", "created_at", "createdAt", "created", "create_time", "order_date"}
	orderItemsKeys    = []string{"items", "line_items", "lineItems", "order_items", "sku_order_list", "orders"}
	itemSKUKeys       = []string{"sku", "seller_sku", "outer_sku_id", "sku_id", "code"}
	itemNameKeys      = []string{"name", "title", "product_name", "productName"}
	itemQtyKeys       = []string{"quantity", "qty", "num", "item_num"}
	itemPriceKeys     = []string{"unit_price", "unitPrice", "price"}
	itemTotalKeys     = []string{"total_price", "totalPrice", "total", "total_fee"}

	variantKeys      = []string{"variants", "skus", "sku_list"}
	stockSKUKeys     = []string{"sku", "code", "outer_sku_id", "seller_sku", "sku_id"}
	stockQtyKeys     = []string{"quantity", "stock_num", "stock", "qty", "available", "inventory_quantity"}
	nextCursorKeys   = []string{"next_cursor", "nextCursor", "next_page_token", "cursor"}
	hasMoreKeys      = []string{"has_more", "has_next", "hasMore", "hasNext"}
	errorCodeKeys    = []string{"err_no", "error_code"}
	errorMessageKeys = []string{"message", "msg", "error_msg", "err_msg"}
)

// envelopeStrategy is one attempt at locating the record list in a response
type envelopeStrategy struct {
	name    string
	extract func(doc any) ([]any, bool)
}

// keyStrategy finds a record array under a dotted path of an object envelope
func keyStrategy(path string) envelopeStrategy {
	return envelopeStrategy{
		name: path,
		extract: func(doc any) ([]any, bool) {
			obj, ok := doc.(map[string]any)
			if !ok {
				return nil, false
			}
			v, ok := rawRecord(obj).lookup(path)
			if !ok {
				return nil, false
			}
			arr, ok := v.([]any)
			return arr, ok
		},
	}
}

// bareArrayStrategy accepts a response that is itself the record array
var bareArrayStrategy = envelopeStrategy{
	name: "array",
	extract: func(doc any) ([]any, bool) {
		arr, ok := doc.([]any)
		return arr, ok
	},
}

func strategies(paths ...string) []envelopeStrategy {
	out := make([]envelopeStrategy, 0, len(paths)+1)
	for _, p := range paths {
		out = append(out, keyStrategy(p))
	}
	return append(out, bareArrayStrategy)
}

var (
	productEnvelopes = strategies("products", "data", "items",
		"data.list", "data.products", "data.items", "result.list")
	orderEnvelopes = strategies("orders", "data", "items",
		"data.list", "data.orders", "data.items", "result.list")
	inventoryEnvelopes = strategies("inventory", "products", "data", "items",
		"data.list", "data.inventory", "data.products", "data.items", "result.list")
)

// NormalizerOptions carries per-marketplace payload quirks
type NormalizerOptions struct {
	// PriceDivisor converts reported amounts to currency units, e.g. 100 for cents
	PriceDivisor    decimal.Decimal
	ProductStatuses map[string]catalog.ProductStatus
	OrderStatuses   map[string]trade.OrderStatus
}

// Normalizer maps raw marketplace payloads into canonical records
type Normalizer struct {
	priceDivisor    decimal.Decimal
	productStatuses map[string]catalog.ProductStatus
	orderStatuses   map[string]trade.OrderStatus
	now             func() time.Time
}

// NewNormalizer creates a normalizer with the base lookup tables overlaid by opts
func NewNormalizer(opts NormalizerOptions) *Normalizer {
	divisor := opts.PriceDivisor
	if !divisor.IsPositive() {
		divisor = decimal.NewFromInt(1)
	}
	return &Normalizer{
		priceDivisor:    divisor,
		productStatuses: mergeTables(productStatusTable, opts.ProductStatuses),
		orderStatuses:   mergeTables(orderStatusTable, opts.OrderStatuses),
		now:             time.Now,
	}
}

// NormalizeProducts maps a product listing page
func (n *Normalizer) NormalizeProducts(body []byte) (*integration.Batch[integration.ProductRecord], error) {
	records, page, strategy, err := n.envelope("products", body, productEnvelopes)
	if err != nil {
		return nil, err
	}

	batch := &integration.Batch[integration.ProductRecord]{Page: page, Strategy: strategy}
	for i, rec := range records {
		item := integration.Item[integration.ProductRecord]{Ref: recordRef(rec, i, productSKUKeys, recordIDKeys)}
		if rec == nil {
			item.Err = invalid("product", item.Ref, "record is not an object")
		} else {
			item.Record, item.Err = n.mapProduct(rec, item.Ref)
		}
		batch.Items = append(batch.Items, item)
	}
	return batch, nil
}

// NormalizeOrders maps an order listing page
func (n *Normalizer) NormalizeOrders(body []byte) (*integration.Batch[integration.OrderRecord], error) {
	records, page, strategy, err := n.envelope("orders", body, orderEnvelopes)
	if err != nil {
		return nil, err
	}

	batch := &integration.Batch[integration.OrderRecord]{Page: page, Strategy: strategy}
	for i, rec := range records {
		item := integration.Item[integration.OrderRecord]{Ref: recordRef(rec, i, orderNumberKeys)}
		if rec == nil {
			item.Err = invalid("order", item.Ref, "record is not an object")
		} else {
			item.Record, item.Err = n.mapOrder(rec, item.Ref)
		}
		batch.Items = append(batch.Items, item)
	}
	return batch, nil
}

// NormalizeInventory maps a stock listing page. Records carrying a variant
// array are flattened into one item per variant.
func (n *Normalizer) NormalizeInventory(body []byte) (*integration.Batch[integration.InventoryRecord], error) {
	records, page, strategy, err := n.envelope("inventory", body, inventoryEnvelopes)
	if err != nil {
		return nil, err
	}

	batch := &integration.Batch[integration.InventoryRecord]{Page: page, Strategy: strategy}
	for i, rec := range records {
		if rec == nil {
			ref := fmt.Sprintf("#%d", i+1)
			batch.Items = append(batch.Items, integration.Item[integration.InventoryRecord]{
				Ref: ref,
				Err: invalid("inventory", ref, "record is not an object"),
			})
			continue
		}

		if variants, ok := rec.array(variantKeys...); ok {
			parentPrice, _ := rec.dec(productPriceKeys...)
			for j, v := range variants {
				variant, _ := asObject(v)
				ref := recordRef(rawRecord(variant), i, stockSKUKeys)
				if variant == nil {
					ref = fmt.Sprintf("#%d.%d", i+1, j+1)
				}
				item := integration.Item[integration.InventoryRecord]{Ref: ref}
				if variant == nil {
					item.Err = invalid("inventory", ref, "variant is not an object")
				} else {
					item.Record, item.Err = n.mapStock(rawRecord(variant), ref, parentPrice)
				}
				batch.Items = append(batch.Items, item)
			}
			continue
		}

		ref := recordRef(rec, i, stockSKUKeys)
		item := integration.Item[integration.InventoryRecord]{Ref: ref}
		item.Record, item.Err = n.mapStock(rec, ref, decimal.Zero)
		batch.Items = append(batch.Items, item)
	}
	return batch, nil
}

// envelope decodes body and runs the ordered strategies. The first one that
// matches wins; none matching yields *integration.ShapeMismatchError.
func (n *Normalizer) envelope(kind string, body []byte, attempts []envelopeStrategy) ([]rawRecord, integration.PageInfo, string, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, integration.PageInfo{}, "", fmt.Errorf("ecommerce: decode %s response: %w", kind, err)
	}

	if obj, ok := doc.(map[string]any); ok {
		if err := responseError(rawRecord(obj)); err != nil {
			return nil, integration.PageInfo{}, "", err
		}
	}

	for _, strategy := range attempts {
		list, ok := strategy.extract(doc)
		if !ok {
			continue
		}
		records := make([]rawRecord, len(list))
		for i, entry := range list {
			if obj, ok := asObject(entry); ok {
				records[i] = rawRecord(obj)
			}
		}
		return records, pageInfo(doc), strategy.name, nil
	}

	return nil, integration.PageInfo{}, "", &integration.ShapeMismatchError{
		Kind:         kind,
		ObservedKeys: observedKeys(doc),
	}
}

func (n *Normalizer) mapProduct(rec rawRecord, ref string) (integration.ProductRecord, error) {
	out := integration.ProductRecord{
		Name:        rec.str(productNameKeys...),
		SKU:         rec.str(productSKUKeys...),
		Description: rec.str(productDescKeys...),
		Status:      n.productStatus(rec.str(statusKeys...)),
	}
	if out.Name == "" {
		return out, invalid("product", ref, "name is required")
	}
	if out.SKU == "" {
		return out, invalid("product", ref, "sku is required")
	}

	price, ok := rec.dec(productPriceKeys...)
	if !ok || !price.IsPositive() {
		return out, invalid("product", ref, "price must be positive")
	}
	out.BasePrice = n.scale(price)

	if cost, ok := rec.dec(productCostKeys...); ok && !cost.IsNegative() {
		out.CostPrice = n.scale(cost)
	}
	return out, nil
}

func (n *Normalizer) mapOrder(rec rawRecord, ref string) (integration.OrderRecord, error) {
	out := integration.OrderRecord{
		OrderNumber: rec.str(orderNumberKeys...),
		Status:      n.orderStatus(rec.str(orderStatusKeys...)),
	}
	if out.OrderNumber == "" {
		return out, invalid("order", ref, "order number is required")
	}

	if raw := rec.str(paymentStatusKeys...); raw != "" {
		if status, ok := paymentStatusTable[statusKey(raw)]; ok {
			out.PaymentStatus = status
		}
	}
	if out.PaymentStatus == "" {
		out.PaymentStatus = derivePaymentStatus(out.Status)
	}

	out.OrderedAt = n.now().UTC()
	if t, ok := rec.timestamp(orderedAtKeys...); ok {
		out.OrderedAt = t
	}
	out.Customer = mapCustomer(rec)
	out.ShippingAddress = mapAddress(rec)

	lines, _ := rec.array(orderItemsKeys...)
	if len(lines) == 0 {
		return out, invalid("order", ref, "order has no items")
	}
	itemsTotal := decimal.Zero
	for i, line := range lines {
		obj, ok := asObject(line)
		if !ok {
			return out, invalid("order", ref, fmt.Sprintf("item %d is not an object", i+1))
		}
		item, err := n.mapOrderItem(rawRecord(obj))
		if err != nil {
			return out, invalid("order", ref, fmt.Sprintf("item %d: %v", i+1, err))
		}
		itemsTotal = itemsTotal.Add(item.TotalPrice)
		out.Items = append(out.Items, item)
	}

	if total, ok := rec.dec(orderTotalKeys...); ok && !total.IsNegative() {
		out.TotalAmount = n.scale(total)
	} else {
		out.TotalAmount = itemsTotal
	}
	return out, nil
}

func (n *Normalizer) mapOrderItem(rec rawRecord) (integration.OrderItemRecord, error) {
	item := integration.OrderItemRecord{
		SKU:  rec.str(itemSKUKeys...),
		Name: rec.str(itemNameKeys...),
	}
	if item.SKU == "" {
		return item, errors.New("sku is required")
	}
	qty, ok := rec.integer(itemQtyKeys...)
	if !ok || qty <= 0 {
		return item, errors.New("quantity must be positive")
	}
	item.Quantity = qty

	if price, ok := rec.dec(itemPriceKeys...); ok && !price.IsNegative() {
		item.UnitPrice = n.scale(price)
	}
	if total, ok := rec.dec(itemTotalKeys...); ok && !total.IsNegative() {
		item.TotalPrice = n.scale(total)
	} else {
		item.TotalPrice = item.UnitPrice.Mul(decimal.NewFromInt(int64(qty)))
	}
	return item, nil
}

func (n *Normalizer) mapStock(rec rawRecord, ref string, fallbackPrice decimal.Decimal) (integration.InventoryRecord, error) {
	out := integration.InventoryRecord{SKU: rec.str(stockSKUKeys...)}
	if out.SKU == "" {
		return out, invalid("inventory", ref, "sku is required")
	}
	qty, ok := rec.integer(stockQtyKeys...)
	if !ok {
		return out, invalid("inventory", ref, "quantity is required")
	}
	if qty < 0 {
		return out, invalid("inventory", ref, "quantity cannot be negative")
	}
	out.Quantity = qty

	price, ok := rec.dec(productPriceKeys...)
	if !ok {
		price = fallbackPrice
	}
	if !price.IsNegative() {
		out.Price = n.scale(price)
	}
	return out, nil
}

func (n *Normalizer) productStatus(raw string) catalog.ProductStatus {
	if status, ok := n.productStatuses[statusKey(raw)]; ok {
		return status
	}
	return catalog.ProductStatusActive
}

func (n *Normalizer) orderStatus(raw string) trade.OrderStatus {
	if status, ok := n.orderStatuses[statusKey(raw)]; ok {
		return status
	}
	return trade.OrderStatusPending
}

func (n *Normalizer) scale(d decimal.Decimal) decimal.Decimal {
	if n.priceDivisor.Equal(decimal.NewFromInt(1)) {
		return d
	}
	return d.Div(n.priceDivisor)
}

func mapCustomer(rec rawRecord) trade.Customer {
	c := trade.Customer{
		Name:  rec.str("customer_name", "buyer_nick", "buyer_name"),
		Email: rec.str("customer_email", "buyer_email", "email"),
		Phone: rec.str("customer_phone", "buyer_phone"),
	}
	if nested := rec.object("customer", "buyer"); nested != nil {
		if v := nested.str("name", "nick", "nickname", "full_name"); v != "" {
			c.Name = v
		}
		if v := nested.str("email"); v != "" {
			c.Email = v
		}
		if v := nested.str("phone", "mobile"); v != "" {
			c.Phone = v
		}
	}
	return c
}

func mapAddress(rec rawRecord) trade.Address {
	a := trade.Address{
		Name:       rec.str("receiver_name"),
		Phone:      rec.str("receiver_mobile", "receiver_phone"),
		Line1:      rec.str("receiver_address"),
		City:       rec.str("receiver_city"),
		State:      rec.str("receiver_state"),
		PostalCode: rec.str("receiver_zip"),
		Country:    rec.str("receiver_country"),
	}
	nested := rec.object("shipping_address", "shippingAddress", "shipping", "receiver", "post_addr")
	if nested == nil {
		return a
	}
	return trade.Address{
		Name:       firstNonEmpty(nested.str("name", "receiver_name"), a.Name),
		Phone:      firstNonEmpty(nested.str("phone", "mobile"), a.Phone),
		Line1:      firstNonEmpty(nested.str("line1", "address1", "address", "detail", "street"), a.Line1),
		Line2:      nested.str("line2", "address2"),
		City:       firstNonEmpty(nested.str("city", "city.name"), a.City),
		State:      firstNonEmpty(nested.str("state", "province", "province.name"), a.State),
		PostalCode: firstNonEmpty(nested.str("postal_code", "postalCode", "zip", "postcode"), a.PostalCode),
		Country:    firstNonEmpty(nested.str("country", "country_code"), a.Country),
	}
}

// pageInfo reads paging hints from the envelope root or its data object
func pageInfo(doc any) integration.PageInfo {
	var info integration.PageInfo
	obj, ok := doc.(map[string]any)
	if !ok {
		return info
	}

	scopes := []rawRecord{rawRecord(obj)}
	if data := rawRecord(obj).object("data"); data != nil {
		scopes = append(scopes, data)
	}
	for _, scope := range scopes {
		if info.NextCursor == "" {
			info.NextCursor = scope.str(nextCursorKeys...)
		}
		if info.HasMore == nil {
			for _, key := range hasMoreKeys {
				if v, ok := scope[key].(bool); ok {
					more := v
					info.HasMore = &more
					break
				}
			}
		}
	}
	return info
}

// responseError detects an error reported inside a 2xx body
func responseError(rec rawRecord) error {
	code := rec.str(errorCodeKeys...)
	if code == "" || code == "0" {
		return nil
	}
	return fmt.Errorf("%w: code %s: %s", ErrMarketplaceResponse, code, rec.str(errorMessageKeys...))
}

// observedKeys lists the top-level shape of an unrecognised document
func observedKeys(doc any) []string {
	switch v := doc.(type) {
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return keys
	case []any:
		return []string{"<array>"}
	case nil:
		return []string{"<null>"}
	default:
		return []string{"<scalar>"}
	}
}

// recordRef identifies a record for error messages: the first natural key
// found, otherwise its 1-based position in the page
func recordRef(rec rawRecord, index int, keySets ...[]string) string {
	if rec != nil {
		for _, keys := range keySets {
			if v := rec.str(keys...); v != "" {
				return v
			}
		}
	}
	return fmt.Sprintf("#%d", index+1)
}

func invalid(kind, ref, reason string) error {
	return &integration.ItemValidationError{Kind: kind, Ref: ref, Reason: reason}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// Ensure Normalizer implements RecordNormalizer
var _ integration.RecordNormalizer = (*Normalizer)(nil)
