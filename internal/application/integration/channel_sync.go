package integration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/invsync/backend/internal/domain/catalog"
	"github.com/invsync/backend/internal/domain/integration"
	"github.com/invsync/backend/internal/domain/inventory"
	"github.com/invsync/backend/internal/domain/shared"
	"github.com/invsync/backend/internal/domain/trade"
)

// errUnknownProduct marks inventory or order lines whose SKU has no local product
var errUnknownProduct = errors.New("no local product with this sku")

type fetchFunc func(ctx context.Context, q integration.FetchQuery) (*integration.Page, error)

// pageFunc normalizes and persists one page. It returns the paging hints
// and the number of records the page carried.
type pageFunc func(ctx context.Context, body []byte) (integration.PageInfo, int, error)

// paginate walks a listing page by page until the client reports no more
// pages. It stops with ErrTooManyPages after MaxPages pages and checks ctx
// between pages.
func (c *Channel) paginate(ctx context.Context, since *time.Time, fetch fetchFunc, handle pageFunc) error {
	q := integration.FetchQuery{Since: since, PageSize: c.cfg.PageSize()}
	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		resp, err := fetch(ctx, q)
		if err != nil {
			return err
		}
		info, received, err := handle(ctx, resp.Body)
		if err != nil {
			return err
		}

		next, more := c.client.NextPage(q, info, received)
		if !more {
			return nil
		}
		if page >= c.cfg.MaxPages() {
			return fmt.Errorf("%w: stopped after %d pages", integration.ErrTooManyPages, page)
		}
		q = next
	}
}

// finishListing folds the paginate outcome into result. Hitting the page
// limit keeps the run successful but records it so a clean watermark is
// not advanced past unread pages.
func (c *Channel) finishListing(result *integration.SyncResult, err error) {
	switch {
	case err == nil:
	case errors.Is(err, integration.ErrTooManyPages):
		c.logger.Warn("Listing truncated at page limit",
			zap.String("category", string(result.Category)),
			zap.Int("max_pages", c.cfg.MaxPages()),
		)
		result.Errors = append(result.Errors, err.Error())
	default:
		c.logger.Error("Sync aborted",
			zap.String("category", string(result.Category)),
			zap.Error(err),
		)
		result.Fail(err)
	}
}

// ---------------------------------------------------------------------------
// Products
// ---------------------------------------------------------------------------

func (c *Channel) syncProducts(ctx context.Context, since *time.Time) *integration.SyncResult {
	result := integration.NewSyncResult(integration.SyncCategoryProducts)

	err := c.paginate(ctx, since, c.client.FetchProducts, func(ctx context.Context, body []byte) (integration.PageInfo, int, error) {
		batch, err := c.normalizer.NormalizeProducts(body)
		if err != nil {
			return integration.PageInfo{}, 0, err
		}
		for _, item := range batch.Items {
			if item.Err != nil {
				result.AddItemError("product", item.Ref, item.Err)
				continue
			}
			if err := c.upsertProduct(ctx, item.Record); err != nil {
				result.AddItemError("product", item.Ref, err)
				continue
			}
			result.SyncedCount++
		}
		return batch.Page, len(batch.Items), nil
	})
	c.finishListing(result, err)
	return result
}

func (c *Channel) upsertProduct(ctx context.Context, rec integration.ProductRecord) error {
	product, err := catalog.NewProduct(rec.SKU, rec.Name, rec.BasePrice)
	if err != nil {
		return err
	}
	product.Description = rec.Description
	product.Cost = rec.CostPrice
	if rec.Status.IsValid() {
		product.Status = rec.Status
	}
	_, _, err = c.repos.Products.Upsert(ctx, product)
	return err
}

// ---------------------------------------------------------------------------
// Orders
// ---------------------------------------------------------------------------

func (c *Channel) syncOrders(ctx context.Context, since *time.Time) *integration.SyncResult {
	result := integration.NewSyncResult(integration.SyncCategoryOrders)
	resolver := newSKUResolver(c.repos.Products)

	err := c.paginate(ctx, since, c.client.FetchOrders, func(ctx context.Context, body []byte) (integration.PageInfo, int, error) {
		batch, err := c.normalizer.NormalizeOrders(body)
		if err != nil {
			return integration.PageInfo{}, 0, err
		}
		for _, item := range batch.Items {
			if item.Err != nil {
				result.AddItemError("order", item.Ref, item.Err)
				continue
			}
			created, err := c.importOrder(ctx, resolver, item.Record)
			switch {
			case err != nil:
				result.AddItemError("order", item.Ref, err)
			case created:
				result.SyncedCount++
			default:
				result.SkippedCount++
			}
		}
		return batch.Page, len(batch.Items), nil
	})
	c.finishListing(result, err)
	return result
}

// importOrder creates the order unless its number is already known. It
// reports false for orders that were skipped as duplicates.
func (c *Channel) importOrder(ctx context.Context, resolver *skuResolver, rec integration.OrderRecord) (bool, error) {
	marketplaceID := c.marketplace.ID
	exists, err := c.repos.Orders.ExistsByNumber(ctx, marketplaceID, rec.OrderNumber)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	order, err := trade.NewOrder(marketplaceID, rec.OrderNumber)
	if err != nil {
		return false, err
	}
	order.Status = rec.Status
	order.PaymentStatus = rec.PaymentStatus
	order.Customer = rec.Customer
	order.ShippingAddress = rec.ShippingAddress
	if !rec.OrderedAt.IsZero() {
		order.OrderedAt = rec.OrderedAt.UTC()
	}

	for _, line := range rec.Items {
		productID, err := resolver.resolve(ctx, line.SKU)
		if err != nil && !errors.Is(err, errUnknownProduct) {
			return false, err
		}
		if err := order.AddItem(productID, line.SKU, line.Name, line.Quantity, line.UnitPrice, line.TotalPrice); err != nil {
			return false, err
		}
	}
	order.TotalAmount = rec.TotalAmount
	if order.TotalAmount.IsZero() {
		order.TotalAmount = order.ItemsTotal()
	}

	if err := c.repos.Orders.CreateWithItems(ctx, order); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ---------------------------------------------------------------------------
// Inventory
// ---------------------------------------------------------------------------

func (c *Channel) syncInventory(ctx context.Context, since *time.Time) *integration.SyncResult {
	result := integration.NewSyncResult(integration.SyncCategoryInventory)
	resolver := newSKUResolver(c.repos.Products)

	err := c.paginate(ctx, since, c.client.FetchInventory, func(ctx context.Context, body []byte) (integration.PageInfo, int, error) {
		batch, err := c.normalizer.NormalizeInventory(body)
		if err != nil {
			return integration.PageInfo{}, 0, err
		}
		for _, item := range batch.Items {
			if item.Err != nil {
				result.AddItemError("inventory", item.Ref, item.Err)
				continue
			}
			err := c.upsertInventory(ctx, resolver, item.Record)
			switch {
			case errors.Is(err, errUnknownProduct):
				// product rejected or not yet synced; its own error is already reported
				c.logger.Debug("Inventory for unknown sku skipped", zap.String("sku", item.Record.SKU))
				result.SkippedCount++
			case err != nil:
				result.AddItemError("inventory", item.Ref, err)
			default:
				result.SyncedCount++
			}
		}
		return batch.Page, len(batch.Items), nil
	})
	c.finishListing(result, err)
	return result
}

func (c *Channel) upsertInventory(ctx context.Context, resolver *skuResolver, rec integration.InventoryRecord) error {
	productID, err := resolver.resolve(ctx, rec.SKU)
	if err != nil {
		return err
	}

	inv, err := inventory.NewInventory(*productID, c.marketplace.ID, rec.Quantity, rec.Price, c.cfg.LowStockThreshold())
	if err != nil {
		return err
	}
	_, _, err = c.repos.Inventory.Upsert(ctx, inv)
	return err
}

// ---------------------------------------------------------------------------
// SKU resolution
// ---------------------------------------------------------------------------

// skuResolver memoizes SKU to product id lookups for one sync run
type skuResolver struct {
	products catalog.ProductRepository
	known    map[string]*uuid.UUID
}

func newSKUResolver(products catalog.ProductRepository) *skuResolver {
	return &skuResolver{products: products, known: make(map[string]*uuid.UUID)}
}

// resolve returns the product id for sku, or errUnknownProduct
func (r *skuResolver) resolve(ctx context.Context, sku string) (*uuid.UUID, error) {
	if id, ok := r.known[sku]; ok {
		if id == nil {
			return nil, errUnknownProduct
		}
		return id, nil
	}

	product, err := r.products.FindBySKU(ctx, sku)
	if errors.Is(err, shared.ErrNotFound) {
		r.known[sku] = nil
		return nil, errUnknownProduct
	}
	if err != nil {
		return nil, err
	}
	id := product.ID
	r.known[sku] = &id
	return &id, nil
}
