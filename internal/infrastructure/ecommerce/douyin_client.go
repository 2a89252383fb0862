package ecommerce

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/invsync/backend/internal/domain/integration"
)

// douyinHealthPaths are tried in order by HealthCheck
var douyinHealthPaths = []string{"/health", "/api/status", "/shop/status"}

// douyinAuth adds the bearer token and an HMAC signature
type douyinAuth struct {
	creds integration.DouyinCredentials
	now   func() time.Time
}

func (a douyinAuth) authenticate(req *http.Request, params url.Values, body []byte) {
	params.Set("app_key", a.creds.AppKey)
	params.Set("shop_id", a.creds.ShopID)
	params.Set("timestamp", strconv.FormatInt(a.now().Unix(), 10))
	params.Set("sign", signDouyin(a.creds.AppSecret, params, body))

	req.Header.Set("Authorization", "Bearer "+a.creds.AccessToken)
	req.Header.Set("X-Shop-Id", a.creds.ShopID)
	req.URL.RawQuery = params.Encode()
}

// DouyinClient talks to a Douyin shop. Listings are paged by opaque cursor and
// stock levels are embedded in product variants.
type DouyinClient struct {
	base *baseClient
}

// NewDouyinClient creates a Douyin client from typed credentials
func NewDouyinClient(creds integration.DouyinCredentials, cfg ClientConfig, logger *zap.Logger, retries RetryRecorder) *DouyinClient {
	cfg.BaseURL = creds.BaseURL
	auth := douyinAuth{creds: creds, now: time.Now}
	return &DouyinClient{
		base: newBaseClient(integration.MarketplaceDouyin, cfg, auth, logger, retries),
	}
}

// Type returns the marketplace type this client handles
func (c *DouyinClient) Type() integration.MarketplaceType {
	return integration.MarketplaceDouyin
}

// HealthCheck checks the shop status endpoints
func (c *DouyinClient) HealthCheck(ctx context.Context) (string, error) {
	return c.base.healthCheck(ctx, douyinHealthPaths)
}

// FetchProducts fetches one page of products
func (c *DouyinClient) FetchProducts(ctx context.Context, q integration.FetchQuery) (*integration.Page, error) {
	params := c.cursorParams(q)
	if q.Since != nil {
		params.Set("update_start_time", strconv.FormatInt(q.Since.Unix(), 10))
	}
	return c.get(ctx, "/products", params)
}

// FetchOrders fetches one page of orders updated since q.Since
func (c *DouyinClient) FetchOrders(ctx context.Context, q integration.FetchQuery) (*integration.Page, error) {
	params := c.cursorParams(q)
	if q.Since != nil {
		params.Set("since", q.Since.UTC().Format(time.RFC3339))
	}
	return c.get(ctx, "/orders", params)
}

// FetchInventory reads stock from the product listing, where each product
// carries its variants with their stock numbers
func (c *DouyinClient) FetchInventory(ctx context.Context, q integration.FetchQuery) (*integration.Page, error) {
	return c.get(ctx, "/products", c.cursorParams(q))
}

// PushInventory sends a stock number update for a SKU
func (c *DouyinClient) PushInventory(ctx context.Context, sku string, quantity int) error {
	payload := map[string]any{
		"code":        sku,
		"stock_num":   quantity,
		"incremental": false,
	}
	_, err := c.base.request(ctx, http.MethodPost, "/inventory/update", nil, payload)
	return err
}

// NextPage follows the cursor returned by the previous page
func (c *DouyinClient) NextPage(q integration.FetchQuery, info integration.PageInfo, received int) (integration.FetchQuery, bool) {
	if info.NextCursor == "" || info.NextCursor == q.Cursor {
		return q, false
	}
	if info.HasMore != nil && !*info.HasMore {
		return q, false
	}
	if received == 0 {
		return q, false
	}

	next := q
	next.Cursor = info.NextCursor
	return next, true
}

func (c *DouyinClient) cursorParams(q integration.FetchQuery) url.Values {
	params := url.Values{}
	if q.Cursor != "" {
		params.Set("cursor", q.Cursor)
	}
	if q.PageSize > 0 {
		params.Set("size", strconv.Itoa(q.PageSize))
	}
	return params
}

func (c *DouyinClient) get(ctx context.Context, endpoint string, params url.Values) (*integration.Page, error) {
	body, err := c.base.request(ctx, http.MethodGet, endpoint, params, nil)
	if err != nil {
		return nil, err
	}
	return &integration.Page{Endpoint: endpoint, Body: body}, nil
}

// Ensure DouyinClient implements MarketplaceClient
var _ integration.MarketplaceClient = (*DouyinClient)(nil)
