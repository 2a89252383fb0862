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

// taobaoTimestampLayout is the timestamp format the TOP gateway expects
const taobaoTimestampLayout = "2006-01-02 15:04:05"

// taobaoHealthPaths are tried in order by HealthCheck
var taobaoHealthPaths = []string{"/health", "/status", "/api/ping"}

// taobaoAuth signs every request with the app secret
type taobaoAuth struct {
	creds integration.TaobaoCredentials
	now   func() time.Time
}

func (a taobaoAuth) authenticate(req *http.Request, params url.Values, _ []byte) {
	params.Set("app_key", a.creds.AppKey)
	params.Set("timestamp", a.now().Format(taobaoTimestampLayout))
	params.Set("format", "json")
	params.Set("v", "2.0")
	params.Set("sign_method", "md5")
	if a.creds.SessionKey != "" {
		params.Set("session", a.creds.SessionKey)
	}
	params.Set("sign", signTaobao(a.creds.AppSecret, params))

	if a.creds.APIKey != "" {
		req.Header.Set("X-API-Key", a.creds.APIKey)
	}
	req.URL.RawQuery = params.Encode()
}

// TaobaoClient talks to a Taobao shop gateway. Listings are paged by page number.
type TaobaoClient struct {
	base *baseClient
}

// NewTaobaoClient creates a Taobao client from typed credentials
func NewTaobaoClient(creds integration.TaobaoCredentials, cfg ClientConfig, logger *zap.Logger, retries RetryRecorder) *TaobaoClient {
	cfg.BaseURL = creds.BaseURL
	auth := taobaoAuth{creds: creds, now: time.Now}
	return &TaobaoClient{
		base: newBaseClient(integration.MarketplaceTaobao, cfg, auth, logger, retries),
	}
}

// Type returns the marketplace type this client handles
func (c *TaobaoClient) Type() integration.MarketplaceType {
	return integration.MarketplaceTaobao
}

// HealthCheck checks the gateway status endpoints
func (c *TaobaoClient) HealthCheck(ctx context.Context) (string, error) {
	return c.base.healthCheck(ctx, taobaoHealthPaths)
}

// FetchProducts fetches one page of onsale items
func (c *TaobaoClient) FetchProducts(ctx context.Context, q integration.FetchQuery) (*integration.Page, error) {
	params := c.pageParams(q)
	if q.Since != nil {
		params.Set("start_modified", q.Since.UTC().Format(taobaoTimestampLayout))
	}
	return c.get(ctx, "/products", params)
}

// FetchOrders fetches one page of trades modified since q.Since
func (c *TaobaoClient) FetchOrders(ctx context.Context, q integration.FetchQuery) (*integration.Page, error) {
	params := c.pageParams(q)
	if q.Since != nil {
		params.Set("since", q.Since.UTC().Format(time.RFC3339))
	}
	return c.get(ctx, "/orders", params)
}

// FetchInventory fetches one page of per-SKU stock levels
func (c *TaobaoClient) FetchInventory(ctx context.Context, q integration.FetchQuery) (*integration.Page, error) {
	return c.get(ctx, "/inventory", c.pageParams(q))
}

// PushInventory sends a full quantity update for a SKU
func (c *TaobaoClient) PushInventory(ctx context.Context, sku string, quantity int) error {
	payload := map[string]any{
		"sku":         sku,
		"quantity":    quantity,
		"update_type": 1, // full update
	}
	_, err := c.base.request(ctx, http.MethodPost, "/inventory/update", nil, payload)
	return err
}

// NextPage advances the page number. Without an explicit has_next hint a
// full page means more data may follow.
func (c *TaobaoClient) NextPage(q integration.FetchQuery, info integration.PageInfo, received int) (integration.FetchQuery, bool) {
	more := received > 0 && received >= q.PageSize
	if info.HasMore != nil {
		more = *info.HasMore && received > 0
	}
	if !more {
		return q, false
	}

	next := q
	next.Cursor = strconv.Itoa(taobaoPageNo(q.Cursor) + 1)
	return next, true
}

func (c *TaobaoClient) pageParams(q integration.FetchQuery) url.Values {
	params := url.Values{}
	params.Set("page_no", strconv.Itoa(taobaoPageNo(q.Cursor)))
	if q.PageSize > 0 {
		params.Set("page_size", strconv.Itoa(q.PageSize))
	}
	return params
}

func (c *TaobaoClient) get(ctx context.Context, endpoint string, params url.Values) (*integration.Page, error) {
	body, err := c.base.request(ctx, http.MethodGet, endpoint, params, nil)
	if err != nil {
		return nil, err
	}
	return &integration.Page{Endpoint: endpoint, Body: body}, nil
}

// taobaoPageNo parses a cursor as a 1-based page number
func taobaoPageNo(cursor string) int {
	page, err := strconv.Atoi(cursor)
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// Ensure TaobaoClient implements MarketplaceClient
var _ integration.MarketplaceClient = (*TaobaoClient)(nil)
