package integration

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/invsync/backend/internal/domain/integration"
	"github.com/invsync/backend/internal/infrastructure/cache"
	"github.com/invsync/backend/internal/infrastructure/ecommerce"
	"github.com/invsync/backend/internal/infrastructure/persistence"
	"github.com/invsync/backend/internal/infrastructure/persistence/models"
)

var unsafeDBName = regexp.MustCompile(`[^a-zA-Z0-9_]`)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := unsafeDBName.ReplaceAllString(t.Name(), "_")
	dsn := fmt.Sprintf("file:app_%s?mode=memory&cache=shared&_foreign_keys=1", strings.ToLower(name))

	db, err := persistence.Open(sqlite.Open(dsn), nil)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.AllModels()...))
	return db
}

func newRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Products:     persistence.NewGormProductRepository(db),
		Inventory:    persistence.NewGormInventoryRepository(db),
		Orders:       persistence.NewGormOrderRepository(db),
		Marketplaces: persistence.NewGormMarketplaceRepository(db),
	}
}

// ---------------------------------------------------------------------------
// Fake marketplace
// ---------------------------------------------------------------------------

type pushCall struct {
	sku      string
	quantity int
}

// fakeClient serves canned listing pages. Pages are addressed by a numeric
// cursor that the page bodies carry in next_cursor.
type fakeClient struct {
	mu        sync.Mutex
	healthErr error
	pages     map[string][]string
	listErr   map[string]error
	since     map[string][]*time.Time
	fetches   map[string]int
	pushes    []pushCall
	pushErr   error
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		pages:   make(map[string][]string),
		listErr: make(map[string]error),
		since:   make(map[string][]*time.Time),
		fetches: make(map[string]int),
	}
}

func (f *fakeClient) setHealth(err error) {
	f.mu.Lock()
	f.healthErr = err
	f.mu.Unlock()
}

func (f *fakeClient) setPages(kind string, pages ...[]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	bodies := make([]string, len(pages))
	for i, records := range pages {
		cursor := ""
		if i < len(pages)-1 {
			cursor = strconv.Itoa(i + 1)
		}
		bodies[i] = fmt.Sprintf(`{%q:[%s],"next_cursor":%q}`, kind, strings.Join(records, ","), cursor)
	}
	f.pages[kind] = bodies
}

func (f *fakeClient) sinceFor(kind string) []*time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*time.Time(nil), f.since[kind]...)
}

func (f *fakeClient) fetchCount(kind string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches[kind]
}

func (f *fakeClient) fetch(kind string, q integration.FetchQuery) (*integration.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches[kind]++
	if q.Cursor == "" {
		f.since[kind] = append(f.since[kind], q.Since)
	}
	if err := f.listErr[kind]; err != nil {
		return nil, err
	}

	idx := 0
	if q.Cursor != "" {
		idx, _ = strconv.Atoi(q.Cursor)
	}
	body := fmt.Sprintf(`{%q:[]}`, kind)
	if idx < len(f.pages[kind]) {
		body = f.pages[kind][idx]
	}
	return &integration.Page{Endpoint: "/" + kind, Body: []byte(body)}, nil
}

func (f *fakeClient) Type() integration.MarketplaceType { return integration.MarketplaceTaobao }

func (f *fakeClient) HealthCheck(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.healthErr != nil {
		return "", f.healthErr
	}
	return "/health", nil
}

func (f *fakeClient) FetchProducts(_ context.Context, q integration.FetchQuery) (*integration.Page, error) {
	return f.fetch("products", q)
}

func (f *fakeClient) FetchOrders(_ context.Context, q integration.FetchQuery) (*integration.Page, error) {
	return f.fetch("orders", q)
}

func (f *fakeClient) FetchInventory(_ context.Context, q integration.FetchQuery) (*integration.Page, error) {
	return f.fetch("inventory", q)
}

func (f *fakeClient) PushInventory(_ context.Context, sku string, quantity int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pushes = append(f.pushes, pushCall{sku, quantity})
	return f.pushErr
}

func (f *fakeClient) NextPage(q integration.FetchQuery, info integration.PageInfo, _ int) (integration.FetchQuery, bool) {
	if info.NextCursor == "" {
		return q, false
	}
	q.Cursor = info.NextCursor
	return q, true
}

type fakeConnector struct {
	client *fakeClient
	err    error
}

func (c *fakeConnector) Connect(*integration.Marketplace) (*integration.Connection, error) {
	if c.err != nil {
		return nil, c.err
	}
	return &integration.Connection{
		Client:     c.client,
		Normalizer: ecommerce.NewNormalizer(ecommerce.NormalizerOptions{}),
	}, nil
}

type recordingMetrics struct {
	mu      sync.Mutex
	results []*integration.SyncResult
}

func (m *recordingMetrics) ObserveSync(_ integration.MarketplaceType, result *integration.SyncResult) {
	m.mu.Lock()
	m.results = append(m.results, result)
	m.mu.Unlock()
}

// ---------------------------------------------------------------------------
// Fixture
// ---------------------------------------------------------------------------

type syncFixture struct {
	db          *gorm.DB
	repos       Repositories
	client      *fakeClient
	connector   *fakeConnector
	lock        *cache.InMemorySyncLock
	metrics     *recordingMetrics
	service     *SyncService
	marketplace *integration.Marketplace
}

func newSyncFixture(t *testing.T, defaults SyncDefaults, opts integration.ChannelOptions) *syncFixture {
	t.Helper()
	db := newTestDB(t)
	f := &syncFixture{
		db:      db,
		repos:   newRepositories(db),
		client:  newFakeClient(),
		lock:    cache.NewInMemorySyncLock(),
		metrics: &recordingMetrics{},
	}
	f.connector = &fakeConnector{client: f.client}
	f.service = NewSyncService(f.repos, f.connector, f.lock, defaults, f.metrics, nil)
	f.marketplace = f.createMarketplace(t, "Main Store", opts)
	return f
}

func (f *syncFixture) createMarketplace(t *testing.T, name string, opts integration.ChannelOptions) *integration.Marketplace {
	t.Helper()
	settings, err := integration.NewTaobaoSettings(integration.TaobaoCredentials{
		AppKey:    "app-key",
		AppSecret: "app-secret",
		BaseURL:   "https://gw.example.com",
	}, opts)
	require.NoError(t, err)
	m, err := integration.NewMarketplace(name, settings)
	require.NoError(t, err)
	require.NoError(t, f.repos.Marketplaces.Create(context.Background(), m))
	return m
}

func (f *syncFixture) reload(t *testing.T) *integration.Marketplace {
	t.Helper()
	m, err := f.repos.Marketplaces.FindByID(context.Background(), f.marketplace.ID)
	require.NoError(t, err)
	return m
}

func productJSON(sku, name string, price float64) string {
	return fmt.Sprintf(`{"sku":%q,"name":%q,"price":%v}`, sku, name, price)
}

func stockJSON(sku string, quantity int) string {
	return fmt.Sprintf(`{"sku":%q,"quantity":%d,"price":9.5}`, sku, quantity)
}

func orderJSON(number string, lines ...string) string {
	return fmt.Sprintf(`{"order_number":%q,"status":"paid","items":[%s]}`, number, strings.Join(lines, ","))
}

func lineJSON(sku string, quantity int, unitPrice float64) string {
	return fmt.Sprintf(`{"sku":%q,"name":"line %s","quantity":%d,"unit_price":%v}`, sku, sku, quantity, unitPrice)
}

func boolPtr(v bool) *bool { return &v }
