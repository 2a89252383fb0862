package ecommerce

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invsync/backend/internal/domain/catalog"
	"github.com/invsync/backend/internal/domain/integration"
)

func newTaobaoMarketplace(t *testing.T, opts integration.ChannelOptions) *integration.Marketplace {
	t.Helper()
	settings, err := integration.NewTaobaoSettings(integration.TaobaoCredentials{
		AppKey:    "key",
		AppSecret: "secret",
		BaseURL:   "https://gw.taobao.example",
	}, opts)
	require.NoError(t, err)
	m, err := integration.NewMarketplace("Taobao Flagship", settings)
	require.NoError(t, err)
	return m
}

func TestConnector_ConnectTaobao(t *testing.T) {
	c := NewConnector(ClientConfig{}, nil, nil)
	m := newTaobaoMarketplace(t, integration.ChannelOptions{TimeoutSeconds: 7, RequestsPerSecond: 2})

	conn, err := c.Connect(m)
	require.NoError(t, err)

	client, ok := conn.Client.(*TaobaoClient)
	require.True(t, ok)
	assert.Equal(t, integration.MarketplaceTaobao, client.Type())
	assert.Equal(t, "https://gw.taobao.example", client.base.cfg.BaseURL)
	assert.Equal(t, 7*time.Second, client.base.cfg.Timeout)
	assert.Equal(t, 2.0, client.base.cfg.RequestsPerSecond)
	assert.Equal(t, 3, client.base.cfg.MaxAttempts)

	norm, ok := conn.Normalizer.(*Normalizer)
	require.True(t, ok)
	assert.True(t, norm.priceDivisor.Equal(decimal.NewFromInt(1)))
}

func TestConnector_ConnectDouyin(t *testing.T) {
	settings, err := integration.NewDouyinSettings(integration.DouyinCredentials{
		AppKey:       "key",
		AppSecret:    "secret",
		AccessToken:  "token",
		ShopID:       "shop-9",
		BaseURL:      "https://openapi.douyin.example",
		PriceInCents: true,
	}, integration.ChannelOptions{})
	require.NoError(t, err)
	m, err := integration.NewMarketplace("Douyin Shop", settings)
	require.NoError(t, err)

	conn, err := NewConnector(DefaultClientConfig(), nil, nil).Connect(m)
	require.NoError(t, err)

	client, ok := conn.Client.(*DouyinClient)
	require.True(t, ok)
	assert.Equal(t, integration.MarketplaceDouyin, client.Type())
	assert.Equal(t, 30*time.Second, client.base.cfg.Timeout)

	norm, ok := conn.Normalizer.(*Normalizer)
	require.True(t, ok)
	assert.True(t, norm.priceDivisor.Equal(decimal.NewFromInt(centsPerYuan)))
	assert.Equal(t, catalog.ProductStatusDiscontinued, norm.productStatus("2"))
}

func TestConnector_RejectsInvalidSettings(t *testing.T) {
	c := NewConnector(DefaultClientConfig(), nil, nil)

	_, err := c.Connect(nil)
	assert.ErrorIs(t, err, integration.ErrInvalidSettings)

	m := newTaobaoMarketplace(t, integration.ChannelOptions{})
	m.Settings.Douyin = &integration.DouyinCredentials{}
	_, err = c.Connect(m)
	assert.ErrorIs(t, err, integration.ErrInvalidSettings)

	m.Settings = integration.Settings{Type: "AMAZON"}
	_, err = c.Connect(m)
	assert.ErrorIs(t, err, integration.ErrUnsupportedMarketplace)
}
