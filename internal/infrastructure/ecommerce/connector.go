package ecommerce

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/invsync/backend/internal/domain/integration"
)

// centsPerYuan converts Douyin cent amounts to yuan
const centsPerYuan = 100

// Connector builds marketplace clients from stored marketplace settings
type Connector struct {
	cfg     ClientConfig
	logger  *zap.Logger
	retries RetryRecorder
}

// NewConnector creates a connector. cfg supplies transport defaults which a
// marketplace's own options may override.
func NewConnector(cfg ClientConfig, logger *zap.Logger, retries RetryRecorder) *Connector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Connector{
		cfg:     cfg.withDefaults(),
		logger:  logger.Named("ecommerce"),
		retries: retries,
	}
}

// Connect returns the client and normalizer for m's marketplace type
func (c *Connector) Connect(m *integration.Marketplace) (*integration.Connection, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: nil marketplace", integration.ErrInvalidSettings)
	}
	if err := m.Settings.Validate(); err != nil {
		return nil, err
	}

	cfg := c.cfg
	opts := m.Settings.Options
	if opts.TimeoutSeconds > 0 {
		cfg.Timeout = time.Duration(opts.TimeoutSeconds) * time.Second
	}
	if opts.RequestsPerSecond > 0 {
		cfg.RequestsPerSecond = opts.RequestsPerSecond
	}
	logger := c.logger.With(zap.String("marketplace_id", m.ID.String()))

	switch m.Settings.Type {
	case integration.MarketplaceTaobao:
		return &integration.Connection{
			Client:     NewTaobaoClient(*m.Settings.Taobao, cfg, logger, c.retries),
			Normalizer: NewNormalizer(NormalizerOptions{}),
		}, nil
	case integration.MarketplaceDouyin:
		creds := *m.Settings.Douyin
		normOpts := NormalizerOptions{
			ProductStatuses: douyinProductStatuses,
			OrderStatuses:   douyinOrderStatuses,
		}
		if creds.PriceInCents {
			normOpts.PriceDivisor = decimal.NewFromInt(centsPerYuan)
		}
		return &integration.Connection{
			Client:     NewDouyinClient(creds, cfg, logger, c.retries),
			Normalizer: NewNormalizer(normOpts),
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", integration.ErrUnsupportedMarketplace, m.Settings.Type)
	}
}

// Ensure Connector implements integration.Connector
var _ integration.Connector = (*Connector)(nil)
