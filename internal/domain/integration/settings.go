package integration

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var settingsValidator = validator.New()

// TaobaoCredentials are the credentials of a Taobao open platform app
type TaobaoCredentials struct {
	AppKey     string `json:"app_key" validate:"required"`
	AppSecret  string `json:"app_secret" validate:"required"`
	SessionKey string `json:"session_key,omitempty"`
	APIKey     string `json:"api_key,omitempty"`
	BaseURL    string `json:"base_url" validate:"required,url"`
}

// DouyinCredentials are the credentials of a Douyin shop app
type DouyinCredentials struct {
	AppKey       string `json:"app_key" validate:"required"`
	AppSecret    string `json:"app_secret" validate:"required"`
	AccessToken  string `json:"access_token" validate:"required"`
	ShopID       string `json:"shop_id" validate:"required"`
	BaseURL      string `json:"base_url" validate:"required,url"`
	PriceInCents bool   `json:"price_in_cents,omitempty"`
}

// ChannelOptions are optional per-marketplace overrides of the sync defaults.
// Zero values mean "use the application default".
type ChannelOptions struct {
	SyncProducts      *bool   `json:"sync_products,omitempty"`
	SyncOrders        *bool   `json:"sync_orders,omitempty"`
	SyncInventory     *bool   `json:"sync_inventory,omitempty"`
	PushOnAdjust      *bool   `json:"push_on_adjust,omitempty"`
	PageSize          int     `json:"page_size,omitempty" validate:"omitempty,min=1,max=500"`
	LowStockThreshold int     `json:"low_stock_threshold,omitempty" validate:"omitempty,min=1"`
	RequestsPerSecond float64 `json:"requests_per_second,omitempty" validate:"omitempty,gt=0"`
	TimeoutSeconds    int     `json:"timeout_seconds,omitempty" validate:"omitempty,min=1,max=300"`
}

// Settings is the tagged union of per-type marketplace settings.
// Exactly the variant matching Type is set; decoding validates it.
type Settings struct {
	Type    MarketplaceType
	Taobao  *TaobaoCredentials
	Douyin  *DouyinCredentials
	Options ChannelOptions
}

// settingsWire is the stored JSON layout of Settings
type settingsWire struct {
	Type        MarketplaceType `json:"type"`
	Credentials json.RawMessage `json:"credentials"`
	Options     ChannelOptions  `json:"options"`
}

// NewTaobaoSettings builds validated Taobao settings
func NewTaobaoSettings(creds TaobaoCredentials, opts ChannelOptions) (Settings, error) {
	s := Settings{Type: MarketplaceTaobao, Taobao: &creds, Options: opts}
	return s, s.Validate()
}

// NewDouyinSettings builds validated Douyin settings
func NewDouyinSettings(creds DouyinCredentials, opts ChannelOptions) (Settings, error) {
	s := Settings{Type: MarketplaceDouyin, Douyin: &creds, Options: opts}
	return s, s.Validate()
}

// Validate checks that the populated variant matches Type and that its
// fields are well formed
func (s Settings) Validate() error {
	var variant any
	switch s.Type {
	case MarketplaceTaobao:
		if s.Taobao == nil || s.Douyin != nil {
			return fmt.Errorf("%w: TAOBAO settings require taobao credentials only", ErrInvalidSettings)
		}
		variant = s.Taobao
	case MarketplaceDouyin:
		if s.Douyin == nil || s.Taobao != nil {
			return fmt.Errorf("%w: DOUYIN settings require douyin credentials only", ErrInvalidSettings)
		}
		variant = s.Douyin
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedMarketplace, s.Type)
	}

	if err := settingsValidator.Struct(variant); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	if err := settingsValidator.Struct(s.Options); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	return nil
}

// MarshalJSON encodes the settings as {type, credentials, options}
func (s Settings) MarshalJSON() ([]byte, error) {
	var creds any
	switch s.Type {
	case MarketplaceTaobao:
		creds = s.Taobao
	case MarketplaceDouyin:
		creds = s.Douyin
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMarketplace, s.Type)
	}

	raw, err := json.Marshal(creds)
	if err != nil {
		return nil, err
	}
	return json.Marshal(settingsWire{Type: s.Type, Credentials: raw, Options: s.Options})
}

// UnmarshalJSON decodes and validates the variant selected by "type"
func (s *Settings) UnmarshalJSON(data []byte) error {
	var wire settingsWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	if len(wire.Credentials) == 0 || string(wire.Credentials) == "null" {
		return fmt.Errorf("%w: credentials are required", ErrInvalidSettings)
	}

	decoded := Settings{Type: wire.Type, Options: wire.Options}
	switch wire.Type {
	case MarketplaceTaobao:
		decoded.Taobao = &TaobaoCredentials{}
		if err := json.Unmarshal(wire.Credentials, decoded.Taobao); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidSettings, err)
		}
	case MarketplaceDouyin:
		decoded.Douyin = &DouyinCredentials{}
		if err := json.Unmarshal(wire.Credentials, decoded.Douyin); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidSettings, err)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedMarketplace, wire.Type)
	}

	if err := decoded.Validate(); err != nil {
		return err
	}
	*s = decoded
	return nil
}

// BaseURL returns the API base URL of the populated variant
func (s Settings) BaseURL() string {
	switch {
	case s.Taobao != nil:
		return s.Taobao.BaseURL
	case s.Douyin != nil:
		return s.Douyin.BaseURL
	}
	return ""
}
