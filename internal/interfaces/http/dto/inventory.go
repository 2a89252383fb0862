package dto

// AdjustStockRequest changes the local quantity of one product on one
// marketplace
type AdjustStockRequest struct {
	ProductID     string `json:"product_id" binding:"required,uuid"`
	MarketplaceID string `json:"marketplace_id" binding:"required,uuid"`
	Type          string `json:"type" binding:"required,oneof=increase decrease"`
	Quantity      int    `json:"quantity" binding:"required,gt=0,lte=2147483647"`
	Reason        string `json:"reason" binding:"max=500"`
}
