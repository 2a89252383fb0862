package ecommerce

import (
	"maps"
	"strings"

	"github.com/invsync/backend/internal/domain/catalog"
	"github.com/invsync/backend/internal/domain/trade"
)

// productStatusTable collapses marketplace product states into the local
// vocabulary. Unknown values map to active.
var productStatusTable = map[string]catalog.ProductStatus{
	"active":       catalog.ProductStatusActive,
	"onsale":       catalog.ProductStatusActive,
	"on_sale":      catalog.ProductStatusActive,
	"online":       catalog.ProductStatusActive,
	"listed":       catalog.ProductStatusActive,
	"published":    catalog.ProductStatusActive,
	"enabled":      catalog.ProductStatusActive,
	"inactive":     catalog.ProductStatusInactive,
	"instock":      catalog.ProductStatusInactive,
	"offline":      catalog.ProductStatusInactive,
	"unlisted":     catalog.ProductStatusInactive,
	"draft":        catalog.ProductStatusInactive,
	"disabled":     catalog.ProductStatusInactive,
	"paused":       catalog.ProductStatusInactive,
	"hidden":       catalog.ProductStatusInactive,
	"discontinued": catalog.ProductStatusDiscontinued,
	"deleted":      catalog.ProductStatusDiscontinued,
	"archived":     catalog.ProductStatusDiscontinued,
	"retired":      catalog.ProductStatusDiscontinued,
	"banned":       catalog.ProductStatusDiscontinued,
	"removed":      catalog.ProductStatusDiscontinued,
}

// orderStatusTable collapses marketplace order states. Unknown values map to pending.
var orderStatusTable = map[string]trade.OrderStatus{
	"pending":                  trade.OrderStatusPending,
	"new":                      trade.OrderStatusPending,
	"created":                  trade.OrderStatusPending,
	"unpaid":                   trade.OrderStatusPending,
	"awaiting_payment":         trade.OrderStatusPending,
	"wait_buyer_pay":           trade.OrderStatusPending,
	"processing":               trade.OrderStatusProcessing,
	"paid":                     trade.OrderStatusProcessing,
	"confirmed":                trade.OrderStatusProcessing,
	"accepted":                 trade.OrderStatusProcessing,
	"pending_shipment":         trade.OrderStatusProcessing,
	"ready_to_ship":            trade.OrderStatusProcessing,
	"wait_seller_send_goods":   trade.OrderStatusProcessing,
	"shipped":                  trade.OrderStatusShipped,
	"in_transit":               trade.OrderStatusShipped,
	"dispatched":               trade.OrderStatusShipped,
	"fulfilled":                trade.OrderStatusShipped,
	"wait_buyer_confirm_goods": trade.OrderStatusShipped,
	"delivered":                trade.OrderStatusDelivered,
	"completed":                trade.OrderStatusDelivered,
	"complete":                 trade.OrderStatusDelivered,
	"finished":                 trade.OrderStatusDelivered,
	"trade_buyer_signed":       trade.OrderStatusDelivered,
	"trade_finished":           trade.OrderStatusDelivered,
	"cancelled":                trade.OrderStatusCancelled,
	"canceled":                 trade.OrderStatusCancelled,
	"closed":                   trade.OrderStatusCancelled,
	"voided":                   trade.OrderStatusCancelled,
	"trade_closed":             trade.OrderStatusCancelled,
	"trade_closed_by_taobao":   trade.OrderStatusCancelled,
	"returned":                 trade.OrderStatusReturned,
	"refunded":                 trade.OrderStatusReturned,
	"refunding":                trade.OrderStatusReturned,
	"return_requested":         trade.OrderStatusReturned,
}

// paymentStatusTable collapses marketplace payment states
var paymentStatusTable = map[string]trade.PaymentStatus{
	"pending":            trade.PaymentStatusPending,
	"unpaid":             trade.PaymentStatusPending,
	"authorized":         trade.PaymentStatusPending,
	"wait_buyer_pay":     trade.PaymentStatusPending,
	"paid":               trade.PaymentStatusPaid,
	"success":            trade.PaymentStatusPaid,
	"completed":          trade.PaymentStatusPaid,
	"captured":           trade.PaymentStatusPaid,
	"settled":            trade.PaymentStatusPaid,
	"refunded":           trade.PaymentStatusRefunded,
	"partially_refunded": trade.PaymentStatusRefunded,
	"refund_success":     trade.PaymentStatusRefunded,
	"failed":             trade.PaymentStatusFailed,
	"declined":           trade.PaymentStatusFailed,
	"voided":             trade.PaymentStatusFailed,
}

// douyinProductStatuses are the numeric product states of Douyin shops
var douyinProductStatuses = map[string]catalog.ProductStatus{
	"0": catalog.ProductStatusActive,
	"1": catalog.ProductStatusInactive,
	"2": catalog.ProductStatusDiscontinued,
}

// douyinOrderStatuses are the numeric order states of Douyin shops
var douyinOrderStatuses = map[string]trade.OrderStatus{
	"1": trade.OrderStatusPending,
	"2": trade.OrderStatusProcessing,
	"3": trade.OrderStatusShipped,
	"4": trade.OrderStatusDelivered,
	"5": trade.OrderStatusCancelled,
	"6": trade.OrderStatusReturned,
	"7": trade.OrderStatusReturned,
}

// statusKey normalises a raw status for table lookup
func statusKey(raw string) string {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.ReplaceAll(key, "-", "_")
	return strings.ReplaceAll(key, " ", "_")
}

// mergeTables returns base overlaid with extra
func mergeTables[V any](base, extra map[string]V) map[string]V {
	merged := make(map[string]V, len(base)+len(extra))
	maps.Copy(merged, base)
	maps.Copy(merged, extra)
	return merged
}

// derivePaymentStatus infers payment from the order lifecycle when the
// marketplace does not report it separately
func derivePaymentStatus(status trade.OrderStatus) trade.PaymentStatus {
	switch status {
	case trade.OrderStatusProcessing, trade.OrderStatusShipped, trade.OrderStatusDelivered:
		return trade.PaymentStatusPaid
	case trade.OrderStatusReturned:
		return trade.PaymentStatusRefunded
	default:
		return trade.PaymentStatusPending
	}
}
