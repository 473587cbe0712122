package usecase

import "time"

const (
	// DefaultTransactionTimeout bounds a single database transaction so a
	// stuck lock wait cannot hold rows indefinitely.
	DefaultTransactionTimeout = 10 * time.Second

	// IdempotencyKeyTTL is how long HTTP-level idempotency responses are cached.
	IdempotencyKeyTTL = 24 * time.Hour

	// MaxOrphanPageSize caps one orphan detection pass.
	MaxOrphanPageSize = 500
)

// Business types recorded on asset transactions.
const (
	BusinessListingFreeze   = "market_listing_freeze"
	BusinessListingWithdraw = "market_listing_withdraw"
	BusinessOrderFreeze     = "market_order_freeze"
	BusinessOrderCancel     = "market_order_cancel"
	BusinessOrderPayment    = "market_order_payment"
	BusinessSaleProceeds    = "market_sale_proceeds"
	BusinessAssetRelease    = "market_asset_release"
	BusinessAssetDelivery   = "market_asset_delivery"
	BusinessOrphanCleanup   = "orphan_frozen_cleanup"
)
