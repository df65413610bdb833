package book

// Trade is an append-only log entry for one resting-order fill (spec
// §3 Trade).
type Trade struct {
	Time             uint64 `json:"time"`
	Price            uint64 `json:"price"`
	Volume           uint64 `json:"volume"`
	AggressorOrderID uint64 `json:"aggressor_order_id"`
	RestingOrderID   uint64 `json:"resting_order_id"`
	AggressorSide    Side   `json:"aggressor_side"`
}
