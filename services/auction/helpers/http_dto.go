package helpers

// Request/Response DTOs
type PlaceBidRequest struct {
	Amount  float64 `json:"amount" binding:"required,gt=0"`
	MaxBid  float64 `json:"max_bid"`
	AutoBid bool    `json:"auto_bid"`
}

type AuctionRequest struct {
	Title          string            `json:"title" binding:"required"`
	Description    string            `json:"description"`
	Category       string            `json:"category"`
	StartingBid    float64           `json:"starting_bid" binding:"required,gt=0"`
	BidIncrement   float64           `json:"bid_increment"`
	Image          string            `json:"image"`
	Duration       int               `json:"duration" binding:"required,gt=0"` // listing length in days
	ShippingCost   float64           `json:"shipping_cost"`
	ShippingMethod string            `json:"shipping_method"`
	Condition      string            `json:"condition"`
	Details        map[string]string `json:"details"`
}

type WatchlistActionRequest struct {
	Action string `json:"action" binding:"required,oneof=add remove"`
}

type BidResponse struct {
	BidID     string  `json:"bid_id"`
	AuctionID string  `json:"auction_id"`
	UserID    string  `json:"user_id"`
	Amount    float64 `json:"amount"`
	MaxBid    float64 `json:"max_bid,omitempty"`
	AutoBid   bool    `json:"auto_bid,omitempty"`
	CreatedAt string  `json:"created_at"`
}

type Category struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
}
