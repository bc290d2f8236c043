package notifier

// Event is a settlement or bid outcome produced by the bidding engine
// or the lifecycle sweeper and consumed by the Dispatcher.
type Event interface {
	Kind() string
}

// OutbidEvent fires when a new bid supersedes a distinct prior bidder.
type OutbidEvent struct {
	PreviousBidderID string
	AuctionID        string
	NewAmount        float64
}

func (OutbidEvent) Kind() string { return "outbid" }

// AuctionWonEvent fires once when an auction settles as sold.
type AuctionWonEvent struct {
	AuctionID string
	WinnerID  string
	FinalBid  float64
}

func (AuctionWonEvent) Kind() string { return "auction_won" }

// AuctionSettledEvent informs the seller that their auction sold.
type AuctionSettledEvent struct {
	AuctionID string
	SellerID  string
	WinnerID  string
	FinalBid  float64
}

func (AuctionSettledEvent) Kind() string { return "auction_settled" }

// AuctionUnsoldEvent informs the seller that their auction expired
// without bids.
type AuctionUnsoldEvent struct {
	AuctionID string
	SellerID  string
}

func (AuctionUnsoldEvent) Kind() string { return "auction_unsold" }
