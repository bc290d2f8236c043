package models

import "time"

// Auction status values. Transitions out of StatusActive are terminal.
const (
	StatusActive  = "active"
	StatusSold    = "sold"
	StatusExpired = "expired"
	StatusDraft   = "draft"
)

// DefaultBidIncrement is the minimum step applied when an auction
// does not set its own increment.
const DefaultBidIncrement = 5.0

// User represents a participant in the marketplace. Accounts are
// managed by the external identity provider; this record is the
// read-only projection the engine needs for notifications.
type User struct {
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"` // "buyer" or "seller"
	CreatedAt time.Time `json:"created_at"`
}

// Shipping describes how a sold item is delivered.
type Shipping struct {
	Cost   float64 `json:"cost"`
	Method string  `json:"method"`
}

// Auction represents a listing. CurrentBid stays zero until the first
// bid is accepted; after that it only increases. Status moves from
// active to sold or expired exactly once.
type Auction struct {
	AuctionID       string            `json:"auction_id"`
	Title           string            `json:"title"`
	Description     string            `json:"description"`
	Category        string            `json:"category"`
	StartingBid     float64           `json:"starting_bid"`
	CurrentBid      float64           `json:"current_bid"`
	BidIncrement    float64           `json:"bid_increment"`
	SellerID        string            `json:"seller_id"`
	CurrentBidderID string            `json:"current_bidder_id,omitempty"`
	Image           string            `json:"image,omitempty"`
	EndTime         time.Time         `json:"end_time"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
	Shipping        Shipping          `json:"shipping"`
	Condition       string            `json:"condition"`
	Status          string            `json:"status"`
	BidCount        int               `json:"bid_count"`
	ViewCount       int               `json:"view_count"`
	Details         map[string]string `json:"details,omitempty"`
}

// Ended reports whether the auction's end time has passed.
func (a Auction) Ended(now time.Time) bool {
	return !now.Before(a.EndTime)
}

// MinimumNextBid returns the lowest amount the next bid may carry.
func (a Auction) MinimumNextBid() float64 {
	if a.CurrentBid > 0 {
		inc := a.BidIncrement
		if inc <= 0 {
			inc = DefaultBidIncrement
		}
		return a.CurrentBid + inc
	}
	return a.StartingBid
}

// Bid represents a user's bid on an auction. Bids are append-only and
// never modified after creation. MaxBid and AutoBid are stored for
// proxy bidding but the engine does not execute them.
type Bid struct {
	BidID     string    `json:"bid_id"`
	AuctionID string    `json:"auction_id"`
	UserID    string    `json:"user_id"`
	Amount    float64   `json:"amount"`
	MaxBid    float64   `json:"max_bid,omitempty"`
	AutoBid   bool      `json:"auto_bid,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// WatchlistEntry marks that a user is watching an auction.
type WatchlistEntry struct {
	UserID    string    `json:"user_id"`
	AuctionID string    `json:"auction_id"`
	AddedAt   time.Time `json:"added_at"`
}

// SellerStats summarizes a seller's listing performance.
type SellerStats struct {
	ActiveListings int     `json:"activeListings"`
	SoldItems      int     `json:"soldItems"`
	TotalSales     float64 `json:"totalSales"`
	TotalBids      int     `json:"totalBids"`
	ConversionRate int     `json:"conversionRate"`
	TotalAuctions  int     `json:"totalAuctions"`
}
