package repository

import (
	"context"
	"time"

	model "bidvista/internal/models"
)

//go:generate mockgen -source=repository.go -destination=mock_repository.go -package=repository

// AuctionStore defines auction record storage for the marketplace.
// RecordBid and SettleAuction carry compare-and-swap semantics so
// concurrent bids and overlapping sweeps serialize correctly.
type AuctionStore interface {
	GetAuction(ctx context.Context, auctionID string) (model.Auction, error)
	CreateAuction(ctx context.Context, auction model.Auction) error
	UpdateAuction(ctx context.Context, auction model.Auction) error
	DeleteAuction(ctx context.Context, auctionID string) error
	ListActiveAuctions(ctx context.Context, now time.Time) ([]model.Auction, error)
	ListFeaturedAuctions(ctx context.Context, now time.Time, limit int) ([]model.Auction, error)
	ListBySeller(ctx context.Context, sellerID string) ([]model.Auction, error)
	ListExpiredUnsettled(ctx context.Context, now time.Time) ([]model.Auction, error)

	// RecordBid applies a new highest bid and appends the bid record
	// in one atomic step, so the auction state and the ledger cannot
	// diverge. It fails with ErrConflict when the auction's bid count
	// no longer matches expectedBidCount, i.e. another bid won the
	// race, and with ErrAuctionClosed when the auction is no longer
	// active.
	RecordBid(ctx context.Context, bid model.Bid, expectedBidCount int) error

	// SettleAuction transitions an active auction to the given terminal
	// status. It returns false without error when the auction is no
	// longer active, making settlement idempotent.
	SettleAuction(ctx context.Context, auctionID string, status string) (bool, error)

	IncrementViews(ctx context.Context, auctionID string) error
}

// BidLedger is the append-only store of bids.
type BidLedger interface {
	AppendBid(ctx context.Context, bid model.Bid) error

	// ListBidsByAuction returns bids sorted by amount descending;
	// equal amounts keep the earliest bid first.
	ListBidsByAuction(ctx context.Context, auctionID string) ([]model.Bid, error)

	// ListBidsByUser returns a user's bids, newest first.
	ListBidsByUser(ctx context.Context, userID string) ([]model.Bid, error)
}

// WatchlistStore tracks which users watch which auctions.
type WatchlistStore interface {
	AddToWatchlist(ctx context.Context, userID, auctionID string) (model.WatchlistEntry, error)
	RemoveFromWatchlist(ctx context.Context, userID, auctionID string) error
	IsWatched(ctx context.Context, userID, auctionID string) (bool, error)
	ListWatchedAuctions(ctx context.Context, userID string) ([]model.Auction, error)
}

// UserDirectory resolves user records for notification lookups.
// Account management itself lives in the external identity provider.
type UserDirectory interface {
	GetUser(ctx context.Context, userID string) (model.User, error)
}

// Store bundles every storage concern the engine consumes.
type Store interface {
	AuctionStore
	BidLedger
	WatchlistStore
	UserDirectory
}
