package bidding

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"bidvista/internal/auctionerrors"
	"bidvista/internal/models"
	"bidvista/internal/notifier"
	"bidvista/internal/repository"
	"bidvista/utils"

	"github.com/shopspring/decimal"
)

// monetaryPrecision is the number of decimal places bid amounts carry.
const monetaryPrecision int32 = 2

// maxBidRetries bounds how often a bid re-validates after losing a
// compare-and-swap race against another process.
const maxBidRetries = 3

// EventDispatcher receives bid and settlement outcomes. Handoff must
// not block the calling operation.
type EventDispatcher interface {
	Dispatch(event notifier.Event)
}

// BidOptions carries the optional proxy-bidding fields. They are
// stored on the bid record but never auto-executed.
type BidOptions struct {
	MaxBid  float64
	AutoBid bool
}

// AuctionInput holds the listing fields a seller controls.
type AuctionInput struct {
	Title          string
	Description    string
	Category       string
	StartingBid    float64
	BidIncrement   float64
	Image          string
	EndTime        time.Time
	ShippingCost   float64
	ShippingMethod string
	Condition      string
	Details        map[string]string
}

// BiddingService implements the auction bidding and lifecycle rules.
type BiddingService struct {
	store      repository.Store
	dispatcher EventDispatcher
	locks      *auctionLocks

	now func() time.Time
}

// NewBiddingService creates a new BiddingService instance.
func NewBiddingService(store repository.Store, dispatcher EventDispatcher) *BiddingService {
	return &BiddingService{
		store:      store,
		dispatcher: dispatcher,
		locks:      newAuctionLocks(),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// auctionLocks serializes bids per auction. Entries are reference
// counted and removed once the last holder releases, so the map only
// holds auctions with bids currently in flight.
type auctionLocks struct {
	mu      sync.Mutex
	entries map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newAuctionLocks() *auctionLocks {
	return &auctionLocks{entries: make(map[string]*lockEntry)}
}

func (l *auctionLocks) lock(auctionID string) {
	l.mu.Lock()
	e, ok := l.entries[auctionID]
	if !ok {
		e = &lockEntry{}
		l.entries[auctionID] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
}

func (l *auctionLocks) unlock(auctionID string) {
	l.mu.Lock()
	e := l.entries[auctionID]
	e.refs--
	if e.refs == 0 {
		delete(l.entries, auctionID)
	}
	l.mu.Unlock()

	e.mu.Unlock()
}

// meetsMinimum compares amounts as decimals rounded to monetary
// precision so float representation noise cannot accept a short bid.
func meetsMinimum(amount, minimum float64) bool {
	a := decimal.NewFromFloat(amount).Round(monetaryPrecision)
	m := decimal.NewFromFloat(minimum).Round(monetaryPrecision)
	return a.GreaterThanOrEqual(m)
}

// PlaceBid validates and records a bid on an auction. Bids on the same
// auction serialize on a per-auction lock; the store-level
// compare-and-swap covers racing processes, and a losing bid
// re-validates against the fresh snapshot before retrying.
func (s *BiddingService) PlaceBid(ctx context.Context, auctionID, bidderID string, amount float64, opts BidOptions) (models.Bid, error) {
	if auctionID == "" || bidderID == "" {
		return models.Bid{}, fmt.Errorf("service: %w - missing auctionID or bidderID", auctionerrors.ErrInvalidInput)
	}
	if amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return models.Bid{}, fmt.Errorf("service: %w - non-positive bid amount", auctionerrors.ErrInvalidInput)
	}

	s.locks.lock(auctionID)
	defer s.locks.unlock(auctionID)

	var lastErr error
	for attempt := 0; attempt < maxBidRetries; attempt++ {
		auction, err := s.store.GetAuction(ctx, auctionID)
		if err != nil {
			return models.Bid{}, fmt.Errorf("service: failed to load auction %s: %w", auctionID, err)
		}

		if err := validateBidAgainst(auction, bidderID, amount, s.now()); err != nil {
			return models.Bid{}, err
		}

		maxBid := opts.MaxBid
		if maxBid < amount {
			maxBid = amount
		}
		bid := models.Bid{
			BidID:     utils.GenerateID(),
			AuctionID: auctionID,
			UserID:    bidderID,
			Amount:    amount,
			MaxBid:    maxBid,
			AutoBid:   opts.AutoBid,
			CreatedAt: s.now(),
		}

		// The store applies the auction update and the ledger append
		// atomically; the CAS on the bid count is what guarantees no
		// two bids are accepted against the same stale current bid,
		// and the status guard rejects a bid racing a settlement.
		if err := s.store.RecordBid(ctx, bid, auction.BidCount); err != nil {
			if errors.Is(err, auctionerrors.ErrConflict) {
				lastErr = err
				continue
			}
			return models.Bid{}, fmt.Errorf("service: failed to record bid for auction %s by user %s: %w", auctionID, bidderID, err)
		}

		// Never on the first bid, never when a bidder raises themselves.
		if auction.CurrentBidderID != "" && auction.CurrentBidderID != bidderID {
			s.dispatcher.Dispatch(notifier.OutbidEvent{
				PreviousBidderID: auction.CurrentBidderID,
				AuctionID:        auctionID,
				NewAmount:        amount,
			})
		}

		return bid, nil
	}

	return models.Bid{}, fmt.Errorf("service: bid on auction %s lost update race: %w", auctionID, lastErr)
}

// validateBidAgainst applies the bid preconditions in the same order
// the API surfaces them: closed, self-bid, then minimum amount.
func validateBidAgainst(auction models.Auction, bidderID string, amount float64, now time.Time) error {
	if auction.Status != models.StatusActive || auction.Ended(now) {
		return fmt.Errorf("service: %w", auctionerrors.ErrAuctionClosed)
	}
	if auction.SellerID == bidderID {
		return fmt.Errorf("service: %w", auctionerrors.ErrSelfBid)
	}
	if minimum := auction.MinimumNextBid(); !meetsMinimum(amount, minimum) {
		return fmt.Errorf("service: %w - bid must be at least %.2f", auctionerrors.ErrBidTooLow, minimum)
	}
	return nil
}

// GetAuction returns an auction by ID.
func (s *BiddingService) GetAuction(ctx context.Context, auctionID string) (models.Auction, error) {
	if auctionID == "" {
		return models.Auction{}, fmt.Errorf("service: %w - empty auction ID", auctionerrors.ErrInvalidInput)
	}
	auction, err := s.store.GetAuction(ctx, auctionID)
	if err != nil {
		return models.Auction{}, fmt.Errorf("service: failed to get auction %s: %w", auctionID, err)
	}
	return auction, nil
}

// ViewAuction returns an auction and bumps its view counter. A failed
// counter write is logged, not surfaced; the read still succeeds.
func (s *BiddingService) ViewAuction(ctx context.Context, auctionID string) (models.Auction, error) {
	auction, err := s.GetAuction(ctx, auctionID)
	if err != nil {
		return models.Auction{}, err
	}
	if err := s.store.IncrementViews(ctx, auctionID); err != nil {
		utils.Warn("service: failed to increment views", map[string]any{
			"auction_id": auctionID,
			"error":      err.Error(),
		})
	} else {
		auction.ViewCount++
	}
	return auction, nil
}

// ListAuctions returns all active, not yet ended auctions.
func (s *BiddingService) ListAuctions(ctx context.Context) ([]models.Auction, error) {
	auctions, err := s.store.ListActiveAuctions(ctx, s.now())
	if err != nil {
		return nil, fmt.Errorf("service: failed to list auctions: %w", err)
	}
	return auctions, nil
}

// FeaturedAuctions returns the most popular active auctions.
func (s *BiddingService) FeaturedAuctions(ctx context.Context, limit int) ([]models.Auction, error) {
	if limit <= 0 {
		limit = 8
	}
	auctions, err := s.store.ListFeaturedAuctions(ctx, s.now(), limit)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list featured auctions: %w", err)
	}
	return auctions, nil
}

// GetBidsForAuction returns an auction's bids, highest first.
func (s *BiddingService) GetBidsForAuction(ctx context.Context, auctionID string) ([]models.Bid, error) {
	if auctionID == "" {
		return nil, fmt.Errorf("service: %w - empty auction ID", auctionerrors.ErrInvalidInput)
	}
	bids, err := s.store.ListBidsByAuction(ctx, auctionID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get bids for auction %s: %w", auctionID, err)
	}
	return bids, nil
}

// GetBidsForUser returns a user's bids, newest first.
func (s *BiddingService) GetBidsForUser(ctx context.Context, userID string) ([]models.Bid, error) {
	if userID == "" {
		return nil, fmt.Errorf("service: %w - empty user ID", auctionerrors.ErrInvalidInput)
	}
	bids, err := s.store.ListBidsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get bids for user %s: %w", userID, err)
	}
	return bids, nil
}

// CreateAuction creates a new active listing owned by sellerID.
func (s *BiddingService) CreateAuction(ctx context.Context, sellerID string, input AuctionInput) (models.Auction, error) {
	if sellerID == "" {
		return models.Auction{}, fmt.Errorf("service: %w - empty seller ID", auctionerrors.ErrInvalidInput)
	}
	if err := validateAuctionInput(input, s.now()); err != nil {
		return models.Auction{}, err
	}

	now := s.now()
	increment := input.BidIncrement
	if increment <= 0 {
		increment = models.DefaultBidIncrement
	}
	auction := models.Auction{
		AuctionID:    utils.GenerateID(),
		Title:        input.Title,
		Description:  input.Description,
		Category:     input.Category,
		StartingBid:  input.StartingBid,
		BidIncrement: increment,
		SellerID:     sellerID,
		Image:        input.Image,
		EndTime:      input.EndTime,
		CreatedAt:    now,
		UpdatedAt:    now,
		Shipping:     models.Shipping{Cost: input.ShippingCost, Method: input.ShippingMethod},
		Condition:    input.Condition,
		Status:       models.StatusActive,
		Details:      input.Details,
	}

	if err := s.store.CreateAuction(ctx, auction); err != nil {
		return models.Auction{}, fmt.Errorf("service: failed to create auction: %w", err)
	}
	return auction, nil
}

// UpdateAuction edits a listing. Only the owner may edit, and only
// while the auction has no bids; the end time is therefore immutable
// once bidding has started.
func (s *BiddingService) UpdateAuction(ctx context.Context, auctionID, callerID string, input AuctionInput) (models.Auction, error) {
	auction, err := s.GetAuction(ctx, auctionID)
	if err != nil {
		return models.Auction{}, err
	}
	if auction.SellerID != callerID {
		return models.Auction{}, fmt.Errorf("service: %w - only the owner may edit an auction", auctionerrors.ErrForbidden)
	}
	if auction.BidCount > 0 {
		return models.Auction{}, fmt.Errorf("service: %w", auctionerrors.ErrHasBids)
	}
	if err := validateAuctionInput(input, s.now()); err != nil {
		return models.Auction{}, err
	}

	auction.Title = input.Title
	auction.Description = input.Description
	auction.Category = input.Category
	auction.StartingBid = input.StartingBid
	if input.BidIncrement > 0 {
		auction.BidIncrement = input.BidIncrement
	}
	auction.Image = input.Image
	auction.EndTime = input.EndTime
	auction.Shipping = models.Shipping{Cost: input.ShippingCost, Method: input.ShippingMethod}
	auction.Condition = input.Condition
	auction.Details = input.Details
	auction.UpdatedAt = s.now()

	if err := s.store.UpdateAuction(ctx, auction); err != nil {
		return models.Auction{}, fmt.Errorf("service: failed to update auction %s: %w", auctionID, err)
	}
	return auction, nil
}

// DeleteAuction removes a listing. Only the owner may delete, and only
// while the auction has no bids.
func (s *BiddingService) DeleteAuction(ctx context.Context, auctionID, callerID string) error {
	auction, err := s.GetAuction(ctx, auctionID)
	if err != nil {
		return err
	}
	if auction.SellerID != callerID {
		return fmt.Errorf("service: %w - only the owner may delete an auction", auctionerrors.ErrForbidden)
	}
	if auction.BidCount > 0 {
		return fmt.Errorf("service: %w", auctionerrors.ErrHasBids)
	}
	if err := s.store.DeleteAuction(ctx, auctionID); err != nil {
		return fmt.Errorf("service: failed to delete auction %s: %w", auctionID, err)
	}
	return nil
}

// SellerAuctions returns all listings owned by a seller, newest first.
func (s *BiddingService) SellerAuctions(ctx context.Context, sellerID string) ([]models.Auction, error) {
	if sellerID == "" {
		return nil, fmt.Errorf("service: %w - empty seller ID", auctionerrors.ErrInvalidInput)
	}
	auctions, err := s.store.ListBySeller(ctx, sellerID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list auctions for seller %s: %w", sellerID, err)
	}
	return auctions, nil
}

// SellerStats aggregates a seller's listing performance. The
// conversion rate is sold listings over ended listings, as a rounded
// percentage, zero when nothing has ended yet.
func (s *BiddingService) SellerStats(ctx context.Context, sellerID string) (models.SellerStats, error) {
	auctions, err := s.SellerAuctions(ctx, sellerID)
	if err != nil {
		return models.SellerStats{}, err
	}

	now := s.now()
	var stats models.SellerStats
	stats.TotalAuctions = len(auctions)

	var ended int
	for _, a := range auctions {
		stats.TotalBids += a.BidCount
		switch {
		case a.Status == models.StatusSold:
			stats.SoldItems++
			stats.TotalSales += a.CurrentBid
			ended++
		case a.Status == models.StatusExpired:
			ended++
		case a.Status == models.StatusActive && a.Ended(now):
			// Ended but not yet swept; counts against conversion.
			ended++
		case a.Status == models.StatusActive:
			stats.ActiveListings++
		}
	}

	if ended > 0 {
		stats.ConversionRate = int(math.Round(float64(stats.SoldItems) / float64(ended) * 100))
	}
	return stats, nil
}

// Watch adds an auction to a user's watchlist.
func (s *BiddingService) Watch(ctx context.Context, userID, auctionID string) (models.WatchlistEntry, error) {
	if _, err := s.GetAuction(ctx, auctionID); err != nil {
		return models.WatchlistEntry{}, err
	}
	entry, err := s.store.AddToWatchlist(ctx, userID, auctionID)
	if err != nil {
		return models.WatchlistEntry{}, fmt.Errorf("service: failed to add watchlist entry: %w", err)
	}
	return entry, nil
}

// Unwatch removes an auction from a user's watchlist.
func (s *BiddingService) Unwatch(ctx context.Context, userID, auctionID string) error {
	if err := s.store.RemoveFromWatchlist(ctx, userID, auctionID); err != nil {
		return fmt.Errorf("service: failed to remove watchlist entry: %w", err)
	}
	return nil
}

// IsWatching reports whether the user watches the auction.
func (s *BiddingService) IsWatching(ctx context.Context, userID, auctionID string) (bool, error) {
	watched, err := s.store.IsWatched(ctx, userID, auctionID)
	if err != nil {
		return false, fmt.Errorf("service: failed to check watchlist: %w", err)
	}
	return watched, nil
}

// WatchedAuctions returns the auctions on a user's watchlist.
func (s *BiddingService) WatchedAuctions(ctx context.Context, userID string) ([]models.Auction, error) {
	auctions, err := s.store.ListWatchedAuctions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list watchlist: %w", err)
	}
	return auctions, nil
}

func validateAuctionInput(input AuctionInput, now time.Time) error {
	if input.Title == "" {
		return fmt.Errorf("service: %w - missing title", auctionerrors.ErrInvalidInput)
	}
	if input.StartingBid <= 0 {
		return fmt.Errorf("service: %w - starting bid must be positive", auctionerrors.ErrInvalidInput)
	}
	if !input.EndTime.After(now) {
		return fmt.Errorf("service: %w - end time must be in the future", auctionerrors.ErrInvalidInput)
	}
	return nil
}
