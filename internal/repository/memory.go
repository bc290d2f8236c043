package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"bidvista/internal/auctionerrors"
	model "bidvista/internal/models"
)

// MemoryStore is a concurrency-safe in-memory implementation of Store.
type MemoryStore struct {
	mu        sync.RWMutex
	auctions  map[string]model.Auction        // key: auctionID
	bids      map[string][]model.Bid          // key: auctionID -> bids in insertion order
	users     map[string]model.User           // key: userID
	watchlist map[string]model.WatchlistEntry // key: userID + "/" + auctionID
}

// NewMemoryStore creates a new in-memory store instance.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		auctions:  make(map[string]model.Auction),
		bids:      make(map[string][]model.Bid),
		users:     make(map[string]model.User),
		watchlist: make(map[string]model.WatchlistEntry),
	}
}

func watchKey(userID, auctionID string) string {
	return userID + "/" + auctionID
}

// GetAuction returns the auction with the given ID.
func (s *MemoryStore) GetAuction(ctx context.Context, auctionID string) (model.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.auctions[auctionID]
	if !ok {
		return model.Auction{}, fmt.Errorf("get auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	return a, nil
}

// CreateAuction stores a new auction record.
func (s *MemoryStore) CreateAuction(ctx context.Context, auction model.Auction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.auctions[auction.AuctionID] = auction
	return nil
}

// UpdateAuction replaces the stored auction record.
func (s *MemoryStore) UpdateAuction(ctx context.Context, auction model.Auction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.auctions[auction.AuctionID]; !ok {
		return fmt.Errorf("update auction %s: %w", auction.AuctionID, auctionerrors.ErrAuctionNotFound)
	}
	s.auctions[auction.AuctionID] = auction
	return nil
}

// DeleteAuction removes the auction record.
func (s *MemoryStore) DeleteAuction(ctx context.Context, auctionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.auctions[auctionID]; !ok {
		return fmt.Errorf("delete auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	delete(s.auctions, auctionID)
	return nil
}

// ListActiveAuctions returns active, not yet ended auctions sorted by
// end time ascending (soonest ending first).
func (s *MemoryStore) ListActiveAuctions(ctx context.Context, now time.Time) ([]model.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Auction
	for _, a := range s.auctions {
		if a.Status == model.StatusActive && a.EndTime.After(now) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EndTime.Before(out[j].EndTime) })
	return out, nil
}

// ListFeaturedAuctions returns the most bid-on active auctions.
func (s *MemoryStore) ListFeaturedAuctions(ctx context.Context, now time.Time, limit int) ([]model.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Auction
	for _, a := range s.auctions {
		if a.Status == model.StatusActive && a.EndTime.After(now) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BidCount > out[j].BidCount })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ListBySeller returns a seller's auctions, newest first.
func (s *MemoryStore) ListBySeller(ctx context.Context, sellerID string) ([]model.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Auction
	for _, a := range s.auctions {
		if a.SellerID == sellerID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// ListExpiredUnsettled returns active auctions whose end time has passed.
func (s *MemoryStore) ListExpiredUnsettled(ctx context.Context, now time.Time) ([]model.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Auction
	for _, a := range s.auctions {
		if a.Status == model.StatusActive && !a.EndTime.After(now) {
			out = append(out, a)
		}
	}
	return out, nil
}

// RecordBid applies a new highest bid and appends the bid to the
// ledger under one lock, compare-and-swap on the bid count. A settled
// auction rejects the bid outright even if the count still matches.
func (s *MemoryStore) RecordBid(ctx context.Context, bid model.Bid, expectedBidCount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.auctions[bid.AuctionID]
	if !ok {
		return fmt.Errorf("record bid for auction %s: %w", bid.AuctionID, auctionerrors.ErrAuctionNotFound)
	}
	if a.Status != model.StatusActive {
		return fmt.Errorf("record bid for auction %s: %w", bid.AuctionID, auctionerrors.ErrAuctionClosed)
	}
	if a.BidCount != expectedBidCount {
		return fmt.Errorf("record bid for auction %s: %w", bid.AuctionID, auctionerrors.ErrConflict)
	}

	a.CurrentBid = bid.Amount
	a.CurrentBidderID = bid.UserID
	a.BidCount++
	a.UpdatedAt = time.Now().UTC()
	s.auctions[bid.AuctionID] = a
	s.bids[bid.AuctionID] = append(s.bids[bid.AuctionID], bid)
	return nil
}

// SettleAuction transitions an active auction to a terminal status.
// Returns false when the auction was already settled.
func (s *MemoryStore) SettleAuction(ctx context.Context, auctionID string, status string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.auctions[auctionID]
	if !ok {
		return false, fmt.Errorf("settle auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	if a.Status != model.StatusActive {
		return false, nil
	}

	a.Status = status
	a.UpdatedAt = time.Now().UTC()
	s.auctions[auctionID] = a
	return true, nil
}

// IncrementViews bumps the auction's view counter.
func (s *MemoryStore) IncrementViews(ctx context.Context, auctionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.auctions[auctionID]
	if !ok {
		return fmt.Errorf("increment views for auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	a.ViewCount++
	s.auctions[auctionID] = a
	return nil
}

// AppendBid records a bid in the ledger.
func (s *MemoryStore) AppendBid(ctx context.Context, bid model.Bid) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.auctions[bid.AuctionID]; !ok {
		return fmt.Errorf("append bid for auction %s: %w", bid.AuctionID, auctionerrors.ErrAuctionNotFound)
	}
	s.bids[bid.AuctionID] = append(s.bids[bid.AuctionID], bid)
	return nil
}

// ListBidsByAuction returns bids sorted highest amount first, equal
// amounts keep the earlier bid ahead.
func (s *MemoryStore) ListBidsByAuction(ctx context.Context, auctionID string) ([]model.Bid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bids := append([]model.Bid(nil), s.bids[auctionID]...)
	sort.SliceStable(bids, func(i, j int) bool {
		if bids[i].Amount != bids[j].Amount {
			return bids[i].Amount > bids[j].Amount
		}
		return bids[i].CreatedAt.Before(bids[j].CreatedAt)
	})
	return bids, nil
}

// ListBidsByUser returns a user's bids across auctions, newest first.
func (s *MemoryStore) ListBidsByUser(ctx context.Context, userID string) ([]model.Bid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Bid
	for _, bids := range s.bids {
		for _, b := range bids {
			if b.UserID == userID {
				out = append(out, b)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// AddToWatchlist records that a user watches an auction. Re-adding an
// existing entry is a no-op overwrite.
func (s *MemoryStore) AddToWatchlist(ctx context.Context, userID, auctionID string) (model.WatchlistEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := model.WatchlistEntry{UserID: userID, AuctionID: auctionID, AddedAt: time.Now().UTC()}
	s.watchlist[watchKey(userID, auctionID)] = entry
	return entry, nil
}

// RemoveFromWatchlist removes a watchlist entry if present.
func (s *MemoryStore) RemoveFromWatchlist(ctx context.Context, userID, auctionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.watchlist, watchKey(userID, auctionID))
	return nil
}

// IsWatched reports whether the user watches the auction.
func (s *MemoryStore) IsWatched(ctx context.Context, userID, auctionID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.watchlist[watchKey(userID, auctionID)]
	return ok, nil
}

// ListWatchedAuctions returns the auctions on a user's watchlist.
// Entries whose auction has been deleted are skipped.
func (s *MemoryStore) ListWatchedAuctions(ctx context.Context, userID string) ([]model.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Auction
	for _, entry := range s.watchlist {
		if entry.UserID != userID {
			continue
		}
		if a, ok := s.auctions[entry.AuctionID]; ok {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AuctionID < out[j].AuctionID })
	return out, nil
}

// GetUser returns the user with the given ID.
func (s *MemoryStore) GetUser(ctx context.Context, userID string) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[userID]
	if !ok {
		return model.User{}, fmt.Errorf("get user %s: %w", userID, auctionerrors.ErrUserNotFound)
	}
	return u, nil
}

// AddUser seeds a user record. Intended for bootstrap and tests.
func (s *MemoryStore) AddUser(user model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.UserID] = user
}
