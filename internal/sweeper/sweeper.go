// Package sweeper settles auctions whose end time has passed: active
// auctions transition to sold or expired exactly once, and the
// relevant parties are notified through the dispatcher.
package sweeper

import (
	"context"
	"fmt"
	"time"

	"bidvista/internal/models"
	"bidvista/internal/notifier"
	"bidvista/internal/repository"
	"bidvista/utils"
)

// DefaultInterval is how often the sweep pass runs.
const DefaultInterval = 15 * time.Minute

// DefaultStartDelay is the pause before the first pass after boot.
const DefaultStartDelay = 10 * time.Second

// EventDispatcher receives settlement outcomes.
type EventDispatcher interface {
	Dispatch(event notifier.Event)
}

// Sweeper owns the recurring settlement task.
type Sweeper struct {
	store      repository.AuctionStore
	dispatcher EventDispatcher
	interval   time.Duration
	startDelay time.Duration

	now func() time.Time
}

// New creates a Sweeper. A non-positive interval falls back to the
// default.
func New(store repository.AuctionStore, dispatcher EventDispatcher, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Sweeper{
		store:      store,
		dispatcher: dispatcher,
		interval:   interval,
		startDelay: DefaultStartDelay,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Run executes sweep passes until the context is cancelled: one pass
// shortly after start, then one per interval. Sweep errors never stop
// the loop.
func (s *Sweeper) Run(ctx context.Context) {
	startup := time.NewTimer(s.startDelay)
	defer startup.Stop()

	select {
	case <-ctx.Done():
		return
	case <-startup.C:
		s.sweepAndLog(ctx)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepAndLog(ctx)
		}
	}
}

func (s *Sweeper) sweepAndLog(ctx context.Context) {
	settled, failed, err := s.Sweep(ctx, s.now())
	if err != nil {
		utils.Error("sweeper: sweep pass failed", map[string]any{"error": err.Error()})
		return
	}
	if settled > 0 || failed > 0 {
		utils.Info("sweeper: sweep pass complete", map[string]any{
			"settled": settled,
			"failed":  failed,
		})
	}
}

// Sweep settles every active auction whose end time has passed.
// Settlement is attempted independently per auction: one failure is
// logged and counted without aborting the batch, so the auction is
// retried on the next pass. Returns how many auctions settled and how
// many failed.
func (s *Sweeper) Sweep(ctx context.Context, now time.Time) (settled, failed int, err error) {
	ended, err := s.store.ListExpiredUnsettled(ctx, now)
	if err != nil {
		return 0, 0, fmt.Errorf("sweeper: failed to list ended auctions: %w", err)
	}

	for _, auction := range ended {
		if err := s.settle(ctx, auction); err != nil {
			failed++
			utils.Error("sweeper: failed to settle auction", map[string]any{
				"auction_id": auction.AuctionID,
				"error":      err.Error(),
			})
			continue
		}
		settled++
	}
	return settled, failed, nil
}

// settle applies the terminal status transition for one ended auction
// and emits its settlement events. The compare-and-swap on status in
// the store makes the transition idempotent: when another pass already
// settled the auction, no events fire.
func (s *Sweeper) settle(ctx context.Context, auction models.Auction) error {
	hasBids := auction.BidCount > 0
	status := models.StatusExpired
	if hasBids {
		status = models.StatusSold
	}

	applied, err := s.store.SettleAuction(ctx, auction.AuctionID, status)
	if err != nil {
		return err
	}
	if !applied {
		// Already settled by an earlier or overlapping pass.
		return nil
	}

	if hasBids {
		s.dispatcher.Dispatch(notifier.AuctionWonEvent{
			AuctionID: auction.AuctionID,
			WinnerID:  auction.CurrentBidderID,
			FinalBid:  auction.CurrentBid,
		})
		s.dispatcher.Dispatch(notifier.AuctionSettledEvent{
			AuctionID: auction.AuctionID,
			SellerID:  auction.SellerID,
			WinnerID:  auction.CurrentBidderID,
			FinalBid:  auction.CurrentBid,
		})
	} else {
		s.dispatcher.Dispatch(notifier.AuctionUnsoldEvent{
			AuctionID: auction.AuctionID,
			SellerID:  auction.SellerID,
		})
	}
	return nil
}
