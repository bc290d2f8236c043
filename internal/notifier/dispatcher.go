package notifier

import (
	"context"
	"sync"

	"bidvista/internal/repository"
	"bidvista/utils"
)

const defaultBuffer = 256

// Dispatcher translates engine and sweeper events into calls on the
// external Notifier. Dispatch is fire-and-forget: handoff never blocks
// the caller, and delivery failures are logged, never propagated back
// to the operation that produced the event.
type Dispatcher struct {
	notifier Notifier
	users    repository.UserDirectory
	auctions repository.AuctionStore

	events chan Event
	done   chan struct{}
	once   sync.Once
}

// NewDispatcher creates a Dispatcher and starts its worker goroutine.
func NewDispatcher(n Notifier, users repository.UserDirectory, auctions repository.AuctionStore) *Dispatcher {
	d := &Dispatcher{
		notifier: n,
		users:    users,
		auctions: auctions,
		events:   make(chan Event, defaultBuffer),
		done:     make(chan struct{}),
	}
	go d.run()
	return d
}

// Dispatch hands an event to the worker. A full buffer drops the event
// with an error log rather than blocking the bid or sweep that fired it.
func (d *Dispatcher) Dispatch(event Event) {
	select {
	case d.events <- event:
	default:
		utils.Error("dispatcher: event buffer full, dropping event", map[string]any{
			"kind": event.Kind(),
		})
	}
}

// Close drains pending events and stops the worker.
func (d *Dispatcher) Close() {
	d.once.Do(func() {
		close(d.events)
	})
	<-d.done
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for event := range d.events {
		if err := d.handle(context.Background(), event); err != nil {
			utils.Error("dispatcher: notification failed", map[string]any{
				"kind":  event.Kind(),
				"error": err.Error(),
			})
		}
	}
}

func (d *Dispatcher) handle(ctx context.Context, event Event) error {
	switch e := event.(type) {
	case OutbidEvent:
		user, err := d.users.GetUser(ctx, e.PreviousBidderID)
		if err != nil {
			return err
		}
		auction, err := d.auctions.GetAuction(ctx, e.AuctionID)
		if err != nil {
			return err
		}
		return d.notifier.SendOutbid(ctx, user.Email, user.Username, auction.Title, e.NewAmount, e.AuctionID)

	case AuctionWonEvent:
		winner, err := d.users.GetUser(ctx, e.WinnerID)
		if err != nil {
			return err
		}
		auction, err := d.auctions.GetAuction(ctx, e.AuctionID)
		if err != nil {
			return err
		}
		return d.notifier.SendAuctionWon(ctx, winner.Email, winner.Username, auction.Title, e.FinalBid, e.AuctionID)

	case AuctionSettledEvent:
		seller, err := d.users.GetUser(ctx, e.SellerID)
		if err != nil {
			return err
		}
		auction, err := d.auctions.GetAuction(ctx, e.AuctionID)
		if err != nil {
			return err
		}
		winnerName := "a buyer"
		if winner, err := d.users.GetUser(ctx, e.WinnerID); err == nil {
			winnerName = winner.Username
		}
		return d.notifier.SendAuctionEnded(ctx, seller.Email, seller.Username, auction.Title, true, e.FinalBid, winnerName)

	case AuctionUnsoldEvent:
		seller, err := d.users.GetUser(ctx, e.SellerID)
		if err != nil {
			return err
		}
		auction, err := d.auctions.GetAuction(ctx, e.AuctionID)
		if err != nil {
			return err
		}
		return d.notifier.SendAuctionEnded(ctx, seller.Email, seller.Username, auction.Title, false, 0, "")
	}
	return nil
}
