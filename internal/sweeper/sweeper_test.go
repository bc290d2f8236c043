package sweeper

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	model "bidvista/internal/models"
	"bidvista/internal/notifier"
	"bidvista/internal/repository"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
)

// recordingDispatcher captures dispatched events for assertions.
type recordingDispatcher struct {
	mu     sync.Mutex
	events []notifier.Event
}

func (d *recordingDispatcher) Dispatch(event notifier.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
}

func (d *recordingDispatcher) snapshot() []notifier.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]notifier.Event(nil), d.events...)
}

func endedAuction(id string, now time.Time, bidCount int) model.Auction {
	a := model.Auction{
		AuctionID:   id,
		Title:       "Vintage Camera",
		StartingBid: 100,
		SellerID:    "seller1",
		Status:      model.StatusActive,
		EndTime:     now.Add(-time.Minute),
		BidCount:    bidCount,
	}
	if bidCount > 0 {
		a.CurrentBid = 150
		a.CurrentBidderID = "user1"
	}
	return a
}

func TestSweeper_Sweep_SoldAuction(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockStore := repository.NewMockAuctionStore(ctrl)
	dispatcher := &recordingDispatcher{}
	sw := New(mockStore, dispatcher, time.Minute)

	now := time.Now().UTC()
	auction := endedAuction("auction1", now, 3)

	mockStore.EXPECT().ListExpiredUnsettled(gomock.Any(), now).Return([]model.Auction{auction}, nil)
	mockStore.EXPECT().SettleAuction(gomock.Any(), "auction1", model.StatusSold).Return(true, nil)

	settled, failed, err := sw.Sweep(context.Background(), now)
	require.NoError(t, err)
	require.Equal(t, 1, settled)
	require.Equal(t, 0, failed)

	events := dispatcher.snapshot()
	require.Len(t, events, 2)

	won, ok := events[0].(notifier.AuctionWonEvent)
	require.True(t, ok)
	require.Equal(t, "user1", won.WinnerID)
	require.Equal(t, 150.0, won.FinalBid)

	ended, ok := events[1].(notifier.AuctionSettledEvent)
	require.True(t, ok)
	require.Equal(t, "seller1", ended.SellerID)
	require.Equal(t, "user1", ended.WinnerID)
}

func TestSweeper_Sweep_UnsoldAuction(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockStore := repository.NewMockAuctionStore(ctrl)
	dispatcher := &recordingDispatcher{}
	sw := New(mockStore, dispatcher, time.Minute)

	now := time.Now().UTC()
	auction := endedAuction("auction1", now, 0)

	mockStore.EXPECT().ListExpiredUnsettled(gomock.Any(), now).Return([]model.Auction{auction}, nil)
	mockStore.EXPECT().SettleAuction(gomock.Any(), "auction1", model.StatusExpired).Return(true, nil)

	settled, failed, err := sw.Sweep(context.Background(), now)
	require.NoError(t, err)
	require.Equal(t, 1, settled)
	require.Equal(t, 0, failed)

	events := dispatcher.snapshot()
	require.Len(t, events, 1)
	unsold, ok := events[0].(notifier.AuctionUnsoldEvent)
	require.True(t, ok)
	require.Equal(t, "seller1", unsold.SellerID)
}

// An auction another pass already settled produces no duplicate events.
func TestSweeper_Sweep_AlreadySettled(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockStore := repository.NewMockAuctionStore(ctrl)
	dispatcher := &recordingDispatcher{}
	sw := New(mockStore, dispatcher, time.Minute)

	now := time.Now().UTC()
	auction := endedAuction("auction1", now, 3)

	mockStore.EXPECT().ListExpiredUnsettled(gomock.Any(), now).Return([]model.Auction{auction}, nil)
	mockStore.EXPECT().SettleAuction(gomock.Any(), "auction1", model.StatusSold).Return(false, nil)

	settled, failed, err := sw.Sweep(context.Background(), now)
	require.NoError(t, err)
	require.Equal(t, 1, settled)
	require.Equal(t, 0, failed)
	require.Empty(t, dispatcher.snapshot())
}

// One failing settlement never aborts the rest of the batch.
func TestSweeper_Sweep_FailureIsolation(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockStore := repository.NewMockAuctionStore(ctrl)
	dispatcher := &recordingDispatcher{}
	sw := New(mockStore, dispatcher, time.Minute)

	now := time.Now().UTC()
	broken := endedAuction("broken", now, 1)
	healthy := endedAuction("healthy", now, 0)

	mockStore.EXPECT().ListExpiredUnsettled(gomock.Any(), now).Return([]model.Auction{broken, healthy}, nil)
	mockStore.EXPECT().SettleAuction(gomock.Any(), "broken", model.StatusSold).Return(false, errors.New("store unavailable"))
	mockStore.EXPECT().SettleAuction(gomock.Any(), "healthy", model.StatusExpired).Return(true, nil)

	settled, failed, err := sw.Sweep(context.Background(), now)
	require.NoError(t, err)
	require.Equal(t, 1, settled)
	require.Equal(t, 1, failed)
	require.Len(t, dispatcher.snapshot(), 1)
}

func TestSweeper_Sweep_ListError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockStore := repository.NewMockAuctionStore(ctrl)
	sw := New(mockStore, &recordingDispatcher{}, time.Minute)

	now := time.Now().UTC()
	mockStore.EXPECT().ListExpiredUnsettled(gomock.Any(), now).Return(nil, errors.New("store unavailable"))

	_, _, err := sw.Sweep(context.Background(), now)
	require.Error(t, err)
}

// Two consecutive sweeps over the same store settle the auction once.
func TestSweeper_Sweep_IdempotentAcrossPasses(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Now().UTC()

	store := repository.NewMemoryStore()
	require.NoError(t, store.CreateAuction(ctx, endedAuction("auction1", now, 2)))

	dispatcher := &recordingDispatcher{}
	sw := New(store, dispatcher, time.Minute)

	settled, failed, err := sw.Sweep(ctx, now)
	require.NoError(t, err)
	require.Equal(t, 1, settled)
	require.Equal(t, 0, failed)

	// The auction is no longer active so the second pass sees nothing.
	settled, failed, err = sw.Sweep(ctx, now)
	require.NoError(t, err)
	require.Equal(t, 0, settled)
	require.Equal(t, 0, failed)

	require.Len(t, dispatcher.snapshot(), 2)

	a, err := store.GetAuction(ctx, "auction1")
	require.NoError(t, err)
	require.Equal(t, model.StatusSold, a.Status)
}

func TestSweeper_Run_StopsOnContextCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	now := time.Now().UTC()

	store := repository.NewMemoryStore()
	require.NoError(t, store.CreateAuction(ctx, endedAuction("auction1", now, 0)))

	dispatcher := &recordingDispatcher{}
	sw := New(store, dispatcher, time.Hour)
	sw.startDelay = time.Millisecond

	done := make(chan struct{})
	go func() {
		sw.Run(ctx)
		close(done)
	}()

	// The startup pass settles the ended auction.
	require.Eventually(t, func() bool {
		a, err := store.GetAuction(context.Background(), "auction1")
		return err == nil && a.Status == model.StatusExpired
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not stop after context cancellation")
	}
}
