package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	bidding "bidvista/internal/biddingService"
	"bidvista/internal/config"
	model "bidvista/internal/models"
	"bidvista/internal/notifier"
	"bidvista/internal/repository"
	"bidvista/internal/server"
	"bidvista/internal/sweeper"
	"bidvista/utils"
)

func main() {
	cfg := config.Load()

	store, err := openStore(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open store: %v\n", err)
		os.Exit(1)
	}

	dispatcher := notifier.NewDispatcher(notifier.NewLogNotifier(), store, store)
	defer dispatcher.Close()

	biddingSvc := bidding.NewBiddingService(store, dispatcher)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sw := sweeper.New(store, dispatcher, cfg.SweepInterval)
	go sw.Run(ctx)

	router := server.SetupRouter(biddingSvc, cfg.SessionSecret, cfg.FeaturedLimit)

	fmt.Printf("Starting auction server on %s...\n", cfg.Addr)
	if err := router.Run(cfg.Addr); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start server: %v\n", err)
		os.Exit(1)
	}
}

// openStore selects the Postgres store when a DSN is configured and
// falls back to the in-memory store seeded with demo data otherwise.
func openStore(cfg *config.Config) (repository.Store, error) {
	if cfg.DatabaseDSN != "" {
		utils.Info("using postgres store", map[string]any{})
		return repository.NewPostgresStore(cfg.DatabaseDSN)
	}

	utils.Info("no DATABASE_DSN set, using in-memory store", map[string]any{})
	mem := repository.NewMemoryStore()
	prepopulate(mem)
	return mem, nil
}

// prepopulate seeds the in-memory store with sample listings
func prepopulate(store *repository.MemoryStore) {
	now := time.Now().UTC()

	seller := model.User{
		UserID:    utils.GenerateID(),
		Username:  "sarah_antiques",
		Email:     "sarah@example.com",
		Role:      "seller",
		CreatedAt: now,
	}
	buyer := model.User{
		UserID:    utils.GenerateID(),
		Username:  "john_collector",
		Email:     "john@example.com",
		Role:      "buyer",
		CreatedAt: now,
	}
	store.AddUser(seller)
	store.AddUser(buyer)

	auctions := []model.Auction{
		{
			Title:        "Vintage Leica Camera",
			Description:  "1960s Leica M3 in excellent condition with original leather case.",
			Category:     "collectibles",
			StartingBid:  950,
			BidIncrement: 25,
			Condition:    "excellent",
			Shipping:     model.Shipping{Cost: 25, Method: "Standard Shipping"},
			EndTime:      now.Add(5 * 24 * time.Hour),
		},
		{
			Title:        "Rolex Submariner 1985",
			Description:  "Vintage Rolex Submariner with box and papers. Excellent condition.",
			Category:     "collectibles",
			StartingBid:  7000,
			BidIncrement: 50,
			Condition:    "excellent",
			Shipping:     model.Shipping{Cost: 50, Method: "Insured Shipping"},
			EndTime:      now.Add(9 * 24 * time.Hour),
		},
		{
			Title:        "Vinyl Record Collection",
			Description:  "Collection of 50+ classic rock vinyl records from the 70s.",
			Category:     "music",
			StartingBid:  500,
			BidIncrement: 10,
			Condition:    "good",
			Shipping:     model.Shipping{Cost: 35, Method: "Standard Shipping"},
			EndTime:      now.Add(3 * 24 * time.Hour),
		},
	}

	for _, a := range auctions {
		a.AuctionID = utils.GenerateID()
		a.SellerID = seller.UserID
		a.Status = model.StatusActive
		a.CreatedAt = now
		a.UpdatedAt = now
		if err := store.CreateAuction(context.Background(), a); err != nil {
			utils.Warn("failed to seed auction", map[string]any{"title": a.Title, "error": err.Error()})
		}
	}
}
