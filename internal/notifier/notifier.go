package notifier

import (
	"context"

	"bidvista/utils"
)

// Notifier is the external collaborator that delivers notifications.
// Delivery mechanics (SMTP, templates) live outside this module.
type Notifier interface {
	SendOutbid(ctx context.Context, email, username, auctionTitle string, newAmount float64, auctionID string) error
	SendAuctionWon(ctx context.Context, email, username, auctionTitle string, finalBid float64, auctionID string) error
	SendAuctionEnded(ctx context.Context, email, username, auctionTitle string, sold bool, finalBid float64, winnerName string) error
}

// LogNotifier writes notifications to the log instead of delivering
// them. Used in development and tests.
type LogNotifier struct{}

// NewLogNotifier creates a Notifier that only logs.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) SendOutbid(ctx context.Context, email, username, auctionTitle string, newAmount float64, auctionID string) error {
	utils.Info("notification: outbid", map[string]any{
		"email":      email,
		"username":   username,
		"auction":    auctionTitle,
		"auction_id": auctionID,
		"new_amount": newAmount,
	})
	return nil
}

func (n *LogNotifier) SendAuctionWon(ctx context.Context, email, username, auctionTitle string, finalBid float64, auctionID string) error {
	utils.Info("notification: auction won", map[string]any{
		"email":      email,
		"username":   username,
		"auction":    auctionTitle,
		"auction_id": auctionID,
		"final_bid":  finalBid,
	})
	return nil
}

func (n *LogNotifier) SendAuctionEnded(ctx context.Context, email, username, auctionTitle string, sold bool, finalBid float64, winnerName string) error {
	utils.Info("notification: auction ended", map[string]any{
		"email":     email,
		"username":  username,
		"auction":   auctionTitle,
		"sold":      sold,
		"final_bid": finalBid,
		"winner":    winnerName,
	})
	return nil
}
