package integrationtests

import (
	"context"
	"net/http"
	"testing"
	"time"

	model "bidvista/internal/models"
	"bidvista/services/auction/helpers"

	"github.com/stretchr/testify/require"
)

// PlaceBidHandler Tests
func TestPlaceBidHandler(t *testing.T) {
	tests := []struct {
		name       string
		auctionID  string
		userID     string // empty means anonymous
		request    any
		wantStatus int
	}{
		{
			name:       "Valid_First_Bid",
			auctionID:  "auction1",
			userID:     "user1",
			request:    helpers.PlaceBidRequest{Amount: 50},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "Unauthenticated",
			auctionID:  "auction1",
			userID:     "",
			request:    helpers.PlaceBidRequest{Amount: 50},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "Invalid_JSON",
			auctionID:  "auction1",
			userID:     "user1",
			request:    "{amount: 'missing quotes'}", // invalid JSON
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "Below_Starting_Bid",
			auctionID:  "auction1",
			userID:     "user1",
			request:    helpers.PlaceBidRequest{Amount: 49.99},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "Seller_Bids_On_Own_Auction",
			auctionID:  "auction1",
			userID:     "seller1",
			request:    helpers.PlaceBidRequest{Amount: 60},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "Auction_Not_Found",
			auctionID:  "nonexistent",
			userID:     "user1",
			request:    helpers.PlaceBidRequest{Amount: 60},
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, store := SetupTestRouter()
			seedActiveAuction(t, store, "auction1", "seller1", 50)

			var token string
			if tt.userID != "" {
				token = AuthToken(t, tt.userID)
			}

			resp, w := ExecuteRequestAndParse(t, router, http.MethodPost, "/api/auctions/"+tt.auctionID+"/bids", tt.request, token)
			require.Equal(t, tt.wantStatus, w.Code)

			if tt.wantStatus == http.StatusCreated {
				data := resp["data"].(map[string]any)
				require.Equal(t, tt.auctionID, data["auction_id"])
				require.Equal(t, tt.userID, data["user_id"])
				require.Equal(t, 50.0, data["amount"])
				require.NotEmpty(t, data["bid_id"])

				_, err := time.Parse(time.RFC3339, data["created_at"].(string))
				require.NoError(t, err)
			}
		})
	}
}

// The minimum-increment rule across consecutive bids through the API.
func TestPlaceBidHandler_MinimumIncrement(t *testing.T) {
	router, store := SetupTestRouter()
	seedActiveAuction(t, store, "auction1", "seller1", 50)

	steps := []struct {
		userID     string
		amount     float64
		wantStatus int
	}{
		{userID: "user1", amount: 50, wantStatus: http.StatusCreated},    // first bid at starting bid
		{userID: "user2", amount: 54, wantStatus: http.StatusBadRequest}, // below 50+5
		{userID: "user2", amount: 55, wantStatus: http.StatusCreated},    // exactly 50+5
		{userID: "user1", amount: 55, wantStatus: http.StatusBadRequest}, // must now beat 55+5
	}

	for _, step := range steps {
		_, w := ExecuteRequestAndParse(t, router, http.MethodPost, "/api/auctions/auction1/bids",
			helpers.PlaceBidRequest{Amount: step.amount}, AuthToken(t, step.userID))
		require.Equal(t, step.wantStatus, w.Code, "bid of %.2f by %s", step.amount, step.userID)
	}

	// Highest first in the bid history.
	resp, w := ExecuteRequestAndParse(t, router, http.MethodGet, "/api/auctions/auction1/bids", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	bids := resp["data"].([]any)
	require.Len(t, bids, 2)
	top := bids[0].(map[string]any)
	require.Equal(t, 55.0, top["amount"])
	require.Equal(t, "user2", top["user_id"])
}

// CreateAuctionHandler Tests
func TestCreateAuctionHandler(t *testing.T) {
	validRequest := helpers.AuctionRequest{
		Title:       "Antique Clock",
		Description: "Early 1900s mantel clock",
		Category:    "antiques",
		StartingBid: 75,
		Duration:    7,
	}

	tests := []struct {
		name       string
		userID     string
		request    any
		wantStatus int
	}{
		{
			name:       "Valid_Listing",
			userID:     "seller1",
			request:    validRequest,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "Unauthenticated",
			userID:     "",
			request:    validRequest,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "Missing_Title",
			userID:     "seller1",
			request:    helpers.AuctionRequest{StartingBid: 75, Duration: 7},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "Zero_Duration",
			userID:     "seller1",
			request:    helpers.AuctionRequest{Title: "x", StartingBid: 75},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, _ := SetupTestRouter()

			var token string
			if tt.userID != "" {
				token = AuthToken(t, tt.userID)
			}

			resp, w := ExecuteRequestAndParse(t, router, http.MethodPost, "/api/auctions", tt.request, token)
			require.Equal(t, tt.wantStatus, w.Code)

			if tt.wantStatus == http.StatusCreated {
				data := resp["data"].(map[string]any)
				require.NotEmpty(t, data["auction_id"])
				require.Equal(t, "seller1", data["seller_id"])
				require.Equal(t, model.StatusActive, data["status"])
				require.Equal(t, 0.0, data["current_bid"])
			}
		})
	}
}

// Ownership and no-bids guards on edit and delete.
func TestAuctionMutationGuards(t *testing.T) {
	update := helpers.AuctionRequest{Title: "Renamed", StartingBid: 60, Duration: 3}

	t.Run("Non_Owner_Cannot_Edit", func(t *testing.T) {
		router, store := SetupTestRouter()
		seedActiveAuction(t, store, "auction1", "seller1", 50)

		_, w := ExecuteRequestAndParse(t, router, http.MethodPut, "/api/auctions/auction1", update, AuthToken(t, "intruder"))
		require.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("Edit_Rejected_Once_Bid_Placed", func(t *testing.T) {
		router, store := SetupTestRouter()
		seedActiveAuction(t, store, "auction1", "seller1", 50)

		_, w := ExecuteRequestAndParse(t, router, http.MethodPost, "/api/auctions/auction1/bids",
			helpers.PlaceBidRequest{Amount: 50}, AuthToken(t, "user1"))
		require.Equal(t, http.StatusCreated, w.Code)

		_, w = ExecuteRequestAndParse(t, router, http.MethodPut, "/api/auctions/auction1", update, AuthToken(t, "seller1"))
		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Owner_Deletes_Unbid_Listing", func(t *testing.T) {
		router, store := SetupTestRouter()
		seedActiveAuction(t, store, "auction1", "seller1", 50)

		_, w := ExecuteRequestAndParse(t, router, http.MethodDelete, "/api/auctions/auction1", nil, AuthToken(t, "seller1"))
		require.Equal(t, http.StatusOK, w.Code)

		_, w = ExecuteRequestAndParse(t, router, http.MethodGet, "/api/auctions/auction1", nil, "")
		require.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Delete_Rejected_Once_Bid_Placed", func(t *testing.T) {
		router, store := SetupTestRouter()
		seedActiveAuction(t, store, "auction1", "seller1", 50)

		_, w := ExecuteRequestAndParse(t, router, http.MethodPost, "/api/auctions/auction1/bids",
			helpers.PlaceBidRequest{Amount: 50}, AuthToken(t, "user1"))
		require.Equal(t, http.StatusCreated, w.Code)

		_, w = ExecuteRequestAndParse(t, router, http.MethodDelete, "/api/auctions/auction1", nil, AuthToken(t, "seller1"))
		require.Equal(t, http.StatusBadRequest, w.Code)
	})
}

// GetAuctionHandler Tests
func TestGetAuctionHandler(t *testing.T) {
	router, store := SetupTestRouter()
	seedActiveAuction(t, store, "auction1", "seller1", 50)

	// Each detail view bumps the counter.
	resp, w := ExecuteRequestAndParse(t, router, http.MethodGet, "/api/auctions/auction1", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	data := resp["data"].(map[string]any)
	require.Equal(t, "Vintage Camera", data["title"])
	require.Equal(t, 1.0, data["view_count"])

	resp, w = ExecuteRequestAndParse(t, router, http.MethodGet, "/api/auctions/auction1", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	data = resp["data"].(map[string]any)
	require.Equal(t, 2.0, data["view_count"])
}

// Watchlist Tests
func TestWatchlistAPI(t *testing.T) {
	router, store := SetupTestRouter()
	seedActiveAuction(t, store, "auction1", "seller1", 50)
	token := AuthToken(t, "user1")

	resp, w := ExecuteRequestAndParse(t, router, http.MethodGet, "/api/user/watchlist/check/auction1", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, false, resp["data"].(map[string]any)["isWatchlisted"])

	_, w = ExecuteRequestAndParse(t, router, http.MethodPost, "/api/user/watchlist/auction1",
		helpers.WatchlistActionRequest{Action: "add"}, token)
	require.Equal(t, http.StatusOK, w.Code)

	resp, w = ExecuteRequestAndParse(t, router, http.MethodGet, "/api/user/watchlist/check/auction1", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, true, resp["data"].(map[string]any)["isWatchlisted"])

	resp, w = ExecuteRequestAndParse(t, router, http.MethodGet, "/api/user/watchlist", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, resp["data"].([]any), 1)

	_, w = ExecuteRequestAndParse(t, router, http.MethodPost, "/api/user/watchlist/auction1",
		helpers.WatchlistActionRequest{Action: "remove"}, token)
	require.Equal(t, http.StatusOK, w.Code)

	resp, w = ExecuteRequestAndParse(t, router, http.MethodGet, "/api/user/watchlist", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	require.Empty(t, resp["data"].([]any))

	t.Run("Watching_Missing_Auction_404", func(t *testing.T) {
		_, w := ExecuteRequestAndParse(t, router, http.MethodPost, "/api/user/watchlist/nonexistent",
			helpers.WatchlistActionRequest{Action: "add"}, token)
		require.Equal(t, http.StatusNotFound, w.Code)
	})
}

// Seller dashboard Tests
func TestSellerEndpoints(t *testing.T) {
	router, store := SetupTestRouter()
	now := time.Now().UTC()

	seedActiveAuction(t, store, "live", "seller1", 50)
	sold := model.Auction{
		AuctionID:  "sold",
		Title:      "Old Radio",
		SellerID:   "seller1",
		Status:     model.StatusSold,
		CurrentBid: 120,
		BidCount:   4,
		EndTime:    now.Add(-time.Hour),
	}
	require.NoError(t, store.CreateAuction(context.Background(), sold))
	expired := model.Auction{
		AuctionID: "expired",
		Title:     "Chipped Vase",
		SellerID:  "seller1",
		Status:    model.StatusExpired,
		EndTime:   now.Add(-time.Hour),
	}
	require.NoError(t, store.CreateAuction(context.Background(), expired))

	token := AuthToken(t, "seller1")

	resp, w := ExecuteRequestAndParse(t, router, http.MethodGet, "/api/seller/auctions", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, resp["data"].([]any), 3)

	resp, w = ExecuteRequestAndParse(t, router, http.MethodGet, "/api/seller/stats", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	stats := resp["data"].(map[string]any)
	require.Equal(t, 3.0, stats["totalAuctions"])
	require.Equal(t, 1.0, stats["activeListings"])
	require.Equal(t, 1.0, stats["soldItems"])
	require.Equal(t, 120.0, stats["totalSales"])
	require.Equal(t, 4.0, stats["totalBids"])
	// 1 sold out of 2 ended
	require.Equal(t, 50.0, stats["conversionRate"])
}

// User bid history Tests
func TestUserBidsHandler(t *testing.T) {
	router, store := SetupTestRouter()
	seedActiveAuction(t, store, "auction1", "seller1", 50)
	seedActiveAuction(t, store, "auction2", "seller1", 30)

	token := AuthToken(t, "user1")
	for _, bid := range []struct {
		auctionID string
		amount    float64
	}{
		{auctionID: "auction1", amount: 50},
		{auctionID: "auction2", amount: 30},
	} {
		_, w := ExecuteRequestAndParse(t, router, http.MethodPost, "/api/auctions/"+bid.auctionID+"/bids",
			helpers.PlaceBidRequest{Amount: bid.amount}, token)
		require.Equal(t, http.StatusCreated, w.Code)
	}

	resp, w := ExecuteRequestAndParse(t, router, http.MethodGet, "/api/user/bids", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, resp["data"].([]any), 2)

	// Another user has no history.
	resp, w = ExecuteRequestAndParse(t, router, http.MethodGet, "/api/user/bids", nil, AuthToken(t, "user2"))
	require.Equal(t, http.StatusOK, w.Code)
	require.Empty(t, resp["data"].([]any))
}

// Categories Tests
func TestCategoriesHandler(t *testing.T) {
	router, _ := SetupTestRouter()

	resp, w := ExecuteRequestAndParse(t, router, http.MethodGet, "/api/categories", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, resp["data"].([]any), 6)
}
