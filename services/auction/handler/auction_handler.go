package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	bidding "bidvista/internal/biddingService"
	model "bidvista/internal/models"
	"bidvista/services/auction/helpers"
	"bidvista/utils"

	"github.com/gin-gonic/gin"
)

type AuctionServiceInterface interface {
	PlaceBid(ctx context.Context, auctionID, bidderID string, amount float64, opts bidding.BidOptions) (model.Bid, error)
	ViewAuction(ctx context.Context, auctionID string) (model.Auction, error)
	ListAuctions(ctx context.Context) ([]model.Auction, error)
	FeaturedAuctions(ctx context.Context, limit int) ([]model.Auction, error)
	GetBidsForAuction(ctx context.Context, auctionID string) ([]model.Bid, error)
	GetBidsForUser(ctx context.Context, userID string) ([]model.Bid, error)
	CreateAuction(ctx context.Context, sellerID string, input bidding.AuctionInput) (model.Auction, error)
	UpdateAuction(ctx context.Context, auctionID, callerID string, input bidding.AuctionInput) (model.Auction, error)
	DeleteAuction(ctx context.Context, auctionID, callerID string) error
	SellerAuctions(ctx context.Context, sellerID string) ([]model.Auction, error)
	SellerStats(ctx context.Context, sellerID string) (model.SellerStats, error)
	Watch(ctx context.Context, userID, auctionID string) (model.WatchlistEntry, error)
	Unwatch(ctx context.Context, userID, auctionID string) error
	IsWatching(ctx context.Context, userID, auctionID string) (bool, error)
	WatchedAuctions(ctx context.Context, userID string) ([]model.Auction, error)
}

type AuctionHandler struct {
	service       AuctionServiceInterface
	featuredLimit int
}

func NewAuctionHandler(service AuctionServiceInterface, featuredLimit int) *AuctionHandler {
	return &AuctionHandler{service: service, featuredLimit: featuredLimit}
}

// categories is the static category list the UI renders.
var categories = []helpers.Category{
	{Slug: "collectibles", Name: "Collectibles"},
	{Slug: "electronics", Name: "Electronics"},
	{Slug: "art", Name: "Art"},
	{Slug: "fashion", Name: "Fashion"},
	{Slug: "antiques", Name: "Antiques"},
	{Slug: "books", Name: "Books"},
}

func bidResponse(bid model.Bid) helpers.BidResponse {
	return helpers.BidResponse{
		BidID:     bid.BidID,
		AuctionID: bid.AuctionID,
		UserID:    bid.UserID,
		Amount:    bid.Amount,
		MaxBid:    bid.MaxBid,
		AutoBid:   bid.AutoBid,
		CreatedAt: bid.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func auctionInput(req helpers.AuctionRequest, now time.Time) bidding.AuctionInput {
	return bidding.AuctionInput{
		Title:          req.Title,
		Description:    req.Description,
		Category:       req.Category,
		StartingBid:    req.StartingBid,
		BidIncrement:   req.BidIncrement,
		Image:          req.Image,
		EndTime:        now.AddDate(0, 0, req.Duration),
		ShippingCost:   req.ShippingCost,
		ShippingMethod: req.ShippingMethod,
		Condition:      req.Condition,
		Details:        req.Details,
	}
}

// ListAuctionsHandler handles GET /api/auctions
func (h *AuctionHandler) ListAuctionsHandler(c *gin.Context) {
	auctions, err := h.service.ListAuctions(c.Request.Context())
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("ListAuctionsHandler: error retrieving auctions", map[string]any{"error": err.Error()})
		return
	}
	if auctions == nil {
		auctions = []model.Auction{}
	}
	utils.JSONResponse(c, http.StatusOK, auctions, "auctions retrieved successfully")
}

// FeaturedAuctionsHandler handles GET /api/auctions/featured
func (h *AuctionHandler) FeaturedAuctionsHandler(c *gin.Context) {
	auctions, err := h.service.FeaturedAuctions(c.Request.Context(), h.featuredLimit)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("FeaturedAuctionsHandler: error retrieving auctions", map[string]any{"error": err.Error()})
		return
	}
	if auctions == nil {
		auctions = []model.Auction{}
	}
	utils.JSONResponse(c, http.StatusOK, auctions, "featured auctions retrieved successfully")
}

// GetAuctionHandler handles GET /api/auctions/:auction_id
func (h *AuctionHandler) GetAuctionHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	auction, err := h.service.ViewAuction(c.Request.Context(), auctionID)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("GetAuctionHandler: error retrieving auction", map[string]any{"auction_id": auctionID, "error": err.Error()})
		return
	}
	utils.JSONResponse(c, http.StatusOK, auction, "auction retrieved successfully")
}

// GetAuctionBidsHandler handles GET /api/auctions/:auction_id/bids
func (h *AuctionHandler) GetAuctionBidsHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	bids, err := h.service.GetBidsForAuction(c.Request.Context(), auctionID)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("GetAuctionBidsHandler: error retrieving bids", map[string]any{"auction_id": auctionID, "error": err.Error()})
		return
	}
	if bids == nil {
		bids = []model.Bid{}
	}
	utils.JSONResponse(c, http.StatusOK, bids, "bids retrieved successfully")
}

// PlaceBidHandler handles POST /api/auctions/:auction_id/bids
func (h *AuctionHandler) PlaceBidHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	bidderID := helpers.CurrentUserID(c)

	var req helpers.PlaceBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "PlaceBidHandler", err)
		return
	}

	bid, err := h.service.PlaceBid(c.Request.Context(), auctionID, bidderID, req.Amount, bidding.BidOptions{
		MaxBid:  req.MaxBid,
		AutoBid: req.AutoBid,
	})
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Error("PlaceBidHandler: failed to place bid", map[string]any{
			"auction_id": auctionID,
			"user_id":    bidderID,
			"amount":     req.Amount,
			"error":      err.Error(),
		})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, bidResponse(bid), "bid placed successfully")
	helpers.LogSuccess("PlaceBidHandler", "bid placed successfully", map[string]any{
		"bid_id":     bid.BidID,
		"auction_id": auctionID,
		"user_id":    bidderID,
		"amount":     bid.Amount,
	})
}

// CreateAuctionHandler handles POST /api/auctions
func (h *AuctionHandler) CreateAuctionHandler(c *gin.Context) {
	sellerID := helpers.CurrentUserID(c)

	var req helpers.AuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "CreateAuctionHandler", err)
		return
	}

	auction, err := h.service.CreateAuction(c.Request.Context(), sellerID, auctionInput(req, time.Now().UTC()))
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Error("CreateAuctionHandler: failed to create auction", map[string]any{
			"seller_id": sellerID,
			"error":     err.Error(),
		})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, auction, "auction created successfully")
	helpers.LogSuccess("CreateAuctionHandler", "auction created successfully", map[string]any{
		"auction_id": auction.AuctionID,
		"seller_id":  sellerID,
	})
}

// UpdateAuctionHandler handles PUT /api/auctions/:auction_id
func (h *AuctionHandler) UpdateAuctionHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	callerID := helpers.CurrentUserID(c)

	var req helpers.AuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "UpdateAuctionHandler", err)
		return
	}

	auction, err := h.service.UpdateAuction(c.Request.Context(), auctionID, callerID, auctionInput(req, time.Now().UTC()))
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("UpdateAuctionHandler: failed to update auction", map[string]any{
			"auction_id": auctionID,
			"user_id":    callerID,
			"error":      err.Error(),
		})
		return
	}

	utils.JSONResponse(c, http.StatusOK, auction, "auction updated successfully")
}

// DeleteAuctionHandler handles DELETE /api/auctions/:auction_id
func (h *AuctionHandler) DeleteAuctionHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	callerID := helpers.CurrentUserID(c)

	if err := h.service.DeleteAuction(c.Request.Context(), auctionID, callerID); err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("DeleteAuctionHandler: failed to delete auction", map[string]any{
			"auction_id": auctionID,
			"user_id":    callerID,
			"error":      err.Error(),
		})
		return
	}

	utils.JSONResponse(c, http.StatusOK, nil, "auction deleted successfully")
}

// CategoriesHandler handles GET /api/categories
func (h *AuctionHandler) CategoriesHandler(c *gin.Context) {
	utils.JSONResponse(c, http.StatusOK, categories, "categories retrieved successfully")
}

// SellerAuctionsHandler handles GET /api/seller/auctions
func (h *AuctionHandler) SellerAuctionsHandler(c *gin.Context) {
	sellerID := helpers.CurrentUserID(c)
	auctions, err := h.service.SellerAuctions(c.Request.Context(), sellerID)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("SellerAuctionsHandler: error retrieving auctions", map[string]any{"seller_id": sellerID, "error": err.Error()})
		return
	}
	if auctions == nil {
		auctions = []model.Auction{}
	}
	utils.JSONResponse(c, http.StatusOK, auctions, "seller auctions retrieved successfully")
}

// SellerStatsHandler handles GET /api/seller/stats
func (h *AuctionHandler) SellerStatsHandler(c *gin.Context) {
	sellerID := helpers.CurrentUserID(c)
	stats, err := h.service.SellerStats(c.Request.Context(), sellerID)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("SellerStatsHandler: error computing stats", map[string]any{"seller_id": sellerID, "error": err.Error()})
		return
	}
	utils.JSONResponse(c, http.StatusOK, stats, "seller stats retrieved successfully")
}

// UserBidsHandler handles GET /api/user/bids
func (h *AuctionHandler) UserBidsHandler(c *gin.Context) {
	userID := helpers.CurrentUserID(c)
	bids, err := h.service.GetBidsForUser(c.Request.Context(), userID)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("UserBidsHandler: error retrieving bids", map[string]any{"user_id": userID, "error": err.Error()})
		return
	}
	if bids == nil {
		bids = []model.Bid{}
	}
	utils.JSONResponse(c, http.StatusOK, bids, "bids retrieved successfully")
}

// WatchlistHandler handles GET /api/user/watchlist
func (h *AuctionHandler) WatchlistHandler(c *gin.Context) {
	userID := helpers.CurrentUserID(c)
	auctions, err := h.service.WatchedAuctions(c.Request.Context(), userID)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("WatchlistHandler: error retrieving watchlist", map[string]any{"user_id": userID, "error": err.Error()})
		return
	}
	if auctions == nil {
		auctions = []model.Auction{}
	}
	utils.JSONResponse(c, http.StatusOK, auctions, "watchlist retrieved successfully")
}

// WatchlistUpdateHandler handles POST /api/user/watchlist/:auction_id
func (h *AuctionHandler) WatchlistUpdateHandler(c *gin.Context) {
	userID := helpers.CurrentUserID(c)
	auctionID := c.Param("auction_id")

	var req helpers.WatchlistActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "WatchlistUpdateHandler", err)
		return
	}

	var err error
	if req.Action == "add" {
		_, err = h.service.Watch(c.Request.Context(), userID, auctionID)
	} else {
		err = h.service.Unwatch(c.Request.Context(), userID, auctionID)
	}
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("WatchlistUpdateHandler: failed to update watchlist", map[string]any{
			"user_id":    userID,
			"auction_id": auctionID,
			"action":     req.Action,
			"error":      err.Error(),
		})
		return
	}

	utils.JSONResponse(c, http.StatusOK, nil, "watchlist updated successfully")
}

// WatchlistCheckHandler handles GET /api/user/watchlist/check/:auction_id
func (h *AuctionHandler) WatchlistCheckHandler(c *gin.Context) {
	userID := helpers.CurrentUserID(c)
	auctionID := c.Param("auction_id")

	watched, err := h.service.IsWatching(c.Request.Context(), userID, auctionID)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("WatchlistCheckHandler: failed to check watchlist", map[string]any{
			"user_id":    userID,
			"auction_id": auctionID,
			"error":      err.Error(),
		})
		return
	}

	utils.JSONResponse(c, http.StatusOK, gin.H{"isWatchlisted": watched}, "watchlist checked successfully")
}
