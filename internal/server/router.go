package server

import (
	bidding "bidvista/internal/biddingService"
	handler "bidvista/services/auction/handler"

	"github.com/gin-gonic/gin"
)

// SetupRouter configures all Gin routes for the application
func SetupRouter(biddingService *bidding.BiddingService, sessionSecret string, featuredLimit int) *gin.Engine {
	router := gin.New() // New router without default middleware for full control over middleware and logging

	router.Use(gin.Recovery())          // recover from panics
	router.Use(RequestLoggerMiddleware) // custom request logging

	auctionHandler := handler.NewAuctionHandler(biddingService, featuredLimit)
	authRequired := AuthMiddleware(sessionSecret)

	api := router.Group("/api")

	auctions := api.Group("/auctions")
	{
		auctions.GET("", auctionHandler.ListAuctionsHandler)
		auctions.GET("/featured", auctionHandler.FeaturedAuctionsHandler)
		auctions.GET("/:auction_id", auctionHandler.GetAuctionHandler)
		auctions.GET("/:auction_id/bids", auctionHandler.GetAuctionBidsHandler)
		auctions.POST("/:auction_id/bids", authRequired, auctionHandler.PlaceBidHandler)
		auctions.POST("", authRequired, auctionHandler.CreateAuctionHandler)
		auctions.PUT("/:auction_id", authRequired, auctionHandler.UpdateAuctionHandler)
		auctions.DELETE("/:auction_id", authRequired, auctionHandler.DeleteAuctionHandler)
	}

	api.GET("/categories", auctionHandler.CategoriesHandler)

	seller := api.Group("/seller", authRequired)
	{
		seller.GET("/auctions", auctionHandler.SellerAuctionsHandler)
		seller.GET("/stats", auctionHandler.SellerStatsHandler)
	}

	user := api.Group("/user", authRequired)
	{
		user.GET("/bids", auctionHandler.UserBidsHandler)
		user.GET("/watchlist", auctionHandler.WatchlistHandler)
		user.POST("/watchlist/:auction_id", auctionHandler.WatchlistUpdateHandler)
		user.GET("/watchlist/check/:auction_id", auctionHandler.WatchlistCheckHandler)
	}

	return router
}
