package auctionerrors

import "errors"

// Repository-level errors
var (
	ErrAuctionNotFound = errors.New("auction not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrConflict        = errors.New("concurrent update conflict")
	ErrStorage         = errors.New("storage failure")
)

// business logic errors
var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrAuctionClosed = errors.New("auction has ended")
	ErrSelfBid       = errors.New("seller cannot bid on own auction")
	ErrBidTooLow     = errors.New("bid amount too low")
	ErrForbidden     = errors.New("operation not permitted")
	ErrHasBids       = errors.New("auction already has bids")
)
