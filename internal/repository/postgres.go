package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bidvista/internal/auctionerrors"
	model "bidvista/internal/models"
	"bidvista/internal/repository/migrations"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresStore is the PostgreSQL-backed implementation of Store.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection pool for the given DSN and runs
// the embedded migrations.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	s := &PostgresStore{db: db}
	if err := s.runMigrations(context.Background()); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}
	return s, nil
}

func (s *PostgresStore) runMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)
	return goose.UpContext(ctx, s.db, ".")
}

// Close releases the underlying connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

const auctionColumns = `auction_id, title, description, category, starting_bid, current_bid,
	bid_increment, seller_id, current_bidder_id, image, end_time, created_at, updated_at,
	shipping_cost, shipping_method, condition, status, bid_count, view_count, details`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAuction(row rowScanner) (model.Auction, error) {
	var a model.Auction
	var details []byte
	err := row.Scan(
		&a.AuctionID, &a.Title, &a.Description, &a.Category, &a.StartingBid, &a.CurrentBid,
		&a.BidIncrement, &a.SellerID, &a.CurrentBidderID, &a.Image, &a.EndTime, &a.CreatedAt,
		&a.UpdatedAt, &a.Shipping.Cost, &a.Shipping.Method, &a.Condition, &a.Status,
		&a.BidCount, &a.ViewCount, &details,
	)
	if err != nil {
		return model.Auction{}, err
	}
	if len(details) > 0 {
		if err := json.Unmarshal(details, &a.Details); err != nil {
			return model.Auction{}, fmt.Errorf("decode auction details: %w", err)
		}
	}
	return a, nil
}

func (s *PostgresStore) queryAuctions(ctx context.Context, query string, args ...any) ([]model.Auction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query auctions: %w: %w", auctionerrors.ErrStorage, err)
	}
	defer rows.Close()

	var out []model.Auction
	for rows.Next() {
		a, err := scanAuction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan auction: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// GetAuction returns the auction with the given ID.
func (s *PostgresStore) GetAuction(ctx context.Context, auctionID string) (model.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions WHERE auction_id = $1`
	a, err := scanAuction(s.db.QueryRowContext(ctx, query, auctionID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Auction{}, fmt.Errorf("get auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
		}
		return model.Auction{}, fmt.Errorf("get auction %s: %w: %w", auctionID, auctionerrors.ErrStorage, err)
	}
	return a, nil
}

// CreateAuction stores a new auction record.
func (s *PostgresStore) CreateAuction(ctx context.Context, a model.Auction) error {
	details, err := json.Marshal(a.Details)
	if err != nil {
		return fmt.Errorf("encode auction details: %w", err)
	}
	if a.Details == nil {
		details = []byte(`{}`)
	}

	query := `INSERT INTO auctions (` + auctionColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)`
	_, err = s.db.ExecContext(ctx, query,
		a.AuctionID, a.Title, a.Description, a.Category, a.StartingBid, a.CurrentBid,
		a.BidIncrement, a.SellerID, a.CurrentBidderID, a.Image, a.EndTime, a.CreatedAt,
		a.UpdatedAt, a.Shipping.Cost, a.Shipping.Method, a.Condition, a.Status,
		a.BidCount, a.ViewCount, details,
	)
	if err != nil {
		return fmt.Errorf("create auction %s: %w: %w", a.AuctionID, auctionerrors.ErrStorage, err)
	}
	return nil
}

// UpdateAuction replaces the listing fields of an auction record.
func (s *PostgresStore) UpdateAuction(ctx context.Context, a model.Auction) error {
	details, err := json.Marshal(a.Details)
	if err != nil {
		return fmt.Errorf("encode auction details: %w", err)
	}
	if a.Details == nil {
		details = []byte(`{}`)
	}

	query := `UPDATE auctions SET
		title=$2, description=$3, category=$4, starting_bid=$5, current_bid=$6,
		bid_increment=$7, image=$8, end_time=$9, updated_at=now(),
		shipping_cost=$10, shipping_method=$11, condition=$12, status=$13, details=$14
		WHERE auction_id = $1`
	res, err := s.db.ExecContext(ctx, query,
		a.AuctionID, a.Title, a.Description, a.Category, a.StartingBid, a.CurrentBid,
		a.BidIncrement, a.Image, a.EndTime, a.Shipping.Cost, a.Shipping.Method,
		a.Condition, a.Status, details,
	)
	if err != nil {
		return fmt.Errorf("update auction %s: %w", a.AuctionID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update auction %s: %w", a.AuctionID, auctionerrors.ErrAuctionNotFound)
	}
	return nil
}

// DeleteAuction removes the auction record.
func (s *PostgresStore) DeleteAuction(ctx context.Context, auctionID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM auctions WHERE auction_id = $1`, auctionID)
	if err != nil {
		return fmt.Errorf("delete auction %s: %w", auctionID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	return nil
}

// ListActiveAuctions returns active, not yet ended auctions, soonest
// ending first.
func (s *PostgresStore) ListActiveAuctions(ctx context.Context, now time.Time) ([]model.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions
		WHERE status = 'active' AND end_time > $1 ORDER BY end_time ASC`
	return s.queryAuctions(ctx, query, now)
}

// ListFeaturedAuctions returns the most bid-on active auctions.
func (s *PostgresStore) ListFeaturedAuctions(ctx context.Context, now time.Time, limit int) ([]model.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions
		WHERE status = 'active' AND end_time > $1 ORDER BY bid_count DESC LIMIT $2`
	return s.queryAuctions(ctx, query, now, limit)
}

// ListBySeller returns a seller's auctions, newest first.
func (s *PostgresStore) ListBySeller(ctx context.Context, sellerID string) ([]model.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions
		WHERE seller_id = $1 ORDER BY created_at DESC`
	return s.queryAuctions(ctx, query, sellerID)
}

// ListExpiredUnsettled returns active auctions whose end time has passed.
func (s *PostgresStore) ListExpiredUnsettled(ctx context.Context, now time.Time) ([]model.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions
		WHERE status = 'active' AND end_time <= $1`
	return s.queryAuctions(ctx, query, now)
}

// RecordBid applies a new highest bid and appends the bid record in a
// single transaction, so a failed ledger insert rolls the auction
// update back. The WHERE clause on bid_count and status gives
// compare-and-swap semantics against concurrent bids and sweeps.
func (s *PostgresStore) RecordBid(ctx context.Context, bid model.Bid, expectedBidCount int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("record bid for auction %s: %w: %w", bid.AuctionID, auctionerrors.ErrStorage, err)
	}
	defer tx.Rollback()

	update := `UPDATE auctions
		SET current_bid = $2, current_bidder_id = $3, bid_count = bid_count + 1, updated_at = now()
		WHERE auction_id = $1 AND bid_count = $4 AND status = 'active'`
	res, err := tx.ExecContext(ctx, update, bid.AuctionID, bid.Amount, bid.UserID, expectedBidCount)
	if err != nil {
		return fmt.Errorf("record bid for auction %s: %w: %w", bid.AuctionID, auctionerrors.ErrStorage, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var status string
		err := tx.QueryRowContext(ctx, `SELECT status FROM auctions WHERE auction_id = $1`, bid.AuctionID).Scan(&status)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return fmt.Errorf("record bid for auction %s: %w", bid.AuctionID, auctionerrors.ErrAuctionNotFound)
		case err != nil:
			return fmt.Errorf("record bid for auction %s: %w: %w", bid.AuctionID, auctionerrors.ErrStorage, err)
		case status != model.StatusActive:
			return fmt.Errorf("record bid for auction %s: %w", bid.AuctionID, auctionerrors.ErrAuctionClosed)
		}
		return fmt.Errorf("record bid for auction %s: %w", bid.AuctionID, auctionerrors.ErrConflict)
	}

	insert := `INSERT INTO bids (bid_id, auction_id, user_id, amount, max_bid, auto_bid, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`
	if _, err := tx.ExecContext(ctx, insert,
		bid.BidID, bid.AuctionID, bid.UserID, bid.Amount, bid.MaxBid, bid.AutoBid, bid.CreatedAt); err != nil {
		return fmt.Errorf("record bid for auction %s: %w: %w", bid.AuctionID, auctionerrors.ErrStorage, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("record bid for auction %s: %w: %w", bid.AuctionID, auctionerrors.ErrStorage, err)
	}
	return nil
}

// SettleAuction transitions an active auction to a terminal status.
// The status guard in the WHERE clause makes the transition idempotent.
func (s *PostgresStore) SettleAuction(ctx context.Context, auctionID string, status string) (bool, error) {
	query := `UPDATE auctions SET status = $2, updated_at = now()
		WHERE auction_id = $1 AND status = 'active'`
	res, err := s.db.ExecContext(ctx, query, auctionID, status)
	if err != nil {
		return false, fmt.Errorf("settle auction %s: %w", auctionID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := s.GetAuction(ctx, auctionID); err != nil {
			return false, err
		}
		return false, nil
	}
	return true, nil
}

// IncrementViews bumps the auction's view counter.
func (s *PostgresStore) IncrementViews(ctx context.Context, auctionID string) error {
	query := `UPDATE auctions SET view_count = view_count + 1 WHERE auction_id = $1`
	res, err := s.db.ExecContext(ctx, query, auctionID)
	if err != nil {
		return fmt.Errorf("increment views for auction %s: %w", auctionID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("increment views for auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	return nil
}

// AppendBid records a bid in the ledger.
func (s *PostgresStore) AppendBid(ctx context.Context, bid model.Bid) error {
	query := `INSERT INTO bids (bid_id, auction_id, user_id, amount, max_bid, auto_bid, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`
	_, err := s.db.ExecContext(ctx, query,
		bid.BidID, bid.AuctionID, bid.UserID, bid.Amount, bid.MaxBid, bid.AutoBid, bid.CreatedAt)
	if err != nil {
		return fmt.Errorf("append bid for auction %s: %w: %w", bid.AuctionID, auctionerrors.ErrStorage, err)
	}
	return nil
}

func (s *PostgresStore) queryBids(ctx context.Context, query string, args ...any) ([]model.Bid, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query bids: %w: %w", auctionerrors.ErrStorage, err)
	}
	defer rows.Close()

	var out []model.Bid
	for rows.Next() {
		var b model.Bid
		if err := rows.Scan(&b.BidID, &b.AuctionID, &b.UserID, &b.Amount, &b.MaxBid, &b.AutoBid, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan bid: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// ListBidsByAuction returns bids sorted highest amount first, equal
// amounts keep the earlier bid ahead.
func (s *PostgresStore) ListBidsByAuction(ctx context.Context, auctionID string) ([]model.Bid, error) {
	query := `SELECT bid_id, auction_id, user_id, amount, max_bid, auto_bid, created_at
		FROM bids WHERE auction_id = $1 ORDER BY amount DESC, created_at ASC`
	return s.queryBids(ctx, query, auctionID)
}

// ListBidsByUser returns a user's bids, newest first.
func (s *PostgresStore) ListBidsByUser(ctx context.Context, userID string) ([]model.Bid, error) {
	query := `SELECT bid_id, auction_id, user_id, amount, max_bid, auto_bid, created_at
		FROM bids WHERE user_id = $1 ORDER BY created_at DESC`
	return s.queryBids(ctx, query, userID)
}

// AddToWatchlist records that a user watches an auction.
func (s *PostgresStore) AddToWatchlist(ctx context.Context, userID, auctionID string) (model.WatchlistEntry, error) {
	entry := model.WatchlistEntry{UserID: userID, AuctionID: auctionID, AddedAt: time.Now().UTC()}
	query := `INSERT INTO watchlists (user_id, auction_id, added_at) VALUES ($1,$2,$3)
		ON CONFLICT (user_id, auction_id) DO NOTHING`
	if _, err := s.db.ExecContext(ctx, query, entry.UserID, entry.AuctionID, entry.AddedAt); err != nil {
		return model.WatchlistEntry{}, fmt.Errorf("add to watchlist: %w", err)
	}
	return entry, nil
}

// RemoveFromWatchlist removes a watchlist entry if present.
func (s *PostgresStore) RemoveFromWatchlist(ctx context.Context, userID, auctionID string) error {
	query := `DELETE FROM watchlists WHERE user_id = $1 AND auction_id = $2`
	if _, err := s.db.ExecContext(ctx, query, userID, auctionID); err != nil {
		return fmt.Errorf("remove from watchlist: %w", err)
	}
	return nil
}

// IsWatched reports whether the user watches the auction.
func (s *PostgresStore) IsWatched(ctx context.Context, userID, auctionID string) (bool, error) {
	var watched bool
	query := `SELECT EXISTS (SELECT 1 FROM watchlists WHERE user_id = $1 AND auction_id = $2)`
	if err := s.db.QueryRowContext(ctx, query, userID, auctionID).Scan(&watched); err != nil {
		return false, fmt.Errorf("check watchlist: %w", err)
	}
	return watched, nil
}

// ListWatchedAuctions returns the auctions on a user's watchlist.
func (s *PostgresStore) ListWatchedAuctions(ctx context.Context, userID string) ([]model.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions
		WHERE auction_id IN (SELECT auction_id FROM watchlists WHERE user_id = $1)
		ORDER BY auction_id`
	return s.queryAuctions(ctx, query, userID)
}

// GetUser returns the user with the given ID.
func (s *PostgresStore) GetUser(ctx context.Context, userID string) (model.User, error) {
	var u model.User
	query := `SELECT user_id, username, email, role, created_at FROM users WHERE user_id = $1`
	err := s.db.QueryRowContext(ctx, query, userID).Scan(&u.UserID, &u.Username, &u.Email, &u.Role, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, fmt.Errorf("get user %s: %w", userID, auctionerrors.ErrUserNotFound)
		}
		return model.User{}, fmt.Errorf("get user %s: %w: %w", userID, auctionerrors.ErrStorage, err)
	}
	return u, nil
}
