package integrationtests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	bidding "bidvista/internal/biddingService"
	model "bidvista/internal/models"
	"bidvista/internal/notifier"
	"bidvista/internal/repository"
	"bidvista/internal/server"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// testSecret signs the session tokens the auth middleware verifies.
const testSecret = "integration-test-secret"

// discardDispatcher drops events; notification delivery has its own tests.
type discardDispatcher struct{}

func (discardDispatcher) Dispatch(notifier.Event) {}

// SetupTestRouter initializes the router with an in-memory store for
// integration testing. The store is returned so tests can seed it.
func SetupTestRouter() (*gin.Engine, *repository.MemoryStore) {
	gin.SetMode(gin.TestMode)
	store := repository.NewMemoryStore()
	service := bidding.NewBiddingService(store, discardDispatcher{})
	router := server.SetupRouter(service, testSecret, 8)
	return router, store
}

// AuthToken mints a session token for the given user, the way the
// external identity provider would.
func AuthToken(t *testing.T, userID string) string {
	t.Helper()

	claims := jwt.RegisteredClaims{
		Subject:   userID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("failed to sign test token: %v", err)
	}
	return token
}

// ExecuteRequestAndParse executes an HTTP request on the given router and
// parses the JSON envelope. An empty token sends the request anonymously.
func ExecuteRequestAndParse(t *testing.T, router *gin.Engine, method, url string, body any, token string) (map[string]any, *httptest.ResponseRecorder) {
	t.Helper()

	var reqBody []byte
	var err error

	switch v := body.(type) {
	case nil:
	case []byte:
		reqBody = v
	case string:
		reqBody = []byte(v)
	default:
		reqBody, err = json.Marshal(v)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, url, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	router.ServeHTTP(w, req)

	var resp map[string]any
	if len(w.Body.Bytes()) > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to unmarshal response: %v", err)
		}
	}

	return resp, w
}

// seedActiveAuction stores a live listing owned by sellerID.
func seedActiveAuction(t *testing.T, store *repository.MemoryStore, auctionID, sellerID string, startingBid float64) model.Auction {
	t.Helper()

	now := time.Now().UTC()
	auction := model.Auction{
		AuctionID:    auctionID,
		Title:        "Vintage Camera",
		Description:  "1960s rangefinder in working order",
		Category:     "collectibles",
		StartingBid:  startingBid,
		BidIncrement: 5,
		SellerID:     sellerID,
		Status:       model.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
		EndTime:      now.Add(24 * time.Hour),
	}
	if err := store.CreateAuction(context.Background(), auction); err != nil {
		t.Fatalf("failed to seed auction: %v", err)
	}
	return auction
}
