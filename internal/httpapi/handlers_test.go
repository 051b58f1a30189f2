package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tourneyhub/auction-backend/internal/auth"
	"github.com/tourneyhub/auction-backend/internal/hub"
	"github.com/tourneyhub/auction-backend/internal/store"
)

const (
	testSecret = "test-secret"
	testIssuer = "tourneyhub-auth"
)

type testServer struct {
	router http.Handler
	store  *store.Memory
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	st := store.NewMemory()
	h := hub.NewHub(ctx, st, zap.NewNop())
	verifier := auth.NewVerifier(testSecret, testIssuer)
	return &testServer{
		router: SetupRoutes(h, st, verifier, zap.NewNop()),
		store:  st,
	}
}

func adminToken(t *testing.T) string {
	t.Helper()
	claims := auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    testIssuer,
			Subject:   "admin-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Role: "admin",
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

func (s *testServer) createAuction(t *testing.T) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/auctions", adminToken(t), map[string]any{
		"name":         "Season Auction",
		"total_budget": 1_000_000,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	return decode[auctionResponse](t, rec).ID
}

func TestCreateAuction(t *testing.T) {
	s := newTestServer(t)

	t.Run("requires credential", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/auctions", "", map[string]any{"name": "x", "total_budget": 1})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects missing fields", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/auctions", adminToken(t), map[string]any{"name": ""})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("creates draft auction", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/auctions", adminToken(t), map[string]any{
			"name":         "Season Auction",
			"total_budget": 1_000_000,
		})
		require.Equal(t, http.StatusCreated, rec.Code)
		resp := decode[auctionResponse](t, rec)
		assert.Equal(t, "draft", resp.Status)
		assert.Equal(t, int64(1_000_000), resp.TotalBudget)
		assert.NotEmpty(t, resp.ID)
	})
}

func TestGetAuction(t *testing.T) {
	s := newTestServer(t)
	id := s.createAuction(t)

	rec := s.do(t, http.MethodGet, "/auctions/"+id, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[auctionResponse](t, rec)
	assert.Equal(t, "Season Auction", resp.Name)

	rec = s.do(t, http.MethodGet, "/auctions/does-not-exist", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPatchAuctionStatus(t *testing.T) {
	s := newTestServer(t)
	id := s.createAuction(t)

	rec := s.do(t, http.MethodPatch, "/auctions/"+id+"/status", adminToken(t), map[string]string{"status": "active"})
	assert.Equal(t, http.StatusNoContent, rec.Code)

	got := s.do(t, http.MethodGet, "/auctions/"+id, "", nil)
	assert.Equal(t, "active", decode[auctionResponse](t, got).Status)

	rec = s.do(t, http.MethodPatch, "/auctions/"+id+"/status", adminToken(t), map[string]string{"status": "completed"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPatch, "/auctions/"+id+"/status", "", map[string]string{"status": "active"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAddPlayer(t *testing.T) {
	s := newTestServer(t)
	id := s.createAuction(t)

	rec := s.do(t, http.MethodPost, "/auctions/"+id+"/players", adminToken(t), map[string]any{
		"name":       "Player One",
		"base_price": 100_000,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[map[string]string](t, rec)
	assert.NotEmpty(t, created["id"])

	got := s.do(t, http.MethodGet, "/auctions/"+id, "", nil)
	resp := decode[auctionResponse](t, got)
	require.Len(t, resp.Players, 1)
	assert.Equal(t, "Player One", resp.Players[0].Name)
	assert.Equal(t, int64(100_000), resp.Players[0].BasePrice)
}

func TestRequestJoin(t *testing.T) {
	s := newTestServer(t)
	id := s.createAuction(t)

	rec := s.do(t, http.MethodPost, "/auctions/"+id+"/join", "", map[string]string{
		"name": "Xavier", "team_name": "Team X",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	bidder := decode[map[string]any](t, rec)
	assert.Equal(t, "pending", bidder["status"])

	// same team name again is a conflict, with the protocol's reason code
	rec = s.do(t, http.MethodPost, "/auctions/"+id+"/join", "", map[string]string{
		"name": "Other", "team_name": "Team X",
	})
	require.Equal(t, http.StatusConflict, rec.Code)
	body := decode[map[string]string](t, rec)
	assert.Equal(t, "duplicate-team", body["reason"])

	rec = s.do(t, http.MethodPost, "/auctions/"+id+"/join", "", map[string]string{"name": "NoTeam"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteAuction(t *testing.T) {
	s := newTestServer(t)
	id := s.createAuction(t)

	rec := s.do(t, http.MethodDelete, "/auctions/"+id, adminToken(t), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodGet, "/auctions/"+id, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodDelete, "/auctions/"+id, adminToken(t), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
