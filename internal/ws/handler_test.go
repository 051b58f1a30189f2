package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tourneyhub/auction-backend/internal/auth"
	"github.com/tourneyhub/auction-backend/internal/engine"
	"github.com/tourneyhub/auction-backend/internal/hub"
	"github.com/tourneyhub/auction-backend/internal/models"
	"github.com/tourneyhub/auction-backend/internal/protocol"
	"github.com/tourneyhub/auction-backend/internal/store"
)

type wsFixture struct {
	url       string
	store     *store.Memory
	auctionID uuid.UUID
	playerID  uuid.UUID
	bidderID  uuid.UUID
}

// newFixture seeds an active auction with one lot up for bidding and one
// approved bidder, then serves the websocket handler from a test server.
func newFixture(t *testing.T) *wsFixture {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	st := store.NewMemory()
	f := &wsFixture{
		store:     st,
		auctionID: uuid.New(),
		playerID:  uuid.New(),
		bidderID:  uuid.New(),
	}
	current := f.playerID
	require.NoError(t, st.CreateAuction(ctx, models.Auction{
		ID:              f.auctionID,
		Name:            "Season Auction",
		Status:          string(engine.AuctionActive),
		TotalBudget:     1_000_000,
		CurrentPlayerID: &current,
	}))
	require.NoError(t, st.CreatePlayer(ctx, models.Player{
		ID: f.playerID, AuctionID: f.auctionID, Name: "Player One",
		BasePrice: 100, CurrentPrice: 100, Status: string(engine.LotBidding),
	}))
	require.NoError(t, st.CreateBidder(ctx, models.Bidder{
		ID: f.bidderID, AuctionID: f.auctionID, Name: "Xavier", TeamName: "Team X",
		Status: string(engine.BidderApproved), TotalBudget: 1_000_000, RemainingBudget: 1_000_000,
	}))

	h := hub.NewHub(ctx, st, zap.NewNop())
	verifier := auth.NewVerifier("test-secret", "tourneyhub-auth")
	srv := httptest.NewServer(Handler(h, verifier))
	t.Cleanup(srv.Close)
	f.url = "ws" + strings.TrimPrefix(srv.URL, "http")
	return f
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "done") })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, m protocol.ClientMessage) {
	t.Helper()
	payload, err := json.Marshal(m)
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, conn.Write(ctx, websocket.MessageText, payload))
}

func recv(t *testing.T, conn *websocket.Conn) protocol.ServerMessage {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	var m protocol.ServerMessage
	require.NoError(t, json.Unmarshal(data, &m))
	return m
}

func TestHandler_ViewerJoinReceivesSnapshot(t *testing.T) {
	f := newFixture(t)
	conn := dial(t, f.url)

	send(t, conn, protocol.ClientMessage{
		Type:      protocol.TypeJoinAuction,
		AuctionID: f.auctionID.String(),
		Role:      string(engine.RoleViewer),
	})

	msg := recv(t, conn)
	require.Equal(t, protocol.TypeAuctionState, msg.Type)
	require.NotNil(t, msg.State)
	assert.Equal(t, f.auctionID.String(), msg.State.AuctionID)
	require.NotNil(t, msg.State.CurrentPlayer)
	assert.Equal(t, f.playerID.String(), msg.State.CurrentPlayer.ID)
}

func TestHandler_BidderPlacesBid(t *testing.T) {
	f := newFixture(t)
	conn := dial(t, f.url)

	send(t, conn, protocol.ClientMessage{
		Type:      protocol.TypeJoinAuction,
		AuctionID: f.auctionID.String(),
		Role:      string(engine.RoleBidder),
		BidderID:  f.bidderID.String(),
	})
	_ = recv(t, conn) // snapshot

	send(t, conn, protocol.ClientMessage{
		Type:     protocol.TypePlaceBid,
		PlayerID: f.playerID.String(),
		Amount:   250,
	})

	msg := recv(t, conn)
	require.Equal(t, protocol.TypeBidPlaced, msg.Type)
	require.NotNil(t, msg.Bid)
	assert.Equal(t, f.bidderID.String(), msg.Bid.BidderID)
	assert.Equal(t, int64(250), msg.Bid.Amount)
}

func TestHandler_ViewerCannotBid(t *testing.T) {
	f := newFixture(t)
	conn := dial(t, f.url)

	send(t, conn, protocol.ClientMessage{
		Type:      protocol.TypeJoinAuction,
		AuctionID: f.auctionID.String(),
		Role:      string(engine.RoleViewer),
	})
	_ = recv(t, conn) // snapshot

	send(t, conn, protocol.ClientMessage{
		Type:     protocol.TypePlaceBid,
		PlayerID: f.playerID.String(),
		Amount:   250,
	})

	msg := recv(t, conn)
	require.Equal(t, protocol.TypeError, msg.Type)
	assert.Equal(t, "unauthorized", msg.Reason)
}

func TestHandler_HandshakeRejections(t *testing.T) {
	f := newFixture(t)

	t.Run("first frame must be join-auction", func(t *testing.T) {
		conn := dial(t, f.url)
		send(t, conn, protocol.ClientMessage{Type: protocol.TypePlaceBid, Amount: 100})
		msg := recv(t, conn)
		assert.Equal(t, protocol.TypeError, msg.Type)
		assert.Equal(t, "bad-handshake", msg.Reason)
	})

	t.Run("unknown auction", func(t *testing.T) {
		conn := dial(t, f.url)
		send(t, conn, protocol.ClientMessage{
			Type:      protocol.TypeJoinAuction,
			AuctionID: uuid.NewString(),
			Role:      string(engine.RoleViewer),
		})
		msg := recv(t, conn)
		assert.Equal(t, protocol.TypeError, msg.Type)
		assert.Equal(t, "not-found", msg.Reason)
	})

	t.Run("admin join requires valid credential", func(t *testing.T) {
		conn := dial(t, f.url)
		send(t, conn, protocol.ClientMessage{
			Type:       protocol.TypeJoinAuction,
			AuctionID:  f.auctionID.String(),
			Role:       string(engine.RoleAdmin),
			Credential: "bogus",
		})
		msg := recv(t, conn)
		assert.Equal(t, protocol.TypeError, msg.Type)
		assert.Equal(t, "unauthorized", msg.Reason)
	})

	t.Run("bidder join requires bidder_id", func(t *testing.T) {
		conn := dial(t, f.url)
		send(t, conn, protocol.ClientMessage{
			Type:      protocol.TypeJoinAuction,
			AuctionID: f.auctionID.String(),
			Role:      string(engine.RoleBidder),
		})
		msg := recv(t, conn)
		assert.Equal(t, protocol.TypeError, msg.Type)
		assert.Equal(t, "bad-handshake", msg.Reason)
	})
}

func TestToCommand(t *testing.T) {
	cases := []struct {
		in       protocol.ClientMessage
		wantType engine.CommandType
		wantOK   bool
	}{
		{protocol.ClientMessage{Type: protocol.TypeStartAuction}, engine.CmdStartAuction, true},
		{protocol.ClientMessage{Type: protocol.TypePauseAuction, Paused: true}, engine.CmdPauseAuction, true},
		{protocol.ClientMessage{Type: protocol.TypeNextPlayer}, engine.CmdNextLot, true},
		{protocol.ClientMessage{Type: protocol.TypeSellPlayer, PlayerID: "p1"}, engine.CmdSellLot, true},
		{protocol.ClientMessage{Type: protocol.TypeSkipPlayer, PlayerID: "p1"}, engine.CmdSkipLot, true},
		{protocol.ClientMessage{Type: protocol.TypePlaceBid, PlayerID: "p1", Amount: 10}, engine.CmdPlaceBid, true},
		{protocol.ClientMessage{Type: protocol.TypeApproveBidder, BidderID: "b1", Approved: true}, engine.CmdApproveBidder, true},
		{protocol.ClientMessage{Type: "mystery"}, "", false},
	}
	for _, tc := range cases {
		cmd, ok := toCommand(tc.in)
		assert.Equal(t, tc.wantOK, ok, tc.in.Type)
		if ok {
			assert.Equal(t, tc.wantType, cmd.Type, tc.in.Type)
		}
	}
}
