package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/tourneyhub/auction-backend/internal/auth"
	"github.com/tourneyhub/auction-backend/internal/engine"
	"github.com/tourneyhub/auction-backend/internal/hub"
	"github.com/tourneyhub/auction-backend/internal/protocol"
	"github.com/tourneyhub/auction-backend/internal/room"
)

const (
	handshakeTimeout = 10 * time.Second
	writeTimeout     = 3 * time.Second
)

// Handler upgrades the connection and runs the one-time join handshake:
// the first frame must be join-auction carrying the role and, for admins,
// the bearer credential.
func Handler(h *hub.Hub, verifier *auth.Verifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		sess, rm, ok := handshake(r.Context(), conn, h, verifier)
		if !ok {
			return
		}

		rm.Inbox() <- room.Join{Session: sess}
		defer func() { rm.Inbox() <- room.Leave{SessionID: sess.ID} }()

		// Writer goroutine: the room closes the outbox on shutdown or when
		// this session falls too far behind.
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for msg := range sess.Outbox {
				payload, err := json.Marshal(msg)
				if err != nil {
					continue
				}
				ctx, cancel := context.WithTimeout(writeCtx, writeTimeout)
				_ = conn.Write(ctx, websocket.MessageText, payload)
				cancel()
			}
			_ = conn.Close(websocket.StatusNormalClosure, "room closed")
		}()

		// Reader loop. Sessions live exactly as long as the connection.
		for {
			_, data, err := conn.Read(r.Context())
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
					return
				}
				return
			}

			var cm protocol.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				writeError(r.Context(), conn, "bad-json", "malformed message")
				continue
			}

			switch cm.Type {
			case protocol.TypeSendMessage:
				rm.Inbox() <- room.Chat{SessionID: sess.ID, Text: cm.Text}
			default:
				cmd, ok := toCommand(cm)
				if !ok {
					writeError(r.Context(), conn, "unknown-type", "unknown message type")
					continue
				}
				rm.Inbox() <- room.FromClient{SessionID: sess.ID, Cmd: cmd}
			}
		}
	}
}

func handshake(ctx context.Context, conn *websocket.Conn, h *hub.Hub, verifier *auth.Verifier) (room.Session, *room.Room, bool) {
	hsCtx, cancel := context.WithTimeout(ctx, handshakeTimeout)
	defer cancel()
	_, data, err := conn.Read(hsCtx)
	if err != nil {
		return room.Session{}, nil, false
	}

	var jm protocol.ClientMessage
	if err := json.Unmarshal(data, &jm); err != nil || jm.Type != protocol.TypeJoinAuction {
		writeError(ctx, conn, "bad-handshake", "first message must be join-auction")
		return room.Session{}, nil, false
	}

	sess := room.Session{
		ID:     uuid.NewString(),
		Name:   jm.Name,
		Outbox: make(chan protocol.ServerMessage, 16),
	}
	switch jm.Role {
	case string(engine.RoleAdmin):
		claims, err := verifier.VerifyAdmin(jm.Credential)
		if err != nil {
			writeError(ctx, conn, "unauthorized", "invalid admin credential")
			return room.Session{}, nil, false
		}
		sess.Role = engine.RoleAdmin
		if sess.Name == "" {
			sess.Name = claims.Name
		}
	case string(engine.RoleBidder):
		if jm.BidderID == "" {
			writeError(ctx, conn, "bad-handshake", "bidder join requires bidder_id")
			return room.Session{}, nil, false
		}
		sess.Role = engine.RoleBidder
		sess.BidderID = jm.BidderID
	case string(engine.RoleViewer):
		sess.Role = engine.RoleViewer
	default:
		writeError(ctx, conn, "bad-handshake", "unknown role")
		return room.Session{}, nil, false
	}

	reply := make(chan hub.Result, 1)
	h.Inbox() <- hub.EnsureRoom{AuctionID: jm.AuctionID, Reply: reply}
	res := <-reply
	if res.Err != nil {
		writeError(ctx, conn, "not-found", "auction not found")
		return room.Session{}, nil, false
	}
	return sess, res.Room, true
}

func toCommand(m protocol.ClientMessage) (engine.Command, bool) {
	switch m.Type {
	case protocol.TypeStartAuction:
		return engine.Command{Type: engine.CmdStartAuction}, true
	case protocol.TypePauseAuction:
		return engine.Command{Type: engine.CmdPauseAuction, Paused: m.Paused}, true
	case protocol.TypeNextPlayer:
		return engine.Command{Type: engine.CmdNextLot}, true
	case protocol.TypeSellPlayer:
		return engine.Command{Type: engine.CmdSellLot, LotID: m.PlayerID}, true
	case protocol.TypeSkipPlayer:
		return engine.Command{Type: engine.CmdSkipLot, LotID: m.PlayerID}, true
	case protocol.TypePlaceBid:
		return engine.Command{Type: engine.CmdPlaceBid, LotID: m.PlayerID, Amount: m.Amount}, true
	case protocol.TypeApproveBidder:
		return engine.Command{Type: engine.CmdApproveBidder, BidderID: m.BidderID, Approved: m.Approved}, true
	default:
		return engine.Command{}, false
	}
}

func writeError(ctx context.Context, conn *websocket.Conn, reason, detail string) {
	payload, _ := json.Marshal(protocol.ServerMessage{Type: protocol.TypeError, Reason: reason, Error: detail})
	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	_ = conn.Write(wctx, websocket.MessageText, payload)
}
