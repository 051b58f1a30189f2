package room

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tourneyhub/auction-backend/internal/engine"
	"github.com/tourneyhub/auction-backend/internal/models"
	"github.com/tourneyhub/auction-backend/internal/protocol"
	"github.com/tourneyhub/auction-backend/internal/store"
)

// maxChatHistory bounds the recent-chat ring included in join snapshots.
const maxChatHistory = 50

// Room owns one auction's live state. Every mutating command flows through
// its single goroutine, which is what serializes racing bids on the open
// lot: read, validate and write happen as one unit, never interleaved.
type Room struct {
	inbox     chan Msg
	state     engine.State
	auctionID uuid.UUID
	sessions  map[string]Session
	chat      []protocol.ChatMessage
	store     store.Store
	log       *zap.Logger
	ctx       context.Context
	cancel    context.CancelFunc
}

func New(parent context.Context, initial engine.State, chat []protocol.ChatMessage, st store.Store, log *zap.Logger) *Room {
	ctx, cancel := context.WithCancel(parent)
	r := &Room{
		inbox:     make(chan Msg, 64),
		state:     initial,
		auctionID: mustID(initial.AuctionID),
		sessions:  make(map[string]Session),
		chat:      chat,
		store:     st,
		log:       log.With(zap.String("auction_id", initial.AuctionID)),
		ctx:       ctx,
		cancel:    cancel,
	}
	go r.loop()
	return r
}

// Inbox exposes the message channel to the transport layer and tests.
func (r *Room) Inbox() chan<- Msg { return r.inbox }

func (r *Room) loop() {
	for {
		select {
		case <-r.ctx.Done():
			r.shutdown()
			return

		case m := <-r.inbox:
			switch msg := m.(type) {
			case Join:
				r.handleJoin(msg.Session)
			case Leave:
				r.handleLeave(msg.SessionID)
			case FromClient:
				r.handleCommand(msg.SessionID, msg.Cmd)
			case Chat:
				r.handleChat(msg.SessionID, msg.Text)
			case AdminCommand:
				cmd := msg.Cmd
				cmd.Role = engine.RoleAdmin
				msg.Reply <- r.apply(cmd)
			case JoinRequest:
				msg.Reply <- r.handleJoinRequest(msg.Name, msg.TeamName)
			case GetState:
				msg.Reply <- View{NumSessions: len(r.sessions), State: r.state}
			case Shutdown:
				r.shutdown()
				return
			}
		}
	}
}

func (r *Room) handleJoin(sess Session) {
	if sess.Role == engine.RoleBidder {
		b, ok := r.state.BidderByID(sess.BidderID)
		if !ok {
			sess.Outbox <- protocol.ServerMessage{
				Type:   protocol.TypeError,
				Reason: "not-found",
				Error:  "unknown bidder identity",
			}
			close(sess.Outbox)
			return
		}
		if sess.Name == "" {
			sess.Name = b.Name
		}
		r.state = engine.SetOnline(r.state, sess.BidderID, true)
		if err := r.store.SetBidderOnline(r.ctx, mustID(sess.BidderID), true); err != nil {
			r.log.Warn("mark bidder online", zap.Error(err))
		}
	}
	r.sessions[sess.ID] = sess
	snap := protocol.BuildSnapshot(r.state, sess.Role, r.chat)
	r.sendTo(sess, protocol.ServerMessage{Type: protocol.TypeAuctionState, State: &snap})
}

func (r *Room) handleLeave(sessionID string) {
	sess, ok := r.sessions[sessionID]
	if !ok {
		return
	}
	delete(r.sessions, sessionID)
	if sess.Role != engine.RoleBidder {
		return
	}
	// Disconnection only flips presence; open bids and budgets are untouched.
	for _, other := range r.sessions {
		if other.BidderID == sess.BidderID {
			return // still connected elsewhere
		}
	}
	r.state = engine.SetOnline(r.state, sess.BidderID, false)
	if err := r.store.SetBidderOnline(r.ctx, mustID(sess.BidderID), false); err != nil {
		r.log.Warn("mark bidder offline", zap.Error(err))
	}
}

func (r *Room) handleCommand(sessionID string, cmd engine.Command) {
	sess, ok := r.sessions[sessionID]
	if !ok {
		return
	}
	cmd.Role = sess.Role
	if cmd.Type == engine.CmdPlaceBid {
		cmd.BidderID = sess.BidderID
		cmd.NewBidID = uuid.NewString()
	}
	if err := r.apply(cmd); err != nil {
		// Rejections go to the offending session only; the room keeps going.
		r.sendTo(sess, protocol.ServerMessage{
			Type:   protocol.TypeError,
			Reason: engine.Reason(err),
			Error:  err.Error(),
		})
	}
}

// apply runs a command through the engine, then persists and broadcasts the
// resulting events in order.
func (r *Room) apply(cmd engine.Command) error {
	events, newState, err := engine.Apply(r.state, cmd)
	if err != nil {
		return err
	}
	r.state = newState
	for _, ev := range events {
		r.persist(ev)
		r.announce(ev)
	}
	return nil
}

func (r *Room) handleJoinRequest(name, teamName string) JoinResult {
	cmd := engine.Command{
		Type:        engine.CmdRequestJoin,
		Name:        name,
		TeamName:    teamName,
		NewBidderID: uuid.NewString(),
	}
	if err := r.apply(cmd); err != nil {
		return JoinResult{Err: err}
	}
	b, _ := r.state.BidderByID(cmd.NewBidderID)
	return JoinResult{Bidder: protocol.FromBidder(b)}
}

func (r *Room) handleChat(sessionID, text string) {
	sess, ok := r.sessions[sessionID]
	if !ok || text == "" {
		return
	}
	msg := protocol.ChatMessage{
		Sender: sess.Name,
		Role:   string(sess.Role),
		Text:   text,
		SentAt: time.Now().UTC(),
	}
	r.chat = append(r.chat, msg)
	if len(r.chat) > maxChatHistory {
		r.chat = r.chat[len(r.chat)-maxChatHistory:]
	}
	if err := r.store.SaveChatMessage(r.ctx, chatModel(r.auctionID, msg)); err != nil {
		r.log.Warn("persist chat message", zap.Error(err))
	}
	r.broadcast(protocol.ServerMessage{Type: protocol.TypeNewMessage, Message: &msg})
}

// announce converts an engine event to its wire message and fans it out.
// Events reach the room in the order the mutations were applied.
func (r *Room) announce(ev engine.Event) {
	switch ev.Type {
	case engine.EvtAuctionStarted:
		r.broadcast(protocol.ServerMessage{Type: protocol.TypeAuctionStarted, Status: string(engine.AuctionActive)})

	case engine.EvtAuctionPaused:
		status := engine.AuctionActive
		if ev.Paused {
			status = engine.AuctionPaused
		}
		r.broadcast(protocol.ServerMessage{Type: protocol.TypeAuctionPaused, Status: string(status)})

	case engine.EvtAuctionCompleted:
		r.broadcast(protocol.ServerMessage{Type: protocol.TypeAuctionCompleted, Status: string(engine.AuctionCompleted)})

	case engine.EvtLotAdded:
		r.broadcast(protocol.ServerMessage{Type: protocol.TypePlayerAdded, Player: r.playerMsg(ev.LotID)})

	case engine.EvtLotOpened:
		r.broadcast(protocol.ServerMessage{Type: protocol.TypePlayerUpForBid, Player: r.playerMsg(ev.LotID)})

	case engine.EvtBidPlaced:
		bid := protocol.Bid{ID: ev.BidID, PlayerID: ev.LotID, BidderID: ev.BidderID, Amount: ev.Amount, Winning: true}
		r.broadcast(protocol.ServerMessage{Type: protocol.TypeBidPlaced, Bid: &bid, Player: r.playerMsg(ev.LotID)})

	case engine.EvtLotSold:
		r.broadcast(protocol.ServerMessage{
			Type:   protocol.TypePlayerSold,
			Player: r.playerMsg(ev.LotID),
			Bidder: r.bidderMsg(ev.BidderID),
		})

	case engine.EvtLotUnsold:
		r.broadcast(protocol.ServerMessage{Type: protocol.TypePlayerUnsold, Player: r.playerMsg(ev.LotID)})

	case engine.EvtBidderJoined:
		// Pending join requests are admin-only knowledge.
		msg := protocol.ServerMessage{Type: protocol.TypeBidderJoined, Bidder: r.bidderMsg(ev.BidderID)}
		for _, sess := range r.sessions {
			if sess.Role == engine.RoleAdmin {
				r.sendTo(sess, msg)
			}
		}

	case engine.EvtBidderStatusChanged:
		msg := protocol.ServerMessage{Type: protocol.TypeBidderStatusUpdated, Bidder: r.bidderMsg(ev.BidderID)}
		r.broadcast(msg)
		// The affected bidder is also told directly, in case its session
		// joined with a role that filters broadcasts later on.
		for _, sess := range r.sessions {
			if sess.BidderID == ev.BidderID {
				r.sendTo(sess, msg)
			}
		}
	}
}

// persist writes the durable side of an event, best-effort: a failed write
// is logged and the room keeps serving from memory.
func (r *Room) persist(ev engine.Event) {
	var err error
	switch ev.Type {
	case engine.EvtAuctionStarted, engine.EvtAuctionPaused, engine.EvtAuctionCompleted:
		err = r.saveAuctionState()
	case engine.EvtLotAdded:
		if lot, ok := r.state.LotByID(ev.LotID); ok {
			err = r.store.CreatePlayer(r.ctx, store.PlayerFromEngine(r.auctionID, lot))
		}
	case engine.EvtLotOpened:
		err = r.saveLot(ev.LotID)
		if err == nil {
			err = r.saveAuctionState()
		}
	case engine.EvtBidPlaced:
		err = r.store.RecordBid(r.ctx, store.BidFromEngine(r.auctionID, engine.Bid{
			ID: ev.BidID, LotID: ev.LotID, BidderID: ev.BidderID, Amount: ev.Amount, Winning: true,
		}))
	case engine.EvtLotSold:
		err = r.saveLot(ev.LotID)
		if err == nil {
			if b, ok := r.state.BidderByID(ev.BidderID); ok {
				err = r.store.SaveBidder(r.ctx, store.BidderFromEngine(r.auctionID, b))
			}
		}
		if err == nil {
			err = r.saveAuctionState()
		}
	case engine.EvtLotUnsold:
		err = r.saveLot(ev.LotID)
		if err == nil {
			err = r.store.ClearWinningBids(r.ctx, mustID(ev.LotID))
		}
		if err == nil {
			err = r.saveAuctionState()
		}
	case engine.EvtBidderJoined:
		if b, ok := r.state.BidderByID(ev.BidderID); ok {
			err = r.store.CreateBidder(r.ctx, store.BidderFromEngine(r.auctionID, b))
		}
	case engine.EvtBidderStatusChanged:
		if b, ok := r.state.BidderByID(ev.BidderID); ok {
			err = r.store.SaveBidder(r.ctx, store.BidderFromEngine(r.auctionID, b))
		}
	}
	if err != nil {
		r.log.Error("persist event", zap.String("event", string(ev.Type)), zap.Error(err))
	}
}

func (r *Room) saveAuctionState() error {
	var current *uuid.UUID
	if r.state.CurrentLotID != "" {
		id := mustID(r.state.CurrentLotID)
		current = &id
	}
	return r.store.SaveAuctionState(r.ctx, r.auctionID, string(r.state.Status), current)
}

func (r *Room) saveLot(lotID string) error {
	lot, ok := r.state.LotByID(lotID)
	if !ok {
		return nil
	}
	return r.store.SavePlayer(r.ctx, store.PlayerFromEngine(r.auctionID, lot))
}

func (r *Room) playerMsg(lotID string) *protocol.Player {
	lot, ok := r.state.LotByID(lotID)
	if !ok {
		return nil
	}
	p := protocol.FromLot(lot)
	return &p
}

func (r *Room) bidderMsg(bidderID string) *protocol.Bidder {
	b, ok := r.state.BidderByID(bidderID)
	if !ok {
		return nil
	}
	msg := protocol.FromBidder(b)
	return &msg
}

func (r *Room) broadcast(msg protocol.ServerMessage) {
	for _, sess := range r.sessions {
		r.sendTo(sess, msg)
	}
}

func (r *Room) sendTo(sess Session, msg protocol.ServerMessage) {
	select {
	case sess.Outbox <- msg:
	default:
		// Session is slow/full - drop it.
		close(sess.Outbox)
		delete(r.sessions, sess.ID)
	}
}

func (r *Room) shutdown() {
	for id, sess := range r.sessions {
		close(sess.Outbox)
		delete(r.sessions, id)
	}
	r.cancel()
}

func mustID(s string) uuid.UUID {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil
	}
	return id
}

func chatModel(auctionID uuid.UUID, m protocol.ChatMessage) models.ChatMessage {
	return models.ChatMessage{
		ID:        uuid.New(),
		AuctionID: auctionID,
		Sender:    m.Sender,
		Role:      m.Role,
		Text:      m.Text,
		CreatedAt: m.SentAt,
	}
}
