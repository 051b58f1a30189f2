package hub

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tourneyhub/auction-backend/internal/protocol"
	"github.com/tourneyhub/auction-backend/internal/room"
	"github.com/tourneyhub/auction-backend/internal/store"
)

type HubMsg interface{ isHubMsg() }

// Result carries the outcome of a room lookup; Err is non-nil when the
// auction does not exist or its state could not be loaded.
type Result struct {
	Room *room.Room
	Err  error
}

type GetRoom struct {
	AuctionID string
	Reply     chan *room.Room
}

// EnsureRoom returns the live room for an auction, creating it from the
// store if this is the first session to show up.
type EnsureRoom struct {
	AuctionID string
	Reply     chan Result
}

// RemoveRoom shuts the room down and forgets it; used when an auction is
// deleted while sessions may still be attached.
type RemoveRoom struct {
	AuctionID string
}

type ShutdownHub struct{}

func (GetRoom) isHubMsg()     {}
func (EnsureRoom) isHubMsg()  {}
func (RemoveRoom) isHubMsg()  {}
func (ShutdownHub) isHubMsg() {}

type Hub struct {
	inbox  chan HubMsg
	rooms  map[string]*room.Room
	store  store.Store
	log    *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub(parent context.Context, st store.Store, log *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:  make(chan HubMsg, 64),
		rooms:  make(map[string]*room.Room),
		store:  st,
		log:    log,
		ctx:    ctx,
		cancel: cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case GetRoom:
				msg.Reply <- h.rooms[msg.AuctionID] // may be nil

			case EnsureRoom:
				if r := h.rooms[msg.AuctionID]; r != nil {
					msg.Reply <- Result{Room: r}
					break
				}
				r, err := h.open(msg.AuctionID)
				if err != nil {
					msg.Reply <- Result{Err: err}
					break
				}
				h.rooms[msg.AuctionID] = r
				msg.Reply <- Result{Room: r}

			case RemoveRoom:
				if r := h.rooms[msg.AuctionID]; r != nil {
					r.Inbox() <- room.Shutdown{}
					delete(h.rooms, msg.AuctionID)
				}

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

func (h *Hub) open(auctionID string) (*room.Room, error) {
	id, err := uuid.Parse(auctionID)
	if err != nil {
		return nil, store.ErrNotFound
	}
	state, err := h.store.LoadState(h.ctx, id)
	if err != nil {
		return nil, err
	}
	recent, err := h.store.RecentChat(h.ctx, id, 50)
	if err != nil {
		h.log.Warn("load chat history", zap.String("auction_id", auctionID), zap.Error(err))
		recent = nil
	}
	chat := make([]protocol.ChatMessage, 0, len(recent))
	for _, m := range recent {
		chat = append(chat, protocol.ChatMessage{Sender: m.Sender, Role: m.Role, Text: m.Text, SentAt: m.CreatedAt})
	}
	h.log.Info("room opened", zap.String("auction_id", auctionID))
	return room.New(h.ctx, state, chat, h.store, h.log), nil
}

func (h *Hub) shutdown() {
	for _, r := range h.rooms {
		r.Inbox() <- room.Shutdown{}
	}
	clear(h.rooms)
	h.cancel()
}
