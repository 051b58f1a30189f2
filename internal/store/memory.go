package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tourneyhub/auction-backend/internal/engine"
	"github.com/tourneyhub/auction-backend/internal/models"
)

// Memory is a concurrency-safe in-memory Store, used in tests and when the
// server runs without a database.
type Memory struct {
	mu       sync.RWMutex
	auctions map[uuid.UUID]models.Auction
	players  map[uuid.UUID][]models.Player // keyed by auction, creation order
	bidders  map[uuid.UUID][]models.Bidder
	bids     map[uuid.UUID][]models.Bid
	chat     map[uuid.UUID][]models.ChatMessage
}

func NewMemory() *Memory {
	return &Memory{
		auctions: make(map[uuid.UUID]models.Auction),
		players:  make(map[uuid.UUID][]models.Player),
		bidders:  make(map[uuid.UUID][]models.Bidder),
		bids:     make(map[uuid.UUID][]models.Bid),
		chat:     make(map[uuid.UUID][]models.ChatMessage),
	}
}

func (m *Memory) CreateAuction(ctx context.Context, a models.Auction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	m.auctions[a.ID] = a
	return nil
}

func (m *Memory) ListAuctions(ctx context.Context) ([]models.Auction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Auction, 0, len(m.auctions))
	for _, a := range m.auctions {
		out = append(out, a)
	}
	return out, nil
}

func (m *Memory) GetAuction(ctx context.Context, id uuid.UUID) (models.Auction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.auctions[id]
	if !ok {
		return models.Auction{}, ErrNotFound
	}
	a.Players = append([]models.Player(nil), m.players[id]...)
	a.Bidders = append([]models.Bidder(nil), m.bidders[id]...)
	return a, nil
}

func (m *Memory) DeleteAuction(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.auctions[id]; !ok {
		return ErrNotFound
	}
	delete(m.auctions, id)
	delete(m.players, id)
	delete(m.bidders, id)
	delete(m.bids, id)
	delete(m.chat, id)
	return nil
}

func (m *Memory) SaveAuctionState(ctx context.Context, id uuid.UUID, status string, currentPlayerID *uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.auctions[id]
	if !ok {
		return ErrNotFound
	}
	a.Status = status
	a.CurrentPlayerID = currentPlayerID
	m.auctions[id] = a
	return nil
}

func (m *Memory) CreatePlayer(ctx context.Context, p models.Player) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	m.players[p.AuctionID] = append(m.players[p.AuctionID], p)
	return nil
}

func (m *Memory) SavePlayer(ctx context.Context, p models.Player) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ps := m.players[p.AuctionID]
	for i := range ps {
		if ps[i].ID == p.ID {
			ps[i].CurrentPrice = p.CurrentPrice
			ps[i].Status = p.Status
			ps[i].WinnerID = p.WinnerID
			ps[i].SoldPrice = p.SoldPrice
			ps[i].UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return ErrNotFound
}

func (m *Memory) CreateBidder(ctx context.Context, b models.Bidder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	m.bidders[b.AuctionID] = append(m.bidders[b.AuctionID], b)
	return nil
}

func (m *Memory) SaveBidder(ctx context.Context, b models.Bidder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	bs := m.bidders[b.AuctionID]
	for i := range bs {
		if bs[i].ID == b.ID {
			bs[i].Status = b.Status
			bs[i].RemainingBudget = b.RemainingBudget
			bs[i].Online = b.Online
			return nil
		}
	}
	return ErrNotFound
}

func (m *Memory) SetBidderOnline(ctx context.Context, bidderID uuid.UUID, online bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for aid, bs := range m.bidders {
		for i := range bs {
			if bs[i].ID == bidderID {
				bs[i].Online = online
				m.bidders[aid] = bs
				return nil
			}
		}
	}
	return ErrNotFound
}

func (m *Memory) RecordBid(ctx context.Context, b models.Bid) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	bids := m.bids[b.AuctionID]
	for i := range bids {
		if bids[i].PlayerID == b.PlayerID {
			bids[i].Winning = false
		}
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	m.bids[b.AuctionID] = append(bids, b)
	ps := m.players[b.AuctionID]
	for i := range ps {
		if ps[i].ID == b.PlayerID {
			ps[i].CurrentPrice = b.Amount
		}
	}
	return nil
}

func (m *Memory) ClearWinningBids(ctx context.Context, playerID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for aid, bids := range m.bids {
		for i := range bids {
			if bids[i].PlayerID == playerID {
				bids[i].Winning = false
			}
		}
		m.bids[aid] = bids
	}
	return nil
}

func (m *Memory) SaveChatMessage(ctx context.Context, msg models.ChatMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	m.chat[msg.AuctionID] = append(m.chat[msg.AuctionID], msg)
	return nil
}

func (m *Memory) RecentChat(ctx context.Context, auctionID uuid.UUID, limit int) ([]models.ChatMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	all := m.chat[auctionID]
	if len(all) > limit {
		all = all[len(all)-limit:]
	}
	return append([]models.ChatMessage(nil), all...), nil
}

func (m *Memory) LoadState(ctx context.Context, auctionID uuid.UUID) (engine.State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.auctions[auctionID]
	if !ok {
		return engine.State{}, ErrNotFound
	}
	return buildState(a, m.players[auctionID], m.bidders[auctionID], m.bids[auctionID]), nil
}
