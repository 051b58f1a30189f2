package store

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/tourneyhub/auction-backend/internal/engine"
	"github.com/tourneyhub/auction-backend/internal/models"
)

var ErrNotFound = errors.New("not found")

// Store is the durable side of the auction. Rooms write to it best-effort
// after every accepted mutation; a failed write is logged and the in-memory
// room state keeps going.
type Store interface {
	CreateAuction(ctx context.Context, a models.Auction) error
	ListAuctions(ctx context.Context) ([]models.Auction, error)
	GetAuction(ctx context.Context, id uuid.UUID) (models.Auction, error)
	DeleteAuction(ctx context.Context, id uuid.UUID) error
	SaveAuctionState(ctx context.Context, id uuid.UUID, status string, currentPlayerID *uuid.UUID) error

	CreatePlayer(ctx context.Context, p models.Player) error
	SavePlayer(ctx context.Context, p models.Player) error

	CreateBidder(ctx context.Context, b models.Bidder) error
	SaveBidder(ctx context.Context, b models.Bidder) error
	SetBidderOnline(ctx context.Context, bidderID uuid.UUID, online bool) error

	// RecordBid inserts the accepted bid as winning, clears the winning flag
	// on every other bid for the same player, and bumps the player's current
	// price, all in one transaction.
	RecordBid(ctx context.Context, b models.Bid) error
	ClearWinningBids(ctx context.Context, playerID uuid.UUID) error

	SaveChatMessage(ctx context.Context, m models.ChatMessage) error
	RecentChat(ctx context.Context, auctionID uuid.UUID, limit int) ([]models.ChatMessage, error)

	// LoadState reassembles the engine state a room starts from.
	LoadState(ctx context.Context, auctionID uuid.UUID) (engine.State, error)
}

func parseID(s string) uuid.UUID {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil
	}
	return id
}

func optionalID(s string) *uuid.UUID {
	if s == "" {
		return nil
	}
	id := parseID(s)
	return &id
}

func PlayerFromEngine(auctionID uuid.UUID, l engine.Lot) models.Player {
	p := models.Player{
		ID:           parseID(l.ID),
		AuctionID:    auctionID,
		Name:         l.Name,
		BasePrice:    l.BasePrice,
		CurrentPrice: l.CurrentPrice,
		Status:       string(l.Status),
		WinnerID:     optionalID(l.WinnerID),
	}
	if l.Status == engine.LotSold || l.SoldPrice > 0 {
		price := l.SoldPrice
		p.SoldPrice = &price
	}
	return p
}

func BidderFromEngine(auctionID uuid.UUID, b engine.Bidder) models.Bidder {
	return models.Bidder{
		ID:              parseID(b.ID),
		AuctionID:       auctionID,
		Name:            b.Name,
		TeamName:        b.TeamName,
		Status:          string(b.Status),
		TotalBudget:     b.TotalBudget,
		RemainingBudget: b.RemainingBudget,
		Online:          b.Online,
	}
}

func BidFromEngine(auctionID uuid.UUID, b engine.Bid) models.Bid {
	return models.Bid{
		ID:        parseID(b.ID),
		AuctionID: auctionID,
		PlayerID:  parseID(b.LotID),
		BidderID:  parseID(b.BidderID),
		Amount:    b.Amount,
		Winning:   b.Winning,
		CreatedAt: time.Now().UTC(),
	}
}

// buildState turns persisted rows into an engine state. Slices must already
// be in creation order; won-lot lists are re-derived from player winners.
func buildState(a models.Auction, players []models.Player, bidders []models.Bidder, bids []models.Bid) engine.State {
	s := engine.State{
		AuctionID:   a.ID.String(),
		Name:        a.Name,
		Status:      engine.AuctionStatus(a.Status),
		TotalBudget: a.TotalBudget,
	}
	if a.CurrentPlayerID != nil {
		s.CurrentLotID = a.CurrentPlayerID.String()
	}

	won := make(map[string][]soldLot)
	for _, p := range players {
		l := engine.Lot{
			ID:           p.ID.String(),
			Name:         p.Name,
			BasePrice:    p.BasePrice,
			CurrentPrice: p.CurrentPrice,
			Status:       engine.LotStatus(p.Status),
		}
		if p.WinnerID != nil {
			l.WinnerID = p.WinnerID.String()
		}
		if p.SoldPrice != nil {
			l.SoldPrice = *p.SoldPrice
		}
		s.Lots = append(s.Lots, l)
		if p.WinnerID != nil {
			won[l.WinnerID] = append(won[l.WinnerID], soldLot{id: l.ID, at: p.UpdatedAt})
		}
	}
	for _, b := range bidders {
		eb := engine.Bidder{
			ID:              b.ID.String(),
			Name:            b.Name,
			TeamName:        b.TeamName,
			Status:          engine.BidderStatus(b.Status),
			TotalBudget:     b.TotalBudget,
			RemainingBudget: b.RemainingBudget,
			Online:          b.Online,
		}
		lots := won[eb.ID]
		sort.Slice(lots, func(i, j int) bool { return lots[i].at.Before(lots[j].at) })
		for _, l := range lots {
			eb.WonLots = append(eb.WonLots, l.id)
		}
		s.Bidders = append(s.Bidders, eb)
	}
	for _, b := range bids {
		s.Bids = append(s.Bids, engine.Bid{
			ID:       b.ID.String(),
			LotID:    b.PlayerID.String(),
			BidderID: b.BidderID.String(),
			Amount:   b.Amount,
			Winning:  b.Winning,
		})
	}
	return s
}

type soldLot struct {
	id string
	at time.Time
}
