package protocol

import (
	"time"

	"github.com/tourneyhub/auction-backend/internal/engine"
)

type Player struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	BasePrice    int64  `json:"base_price"`
	CurrentPrice int64  `json:"current_price"`
	Status       string `json:"status"`
	WinnerID     string `json:"winner_id,omitempty"`
	SoldPrice    int64  `json:"sold_price,omitempty"`
}

type Bidder struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	TeamName        string   `json:"team_name"`
	Status          string   `json:"status"`
	TotalBudget     int64    `json:"total_budget"`
	RemainingBudget int64    `json:"remaining_budget"`
	WonPlayers      []string `json:"won_players,omitempty"`
	Online          bool     `json:"online"`
}

type Bid struct {
	ID       string `json:"id"`
	PlayerID string `json:"player_id"`
	BidderID string `json:"bidder_id"`
	Amount   int64  `json:"amount"`
	Winning  bool   `json:"winning"`
}

type ChatMessage struct {
	Sender string    `json:"sender"`
	Role   string    `json:"role"`
	Text   string    `json:"text"`
	SentAt time.Time `json:"sent_at"`
}

// Snapshot is the full room view sent to a session when it joins, so a
// late joiner reconstructs the same state incremental subscribers hold.
type Snapshot struct {
	AuctionID     string        `json:"auction_id"`
	Name          string        `json:"name"`
	Status        string        `json:"status"`
	TotalBudget   int64         `json:"total_budget"`
	CurrentPlayer *Player       `json:"current_player,omitempty"`
	Players       []Player      `json:"players"`
	Bidders       []Bidder      `json:"bidders"`
	Chat          []ChatMessage `json:"chat,omitempty"`
}

func FromLot(l engine.Lot) Player {
	return Player{
		ID:           l.ID,
		Name:         l.Name,
		BasePrice:    l.BasePrice,
		CurrentPrice: l.CurrentPrice,
		Status:       string(l.Status),
		WinnerID:     l.WinnerID,
		SoldPrice:    l.SoldPrice,
	}
}

func FromBidder(b engine.Bidder) Bidder {
	return Bidder{
		ID:              b.ID,
		Name:            b.Name,
		TeamName:        b.TeamName,
		Status:          string(b.Status),
		TotalBudget:     b.TotalBudget,
		RemainingBudget: b.RemainingBudget,
		WonPlayers:      b.WonLots,
		Online:          b.Online,
	}
}

func FromBid(b engine.Bid) Bid {
	return Bid{
		ID:       b.ID,
		PlayerID: b.LotID,
		BidderID: b.BidderID,
		Amount:   b.Amount,
		Winning:  b.Winning,
	}
}

// BuildSnapshot renders the state for one session. Admin sessions see every
// bidder; bidder and viewer sessions only see approved ones, so pending join
// requests never leak.
func BuildSnapshot(s engine.State, role engine.Role, chat []ChatMessage) Snapshot {
	snap := Snapshot{
		AuctionID:   s.AuctionID,
		Name:        s.Name,
		Status:      string(s.Status),
		TotalBudget: s.TotalBudget,
		Players:     make([]Player, 0, len(s.Lots)),
		Bidders:     make([]Bidder, 0, len(s.Bidders)),
		Chat:        chat,
	}
	for _, l := range s.Lots {
		p := FromLot(l)
		if l.ID == s.CurrentLotID {
			cur := p
			snap.CurrentPlayer = &cur
		}
		snap.Players = append(snap.Players, p)
	}
	for _, b := range s.Bidders {
		if role != engine.RoleAdmin && b.Status != engine.BidderApproved {
			continue
		}
		snap.Bidders = append(snap.Bidders, FromBidder(b))
	}
	return snap
}
