package models

import (
	"time"

	"github.com/google/uuid"
)

// Auction is one live-player-auction event. Status and the open-player
// reference are the only columns mutated during live play.
type Auction struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Name            string     `gorm:"type:varchar(255);not null"`
	Description     string     `gorm:"type:text"`
	Status          string     `gorm:"type:varchar(16);not null;default:draft"`
	TotalBudget     int64      `gorm:"not null"`
	CurrentPlayerID *uuid.UUID `gorm:"type:uuid"`
	AdminSubject    string     `gorm:"type:varchar(255);not null"`
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Players []Player      `gorm:"constraint:OnDelete:CASCADE"`
	Bidders []Bidder      `gorm:"constraint:OnDelete:CASCADE"`
	Chat    []ChatMessage `gorm:"constraint:OnDelete:CASCADE"`
}

// Player is a lot offered for bidding within one auction.
type Player struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey"`
	AuctionID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	Name         string     `gorm:"type:varchar(255);not null"`
	BasePrice    int64      `gorm:"not null"`
	CurrentPrice int64      `gorm:"not null"`
	Status       string     `gorm:"type:varchar(16);not null;default:available"`
	WinnerID     *uuid.UUID `gorm:"type:uuid"`
	SoldPrice    *int64
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Bids []Bid `gorm:"constraint:OnDelete:CASCADE"`
}

type Bidder struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	AuctionID       uuid.UUID `gorm:"type:uuid;not null;index:idx_bidders_auction;uniqueIndex:idx_bidders_team"`
	Name            string    `gorm:"type:varchar(255);not null"`
	TeamName        string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_bidders_team"`
	Status          string    `gorm:"type:varchar(16);not null;default:pending"`
	TotalBudget     int64     `gorm:"not null"`
	RemainingBudget int64     `gorm:"not null"`
	Online          bool      `gorm:"not null;default:false"`
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Bids []Bid `gorm:"constraint:OnDelete:CASCADE"`
}

// Bid is immutable once created except for the winning flag, which is
// re-derived whenever a newer bid on the same player is accepted.
type Bid struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	AuctionID uuid.UUID `gorm:"type:uuid;not null;index"`
	PlayerID  uuid.UUID `gorm:"type:uuid;not null;index"`
	BidderID  uuid.UUID `gorm:"type:uuid;not null;index"`
	Amount    int64     `gorm:"not null"`
	Winning   bool      `gorm:"not null;default:false"`
	CreatedAt time.Time
}

type ChatMessage struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	AuctionID uuid.UUID `gorm:"type:uuid;not null;index"`
	Sender    string    `gorm:"type:varchar(255);not null"`
	Role      string    `gorm:"type:varchar(16);not null"`
	Text      string    `gorm:"type:text;not null"`
	CreatedAt time.Time
}
