package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/tourneyhub/auction-backend/internal/engine"
	"github.com/tourneyhub/auction-backend/internal/models"
)

// Gorm is the Postgres-backed Store.
type Gorm struct {
	db *gorm.DB
}

func NewGorm(dsn string) (*Gorm, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("store: connect: %w", err)
	}
	if err := db.AutoMigrate(
		&models.Auction{},
		&models.Player{},
		&models.Bidder{},
		&models.Bid{},
		&models.ChatMessage{},
	); err != nil {
		return nil, fmt.Errorf("store: migrate: %w", err)
	}
	return &Gorm{db: db}, nil
}

func (g *Gorm) CreateAuction(ctx context.Context, a models.Auction) error {
	return g.db.WithContext(ctx).Create(&a).Error
}

func (g *Gorm) ListAuctions(ctx context.Context) ([]models.Auction, error) {
	var out []models.Auction
	err := g.db.WithContext(ctx).Order("created_at").Find(&out).Error
	return out, err
}

func (g *Gorm) GetAuction(ctx context.Context, id uuid.UUID) (models.Auction, error) {
	var a models.Auction
	err := g.db.WithContext(ctx).
		Preload("Players", func(db *gorm.DB) *gorm.DB { return db.Order("created_at") }).
		Preload("Bidders", func(db *gorm.DB) *gorm.DB { return db.Order("created_at") }).
		First(&a, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return a, ErrNotFound
	}
	return a, err
}

func (g *Gorm) DeleteAuction(ctx context.Context, id uuid.UUID) error {
	res := g.db.WithContext(ctx).Delete(&models.Auction{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (g *Gorm) SaveAuctionState(ctx context.Context, id uuid.UUID, status string, currentPlayerID *uuid.UUID) error {
	return g.db.WithContext(ctx).Model(&models.Auction{}).Where("id = ?", id).
		Updates(map[string]any{"status": status, "current_player_id": currentPlayerID}).Error
}

func (g *Gorm) CreatePlayer(ctx context.Context, p models.Player) error {
	return g.db.WithContext(ctx).Create(&p).Error
}

func (g *Gorm) SavePlayer(ctx context.Context, p models.Player) error {
	return g.db.WithContext(ctx).Model(&models.Player{}).Where("id = ?", p.ID).
		Updates(map[string]any{
			"current_price": p.CurrentPrice,
			"status":        p.Status,
			"winner_id":     p.WinnerID,
			"sold_price":    p.SoldPrice,
		}).Error
}

func (g *Gorm) CreateBidder(ctx context.Context, b models.Bidder) error {
	return g.db.WithContext(ctx).Create(&b).Error
}

func (g *Gorm) SaveBidder(ctx context.Context, b models.Bidder) error {
	return g.db.WithContext(ctx).Model(&models.Bidder{}).Where("id = ?", b.ID).
		Updates(map[string]any{
			"status":           b.Status,
			"remaining_budget": b.RemainingBudget,
			"online":           b.Online,
		}).Error
}

func (g *Gorm) SetBidderOnline(ctx context.Context, bidderID uuid.UUID, online bool) error {
	return g.db.WithContext(ctx).Model(&models.Bidder{}).Where("id = ?", bidderID).
		Update("online", online).Error
}

func (g *Gorm) RecordBid(ctx context.Context, b models.Bid) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Bid{}).Where("player_id = ?", b.PlayerID).
			Update("winning", false).Error; err != nil {
			return err
		}
		if err := tx.Create(&b).Error; err != nil {
			return err
		}
		return tx.Model(&models.Player{}).Where("id = ?", b.PlayerID).
			Update("current_price", b.Amount).Error
	})
}

func (g *Gorm) ClearWinningBids(ctx context.Context, playerID uuid.UUID) error {
	return g.db.WithContext(ctx).Model(&models.Bid{}).Where("player_id = ?", playerID).
		Update("winning", false).Error
}

func (g *Gorm) SaveChatMessage(ctx context.Context, m models.ChatMessage) error {
	return g.db.WithContext(ctx).Create(&m).Error
}

func (g *Gorm) RecentChat(ctx context.Context, auctionID uuid.UUID, limit int) ([]models.ChatMessage, error) {
	var newest []models.ChatMessage
	err := g.db.WithContext(ctx).Where("auction_id = ?", auctionID).
		Order("created_at desc").Limit(limit).Find(&newest).Error
	if err != nil {
		return nil, err
	}
	// oldest first
	out := make([]models.ChatMessage, 0, len(newest))
	for i := len(newest) - 1; i >= 0; i-- {
		out = append(out, newest[i])
	}
	return out, nil
}

func (g *Gorm) LoadState(ctx context.Context, auctionID uuid.UUID) (engine.State, error) {
	a, err := g.GetAuction(ctx, auctionID)
	if err != nil {
		return engine.State{}, err
	}
	var bids []models.Bid
	if err := g.db.WithContext(ctx).Where("auction_id = ?", auctionID).
		Order("created_at").Find(&bids).Error; err != nil {
		return engine.State{}, err
	}
	return buildState(a, a.Players, a.Bidders, bids), nil
}
