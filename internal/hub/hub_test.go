package hub

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tourneyhub/auction-backend/internal/engine"
	"github.com/tourneyhub/auction-backend/internal/models"
	"github.com/tourneyhub/auction-backend/internal/room"
	"github.com/tourneyhub/auction-backend/internal/store"
)

func seedAuction(t *testing.T, st store.Store) uuid.UUID {
	t.Helper()
	id := uuid.New()
	err := st.CreateAuction(context.Background(), models.Auction{
		ID:          id,
		Name:        "Season Auction",
		Status:      string(engine.AuctionDraft),
		TotalBudget: 1_000_000,
	})
	if err != nil {
		t.Fatalf("seed auction: %v", err)
	}
	return id
}

func ensure(t *testing.T, h *Hub, auctionID string) Result {
	t.Helper()
	reply := make(chan Result, 1)
	h.Inbox() <- EnsureRoom{AuctionID: auctionID, Reply: reply}
	select {
	case res := <-reply:
		return res
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for room")
		return Result{} // unreachable
	}
}

func TestHub_EnsureRoomReturnsSameRoom(t *testing.T) {
	st := store.NewMemory()
	id := seedAuction(t, st)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := NewHub(ctx, st, zap.NewNop())

	first := ensure(t, h, id.String())
	if first.Err != nil || first.Room == nil {
		t.Fatalf("first ensure: %+v", first)
	}
	second := ensure(t, h, id.String())
	if second.Room != first.Room {
		t.Fatalf("ensure created a second room for the same auction")
	}
}

func TestHub_EnsureRoomUnknownAuction(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := NewHub(ctx, store.NewMemory(), zap.NewNop())

	res := ensure(t, h, uuid.NewString())
	if res.Err == nil {
		t.Fatalf("expected error for unknown auction")
	}
	if res.Err != store.ErrNotFound {
		t.Fatalf("want store.ErrNotFound, got %v", res.Err)
	}

	// a malformed id is treated the same way
	if res := ensure(t, h, "not-a-uuid"); res.Err != store.ErrNotFound {
		t.Fatalf("want store.ErrNotFound for malformed id, got %v", res.Err)
	}
}

func TestHub_GetRoomNilBeforeEnsure(t *testing.T) {
	st := store.NewMemory()
	id := seedAuction(t, st)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := NewHub(ctx, st, zap.NewNop())

	reply := make(chan *room.Room, 1)
	h.Inbox() <- GetRoom{AuctionID: id.String(), Reply: reply}
	if r := <-reply; r != nil {
		t.Fatalf("expected nil before any session ensured the room")
	}

	_ = ensure(t, h, id.String())
	h.Inbox() <- GetRoom{AuctionID: id.String(), Reply: reply}
	if r := <-reply; r == nil {
		t.Fatalf("expected live room after ensure")
	}
}

func TestHub_RemoveRoomShutsItDown(t *testing.T) {
	st := store.NewMemory()
	id := seedAuction(t, st)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := NewHub(ctx, st, zap.NewNop())

	first := ensure(t, h, id.String())
	h.Inbox() <- RemoveRoom{AuctionID: id.String()}

	// the hub forgot the room; a new ensure builds a fresh one
	second := ensure(t, h, id.String())
	if second.Err != nil {
		t.Fatalf("re-ensure after remove: %v", second.Err)
	}
	if second.Room == first.Room {
		t.Fatalf("expected a fresh room after removal")
	}
}
