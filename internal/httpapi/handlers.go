package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tourneyhub/auction-backend/internal/auth"
	"github.com/tourneyhub/auction-backend/internal/engine"
	"github.com/tourneyhub/auction-backend/internal/hub"
	"github.com/tourneyhub/auction-backend/internal/models"
	"github.com/tourneyhub/auction-backend/internal/protocol"
	"github.com/tourneyhub/auction-backend/internal/room"
	"github.com/tourneyhub/auction-backend/internal/store"
)

// Handlers is the thin CRUD surface around the live auction rooms. Mutations
// of live state are forwarded to the room actor instead of hitting the store
// directly, so REST calls and websocket commands share one serialization.
type Handlers struct {
	store store.Store
	hub   *hub.Hub
	log   *zap.Logger
}

func NewHandlers(st store.Store, h *hub.Hub, log *zap.Logger) *Handlers {
	return &Handlers{store: st, hub: h, log: log}
}

type createAuctionRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	TotalBudget int64  `json:"total_budget"`
}

type auctionResponse struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Status      string            `json:"status"`
	TotalBudget int64             `json:"total_budget"`
	CurrentID   string            `json:"current_player_id,omitempty"`
	Players     []protocol.Player `json:"players,omitempty"`
	Bidders     []protocol.Bidder `json:"bidders,omitempty"`
}

func (h *Handlers) CreateAuction(w http.ResponseWriter, r *http.Request) {
	var req createAuctionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" || req.TotalBudget <= 0 {
		writeError(w, http.StatusBadRequest, "name and a positive total_budget are required")
		return
	}
	claims, _ := auth.ClaimsFromContext(r.Context())
	a := models.Auction{
		ID:           uuid.New(),
		Name:         req.Name,
		Description:  req.Description,
		Status:       string(engine.AuctionDraft),
		TotalBudget:  req.TotalBudget,
		AdminSubject: claims.Subject,
	}
	if err := h.store.CreateAuction(r.Context(), a); err != nil {
		h.log.Error("create auction", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to create auction")
		return
	}
	writeJSON(w, http.StatusCreated, auctionToResponse(a))
}

func (h *Handlers) ListAuctions(w http.ResponseWriter, r *http.Request) {
	auctions, err := h.store.ListAuctions(r.Context())
	if err != nil {
		h.log.Error("list auctions", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list auctions")
		return
	}
	out := make([]auctionResponse, 0, len(auctions))
	for _, a := range auctions {
		out = append(out, auctionToResponse(a))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) GetAuction(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "auctionID"))
	if err != nil {
		writeError(w, http.StatusNotFound, "auction not found")
		return
	}
	a, err := h.store.GetAuction(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "auction not found")
		return
	}
	if err != nil {
		h.log.Error("get auction", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to fetch auction")
		return
	}
	writeJSON(w, http.StatusOK, auctionToResponse(a))
}

type patchStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handlers) PatchAuctionStatus(w http.ResponseWriter, r *http.Request) {
	var req patchStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed body")
		return
	}
	var cmd engine.Command
	switch engine.AuctionStatus(req.Status) {
	case engine.AuctionActive:
		cmd = engine.Command{Type: engine.CmdStartAuction}
	case engine.AuctionPaused:
		cmd = engine.Command{Type: engine.CmdPauseAuction, Paused: true}
	default:
		writeError(w, http.StatusBadRequest, "status must be active or paused")
		return
	}
	rm, ok := h.ensureRoom(w, r)
	if !ok {
		return
	}
	reply := make(chan error, 1)
	rm.Inbox() <- room.AdminCommand{Cmd: cmd, Reply: reply}
	if err := <-reply; err != nil {
		writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type addPlayerRequest struct {
	Name      string `json:"name"`
	BasePrice int64  `json:"base_price"`
}

func (h *Handlers) AddPlayer(w http.ResponseWriter, r *http.Request) {
	var req addPlayerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" || req.BasePrice < 0 {
		writeError(w, http.StatusBadRequest, "name and a non-negative base_price are required")
		return
	}
	rm, ok := h.ensureRoom(w, r)
	if !ok {
		return
	}
	cmd := engine.Command{
		Type:      engine.CmdAddLot,
		Name:      req.Name,
		BasePrice: req.BasePrice,
		NewLotID:  uuid.NewString(),
	}
	reply := make(chan error, 1)
	rm.Inbox() <- room.AdminCommand{Cmd: cmd, Reply: reply}
	if err := <-reply; err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": cmd.NewLotID})
}

type joinRequest struct {
	Name     string `json:"name"`
	TeamName string `json:"team_name"`
}

func (h *Handlers) RequestJoin(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" || req.TeamName == "" {
		writeError(w, http.StatusBadRequest, "name and team_name are required")
		return
	}
	rm, ok := h.ensureRoom(w, r)
	if !ok {
		return
	}
	reply := make(chan room.JoinResult, 1)
	rm.Inbox() <- room.JoinRequest{Name: req.Name, TeamName: req.TeamName, Reply: reply}
	res := <-reply
	if res.Err != nil {
		writeEngineError(w, res.Err)
		return
	}
	writeJSON(w, http.StatusCreated, res.Bidder)
}

func (h *Handlers) DeleteAuction(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "auctionID"))
	if err != nil {
		writeError(w, http.StatusNotFound, "auction not found")
		return
	}
	// Tear the live room down first so no session keeps writing.
	h.hub.Inbox() <- hub.RemoveRoom{AuctionID: id.String()}
	if err := h.store.DeleteAuction(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "auction not found")
			return
		}
		h.log.Error("delete auction", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to delete auction")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (h *Handlers) ensureRoom(w http.ResponseWriter, r *http.Request) (*room.Room, bool) {
	id := chi.URLParam(r, "auctionID")
	reply := make(chan hub.Result, 1)
	h.hub.Inbox() <- hub.EnsureRoom{AuctionID: id, Reply: reply}
	res := <-reply
	if res.Err != nil {
		if errors.Is(res.Err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "auction not found")
		} else {
			h.log.Error("open room", zap.String("auction_id", id), zap.Error(res.Err))
			writeError(w, http.StatusInternalServerError, "failed to open auction room")
		}
		return nil, false
	}
	return res.Room, true
}

func auctionToResponse(a models.Auction) auctionResponse {
	out := auctionResponse{
		ID:          a.ID.String(),
		Name:        a.Name,
		Description: a.Description,
		Status:      a.Status,
		TotalBudget: a.TotalBudget,
	}
	if a.CurrentPlayerID != nil {
		out.CurrentID = a.CurrentPlayerID.String()
	}
	for _, p := range a.Players {
		out.Players = append(out.Players, playerToResponse(p))
	}
	for _, b := range a.Bidders {
		out.Bidders = append(out.Bidders, bidderToResponse(b))
	}
	return out
}

func playerToResponse(p models.Player) protocol.Player {
	out := protocol.Player{
		ID:           p.ID.String(),
		Name:         p.Name,
		BasePrice:    p.BasePrice,
		CurrentPrice: p.CurrentPrice,
		Status:       p.Status,
	}
	if p.WinnerID != nil {
		out.WinnerID = p.WinnerID.String()
	}
	if p.SoldPrice != nil {
		out.SoldPrice = *p.SoldPrice
	}
	return out
}

func bidderToResponse(b models.Bidder) protocol.Bidder {
	return protocol.Bidder{
		ID:              b.ID.String(),
		Name:            b.Name,
		TeamName:        b.TeamName,
		Status:          b.Status,
		TotalBudget:     b.TotalBudget,
		RemainingBudget: b.RemainingBudget,
		Online:          b.Online,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeEngineError maps an engine rejection to an HTTP status plus the same
// reason code the real-time protocol uses.
func writeEngineError(w http.ResponseWriter, err error) {
	status := http.StatusConflict
	switch engine.Reason(err) {
	case "not-found":
		status = http.StatusNotFound
	case "unauthorized":
		status = http.StatusForbidden
	}
	writeJSON(w, status, map[string]string{"error": err.Error(), "reason": engine.Reason(err)})
}
