package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/tourneyhub/auction-backend/internal/auth"
	"github.com/tourneyhub/auction-backend/internal/hub"
	"github.com/tourneyhub/auction-backend/internal/store"
	"github.com/tourneyhub/auction-backend/internal/ws"
)

func SetupRoutes(h *hub.Hub, st store.Store, verifier *auth.Verifier, log *zap.Logger) http.Handler {
	r := chi.NewRouter()
	api := NewHandlers(st, h, log)

	// Public routes
	r.Get("/healthz", Healthz)
	r.Get("/ws", ws.Handler(h, verifier))

	r.Route("/auctions", func(r chi.Router) {
		r.Get("/", api.ListAuctions)
		r.Get("/{auctionID}", api.GetAuction)
		r.Post("/{auctionID}/join", api.RequestJoin)

		// Admin-only operations require a bearer credential from the
		// external auth service.
		r.Group(func(r chi.Router) {
			r.Use(verifier.Middleware)
			r.Post("/", api.CreateAuction)
			r.Patch("/{auctionID}/status", api.PatchAuctionStatus)
			r.Post("/{auctionID}/players", api.AddPlayer)
			r.Delete("/{auctionID}", api.DeleteAuction)
		})
	})
	return r
}
