// Package api is the HTTP mutation surface. Every handler resolves the
// acting user, runs one service operation through the engine's game
// lock, and returns the operation result. Validation failures map to
// 400, unknown games to 404, everything else to 500.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/starfall-games/starfall/pkg/engine"
	"github.com/starfall-games/starfall/pkg/events"
	gametypes "github.com/starfall-games/starfall/pkg/game/types"
	"github.com/starfall-games/starfall/pkg/log"
	"github.com/starfall-games/starfall/pkg/repositories"
	"github.com/starfall-games/starfall/pkg/services"
	"github.com/starfall-games/starfall/pkg/specialists"
)

// userIDHeader carries the caller's identity. Token verification is
// expected to happen at the edge in front of this service.
const userIDHeader = "X-User-ID"

type Server struct {
	engine       *engine.Engine
	catalog      *specialists.Catalog
	specialist   *services.SpecialistService
	starUpgrade  *services.StarUpgradeService
	shipTransfer *services.ShipTransferService
	waypoints    *services.WaypointService
	trade        *services.TradeService
	player       *services.PlayerService
}

type NewServerOptions struct {
	Engine       *engine.Engine
	Catalog      *specialists.Catalog
	Specialist   *services.SpecialistService
	StarUpgrade  *services.StarUpgradeService
	ShipTransfer *services.ShipTransferService
	Waypoints    *services.WaypointService
	Trade        *services.TradeService
	Player       *services.PlayerService
}

func NewServer(opts NewServerOptions) *Server {
	return &Server{
		engine:       opts.Engine,
		catalog:      opts.Catalog,
		specialist:   opts.Specialist,
		starUpgrade:  opts.StarUpgrade,
		shipTransfer: opts.ShipTransfer,
		waypoints:    opts.Waypoints,
		trade:        opts.Trade,
		player:       opts.Player,
	}
}

// Router builds the route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/games/{gameId}", s.handleGetGame).Methods(http.MethodGet)
	api.HandleFunc("/games/{gameId}/specialists/star", s.handleListStarSpecialists).Methods(http.MethodGet)
	api.HandleFunc("/games/{gameId}/specialists/carrier", s.handleListCarrierSpecialists).Methods(http.MethodGet)

	api.HandleFunc("/games/{gameId}/join", s.handleJoin).Methods(http.MethodPost)
	api.HandleFunc("/games/{gameId}/quit", s.handleQuit).Methods(http.MethodPost)
	api.HandleFunc("/games/{gameId}/ready", s.handleReady).Methods(http.MethodPost)
	api.HandleFunc("/games/{gameId}/notready", s.handleNotReady).Methods(http.MethodPost)

	api.HandleFunc("/games/{gameId}/star/{starId}/economy", s.handleUpgradeEconomy).Methods(http.MethodPost)
	api.HandleFunc("/games/{gameId}/star/{starId}/industry", s.handleUpgradeIndustry).Methods(http.MethodPost)
	api.HandleFunc("/games/{gameId}/star/{starId}/science", s.handleUpgradeScience).Methods(http.MethodPost)
	api.HandleFunc("/games/{gameId}/star/bulk", s.handleBulkUpgrade).Methods(http.MethodPost)
	api.HandleFunc("/games/{gameId}/star/{starId}/warpgate", s.handleBuildWarpGate).Methods(http.MethodPost)
	api.HandleFunc("/games/{gameId}/star/{starId}/warpgate", s.handleDestroyWarpGate).Methods(http.MethodDelete)
	api.HandleFunc("/games/{gameId}/star/{starId}/carrier", s.handleBuildCarrier).Methods(http.MethodPost)
	api.HandleFunc("/games/{gameId}/star/{starId}/abandon", s.handleAbandonStar).Methods(http.MethodPost)
	api.HandleFunc("/games/{gameId}/star/{starId}/specialist/{specialistId}", s.handleHireStarSpecialist).Methods(http.MethodPut)

	api.HandleFunc("/games/{gameId}/carrier/{carrierId}/transfer", s.handleTransferShips).Methods(http.MethodPut)
	api.HandleFunc("/games/{gameId}/carrier/{carrierId}/waypoints", s.handleSaveWaypoints).Methods(http.MethodPut)
	api.HandleFunc("/games/{gameId}/carrier/{carrierId}/specialist/{specialistId}", s.handleHireCarrierSpecialist).Methods(http.MethodPut)

	api.HandleFunc("/games/{gameId}/trade/credits", s.handleSendCredits).Methods(http.MethodPost)
	api.HandleFunc("/games/{gameId}/trade/creditsSpecialists", s.handleSendCreditsSpecialists).Methods(http.MethodPost)

	return r
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Failed to encode response: %v", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case services.IsValidationError(err):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case repositories.IsNotFound(err):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "game not found"})
	default:
		log.Error("Internal error: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}

func (s *Server) userID(r *http.Request) (string, error) {
	userID := r.Header.Get(userIDHeader)
	if userID == "" {
		return "", errors.New("missing user identity")
	}
	return userID, nil
}

func decodeBody(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return services.NewValidationError("malformed request body")
	}
	return nil
}

// mutate runs the operation through the engine and writes the result
// the closure captured.
func (s *Server) mutate(w http.ResponseWriter, r *http.Request, fn engine.MutationFunc, result func() interface{}) {
	userID, err := s.userID(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
		return
	}

	gameID := mux.Vars(r)["gameId"]
	if _, err := s.engine.Mutate(r.Context(), gameID, userID, fn); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result())
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["gameId"]
	game, seq, err := s.engine.Snapshot(r.Context(), gameID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Game *gametypes.Game `json:"game"`
		Seq  uint64          `json:"seq"`
	}{Game: game, Seq: seq})
}

func (s *Server) handleListStarSpecialists(w http.ResponseWriter, r *http.Request) {
	s.listSpecialists(w, r, s.catalog.ListStar)
}

func (s *Server) handleListCarrierSpecialists(w http.ResponseWriter, r *http.Request) {
	s.listSpecialists(w, r, s.catalog.ListCarrier)
}

func (s *Server) listSpecialists(w http.ResponseWriter, r *http.Request, list func(*gametypes.Game) []gametypes.Specialist) {
	gameID := mux.Vars(r)["gameId"]
	game, _, err := s.engine.Snapshot(r.Context(), gameID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list(game))
}

type joinRequest struct {
	PlayerID string `json:"playerId"`
	Alias    string `json:"alias"`
	Avatar   string `json:"avatar"`
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	userID, err := s.userID(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
		return
	}

	var req joinRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	gameID := mux.Vars(r)["gameId"]
	var player *gametypes.Player
	_, err = s.engine.MutateGame(r.Context(), gameID, func(ctx context.Context, game *gametypes.Game) (*events.Event, error) {
		var ev *events.Event
		player, ev, err = s.player.Join(ctx, game, req.PlayerID, userID, req.Alias, req.Avatar)
		return ev, err
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, player)
}

func (s *Server) handleQuit(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, func(ctx context.Context, game *gametypes.Game, player *gametypes.Player) (*events.Event, error) {
		return s.player.Quit(ctx, game, player)
	}, okResult)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, func(ctx context.Context, game *gametypes.Game, player *gametypes.Player) (*events.Event, error) {
		return s.player.DeclareReady(ctx, game, player)
	}, okResult)
}

func (s *Server) handleNotReady(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, func(ctx context.Context, game *gametypes.Game, player *gametypes.Player) (*events.Event, error) {
		return s.player.UndeclareReady(ctx, game, player)
	}, okResult)
}

func okResult() interface{} {
	return struct {
		OK bool `json:"ok"`
	}{OK: true}
}

func (s *Server) handleUpgradeEconomy(w http.ResponseWriter, r *http.Request) {
	s.handleUpgrade(w, r, s.starUpgrade.UpgradeEconomy)
}

func (s *Server) handleUpgradeIndustry(w http.ResponseWriter, r *http.Request) {
	s.handleUpgrade(w, r, s.starUpgrade.UpgradeIndustry)
}

func (s *Server) handleUpgradeScience(w http.ResponseWriter, r *http.Request) {
	s.handleUpgrade(w, r, s.starUpgrade.UpgradeScience)
}

func (s *Server) handleUpgrade(w http.ResponseWriter, r *http.Request, upgrade func(context.Context, *gametypes.Game, *gametypes.Player, string) (*services.StarUpgradeResult, *events.Event, error)) {
	starID := mux.Vars(r)["starId"]
	var result *services.StarUpgradeResult
	s.mutate(w, r, func(ctx context.Context, game *gametypes.Game, player *gametypes.Player) (*events.Event, error) {
		var ev *events.Event
		var err error
		result, ev, err = upgrade(ctx, game, player, starID)
		return ev, err
	}, func() interface{} { return result })
}

type bulkUpgradeRequest struct {
	InfrastructureType gametypes.InfrastructureType `json:"infrastructureType"`
	Budget             int                          `json:"budget"`
}

func (s *Server) handleBulkUpgrade(w http.ResponseWriter, r *http.Request) {
	var req bulkUpgradeRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	var result *services.BulkUpgradeResult
	s.mutate(w, r, func(ctx context.Context, game *gametypes.Game, player *gametypes.Player) (*events.Event, error) {
		var ev *events.Event
		var err error
		result, ev, err = s.starUpgrade.BulkUpgrade(ctx, game, player, req.InfrastructureType, req.Budget)
		return ev, err
	}, func() interface{} { return result })
}

func (s *Server) handleBuildWarpGate(w http.ResponseWriter, r *http.Request) {
	starID := mux.Vars(r)["starId"]
	var result *services.WarpGateResult
	s.mutate(w, r, func(ctx context.Context, game *gametypes.Game, player *gametypes.Player) (*events.Event, error) {
		var ev *events.Event
		var err error
		result, ev, err = s.starUpgrade.BuildWarpGate(ctx, game, player, starID)
		return ev, err
	}, func() interface{} { return result })
}

func (s *Server) handleDestroyWarpGate(w http.ResponseWriter, r *http.Request) {
	starID := mux.Vars(r)["starId"]
	var result *services.WarpGateResult
	s.mutate(w, r, func(ctx context.Context, game *gametypes.Game, player *gametypes.Player) (*events.Event, error) {
		var ev *events.Event
		var err error
		result, ev, err = s.starUpgrade.DestroyWarpGate(ctx, game, player, starID)
		return ev, err
	}, func() interface{} { return result })
}

type buildCarrierRequest struct {
	Ships int `json:"ships"`
}

func (s *Server) handleBuildCarrier(w http.ResponseWriter, r *http.Request) {
	starID := mux.Vars(r)["starId"]
	var req buildCarrierRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	var result *services.BuildCarrierResult
	s.mutate(w, r, func(ctx context.Context, game *gametypes.Game, player *gametypes.Player) (*events.Event, error) {
		var ev *events.Event
		var err error
		result, ev, err = s.starUpgrade.BuildCarrier(ctx, game, player, starID, req.Ships)
		return ev, err
	}, func() interface{} { return result })
}

func (s *Server) handleAbandonStar(w http.ResponseWriter, r *http.Request) {
	starID := mux.Vars(r)["starId"]
	var result *services.AbandonStarResult
	s.mutate(w, r, func(ctx context.Context, game *gametypes.Game, player *gametypes.Player) (*events.Event, error) {
		var ev *events.Event
		var err error
		result, ev, err = s.starUpgrade.AbandonStar(ctx, game, player, starID)
		return ev, err
	}, func() interface{} { return result })
}

func specialistID(r *http.Request) (int, error) {
	var id int
	if _, err := fmt.Sscanf(mux.Vars(r)["specialistId"], "%d", &id); err != nil {
		return 0, services.NewValidationError("malformed specialist id")
	}
	return id, nil
}

func (s *Server) handleHireStarSpecialist(w http.ResponseWriter, r *http.Request) {
	starID := mux.Vars(r)["starId"]
	id, err := specialistID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var result *services.StarSpecialistHireResult
	s.mutate(w, r, func(ctx context.Context, game *gametypes.Game, player *gametypes.Player) (*events.Event, error) {
		var ev *events.Event
		var err error
		result, ev, err = s.specialist.HireStarSpecialist(ctx, game, player, starID, id)
		return ev, err
	}, func() interface{} { return result })
}

func (s *Server) handleHireCarrierSpecialist(w http.ResponseWriter, r *http.Request) {
	carrierID := mux.Vars(r)["carrierId"]
	id, err := specialistID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var result *services.CarrierSpecialistHireResult
	s.mutate(w, r, func(ctx context.Context, game *gametypes.Game, player *gametypes.Player) (*events.Event, error) {
		var ev *events.Event
		var err error
		result, ev, err = s.specialist.HireCarrierSpecialist(ctx, game, player, carrierID, id)
		return ev, err
	}, func() interface{} { return result })
}

type transferShipsRequest struct {
	CarrierShips int `json:"carrierShips"`
	StarShips    int `json:"starShips"`
}

func (s *Server) handleTransferShips(w http.ResponseWriter, r *http.Request) {
	carrierID := mux.Vars(r)["carrierId"]
	var req transferShipsRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	var result *services.ShipTransferResult
	s.mutate(w, r, func(ctx context.Context, game *gametypes.Game, player *gametypes.Player) (*events.Event, error) {
		var ev *events.Event
		var err error
		result, ev, err = s.shipTransfer.TransferShips(ctx, game, player, carrierID, req.CarrierShips, req.StarShips)
		return ev, err
	}, func() interface{} { return result })
}

type saveWaypointsRequest struct {
	Waypoints []gametypes.Waypoint `json:"waypoints"`
}

func (s *Server) handleSaveWaypoints(w http.ResponseWriter, r *http.Request) {
	carrierID := mux.Vars(r)["carrierId"]
	var req saveWaypointsRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	var result *services.SaveWaypointsResult
	s.mutate(w, r, func(ctx context.Context, game *gametypes.Game, player *gametypes.Player) (*events.Event, error) {
		var ev *events.Event
		var err error
		result, ev, err = s.waypoints.SaveWaypoints(ctx, game, player, carrierID, req.Waypoints)
		return ev, err
	}, func() interface{} { return result })
}

type tradeRequest struct {
	ToPlayerID string `json:"toPlayerId"`
	Amount     int    `json:"amount"`
}

func (s *Server) handleSendCredits(w http.ResponseWriter, r *http.Request) {
	s.handleTrade(w, r, s.trade.SendCredits)
}

func (s *Server) handleSendCreditsSpecialists(w http.ResponseWriter, r *http.Request) {
	s.handleTrade(w, r, s.trade.SendCreditsSpecialists)
}

func (s *Server) handleTrade(w http.ResponseWriter, r *http.Request, send func(context.Context, *gametypes.Game, *gametypes.Player, string, int) (*services.TradeResult, *events.Event, error)) {
	var req tradeRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	var result *services.TradeResult
	s.mutate(w, r, func(ctx context.Context, game *gametypes.Game, player *gametypes.Player) (*events.Event, error) {
		var ev *events.Event
		var err error
		result, ev, err = send(ctx, game, player, req.ToPlayerID, req.Amount)
		return ev, err
	}, func() interface{} { return result })
}
