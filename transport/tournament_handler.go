package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"Futures/internal/domain/models"
	"Futures/internal/domain/models/transport"

	"github.com/go-chi/chi/v5"
)

type TournamentHandler struct {
	log               *slog.Logger
	tournamentService tournamentService
	leaderboard       func() []models.LeaderboardEntry
}

type tournamentService interface {
	Tournaments() []models.Tournament
	GetAccount(ctx context.Context, userId int64) (models.Account, error)
	JoinTournament(ctx context.Context, userId, tournamentId int64) (models.Account, error)
}

func NewTournamentHandler(log *slog.Logger, tournamentService tournamentService, leaderboard func() []models.LeaderboardEntry) *TournamentHandler {
	return &TournamentHandler{
		log:               log,
		tournamentService: tournamentService,
		leaderboard:       leaderboard,
	}
}

func (h *TournamentHandler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Get("/", h.GetTournaments)
	router.Get("/leaderboard", h.GetLeaderboard)
	router.Post("/{id}/join", h.PostJoin)
	return router
}

func (h *TournamentHandler) GetTournaments(w http.ResponseWriter, r *http.Request) {
	userId, _ := UserID(r.Context())

	acc, err := h.tournamentService.GetAccount(r.Context(), userId)
	if err != nil {
		h.log.Error("Failed to get account", "error", err, "userId", userId)
		writeServiceError(w, err)
		return
	}

	list := h.tournamentService.Tournaments()
	views := make([]transport.TournamentView, 0, len(list))
	for _, t := range list {
		views = append(views, transport.TournamentView{Tournament: t, Joined: acc.HasJoined(t.Id)})
	}

	writeJSON(w, http.StatusOK, transport.TournamentsResponse{
		Stars:       acc.Stars,
		Tournaments: views,
	})
}

func (h *TournamentHandler) PostJoin(w http.ResponseWriter, r *http.Request) {
	userId, _ := UserID(r.Context())

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid tournament id")
		return
	}

	acc, err := h.tournamentService.JoinTournament(r.Context(), userId, id)
	if err != nil {
		h.log.Info("Tournament join rejected", "error", err, "userId", userId, "tournamentId", id)
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, transport.AccountResponse{Account: acc})
}

func (h *TournamentHandler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, transport.LeaderboardResponse{Entries: h.leaderboard()})
}
