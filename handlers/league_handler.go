package handlers

import (
	"net/http"

	"github.com/Dosada05/league-rating-system/middleware"
	"github.com/Dosada05/league-rating-system/models"
	"github.com/Dosada05/league-rating-system/services"
)

type LeagueHandler struct {
	leagueService        services.LeagueService
	standingsService     services.StandingsService
	consolidationService services.ConsolidationService
	exportService        services.ExportService
}

func NewLeagueHandler(
	leagueService services.LeagueService,
	standingsService services.StandingsService,
	consolidationService services.ConsolidationService,
	exportService services.ExportService,
) *LeagueHandler {
	return &LeagueHandler{
		leagueService:        leagueService,
		standingsService:     standingsService,
		consolidationService: consolidationService,
		exportService:        exportService,
	}
}

type createLeagueRequest struct {
	Name             string                  `json:"name"`
	RatingUpdateMode models.RatingUpdateMode `json:"rating_update_mode"`
}

func (h *LeagueHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	var req createLeagueRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	league, err := h.leagueService.Create(r.Context(), req.Name, req.RatingUpdateMode, userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"league": league}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *LeagueHandler) Get(w http.ResponseWriter, r *http.Request) {
	leagueID, err := getIDFromURL(r, "leagueID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	league, err := h.leagueService.GetByID(r.Context(), leagueID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"league": league}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *LeagueHandler) List(w http.ResponseWriter, r *http.Request) {
	leagues, err := h.leagueService.List(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"leagues": leagues}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *LeagueHandler) Join(w http.ResponseWriter, r *http.Request) {
	leagueID, err := getIDFromURL(r, "leagueID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	entry, err := h.leagueService.Join(r.Context(), leagueID, userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"roster_entry": entry}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *LeagueHandler) Rosters(w http.ResponseWriter, r *http.Request) {
	leagueID, err := getIDFromURL(r, "leagueID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	rosters, err := h.leagueService.Rosters(r.Context(), leagueID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"rosters": rosters}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *LeagueHandler) RosterHistory(w http.ResponseWriter, r *http.Request) {
	rosterID, err := getIDFromURL(r, "rosterID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	history, err := h.leagueService.RosterHistory(r.Context(), rosterID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"history": history}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *LeagueHandler) Standings(w http.ResponseWriter, r *http.Request) {
	leagueID, err := getIDFromURL(r, "leagueID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	rows, err := h.standingsService.GetStandings(r.Context(), leagueID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"standings": rows}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *LeagueHandler) Consolidate(w http.ResponseWriter, r *http.Request) {
	leagueID, err := getIDFromURL(r, "leagueID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	applied, err := h.consolidationService.Consolidate(r.Context(), leagueID, userID)
	if err != nil {
		// Report partial progress alongside the error so the caller
		// knows the run is resumable.
		if applied > 0 {
			errorResponse(w, r, http.StatusInternalServerError, jsonResponse{
				"applied": applied,
				"message": "consolidation stopped before finishing; retry to continue",
			})
			return
		}
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"applied": applied}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *LeagueHandler) ExportStandings(w http.ResponseWriter, r *http.Request) {
	leagueID, err := getIDFromURL(r, "leagueID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	url, err := h.exportService.ExportStandings(r.Context(), leagueID, userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"url": url}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
