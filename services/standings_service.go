package services

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/Dosada05/league-rating-system/models"
	"github.com/Dosada05/league-rating-system/repositories"
)

type StandingRow struct {
	RosterID    int    `json:"roster_id"`
	DisplayName string `json:"display_name"`
	Rating      int    `json:"rating"`
	Wins        int    `json:"wins"`
	Losses      int    `json:"losses"`
	Pending     int    `json:"pending"`
}

type StandingsService interface {
	GetStandings(ctx context.Context, leagueID int) ([]StandingRow, error)
}

type standingsService struct {
	leagues repositories.LeagueRepository
	rosters repositories.RosterRepository
	matches repositories.MatchRepository
}

func NewStandingsService(
	leagueRepo repositories.LeagueRepository,
	rosterRepo repositories.RosterRepository,
	matchRepo repositories.MatchRepository,
) StandingsService {
	return &standingsService{
		leagues: leagueRepo,
		rosters: rosterRepo,
		matches: matchRepo,
	}
}

// GetStandings returns the league table ordered by rating. Rosters and
// matches are fetched concurrently; win/loss counts consider accepted
// matches only, and Pending counts accepted matches whose rating change
// is still waiting for consolidation.
func (s *standingsService) GetStandings(ctx context.Context, leagueID int) ([]StandingRow, error) {
	if _, err := s.leagues.GetByID(ctx, leagueID); err != nil {
		if errors.Is(err, repositories.ErrLeagueNotFound) {
			return nil, ErrLeagueNotFound
		}
		return nil, err
	}

	var (
		rosters []*models.RosterEntry
		matches []*models.Match
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rosters, err = s.rosters.ListByLeague(gCtx, leagueID)
		return err
	})
	g.Go(func() error {
		var err error
		matches, err = s.matches.ListByLeague(gCtx, leagueID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	type tally struct{ wins, losses, pending int }
	tallies := make(map[int]*tally, len(rosters))
	for _, entry := range rosters {
		tallies[entry.ID] = &tally{}
	}

	for _, match := range matches {
		if match.State == models.StateSubmitted {
			continue
		}
		loserID := match.Player1RosterID
		if loserID == match.WinnerRosterID {
			loserID = match.Player2RosterID
		}
		if t, ok := tallies[match.WinnerRosterID]; ok {
			t.wins++
		}
		if t, ok := tallies[loserID]; ok {
			t.losses++
		}
		if match.State == models.StateAcceptedPending {
			for _, id := range []int{match.Player1RosterID, match.Player2RosterID} {
				if t, ok := tallies[id]; ok {
					t.pending++
				}
			}
		}
	}

	rows := make([]StandingRow, 0, len(rosters))
	for _, entry := range rosters {
		t := tallies[entry.ID]
		rows = append(rows, StandingRow{
			RosterID:    entry.ID,
			DisplayName: entry.DisplayName,
			Rating:      entry.Rating,
			Wins:        t.wins,
			Losses:      t.losses,
			Pending:     t.pending,
		})
	}
	return rows, nil
}
