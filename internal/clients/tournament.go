package clients

import (
	"context"
	"time"
)

type Tournament struct {
	ID               string `json:"id"`
	Status           string `json:"status"`
	NoPlayersPerGame int    `json:"noPlayersPerGame"`
	CurrentRound     int    `json:"currentRound"`
	TotalRounds      int    `json:"totalRounds"`
	JoinFee          int64  `json:"joinFee"`
}

// TournamentMeta is the tournament configuration/status service. The round
// coordinator reads config here and reports eliminated players back.
type TournamentMeta interface {
	Tournament(ctx context.Context, tournamentID string) (Tournament, error)
	ReportLoser(ctx context.Context, tournamentID, userID string) error
}

type HTTPTournamentMeta struct {
	c httpClient
}

func NewHTTPTournamentMeta(baseURL string, timeout time.Duration) *HTTPTournamentMeta {
	return &HTTPTournamentMeta{c: newHTTPClient(baseURL, timeout)}
}

func (t *HTTPTournamentMeta) Tournament(ctx context.Context, tournamentID string) (Tournament, error) {
	var out Tournament
	err := t.c.postJSON(ctx, "/v1/tournament", map[string]string{"tournamentId": tournamentID}, &out)
	return out, err
}

func (t *HTTPTournamentMeta) ReportLoser(ctx context.Context, tournamentID, userID string) error {
	return t.c.postJSON(ctx, "/v1/tournament/loser", map[string]string{
		"tournamentId": tournamentID,
		"userId":       userID,
	}, nil)
}
