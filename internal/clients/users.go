package clients

import (
	"context"
	"time"
)

type Profile struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
	GamesPlayed int    `json:"gamesPlayed"`
	GamesWon    int    `json:"gamesWon"`
}

// Users serves display profiles and play statistics, and tracks free-game
// credit consumption.
type Users interface {
	Profiles(ctx context.Context, userIDs []string) ([]Profile, error)
	ConsumeFreeGame(ctx context.Context, userID string) error
}

type HTTPUsers struct {
	c httpClient
}

func NewHTTPUsers(baseURL string, timeout time.Duration) *HTTPUsers {
	return &HTTPUsers{c: newHTTPClient(baseURL, timeout)}
}

func (u *HTTPUsers) Profiles(ctx context.Context, userIDs []string) ([]Profile, error) {
	var out struct {
		Profiles []Profile `json:"profiles"`
	}
	err := u.c.postJSON(ctx, "/v1/profiles", map[string]any{"userIds": userIDs}, &out)
	return out.Profiles, err
}

func (u *HTTPUsers) ConsumeFreeGame(ctx context.Context, userID string) error {
	return u.c.postJSON(ctx, "/v1/free-game/consume", map[string]string{"userId": userID}, nil)
}
