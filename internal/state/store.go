package state

import (
	"context"
	"errors"
	"time"

	"ludo-server/internal/game"
)

// The ephemeral store is the single source of truth for in-progress state.
// Everything here may vanish on restart; the permanent record store keeps
// the durable trail. Mutators must hold the relevant lock keys.

var ErrNotFound = errors.New("not_found")

// WaitingUser is one matchmaking queue entry. It exists only between join
// and match/withdraw/expiry.
type WaitingUser struct {
	UserID      string    `json:"userId"`
	TableTypeID string    `json:"tableTypeId"`
	IP          string    `json:"ip,omitempty"`
	JoinedAt    time.Time `json:"joinedAt"`
	ExpiresAt   time.Time `json:"expiresAt"`
	JoinFee     int64     `json:"joinFee"`
}

// Store is the ephemeral storage contract shared by the gameplay services.
type Store interface {
	SaveTable(ctx context.Context, t *game.Table) error
	LoadTable(ctx context.Context, tableID string) (*game.Table, error)
	DeleteTable(ctx context.Context, tableID string) error

	// user id -> active table pointer
	SetActiveTable(ctx context.Context, userID, tableID string) error
	ActiveTable(ctx context.Context, userID string) (string, error)
	ClearActiveTable(ctx context.Context, userID string) error

	// per table-type waiting pool, plus a user -> table-type pointer so the
	// reconnection resolver can find a waiting entry without scanning
	AddWaiting(ctx context.Context, w WaitingUser) error
	RemoveWaiting(ctx context.Context, tableTypeID, userID string) error
	Waiting(ctx context.Context, tableTypeID string) ([]WaitingUser, error)
	WaitingEntry(ctx context.Context, userID string) (WaitingUser, error)

	// tournament round fan-out bookkeeping
	SaveRoundTables(ctx context.Context, tournamentID string, round int, tableIDs []string) error
	RoundTables(ctx context.Context, tournamentID string, round int) ([]string, error)
}
