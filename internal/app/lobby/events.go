package lobby

import "time"

// Matchmaking events. Topics are user ids; the table itself has no push
// topic until it exists.

// MatchedTablesEvent doubles as the prospective-group broadcast (TableID
// empty, deadline = when the group will be forced) and the match result
// (TableID set).
type MatchedTablesEvent struct {
	TableTypeID string    `json:"tableTypeId"`
	TableID     string    `json:"tableId,omitempty"`
	UserIDs     []string  `json:"userIds"`
	JoinFee     int64     `json:"joinFee"`
	Deadline    time.Time `json:"deadline,omitempty"`
}

func (MatchedTablesEvent) Kind() string { return "matchedTables" }

type WaitingTimedOutEvent struct {
	UserID      string `json:"userId"`
	TableTypeID string `json:"tableTypeId"`
	BigTable    bool   `json:"bigTable,omitempty"`
}

func (WaitingTimedOutEvent) Kind() string { return "waitingTimedOut" }

type LeftWaitingEvent struct {
	UserID      string `json:"userId"`
	TableTypeID string `json:"tableTypeId"`
}

func (LeftWaitingEvent) Kind() string { return "leftWaiting" }
