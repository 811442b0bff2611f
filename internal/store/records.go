package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
)

// Table lifecycle statuses. A record never goes back from a terminal status;
// the ephemeral copy is deleted instead.
const (
	StatusActive    = "active"
	StatusFinished  = "finished"
	StatusDiscarded = "discarded"
)

type TableRecord struct {
	ID           string
	TableTypeID  string
	Variant      string
	JoinFee      int64
	TournamentID string
	RoundNo      int
	Status       string
	Players      []string
	Winners      []string
	Scores       map[string]int
	CreatedAt    time.Time
	EndedAt      *time.Time
}

func (s *Store) CreateTableRecord(ctx context.Context, r TableRecord) error {
	players, err := json.Marshal(r.Players)
	if err != nil {
		return err
	}
	_, err = s.Pool.Exec(ctx, `
		INSERT INTO table_records (id, table_type_id, variant, join_fee, tournament_id, round_no, status, players)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		r.ID, r.TableTypeID, r.Variant, r.JoinFee, r.TournamentID, r.RoundNo, StatusActive, players)
	return err
}

// FinishTableRecord moves a record to its terminal status with the final
// winners and scores. Idempotent per table id on repeated terminal writes.
func (s *Store) FinishTableRecord(ctx context.Context, tableID, status string, winners []string, scores map[string]int) error {
	winnersRaw, err := json.Marshal(winners)
	if err != nil {
		return err
	}
	scoresRaw, err := json.Marshal(scores)
	if err != nil {
		return err
	}
	tag, err := s.Pool.Exec(ctx, `
		UPDATE table_records
		SET status = $2, winners = $3, scores = $4, ended_at = now()
		WHERE id = $1`,
		tableID, status, winnersRaw, scoresRaw)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) TableRecord(ctx context.Context, tableID string) (TableRecord, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT id, table_type_id, variant, join_fee, tournament_id, round_no, status,
		       players, winners, scores, created_at, ended_at
		FROM table_records WHERE id = $1`, tableID)
	return scanRecord(row)
}

// TournamentRoundRecords is the reconnection/aggregation fallback: it lists
// every record of one tournament round, including already-terminal ones.
func (s *Store) TournamentRoundRecords(ctx context.Context, tournamentID string, roundNo int) ([]TableRecord, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, table_type_id, variant, join_fee, tournament_id, round_no, status,
		       players, winners, scores, created_at, ended_at
		FROM table_records
		WHERE tournament_id = $1 AND round_no = $2
		ORDER BY created_at`, tournamentID, roundNo)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TableRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (TableRecord, error) {
	var (
		r       TableRecord
		players []byte
		winners []byte
		scores  []byte
	)
	err := row.Scan(&r.ID, &r.TableTypeID, &r.Variant, &r.JoinFee, &r.TournamentID,
		&r.RoundNo, &r.Status, &players, &winners, &scores, &r.CreatedAt, &r.EndedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return TableRecord{}, ErrNotFound
	}
	if err != nil {
		return TableRecord{}, err
	}
	if err := json.Unmarshal(players, &r.Players); err != nil {
		return TableRecord{}, err
	}
	if len(winners) > 0 {
		if err := json.Unmarshal(winners, &r.Winners); err != nil {
			return TableRecord{}, err
		}
	}
	if len(scores) > 0 {
		if err := json.Unmarshal(scores, &r.Scores); err != nil {
			return TableRecord{}, err
		}
	}
	return r, nil
}
