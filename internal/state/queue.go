package state

import (
	"context"
	"database/sql"

	dbutil "github.com/llehouerou/singalong/internal/db"
)

// SaveQueue replaces the stored queue with ids, head first.
func (s *Store) SaveQueue(ctx context.Context, ids []int64) error {
	return dbutil.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		return writeQueue(ctx, tx, ids)
	})
}

// LoadQueue returns the stored queue, head first.
func (s *Store) LoadQueue(ctx context.Context) ([]int64, error) {
	return queueIDs(ctx, s.db)
}

func queueIDs(ctx context.Context, q execQuerier) ([]int64, error) {
	rows, err := q.QueryContext(ctx, `SELECT track_id FROM queue_tracks ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func writeQueue(ctx context.Context, q execQuerier, ids []int64) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM queue_tracks`); err != nil {
		return err
	}
	for i, id := range ids {
		if _, err := q.ExecContext(ctx, `
			INSERT INTO queue_tracks (position, track_id) VALUES (?, ?)
		`, i, id); err != nil {
			return err
		}
	}
	return nil
}

func compactQueue(ctx context.Context, q execQuerier) error {
	ids, err := queueIDs(ctx, q)
	if err != nil {
		return err
	}
	return writeQueue(ctx, q, ids)
}
