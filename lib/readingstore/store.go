// Package readingstore persists scrape results so the display layer can
// keep serving the last known good snapshot across failed refreshes, and
// keeps a per-meter series of readings over time.
package readingstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
	"zkhmon-backend/lib/scrapers/zkh"
	"zkhmon-backend/lib/timezone"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

var ErrNoSnapshot = errors.New("no snapshot has been stored yet")

type Store struct {
	db *sql.DB
}

func NewStore(ctx context.Context, database *sql.DB) (Store, error) {
	_, err := database.ExecContext(ctx, Schema)
	if err != nil {
		return Store{}, err
	}
	return Store{db: database}, nil
}

type Snapshot struct {
	Time   time.Time
	Result zkh.FetchResult
}

type ReadingPoint struct {
	Time  time.Time
	Value int64
}

// Push stores a snapshot and appends one series point per meter. Points
// from the same day are replaced rather than duplicated, a refresh runs
// far more often than readings actually change.
func (s Store) Push(ctx context.Context, at time.Time, result zkh.FetchResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO snapshots (time, data) VALUES (?, ?)`,
		at.Unix(), string(data),
	)
	if err != nil {
		return err
	}

	local := at.In(timezone.Location)
	startOfToday := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, timezone.Location).Unix()
	startOfTomorrow := time.Date(local.Year(), local.Month(), local.Day()+1, 0, 0, 0, 0, timezone.Location).Unix()

	for key, meter := range result.Meters {
		_, err = tx.ExecContext(ctx,
			`DELETE FROM readings WHERE serial_key = ? AND time >= ? AND time < ?`,
			key, startOfToday, startOfTomorrow,
		)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO readings (serial_key, time, value) VALUES (?, ?, ?)`,
			key, at.Unix(), meter.Value,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Latest returns the most recent snapshot, or ErrNoSnapshot before the
// first successful refresh.
func (s Store) Latest(ctx context.Context) (Snapshot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT time, data FROM snapshots ORDER BY time DESC, id DESC LIMIT 1`,
	)

	var unix int64
	var data string
	err := row.Scan(&unix, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, ErrNoSnapshot
	}
	if err != nil {
		return Snapshot{}, err
	}

	var result zkh.FetchResult
	err = json.Unmarshal([]byte(data), &result)
	if err != nil {
		return Snapshot{}, err
	}

	return Snapshot{
		Time:   time.Unix(unix, 0).In(timezone.Location),
		Result: result,
	}, nil
}

// MeterHistory returns the stored series for one meter in chronological
// order. An unknown key yields an empty series, not an error.
func (s Store) MeterHistory(ctx context.Context, serialKey string) ([]ReadingPoint, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT time, value FROM readings WHERE serial_key = ? ORDER BY time ASC`,
		serialKey,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []ReadingPoint
	for rows.Next() {
		var unix, value int64
		err := rows.Scan(&unix, &value)
		if err != nil {
			return nil, err
		}
		points = append(points, ReadingPoint{
			Time:  time.Unix(unix, 0).In(timezone.Location),
			Value: value,
		})
	}
	return points, rows.Err()
}
