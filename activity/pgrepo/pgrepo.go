// Package pgrepo reads the user_activity table from Postgres.
package pgrepo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jrsteele09/postureiq-client/activity"
)

const listByUserQuery = `SELECT user_id, date FROM user_activity WHERE user_id = $1 ORDER BY date ASC`

var _ activity.Repo = (*Repo)(nil)

// Repo is a read-only activity.Repo over database/sql with the pgx driver.
type Repo struct {
	db *sql.DB
}

// Open connects to databaseURL and verifies the connection.
func Open(ctx context.Context, databaseURL string) (*Repo, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetMaxIdleConns(2)
	db.SetMaxOpenConns(4)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return &Repo{db: db}, nil
}

// New wraps an existing handle.
func New(db *sql.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) ListByUser(ctx context.Context, userID string) ([]activity.Record, error) {
	rows, err := r.db.QueryContext(ctx, listByUserQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("query user_activity: %w", err)
	}
	defer rows.Close()

	var out []activity.Record
	for rows.Next() {
		var (
			uid string
			day time.Time
		)
		if err := rows.Scan(&uid, &day); err != nil {
			return nil, fmt.Errorf("scan user_activity: %w", err)
		}
		// date columns arrive as UTC midnight; read the date in UTC so the
		// local zone cannot shift it.
		out = append(out, activity.Record{UserID: uid, Date: activity.DateOf(day.UTC())})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user_activity: %w", err)
	}
	return out, nil
}

func (r *Repo) Close() error {
	return r.db.Close()
}
