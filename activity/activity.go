package activity

import "context"

// Record marks a single day on which a user was active.
type Record struct {
	UserID string `json:"user_id"`
	Date   Date   `json:"date"`
}

// Repo reads a user's activity log, ordered by date ascending.
type Repo interface {
	ListByUser(ctx context.Context, userID string) ([]Record, error)
}
