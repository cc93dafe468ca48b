package activity

import (
	"context"
	"errors"

	internalerrors "github.com/jrsteele09/postureiq-client/internal/errors"
	"github.com/jrsteele09/postureiq-client/internal/metrics"
	"github.com/rs/zerolog/log"
)

// Querier is the provider's activity query.
type Querier interface {
	QueryActivity(ctx context.Context, userID string) ([]Record, error)
}

// Loader fetches a user's activity and turns it into heatmap cells.
type Loader struct {
	querier Querier
	metrics metrics.Recorder
}

// NewLoader creates a Loader. A nil recorder disables metrics.
func NewLoader(querier Querier, recorder metrics.Recorder) (*Loader, error) {
	if querier == nil {
		return nil, errors.New("[NewLoader] querier is required")
	}
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &Loader{querier: querier, metrics: recorder}, nil
}

// Load never fails: a failed query yields an all-inactive grid. The
// returned error reports the degradation and wraps ErrActivityQueryFailed.
func (l *Loader) Load(ctx context.Context, userID string, today Date) ([]Cell, error) {
	records, err := l.querier.QueryActivity(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("activity query failed, showing empty heatmap")
		l.metrics.RecordActivityQueryFailure()
		return Build(nil, today), internalerrors.Wrapf(internalerrors.ErrActivityQueryFailed, "%v", err)
	}

	owned := records[:0:0]
	for _, r := range records {
		if r.UserID != "" && r.UserID != userID {
			log.Debug().Str("user_id", userID).Str("record_user_id", r.UserID).Msg("skipping activity record for another user")
			continue
		}
		owned = append(owned, r)
	}
	return Build(owned, today), nil
}
