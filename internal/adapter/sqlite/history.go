package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/neomorfeo/trasvase/internal/domain"
)

// historyRecorder implements domain.HistoryRecorder over an insert-only
// table. The per-asset seq is computed inside the INSERT; running inside a
// Store transaction keeps it gap-free under concurrency.
type historyRecorder struct {
	q querier
}

func (r *historyRecorder) Append(ctx context.Context, e domain.HistoryEvent) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO asset_events (asset_id, seq, timestamp, actor, kind, detail)
		 SELECT ?, COALESCE(MAX(seq), 0) + 1, ?, ?, ?, ?
		 FROM asset_events WHERE asset_id = ?`,
		e.AssetID, e.Timestamp.Format(timeFormat), e.Actor, string(e.Kind), e.Detail,
		e.AssetID,
	)
	if err != nil {
		return fmt.Errorf("appending asset event: %w", err)
	}
	return nil
}

func (r *historyRecorder) History(ctx context.Context, assetID string) ([]domain.HistoryEvent, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT asset_id, seq, timestamp, actor, kind, detail
		 FROM asset_events WHERE asset_id = ? ORDER BY seq`, assetID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing asset events: %w", err)
	}
	defer rows.Close()

	var events []domain.HistoryEvent
	for rows.Next() {
		var e domain.HistoryEvent
		var ts, kind string
		if err := rows.Scan(&e.AssetID, &e.Seq, &ts, &e.Actor, &kind, &e.Detail); err != nil {
			return nil, fmt.Errorf("scanning asset event: %w", err)
		}
		e.Timestamp, _ = time.Parse(timeFormat, ts)
		e.Kind = domain.EventKind(kind)
		events = append(events, e)
	}

	return events, rows.Err()
}
