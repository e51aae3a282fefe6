package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ideuxs/toumai-admin/models"
)

// RecordModerationEvent appends a moderation/audit row (best-effort).
// Callers should treat failures as non-fatal; the primary operation should
// not depend on this log.
func (d *Database) RecordModerationEvent(ctx context.Context, ev models.ModerationEvent) error {
	var detailsJSON []byte
	if ev.Details != nil {
		if b, err := json.Marshal(ev.Details); err == nil {
			detailsJSON = b
		}
	}

	_, err := d.db.ExecContext(ctx, `
		INSERT INTO moderation_events (
			actor, action, target_type, target_id, details
		) VALUES (?, ?, ?, ?, ?)
	`,
		nullableStr(ev.Actor),
		ev.Action,
		ev.TargetType,
		ev.TargetID,
		nullableBytes(detailsJSON),
	)
	if err != nil {
		return fmt.Errorf("insert moderation_events: %w", err)
	}
	return nil
}
