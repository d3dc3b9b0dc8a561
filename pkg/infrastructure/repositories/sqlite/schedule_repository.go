package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vsinha/lineplan/pkg/domain/entities"
	"github.com/vsinha/lineplan/pkg/domain/repositories"
)

const horizonKey = "horizon"

// ScheduleRepository stores the timeline session snapshot. Save replaces the
// whole snapshot in one transaction.
type ScheduleRepository struct {
	db *sql.DB
}

// NewScheduleRepository creates a ScheduleRepository
func NewScheduleRepository(db *sql.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

var _ repositories.ScheduleRepository = (*ScheduleRepository)(nil)

func (r *ScheduleRepository) Load(ctx context.Context) (*repositories.ScheduleSnapshot, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, resource_id, order_id, process_id, quantity,
		start_at, end_at, duration_ns, work_minutes, batch_number, parent_id, auto_scheduled, latest_start
		FROM scheduled_items ORDER BY resource_id, start_at, id`)
	if err != nil {
		return nil, fmt.Errorf("listing scheduled items: %w", err)
	}
	defer rows.Close()

	snapshot := &repositories.ScheduleSnapshot{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		snapshot.Items = append(snapshot.Items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating scheduled items: %w", err)
	}

	var horizon string
	err = r.db.QueryRowContext(ctx, `SELECT value FROM timeline_meta WHERE key = ?`, horizonKey).Scan(&horizon)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return nil, fmt.Errorf("loading horizon: %w", err)
	default:
		snapshot.Horizon, err = time.Parse(time.RFC3339Nano, horizon)
		if err != nil {
			return nil, fmt.Errorf("parsing horizon: %w", err)
		}
	}
	return snapshot, nil
}

func (r *ScheduleRepository) Save(ctx context.Context, snapshot *repositories.ScheduleSnapshot) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := saveSnapshot(ctx, tx, snapshot); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func saveSnapshot(ctx context.Context, tx DBTX, snapshot *repositories.ScheduleSnapshot) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM scheduled_items`); err != nil {
		return fmt.Errorf("clearing scheduled items: %w", err)
	}

	query := `INSERT INTO scheduled_items (id, resource_id, order_id, process_id, quantity,
		start_at, end_at, duration_ns, work_minutes, batch_number, parent_id, auto_scheduled, latest_start)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for _, item := range snapshot.Items {
		var latest any
		if item.LatestStart != nil {
			latest = item.LatestStart.UTC().Format(time.RFC3339Nano)
		}
		_, err := tx.ExecContext(ctx, query,
			item.ID,
			string(item.ResourceID),
			string(item.OrderID),
			string(item.ProcessID),
			int64(item.Quantity),
			item.Start.UTC().Format(time.RFC3339Nano),
			item.End.UTC().Format(time.RFC3339Nano),
			int64(item.Duration),
			item.WorkMinutes,
			item.BatchNumber,
			item.ParentID,
			boolToInt(item.AutoScheduled),
			latest,
		)
		if err != nil {
			return fmt.Errorf("inserting scheduled item %s: %w", item.ID, err)
		}
	}

	_, err := tx.ExecContext(ctx, `INSERT INTO timeline_meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		horizonKey, snapshot.Horizon.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("saving horizon: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(s scanner) (*entities.ScheduledProcess, error) {
	var (
		item                 entities.ScheduledProcess
		resourceID, orderID  string
		processID            string
		quantity, durationNS int64
		startAt, endAt       string
		autoScheduled        int
		latestStart          sql.NullString
	)
	err := s.Scan(&item.ID, &resourceID, &orderID, &processID, &quantity,
		&startAt, &endAt, &durationNS, &item.WorkMinutes, &item.BatchNumber, &item.ParentID,
		&autoScheduled, &latestStart)
	if err != nil {
		return nil, fmt.Errorf("scanning scheduled item: %w", err)
	}

	item.ResourceID = entities.ResourceID(resourceID)
	item.OrderID = entities.OrderID(orderID)
	item.ProcessID = entities.ProcessID(processID)
	item.Quantity = entities.Quantity(quantity)
	item.Duration = time.Duration(durationNS)
	item.AutoScheduled = autoScheduled != 0

	if item.Start, err = time.Parse(time.RFC3339Nano, startAt); err != nil {
		return nil, fmt.Errorf("parsing start of %s: %w", item.ID, err)
	}
	if item.End, err = time.Parse(time.RFC3339Nano, endAt); err != nil {
		return nil, fmt.Errorf("parsing end of %s: %w", item.ID, err)
	}
	if latestStart.Valid {
		t, err := time.Parse(time.RFC3339Nano, latestStart.String)
		if err != nil {
			return nil, fmt.Errorf("parsing latest start of %s: %w", item.ID, err)
		}
		item.LatestStart = &t
	}
	return &item, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
