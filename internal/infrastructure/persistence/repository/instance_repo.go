package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/workflow-engine/internal/application/port"
	"github.com/garyjia/workflow-engine/internal/domain/workflow"
	"github.com/garyjia/workflow-engine/internal/infrastructure/persistence/sqlite"
)

// InstanceRepository implements port.InstanceRepository on SQLite
type InstanceRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewInstanceRepository creates a new instance repository
func NewInstanceRepository(db *sqlite.DB, logger *zap.Logger) *InstanceRepository {
	return &InstanceRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new instance. History is expected to be empty.
func (r *InstanceRepository) Create(ctx context.Context, inst *workflow.Instance) error {
	err := r.db.WithTransaction(ctx, func(ctx context.Context) error {
		exec := r.db.Executor(ctx)

		if _, err := exec.ExecContext(ctx, `
			INSERT INTO workflow_instances (
				id, definition_id, current_state_id, created_at, last_modified_at
			) VALUES (?, ?, ?, ?, ?)`,
			inst.ID, inst.DefinitionID, inst.CurrentStateID,
			formatTime(inst.CreatedAt), formatTime(inst.LastModifiedAt),
		); err != nil {
			return translateInsertError(err)
		}

		for i, entry := range inst.History {
			if err := r.insertHistory(ctx, exec, inst.ID, i+1, entry); err != nil {
				return err
			}
		}
		return nil
	})

	if errors.Is(err, port.ErrAlreadyExists) {
		return err
	}
	if err != nil {
		r.logger.Error("Failed to create instance", zap.String("id", inst.ID), zap.Error(err))
		return fmt.Errorf("failed to create instance: %w", err)
	}
	return nil
}

// GetByID returns the instance with its history, or nil if it does not exist
func (r *InstanceRepository) GetByID(ctx context.Context, id string) (*workflow.Instance, error) {
	inst, err := r.get(ctx, r.db.Executor(ctx), id)
	if err != nil {
		r.logger.Error("Failed to get instance by ID", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get instance: %w", err)
	}
	return inst, nil
}

// List returns every instance ordered by creation time, then id
func (r *InstanceRepository) List(ctx context.Context) ([]*workflow.Instance, error) {
	exec := r.db.Executor(ctx)

	rows, err := exec.QueryContext(ctx, `
		SELECT id, definition_id, current_state_id, created_at, last_modified_at
		FROM workflow_instances
		ORDER BY created_at, id`)
	if err != nil {
		r.logger.Error("Failed to list instances", zap.Error(err))
		return nil, fmt.Errorf("failed to list instances: %w", err)
	}

	insts := make([]*workflow.Instance, 0)
	for rows.Next() {
		inst, err := scanInstance(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		insts = append(insts, inst)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for _, inst := range insts {
		if inst.History, err = r.loadHistory(ctx, exec, inst.ID); err != nil {
			return nil, err
		}
	}
	return insts, nil
}

// RecordTransition moves the instance from entry.FromState to entry.ToState
// and appends entry to its history in a single transaction.
func (r *InstanceRepository) RecordTransition(ctx context.Context, instanceID string, entry workflow.HistoryEntry) (*workflow.Instance, error) {
	var updated *workflow.Instance

	err := r.db.WithTransaction(ctx, func(ctx context.Context) error {
		exec := r.db.Executor(ctx)

		res, err := exec.ExecContext(ctx, `
			UPDATE workflow_instances
			SET current_state_id = ?, last_modified_at = ?
			WHERE id = ? AND current_state_id = ?`,
			entry.ToState, formatTime(entry.ExecutedAt), instanceID, entry.FromState,
		)
		if err != nil {
			return fmt.Errorf("failed to update instance: %w", err)
		}

		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read affected rows: %w", err)
		}
		if n == 0 {
			var exists int
			err := exec.QueryRowContext(ctx, `SELECT 1 FROM workflow_instances WHERE id = ?`, instanceID).Scan(&exists)
			if err == sql.ErrNoRows {
				return workflow.NewInstanceNotFound(instanceID)
			}
			if err != nil {
				return fmt.Errorf("failed to check instance: %w", err)
			}
			return port.ErrConcurrentModification
		}

		var seq int
		if err := exec.QueryRowContext(ctx,
			`SELECT COALESCE(MAX(seq), 0) + 1 FROM instance_history WHERE instance_id = ?`, instanceID,
		).Scan(&seq); err != nil {
			return fmt.Errorf("failed to compute history sequence: %w", err)
		}

		if err := r.insertHistory(ctx, exec, instanceID, seq, entry); err != nil {
			return err
		}

		updated, err = r.get(ctx, exec, instanceID)
		return err
	})

	if err != nil {
		if _, domain := workflow.KindOf(err); !domain && !errors.Is(err, port.ErrConcurrentModification) {
			r.logger.Error("Failed to record transition",
				zap.String("instance_id", instanceID),
				zap.String("action_id", entry.ActionID),
				zap.Error(err))
		}
		return nil, err
	}
	return updated, nil
}

// HealthCheck pings the underlying database
func (r *InstanceRepository) HealthCheck(ctx context.Context) error {
	return r.db.HealthCheck(ctx)
}

func (r *InstanceRepository) get(ctx context.Context, exec sqlite.Executor, id string) (*workflow.Instance, error) {
	row := exec.QueryRowContext(ctx, `
		SELECT id, definition_id, current_state_id, created_at, last_modified_at
		FROM workflow_instances
		WHERE id = ?`, id)

	inst, err := scanInstance(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if inst.History, err = r.loadHistory(ctx, exec, id); err != nil {
		return nil, err
	}
	return inst, nil
}

func (r *InstanceRepository) loadHistory(ctx context.Context, exec sqlite.Executor, instanceID string) ([]workflow.HistoryEntry, error) {
	rows, err := exec.QueryContext(ctx, `
		SELECT action_id, action_name, from_state, to_state, executed_at
		FROM instance_history
		WHERE instance_id = ?
		ORDER BY seq`, instanceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	defer rows.Close()

	history := make([]workflow.HistoryEntry, 0)
	for rows.Next() {
		var (
			entry      workflow.HistoryEntry
			executedAt string
		)
		if err := rows.Scan(&entry.ActionID, &entry.ActionName, &entry.FromState, &entry.ToState, &executedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		if entry.ExecutedAt, err = parseTime(executedAt); err != nil {
			return nil, err
		}
		history = append(history, entry)
	}
	return history, rows.Err()
}

func (r *InstanceRepository) insertHistory(ctx context.Context, exec sqlite.Executor, instanceID string, seq int, entry workflow.HistoryEntry) error {
	_, err := exec.ExecContext(ctx, `
		INSERT INTO instance_history (
			instance_id, seq, action_id, action_name, from_state, to_state, executed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		instanceID, seq, entry.ActionID, entry.ActionName, entry.FromState, entry.ToState, formatTime(entry.ExecutedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert history entry: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanInstance(s scanner) (*workflow.Instance, error) {
	var (
		inst                    workflow.Instance
		createdAt, lastModified string
	)
	if err := s.Scan(&inst.ID, &inst.DefinitionID, &inst.CurrentStateID, &createdAt, &lastModified); err != nil {
		return nil, err
	}

	var err error
	if inst.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if inst.LastModifiedAt, err = parseTime(lastModified); err != nil {
		return nil, err
	}
	return &inst, nil
}

var (
	_ port.InstanceRepository = (*InstanceRepository)(nil)
	_ port.HealthChecker      = (*InstanceRepository)(nil)
)
