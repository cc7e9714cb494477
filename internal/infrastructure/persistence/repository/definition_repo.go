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

// DefinitionRepository implements port.DefinitionRepository on SQLite. A
// definition spans four tables and is always written in one transaction.
type DefinitionRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewDefinitionRepository creates a new definition repository
func NewDefinitionRepository(db *sqlite.DB, logger *zap.Logger) *DefinitionRepository {
	return &DefinitionRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts the definition with its states, actions and action sources
func (r *DefinitionRepository) Create(ctx context.Context, def *workflow.Definition) error {
	err := r.db.WithTransaction(ctx, func(ctx context.Context) error {
		exec := r.db.Executor(ctx)

		if _, err := exec.ExecContext(ctx,
			`INSERT INTO workflow_definitions (id, name, created_at) VALUES (?, ?, ?)`,
			def.ID, def.Name, formatTime(def.CreatedAt),
		); err != nil {
			return translateInsertError(err)
		}

		for pos, s := range def.States {
			if _, err := exec.ExecContext(ctx, `
				INSERT INTO workflow_states (
					definition_id, position, id, name, is_initial, is_final, enabled, description
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				def.ID, pos, s.ID, s.Name, s.IsInitial, s.IsFinal, s.Enabled, s.Description,
			); err != nil {
				return fmt.Errorf("failed to insert state %q: %w", s.ID, err)
			}
		}

		for pos, a := range def.Actions {
			if _, err := exec.ExecContext(ctx, `
				INSERT INTO workflow_actions (
					definition_id, position, id, name, enabled, to_state, description
				) VALUES (?, ?, ?, ?, ?, ?, ?)`,
				def.ID, pos, a.ID, a.Name, a.Enabled, a.ToState, a.Description,
			); err != nil {
				return fmt.Errorf("failed to insert action %q: %w", a.ID, err)
			}

			for srcPos, from := range a.FromStates {
				if _, err := exec.ExecContext(ctx, `
					INSERT INTO workflow_action_sources (
						definition_id, action_position, position, state_id
					) VALUES (?, ?, ?, ?)`,
					def.ID, pos, srcPos, from,
				); err != nil {
					return fmt.Errorf("failed to insert source %q of action %q: %w", from, a.ID, err)
				}
			}
		}

		return nil
	})

	if errors.Is(err, port.ErrAlreadyExists) {
		return err
	}
	if err != nil {
		r.logger.Error("Failed to create definition", zap.String("id", def.ID), zap.Error(err))
		return fmt.Errorf("failed to create definition: %w", err)
	}
	return nil
}

// GetByID returns the definition, or nil if it does not exist
func (r *DefinitionRepository) GetByID(ctx context.Context, id string) (*workflow.Definition, error) {
	exec := r.db.Executor(ctx)

	var (
		def       workflow.Definition
		createdAt string
	)
	err := exec.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM workflow_definitions WHERE id = ?`, id,
	).Scan(&def.ID, &def.Name, &createdAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get definition by ID", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get definition: %w", err)
	}

	if def.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if err := r.loadParts(ctx, exec, &def); err != nil {
		return nil, err
	}
	return &def, nil
}

// List returns every definition ordered by creation time, then id
func (r *DefinitionRepository) List(ctx context.Context) ([]*workflow.Definition, error) {
	exec := r.db.Executor(ctx)

	rows, err := exec.QueryContext(ctx,
		`SELECT id, name, created_at FROM workflow_definitions ORDER BY created_at, id`)
	if err != nil {
		r.logger.Error("Failed to list definitions", zap.Error(err))
		return nil, fmt.Errorf("failed to list definitions: %w", err)
	}

	defs := make([]*workflow.Definition, 0)
	for rows.Next() {
		var (
			def       workflow.Definition
			createdAt string
		)
		if err := rows.Scan(&def.ID, &def.Name, &createdAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan definition: %w", err)
		}
		if def.CreatedAt, err = parseTime(createdAt); err != nil {
			rows.Close()
			return nil, err
		}
		defs = append(defs, &def)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for _, def := range defs {
		if err := r.loadParts(ctx, exec, def); err != nil {
			return nil, err
		}
	}
	return defs, nil
}

// loadParts fills in the states and actions of def in declaration order
func (r *DefinitionRepository) loadParts(ctx context.Context, exec sqlite.Executor, def *workflow.Definition) error {
	states, err := exec.QueryContext(ctx, `
		SELECT id, name, is_initial, is_final, enabled, description
		FROM workflow_states
		WHERE definition_id = ?
		ORDER BY position`, def.ID)
	if err != nil {
		return fmt.Errorf("failed to load states: %w", err)
	}
	def.States = make([]workflow.State, 0)
	for states.Next() {
		var s workflow.State
		if err := states.Scan(&s.ID, &s.Name, &s.IsInitial, &s.IsFinal, &s.Enabled, &s.Description); err != nil {
			states.Close()
			return fmt.Errorf("failed to scan state: %w", err)
		}
		def.States = append(def.States, s)
	}
	states.Close()
	if err := states.Err(); err != nil {
		return err
	}

	actions, err := exec.QueryContext(ctx, `
		SELECT id, name, enabled, to_state, description
		FROM workflow_actions
		WHERE definition_id = ?
		ORDER BY position`, def.ID)
	if err != nil {
		return fmt.Errorf("failed to load actions: %w", err)
	}
	def.Actions = make([]workflow.Action, 0)
	for actions.Next() {
		a := workflow.Action{FromStates: make([]string, 0)}
		if err := actions.Scan(&a.ID, &a.Name, &a.Enabled, &a.ToState, &a.Description); err != nil {
			actions.Close()
			return fmt.Errorf("failed to scan action: %w", err)
		}
		def.Actions = append(def.Actions, a)
	}
	actions.Close()
	if err := actions.Err(); err != nil {
		return err
	}

	sources, err := exec.QueryContext(ctx, `
		SELECT action_position, state_id
		FROM workflow_action_sources
		WHERE definition_id = ?
		ORDER BY action_position, position`, def.ID)
	if err != nil {
		return fmt.Errorf("failed to load action sources: %w", err)
	}
	defer sources.Close()
	for sources.Next() {
		var (
			pos     int
			stateID string
		)
		if err := sources.Scan(&pos, &stateID); err != nil {
			return fmt.Errorf("failed to scan action source: %w", err)
		}
		if pos < 0 || pos >= len(def.Actions) {
			return fmt.Errorf("action source references missing action position %d", pos)
		}
		def.Actions[pos].FromStates = append(def.Actions[pos].FromStates, stateID)
	}
	return sources.Err()
}

var _ port.DefinitionRepository = (*DefinitionRepository)(nil)
