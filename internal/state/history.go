package state

import (
	"database/sql"
	"fmt"
	"time"
)

// ActivationStatus represents the status of an activation episode.
type ActivationStatus string

const (
	ActivationActive      ActivationStatus = "active"
	ActivationDeactivated ActivationStatus = "deactivated"
)

// Activation represents one activation episode of a protocol.
type Activation struct {
	ID           string           `json:"id"`
	ProtocolID   string           `json:"protocol_id"`
	ProtocolName string           `json:"protocol_name"`
	StartedAt    time.Time        `json:"started_at"`
	EndedAt      *time.Time       `json:"ended_at,omitempty"`
	Status       ActivationStatus `json:"status"`
}

// StepExecution represents one run of a step during an activation episode.
// The same step can appear many times: re-evaluation passes re-run every
// active step.
type StepExecution struct {
	ID           int64     `json:"id"`
	ActivationID string    `json:"activation_id"`
	ProtocolID   string    `json:"protocol_id"`
	StepID       string    `json:"step_id"`
	Complete     bool      `json:"complete"`
	Error        string    `json:"error,omitempty"`
	ExecutedAt   time.Time `json:"executed_at"`
}

// CreateActivation records the start of an activation episode.
func (db *DB) CreateActivation(a *Activation) error {
	_, err := db.Exec(`
		INSERT INTO activations (id, protocol_id, protocol_name, started_at, status)
		VALUES (?, ?, ?, ?, ?)
	`, a.ID, a.ProtocolID, a.ProtocolName, formatTime(a.StartedAt), string(a.Status))
	if err != nil {
		return fmt.Errorf("create activation: %w", err)
	}
	return nil
}

// CloseActivation marks an activation episode as ended.
func (db *DB) CloseActivation(id string, status ActivationStatus, endedAt time.Time) error {
	_, err := db.Exec(`
		UPDATE activations SET status = ?, ended_at = ? WHERE id = ?
	`, string(status), formatTime(endedAt), id)
	if err != nil {
		return fmt.Errorf("close activation: %w", err)
	}
	return nil
}

// GetActivation retrieves an activation episode by ID.
// Returns nil without error if no row exists.
func (db *DB) GetActivation(id string) (*Activation, error) {
	row := db.QueryRow(`
		SELECT id, protocol_id, protocol_name, started_at, ended_at, status
		FROM activations WHERE id = ?
	`, id)

	var a Activation
	var startedAt string
	var endedAt sql.NullString
	err := row.Scan(&a.ID, &a.ProtocolID, &a.ProtocolName, &startedAt, &endedAt, &a.Status)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get activation: %w", err)
	}

	a.StartedAt, _ = parseTime(startedAt)
	a.EndedAt = parseNullableTime(endedAt)
	return &a, nil
}

// ListActivations returns the most recent activation episodes, newest first.
func (db *DB) ListActivations(limit int) ([]*Activation, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := db.Query(`
		SELECT id, protocol_id, protocol_name, started_at, ended_at, status
		FROM activations ORDER BY started_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list activations: %w", err)
	}
	defer rows.Close()

	var activations []*Activation
	for rows.Next() {
		var a Activation
		var startedAt string
		var endedAt sql.NullString
		if err := rows.Scan(&a.ID, &a.ProtocolID, &a.ProtocolName, &startedAt, &endedAt, &a.Status); err != nil {
			return nil, fmt.Errorf("scan activation: %w", err)
		}
		a.StartedAt, _ = parseTime(startedAt)
		a.EndedAt = parseNullableTime(endedAt)
		activations = append(activations, &a)
	}
	return activations, rows.Err()
}

// RecordStepExecution appends one step execution row.
func (db *DB) RecordStepExecution(e *StepExecution) error {
	_, err := db.Exec(`
		INSERT INTO step_executions (activation_id, protocol_id, step_id, complete, error, executed_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, e.ActivationID, e.ProtocolID, e.StepID, boolToInt(e.Complete), e.Error, formatTime(e.ExecutedAt))
	if err != nil {
		return fmt.Errorf("record step execution: %w", err)
	}
	return nil
}

// ListStepExecutions returns the step executions for an activation episode,
// oldest first.
func (db *DB) ListStepExecutions(activationID string) ([]*StepExecution, error) {
	rows, err := db.Query(`
		SELECT id, activation_id, protocol_id, step_id, complete, error, executed_at
		FROM step_executions WHERE activation_id = ? ORDER BY id ASC
	`, activationID)
	if err != nil {
		return nil, fmt.Errorf("list step executions: %w", err)
	}
	defer rows.Close()

	var executions []*StepExecution
	for rows.Next() {
		var e StepExecution
		var complete int
		var errText sql.NullString
		var executedAt string
		if err := rows.Scan(&e.ID, &e.ActivationID, &e.ProtocolID, &e.StepID, &complete, &errText, &executedAt); err != nil {
			return nil, fmt.Errorf("scan step execution: %w", err)
		}
		e.Complete = complete != 0
		if errText.Valid {
			e.Error = errText.String
		}
		e.ExecutedAt, _ = parseTime(executedAt)
		executions = append(executions, &e)
	}
	return executions, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
