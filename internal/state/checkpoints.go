package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ShayCichocki/tasktalk/internal/checkpoint"
)

// GetCheckpoint loads the thread's checkpoint.
func (db *DB) GetCheckpoint(ctx context.Context, threadID string) (*checkpoint.Checkpoint, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	cp := checkpoint.Checkpoint{ThreadID: threadID}
	var savedAt string
	err := db.conn.QueryRowContext(ctx, `
		SELECT turn, node, data, saved_at FROM checkpoints WHERE thread_id = ?
	`, threadID).Scan(&cp.Turn, &cp.Node, &cp.Data, &savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, checkpoint.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get checkpoint %s: %w", threadID, err)
	}
	if cp.SavedAt, err = parseTime(savedAt); err != nil {
		return nil, fmt.Errorf("parse saved_at: %w", err)
	}
	return &cp, nil
}

// PutCheckpoint replaces the thread's checkpoint.
func (db *DB) PutCheckpoint(ctx context.Context, cp checkpoint.Checkpoint) error {
	if cp.SavedAt.IsZero() {
		cp.SavedAt = db.now()
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO checkpoints (thread_id, turn, node, data, saved_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(thread_id) DO UPDATE SET
			turn = excluded.turn,
			node = excluded.node,
			data = excluded.data,
			saved_at = excluded.saved_at
	`, cp.ThreadID, cp.Turn, cp.Node, cp.Data, formatTime(cp.SavedAt))
	if err != nil {
		return fmt.Errorf("save checkpoint %s: %w", cp.ThreadID, err)
	}
	return nil
}

// DeleteCheckpoint removes the thread's checkpoint.
func (db *DB) DeleteCheckpoint(ctx context.Context, threadID string) error {
	_, err := db.Exec("DELETE FROM checkpoints WHERE thread_id = ?", threadID)
	if err != nil {
		return fmt.Errorf("delete checkpoint %s: %w", threadID, err)
	}
	return nil
}

// Checkpoints adapts the database to checkpoint.Saver.
func (db *DB) Checkpoints() checkpoint.Saver {
	return checkpointSaver{db}
}

type checkpointSaver struct {
	db *DB
}

func (s checkpointSaver) Get(ctx context.Context, threadID string) (*checkpoint.Checkpoint, error) {
	return s.db.GetCheckpoint(ctx, threadID)
}

func (s checkpointSaver) Put(ctx context.Context, cp checkpoint.Checkpoint) error {
	return s.db.PutCheckpoint(ctx, cp)
}

func (s checkpointSaver) Delete(ctx context.Context, threadID string) error {
	return s.db.DeleteCheckpoint(ctx, threadID)
}
