package checkpoint

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

var checkpointsBucket = []byte("checkpoints")

// BoltSaver keeps checkpoints in a bbolt file, one JSON value per thread.
type BoltSaver struct {
	db *bolt.DB
}

var _ Saver = (*BoltSaver)(nil)

// OpenBolt opens or creates the checkpoint file at path.
func OpenBolt(path string) (*BoltSaver, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create checkpoint directory: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open checkpoint file: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(checkpointsBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create checkpoint bucket: %w", err)
	}
	return &BoltSaver{db: db}, nil
}

// Get loads the thread's checkpoint.
func (s *BoltSaver) Get(ctx context.Context, threadID string) (*Checkpoint, error) {
	var cp *Checkpoint
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(checkpointsBucket).Get([]byte(threadID))
		if v == nil {
			return ErrNotFound
		}
		var rec Checkpoint
		if err := json.Unmarshal(v, &rec); err != nil {
			return fmt.Errorf("decode checkpoint %s: %w", threadID, err)
		}
		cp = &rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cp, nil
}

// Put replaces the thread's checkpoint.
func (s *BoltSaver) Put(ctx context.Context, cp Checkpoint) error {
	if cp.SavedAt.IsZero() {
		cp.SavedAt = time.Now()
	}
	enc, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("encode checkpoint %s: %w", cp.ThreadID, err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(checkpointsBucket).Put([]byte(cp.ThreadID), enc)
	})
}

// Delete removes the thread's checkpoint.
func (s *BoltSaver) Delete(ctx context.Context, threadID string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(checkpointsBucket).Delete([]byte(threadID))
	})
}

// Close closes the file.
func (s *BoltSaver) Close() error {
	return s.db.Close()
}
