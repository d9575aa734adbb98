// Package storage persists workflow state, tracking records, and source
// documents. Job state and tracking live in NATS JetStream KV; documents on
// the filesystem.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/c360studio/contentfactory/workflow"
)

// Bucket names.
const (
	BucketStates   = "CONTENTFACTORY_STATES"
	BucketTracking = "CONTENTFACTORY_TRACKING"
)

// StateStore checkpoints workflow state in a NATS KV bucket, one key per
// job, so a restarted process can resume at the last completed phase.
type StateStore struct {
	kv jetstream.KeyValue
}

// NewStateStore creates the state bucket if needed and returns the store.
func NewStateStore(ctx context.Context, js jetstream.JetStream) (*StateStore, error) {
	kv, err := getOrCreateBucket(ctx, js, BucketStates, "job state checkpoints")
	if err != nil {
		return nil, fmt.Errorf("create states bucket: %w", err)
	}
	return &StateStore{kv: kv}, nil
}

// Save implements workflow.StateStore.
func (s *StateStore) Save(ctx context.Context, state workflow.State) error {
	if state.JobID == "" {
		return fmt.Errorf("state has no job ID")
	}
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	if _, err := s.kv.Put(ctx, state.JobID, data); err != nil {
		return fmt.Errorf("store state: %w", err)
	}
	return nil
}

// Load implements workflow.StateStore.
func (s *StateStore) Load(ctx context.Context, jobID string) (workflow.State, error) {
	entry, err := s.kv.Get(ctx, jobID)
	if err != nil {
		if isNotFound(err) {
			return workflow.State{}, fmt.Errorf("%w: %s", ErrNotFound, jobID)
		}
		return workflow.State{}, fmt.Errorf("get state: %w", err)
	}

	var state workflow.State
	if err := json.Unmarshal(entry.Value(), &state); err != nil {
		return workflow.State{}, fmt.Errorf("unmarshal state: %w", err)
	}
	return state, nil
}

// List implements workflow.StateStore. Entries that fail to load are
// skipped.
func (s *StateStore) List(ctx context.Context) ([]workflow.State, error) {
	keys, err := s.kv.Keys(ctx)
	if err != nil {
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("list state keys: %w", err)
	}

	states := make([]workflow.State, 0, len(keys))
	for _, key := range keys {
		entry, err := s.kv.Get(ctx, key)
		if err != nil {
			continue
		}
		var state workflow.State
		if err := json.Unmarshal(entry.Value(), &state); err != nil {
			continue
		}
		states = append(states, state)
	}
	return states, nil
}

func getOrCreateBucket(ctx context.Context, js jetstream.JetStream, name, description string) (jetstream.KeyValue, error) {
	kv, err := js.KeyValue(ctx, name)
	if err == nil {
		return kv, nil
	}
	return js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      name,
		Description: description,
		History:     5,
	})
}

func isNotFound(err error) bool {
	return errors.Is(err, jetstream.ErrKeyNotFound)
}
