package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/c360studio/contentfactory/workflow"
)

// TrackingStore keeps job tracking records in a NATS KV bucket so review
// tooling can query pending jobs without loading full state.
type TrackingStore struct {
	kv jetstream.KeyValue
}

// NewTrackingStore creates the tracking bucket if needed and returns the
// store.
func NewTrackingStore(ctx context.Context, js jetstream.JetStream) (*TrackingStore, error) {
	kv, err := getOrCreateBucket(ctx, js, BucketTracking, "job tracking records")
	if err != nil {
		return nil, fmt.Errorf("create tracking bucket: %w", err)
	}
	return &TrackingStore{kv: kv}, nil
}

// Append implements workflow.TrackingStore.
func (s *TrackingStore) Append(ctx context.Context, record workflow.TrackingRecord) error {
	if record.JobID == "" {
		return fmt.Errorf("record has no job ID")
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	if _, err := s.kv.Put(ctx, record.JobID, data); err != nil {
		return fmt.Errorf("store record: %w", err)
	}
	return nil
}

// Pending implements workflow.TrackingStore: records not yet finalized or
// aborted.
func (s *TrackingStore) Pending(ctx context.Context) ([]workflow.TrackingRecord, error) {
	keys, err := s.kv.Keys(ctx)
	if err != nil {
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("list tracking keys: %w", err)
	}

	var pending []workflow.TrackingRecord
	for _, key := range keys {
		entry, err := s.kv.Get(ctx, key)
		if err != nil {
			continue
		}
		var record workflow.TrackingRecord
		if err := json.Unmarshal(entry.Value(), &record); err != nil {
			continue
		}
		if record.Status == "finalized" || record.Status == "aborted" {
			continue
		}
		pending = append(pending, record)
	}
	return pending, nil
}

// UpdateStatus implements workflow.TrackingStore.
func (s *TrackingStore) UpdateStatus(ctx context.Context, jobID, status string) error {
	entry, err := s.kv.Get(ctx, jobID)
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, jobID)
		}
		return fmt.Errorf("get record: %w", err)
	}

	var record workflow.TrackingRecord
	if err := json.Unmarshal(entry.Value(), &record); err != nil {
		return fmt.Errorf("unmarshal record: %w", err)
	}
	record.Status = status

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	if _, err := s.kv.Put(ctx, jobID, data); err != nil {
		return fmt.Errorf("update record: %w", err)
	}
	return nil
}
