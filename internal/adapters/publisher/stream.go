// Package publisher mirrors draft snapshots onto a Redis stream.
package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/okian/draftnexus/internal/domain/draft"
	"github.com/okian/draftnexus/pkg/logger"
	"github.com/okian/draftnexus/pkg/metrics"
)

const (
	defaultStream  = "draft:recommendations"
	defaultMaxLen  = 1000
	publishTimeout = 2 * time.Second
)

// Streamer is the part of the Redis client the publisher needs.
type Streamer interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// Message is the payload written to the stream.
type Message struct {
	SessionID       string                `json:"session_id"`
	Generation      uint64                `json:"generation"`
	Status          draft.Status          `json:"status"`
	Message         string                `json:"message"`
	Recommendations draft.Recommendations `json:"recommendations"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

// StreamPublisher publishes snapshot recommendations to a Redis stream.
type StreamPublisher struct {
	client Streamer
	stream string
	maxLen int64
	log    logger.Logger

	last []byte
}

// NewStreamPublisher creates a new stream publisher.
func NewStreamPublisher(client Streamer, opts ...Option) *StreamPublisher {
	p := &StreamPublisher{
		client: client,
		stream: defaultStream,
		maxLen: defaultMaxLen,
		log:    logger.Named("publisher"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Publish writes snap to the stream unless its recommendations, status and
// message are unchanged since the previous call. It reports whether an entry
// was added.
func (p *StreamPublisher) Publish(ctx context.Context, snap draft.Snapshot) (bool, error) { //nolint:gocritic // hugeParam: snapshots are values
	key, err := json.Marshal(Message{
		Status:          snap.Status,
		Message:         snap.Message,
		Recommendations: snap.Recommendations,
	})
	if err != nil {
		return false, fmt.Errorf("error marshaling snapshot key: %w", err)
	}
	if bytes.Equal(key, p.last) {
		return false, nil
	}

	data, err := json.Marshal(Message{
		SessionID:       snap.SessionID,
		Generation:      snap.Generation,
		Status:          snap.Status,
		Message:         snap.Message,
		Recommendations: snap.Recommendations,
		UpdatedAt:       snap.UpdatedAt,
	})
	if err != nil {
		return false, fmt.Errorf("error marshaling snapshot: %w", err)
	}

	err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"session_id": snap.SessionID,
			"generation": snap.Generation,
			"data":       string(data),
		},
	}).Err()
	if err != nil {
		metrics.RecordPublishError()
		metrics.RecordErrorByComponent("publisher", "xadd_error")
		return false, fmt.Errorf("error publishing to stream %s: %w", p.stream, err)
	}

	p.last = key
	metrics.RecordSnapshotPublished()
	return true, nil
}

// Run publishes every snapshot received until the channel closes or ctx is
// done. Publish failures are logged and do not stop the loop.
func (p *StreamPublisher) Run(ctx context.Context, snapshots <-chan draft.Snapshot) {
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-snapshots:
			if !ok {
				return
			}
			pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
			if _, err := p.Publish(pubCtx, snap); err != nil {
				p.log.Warn(ctx, "snapshot publish failed",
					logger.Uint64("generation", snap.Generation),
					logger.Error(err))
			}
			cancel()
		}
	}
}
