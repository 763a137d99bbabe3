package publisher

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/XavierBriggs/fortuna/services/nfl-analytics-service/pkg/models"
	"github.com/redis/go-redis/v9"
)

// StreamPublisher publishes analysis results to a Redis stream for
// downstream consumers (broadcasters, alerting).
type StreamPublisher struct {
	client *redis.Client
	stream string
}

// NewStreamPublisher creates a new stream publisher
func NewStreamPublisher(client *redis.Client, stream string) *StreamPublisher {
	if stream == "" {
		stream = "games.analysis.nfl"
	}
	return &StreamPublisher{
		client: client,
		stream: stream,
	}
}

// PublishAnalysis publishes one game's analysis payload
func (p *StreamPublisher) PublishAnalysis(ctx context.Context, payload *models.AnalysisPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling analysis update: %w", err)
	}

	// Publish to Redis stream
	return p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			"data":    string(data),
			"game_id": payload.GameID,
			"status":  payload.Status,
		},
	}).Err()
}
