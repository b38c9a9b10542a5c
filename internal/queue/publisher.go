package queue

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
)

// Publisher enqueues asset-cleanup work for the worker process.
type Publisher struct {
	client *redis.Client
	stream string
}

func NewPublisher(client *redis.Client, stream string) *Publisher {
	return &Publisher{client: client, stream: stream}
}

// EnqueuePurge asks the worker to delete the given object keys, or a
// whole gift folder when one is known.
func (p *Publisher) EnqueuePurge(ctx context.Context, folder string, keys []string) error {
	if p.client == nil {
		return nil
	}

	encoded, err := json.Marshal(keys)
	if err != nil {
		return err
	}

	_, err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]any{
			"type":   "purge",
			"folder": folder,
			"keys":   string(encoded),
		},
	}).Result()
	return err
}
