package tasks

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// ObjectRemover is the slice of the object store the worker needs.
type ObjectRemover interface {
	Remove(ctx context.Context, objectKey string) error
	RemoveFolder(ctx context.Context, prefix string) error
}

// Processor executes cleanup tasks published by the API: deleting the
// remote media of rejected requests and permanently deleted gifts.
type Processor struct {
	store  ObjectRemover
	logger zerolog.Logger
}

type purgePayload struct {
	Type   string `json:"type"`
	Folder string `json:"folder"`
	Keys   string `json:"keys"` // JSON-encoded []string of object keys
}

func NewProcessor(store ObjectRemover, logger zerolog.Logger) *Processor {
	return &Processor{
		store:  store,
		logger: logger,
	}
}

func (p *Processor) Handle(ctx context.Context, msg redis.XMessage) error {
	var payload purgePayload
	if err := decodePayload(msg.Values, &payload); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}

	switch payload.Type {
	case "purge":
		return p.handlePurge(ctx, payload)
	default:
		p.logger.Warn().Str("type", payload.Type).Msg("unknown task type")
		return nil
	}
}

func decodePayload(values map[string]interface{}, out *purgePayload) error {
	encoded, err := json.Marshal(values)
	if err != nil {
		return err
	}
	return json.Unmarshal(encoded, out)
}

// handlePurge prefers deleting the whole gift folder; when the task
// carries no folder it falls back to the individual keys. Both paths
// are idempotent against already-deleted objects.
func (p *Processor) handlePurge(ctx context.Context, payload purgePayload) error {
	if payload.Folder != "" {
		if err := p.store.RemoveFolder(ctx, payload.Folder); err != nil {
			return fmt.Errorf("remove folder %s: %w", payload.Folder, err)
		}
		p.logger.Info().Str("folder", payload.Folder).Msg("gift folder purged")
		return nil
	}

	var keys []string
	if payload.Keys != "" {
		if err := json.Unmarshal([]byte(payload.Keys), &keys); err != nil {
			return fmt.Errorf("decode keys: %w", err)
		}
	}

	for _, key := range keys {
		if err := p.store.Remove(ctx, key); err != nil {
			return fmt.Errorf("remove %s: %w", key, err)
		}
	}

	p.logger.Info().Int("objects", len(keys)).Msg("objects purged")
	return nil
}
