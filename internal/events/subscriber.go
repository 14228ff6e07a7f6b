// Package events consumes file-landed notifications from Pub/Sub and hands
// each upload to the extraction pipeline.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"

	"github.com/bizledger/docextract/internal/common"
)

// UploadEvent is the trigger payload published when an object lands in the
// bucket. Only upload_id is required; the rest is informational.
type UploadEvent struct {
	UploadID    string `json:"upload_id"`
	StoreID     string `json:"store_id,omitempty"`
	StoragePath string `json:"storage_path,omitempty"`
	FileType    string `json:"file_type,omitempty"`
}

// Runner is the piece of the pipeline a subscriber drives. A non-nil error
// means the outcome was not persisted and the message should be redelivered.
type Runner interface {
	Run(ctx context.Context, uploadID string) error
}

// Subscriber pulls upload events and invokes the runner once per message.
type Subscriber struct {
	client *pubsub.Client
	sub    *pubsub.Subscription
	runner Runner
	logger *slog.Logger
}

// NewSubscriber connects to Pub/Sub with explicit JSON credentials when
// configured, Application Default Credentials otherwise.
func NewSubscriber(ctx context.Context, cfg common.EventsConfig, runner Runner, logger *slog.Logger) (*Subscriber, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("pubsub project id is required")
	}

	var opts []option.ClientOption
	if cfg.CredentialsJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	}
	client, err := pubsub.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("pubsub client: %w", err)
	}

	return &Subscriber{
		client: client,
		sub:    client.Subscription(cfg.SubscriptionID),
		runner: runner,
		logger: logger,
	}, nil
}

// Receive blocks until ctx is cancelled, processing messages as they arrive.
// Malformed payloads are acked so they do not loop forever; runner errors
// are nacked for redelivery.
func (s *Subscriber) Receive(ctx context.Context) error {
	s.logger.Info("events.receive.start", "subscription", s.sub.ID())
	return s.sub.Receive(ctx, func(ctx context.Context, m *pubsub.Message) {
		var ev UploadEvent
		if err := json.Unmarshal(m.Data, &ev); err != nil || ev.UploadID == "" {
			s.logger.Warn("events.message.malformed",
				"message_id", m.ID,
				"error", err,
			)
			m.Ack()
			return
		}

		if err := s.runner.Run(ctx, ev.UploadID); err != nil {
			s.logger.Error("events.message.retry",
				"message_id", m.ID,
				"upload_id", ev.UploadID,
				"error", err,
			)
			m.Nack()
			return
		}
		m.Ack()
	})
}

func (s *Subscriber) Close() error {
	return s.client.Close()
}
