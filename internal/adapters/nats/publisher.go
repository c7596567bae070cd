package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/samirrijal/pokemap/internal/core/domain"
)

// Subjects and stream names shared by publishers and subscribers.
const (
	StreamEvents           = "POKEMAP_EVENTS"
	SubjectItemPlaced      = "pokemap.items.placed"
	SubjectItemsCleared    = "pokemap.items.cleared"
	SubjectFavoriteChanged = "pokemap.favorite.changed"
	SubjectBroadcast       = "pokemap.updates.broadcast"
)

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and enables JetStream.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	cfg := &nats.StreamConfig{
		Name:      StreamEvents,
		Subjects:  []string{"pokemap.items.>", "pokemap.favorite.>"},
		Retention: nats.InterestPolicy,
		MaxAge:    24 * time.Hour,
		Storage:   nats.FileStorage,
	}
	if _, err := js.AddStream(cfg); err != nil {
		// Stream may already exist, try update
		if _, err := js.UpdateStream(cfg); err != nil {
			conn.Close()
			return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

func (p *Publisher) PublishItemPlaced(ctx context.Context, item *domain.MapItem) error {
	data, err := json.Marshal(item)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(SubjectItemPlaced, data, nats.Context(ctx))
	return err
}

func (p *Publisher) PublishItemsCleared(ctx context.Context, ev *domain.ItemsCleared) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(SubjectItemsCleared, data, nats.Context(ctx))
	return err
}

func (p *Publisher) PublishFavoriteChanged(ctx context.Context, change *domain.FavoriteChange) error {
	data, err := json.Marshal(change)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(SubjectFavoriteChanged, data, nats.Context(ctx))
	return err
}

func (p *Publisher) PublishBroadcast(ctx context.Context, data []byte) error {
	return p.conn.Publish(SubjectBroadcast, data)
}

// Conn exposes the underlying connection for health checks and relays.
func (p *Publisher) Conn() *nats.Conn {
	return p.conn
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
