// Package events публикует события раундов в NATS JetStream.
// Subjects: numbers.rounds.{event_type}
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"numbers_backend/internal/model"
	"numbers_backend/internal/repository"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const (
	StreamName    = "NUMBERS_ROUNDS"
	SubjectPrefix = "numbers.rounds"
)

type publisher struct {
	js jetstream.JetStream
}

func NewPublisher(js jetstream.JetStream) repository.EventPublisher {
	return &publisher{js: js}
}

func (p *publisher) Publish(ctx context.Context, evt model.RoundEvent) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	_, err = p.js.Publish(ctx, Subject(evt.Type), data, jetstream.WithMsgID(MsgID(evt)))
	return err
}

func Subject(t model.RoundEventType) string {
	return fmt.Sprintf("%s.%s", SubjectPrefix, t)
}

// MsgID - ключ дедупликации JetStream: одно событие каждого типа на раунд
func MsgID(evt model.RoundEvent) string {
	return fmt.Sprintf("%s:%s", evt.RoundID, evt.Type)
}

// Connect - подключение к NATS и создание потока событий раундов
func Connect(ctx context.Context, url string) (*nats.Conn, jetstream.JetStream, error) {
	nc, err := nats.Connect(url, nats.Name("numbers-backend"))
	if err != nil {
		return nil, nil, fmt.Errorf("connect nats: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("create jetstream: %w", err)
	}

	if err := EnsureStream(ctx, js); err != nil {
		nc.Close()
		return nil, nil, err
	}

	return nc, js, nil
}

func EnsureStream(ctx context.Context, js jetstream.JetStream) error {
	_, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:       StreamName,
		Subjects:   []string{SubjectPrefix + ".>"},
		Storage:    jetstream.FileStorage,
		Retention:  jetstream.LimitsPolicy,
		MaxAge:     7 * 24 * time.Hour,
		Duplicates: time.Hour,
		Replicas:   1,
	})
	if err != nil {
		return fmt.Errorf("create rounds stream: %w", err)
	}
	return nil
}

type noopPublisher struct{}

// NewNoopPublisher - публикация отключена (NATS_URL не задан)
func NewNoopPublisher() repository.EventPublisher {
	return noopPublisher{}
}

func (noopPublisher) Publish(context.Context, model.RoundEvent) error {
	return nil
}
