package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"numbers_backend/internal/model"
	"numbers_backend/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// declarationQueue - список в Redis (LPUSH в голову, LMOVE из хвоста в список обработки).
// Сообщение удаляется из списка обработки только после подтверждения
type declarationQueue struct {
	client     *redis.Client
	queue      string
	processing string
	log        zerolog.Logger
}

func NewDeclarationQueue(client *redis.Client, log zerolog.Logger) repository.DeclarationQueue {
	return &declarationQueue{
		client:     client,
		log:        log,
		queue:      KeyDeclarationQueue,
		processing: KeyDeclarationProcessing,
	}
}

func (q *declarationQueue) Push(ctx context.Context, d model.PendingDeclaration) error {
	data, err := json.Marshal(d)
	if err != nil {
		return err
	}
	return q.client.LPush(ctx, q.queue, data).Err()
}

func (q *declarationQueue) Claim(ctx context.Context) (*model.QueuedDeclaration, error) {
	raw, err := q.client.LMove(ctx, q.queue, q.processing, "RIGHT", "LEFT").Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var d model.PendingDeclaration
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		// Битое сообщение не должно блокировать очередь
		if rerr := q.client.LRem(ctx, q.processing, 1, raw).Err(); rerr != nil {
			q.log.Error().Err(rerr).Str("message", raw).Msg("failed to remove corrupt declaration")
		}
		return nil, fmt.Errorf("decode pending declaration: %w", err)
	}

	return &model.QueuedDeclaration{PendingDeclaration: d, Receipt: raw}, nil
}

// Find - LPUSH кладет новые решения в голову, поэтому первое совпадение самое свежее
func (q *declarationQueue) Find(ctx context.Context, roundID uuid.UUID) (*model.PendingDeclaration, error) {
	for _, list := range []string{q.queue, q.processing} {
		items, err := q.client.LRange(ctx, list, 0, -1).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", list, err)
		}
		for _, raw := range items {
			var d model.PendingDeclaration
			if err := json.Unmarshal([]byte(raw), &d); err != nil {
				continue
			}
			if d.RoundID == roundID {
				return &d, nil
			}
		}
	}
	return nil, nil
}

func (q *declarationQueue) Ack(ctx context.Context, d *model.QueuedDeclaration) error {
	return q.client.LRem(ctx, q.processing, 1, d.Receipt).Err()
}

// Requeue - возвращает решение в голову очереди с увеличенным счетчиком попыток
func (q *declarationQueue) Requeue(ctx context.Context, d *model.QueuedDeclaration) error {
	next := d.PendingDeclaration
	next.Attempts++
	data, err := json.Marshal(next)
	if err != nil {
		return err
	}

	_, err = q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LRem(ctx, q.processing, 1, d.Receipt)
		pipe.LPush(ctx, q.queue, data)
		return nil
	})
	return err
}

func (q *declarationQueue) RecoverProcessing(ctx context.Context) (int, error) {
	n := 0
	for {
		err := q.client.LMove(ctx, q.processing, q.queue, "LEFT", "RIGHT").Err()
		if errors.Is(err, redis.Nil) {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		n++
	}
}
