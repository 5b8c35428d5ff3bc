package testutil

import (
	"context"
	"fmt"
	"numbers_backend/internal/clock"
	"numbers_backend/internal/model"
	"numbers_backend/internal/observability"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

// ManualClock - часы, которые двигает тест
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewManualClock(now time.Time) *ManualClock {
	return &ManualClock{now: now}
}

func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *ManualClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// At - момент в UTC для слотов тестов
func At(hour, minute, sec int) time.Time {
	return time.Date(2026, 3, 14, hour, minute, sec, 0, time.UTC)
}

// Schedule - часовые слоты в UTC: 50 минут ставок, последняя минута только для системы
func Schedule(t testing.TB) *clock.Schedule {
	t.Helper()
	s, err := clock.NewSchedule(time.UTC, time.Hour, 50*time.Minute, time.Minute)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	return s
}

// Metrics - метрики на отдельном реестре, чтобы тесты не конфликтовали
func Metrics() *observability.Metrics {
	return observability.NewMetrics(prometheus.NewRegistry())
}

// GameConfig - правила игры для тестов
type GameConfig struct {
	SingleFraction float64
	TripleFraction float64
	Payouts        map[model.GameClass]int64
	Min            int64
	Max            int64
	Limit          int
	Window         time.Duration
	BatchSize      int
}

func DefaultGameConfig() *GameConfig {
	return &GameConfig{
		SingleFraction: 0.5,
		TripleFraction: 0.5,
		Payouts: map[model.GameClass]int64{
			model.ClassSingle:      9,
			model.ClassSinglePanna: 140,
			model.ClassDoublePanna: 280,
			model.ClassTriplePanna: 700,
		},
		Min:       1,
		Limit:     100,
		Window:    time.Minute,
		BatchSize: 2,
	}
}

func (c *GameConfig) Location() *time.Location        { return time.UTC }
func (c *GameConfig) SlotLength() time.Duration       { return time.Hour }
func (c *GameConfig) BettingWindow() time.Duration    { return 50 * time.Minute }
func (c *GameConfig) SystemOnlyWindow() time.Duration { return time.Minute }

func (c *GameConfig) LockFraction(space model.Space) float64 {
	if space == model.SpaceSingle {
		return c.SingleFraction
	}
	return c.TripleFraction
}

func (c *GameConfig) Multiplier(class model.GameClass) int64 { return c.Payouts[class] }
func (c *GameConfig) MinStake() int64                        { return c.Min }
func (c *GameConfig) MaxStake() int64                        { return c.Max }

func (c *GameConfig) RateLimit() (int, time.Duration) { return c.Limit, c.Window }

func (c *GameConfig) SchedulerInterval() time.Duration { return time.Minute }
func (c *GameConfig) LeaseTTL() time.Duration          { return 55 * time.Second }
func (c *GameConfig) DrainInterval() time.Duration     { return 10 * time.Millisecond }
func (c *GameConfig) SettlementBatchSize() int         { return c.BatchSize }

// Queue - очередь повторов в памяти с той же семантикой claim/ack, что и в Redis
type Queue struct {
	mu         sync.Mutex
	queue      []model.PendingDeclaration
	processing map[string]model.PendingDeclaration
	seq        int
	PushErr    error
}

func NewQueue() *Queue {
	return &Queue{processing: map[string]model.PendingDeclaration{}}
}

func (q *Queue) Push(_ context.Context, d model.PendingDeclaration) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.PushErr != nil {
		return q.PushErr
	}
	q.queue = append(q.queue, d)
	return nil
}

func (q *Queue) Claim(context.Context) (*model.QueuedDeclaration, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.queue) == 0 {
		return nil, nil
	}
	d := q.queue[0]
	q.queue = q.queue[1:]
	q.seq++
	receipt := fmt.Sprintf("%d", q.seq)
	q.processing[receipt] = d
	return &model.QueuedDeclaration{PendingDeclaration: d, Receipt: receipt}, nil
}

func (q *Queue) Ack(_ context.Context, d *model.QueuedDeclaration) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.processing, d.Receipt)
	return nil
}

func (q *Queue) Requeue(_ context.Context, d *model.QueuedDeclaration) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.processing, d.Receipt)
	next := d.PendingDeclaration
	next.Attempts++
	q.queue = append(q.queue, next)
	return nil
}

func (q *Queue) RecoverProcessing(context.Context) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.processing)
	for receipt, d := range q.processing {
		q.queue = append(q.queue, d)
		delete(q.processing, receipt)
	}
	return n, nil
}

func (q *Queue) Find(_ context.Context, roundID uuid.UUID) (*model.PendingDeclaration, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i := len(q.queue) - 1; i >= 0; i-- {
		if q.queue[i].RoundID == roundID {
			d := q.queue[i]
			return &d, nil
		}
	}
	for _, d := range q.processing {
		if d.RoundID == roundID {
			return &d, nil
		}
	}
	return nil, nil
}

// Pending - решения в очереди и в обработке
func (q *Queue) Pending() []model.PendingDeclaration {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := append([]model.PendingDeclaration(nil), q.queue...)
	for _, d := range q.processing {
		out = append(out, d)
	}
	return out
}

// Lease - аренда, которой управляет тест
type Lease struct {
	mu       sync.Mutex
	Deny     bool
	Err      error
	acquired int
	released int
}

func (l *Lease) Acquire(context.Context, time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.Err != nil {
		return false, l.Err
	}
	if l.Deny {
		return false, nil
	}
	l.acquired++
	return true, nil
}

func (l *Lease) Release(context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.released++
	return nil
}

func (l *Lease) Acquired() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.acquired
}

// Limiter - счетчик без окна: разрешает limit действий на аккаунт
type Limiter struct {
	mu     sync.Mutex
	counts map[int64]int
	Err    error
}

func (l *Limiter) Allow(_ context.Context, accountID int64, _ string, limit int, _ time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.Err != nil {
		return false, l.Err
	}
	if l.counts == nil {
		l.counts = map[int64]int{}
	}
	l.counts[accountID]++
	return limit <= 0 || l.counts[accountID] <= limit, nil
}

// Publisher запоминает опубликованные события
type Publisher struct {
	mu     sync.Mutex
	events []model.RoundEvent
	Err    error
}

func (p *Publisher) Publish(_ context.Context, evt model.RoundEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.events = append(p.events, evt)
	return nil
}

func (p *Publisher) Events(t model.RoundEventType) []model.RoundEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []model.RoundEvent
	for _, e := range p.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}
