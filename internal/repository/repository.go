package repository

import (
	"context"
	"numbers_backend/internal/model"
	"time"

	"github.com/google/uuid"
)

type RoundRepository interface {
	// Create вставляет раунд, если слот еще свободен. false - раунд слота уже существует
	Create(ctx context.Context, round *model.Round) (bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Round, error)
	GetBySlot(ctx context.Context, gameDate, slotLabel string) (*model.Round, error)
	// GetForShare читает раунд с разделяемой блокировкой строки до конца транзакции
	GetForShare(ctx context.Context, id uuid.UUID) (*model.Round, error)
	ListUnfinished(ctx context.Context) ([]model.Round, error)

	MarkAwaitingResult(ctx context.Context, id uuid.UUID) (bool, error)
	RecordResult(ctx context.Context, id uuid.UUID, result model.RoundResult) (bool, error)
	Complete(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)

	ClaimLockComputation(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	ResetLockComputation(ctx context.Context, id uuid.UUID) error
}

type WagerRepository interface {
	Create(ctx context.Context, wager *model.Wager) error
	ListPendingByRound(ctx context.Context, roundID uuid.UUID, limit int) ([]model.Wager, error)
	ListByAccount(ctx context.Context, accountID int64, limit int) ([]model.Wager, error)
	// SetOutcome переводит ставку из pending в won/lost. false - ставка уже рассчитана
	SetOutcome(ctx context.Context, id uuid.UUID, status model.WagerStatus, winAmount int64, at time.Time) (bool, error)
	// Aggregate - суммы ставок по классу и номеру. Без статусов - по всем ставкам раунда
	Aggregate(ctx context.Context, roundID uuid.UUID, statuses ...model.WagerStatus) ([]model.Exposure, error)
}

type LockRepository interface {
	Insert(ctx context.Context, locks []model.LockedNumber) error
	Get(ctx context.Context, roundID uuid.UUID) (model.LockSet, error)
	Delete(ctx context.Context, roundID uuid.UUID, space model.Space, number string) error
	DeleteAll(ctx context.Context, roundID uuid.UUID) error
}

type AccountRepository interface {
	GetBalance(ctx context.Context, id int64) (int64, error)
	// Debit атомарно списывает amount, если баланса хватает. Возвращает баланс после списания
	Debit(ctx context.Context, id int64, amount int64) (int64, error)
	Credit(ctx context.Context, id int64, amount int64) (int64, error)
}

type TransactionRepository interface {
	Append(ctx context.Context, rec *model.TransactionRecord) error
	ListByRound(ctx context.Context, roundID uuid.UUID) ([]model.TransactionRecord, error)
}

// DeclarationQueue - надежная очередь решений о результате, которые не удалось записать в БД
type DeclarationQueue interface {
	Push(ctx context.Context, d model.PendingDeclaration) error
	// Claim - забирает самое старое решение в обработку. nil, если очередь пуста
	Claim(ctx context.Context) (*model.QueuedDeclaration, error)
	Ack(ctx context.Context, d *model.QueuedDeclaration) error
	Requeue(ctx context.Context, d *model.QueuedDeclaration) error
	// Find - последнее решение по раунду в очереди или в обработке. nil, если решений нет
	Find(ctx context.Context, roundID uuid.UUID) (*model.PendingDeclaration, error)
	// RecoverProcessing - возвращает в очередь решения, зависшие в обработке после падения процесса
	RecoverProcessing(ctx context.Context) (int, error)
}

// Lease - распределенная аренда для одного активного планировщика
type Lease interface {
	Acquire(ctx context.Context, ttl time.Duration) (bool, error)
	Release(ctx context.Context) error
}

type RateLimiter interface {
	Allow(ctx context.Context, accountID int64, action string, limit int, window time.Duration) (bool, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, evt model.RoundEvent) error
}
