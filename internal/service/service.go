package service

import (
	"context"
	"numbers_backend/internal/model"
	"time"

	"github.com/google/uuid"
)

type RoundService interface {
	GetOrCreateCurrent(ctx context.Context) (*model.Round, error)
	Current(ctx context.Context) (*model.CurrentRound, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Round, error)
	ListUnfinished(ctx context.Context) ([]model.Round, error)

	MarkAwaitingResult(ctx context.Context, id uuid.UUID) error
	RecordResult(ctx context.Context, id uuid.UUID, triple, declaredBy string) (*model.Round, error)
	Complete(ctx context.Context, id uuid.UUID) error
}

type LockService interface {
	ComputeLocks(ctx context.Context, roundID uuid.UUID) (model.LockSet, error)
	ResetLocks(ctx context.Context, roundID uuid.UUID) error
	IsEligible(ctx context.Context, roundID uuid.UUID, space model.Space, number string) (bool, error)
	CheckTriple(ctx context.Context, roundID uuid.UUID, triple string) error
	PickAutoEligible(ctx context.Context, roundID uuid.UUID) (string, error)
}

type WagerService interface {
	PlaceWager(ctx context.Context, req model.PlaceWager) (*model.PlacedWager, error)
	AggregateExposure(ctx context.Context, roundID uuid.UUID) ([]model.Exposure, error)
	Statistics(ctx context.Context, roundID uuid.UUID) (*model.RoundStatistics, error)
	ListByAccount(ctx context.Context, accountID int64, limit int) ([]model.Wager, error)
}

type SettlementService interface {
	Settle(ctx context.Context, roundID uuid.UUID, triple string, single int) (*model.SettlementReport, error)
}

type DeclareService interface {
	DeclareByOperator(ctx context.Context, roundID uuid.UUID, triple string, operatorID int64) (*model.Declaration, error)
	DeclareByAuto(ctx context.Context, roundID uuid.UUID) (*model.Declaration, error)
	ResumeSettlement(ctx context.Context, roundID uuid.UUID) (*model.Declaration, error)
	DrainRetryQueue(ctx context.Context) (int, error)
	RunDrainer(ctx context.Context, interval time.Duration)
}

type SchedulerService interface {
	Tick(ctx context.Context) bool
	Run(ctx context.Context)
}
