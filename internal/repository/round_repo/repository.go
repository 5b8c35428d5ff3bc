package round_repo

import (
	"context"
	"errors"
	"numbers_backend/internal/model"
	"numbers_backend/internal/repository"
	"time"

	sq "github.com/Masterminds/squirrel"
	trmpgx "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	table           = "rounds"
	colID           = "id"
	colGameDate     = "game_date"
	colSlotLabel    = "slot_label"
	colSlotStart    = "slot_start"
	colSlotEnd      = "slot_end"
	colStatus       = "status"
	colResultTriple = "result_triple"
	colResultSingle = "result_single"
	colDeclaredAt   = "declared_at"
	colDeclaredBy   = "declared_by"
	colLocksAt      = "locks_computed_at"
	colCompletedAt  = "completed_at"
	colCreatedAt    = "created_at"
)

var selectColumns = []string{
	colID, colGameDate, colSlotLabel, colSlotStart, colSlotEnd, colStatus,
	colResultTriple, colResultSingle, colDeclaredAt, colDeclaredBy, colCreatedAt,
}

type repo struct {
	dbc    *pgxpool.Pool
	getter *trmpgx.CtxGetter
}

func NewRoundRepository(dbc *pgxpool.Pool) repository.RoundRepository {
	return &repo{
		dbc:    dbc,
		getter: trmpgx.DefaultCtxGetter,
	}
}

// Create - создает раунд слота. Уникальный ключ (game_date, slot_label)
// гарантирует один раунд на слот при конкурентных вызовах
func (r *repo) Create(ctx context.Context, round *model.Round) (bool, error) {
	gameDate, err := time.Parse(time.DateOnly, round.GameDate)
	if err != nil {
		return false, err
	}

	query := sq.Insert(table).
		Columns(colID, colGameDate, colSlotLabel, colSlotStart, colSlotEnd, colStatus, colCreatedAt).
		Values(round.ID, gameDate, round.SlotLabel, round.SlotStart, round.SlotEnd, round.Status, round.CreatedAt).
		Suffix("ON CONFLICT (" + colGameDate + ", " + colSlotLabel + ") DO NOTHING").
		PlaceholderFormat(sq.Dollar)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return false, err
	}

	tag, err := r.getter.DefaultTrOrDB(ctx, r.dbc).Exec(ctx, sqlStr, args...)
	if err != nil {
		return false, err
	}

	return tag.RowsAffected() == 1, nil
}

func (r *repo) GetByID(ctx context.Context, id uuid.UUID) (*model.Round, error) {
	return r.getOne(ctx, sq.Select(selectColumns...).From(table).Where(sq.Eq{colID: id}))
}

func (r *repo) GetBySlot(ctx context.Context, gameDate, slotLabel string) (*model.Round, error) {
	date, err := time.Parse(time.DateOnly, gameDate)
	if err != nil {
		return nil, err
	}

	return r.getOne(ctx, sq.Select(selectColumns...).
		From(table).
		Where(sq.Eq{colGameDate: date, colSlotLabel: slotLabel}))
}

func (r *repo) GetForShare(ctx context.Context, id uuid.UUID) (*model.Round, error) {
	return r.getOne(ctx, sq.Select(selectColumns...).
		From(table).
		Where(sq.Eq{colID: id}).
		Suffix("FOR SHARE"))
}

// ListUnfinished - все незавершенные раунды, старые первыми
func (r *repo) ListUnfinished(ctx context.Context) ([]model.Round, error) {
	query := sq.Select(selectColumns...).
		From(table).
		Where(sq.NotEq{colStatus: model.RoundCompleted}).
		OrderBy(colSlotStart).
		PlaceholderFormat(sq.Dollar)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.getter.DefaultTrOrDB(ctx, r.dbc).Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rounds []model.Round
	for rows.Next() {
		round, err := scanRound(rows)
		if err != nil {
			return nil, err
		}
		rounds = append(rounds, *round)
	}

	return rounds, rows.Err()
}

// MarkAwaitingResult - active -> awaiting_result
func (r *repo) MarkAwaitingResult(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.exec(ctx, sq.Update(table).
		Set(colStatus, model.RoundAwaitingResult).
		Where(sq.Eq{colID: id, colStatus: model.RoundActive}))
}

// RecordResult - записывает результат только если его еще нет и раунд не завершен
func (r *repo) RecordResult(ctx context.Context, id uuid.UUID, result model.RoundResult) (bool, error) {
	return r.exec(ctx, sq.Update(table).
		Set(colResultTriple, result.Triple).
		Set(colResultSingle, result.Single).
		Set(colDeclaredAt, result.DeclaredAt).
		Set(colDeclaredBy, result.DeclaredBy).
		Set(colStatus, model.RoundAwaitingResult).
		Where(sq.Eq{colID: id, colResultTriple: nil}).
		Where(sq.NotEq{colStatus: model.RoundCompleted}))
}

// Complete - awaiting_result с записанным результатом -> completed
func (r *repo) Complete(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	return r.exec(ctx, sq.Update(table).
		Set(colStatus, model.RoundCompleted).
		Set(colCompletedAt, at).
		Where(sq.Eq{colID: id, colStatus: model.RoundAwaitingResult}).
		Where(sq.NotEq{colResultTriple: nil}))
}

// ClaimLockComputation - только один вызывающий получает право посчитать блокировки раунда
func (r *repo) ClaimLockComputation(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	return r.exec(ctx, sq.Update(table).
		Set(colLocksAt, at).
		Where(sq.Eq{colID: id, colLocksAt: nil}))
}

func (r *repo) ResetLockComputation(ctx context.Context, id uuid.UUID) error {
	_, err := r.exec(ctx, sq.Update(table).
		Set(colLocksAt, nil).
		Where(sq.Eq{colID: id}))
	return err
}

func (r *repo) exec(ctx context.Context, query sq.UpdateBuilder) (bool, error) {
	sqlStr, args, err := query.PlaceholderFormat(sq.Dollar).ToSql()
	if err != nil {
		return false, err
	}

	tag, err := r.getter.DefaultTrOrDB(ctx, r.dbc).Exec(ctx, sqlStr, args...)
	if err != nil {
		return false, err
	}

	return tag.RowsAffected() > 0, nil
}

func (r *repo) getOne(ctx context.Context, query sq.SelectBuilder) (*model.Round, error) {
	sqlStr, args, err := query.PlaceholderFormat(sq.Dollar).ToSql()
	if err != nil {
		return nil, err
	}

	round, err := scanRound(r.getter.DefaultTrOrDB(ctx, r.dbc).QueryRow(ctx, sqlStr, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrRoundNotFound
		}
		return nil, err
	}

	return round, nil
}

func scanRound(row pgx.Row) (*model.Round, error) {
	var (
		round      model.Round
		gameDate   time.Time
		triple     *string
		single     *int
		declaredAt *time.Time
		declaredBy *string
	)

	err := row.Scan(&round.ID, &gameDate, &round.SlotLabel, &round.SlotStart, &round.SlotEnd, &round.Status,
		&triple, &single, &declaredAt, &declaredBy, &round.CreatedAt)
	if err != nil {
		return nil, err
	}

	round.GameDate = gameDate.Format(time.DateOnly)
	if triple != nil {
		round.Result = &model.RoundResult{Triple: *triple}
		if single != nil {
			round.Result.Single = *single
		}
		if declaredAt != nil {
			round.Result.DeclaredAt = *declaredAt
		}
		if declaredBy != nil {
			round.Result.DeclaredBy = *declaredBy
		}
	}

	return &round, nil
}
