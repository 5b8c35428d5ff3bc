package wager_repo

import (
	"context"
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
	table        = "wagers"
	colID        = "id"
	colAccountID = "account_id"
	colRoundID   = "round_id"
	colGameClass = "game_class"
	colNumber    = "number"
	colStake     = "stake"
	colStatus    = "status"
	colWinAmount = "win_amount"
	colSlotLabel = "slot_label"
	colCreatedAt = "created_at"
	colSettledAt = "settled_at"
)

var selectColumns = []string{
	colID, colAccountID, colRoundID, colGameClass, colNumber, colStake,
	colStatus, colWinAmount, colSlotLabel, colCreatedAt, colSettledAt,
}

type repo struct {
	dbc    *pgxpool.Pool
	getter *trmpgx.CtxGetter
}

func NewWagerRepository(dbc *pgxpool.Pool) repository.WagerRepository {
	return &repo{
		dbc:    dbc,
		getter: trmpgx.DefaultCtxGetter,
	}
}

// Create - сохраняет ставку, вызывается внутри транзакции размещения
func (r *repo) Create(ctx context.Context, w *model.Wager) error {
	query := sq.Insert(table).
		Columns(colID, colAccountID, colRoundID, colGameClass, colNumber, colStake, colStatus, colWinAmount, colSlotLabel, colCreatedAt).
		Values(w.ID, w.AccountID, w.RoundID, w.GameClass, w.Number, w.Stake, w.Status, w.WinAmount, w.SlotLabel, w.CreatedAt).
		PlaceholderFormat(sq.Dollar)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.getter.DefaultTrOrDB(ctx, r.dbc).Exec(ctx, sqlStr, args...)
	return err
}

// ListPendingByRound - первые limit ставок раунда в статусе pending
func (r *repo) ListPendingByRound(ctx context.Context, roundID uuid.UUID, limit int) ([]model.Wager, error) {
	return r.list(ctx, sq.Select(selectColumns...).
		From(table).
		Where(sq.Eq{colRoundID: roundID, colStatus: model.WagerPending}).
		OrderBy(colCreatedAt, colID).
		Limit(uint64(limit)))
}

func (r *repo) ListByAccount(ctx context.Context, accountID int64, limit int) ([]model.Wager, error) {
	return r.list(ctx, sq.Select(selectColumns...).
		From(table).
		Where(sq.Eq{colAccountID: accountID}).
		OrderBy(colCreatedAt+" DESC").
		Limit(uint64(limit)))
}

// SetOutcome - условный переход pending -> won/lost
func (r *repo) SetOutcome(ctx context.Context, id uuid.UUID, status model.WagerStatus, winAmount int64, at time.Time) (bool, error) {
	query := sq.Update(table).
		Set(colStatus, status).
		Set(colWinAmount, winAmount).
		Set(colSettledAt, at).
		Where(sq.Eq{colID: id, colStatus: model.WagerPending}).
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

// Aggregate - сумма ставок по классу и номеру
func (r *repo) Aggregate(ctx context.Context, roundID uuid.UUID, statuses ...model.WagerStatus) ([]model.Exposure, error) {
	query := sq.Select(colGameClass, colNumber, "SUM("+colStake+")", "COUNT(*)").
		From(table).
		Where(sq.Eq{colRoundID: roundID})
	if len(statuses) > 0 {
		query = query.Where(sq.Eq{colStatus: statuses})
	}
	query = query.
		GroupBy(colGameClass, colNumber).
		OrderBy(colGameClass, colNumber).
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

	var out []model.Exposure
	for rows.Next() {
		var e model.Exposure
		if err := rows.Scan(&e.GameClass, &e.Number, &e.Stake, &e.Count); err != nil {
			return nil, err
		}
		e.Space = e.GameClass.Space()
		out = append(out, e)
	}

	return out, rows.Err()
}

func (r *repo) list(ctx context.Context, query sq.SelectBuilder) ([]model.Wager, error) {
	sqlStr, args, err := query.PlaceholderFormat(sq.Dollar).ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.getter.DefaultTrOrDB(ctx, r.dbc).Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Wager
	for rows.Next() {
		w, err := scanWager(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}

	return out, rows.Err()
}

func scanWager(row pgx.Row) (model.Wager, error) {
	var w model.Wager
	err := row.Scan(&w.ID, &w.AccountID, &w.RoundID, &w.GameClass, &w.Number, &w.Stake,
		&w.Status, &w.WinAmount, &w.SlotLabel, &w.CreatedAt, &w.SettledAt)
	return w, err
}
