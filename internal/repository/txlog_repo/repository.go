package txlog_repo

import (
	"context"
	"numbers_backend/internal/model"
	"numbers_backend/internal/repository"

	sq "github.com/Masterminds/squirrel"
	trmpgx "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	table           = "transactions"
	colID           = "id"
	colAccountID    = "account_id"
	colRoundID      = "round_id"
	colWagerID      = "wager_id"
	colType         = "type"
	colAmount       = "amount"
	colBalanceAfter = "balance_after"
	colCreatedAt    = "created_at"
)

type repo struct {
	dbc    *pgxpool.Pool
	getter *trmpgx.CtxGetter
}

func NewTransactionRepository(dbc *pgxpool.Pool) repository.TransactionRepository {
	return &repo{
		dbc:    dbc,
		getter: trmpgx.DefaultCtxGetter,
	}
}

// Append - добавляет запись в журнал. Записи не изменяются и не удаляются
func (r *repo) Append(ctx context.Context, rec *model.TransactionRecord) error {
	query := sq.Insert(table).
		Columns(colID, colAccountID, colRoundID, colWagerID, colType, colAmount, colBalanceAfter, colCreatedAt).
		Values(rec.ID, rec.AccountID, rec.RoundID, rec.WagerID, rec.Type, rec.Amount, rec.BalanceAfter, rec.CreatedAt).
		PlaceholderFormat(sq.Dollar)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.getter.DefaultTrOrDB(ctx, r.dbc).Exec(ctx, sqlStr, args...)
	return err
}

func (r *repo) ListByRound(ctx context.Context, roundID uuid.UUID) ([]model.TransactionRecord, error) {
	query := sq.Select(colID, colAccountID, colRoundID, colWagerID, colType, colAmount, colBalanceAfter, colCreatedAt).
		From(table).
		Where(sq.Eq{colRoundID: roundID}).
		OrderBy(colCreatedAt, colID).
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

	var out []model.TransactionRecord
	for rows.Next() {
		var rec model.TransactionRecord
		if err := rows.Scan(&rec.ID, &rec.AccountID, &rec.RoundID, &rec.WagerID, &rec.Type,
			&rec.Amount, &rec.BalanceAfter, &rec.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}

	return out, rows.Err()
}
