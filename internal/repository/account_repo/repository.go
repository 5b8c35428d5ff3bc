package account_repo

import (
	"context"
	"errors"
	"numbers_backend/internal/model"
	"numbers_backend/internal/repository"

	sq "github.com/Masterminds/squirrel"
	trmpgx "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	table      = "accounts"
	colID      = "id"
	colBalance = "balance"
)

type repo struct {
	dbc    *pgxpool.Pool
	getter *trmpgx.CtxGetter
}

func NewAccountRepository(dbc *pgxpool.Pool) repository.AccountRepository {
	return &repo{
		dbc:    dbc,
		getter: trmpgx.DefaultCtxGetter,
	}
}

// GetBalance - получение баланса аккаунта по его ID
func (r *repo) GetBalance(ctx context.Context, id int64) (int64, error) {
	query := sq.Select(colBalance).
		From(table).
		Where(sq.Eq{colID: id}).
		PlaceholderFormat(sq.Dollar)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return 0, err
	}

	var balance int64
	err = r.getter.DefaultTrOrDB(ctx, r.dbc).QueryRow(ctx, sqlStr, args...).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, model.ErrAccountNotFound
		}
		return 0, err
	}

	return balance, nil
}

// Debit - списание без чтения-изменения-записи: условие balance >= amount проверяется в том же UPDATE.
// При нехватке средств возвращает *model.InsufficientFundsError
func (r *repo) Debit(ctx context.Context, id int64, amount int64) (int64, error) {
	query := sq.Update(table).
		Set(colBalance, sq.Expr(colBalance+" - ?", amount)).
		Where(sq.Eq{colID: id}).
		Where(sq.GtOrEq{colBalance: amount}).
		Suffix("RETURNING " + colBalance).
		PlaceholderFormat(sq.Dollar)

	balance, err := r.updateReturning(ctx, query)
	if err == nil {
		return balance, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, err
	}

	available, err := r.GetBalance(ctx, id)
	if err != nil {
		return 0, err
	}
	return 0, &model.InsufficientFundsError{Required: amount, Available: available}
}

// Credit - атомарное начисление
func (r *repo) Credit(ctx context.Context, id int64, amount int64) (int64, error) {
	query := sq.Update(table).
		Set(colBalance, sq.Expr(colBalance+" + ?", amount)).
		Where(sq.Eq{colID: id}).
		Suffix("RETURNING " + colBalance).
		PlaceholderFormat(sq.Dollar)

	balance, err := r.updateReturning(ctx, query)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, model.ErrAccountNotFound
		}
		return 0, err
	}
	return balance, nil
}

func (r *repo) updateReturning(ctx context.Context, query sq.UpdateBuilder) (int64, error) {
	sqlStr, args, err := query.ToSql()
	if err != nil {
		return 0, err
	}

	var balance int64
	err = r.getter.DefaultTrOrDB(ctx, r.dbc).QueryRow(ctx, sqlStr, args...).Scan(&balance)
	return balance, err
}
