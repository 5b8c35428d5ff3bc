package lock_repo

import (
	"context"
	"numbers_backend/internal/model"
	"numbers_backend/internal/numspace"
	"numbers_backend/internal/repository"
	"sort"

	sq "github.com/Masterminds/squirrel"
	trmpgx "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	table      = "locked_numbers"
	colRoundID = "round_id"
	colSpace   = "space"
	colNumber  = "number"
)

type repo struct {
	dbc    *pgxpool.Pool
	getter *trmpgx.CtxGetter
}

func NewLockRepository(dbc *pgxpool.Pool) repository.LockRepository {
	return &repo{
		dbc:    dbc,
		getter: trmpgx.DefaultCtxGetter,
	}
}

// Insert - сохраняет блокировки, дубликаты (round, space, number) игнорируются
func (r *repo) Insert(ctx context.Context, locks []model.LockedNumber) error {
	if len(locks) == 0 {
		return nil
	}

	query := sq.Insert(table).
		Columns(colRoundID, colSpace, colNumber).
		Suffix("ON CONFLICT (" + colRoundID + ", " + colSpace + ", " + colNumber + ") DO NOTHING").
		PlaceholderFormat(sq.Dollar)
	for _, l := range locks {
		query = query.Values(l.RoundID, l.Space, l.Number)
	}

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.getter.DefaultTrOrDB(ctx, r.dbc).Exec(ctx, sqlStr, args...)
	return err
}

// Get - блокировки раунда в каноническом порядке номеров
func (r *repo) Get(ctx context.Context, roundID uuid.UUID) (model.LockSet, error) {
	query := sq.Select(colSpace, colNumber).
		From(table).
		Where(sq.Eq{colRoundID: roundID}).
		PlaceholderFormat(sq.Dollar)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return model.LockSet{}, err
	}

	rows, err := r.getter.DefaultTrOrDB(ctx, r.dbc).Query(ctx, sqlStr, args...)
	if err != nil {
		return model.LockSet{}, err
	}
	defer rows.Close()

	var set model.LockSet
	for rows.Next() {
		var space model.Space
		var number string
		if err := rows.Scan(&space, &number); err != nil {
			return model.LockSet{}, err
		}
		if space == model.SpaceSingle {
			set.Singles = append(set.Singles, number)
		} else {
			set.Triples = append(set.Triples, number)
		}
	}
	if err := rows.Err(); err != nil {
		return model.LockSet{}, err
	}

	sortCanonical(model.SpaceSingle, set.Singles)
	sortCanonical(model.SpaceTriple, set.Triples)
	return set, nil
}

func (r *repo) Delete(ctx context.Context, roundID uuid.UUID, space model.Space, number string) error {
	return r.delete(ctx, sq.Eq{colRoundID: roundID, colSpace: space, colNumber: number})
}

func (r *repo) DeleteAll(ctx context.Context, roundID uuid.UUID) error {
	return r.delete(ctx, sq.Eq{colRoundID: roundID})
}

func (r *repo) delete(ctx context.Context, where sq.Eq) error {
	sqlStr, args, err := sq.Delete(table).Where(where).PlaceholderFormat(sq.Dollar).ToSql()
	if err != nil {
		return err
	}

	_, err = r.getter.DefaultTrOrDB(ctx, r.dbc).Exec(ctx, sqlStr, args...)
	return err
}

func sortCanonical(space model.Space, numbers []string) {
	sort.Slice(numbers, func(i, j int) bool {
		return numspace.Order(space, numbers[i]) < numspace.Order(space, numbers[j])
	})
}
