// Package testutil - хранилище в памяти и фейки инфраструктуры для тестов сервисов.
package testutil

import (
	"context"
	"fmt"
	"numbers_backend/internal/model"
	"numbers_backend/internal/numspace"
	"numbers_backend/internal/repository"
	"sort"
	"sync"
	"time"

	"github.com/avito-tech/go-transaction-manager/trm/v2"
	"github.com/google/uuid"
)

type txKey struct{}

type lockKey struct {
	space  model.Space
	number string
}

type txUnique struct {
	wagerID uuid.UUID
	typ     model.TransactionType
}

type state struct {
	rounds   map[uuid.UUID]model.Round
	locksAt  map[uuid.UUID]time.Time
	wagers   map[uuid.UUID]model.Wager
	order    []uuid.UUID
	locks    map[uuid.UUID]map[lockKey]struct{}
	balances map[int64]int64
	txlog    []model.TransactionRecord
}

func (st *state) clone() *state {
	c := &state{
		rounds:   make(map[uuid.UUID]model.Round, len(st.rounds)),
		locksAt:  make(map[uuid.UUID]time.Time, len(st.locksAt)),
		wagers:   make(map[uuid.UUID]model.Wager, len(st.wagers)),
		order:    append([]uuid.UUID(nil), st.order...),
		locks:    make(map[uuid.UUID]map[lockKey]struct{}, len(st.locks)),
		balances: make(map[int64]int64, len(st.balances)),
		txlog:    append([]model.TransactionRecord(nil), st.txlog...),
	}
	for k, v := range st.rounds {
		if v.Result != nil {
			res := *v.Result
			v.Result = &res
		}
		c.rounds[k] = v
	}
	for k, v := range st.locksAt {
		c.locksAt[k] = v
	}
	for k, v := range st.wagers {
		c.wagers[k] = v
	}
	for k, v := range st.locks {
		m := make(map[lockKey]struct{}, len(v))
		for lk := range v {
			m[lk] = struct{}{}
		}
		c.locks[k] = m
	}
	for k, v := range st.balances {
		c.balances[k] = v
	}
	return c
}

// Store реализует все репозитории Postgres в памяти с теми же условными обновлениями
// и служит trm.Manager: транзакции выполняются по одной, при ошибке состояние откатывается.
// Запись вне транзакции тоже сериализуется с транзакциями
type Store struct {
	txMu sync.Mutex
	mu   sync.Mutex
	st   *state

	failures map[string]error
	calls    map[string]int
}

func NewStore() *Store {
	return &Store{
		st: &state{
			rounds:   map[uuid.UUID]model.Round{},
			locksAt:  map[uuid.UUID]time.Time{},
			wagers:   map[uuid.UUID]model.Wager{},
			locks:    map[uuid.UUID]map[lockKey]struct{}{},
			balances: map[int64]int64{},
		},
		failures: map[string]error{},
		calls:    map[string]int{},
	}
}

// Fail - операция op ("rounds.RecordResult", "wagers.SetOutcome", ...) возвращает err до ClearFailure
func (s *Store) Fail(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = err
}

func (s *Store) ClearFailure(op string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, op)
}

// Calls - сколько раз вызывалась операция op
func (s *Store) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

func (s *Store) Rounds() repository.RoundRepository             { return roundRepo{s} }
func (s *Store) Wagers() repository.WagerRepository             { return wagerRepo{s} }
func (s *Store) Locks() repository.LockRepository               { return lockRepo{s} }
func (s *Store) Accounts() repository.AccountRepository         { return accountRepo{s} }
func (s *Store) Transactions() repository.TransactionRepository { return txRepo{s} }

// Do - trm.Manager
func (s *Store) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapshot := s.st.clone()
	s.mu.Unlock()

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.mu.Lock()
		s.st = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *Store) DoWithSettings(ctx context.Context, _ trm.Settings, fn func(ctx context.Context) error) error {
	return s.Do(ctx, fn)
}

func inTx(ctx context.Context) bool {
	v, _ := ctx.Value(txKey{}).(bool)
	return v
}

// read выполняет f под блокировкой данных
func (s *Store) read(op string, f func(st *state) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[op]++
	if err := s.failures[op]; err != nil {
		return err
	}
	return f(s.st)
}

// write вне транзакции ведет себя как отдельная транзакция из одного запроса
func (s *Store) write(ctx context.Context, op string, f func(st *state) error) error {
	if !inTx(ctx) {
		s.txMu.Lock()
		defer s.txMu.Unlock()
	}
	return s.read(op, f)
}

// SetBalance создает аккаунт или перезаписывает его баланс
func (s *Store) SetBalance(accountID, balance int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.balances[accountID] = balance
}

func (s *Store) Balance(accountID int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.balances[accountID]
}

func (s *Store) Wager(id uuid.UUID) model.Wager {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.wagers[id]
}

func (s *Store) Round(id uuid.UUID) model.Round {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.st.rounds[id]
	if r.Result != nil {
		res := *r.Result
		r.Result = &res
	}
	return r
}

// PutRound кладет раунд как есть, минуя проверки
func (s *Store) PutRound(r model.Round) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.rounds[r.ID] = r
}

func (s *Store) TransactionLog() []model.TransactionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.TransactionRecord(nil), s.st.txlog...)
}

type roundRepo struct{ s *Store }

func (r roundRepo) Create(ctx context.Context, round *model.Round) (bool, error) {
	var created bool
	err := r.s.write(ctx, "rounds.Create", func(st *state) error {
		for _, existing := range st.rounds {
			if existing.GameDate == round.GameDate && existing.SlotLabel == round.SlotLabel {
				return nil
			}
		}
		st.rounds[round.ID] = *round
		created = true
		return nil
	})
	return created, err
}

func (r roundRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Round, error) {
	var out *model.Round
	err := r.s.read("rounds.GetByID", func(st *state) error {
		round, ok := st.rounds[id]
		if !ok {
			return model.ErrRoundNotFound
		}
		out = copyRound(round)
		return nil
	})
	return out, err
}

func (r roundRepo) GetBySlot(_ context.Context, gameDate, slotLabel string) (*model.Round, error) {
	var out *model.Round
	err := r.s.read("rounds.GetBySlot", func(st *state) error {
		for _, round := range st.rounds {
			if round.GameDate == gameDate && round.SlotLabel == slotLabel {
				out = copyRound(round)
				return nil
			}
		}
		return model.ErrRoundNotFound
	})
	return out, err
}

func (r roundRepo) GetForShare(ctx context.Context, id uuid.UUID) (*model.Round, error) {
	var out *model.Round
	err := r.s.write(ctx, "rounds.GetForShare", func(st *state) error {
		round, ok := st.rounds[id]
		if !ok {
			return model.ErrRoundNotFound
		}
		out = copyRound(round)
		return nil
	})
	return out, err
}

func (r roundRepo) ListUnfinished(_ context.Context) ([]model.Round, error) {
	var out []model.Round
	err := r.s.read("rounds.ListUnfinished", func(st *state) error {
		for _, round := range st.rounds {
			if round.Status != model.RoundCompleted {
				out = append(out, *copyRound(round))
			}
		}
		sort.Slice(out, func(i, j int) bool { return out[i].SlotStart.Before(out[j].SlotStart) })
		return nil
	})
	return out, err
}

func (r roundRepo) MarkAwaitingResult(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.update(ctx, "rounds.MarkAwaitingResult", id, func(round *model.Round) bool {
		if round.Status != model.RoundActive {
			return false
		}
		round.Status = model.RoundAwaitingResult
		return true
	})
}

func (r roundRepo) RecordResult(ctx context.Context, id uuid.UUID, result model.RoundResult) (bool, error) {
	return r.update(ctx, "rounds.RecordResult", id, func(round *model.Round) bool {
		if round.Result != nil || round.Status == model.RoundCompleted {
			return false
		}
		res := result
		round.Result = &res
		round.Status = model.RoundAwaitingResult
		return true
	})
}

func (r roundRepo) Complete(ctx context.Context, id uuid.UUID, _ time.Time) (bool, error) {
	return r.update(ctx, "rounds.Complete", id, func(round *model.Round) bool {
		if round.Status != model.RoundAwaitingResult || round.Result == nil {
			return false
		}
		round.Status = model.RoundCompleted
		return true
	})
}

func (r roundRepo) ClaimLockComputation(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	var claimed bool
	err := r.s.write(ctx, "rounds.ClaimLockComputation", func(st *state) error {
		if _, ok := st.rounds[id]; !ok {
			return nil
		}
		if _, ok := st.locksAt[id]; ok {
			return nil
		}
		st.locksAt[id] = at
		claimed = true
		return nil
	})
	return claimed, err
}

func (r roundRepo) ResetLockComputation(ctx context.Context, id uuid.UUID) error {
	return r.s.write(ctx, "rounds.ResetLockComputation", func(st *state) error {
		delete(st.locksAt, id)
		return nil
	})
}

func (r roundRepo) update(ctx context.Context, op string, id uuid.UUID, f func(*model.Round) bool) (bool, error) {
	var ok bool
	err := r.s.write(ctx, op, func(st *state) error {
		round, found := st.rounds[id]
		if !found {
			return nil
		}
		if ok = f(&round); ok {
			st.rounds[id] = round
		}
		return nil
	})
	return ok, err
}

func copyRound(r model.Round) *model.Round {
	if r.Result != nil {
		res := *r.Result
		r.Result = &res
	}
	return &r
}

type wagerRepo struct{ s *Store }

func (r wagerRepo) Create(ctx context.Context, w *model.Wager) error {
	return r.s.write(ctx, "wagers.Create", func(st *state) error {
		if _, ok := st.wagers[w.ID]; ok {
			return fmt.Errorf("duplicate wager %s", w.ID)
		}
		st.wagers[w.ID] = *w
		st.order = append(st.order, w.ID)
		return nil
	})
}

func (r wagerRepo) ListPendingByRound(_ context.Context, roundID uuid.UUID, limit int) ([]model.Wager, error) {
	var out []model.Wager
	err := r.s.read("wagers.ListPendingByRound", func(st *state) error {
		for _, id := range st.order {
			w := st.wagers[id]
			if w.RoundID == roundID && w.Status == model.WagerPending {
				out = append(out, w)
				if limit > 0 && len(out) == limit {
					break
				}
			}
		}
		return nil
	})
	return out, err
}

func (r wagerRepo) ListByAccount(_ context.Context, accountID int64, limit int) ([]model.Wager, error) {
	var out []model.Wager
	err := r.s.read("wagers.ListByAccount", func(st *state) error {
		for i := len(st.order) - 1; i >= 0; i-- {
			w := st.wagers[st.order[i]]
			if w.AccountID == accountID {
				out = append(out, w)
				if limit > 0 && len(out) == limit {
					break
				}
			}
		}
		return nil
	})
	return out, err
}

func (r wagerRepo) SetOutcome(ctx context.Context, id uuid.UUID, status model.WagerStatus, winAmount int64, at time.Time) (bool, error) {
	var ok bool
	err := r.s.write(ctx, "wagers.SetOutcome", func(st *state) error {
		w, found := st.wagers[id]
		if !found || w.Status != model.WagerPending {
			return nil
		}
		settledAt := at
		w.Status = status
		w.WinAmount = winAmount
		w.SettledAt = &settledAt
		st.wagers[id] = w
		ok = true
		return nil
	})
	return ok, err
}

func (r wagerRepo) Aggregate(_ context.Context, roundID uuid.UUID, statuses ...model.WagerStatus) ([]model.Exposure, error) {
	var out []model.Exposure
	err := r.s.read("wagers.Aggregate", func(st *state) error {
		type key struct {
			class  model.GameClass
			number string
		}
		sums := map[key]*model.Exposure{}
		for _, id := range st.order {
			w := st.wagers[id]
			if w.RoundID != roundID || !hasStatus(statuses, w.Status) {
				continue
			}
			k := key{w.GameClass, w.Number}
			e, ok := sums[k]
			if !ok {
				e = &model.Exposure{GameClass: w.GameClass, Space: w.GameClass.Space(), Number: w.Number}
				sums[k] = e
			}
			e.Stake += w.Stake
			e.Count++
		}
		for _, e := range sums {
			out = append(out, *e)
		}
		sort.Slice(out, func(i, j int) bool {
			if out[i].GameClass != out[j].GameClass {
				return out[i].GameClass < out[j].GameClass
			}
			return out[i].Number < out[j].Number
		})
		return nil
	})
	return out, err
}

func hasStatus(statuses []model.WagerStatus, s model.WagerStatus) bool {
	if len(statuses) == 0 {
		return true
	}
	for _, v := range statuses {
		if v == s {
			return true
		}
	}
	return false
}

type lockRepo struct{ s *Store }

func (r lockRepo) Insert(ctx context.Context, locks []model.LockedNumber) error {
	return r.s.write(ctx, "locks.Insert", func(st *state) error {
		for _, l := range locks {
			m, ok := st.locks[l.RoundID]
			if !ok {
				m = map[lockKey]struct{}{}
				st.locks[l.RoundID] = m
			}
			m[lockKey{l.Space, l.Number}] = struct{}{}
		}
		return nil
	})
}

func (r lockRepo) Get(_ context.Context, roundID uuid.UUID) (model.LockSet, error) {
	var set model.LockSet
	err := r.s.read("locks.Get", func(st *state) error {
		for k := range st.locks[roundID] {
			if k.space == model.SpaceSingle {
				set.Singles = append(set.Singles, k.number)
			} else {
				set.Triples = append(set.Triples, k.number)
			}
		}
		return nil
	})
	sortCanonical(model.SpaceSingle, set.Singles)
	sortCanonical(model.SpaceTriple, set.Triples)
	return set, err
}

func (r lockRepo) Delete(ctx context.Context, roundID uuid.UUID, space model.Space, number string) error {
	return r.s.write(ctx, "locks.Delete", func(st *state) error {
		delete(st.locks[roundID], lockKey{space, number})
		return nil
	})
}

func (r lockRepo) DeleteAll(ctx context.Context, roundID uuid.UUID) error {
	return r.s.write(ctx, "locks.DeleteAll", func(st *state) error {
		delete(st.locks, roundID)
		return nil
	})
}

func sortCanonical(space model.Space, numbers []string) {
	sort.Slice(numbers, func(i, j int) bool {
		return numspace.Order(space, numbers[i]) < numspace.Order(space, numbers[j])
	})
}

type accountRepo struct{ s *Store }

func (r accountRepo) GetBalance(_ context.Context, id int64) (int64, error) {
	var balance int64
	err := r.s.read("accounts.GetBalance", func(st *state) error {
		b, ok := st.balances[id]
		if !ok {
			return model.ErrAccountNotFound
		}
		balance = b
		return nil
	})
	return balance, err
}

func (r accountRepo) Debit(ctx context.Context, id int64, amount int64) (int64, error) {
	var balance int64
	err := r.s.write(ctx, "accounts.Debit", func(st *state) error {
		b, ok := st.balances[id]
		if !ok {
			return model.ErrAccountNotFound
		}
		if b < amount {
			return &model.InsufficientFundsError{Required: amount, Available: b}
		}
		balance = b - amount
		st.balances[id] = balance
		return nil
	})
	return balance, err
}

func (r accountRepo) Credit(ctx context.Context, id int64, amount int64) (int64, error) {
	var balance int64
	err := r.s.write(ctx, "accounts.Credit", func(st *state) error {
		b, ok := st.balances[id]
		if !ok {
			return model.ErrAccountNotFound
		}
		balance = b + amount
		st.balances[id] = balance
		return nil
	})
	return balance, err
}

type txRepo struct{ s *Store }

func (r txRepo) Append(ctx context.Context, rec *model.TransactionRecord) error {
	return r.s.write(ctx, "transactions.Append", func(st *state) error {
		for _, existing := range st.txlog {
			if (txUnique{existing.WagerID, existing.Type}) == (txUnique{rec.WagerID, rec.Type}) {
				return fmt.Errorf("duplicate transaction %s for wager %s", rec.Type, rec.WagerID)
			}
		}
		st.txlog = append(st.txlog, *rec)
		return nil
	})
}

func (r txRepo) ListByRound(_ context.Context, roundID uuid.UUID) ([]model.TransactionRecord, error) {
	var out []model.TransactionRecord
	err := r.s.read("transactions.ListByRound", func(st *state) error {
		for _, rec := range st.txlog {
			if rec.RoundID == roundID {
				out = append(out, rec)
			}
		}
		return nil
	})
	return out, err
}
