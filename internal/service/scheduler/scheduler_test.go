package scheduler

import (
	"context"
	"errors"
	"math/rand"
	"numbers_backend/internal/model"
	"numbers_backend/internal/service/declare"
	"numbers_backend/internal/service/lock"
	"numbers_backend/internal/service/round"
	"numbers_backend/internal/service/settlement"
	"numbers_backend/internal/testutil"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type stubRounds struct {
	rounds  []model.Round
	block   chan struct{}
	entered chan struct{}
}

func (s *stubRounds) GetOrCreateCurrent(context.Context) (*model.Round, error) {
	return &model.Round{}, nil
}

func (s *stubRounds) Current(context.Context) (*model.CurrentRound, error) { return nil, nil }

func (s *stubRounds) Get(context.Context, uuid.UUID) (*model.Round, error) { return nil, nil }

func (s *stubRounds) ListUnfinished(context.Context) ([]model.Round, error) {
	if s.entered != nil {
		s.entered <- struct{}{}
	}
	if s.block != nil {
		<-s.block
	}
	return s.rounds, nil
}

func (s *stubRounds) MarkAwaitingResult(context.Context, uuid.UUID) error { return nil }

func (s *stubRounds) RecordResult(context.Context, uuid.UUID, string, string) (*model.Round, error) {
	return nil, nil
}

func (s *stubRounds) Complete(context.Context, uuid.UUID) error { return nil }

type stubDeclarer struct {
	mu    sync.Mutex
	fail  map[uuid.UUID]error
	calls []uuid.UUID
}

func (s *stubDeclarer) DeclareByOperator(context.Context, uuid.UUID, string, int64) (*model.Declaration, error) {
	return nil, nil
}

func (s *stubDeclarer) DeclareByAuto(_ context.Context, id uuid.UUID) (*model.Declaration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, id)
	if err := s.fail[id]; err != nil {
		return nil, err
	}
	return &model.Declaration{RoundID: id}, nil
}

func (s *stubDeclarer) ResumeSettlement(context.Context, uuid.UUID) (*model.Declaration, error) {
	return nil, nil
}

func (s *stubDeclarer) DrainRetryQueue(context.Context) (int, error) { return 0, nil }

func (s *stubDeclarer) RunDrainer(context.Context, time.Duration) {}

func awaitingRound(t *testing.T) model.Round {
	t.Helper()
	slot := testutil.Schedule(t).Resolve(testutil.At(14, 0, 0))
	return model.Round{
		ID:        uuid.New(),
		GameDate:  slot.Date,
		SlotLabel: slot.Label,
		SlotStart: slot.Start,
		SlotEnd:   slot.End,
		Status:    model.RoundAwaitingResult,
	}
}

func newStubScheduler(t *testing.T, rounds *stubRounds, declarer *stubDeclarer, lease *testutil.Lease) *scheduler {
	t.Helper()
	deps := Deps{
		Schedule: testutil.Schedule(t),
		Clock:    testutil.NewManualClock(testutil.At(14, 59, 30)),
		Rounds:   rounds,
		Declarer: declarer,
		Interval: time.Minute,
		LeaseTTL: 55 * time.Second,
		Log:      zerolog.Nop(),
		Metrics:  testutil.Metrics(),
	}
	if lease != nil {
		deps.Lease = lease
	}
	return NewScheduler(deps).(*scheduler)
}

func TestTickSkipsWhileRunning(t *testing.T) {
	rounds := &stubRounds{block: make(chan struct{}), entered: make(chan struct{}, 1)}
	s := newStubScheduler(t, rounds, &stubDeclarer{}, nil)

	done := make(chan bool)
	go func() { done <- s.Tick(context.Background()) }()
	<-rounds.entered

	if s.Tick(context.Background()) {
		t.Fatal("overlapping tick must be skipped")
	}

	close(rounds.block)
	if !<-done {
		t.Fatal("first tick must run")
	}
}

func TestTickContinuesAfterRoundFailure(t *testing.T) {
	bad, good := awaitingRound(t), awaitingRound(t)
	declarer := &stubDeclarer{fail: map[uuid.UUID]error{bad.ID: errors.New("boom")}}
	s := newStubScheduler(t, &stubRounds{rounds: []model.Round{bad, good}}, declarer, nil)

	if !s.Tick(context.Background()) {
		t.Fatal("tick skipped")
	}
	if len(declarer.calls) != 2 || declarer.calls[1] != good.ID {
		t.Fatalf("calls = %v", declarer.calls)
	}
}

func TestTickRequiresLease(t *testing.T) {
	declarer := &stubDeclarer{}
	lease := &testutil.Lease{Deny: true}
	s := newStubScheduler(t, &stubRounds{rounds: []model.Round{awaitingRound(t)}}, declarer, lease)

	if s.Tick(context.Background()) {
		t.Fatal("tick without lease must be skipped")
	}
	if len(declarer.calls) != 0 {
		t.Fatal("no declarations expected without lease")
	}

	lease.Deny = false
	if !s.Tick(context.Background()) || len(declarer.calls) != 1 {
		t.Fatalf("calls = %v", declarer.calls)
	}
}

func TestSchedulerAutoDeclares(t *testing.T) {
	store := testutil.NewStore()
	cfg := testutil.DefaultGameConfig()
	clk := testutil.NewManualClock(testutil.At(14, 10, 0))
	schedule := testutil.Schedule(t)
	metrics := testutil.Metrics()
	publisher := &testutil.Publisher{}

	rounds := round.NewRoundService(store.Rounds(), schedule, clk, zerolog.Nop())
	locks := lock.NewLockService(lock.Deps{
		Cfg:       cfg,
		Schedule:  schedule,
		Clock:     clk,
		RoundRepo: store.Rounds(),
		LockRepo:  store.Locks(),
		WagerRepo: store.Wagers(),
		TxManager: store,
		Log:       zerolog.Nop(),
		Metrics:   metrics,
		Rand:      rand.New(rand.NewSource(3)),
	})
	settle := settlement.NewSettlementService(settlement.Deps{
		Cfg:         cfg,
		Clock:       clk,
		Rounds:      rounds,
		WagerRepo:   store.Wagers(),
		AccountRepo: store.Accounts(),
		TxRepo:      store.Transactions(),
		Events:      publisher,
		TxManager:   store,
		Log:         zerolog.Nop(),
		Metrics:     metrics,
	})
	declarer := declare.NewDeclareService(declare.Deps{
		Schedule:   schedule,
		Clock:      clk,
		Rounds:     rounds,
		Locks:      locks,
		Settlement: settle,
		Events:     publisher,
		Log:        zerolog.Nop(),
		Metrics:    metrics,
	})
	s := NewScheduler(Deps{
		Schedule: schedule,
		Clock:    clk,
		Rounds:   rounds,
		Locks:    locks,
		Declarer: declarer,
		Lease:    &testutil.Lease{},
		Interval: time.Minute,
		LeaseTTL: 55 * time.Second,
		Log:      zerolog.Nop(),
		Metrics:  metrics,
	})
	ctx := context.Background()

	if !s.Tick(ctx) {
		t.Fatal("tick skipped")
	}
	current, err := rounds.GetOrCreateCurrent(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if r := store.Round(current.ID); r.Status != model.RoundActive {
		t.Fatalf("status during betting = %s", r.Status)
	}

	clk.Set(testutil.At(14, 51, 0))
	s.Tick(ctx)
	if r := store.Round(current.ID); r.Status != model.RoundAwaitingResult || r.HasResult() {
		t.Fatalf("round after betting = %+v", r)
	}
	if store.Calls("rounds.ClaimLockComputation") == 0 {
		t.Fatal("locks must be computed when betting closes")
	}

	clk.Set(testutil.At(14, 59, 0))
	s.Tick(ctx)
	r := store.Round(current.ID)
	if r.Status != model.RoundCompleted || r.Result == nil || r.Result.DeclaredBy != model.DeclaredBySystem {
		t.Fatalf("round after system window = %+v", r)
	}
	locked, err := locks.ComputeLocks(ctx, current.ID)
	if err != nil {
		t.Fatal(err)
	}
	if err := locks.CheckTriple(ctx, current.ID, r.Result.Triple); err != nil {
		t.Fatalf("auto result %s violates locks %v: %v", r.Result.Triple, locked, err)
	}

	clk.Set(testutil.At(15, 0, 5))
	s.Tick(ctx)
	next, err := rounds.GetOrCreateCurrent(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if next.SlotLabel != "15:00-16:00" {
		t.Fatalf("next slot = %s", next.SlotLabel)
	}
}
