package wager_repo

import (
	"context"
	"numbers_backend/internal/model"
	"numbers_backend/internal/repository/round_repo"
	"numbers_backend/internal/testutil"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

type fixture struct {
	repo    *repo
	account int64
	round   *model.Round
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	pool := testutil.SetupTestDB(t)

	start := time.Date(2026, 3, 14, 14, 0, 0, 0, time.UTC)
	round := &model.Round{
		ID:        uuid.New(),
		GameDate:  "2026-03-14",
		SlotLabel: "14:00-15:00",
		SlotStart: start,
		SlotEnd:   start.Add(time.Hour),
		Status:    model.RoundActive,
		CreatedAt: start,
	}
	if _, err := round_repo.NewRoundRepository(pool).Create(context.Background(), round); err != nil {
		t.Fatal(err)
	}

	return &fixture{
		repo:    NewWagerRepository(pool).(*repo),
		account: testutil.CreateAccount(t, pool, 0),
		round:   round,
	}
}

func (f *fixture) wager(t *testing.T, class model.GameClass, number string, stake int64) model.Wager {
	t.Helper()
	w := model.Wager{
		ID:        uuid.New(),
		AccountID: f.account,
		RoundID:   f.round.ID,
		GameClass: class,
		Number:    number,
		Stake:     stake,
		Status:    model.WagerPending,
		SlotLabel: f.round.SlotLabel,
		CreatedAt: time.Now().UTC(),
	}
	if err := f.repo.Create(context.Background(), &w); err != nil {
		t.Fatal(err)
	}
	return w
}

func TestSetOutcomeOnlyFromPending(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	w := f.wager(t, model.ClassSingle, "0", 10)
	now := time.Now().UTC()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := f.repo.SetOutcome(ctx, w.ID, model.WagerWon, 90, now)
			if err != nil {
				t.Error(err)
				return
			}
			if ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Fatalf("outcome applied %d times", wins)
	}
	if ok, _ := f.repo.SetOutcome(ctx, w.ID, model.WagerLost, 0, now); ok {
		t.Fatal("settled wager must not change")
	}

	pending, err := f.repo.ListPendingByRound(ctx, f.round.ID, 10)
	if err != nil || len(pending) != 0 {
		t.Fatalf("pending = %+v, %v", pending, err)
	}
	history, err := f.repo.ListByAccount(ctx, f.account, 10)
	if err != nil || len(history) != 1 || history[0].Status != model.WagerWon || history[0].WinAmount != 90 {
		t.Fatalf("history = %+v, %v", history, err)
	}
}

func TestAggregate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.wager(t, model.ClassSingle, "5", 10)
	f.wager(t, model.ClassSingle, "5", 15)
	f.wager(t, model.ClassSinglePanna, "128", 20)
	lost := f.wager(t, model.ClassSingle, "1", 7)
	if _, err := f.repo.SetOutcome(ctx, lost.ID, model.WagerLost, 0, time.Now().UTC()); err != nil {
		t.Fatal(err)
	}

	all, err := f.repo.Aggregate(ctx, f.round.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Fatalf("aggregate = %+v", all)
	}

	pending, err := f.repo.Aggregate(ctx, f.round.ID, model.WagerPending)
	if err != nil {
		t.Fatal(err)
	}
	got := map[string]model.Exposure{}
	for _, e := range pending {
		got[string(e.GameClass)+"/"+e.Number] = e
	}
	if e := got["single/5"]; e.Stake != 25 || e.Count != 2 || e.Space != model.SpaceSingle {
		t.Fatalf("single/5 = %+v", e)
	}
	if e := got["single_panna/128"]; e.Stake != 20 || e.Space != model.SpaceTriple {
		t.Fatalf("single_panna/128 = %+v", e)
	}
	if _, ok := got["single/1"]; ok {
		t.Fatal("lost wager must not be counted as pending")
	}
}
