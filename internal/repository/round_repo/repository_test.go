package round_repo

import (
	"context"
	"numbers_backend/internal/model"
	"numbers_backend/internal/testutil"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

func newRound(t *testing.T, r *repo) *model.Round {
	t.Helper()
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
	ok, err := r.Create(context.Background(), round)
	if err != nil || !ok {
		t.Fatalf("Create = %v, %v", ok, err)
	}
	return round
}

func TestCreateOnePerSlot(t *testing.T) {
	r := NewRoundRepository(testutil.SetupTestDB(t)).(*repo)
	first := newRound(t, r)

	dup := *first
	dup.ID = uuid.New()
	ok, err := r.Create(context.Background(), &dup)
	if err != nil || ok {
		t.Fatalf("second Create = %v, %v", ok, err)
	}

	got, err := r.GetBySlot(context.Background(), "2026-03-14", "14:00-15:00")
	if err != nil || got.ID != first.ID {
		t.Fatalf("GetBySlot = %+v, %v", got, err)
	}
}

func TestRecordResultOnce(t *testing.T) {
	ctx := context.Background()
	r := NewRoundRepository(testutil.SetupTestDB(t)).(*repo)
	round := newRound(t, r)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins []string
	)
	for _, triple := range []string{"370", "128", "500", "777"} {
		wg.Add(1)
		go func(triple string) {
			defer wg.Done()
			ok, err := r.RecordResult(ctx, round.ID, model.RoundResult{
				Triple:     triple,
				Single:     0,
				DeclaredAt: time.Now().UTC(),
				DeclaredBy: "system",
			})
			if err != nil {
				t.Error(err)
				return
			}
			if ok {
				mu.Lock()
				wins = append(wins, triple)
				mu.Unlock()
			}
		}(triple)
	}
	wg.Wait()

	if len(wins) != 1 {
		t.Fatalf("recorded %d results: %v", len(wins), wins)
	}
	got, err := r.GetByID(ctx, round.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.HasResult() || got.Result.Triple != wins[0] || got.Status != model.RoundAwaitingResult {
		t.Fatalf("round = %+v", got)
	}
}

func TestCompleteRequiresResult(t *testing.T) {
	ctx := context.Background()
	r := NewRoundRepository(testutil.SetupTestDB(t)).(*repo)
	round := newRound(t, r)
	now := time.Now().UTC()

	if ok, err := r.MarkAwaitingResult(ctx, round.ID); err != nil || !ok {
		t.Fatalf("MarkAwaitingResult = %v, %v", ok, err)
	}
	if ok, err := r.Complete(ctx, round.ID, now); err != nil || ok {
		t.Fatalf("Complete without result = %v, %v", ok, err)
	}

	res := model.RoundResult{Triple: "370", Single: 0, DeclaredAt: now, DeclaredBy: "operator:9"}
	if ok, err := r.RecordResult(ctx, round.ID, res); err != nil || !ok {
		t.Fatalf("RecordResult = %v, %v", ok, err)
	}
	if ok, err := r.Complete(ctx, round.ID, now); err != nil || !ok {
		t.Fatalf("Complete = %v, %v", ok, err)
	}
	if ok, err := r.Complete(ctx, round.ID, now); err != nil || ok {
		t.Fatalf("second Complete = %v, %v", ok, err)
	}

	// Завершенный раунд не принимает результат
	res.Triple = "128"
	if ok, err := r.RecordResult(ctx, round.ID, res); err != nil || ok {
		t.Fatalf("RecordResult after completion = %v, %v", ok, err)
	}

	unfinished, err := r.ListUnfinished(ctx)
	if err != nil || len(unfinished) != 0 {
		t.Fatalf("ListUnfinished = %+v, %v", unfinished, err)
	}
}

func TestClaimLockComputationOnce(t *testing.T) {
	ctx := context.Background()
	r := NewRoundRepository(testutil.SetupTestDB(t)).(*repo)
	round := newRound(t, r)
	now := time.Now().UTC()

	if ok, err := r.ClaimLockComputation(ctx, round.ID, now); err != nil || !ok {
		t.Fatalf("first claim = %v, %v", ok, err)
	}
	if ok, _ := r.ClaimLockComputation(ctx, round.ID, now); ok {
		t.Fatal("second claim must fail")
	}
	if err := r.ResetLockComputation(ctx, round.ID); err != nil {
		t.Fatal(err)
	}
	if ok, _ := r.ClaimLockComputation(ctx, round.ID, now); !ok {
		t.Fatal("claim after reset must succeed")
	}
}
