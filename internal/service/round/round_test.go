package round

import (
	"context"
	"errors"
	"numbers_backend/internal/model"
	"numbers_backend/internal/testutil"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestService(t *testing.T, now time.Time) (*serv, *testutil.Store, *testutil.ManualClock) {
	t.Helper()
	store := testutil.NewStore()
	clk := testutil.NewManualClock(now)
	s := NewRoundService(store.Rounds(), testutil.Schedule(t), clk, zerolog.Nop()).(*serv)
	return s, store, clk
}

func TestGetOrCreateCurrentConcurrent(t *testing.T) {
	s, _, _ := newTestService(t, testutil.At(14, 20, 0))
	ctx := context.Background()

	const callers = 16
	ids := make(chan string, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, err := s.GetOrCreateCurrent(ctx)
			if err != nil {
				t.Errorf("GetOrCreateCurrent: %v", err)
				return
			}
			ids <- r.ID.String()
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[string]bool{}
	for id := range ids {
		seen[id] = true
	}
	if len(seen) != 1 {
		t.Fatalf("expected one round, got %d", len(seen))
	}

	rounds, err := s.ListUnfinished(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(rounds) != 1 || rounds[0].SlotLabel != "14:00-15:00" || rounds[0].GameDate != "2026-03-14" {
		t.Fatalf("rounds = %+v", rounds)
	}
}

func TestCurrentPhases(t *testing.T) {
	s, _, clk := newTestService(t, testutil.At(14, 10, 0))
	ctx := context.Background()

	cur, err := s.Current(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if cur.Phase != model.PhaseBetting || cur.BettingRemaining != 40*time.Minute || cur.DeclareRemaining != 49*time.Minute {
		t.Fatalf("current = %+v", cur)
	}

	clk.Set(testutil.At(14, 59, 0))
	cur, err = s.Current(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if cur.Phase != model.PhaseSystemOnly || cur.BettingRemaining != 0 || cur.DeclareRemaining != 0 {
		t.Fatalf("current = %+v", cur)
	}

	clk.Set(testutil.At(15, 0, 0))
	cur, err = s.Current(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if cur.Round.SlotLabel != "15:00-16:00" || cur.Phase != model.PhaseBetting {
		t.Fatalf("current = %+v", cur)
	}
}

func TestRecordResultOnce(t *testing.T) {
	s, _, _ := newTestService(t, testutil.At(14, 55, 0))
	ctx := context.Background()

	r, err := s.GetOrCreateCurrent(ctx)
	if err != nil {
		t.Fatal(err)
	}

	got, err := s.RecordResult(ctx, r.ID, "128", model.DeclaredByOperator(1))
	if err != nil {
		t.Fatalf("RecordResult: %v", err)
	}
	if got.Result.Triple != "128" || got.Result.Single != 1 || got.Status != model.RoundAwaitingResult {
		t.Fatalf("round = %+v result = %+v", got, got.Result)
	}

	if _, err := s.RecordResult(ctx, r.ID, "137", model.DeclaredBySystem); !errors.Is(err, model.ErrAlreadyDeclared) {
		t.Fatalf("second RecordResult: %v", err)
	}

	if _, err := s.RecordResult(ctx, r.ID, "12", model.DeclaredBySystem); !errors.Is(err, model.ErrInvalidSelection) {
		t.Fatalf("malformed triple: %v", err)
	}
}

func TestTransitions(t *testing.T) {
	s, _, _ := newTestService(t, testutil.At(14, 55, 0))
	ctx := context.Background()

	r, err := s.GetOrCreateCurrent(ctx)
	if err != nil {
		t.Fatal(err)
	}

	if err := s.Complete(ctx, r.ID); !errors.Is(err, model.ErrResultNotDeclared) {
		t.Fatalf("Complete without result: %v", err)
	}

	if err := s.MarkAwaitingResult(ctx, r.ID); err != nil {
		t.Fatal(err)
	}
	if err := s.MarkAwaitingResult(ctx, r.ID); err != nil {
		t.Fatalf("repeated MarkAwaitingResult: %v", err)
	}

	if _, err := s.RecordResult(ctx, r.ID, "000", model.DeclaredBySystem); err != nil {
		t.Fatal(err)
	}
	if err := s.Complete(ctx, r.ID); err != nil {
		t.Fatal(err)
	}
	if err := s.Complete(ctx, r.ID); !errors.Is(err, model.ErrRoundAlreadyCompleted) {
		t.Fatalf("repeated Complete: %v", err)
	}
	if err := s.MarkAwaitingResult(ctx, r.ID); !errors.Is(err, model.ErrRoundAlreadyCompleted) {
		t.Fatalf("MarkAwaitingResult after completion: %v", err)
	}
	if _, err := s.RecordResult(ctx, r.ID, "111", model.DeclaredBySystem); !errors.Is(err, model.ErrAlreadyDeclared) {
		t.Fatalf("RecordResult after completion: %v", err)
	}
}
