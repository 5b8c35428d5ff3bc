package wager

import (
	"context"
	"errors"
	"numbers_backend/internal/model"
	"numbers_backend/internal/service/round"
	"numbers_backend/internal/testutil"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type fixture struct {
	serv    *serv
	store   *testutil.Store
	clock   *testutil.ManualClock
	limiter *testutil.Limiter
	cfg     *testutil.GameConfig
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := testutil.NewStore()
	clk := testutil.NewManualClock(testutil.At(14, 10, 0))
	schedule := testutil.Schedule(t)
	cfg := testutil.DefaultGameConfig()
	limiter := &testutil.Limiter{}

	s := NewWagerService(Deps{
		Cfg:         cfg,
		Schedule:    schedule,
		Clock:       clk,
		Rounds:      round.NewRoundService(store.Rounds(), schedule, clk, zerolog.Nop()),
		RoundRepo:   store.Rounds(),
		WagerRepo:   store.Wagers(),
		AccountRepo: store.Accounts(),
		TxRepo:      store.Transactions(),
		Limiter:     limiter,
		TxManager:   store,
		Log:         zerolog.Nop(),
		Metrics:     testutil.Metrics(),
	}).(*serv)

	return &fixture{serv: s, store: store, clock: clk, limiter: limiter, cfg: cfg}
}

func TestPlaceWagerDebitsAndRecords(t *testing.T) {
	f := newFixture(t)
	f.store.SetBalance(1, 100)
	ctx := context.Background()

	placed, err := f.serv.PlaceWager(ctx, model.PlaceWager{AccountID: 1, GameClass: model.ClassSinglePanna, Number: "123", Stake: 30})
	if err != nil {
		t.Fatal(err)
	}
	if placed.Balance != 70 || f.store.Balance(1) != 70 {
		t.Fatalf("balance = %d, stored = %d", placed.Balance, f.store.Balance(1))
	}
	if placed.Wager.Status != model.WagerPending || placed.Wager.SlotLabel != "14:00-15:00" {
		t.Fatalf("wager = %+v", placed.Wager)
	}

	log := f.store.TransactionLog()
	if len(log) != 1 || log[0].Type != model.TxBetPlaced || log[0].Amount != -30 || log[0].BalanceAfter != 70 {
		t.Fatalf("transactions = %+v", log)
	}
}

func TestPlaceWagerInsufficientFunds(t *testing.T) {
	f := newFixture(t)
	f.store.SetBalance(1, 40)

	_, err := f.serv.PlaceWager(context.Background(), model.PlaceWager{AccountID: 1, GameClass: model.ClassSinglePanna, Number: "123", Stake: 50})

	var funds *model.InsufficientFundsError
	if !errors.As(err, &funds) || funds.Required != 50 || funds.Available != 40 {
		t.Fatalf("err = %v", err)
	}
	if f.store.Balance(1) != 40 {
		t.Fatalf("balance = %d", f.store.Balance(1))
	}
	if len(f.store.TransactionLog()) != 0 {
		t.Fatal("no transaction expected")
	}
}

func TestPlaceWagerValidation(t *testing.T) {
	f := newFixture(t)
	f.store.SetBalance(1, 1000)
	f.cfg.Min = 10
	f.cfg.Max = 500

	cases := []struct {
		name string
		in   model.PlaceWager
		want error
	}{
		{"zero stake", model.PlaceWager{GameClass: model.ClassSingle, Number: "1", Stake: 0}, model.ErrInvalidStake},
		{"below min", model.PlaceWager{GameClass: model.ClassSingle, Number: "1", Stake: 5}, model.ErrInvalidStake},
		{"above max", model.PlaceWager{GameClass: model.ClassSingle, Number: "1", Stake: 501}, model.ErrInvalidStake},
		{"unknown class", model.PlaceWager{GameClass: "jodi", Number: "12", Stake: 10}, model.ErrInvalidSelection},
		{"two digits for single", model.PlaceWager{GameClass: model.ClassSingle, Number: "12", Stake: 10}, model.ErrInvalidSelection},
		{"double panna for single panna", model.PlaceWager{GameClass: model.ClassSinglePanna, Number: "112", Stake: 10}, model.ErrInvalidSelection},
		{"unordered digits", model.PlaceWager{GameClass: model.ClassSinglePanna, Number: "321", Stake: 10}, model.ErrInvalidSelection},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.in.AccountID = 1
			if _, err := f.serv.PlaceWager(context.Background(), tc.in); !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
	if f.store.Balance(1) != 1000 {
		t.Fatalf("balance = %d", f.store.Balance(1))
	}
}

func TestPlaceWagerBettingClosed(t *testing.T) {
	f := newFixture(t)
	f.store.SetBalance(1, 100)
	ctx := context.Background()

	for _, at := range []int{50, 55, 59} {
		f.clock.Set(testutil.At(14, at, 0))
		_, err := f.serv.PlaceWager(ctx, model.PlaceWager{AccountID: 1, GameClass: model.ClassSingle, Number: "1", Stake: 10})
		if !errors.Is(err, model.ErrBettingClosed) {
			t.Fatalf("14:%d: err = %v", at, err)
		}
	}

	f.clock.Set(testutil.At(15, 0, 0))
	if _, err := f.serv.PlaceWager(ctx, model.PlaceWager{AccountID: 1, GameClass: model.ClassSingle, Number: "1", Stake: 10}); err != nil {
		t.Fatalf("next slot: %v", err)
	}
	if f.store.Balance(1) != 90 {
		t.Fatalf("balance = %d", f.store.Balance(1))
	}
}

func TestPlaceWagerOnExplicitRound(t *testing.T) {
	f := newFixture(t)
	f.store.SetBalance(1, 100)
	ctx := context.Background()

	r, err := f.serv.rounds.GetOrCreateCurrent(ctx)
	if err != nil {
		t.Fatal(err)
	}

	f.clock.Set(testutil.At(14, 50, 0))
	_, err = f.serv.PlaceWager(ctx, model.PlaceWager{AccountID: 1, RoundID: r.ID, GameClass: model.ClassSingle, Number: "1", Stake: 10})
	if !errors.Is(err, model.ErrBettingClosed) {
		t.Fatalf("err = %v", err)
	}

	f.clock.Set(testutil.At(14, 30, 0))
	if _, err := f.store.Rounds().MarkAwaitingResult(ctx, r.ID); err != nil {
		t.Fatal(err)
	}
	_, err = f.serv.PlaceWager(ctx, model.PlaceWager{AccountID: 1, RoundID: r.ID, GameClass: model.ClassSingle, Number: "1", Stake: 10})
	if !errors.Is(err, model.ErrBettingClosed) {
		t.Fatalf("err after status change = %v", err)
	}

	_, err = f.serv.PlaceWager(ctx, model.PlaceWager{AccountID: 1, RoundID: uuid.New(), GameClass: model.ClassSingle, Number: "1", Stake: 10})
	if !errors.Is(err, model.ErrRoundNotFound) {
		t.Fatalf("unknown round = %v", err)
	}
	if f.store.Balance(1) != 100 {
		t.Fatalf("balance = %d", f.store.Balance(1))
	}
}

func TestPlaceWagerRateLimit(t *testing.T) {
	f := newFixture(t)
	f.store.SetBalance(1, 100)
	f.cfg.Limit = 2
	ctx := context.Background()
	in := model.PlaceWager{AccountID: 1, GameClass: model.ClassSingle, Number: "1", Stake: 10}

	for i := 0; i < 2; i++ {
		if _, err := f.serv.PlaceWager(ctx, in); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := f.serv.PlaceWager(ctx, in); !errors.Is(err, model.ErrRateLimited) {
		t.Fatalf("err = %v", err)
	}

	f.limiter.Err = errors.New("redis down")
	if _, err := f.serv.PlaceWager(ctx, in); err != nil {
		t.Fatalf("limiter failure should not block wagers: %v", err)
	}
}

func TestStatistics(t *testing.T) {
	f := newFixture(t)
	f.store.SetBalance(1, 1000)
	ctx := context.Background()

	for _, in := range []model.PlaceWager{
		{AccountID: 1, GameClass: model.ClassSingle, Number: "5", Stake: 100},
		{AccountID: 1, GameClass: model.ClassSingle, Number: "5", Stake: 50},
		{AccountID: 1, GameClass: model.ClassSinglePanna, Number: "123", Stake: 20},
	} {
		if _, err := f.serv.PlaceWager(ctx, in); err != nil {
			t.Fatal(err)
		}
	}

	r, err := f.serv.rounds.GetOrCreateCurrent(ctx)
	if err != nil {
		t.Fatal(err)
	}

	stats, err := f.serv.Statistics(ctx, r.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalStake != 170 || stats.WagerCount != 3 || len(stats.Totals) != 2 {
		t.Fatalf("stats = %+v", stats)
	}
	// 20 * 140 > 150 * 9
	if stats.Liabilities[0].Number != "123" || stats.Liabilities[0].Payout != 2800 {
		t.Fatalf("liabilities = %+v", stats.Liabilities)
	}

	exposure, err := f.serv.AggregateExposure(ctx, r.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(exposure) != 2 {
		t.Fatalf("exposure = %+v", exposure)
	}

	history, err := f.serv.ListByAccount(ctx, 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 3 || history[0].Number != "123" {
		t.Fatalf("history = %+v", history)
	}
}
