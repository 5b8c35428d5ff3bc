package wager

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"numbers_backend/internal/middleware"
	"numbers_backend/internal/model"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type stubWagers struct {
	placed    model.PlaceWager
	placeErr  error
	listLimit int
}

func (s *stubWagers) PlaceWager(_ context.Context, in model.PlaceWager) (*model.PlacedWager, error) {
	s.placed = in
	if s.placeErr != nil {
		return nil, s.placeErr
	}
	return &model.PlacedWager{
		Wager: model.Wager{
			ID:        uuid.New(),
			AccountID: in.AccountID,
			GameClass: in.GameClass,
			Number:    in.Number,
			Stake:     in.Stake,
			Status:    model.WagerPending,
		},
		Balance: 60,
	}, nil
}

func (s *stubWagers) AggregateExposure(context.Context, uuid.UUID) ([]model.Exposure, error) {
	return nil, nil
}

func (s *stubWagers) Statistics(context.Context, uuid.UUID) (*model.RoundStatistics, error) {
	return &model.RoundStatistics{}, nil
}

func (s *stubWagers) ListByAccount(_ context.Context, _ int64, limit int) ([]model.Wager, error) {
	s.listLimit = limit
	return []model.Wager{{ID: uuid.New(), Number: "5", GameClass: model.ClassSingle}}, nil
}

func withAccount(r *http.Request, id int64) *http.Request {
	return r.WithContext(middleware.WithIdentity(r.Context(), middleware.Identity{ID: id, Role: model.RoleAccount}))
}

func TestPlaceCreatesWager(t *testing.T) {
	serv := &stubWagers{}
	h := NewHandler(HandlerDeps{Serv: serv, Log: zerolog.Nop()})

	r := httptest.NewRequest(http.MethodPost, "/wagers", strings.NewReader(`{"game_class":"single","number":"5","stake":40}`))
	rec := httptest.NewRecorder()
	h.Place(rec, withAccount(r, 7))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if serv.placed.AccountID != 7 || serv.placed.RoundID != uuid.Nil || serv.placed.Stake != 40 {
		t.Fatalf("placed = %+v", serv.placed)
	}

	var body struct {
		Balance int64 `json:"balance"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Balance != 60 {
		t.Fatalf("balance = %d", body.Balance)
	}
}

func TestPlaceMapsInsufficientFunds(t *testing.T) {
	serv := &stubWagers{placeErr: &model.InsufficientFundsError{Required: 50, Available: 40}}
	h := NewHandler(HandlerDeps{Serv: serv, Log: zerolog.Nop()})

	r := httptest.NewRequest(http.MethodPost, "/wagers", strings.NewReader(`{"game_class":"single","number":"5","stake":50}`))
	rec := httptest.NewRecorder()
	h.Place(rec, withAccount(r, 7))

	if rec.Code != http.StatusPaymentRequired {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestPlaceRejectsBadBody(t *testing.T) {
	h := NewHandler(HandlerDeps{Serv: &stubWagers{}, Log: zerolog.Nop()})

	for _, raw := range []string{`{`, `{"game_class":"single","extra":1}`, `{"round_id":"nope","game_class":"single","number":"1","stake":1}`} {
		rec := httptest.NewRecorder()
		h.Place(rec, withAccount(httptest.NewRequest(http.MethodPost, "/wagers", strings.NewReader(raw)), 7))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d", raw, rec.Code)
		}
	}
}

func TestPlaceRequiresAccount(t *testing.T) {
	h := NewHandler(HandlerDeps{Serv: &stubWagers{}, Log: zerolog.Nop()})

	rec := httptest.NewRecorder()
	h.Place(rec, httptest.NewRequest(http.MethodPost, "/wagers", strings.NewReader(`{}`)))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestListPassesLimit(t *testing.T) {
	serv := &stubWagers{}
	h := NewHandler(HandlerDeps{Serv: serv, Log: zerolog.Nop()})

	rec := httptest.NewRecorder()
	h.List(rec, withAccount(httptest.NewRequest(http.MethodGet, "/wagers?limit=20", nil), 7))
	if rec.Code != http.StatusOK || serv.listLimit != 20 {
		t.Fatalf("status = %d, limit = %d", rec.Code, serv.listLimit)
	}

	rec = httptest.NewRecorder()
	h.List(rec, withAccount(httptest.NewRequest(http.MethodGet, "/wagers?limit=x", nil), 7))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}
