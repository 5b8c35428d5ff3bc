package round

import (
	"context"
	"net/http"
	"net/http/httptest"
	"numbers_backend/internal/middleware"
	"numbers_backend/internal/model"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type stubDeclare struct {
	triple     string
	operatorID int64
	err        error
	queued     bool
}

func (s *stubDeclare) DeclareByOperator(_ context.Context, id uuid.UUID, triple string, operatorID int64) (*model.Declaration, error) {
	s.triple, s.operatorID = triple, operatorID
	if s.err != nil {
		return nil, s.err
	}
	return &model.Declaration{RoundID: id, Triple: triple, Single: 1, DeclaredBy: model.DeclaredByOperator(operatorID), Queued: s.queued}, nil
}

func (s *stubDeclare) DeclareByAuto(context.Context, uuid.UUID) (*model.Declaration, error) {
	return nil, nil
}

func (s *stubDeclare) ResumeSettlement(context.Context, uuid.UUID) (*model.Declaration, error) {
	return nil, nil
}

func (s *stubDeclare) DrainRetryQueue(context.Context) (int, error) { return 0, nil }

func (s *stubDeclare) RunDrainer(context.Context, time.Duration) {}

type stubLocks struct {
	set   model.LockSet
	reset uuid.UUID
}

func (s *stubLocks) ComputeLocks(context.Context, uuid.UUID) (model.LockSet, error) {
	return s.set, nil
}

func (s *stubLocks) ResetLocks(_ context.Context, id uuid.UUID) error {
	s.reset = id
	return nil
}

func (s *stubLocks) IsEligible(context.Context, uuid.UUID, model.Space, string) (bool, error) {
	return true, nil
}

func (s *stubLocks) CheckTriple(context.Context, uuid.UUID, string) error { return nil }

func (s *stubLocks) PickAutoEligible(context.Context, uuid.UUID) (string, error) { return "", nil }

func router(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := middleware.WithIdentity(r.Context(), middleware.Identity{ID: 3, Role: model.RoleOperator})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	})
	r.Post("/rounds/{id}/result", h.Declare)
	r.Get("/rounds/{id}/locks", h.Locks)
	r.Post("/rounds/{id}/locks/reset", h.ResetLocks)
	return r
}

func TestDeclarePassesOperator(t *testing.T) {
	decl := &stubDeclare{}
	h := NewHandler(HandlerDeps{Declare: decl, Log: zerolog.Nop()})

	id := uuid.New()
	rec := httptest.NewRecorder()
	router(h).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/rounds/"+id.String()+"/result", strings.NewReader(`{"number":"128"}`)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if decl.triple != "128" || decl.operatorID != 3 {
		t.Fatalf("got %q by %d", decl.triple, decl.operatorID)
	}
	if !strings.Contains(rec.Body.String(), `"declared_by":"operator:3"`) {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestDeclareQueuedIsAccepted(t *testing.T) {
	h := NewHandler(HandlerDeps{Declare: &stubDeclare{queued: true}, Log: zerolog.Nop()})

	rec := httptest.NewRecorder()
	router(h).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/rounds/"+uuid.NewString()+"/result", strings.NewReader(`{"number":"128"}`)))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestDeclareLockedNumber(t *testing.T) {
	h := NewHandler(HandlerDeps{
		Declare: &stubDeclare{err: &model.NumberLockedError{Level: model.SpaceSingle, Number: "5"}},
		Log:     zerolog.Nop(),
	})

	rec := httptest.NewRecorder()
	router(h).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/rounds/"+uuid.NewString()+"/result", strings.NewReader(`{"number":"500"}`)))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"level":"single"`) {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestBadRoundID(t *testing.T) {
	h := NewHandler(HandlerDeps{Declare: &stubDeclare{}, Locks: &stubLocks{}, Log: zerolog.Nop()})

	rec := httptest.NewRecorder()
	router(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/rounds/not-a-uuid/locks", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestLocksAndReset(t *testing.T) {
	locks := &stubLocks{set: model.LockSet{Singles: []string{"5"}}}
	h := NewHandler(HandlerDeps{Locks: locks, Log: zerolog.Nop()})
	id := uuid.New()

	rec := httptest.NewRecorder()
	router(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/rounds/"+id.String()+"/locks", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"singles":["5"]`) || !strings.Contains(rec.Body.String(), `"triples":[]`) {
		t.Fatalf("body = %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	router(h).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/rounds/"+id.String()+"/locks/reset", nil))
	if rec.Code != http.StatusNoContent || locks.reset != id {
		t.Fatalf("status = %d, reset = %s", rec.Code, locks.reset)
	}
}
