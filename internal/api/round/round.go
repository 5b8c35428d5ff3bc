package round

import (
	"net/http"
	dto "numbers_backend/internal/api/dto/round"
	"numbers_backend/internal/api/httperr"
	"numbers_backend/internal/converter"
	"numbers_backend/internal/middleware"
	"numbers_backend/internal/service"
	"numbers_backend/pkg/req"
	"numbers_backend/pkg/resp"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type HandlerDeps struct {
	Rounds  service.RoundService
	Locks   service.LockService
	Wagers  service.WagerService
	Declare service.DeclareService
	Log     zerolog.Logger
}

type Handler struct {
	rounds  service.RoundService
	locks   service.LockService
	wagers  service.WagerService
	declare service.DeclareService
	log     zerolog.Logger
}

func NewHandler(deps HandlerDeps) *Handler {
	return &Handler{
		rounds:  deps.Rounds,
		locks:   deps.Locks,
		wagers:  deps.Wagers,
		declare: deps.Declare,
		log:     deps.Log,
	}
}

// Current возвращает раунд текущего слота, создавая его при необходимости
func (h *Handler) Current(w http.ResponseWriter, r *http.Request) {
	cur, err := h.rounds.Current(r.Context())
	if err != nil {
		httperr.Write(w, h.log, err)
		return
	}

	resp.WriteJSONResponse(w, http.StatusOK, converter.ToCurrentRoundResponse(*cur))
}

// Declare - ручное объявление результата оператором
func (h *Handler) Declare(w http.ResponseWriter, r *http.Request) {
	roundID, ok := roundIDParam(w, r)
	if !ok {
		return
	}

	operatorID, ok := middleware.OperatorIDFromContext(r.Context())
	if !ok {
		resp.WriteError(w, http.StatusForbidden, "forbidden", "operator role required", nil)
		return
	}

	payload, err := req.Decode[dto.DeclareRequest](r.Body)
	if err != nil {
		httperr.BadRequest(w, err.Error())
		return
	}

	decl, err := h.declare.DeclareByOperator(r.Context(), roundID, payload.Number, operatorID)
	if err != nil {
		httperr.Write(w, h.log, err)
		return
	}

	status := http.StatusOK
	if decl.Queued {
		status = http.StatusAccepted
	}
	resp.WriteJSONResponse(w, status, converter.ToDeclarationResponse(*decl))
}

// Locks вычисляет (или возвращает уже вычисленный) набор заблокированных номеров
func (h *Handler) Locks(w http.ResponseWriter, r *http.Request) {
	roundID, ok := roundIDParam(w, r)
	if !ok {
		return
	}

	set, err := h.locks.ComputeLocks(r.Context(), roundID)
	if err != nil {
		httperr.Write(w, h.log, err)
		return
	}

	resp.WriteJSONResponse(w, http.StatusOK, converter.ToLocksResponse(roundID.String(), set))
}

func (h *Handler) ResetLocks(w http.ResponseWriter, r *http.Request) {
	roundID, ok := roundIDParam(w, r)
	if !ok {
		return
	}

	if err := h.locks.ResetLocks(r.Context(), roundID); err != nil {
		httperr.Write(w, h.log, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	roundID, ok := roundIDParam(w, r)
	if !ok {
		return
	}

	stats, err := h.wagers.Statistics(r.Context(), roundID)
	if err != nil {
		httperr.Write(w, h.log, err)
		return
	}

	resp.WriteJSONResponse(w, http.StatusOK, converter.ToStatsResponse(*stats))
}

func roundIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httperr.BadRequest(w, "invalid round id")
		return uuid.Nil, false
	}
	return id, true
}
