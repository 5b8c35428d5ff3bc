package wager

import (
	"net/http"
	dto "numbers_backend/internal/api/dto/wager"
	"numbers_backend/internal/api/httperr"
	"numbers_backend/internal/converter"
	"numbers_backend/internal/middleware"
	"numbers_backend/internal/service"
	"numbers_backend/pkg/req"
	"numbers_backend/pkg/resp"
	"strconv"

	"github.com/rs/zerolog"
)

type HandlerDeps struct {
	Serv service.WagerService
	Log  zerolog.Logger
}

type Handler struct {
	serv service.WagerService
	log  zerolog.Logger
}

func NewHandler(deps HandlerDeps) *Handler {
	return &Handler{serv: deps.Serv, log: deps.Log}
}

// Place размещает ставку от имени аккаунта из токена
func (h *Handler) Place(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.AccountIDFromContext(r.Context())
	if !ok {
		resp.WriteError(w, http.StatusForbidden, "forbidden", "account role required", nil)
		return
	}

	payload, err := req.Decode[dto.PlaceWagerRequest](r.Body)
	if err != nil {
		httperr.BadRequest(w, err.Error())
		return
	}

	in, err := converter.ToPlaceWager(accountID, payload)
	if err != nil {
		httperr.BadRequest(w, err.Error())
		return
	}

	placed, err := h.serv.PlaceWager(r.Context(), in)
	if err != nil {
		httperr.Write(w, h.log, err)
		return
	}

	resp.WriteJSONResponse(w, http.StatusCreated, converter.ToPlaceWagerResponse(*placed))
}

// List - история ставок аккаунта, новые сверху
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.AccountIDFromContext(r.Context())
	if !ok {
		resp.WriteError(w, http.StatusForbidden, "forbidden", "account role required", nil)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			httperr.BadRequest(w, "invalid limit")
			return
		}
		limit = n
	}

	wagers, err := h.serv.ListByAccount(r.Context(), accountID, limit)
	if err != nil {
		httperr.Write(w, h.log, err)
		return
	}

	resp.WriteJSONResponse(w, http.StatusOK, converter.ToListWagersResponse(wagers))
}
