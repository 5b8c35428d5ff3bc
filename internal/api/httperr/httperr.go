package httperr

import (
	"errors"
	"net/http"
	"numbers_backend/internal/model"
	"numbers_backend/pkg/resp"

	"github.com/rs/zerolog"
)

// Write переводит доменную ошибку в HTTP ответ.
// Неизвестные ошибки логируются и отдаются как 500 без подробностей
func Write(w http.ResponseWriter, log zerolog.Logger, err error) {
	var locked *model.NumberLockedError
	var funds *model.InsufficientFundsError
	var window *model.OutsideWindowError

	switch {
	case errors.As(err, &locked):
		resp.WriteError(w, http.StatusUnprocessableEntity, "number_locked", err.Error(), map[string]string{
			"level":  string(locked.Level),
			"number": locked.Number,
		})
	case errors.As(err, &funds):
		resp.WriteError(w, http.StatusPaymentRequired, "insufficient_funds", err.Error(), map[string]int64{
			"required":  funds.Required,
			"available": funds.Available,
		})
	case errors.As(err, &window):
		resp.WriteError(w, http.StatusConflict, "outside_declaration_window", err.Error(), map[string]any{
			"reason":            window.Reason,
			"remaining_seconds": int64(window.Remaining.Seconds()),
		})
	case errors.Is(err, model.ErrInvalidSelection):
		resp.WriteError(w, http.StatusBadRequest, "invalid_selection", err.Error(), nil)
	case errors.Is(err, model.ErrInvalidStake):
		resp.WriteError(w, http.StatusBadRequest, "invalid_stake", err.Error(), nil)
	case errors.Is(err, model.ErrInsufficientFunds):
		resp.WriteError(w, http.StatusPaymentRequired, "insufficient_funds", err.Error(), nil)
	case errors.Is(err, model.ErrNumberLocked):
		resp.WriteError(w, http.StatusUnprocessableEntity, "number_locked", err.Error(), nil)
	case errors.Is(err, model.ErrOutsideDeclarationWindow):
		resp.WriteError(w, http.StatusConflict, "outside_declaration_window", err.Error(), nil)
	case errors.Is(err, model.ErrBettingClosed):
		resp.WriteError(w, http.StatusConflict, "betting_closed", err.Error(), nil)
	case errors.Is(err, model.ErrAlreadyDeclared):
		resp.WriteError(w, http.StatusConflict, "already_declared", err.Error(), nil)
	case errors.Is(err, model.ErrRoundAlreadyCompleted):
		resp.WriteError(w, http.StatusConflict, "round_already_completed", err.Error(), nil)
	case errors.Is(err, model.ErrResultNotDeclared):
		resp.WriteError(w, http.StatusConflict, "result_not_declared", err.Error(), nil)
	case errors.Is(err, model.ErrResultMismatch):
		resp.WriteError(w, http.StatusConflict, "result_mismatch", err.Error(), nil)
	case errors.Is(err, model.ErrRoundNotFound):
		resp.WriteError(w, http.StatusNotFound, "round_not_found", err.Error(), nil)
	case errors.Is(err, model.ErrAccountNotFound):
		resp.WriteError(w, http.StatusNotFound, "account_not_found", err.Error(), nil)
	case errors.Is(err, model.ErrRateLimited):
		resp.WriteError(w, http.StatusTooManyRequests, "rate_limited", err.Error(), nil)
	default:
		log.Error().Err(err).Msg("request failed")
		resp.WriteError(w, http.StatusInternalServerError, "internal", "internal error", nil)
	}
}

// BadRequest - тело или параметры запроса не разобраны
func BadRequest(w http.ResponseWriter, msg string) {
	resp.WriteError(w, http.StatusBadRequest, "bad_request", msg, nil)
}
