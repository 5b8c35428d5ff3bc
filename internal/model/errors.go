package model

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidSelection         = errors.New("invalid selection")
	ErrInvalidStake             = errors.New("invalid stake")
	ErrInsufficientFunds        = errors.New("insufficient funds")
	ErrBettingClosed            = errors.New("betting closed")
	ErrAlreadyDeclared          = errors.New("result already declared")
	ErrRoundAlreadyCompleted    = errors.New("round already completed")
	ErrOutsideDeclarationWindow = errors.New("outside declaration window")
	ErrNumberLocked             = errors.New("number locked")
	ErrRoundNotFound            = errors.New("round not found")
	ErrAccountNotFound          = errors.New("account not found")
	ErrResultNotDeclared        = errors.New("result not declared")
	ErrResultMismatch           = errors.New("result does not match declared result")
	ErrRateLimited              = errors.New("too many wagers")
)

// NumberLockedError - номер или его редукция заблокированы
type NumberLockedError struct {
	Level  Space
	Number string
}

func (e *NumberLockedError) Error() string {
	return fmt.Sprintf("number locked: %s %s", e.Level, e.Number)
}

func (e *NumberLockedError) Is(target error) bool {
	return target == ErrNumberLocked
}

type InsufficientFundsError struct {
	Required  int64
	Available int64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: required %d, available %d", e.Required, e.Available)
}

func (e *InsufficientFundsError) Is(target error) bool {
	return target == ErrInsufficientFunds
}

type WindowReason string

const (
	WindowTooEarly   WindowReason = "too_early"
	WindowSystemOnly WindowReason = "system_only"
	WindowElapsed    WindowReason = "elapsed"
)

// OutsideWindowError - попытка объявления вне окна оператора.
// Remaining - сколько осталось до открытия окна (только для too_early)
type OutsideWindowError struct {
	Reason    WindowReason
	Remaining time.Duration
}

func (e *OutsideWindowError) Error() string {
	switch e.Reason {
	case WindowTooEarly:
		return fmt.Sprintf("declaration window opens in %s", e.Remaining.Round(time.Second))
	case WindowSystemOnly:
		return "final minute is reserved for system declaration"
	default:
		return "declaration window has elapsed"
	}
}

func (e *OutsideWindowError) Is(target error) bool {
	return target == ErrOutsideDeclarationWindow
}
