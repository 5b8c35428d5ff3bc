package model

import (
	"time"

	"github.com/google/uuid"
)

type RoundStatus string

const (
	RoundActive         RoundStatus = "active"
	RoundAwaitingResult RoundStatus = "awaiting_result"
	RoundCompleted      RoundStatus = "completed"
)

// DeclaredBySystem - метка автоматического объявления результата
const DeclaredBySystem = "system"

type Round struct {
	ID        uuid.UUID
	GameDate  string // YYYY-MM-DD в часовом поясе расписания
	SlotLabel string // "14:00-15:00"
	SlotStart time.Time
	SlotEnd   time.Time
	Status    RoundStatus
	Result    *RoundResult
	CreatedAt time.Time
}

// RoundResult - объявленный результат раунда, записывается ровно один раз
type RoundResult struct {
	Triple     string
	Single     int
	DeclaredAt time.Time
	DeclaredBy string
}

func (r *Round) HasResult() bool {
	return r.Result != nil
}

// DeclaredByOperator - формирует метку оператора для RoundResult.DeclaredBy
func DeclaredByOperator(operatorID int64) string {
	return "operator:" + formatInt(operatorID)
}
