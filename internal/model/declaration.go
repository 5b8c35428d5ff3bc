package model

import (
	"time"

	"github.com/google/uuid"
)

type Phase string

const (
	PhaseBetting         Phase = "betting"
	PhaseOperatorDeclare Phase = "operator_declare"
	PhaseSystemOnly      Phase = "system_only"
	PhaseClosed          Phase = "closed"
)

// CurrentRound - раунд текущего слота вместе с таймингами фаз
type CurrentRound struct {
	Round            Round
	Phase            Phase
	BettingEndsAt    time.Time
	OperatorEndsAt   time.Time
	SlotEndsAt       time.Time
	BettingRemaining time.Duration
	DeclareRemaining time.Duration
}

type Declaration struct {
	RoundID    uuid.UUID
	Triple     string
	Single     int
	DeclaredBy string
	// Queued - результат не удалось сохранить, решение ушло в очередь повторов
	Queued bool
	// SettlementPending - результат сохранен, расчет будет завершен планировщиком
	SettlementPending bool
	Report            *SettlementReport
}

type SettlementReport struct {
	RoundID    uuid.UUID
	Triple     string
	Single     int
	Won        int
	Lost       int
	Skipped    int
	TotalStake int64
	TotalPaid  int64
}

// PendingDeclaration - решение, ожидающее записи в очереди повторов
type PendingDeclaration struct {
	RoundID    uuid.UUID `json:"round_id"`
	Triple     string    `json:"triple"`
	DeclaredBy string    `json:"declared_by"`
	DecidedAt  time.Time `json:"decided_at"`
	Attempts   int       `json:"attempts"`
}

// QueuedDeclaration - решение, извлеченное из очереди повторов.
// Receipt - исходное сообщение, по нему очередь подтверждает обработку
type QueuedDeclaration struct {
	PendingDeclaration
	Receipt string
}

type RoundEventType string

const (
	EventRoundDeclared RoundEventType = "declared"
	EventRoundSettled  RoundEventType = "settled"
)

type RoundEvent struct {
	Type       RoundEventType    `json:"type"`
	RoundID    uuid.UUID         `json:"round_id"`
	GameDate   string            `json:"game_date"`
	SlotLabel  string            `json:"slot_label"`
	Triple     string            `json:"triple"`
	Single     int               `json:"single"`
	DeclaredBy string            `json:"declared_by,omitempty"`
	Report     *SettlementReport `json:"report,omitempty"`
	At         time.Time         `json:"at"`
}
