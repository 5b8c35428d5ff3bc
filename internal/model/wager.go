package model

import (
	"time"

	"github.com/google/uuid"
)

type WagerStatus string

const (
	WagerPending WagerStatus = "pending"
	WagerWon     WagerStatus = "won"
	WagerLost    WagerStatus = "lost"
)

type Wager struct {
	ID        uuid.UUID
	AccountID int64
	RoundID   uuid.UUID
	GameClass GameClass
	Number    string
	Stake     int64
	Status    WagerStatus
	WinAmount int64
	SlotLabel string
	CreatedAt time.Time
	SettledAt *time.Time
}

// PlaceWager - запрос на размещение ставки.
// Пустой RoundID означает текущий раунд
type PlaceWager struct {
	AccountID int64
	RoundID   uuid.UUID
	GameClass GameClass
	Number    string
	Stake     int64
}

// PlacedWager - результат размещения ставки
type PlacedWager struct {
	Wager   Wager
	Balance int64
}

// Exposure - суммарная ставка на номер в раунде
type Exposure struct {
	GameClass GameClass
	Space     Space
	Number    string
	Stake     int64
	Count     int
}

// Liability - худший случай выплаты, если номер будет объявлен
type Liability struct {
	Space  Space
	Number string
	Payout int64
}

type ClassTotal struct {
	GameClass GameClass
	Stake     int64
	Count     int
}

type RoundStatistics struct {
	RoundID     uuid.UUID
	Exposure    []Exposure
	Totals      []ClassTotal
	TotalStake  int64
	WagerCount  int
	Liabilities []Liability
}
