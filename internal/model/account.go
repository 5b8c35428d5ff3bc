package model

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type Account struct {
	ID      int64
	Name    string
	Balance int64
}

type TransactionType string

const (
	TxBetPlaced TransactionType = "bet_placed"
	TxBetWon    TransactionType = "bet_won"
)

// TransactionRecord - запись журнала изменений баланса, только добавление
type TransactionRecord struct {
	ID           uuid.UUID
	AccountID    int64
	RoundID      uuid.UUID
	WagerID      uuid.UUID
	Type         TransactionType
	Amount       int64
	BalanceAfter int64
	CreatedAt    time.Time
}

type Role string

const (
	RoleAccount  Role = "account"
	RoleOperator Role = "operator"
)

type UserClaims struct {
	jwt.RegisteredClaims
	Role Role `json:"role"`
}
