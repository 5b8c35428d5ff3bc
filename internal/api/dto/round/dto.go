package round

import "time"

type CurrentRoundResponse struct {
	ID                  string          `json:"id"`
	GameDate            string          `json:"game_date"`
	SlotLabel           string          `json:"slot_label"`
	Status              string          `json:"status"`
	Phase               string          `json:"phase"`
	BettingEndsAt       time.Time       `json:"betting_ends_at"`
	OperatorEndsAt      time.Time       `json:"operator_ends_at"`
	SlotEndsAt          time.Time       `json:"slot_ends_at"`
	BettingRemainingSec int64           `json:"betting_remaining_sec"` // До закрытия приема ставок
	DeclareRemainingSec int64           `json:"declare_remaining_sec"` // До конца окна оператора
	Result              *ResultResponse `json:"result,omitempty"`
}

type ResultResponse struct {
	Triple     string    `json:"triple"`
	Single     int       `json:"single"`
	DeclaredAt time.Time `json:"declared_at"`
	DeclaredBy string    `json:"declared_by"`
}

type DeclareRequest struct {
	Number string `json:"number"` // Тройка, например "128"
}

type DeclarationResponse struct {
	RoundID           string                    `json:"round_id"`
	Triple            string                    `json:"triple"`
	Single            int                       `json:"single"`
	DeclaredBy        string                    `json:"declared_by"`
	Queued            bool                      `json:"queued"`             // Запись результата отложена
	SettlementPending bool                      `json:"settlement_pending"` // Расчет будет завершен планировщиком
	Report            *SettlementReportResponse `json:"report,omitempty"`
}

type SettlementReportResponse struct {
	Won        int   `json:"won"`
	Lost       int   `json:"lost"`
	Skipped    int   `json:"skipped"`
	TotalStake int64 `json:"total_stake"`
	TotalPaid  int64 `json:"total_paid"`
}

type LocksResponse struct {
	RoundID string   `json:"round_id"`
	Singles []string `json:"singles"`
	Triples []string `json:"triples"`
}

type ExposureResponse struct {
	GameClass string `json:"game_class"`
	Number    string `json:"number"`
	Stake     int64  `json:"stake"`
	Count     int    `json:"count"`
}

type ClassTotalResponse struct {
	GameClass string `json:"game_class"`
	Stake     int64  `json:"stake"`
	Count     int    `json:"count"`
}

type LiabilityResponse struct {
	Space  string `json:"space"`
	Number string `json:"number"`
	Payout int64  `json:"payout"`
}

type StatsResponse struct {
	RoundID     string               `json:"round_id"`
	TotalStake  int64                `json:"total_stake"`
	WagerCount  int                  `json:"wager_count"`
	Totals      []ClassTotalResponse `json:"totals"`
	Exposure    []ExposureResponse   `json:"exposure"`
	Liabilities []LiabilityResponse  `json:"liabilities"`
}
