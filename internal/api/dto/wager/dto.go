package wager

import "time"

type PlaceWagerRequest struct {
	RoundID   string `json:"round_id,omitempty"` // Пусто - текущий раунд
	GameClass string `json:"game_class"`         // single, single_panna, double_panna, triple_panna
	Number    string `json:"number"`
	Stake     int64  `json:"stake"` // В минимальных единицах
}

type WagerResponse struct {
	ID        string     `json:"id"`
	RoundID   string     `json:"round_id"`
	GameClass string     `json:"game_class"`
	Number    string     `json:"number"`
	Stake     int64      `json:"stake"`
	Status    string     `json:"status"`
	WinAmount int64      `json:"win_amount"`
	SlotLabel string     `json:"slot_label"`
	CreatedAt time.Time  `json:"created_at"`
	SettledAt *time.Time `json:"settled_at,omitempty"`
}

type PlaceWagerResponse struct {
	Wager   WagerResponse `json:"wager"`
	Balance int64         `json:"balance"` // Баланс после списания
}

type ListWagersResponse struct {
	Wagers []WagerResponse `json:"wagers"`
}
