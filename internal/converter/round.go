package converter

import (
	"numbers_backend/internal/api/dto/round"
	"numbers_backend/internal/model"
)

func ToCurrentRoundResponse(cur model.CurrentRound) round.CurrentRoundResponse {
	return round.CurrentRoundResponse{
		ID:                  cur.Round.ID.String(),
		GameDate:            cur.Round.GameDate,
		SlotLabel:           cur.Round.SlotLabel,
		Status:              string(cur.Round.Status),
		Phase:               string(cur.Phase),
		BettingEndsAt:       cur.BettingEndsAt,
		OperatorEndsAt:      cur.OperatorEndsAt,
		SlotEndsAt:          cur.SlotEndsAt,
		BettingRemainingSec: int64(cur.BettingRemaining.Seconds()),
		DeclareRemainingSec: int64(cur.DeclareRemaining.Seconds()),
		Result:              toResult(cur.Round.Result),
	}
}

func toResult(r *model.RoundResult) *round.ResultResponse {
	if r == nil {
		return nil
	}
	return &round.ResultResponse{
		Triple:     r.Triple,
		Single:     r.Single,
		DeclaredAt: r.DeclaredAt,
		DeclaredBy: r.DeclaredBy,
	}
}

func ToDeclarationResponse(d model.Declaration) round.DeclarationResponse {
	res := round.DeclarationResponse{
		RoundID:           d.RoundID.String(),
		Triple:            d.Triple,
		Single:            d.Single,
		DeclaredBy:        d.DeclaredBy,
		Queued:            d.Queued,
		SettlementPending: d.SettlementPending,
	}
	if d.Report != nil {
		res.Report = &round.SettlementReportResponse{
			Won:        d.Report.Won,
			Lost:       d.Report.Lost,
			Skipped:    d.Report.Skipped,
			TotalStake: d.Report.TotalStake,
			TotalPaid:  d.Report.TotalPaid,
		}
	}
	return res
}

func ToLocksResponse(roundID string, set model.LockSet) round.LocksResponse {
	res := round.LocksResponse{RoundID: roundID, Singles: set.Singles, Triples: set.Triples}
	if res.Singles == nil {
		res.Singles = []string{}
	}
	if res.Triples == nil {
		res.Triples = []string{}
	}
	return res
}

func ToStatsResponse(st model.RoundStatistics) round.StatsResponse {
	res := round.StatsResponse{
		RoundID:     st.RoundID.String(),
		TotalStake:  st.TotalStake,
		WagerCount:  st.WagerCount,
		Totals:      make([]round.ClassTotalResponse, len(st.Totals)),
		Exposure:    make([]round.ExposureResponse, len(st.Exposure)),
		Liabilities: make([]round.LiabilityResponse, len(st.Liabilities)),
	}
	for i, t := range st.Totals {
		res.Totals[i] = round.ClassTotalResponse{GameClass: string(t.GameClass), Stake: t.Stake, Count: t.Count}
	}
	for i, e := range st.Exposure {
		res.Exposure[i] = round.ExposureResponse{GameClass: string(e.GameClass), Number: e.Number, Stake: e.Stake, Count: e.Count}
	}
	for i, l := range st.Liabilities {
		res.Liabilities[i] = round.LiabilityResponse{Space: string(l.Space), Number: l.Number, Payout: l.Payout}
	}
	return res
}
