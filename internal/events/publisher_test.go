package events

import (
	"numbers_backend/internal/model"
	"testing"

	"github.com/google/uuid"
)

func TestSubjectAndMsgID(t *testing.T) {
	id := uuid.MustParse("6f1c0c3e-7b61-4b1e-9a55-0b1d2b7f0a01")
	evt := model.RoundEvent{Type: model.EventRoundSettled, RoundID: id}

	if got := Subject(evt.Type); got != "numbers.rounds.settled" {
		t.Errorf("Subject = %s", got)
	}
	if got := MsgID(evt); got != id.String()+":settled" {
		t.Errorf("MsgID = %s", got)
	}
}
