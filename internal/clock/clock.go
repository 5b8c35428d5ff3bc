// Package clock сопоставляет время слоту раунда и фазе внутри слота.
package clock

import (
	"errors"
	"fmt"
	"numbers_backend/internal/model"
	"time"
)

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func System() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now()
}

// Slot - временной слот раунда. Все интервалы полуоткрытые
type Slot struct {
	Date        string
	Label       string
	Start       time.Time
	End         time.Time
	BettingEnd  time.Time
	OperatorEnd time.Time
}

type Schedule struct {
	loc        *time.Location
	slot       time.Duration
	betting    time.Duration
	systemOnly time.Duration
}

// NewSchedule - расписание слотов от полуночи в часовом поясе loc.
// betting - длина окна ставок, systemOnly - финальное окно, где результат объявляет только система
func NewSchedule(loc *time.Location, slot, betting, systemOnly time.Duration) (*Schedule, error) {
	if loc == nil {
		return nil, errors.New("schedule location is required")
	}
	if slot <= 0 || (24*time.Hour)%slot != 0 {
		return nil, fmt.Errorf("slot length %s must divide 24h", slot)
	}
	if betting <= 0 || systemOnly <= 0 {
		return nil, errors.New("betting and system-only windows must be positive")
	}
	if betting+systemOnly >= slot {
		return nil, fmt.Errorf("betting %s plus system-only %s leaves no operator window in %s slot", betting, systemOnly, slot)
	}

	return &Schedule{loc: loc, slot: slot, betting: betting, systemOnly: systemOnly}, nil
}

// Resolve - слот, содержащий момент now. Чистая функция
func (s *Schedule) Resolve(now time.Time) Slot {
	local := now.In(s.loc)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.loc)
	idx := local.Sub(midnight) / s.slot
	start := midnight.Add(idx * s.slot)
	end := start.Add(s.slot)

	return Slot{
		Date:        start.Format(time.DateOnly),
		Label:       start.Format("15:04") + "-" + end.In(s.loc).Format("15:04"),
		Start:       start,
		End:         end,
		BettingEnd:  start.Add(s.betting),
		OperatorEnd: end.Add(-s.systemOnly),
	}
}

// SlotOf - слот, который начинается в start (например Round.SlotStart)
func (s *Schedule) SlotOf(start time.Time) Slot {
	return s.Resolve(start)
}

// PhaseAt - фаза слота в момент now, слот может быть уже прошедшим
func PhaseAt(slot Slot, now time.Time) model.Phase {
	switch {
	case now.Before(slot.Start):
		return model.PhaseClosed
	case now.Before(slot.BettingEnd):
		return model.PhaseBetting
	case now.Before(slot.OperatorEnd):
		return model.PhaseOperatorDeclare
	case now.Before(slot.End):
		return model.PhaseSystemOnly
	default:
		return model.PhaseClosed
	}
}

func (s *Schedule) Location() *time.Location {
	return s.loc
}

func (s *Schedule) SlotLength() time.Duration {
	return s.slot
}
