package lock

import (
	"context"
	"numbers_backend/internal/model"
	"numbers_backend/internal/numspace"

	"github.com/google/uuid"
)

// IsEligible Для тройки свободны должны быть и сама тройка, и ее редукция
func (s *serv) IsEligible(ctx context.Context, roundID uuid.UUID, space model.Space, number string) (bool, error) {
	set, err := s.ComputeLocks(ctx, roundID)
	if err != nil {
		return false, err
	}

	if space == model.SpaceSingle {
		return !set.Contains(model.SpaceSingle, number), nil
	}
	return blocker(set, number) == nil, nil
}

// CheckTriple Возвращает *model.NumberLockedError с уровнем, который блокирует тройку
func (s *serv) CheckTriple(ctx context.Context, roundID uuid.UUID, triple string) error {
	if !numspace.IsLegalTriple(triple) {
		return model.ErrInvalidSelection
	}

	set, err := s.ComputeLocks(ctx, roundID)
	if err != nil {
		return err
	}

	if locked := blocker(set, triple); locked != nil {
		return locked
	}
	return nil
}

func blocker(set model.LockSet, triple string) *model.NumberLockedError {
	if set.Contains(model.SpaceTriple, triple) {
		return &model.NumberLockedError{Level: model.SpaceTriple, Number: triple}
	}
	single, err := numspace.SingleOf(triple)
	if err != nil {
		return &model.NumberLockedError{Level: model.SpaceTriple, Number: triple}
	}
	if set.Contains(model.SpaceSingle, single) {
		return &model.NumberLockedError{Level: model.SpaceSingle, Number: single}
	}
	return nil
}
