package service

import (
	"context"

	"github.com/mmeshcher/storefront/internal/model"
)

// RemainingCapacity возвращает число свободных мест на событии. Места занимают все
// покупки товара независимо от статуса оплаты. Без ограничения вместимости
// возвращается Unlimited.
func (s *Service) RemainingCapacity(ctx context.Context, productID string, capacity *int) (model.Remaining, error) {
	if capacity == nil {
		return model.Unlimited(), nil
	}

	taken, err := s.repo.CountPurchases(ctx, productID)
	if err != nil {
		return model.Remaining{}, err
	}

	left := *capacity - taken
	if left < 0 {
		left = 0
	}
	return model.Remaining{Seats: left}, nil
}

// EventCapacity загружает параметры события и возвращает остаток мест.
func (s *Service) EventCapacity(ctx context.Context, productID string) (model.Remaining, error) {
	details, err := s.repo.GetEventDetails(ctx, productID)
	if err != nil {
		return model.Remaining{}, err
	}
	return s.RemainingCapacity(ctx, productID, details.Capacity)
}
