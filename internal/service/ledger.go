package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mmeshcher/storefront/internal/events"
	"github.com/mmeshcher/storefront/internal/model"
)

// NewPurchase содержит данные для создания записи о покупке.
type NewPurchase struct {
	ProductID       string
	CustomerName    string
	CustomerEmail   string
	CustomerPhone   *string
	CustomerAddress *string
	OriginalPrice   int64
	FinalPrice      int64
	DiscountCode    *string
	PaymentMethod   model.PaymentMethod
}

// CreatePurchase создаёт покупку в статусе pending. Цены и данные покупателя
// фиксируются в момент создания.
func (s *Service) CreatePurchase(ctx context.Context, in NewPurchase) (*model.Purchase, error) {
	if in.FinalPrice < 0 || in.FinalPrice > in.OriginalPrice {
		return nil, fmt.Errorf("%w: final price %d outside [0, %d]", model.ErrValidation, in.FinalPrice, in.OriginalPrice)
	}
	if !in.PaymentMethod.Valid() {
		return nil, fmt.Errorf("%w: unknown payment method %q", model.ErrValidation, in.PaymentMethod)
	}
	if strings.TrimSpace(in.ProductID) == "" {
		return nil, fmt.Errorf("%w: product id is required", model.ErrValidation)
	}

	p := &model.Purchase{
		ProductID:       in.ProductID,
		CustomerName:    strings.TrimSpace(in.CustomerName),
		CustomerEmail:   strings.TrimSpace(in.CustomerEmail),
		CustomerPhone:   trimOptional(in.CustomerPhone),
		CustomerAddress: trimOptional(in.CustomerAddress),
		OriginalPrice:   in.OriginalPrice,
		FinalPrice:      in.FinalPrice,
		DiscountCode:    in.DiscountCode,
		PaymentMethod:   in.PaymentMethod,
		PaymentStatus:   model.PaymentStatusPending,
	}

	if err := s.repo.CreatePurchase(ctx, p); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, fmt.Errorf("%w: %w", model.ErrValidation, err)
		}
		if errors.Is(err, model.ErrCapacityExceeded) {
			s.metrics.CapacityRejections.Inc()
		}
		return nil, err
	}
	return p, nil
}

// FinalizePurchase переводит покупку из pending в completed или failed.
// Дата оплаты проставляется только для completed. Повторное завершение
// возвращает ErrInvalidTransition и не меняет запись.
func (s *Service) FinalizePurchase(ctx context.Context, id string, status model.PaymentStatus) (*model.Purchase, error) {
	if !status.Terminal() {
		return nil, fmt.Errorf("%w: %q is not a terminal status", model.ErrValidation, status)
	}

	now := s.now().UTC()
	var paymentDate = &now
	if status != model.PaymentStatusCompleted {
		paymentDate = nil
	}

	p, err := s.repo.FinalizePurchase(ctx, id, status, paymentDate)
	if err != nil {
		return nil, err
	}

	if p.PaymentStatus == model.PaymentStatusCompleted {
		s.metrics.Revenue.Add(float64(p.FinalPrice))
	}
	s.publish(ctx, p)

	return p, nil
}

func (s *Service) publish(ctx context.Context, p *model.Purchase) {
	if s.publisher == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, s.publishTimeout)
	defer cancel()

	if err := s.publisher.PublishPurchase(ctx, events.NewPurchaseEvent(p, s.now())); err != nil {
		s.logger.Error("publish purchase event error", zap.Error(err), zap.String("purchaseID", p.ID))
	}
}

// GetPurchase возвращает покупку по идентификатору.
func (s *Service) GetPurchase(ctx context.Context, id string) (*model.Purchase, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: purchase id is required", model.ErrValidation)
	}
	return s.repo.GetPurchase(ctx, id)
}

// ListPurchases возвращает все покупки, начиная с самых новых.
func (s *Service) ListPurchases(ctx context.Context) ([]model.Purchase, error) {
	return s.repo.ListPurchases(ctx)
}

// ListPurchasesByProduct возвращает покупки товара, начиная с самых новых.
func (s *Service) ListPurchasesByProduct(ctx context.Context, productID string) ([]model.Purchase, error) {
	return s.repo.ListPurchasesByProduct(ctx, productID)
}

// Revenue считает выручку по завершённым покупкам.
func Revenue(purchases []model.Purchase) model.Revenue {
	r := model.Revenue{Purchases: len(purchases)}
	for _, p := range purchases {
		if p.PaymentStatus == model.PaymentStatusCompleted {
			r.Total += p.FinalPrice
			r.Completed++
		}
	}
	return r
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
