package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/mmeshcher/storefront/internal/model"
	"github.com/mmeshcher/storefront/internal/pricing"
	"github.com/mmeshcher/storefront/internal/validation"
)

// ResolveDiscount ищет код скидки. Ввод нормализуется так же, как при создании кода.
// Флаг активности не проверяется: это решение остаётся за вызывающим.
func (s *Service) ResolveDiscount(ctx context.Context, code string) (*model.DiscountCode, error) {
	normalized := validation.NormalizeCode(code)
	if normalized == "" {
		return nil, fmt.Errorf("%w: empty code", model.ErrInvalidCode)
	}

	dc, err := s.repo.GetDiscountCode(ctx, normalized)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", model.ErrInvalidCode, normalized)
		}
		return nil, err
	}
	return dc, nil
}

// Quote описывает цену товара с учётом кода скидки.
type Quote struct {
	Code               string
	DiscountPercentage int
	OriginalPrice      int64
	FinalPrice         int64
	Applied            bool
}

// QuoteDiscount рассчитывает цену товара с кодом скидки. Неактивный код не даёт скидки,
// но и не считается ошибкой.
func (s *Service) QuoteDiscount(ctx context.Context, productID, code string) (*Quote, error) {
	product, err := s.repo.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	dc, err := s.ResolveDiscount(ctx, code)
	if err != nil {
		return nil, err
	}

	q := &Quote{
		Code:               dc.Code,
		DiscountPercentage: dc.DiscountPercentage,
		OriginalPrice:      product.Price,
		FinalPrice:         product.Price,
	}
	if dc.Active {
		q.FinalPrice = pricing.ApplyDiscount(product.Price, dc.DiscountPercentage)
		q.Applied = true
	}
	return q, nil
}

// CreateDiscountCode создаёт активный код скидки.
func (s *Service) CreateDiscountCode(ctx context.Context, p model.Principal, code string, percentage int) (*model.DiscountCode, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}

	normalized, err := validation.DiscountCode(code, percentage)
	if err != nil {
		return nil, err
	}

	dc := &model.DiscountCode{
		Code:               normalized,
		DiscountPercentage: percentage,
		Active:             true,
	}
	if err := s.repo.CreateDiscountCode(ctx, dc); err != nil {
		return nil, err
	}
	return dc, nil
}

// ListDiscountCodes возвращает все коды скидок.
func (s *Service) ListDiscountCodes(ctx context.Context, p model.Principal) ([]model.DiscountCode, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	return s.repo.ListDiscountCodes(ctx)
}

// ToggleDiscountCode включает или выключает код скидки.
func (s *Service) ToggleDiscountCode(ctx context.Context, p model.Principal, id string) (*model.DiscountCode, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	return s.repo.ToggleDiscountCode(ctx, id)
}
