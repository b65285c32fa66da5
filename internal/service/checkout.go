package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mmeshcher/storefront/internal/model"
	"github.com/mmeshcher/storefront/internal/payment"
	"github.com/mmeshcher/storefront/internal/pricing"
	"github.com/mmeshcher/storefront/internal/validation"
)

// CheckoutRequest содержит данные покупателя для оформления заказа.
type CheckoutRequest struct {
	ProductID     string
	ProductType   model.ProductType
	BuyerName     string
	BuyerEmail    string
	BuyerPhone    *string
	BuyerAddress  *string
	PaymentMethod model.PaymentMethod
	DiscountCode  string
	// ExpectedPrice содержит цену, которую видел покупатель. Используется только для сверки.
	ExpectedPrice *int64
	CardNumber    string
}

// CheckoutResult содержит итог оформления заказа.
type CheckoutResult struct {
	PurchaseID string
	Status     model.PaymentStatus
	FinalPrice int64
	Verdict    model.Verdict
	Purchase   *model.Purchase
}

// FinalizeError сообщает, что покупка создана, но не была переведена в терминальный статус.
// Покупка остаётся в pending и требует ручной сверки.
type FinalizeError struct {
	PurchaseID string
	Err        error
}

func (e *FinalizeError) Error() string {
	return fmt.Sprintf("finalize purchase %s: %v", e.PurchaseID, e.Err)
}

func (e *FinalizeError) Unwrap() error {
	return e.Err
}

// Checkout оформляет заказ: проверяет ввод, пересчитывает цену на сервере, создаёт
// покупку в pending, получает решение платёжного симулятора и переводит покупку
// в терминальный статус. Любая ошибка до создания покупки не оставляет записей.
func (s *Service) Checkout(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	if err := validateCheckout(req); err != nil {
		s.metrics.Checkouts.WithLabelValues("rejected").Inc()
		return nil, err
	}

	product, err := s.repo.GetProduct(ctx, req.ProductID)
	if err != nil {
		s.metrics.Checkouts.WithLabelValues("rejected").Inc()
		return nil, err
	}
	if product.Type != req.ProductType {
		s.metrics.Checkouts.WithLabelValues("rejected").Inc()
		return nil, fmt.Errorf("%w: product %s is %s, not %s", model.ErrValidation, product.ID, product.Type, req.ProductType)
	}

	finalPrice, code, err := s.priceFor(ctx, product, req.DiscountCode)
	if err != nil {
		s.metrics.Checkouts.WithLabelValues("rejected").Inc()
		return nil, err
	}

	if req.ExpectedPrice != nil && *req.ExpectedPrice != finalPrice {
		s.metrics.Checkouts.WithLabelValues("rejected").Inc()
		return nil, fmt.Errorf("%w: price changed from %d to %d", model.ErrValidation, *req.ExpectedPrice, finalPrice)
	}

	if product.Type == model.ProductTypeEvent {
		remaining, err := s.EventCapacity(ctx, product.ID)
		if err != nil {
			s.metrics.Checkouts.WithLabelValues("rejected").Inc()
			return nil, err
		}
		if !remaining.Available() {
			s.metrics.Checkouts.WithLabelValues("rejected").Inc()
			s.metrics.CapacityRejections.Inc()
			return nil, fmt.Errorf("%w: product %s", model.ErrCapacityExceeded, product.ID)
		}
	}

	pending, err := s.CreatePurchase(ctx, NewPurchase{
		ProductID:       product.ID,
		CustomerName:    req.BuyerName,
		CustomerEmail:   req.BuyerEmail,
		CustomerPhone:   req.BuyerPhone,
		CustomerAddress: req.BuyerAddress,
		OriginalPrice:   product.Price,
		FinalPrice:      finalPrice,
		DiscountCode:    code,
		PaymentMethod:   req.PaymentMethod,
	})
	if err != nil {
		s.metrics.Checkouts.WithLabelValues("rejected").Inc()
		return nil, err
	}

	verdict := payment.Evaluate(pending.FinalPrice, pending.PaymentMethod)

	final, err := s.FinalizePurchase(ctx, pending.ID, verdict.Status())
	if err != nil {
		s.metrics.Checkouts.WithLabelValues("finalize_error").Inc()
		s.logger.Error("finalize purchase error",
			zap.Error(err),
			zap.String("purchaseID", pending.ID),
			zap.String("verdict", string(verdict)),
		)
		return nil, &FinalizeError{PurchaseID: pending.ID, Err: err}
	}

	s.metrics.Checkouts.WithLabelValues(string(final.PaymentStatus)).Inc()
	s.logger.Info("checkout finished",
		zap.String("purchaseID", final.ID),
		zap.String("productID", product.ID),
		zap.String("status", string(final.PaymentStatus)),
		zap.Int64("finalPrice", final.FinalPrice),
	)

	return &CheckoutResult{
		PurchaseID: final.ID,
		Status:     final.PaymentStatus,
		FinalPrice: final.FinalPrice,
		Verdict:    verdict,
		Purchase:   final,
	}, nil
}

// priceFor вычисляет итоговую цену по канонической цене товара. Возвращает код скидки,
// который нужно записать в покупку, или nil, если скидка не применялась.
func (s *Service) priceFor(ctx context.Context, product *model.Product, rawCode string) (int64, *string, error) {
	if strings.TrimSpace(rawCode) == "" {
		return product.Price, nil, nil
	}

	dc, err := s.ResolveDiscount(ctx, rawCode)
	if err != nil {
		return 0, nil, err
	}

	if !dc.Active {
		s.logger.Info("inactive discount code ignored", zap.String("code", dc.Code), zap.String("productID", product.ID))
		return product.Price, nil, nil
	}

	code := dc.Code
	return pricing.ApplyDiscount(product.Price, dc.DiscountPercentage), &code, nil
}

func validateCheckout(req CheckoutRequest) error {
	if strings.TrimSpace(req.ProductID) == "" {
		return fmt.Errorf("%w: product id is required", model.ErrValidation)
	}
	if !req.ProductType.Valid() {
		return fmt.Errorf("%w: unknown product type %q", model.ErrValidation, req.ProductType)
	}
	if !req.PaymentMethod.Valid() {
		return fmt.Errorf("%w: unknown payment method %q", model.ErrValidation, req.PaymentMethod)
	}
	if err := validation.Buyer(req.BuyerName, req.BuyerEmail, trimOptional(req.BuyerPhone), trimOptional(req.BuyerAddress)); err != nil {
		return err
	}
	if req.PaymentMethod == model.PaymentMethodCard && req.CardNumber != "" && !validation.IsValidCardNumber(req.CardNumber) {
		return fmt.Errorf("%w: card number is invalid", model.ErrValidation)
	}
	return nil
}

// IsBusinessError сообщает, что ошибка вызвана вводом или состоянием данных, а не сбоем хранилища.
func IsBusinessError(err error) bool {
	return errors.Is(err, model.ErrValidation) ||
		errors.Is(err, model.ErrNotFound) ||
		errors.Is(err, model.ErrInvalidCode) ||
		errors.Is(err, model.ErrCapacityExceeded) ||
		errors.Is(err, model.ErrInvalidTransition) ||
		errors.Is(err, model.ErrConflict) ||
		errors.Is(err, model.ErrUnauthorized)
}
