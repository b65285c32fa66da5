package service

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmeshcher/storefront/internal/model"
	"github.com/mmeshcher/storefront/internal/validation"
)

// AdminSubject задаёт субъект, под которым работает администратор магазина.
const AdminSubject = "admin"

// AuthenticateAdmin проверяет пароль администратора по bcrypt-хэшу из конфигурации.
func (s *Service) AuthenticateAdmin(password string) (model.Principal, error) {
	if len(s.adminPasswordHash) == 0 || password == "" {
		return model.Principal{}, model.ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword(s.adminPasswordHash, []byte(password)); err != nil {
		return model.Principal{}, model.ErrUnauthorized
	}
	return model.Principal{Subject: AdminSubject, Admin: true}, nil
}

// ClientRegistration содержит данные клиента, регистрируемого администратором вручную.
type ClientRegistration struct {
	Name    string
	Email   string
	Phone   *string
	Address *string
}

// Registration содержит созданную покупку и ссылку на оплату для клиента.
type Registration struct {
	Purchase    *model.Purchase
	PaymentLink string
}

// RegisterClient регистрирует клиента на товар: создаёт покупку в pending с оплатой
// наличными по полной цене и формирует ссылку на оплату.
func (s *Service) RegisterClient(ctx context.Context, p model.Principal, productID string, in ClientRegistration) (*Registration, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	if err := validation.Buyer(in.Name, in.Email, trimOptional(in.Phone), trimOptional(in.Address)); err != nil {
		return nil, err
	}

	product, err := s.repo.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	if product.Type == model.ProductTypeEvent {
		remaining, err := s.EventCapacity(ctx, product.ID)
		if err != nil {
			return nil, err
		}
		if !remaining.Available() {
			s.metrics.CapacityRejections.Inc()
			return nil, fmt.Errorf("%w: product %s", model.ErrCapacityExceeded, product.ID)
		}
	}

	purchase, err := s.CreatePurchase(ctx, NewPurchase{
		ProductID:       product.ID,
		CustomerName:    in.Name,
		CustomerEmail:   in.Email,
		CustomerPhone:   in.Phone,
		CustomerAddress: in.Address,
		OriginalPrice:   product.Price,
		FinalPrice:      product.Price,
		PaymentMethod:   model.PaymentMethodCash,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("client registered",
		zap.String("purchaseID", purchase.ID),
		zap.String("productID", product.ID),
		zap.String("by", p.Subject),
	)

	return &Registration{
		Purchase:    purchase,
		PaymentLink: s.paymentLink(product, purchase),
	}, nil
}

func (s *Service) paymentLink(product *model.Product, purchase *model.Purchase) string {
	q := url.Values{}
	q.Set("productId", product.ID)
	q.Set("productType", string(product.Type))
	q.Set("originalPrice", strconv.FormatInt(purchase.OriginalPrice, 10))
	q.Set("purchaseId", purchase.ID)
	return s.publicBaseURL + "/payment?" + q.Encode()
}

// Sales содержит покупки и сводку выручки по ним.
type Sales struct {
	Product   *model.Product
	Purchases []model.Purchase
	Revenue   model.Revenue
}

// AdminPurchases возвращает все покупки со сводкой выручки.
func (s *Service) AdminPurchases(ctx context.Context, p model.Principal) (*Sales, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}

	purchases, err := s.ListPurchases(ctx)
	if err != nil {
		return nil, err
	}
	return &Sales{Purchases: purchases, Revenue: Revenue(purchases)}, nil
}

// AdminProductPurchases возвращает покупки товара со сводкой выручки.
func (s *Service) AdminProductPurchases(ctx context.Context, p model.Principal, productID string) (*Sales, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}

	product, err := s.repo.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	purchases, err := s.ListPurchasesByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	return &Sales{Product: product, Purchases: purchases, Revenue: Revenue(purchases)}, nil
}

// AdminCapacity возвращает остаток мест события.
func (s *Service) AdminCapacity(ctx context.Context, p model.Principal, productID string) (*model.EventDetails, model.Remaining, error) {
	if err := requireAdmin(p); err != nil {
		return nil, model.Remaining{}, err
	}

	details, err := s.repo.GetEventDetails(ctx, productID)
	if err != nil {
		return nil, model.Remaining{}, err
	}
	remaining, err := s.RemainingCapacity(ctx, productID, details.Capacity)
	if err != nil {
		return nil, model.Remaining{}, err
	}
	return details, remaining, nil
}

// AdminFinalize вручную завершает покупку в pending, например после получения оплаты наличными.
func (s *Service) AdminFinalize(ctx context.Context, p model.Principal, purchaseID string, status model.PaymentStatus) (*model.Purchase, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}

	purchase, err := s.FinalizePurchase(ctx, purchaseID, status)
	if err != nil {
		return nil, err
	}

	s.logger.Info("purchase finalized manually",
		zap.String("purchaseID", purchase.ID),
		zap.String("status", string(purchase.PaymentStatus)),
		zap.String("by", p.Subject),
	)
	return purchase, nil
}
