// Package service реализует бизнес-логику витрины: каталог, скидки, учёт вместимости,
// журнал покупок и оформление заказа.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/storefront/internal/events"
	"github.com/mmeshcher/storefront/internal/metrics"
	"github.com/mmeshcher/storefront/internal/model"
)

// Repository описывает контракт хранилища записей, используемый сервисом.
type Repository interface {
	Close() error

	CreateEvent(ctx context.Context, p *model.Product, d *model.EventDetails) error
	CreateDigitalContent(ctx context.Context, p *model.Product, d *model.DigitalContentDetails) error
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	ListProducts(ctx context.Context, typ model.ProductType) ([]model.Product, error)
	UpdateProduct(ctx context.Context, p *model.Product) error
	DeleteProduct(ctx context.Context, id string) error
	GetEventDetails(ctx context.Context, productID string) (*model.EventDetails, error)
	UpdateEventDetails(ctx context.Context, d *model.EventDetails) error
	GetDigitalContentDetails(ctx context.Context, productID string) (*model.DigitalContentDetails, error)
	UpdateDigitalContentDetails(ctx context.Context, d *model.DigitalContentDetails) error

	CreateDiscountCode(ctx context.Context, d *model.DiscountCode) error
	GetDiscountCode(ctx context.Context, code string) (*model.DiscountCode, error)
	ListDiscountCodes(ctx context.Context) ([]model.DiscountCode, error)
	ToggleDiscountCode(ctx context.Context, id string) (*model.DiscountCode, error)

	CreatePurchase(ctx context.Context, p *model.Purchase) error
	FinalizePurchase(ctx context.Context, id string, status model.PaymentStatus, paymentDate *time.Time) (*model.Purchase, error)
	GetPurchase(ctx context.Context, id string) (*model.Purchase, error)
	ListPurchases(ctx context.Context) ([]model.Purchase, error)
	ListPurchasesByProduct(ctx context.Context, productID string) ([]model.Purchase, error)
	CountPurchases(ctx context.Context, productID string) (int, error)
	CountPendingBefore(ctx context.Context, before time.Time) (int, error)
}

// BlobStore описывает хранилище файлов цифровых материалов.
type BlobStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Download(ctx context.Context, key string) ([]byte, error)
	Remove(ctx context.Context, key string) error
}

// EventPublisher публикует события о покупках.
type EventPublisher interface {
	PublishPurchase(ctx context.Context, event events.PurchaseEvent) error
}

// defaultPublishTimeout ограничивает ожидание брокера при публикации события о покупке.
const defaultPublishTimeout = 2 * time.Second

// Deps содержит необязательные зависимости сервиса.
type Deps struct {
	Blobs             BlobStore
	Publisher         EventPublisher
	Metrics           *metrics.Collectors
	Logger            *zap.Logger
	AdminPasswordHash string
	PublicBaseURL     string
}

// Service содержит бизнес-логику витрины.
type Service struct {
	repo              Repository
	blobs             BlobStore
	publisher         EventPublisher
	metrics           *metrics.Collectors
	logger            *zap.Logger
	adminPasswordHash []byte
	publicBaseURL     string
	publishTimeout    time.Duration
	now               func() time.Time
}

// NewService создаёт сервис с указанным репозиторием и зависимостями.
func NewService(repo Repository, deps Deps) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	m := deps.Metrics
	if m == nil {
		m = metrics.New()
	}

	return &Service{
		repo:              repo,
		blobs:             deps.Blobs,
		publisher:         deps.Publisher,
		metrics:           m,
		logger:            logger,
		adminPasswordHash: []byte(deps.AdminPasswordHash),
		publicBaseURL:     strings.TrimRight(deps.PublicBaseURL, "/"),
		publishTimeout:    defaultPublishTimeout,
		now:               time.Now,
	}
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

func requireAdmin(p model.Principal) error {
	if !p.Admin {
		return model.ErrUnauthorized
	}
	return nil
}

func (s *Service) blobStore() (BlobStore, error) {
	if s.blobs == nil {
		return nil, fmt.Errorf("%w: blob store not configured", model.ErrStoreUnavailable)
	}
	return s.blobs, nil
}
