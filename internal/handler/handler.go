// Package handler содержит HTTP-обработчики API витрины.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/mmeshcher/storefront/internal/middleware"
	"github.com/mmeshcher/storefront/internal/model"
	"github.com/mmeshcher/storefront/internal/service"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	ListProducts(ctx context.Context, typ model.ProductType) ([]service.ProductView, error)
	GetProduct(ctx context.Context, id string) (*service.ProductView, error)
	QuoteDiscount(ctx context.Context, productID, code string) (*service.Quote, error)
	Checkout(ctx context.Context, req service.CheckoutRequest) (*service.CheckoutResult, error)
	DownloadContent(ctx context.Context, purchaseID string) (string, []byte, error)
	GetPurchase(ctx context.Context, id string) (*model.Purchase, error)

	AuthenticateAdmin(password string) (model.Principal, error)
	CreateEvent(ctx context.Context, p model.Principal, in service.NewEvent) (*service.ProductView, error)
	CreateDigitalContent(ctx context.Context, p model.Principal, in service.NewDigitalContent) (*service.ProductView, error)
	UpdateProduct(ctx context.Context, p model.Principal, id string, patch service.ProductPatch) (*service.ProductView, error)
	UpdateEvent(ctx context.Context, p model.Principal, id string, details model.EventDetails) (*service.ProductView, error)
	ReplaceContentFile(ctx context.Context, p model.Principal, id string, file service.Upload) (*service.ProductView, error)
	DeleteProduct(ctx context.Context, p model.Principal, id string) error
	AdminCapacity(ctx context.Context, p model.Principal, productID string) (*model.EventDetails, model.Remaining, error)
	RegisterClient(ctx context.Context, p model.Principal, productID string, in service.ClientRegistration) (*service.Registration, error)
	AdminProductPurchases(ctx context.Context, p model.Principal, productID string) (*service.Sales, error)
	AdminPurchases(ctx context.Context, p model.Principal) (*service.Sales, error)
	AdminFinalize(ctx context.Context, p model.Principal, purchaseID string, status model.PaymentStatus) (*model.Purchase, error)
	CreateDiscountCode(ctx context.Context, p model.Principal, code string, percentage int) (*model.DiscountCode, error)
	ListDiscountCodes(ctx context.Context, p model.Principal) ([]model.DiscountCode, error)
	ToggleDiscountCode(ctx context.Context, p model.Principal, id string) (*model.DiscountCode, error)
}

// Handler реализует HTTP-обработчики API витрины.
type Handler struct {
	service        Service
	logger         *zap.Logger
	authMiddleware *middleware.AuthMiddleware
	limiter        *middleware.RateLimiter
	metrics        http.Handler
}

// Option настраивает необязательные части обработчика.
type Option func(*Handler)

// WithRateLimiter ограничивает частоту запросов оформления заказа.
func WithRateLimiter(l *middleware.RateLimiter) Option {
	return func(h *Handler) { h.limiter = l }
}

// WithMetrics публикует метрики по адресу /metrics.
func WithMetrics(m http.Handler) Option {
	return func(h *Handler) { h.metrics = m }
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger, auth *middleware.AuthMiddleware, opts ...Option) *Handler {
	h := &Handler{
		service:        s,
		logger:         logger,
		authMiddleware: auth,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type errorResponse struct {
	Error      string `json:"error"`
	PurchaseID string `json:"purchase_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// maxJSONBody ограничивает размер JSON-тела запроса после распаковки.
const maxJSONBody = 64 << 10

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// statusFor сопоставляет ошибку бизнес-логики с кодом ответа.
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrValidation), errors.Is(err, model.ErrInvalidCode):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrCapacityExceeded),
		errors.Is(err, model.ErrInvalidTransition),
		errors.Is(err, model.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, model.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError пишет ответ об ошибке. Сбои хранилища логируются, их текст клиенту не отдаётся.
func (h *Handler) writeError(w http.ResponseWriter, op string, err error) {
	var fe *service.FinalizeError
	if errors.As(err, &fe) {
		h.logger.Error(op+" error", zap.Error(err), zap.String("purchaseID", fe.PurchaseID))
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error:      "payment recorded but purchase could not be finalized",
			PurchaseID: fe.PurchaseID,
		})
		return
	}

	status := statusFor(err)
	if !service.IsBusinessError(err) {
		h.logger.Error(op+" error", zap.Error(err))
		writeJSON(w, status, errorResponse{Error: http.StatusText(status)})
		return
	}

	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func decodeFailed(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "request body too large"})
		return
	}
	badRequest(w, "malformed request body")
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}

func principal(r *http.Request) model.Principal {
	p, _ := middleware.PrincipalFromContext(r.Context())
	return p
}
