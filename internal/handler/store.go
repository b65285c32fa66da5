package handler

import (
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mmeshcher/storefront/internal/model"
	"github.com/mmeshcher/storefront/internal/service"
)

// ListProducts возвращает каталог. Параметр type ограничивает выборку видом товара.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	views, err := h.service.ListProducts(r.Context(), model.ProductType(r.URL.Query().Get("type")))
	if err != nil {
		h.writeError(w, "list products", err)
		return
	}

	resp := make([]productResponse, 0, len(views))
	for i := range views {
		resp = append(resp, toProductResponse(&views[i], false))
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetProduct возвращает карточку товара с остатком мест для событий.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	v, err := h.service.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, "get product", err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(v, false))
}

type discountRequest struct {
	Code string `json:"code"`
}

type quoteResponse struct {
	Code               string `json:"code"`
	DiscountPercentage int    `json:"discount_percentage"`
	OriginalPrice      int64  `json:"original_price"`
	FinalPrice         int64  `json:"final_price"`
	Applied            bool   `json:"applied"`
}

// ApplyDiscount рассчитывает цену товара с кодом скидки.
func (h *Handler) ApplyDiscount(w http.ResponseWriter, r *http.Request) {
	var req discountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		decodeFailed(w, err)
		return
	}

	q, err := h.service.QuoteDiscount(r.Context(), chi.URLParam(r, "id"), req.Code)
	if err != nil {
		h.writeError(w, "apply discount", err)
		return
	}

	writeJSON(w, http.StatusOK, quoteResponse{
		Code:               q.Code,
		DiscountPercentage: q.DiscountPercentage,
		OriginalPrice:      q.OriginalPrice,
		FinalPrice:         q.FinalPrice,
		Applied:            q.Applied,
	})
}

type checkoutRequest struct {
	ProductID     string  `json:"product_id"`
	ProductType   string  `json:"product_type"`
	Name          string  `json:"name"`
	Email         string  `json:"email"`
	Phone         *string `json:"phone"`
	Address       *string `json:"address"`
	PaymentMethod string  `json:"payment_method"`
	DiscountCode  string  `json:"discount_code"`
	ExpectedPrice *int64  `json:"expected_price"`
	CardNumber    string  `json:"card_number"`
}

type checkoutResponse struct {
	PurchaseID    string  `json:"purchase_id"`
	Status        string  `json:"status"`
	Verdict       string  `json:"verdict"`
	OriginalPrice int64   `json:"original_price"`
	FinalPrice    int64   `json:"final_price"`
	DiscountCode  *string `json:"discount_code,omitempty"`
}

// Checkout оформляет заказ. Отклонённая оплата не является ошибкой запроса:
// ответ 200 содержит статус failed.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := decodeJSON(w, r, &req); err != nil {
		decodeFailed(w, err)
		return
	}

	res, err := h.service.Checkout(r.Context(), service.CheckoutRequest{
		ProductID:     req.ProductID,
		ProductType:   model.ProductType(req.ProductType),
		BuyerName:     req.Name,
		BuyerEmail:    req.Email,
		BuyerPhone:    req.Phone,
		BuyerAddress:  req.Address,
		PaymentMethod: model.PaymentMethod(req.PaymentMethod),
		DiscountCode:  req.DiscountCode,
		ExpectedPrice: req.ExpectedPrice,
		CardNumber:    req.CardNumber,
	})
	if err != nil {
		h.writeError(w, "checkout", err)
		return
	}

	writeJSON(w, http.StatusOK, checkoutResponse{
		PurchaseID:    res.PurchaseID,
		Status:        string(res.Status),
		Verdict:       string(res.Verdict),
		OriginalPrice: res.Purchase.OriginalPrice,
		FinalPrice:    res.FinalPrice,
		DiscountCode:  res.Purchase.DiscountCode,
	})
}

type purchaseStatusResponse struct {
	ID            string     `json:"id"`
	ProductID     string     `json:"product_id"`
	OriginalPrice int64      `json:"original_price"`
	FinalPrice    int64      `json:"final_price"`
	DiscountCode  *string    `json:"discount_code,omitempty"`
	PaymentMethod string     `json:"payment_method"`
	PaymentStatus string     `json:"payment_status"`
	PaymentDate   *time.Time `json:"payment_date"`
	CreatedAt     time.Time  `json:"created_at"`
}

// PurchaseStatus возвращает состояние покупки для страниц результата оплаты.
// Данные покупателя в ответ не попадают.
func (h *Handler) PurchaseStatus(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetPurchase(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, "get purchase", err)
		return
	}

	writeJSON(w, http.StatusOK, purchaseStatusResponse{
		ID:            p.ID,
		ProductID:     p.ProductID,
		OriginalPrice: p.OriginalPrice,
		FinalPrice:    p.FinalPrice,
		DiscountCode:  p.DiscountCode,
		PaymentMethod: string(p.PaymentMethod),
		PaymentStatus: string(p.PaymentStatus),
		PaymentDate:   p.PaymentDate,
		CreatedAt:     p.CreatedAt,
	})
}

// DownloadContent отдаёт файл цифрового материала по оплаченной покупке.
func (h *Handler) DownloadContent(w http.ResponseWriter, r *http.Request) {
	name, data, err := h.service.DownloadContent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, "download content", err)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
