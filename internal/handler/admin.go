package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mmeshcher/storefront/internal/model"
	"github.com/mmeshcher/storefront/internal/service"
)

const maxUploadSize = 64 << 20

type loginRequest struct {
	Password string `json:"password"`
}

// Login проверяет пароль администратора и устанавливает cookie.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		decodeFailed(w, err)
		return
	}

	p, err := h.service.AuthenticateAdmin(req.Password)
	if err != nil {
		h.writeError(w, "admin login", err)
		return
	}

	h.authMiddleware.SetAuthCookie(w, p.Subject)
	w.WriteHeader(http.StatusOK)
}

// Logout удаляет cookie администратора.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.authMiddleware.ClearAuthCookie(w)
	w.WriteHeader(http.StatusOK)
}

// AdminListProducts возвращает каталог вместе с адресами файлов.
func (h *Handler) AdminListProducts(w http.ResponseWriter, r *http.Request) {
	views, err := h.service.ListProducts(r.Context(), model.ProductType(r.URL.Query().Get("type")))
	if err != nil {
		h.writeError(w, "admin list products", err)
		return
	}

	resp := make([]productResponse, 0, len(views))
	for i := range views {
		resp = append(resp, toProductResponse(&views[i], true))
	}
	writeJSON(w, http.StatusOK, resp)
}

// AdminGetProduct возвращает карточку товара вместе с адресом файла.
func (h *Handler) AdminGetProduct(w http.ResponseWriter, r *http.Request) {
	v, err := h.service.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, "admin get product", err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(v, true))
}

type createEventRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Price       int64   `json:"price"`
	eventDetailsRequest
}

// CreateEvent создаёт событие.
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req createEventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		decodeFailed(w, err)
		return
	}

	v, err := h.service.CreateEvent(r.Context(), principal(r), service.NewEvent{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Details:     req.toModel(),
	})
	if err != nil {
		h.writeError(w, "create event", err)
		return
	}
	writeJSON(w, http.StatusCreated, toProductResponse(v, true))
}

// CreateDigitalContent создаёт цифровой материал из multipart-формы с полями
// title, description, price и файлом file.
func (h *Handler) CreateDigitalContent(w http.ResponseWriter, r *http.Request) {
	file, err := readUpload(w, r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	price, err := strconv.ParseInt(strings.TrimSpace(r.FormValue("price")), 10, 64)
	if err != nil {
		badRequest(w, "price must be an integer")
		return
	}

	var description *string
	if d := r.FormValue("description"); d != "" {
		description = &d
	}

	v, err := h.service.CreateDigitalContent(r.Context(), principal(r), service.NewDigitalContent{
		Title:       r.FormValue("title"),
		Description: description,
		Price:       price,
		File:        file,
	})
	if err != nil {
		h.writeError(w, "create digital content", err)
		return
	}
	writeJSON(w, http.StatusCreated, toProductResponse(v, true))
}

func readUpload(w http.ResponseWriter, r *http.Request) (service.Upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		return service.Upload{}, errors.New("malformed multipart form")
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		return service.Upload{}, errors.New("file is required")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return service.Upload{}, errors.New("read file")
	}

	return service.Upload{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

type updateProductRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Price       *int64  `json:"price"`
}

// UpdateProduct изменяет название, описание или цену товара.
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req updateProductRequest
	if err := decodeJSON(w, r, &req); err != nil {
		decodeFailed(w, err)
		return
	}

	v, err := h.service.UpdateProduct(r.Context(), principal(r), chi.URLParam(r, "id"), service.ProductPatch{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
	})
	if err != nil {
		h.writeError(w, "update product", err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(v, true))
}

// UpdateEvent заменяет параметры события.
func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	var req eventDetailsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		decodeFailed(w, err)
		return
	}

	v, err := h.service.UpdateEvent(r.Context(), principal(r), chi.URLParam(r, "id"), req.toModel())
	if err != nil {
		h.writeError(w, "update event", err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(v, true))
}

// ReplaceContentFile заменяет файл цифрового материала.
func (h *Handler) ReplaceContentFile(w http.ResponseWriter, r *http.Request) {
	file, err := readUpload(w, r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	v, err := h.service.ReplaceContentFile(r.Context(), principal(r), chi.URLParam(r, "id"), file)
	if err != nil {
		h.writeError(w, "replace content file", err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(v, true))
}

// DeleteProduct удаляет товар.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteProduct(r.Context(), principal(r), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, "delete product", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type capacityResponse struct {
	Capacity       *int `json:"capacity"`
	RemainingSeats *int `json:"remaining_seats"`
	Unlimited      bool `json:"unlimited"`
}

// GetCapacity возвращает вместимость события и остаток мест.
func (h *Handler) GetCapacity(w http.ResponseWriter, r *http.Request) {
	details, remaining, err := h.service.AdminCapacity(r.Context(), principal(r), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, "get capacity", err)
		return
	}

	writeJSON(w, http.StatusOK, capacityResponse{
		Capacity:       details.Capacity,
		RemainingSeats: remainingSeats(&remaining),
		Unlimited:      remaining.Unlimited,
	})
}

type registerClientRequest struct {
	Name    string  `json:"name"`
	Email   string  `json:"email"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
}

type registrationResponse struct {
	Purchase    purchaseResponse `json:"purchase"`
	PaymentLink string           `json:"payment_link"`
}

// RegisterClient регистрирует клиента на товар и возвращает ссылку на оплату.
func (h *Handler) RegisterClient(w http.ResponseWriter, r *http.Request) {
	var req registerClientRequest
	if err := decodeJSON(w, r, &req); err != nil {
		decodeFailed(w, err)
		return
	}

	reg, err := h.service.RegisterClient(r.Context(), principal(r), chi.URLParam(r, "id"), service.ClientRegistration{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
	})
	if err != nil {
		h.writeError(w, "register client", err)
		return
	}

	writeJSON(w, http.StatusCreated, registrationResponse{
		Purchase:    toPurchaseResponse(reg.Purchase),
		PaymentLink: reg.PaymentLink,
	})
}

type salesResponse struct {
	Product   *productSummary    `json:"product,omitempty"`
	Purchases []purchaseResponse `json:"purchases"`
	Revenue   model.Revenue      `json:"revenue"`
}

type productSummary struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Title string `json:"title"`
	Price int64  `json:"price"`
}

func toSalesResponse(s *service.Sales) salesResponse {
	resp := salesResponse{
		Purchases: toPurchaseResponses(s.Purchases),
		Revenue:   s.Revenue,
	}
	if s.Product != nil {
		resp.Product = &productSummary{
			ID:    s.Product.ID,
			Type:  string(s.Product.Type),
			Title: s.Product.Title,
			Price: s.Product.Price,
		}
	}
	return resp
}

// ProductPurchases возвращает покупки товара и выручку по ним.
func (h *Handler) ProductPurchases(w http.ResponseWriter, r *http.Request) {
	sales, err := h.service.AdminProductPurchases(r.Context(), principal(r), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, "product purchases", err)
		return
	}
	writeJSON(w, http.StatusOK, toSalesResponse(sales))
}

// Purchases возвращает все покупки и общую выручку.
func (h *Handler) Purchases(w http.ResponseWriter, r *http.Request) {
	sales, err := h.service.AdminPurchases(r.Context(), principal(r))
	if err != nil {
		h.writeError(w, "purchases", err)
		return
	}
	writeJSON(w, http.StatusOK, toSalesResponse(sales))
}

type finalizeRequest struct {
	Status string `json:"status"`
}

// FinalizePurchase вручную завершает покупку в pending.
func (h *Handler) FinalizePurchase(w http.ResponseWriter, r *http.Request) {
	var req finalizeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		decodeFailed(w, err)
		return
	}

	p, err := h.service.AdminFinalize(r.Context(), principal(r), chi.URLParam(r, "id"), model.PaymentStatus(req.Status))
	if err != nil {
		h.writeError(w, "finalize purchase", err)
		return
	}
	writeJSON(w, http.StatusOK, toPurchaseResponse(p))
}

type createDiscountCodeRequest struct {
	Code               string `json:"code"`
	DiscountPercentage int    `json:"discount_percentage"`
}

// CreateDiscountCode создаёт код скидки.
func (h *Handler) CreateDiscountCode(w http.ResponseWriter, r *http.Request) {
	var req createDiscountCodeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		decodeFailed(w, err)
		return
	}

	dc, err := h.service.CreateDiscountCode(r.Context(), principal(r), req.Code, req.DiscountPercentage)
	if err != nil {
		h.writeError(w, "create discount code", err)
		return
	}
	writeJSON(w, http.StatusCreated, toDiscountCodeResponse(dc))
}

// ListDiscountCodes возвращает все коды скидок.
func (h *Handler) ListDiscountCodes(w http.ResponseWriter, r *http.Request) {
	codes, err := h.service.ListDiscountCodes(r.Context(), principal(r))
	if err != nil {
		h.writeError(w, "list discount codes", err)
		return
	}

	resp := make([]discountCodeResponse, 0, len(codes))
	for i := range codes {
		resp = append(resp, toDiscountCodeResponse(&codes[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

// ToggleDiscountCode включает или выключает код скидки.
func (h *Handler) ToggleDiscountCode(w http.ResponseWriter, r *http.Request) {
	dc, err := h.service.ToggleDiscountCode(r.Context(), principal(r), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, "toggle discount code", err)
		return
	}
	writeJSON(w, http.StatusOK, toDiscountCodeResponse(dc))
}
