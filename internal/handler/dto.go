package handler

import (
	"time"

	"github.com/mmeshcher/storefront/internal/model"
	"github.com/mmeshcher/storefront/internal/service"
)

type eventResponse struct {
	EventDate       time.Time `json:"event_date"`
	DurationMinutes int       `json:"duration_minutes"`
	Capacity        *int      `json:"capacity"`
	// RemainingSeats равен null для событий без ограничения вместимости.
	RemainingSeats *int    `json:"remaining_seats"`
	Location       *string `json:"location,omitempty"`
	MeetingURL     *string `json:"meeting_url,omitempty"`
}

type contentResponse struct {
	FileName string `json:"file_name"`
	FileURL  string `json:"file_url,omitempty"`
}

type productResponse struct {
	ID          string           `json:"id"`
	Type        string           `json:"type"`
	Title       string           `json:"title"`
	Description *string          `json:"description,omitempty"`
	Price       int64            `json:"price"`
	CreatedAt   time.Time        `json:"created_at"`
	Event       *eventResponse   `json:"event,omitempty"`
	Content     *contentResponse `json:"content,omitempty"`
}

// toProductResponse строит ответ по товару. Адрес файла отдаётся только администратору.
func toProductResponse(v *service.ProductView, withFileURL bool) productResponse {
	resp := productResponse{
		ID:          v.Product.ID,
		Type:        string(v.Product.Type),
		Title:       v.Product.Title,
		Description: v.Product.Description,
		Price:       v.Product.Price,
		CreatedAt:   v.Product.CreatedAt,
	}

	if v.Event != nil {
		resp.Event = &eventResponse{
			EventDate:       v.Event.EventDate,
			DurationMinutes: v.Event.DurationMinutes,
			Capacity:        v.Event.Capacity,
			Location:        v.Event.Location,
			MeetingURL:      v.Event.MeetingURL,
			RemainingSeats:  remainingSeats(v.Remaining),
		}
	}

	if v.Content != nil {
		resp.Content = &contentResponse{FileName: v.Content.FileName}
		if withFileURL {
			resp.Content.FileURL = v.Content.FileURL
		}
	}

	return resp
}

func remainingSeats(r *model.Remaining) *int {
	if r == nil || r.Unlimited {
		return nil
	}
	seats := r.Seats
	return &seats
}

type purchaseResponse struct {
	ID              string     `json:"id"`
	ProductID       string     `json:"product_id"`
	CustomerName    string     `json:"customer_name"`
	CustomerEmail   string     `json:"customer_email"`
	CustomerPhone   *string    `json:"customer_phone,omitempty"`
	CustomerAddress *string    `json:"customer_address,omitempty"`
	OriginalPrice   int64      `json:"original_price"`
	FinalPrice      int64      `json:"final_price"`
	DiscountCode    *string    `json:"discount_code,omitempty"`
	PaymentMethod   string     `json:"payment_method"`
	PaymentStatus   string     `json:"payment_status"`
	PaymentDate     *time.Time `json:"payment_date"`
	CreatedAt       time.Time  `json:"created_at"`
}

func toPurchaseResponse(p *model.Purchase) purchaseResponse {
	return purchaseResponse{
		ID:              p.ID,
		ProductID:       p.ProductID,
		CustomerName:    p.CustomerName,
		CustomerEmail:   p.CustomerEmail,
		CustomerPhone:   p.CustomerPhone,
		CustomerAddress: p.CustomerAddress,
		OriginalPrice:   p.OriginalPrice,
		FinalPrice:      p.FinalPrice,
		DiscountCode:    p.DiscountCode,
		PaymentMethod:   string(p.PaymentMethod),
		PaymentStatus:   string(p.PaymentStatus),
		PaymentDate:     p.PaymentDate,
		CreatedAt:       p.CreatedAt,
	}
}

func toPurchaseResponses(purchases []model.Purchase) []purchaseResponse {
	resp := make([]purchaseResponse, 0, len(purchases))
	for i := range purchases {
		resp = append(resp, toPurchaseResponse(&purchases[i]))
	}
	return resp
}

type discountCodeResponse struct {
	ID                 string    `json:"id"`
	Code               string    `json:"code"`
	DiscountPercentage int       `json:"discount_percentage"`
	Active             bool      `json:"active"`
	CreatedAt          time.Time `json:"created_at"`
}

func toDiscountCodeResponse(d *model.DiscountCode) discountCodeResponse {
	return discountCodeResponse{
		ID:                 d.ID,
		Code:               d.Code,
		DiscountPercentage: d.DiscountPercentage,
		Active:             d.Active,
		CreatedAt:          d.CreatedAt,
	}
}

type eventDetailsRequest struct {
	EventDate       time.Time `json:"event_date"`
	DurationMinutes int       `json:"duration_minutes"`
	Capacity        *int      `json:"capacity"`
	Location        *string   `json:"location"`
	MeetingURL      *string   `json:"meeting_url"`
}

func (e eventDetailsRequest) toModel() model.EventDetails {
	return model.EventDetails{
		EventDate:       e.EventDate,
		DurationMinutes: e.DurationMinutes,
		Capacity:        e.Capacity,
		Location:        e.Location,
		MeetingURL:      e.MeetingURL,
	}
}
